// Package sanitize cleans Jenkins console output for plain-text consumers.
// It removes ANSI escape codes and the hidden console notes Jenkins embeds in
// log lines, for `clee logs --strip-ansi` and MCP tool responses.
package sanitize

import (
	"bytes"
	"io"
	"regexp"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

var (
	// Jenkins console notes: \x1b[8mha:<base64 payload>\x1b[0m
	consoleNote = regexp.MustCompile(`\x1b\[8mha:[^\x1b]*\x1b\[0m`)
)

// StripANSI removes ANSI escape codes and Jenkins console notes.
func StripANSI(s string) string {
	s = consoleNote.ReplaceAllString(s, "")
	return ansi.Strip(s)
}

// Clean strips escape codes, normalizes line endings and drops trailing
// newlines.
func Clean(s string) string {
	s = StripANSI(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "")
	return strings.TrimRight(s, "\n")
}

// Writer strips escape codes from everything written through it. Output is
// held back until a full line is available so sequences split across writes
// are still recognized. Call Flush to emit a trailing partial line.
type Writer struct {
	w   io.Writer
	buf []byte
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (s *Writer) Write(p []byte) (int, error) {
	s.buf = append(s.buf, p...)
	i := bytes.LastIndexByte(s.buf, '\n')
	if i < 0 {
		return len(p), nil
	}

	out := StripANSI(string(s.buf[:i+1]))
	s.buf = append(s.buf[:0], s.buf[i+1:]...)
	if _, err := io.WriteString(s.w, out); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Flush writes any buffered partial line.
func (s *Writer) Flush() error {
	if len(s.buf) == 0 {
		return nil
	}
	out := StripANSI(string(s.buf))
	s.buf = s.buf[:0]
	_, err := io.WriteString(s.w, out)
	return err
}
