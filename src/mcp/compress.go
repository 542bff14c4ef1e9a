package mcp

import (
	"fmt"
	"regexp"
	"strings"

	"clee/src/sanitize"
)

// timestampPattern matches leading timestamps such as 2024-05-21T10:00:05.123Z
// or 2024-05-21 10:00:05,123.
var timestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}[.,]?\d*[Z]?([+-]\d{2}:?\d{2})?\s*`)

// longPathPattern matches absolute paths with 3+ directories, capturing the
// file name and optional line number.
var longPathPattern = regexp.MustCompile(`/(?:[^/\s]+/){3,}([^/\s:]+(?::\d+)?)`)

var whitespacePattern = regexp.MustCompile(`[ \t]+`)

// minPrefixLength is the shortest common prefix worth replacing.
const minPrefixLength = 20

// compactLine strips a leading timestamp, shortens long paths and collapses
// runs of blanks.
func compactLine(line string) string {
	line = timestampPattern.ReplaceAllString(line, "")
	line = longPathPattern.ReplaceAllString(line, ".../$1")
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(line, " "))
}

// commonPrefix returns the longest prefix shared by all lines, or "" when it is
// too short to matter.
func commonPrefix(lines []string) string {
	if len(lines) < 2 {
		return ""
	}

	prefix := lines[0]
	for _, line := range lines[1:] {
		for !strings.HasPrefix(line, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
		if prefix == "" {
			return ""
		}
	}

	if len(prefix) < minPrefixLength {
		return ""
	}
	return prefix
}

// compactText turns stack traces and captured output into at most maxLines
// short lines. Empty lines are dropped; a shared prefix becomes "... ".
// When lines are cut, the last kept line says how many were dropped.
func compactText(text string, maxLines int) []string {
	text = sanitize.Clean(text)
	if text == "" {
		return nil
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = compactLine(line); line != "" {
			lines = append(lines, line)
		}
	}

	if prefix := commonPrefix(lines); prefix != "" {
		for i, line := range lines {
			lines[i] = "... " + line[len(prefix):]
		}
	}

	if maxLines > 0 && len(lines) > maxLines {
		dropped := len(lines) - maxLines + 1
		lines = append(lines[:maxLines-1], fmt.Sprintf("(%d more lines)", dropped))
	}
	return lines
}

// firstLine returns the first non-empty compacted line of text.
func firstLine(text string) string {
	lines := compactText(text, 0)
	if len(lines) == 0 {
		return ""
	}
	return lines[0]
}
