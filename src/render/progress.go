package render

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/mattn/go-isatty"
)

// Progress draws a single-line progress bar while builds are fetched. It only
// draws when the destination is a terminal; safe for concurrent use.
type Progress struct {
	mu      sync.Mutex
	w       io.Writer
	bar     progress.Model
	label   string
	total   int
	done    int
	enabled bool
}

// NewProgress creates a bar for total steps writing to w.
func NewProgress(w io.Writer, label string, total int) *Progress {
	enabled := false
	if f, ok := w.(*os.File); ok {
		enabled = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Progress{
		w:       w,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		label:   label,
		total:   total,
		enabled: enabled && total > 1,
	}
}

// Increment advances the bar by one step.
func (p *Progress) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	if !p.enabled {
		return
	}
	percent := float64(p.done) / float64(p.total)
	fmt.Fprintf(p.w, "\r%s %s %d/%d", p.label, p.bar.ViewAs(percent), p.done, p.total)
}

// Done clears the bar line.
func (p *Progress) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.enabled {
		fmt.Fprint(p.w, "\r\033[K")
	}
}

// Count returns the number of completed steps.
func (p *Progress) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}
