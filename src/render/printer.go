package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"clee/src/provider"
	"clee/src/report"
	"clee/src/store"
)

const (
	statusColumn = 18
	numberColumn = 4
	timeLayout   = "2006-01-02 15:04:05"
)

// Printer writes styled command output. Colors are dropped automatically when
// the destination is not a terminal.
type Printer struct {
	w        io.Writer
	renderer *lipgloss.Renderer
	styles   *StyleConfig
}

// NewPrinter creates a printer for w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{
		w:        w,
		renderer: lipgloss.NewRenderer(w),
		styles:   DefaultStyles(),
	}
}

func (p *Printer) color(c lipgloss.Color) lipgloss.Style {
	return p.renderer.NewStyle().Foreground(c)
}

func (p *Printer) verdictStyle(v report.Verdict) lipgloss.Style {
	switch v {
	case report.VerdictGood:
		return p.color(p.styles.Good)
	case report.VerdictMixed:
		return p.color(p.styles.Mixed)
	case report.VerdictBad:
		return p.color(p.styles.Bad)
	default:
		return p.color(p.styles.Neutral)
	}
}

func (p *Printer) outcomeStyle(o report.Outcome) lipgloss.Style {
	switch o {
	case report.OutcomePassed:
		return p.color(p.styles.Good)
	case report.OutcomeFailed:
		return p.color(p.styles.Bad)
	case report.OutcomeSkipped:
		return p.color(p.styles.Mixed)
	default:
		return p.renderer.NewStyle()
	}
}

// Println writes a plain line.
func (p *Printer) Println(format string, args ...interface{}) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

// suites prints each suite as a bold, underlined header colored by verdict,
// followed by one line per case and a blank line.
func (p *Printer) suites(results []report.SuiteResult, line func(report.CaseResult) string) {
	for _, suite := range results {
		style := p.verdictStyle(suite.Verdict).Bold(true)
		fmt.Fprintln(p.w, style.Render(suite.Name))
		fmt.Fprintln(p.w, style.Render(strings.Repeat("-", len(suite.Name))))
		for _, c := range suite.Cases {
			fmt.Fprintln(p.w, line(c))
		}
		fmt.Fprintln(p.w)
	}
}

// Status prints the suites of a single build as "STATUS  name" lines.
// Unclassified statuses are shown verbatim without color.
func (p *Printer) Status(results []report.SuiteResult) {
	p.suites(results, func(c report.CaseResult) string {
		status := string(c.Outcome)
		if c.Outcome == report.OutcomeOther {
			status = c.RawStatus
		}
		return PadRight(p.outcomeStyle(c.Outcome).Render(status), statusColumn) + c.Name
	})
}

// Analysis prints skip notices followed by the aggregated suites with
// per-case pass, fail and skip counts.
func (p *Printer) Analysis(a report.Analysis) {
	for _, s := range a.Skipped {
		fmt.Fprintln(p.w, s.SkipMessage())
	}
	p.suites(a.Suites, func(c report.CaseResult) string {
		var passed, failed, skipped int
		if c.Tally != nil {
			passed, failed, skipped = c.Tally.Passed(), c.Tally.Failed(), c.Tally.Skipped()
		}
		return fmt.Sprintf("%s [passed=%d, failed=%d, skipped=%d]",
			p.verdictStyle(c.Verdict).Render(c.Name), passed, failed, skipped)
	})
}

// Export prints where exported case details were written.
func (p *Printer) Export(plan report.ExportPlan) {
	fmt.Fprintf(p.w, "Output files written to %s\n", plan.Dir)
}

// Jobs prints one job name per line.
func (p *Printer) Jobs(jobs []string) {
	for _, j := range jobs {
		fmt.Fprintln(p.w, j)
	}
}

// Builds prints a job's build list. Running builds show as BUILDING.
func (p *Printer) Builds(builds []provider.BuildSummary) {
	for _, b := range builds {
		result := b.Result
		style := p.color(p.styles.Good)
		switch {
		case b.Building:
			result = "BUILDING"
			style = p.color(p.styles.Neutral)
		case result == "FAILURE":
			style = p.color(p.styles.Bad)
		case result == "ABORTED":
			style = p.color(p.styles.Mixed)
		}

		fmt.Fprintf(p.w, "%s%s%s (%s)\n",
			PadRight(fmt.Sprint(b.Number), numberColumn),
			PadRight(style.Render(result), statusColumn),
			b.Cause,
			b.Timestamp.Format(timeLayout))
	}
}

// History prints recorded analyses, newest first.
func (p *Printer) History(records []store.AnalysisRecord) {
	if len(records) == 0 {
		fmt.Fprintln(p.w, "No analyses recorded")
		return
	}

	for _, r := range records {
		builds := Truncate(strings.Join(r.Builds, ","), 40)
		fmt.Fprintf(p.w, "%s  builds=%s  %s %s %s\n",
			r.CreatedAt.Local().Format(timeLayout),
			builds,
			p.verdictStyle(report.VerdictGood).Render(fmt.Sprintf("good=%d", r.Good)),
			p.verdictStyle(report.VerdictMixed).Render(fmt.Sprintf("mixed=%d", r.Mixed)),
			p.verdictStyle(report.VerdictBad).Render(fmt.Sprintf("bad=%d", r.Bad)))
		for _, name := range r.Failing {
			fmt.Fprintf(p.w, "    %s\n", name)
		}
	}
}
