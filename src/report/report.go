// Package report turns Jenkins test reports into classified suite and case results.
//
// A single build is reduced directly (see Inspect). Several builds are first folded
// into per-case outcome tallies and classified afterwards (see Aggregator). Both paths
// share the same status normalization and case-name canonicalization, so the same
// underlying data always classifies the same way.
package report

// Outcome is the canonical state of one test case execution.
type Outcome string

const (
	OutcomePassed  Outcome = "PASSED"
	OutcomeFailed  Outcome = "FAILED"
	OutcomeSkipped Outcome = "SKIPPED"
	OutcomeOther   Outcome = "OTHER"
)

// Verdict is the display bucket assigned to a case or a suite.
type Verdict string

const (
	VerdictGood  Verdict = "GOOD"
	VerdictMixed Verdict = "MIXED"
	VerdictBad   Verdict = "BAD"
	// VerdictEmpty marks a suite without passing or failing cases, or a case whose
	// raw status is not classified and is shown verbatim.
	VerdictEmpty Verdict = "EMPTY"
)

// Report status values as reported by the build server.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// RawCase is one test case as found in a build's test report.
type RawCase struct {
	Name            string  `json:"name"`
	Status          string  `json:"status"`
	ClassName       string  `json:"className"`
	Duration        float64 `json:"duration"`
	ErrorDetails    string  `json:"errorDetails"`
	ErrorStackTrace string  `json:"errorStackTrace"`
	Stdout          string  `json:"stdout"`
	Stderr          string  `json:"stderr"`
}

// CanonicalName returns the case name used for identity and merging.
func (c RawCase) CanonicalName() string {
	return CanonicalName(c.Name)
}

// Outcome returns the normalized outcome of the case.
func (c RawCase) Outcome() Outcome {
	return Normalize(c.Status)
}

// RawSuite is a named, ordered group of cases.
type RawSuite struct {
	Name  string    `json:"name"`
	Cases []RawCase `json:"cases"`
}

// RawReport is a build's test report. A report whose Status is StatusError carries
// no usable suites.
type RawReport struct {
	Status string     `json:"status"`
	Suites []RawSuite `json:"suites"`
}

// Available reports whether the report carries suite data.
func (r RawReport) Available() bool {
	return r.Status != StatusError
}

// BuildReport is the part of a fetched build the aggregator needs.
type BuildReport struct {
	Number   string
	Building bool
	Report   RawReport
	// Err is set when the build could not be fetched or decoded.
	Err error
}

// CaseTally accumulates the outcomes of one case across builds.
type CaseTally struct {
	Name   string
	Counts map[Outcome]int
}

// NewCaseTally returns an empty tally for the named case.
func NewCaseTally(name string) *CaseTally {
	return &CaseTally{Name: name, Counts: make(map[Outcome]int)}
}

// Add records one observation.
func (t *CaseTally) Add(o Outcome) {
	if t.Counts == nil {
		t.Counts = make(map[Outcome]int)
	}
	t.Counts[o]++
}

func (t CaseTally) Passed() int  { return t.Counts[OutcomePassed] }
func (t CaseTally) Failed() int  { return t.Counts[OutcomeFailed] }
func (t CaseTally) Skipped() int { return t.Counts[OutcomeSkipped] }
func (t CaseTally) Other() int   { return t.Counts[OutcomeOther] }

// Total is the number of observations folded into the tally.
func (t CaseTally) Total() int {
	total := 0
	for _, n := range t.Counts {
		total += n
	}
	return total
}

// CaseResult is a classified case ready for rendering.
type CaseResult struct {
	// Name is the canonical case name.
	Name    string
	RawName string
	Outcome Outcome
	// RawStatus is the status as reported, shown verbatim for OutcomeOther.
	RawStatus string
	Verdict   Verdict
	// Tally is set for aggregated results only.
	Tally *CaseTally
	// Detail is set for single-build results only.
	Detail *RawCase
}

// SuiteResult is a classified suite with the cases selected for display.
type SuiteResult struct {
	Name    string
	Verdict Verdict
	Cases   []CaseResult
}

// Options control filtering and classification.
type Options struct {
	// FailedOnly drops passing cases from the displayed case lists. Suite verdicts
	// are still computed over every case.
	FailedOnly bool
	// AnyPass classifies a case that passed at least once as GOOD even when it
	// also failed or was skipped.
	AnyPass bool
}
