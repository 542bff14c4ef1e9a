package report

import "sort"

// Inspect reduces a single build's report. A running build or a build without a
// report yields a *ReportUnavailableError and no suites. Suites keep their report
// order and cases keep their order within a suite. Suites with nothing
// classifiable (EMPTY) are omitted.
func Inspect(b BuildReport, opts Options) ([]SuiteResult, error) {
	if err := unavailable(b); err != nil {
		return nil, err
	}

	var results []SuiteResult
	for _, suite := range b.Report.Suites {
		verdicts := make([]Verdict, 0, len(suite.Cases))
		var cases []CaseResult

		for i := range suite.Cases {
			rc := &suite.Cases[i]
			outcome := rc.Outcome()
			verdict := ClassifyOutcome(outcome)
			verdicts = append(verdicts, verdict)

			if opts.FailedOnly && outcome == OutcomePassed {
				continue
			}
			cases = append(cases, CaseResult{
				Name:      rc.CanonicalName(),
				RawName:   rc.Name,
				Outcome:   outcome,
				RawStatus: rc.Status,
				Verdict:   verdict,
				Detail:    rc,
			})
		}

		verdict := ClassifySuite(verdicts)
		if len(cases) == 0 || verdict == VerdictEmpty {
			continue
		}
		results = append(results, SuiteResult{
			Name:    suite.Name,
			Verdict: verdict,
			Cases:   cases,
		})
	}

	return results, nil
}

type suiteTally struct {
	name  string
	cases map[string]*CaseTally
}

// Aggregator folds the reports of many builds into per-suite, per-case tallies.
// It is not safe for concurrent use; fetch in parallel, then Add sequentially.
type Aggregator struct {
	suites  []*suiteTally
	index   map[string]*suiteTally
	skipped []ReportUnavailableError
	folded  []string
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{index: make(map[string]*suiteTally)}
}

// Add folds one build into the tallies. Running builds, builds without a
// report and builds that failed to fetch are recorded as skipped and Add
// returns false.
func (a *Aggregator) Add(b BuildReport) bool {
	if err := unavailable(b); err != nil {
		a.skipped = append(a.skipped, *err)
		return false
	}

	for _, suite := range b.Report.Suites {
		st, ok := a.index[suite.Name]
		if !ok {
			st = &suiteTally{name: suite.Name, cases: make(map[string]*CaseTally)}
			a.index[suite.Name] = st
			a.suites = append(a.suites, st)
		}
		for _, rc := range suite.Cases {
			name := rc.CanonicalName()
			tally, ok := st.cases[name]
			if !ok {
				tally = NewCaseTally(name)
				st.cases[name] = tally
			}
			tally.Add(rc.Outcome())
		}
	}

	a.folded = append(a.folded, b.Number)
	return true
}

// Skipped returns the builds left out of the fold, in the order they were added.
func (a *Aggregator) Skipped() []ReportUnavailableError {
	return a.skipped
}

// Folded returns the numbers of the builds that contributed to the tallies.
func (a *Aggregator) Folded() []string {
	return a.folded
}

// caseTally returns a copy of the tally for a suite and canonical case name.
func (a *Aggregator) caseTally(suite, name string) (CaseTally, bool) {
	st, ok := a.index[suite]
	if !ok {
		return CaseTally{}, false
	}
	t, ok := st.cases[name]
	if !ok {
		return CaseTally{}, false
	}
	return copyTally(t), true
}

// Results classifies the folded tallies. Suites appear in first-seen order and
// cases are sorted by canonical name. Suites left without displayed cases are
// omitted.
func (a *Aggregator) Results(opts Options) []SuiteResult {
	var results []SuiteResult

	for _, st := range a.suites {
		names := make([]string, 0, len(st.cases))
		for name := range st.cases {
			names = append(names, name)
		}
		sort.Strings(names)

		verdicts := make([]Verdict, 0, len(names))
		var cases []CaseResult
		for _, name := range names {
			tally := copyTally(st.cases[name])
			verdict := ClassifyTally(tally, opts.AnyPass)
			verdicts = append(verdicts, verdict)

			if opts.FailedOnly && !verdict.Failing() {
				continue
			}
			cases = append(cases, CaseResult{
				Name:    name,
				RawName: name,
				Verdict: verdict,
				Tally:   &tally,
			})
		}

		if len(cases) == 0 {
			continue
		}
		results = append(results, SuiteResult{
			Name:    st.name,
			Verdict: ClassifySuite(verdicts),
			Cases:   cases,
		})
	}

	return results
}

// Analysis is the outcome of a multi-build analysis. Suites honors the
// failed-only filter; All holds every classified suite and feeds summaries.
type Analysis struct {
	Suites  []SuiteResult
	All     []SuiteResult
	Skipped []ReportUnavailableError
	Folded  []string
}

// Analyze folds builds in the given order and classifies the result. Callers
// pass builds sorted by number so suite order is reproducible.
func Analyze(builds []BuildReport, opts Options) Analysis {
	agg := NewAggregator()
	for _, b := range builds {
		agg.Add(b)
	}
	return Analysis{
		Suites:  agg.Results(opts),
		All:     agg.Results(Options{AnyPass: opts.AnyPass}),
		Skipped: agg.Skipped(),
		Folded:  agg.Folded(),
	}
}

func copyTally(t *CaseTally) CaseTally {
	c := CaseTally{Name: t.Name, Counts: make(map[Outcome]int, len(t.Counts))}
	for o, n := range t.Counts {
		c.Counts[o] = n
	}
	return c
}
