package report

// ClassifyOutcome buckets a single observed outcome. Skipped cases count as
// failing to pass. Other outcomes are left unclassified (VerdictEmpty).
func ClassifyOutcome(o Outcome) Verdict {
	switch o {
	case OutcomePassed:
		return VerdictGood
	case OutcomeFailed, OutcomeSkipped:
		return VerdictBad
	default:
		return VerdictEmpty
	}
}

// ClassifyTally buckets a case observed across several builds. Any pass wins
// outright when anyPass is set; otherwise a pass mixed with failures or skips is
// MIXED. No passes at all is BAD.
func ClassifyTally(t CaseTally, anyPass bool) Verdict {
	passed := t.Passed()
	notPassed := t.Failed() > 0 || t.Skipped() > 0

	switch {
	case passed > 0 && notPassed && !anyPass:
		return VerdictMixed
	case passed > 0:
		return VerdictGood
	default:
		return VerdictBad
	}
}

// ClassifySuite derives a suite verdict from all of its case verdicts, before any
// display filtering. GOOD cases count as passing, BAD and MIXED cases as failing,
// unclassified cases as neither.
func ClassifySuite(verdicts []Verdict) Verdict {
	var passing, failing bool
	for _, v := range verdicts {
		switch v {
		case VerdictGood:
			passing = true
		case VerdictBad, VerdictMixed:
			failing = true
		}
	}

	switch {
	case passing && failing:
		return VerdictMixed
	case passing:
		return VerdictGood
	case failing:
		return VerdictBad
	default:
		return VerdictEmpty
	}
}

// Failing reports whether a verdict shows under the failed-only filter.
func (v Verdict) Failing() bool {
	return v == VerdictBad || v == VerdictMixed
}
