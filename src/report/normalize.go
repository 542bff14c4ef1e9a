package report

import "strings"

// Normalize maps a raw case status onto its canonical outcome. Unknown statuses
// map to OutcomeOther and are displayed verbatim.
func Normalize(raw string) Outcome {
	switch raw {
	case "FAILED", "REGRESSION":
		return OutcomeFailed
	case "PASSED", "FIXED":
		return OutcomePassed
	case "SKIPPED":
		return OutcomeSkipped
	default:
		return OutcomeOther
	}
}

// CanonicalName strips the "@" suffix some runners append to parametrized
// case names, so "testFoo@cfg1" and "testFoo" merge as the same case.
func CanonicalName(raw string) string {
	name, _, _ := strings.Cut(raw, "@")
	return name
}
