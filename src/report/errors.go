package report

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRange      = errors.New("illegal build range")
	ErrReportUnavailable = errors.New("test report unavailable")
	ErrMalformedReport   = errors.New("malformed test report")
)

// InvalidRangeError is returned for a build selector that cannot be expanded.
type InvalidRangeError struct {
	Token  string
	Reason string
}

func (e *InvalidRangeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s (%s)", ErrInvalidRange, e.Token, e.Reason)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidRange, e.Token)
}

func (e *InvalidRangeError) Unwrap() error {
	return ErrInvalidRange
}

// UnavailableReason explains why a build has no usable test report.
type UnavailableReason string

const (
	ReasonBuilding UnavailableReason = "building"
	ReasonNoReport UnavailableReason = "no-report"
	ReasonFetch    UnavailableReason = "fetch-failed"
)

// ReportUnavailableError records a build whose report could not be used.
// It is a notice, not a failure: processing continues with other builds.
type ReportUnavailableError struct {
	Build  string
	Reason UnavailableReason
	// Err is the fetch or decode failure for ReasonFetch.
	Err error
}

func (e *ReportUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("build %s: %s (%s: %v)", e.Build, ErrReportUnavailable, e.Reason, e.Err)
	}
	return fmt.Sprintf("build %s: %s (%s)", e.Build, ErrReportUnavailable, e.Reason)
}

func (e *ReportUnavailableError) Unwrap() error {
	return ErrReportUnavailable
}

// Message is the notice shown when inspecting a single build.
func (e *ReportUnavailableError) Message() string {
	switch e.Reason {
	case ReasonBuilding:
		return "Building is currently running"
	case ReasonFetch:
		return fmt.Sprintf("Build could not be fetched: %v", e.Err)
	default:
		return "No tests report has been generated for this build"
	}
}

// SkipMessage is the notice shown when a build is left out of an analysis.
func (e *ReportUnavailableError) SkipMessage() string {
	switch e.Reason {
	case ReasonBuilding:
		return fmt.Sprintf("Skipping build %s as it is currently running", e.Build)
	case ReasonFetch:
		return fmt.Sprintf("Skipping build %s as it could not be fetched: %v", e.Build, e.Err)
	default:
		return fmt.Sprintf("Skipping build %s as no test reports were generated for it", e.Build)
	}
}

// unavailable returns the reason a build cannot be reduced, if any.
func unavailable(b BuildReport) *ReportUnavailableError {
	if b.Err != nil {
		return &ReportUnavailableError{Build: b.Number, Reason: ReasonFetch, Err: b.Err}
	}
	if b.Building {
		return &ReportUnavailableError{Build: b.Number, Reason: ReasonBuilding}
	}
	if !b.Report.Available() {
		return &ReportUnavailableError{Build: b.Number, Reason: ReasonNoReport}
	}
	return nil
}
