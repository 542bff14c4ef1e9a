package report

import (
	"encoding/json"
	"fmt"
)

// wire types keep required fields as pointers so a missing key is detected
// instead of silently becoming "".
type wireReport struct {
	Status *string     `json:"status"`
	Suites []wireSuite `json:"suites"`
}

type wireSuite struct {
	Name  *string    `json:"name"`
	Cases []wireCase `json:"cases"`
}

type wireCase struct {
	Name            *string `json:"name"`
	Status          *string `json:"status"`
	ClassName       string  `json:"className"`
	Duration        float64 `json:"duration"`
	ErrorDetails    string  `json:"errorDetails"`
	ErrorStackTrace string  `json:"errorStackTrace"`
	Stdout          string  `json:"stdout"`
	Stderr          string  `json:"stderr"`
}

// DecodeReport decodes a test report payload as returned by the build server's
// testReport API. A payload without a status is considered StatusOK. Missing suite
// or case names and missing case statuses fail with ErrMalformedReport.
func DecodeReport(data []byte) (RawReport, error) {
	var w wireReport
	if err := json.Unmarshal(data, &w); err != nil {
		return RawReport{}, fmt.Errorf("%w: %v", ErrMalformedReport, err)
	}

	report := RawReport{Status: StatusOK}
	if w.Status != nil {
		report.Status = *w.Status
	}
	if report.Status == StatusError {
		return report, nil
	}

	report.Suites = make([]RawSuite, 0, len(w.Suites))
	for i, ws := range w.Suites {
		if ws.Name == nil {
			return RawReport{}, fmt.Errorf("%w: suite %d has no name", ErrMalformedReport, i)
		}
		suite := RawSuite{Name: *ws.Name, Cases: make([]RawCase, 0, len(ws.Cases))}
		for j, wc := range ws.Cases {
			if wc.Name == nil {
				return RawReport{}, fmt.Errorf("%w: suite %q case %d has no name", ErrMalformedReport, suite.Name, j)
			}
			if wc.Status == nil {
				return RawReport{}, fmt.Errorf("%w: suite %q case %q has no status", ErrMalformedReport, suite.Name, *wc.Name)
			}
			suite.Cases = append(suite.Cases, RawCase{
				Name:            *wc.Name,
				Status:          *wc.Status,
				ClassName:       wc.ClassName,
				Duration:        wc.Duration,
				ErrorDetails:    wc.ErrorDetails,
				ErrorStackTrace: wc.ErrorStackTrace,
				Stdout:          wc.Stdout,
				Stderr:          wc.Stderr,
			})
		}
		report.Suites = append(report.Suites, suite)
	}

	return report, nil
}

// UnavailableReport is the report recorded for a build without test results.
func UnavailableReport() RawReport {
	return RawReport{Status: StatusError}
}
