// Package junit reads JUnit XML result files into test reports, so locally
// produced results can be inspected the same way as a build's published report.
package junit

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"

	"clee/src/report"
)

// TestSuites is the root element for multiple test suites.
type TestSuites struct {
	XMLName    xml.Name    `xml:"testsuites"`
	TestSuites []TestSuite `xml:"testsuite"`
}

// TestSuite represents a <testsuite> element.
type TestSuite struct {
	Name      string     `xml:"name,attr"`
	Tests     int        `xml:"tests,attr"`
	Failures  int        `xml:"failures,attr"`
	Errors    int        `xml:"errors,attr"`
	Skipped   int        `xml:"skipped,attr"`
	Time      float64    `xml:"time,attr"`
	TestCases []TestCase `xml:"testcase"`
}

// TestCase represents a <testcase> element.
type TestCase struct {
	Name      string   `xml:"name,attr"`
	ClassName string   `xml:"classname,attr"`
	Time      float64  `xml:"time,attr"`
	Failure   *Failure `xml:"failure"`
	Error     *Failure `xml:"error"`
	Skipped   *Skipped `xml:"skipped"`
	SystemOut string   `xml:"system-out"`
	SystemErr string   `xml:"system-err"`
}

// Failure represents a <failure> or <error> element.
type Failure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Content string `xml:",chardata"`
}

// Skipped represents a skipped test.
type Skipped struct {
	Message string `xml:"message,attr"`
}

// Parse parses JUnit XML data into a test report. Cases with a failure or an
// error are FAILED, skipped cases SKIPPED, everything else PASSED.
func Parse(data []byte) (report.RawReport, error) {
	// Try parsing as <testsuites> (multiple suites) first
	var suites TestSuites
	if err := xml.Unmarshal(data, &suites); err == nil && len(suites.TestSuites) > 0 {
		return toReport(suites.TestSuites), nil
	}

	// Try parsing as single <testsuite>
	var suite TestSuite
	if err := xml.Unmarshal(data, &suite); err != nil {
		return report.RawReport{}, fmt.Errorf("failed to parse JUnit XML: %w", err)
	}

	return toReport([]TestSuite{suite}), nil
}

// ParseFile reads and parses a JUnit XML file.
func ParseFile(path string) (report.RawReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return report.RawReport{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(data)
}

func toReport(suites []TestSuite) report.RawReport {
	r := report.RawReport{Status: report.StatusOK}

	for _, suite := range suites {
		rs := report.RawSuite{Name: suite.Name, Cases: make([]report.RawCase, 0, len(suite.TestCases))}
		for _, tc := range suite.TestCases {
			rc := report.RawCase{
				Name:      tc.Name,
				Status:    string(report.OutcomePassed),
				ClassName: tc.ClassName,
				Duration:  tc.Time,
				Stdout:    strings.TrimSpace(tc.SystemOut),
				Stderr:    strings.TrimSpace(tc.SystemErr),
			}

			switch {
			case tc.Failure != nil:
				rc.Status = string(report.OutcomeFailed)
				rc.ErrorDetails = tc.Failure.Message
				rc.ErrorStackTrace = strings.TrimSpace(tc.Failure.Content)
			case tc.Error != nil:
				rc.Status = string(report.OutcomeFailed)
				rc.ErrorDetails = tc.Error.Message
				rc.ErrorStackTrace = strings.TrimSpace(tc.Error.Content)
			case tc.Skipped != nil:
				rc.Status = string(report.OutcomeSkipped)
				rc.ErrorDetails = tc.Skipped.Message
			}

			rs.Cases = append(rs.Cases, rc)
		}
		r.Suites = append(r.Suites, rs)
	}

	return r
}
