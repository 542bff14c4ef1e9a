// Package mcp exposes build reports as MCP tools for LLM clients.
package mcp

// BuildStatusResponse is the build_status tool response. Failing cases are
// expanded with their error details; passing cases are only counted.
type BuildStatusResponse struct {
	Job     string      `json:"job"`
	Build   string      `json:"build"`
	Result  string      `json:"result,omitempty"`
	Notice  string      `json:"notice,omitempty"`
	Passed  int         `json:"passed_count"`
	Omitted int         `json:"omitted_failures,omitempty"`
	Suites  []SuiteView `json:"suites,omitempty"`
}

// AnalysisResponse is the analyze_builds tool response.
type AnalysisResponse struct {
	Job     string      `json:"job"`
	Builds  []string    `json:"builds"`
	Skipped []string    `json:"skipped,omitempty"`
	Suites  []SuiteView `json:"suites"`
}

// SuiteView is a suite with the cases selected for the response.
type SuiteView struct {
	Name    string     `json:"name"`
	Verdict string     `json:"verdict"`
	Cases   []CaseView `json:"cases"`
}

// CaseView is one case. Counts are set for analyses, Error for single builds.
type CaseView struct {
	Name    string `json:"name"`
	Status  string `json:"status,omitempty"`
	Verdict string `json:"verdict"`
	Passed  *int   `json:"passed,omitempty"`
	Failed  *int   `json:"failed,omitempty"`
	Skipped *int   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CaseDetails is the get_case_details tool response.
type CaseDetails struct {
	Job        string   `json:"job"`
	Build      string   `json:"build"`
	Suite      string   `json:"suite"`
	Name       string   `json:"name"`
	Status     string   `json:"status"`
	ClassName  string   `json:"class_name,omitempty"`
	Duration   float64  `json:"duration"`
	Error      string   `json:"error,omitempty"`
	StackTrace []string `json:"stack_trace,omitempty"`
	Stdout     []string `json:"stdout,omitempty"`
	Stderr     []string `json:"stderr,omitempty"`
}
