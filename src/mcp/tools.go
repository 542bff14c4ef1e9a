package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"clee/src/report"
)

// handleListJobs handles the list_jobs tool call.
func (s *Server) handleListJobs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobs, err := s.source.ListJobs(ctx)
	if err != nil {
		return errorResult("failed to list jobs", err)
	}
	return jsonResult(map[string][]string{"jobs": jobs})
}

// handleBuildStatus handles the build_status tool call.
func (s *Server) handleBuildStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	job := request.GetString("job", "")
	buildID := request.GetString("build", "")
	if job == "" || buildID == "" {
		return mcp.NewToolResultError("job and build parameters are required"), nil
	}
	limit := request.GetInt("limit", defaultCaseLimit)

	build, err := s.source.FetchBuild(ctx, job, buildID)
	if err != nil {
		return errorResult("failed to fetch build", err)
	}

	response := BuildStatusResponse{Job: job, Build: build.Number, Result: build.Result}
	results, err := report.Inspect(build.TestResults(), report.Options{})
	var unavailable *report.ReportUnavailableError
	if errors.As(err, &unavailable) {
		response.Notice = unavailable.Message()
		return jsonResult(response)
	}
	if err != nil {
		return errorResult("failed to inspect build", err)
	}

	included := 0
	for _, suite := range results {
		view := SuiteView{Name: suite.Name, Verdict: string(suite.Verdict)}
		for _, c := range suite.Cases {
			if c.Outcome == report.OutcomePassed {
				response.Passed++
				continue
			}
			if limit > 0 && included >= limit {
				response.Omitted++
				continue
			}
			included++

			cv := CaseView{Name: c.Name, Status: c.RawStatus, Verdict: string(c.Verdict)}
			if c.Detail != nil {
				cv.Error = firstLine(c.Detail.ErrorDetails)
			}
			view.Cases = append(view.Cases, cv)
		}
		if len(view.Cases) > 0 {
			response.Suites = append(response.Suites, view)
		}
	}

	return jsonResult(response)
}

// handleAnalyzeBuilds handles the analyze_builds tool call.
func (s *Server) handleAnalyzeBuilds(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	job := request.GetString("job", "")
	selectors := strings.FieldsFunc(request.GetString("builds", ""), func(r rune) bool {
		return r == ',' || r == ' '
	})
	if job == "" || len(selectors) == 0 {
		return mcp.NewToolResultError("job and builds parameters are required"), nil
	}
	opts := report.Options{
		FailedOnly: request.GetBool("failed_only", false),
		AnyPass:    request.GetBool("passed_at_least_once", false),
	}

	ids, err := report.ExpandSelectors(selectors)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	builds, err := s.source.FetchBuilds(ctx, job, ids, nil)
	if err != nil {
		return errorResult("failed to fetch builds", err)
	}

	reports := make([]report.BuildReport, 0, len(builds))
	for _, b := range builds {
		reports = append(reports, b.TestResults())
	}
	analysis := report.Analyze(reports, opts)

	response := AnalysisResponse{Job: job, Builds: analysis.Folded, Suites: []SuiteView{}}
	for _, skipped := range analysis.Skipped {
		response.Skipped = append(response.Skipped, skipped.SkipMessage())
	}
	for _, suite := range analysis.Suites {
		view := SuiteView{Name: suite.Name, Verdict: string(suite.Verdict)}
		for _, c := range suite.Cases {
			cv := CaseView{Name: c.Name, Verdict: string(c.Verdict)}
			if c.Tally != nil {
				passed, failed, skipped := c.Tally.Passed(), c.Tally.Failed(), c.Tally.Skipped()
				cv.Passed, cv.Failed, cv.Skipped = &passed, &failed, &skipped
			}
			view.Cases = append(view.Cases, cv)
		}
		response.Suites = append(response.Suites, view)
	}

	return jsonResult(response)
}

// handleGetCaseDetails handles the get_case_details tool call.
func (s *Server) handleGetCaseDetails(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	job := request.GetString("job", "")
	buildID := request.GetString("build", "")
	suiteName := request.GetString("suite", "")
	caseName := request.GetString("case", "")
	if job == "" || buildID == "" || suiteName == "" || caseName == "" {
		return mcp.NewToolResultError("job, build, suite and case parameters are required"), nil
	}

	build, err := s.source.FetchBuild(ctx, job, buildID)
	if err != nil {
		return errorResult("failed to fetch build", err)
	}
	if !build.Report.Available() {
		return mcp.NewToolResultError("No tests report has been generated for this build"), nil
	}

	for _, suite := range build.Report.Suites {
		if suite.Name != suiteName {
			continue
		}
		for _, c := range suite.Cases {
			if c.CanonicalName() != report.CanonicalName(caseName) {
				continue
			}
			return jsonResult(CaseDetails{
				Job:        job,
				Build:      build.Number,
				Suite:      suite.Name,
				Name:       c.Name,
				Status:     c.Status,
				ClassName:  c.ClassName,
				Duration:   c.Duration,
				Error:      firstLine(c.ErrorDetails),
				StackTrace: compactText(c.ErrorStackTrace, defaultTraceLines),
				Stdout:     compactText(c.Stdout, defaultTraceLines),
				Stderr:     compactText(c.Stderr, defaultTraceLines),
			})
		}
	}

	return mcp.NewToolResultError(fmt.Sprintf("case not found: suite=%s, case=%s", suiteName, caseName)), nil
}
