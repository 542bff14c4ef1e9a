package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"clee/src/provider"
)

const (
	defaultCaseLimit  = 20
	defaultTraceLines = 40
)

// BuildSource is the part of the Jenkins provider the tools need.
type BuildSource interface {
	ListJobs(ctx context.Context) ([]string, error)
	FetchBuild(ctx context.Context, job, buildID string) (*provider.Build, error)
	FetchBuilds(ctx context.Context, job string, ids []string, progress func()) ([]*provider.Build, error)
}

// Server is the MCP server for clee.
type Server struct {
	mcpServer *server.MCPServer
	source    BuildSource
}

// NewServer creates a new MCP server backed by source.
func NewServer(source BuildSource, version string) *Server {
	s := server.NewMCPServer(
		"clee",
		version,
		server.WithToolCapabilities(true),
	)

	srv := &Server{
		mcpServer: s,
		source:    source,
	}
	srv.registerTools()

	return srv
}

// registerTools registers all available tools.
func (s *Server) registerTools() {
	listJobsTool := mcp.NewTool("list_jobs",
		mcp.WithDescription("List the Jenkins jobs visible to the configured user."),
	)

	statusTool := mcp.NewTool("build_status",
		mcp.WithDescription("Show the test report of a single Jenkins build. Failing cases include the first line of their error; passing cases are only counted. Use get_case_details to drill into a case."),
		mcp.WithString("job",
			mcp.Required(),
			mcp.Description("Jenkins job name"),
		),
		mcp.WithString("build",
			mcp.Required(),
			mcp.Description("Build number"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max failing cases to include (default: 20)"),
		),
	)

	analyzeTool := mcp.NewTool("analyze_builds",
		mcp.WithDescription("Aggregate test results across several builds of a job and classify each case as GOOD (always passed), MIXED (flaky) or BAD (never passed)."),
		mcp.WithString("job",
			mcp.Required(),
			mcp.Description("Jenkins job name"),
		),
		mcp.WithString("builds",
			mcp.Required(),
			mcp.Description("Build numbers and inclusive ranges separated by spaces or commas, e.g. \"10-15 18\""),
		),
		mcp.WithBoolean("failed_only",
			mcp.Description("Only include MIXED and BAD cases"),
		),
		mcp.WithBoolean("passed_at_least_once",
			mcp.Description("Treat cases that passed in any build as GOOD"),
		),
	)

	detailsTool := mcp.NewTool("get_case_details",
		mcp.WithDescription("Get the full details of one test case of a build: error, compacted stack trace and captured output."),
		mcp.WithString("job",
			mcp.Required(),
			mcp.Description("Jenkins job name"),
		),
		mcp.WithString("build",
			mcp.Required(),
			mcp.Description("Build number"),
		),
		mcp.WithString("suite",
			mcp.Required(),
			mcp.Description("Suite name from build_status"),
		),
		mcp.WithString("case",
			mcp.Required(),
			mcp.Description("Case name from build_status"),
		),
	)

	s.mcpServer.AddTool(listJobsTool, s.handleListJobs)
	s.mcpServer.AddTool(statusTool, s.handleBuildStatus)
	s.mcpServer.AddTool(analyzeTool, s.handleAnalyzeBuilds)
	s.mcpServer.AddTool(detailsTool, s.handleGetCaseDetails)
}

// Run starts the MCP server on stdio.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func errorResult(prefix string, err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", prefix, provider.WrapError(err))), nil
}
