// Package provider defines the build-server operations the CLI consumes.
package provider

import (
	"context"
	"fmt"
	"io"
)

// Provider defines the interface for build server integrations
type Provider interface {
	// Name returns the provider name (e.g., "jenkins")
	Name() string

	// ListJobs returns the names of all jobs
	ListJobs(ctx context.Context) ([]string, error)

	// ListBuilds returns the recent builds of a job, newest first
	ListBuilds(ctx context.Context, job string) ([]BuildSummary, error)

	// FetchBuild retrieves build metadata and its test report
	FetchBuild(ctx context.Context, job, buildID string) (*Build, error)

	// TriggerBuild queues a new build with the given parameters
	TriggerBuild(ctx context.Context, job string, params map[string]string) error

	// FetchLogs retrieves the full console log of a build
	FetchLogs(ctx context.Context, job, buildID string) (string, error)

	// TailLogs streams the console log until the build completes
	TailLogs(ctx context.Context, job, buildID string) LogStream
}

// LogStream is a single-pass, finite sequence of log chunks. Next returns io.EOF
// once the build has completed and all output was delivered. A stream cannot be
// rewound.
type LogStream interface {
	Next(ctx context.Context) (string, error)
}

// CopyLogs writes every chunk of a stream to w, flushing as it goes when w
// supports it.
func CopyLogs(ctx context.Context, w io.Writer, stream LogStream) error {
	type syncer interface{ Sync() error }

	for {
		chunk, err := stream.Next(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, chunk); err != nil {
			return fmt.Errorf("failed to write log chunk: %w", err)
		}
		if s, ok := w.(syncer); ok {
			// Best effort; terminals and pipes may not support fsync.
			_ = s.Sync()
		}
	}
}
