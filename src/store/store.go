// Package store defines the interface for persisting analysis history.
package store

import (
	"context"
	"errors"
	"time"

	"clee/src/report"
)

var ErrInvalidRecord = errors.New("invalid analysis record")

// AnalysisRecord summarizes one multi-build analysis.
type AnalysisRecord struct {
	ID      int64
	Job     string
	Builds  []string
	Skipped []string
	// AnyPass records whether --passed-at-least-once was in effect.
	AnyPass   bool
	Good      int
	Mixed     int
	Bad       int
	Failing   []string
	CreatedAt time.Time
}

// NewAnalysisRecord summarizes an analysis of job. Counts cover every case,
// whatever the display filter. Failing holds "suite::case" for every case
// classified MIXED or BAD.
func NewAnalysisRecord(job string, a report.Analysis, opts report.Options) *AnalysisRecord {
	rec := &AnalysisRecord{
		Job:     job,
		Builds:  append([]string{}, a.Folded...),
		Skipped: make([]string, 0, len(a.Skipped)),
		AnyPass: opts.AnyPass,
		Failing: []string{},
	}
	for _, s := range a.Skipped {
		rec.Skipped = append(rec.Skipped, s.Build)
	}

	for _, suite := range a.All {
		for _, c := range suite.Cases {
			switch c.Verdict {
			case report.VerdictGood:
				rec.Good++
			case report.VerdictMixed:
				rec.Mixed++
			case report.VerdictBad:
				rec.Bad++
			}
			if c.Verdict.Failing() {
				rec.Failing = append(rec.Failing, suite.Name+"::"+c.Name)
			}
		}
	}
	return rec
}

// Store defines the interface for persisting analysis records.
type Store interface {
	// SaveAnalysis stores a record, assigning its ID and CreatedAt
	SaveAnalysis(ctx context.Context, rec *AnalysisRecord) error

	// ListAnalyses returns up to limit records of a job, newest first
	ListAnalyses(ctx context.Context, job string, limit int) ([]AnalysisRecord, error)

	// Close closes the store connection
	Close() error
}

func validate(rec *AnalysisRecord) error {
	if rec == nil || rec.Job == "" {
		return ErrInvalidRecord
	}
	return nil
}
