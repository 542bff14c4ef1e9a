package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	PassedDirName = "passed"
	FailedDirName = "failed"
)

// DetailRecord is the exported detail of one case.
type DetailRecord struct {
	Name            string
	RawName         string
	Status          string
	ClassName       string
	Duration        float64
	ErrorDetails    string
	ErrorStackTrace string
	Stdout          string
	Stderr          string
}

// FileName is the record's file name inside its destination directory.
func (r DetailRecord) FileName() string {
	name := strings.ReplaceAll(r.RawName, " ", "-")
	name = strings.ReplaceAll(name, string(filepath.Separator), "_")
	if name == "" || name == "." || name == ".." {
		name = "_" + name
	}
	return name
}

// Format renders the record as written to disk.
func (r DetailRecord) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "name: %s\n\n", r.RawName)
	fmt.Fprintf(&b, "canonical name: %s\n\n", r.Name)
	fmt.Fprintf(&b, "status: %s\n\n", r.Status)
	fmt.Fprintf(&b, "class: %s\n\n", r.ClassName)
	fmt.Fprintf(&b, "duration: %v\n\n", r.Duration)
	fmt.Fprintf(&b, "error details: %s\n\n", r.ErrorDetails)
	fmt.Fprintf(&b, "error stacktrace: %s\n\n", r.ErrorStackTrace)
	fmt.Fprintf(&b, "stdout: \n%s\n\n", r.Stdout)
	fmt.Fprintf(&b, "stderr: \n%s\n\n", r.Stderr)
	return b.String()
}

// ExportPlan holds the detail records of a single build, split by destination.
type ExportPlan struct {
	Dir       string
	PassedDir string
	FailedDir string
	Passed    []DetailRecord
	Failed    []DetailRecord
}

// PlanExport partitions every case of a report. Only cases that exactly PASSED go
// to the passed destination; failed, skipped and unknown outcomes go to failed.
// The display filter never applies to exports.
func PlanExport(dir string, r RawReport) ExportPlan {
	plan := ExportPlan{
		Dir:       dir,
		PassedDir: filepath.Join(dir, PassedDirName),
		FailedDir: filepath.Join(dir, FailedDirName),
	}

	for _, suite := range r.Suites {
		for _, rc := range suite.Cases {
			rec := DetailRecord{
				Name:            rc.CanonicalName(),
				RawName:         rc.Name,
				Status:          rc.Status,
				ClassName:       rc.ClassName,
				Duration:        rc.Duration,
				ErrorDetails:    rc.ErrorDetails,
				ErrorStackTrace: rc.ErrorStackTrace,
				Stdout:          rc.Stdout,
				Stderr:          rc.Stderr,
			}
			if rc.Outcome() == OutcomePassed {
				plan.Passed = append(plan.Passed, rec)
			} else {
				plan.Failed = append(plan.Failed, rec)
			}
		}
	}

	return plan
}

// WriteExport writes a plan to disk. Both destination directories are emptied
// first so a rerun leaves a clean snapshot.
func WriteExport(plan ExportPlan) error {
	if err := os.MkdirAll(plan.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	dests := []struct {
		dir     string
		records []DetailRecord
	}{
		{plan.PassedDir, plan.Passed},
		{plan.FailedDir, plan.Failed},
	}

	for _, d := range dests {
		if err := os.RemoveAll(d.dir); err != nil {
			return fmt.Errorf("failed to clear %s: %w", d.dir, err)
		}
		if err := os.Mkdir(d.dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", d.dir, err)
		}
		for _, rec := range d.records {
			path := filepath.Join(d.dir, rec.FileName())
			if err := os.WriteFile(path, []byte(rec.Format()), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
		}
	}

	return nil
}
