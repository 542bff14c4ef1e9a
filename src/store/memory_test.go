package store

import (
	"context"
	"errors"
	"testing"

	"clee/src/report"
)

func TestInMemoryStore_SaveAndList(t *testing.T) {
	store := NewInMemoryStore()
	defer store.Close()

	ctx := context.Background()
	for _, builds := range [][]string{{"1", "2"}, {"3"}, {"4", "5"}} {
		rec := &AnalysisRecord{Job: "system-tests", Builds: builds}
		if err := store.SaveAnalysis(ctx, rec); err != nil {
			t.Fatalf("SaveAnalysis failed: %v", err)
		}
		if rec.ID == 0 || rec.CreatedAt.IsZero() {
			t.Errorf("Expected ID and CreatedAt to be assigned, got %+v", rec)
		}
	}
	if err := store.SaveAnalysis(ctx, &AnalysisRecord{Job: "nightly"}); err != nil {
		t.Fatalf("SaveAnalysis failed: %v", err)
	}

	records, err := store.ListAnalyses(ctx, "system-tests", 2)
	if err != nil {
		t.Fatalf("ListAnalyses failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].Builds[0] != "4" || records[1].Builds[0] != "3" {
		t.Errorf("Expected newest first, got %v then %v", records[0].Builds, records[1].Builds)
	}

	all, err := store.ListAnalyses(ctx, "system-tests", 0)
	if err != nil {
		t.Fatalf("ListAnalyses failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 records without limit, got %d", len(all))
	}

	none, err := store.ListAnalyses(ctx, "unknown", 10)
	if err != nil {
		t.Fatalf("ListAnalyses failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("Expected no records, got %d", len(none))
	}
}

func TestInMemoryStore_CopiesRecords(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	rec := &AnalysisRecord{Job: "system-tests", Builds: []string{"1"}}
	if err := store.SaveAnalysis(ctx, rec); err != nil {
		t.Fatalf("SaveAnalysis failed: %v", err)
	}
	rec.Builds[0] = "changed"

	records, _ := store.ListAnalyses(ctx, "system-tests", 0)
	if records[0].Builds[0] != "1" {
		t.Errorf("Stored record was mutated through the caller's slice")
	}
}

func TestInMemoryStore_InvalidRecord(t *testing.T) {
	store := NewInMemoryStore()

	for _, rec := range []*AnalysisRecord{nil, {}} {
		if err := store.SaveAnalysis(context.Background(), rec); !errors.Is(err, ErrInvalidRecord) {
			t.Errorf("Expected ErrInvalidRecord, got %v", err)
		}
	}
}

func TestNewAnalysisRecord(t *testing.T) {
	analysis := report.Analysis{
		Folded:  []string{"1", "2"},
		Skipped: []report.ReportUnavailableError{{Build: "3", Reason: report.ReasonBuilding}},
		All: []report.SuiteResult{
			{
				Name:    "smoke",
				Verdict: report.VerdictMixed,
				Cases: []report.CaseResult{
					{Name: "test_a", Verdict: report.VerdictGood},
					{Name: "test_b", Verdict: report.VerdictMixed},
					{Name: "test_c", Verdict: report.VerdictBad},
				},
			},
		},
	}

	rec := NewAnalysisRecord("system-tests", analysis, report.Options{AnyPass: true})

	if rec.Job != "system-tests" || !rec.AnyPass {
		t.Errorf("Unexpected record header: %+v", rec)
	}
	if len(rec.Builds) != 2 || len(rec.Skipped) != 1 || rec.Skipped[0] != "3" {
		t.Errorf("Unexpected builds %v / skipped %v", rec.Builds, rec.Skipped)
	}
	if rec.Good != 1 || rec.Mixed != 1 || rec.Bad != 1 {
		t.Errorf("Unexpected counts good=%d mixed=%d bad=%d", rec.Good, rec.Mixed, rec.Bad)
	}
	want := []string{"smoke::test_b", "smoke::test_c"}
	if len(rec.Failing) != len(want) || rec.Failing[0] != want[0] || rec.Failing[1] != want[1] {
		t.Errorf("Failing = %v, want %v", rec.Failing, want)
	}
}

func TestNewAnalysisRecord_IgnoresDisplayFilter(t *testing.T) {
	builds := []report.BuildReport{{
		Number: "1",
		Report: report.RawReport{Status: report.StatusOK, Suites: []report.RawSuite{{
			Name:  "smoke",
			Cases: []report.RawCase{{Name: "test_a", Status: "PASSED"}, {Name: "test_b", Status: "FAILED"}},
		}}},
	}}

	for _, opts := range []report.Options{{}, {FailedOnly: true}} {
		rec := NewAnalysisRecord("system-tests", report.Analyze(builds, opts), opts)
		if rec.Good != 1 || rec.Mixed != 0 || rec.Bad != 1 {
			t.Errorf("FailedOnly=%v: good=%d mixed=%d bad=%d, want 1/0/1", opts.FailedOnly, rec.Good, rec.Mixed, rec.Bad)
		}
		if len(rec.Failing) != 1 || rec.Failing[0] != "smoke::test_b" {
			t.Errorf("FailedOnly=%v: Failing = %v", opts.FailedOnly, rec.Failing)
		}
	}
}
