package render

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"clee/src/report"
)

func tally(name string, passed, failed, skipped int) *report.CaseTally {
	return &report.CaseTally{Name: name, Counts: map[report.Outcome]int{
		report.OutcomePassed:  passed,
		report.OutcomeFailed:  failed,
		report.OutcomeSkipped: skipped,
	}}
}

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.xlsx")
	a := report.Analysis{
		Folded:  []string{"1", "2"},
		Skipped: []report.ReportUnavailableError{{Build: "3", Reason: report.ReasonBuilding}},
		All: []report.SuiteResult{{
			Name:    "smoke",
			Verdict: report.VerdictMixed,
			Cases: []report.CaseResult{
				{Name: "test_login", Verdict: report.VerdictGood, Tally: tally("test_login", 2, 0, 0)},
				{Name: "test_logout", Verdict: report.VerdictMixed, Tally: tally("test_logout", 1, 1, 0)},
			},
		}},
	}
	// The failed-only view does not narrow the workbook.
	a.Suites = []report.SuiteResult{{
		Name:    "smoke",
		Verdict: report.VerdictMixed,
		Cases:   a.All[0].Cases[1:],
	}}

	require.NoError(t, WriteWorkbook(path, a))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"analysis", "summary"}, f.GetSheetList())

	rows, err := f.GetRows("analysis")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Suite", "Case", "Verdict", "Passed", "Failed", "Skipped", "Other", "Failure_Rate"}, rows[0])
	assert.Equal(t, []string{"smoke", "test_login", "GOOD", "2", "0", "0", "0", "0"}, rows[1])
	assert.Equal(t, []string{"smoke", "test_logout", "MIXED", "1", "1", "0", "0", "0.5"}, rows[2])

	summary, err := f.GetRows("summary")
	require.NoError(t, err)
	assert.Equal(t, []string{"Builds", "2"}, summary[0])
	assert.Equal(t, []string{"Skipped_Builds", "1"}, summary[1])
	assert.Equal(t, []string{"Cases", "2"}, summary[2])
	assert.Equal(t, []string{"Failure_Rate_Mean", "0.25"}, summary[3])
	assert.Equal(t, []string{"Failure_Rate_Max", "0.5"}, summary[6])
}

func TestFailureRate(t *testing.T) {
	tests := []struct {
		name  string
		tally report.CaseTally
		want  float64
	}{
		{"never ran", report.CaseTally{}, 0},
		{"only skipped", *tally("a", 0, 0, 3), 0},
		{"skips are ignored", *tally("a", 1, 1, 5), 0.5},
		{"always failed", *tally("a", 0, 4, 0), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, failureRate(tt.tally), 1e-9)
		})
	}
}
