package render

import (
	"fmt"

	"github.com/montanaflynn/stats"
	"github.com/xuri/excelize/v2"

	"clee/src/report"
)

const (
	analysisSheet = "analysis"
	summarySheet  = "summary"
)

var analysisHeader = []interface{}{"Suite", "Case", "Verdict", "Passed", "Failed", "Skipped", "Other", "Failure_Rate"}

// WriteWorkbook saves an analysis as an xlsx workbook: one row per case on
// the analysis sheet and failure rate statistics on the summary sheet. Every
// case is written, including those hidden by the failed-only filter.
func WriteWorkbook(path string, a report.Analysis) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(analysisSheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	if err := f.SetSheetRow(analysisSheet, "A1", &analysisHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	var rates []float64
	row := 2
	for _, suite := range a.All {
		for _, c := range suite.Cases {
			var t report.CaseTally
			if c.Tally != nil {
				t = *c.Tally
			}
			rate := failureRate(t)
			rates = append(rates, rate)

			values := []interface{}{suite.Name, c.Name, string(c.Verdict), t.Passed(), t.Failed(), t.Skipped(), t.Other(), rate}
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(analysisSheet, cell, &values); err != nil {
				return fmt.Errorf("failed to write row %d: %w", row, err)
			}
			row++
		}
	}

	if err := writeSummary(f, a, rates); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func writeSummary(f *excelize.File, a report.Analysis, rates []float64) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	rows := [][]interface{}{
		{"Builds", len(a.Folded)},
		{"Skipped_Builds", len(a.Skipped)},
		{"Cases", len(rates)},
	}
	if len(rates) > 0 {
		mean, _ := stats.Mean(rates)
		median, _ := stats.Median(rates)
		p90, _ := stats.Percentile(rates, 90)
		worst, _ := stats.Max(rates)
		rows = append(rows,
			[]interface{}{"Failure_Rate_Mean", mean},
			[]interface{}{"Failure_Rate_Median", median},
			[]interface{}{"Failure_Rate_P90", p90},
			[]interface{}{"Failure_Rate_Max", worst},
		)
	}

	for i, values := range rows {
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+1), &values); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}
	return nil
}

// failureRate is the share of non-skipped observations that did not pass.
func failureRate(t report.CaseTally) float64 {
	ran := t.Passed() + t.Failed() + t.Other()
	if ran == 0 {
		return 0
	}
	return float64(t.Failed()+t.Other()) / float64(ran)
}
