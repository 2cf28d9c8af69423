// Package report renders evaluations as an XLSX workbook for compliance
// reviewers.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"onboard/internal/onboarding"
)

const (
	SummarySheet  = "Summary"
	FindingsSheet = "Findings"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	summaryHeader = []any{
		"Client", "Stage", "Completeness %", "Confidence %", "Risk level",
		"Manual review", "Missing documents", "Evaluated at",
	}
	findingsHeader = []any{"Client", "Rule", "Category", "Outcome", "Priority", "Document", "Detail", "Actions"}
)

// Build lays out one summary row per evaluation and one findings row per
// failed rule.
func Build(evaluations []*onboarding.Evaluation) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(FindingsSheet); err != nil {
		return nil, fmt.Errorf("create findings sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if err := writeRow(f, SummarySheet, 1, summaryHeader); err != nil {
		return nil, err
	}
	if err := writeRow(f, FindingsSheet, 1, findingsHeader); err != nil {
		return nil, err
	}
	for _, sheet := range []string{SummarySheet, FindingsSheet} {
		if err := f.SetRowStyle(sheet, 1, 1, header); err != nil {
			return nil, fmt.Errorf("style header: %w", err)
		}
		if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
			return nil, fmt.Errorf("freeze header: %w", err)
		}
	}

	findingsRow := 2
	for i, ev := range evaluations {
		if err := writeRow(f, SummarySheet, i+2, []any{
			int64(ev.ClientID),
			string(ev.Progress.Stage),
			ev.Progress.Completeness,
			ev.Risk.Confidence,
			string(ev.Risk.Level),
			yesNo(ev.Risk.RequiresManualReview),
			strings.Join(ev.Progress.MissingDocuments, ", "),
			ev.EvaluatedAt.UTC().Format("2006-01-02 15:04:05"),
		}); err != nil {
			return nil, err
		}

		for _, r := range ev.Risk.Results {
			if !r.Outcome.Failed() {
				continue
			}
			document := ""
			if r.DocumentID != nil {
				document = fmt.Sprint(*r.DocumentID)
			}
			if err := writeRow(f, FindingsSheet, findingsRow, []any{
				int64(ev.ClientID),
				r.RuleID.Label(),
				string(r.Category),
				string(r.Outcome),
				string(r.Priority),
				document,
				r.Detail,
				strings.Join(r.Actions, "; "),
			}); err != nil {
				return nil, err
			}
			findingsRow++
		}
	}

	if err := f.SetColWidth(SummarySheet, "A", "H", 18); err != nil {
		return nil, fmt.Errorf("size columns: %w", err)
	}
	if err := f.SetColWidth(FindingsSheet, "G", "H", 60); err != nil {
		return nil, fmt.Errorf("size columns: %w", err)
	}
	return f, nil
}

// Write builds the workbook and streams it to w.
func Write(w io.Writer, evaluations []*onboarding.Evaluation) error {
	f, err := Build(evaluations)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
