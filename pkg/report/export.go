package report

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/limaJavier/allocation/pkg/model"
	"github.com/samber/lo"
	"github.com/xuri/excelize/v2"
)

const (
	outcomeSheet = "Allocation"
	summarySheet = "Summary"
)

var OutcomeHeader = []string{
	"Resident No",
	"Name",
	"Gender",
	"Department",
	"Major",
	"Class",
	"Floor",
	"Room",
	"Bed",
	"Score",
	"Result",
	"Fail Reason",
	"Conflicts",
	"Advantages",
}

var outcomeColumnWidths = []float64{15, 20, 10, 14, 14, 14, 10, 12, 10, 10, 10, 45, 40, 40}

func WriteJson(w io.Writer, outcomes []model.AllocationOutcome) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(outcomes)
}

// WriteXlsx writes an outcome sheet, with rows below problemThreshold highlighted, and a summary sheet
func WriteXlsx(w io.Writer, outcomes []model.AllocationOutcome, problemThreshold float64) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(outcomeSheet)
	if err != nil {
		return fmt.Errorf("cannot create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("cannot delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("cannot create header style: %w", err)
	}
	problemStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFF2CC"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("cannot create problem style: %w", err)
	}

	//** Outcome sheet
	if err := writeHeader(f, outcomeSheet, OutcomeHeader, headerStyle); err != nil {
		return err
	}
	for i, width := range outcomeColumnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("cannot convert column number: %w", err)
		}
		if err := f.SetColWidth(outcomeSheet, col, col, width); err != nil {
			return fmt.Errorf("cannot set column width: %w", err)
		}
	}

	for i, outcome := range outcomes {
		row := i + 2
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(outcomeSheet, cell, lo.ToPtr(outcomeRow(outcome))); err != nil {
			return fmt.Errorf("cannot write row %d: %w", row, err)
		}

		if IsProblem(outcome, problemThreshold) {
			last, err := excelize.CoordinatesToCellName(len(OutcomeHeader), row)
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(outcomeSheet, cell, last, problemStyle); err != nil {
				return fmt.Errorf("cannot highlight row %d: %w", row, err)
			}
		}
	}

	if err := f.SetPanes(outcomeSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("cannot freeze panes: %w", err)
	}

	//** Summary sheet
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("cannot create sheet: %w", err)
	}
	if err := writeHeader(f, summarySheet, []string{"Metric", "Value"}, headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 45); err != nil {
		return fmt.Errorf("cannot set column width: %w", err)
	}
	for i, row := range summaryRows(Summarize(outcomes, problemThreshold)) {
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+2), lo.ToPtr(row)); err != nil {
			return fmt.Errorf("cannot write summary row: %w", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("cannot write workbook: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, header []string, style int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("cannot write header of %s: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("cannot set header style of %s: %w", sheet, err)
	}
	return nil
}

func outcomeRow(outcome model.AllocationOutcome) []any {
	result := "failed"
	var bed, score any
	if outcome.Success {
		result, bed, score = "placed", outcome.BedId, outcome.MatchScore
	}
	return []any{
		outcome.ResidentNo,
		outcome.ResidentName,
		outcome.Gender,
		outcome.DeptCode,
		outcome.MajorCode,
		outcome.ClassCode,
		outcome.FloorCode,
		outcome.RoomCode,
		bed,
		score,
		result,
		outcome.FailReason,
		strings.Join(outcome.ConflictReasons, "; "),
		strings.Join(outcome.Advantages, "; "),
	}
}

func summaryRows(summary Summary) [][]any {
	rows := [][]any{
		{"Residents", summary.Total},
		{"Placed", summary.Succeeded},
		{"Failed", summary.Failed},
		{"Average score", summary.AverageScore},
		{"Lowest score", summary.MinScore},
		{"Highest score", summary.MaxScore},
		{"Problem placements", summary.Problems},
	}
	for _, reason := range slices.Sorted(maps.Keys(summary.FailReasons)) {
		rows = append(rows, []any{"Failed: " + reason, summary.FailReasons[reason]})
	}
	return rows
}
