package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const timesheetSheet = "Timesheet"

// TimesheetXLSX writes t as a single-sheet workbook.
func TimesheetXLSX(w io.Writer, t Timesheet) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", timesheetSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := f.SetSheetRow(timesheetSheet, "A1", &[]any{"Employee", t.Employee}); err != nil {
		return err
	}
	if err := f.SetSheetRow(timesheetSheet, "A2", &[]any{"Period", t.Period}); err != nil {
		return err
	}

	header := make([]any, len(timesheetHeader))
	for i, h := range timesheetHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(timesheetSheet, "A4", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(timesheetSheet, "A4", "G4", bold); err != nil {
		return err
	}

	row := 5
	for _, r := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		values := []any{r.Date, r.Start, r.End, r.BreakMinutes, r.Hours, r.Status, r.Note}
		if err := f.SetSheetRow(timesheetSheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
		row++
	}

	totalLabel, _ := excelize.CoordinatesToCellName(4, row)
	totalCell, _ := excelize.CoordinatesToCellName(5, row)
	if err := f.SetCellValue(timesheetSheet, totalLabel, "Total"); err != nil {
		return err
	}
	if err := f.SetCellValue(timesheetSheet, totalCell, round2(t.Total())); err != nil {
		return err
	}
	if err := f.SetCellStyle(timesheetSheet, totalLabel, totalCell, bold); err != nil {
		return err
	}

	if err := f.SetColWidth(timesheetSheet, "A", "F", 14); err != nil {
		return err
	}
	if err := f.SetColWidth(timesheetSheet, "G", "G", 40); err != nil {
		return err
	}

	return f.Write(w)
}
