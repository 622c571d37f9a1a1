// Package export renders timesheets and contracts as XLSX and PDF documents.
package export

import "fmt"

// Timesheet is the document model shared by the XLSX and PDF writers.
type Timesheet struct {
	Employee string
	Period   string
	Rows     []TimesheetRow
}

type TimesheetRow struct {
	Date         string
	Start        string
	End          string
	BreakMinutes int
	Hours        float64
	Status       string
	Note         string
}

// Total sums the hours of every row.
func (t Timesheet) Total() float64 {
	total := 0.0
	for _, r := range t.Rows {
		total += r.Hours
	}
	return total
}

// Filename returns a download name such as timesheet_2025-01-01..2025-01-31.xlsx.
func (t Timesheet) Filename(ext string) string {
	return fmt.Sprintf("timesheet_%s.%s", t.Period, ext)
}

var timesheetHeader = []string{"Date", "Start", "End", "Break (min)", "Hours", "Status", "Note"}
