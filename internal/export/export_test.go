package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleTimesheet() Timesheet {
	return Timesheet{
		Employee: "Zoë Müller",
		Period:   "2025-01-01..2025-01-31",
		Rows: []TimesheetRow{
			{Date: "2025-01-02", Start: "09:00", End: "17:30", BreakMinutes: 30, Hours: 8, Status: "approved"},
			{Date: "2025-01-03", Start: "22:00", End: "06:00", BreakMinutes: 45, Hours: 7.25, Status: "pending", Note: "night shift"},
		},
	}
}

func TestTimesheetXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TimesheetXLSX(&buf, sampleTimesheet()))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	require.Equal(t, timesheetSheet, f.GetSheetName(0))
	rows, err := f.GetRows(timesheetSheet)
	require.NoError(t, err)
	require.Equal(t, "Zoë Müller", rows[0][1])
	require.Equal(t, timesheetHeader, rows[3])
	require.Equal(t, "2025-01-03", rows[5][0])
	require.Equal(t, "night shift", rows[5][6])

	total, err := f.GetCellValue(timesheetSheet, "E7")
	require.NoError(t, err)
	require.Equal(t, "15.25", total)
}

func TestTimesheetPDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TimesheetPDF(&buf, sampleTimesheet()))
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestContractPDF(t *testing.T) {
	var buf bytes.Buffer
	err := ContractPDF(&buf, ContractDocument{
		Title:       "Employment contract",
		Employee:    "Ann Lee",
		Body:        "Weekly hours: 40\nStart: 2025-02-01",
		Status:      "signed",
		DocumentKey: "b5f5f6c2-1111-4222-8333-444455556666",
		SignerName:  "Ann Lee",
		SignedAt:    "2025-01-20T10:00:00Z",
		SignerIP:    "10.0.0.1",
	})
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestFilename(t *testing.T) {
	require.Equal(t, "timesheet_2025-01-01..2025-01-31.pdf", sampleTimesheet().Filename("pdf"))
}
