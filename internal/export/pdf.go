package export

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/go-pdf/fpdf"
)

var timesheetWidths = []float64{24, 16, 16, 20, 16, 22, 66}

// TimesheetPDF writes t as an A4 table.
func TimesheetPDF(w io.Writer, t Timesheet) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Timesheet "+t.Period, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Timesheet", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, tr("Employee: "+t.Employee), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Period: "+t.Period, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range timesheetHeader {
		pdf.CellFormat(timesheetWidths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, r := range t.Rows {
		cells := []string{r.Date, r.Start, r.End, strconv.Itoa(r.BreakMinutes), formatHours(r.Hours), r.Status, tr(r.Note)}
		for i, v := range cells {
			align := "L"
			if i == 3 || i == 4 {
				align = "R"
			}
			pdf.CellFormat(timesheetWidths[i], 6, v, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(timesheetWidths[0]+timesheetWidths[1]+timesheetWidths[2]+timesheetWidths[3], 7, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(timesheetWidths[4], 7, formatHours(t.Total()), "1", 1, "R", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render timesheet pdf: %w", err)
	}
	return nil
}

// ContractDocument is the printable form of a contract.
type ContractDocument struct {
	Title       string
	Employee    string
	Body        string
	Status      string
	DocumentKey string
	SignerName  string
	SignedAt    string
	SignerIP    string
}

// ContractPDF writes the contract body followed by its signature block.
func ContractPDF(w io.Writer, doc ContractDocument) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(doc.Title), true)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Document %s  page %d", doc.DocumentKey, pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.MultiCell(0, 9, tr(doc.Title), "", "C", false)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 6, tr(doc.Body), "", "L", false)
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, "Signature", "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	if doc.SignerName != "" {
		pdf.CellFormat(0, 6, tr("Signed by: "+doc.SignerName), "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 6, "Signed at: "+doc.SignedAt, "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 6, "From: "+doc.SignerIP, "", 1, "L", false, 0, "")
	} else {
		pdf.CellFormat(0, 6, tr("Employee: "+doc.Employee), "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 6, "Status: "+doc.Status, "", 1, "L", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render contract pdf: %w", err)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatHours(v float64) string {
	return strconv.FormatFloat(round2(v), 'f', 2, 64)
}
