package export

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/iamdivyeshtailor/finance-management/internal/core"
)

var reportColumns = []struct {
	title string
	width float64
	align string
}{
	{"Category", 60, "L"},
	{"Limit", 32, "R"},
	{"Spent", 32, "R"},
	{"Remaining", 32, "R"},
	{"Status", 26, "C"},
}

// WriteReportPDF renders an A4 report: a title, the cycle summary and
// the category table.
func WriteReportPDF(w io.Writer, r core.Report) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(false)
	pdf.SetCatalogSort(true)
	title := fmt.Sprintf("%s %d - Finance Report", time.Month(r.Month), r.Year)
	pdf.SetTitle(title, true)
	pdf.SetCreator("finance-management", true)
	if !r.GeneratedAt.IsZero() {
		pdf.SetCreationDate(r.GeneratedAt)
		pdf.SetModificationDate(r.GeneratedAt)
	}
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(title), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	lines := []string{
		fmt.Sprintf("Cycle: %s to %s", r.Cycle.Start, r.Cycle.End),
		"Salary: " + r.Salary.String(),
		"Fixed Deductions: " + r.TotalFixedDeductions.String(),
		"Total Spent: " + r.TotalSpent.String(),
		"Savings: " + r.CurrentSavings.String(),
	}
	if r.UnbudgetedSpent.Cents != 0 {
		lines = append(lines, "Unbudgeted: "+r.UnbudgetedSpent.String())
	}
	for _, l := range lines {
		pdf.CellFormat(0, 7, tr(l), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(37, 99, 235)
	pdf.SetTextColor(255, 255, 255)
	for _, c := range reportColumns {
		pdf.CellFormat(c.width, 8, c.title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(0, 0, 0)
	for _, row := range ReportTable(r)[1 : len(r.Categories)+1] {
		for i, c := range reportColumns {
			pdf.CellFormat(c.width, 7, tr(row[i]), "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write report pdf: %w", err)
	}
	return nil
}

// ReportPDFFilename is the download name of a PDF report, e.g. "report-3-2025.pdf".
func ReportPDFFilename(r core.Report) string {
	return fmt.Sprintf("report-%d-%d.pdf", r.Month, r.Year)
}
