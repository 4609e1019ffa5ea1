// Package export renders expenses and reports as downloadable CSV and PDF files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/iamdivyeshtailor/finance-management/internal/core"
)

// ExpenseRow is one line of the expenses download.
type ExpenseRow struct {
	Date        string `csv:"Date"`
	Category    string `csv:"Category"`
	Description string `csv:"Description"`
	Tags        string `csv:"Tags"`
	Amount      string `csv:"Amount"`
}

func ExpenseRows(expenses []core.Expense) []*ExpenseRow {
	rows := make([]*ExpenseRow, len(expenses))
	for i, e := range expenses {
		rows[i] = &ExpenseRow{
			Date:        e.Date.String(),
			Category:    e.Category,
			Description: e.Description,
			Tags:        strings.Join(e.Tags, "; "),
			Amount:      e.Amount.String(),
		}
	}
	return rows
}

// WriteExpenses writes the expenses with a header row, in the given order.
func WriteExpenses(w io.Writer, expenses []core.Expense) error {
	rows := ExpenseRows(expenses)
	if len(rows) == 0 {
		// gocsv writes nothing for an empty slice.
		cw := gocsv.NewSafeCSVWriter(csv.NewWriter(w))
		if err := cw.Write([]string{"Date", "Category", "Description", "Tags", "Amount"}); err != nil {
			return err
		}
		cw.Flush()
		return cw.Error()
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("write expenses csv: %w", err)
	}
	return nil
}

var statusLabels = map[core.CategoryStatus]string{
	core.StatusOver:   "Over",
	core.StatusUnused: "Unused",
	core.StatusOK:     "OK",
}

// ReportTable lays a report out as the category breakdown followed by a
// summary block. Rows have different widths.
func ReportTable(r core.Report) [][]string {
	table := [][]string{{"Category", "Limit", "Spent", "Remaining", "Status"}}
	for _, c := range r.Categories {
		table = append(table, []string{
			c.Name,
			c.Limit.String(),
			c.Spent.String(),
			c.Remaining.String(),
			statusLabels[c.Status],
		})
	}
	table = append(table,
		[]string{""},
		[]string{"Summary"},
		[]string{"Salary", r.Salary.String()},
		[]string{"Fixed Deductions", r.TotalFixedDeductions.String()},
		[]string{"Total Spent", r.TotalSpent.String()},
		[]string{"Total Savings", r.CurrentSavings.String()},
	)
	if r.UnbudgetedSpent.Cents != 0 {
		table = append(table, []string{"Unbudgeted", r.UnbudgetedSpent.String()})
	}
	return table
}

func WriteReport(w io.Writer, r core.Report) error {
	cw := gocsv.NewSafeCSVWriter(csv.NewWriter(w))
	for _, row := range ReportTable(r) {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write report csv: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReportFilename is the download name of a report, e.g. "report-3-2025.csv".
func ReportFilename(r core.Report) string {
	return fmt.Sprintf("report-%d-%d.csv", r.Month, r.Year)
}

func ExpensesFilename(month, year int) string {
	return fmt.Sprintf("expenses-%d-%d.csv", month, year)
}
