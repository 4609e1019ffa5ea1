package sheets

import (
	"context"

	"github.com/iamdivyeshtailor/finance-management/internal/core"
)

// Ports for outbound adapters.
type (
	// ExpenseWriter mirrors one expense version as a row of the expenses sheet.
	ExpenseWriter interface {
		Append(ctx context.Context, e core.Expense) (rowRef string, err error)
	}

	// ReportWriter replaces the report tab of a cycle with the given report.
	ReportWriter interface {
		WriteReport(ctx context.Context, r core.Report) (rangeRef string, err error)
	}
)
