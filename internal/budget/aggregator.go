package budget

import (
	"time"

	"github.com/iamdivyeshtailor/finance-management/internal/core"
)

// BuildReport summarizes the expenses that fall inside c against settings.
//
// Fixed deductions are taken from salary every cycle whether or not they were
// logged. Only variable categories add to TotalSpent; spend in categories the
// settings do not know about is reported as UnbudgetedSpent. The result depends
// only on its inputs, generatedAt included.
func BuildReport(s core.Settings, expenses []core.Expense, c core.Cycle, generatedAt time.Time) (core.Report, error) {
	if !s.Configured() {
		return core.Report{}, core.ErrNotConfigured
	}

	spent := make(map[string]core.Money, len(s.Categories))
	known := make(map[string]struct{}, len(s.Categories))
	for _, cat := range s.Categories {
		known[cat.Name] = struct{}{}
	}

	var unbudgeted core.Money
	for _, e := range expenses {
		if !e.InCycle(c.Start, c.End) {
			continue
		}
		if _, ok := known[e.Category]; !ok {
			unbudgeted = unbudgeted.Add(e.Amount)
			continue
		}
		spent[e.Category] = spent[e.Category].Add(e.Amount)
	}

	totalFixed := s.TotalFixedDeductions()
	report := core.Report{
		Month:                c.Month,
		Year:                 c.Year,
		Cycle:                c,
		Salary:               s.Salary,
		SalaryCreditDate:     s.SalaryCreditDate,
		TotalFixedDeductions: totalFixed,
		FixedDeductions:      append([]core.FixedDeduction{}, s.FixedDeductions...),
		Categories:           make([]core.CategoryReport, 0, len(s.Categories)),
		UnbudgetedSpent:      unbudgeted,
		GeneratedAt:          generatedAt,
	}

	total := totalFixed
	for _, cat := range s.Categories {
		kind := cat.Kind
		if kind == "" {
			kind = core.CategoryVariable
		}
		line := categoryLine(cat.Name, kind, cat.MonthlyLimit, spent[cat.Name])
		report.Categories = append(report.Categories, line)
		if kind == core.CategoryVariable {
			total = total.Add(line.Spent)
		}
	}
	report.TotalSpent = total
	report.CurrentSavings = s.Salary.Sub(total)
	return report, nil
}

func categoryLine(name string, kind core.CategoryKind, limit, spent core.Money) core.CategoryReport {
	remaining := limit.Sub(spent)
	status := core.StatusOK
	switch {
	case remaining.Cents < 0:
		status = core.StatusOver
	case spent.Cents == 0:
		status = core.StatusUnused
	}
	return core.CategoryReport{
		Name:        name,
		Kind:        kind,
		Limit:       limit,
		Spent:       spent,
		Remaining:   remaining,
		PercentUsed: core.PercentOf(spent, limit),
		Status:      status,
		OverBudget:  remaining.Cents < 0,
	}
}
