package core

import "time"

const (
	StatusOK     CategoryStatus = "ok"
	StatusOver   CategoryStatus = "over"
	StatusUnused CategoryStatus = "unused"
)

type CategoryStatus string

// Cycle is one salary period, labelled by the month and year it starts in.
type Cycle struct {
	Month int  `json:"month"`
	Year  int  `json:"year"`
	Start Date `json:"startDate"`
	End   Date `json:"endDate"`
}

// Contains reports whether d lies in [Start, End].
func (c Cycle) Contains(d Date) bool {
	return !d.Before(c.Start) && !d.After(c.End)
}

// CategoryReport is the spend of one budget category inside a cycle.
type CategoryReport struct {
	Name        string         `json:"name"`
	Kind        CategoryKind   `json:"type"`
	Limit       Money          `json:"limit"`
	Spent       Money          `json:"spent"`
	Remaining   Money          `json:"remaining"`
	PercentUsed int64          `json:"percentUsed"`
	Status      CategoryStatus `json:"status"`
	OverBudget  bool           `json:"overBudget"`
}

// Report is the financial summary for one cycle.
type Report struct {
	Month                int              `json:"month"`
	Year                 int              `json:"year"`
	Cycle                Cycle            `json:"cycle"`
	Salary               Money            `json:"salary"`
	SalaryCreditDate     int              `json:"salaryCreditDate"`
	TotalFixedDeductions Money            `json:"totalFixedDeductions"`
	FixedDeductions      []FixedDeduction `json:"fixedDeductions"`
	Categories           []CategoryReport `json:"categories"`
	TotalSpent           Money            `json:"totalSpent"`
	CurrentSavings       Money            `json:"currentSavings"`
	// UnbudgetedSpent is in-cycle spend in categories absent from settings.
	// It is informational and not part of TotalSpent.
	UnbudgetedSpent Money     `json:"unbudgetedSpent"`
	GeneratedAt     time.Time `json:"generatedAt"`
}

// TrendPoint is one historical cycle in the spending trend chart.
type TrendPoint struct {
	Month        int   `json:"month"`
	Year         int   `json:"year"`
	TotalSpent   Money `json:"totalSpent"`
	TotalSavings Money `json:"totalSavings"`
}

// Trend returns the chart point of the report.
func (r Report) Trend() TrendPoint {
	return TrendPoint{Month: r.Month, Year: r.Year, TotalSpent: r.TotalSpent, TotalSavings: r.CurrentSavings}
}

// Category returns the category line with the exact given name.
func (r Report) Category(name string) (CategoryReport, bool) {
	for _, c := range r.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return CategoryReport{}, false
}
