package budget

import "github.com/iamdivyeshtailor/finance-management/internal/core"

// QuickStats are the dashboard figures derived from the current report.
type QuickStats struct {
	// TopCategory is empty when nothing has been spent yet.
	TopCategory      string     `json:"topCategory"`
	TopCategorySpent core.Money `json:"topCategorySpent"`
	DaysRemaining    int        `json:"daysRemaining"`
	DaysElapsed      int        `json:"daysElapsed"`
	AvgDailySpend    core.Money `json:"avgDailySpend"`
}

// Stats computes quick stats for r as seen on today.
func Stats(r core.Report, today core.Date) QuickStats {
	st := QuickStats{
		DaysRemaining: DaysRemaining(today, r.Cycle),
		DaysElapsed:   DaysElapsed(today, r.Cycle),
	}
	for _, c := range r.Categories {
		if c.Spent.Cents > st.TopCategorySpent.Cents {
			st.TopCategory = c.Name
			st.TopCategorySpent = c.Spent
		}
	}
	st.AvgDailySpend = divRound(r.TotalSpent, int64(st.DaysElapsed))
	return st
}

// divRound divides with rounding half away from zero.
func divRound(m core.Money, n int64) core.Money {
	if n <= 0 {
		return core.Money{}
	}
	q := (2*m.Cents + n) / (2 * n)
	if m.Cents < 0 {
		q = (2*m.Cents - n) / (2 * n)
	}
	return core.Money{Cents: q}
}
