// Package budget turns settings and expenses into salary-cycle reports.
//
// A cycle runs from one salary credit day to the day before the next one and
// is labelled by the month it starts in. When the credit day does not exist in
// a month (31 in April, 30 in February) the credit falls on that month's last
// day, so consecutive cycles always touch and never overlap.
package budget

import (
	"time"

	"github.com/iamdivyeshtailor/finance-management/internal/core"
)

// creditDayIn returns the day salary is credited in the given month, clamped
// to the month's last day.
func creditDayIn(year int, month time.Month, creditDay int) int {
	if creditDay < 1 {
		creditDay = 1
	}
	lastDayOfMonth := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if creditDay > lastDayOfMonth {
		return lastDayOfMonth
	}
	return creditDay
}

func creditDate(year int, month time.Month, creditDay int) core.Date {
	// time.Date normalizes month 0 and 13 into the neighbouring year.
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return core.NewDate(first.Year(), int(first.Month()), creditDayIn(first.Year(), first.Month(), creditDay))
}

// CycleFor returns the cycle that starts in the given month.
func CycleFor(month, year, creditDay int) core.Cycle {
	start := creditDate(year, time.Month(month), creditDay)
	next := creditDate(year, time.Month(month)+1, creditDay)
	return core.Cycle{
		Month: start.Month(),
		Year:  start.Year(),
		Start: start,
		End:   next.AddDays(-1),
	}
}

// ResolveCycle returns the cycle containing ref.
func ResolveCycle(ref core.Date, creditDay int) core.Cycle {
	if ref.Day() >= creditDayIn(ref.Year(), time.Month(ref.Month()), creditDay) {
		return CycleFor(ref.Month(), ref.Year(), creditDay)
	}
	prev := time.Date(ref.Year(), time.Month(ref.Month())-1, 1, 0, 0, 0, 0, time.UTC)
	return CycleFor(int(prev.Month()), prev.Year(), creditDay)
}

// DaysElapsed counts cycle days up to and including ref, never less than 1.
func DaysElapsed(ref core.Date, c core.Cycle) int {
	n := c.Start.DaysUntil(ref) + 1
	if n < 1 {
		return 1
	}
	return n
}

// DaysRemaining counts whole days from ref to the next credit date, never
// negative. On the last day of a cycle it is 1.
func DaysRemaining(ref core.Date, c core.Cycle) int {
	n := ref.DaysUntil(NextCreditDate(c))
	if n < 0 {
		return 0
	}
	return n
}

// NextCreditDate is the day the following cycle starts.
func NextCreditDate(c core.Cycle) core.Date {
	return c.End.AddDays(1)
}

// Previous returns the cycle immediately before c.
func Previous(c core.Cycle, creditDay int) core.Cycle {
	return ResolveCycle(c.Start.AddDays(-1), creditDay)
}

// CalendarMonths lists the (month, year) pairs a cycle touches, in order.
// A cycle spans at most two calendar months.
func CalendarMonths(c core.Cycle) [][2]int {
	months := [][2]int{{c.Start.Month(), c.Start.Year()}}
	if c.End.Month() != c.Start.Month() || c.End.Year() != c.Start.Year() {
		months = append(months, [2]int{c.End.Month(), c.End.Year()})
	}
	return months
}
