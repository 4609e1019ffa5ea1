package budget

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamdivyeshtailor/finance-management/internal/core"
)

func TestResolveCycle_AllCreditDays(t *testing.T) {
	from := core.NewDate(2023, 1, 1)
	to := core.NewDate(2025, 12, 31)

	for creditDay := 1; creditDay <= 31; creditDay++ {
		for ref := from; !ref.After(to); ref = ref.AddDays(1) {
			c := ResolveCycle(ref, creditDay)
			require.True(t, c.Contains(ref), "day %d ref %s not in %s..%s", creditDay, ref, c.Start, c.End)

			next := CycleFor(c.Month+1, c.Year, creditDay)
			require.Equal(t, next.Start, c.End.AddDays(1), "day %d ref %s: cycles must touch", creditDay, ref)

			lastDay := time.Date(c.Year, time.Month(c.Month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
			require.Equal(t, min(creditDay, lastDay), c.Start.Day(), "day %d ref %s: clamped start", creditDay, ref)
			require.Equal(t, c.Month, c.Start.Month())
		}
	}
}

func TestDaysRemaining_NonIncreasing(t *testing.T) {
	for creditDay := 1; creditDay <= 31; creditDay++ {
		c := CycleFor(2, 2024, creditDay)
		prev := DaysRemaining(c.Start, c)
		for ref := c.Start.AddDays(1); !ref.After(c.End); ref = ref.AddDays(1) {
			got := DaysRemaining(ref, c)
			require.LessOrEqual(t, got, prev, "credit day %d ref %s", creditDay, ref)
			prev = got
		}
		assert.Equal(t, 1, DaysRemaining(c.End, c))
		assert.Equal(t, 0, DaysRemaining(c.End.AddDays(5), c))
	}
}

func TestScenario_CycleBeforeCreditDay(t *testing.T) {
	today := core.NewDate(2025, 3, 1)
	c := ResolveCycle(today, 3)

	assert.Equal(t, core.NewDate(2025, 2, 3), c.Start)
	assert.Equal(t, core.NewDate(2025, 3, 2), c.End)
	assert.Equal(t, 2, c.Month)
	assert.Equal(t, 2025, c.Year)
	assert.Equal(t, 2, DaysRemaining(today, c))
	assert.Equal(t, 27, DaysElapsed(today, c))
}

func TestCycleFor_Clamping(t *testing.T) {
	tests := []struct {
		name       string
		month      int
		year       int
		creditDay  int
		start, end core.Date
	}{
		{"31 in leap february", 2, 2024, 31, core.NewDate(2024, 2, 29), core.NewDate(2024, 3, 30)},
		{"31 in february", 2, 2025, 31, core.NewDate(2025, 2, 28), core.NewDate(2025, 3, 30)},
		{"31 in january ends before clamped february", 1, 2025, 31, core.NewDate(2025, 1, 31), core.NewDate(2025, 2, 27)},
		{"31 in april", 4, 2025, 31, core.NewDate(2025, 4, 30), core.NewDate(2025, 5, 30)},
		{"30 in february", 2, 2023, 30, core.NewDate(2023, 2, 28), core.NewDate(2023, 3, 29)},
		{"december rolls into january", 12, 2024, 15, core.NewDate(2024, 12, 15), core.NewDate(2025, 1, 14)},
		{"credit on the first", 6, 2025, 1, core.NewDate(2025, 6, 1), core.NewDate(2025, 6, 30)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := CycleFor(tt.month, tt.year, tt.creditDay)
			assert.Equal(t, tt.start, c.Start)
			assert.Equal(t, tt.end, c.End)
		})
	}
}

func TestResolveCycle_OnClampedCreditDay(t *testing.T) {
	c := ResolveCycle(core.NewDate(2025, 2, 28), 31)
	assert.Equal(t, 2, c.Month)
	assert.Equal(t, core.NewDate(2025, 2, 28), c.Start)

	c = ResolveCycle(core.NewDate(2025, 2, 27), 31)
	assert.Equal(t, 1, c.Month)
	assert.Equal(t, core.NewDate(2025, 1, 31), c.Start)
}

func TestDaysElapsed(t *testing.T) {
	c := CycleFor(1, 2025, 25)
	assert.Equal(t, 1, DaysElapsed(c.Start, c))
	assert.Equal(t, 8, DaysElapsed(core.NewDate(2025, 2, 1), c))
	assert.Equal(t, 1, DaysElapsed(c.Start.AddDays(-3), c))
}

func TestPreviousAndCalendarMonths(t *testing.T) {
	c := CycleFor(1, 2025, 10)
	p := Previous(c, 10)
	assert.Equal(t, 12, p.Month)
	assert.Equal(t, 2024, p.Year)
	assert.Equal(t, [][2]int{{1, 2025}, {2, 2025}}, CalendarMonths(c))
	assert.Equal(t, [][2]int{{3, 2025}}, CalendarMonths(CycleFor(3, 2025, 1)))
}
