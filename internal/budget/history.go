package budget

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iamdivyeshtailor/finance-management/internal/core"
	"github.com/iamdivyeshtailor/finance-management/internal/ports"
)

// History answers report queries for any cycle.
//
// Open cycles are always computed live. A cycle whose end date has passed is
// computed once, stored through the SnapshotStore and served from there ever
// after, so later settings edits never rewrite past reports. Cycles that end
// before the oldest expense are never stored.
type History struct {
	settings  ports.SettingsProvider
	expenses  ports.ExpenseHistory
	snapshots ports.SnapshotStore
	now       func() time.Time
}

type HistoryOption func(*History)

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) HistoryOption {
	return func(h *History) { h.now = now }
}

func NewHistory(settings ports.SettingsProvider, expenses ports.ExpenseHistory, snapshots ports.SnapshotStore, opts ...HistoryOption) *History {
	h := &History{
		settings:  settings,
		expenses:  expenses,
		snapshots: snapshots,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Today is the current calendar day according to the history clock.
func (h *History) Today() core.Date {
	return core.DateOf(h.now())
}

// Current builds the live report of the cycle containing today.
func (h *History) Current(ctx context.Context) (core.Report, error) {
	today := h.Today()
	// The cycle containing today starts this month or the previous one and may
	// end next month.
	prev := today.AddDays(-today.Day())
	next := core.NewDate(today.Year(), today.Month(), 1).AddDays(32)
	s, expenses, err := h.load(ctx,
		[2]int{prev.Month(), prev.Year()},
		[2]int{today.Month(), today.Year()},
		[2]int{next.Month(), next.Year()},
	)
	if err != nil {
		return core.Report{}, err
	}
	c := ResolveCycle(today, s.SalaryCreditDate)
	return BuildReport(s, expenses, c, h.now().UTC())
}

// ReportFor returns the report of the cycle starting in (month, year).
//
// Elapsed cycles are frozen on first read, except those that end before
// history starts (see startOfHistory). Those are served live and never stored.
func (h *History) ReportFor(ctx context.Context, month, year int) (core.Report, error) {
	if err := ValidatePeriod(month, year); err != nil {
		return core.Report{}, err
	}

	snap, err := h.snapshots.GetSnapshot(ctx, month, year)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.Report{}, core.Upstream("get snapshot", err)
	}

	report, err := h.build(ctx, month, year)
	if err != nil {
		return core.Report{}, err
	}
	if !report.Cycle.End.Before(h.Today()) {
		return report, nil
	}

	snaps, err := h.snapshots.ListSnapshots(ctx)
	if err != nil {
		return core.Report{}, core.Upstream("list snapshots", err)
	}
	start, ok, err := h.startOfHistory(ctx, snaps)
	if err != nil {
		return core.Report{}, err
	}
	if !ok || report.Cycle.End.Before(start) {
		return report, nil
	}
	return h.freeze(ctx, report)
}

// maxClosedCycles bounds one CloseElapsed walk.
const maxClosedCycles = 1200

// CloseElapsed freezes every elapsed cycle that has no snapshot yet, walking
// back from the cycle before today's until the cycles end before history
// starts. It does nothing while the budget is not configured.
func (h *History) CloseElapsed(ctx context.Context) error {
	s, err := h.settings.GetSettings(ctx)
	if err != nil {
		return core.Upstream("get settings", err)
	}
	if !s.Configured() {
		return nil
	}
	snaps, err := h.snapshots.ListSnapshots(ctx)
	if err != nil {
		return core.Upstream("list snapshots", err)
	}
	start, ok, err := h.startOfHistory(ctx, snaps)
	if err != nil || !ok {
		return err
	}
	frozen := make(map[[2]int]bool, len(snaps))
	for _, r := range snaps {
		frozen[[2]int{r.Month, r.Year}] = true
	}

	credit := s.SalaryCreditDate
	c := Previous(ResolveCycle(h.Today(), credit), credit)
	for i := 0; i < maxClosedCycles && !c.End.Before(start); i++ {
		if !frozen[[2]int{c.Month, c.Year}] {
			report, err := h.build(ctx, c.Month, c.Year)
			if err == nil {
				_, err = h.freeze(ctx, report)
			}
			if err != nil {
				return fmt.Errorf("close cycle %d/%d: %w", c.Month, c.Year, err)
			}
		}
		c = Previous(c, credit)
	}
	return nil
}

// startOfHistory is the first day frozen history has to cover: the date of
// the oldest expense or the start of the oldest snapshot, whichever is
// earlier. ok is false while there is neither.
func (h *History) startOfHistory(ctx context.Context, snaps []core.Report) (core.Date, bool, error) {
	var start core.Date
	ok := false
	first, err := h.expenses.FirstExpenseDate(ctx)
	switch {
	case err == nil:
		start, ok = first, true
	case !errors.Is(err, core.ErrNotFound):
		return core.Date{}, false, core.Upstream("first expense date", err)
	}
	for _, r := range snaps {
		if !ok || r.Cycle.Start.Before(start) {
			start, ok = r.Cycle.Start, true
		}
	}
	return start, ok, nil
}

// build computes the live report of the cycle starting in (month, year).
func (h *History) build(ctx context.Context, month, year int) (core.Report, error) {
	next := time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)
	s, expenses, err := h.load(ctx, [2]int{month, year}, [2]int{int(next.Month()), next.Year()})
	if err != nil {
		return core.Report{}, err
	}
	return BuildReport(s, expenses, CycleFor(month, year, s.SalaryCreditDate), h.now().UTC())
}

func (h *History) freeze(ctx context.Context, report core.Report) (core.Report, error) {
	stored, err := h.snapshots.PutSnapshot(ctx, report)
	if err != nil {
		return core.Report{}, core.Upstream("put snapshot", err)
	}
	return stored, nil
}

// Trend lists every frozen cycle, oldest first.
func (h *History) Trend(ctx context.Context) ([]core.TrendPoint, error) {
	reports, err := h.snapshots.ListSnapshots(ctx)
	if err != nil {
		return nil, core.Upstream("list snapshots", err)
	}
	return TrendOf(reports), nil
}

// TrendOf converts reports to chart points sorted by (year, month).
func TrendOf(reports []core.Report) []core.TrendPoint {
	points := make([]core.TrendPoint, 0, len(reports))
	for _, r := range reports {
		points = append(points, r.Trend())
	}
	sort.SliceStable(points, func(i, j int) bool {
		if points[i].Year != points[j].Year {
			return points[i].Year < points[j].Year
		}
		return points[i].Month < points[j].Month
	})
	return points
}

// ValidatePeriod checks a (month, year) query parameter pair.
func ValidatePeriod(month, year int) error {
	if month < 1 || month > 12 {
		return &core.ValidationError{Field: "month", Message: "Month must be between 1 and 12."}
	}
	if year < 1970 || year > 9999 {
		return &core.ValidationError{Field: "year", Message: "Year must be between 1970 and 9999."}
	}
	return nil
}

// load fetches settings and the expenses of each calendar month concurrently.
// The first failure cancels the rest.
func (h *History) load(ctx context.Context, months ...[2]int) (core.Settings, []core.Expense, error) {
	g, gctx := errgroup.WithContext(ctx)

	var s core.Settings
	g.Go(func() error {
		var err error
		s, err = h.settings.GetSettings(gctx)
		if err != nil {
			return core.Upstream("get settings", err)
		}
		return nil
	})

	perMonth := make([][]core.Expense, len(months))
	for i, m := range months {
		g.Go(func() error {
			list, err := h.expenses.ListExpenses(gctx, m[0], m[1])
			if err != nil {
				return core.Upstream("list expenses", err)
			}
			perMonth[i] = list
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return core.Settings{}, nil, err
	}

	var all []core.Expense
	for _, list := range perMonth {
		all = append(all, list...)
	}
	return s, all, nil
}
