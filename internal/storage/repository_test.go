package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamdivyeshtailor/finance-management/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "budget.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func input(date core.Date, category string, rupees int64, desc string, tags ...string) core.ExpenseInput {
	return core.ExpenseInput{Date: date, Category: category, Amount: core.Money{Cents: rupees * 100}, Description: desc, Tags: tags}
}

func TestSettingsRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	empty, err := repo.GetSettings(ctx)
	require.NoError(t, err)
	assert.False(t, empty.Configured())

	saved, err := repo.PutSettings(ctx, core.Settings{
		Salary:           core.Money{Cents: 5_000_000},
		SalaryCreditDate: 25,
		FixedDeductions:  []core.FixedDeduction{{Name: " Rent ", Amount: core.Money{Cents: 1_500_000}, DeductionDate: 1}},
		Categories: []core.Category{
			{Name: "Food", MonthlyLimit: core.Money{Cents: 800_000}},
			{Name: "EMI", MonthlyLimit: core.Money{Cents: 1_000_000}, Kind: core.CategoryFixed},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Rent", saved.FixedDeductions[0].Name)
	assert.Equal(t, core.CategoryVariable, saved.Categories[0].Kind)
	assert.Equal(t, []string{"Food", "EMI"}, saved.CategoryNames())

	// A second save replaces the lists instead of appending.
	_, err = repo.PutSettings(ctx, core.Settings{
		Salary:           core.Money{Cents: 6_000_000},
		SalaryCreditDate: 1,
		Categories:       []core.Category{{Name: "Travel", MonthlyLimit: core.Money{Cents: 100_000}}},
	})
	require.NoError(t, err)
	got, err := repo.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6_000_000), got.Salary.Cents)
	assert.Equal(t, 1, got.SalaryCreditDate)
	assert.Empty(t, got.FixedDeductions)
	assert.Equal(t, []string{"Travel"}, got.CategoryNames())
}

func TestPutSettingsRejectsInvalid(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.PutSettings(context.Background(), core.Settings{SalaryCreditDate: 10})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestExpenseCRUD(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	created, err := repo.CreateExpense(ctx, input(core.NewDate(2025, 3, 10), "Food", 250, " Lunch ", "Work", "work"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, int64(1), created.Version)
	assert.Equal(t, "Lunch", created.Description)
	assert.Equal(t, []string{"work"}, created.Tags)

	_, err = repo.CreateExpense(ctx, input(core.NewDate(2025, 3, 31), "Food", 100, "Dinner"))
	require.NoError(t, err)
	_, err = repo.CreateExpense(ctx, input(core.NewDate(2025, 4, 1), "Food", 100, "Breakfast"))
	require.NoError(t, err)

	march, err := repo.ListExpenses(ctx, 3, 2025)
	require.NoError(t, err)
	require.Len(t, march, 2)
	assert.Equal(t, "Dinner", march[0].Description)

	updated, err := repo.UpdateExpense(ctx, created.ID, input(core.NewDate(2025, 3, 11), "Transport", 300, "Cab"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, "Transport", updated.Category)
	assert.Empty(t, updated.Tags)

	got, err := repo.GetExpense(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Amount, got.Amount)

	require.NoError(t, repo.DeleteExpense(ctx, created.ID))
	_, err = repo.GetExpense(ctx, created.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, repo.DeleteExpense(ctx, created.ID), core.ErrNotFound)

	_, err = repo.UpdateExpense(ctx, "missing", input(core.NewDate(2025, 3, 11), "Food", 1, "x"))
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestFirstExpenseDate(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.FirstExpenseDate(ctx)
	assert.ErrorIs(t, err, core.ErrNotFound)

	for _, d := range []core.Date{core.NewDate(2025, 4, 2), core.NewDate(2024, 12, 31), core.NewDate(2025, 1, 15)} {
		_, err := repo.CreateExpense(ctx, input(d, "Food", 10, "Snack"))
		require.NoError(t, err)
	}
	first, err := repo.FirstExpenseDate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-12-31", first.String())
}

func TestBulkCreateIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.BulkCreate(ctx, []core.ExpenseInput{
		input(core.NewDate(2025, 5, 1), "Food", 10, "ok"),
		input(core.NewDate(2025, 5, 2), "Food", 0, "zero"),
	})
	assert.ErrorIs(t, err, core.ErrValidation)
	list, err := repo.ListExpenses(ctx, 5, 2025)
	require.NoError(t, err)
	assert.Empty(t, list)

	res, err := repo.BulkCreate(ctx, []core.ExpenseInput{
		input(core.NewDate(2025, 5, 1), "Food", 10, "one"),
		input(core.NewDate(2025, 5, 2), core.Uncategorized, 20, "two"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, "2 expenses imported successfully", res.Message)
	list, err = repo.ListExpenses(ctx, 5, 2025)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestSyncStatus(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	repo.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

	e, err := repo.CreateExpense(ctx, input(core.NewDate(2025, 6, 1), "Food", 10, "Tea"))
	require.NoError(t, err)

	pending, err := repo.GetPendingSyncExpenses(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, repo.MarkSynced(ctx, e.ID, e.Version))
	pending, err = repo.GetPendingSyncExpenses(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// An edit makes the expense pending again.
	_, err = repo.UpdateExpense(ctx, e.ID, input(core.NewDate(2025, 6, 1), "Food", 12, "Tea"))
	require.NoError(t, err)
	pending, err = repo.GetPendingSyncExpenses(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(2), pending[0].Version)

	// Acknowledging the stale version does not clear the newer one.
	require.NoError(t, repo.MarkSynced(ctx, e.ID, 1))
	pending, err = repo.GetPendingSyncExpenses(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	require.NoError(t, repo.MarkSyncError(ctx, e.ID))
	pending, err = repo.GetPendingSyncExpenses(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	n, err := repo.RetryFailedSyncs(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	pending, err = repo.GetPendingSyncExpenses(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestSnapshotsFirstWriteWins(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.GetSnapshot(ctx, 1, 2025)
	assert.ErrorIs(t, err, core.ErrNotFound)

	first := core.Report{Month: 1, Year: 2025, TotalSpent: core.Money{Cents: 100}, Categories: []core.CategoryReport{}}
	stored, err := repo.PutSnapshot(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, first.TotalSpent, stored.TotalSpent)

	stored, err = repo.PutSnapshot(ctx, core.Report{Month: 1, Year: 2025, TotalSpent: core.Money{Cents: 999}})
	require.NoError(t, err)
	assert.Equal(t, int64(100), stored.TotalSpent.Cents)

	_, err = repo.PutSnapshot(ctx, core.Report{Month: 12, Year: 2024, TotalSpent: core.Money{Cents: 50}})
	require.NoError(t, err)

	all, err := repo.ListSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestMigrateSchemaIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budget.db")

	v1, err := MigrateSchema(path)
	require.NoError(t, err)
	assert.Equal(t, uint(2), v1)

	v2, err := MigrateSchema(path)
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
}
