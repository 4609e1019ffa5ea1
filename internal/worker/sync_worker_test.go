package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iamdivyeshtailor/finance-management/internal/amqp"
	"github.com/iamdivyeshtailor/finance-management/internal/core"
	sheetsmem "github.com/iamdivyeshtailor/finance-management/internal/sheets/memory"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(core.Expense), args.Error(1)
}

func (m *mockStore) GetPendingSyncExpenses(ctx context.Context, limit int) ([]core.Expense, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]core.Expense), args.Error(1)
}

func (m *mockStore) MarkSynced(ctx context.Context, id string, version int64) error {
	return m.Called(ctx, id, version).Error(0)
}

func (m *mockStore) MarkSyncError(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) RetryFailedSyncs(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type failingSheet struct{}

func (failingSheet) Append(context.Context, core.Expense) (string, error) {
	return "", errors.New("quota exceeded")
}

func expense(id string, version int64) core.Expense {
	return core.Expense{ID: id, Version: version, ExpenseInput: core.ExpenseInput{
		Date: core.NewDate(2025, 4, 3), Category: "Food", Amount: core.Money{Cents: 2500}, Description: "Lunch",
	}}
}

func TestHandleSyncMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("appends and marks synced", func(t *testing.T) {
		store := &mockStore{}
		sheet := sheetsmem.New()
		store.On("GetExpense", ctx, "a").Return(expense("a", 2), nil)
		store.On("MarkSynced", ctx, "a", int64(2)).Return(nil)

		w := NewSyncWorker(store, sheet, 5)
		require.NoError(t, w.HandleSyncMessage(ctx, amqp.NewExpenseSyncMessage("a", 2)))

		assert.Len(t, sheet.Rows(), 1)
		store.AssertExpectations(t)
	})

	t.Run("stale version is skipped", func(t *testing.T) {
		store := &mockStore{}
		sheet := sheetsmem.New()
		store.On("GetExpense", ctx, "a").Return(expense("a", 3), nil)

		w := NewSyncWorker(store, sheet, 5)
		require.NoError(t, w.HandleSyncMessage(ctx, amqp.NewExpenseSyncMessage("a", 1)))

		assert.Empty(t, sheet.Rows())
		store.AssertNotCalled(t, "MarkSynced", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("deleted expense is acknowledged", func(t *testing.T) {
		store := &mockStore{}
		store.On("GetExpense", ctx, "gone").Return(core.Expense{}, core.ErrNotFound)

		w := NewSyncWorker(store, sheetsmem.New(), 5)
		assert.NoError(t, w.HandleSyncMessage(ctx, amqp.NewExpenseSyncMessage("gone", 1)))
	})

	t.Run("sheet failure marks error and requeues", func(t *testing.T) {
		store := &mockStore{}
		store.On("GetExpense", ctx, "a").Return(expense("a", 1), nil)
		store.On("MarkSyncError", ctx, "a").Return(nil)

		w := NewSyncWorker(store, failingSheet{}, 5)
		err := w.HandleSyncMessage(ctx, amqp.NewExpenseSyncMessage("a", 1))

		assert.ErrorContains(t, err, "quota exceeded")
		store.AssertCalled(t, "MarkSyncError", ctx, "a")
	})

	t.Run("store failure is returned", func(t *testing.T) {
		store := &mockStore{}
		store.On("GetExpense", ctx, "a").Return(core.Expense{}, errors.New("disk I/O error"))

		w := NewSyncWorker(store, sheetsmem.New(), 5)
		assert.Error(t, w.HandleSyncMessage(ctx, amqp.NewExpenseSyncMessage("a", 1)))
	})
}

func TestProcessPendingExpenses(t *testing.T) {
	ctx := context.Background()
	store := &mockStore{}
	sheet := sheetsmem.New()
	store.On("GetPendingSyncExpenses", ctx, 2).Return([]core.Expense{expense("a", 1), expense("b", 4)}, nil)
	store.On("MarkSynced", ctx, "a", int64(1)).Return(nil)
	store.On("MarkSynced", ctx, "b", int64(4)).Return(errors.New("locked"))

	w := NewSyncWorker(store, sheet, 2)
	n, err := w.ProcessPendingExpenses(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, sheet.Rows(), 2)
	store.AssertExpectations(t)
}

func TestStartupSyncCheck(t *testing.T) {
	ctx := context.Background()
	store := &mockStore{}
	store.On("RetryFailedSyncs", ctx).Return(int64(1), nil)
	store.On("GetPendingSyncExpenses", ctx, 15).Return([]core.Expense{}, nil)

	w := NewSyncWorker(store, sheetsmem.New(), 3)
	require.NoError(t, w.StartupSyncCheck(ctx))
	store.AssertExpectations(t)
}
