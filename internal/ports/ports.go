// Package ports declares the collaborators the budget and import workflows depend on.
package ports

import (
	"context"

	"github.com/iamdivyeshtailor/finance-management/internal/core"
	"github.com/iamdivyeshtailor/finance-management/internal/statement"
)

// Ports for outbound adapters.
type (
	SettingsProvider interface {
		// GetSettings returns the stored settings. A fresh install returns the
		// zero Settings, which is not configured.
		GetSettings(ctx context.Context) (core.Settings, error)
		PutSettings(ctx context.Context, s core.Settings) (core.Settings, error)
	}

	// ExpenseLister returns the expenses dated in one calendar month.
	ExpenseLister interface {
		ListExpenses(ctx context.Context, month, year int) ([]core.Expense, error)
	}

	// ExpenseHistory is an ExpenseLister that knows where the ledger begins.
	ExpenseHistory interface {
		ExpenseLister
		// FirstExpenseDate returns core.ErrNotFound when no expense is stored.
		FirstExpenseDate(ctx context.Context) (core.Date, error)
	}

	ExpenseRepository interface {
		ExpenseHistory
		GetExpense(ctx context.Context, id string) (core.Expense, error)
		CreateExpense(ctx context.Context, in core.ExpenseInput) (core.Expense, error)
		UpdateExpense(ctx context.Context, id string, in core.ExpenseInput) (core.Expense, error)
		DeleteExpense(ctx context.Context, id string) error
		// BulkCreate stores every input or none of them.
		BulkCreate(ctx context.Context, in []core.ExpenseInput) (core.BulkResult, error)
	}

	// SnapshotStore keeps the frozen report of every closed cycle.
	SnapshotStore interface {
		// GetSnapshot returns core.ErrNotFound when the cycle was never frozen.
		GetSnapshot(ctx context.Context, month, year int) (core.Report, error)
		// PutSnapshot stores r unless a snapshot for the same cycle exists, and
		// returns whichever report is stored afterwards.
		PutSnapshot(ctx context.Context, r core.Report) (core.Report, error)
		ListSnapshots(ctx context.Context) ([]core.Report, error)
	}

	StatementParser interface {
		Parse(ctx context.Context, data []byte, filename string) (statement.Result, error)
	}

	// ExpenseSyncPublisher announces stored expenses to downstream consumers.
	ExpenseSyncPublisher interface {
		PublishExpenseSync(ctx context.Context, e core.Expense) error
	}

	// Store is everything a data backend provides.
	Store interface {
		SettingsProvider
		ExpenseRepository
		SnapshotStore
		Close() error
	}
)
