package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iamdivyeshtailor/finance-management/internal/amqp"
	"github.com/iamdivyeshtailor/finance-management/internal/core"
	"github.com/iamdivyeshtailor/finance-management/internal/sheets"
)

// SyncStore is the part of the SQLite store the worker needs.
type SyncStore interface {
	GetExpense(ctx context.Context, id string) (core.Expense, error)
	GetPendingSyncExpenses(ctx context.Context, limit int) ([]core.Expense, error)
	MarkSynced(ctx context.Context, id string, version int64) error
	MarkSyncError(ctx context.Context, id string) error
	RetryFailedSyncs(ctx context.Context) (int64, error)
}

// SyncWorker mirrors stored expenses to Google Sheets.
type SyncWorker struct {
	storage   SyncStore
	sheets    sheets.ExpenseWriter
	batchSize int
}

func NewSyncWorker(storage SyncStore, sheets sheets.ExpenseWriter, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &SyncWorker{
		storage:   storage,
		sheets:    sheets,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single expense sync message from AMQP.
// Deleted expenses and superseded versions are acknowledged without writing.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.ExpenseSyncMessage) error {
	expense, err := w.storage.GetExpense(ctx, msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Expense no longer exists, skipping sync", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}

	if expense.Version > msg.Version {
		slog.InfoContext(ctx, "Skipping stale sync message",
			"id", msg.ID,
			"message_version", msg.Version,
			"current_version", expense.Version)
		return nil
	}

	if err := w.syncExpenseToSheets(ctx, expense); err != nil {
		return fmt.Errorf("sync expense to sheets: %w", err)
	}
	return nil
}

// ProcessPendingExpenses syncs expenses still pending, in case AMQP messages
// were lost. It returns how many were synced.
func (w *SyncWorker) ProcessPendingExpenses(ctx context.Context) (int, error) {
	return w.processPending(ctx, w.batchSize)
}

// StartupSyncCheck retries failed syncs and drains a larger pending batch.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	retried, err := w.storage.RetryFailedSyncs(ctx)
	if err != nil {
		return fmt.Errorf("retry failed syncs: %w", err)
	}
	if retried > 0 {
		slog.InfoContext(ctx, "Requeued failed syncs", "count", retried)
	}

	synced, err := w.processPending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	slog.InfoContext(ctx, "Startup sync completed", "synced", synced)
	return nil
}

func (w *SyncWorker) processPending(ctx context.Context, limit int) (int, error) {
	pending, err := w.storage.GetPendingSyncExpenses(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("get pending expenses: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "Processing pending expenses", "count", len(pending))

	synced := 0
	for _, e := range pending {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		if err := w.syncExpenseToSheets(ctx, e); err != nil {
			slog.ErrorContext(ctx, "Failed to sync expense", "id", e.ID, "error", err)
			continue
		}
		synced++
	}
	return synced, nil
}

// Run sweeps pending expenses every interval until ctx is done.
func (w *SyncWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.ProcessPendingExpenses(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.ErrorContext(ctx, "Periodic sync failed", "error", err)
			}
		}
	}
}

func (w *SyncWorker) syncExpenseToSheets(ctx context.Context, e core.Expense) error {
	ref, err := w.sheets.Append(ctx, e)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, e.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", e.ID, "error", markErr)
		}
		return fmt.Errorf("append to sheets: %w", err)
	}

	// The row is written; a failed mark only means a duplicate row later.
	if err := w.storage.MarkSynced(ctx, e.ID, e.Version); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", e.ID, "error", err)
	}

	slog.InfoContext(ctx, "Successfully synced expense",
		"id", e.ID,
		"version", e.Version,
		"sheets_ref", ref,
		"amount_cents", e.Amount.Cents)
	return nil
}

// RetryFailed puts expenses whose sync failed back in the pending state.
func (w *SyncWorker) RetryFailed(ctx context.Context) (int64, error) {
	return w.storage.RetryFailedSyncs(ctx)
}
