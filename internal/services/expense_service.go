package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/iamdivyeshtailor/finance-management/internal/budget"
	"github.com/iamdivyeshtailor/finance-management/internal/core"
	"github.com/iamdivyeshtailor/finance-management/internal/ports"
)

// ExpenseService orchestrates expense operations across the store and the
// sync publisher.
type ExpenseService struct {
	store     ports.ExpenseRepository
	publisher ports.ExpenseSyncPublisher
}

// NewExpenseService accepts a nil publisher, in which case nothing is synced.
func NewExpenseService(store ports.ExpenseRepository, publisher ports.ExpenseSyncPublisher) *ExpenseService {
	return &ExpenseService{
		store:     store,
		publisher: publisher,
	}
}

// List returns the expenses of one calendar month, newest first.
func (s *ExpenseService) List(ctx context.Context, month, year int) ([]core.Expense, error) {
	if err := budget.ValidatePeriod(month, year); err != nil {
		return nil, err
	}
	list, err := s.store.ListExpenses(ctx, month, year)
	if err != nil {
		return nil, core.Upstream("list expenses", err)
	}
	return list, nil
}

func (s *ExpenseService) Get(ctx context.Context, id string) (core.Expense, error) {
	e, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, core.Upstream("get expense", err)
	}
	return e, nil
}

// Create saves an expense and announces it. A failed announcement is logged;
// the expense stays saved and the worker's pending sweep picks it up.
func (s *ExpenseService) Create(ctx context.Context, in core.ExpenseInput) (core.Expense, error) {
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}
	e, err := s.store.CreateExpense(ctx, in)
	if err != nil {
		return core.Expense{}, core.Upstream("save expense", err)
	}
	s.publish(ctx, e)
	return e, nil
}

func (s *ExpenseService) Update(ctx context.Context, id string, in core.ExpenseInput) (core.Expense, error) {
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}
	e, err := s.store.UpdateExpense(ctx, id, in)
	if err != nil {
		return core.Expense{}, core.Upstream("update expense", err)
	}
	s.publish(ctx, e)
	return e, nil
}

// Delete removes the expense locally. Rows already mirrored to the sheet stay there.
func (s *ExpenseService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return core.Upstream("delete expense", err)
	}
	return nil
}

// BulkCreate stores every input or none. It is the sink of statement imports.
func (s *ExpenseService) BulkCreate(ctx context.Context, in []core.ExpenseInput) (core.BulkResult, error) {
	res, err := s.store.BulkCreate(ctx, in)
	if err != nil {
		return core.BulkResult{}, err
	}
	slog.InfoContext(ctx, "Bulk expenses stored", "count", res.Count)
	return res, nil
}

func (s *ExpenseService) publish(ctx context.Context, e core.Expense) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message", "id", e.ID)
		return
	}
	if err := s.publisher.PublishExpenseSync(ctx, e); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", e.ID, "version", e.Version, "error", err)
	}
}

// Close closes the store and the publisher when they hold connections.
func (s *ExpenseService) Close() error {
	var errs []error
	if c, ok := s.store.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if c, ok := s.publisher.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %w", errors.Join(errs...))
	}
	return nil
}
