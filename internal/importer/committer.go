package importer

import (
	"context"
	"fmt"

	"github.com/iamdivyeshtailor/finance-management/internal/core"
)

// Sink persists a batch of expenses atomically.
type Sink interface {
	BulkCreate(ctx context.Context, in []core.ExpenseInput) (core.BulkResult, error)
}

type Committer struct {
	sink Sink
}

func NewCommitter(sink Sink) *Committer {
	return &Committer{sink: sink}
}

// Commit writes the selected rows of b as expenses.
//
// Nothing reaches the sink unless at least one row is selected and every
// selected row is a valid expense. Sink failures come back as a single
// *core.UpstreamError carrying the sink's message.
func (c *Committer) Commit(ctx context.Context, b *Batch) (core.BulkResult, error) {
	return c.CommitTransactions(ctx, b.Selected())
}

// CommitTransactions commits rows that were selected elsewhere, all of them.
func (c *Committer) CommitTransactions(ctx context.Context, txns []core.ImportTransaction) (core.BulkResult, error) {
	if len(txns) == 0 {
		return core.BulkResult{}, core.ErrEmptySelection
	}

	inputs := make([]core.ExpenseInput, len(txns))
	for i, t := range txns {
		in := t.ToExpenseInput()
		if err := in.Validate(); err != nil {
			return core.BulkResult{}, rowError(i, err)
		}
		inputs[i] = in.Normalize()
	}

	res, err := c.sink.BulkCreate(ctx, inputs)
	if err != nil {
		return core.BulkResult{}, &core.UpstreamError{Op: "bulk create", Err: err}
	}
	if res.Message == "" {
		res.Message = fmt.Sprintf("%d expenses imported!", res.Count)
	}
	return res, nil
}

func rowError(i int, err error) error {
	ve, ok := err.(*core.ValidationError)
	if !ok {
		return fmt.Errorf("transaction %d: %w", i+1, err)
	}
	return &core.ValidationError{
		Field:   fmt.Sprintf("transactions[%d].%s", i, ve.Field),
		Message: fmt.Sprintf("Transaction #%d: %s", i+1, ve.Message),
	}
}
