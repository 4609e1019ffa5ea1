package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iamdivyeshtailor/finance-management/internal/core"
)

type mockSink struct {
	mock.Mock
}

func (m *mockSink) BulkCreate(ctx context.Context, in []core.ExpenseInput) (core.BulkResult, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(core.BulkResult), args.Error(1)
}

func TestScenario_CommitEmptySelection(t *testing.T) {
	sink := &mockSink{}
	b := New(sampleTxns(), nil)
	b.DeselectAllVisible()

	_, err := NewCommitter(sink).Commit(context.Background(), b)

	assert.ErrorIs(t, err, core.ErrEmptySelection)
	sink.AssertNumberOfCalls(t, "BulkCreate", 0)
}

func TestCommit_MapsSelectedRows(t *testing.T) {
	ctx := context.Background()
	b := New(sampleTxns(), nil)
	require.NoError(t, b.SetFilter(FilterCredit))
	b.DeselectAllVisible()
	require.NoError(t, b.UpdateTags(0, []string{"Dinner"}))

	want := []core.ExpenseInput{
		{Date: core.NewDate(2025, 1, 2), Category: "Food", Amount: core.Money{Cents: 45000}, Description: "UPI/SWIGGY/ORDER", Tags: []string{"dinner"}},
		{Date: core.NewDate(2025, 1, 5), Category: "Transport", Amount: core.Money{Cents: 23000}, Description: "UPI/UBER/RIDE", Tags: []string{}},
	}
	sink := &mockSink{}
	sink.On("BulkCreate", ctx, want).Return(core.BulkResult{Count: 2}, nil).Once()

	res, err := NewCommitter(sink).Commit(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, "2 expenses imported!", res.Message)
	sink.AssertExpectations(t)
}

func TestCommit_KeepsUncategorized(t *testing.T) {
	ctx := context.Background()
	b := New(sampleTxns()[1:2], nil)

	sink := &mockSink{}
	sink.On("BulkCreate", ctx, mock.MatchedBy(func(in []core.ExpenseInput) bool {
		return len(in) == 1 && in[0].Category == core.Uncategorized
	})).Return(core.BulkResult{Count: 1, Message: "1 expenses imported successfully"}, nil)

	res, err := NewCommitter(sink).Commit(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, "1 expenses imported successfully", res.Message)
}

func TestCommit_SinkFailure(t *testing.T) {
	ctx := context.Background()
	sink := &mockSink{}
	sink.On("BulkCreate", ctx, mock.Anything).Return(core.BulkResult{}, errors.New("database is locked"))

	_, err := NewCommitter(sink).Commit(ctx, New(sampleTxns(), nil))

	var ue *core.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "bulk create", ue.Op)
	assert.Equal(t, "database is locked", ue.UserMessage())
	sink.AssertNumberOfCalls(t, "BulkCreate", 1)
}

func TestCommit_InvalidRowNeverReachesSink(t *testing.T) {
	rows := sampleTxns()
	rows[2].Amount = core.Money{}
	sink := &mockSink{}

	_, err := NewCommitter(sink).Commit(context.Background(), New(rows, nil))

	var ve *core.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "transactions[2].amount", ve.Field)
	assert.Equal(t, "Transaction #3: Amount must be greater than 0.", ve.Message)
	sink.AssertNotCalled(t, "BulkCreate", mock.Anything, mock.Anything)
}
