package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamdivyeshtailor/finance-management/internal/core"
)

func txn(day int, desc string, cents int64, typ core.TxnType, category string) core.ImportTransaction {
	return core.ImportTransaction{
		Date:        core.NewDate(2025, 1, day),
		Description: desc,
		Amount:      core.Money{Cents: cents},
		Type:        typ,
		Category:    category,
	}
}

func sampleTxns() []core.ImportTransaction {
	return []core.ImportTransaction{
		txn(2, "UPI/SWIGGY/ORDER", 45000, core.Debit, "Food"),
		txn(3, "NEFT SALARY", 3000000, core.Credit, ""),
		txn(5, "UPI/UBER/RIDE", 23000, core.Debit, "Transport"),
		txn(7, "REFUND AMAZON", 99900, core.Credit, ""),
	}
}

func TestNew_SelectsEverything(t *testing.T) {
	b := New(sampleTxns(), []string{"Food"})
	assert.Equal(t, 4, b.SelectedCount())
	assert.Equal(t, core.Money{Cents: 45000 + 3000000 + 23000 + 99900}, b.SelectedTotal())
	assert.Equal(t, core.Uncategorized, b.Transactions()[1].Category)
	assert.Equal(t, Summary{Total: 4, Debits: 2, Credits: 2, Selected: 4}, b.Summary())
}

func TestScenario_SelectAllVisibleDebits(t *testing.T) {
	b := New(sampleTxns(), nil)
	for i := 0; i < b.Len(); i++ {
		require.NoError(t, b.Toggle(i))
	}
	require.Zero(t, b.SelectedCount())

	require.NoError(t, b.SetFilter(FilterDebit))
	b.SelectAllVisible()

	assert.Equal(t, []int{0, 2}, b.VisibleIndices())
	assert.True(t, b.IsSelected(0))
	assert.False(t, b.IsSelected(1))
	assert.True(t, b.IsSelected(2))
	assert.False(t, b.IsSelected(3))
	assert.Equal(t, core.Money{Cents: 45000 + 23000}, b.SelectedTotal())
}

func TestFilterDoesNotTouchHiddenRows(t *testing.T) {
	b := New(sampleTxns(), nil)
	require.NoError(t, b.Toggle(3))

	require.NoError(t, b.SetFilter(FilterDebit))
	b.SelectAllVisible()
	require.NoError(t, b.SetFilter(FilterCredit))
	assert.True(t, b.IsSelected(1))
	assert.False(t, b.IsSelected(3))

	b.DeselectAllVisible()
	assert.False(t, b.IsSelected(1))
	assert.True(t, b.IsSelected(0))
	assert.True(t, b.IsSelected(2))

	require.NoError(t, b.SetFilter(FilterAll))
	assert.Equal(t, 2, b.SelectedCount())
	assert.Len(t, b.Transactions(), 4)
}

func TestSetFilter_Invalid(t *testing.T) {
	b := New(sampleTxns(), nil)
	assert.ErrorIs(t, b.SetFilter("savings"), core.ErrValidation)
	assert.Equal(t, FilterAll, b.Filter())
}

func TestOutOfRangeIndexes(t *testing.T) {
	lenient := New(sampleTxns(), nil)
	assert.NoError(t, lenient.Toggle(9))
	assert.NoError(t, lenient.Toggle(-1))
	assert.NoError(t, lenient.UpdateCategory(4, "Food"))
	assert.Equal(t, 4, lenient.SelectedCount())

	strict := New(sampleTxns(), nil, WithStrictIndexes())
	assert.ErrorIs(t, strict.Toggle(4), ErrIndexOutOfRange)
	assert.ErrorIs(t, strict.UpdateCategory(-1, "Food"), ErrIndexOutOfRange)
	assert.ErrorIs(t, strict.UpdateTags(10, []string{"x"}), ErrIndexOutOfRange)
	assert.Equal(t, 4, strict.SelectedCount())
}

func TestUpdateCategoryAndTags(t *testing.T) {
	b := New(sampleTxns(), []string{"Food", "Bills"})

	require.NoError(t, b.UpdateCategory(1, "Salary"))
	require.NoError(t, b.UpdateCategory(0, "  "))
	require.NoError(t, b.UpdateTags(2, []string{"Cab", "cab", " Work "}))

	rows := b.Transactions()
	assert.Equal(t, "Salary", rows[1].Category)
	assert.Equal(t, core.Uncategorized, rows[0].Category)
	assert.Equal(t, []string{"cab", "work"}, rows[2].Tags)

	err := b.UpdateTags(2, []string{strings.Repeat("x", 31)})
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.Equal(t, []string{"cab", "work"}, b.Transactions()[2].Tags)

	// Callers get copies.
	rows[2].Tags[0] = "mutated"
	assert.Equal(t, "cab", b.Transactions()[2].Tags[0])
}

func TestCategoriesUnion(t *testing.T) {
	b := New(sampleTxns(), []string{"Food", "Bills"})
	assert.Equal(t, []string{"Food", "Bills", "Uncategorized", "Transport"}, b.Categories())

	require.NoError(t, b.UpdateCategory(3, "Shopping"))
	assert.Equal(t, []string{"Food", "Bills", "Uncategorized", "Transport", "Shopping"}, b.Categories())
}

func TestSelectedKeepsArrivalOrder(t *testing.T) {
	b := New(sampleTxns(), nil)
	require.NoError(t, b.Toggle(1))
	sel := b.Selected()
	require.Len(t, sel, 3)
	assert.Equal(t, "UPI/SWIGGY/ORDER", sel[0].Description)
	assert.Equal(t, "UPI/UBER/RIDE", sel[1].Description)
	assert.Equal(t, "REFUND AMAZON", sel[2].Description)
}
