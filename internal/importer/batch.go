// Package importer holds the review-and-commit workflow for bank statement rows.
//
// A Batch keeps the parsed rows in arrival order together with a parallel
// selection slice. Filters only change which rows bulk actions touch; they
// never change the rows or the selection of hidden rows.
package importer

import (
	"errors"
	"strings"

	"github.com/iamdivyeshtailor/finance-management/internal/core"
)

// ErrIndexOutOfRange is returned by strict batches for indices outside the batch.
var ErrIndexOutOfRange = errors.New("transaction index out of range")

type Filter string

const (
	FilterAll    Filter = "all"
	FilterDebit  Filter = "debit"
	FilterCredit Filter = "credit"
)

func (f Filter) IsValid() bool {
	return f == FilterAll || f == FilterDebit || f == FilterCredit
}

func (f Filter) matches(t core.ImportTransaction) bool {
	return f == FilterAll || string(f) == string(t.Type)
}

// Summary counts the rows of a batch by type and selection.
type Summary struct {
	Total    int `json:"total"`
	Debits   int `json:"debits"`
	Credits  int `json:"credits"`
	Selected int `json:"selected"`
}

type Batch struct {
	txns           []core.ImportTransaction
	selected       []bool
	filter         Filter
	userCategories []string
	strict         bool
}

type Option func(*Batch)

// WithStrictIndexes makes index based operations fail with ErrIndexOutOfRange
// instead of ignoring bad indices.
func WithStrictIndexes() Option {
	return func(b *Batch) { b.strict = true }
}

// New loads txns into a batch with every row selected. Rows without a
// category get core.Uncategorized.
func New(txns []core.ImportTransaction, userCategories []string, opts ...Option) *Batch {
	b := &Batch{
		txns:           make([]core.ImportTransaction, len(txns)),
		selected:       make([]bool, len(txns)),
		filter:         FilterAll,
		userCategories: append([]string(nil), userCategories...),
	}
	for i, t := range txns {
		if strings.TrimSpace(t.Category) == "" {
			t.Category = core.Uncategorized
		}
		t.Tags = append([]string(nil), t.Tags...)
		b.txns[i] = t
		b.selected[i] = true
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Batch) Len() int { return len(b.txns) }

func (b *Batch) Filter() Filter { return b.filter }

func (b *Batch) check(i int) (bool, error) {
	if i >= 0 && i < len(b.txns) {
		return true, nil
	}
	if b.strict {
		return false, ErrIndexOutOfRange
	}
	return false, nil
}

// Toggle flips the selection of row i.
func (b *Batch) Toggle(i int) error {
	ok, err := b.check(i)
	if ok {
		b.selected[i] = !b.selected[i]
	}
	return err
}

// IsSelected reports whether row i is selected; out-of-range rows never are.
func (b *Batch) IsSelected(i int) bool {
	return i >= 0 && i < len(b.selected) && b.selected[i]
}

// SetFilter changes the visible subset. An unknown filter is a validation error.
func (b *Batch) SetFilter(f Filter) error {
	if !f.IsValid() {
		return &core.ValidationError{Field: "filter", Message: "Filter must be all, debit or credit."}
	}
	b.filter = f
	return nil
}

// VisibleIndices lists the rows matching the active filter in arrival order.
func (b *Batch) VisibleIndices() []int {
	out := make([]int, 0, len(b.txns))
	for i, t := range b.txns {
		if b.filter.matches(t) {
			out = append(out, i)
		}
	}
	return out
}

// SelectAllVisible selects every visible row and leaves hidden rows alone.
func (b *Batch) SelectAllVisible() {
	b.setVisible(true)
}

// DeselectAllVisible clears every visible row and leaves hidden rows alone.
func (b *Batch) DeselectAllVisible() {
	b.setVisible(false)
}

func (b *Batch) setVisible(v bool) {
	for _, i := range b.VisibleIndices() {
		b.selected[i] = v
	}
}

// UpdateCategory replaces the category of row i. A blank category resets it
// to core.Uncategorized.
func (b *Batch) UpdateCategory(i int, category string) error {
	ok, err := b.check(i)
	if !ok {
		return err
	}
	category = strings.TrimSpace(category)
	if category == "" {
		category = core.Uncategorized
	}
	b.txns[i].Category = category
	return nil
}

// UpdateTags replaces the tags of row i after normalizing them.
func (b *Batch) UpdateTags(i int, tags []string) error {
	ok, err := b.check(i)
	if !ok {
		return err
	}
	normalized, err := core.NormalizeTags(tags)
	if err != nil {
		return err
	}
	b.txns[i].Tags = normalized
	return nil
}

// SelectedTotal sums the amounts of the selected rows.
func (b *Batch) SelectedTotal() core.Money {
	var total core.Money
	for i, t := range b.txns {
		if b.selected[i] {
			total = total.Add(t.Amount)
		}
	}
	return total
}

func (b *Batch) SelectedCount() int {
	n := 0
	for _, s := range b.selected {
		if s {
			n++
		}
	}
	return n
}

// Selected returns copies of the selected rows in arrival order.
func (b *Batch) Selected() []core.ImportTransaction {
	out := make([]core.ImportTransaction, 0, len(b.txns))
	for i, t := range b.txns {
		if b.selected[i] {
			t.Tags = append([]string(nil), t.Tags...)
			out = append(out, t)
		}
	}
	return out
}

// Transactions returns a copy of every row.
func (b *Batch) Transactions() []core.ImportTransaction {
	out := make([]core.ImportTransaction, len(b.txns))
	for i, t := range b.txns {
		t.Tags = append([]string(nil), t.Tags...)
		out[i] = t
	}
	return out
}

func (b *Batch) Summary() Summary {
	s := Summary{Total: len(b.txns), Selected: b.SelectedCount()}
	for _, t := range b.txns {
		switch t.Type {
		case core.Debit:
			s.Debits++
		case core.Credit:
			s.Credits++
		}
	}
	return s
}

// Categories offers the user's categories followed by any other category
// already assigned to a row. Nothing here is written back to settings.
func (b *Batch) Categories() []string {
	seen := make(map[string]struct{}, len(b.userCategories)+len(b.txns))
	out := make([]string, 0, len(b.userCategories))
	add := func(c string) {
		if c == "" {
			return
		}
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	for _, c := range b.userCategories {
		add(c)
	}
	for _, t := range b.txns {
		add(t.Category)
	}
	return out
}
