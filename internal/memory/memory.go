// Package memory is a process-local store used for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iamdivyeshtailor/finance-management/internal/core"
)

type Store struct {
	mu        sync.Mutex
	settings  core.Settings
	items     []core.Expense
	snapshots map[[2]int]core.Report
	now       func() time.Time
}

func New() *Store {
	return &Store{snapshots: map[[2]int]core.Report{}, now: time.Now}
}

// NewWithSettings seeds the store, which is handy for demos.
func NewWithSettings(s core.Settings) *Store {
	st := New()
	st.settings = s.Normalize()
	return st
}

func (s *Store) Close() error { return nil }

func (s *Store) GetSettings(_ context.Context) (core.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.Clone(), nil
}

func (s *Store) PutSettings(_ context.Context, in core.Settings) (core.Settings, error) {
	if err := in.Validate(); err != nil {
		return core.Settings{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = in.Normalize()
	return s.settings.Clone(), nil
}

// ListExpenses returns the expenses of a calendar month, newest first.
func (s *Store) ListExpenses(_ context.Context, month, year int) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Expense{}
	for _, e := range s.items {
		if e.Date.Month() == month && e.Date.Year() == year {
			out = append(out, copyExpense(e))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (s *Store) FirstExpenseDate(context.Context) (core.Date, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return core.Date{}, core.ErrNotFound
	}
	first := s.items[0].Date
	for _, e := range s.items[1:] {
		if e.Date.Before(first) {
			first = e.Date
		}
	}
	return first, nil
}

func (s *Store) GetExpense(_ context.Context, id string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.Expense{}, core.ErrNotFound
	}
	return copyExpense(s.items[i]), nil
}

func (s *Store) CreateExpense(_ context.Context, in core.ExpenseInput) (core.Expense, error) {
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.newExpense(in)
	s.items = append(s.items, e)
	return copyExpense(e), nil
}

func (s *Store) UpdateExpense(_ context.Context, id string, in core.ExpenseInput) (core.Expense, error) {
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.Expense{}, core.ErrNotFound
	}
	s.items[i].ExpenseInput = in.Normalize()
	s.items[i].Version++
	s.items[i].UpdatedAt = s.now().UTC()
	return copyExpense(s.items[i]), nil
}

func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.ErrNotFound
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return nil
}

// BulkCreate validates every input before storing any of them.
func (s *Store) BulkCreate(_ context.Context, in []core.ExpenseInput) (core.BulkResult, error) {
	for i, e := range in {
		if err := e.Validate(); err != nil {
			return core.BulkResult{}, fmt.Errorf("expense %d: %w", i+1, err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range in {
		s.items = append(s.items, s.newExpense(e))
	}
	return core.BulkResult{Count: len(in), Message: fmt.Sprintf("%d expenses imported successfully", len(in))}, nil
}

func (s *Store) GetSnapshot(_ context.Context, month, year int) (core.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.snapshots[[2]int{month, year}]
	if !ok {
		return core.Report{}, core.ErrNotFound
	}
	return copyReport(r), nil
}

// PutSnapshot keeps the first report stored for a cycle.
func (s *Store) PutSnapshot(_ context.Context, r core.Report) (core.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]int{r.Month, r.Year}
	if existing, ok := s.snapshots[key]; ok {
		return copyReport(existing), nil
	}
	s.snapshots[key] = copyReport(r)
	return copyReport(r), nil
}

func (s *Store) ListSnapshots(_ context.Context) ([]core.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Report, 0, len(s.snapshots))
	for _, r := range s.snapshots {
		out = append(out, copyReport(r))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out, nil
}

func (s *Store) indexOf(id string) int {
	for i, e := range s.items {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) newExpense(in core.ExpenseInput) core.Expense {
	now := s.now().UTC()
	return core.Expense{
		ID:           uuid.NewString(),
		ExpenseInput: in.Normalize(),
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func copyExpense(e core.Expense) core.Expense {
	e.Tags = append([]string{}, e.Tags...)
	return e
}

func copyReport(r core.Report) core.Report {
	r.FixedDeductions = append([]core.FixedDeduction{}, r.FixedDeductions...)
	r.Categories = append([]core.CategoryReport{}, r.Categories...)
	return r
}
