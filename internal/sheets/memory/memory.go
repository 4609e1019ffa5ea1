// Package memory is a Sheets stand-in that keeps rows in process, used when
// no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/iamdivyeshtailor/finance-management/internal/core"
	"github.com/iamdivyeshtailor/finance-management/internal/export"
)

type Store struct {
	mu      sync.Mutex
	items   []core.Expense
	reports map[string][][]string
}

func New() *Store {
	return &Store{reports: map[string][][]string{}}
}

// Append stores the expense and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e.Tags = append([]string(nil), e.Tags...)
	s.items = append(s.items, e)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

func (s *Store) WriteReport(_ context.Context, r core.Report) (string, error) {
	key := reportKey(r.Month, r.Year)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[key] = export.ReportTable(r)
	return "mem:" + key, nil
}

// Rows returns the appended expenses in append order.
func (s *Store) Rows() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.items...)
}

func (s *Store) Report(month, year int) ([][]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.reports[reportKey(month, year)]
	return t, ok
}

func reportKey(month, year int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}
