package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/iamdivyeshtailor/finance-management/internal/budget"
	"github.com/iamdivyeshtailor/finance-management/internal/core"
	"github.com/iamdivyeshtailor/finance-management/internal/ports"
)

// Dashboard is the current-cycle view. Only Configured is set before the
// user has saved any budget categories.
type Dashboard struct {
	Configured bool               `json:"configured"`
	Report     *core.Report       `json:"report,omitempty"`
	Stats      *budget.QuickStats `json:"stats,omitempty"`
	Alerts     []budget.Alert     `json:"alerts,omitempty"`
}

// BudgetService is the report and settings surface.
type BudgetService struct {
	settings ports.SettingsProvider
	history  *budget.History
}

func NewBudgetService(settings ports.SettingsProvider, history *budget.History) *BudgetService {
	return &BudgetService{settings: settings, history: history}
}

// Current freezes the cycle that just ended, if any, and returns the live
// report of the current cycle with its quick stats and alerts.
func (s *BudgetService) Current(ctx context.Context, dismissed budget.Dismissed) (Dashboard, error) {
	if err := s.history.CloseElapsed(ctx); err != nil {
		slog.WarnContext(ctx, "Failed to freeze previous cycle", "error", err)
	}

	r, err := s.history.Current(ctx)
	if errors.Is(err, core.ErrNotConfigured) {
		return Dashboard{Configured: false}, nil
	}
	if err != nil {
		return Dashboard{}, err
	}

	stats := budget.Stats(r, s.history.Today())
	return Dashboard{
		Configured: true,
		Report:     &r,
		Stats:      &stats,
		Alerts:     budget.Alerts(r, dismissed),
	}, nil
}

func (s *BudgetService) Monthly(ctx context.Context, month, year int) (core.Report, error) {
	return s.history.ReportFor(ctx, month, year)
}

// Trend is the spending series of every frozen cycle, oldest first.
func (s *BudgetService) Trend(ctx context.Context) ([]core.TrendPoint, error) {
	return s.history.Trend(ctx)
}

func (s *BudgetService) Settings(ctx context.Context) (core.Settings, error) {
	st, err := s.settings.GetSettings(ctx)
	if err != nil {
		return core.Settings{}, core.Upstream("get settings", err)
	}
	return st, nil
}

// SaveSettings validates and stores the settings. Frozen reports keep the
// settings they were computed with.
func (s *BudgetService) SaveSettings(ctx context.Context, in core.Settings) (core.Settings, error) {
	if err := in.Validate(); err != nil {
		return core.Settings{}, err
	}
	saved, err := s.settings.PutSettings(ctx, in.Normalize())
	if err != nil {
		return core.Settings{}, core.Upstream("save settings", err)
	}
	slog.InfoContext(ctx, "Settings saved", "categories", len(saved.Categories))
	return saved, nil
}
