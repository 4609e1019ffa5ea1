package main

import (
	"context"
	"os"

	"github.com/iamdivyeshtailor/finance-management/internal/backend"
	"github.com/iamdivyeshtailor/finance-management/internal/budget"
	"github.com/iamdivyeshtailor/finance-management/internal/cli"
	"github.com/iamdivyeshtailor/finance-management/internal/log"
	"github.com/iamdivyeshtailor/finance-management/internal/services"
	"github.com/iamdivyeshtailor/finance-management/internal/sheets"
	"github.com/iamdivyeshtailor/finance-management/internal/statement"
)

func main() {
	root, cleanup := newRootCmd(openApp)
	err := root.Execute()
	cleanup()
	if err != nil {
		os.Exit(1)
	}
}

// openApp wires the services against the configured backend.
func openApp(ctx context.Context) (*app, error) {
	cfg, logger := cli.Bootstrap(log.ComponentCLI)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	b, err := backend.NewFactory(logger.Logger).Open(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	a := &app{
		logger:  logger,
		closers: []func() error{b.Close},
	}
	if client, err := backend.OpenSheets(ctx, bcfg); err != nil {
		logger.Warn("Google Sheets unavailable", log.FieldError, err)
	} else if client != nil {
		a.sheet = client
	}

	expenses := services.NewExpenseService(b.Store, b.Publisher)
	a.expenses = expenses
	a.budget = services.NewBudgetService(b.Store, budget.NewHistory(b.Store, b.Store, b.Store))
	a.imports = services.NewImportService(
		statement.NewParser(statement.WithMaxBytes(cfg.ImportMaxBytes)),
		b.Store, expenses)
	return a, nil
}

type app struct {
	logger   *log.Logger
	expenses *services.ExpenseService
	budget   *services.BudgetService
	imports  *services.ImportService
	// sheet is nil unless a spreadsheet is configured.
	sheet   sheets.ReportWriter
	closers []func() error
}

func (a *app) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
