package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/iamdivyeshtailor/finance-management/internal/backend"
	"github.com/iamdivyeshtailor/finance-management/internal/budget"
	"github.com/iamdivyeshtailor/finance-management/internal/cli"
	apphttp "github.com/iamdivyeshtailor/finance-management/internal/http"
	"github.com/iamdivyeshtailor/finance-management/internal/log"
	"github.com/iamdivyeshtailor/finance-management/internal/services"
	"github.com/iamdivyeshtailor/finance-management/internal/statement"
	"github.com/iamdivyeshtailor/finance-management/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentApp)
	logger.Info("Starting budget server", log.FieldOperation, log.OpStartup)

	b, bcfg := cli.OpenBackend(context.Background(), logger, cfg)
	defer func() {
		if err := b.Close(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
	}()

	sheetsClient, err := backend.OpenSheets(context.Background(), bcfg)
	if err != nil {
		logger.Error("Google Sheets unavailable, continuing without it", log.FieldError, err)
		sheetsClient = nil
	}

	history := budget.NewHistory(b.Store, b.Store, b.Store)
	expenses := services.NewExpenseService(b.Store, b.Publisher)
	parser := statement.NewParser(
		statement.WithMaxBytes(cfg.ImportMaxBytes),
		statement.WithLogger(logger.Logger.With(log.FieldComponent, log.ComponentImport)),
	)

	deps := apphttp.Deps{
		Expenses: expenses,
		Budget:   services.NewBudgetService(b.Store, history),
		Imports:  services.NewImportService(parser, b.Store, expenses, services.WithBatchTTL(cfg.ImportBatchTTL)),
		Ready:    b.Ping,
	}
	if sheetsClient != nil {
		deps.ReportSheet = sheetsClient
	}

	// Without a broker the server mirrors pending expenses itself.
	var processor *services.SyncProcessor
	if sheetsClient != nil && b.Sync != nil && b.AMQP() == nil {
		w := worker.NewSyncWorker(b.Sync, sheetsClient, cfg.SyncBatchSize)
		processor = services.NewSyncProcessor(w, services.SyncProcessorConfig{PollInterval: cfg.SyncInterval})
		if err := processor.Start(context.Background()); err != nil {
			logger.Error("Failed to start sync processor", log.FieldError, err)
		} else {
			logger.Info("In-process sheet sync enabled", "interval", cfg.SyncInterval.String())
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, deps,
		apphttp.WithLogger(logger.WithComponent(log.ComponentHTTP)),
		apphttp.WithMaxUploadBytes(cfg.ImportMaxBytes),
		apphttp.WithCORS(cfg.CORSAllowedOrigins),
	)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if processor != nil {
			if err := processor.Stop(ctx); err != nil {
				logger.Warn("Sync processor did not stop cleanly", log.FieldError, err)
			}
		}
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Listening",
		"port", cfg.Port,
		"backend", b.Type.String(),
		"sheets_enabled", sheetsClient != nil,
		"amqp_enabled", b.AMQP() != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
