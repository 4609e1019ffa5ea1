package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/iamdivyeshtailor/finance-management/internal/backend"
	"github.com/iamdivyeshtailor/finance-management/internal/cli"
	"github.com/iamdivyeshtailor/finance-management/internal/log"
	"github.com/iamdivyeshtailor/finance-management/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentWorker)
	logger.Info("Starting budget-worker", log.FieldOperation, log.OpStartup)

	if cfg.DataBackend != backend.SQLiteBackend.String() {
		logger.Error("The sync worker needs the sqlite backend", "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if !cfg.AMQPEnabled() {
		logger.Error("The sync worker needs AMQP_URL")
		os.Exit(1)
	}
	if !cfg.SheetsEnabled() {
		logger.Error("The sync worker needs GOOGLE_SPREADSHEET_ID")
		os.Exit(1)
	}

	b, bcfg := cli.OpenBackend(context.Background(), logger, cfg)
	defer func() {
		if err := b.Close(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
	}()
	if b.AMQP() == nil {
		logger.Error("AMQP broker unreachable", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		os.Exit(1)
	}

	sheetsClient, err := backend.OpenSheets(context.Background(), bcfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	logger.WithComponent(log.ComponentSheets).Info("Google Sheets client initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID)

	syncWorker := worker.NewSyncWorker(b.Sync, sheetsClient, cfg.SyncBatchSize)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	// Pick up anything published while the worker was down.
	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", log.FieldError, err)
	}

	go syncWorker.Run(ctx, cfg.SyncInterval)

	go func() {
		err := b.AMQP().ConsumeExpenseSync(ctx, syncWorker.HandleSyncMessage)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.WithComponent(log.ComponentAMQP).Error("Message consumption failed", log.FieldError, err)
		}
	}()

	logger.Info("Worker running",
		"queue", cfg.AMQPQueue,
		"batch_size", cfg.SyncBatchSize,
		"sync_interval", cfg.SyncInterval.String())

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
