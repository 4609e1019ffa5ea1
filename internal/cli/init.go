// Package cli holds the bootstrap steps shared by cmd/budget,
// cmd/budget-worker and cmd/budgetctl.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/iamdivyeshtailor/finance-management/internal/backend"
	"github.com/iamdivyeshtailor/finance-management/internal/config"
	"github.com/iamdivyeshtailor/finance-management/internal/log"
)

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger at level and makes it the slog default.
func SetupLogger(level, component string) *log.Logger {
	logger := log.New(log.Config{Level: log.ParseLevel(level), Component: component, Output: os.Stdout})
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig exits the process on an invalid configuration.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// Bootstrap runs the common startup sequence: .env, config, logger.
func Bootstrap(component string) (*config.Config, *log.Logger) {
	LoadEnvFile()
	logger := SetupLogger(os.Getenv("LOG_LEVEL"), component)
	return LoadAndValidateConfig(logger), logger
}

// OpenBackend exits the process when the configured backend cannot be opened.
func OpenBackend(ctx context.Context, logger *log.Logger, cfg *config.Config) (*backend.Backend, backend.Config) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	b, err := backend.NewFactory(logger.Logger).Open(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to open backend", log.FieldError, err, "backend", bcfg.Type)
		os.Exit(1)
	}
	return b, bcfg
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM and a
// channel closed once cleanup has run or timeout has passed.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup(shutdownCtx)
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		}
	}()

	return ctx, done
}

// WaitForShutdown blocks until shutdown has finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}

