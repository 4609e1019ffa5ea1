// Package backend opens the data store and the optional sync integrations
// selected by configuration.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/iamdivyeshtailor/finance-management/internal/amqp"
	"github.com/iamdivyeshtailor/finance-management/internal/memory"
	"github.com/iamdivyeshtailor/finance-management/internal/ports"
	gsheet "github.com/iamdivyeshtailor/finance-management/internal/sheets/google"
	"github.com/iamdivyeshtailor/finance-management/internal/storage"
	"github.com/iamdivyeshtailor/finance-management/internal/worker"
)

// Backend is everything the commands need from the data layer.
type Backend struct {
	Type  Type
	Store ports.Store
	// Sync is set only for stores that track sheet sync state.
	Sync worker.SyncStore
	// Publisher is nil when AMQP is not configured or unreachable.
	Publisher ports.ExpenseSyncPublisher

	amqp *amqp.Client
}

// Ping checks the store when it supports it.
func (b *Backend) Ping(ctx context.Context) error {
	if p, ok := b.Store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// AMQP returns the broker client, or nil.
func (b *Backend) AMQP() *amqp.Client { return b.amqp }

func (b *Backend) Close() error {
	var errs []error
	if b.amqp != nil {
		errs = append(errs, b.amqp.Close())
	}
	if b.Store != nil {
		errs = append(errs, b.Store.Close())
	}
	return errors.Join(errs...)
}

type Factory interface {
	Open(ctx context.Context, config Config) (*Backend, error)
}

type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) Open(ctx context.Context, config Config) (*Backend, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.openSQLite(config)
	default:
		f.logger.Info("Initialized memory backend")
		return &Backend{Type: MemoryBackend, Store: memory.New()}, nil
	}
}

func (f *DefaultFactory) openSQLite(config Config) (*Backend, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	b := &Backend{Type: SQLiteBackend, Store: repo, Sync: repo}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without sync messages", "error", err)
		} else {
			b.amqp = client
			b.Publisher = client
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", b.amqp != nil)
	return b, nil
}

// OpenSheets returns nil without error when no spreadsheet is configured.
func OpenSheets(ctx context.Context, config Config) (*gsheet.Client, error) {
	if config.Sheets == nil {
		return nil, nil
	}
	cli, err := gsheet.New(ctx, *config.Sheets)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	return cli, nil
}
