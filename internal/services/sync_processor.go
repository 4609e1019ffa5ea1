package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// PendingSyncer drains expenses that still need to reach the spreadsheet.
type PendingSyncer interface {
	ProcessPendingExpenses(ctx context.Context) (int, error)
	RetryFailed(ctx context.Context) (int64, error)
}

// SyncProcessorConfig holds configuration for the sync processor
type SyncProcessorConfig struct {
	// PollInterval is how often to check for pending expenses (default: 10s)
	PollInterval time.Duration

	// RetryInterval is how often failed syncs are put back in the queue (default: 1h)
	RetryInterval time.Duration
}

func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval:  10 * time.Second,
		RetryInterval: 1 * time.Hour,
	}
}

// SyncProcessor polls the store for pending expenses inside the API process.
// It stands in for the AMQP worker when no broker is configured.
type SyncProcessor struct {
	syncer PendingSyncer
	config SyncProcessorConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewSyncProcessor(syncer PendingSyncer, config SyncProcessorConfig) *SyncProcessor {
	def := DefaultSyncProcessorConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = def.PollInterval
	}
	if config.RetryInterval <= 0 {
		config.RetryInterval = def.RetryInterval
	}
	return &SyncProcessor{
		syncer: syncer,
		config: config,
	}
}

// Start begins the processing loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Sync processor started",
		"poll_interval", p.config.PollInterval,
		"retry_interval", p.config.RetryInterval)

	return nil
}

// Stop signals the loop and waits for the batch in flight to finish.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.running = false
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Sync processor stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}
}

func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *SyncProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	pollTicker := time.NewTicker(p.config.PollInterval)
	defer pollTicker.Stop()

	retryTicker := time.NewTicker(p.config.RetryInterval)
	defer retryTicker.Stop()

	p.processBatch(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-pollTicker.C:
			p.processBatch(ctx)
		case <-retryTicker.C:
			p.retryFailed(ctx)
		}
	}
}

func (p *SyncProcessor) processBatch(ctx context.Context) {
	n, err := p.syncer.ProcessPendingExpenses(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to process pending expenses", "error", err)
		return
	}
	if n > 0 {
		slog.DebugContext(ctx, "Processed sync batch", "count", n)
	}
}

func (p *SyncProcessor) retryFailed(ctx context.Context) {
	n, err := p.syncer.RetryFailed(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to requeue failed syncs", "error", err)
		return
	}
	if n > 0 {
		slog.InfoContext(ctx, "Requeued failed syncs", "count", n)
	}
}
