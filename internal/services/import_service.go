package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iamdivyeshtailor/finance-management/internal/cache"
	"github.com/iamdivyeshtailor/finance-management/internal/core"
	"github.com/iamdivyeshtailor/finance-management/internal/importer"
	"github.com/iamdivyeshtailor/finance-management/internal/ports"
	"github.com/iamdivyeshtailor/finance-management/internal/statement"
)

const (
	DefaultBatchTTL   = 30 * time.Minute
	defaultMaxBatches = 64
)

// importSession is one uploaded statement under review. mu serializes edits
// because a Batch is not safe for concurrent use.
type importSession struct {
	mu       sync.Mutex
	id       string
	filename string
	parsed   statement.Summary
	batch    *importer.Batch
}

// RowView is a statement row as shown in the review table.
type RowView struct {
	Index int `json:"index"`
	core.ImportTransaction
	Selected bool `json:"selected"`
}

// BatchView is the review state of an import batch. Transactions lists only
// the rows visible under the active filter.
type BatchView struct {
	ID            string            `json:"id"`
	Filename      string            `json:"filename"`
	Filter        importer.Filter   `json:"filter"`
	Transactions  []RowView         `json:"transactions"`
	Summary       importer.Summary  `json:"summary"`
	Parsed        statement.Summary `json:"parsed"`
	SelectedTotal core.Money        `json:"selectedTotal"`
	Categories    []string          `json:"availableCategories"`
}

type ImportOption func(*ImportService)

// WithBatchTTL sets how long an untouched batch is kept.
func WithBatchTTL(ttl time.Duration) ImportOption {
	return func(s *ImportService) { s.ttl = ttl }
}

// WithStrictBatches makes out-of-range row indexes an error.
func WithStrictBatches() ImportOption {
	return func(s *ImportService) { s.batchOpts = append(s.batchOpts, importer.WithStrictIndexes()) }
}

// ImportService runs the statement import workflow: parse, review, commit.
type ImportService struct {
	parser    ports.StatementParser
	settings  ports.SettingsProvider
	committer *importer.Committer
	ttl       time.Duration
	batchOpts []importer.Option
	sessions  *cache.LRUCache[*importSession]
}

func NewImportService(parser ports.StatementParser, settings ports.SettingsProvider, sink importer.Sink, opts ...ImportOption) *ImportService {
	s := &ImportService{
		parser:    parser,
		settings:  settings,
		committer: importer.NewCommitter(sink),
		ttl:       DefaultBatchTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sessions = cache.NewLRUCache[*importSession](defaultMaxBatches, s.ttl, cache.WithSlidingTTL())
	return s
}

// Sessions exposes the batch cache so a cache.Manager can expire it.
func (s *ImportService) Sessions() cache.Cleaner {
	return s.sessions
}

// Parse reads a statement and opens a review batch with every row selected.
func (s *ImportService) Parse(ctx context.Context, data []byte, filename string) (BatchView, error) {
	st, err := s.settings.GetSettings(ctx)
	if err != nil {
		return BatchView{}, core.Upstream("get settings", err)
	}

	res, err := s.parser.Parse(ctx, data, filename)
	if err != nil {
		return BatchView{}, core.Upstream("parse statement", err)
	}

	userCategories := append(st.CategoryNames(), res.AvailableCategories...)
	sess := &importSession{
		id:       uuid.NewString(),
		filename: filename,
		parsed:   res.Summary,
		batch:    importer.New(res.Transactions, userCategories, s.batchOpts...),
	}
	s.sessions.Set(sess.id, sess)

	slog.InfoContext(ctx, "Statement parsed",
		"batch_id", sess.id,
		"filename", filename,
		"transactions", res.Summary.Total,
		"debits", res.Summary.Debits,
		"credits", res.Summary.Credits)

	return sess.view(), nil
}

// View returns core.ErrNotFound for unknown or expired batches.
func (s *ImportService) View(id string) (BatchView, error) {
	return s.mutate(id, func(*importer.Batch) error { return nil })
}

func (s *ImportService) Toggle(id string, index int) (BatchView, error) {
	return s.mutate(id, func(b *importer.Batch) error { return b.Toggle(index) })
}

func (s *ImportService) SetFilter(id string, f importer.Filter) (BatchView, error) {
	return s.mutate(id, func(b *importer.Batch) error { return b.SetFilter(f) })
}

func (s *ImportService) SelectAll(id string) (BatchView, error) {
	return s.mutate(id, func(b *importer.Batch) error {
		b.SelectAllVisible()
		return nil
	})
}

func (s *ImportService) DeselectAll(id string) (BatchView, error) {
	return s.mutate(id, func(b *importer.Batch) error {
		b.DeselectAllVisible()
		return nil
	})
}

func (s *ImportService) UpdateCategory(id string, index int, category string) (BatchView, error) {
	return s.mutate(id, func(b *importer.Batch) error { return b.UpdateCategory(index, category) })
}

func (s *ImportService) UpdateTags(id string, index int, tags []string) (BatchView, error) {
	return s.mutate(id, func(b *importer.Batch) error { return b.UpdateTags(index, tags) })
}

func (s *ImportService) mutate(id string, fn func(*importer.Batch) error) (BatchView, error) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return BatchView{}, fmt.Errorf("import batch %s: %w", id, core.ErrNotFound)
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := fn(sess.batch); err != nil {
		return BatchView{}, err
	}
	return sess.viewLocked(), nil
}

// Commit saves the selected rows of a batch. The batch is closed on success
// and kept for another attempt on failure.
func (s *ImportService) Commit(ctx context.Context, id string) (core.BulkResult, error) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return core.BulkResult{}, fmt.Errorf("import batch %s: %w", id, core.ErrNotFound)
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	res, err := s.committer.Commit(ctx, sess.batch)
	if err != nil {
		return core.BulkResult{}, err
	}
	s.sessions.Delete(id)

	slog.InfoContext(ctx, "Import batch committed", "batch_id", id, "count", res.Count)
	return res, nil
}

// Save commits rows the client reviewed on its own. All of them are saved.
func (s *ImportService) Save(ctx context.Context, txns []core.ImportTransaction) (core.BulkResult, error) {
	res, err := s.committer.CommitTransactions(ctx, txns)
	if err != nil {
		return core.BulkResult{}, err
	}
	slog.InfoContext(ctx, "Imported transactions saved", "count", res.Count)
	return res, nil
}

func (sess *importSession) view() BatchView {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.viewLocked()
}

func (sess *importSession) viewLocked() BatchView {
	b := sess.batch
	txns := b.Transactions()
	visible := b.VisibleIndices()
	rows := make([]RowView, 0, len(visible))
	for _, i := range visible {
		rows = append(rows, RowView{Index: i, ImportTransaction: txns[i], Selected: b.IsSelected(i)})
	}
	return BatchView{
		ID:            sess.id,
		Filename:      sess.filename,
		Filter:        b.Filter(),
		Transactions:  rows,
		Summary:       b.Summary(),
		Parsed:        sess.parsed,
		SelectedTotal: b.SelectedTotal(),
		Categories:    b.Categories(),
	}
}
