package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/iamdivyeshtailor/finance-management/internal/core"
	"github.com/iamdivyeshtailor/finance-management/internal/ports"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

var _ ports.Store = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time keeps bulk imports from hitting SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := MigrateSchema(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("SQLite schema ready", "path", dbPath, "schema_version", version)

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) stamp() string {
	return r.now().UTC().Format(timeLayout)
}

// GetSettings returns the zero Settings on a fresh database.
func (r *SQLiteRepository) GetSettings(ctx context.Context) (core.Settings, error) {
	row, err := r.queries.GetSettings(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Settings{}, nil
	}
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}

	deductions, err := r.queries.ListFixedDeductions(ctx)
	if err != nil {
		return core.Settings{}, fmt.Errorf("list fixed deductions: %w", err)
	}
	categories, err := r.queries.ListCategories(ctx)
	if err != nil {
		return core.Settings{}, fmt.Errorf("list categories: %w", err)
	}

	s := core.Settings{
		Salary:           core.Money{Cents: row.SalaryCents},
		SalaryCreditDate: int(row.SalaryCreditDate),
		FixedDeductions:  make([]core.FixedDeduction, len(deductions)),
		Categories:       make([]core.Category, len(categories)),
	}
	for i, d := range deductions {
		s.FixedDeductions[i] = core.FixedDeduction{Name: d.Name, Amount: core.Money{Cents: d.AmountCents}, DeductionDate: int(d.DeductionDate)}
	}
	for i, c := range categories {
		s.Categories[i] = core.Category{Name: c.Name, MonthlyLimit: core.Money{Cents: c.MonthlyLimitCents}, Kind: core.CategoryKind(c.Kind)}
	}
	return s, nil
}

// PutSettings replaces the stored settings in one transaction.
func (r *SQLiteRepository) PutSettings(ctx context.Context, s core.Settings) (core.Settings, error) {
	if err := s.Validate(); err != nil {
		return core.Settings{}, err
	}
	s = s.Normalize()

	err := r.withTx(ctx, func(q *Queries) error {
		if err := q.UpsertSettings(ctx, UpsertSettingsParams{
			SalaryCents:      s.Salary.Cents,
			SalaryCreditDate: int64(s.SalaryCreditDate),
			UpdatedAt:        r.stamp(),
		}); err != nil {
			return fmt.Errorf("upsert settings: %w", err)
		}
		if err := q.DeleteFixedDeductions(ctx); err != nil {
			return fmt.Errorf("clear fixed deductions: %w", err)
		}
		for i, d := range s.FixedDeductions {
			if err := q.InsertFixedDeduction(ctx, InsertFixedDeductionParams{
				Position:      int64(i),
				Name:          d.Name,
				AmountCents:   d.Amount.Cents,
				DeductionDate: int64(d.DeductionDate),
			}); err != nil {
				return fmt.Errorf("insert fixed deduction %q: %w", d.Name, err)
			}
		}
		if err := q.DeleteCategories(ctx); err != nil {
			return fmt.Errorf("clear categories: %w", err)
		}
		for i, c := range s.Categories {
			if err := q.InsertCategory(ctx, InsertCategoryParams{
				Position:          int64(i),
				Name:              c.Name,
				MonthlyLimitCents: c.MonthlyLimit.Cents,
				Kind:              string(c.Kind),
			}); err != nil {
				return fmt.Errorf("insert category %q: %w", c.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return core.Settings{}, err
	}

	slog.InfoContext(ctx, "Settings saved to SQLite",
		"categories", len(s.Categories),
		"fixed_deductions", len(s.FixedDeductions))
	return r.GetSettings(ctx)
}

// ListExpenses returns the expenses dated in a calendar month, newest first.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, month, year int) ([]core.Expense, error) {
	first := core.NewDate(year, month, 1)
	last := first.Time.AddDate(0, 1, -1)
	rows, err := r.queries.ListExpensesBetween(ctx, ListExpensesBetweenParams{
		From: first.String(),
		To:   core.DateOf(last).String(),
	})
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	out := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		e, err := toCoreExpense(row)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// FirstExpenseDate returns the date of the oldest stored expense.
func (r *SQLiteRepository) FirstExpenseDate(ctx context.Context) (core.Date, error) {
	d, err := r.queries.FirstExpenseDate(ctx)
	if err != nil {
		return core.Date{}, fmt.Errorf("first expense date: %w", err)
	}
	if !d.Valid {
		return core.Date{}, core.ErrNotFound
	}
	date, err := core.ParseDate(d.String)
	if err != nil {
		return core.Date{}, fmt.Errorf("first expense date: bad date %q: %w", d.String, err)
	}
	return date, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	row, err := r.queries.GetExpense(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense by id: %w", err)
	}
	return toCoreExpense(row)
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, in core.ExpenseInput) (core.Expense, error) {
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}
	e, err := r.createExpense(ctx, r.queries, in.Normalize())
	if err != nil {
		return core.Expense{}, err
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"description", e.Description,
		"amount_cents", e.Amount.Cents,
		"date", e.Date.String())
	return e, nil
}

func (r *SQLiteRepository) createExpense(ctx context.Context, q *Queries, in core.ExpenseInput) (core.Expense, error) {
	tags, err := json.Marshal(in.Tags)
	if err != nil {
		return core.Expense{}, fmt.Errorf("encode tags: %w", err)
	}
	now := r.stamp()
	row, err := q.CreateExpense(ctx, CreateExpenseParams{
		ID:          uuid.NewString(),
		Date:        in.Date.String(),
		Category:    in.Category,
		AmountCents: in.Amount.Cents,
		Description: in.Description,
		Tags:        string(tags),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	return toCoreExpense(row)
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, id string, in core.ExpenseInput) (core.Expense, error) {
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}
	in = in.Normalize()
	tags, err := json.Marshal(in.Tags)
	if err != nil {
		return core.Expense{}, fmt.Errorf("encode tags: %w", err)
	}
	row, err := r.queries.UpdateExpense(ctx, UpdateExpenseParams{
		Date:        in.Date.String(),
		Category:    in.Category,
		AmountCents: in.Amount.Cents,
		Description: in.Description,
		Tags:        string(tags),
		UpdatedAt:   r.stamp(),
		ID:          id,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	return toCoreExpense(row)
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id string) error {
	n, err := r.queries.DeleteExpense(ctx, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	slog.InfoContext(ctx, "Expense deleted from SQLite", "id", id)
	return nil
}

// BulkCreate inserts every input in one transaction.
func (r *SQLiteRepository) BulkCreate(ctx context.Context, in []core.ExpenseInput) (core.BulkResult, error) {
	for i, e := range in {
		if err := e.Validate(); err != nil {
			return core.BulkResult{}, fmt.Errorf("expense %d: %w", i+1, err)
		}
	}
	err := r.withTx(ctx, func(q *Queries) error {
		for i, e := range in {
			if _, err := r.createExpense(ctx, q, e.Normalize()); err != nil {
				return fmt.Errorf("expense %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return core.BulkResult{}, err
	}

	slog.InfoContext(ctx, "Bulk expenses saved to SQLite", "count", len(in))
	return core.BulkResult{Count: len(in), Message: fmt.Sprintf("%d expenses imported successfully", len(in))}, nil
}

// GetPendingSyncExpenses returns expenses not yet mirrored to Google Sheets.
func (r *SQLiteRepository) GetPendingSyncExpenses(ctx context.Context, limit int) ([]core.Expense, error) {
	rows, err := r.queries.GetPendingSyncExpenses(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending sync expenses: %w", err)
	}
	out := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		e, err := toCoreExpense(row)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// MarkSynced records that version of an expense reached the sheet. An
// expense edited in the meantime stays pending.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string, version int64) error {
	err := r.queries.MarkExpenseSynced(ctx, MarkExpenseSyncedParams{Version: version, SyncedAt: r.stamp(), ID: id})
	if err != nil {
		return fmt.Errorf("mark expense synced: %w", err)
	}
	slog.InfoContext(ctx, "Expense marked as synced", "id", id, "version", version)
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	if err := r.queries.MarkExpenseSyncError(ctx, id); err != nil {
		return fmt.Errorf("mark expense sync error: %w", err)
	}
	slog.WarnContext(ctx, "Expense marked with sync error", "id", id)
	return nil
}

// RetryFailedSyncs puts every errored expense back in the pending state.
func (r *SQLiteRepository) RetryFailedSyncs(ctx context.Context) (int64, error) {
	n, err := r.queries.RetrySyncErrors(ctx)
	if err != nil {
		return 0, fmt.Errorf("retry failed syncs: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) GetSnapshot(ctx context.Context, month, year int) (core.Report, error) {
	row, err := r.queries.GetSnapshot(ctx, GetSnapshotParams{Year: int64(year), Month: int64(month)})
	if errors.Is(err, sql.ErrNoRows) {
		return core.Report{}, core.ErrNotFound
	}
	if err != nil {
		return core.Report{}, fmt.Errorf("get snapshot: %w", err)
	}
	return decodeSnapshot(row)
}

// PutSnapshot inserts r unless the cycle already has a snapshot, then returns
// the stored one.
func (r *SQLiteRepository) PutSnapshot(ctx context.Context, rep core.Report) (core.Report, error) {
	payload, err := json.Marshal(rep)
	if err != nil {
		return core.Report{}, fmt.Errorf("encode snapshot: %w", err)
	}
	if err := r.queries.InsertSnapshot(ctx, InsertSnapshotParams{
		Year:      int64(rep.Year),
		Month:     int64(rep.Month),
		Payload:   string(payload),
		CreatedAt: r.stamp(),
	}); err != nil {
		return core.Report{}, fmt.Errorf("insert snapshot: %w", err)
	}
	slog.InfoContext(ctx, "Report snapshot stored", "month", rep.Month, "year", rep.Year)
	return r.GetSnapshot(ctx, rep.Month, rep.Year)
}

func (r *SQLiteRepository) ListSnapshots(ctx context.Context) ([]core.Report, error) {
	rows, err := r.queries.ListSnapshots(ctx)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	out := make([]core.Report, 0, len(rows))
	for _, row := range rows {
		rep, err := decodeSnapshot(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, nil
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func toCoreExpense(row Expense) (core.Expense, error) {
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %s: bad date %q: %w", row.ID, row.Date, err)
	}
	tags := []string{}
	if row.Tags != "" {
		if err := json.Unmarshal([]byte(row.Tags), &tags); err != nil {
			return core.Expense{}, fmt.Errorf("expense %s: bad tags: %w", row.ID, err)
		}
	}
	if tags == nil {
		tags = []string{}
	}
	created, _ := time.Parse(timeLayout, row.CreatedAt)
	updated, _ := time.Parse(timeLayout, row.UpdatedAt)
	return core.Expense{
		ID: row.ID,
		ExpenseInput: core.ExpenseInput{
			Date:        date,
			Category:    row.Category,
			Amount:      core.Money{Cents: row.AmountCents},
			Description: row.Description,
			Tags:        tags,
		},
		Version:   row.Version,
		CreatedAt: created,
		UpdatedAt: updated,
	}, nil
}

func decodeSnapshot(row ReportSnapshot) (core.Report, error) {
	var rep core.Report
	if err := json.Unmarshal([]byte(row.Payload), &rep); err != nil {
		return core.Report{}, fmt.Errorf("decode snapshot %d/%d: %w", row.Month, row.Year, err)
	}
	return rep, nil
}
