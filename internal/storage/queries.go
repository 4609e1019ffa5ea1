package storage

import (
	"context"
	"database/sql"
)

const expenseColumns = `id, date, category, amount_cents, description, tags, version, created_at, updated_at, sync_status, synced_version, synced_at`

func scanExpense(row interface{ Scan(...interface{}) error }) (Expense, error) {
	var i Expense
	err := row.Scan(
		&i.ID,
		&i.Date,
		&i.Category,
		&i.AmountCents,
		&i.Description,
		&i.Tags,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.SyncStatus,
		&i.SyncedVersion,
		&i.SyncedAt,
	)
	return i, err
}

func (q *Queries) queryExpenses(ctx context.Context, query string, args ...interface{}) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Expense
	for rows.Next() {
		i, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getSettings = `SELECT salary_cents, salary_credit_date, updated_at FROM settings WHERE id = 1`

func (q *Queries) GetSettings(ctx context.Context) (Setting, error) {
	row := q.db.QueryRowContext(ctx, getSettings)
	var i Setting
	err := row.Scan(&i.SalaryCents, &i.SalaryCreditDate, &i.UpdatedAt)
	return i, err
}

const upsertSettings = `
INSERT INTO settings (id, salary_cents, salary_credit_date, updated_at)
VALUES (1, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    salary_cents = excluded.salary_cents,
    salary_credit_date = excluded.salary_credit_date,
    updated_at = excluded.updated_at`

type UpsertSettingsParams struct {
	SalaryCents      int64
	SalaryCreditDate int64
	UpdatedAt        string
}

func (q *Queries) UpsertSettings(ctx context.Context, arg UpsertSettingsParams) error {
	_, err := q.db.ExecContext(ctx, upsertSettings, arg.SalaryCents, arg.SalaryCreditDate, arg.UpdatedAt)
	return err
}

const listFixedDeductions = `SELECT id, position, name, amount_cents, deduction_date FROM fixed_deductions ORDER BY position`

func (q *Queries) ListFixedDeductions(ctx context.Context) ([]FixedDeduction, error) {
	rows, err := q.db.QueryContext(ctx, listFixedDeductions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []FixedDeduction
	for rows.Next() {
		var i FixedDeduction
		if err := rows.Scan(&i.ID, &i.Position, &i.Name, &i.AmountCents, &i.DeductionDate); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteFixedDeductions = `DELETE FROM fixed_deductions`

func (q *Queries) DeleteFixedDeductions(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteFixedDeductions)
	return err
}

const insertFixedDeduction = `INSERT INTO fixed_deductions (position, name, amount_cents, deduction_date) VALUES (?, ?, ?, ?)`

type InsertFixedDeductionParams struct {
	Position      int64
	Name          string
	AmountCents   int64
	DeductionDate int64
}

func (q *Queries) InsertFixedDeduction(ctx context.Context, arg InsertFixedDeductionParams) error {
	_, err := q.db.ExecContext(ctx, insertFixedDeduction, arg.Position, arg.Name, arg.AmountCents, arg.DeductionDate)
	return err
}

const listCategories = `SELECT id, position, name, monthly_limit_cents, kind FROM categories ORDER BY position`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var i Category
		if err := rows.Scan(&i.ID, &i.Position, &i.Name, &i.MonthlyLimitCents, &i.Kind); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteCategories = `DELETE FROM categories`

func (q *Queries) DeleteCategories(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteCategories)
	return err
}

const insertCategory = `INSERT INTO categories (position, name, monthly_limit_cents, kind) VALUES (?, ?, ?, ?)`

type InsertCategoryParams struct {
	Position          int64
	Name              string
	MonthlyLimitCents int64
	Kind              string
}

func (q *Queries) InsertCategory(ctx context.Context, arg InsertCategoryParams) error {
	_, err := q.db.ExecContext(ctx, insertCategory, arg.Position, arg.Name, arg.MonthlyLimitCents, arg.Kind)
	return err
}

const listExpensesBetween = `SELECT ` + expenseColumns + ` FROM expenses WHERE date >= ? AND date <= ? ORDER BY date DESC, created_at DESC`

type ListExpensesBetweenParams struct {
	From string
	To   string
}

func (q *Queries) ListExpensesBetween(ctx context.Context, arg ListExpensesBetweenParams) ([]Expense, error) {
	return q.queryExpenses(ctx, listExpensesBetween, arg.From, arg.To)
}

const firstExpenseDate = `SELECT MIN(date) FROM expenses`

// FirstExpenseDate returns an invalid NullString when the table is empty.
func (q *Queries) FirstExpenseDate(ctx context.Context) (sql.NullString, error) {
	var d sql.NullString
	err := q.db.QueryRowContext(ctx, firstExpenseDate).Scan(&d)
	return d, err
}

const getExpense = `SELECT ` + expenseColumns + ` FROM expenses WHERE id = ?`

func (q *Queries) GetExpense(ctx context.Context, id string) (Expense, error) {
	return scanExpense(q.db.QueryRowContext(ctx, getExpense, id))
}

const createExpense = `
INSERT INTO expenses (id, date, category, amount_cents, description, tags, version, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)
RETURNING ` + expenseColumns

type CreateExpenseParams struct {
	ID          string
	Date        string
	Category    string
	AmountCents int64
	Description string
	Tags        string
	CreatedAt   string
	UpdatedAt   string
}

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (Expense, error) {
	row := q.db.QueryRowContext(ctx, createExpense,
		arg.ID,
		arg.Date,
		arg.Category,
		arg.AmountCents,
		arg.Description,
		arg.Tags,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanExpense(row)
}

const updateExpense = `
UPDATE expenses
SET date = ?, category = ?, amount_cents = ?, description = ?, tags = ?,
    version = version + 1, updated_at = ?, sync_status = 'pending'
WHERE id = ?
RETURNING ` + expenseColumns

type UpdateExpenseParams struct {
	Date        string
	Category    string
	AmountCents int64
	Description string
	Tags        string
	UpdatedAt   string
	ID          string
}

func (q *Queries) UpdateExpense(ctx context.Context, arg UpdateExpenseParams) (Expense, error) {
	row := q.db.QueryRowContext(ctx, updateExpense,
		arg.Date,
		arg.Category,
		arg.AmountCents,
		arg.Description,
		arg.Tags,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanExpense(row)
}

const deleteExpense = `DELETE FROM expenses WHERE id = ?`

func (q *Queries) DeleteExpense(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteExpense, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getPendingSyncExpenses = `SELECT ` + expenseColumns + ` FROM expenses WHERE sync_status = 'pending' ORDER BY created_at LIMIT ?`

func (q *Queries) GetPendingSyncExpenses(ctx context.Context, limit int64) ([]Expense, error) {
	return q.queryExpenses(ctx, getPendingSyncExpenses, limit)
}

const markExpenseSynced = `
UPDATE expenses
SET sync_status = CASE WHEN version = ? THEN 'synced' ELSE sync_status END,
    synced_version = MAX(synced_version, ?), synced_at = ?
WHERE id = ?`

type MarkExpenseSyncedParams struct {
	Version  int64
	SyncedAt string
	ID       string
}

func (q *Queries) MarkExpenseSynced(ctx context.Context, arg MarkExpenseSyncedParams) error {
	_, err := q.db.ExecContext(ctx, markExpenseSynced, arg.Version, arg.Version, arg.SyncedAt, arg.ID)
	return err
}

const markExpenseSyncError = `UPDATE expenses SET sync_status = 'error' WHERE id = ?`

func (q *Queries) MarkExpenseSyncError(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, markExpenseSyncError, id)
	return err
}

const retrySyncErrors = `UPDATE expenses SET sync_status = 'pending' WHERE sync_status = 'error'`

func (q *Queries) RetrySyncErrors(ctx context.Context) (int64, error) {
	res, err := q.db.ExecContext(ctx, retrySyncErrors)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getSnapshot = `SELECT year, month, payload, created_at FROM report_snapshots WHERE year = ? AND month = ?`

type GetSnapshotParams struct {
	Year  int64
	Month int64
}

func (q *Queries) GetSnapshot(ctx context.Context, arg GetSnapshotParams) (ReportSnapshot, error) {
	row := q.db.QueryRowContext(ctx, getSnapshot, arg.Year, arg.Month)
	var i ReportSnapshot
	err := row.Scan(&i.Year, &i.Month, &i.Payload, &i.CreatedAt)
	return i, err
}

const insertSnapshot = `INSERT INTO report_snapshots (year, month, payload, created_at) VALUES (?, ?, ?, ?) ON CONFLICT (year, month) DO NOTHING`

type InsertSnapshotParams struct {
	Year      int64
	Month     int64
	Payload   string
	CreatedAt string
}

func (q *Queries) InsertSnapshot(ctx context.Context, arg InsertSnapshotParams) error {
	_, err := q.db.ExecContext(ctx, insertSnapshot, arg.Year, arg.Month, arg.Payload, arg.CreatedAt)
	return err
}

const listSnapshots = `SELECT year, month, payload, created_at FROM report_snapshots ORDER BY year, month`

func (q *Queries) ListSnapshots(ctx context.Context) ([]ReportSnapshot, error) {
	rows, err := q.db.QueryContext(ctx, listSnapshots)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ReportSnapshot
	for rows.Next() {
		var i ReportSnapshot
		if err := rows.Scan(&i.Year, &i.Month, &i.Payload, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
