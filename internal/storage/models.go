package storage

import "database/sql"

type Setting struct {
	SalaryCents      int64
	SalaryCreditDate int64
	UpdatedAt        string
}

type FixedDeduction struct {
	ID            int64
	Position      int64
	Name          string
	AmountCents   int64
	DeductionDate int64
}

type Category struct {
	ID                int64
	Position          int64
	Name              string
	MonthlyLimitCents int64
	Kind              string
}

type Expense struct {
	ID            string
	Date          string
	Category      string
	AmountCents   int64
	Description   string
	Tags          string
	Version       int64
	CreatedAt     string
	UpdatedAt     string
	SyncStatus    string
	SyncedVersion int64
	SyncedAt      sql.NullString
}

type ReportSnapshot struct {
	Year      int64
	Month     int64
	Payload   string
	CreatedAt string
}
