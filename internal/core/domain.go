package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	CategoryFixed    CategoryKind = "fixed"
	CategoryVariable CategoryKind = "variable"

	Debit  TxnType = "debit"
	Credit TxnType = "credit"

	// Uncategorized is the category assigned to imported rows nobody has reviewed yet.
	Uncategorized = "Uncategorized"

	MaxDescriptionLen = 200
	MaxTags           = 10
	MaxTagLen         = 30

	dateLayout = "2006-01-02"
)

type (
	CategoryKind string

	TxnType string

	// Date is a calendar day. The time part is always midnight UTC.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	FixedDeduction struct {
		Name          string `json:"name"`
		Amount        Money  `json:"amount"`
		DeductionDate int    `json:"deductionDate"`
	}

	Category struct {
		Name         string       `json:"name"`
		MonthlyLimit Money        `json:"monthlyLimit"`
		Kind         CategoryKind `json:"type"`
	}

	Settings struct {
		Salary           Money            `json:"salary"`
		SalaryCreditDate int              `json:"salaryCreditDate"`
		FixedDeductions  []FixedDeduction `json:"fixedDeductions"`
		Categories       []Category       `json:"categories"`
	}

	// ExpenseInput is the user-editable part of an expense.
	ExpenseInput struct {
		Date        Date     `json:"date"`
		Category    string   `json:"category"`
		Amount      Money    `json:"amount"`
		Description string   `json:"description"`
		Tags        []string `json:"tags"`
	}

	Expense struct {
		ID string `json:"id"`
		ExpenseInput
		// Version starts at 1 and grows with every update.
		Version   int64     `json:"version"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	// ImportTransaction is one row of a parsed bank statement.
	ImportTransaction struct {
		Date        Date     `json:"date"`
		Description string   `json:"description"`
		Amount      Money    `json:"amount"`
		Type        TxnType  `json:"type"`
		Category    string   `json:"category"`
		Tags        []string `json:"tags"`
	}

	// BulkResult is what a persistence sink reports after a bulk write.
	BulkResult struct {
		Count   int    `json:"count"`
		Message string `json:"message"`
	}
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a date string in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// DaysUntil returns the whole number of days from d to other (negative if other is earlier).
func (d Date) DaysUntil(other Date) int {
	return int(other.Time.Sub(d.Time).Hours() / 24)
}

func (d Date) Before(other Date) bool { return d.Time.Before(other.Time) }

func (d Date) After(other Date) bool { return d.Time.After(other.Time) }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	// Accept full RFC 3339 timestamps as sent by browsers.
	if len(s) > len(dateLayout) {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("invalid date %q", s)
		}
		*d = DateOf(t)
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("invalid date %q", s)
	}
	*d = parsed
	return nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return &ValidationError{Field: "date", Message: "Date is required."}
	}
	return nil
}

// Validate applies the expense form rules and normalizes nothing.
func (in ExpenseInput) Validate() error {
	if err := in.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(in.Category) == "" {
		return &ValidationError{Field: "category", Message: "Category is required."}
	}
	if in.Amount.Cents <= 0 {
		return &ValidationError{Field: "amount", Message: "Amount must be greater than 0."}
	}
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return &ValidationError{Field: "description", Message: "Description is required."}
	}
	if utf8.RuneCountInString(desc) > MaxDescriptionLen {
		return &ValidationError{Field: "description", Message: fmt.Sprintf("Description must be %d characters or less.", MaxDescriptionLen)}
	}
	if _, err := NormalizeTags(in.Tags); err != nil {
		return err
	}
	return nil
}

// Normalize trims free text and canonicalizes tags. Call Validate first.
func (in ExpenseInput) Normalize() ExpenseInput {
	out := in
	out.Category = strings.TrimSpace(in.Category)
	out.Description = strings.TrimSpace(in.Description)
	tags, err := NormalizeTags(in.Tags)
	if err == nil {
		out.Tags = tags
	}
	return out
}

// InCycle reports whether the expense date lies in [start, end].
func (e Expense) InCycle(start, end Date) bool {
	return !e.Date.Before(start) && !e.Date.After(end)
}

func (t TxnType) IsValid() bool {
	return t == Debit || t == Credit
}

// ToExpenseInput maps a statement row onto an expense, keeping the bank description.
func (t ImportTransaction) ToExpenseInput() ExpenseInput {
	category := t.Category
	if strings.TrimSpace(category) == "" {
		category = Uncategorized
	}
	return ExpenseInput{
		Date:        t.Date,
		Category:    category,
		Amount:      t.Amount,
		Description: t.Description,
		Tags:        append([]string(nil), t.Tags...),
	}
}
