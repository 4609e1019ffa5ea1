// Package statement turns bank statement files into import rows.
//
// Two layouts are understood: the CSV export of an SBI savings account (and a
// plain Date/Description/Amount/Type CSV), and the text of an SBI PDF
// statement. Every parsed row gets a best-effort category from keywords in its
// description.
package statement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/iamdivyeshtailor/finance-management/internal/core"
)

// DefaultMaxBytes is the largest statement accepted for parsing.
const DefaultMaxBytes = 5 << 20

var ErrUnsupportedType = errors.New("unsupported statement type")

// Summary counts parsed rows by type.
type Summary struct {
	Total   int `json:"total"`
	Debits  int `json:"debits"`
	Credits int `json:"credits"`
}

type Result struct {
	Transactions        []core.ImportTransaction `json:"transactions"`
	AvailableCategories []string                 `json:"availableCategories"`
	Summary             Summary                  `json:"summary"`
}

// CheckFile rejects anything but CSV and PDF files up to maxBytes. It runs
// before any parser sees the content.
func CheckFile(filename string, size, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".pdf":
	default:
		return &core.ValidationError{Field: "statement", Message: "Only CSV and PDF files are supported"}
	}
	if size > maxBytes {
		return &core.ValidationError{Field: "statement", Message: fmt.Sprintf("File size must be under %dMB", maxBytes>>20)}
	}
	return nil
}

// Parser dispatches on file extension.
type Parser struct {
	maxBytes    int64
	categorizer *Categorizer
	logger      *slog.Logger
}

type Option func(*Parser)

func WithMaxBytes(n int64) Option {
	return func(p *Parser) { p.maxBytes = n }
}

func WithCategorizer(c *Categorizer) Option {
	return func(p *Parser) { p.categorizer = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) { p.logger = l }
}

func NewParser(opts ...Option) *Parser {
	p := &Parser{
		maxBytes:    DefaultMaxBytes,
		categorizer: DefaultCategorizer(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse reads a statement file. Size and type problems are validation errors;
// anything the file itself gets wrong is returned as a plain error.
func (p *Parser) Parse(ctx context.Context, data []byte, filename string) (Result, error) {
	if err := CheckFile(filename, int64(len(data)), p.maxBytes); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var (
		txns []core.ImportTransaction
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		txns, err = ParseCSV(data)
	case ".pdf":
		txns, err = ParsePDF(data)
	default:
		return Result{}, ErrUnsupportedType
	}
	if err != nil {
		p.logger.WarnContext(ctx, "Statement parse failed", "file", filename, "error", err)
		return Result{}, err
	}
	if len(txns) == 0 {
		return Result{}, &core.ValidationError{Field: "statement", Message: "No transactions found in the file"}
	}

	res := p.build(txns)
	p.logger.InfoContext(ctx, "Statement parsed",
		"file", filename,
		"total", res.Summary.Total,
		"debits", res.Summary.Debits,
		"credits", res.Summary.Credits)
	return res, nil
}

func (p *Parser) build(txns []core.ImportTransaction) Result {
	res := Result{Transactions: txns, AvailableCategories: []string{}}
	seen := map[string]struct{}{}
	for i := range txns {
		t := &res.Transactions[i]
		if t.Category == "" {
			t.Category = p.categorizer.Categorize(t.Description, t.Type)
		}
		if t.Description == "" {
			t.Description = blankDescription(t.Type)
		}
		if t.Tags == nil {
			t.Tags = []string{}
		}
		if _, ok := seen[t.Category]; !ok && t.Category != core.Uncategorized {
			seen[t.Category] = struct{}{}
			res.AvailableCategories = append(res.AvailableCategories, t.Category)
		}
		res.Summary.Total++
		if t.Type == core.Credit {
			res.Summary.Credits++
		} else {
			res.Summary.Debits++
		}
	}
	return res
}

// blankDescription stands in for a statement row without narration, since a
// stored expense needs a description.
func blankDescription(typ core.TxnType) string {
	if typ == core.Credit {
		return "Bank credit"
	}
	return "Bank debit"
}

// cleanDescription collapses whitespace and cuts to the expense description limit.
func cleanDescription(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= core.MaxDescriptionLen {
		return s
	}
	return string([]rune(s)[:core.MaxDescriptionLen])
}
