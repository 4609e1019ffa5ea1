package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/iamdivyeshtailor/finance-management/internal/cache"
	"github.com/iamdivyeshtailor/finance-management/internal/core"
	"github.com/iamdivyeshtailor/finance-management/internal/export"
	ports "github.com/iamdivyeshtailor/finance-management/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	defaultExpensesSheet = "Expenses"
	defaultReportPrefix  = "Report"
	rowCacheTTL          = 5 * time.Minute
)

var errNoService = errors.New("sheets service not initialized")

// Options configures a Client. Credentials come either inline or from a file.
type Options struct {
	SpreadsheetID   string
	ExpensesSheet   string
	ReportPrefix    string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base name without year; the expense year is prefixed per row.
	expensesBase string
	reportPrefix string
	// Next free row per sheet, so appends skip a read while the worker runs.
	nextRows *cache.LRUCache[int]
}

var (
	_ ports.ExpenseWriter = (*Client)(nil)
	_ ports.ReportWriter  = (*Client)(nil)
)

func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	creds, err := credentials(opts)
	if err != nil {
		return nil, err
	}
	svc, err := newSheetsService(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(svc, opts), nil
}

// NewFromEnv reads Options from GOOGLE_* environment variables.
func NewFromEnv(ctx context.Context) (*Client, error) {
	return New(ctx, Options{
		SpreadsheetID:   strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID")),
		ExpensesSheet:   strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME")),
		ReportPrefix:    strings.TrimSpace(os.Getenv("GOOGLE_REPORT_SHEET_PREFIX")),
		CredentialsJSON: strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")),
		CredentialsFile: strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE")),
	})
}

func newClient(svc *gsheet.Service, opts Options) *Client {
	c := &Client{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		expensesBase:  strings.TrimSpace(opts.ExpensesSheet),
		reportPrefix:  strings.TrimSpace(opts.ReportPrefix),
		nextRows:      cache.NewLRUCache[int](32, rowCacheTTL),
	}
	if c.expensesBase == "" {
		c.expensesBase = defaultExpensesSheet
	}
	if c.reportPrefix == "" {
		c.reportPrefix = defaultReportPrefix
	}
	return c
}

func credentials(opts Options) ([]byte, error) {
	file := opts.CredentialsFile
	if opts.CredentialsJSON == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	switch {
	case opts.CredentialsJSON != "":
		return []byte(opts.CredentialsJSON), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

func newSheetsService(ctx context.Context, creds []byte) (*gsheet.Service, error) {
	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(creds),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// NewHTTPClient returns a pooled client with timeouts suited to the Sheets API.
func NewHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 60 * time.Second}
}

// Append writes the expense on the next free row of "<year> <sheet>".
func (c *Client) Append(ctx context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errNoService
	}

	sheet := yearPrefixedName(c.expensesBase, e.Date.Year())
	nextRow, err := c.nextRow(ctx, sheet)
	if err != nil {
		return "", err
	}

	rng := fmt.Sprintf("%s!A%d:G%d", sheet, nextRow, nextRow)
	vr := &gsheet.ValueRange{Values: [][]any{expenseRow(e)}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		c.nextRows.Delete(sheet)
		return "", fmt.Errorf("failed to update %s: %w", rng, err)
	}
	c.nextRows.Set(sheet, nextRow+1)

	return rng, nil
}

func (c *Client) nextRow(ctx context.Context, sheet string) (int, error) {
	if n, ok := c.nextRows.Get(sheet); ok {
		return n, nil
	}
	rng := fmt.Sprintf("%s!A:A", sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to get sheet dimensions for %s: %w", sheet, err)
	}
	return len(resp.Values) + 1, nil
}

// WriteReport clears the cycle's report tab, creating it if needed, and
// writes the report table into it.
func (c *Client) WriteReport(ctx context.Context, r core.Report) (string, error) {
	if c.svc == nil {
		return "", errNoService
	}
	sheet := reportSheetName(c.reportPrefix, r.Month, r.Year)
	if err := c.ensureSheet(ctx, sheet); err != nil {
		return "", err
	}

	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, sheet, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear %s: %w", sheet, err)
	}

	table := reportValues(export.ReportTable(r))
	rng := fmt.Sprintf("%s!A1:E%d", sheet, len(table))
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: table}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to update %s: %w", rng, err)
	}

	slog.InfoContext(ctx, "Report exported to Google Sheets", "sheet", sheet, "rows", len(table))
	return rng, nil
}

func (c *Client) ensureSheet(ctx context.Context, title string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == title {
			return nil
		}
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", title, err)
	}
	return nil
}

// expenseRow is ID, Version, Date, Category, Description, Amount, Tags.
func expenseRow(e core.Expense) []any {
	amount, _ := e.Amount.Decimal().Float64()
	return []any{
		e.ID,
		e.Version,
		e.Date.String(),
		e.Category,
		e.Description,
		amount,
		strings.Join(e.Tags, "; "),
	}
}

// reportValues converts a text table, turning amount cells into numbers so
// the sheet can sum them.
func reportValues(table [][]string) [][]any {
	out := make([][]any, len(table))
	for i, row := range table {
		vals := make([]any, len(row))
		for j, cell := range row {
			vals[j] = cell
			if i == 0 || j == 0 {
				continue
			}
			if f, err := strconv.ParseFloat(cell, 64); err == nil {
				vals[j] = f
			}
		}
		out[i] = vals
	}
	return out
}

func reportSheetName(prefix string, month, year int) string {
	return fmt.Sprintf("%s %04d-%02d", prefix, year, month)
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
