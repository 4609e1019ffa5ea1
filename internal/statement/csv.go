package statement

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/iamdivyeshtailor/finance-management/internal/core"
)

// sbiRow is one line of an SBI account statement export.
type sbiRow struct {
	TxnDate     string `csv:"Txn Date"`
	ValueDate   string `csv:"Value Date"`
	Description string `csv:"Description"`
	Reference   string `csv:"Ref No./Cheque No."`
	Debit       string `csv:"Debit"`
	Credit      string `csv:"Credit"`
	Balance     string `csv:"Balance"`
}

// simpleRow is the minimal layout: one signed or typed amount column.
type simpleRow struct {
	Date        string `csv:"Date"`
	Description string `csv:"Description"`
	Amount      string `csv:"Amount"`
	Type        string `csv:"Type"`
}

var errNoHeader = errors.New("statement header not found: expected Txn Date/Debit/Credit or Date/Description/Amount columns")

// ParseCSV reads an SBI or simple CSV statement. Banner lines above the
// header and footer lines without a date are skipped.
func ParseCSV(data []byte) ([]core.ImportTransaction, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")

	for i, line := range lines {
		header := strings.ToLower(line)
		body := strings.Join(lines[i:], "\n")
		switch {
		case strings.Contains(header, "txn date") && strings.Contains(header, "debit"):
			var rows []*sbiRow
			if err := unmarshal(body, &rows); err != nil {
				return nil, err
			}
			return convertSBI(rows)
		case strings.Contains(header, "date") && strings.Contains(header, "amount") && strings.Contains(header, "description"):
			var rows []*simpleRow
			if err := unmarshal(body, &rows); err != nil {
				return nil, err
			}
			return convertSimple(rows)
		}
	}
	return nil, errNoHeader
}

func unmarshal(body string, out any) error {
	r := csv.NewReader(strings.NewReader(body))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	if err := gocsv.UnmarshalCSV(&alignedReader{r: r}, out); err != nil {
		return fmt.Errorf("read statement csv: %w", err)
	}
	return nil
}

// alignedReader trims header cells and pads or cuts every later record to the
// header width, so ragged footer lines do not break unmarshalling.
type alignedReader struct {
	r     *csv.Reader
	width int
}

func (a *alignedReader) Read() ([]string, error) {
	for {
		rec, err := a.r.Read()
		if err != nil {
			return nil, err
		}
		if a.width == 0 {
			for i := range rec {
				rec[i] = strings.TrimSpace(rec[i])
			}
			a.width = len(rec)
			return rec, nil
		}
		if blank(rec) {
			continue
		}
		if len(rec) > a.width {
			rec = rec[:a.width]
		}
		for len(rec) < a.width {
			rec = append(rec, "")
		}
		return rec, nil
	}
}

func (a *alignedReader) ReadAll() ([][]string, error) {
	var out [][]string
	for {
		rec, err := a.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func convertSBI(rows []*sbiRow) ([]core.ImportTransaction, error) {
	var out []core.ImportTransaction
	for i, row := range rows {
		if strings.TrimSpace(row.TxnDate) == "" {
			continue
		}
		date, err := parseDate(row.TxnDate)
		if err != nil {
			// Footer lines such as "**This is a computer generated statement**".
			continue
		}
		debit, err := optionalAmount(row.Debit)
		if err != nil {
			return nil, fmt.Errorf("row %d: debit: %w", i+1, err)
		}
		credit, err := optionalAmount(row.Credit)
		if err != nil {
			return nil, fmt.Errorf("row %d: credit: %w", i+1, err)
		}

		txn := core.ImportTransaction{Date: date, Description: cleanDescription(row.Description)}
		switch {
		case debit > 0:
			txn.Type, txn.Amount = core.Debit, core.Money{Cents: debit}
		case credit > 0:
			txn.Type, txn.Amount = core.Credit, core.Money{Cents: credit}
		default:
			continue
		}
		out = append(out, txn)
	}
	return out, nil
}

func convertSimple(rows []*simpleRow) ([]core.ImportTransaction, error) {
	var out []core.ImportTransaction
	for i, row := range rows {
		if strings.TrimSpace(row.Date) == "" {
			continue
		}
		date, err := parseDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		cents, err := core.ParseSignedCents(row.Amount)
		if err != nil {
			return nil, fmt.Errorf("row %d: amount %q: %w", i+1, row.Amount, err)
		}
		if cents == 0 {
			continue
		}

		typ := core.TxnType(strings.ToLower(strings.TrimSpace(row.Type)))
		switch {
		case typ == "dr":
			typ = core.Debit
		case typ == "cr":
			typ = core.Credit
		case !typ.IsValid() && cents < 0:
			typ = core.Debit
		case !typ.IsValid():
			typ = core.Credit
		}
		if cents < 0 {
			cents = -cents
		}
		out = append(out, core.ImportTransaction{
			Date:        date,
			Description: cleanDescription(row.Description),
			Amount:      core.Money{Cents: cents},
			Type:        typ,
		})
	}
	return out, nil
}

// optionalAmount parses an amount cell that may be blank or a dash.
func optionalAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0, nil
	}
	cents, err := core.ParseSignedCents(s)
	if err != nil {
		return 0, err
	}
	if cents < 0 {
		cents = -cents
	}
	return cents, nil
}
