package statement

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/iamdivyeshtailor/finance-management/internal/core"
)

const datePart = `(\d{1,2}[ \-/][A-Za-z]{3}[ \-/]\d{2,4}|\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4})`

var (
	// date [value date] description debit|- credit|- balance
	threeAmountLine = regexp.MustCompile(`^` + datePart + `\s+(?:` + datePart + `\s+)?(.*?)\s+([\d,]+\.\d{2}|-)\s+([\d,]+\.\d{2}|-)\s+([\d,]+\.\d{2})(?:\s*(?i:cr|dr))?$`)
	// date [value date] description amount balance
	twoAmountLine = regexp.MustCompile(`^` + datePart + `\s+(?:` + datePart + `\s+)?(.*?)\s+([\d,]+\.\d{2})\s+([\d,]+\.\d{2})(?:\s*(?i:cr|dr))?$`)

	creditHints = []string{"BY TRANSFER", "BY CLEARING", "DEPOSIT", "SALARY", "/CR/", "CREDIT", "REFUND", "INTEREST", "REVERSAL"}
)

// ParsePDF extracts the text rows of a PDF statement and parses them with
// ParseStatementLines. Scanned statements without a text layer yield no rows.
func ParsePDF(data []byte) (txns []core.ImportTransaction, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read statement pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open statement pdf: %w", err)
	}

	var lines []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("read page %d: %w", i, err)
		}
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, text := range row.Content {
				words = append(words, text.S)
			}
			lines = append(lines, strings.Join(words, " "))
		}
	}
	return ParseStatementLines(lines), nil
}

// ParseStatementLines picks transaction lines out of statement text. The
// direction of a row comes from the running balance when the previous balance
// is known, from the debit/credit column when both are present, and from
// description keywords otherwise.
func ParseStatementLines(lines []string) []core.ImportTransaction {
	var (
		out         []core.ImportTransaction
		prevBalance int64
		haveBalance bool
	)
	for _, raw := range lines {
		line := strings.Join(strings.Fields(raw), " ")
		if line == "" {
			continue
		}

		var (
			dateStr, desc string
			amount        int64
			typ           core.TxnType
			balance       int64
		)
		if m := threeAmountLine.FindStringSubmatch(line); m != nil {
			debit, _ := optionalAmount(m[4])
			credit, _ := optionalAmount(m[5])
			balance, _ = optionalAmount(m[6])
			dateStr, desc = m[1], m[3]
			switch {
			case debit > 0:
				amount, typ = debit, core.Debit
			case credit > 0:
				amount, typ = credit, core.Credit
			default:
				continue
			}
		} else if m := twoAmountLine.FindStringSubmatch(line); m != nil {
			amount, _ = optionalAmount(m[4])
			balance, _ = optionalAmount(m[5])
			dateStr, desc = m[1], m[3]
			switch {
			case haveBalance && balance > prevBalance:
				typ = core.Credit
			case haveBalance && balance < prevBalance:
				typ = core.Debit
			default:
				typ = guessType(desc)
			}
		} else {
			continue
		}

		date, err := parseDate(dateStr)
		if err != nil || amount == 0 {
			continue
		}
		prevBalance, haveBalance = balance, true
		out = append(out, core.ImportTransaction{
			Date:        date,
			Description: cleanDescription(desc),
			Amount:      core.Money{Cents: amount},
			Type:        typ,
		})
	}
	return out
}

func guessType(desc string) core.TxnType {
	upper := strings.ToUpper(desc)
	for _, hint := range creditHints {
		if strings.Contains(upper, hint) {
			return core.Credit
		}
	}
	return core.Debit
}
