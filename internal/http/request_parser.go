package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/iamdivyeshtailor/finance-management/internal/budget"
	"github.com/iamdivyeshtailor/finance-management/internal/core"
)

// maxJSONBody bounds every JSON request body.
const maxJSONBody = 1 << 20

var errBadBody = errors.New("invalid request body")

// MonthParams holds the month and year of a query.
type MonthParams struct {
	Month int
	Year  int
}

// ParseMonthParams reads month and year from query, each defaulting to now.
// Malformed or out-of-range values are validation errors.
func ParseMonthParams(query url.Values, now time.Time) (MonthParams, error) {
	p := MonthParams{Month: int(now.Month()), Year: now.Year()}

	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return MonthParams{}, &core.ValidationError{Field: "month", Message: "Month must be a number."}
		}
		p.Month = m
	}
	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return MonthParams{}, &core.ValidationError{Field: "year", Message: "Year must be a number."}
		}
		p.Year = y
	}

	if err := budget.ValidatePeriod(p.Month, p.Year); err != nil {
		return MonthParams{}, err
	}
	return p, nil
}

// ParseDismissed reads the comma separated dismissed alert names.
func ParseDismissed(query url.Values) budget.Dismissed {
	var names []string
	for _, raw := range query["dismissed"] {
		for _, n := range strings.Split(raw, ",") {
			names = append(names, sanitizeInput(n))
		}
	}
	return budget.NewDismissed(names...)
}

// DecodeJSON reads one JSON value from r into v. Unknown fields are
// rejected. A bad amount is reported as a validation error.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, core.ErrInvalidAmount) {
			return &core.ValidationError{Field: "amount", Message: "Amount must be a valid number."}
		}
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data", errBadBody)
	}
	return nil
}

// sanitizeInput trims s and drops control characters except tab and newlines.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
