// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer cents so report totals add up exactly. Parsing
// and formatting go through shopspring/decimal.
package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

var currencyNoise = strings.NewReplacer(",", "", "₹", "", "Rs.", "", "Rs", "", "INR", "", " ", "")

// ParseDecimalToCents converts a positive decimal string to cents.
//
// Thousands separators and a leading currency marker are ignored; the third
// decimal place is rounded half away from zero. Zero and negative values are
// rejected.
//
// Examples:
//
//	ParseDecimalToCents("12.34")    -> 1234, nil
//	ParseDecimalToCents("1,234.50") -> 123450, nil
//	ParseDecimalToCents("12.345")   -> 1235, nil
func ParseDecimalToCents(s string) (int64, error) {
	cents, err := ParseSignedCents(s)
	if err != nil {
		return 0, err
	}
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// ParseSignedCents is like ParseDecimalToCents but keeps the sign and accepts zero.
func ParseSignedCents(s string) (int64, error) {
	s = currencyNoise.Replace(strings.TrimSpace(s))
	if s == "" {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return d.Shift(2).Round(0).IntPart(), nil
}

// MoneyFromDecimal converts a decimal major-unit amount to Money.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Shift(2).Round(0).IntPart()}
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

func (m Money) IsPositive() bool { return m.Cents > 0 }

// String formats with exactly two decimals, e.g. "-300.00".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON writes the amount as a bare JSON number in major units.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*m = Money{}
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ErrInvalidAmount
	}
	*m = MoneyFromDecimal(d)
	return nil
}

// PercentOf returns round(100*part/whole) with half away from zero, using
// integer arithmetic only. whole must be positive.
func PercentOf(part, whole Money) int64 {
	if whole.Cents <= 0 {
		return 0
	}
	num := 200*part.Cents + whole.Cents
	if part.Cents < 0 {
		num = 200*part.Cents - whole.Cents
	}
	return num / (2 * whole.Cents)
}
