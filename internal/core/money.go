// Package core provides money parsing and handling utilities.
//
// Amounts are held as integer cents. Conversions from decimal text or JSON
// numbers go through shopspring/decimal so no float rounding leaks into sums.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a signed amount in minor units (cents).
type Money struct {
	Cents int64
}

// MaxAmountCents bounds a single amount (100 billion in major units) so
// that sums over any realistic number of transactions fit in an int64.
const MaxAmountCents int64 = 10_000_000_000_000

var maxCents = decimal.NewFromInt(MaxAmountCents)

// ParseMoney converts a decimal string to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators, grouping
// separators when both appear (1,234.56 or 1.234,56) and an optional sign.
// Values are rounded half away from zero to two places.
//
// Examples:
//
//	ParseMoney("12.34")     -> 1234
//	ParseMoney("-12,34")    -> -1234
//	ParseMoney("1.005")     -> 101
//	ParseMoney("1,234.56")  -> 123456
//	ParseMoney("1.234,56")  -> 123456
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, &ParseError{Field: "amount", Value: s, Err: errEmptyValue}
	}
	d, err := decimal.NewFromString(normalizeSeparators(s))
	if err != nil {
		return Money{}, &ParseError{Field: "amount", Value: s, Err: err}
	}
	return MoneyFromDecimal(d)
}

// normalizeSeparators rewrites s to use a single dot as decimal separator.
// When both separators appear, the last one is the decimal separator and the
// other is grouping.
func normalizeSeparators(s string) string {
	comma, dot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0 && comma < dot:
		return strings.ReplaceAll(s, ",", "")
	case comma >= 0 && dot >= 0:
		return strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), ",", ".")
	default:
		return strings.ReplaceAll(s, ",", ".")
	}
}

// MoneyFromDecimal rounds d to cents. Amounts above MaxAmountCents in
// magnitude are rejected.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	cents := d.Round(2).Shift(2)
	if cents.Abs().GreaterThan(maxCents) {
		return Money{}, &ParseError{Field: "amount", Value: d.String(), Err: errOverflow}
	}
	return Money{Cents: cents.IntPart()}, nil
}

// MoneyFromFloat converts a float amount such as 12.34 to cents using
// decimal rounding rather than float multiplication.
func MoneyFromFloat(f float64) Money {
	return Money{Cents: decimal.NewFromFloat(f).Round(2).Shift(2).IntPart()}
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Units returns the amount as a float64 for display purposes.
// Note: use cents for calculations.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

// Abs returns the magnitude of m.
func (m Money) Abs() Money {
	if m.Cents < 0 {
		return Money{Cents: -m.Cents}
	}
	return m
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

func (m Money) IsZero() bool { return m.Cents == 0 }

// InRange reports whether |m| is within MaxAmountCents.
func (m Money) InRange() bool {
	return m.Cents >= -MaxAmountCents && m.Cents <= MaxAmountCents
}

// String renders the amount with two decimals, e.g. "-12.34".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON encodes the amount as a JSON number in major units.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*m = Money{}
		return nil
	}
	s = strings.Trim(s, `"`)
	parsed, err := ParseMoney(s)
	if err != nil {
		return fmt.Errorf("decode amount: %w", err)
	}
	*m = parsed
	return nil
}
