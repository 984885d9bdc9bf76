// Package money provides functionality for handling monetary values.
//
// It is a value object that represents a monetary value in a specific currency.
// Invariants:
//   - Amounts are exact decimals; arithmetic never goes through float64.
//   - Currency code must be three uppercase letters.
//   - All arithmetic operations require matching currencies.
//   - Percent is the only operation that rounds (half-up, 2 places).
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Money represents a monetary value in a specific currency.
type Money struct {
	amount   decimal.Decimal
	currency Code
}

// New parses amount and returns a non-negative Money in the given currency.
func New(currency Code, amount string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	return FromDecimal(currency, d)
}

// MustNew is like New but panics on error. Intended for constants and tests.
func MustNew(currency Code, amount string) Money {
	m, err := New(currency, amount)
	if err != nil {
		panic(err)
	}
	return m
}

// FromDecimal wraps an already parsed decimal. Negative amounts are rejected.
func FromDecimal(currency Code, amount decimal.Decimal) (Money, error) {
	if !currency.IsValid() {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
	}
	if amount.IsNegative() {
		return Money{}, fmt.Errorf("%w: %s is negative", ErrInvalidAmount, amount)
	}
	return Money{amount: amount, currency: currency}, nil
}

// FromMinor builds Money from integer minor units (hundredths).
// Balances may be negative, so no sign check is applied.
func FromMinor(currency Code, minor int64) Money {
	return Money{amount: decimal.New(minor, -Scale), currency: currency}
}

// Zero returns a zero amount in the given currency.
func Zero(currency Code) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

// Amount returns the decimal amount.
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency of the Money object.
func (m Money) Currency() Code {
	return m.currency
}

// Minor returns the amount in minor units.
// Amounts carrying more than two decimal places are rejected rather than rounded.
func (m Money) Minor() (int64, error) {
	scaled := m.amount.Shift(Scale)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidAmount, m.amount, Scale)
	}
	if !scaled.IsInteger() || scaled.BigInt().BitLen() > 62 {
		return 0, fmt.Errorf("%w: %s is out of range", ErrInvalidAmount, m.amount)
	}
	return scaled.IntPart(), nil
}

// Add adds another Money object to the current Money object.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Sub subtracts other from m. The result may be negative.
func (m Money) Sub(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}, nil
}

// Percent returns m × pct / 100 rounded half-up to two decimal places.
func (m Money) Percent(pct decimal.Decimal) Money {
	portion := m.amount.Mul(pct).Div(hundred).Round(Scale)
	return Money{amount: portion, currency: m.currency}
}

// Cmp compares two amounts of the same currency.
func (m Money) Cmp(other Money) (int, error) {
	if m.currency != other.currency {
		return 0, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return m.amount.Cmp(other.amount), nil
}

// Min returns the smaller of m and other.
func (m Money) Min(other Money) (Money, error) {
	c, err := m.Cmp(other)
	if err != nil {
		return Money{}, err
	}
	if c <= 0 {
		return m, nil
	}
	return other, nil
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive reports whether the amount is greater than zero.
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// Equals reports whether both currency and amount match.
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// StringFixed renders the amount with two decimals, without the currency.
func (m Money) StringFixed() string {
	return m.amount.StringFixed(Scale)
}

// String returns a string representation of the Money object.
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.currency, m.amount.StringFixed(Scale))
}
