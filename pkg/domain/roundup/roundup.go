// Package roundup computes spare-change savings on outbound payments.
package roundup

import (
	"errors"
	"fmt"
	"time"

	"github.com/amirasaad/smartledger/pkg/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrInvalidRoundTo is returned when round_to is not one of the allowed steps.
var ErrInvalidRoundTo = errors.New("round_to must be 10, 50 or 100")

// AllowedSteps lists the whole-unit steps a payment can be rounded up to.
var AllowedSteps = []int64{10, 50, 100}

// Setting is a user's round-up preference.
type Setting struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	Enabled          bool
	RoundTo          int64
	SavingsAccountID uuid.UUID
	// MonthlyLimit caps the total swept per calendar month. Nil means no cap.
	MonthlyLimit *money.Money
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ValidateRoundTo checks step against AllowedSteps.
func ValidateRoundTo(step int64) error {
	for _, s := range AllowedSteps {
		if s == step {
			return nil
		}
	}
	return fmt.Errorf("%w: got %d", ErrInvalidRoundTo, step)
}

// Compute returns ceil(amount/step)*step - amount.
func Compute(amount money.Money, step int64) (money.Money, error) {
	if err := ValidateRoundTo(step); err != nil {
		return money.Money{}, err
	}
	s := decimal.NewFromInt(step)
	rounded := amount.Amount().Div(s).Ceil().Mul(s)
	return money.FromDecimal(amount.Currency(), rounded.Sub(amount.Amount()))
}

// WithinLimit reports whether sweeping amount on top of used stays within
// the monthly limit. A round-up that would overshoot is skipped whole, never
// trimmed. A nil limit allows everything.
func WithinLimit(amount money.Money, used money.Money, limit *money.Money) (bool, error) {
	if limit == nil {
		return true, nil
	}
	total, err := used.Add(amount)
	if err != nil {
		return false, err
	}
	c, err := total.Cmp(*limit)
	if err != nil {
		return false, err
	}
	return c <= 0, nil
}

// MonthStart returns midnight on the first day of t's month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
