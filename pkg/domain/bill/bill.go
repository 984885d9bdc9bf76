// Package bill models recurring user bills, their payment attempts and the
// due-date arithmetic that schedules them.
package bill

import (
	"errors"
	"fmt"
	"time"

	"github.com/amirasaad/smartledger/pkg/money"
	"github.com/google/uuid"
)

var (
	// ErrInsufficientFunds is returned when bills and main together cannot cover a bill.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrBillNotFound is returned when a bill cannot be found.
	ErrBillNotFound = errors.New("bill not found")
	// ErrBillInactive is returned when paying a bill that has been deactivated.
	ErrBillInactive = errors.New("bill is inactive")
	// ErrPaymentInProgress is returned when a bill already has a pending payment.
	ErrPaymentInProgress = errors.New("bill payment already in progress")
	// ErrInvalidFrequency is returned for an unknown frequency.
	ErrInvalidFrequency = errors.New("invalid bill frequency")
	// ErrInvalidDueDay is returned when due_day is out of range for the frequency.
	ErrInvalidDueDay = errors.New("invalid bill due day")
	// ErrInvalidPaymentTransition is returned when leaving a terminal payment status.
	ErrInvalidPaymentTransition = errors.New("invalid bill payment transition")
)

// Frequency is how often a bill recurs.
type Frequency string

const (
	Weekly    Frequency = "weekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

// ParseFrequency validates a frequency name.
func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(s); f {
	case Weekly, Monthly, Quarterly, Yearly:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
}

// ValidateDueDay checks due_day against the frequency:
// weekly uses 1 (Monday) to 7 (Sunday), the others a day of month 1..31.
func ValidateDueDay(f Frequency, day int) error {
	upper := 31
	if f == Weekly {
		upper = 7
	}
	if day < 1 || day > upper {
		return fmt.Errorf("%w: %d for %s", ErrInvalidDueDay, day, f)
	}
	return nil
}

// Bill is a recurring obligation paid out of the bills and main buckets.
type Bill struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Name          string
	Category      string
	Amount        money.Money
	Frequency     Frequency
	DueDay        int
	MerchantCode  string
	AccountNumber string
	AutoPay       bool
	Active        bool
	NextDueDate   time.Time
	LastPaidAt    *time.Time
	Meta          map[string]any
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsDue reports whether an active auto-pay bill should be paid at now.
func (b *Bill) IsDue(now time.Time) bool {
	return b.Active && b.AutoPay && !b.NextDueDate.After(now)
}

// MarkPaid records a completed payment and schedules the next due date.
func (b *Bill) MarkPaid(now time.Time) error {
	next, err := NextDueDate(b.Frequency, b.DueDay, now)
	if err != nil {
		return err
	}
	paid := now
	b.LastPaidAt = &paid
	b.NextDueDate = next
	b.UpdatedAt = now
	return nil
}

// PaymentStatus is the state of one bill payment attempt.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Payment is one attempt to settle a bill. It maps 1:1 to a ledger transaction.
type Payment struct {
	ID            uuid.UUID
	BillID        uuid.UUID
	TransactionID uuid.UUID
	Amount        money.Money
	Status        PaymentStatus
	DueDate       time.Time
	PaidAt        *time.Time
	FailureReason string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewPayment opens a pending payment for b backed by transactionID.
func NewPayment(b *Bill, transactionID uuid.UUID, now time.Time) *Payment {
	return &Payment{
		ID:            uuid.New(),
		BillID:        b.ID,
		TransactionID: transactionID,
		Amount:        b.Amount,
		Status:        PaymentPending,
		DueDate:       b.NextDueDate,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Complete marks a pending payment as paid at now.
func (p *Payment) Complete(now time.Time) error {
	if p.Status != PaymentPending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidPaymentTransition, p.Status, PaymentCompleted)
	}
	paid := now
	p.Status = PaymentCompleted
	p.PaidAt = &paid
	p.UpdatedAt = now
	return nil
}

// Fail marks a pending payment as failed with a reason.
func (p *Payment) Fail(reason string, now time.Time) error {
	if p.Status != PaymentPending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidPaymentTransition, p.Status, PaymentFailed)
	}
	p.Status = PaymentFailed
	p.FailureReason = reason
	p.UpdatedAt = now
	return nil
}
