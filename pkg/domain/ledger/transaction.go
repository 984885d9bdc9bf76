// Package ledger models transactions and the append-only double-entry lines
// that are the only source of truth for balances.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/amirasaad/smartledger/pkg/money"
	"github.com/amirasaad/smartledger/pkg/provider"
	"github.com/google/uuid"
)

var (
	// ErrInvalidStatusTransition is returned when leaving a terminal status.
	ErrInvalidStatusTransition = errors.New("invalid transaction status transition")
	// ErrTransactionNotFound is returned when a transaction cannot be found.
	ErrTransactionNotFound = errors.New("transaction not found")
)

// Direction says whether money enters, leaves or moves within the ledger.
type Direction string

const (
	DirectionIn       Direction = "in"
	DirectionOut      Direction = "out"
	DirectionInternal Direction = "internal"
)

// Status is the lifecycle state of a Transaction.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Transaction groups the ledger entries created by one business event.
type Transaction struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Provider    provider.Provider
	Direction   Direction
	Status      Status
	Amount      money.Money
	ProviderRef *string
	Meta        map[string]any
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewTransaction returns a pending transaction.
func NewTransaction(
	userID uuid.UUID,
	p provider.Provider,
	direction Direction,
	amount money.Money,
	ref *string,
	meta map[string]any,
	now time.Time,
) *Transaction {
	if meta == nil {
		meta = map[string]any{}
	}
	return &Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		Provider:    p,
		Direction:   direction,
		Status:      StatusPending,
		Amount:      amount,
		ProviderRef: ref,
		Meta:        meta,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// MarkSucceeded moves pending to succeeded.
func (t *Transaction) MarkSucceeded(now time.Time) error {
	return t.transition(StatusSucceeded, now)
}

// MarkFailed moves pending to failed.
func (t *Transaction) MarkFailed(now time.Time) error {
	return t.transition(StatusFailed, now)
}

func (t *Transaction) transition(to Status, now time.Time) error {
	if t.Status.IsTerminal() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, t.Status, to)
	}
	t.Status = to
	t.UpdatedAt = now
	return nil
}

// Ref returns the provider reference or "".
func (t *Transaction) Ref() string {
	if t.ProviderRef == nil {
		return ""
	}
	return *t.ProviderRef
}
