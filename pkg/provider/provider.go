// Package provider defines the closed set of payment providers and the
// normalized event every inbound provider notification is reduced to.
package provider

import (
	"errors"
	"fmt"
	"strings"

	"github.com/amirasaad/smartledger/pkg/money"
	"github.com/amirasaad/smartledger/pkg/validation"
	"github.com/google/uuid"
)

var (
	// ErrUnsupportedProvider is returned for a provider name outside the closed set
	// or one with no registered decoder.
	ErrUnsupportedProvider = errors.New("unsupported provider")
	// ErrInvalidEvent is returned when a payload cannot be normalized into an Event.
	ErrInvalidEvent = errors.New("invalid provider event")
	// ErrMissingUser is returned when an event carries no usable user_id in its meta.
	ErrMissingUser = errors.New("event has no user id")
)

// Provider names a source of ledger transactions.
type Provider string

const (
	Pesapal     Provider = "pesapal"
	Flutterwave Provider = "flutterwave"
	// System marks transactions the ledger originates itself (bill payouts, round-ups).
	System Provider = "system"
)

// All returns the closed set of known providers.
func All() []Provider {
	return []Provider{Pesapal, Flutterwave, System}
}

// Parse maps a name onto the closed provider set.
func Parse(name string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range All() {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, name)
}

func (p Provider) String() string {
	return string(p)
}

// Status is the normalized outcome reported by a provider.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Event is a normalized "payment confirmed" notification.
// Signature checks happen before an Event is built; nothing here re-verifies them.
type Event struct {
	Provider  Provider       `validate:"required,oneof=pesapal flutterwave system"`
	Status    Status         `validate:"required,oneof=pending succeeded failed"`
	Amount    money.Money    `validate:"-"`
	Reference string         `validate:"required,max=191"`
	Meta      map[string]any `validate:"-"`
}

// Validate checks the struct tags and that the amount carries a currency.
func (e Event) Validate() error {
	if err := validation.Struct(e); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	if !e.Amount.Currency().IsValid() {
		return fmt.Errorf("%w: %w", ErrInvalidEvent, money.ErrInvalidCurrency)
	}
	return nil
}

// UserID extracts the owning user from meta["user_id"].
func (e Event) UserID() (uuid.UUID, error) {
	raw, ok := e.Meta["user_id"]
	if !ok {
		return uuid.Nil, ErrMissingUser
	}
	s, ok := raw.(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: user_id is %T", ErrMissingUser, raw)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", ErrMissingUser, err)
	}
	return id, nil
}

// IdempotencyKey identifies one provider notification for one user.
func (e Event) IdempotencyKey(userID uuid.UUID) string {
	return userID.String() + "|" + string(e.Provider) + "|" + e.Reference
}
