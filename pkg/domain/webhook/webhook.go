// Package webhook models the inbox of raw provider notifications. Every body
// is stored before it is decoded, so a notification that cannot be posted yet
// is held for a retry instead of being lost.
package webhook

import (
	"errors"
	"fmt"
	"time"

	"github.com/amirasaad/smartledger/pkg/provider"
	"github.com/google/uuid"
)

var (
	// ErrEventNotFound is returned when no stored webhook matches an id.
	ErrEventNotFound = errors.New("webhook event not found")
	// ErrAlreadyProcessed is returned when reprocessing an event that already posted.
	ErrAlreadyProcessed = errors.New("webhook event already processed")
	// ErrEmptyPayload is returned when a notification has no body.
	ErrEmptyPayload = errors.New("webhook payload is empty")
)

// Status is where a stored notification is in its processing.
type Status string

const (
	StatusReceived  Status = "received"
	StatusProcessed Status = "processed"
	StatusFailed    Status = "failed"
)

// ParseStatus validates a status name.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusReceived, StatusProcessed, StatusFailed:
		return st, nil
	}
	return "", fmt.Errorf("invalid webhook status %q", s)
}

// Event is one stored provider notification.
type Event struct {
	ID        uuid.UUID
	Provider  provider.Provider
	EventType string
	Signature string
	Headers   map[string]any
	Payload   []byte
	// UserID pins the owning user when the caller supplied one; otherwise the
	// user is read from the decoded payload on every attempt.
	UserID        *uuid.UUID
	Status        Status
	Attempts      int
	LastError     string
	TransactionID *uuid.UUID
	ProcessedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewEvent stores payload as received.
func NewEvent(p provider.Provider, eventType string, payload []byte, now time.Time) (*Event, error) {
	if len(payload) == 0 {
		return nil, ErrEmptyPayload
	}
	if eventType == "" {
		eventType = "deposit"
	}
	return &Event{
		ID:        uuid.New(),
		Provider:  p,
		EventType: eventType,
		Headers:   map[string]any{},
		Payload:   payload,
		Status:    StatusReceived,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Processed records that the payload posted as transactionID.
func (e *Event) Processed(transactionID uuid.UUID, now time.Time) error {
	if e.Status == StatusProcessed {
		return fmt.Errorf("%w: %s", ErrAlreadyProcessed, e.ID)
	}
	id, at := transactionID, now
	e.Status = StatusProcessed
	e.Attempts++
	e.LastError = ""
	e.TransactionID = &id
	e.ProcessedAt = &at
	e.UpdatedAt = now
	return nil
}

// Failed records a processing attempt that did not post.
func (e *Event) Failed(cause error, now time.Time) error {
	if e.Status == StatusProcessed {
		return fmt.Errorf("%w: %s", ErrAlreadyProcessed, e.ID)
	}
	e.Status = StatusFailed
	e.Attempts++
	e.LastError = cause.Error()
	e.UpdatedAt = now
	return nil
}
