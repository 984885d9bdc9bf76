package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/amirasaad/smartledger/pkg/money"
	"github.com/google/uuid"
)

var (
	// ErrUnbalancedJournal is returned when debits and credits of a transaction differ.
	ErrUnbalancedJournal = errors.New("journal is not balanced")
	// ErrEmptyJournal is returned when a journal has no lines.
	ErrEmptyJournal = errors.New("journal has no lines")
	// ErrInvalidLine is returned for non-positive or foreign-currency lines.
	ErrInvalidLine = errors.New("invalid journal line")
)

// EntryType is the side of a ledger line.
type EntryType string

const (
	Debit  EntryType = "debit"
	Credit EntryType = "credit"
)

// Entry is one immutable ledger line.
type Entry struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	AccountID     uuid.UUID
	Type          EntryType
	Amount        money.Money
	Description   string
	CreatedAt     time.Time
}

// Signed returns the amount with credits positive and debits negative,
// matching balance = credits - debits.
func (e Entry) Signed() (money.Money, error) {
	if e.Type == Credit {
		return e.Amount, nil
	}
	return money.Zero(e.Amount.Currency()).Sub(e.Amount)
}

type line struct {
	accountID   uuid.UUID
	kind        EntryType
	amount      money.Money
	description string
}

// Journal collects the lines of one transaction and refuses to produce
// entries unless debits equal credits.
type Journal struct {
	currency money.Code
	lines    []line
	err      error
}

// NewJournal starts an empty journal in the given currency.
func NewJournal(currency money.Code) *Journal {
	return &Journal{currency: currency}
}

// Debit appends a debit line. Errors are deferred to Validate.
func (j *Journal) Debit(accountID uuid.UUID, amount money.Money, description string) *Journal {
	return j.add(accountID, Debit, amount, description)
}

// Credit appends a credit line. Errors are deferred to Validate.
func (j *Journal) Credit(accountID uuid.UUID, amount money.Money, description string) *Journal {
	return j.add(accountID, Credit, amount, description)
}

func (j *Journal) add(accountID uuid.UUID, kind EntryType, amount money.Money, description string) *Journal {
	if j.err != nil {
		return j
	}
	switch {
	case accountID == uuid.Nil:
		j.err = fmt.Errorf("%w: missing account", ErrInvalidLine)
	case amount.Currency() != j.currency:
		j.err = fmt.Errorf("%w: %w: %s line in %s journal", ErrInvalidLine, money.ErrCurrencyMismatch, amount.Currency(), j.currency)
	case !amount.IsPositive():
		j.err = fmt.Errorf("%w: amount %s must be positive", ErrInvalidLine, amount)
	default:
		j.lines = append(j.lines, line{accountID: accountID, kind: kind, amount: amount, description: description})
	}
	return j
}

// Totals sums each side.
func (j *Journal) Totals() (debits, credits money.Money) {
	debits, credits = money.Zero(j.currency), money.Zero(j.currency)
	for _, l := range j.lines {
		if l.kind == Debit {
			debits, _ = debits.Add(l.amount)
		} else {
			credits, _ = credits.Add(l.amount)
		}
	}
	return debits, credits
}

// Len returns the number of lines.
func (j *Journal) Len() int {
	return len(j.lines)
}

// Validate returns the first line error or ErrUnbalancedJournal.
func (j *Journal) Validate() error {
	if j.err != nil {
		return j.err
	}
	if len(j.lines) == 0 {
		return ErrEmptyJournal
	}
	debits, credits := j.Totals()
	if !debits.Equals(credits) {
		return fmt.Errorf("%w: debits %s, credits %s", ErrUnbalancedJournal, debits, credits)
	}
	return nil
}

// Entries validates the journal and materializes its lines for transactionID.
func (j *Journal) Entries(transactionID uuid.UUID, now time.Time) ([]Entry, error) {
	if err := j.Validate(); err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(j.lines))
	for _, l := range j.lines {
		entries = append(entries, Entry{
			ID:            uuid.New(),
			TransactionID: transactionID,
			AccountID:     l.accountID,
			Type:          l.kind,
			Amount:        l.amount,
			Description:   l.description,
			CreatedAt:     now,
		})
	}
	return entries, nil
}
