package repository

import (
	"context"
	"time"

	"github.com/amirasaad/smartledger/pkg/domain/account"
	"github.com/amirasaad/smartledger/pkg/domain/allocation"
	"github.com/amirasaad/smartledger/pkg/domain/bill"
	"github.com/amirasaad/smartledger/pkg/domain/ledger"
	"github.com/amirasaad/smartledger/pkg/domain/roundup"
	"github.com/amirasaad/smartledger/pkg/domain/webhook"
	"github.com/amirasaad/smartledger/pkg/provider"
	"github.com/google/uuid"
)

// AccountRepository defines the interface for account data access operations.
type AccountRepository interface {
	Create(ctx context.Context, a *account.Account) error
	Get(ctx context.Context, id uuid.UUID) (*account.Account, error)
	GetBySlug(ctx context.Context, userID uuid.UUID, slug string) (*account.Account, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*account.Account, error)
}

// RuleRepository defines data access for allocation rules.
type RuleRepository interface {
	// ListActive returns the active rules ordered by priority.
	ListActive(ctx context.Context, userID uuid.UUID) ([]allocation.Rule, error)
	// List returns every rule, active or not, ordered by priority.
	List(ctx context.Context, userID uuid.UUID) ([]allocation.Rule, error)
	DeactivateAll(ctx context.Context, userID uuid.UUID) error
	// Upsert inserts the rule or updates the existing rule for the same (user, account).
	Upsert(ctx context.Context, r *allocation.Rule) error
}

// TransactionRepository defines data access for ledger transactions.
type TransactionRepository interface {
	// Create fails with domain.ErrAlreadyExists when (user, provider, ref) is taken.
	Create(ctx context.Context, tx *ledger.Transaction) error
	Get(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error)
	GetByProviderRef(ctx context.Context, userID uuid.UUID, p provider.Provider, ref string) (*ledger.Transaction, error)
	UpdateStatus(ctx context.Context, tx *ledger.Transaction) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*ledger.Transaction, error)
	// SumSucceeded totals the minor-unit amounts of succeeded transactions whose
	// provider ref starts with refPrefix, created at or after since.
	SumSucceeded(ctx context.Context, userID uuid.UUID, p provider.Provider, refPrefix string, since time.Time) (int64, error)
}

// EntryRepository is append-only: entries are never updated or deleted.
type EntryRepository interface {
	CreateBatch(ctx context.Context, entries []ledger.Entry) error
	ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]ledger.Entry, error)
	// Balance returns credits minus debits for the account, in minor units.
	Balance(ctx context.Context, accountID uuid.UUID) (int64, error)
	// BalancesByUser returns credits minus debits per account with at least one entry.
	BalancesByUser(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int64, error)
}

// BillRepository defines data access for user bills.
type BillRepository interface {
	Create(ctx context.Context, b *bill.Bill) error
	Get(ctx context.Context, id uuid.UUID) (*bill.Bill, error)
	// GetForUpdate reads the bill holding a row lock until the transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*bill.Bill, error)
	Update(ctx context.Context, b *bill.Bill) error
	// ListDue returns active auto-pay bills due at or before now.
	ListDue(ctx context.Context, now time.Time) ([]*bill.Bill, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*bill.Bill, error)
}

// BillPaymentRepository defines data access for bill payment attempts.
type BillPaymentRepository interface {
	Create(ctx context.Context, p *bill.Payment) error
	Update(ctx context.Context, p *bill.Payment) error
	GetPendingByBill(ctx context.Context, billID uuid.UUID) (*bill.Payment, error)
	ListPending(ctx context.Context) ([]*bill.Payment, error)
}

// RoundupRepository defines data access for round-up settings.
type RoundupRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (*roundup.Setting, error)
	Upsert(ctx context.Context, s *roundup.Setting) error
}

// WebhookRepository stores raw provider notifications.
type WebhookRepository interface {
	Create(ctx context.Context, e *webhook.Event) error
	Get(ctx context.Context, id uuid.UUID) (*webhook.Event, error)
	// GetForUpdate reads the event holding a row lock until the transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*webhook.Event, error)
	// Update saves the processing state: status, attempts, error and result.
	Update(ctx context.Context, e *webhook.Event) error
	// ListByStatus returns events oldest first; limit <= 0 means all.
	ListByStatus(ctx context.Context, status webhook.Status, limit int) ([]*webhook.Event, error)
}
