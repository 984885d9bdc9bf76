package repository

import (
	"time"

	"github.com/google/uuid"
)

// Amounts are stored as int64 minor units so SQL SUM is exact on every dialect.

// Account represents an account record in the database.
type Account struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_accounts_user_slug,priority:1"`
	Name      string    `gorm:"type:varchar(100);not null"`
	Slug      string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_accounts_user_slug,priority:2"`
	Kind      string    `gorm:"type:varchar(16);not null"`
	Currency  string    `gorm:"type:varchar(3);not null;default:'KES'"`
	Archived  bool      `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Account) TableName() string { return "accounts" }

// AllocationRule represents a percentage rule. Percent is stored in basis points.
type AllocationRule struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_allocation_rules_user_account,priority:1"`
	AccountID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_allocation_rules_user_account,priority:2"`
	BasisPoints int64     `gorm:"not null"`
	Active      bool      `gorm:"not null;default:true"`
	Priority    int       `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (AllocationRule) TableName() string { return "allocation_rules" }

// Transaction represents a persisted ledger transaction.
type Transaction struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_transactions_provider_ref,priority:1"`
	Provider    string         `gorm:"type:varchar(32);not null;uniqueIndex:idx_transactions_provider_ref,priority:2"`
	ProviderRef *string        `gorm:"type:varchar(191);uniqueIndex:idx_transactions_provider_ref,priority:3"`
	Direction   string         `gorm:"type:varchar(16);not null"`
	Status      string         `gorm:"type:varchar(16);not null;default:'pending'"`
	Amount      int64          `gorm:"not null"`
	Currency    string         `gorm:"type:varchar(3);not null"`
	Meta        map[string]any `gorm:"serializer:json;type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Transaction) TableName() string { return "transactions" }

// LedgerEntry is an immutable debit or credit line.
type LedgerEntry struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	TransactionID uuid.UUID `gorm:"type:uuid;not null;index"`
	AccountID     uuid.UUID `gorm:"type:uuid;not null;index"`
	EntryType     string    `gorm:"type:varchar(8);not null"`
	Amount        int64     `gorm:"not null"`
	Description   string    `gorm:"type:varchar(255)"`
	CreatedAt     time.Time
}

func (LedgerEntry) TableName() string { return "ledger_entries" }

// UserBill represents a recurring bill.
type UserBill struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index"`
	Name          string    `gorm:"type:varchar(120);not null"`
	Category      string    `gorm:"type:varchar(60)"`
	Amount        int64     `gorm:"not null"`
	Currency      string    `gorm:"type:varchar(3);not null"`
	Frequency     string    `gorm:"type:varchar(16);not null"`
	DueDay        int       `gorm:"not null"`
	MerchantCode  string    `gorm:"type:varchar(64)"`
	AccountNumber string    `gorm:"type:varchar(64)"`
	AutoPay       bool      `gorm:"not null;default:false"`
	Active        bool      `gorm:"not null;default:true"`
	NextDueDate   time.Time `gorm:"not null;index"`
	LastPaidAt    *time.Time
	Meta          map[string]any `gorm:"serializer:json;type:text"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (UserBill) TableName() string { return "user_bills" }

// BillPayment represents one attempt at paying a bill.
type BillPayment struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	BillID        uuid.UUID `gorm:"type:uuid;not null;index"`
	TransactionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Amount        int64     `gorm:"not null"`
	Currency      string    `gorm:"type:varchar(3);not null"`
	Status        string    `gorm:"type:varchar(16);not null;default:'pending';index"`
	DueDate       time.Time `gorm:"not null"`
	PaidAt        *time.Time
	FailureReason string `gorm:"type:varchar(255)"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (BillPayment) TableName() string { return "bill_payments" }

// RoundupSetting stores a user's round-up preference.
type RoundupSetting struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Enabled          bool      `gorm:"not null;default:false"`
	RoundTo          int64     `gorm:"not null;default:10"`
	SavingsAccountID uuid.UUID `gorm:"type:uuid;not null"`
	MonthlyLimit     *int64
	Currency         string `gorm:"type:varchar(3);not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (RoundupSetting) TableName() string { return "roundup_settings" }

// WebhookEvent stores a raw provider notification and its processing state.
type WebhookEvent struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Provider      string         `gorm:"type:varchar(32);not null"`
	EventType     string         `gorm:"type:varchar(64)"`
	Signature     string         `gorm:"type:varchar(255)"`
	Headers       map[string]any `gorm:"serializer:json;type:text"`
	Payload       string         `gorm:"type:text;not null"`
	UserID        *uuid.UUID     `gorm:"type:uuid"`
	Status        string         `gorm:"type:varchar(16);not null;default:'received';index:idx_webhook_events_status_created,priority:1"`
	Attempts      int            `gorm:"not null;default:0"`
	LastError     string         `gorm:"type:text"`
	TransactionID *uuid.UUID     `gorm:"type:uuid"`
	ProcessedAt   *time.Time
	CreatedAt     time.Time `gorm:"index:idx_webhook_events_status_created,priority:2"`
	UpdatedAt     time.Time
}

func (WebhookEvent) TableName() string { return "webhook_events" }

// Models lists every table, in dependency order, for AutoMigrate.
func Models() []any {
	return []any{
		&Account{},
		&AllocationRule{},
		&Transaction{},
		&LedgerEntry{},
		&UserBill{},
		&BillPayment{},
		&RoundupSetting{},
		&WebhookEvent{},
	}
}
