// Package account models the per-user set of ledger accounts.
//
// Every user owns a fixed set of user buckets (main, bills, savings) and
// system accounts (clearing, system_revenue, settlement). Balances are never
// stored on the account; they are derived from ledger entries.
package account

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/amirasaad/smartledger/pkg/money"
	"github.com/google/uuid"
)

var (
	// ErrMissingAccount is returned when a required account (by slug or id) does not exist.
	ErrMissingAccount = errors.New("required account missing")

	// ErrInvalidAccount is returned when an account fails construction invariants.
	ErrInvalidAccount = errors.New("invalid account")

	// ErrNotOwner is returned when an account does not belong to the acting user.
	ErrNotOwner = errors.New("not owner")
)

// Kind distinguishes money a user can direct from internal plumbing accounts.
type Kind string

const (
	KindUserBucket Kind = "user_bucket"
	KindSystem     Kind = "system"
)

// Default account slugs.
const (
	SlugMain          = "main"
	SlugBills         = "bills"
	SlugSavings       = "savings"
	SlugClearing      = "clearing"
	SlugSystemRevenue = "system_revenue"
	// SlugSettlement is the contra account for funds held outside the ledger:
	// it is debited when a deposit arrives and credited when a bill is paid out.
	SlugSettlement = "settlement"
)

var slugPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

// Account represents one ledger account owned by a user.
type Account struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	Slug      string
	Kind      Kind
	Currency  money.Code
	Archived  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Template describes an account to provision.
type Template struct {
	Name string
	Slug string
	Kind Kind
}

// DefaultTemplates lists the accounts every user is provisioned with.
func DefaultTemplates() []Template {
	return []Template{
		{Name: "Main Wallet", Slug: SlugMain, Kind: KindUserBucket},
		{Name: "Bills", Slug: SlugBills, Kind: KindUserBucket},
		{Name: "Savings", Slug: SlugSavings, Kind: KindUserBucket},
		{Name: "Clearing", Slug: SlugClearing, Kind: KindSystem},
		{Name: "System Revenue", Slug: SlugSystemRevenue, Kind: KindSystem},
		{Name: "External Settlement", Slug: SlugSettlement, Kind: KindSystem},
	}
}

// Builder provides a fluent API for constructing Account instances.
type Builder struct {
	id        uuid.UUID
	userID    uuid.UUID
	name      string
	slug      string
	kind      Kind
	currency  money.Code
	archived  bool
	createdAt time.Time
	updatedAt time.Time
}

// New creates a new Builder with a fresh UUID and the default currency.
func New() *Builder {
	return &Builder{
		id:        uuid.New(),
		kind:      KindUserBucket,
		currency:  money.DefaultCurrency,
		createdAt: time.Now().UTC(),
	}
}

// FromTemplate seeds the builder with a template's name, slug and kind.
func (b *Builder) FromTemplate(t Template) *Builder {
	b.name = t.Name
	b.slug = t.Slug
	b.kind = t.Kind
	return b
}

// WithID sets the ID for the account being built.
func (b *Builder) WithID(id uuid.UUID) *Builder {
	b.id = id
	return b
}

// WithUserID sets the owner. This is a mandatory field.
func (b *Builder) WithUserID(userID uuid.UUID) *Builder {
	b.userID = userID
	return b
}

func (b *Builder) WithName(name string) *Builder {
	b.name = name
	return b
}

func (b *Builder) WithSlug(slug string) *Builder {
	b.slug = slug
	return b
}

func (b *Builder) WithKind(kind Kind) *Builder {
	b.kind = kind
	return b
}

// WithCurrency sets the currency. If not set, it defaults to KES.
func (b *Builder) WithCurrency(code money.Code) *Builder {
	b.currency = code
	return b
}

func (b *Builder) WithArchived(archived bool) *Builder {
	b.archived = archived
	return b
}

// WithTimestamps is used when hydrating an account from storage.
func (b *Builder) WithTimestamps(created, updated time.Time) *Builder {
	b.createdAt = created
	b.updatedAt = updated
	return b
}

// Build validates the invariants and returns the Account.
func (b *Builder) Build() (*Account, error) {
	if b.userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidAccount)
	}
	if !slugPattern.MatchString(b.slug) {
		return nil, fmt.Errorf("%w: bad slug %q", ErrInvalidAccount, b.slug)
	}
	if b.name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidAccount)
	}
	if b.kind != KindUserBucket && b.kind != KindSystem {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidAccount, b.kind)
	}
	if !b.currency.IsValid() {
		return nil, money.ErrInvalidCurrency
	}
	return &Account{
		ID:        b.id,
		UserID:    b.userID,
		Name:      b.name,
		Slug:      b.slug,
		Kind:      b.kind,
		Currency:  b.currency,
		Archived:  b.archived,
		CreatedAt: b.createdAt,
		UpdatedAt: b.updatedAt,
	}, nil
}

// IsBucket reports whether the account is a user-directed bucket.
func (a *Account) IsBucket() bool {
	return a.Kind == KindUserBucket
}
