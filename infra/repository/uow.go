package repository

import (
	"context"
	"fmt"
	"reflect"

	"github.com/amirasaad/smartledger/pkg/repository"
	"gorm.io/gorm"
)

// UoW provides a transaction boundary and repository access in one abstraction.
// Repositories obtained inside Do are bound to that transaction; outside Do they
// run on the plain connection pool, each statement in its own implicit transaction.
type UoW struct {
	db           *gorm.DB
	tx           *gorm.DB
	repoRegistry map[reflect.Type]func(*gorm.DB) any
}

// NewUoW creates a new UoW for the given *gorm.DB.
func NewUoW(db *gorm.DB) *UoW {
	return &UoW{
		db: db,
		repoRegistry: map[reflect.Type]func(*gorm.DB) any{
			typeOf[repository.AccountRepository]():     func(db *gorm.DB) any { return NewAccountRepository(db) },
			typeOf[repository.RuleRepository]():        func(db *gorm.DB) any { return NewRuleRepository(db) },
			typeOf[repository.TransactionRepository](): func(db *gorm.DB) any { return NewTransactionRepository(db) },
			typeOf[repository.EntryRepository]():       func(db *gorm.DB) any { return NewEntryRepository(db) },
			typeOf[repository.BillRepository]():        func(db *gorm.DB) any { return NewBillRepository(db) },
			typeOf[repository.BillPaymentRepository](): func(db *gorm.DB) any { return NewBillPaymentRepository(db) },
			typeOf[repository.RoundupRepository]():     func(db *gorm.DB) any { return NewRoundupRepository(db) },
			typeOf[repository.WebhookRepository]():     func(db *gorm.DB) any { return NewWebhookRepository(db) },
		},
	}
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Do runs fn in a database transaction. Nested calls reuse the outer transaction.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	if u.tx != nil {
		return fn(u)
	}
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txnUow := &UoW{db: u.db, tx: tx, repoRegistry: u.repoRegistry}
		return fn(txnUow)
	})
}

// GetRepository provides generic, type-safe access to repositories using the transaction session.
func (u *UoW) GetRepository(repoType reflect.Type) (any, error) {
	constructor, ok := u.repoRegistry[repoType]
	if !ok {
		return nil, fmt.Errorf("unsupported repository type: %v", repoType)
	}
	return constructor(u.session()), nil
}

func (u *UoW) session() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func get[T any](u *UoW) (T, error) {
	var zero T
	repoAny, err := u.GetRepository(typeOf[T]())
	if err != nil {
		return zero, err
	}
	repo, ok := repoAny.(T)
	if !ok {
		return zero, fmt.Errorf("repository %v has unexpected type %T", typeOf[T](), repoAny)
	}
	return repo, nil
}

func (u *UoW) AccountRepository() (repository.AccountRepository, error) {
	return get[repository.AccountRepository](u)
}

func (u *UoW) RuleRepository() (repository.RuleRepository, error) {
	return get[repository.RuleRepository](u)
}

func (u *UoW) TransactionRepository() (repository.TransactionRepository, error) {
	return get[repository.TransactionRepository](u)
}

func (u *UoW) EntryRepository() (repository.EntryRepository, error) {
	return get[repository.EntryRepository](u)
}

func (u *UoW) BillRepository() (repository.BillRepository, error) {
	return get[repository.BillRepository](u)
}

func (u *UoW) BillPaymentRepository() (repository.BillPaymentRepository, error) {
	return get[repository.BillPaymentRepository](u)
}

func (u *UoW) RoundupRepository() (repository.RoundupRepository, error) {
	return get[repository.RoundupRepository](u)
}

func (u *UoW) WebhookRepository() (repository.WebhookRepository, error) {
	return get[repository.WebhookRepository](u)
}
