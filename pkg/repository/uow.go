package repository

import (
	"context"
	"reflect"
)

// UnitOfWork defines the contract for transactional work and type-safe repository access.
//
// Every repository handed out inside Do shares the same database transaction,
// so a ledger posting, its transaction row and any status updates commit or
// roll back together.
//
//	err := uow.Do(ctx, func(uow UnitOfWork) error {
//		entries, err := uow.EntryRepository()
//		...
//	})
type UnitOfWork interface {
	// Do executes the given function within a transaction boundary.
	// If the function returns an error, the transaction is rolled back.
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error

	// GetRepository returns a repository of the requested interface type, bound to the current transaction.
	//   repoAny, err := uow.GetRepository(reflect.TypeOf((*BillRepository)(nil)).Elem())
	GetRepository(repoType reflect.Type) (any, error)

	AccountRepository() (AccountRepository, error)
	RuleRepository() (RuleRepository, error)
	TransactionRepository() (TransactionRepository, error)
	EntryRepository() (EntryRepository, error)
	BillRepository() (BillRepository, error)
	BillPaymentRepository() (BillPaymentRepository, error)
	RoundupRepository() (RoundupRepository, error)
	WebhookRepository() (WebhookRepository, error)
}
