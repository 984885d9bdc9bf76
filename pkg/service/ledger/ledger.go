// Package ledger provides read access to balances and the posting helpers
// every writer of ledger entries goes through.
//
// Balances are never stored. They are summed from ledger_entries in minor
// units at read time, inside whatever unit of work the caller holds, so a
// balance read inside a transaction sees that transaction's snapshot.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/smartledger/pkg/domain/account"
	"github.com/amirasaad/smartledger/pkg/domain/ledger"
	"github.com/amirasaad/smartledger/pkg/money"
	"github.com/amirasaad/smartledger/pkg/repository"
	"github.com/google/uuid"
)

// Service answers balance and history queries.
type Service struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
}

// New creates a new Service with a UnitOfWork and logger.
func New(
	uow repository.UnitOfWork,
	logger *slog.Logger,
) *Service {
	return &Service{
		uow:    uow,
		logger: logger,
	}
}

// AccountBalance returns credits minus debits for one account.
func (s *Service) AccountBalance(
	ctx context.Context,
	accountID uuid.UUID,
) (balance money.Money, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		a, err := accounts.Get(ctx, accountID)
		if err != nil {
			return fmt.Errorf("account %s: %w", accountID, err)
		}
		balance, err = Balance(ctx, uow, a)
		return err
	})
	return
}

// Accounts lists every account the user owns, archived ones included.
func (s *Service) Accounts(
	ctx context.Context,
	userID uuid.UUID,
) (accounts []*account.Account, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		accounts, err = repo.ListByUser(ctx, userID)
		return err
	})
	if err != nil {
		accounts = nil
	}
	return
}

// UserBalances returns the balance of every account the user owns, keyed by slug.
// Accounts without entries report zero.
func (s *Service) UserBalances(
	ctx context.Context,
	userID uuid.UUID,
) (balances map[string]money.Money, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		entries, err := uow.EntryRepository()
		if err != nil {
			return err
		}
		owned, err := accounts.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		sums, err := entries.BalancesByUser(ctx, userID)
		if err != nil {
			return err
		}
		balances = make(map[string]money.Money, len(owned))
		for _, a := range owned {
			balances[a.Slug] = money.FromMinor(a.Currency, sums[a.ID])
		}
		return nil
	})
	if err != nil {
		balances = nil
	}
	return
}

// TrialBalance sums every account the user owns. With every transaction
// balanced the result is zero; anything else means the ledger is corrupt.
func (s *Service) TrialBalance(
	ctx context.Context,
	userID uuid.UUID,
	currency money.Code,
) (money.Money, error) {
	balances, err := s.UserBalances(ctx, userID)
	if err != nil {
		return money.Money{}, err
	}
	total := money.Zero(currency)
	for slug, b := range balances {
		if total, err = total.Add(b); err != nil {
			return money.Money{}, fmt.Errorf("account %q: %w", slug, err)
		}
	}
	if !total.IsZero() {
		s.logger.Error("Trial balance is not zero", "user_id", userID, "total", total.String())
	}
	return total, nil
}

// TransactionEntries returns the lines posted for a transaction.
func (s *Service) TransactionEntries(
	ctx context.Context,
	transactionID uuid.UUID,
) (entries []ledger.Entry, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.EntryRepository()
		if err != nil {
			return err
		}
		entries, err = repo.ListByTransaction(ctx, transactionID)
		return err
	})
	if err != nil {
		entries = nil
	}
	return
}

// Transactions lists a user's most recent transactions, newest first.
func (s *Service) Transactions(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
) (txs []*ledger.Transaction, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		txs, err = repo.ListByUser(ctx, userID, limit)
		return err
	})
	if err != nil {
		txs = nil
	}
	return
}

// Balance reads one account's balance through uow.
func Balance(ctx context.Context, uow repository.UnitOfWork, a *account.Account) (money.Money, error) {
	entries, err := uow.EntryRepository()
	if err != nil {
		return money.Money{}, err
	}
	minor, err := entries.Balance(ctx, a.ID)
	if err != nil {
		return money.Money{}, err
	}
	return money.FromMinor(a.Currency, minor), nil
}

// Registry loads the user's accounts through uow.
func Registry(ctx context.Context, uow repository.UnitOfWork, userID uuid.UUID) (*account.Registry, error) {
	accounts, err := uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	owned, err := accounts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return account.NewRegistry(userID, owned), nil
}

// Post inserts tx and the journal's entries. The journal is validated first,
// so an unbalanced journal writes nothing.
func Post(
	ctx context.Context,
	uow repository.UnitOfWork,
	tx *ledger.Transaction,
	journal *ledger.Journal,
	now time.Time,
) error {
	entries, err := journal.Entries(tx.ID, now)
	if err != nil {
		return err
	}
	txs, err := uow.TransactionRepository()
	if err != nil {
		return err
	}
	if err := txs.Create(ctx, tx); err != nil {
		return err
	}
	return createEntries(ctx, uow, entries)
}

// PostEntries appends the journal's entries to an existing transaction.
func PostEntries(
	ctx context.Context,
	uow repository.UnitOfWork,
	transactionID uuid.UUID,
	journal *ledger.Journal,
	now time.Time,
) error {
	entries, err := journal.Entries(transactionID, now)
	if err != nil {
		return err
	}
	return createEntries(ctx, uow, entries)
}

func createEntries(ctx context.Context, uow repository.UnitOfWork, entries []ledger.Entry) error {
	repo, err := uow.EntryRepository()
	if err != nil {
		return err
	}
	return repo.CreateBatch(ctx, entries)
}
