// Package fixtures provides test databases, seeded users and repository mocks.
package fixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/amirasaad/smartledger/infra"
	infra_repository "github.com/amirasaad/smartledger/infra/repository"
	"github.com/amirasaad/smartledger/pkg/config"
	"github.com/amirasaad/smartledger/pkg/domain/account"
	"github.com/amirasaad/smartledger/pkg/domain/ledger"
	"github.com/amirasaad/smartledger/pkg/money"
	"github.com/amirasaad/smartledger/pkg/provider"
	"github.com/amirasaad/smartledger/pkg/repository"
	ledgersvc "github.com/amirasaad/smartledger/pkg/service/ledger"
	"github.com/amirasaad/smartledger/pkg/service/onboarding"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Currency is the ledger currency used by fixtures.
const Currency = money.KES

// Logger discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewTestDB opens a migrated sqlite database in a temp dir.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	db, dialect, err := infra.NewDBConnection(&config.DB{Url: "sqlite:" + path}, "test")
	require.NoError(t, err)
	require.NoError(t, infra.Migrate(db, dialect, Logger()))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// NewUoW returns a UnitOfWork over a fresh test database.
func NewUoW(t testing.TB) repository.UnitOfWork {
	t.Helper()
	return infra_repository.NewUoW(NewTestDB(t))
}

// ProvisionUser creates a user with the default accounts and 40/40/20 rules.
func ProvisionUser(t testing.TB, uow repository.UnitOfWork) uuid.UUID {
	t.Helper()
	userID := uuid.New()
	_, err := onboarding.New(uow, Logger()).Provision(context.Background(), userID, Currency)
	require.NoError(t, err)
	return userID
}

// Account resolves one of the user's accounts by slug.
func Account(t testing.TB, uow repository.UnitOfWork, userID uuid.UUID, slug string) *account.Account {
	t.Helper()
	repo, err := uow.AccountRepository()
	require.NoError(t, err)
	a, err := repo.GetBySlug(context.Background(), userID, slug)
	require.NoError(t, err)
	return a
}

// Fund credits amount to the user's slug account against settlement, as an
// internal system transaction.
func Fund(t testing.TB, uow repository.UnitOfWork, userID uuid.UUID, slug, amount string) {
	t.Helper()
	ctx := context.Background()
	m := money.MustNew(Currency, amount)
	err := uow.Do(ctx, func(uow repository.UnitOfWork) error {
		registry, err := ledgersvc.Registry(ctx, uow, userID)
		if err != nil {
			return err
		}
		target, err := registry.Require(slug)
		if err != nil {
			return err
		}
		settlement, err := registry.Require(account.SlugSettlement)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		ref := "fund:" + uuid.NewString()
		tx := ledger.NewTransaction(userID, provider.System, ledger.DirectionInternal, m, &ref, nil, now)
		if err := tx.MarkSucceeded(now); err != nil {
			return err
		}
		journal := ledger.NewJournal(Currency).
			Debit(settlement.ID, m, "Test funding").
			Credit(target.ID, m, "Test funding")
		return ledgersvc.Post(ctx, uow, tx, journal, now)
	})
	require.NoError(t, err)
}

// Balance returns the slug account's balance.
func Balance(t testing.TB, uow repository.UnitOfWork, userID uuid.UUID, slug string) money.Money {
	t.Helper()
	a := Account(t, uow, userID, slug)
	b, err := ledgersvc.New(uow, Logger()).AccountBalance(context.Background(), a.ID)
	require.NoError(t, err)
	return b
}
