package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amirasaad/smartledger/internal/fixtures"
	"github.com/amirasaad/smartledger/pkg/domain/account"
	"github.com/amirasaad/smartledger/pkg/domain/ledger"
	"github.com/amirasaad/smartledger/pkg/money"
	"github.com/amirasaad/smartledger/pkg/provider"
	"github.com/amirasaad/smartledger/pkg/repository"
	ledgersvc "github.com/amirasaad/smartledger/pkg/service/ledger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUserBalancesAndTrialBalance(t *testing.T) {
	ctx := context.Background()
	uow := fixtures.NewUoW(t)
	svc := ledgersvc.New(uow, fixtures.Logger())
	userID := fixtures.ProvisionUser(t, uow)

	balances, err := svc.UserBalances(ctx, userID)
	require.NoError(t, err)
	require.Len(t, balances, len(account.DefaultTemplates()))
	for slug, b := range balances {
		assert.True(t, b.IsZero(), slug)
	}

	fixtures.Fund(t, uow, userID, account.SlugMain, "120.50")
	fixtures.Fund(t, uow, userID, account.SlugSavings, "0.25")

	balances, err = svc.UserBalances(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "120.50", balances[account.SlugMain].StringFixed())
	assert.Equal(t, "0.25", balances[account.SlugSavings].StringFixed())
	assert.Equal(t, "-120.75", balances[account.SlugSettlement].StringFixed())

	total, err := svc.TrialBalance(ctx, userID, fixtures.Currency)
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	txs, err := svc.Transactions(ctx, userID, 0)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	entries, err := svc.TransactionEntries(ctx, txs[0].ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestPost_UnbalancedJournalWritesNothing(t *testing.T) {
	ctx := context.Background()
	uow := fixtures.NewUoW(t)
	userID := fixtures.ProvisionUser(t, uow)
	mainAcct := fixtures.Account(t, uow, userID, account.SlugMain)
	settlement := fixtures.Account(t, uow, userID, account.SlugSettlement)
	now := time.Now().UTC()

	amount := money.MustNew(fixtures.Currency, "10")
	tx := ledger.NewTransaction(userID, provider.System, ledger.DirectionInternal, amount, nil, nil, now)
	journal := ledger.NewJournal(fixtures.Currency).
		Debit(settlement.ID, amount, "Broken").
		Credit(mainAcct.ID, money.MustNew(fixtures.Currency, "9.99"), "Broken")

	err := uow.Do(ctx, func(uow repository.UnitOfWork) error {
		return ledgersvc.Post(ctx, uow, tx, journal, now)
	})
	require.ErrorIs(t, err, ledger.ErrUnbalancedJournal)

	txs, err := ledgersvc.New(uow, fixtures.Logger()).Transactions(ctx, userID, 0)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestAccountBalance_UnknownAccount(t *testing.T) {
	svc := ledgersvc.New(fixtures.NewUoW(t), fixtures.Logger())
	_, err := svc.AccountBalance(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestAccountBalance_PropagatesRepositoryErrors(t *testing.T) {
	ctx := context.Background()
	uow := fixtures.NewMockUnitOfWork(t)
	accounts := &fixtures.MockAccountRepository{}
	entries := &fixtures.MockEntryRepository{}
	a, err := account.New().WithUserID(uuid.New()).WithSlug(account.SlugMain).WithName("Main").Build()
	require.NoError(t, err)

	uow.On("AccountRepository").Return(accounts, nil)
	uow.On("EntryRepository").Return(entries, nil)
	accounts.On("Get", mock.Anything, a.ID).Return(a, nil)
	entries.On("Balance", mock.Anything, a.ID).Return(int64(0), errors.New("connection reset")).Once()
	entries.On("Balance", mock.Anything, a.ID).Return(int64(-1234), nil).Once()

	svc := ledgersvc.New(uow, fixtures.Logger())
	_, err = svc.AccountBalance(ctx, a.ID)
	require.EqualError(t, err, "connection reset")

	balance, err := svc.AccountBalance(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "-12.34", balance.StringFixed())

	uow.AssertExpectations(t)
	accounts.AssertExpectations(t)
	entries.AssertExpectations(t)
}

func TestUserBalances_RepositoryUnavailable(t *testing.T) {
	uow := fixtures.NewMockUnitOfWork(t)
	uow.On("AccountRepository").Return(nil, errors.New("no repo"))

	balances, err := ledgersvc.New(uow, fixtures.Logger()).UserBalances(context.Background(), uuid.New())
	assert.EqualError(t, err, "no repo")
	assert.Nil(t, balances)
}
