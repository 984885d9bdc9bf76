package repository

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/amirasaad/smartledger/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDb.Close() })
	dialector := postgres.New(postgres.Config{
		Conn:       mockDb,
		DriverName: "postgres",
	})
	db, err := gorm.Open(dialector, &gorm.Config{})
	require.NoError(t, err)
	return db, mock
}

func TestUoW_DoAndGetRepository(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)
	db, mock := newMockDB(t)
	uow := NewUoW(db)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := uow.Do(context.Background(), func(txUow repository.UnitOfWork) error {
		repoAny, err := txUow.GetRepository(reflect.TypeOf((*repository.AccountRepository)(nil)).Elem())
		require.NoError(err)
		_, ok := repoAny.(*accountRepository)
		assert.True(ok)

		repoAny, err = txUow.GetRepository(reflect.TypeOf((*repository.EntryRepository)(nil)).Elem())
		require.NoError(err)
		_, ok = repoAny.(*entryRepository)
		assert.True(ok)

		repoAny, err = txUow.GetRepository(reflect.TypeOf((*repository.BillRepository)(nil)).Elem())
		require.NoError(err)
		_, ok = repoAny.(*billRepository)
		assert.True(ok)
		return nil
	})
	assert.NoError(err)
	assert.NoError(mock.ExpectationsWereMet())
}

func TestUoW_RollbackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	uow := NewUoW(db)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := uow.Do(context.Background(), func(repository.UnitOfWork) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUoW_NestedDoReusesTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	uow := NewUoW(db)

	mock.ExpectBegin()
	mock.ExpectCommit()

	calls := 0
	err := uow.Do(context.Background(), func(outer repository.UnitOfWork) error {
		return outer.Do(context.Background(), func(inner repository.UnitOfWork) error {
			calls++
			assert.Same(t, outer, inner)
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUoW_UnsupportedRepository(t *testing.T) {
	db, _ := newMockDB(t)
	uow := NewUoW(db)

	_, err := uow.GetRepository(reflect.TypeOf((*error)(nil)).Elem())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported repository type")
}

func TestUoW_TypeSafeMethods(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)
	db, _ := newMockDB(t)
	uow := NewUoW(db)

	accounts, err := uow.AccountRepository()
	require.NoError(err)
	assert.IsType(&accountRepository{}, accounts)

	rules, err := uow.RuleRepository()
	require.NoError(err)
	assert.IsType(&ruleRepository{}, rules)

	txs, err := uow.TransactionRepository()
	require.NoError(err)
	assert.IsType(&transactionRepository{}, txs)

	entries, err := uow.EntryRepository()
	require.NoError(err)
	assert.IsType(&entryRepository{}, entries)

	bills, err := uow.BillRepository()
	require.NoError(err)
	assert.IsType(&billRepository{}, bills)

	payments, err := uow.BillPaymentRepository()
	require.NoError(err)
	assert.IsType(&billPaymentRepository{}, payments)

	roundups, err := uow.RoundupRepository()
	require.NoError(err)
	assert.IsType(&roundupRepository{}, roundups)

	webhooks, err := uow.WebhookRepository()
	require.NoError(err)
	assert.IsType(&webhookRepository{}, webhooks)
}
