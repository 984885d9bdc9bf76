package fixtures

import (
	"context"
	"reflect"

	"github.com/amirasaad/smartledger/pkg/domain/account"
	"github.com/amirasaad/smartledger/pkg/domain/ledger"
	"github.com/amirasaad/smartledger/pkg/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUnitOfWork runs Do's callback against itself and returns repositories
// registered with On.
type MockUnitOfWork struct {
	mock.Mock
}

func NewMockUnitOfWork(t mock.TestingT) *MockUnitOfWork {
	m := &MockUnitOfWork{}
	m.Test(t)
	return m
}

func (m *MockUnitOfWork) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	return fn(m)
}

func (m *MockUnitOfWork) GetRepository(repoType reflect.Type) (any, error) {
	args := m.Called(repoType)
	return args.Get(0), args.Error(1)
}

func (m *MockUnitOfWork) AccountRepository() (repository.AccountRepository, error) {
	args := m.Called()
	repo, _ := args.Get(0).(repository.AccountRepository)
	return repo, args.Error(1)
}

func (m *MockUnitOfWork) RuleRepository() (repository.RuleRepository, error) {
	args := m.Called()
	repo, _ := args.Get(0).(repository.RuleRepository)
	return repo, args.Error(1)
}

func (m *MockUnitOfWork) TransactionRepository() (repository.TransactionRepository, error) {
	args := m.Called()
	repo, _ := args.Get(0).(repository.TransactionRepository)
	return repo, args.Error(1)
}

func (m *MockUnitOfWork) EntryRepository() (repository.EntryRepository, error) {
	args := m.Called()
	repo, _ := args.Get(0).(repository.EntryRepository)
	return repo, args.Error(1)
}

func (m *MockUnitOfWork) BillRepository() (repository.BillRepository, error) {
	args := m.Called()
	repo, _ := args.Get(0).(repository.BillRepository)
	return repo, args.Error(1)
}

func (m *MockUnitOfWork) BillPaymentRepository() (repository.BillPaymentRepository, error) {
	args := m.Called()
	repo, _ := args.Get(0).(repository.BillPaymentRepository)
	return repo, args.Error(1)
}

func (m *MockUnitOfWork) RoundupRepository() (repository.RoundupRepository, error) {
	args := m.Called()
	repo, _ := args.Get(0).(repository.RoundupRepository)
	return repo, args.Error(1)
}

func (m *MockUnitOfWork) WebhookRepository() (repository.WebhookRepository, error) {
	args := m.Called()
	repo, _ := args.Get(0).(repository.WebhookRepository)
	return repo, args.Error(1)
}

// MockAccountRepository is a testify mock of repository.AccountRepository.
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, a *account.Account) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAccountRepository) Get(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	a, _ := args.Get(0).(*account.Account)
	return a, args.Error(1)
}

func (m *MockAccountRepository) GetBySlug(ctx context.Context, userID uuid.UUID, slug string) (*account.Account, error) {
	args := m.Called(ctx, userID, slug)
	a, _ := args.Get(0).(*account.Account)
	return a, args.Error(1)
}

func (m *MockAccountRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*account.Account, error) {
	args := m.Called(ctx, userID)
	as, _ := args.Get(0).([]*account.Account)
	return as, args.Error(1)
}

// MockEntryRepository is a testify mock of repository.EntryRepository.
type MockEntryRepository struct {
	mock.Mock
}

func (m *MockEntryRepository) CreateBatch(ctx context.Context, entries []ledger.Entry) error {
	return m.Called(ctx, entries).Error(0)
}

func (m *MockEntryRepository) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]ledger.Entry, error) {
	args := m.Called(ctx, transactionID)
	es, _ := args.Get(0).([]ledger.Entry)
	return es, args.Error(1)
}

func (m *MockEntryRepository) Balance(ctx context.Context, accountID uuid.UUID) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEntryRepository) BalancesByUser(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int64, error) {
	args := m.Called(ctx, userID)
	b, _ := args.Get(0).(map[uuid.UUID]int64)
	return b, args.Error(1)
}
