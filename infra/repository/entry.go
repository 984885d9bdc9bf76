package repository

import (
	"context"

	"github.com/amirasaad/smartledger/pkg/domain/ledger"
	"github.com/amirasaad/smartledger/pkg/money"
	"github.com/amirasaad/smartledger/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// signedAmount is credits minus debits, in minor units.
const signedAmount = "CAST(COALESCE(SUM(CASE WHEN entry_type = 'credit' THEN amount ELSE -amount END), 0) AS BIGINT)"

type entryRepository struct {
	db *gorm.DB
}

// NewEntryRepository creates an append-only ledger entry repository on the given session.
func NewEntryRepository(db *gorm.DB) repository.EntryRepository {
	return &entryRepository{db: db}
}

func (r *entryRepository) CreateBatch(ctx context.Context, entries []ledger.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	ms := make([]LedgerEntry, 0, len(entries))
	for _, e := range entries {
		m, err := mapEntryToModel(e)
		if err != nil {
			return err
		}
		ms = append(ms, m)
	}
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&ms).Error
	})
}

func (r *entryRepository) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]ledger.Entry, error) {
	var tx Transaction
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).Select("id", "currency").First(&tx, "id = ?", transactionID).Error
	}); err != nil {
		return nil, err
	}
	var ms []LedgerEntry
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).
			Where("transaction_id = ?", transactionID).
			Order("created_at, id").
			Find(&ms).Error
	}); err != nil {
		return nil, err
	}
	out := make([]ledger.Entry, 0, len(ms))
	for i := range ms {
		out = append(out, mapModelToEntry(&ms[i], money.Code(tx.Currency)))
	}
	return out, nil
}

func (r *entryRepository) Balance(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var total int64
	err := WrapError(func() error {
		return r.db.WithContext(ctx).
			Model(&LedgerEntry{}).
			Select(signedAmount).
			Where("account_id = ?", accountID).
			Scan(&total).Error
	})
	return total, err
}

func (r *entryRepository) BalancesByUser(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int64, error) {
	var rows []struct {
		AccountID uuid.UUID
		Balance   int64
	}
	err := WrapError(func() error {
		return r.db.WithContext(ctx).
			Table("ledger_entries").
			Select("ledger_entries.account_id AS account_id, "+signedAmount+" AS balance").
			Joins("JOIN accounts ON accounts.id = ledger_entries.account_id").
			Where("accounts.user_id = ?", userID).
			Group("ledger_entries.account_id").
			Scan(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		out[row.AccountID] = row.Balance
	}
	return out, nil
}
