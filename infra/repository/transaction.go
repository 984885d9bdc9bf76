package repository

import (
	"context"
	"time"

	"github.com/amirasaad/smartledger/pkg/domain/ledger"
	"github.com/amirasaad/smartledger/pkg/provider"
	"github.com/amirasaad/smartledger/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a ledger transaction repository on the given session.
func NewTransactionRepository(db *gorm.DB) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, tx *ledger.Transaction) error {
	m, err := mapTransactionToModel(tx)
	if err != nil {
		return err
	}
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&m).Error
	})
}

func (r *transactionRepository) Get(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	var m Transaction
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	}); err != nil {
		return nil, err
	}
	return mapModelToTransaction(&m), nil
}

func (r *transactionRepository) GetByProviderRef(
	ctx context.Context,
	userID uuid.UUID,
	p provider.Provider,
	ref string,
) (*ledger.Transaction, error) {
	var m Transaction
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).
			Where("user_id = ? AND provider = ? AND provider_ref = ?", userID, string(p), ref).
			First(&m).Error
	}); err != nil {
		return nil, err
	}
	return mapModelToTransaction(&m), nil
}

// UpdateStatus persists the status and meta of tx. Amount and identity never change.
func (r *transactionRepository) UpdateStatus(ctx context.Context, tx *ledger.Transaction) error {
	m, err := mapTransactionToModel(tx)
	if err != nil {
		return err
	}
	return WrapError(func() error {
		res := r.db.WithContext(ctx).
			Model(&Transaction{}).
			Where("id = ?", tx.ID).
			Select("status", "meta", "updated_at").
			Updates(&m)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *transactionRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*ledger.Transaction, error) {
	var ms []Transaction
	if err := WrapError(func() error {
		q := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC")
		if limit > 0 {
			q = q.Limit(limit)
		}
		return q.Find(&ms).Error
	}); err != nil {
		return nil, err
	}
	out := make([]*ledger.Transaction, 0, len(ms))
	for i := range ms {
		out = append(out, mapModelToTransaction(&ms[i]))
	}
	return out, nil
}

func (r *transactionRepository) SumSucceeded(
	ctx context.Context,
	userID uuid.UUID,
	p provider.Provider,
	refPrefix string,
	since time.Time,
) (int64, error) {
	var total int64
	err := WrapError(func() error {
		return r.db.WithContext(ctx).
			Model(&Transaction{}).
			Select("CAST(COALESCE(SUM(amount), 0) AS BIGINT)").
			Where("user_id = ? AND provider = ? AND status = ?", userID, string(p), string(ledger.StatusSucceeded)).
			Where("provider_ref LIKE ?", refPrefix+"%").
			Where("created_at >= ?", since).
			Scan(&total).Error
	})
	return total, err
}
