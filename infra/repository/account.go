package repository

import (
	"context"

	"github.com/amirasaad/smartledger/pkg/domain/account"
	"github.com/amirasaad/smartledger/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates an account repository on the given session.
func NewAccountRepository(db *gorm.DB) repository.AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, a *account.Account) error {
	m := mapAccountToModel(a)
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&m).Error
	})
}

func (r *accountRepository) Get(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	var m Account
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	}); err != nil {
		return nil, err
	}
	return mapModelToAccount(&m)
}

func (r *accountRepository) GetBySlug(ctx context.Context, userID uuid.UUID, slug string) (*account.Account, error) {
	var m Account
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).
			Where("user_id = ? AND slug = ?", userID, slug).
			First(&m).Error
	}); err != nil {
		return nil, err
	}
	return mapModelToAccount(&m)
}

func (r *accountRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*account.Account, error) {
	var ms []Account
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).
			Where("user_id = ?", userID).
			Order("created_at, slug").
			Find(&ms).Error
	}); err != nil {
		return nil, err
	}
	out := make([]*account.Account, 0, len(ms))
	for i := range ms {
		a, err := mapModelToAccount(&ms[i])
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
