package repository

import (
	"context"

	"github.com/amirasaad/smartledger/pkg/domain/roundup"
	"github.com/amirasaad/smartledger/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type roundupRepository struct {
	db *gorm.DB
}

// NewRoundupRepository creates a round-up settings repository on the given session.
func NewRoundupRepository(db *gorm.DB) repository.RoundupRepository {
	return &roundupRepository{db: db}
}

func (r *roundupRepository) Get(ctx context.Context, userID uuid.UUID) (*roundup.Setting, error) {
	var m RoundupSetting
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).First(&m, "user_id = ?", userID).Error
	}); err != nil {
		return nil, err
	}
	return mapModelToRoundup(&m), nil
}

// Upsert keys on user_id; one setting per user.
func (r *roundupRepository) Upsert(ctx context.Context, s *roundup.Setting) error {
	m, err := mapRoundupToModel(s)
	if err != nil {
		return err
	}
	return WrapError(func() error {
		return r.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "user_id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"enabled", "round_to", "savings_account_id", "monthly_limit", "currency", "updated_at",
				}),
			}).
			Create(&m).Error
	})
}
