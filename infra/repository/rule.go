package repository

import (
	"context"
	"time"

	"github.com/amirasaad/smartledger/pkg/domain/allocation"
	"github.com/amirasaad/smartledger/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ruleRepository struct {
	db *gorm.DB
}

// NewRuleRepository creates an allocation rule repository on the given session.
func NewRuleRepository(db *gorm.DB) repository.RuleRepository {
	return &ruleRepository{db: db}
}

func (r *ruleRepository) ListActive(ctx context.Context, userID uuid.UUID) ([]allocation.Rule, error) {
	return r.list(ctx, r.db.Where("user_id = ? AND active = ?", userID, true))
}

func (r *ruleRepository) List(ctx context.Context, userID uuid.UUID) ([]allocation.Rule, error) {
	return r.list(ctx, r.db.Where("user_id = ?", userID))
}

func (r *ruleRepository) list(ctx context.Context, q *gorm.DB) ([]allocation.Rule, error) {
	var ms []AllocationRule
	if err := WrapError(func() error {
		return q.WithContext(ctx).Order("priority, id").Find(&ms).Error
	}); err != nil {
		return nil, err
	}
	out := make([]allocation.Rule, 0, len(ms))
	for i := range ms {
		out = append(out, mapModelToRule(&ms[i]))
	}
	return out, nil
}

func (r *ruleRepository) DeactivateAll(ctx context.Context, userID uuid.UUID) error {
	return WrapError(func() error {
		return r.db.WithContext(ctx).
			Model(&AllocationRule{}).
			Where("user_id = ?", userID).
			Updates(map[string]any{"active": false, "updated_at": time.Now().UTC()}).Error
	})
}

// Upsert keys on (user_id, account_id); an existing row keeps its id.
func (r *ruleRepository) Upsert(ctx context.Context, rule *allocation.Rule) error {
	m := mapRuleToModel(rule)
	return WrapError(func() error {
		return r.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "account_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"basis_points", "active", "priority", "updated_at"}),
			}).
			Create(&m).Error
	})
}
