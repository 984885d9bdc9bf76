package repository

import (
	"context"

	"github.com/amirasaad/smartledger/pkg/domain/webhook"
	"github.com/amirasaad/smartledger/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type webhookRepository struct {
	db *gorm.DB
}

// NewWebhookRepository creates a webhook inbox repository on the given session.
func NewWebhookRepository(db *gorm.DB) repository.WebhookRepository {
	return &webhookRepository{db: db}
}

func (r *webhookRepository) Create(ctx context.Context, e *webhook.Event) error {
	m := mapWebhookToModel(e)
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&m).Error
	})
}

func (r *webhookRepository) Get(ctx context.Context, id uuid.UUID) (*webhook.Event, error) {
	return r.get(ctx, r.db, id)
}

func (r *webhookRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*webhook.Event, error) {
	return r.get(ctx, r.db.Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *webhookRepository) get(ctx context.Context, q *gorm.DB, id uuid.UUID) (*webhook.Event, error) {
	var m WebhookEvent
	if err := WrapError(func() error {
		return q.WithContext(ctx).First(&m, "id = ?", id).Error
	}); err != nil {
		return nil, err
	}
	return mapModelToWebhook(&m), nil
}

func (r *webhookRepository) Update(ctx context.Context, e *webhook.Event) error {
	m := mapWebhookToModel(e)
	return WrapError(func() error {
		res := r.db.WithContext(ctx).
			Model(&WebhookEvent{}).
			Where("id = ?", e.ID).
			Select("status", "attempts", "last_error", "transaction_id", "processed_at", "updated_at").
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

func (r *webhookRepository) ListByStatus(ctx context.Context, status webhook.Status, limit int) ([]*webhook.Event, error) {
	q := r.db.WithContext(ctx).Where("status = ?", string(status)).Order("created_at, id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var ms []WebhookEvent
	if err := WrapError(func() error {
		return q.Find(&ms).Error
	}); err != nil {
		return nil, err
	}
	out := make([]*webhook.Event, 0, len(ms))
	for i := range ms {
		out = append(out, mapModelToWebhook(&ms[i]))
	}
	return out, nil
}
