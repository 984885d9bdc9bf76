package repository

import (
	"context"
	"time"

	"github.com/amirasaad/smartledger/pkg/domain/bill"
	"github.com/amirasaad/smartledger/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type billRepository struct {
	db *gorm.DB
}

// NewBillRepository creates a bill repository on the given session.
func NewBillRepository(db *gorm.DB) repository.BillRepository {
	return &billRepository{db: db}
}

func (r *billRepository) Create(ctx context.Context, b *bill.Bill) error {
	m, err := mapBillToModel(b)
	if err != nil {
		return err
	}
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&m).Error
	})
}

func (r *billRepository) Get(ctx context.Context, id uuid.UUID) (*bill.Bill, error) {
	return r.get(ctx, r.db, id)
}

// GetForUpdate issues SELECT ... FOR UPDATE. SQLite has no row locks and the
// dialect drops the clause; there the single writer connection serialises instead.
func (r *billRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*bill.Bill, error) {
	return r.get(ctx, r.db.Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *billRepository) get(ctx context.Context, q *gorm.DB, id uuid.UUID) (*bill.Bill, error) {
	var m UserBill
	if err := WrapError(func() error {
		return q.WithContext(ctx).First(&m, "id = ?", id).Error
	}); err != nil {
		return nil, err
	}
	return mapModelToBill(&m), nil
}

// Update saves every mutable field of a bill; identity, owner and currency are fixed.
func (r *billRepository) Update(ctx context.Context, b *bill.Bill) error {
	m, err := mapBillToModel(b)
	if err != nil {
		return err
	}
	return WrapError(func() error {
		res := r.db.WithContext(ctx).
			Model(&UserBill{}).
			Where("id = ?", b.ID).
			Select(
				"name", "category", "amount", "frequency", "due_day", "merchant_code", "account_number",
				"auto_pay", "active", "next_due_date", "last_paid_at", "meta", "updated_at",
			).
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

func (r *billRepository) ListDue(ctx context.Context, now time.Time) ([]*bill.Bill, error) {
	return r.list(ctx, r.db.
		Where("active = ? AND auto_pay = ?", true, true).
		Where("next_due_date <= ?", now).
		Order("next_due_date, id"))
}

func (r *billRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*bill.Bill, error) {
	return r.list(ctx, r.db.Where("user_id = ?", userID).Order("next_due_date, name"))
}

func (r *billRepository) list(ctx context.Context, q *gorm.DB) ([]*bill.Bill, error) {
	var ms []UserBill
	if err := WrapError(func() error {
		return q.WithContext(ctx).Find(&ms).Error
	}); err != nil {
		return nil, err
	}
	out := make([]*bill.Bill, 0, len(ms))
	for i := range ms {
		out = append(out, mapModelToBill(&ms[i]))
	}
	return out, nil
}

type billPaymentRepository struct {
	db *gorm.DB
}

// NewBillPaymentRepository creates a bill payment repository on the given session.
func NewBillPaymentRepository(db *gorm.DB) repository.BillPaymentRepository {
	return &billPaymentRepository{db: db}
}

func (r *billPaymentRepository) Create(ctx context.Context, p *bill.Payment) error {
	m, err := mapPaymentToModel(p)
	if err != nil {
		return err
	}
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&m).Error
	})
}

func (r *billPaymentRepository) Update(ctx context.Context, p *bill.Payment) error {
	m, err := mapPaymentToModel(p)
	if err != nil {
		return err
	}
	return WrapError(func() error {
		res := r.db.WithContext(ctx).
			Model(&BillPayment{}).
			Where("id = ?", p.ID).
			Select("status", "paid_at", "failure_reason", "updated_at").
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

func (r *billPaymentRepository) GetPendingByBill(ctx context.Context, billID uuid.UUID) (*bill.Payment, error) {
	var m BillPayment
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).
			Where("bill_id = ? AND status = ?", billID, string(bill.PaymentPending)).
			Order("created_at").
			First(&m).Error
	}); err != nil {
		return nil, err
	}
	return mapModelToPayment(&m), nil
}

func (r *billPaymentRepository) ListPending(ctx context.Context) ([]*bill.Payment, error) {
	var ms []BillPayment
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).
			Where("status = ?", string(bill.PaymentPending)).
			Order("created_at").
			Find(&ms).Error
	}); err != nil {
		return nil, err
	}
	out := make([]*bill.Payment, 0, len(ms))
	for i := range ms {
		out = append(out, mapModelToPayment(&ms[i]))
	}
	return out, nil
}
