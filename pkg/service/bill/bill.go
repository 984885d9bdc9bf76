// Package bill pays recurring bills out of a user's bills and main buckets.
//
// A payment runs in two units of work. The first locks the bill, checks that
// no other payment is pending and that the buckets can cover it, then writes a
// pending out transaction and a pending bill payment. The second re-locks the
// bill, re-plans against fresh balances and posts the entries, completing both
// records and rescheduling the bill. A crash between the two leaves both
// records pending; ListPendingPayments surfaces them for reconciliation.
package bill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/smartledger/pkg/domain"
	"github.com/amirasaad/smartledger/pkg/domain/account"
	"github.com/amirasaad/smartledger/pkg/domain/bill"
	"github.com/amirasaad/smartledger/pkg/domain/ledger"
	"github.com/amirasaad/smartledger/pkg/metrics"
	"github.com/amirasaad/smartledger/pkg/money"
	"github.com/amirasaad/smartledger/pkg/provider"
	"github.com/amirasaad/smartledger/pkg/repository"
	ledgersvc "github.com/amirasaad/smartledger/pkg/service/ledger"
	"github.com/amirasaad/smartledger/pkg/validation"
	"github.com/google/uuid"
)

// RoundupProcessor is called after a bill payment completes.
type RoundupProcessor interface {
	ProcessRoundup(ctx context.Context, transactionID uuid.UUID) (*ledger.Transaction, error)
}

// CreateInput describes a new bill.
type CreateInput struct {
	UserID        uuid.UUID   `validate:"required"`
	Name          string      `validate:"required,max=120"`
	Category      string      `validate:"max=60"`
	Amount        money.Money `validate:"-"`
	Frequency     string      `validate:"required,oneof=weekly monthly quarterly yearly"`
	DueDay        int         `validate:"min=1,max=31"`
	MerchantCode  string      `validate:"max=64"`
	AccountNumber string      `validate:"max=64"`
	AutoPay       bool
	// FirstDueDate overrides the computed first due date.
	FirstDueDate *time.Time     `validate:"-"`
	Meta         map[string]any `validate:"-"`
}

// UpdateInput changes a bill. Nil fields are left as they are.
type UpdateInput struct {
	Name          *string      `validate:"omitnil,min=1,max=120"`
	Category      *string      `validate:"omitnil,max=60"`
	Amount        *money.Money `validate:"-"`
	Frequency     *string      `validate:"omitnil,oneof=weekly monthly quarterly yearly"`
	DueDay        *int         `validate:"omitnil,min=1,max=31"`
	MerchantCode  *string      `validate:"omitnil,max=64"`
	AccountNumber *string      `validate:"omitnil,max=64"`
	AutoPay       *bool
	Active        *bool
}

// errNotDue stops a scheduled payment of a bill another run already paid.
var errNotDue = errors.New("bill is not due")

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMetrics reports outcomes to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithRoundup runs p after every completed payment. Its failures are logged
// and never affect the payment.
func WithRoundup(p RoundupProcessor) Option {
	return func(s *Service) { s.roundup = p }
}

// Service creates and pays bills.
type Service struct {
	uow     repository.UnitOfWork
	logger  *slog.Logger
	metrics *metrics.Metrics
	roundup RoundupProcessor
	now     func() time.Time
	locks   *keyedMutex
}

// New creates a bill Service.
func New(
	uow repository.UnitOfWork,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		uow:    uow,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		locks:  newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateBill validates and stores a bill, scheduling its first due date.
func (s *Service) CreateBill(ctx context.Context, in CreateInput) (*bill.Bill, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	freq, err := bill.ParseFrequency(in.Frequency)
	if err != nil {
		return nil, err
	}
	if err := bill.ValidateDueDay(freq, in.DueDay); err != nil {
		return nil, err
	}
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: bill amount %s", money.ErrInvalidAmount, in.Amount)
	}

	now := s.now()
	next, err := bill.NextDueDate(freq, in.DueDay, now)
	if err != nil {
		return nil, err
	}
	if in.FirstDueDate != nil {
		next = *in.FirstDueDate
	}
	meta := in.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	b := &bill.Bill{
		ID:            uuid.New(),
		UserID:        in.UserID,
		Name:          in.Name,
		Category:      in.Category,
		Amount:        in.Amount,
		Frequency:     freq,
		DueDay:        in.DueDay,
		MerchantCode:  in.MerchantCode,
		AccountNumber: in.AccountNumber,
		AutoPay:       in.AutoPay,
		Active:        true,
		NextDueDate:   next,
		Meta:          meta,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		registry, err := ledgersvc.Registry(ctx, uow, in.UserID)
		if err != nil {
			return err
		}
		bills, err := registry.Require(account.SlugBills)
		if err != nil {
			return err
		}
		if bills.Currency != in.Amount.Currency() {
			return fmt.Errorf("%w: bill in %s, account in %s", money.ErrCurrencyMismatch, in.Amount.Currency(), bills.Currency)
		}
		repo, err := uow.BillRepository()
		if err != nil {
			return err
		}
		return repo.Create(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Bill created",
		"user_id", b.UserID,
		"bill_id", b.ID,
		"amount", b.Amount.String(),
		"frequency", b.Frequency,
		"next_due_date", b.NextDueDate.Format(time.DateOnly),
	)
	return b, nil
}

// ListBills returns the user's bills ordered by next due date.
func (s *Service) ListBills(ctx context.Context, userID uuid.UUID) (bills []*bill.Bill, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.BillRepository()
		if err != nil {
			return err
		}
		bills, err = repo.ListByUser(ctx, userID)
		return err
	})
	if err != nil {
		bills = nil
	}
	return
}

// UpdateBill applies in to a bill. A changed frequency or due day, or a
// reactivation, reschedules the bill from now. Bills with a payment in
// flight cannot be changed.
func (s *Service) UpdateBill(ctx context.Context, billID uuid.UUID, in UpdateInput) (*bill.Bill, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(billID)
	defer unlock()

	var updated *bill.Bill
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		b, err := lockAnyBill(ctx, uow, billID)
		if err != nil {
			return err
		}
		payments, err := uow.BillPaymentRepository()
		if err != nil {
			return err
		}
		if err := noPendingPayment(ctx, payments, billID); err != nil {
			return err
		}
		if err := applyUpdate(b, in, s.now()); err != nil {
			return err
		}
		repo, err := uow.BillRepository()
		if err != nil {
			return err
		}
		if err := repo.Update(ctx, b); err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Bill updated",
		"bill_id", updated.ID,
		"user_id", updated.UserID,
		"active", updated.Active,
		"next_due_date", updated.NextDueDate.Format(time.DateOnly),
	)
	return updated, nil
}

func applyUpdate(b *bill.Bill, in UpdateInput, now time.Time) error {
	reschedule := false
	if in.Frequency != nil {
		freq, err := bill.ParseFrequency(*in.Frequency)
		if err != nil {
			return err
		}
		reschedule = reschedule || freq != b.Frequency
		b.Frequency = freq
	}
	if in.DueDay != nil {
		reschedule = reschedule || *in.DueDay != b.DueDay
		b.DueDay = *in.DueDay
	}
	if err := bill.ValidateDueDay(b.Frequency, b.DueDay); err != nil {
		return err
	}
	if in.Amount != nil {
		if !in.Amount.IsPositive() {
			return fmt.Errorf("%w: bill amount %s", money.ErrInvalidAmount, *in.Amount)
		}
		if in.Amount.Currency() != b.Amount.Currency() {
			return fmt.Errorf("%w: bill in %s, update in %s", money.ErrCurrencyMismatch, b.Amount.Currency(), in.Amount.Currency())
		}
		b.Amount = *in.Amount
	}
	if in.Name != nil {
		b.Name = *in.Name
	}
	if in.Category != nil {
		b.Category = *in.Category
	}
	if in.MerchantCode != nil {
		b.MerchantCode = *in.MerchantCode
	}
	if in.AccountNumber != nil {
		b.AccountNumber = *in.AccountNumber
	}
	if in.AutoPay != nil {
		b.AutoPay = *in.AutoPay
	}
	if in.Active != nil {
		reschedule = reschedule || (*in.Active && !b.Active)
		b.Active = *in.Active
	}
	if reschedule {
		next, err := bill.NextDueDate(b.Frequency, b.DueDay, now)
		if err != nil {
			return err
		}
		b.NextDueDate = next
	}
	b.UpdatedAt = now
	return nil
}

// DeactivateBill stops a bill from being paid. Its payment history stays.
func (s *Service) DeactivateBill(ctx context.Context, billID uuid.UUID) (*bill.Bill, error) {
	inactive := false
	return s.UpdateBill(ctx, billID, UpdateInput{Active: &inactive})
}

// PayBill pays one bill from the bills bucket first and main for the rest.
//
// With manual set, a shortfall fails with bill.ErrInsufficientFunds. Without
// it (scheduled runs) a shortfall found before anything is written returns
// (nil, nil); one found after the pending records exist marks them failed
// and returns the failed payment.
func (s *Service) PayBill(ctx context.Context, billID uuid.UUID, manual bool) (*bill.Payment, error) {
	defer s.metrics.Since("bill_payment", time.Now())
	mode := modeLabel(manual)
	logger := s.logger.With("bill_id", billID, "mode", mode)

	unlock := s.locks.Lock(billID)
	defer unlock()

	tx, payment, err := s.reserve(ctx, billID, manual)
	if err != nil {
		if errors.Is(err, errNotDue) {
			logger.Info("Bill skipped: not due", "error", err)
			s.metrics.BillPayment(mode, metrics.OutcomeSkipped)
			return nil, nil
		}
		if errors.Is(err, bill.ErrInsufficientFunds) && !manual {
			logger.Warn("Bill skipped: insufficient funds", "error", err)
			s.metrics.BillPayment(mode, metrics.OutcomeSkipped)
			return nil, nil
		}
		logger.Error("Bill payment not started", "error", err)
		s.metrics.BillPayment(mode, metrics.OutcomeFailed)
		return nil, err
	}
	logger = logger.With("transaction_id", tx.ID, "payment_id", payment.ID)

	shortfall, err := s.settle(ctx, billID, tx, payment)
	if err != nil {
		// rolled back: both records stay pending for reconciliation
		logger.Error("Bill payment left pending", "error", err)
		s.metrics.BillPayment(mode, metrics.OutcomeFailed)
		return nil, err
	}
	if shortfall != nil {
		logger.Warn("Bill payment failed", "reason", payment.FailureReason)
		s.metrics.BillPayment(mode, metrics.OutcomeFailed)
		if manual {
			return nil, shortfall
		}
		return payment, nil
	}

	s.metrics.BillPayment(mode, metrics.OutcomeCompleted)
	logger.Info("Bill paid", "amount", payment.Amount.String(), "user_id", tx.UserID)

	if s.roundup != nil {
		if _, err := s.roundup.ProcessRoundup(ctx, tx.ID); err != nil {
			logger.Warn("Round-up after bill payment failed", "error", err)
		}
	}
	return payment, nil
}

func modeLabel(manual bool) string {
	if manual {
		return "manual"
	}
	return "auto"
}

// reserve is the first unit of work: guard, plan and write pending records.
// Scheduled payments re-check that the bill is still due under the lock, so
// overlapping runs pay each occurrence once.
func (s *Service) reserve(
	ctx context.Context,
	billID uuid.UUID,
	manual bool,
) (tx *ledger.Transaction, payment *bill.Payment, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		b, err := lockBill(ctx, uow, billID)
		if err != nil {
			return err
		}
		now := s.now()
		if !manual && !b.IsDue(now) {
			return fmt.Errorf("%w: %s next due %s", errNotDue, billID, b.NextDueDate.Format(time.DateOnly))
		}
		payments, err := uow.BillPaymentRepository()
		if err != nil {
			return err
		}
		if err := noPendingPayment(ctx, payments, billID); err != nil {
			return err
		}
		if _, _, err := plan(ctx, uow, b); err != nil {
			return err
		}

		tx = ledger.NewTransaction(b.UserID, provider.System, ledger.DirectionOut, b.Amount, nil, map[string]any{
			"bill_id":        b.ID.String(),
			"bill_name":      b.Name,
			"merchant_code":  b.MerchantCode,
			"account_number": b.AccountNumber,
		}, now)
		txs, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		if err := txs.Create(ctx, tx); err != nil {
			return err
		}
		payment = bill.NewPayment(b, tx.ID, now)
		return payments.Create(ctx, payment)
	})
	if err != nil {
		return nil, nil, err
	}
	return tx, payment, nil
}

// settle is the second unit of work. A shortfall discovered here is recorded
// on tx and payment and returned as shortfall with a nil error.
func (s *Service) settle(
	ctx context.Context,
	billID uuid.UUID,
	tx *ledger.Transaction,
	payment *bill.Payment,
) (shortfall error, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		b, err := lockBill(ctx, uow, billID)
		if err != nil {
			return err
		}
		txs, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		payments, err := uow.BillPaymentRepository()
		if err != nil {
			return err
		}
		now := s.now()

		registry, funding, planErr := plan(ctx, uow, b)
		if errors.Is(planErr, bill.ErrInsufficientFunds) {
			shortfall = planErr
			tx.Meta["failure_reason"] = planErr.Error()
			if err := tx.MarkFailed(now); err != nil {
				return err
			}
			if err := txs.UpdateStatus(ctx, tx); err != nil {
				return err
			}
			if err := payment.Fail(planErr.Error(), now); err != nil {
				return err
			}
			return payments.Update(ctx, payment)
		}
		if planErr != nil {
			return planErr
		}

		buckets, err := registry.RequireAll(account.SlugBills, account.SlugMain, account.SlugSettlement)
		if err != nil {
			return err
		}
		billsAcct, mainAcct, settlement := buckets[0], buckets[1], buckets[2]
		description := "Bill payment: " + b.Name
		journal := ledger.NewJournal(b.Amount.Currency())
		if funding.FromBills.IsPositive() {
			journal.Debit(billsAcct.ID, funding.FromBills, description)
		}
		if funding.FromMain.IsPositive() {
			journal.Debit(mainAcct.ID, funding.FromMain, description)
		}
		journal.Credit(settlement.ID, b.Amount, "Bill payout: "+b.Name)
		if err := ledgersvc.PostEntries(ctx, uow, tx.ID, journal, now); err != nil {
			return err
		}

		tx.Meta["from_bills"] = funding.FromBills.StringFixed()
		tx.Meta["from_main"] = funding.FromMain.StringFixed()
		if err := tx.MarkSucceeded(now); err != nil {
			return err
		}
		if err := txs.UpdateStatus(ctx, tx); err != nil {
			return err
		}
		if err := payment.Complete(now); err != nil {
			return err
		}
		if err := payments.Update(ctx, payment); err != nil {
			return err
		}
		if err := b.MarkPaid(now); err != nil {
			return err
		}
		billRepo, err := uow.BillRepository()
		if err != nil {
			return err
		}
		return billRepo.Update(ctx, b)
	})
	return shortfall, err
}

func noPendingPayment(ctx context.Context, payments repository.BillPaymentRepository, billID uuid.UUID) error {
	pending, err := payments.GetPendingByBill(ctx, billID)
	switch {
	case err == nil:
		return fmt.Errorf("%w: payment %s", bill.ErrPaymentInProgress, pending.ID)
	case errors.Is(err, domain.ErrNotFound):
		return nil
	default:
		return err
	}
}

// lockBill reads an active bill under a row lock.
func lockBill(ctx context.Context, uow repository.UnitOfWork, billID uuid.UUID) (*bill.Bill, error) {
	b, err := lockAnyBill(ctx, uow, billID)
	if err != nil {
		return nil, err
	}
	if !b.Active {
		return nil, fmt.Errorf("%w: %s", bill.ErrBillInactive, billID)
	}
	return b, nil
}

func lockAnyBill(ctx context.Context, uow repository.UnitOfWork, billID uuid.UUID) (*bill.Bill, error) {
	repo, err := uow.BillRepository()
	if err != nil {
		return nil, err
	}
	b, err := repo.GetForUpdate(ctx, billID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", bill.ErrBillNotFound, billID)
	}
	return b, err
}

// plan reads the bills and main balances and decides how to fund b.
func plan(
	ctx context.Context,
	uow repository.UnitOfWork,
	b *bill.Bill,
) (*account.Registry, bill.FundingPlan, error) {
	registry, err := ledgersvc.Registry(ctx, uow, b.UserID)
	if err != nil {
		return nil, bill.FundingPlan{}, err
	}
	buckets, err := registry.RequireAll(account.SlugBills, account.SlugMain, account.SlugSettlement)
	if err != nil {
		return nil, bill.FundingPlan{}, err
	}
	billsBalance, err := ledgersvc.Balance(ctx, uow, buckets[0])
	if err != nil {
		return nil, bill.FundingPlan{}, err
	}
	mainBalance, err := ledgersvc.Balance(ctx, uow, buckets[1])
	if err != nil {
		return nil, bill.FundingPlan{}, err
	}
	funding, err := bill.PlanFunding(b.Amount, billsBalance, mainBalance)
	if err != nil {
		return nil, bill.FundingPlan{}, err
	}
	return registry, funding, nil
}

// ProcessDueBills pays every due auto-pay bill. A failing bill is logged and
// skipped; the run only stops early when ctx is cancelled. It returns the
// number of payments completed.
func (s *Service) ProcessDueBills(ctx context.Context) (int, error) {
	defer s.metrics.Since("process_due_bills", time.Now())
	now := s.now()
	var due []*bill.Bill
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.BillRepository()
		if err != nil {
			return err
		}
		due, err = repo.ListDue(ctx, now)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("Processing due bills", "count", len(due))
	paid := 0
	for _, b := range due {
		if err := ctx.Err(); err != nil {
			return paid, err
		}
		payment, err := s.PayBill(ctx, b.ID, false)
		if err != nil {
			s.logger.Error("Due bill payment failed", "bill_id", b.ID, "user_id", b.UserID, "error", err)
			continue
		}
		if payment != nil && payment.Status == bill.PaymentCompleted {
			paid++
		}
	}
	s.logger.Info("Due bills processed", "due", len(due), "paid", paid)
	return paid, nil
}

// ListPendingPayments returns payments stuck between the two phases.
func (s *Service) ListPendingPayments(ctx context.Context) (payments []*bill.Payment, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.BillPaymentRepository()
		if err != nil {
			return err
		}
		payments, err = repo.ListPending(ctx)
		return err
	})
	if err != nil {
		payments = nil
	}
	return
}
