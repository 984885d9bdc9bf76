// Package deposit turns a confirmed provider payment into balanced ledger
// movements: the gross amount lands in clearing, the service fee moves to
// system revenue and the net is split across the user's buckets by their
// active allocation rules.
package deposit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/amirasaad/smartledger/pkg/domain"
	"github.com/amirasaad/smartledger/pkg/domain/account"
	"github.com/amirasaad/smartledger/pkg/domain/allocation"
	"github.com/amirasaad/smartledger/pkg/domain/ledger"
	"github.com/amirasaad/smartledger/pkg/metrics"
	"github.com/amirasaad/smartledger/pkg/money"
	"github.com/amirasaad/smartledger/pkg/provider"
	"github.com/amirasaad/smartledger/pkg/repository"
	ledgersvc "github.com/amirasaad/smartledger/pkg/service/ledger"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// ErrEventNotSucceeded is returned for events whose status is not succeeded.
var ErrEventNotSucceeded = errors.New("deposit event has not succeeded")

// Config holds the posting parameters. It is passed in explicitly; nothing
// is read from the environment here.
type Config struct {
	Currency   money.Code
	ServiceFee money.Money
}

// Validate checks that the fee is non-negative and in the ledger currency.
func (c Config) Validate() error {
	if !c.Currency.IsValid() {
		return fmt.Errorf("deposit config: %w", money.ErrInvalidCurrency)
	}
	if c.ServiceFee.Currency() != c.Currency {
		return fmt.Errorf("deposit config: service fee: %w", money.ErrCurrencyMismatch)
	}
	if c.ServiceFee.IsNegative() {
		return fmt.Errorf("deposit config: service fee: %w", money.ErrInvalidAmount)
	}
	return nil
}

// Result describes a recorded deposit.
type Result struct {
	Transaction *ledger.Transaction
	// Duplicate is true when the event had already been recorded and nothing was posted.
	Duplicate bool
	Fee       money.Money
	Split     allocation.Split
}

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

// Service records successful deposits.
type Service struct {
	uow      repository.UnitOfWork
	cfg      Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
	inflight singleflight.Group
}

// New creates a deposit Service.
func New(
	uow repository.UnitOfWork,
	cfg Config,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		uow:    uow,
		cfg:    cfg,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordSuccessfulDeposit posts a succeeded provider event for userID.
// Replaying an event that was already recorded returns the original
// transaction with Result.Duplicate set and posts nothing.
func (s *Service) RecordSuccessfulDeposit(
	ctx context.Context,
	userID uuid.UUID,
	ev provider.Event,
) (*Result, error) {
	defer s.metrics.Since("deposit", time.Now())
	logger := s.logger.With(
		"user_id", userID,
		"provider", ev.Provider,
		"reference", ev.Reference,
	)

	if err := s.check(ev); err != nil {
		logger.Warn("Deposit event rejected", "error", err)
		s.metrics.Deposit(string(ev.Provider), metrics.OutcomeFailed)
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Callers sharing a key wait on the first one, so its cancellation must
	// not fail the others; the posting runs to completion once started.
	v, err, shared := s.inflight.Do(ev.IdempotencyKey(userID), func() (any, error) {
		return s.record(context.WithoutCancel(ctx), userID, ev)
	})
	if err != nil {
		logger.Error("Deposit failed", "error", err)
		s.metrics.Deposit(string(ev.Provider), metrics.OutcomeFailed)
		return nil, err
	}
	res := *v.(*Result)
	if shared {
		// concurrent callers for the same key observe one posting
		logger.Debug("Deposit shared with in-flight duplicate")
	}
	if res.Duplicate {
		s.metrics.Deposit(string(ev.Provider), metrics.OutcomeDuplicate)
		logger.Info("Duplicate deposit event ignored", "transaction_id", res.Transaction.ID)
		return &res, nil
	}
	s.metrics.Deposit(string(ev.Provider), metrics.OutcomePosted)
	return &res, nil
}

func (s *Service) check(ev provider.Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	if ev.Provider == provider.System {
		return fmt.Errorf("%w: %s transactions are created by the ledger itself", provider.ErrUnsupportedProvider, ev.Provider)
	}
	if ev.Status != provider.StatusSucceeded {
		return fmt.Errorf("%w: status %s", ErrEventNotSucceeded, ev.Status)
	}
	if ev.Amount.Currency() != s.cfg.Currency {
		return fmt.Errorf("%w: event %s, ledger %s", money.ErrCurrencyMismatch, ev.Amount.Currency(), s.cfg.Currency)
	}
	if !ev.Amount.IsPositive() {
		return fmt.Errorf("%w: deposit amount %s", money.ErrInvalidAmount, ev.Amount)
	}
	if c, _ := ev.Amount.Cmp(s.cfg.ServiceFee); c < 0 {
		return fmt.Errorf("%w: amount %s is below the service fee %s", money.ErrInvalidAmount, ev.Amount, s.cfg.ServiceFee)
	}
	return nil
}

func (s *Service) record(ctx context.Context, userID uuid.UUID, ev provider.Event) (*Result, error) {
	var res *Result
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		existing, err := findExisting(ctx, uow, userID, ev)
		if err != nil {
			return err
		}
		if existing != nil {
			res = &Result{Transaction: existing, Duplicate: true}
			return nil
		}
		res, err = s.post(ctx, uow, userID, ev)
		return err
	})
	if errors.Is(err, domain.ErrAlreadyExists) {
		// another process inserted the same reference first; its transaction wins
		existing, findErr := findExisting(ctx, s.uow, userID, ev)
		if findErr == nil && existing != nil {
			return &Result{Transaction: existing, Duplicate: true}, nil
		}
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// findExisting returns the succeeded transaction recorded for ev, or nil.
func findExisting(
	ctx context.Context,
	uow repository.UnitOfWork,
	userID uuid.UUID,
	ev provider.Event,
) (*ledger.Transaction, error) {
	txs, err := uow.TransactionRepository()
	if err != nil {
		return nil, err
	}
	existing, err := txs.GetByProviderRef(ctx, userID, ev.Provider, ev.Reference)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	case existing.Status != ledger.StatusSucceeded:
		return nil, fmt.Errorf("%w: reference %q is held by a %s transaction", domain.ErrAlreadyExists, ev.Reference, existing.Status)
	}
	return existing, nil
}

func (s *Service) post(
	ctx context.Context,
	uow repository.UnitOfWork,
	userID uuid.UUID,
	ev provider.Event,
) (*Result, error) {
	registry, err := ledgersvc.Registry(ctx, uow, userID)
	if err != nil {
		return nil, err
	}
	system, err := registry.RequireAll(account.SlugClearing, account.SlugSystemRevenue, account.SlugSettlement)
	if err != nil {
		return nil, err
	}
	clearing, revenue, settlement := system[0], system[1], system[2]
	if clearing.Currency != ev.Amount.Currency() {
		return nil, fmt.Errorf("%w: clearing account is %s", money.ErrCurrencyMismatch, clearing.Currency)
	}

	rulesRepo, err := uow.RuleRepository()
	if err != nil {
		return nil, err
	}
	rules, err := rulesRepo.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := allocation.ValidateSum(rules); err != nil {
		return nil, err
	}
	buckets := make(map[uuid.UUID]*account.Account, len(rules))
	for _, r := range rules {
		a, err := registry.RequireID(r.AccountID)
		if err != nil {
			return nil, err
		}
		buckets[r.AccountID] = a
	}

	total := ev.Amount
	fee := s.cfg.ServiceFee
	net, err := total.Sub(fee)
	if err != nil {
		return nil, err
	}
	split, err := allocation.Apply(net, rules)
	if err != nil {
		return nil, err
	}

	journal := ledger.NewJournal(total.Currency()).
		Debit(settlement.ID, total, "Deposit received").
		Credit(clearing.ID, total, "Deposit received")
	for _, p := range split.Portions {
		bucket := buckets[p.Rule.AccountID]
		journal.
			Debit(clearing.ID, p.Amount, "Allocation to "+bucket.Name).
			Credit(bucket.ID, p.Amount, "Allocation to "+bucket.Name)
	}
	if fee.IsPositive() {
		journal.
			Debit(clearing.ID, fee, "Service fee").
			Credit(revenue.ID, fee, "Service fee")
	}

	now := s.now()
	meta := map[string]any{}
	maps.Copy(meta, ev.Meta)
	meta["fee"] = fee.StringFixed()
	meta["net"] = net.StringFixed()
	meta["residual"] = split.Residual.StringFixed()

	ref := ev.Reference
	tx := ledger.NewTransaction(userID, ev.Provider, ledger.DirectionIn, total, &ref, meta, now)
	if err := tx.MarkSucceeded(now); err != nil {
		return nil, err
	}
	if err := ledgersvc.Post(ctx, uow, tx, journal, now); err != nil {
		return nil, err
	}

	if residual, err := split.Residual.Minor(); err == nil {
		s.metrics.Residual(residual)
	}
	s.logger.Info("Deposit allocated",
		"user_id", userID,
		"transaction_id", tx.ID,
		"amount", total.String(),
		"fee", fee.String(),
		"portions", len(split.Portions),
		"residual", split.Residual.String(),
	)
	return &Result{Transaction: tx, Fee: fee, Split: split}, nil
}
