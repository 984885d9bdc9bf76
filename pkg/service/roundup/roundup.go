// Package roundup sweeps the spare change of outbound payments from main into savings.
package roundup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/smartledger/pkg/domain"
	"github.com/amirasaad/smartledger/pkg/domain/account"
	"github.com/amirasaad/smartledger/pkg/domain/ledger"
	"github.com/amirasaad/smartledger/pkg/domain/roundup"
	"github.com/amirasaad/smartledger/pkg/metrics"
	"github.com/amirasaad/smartledger/pkg/money"
	"github.com/amirasaad/smartledger/pkg/provider"
	"github.com/amirasaad/smartledger/pkg/repository"
	ledgersvc "github.com/amirasaad/smartledger/pkg/service/ledger"
	"github.com/google/uuid"
)

// RefPrefix marks round-up transactions; the source transaction id follows it.
const RefPrefix = "roundup:"

// ConfigureInput is a user's requested round-up setting.
type ConfigureInput struct {
	Enabled bool
	RoundTo int64
	// SavingsSlug defaults to the savings bucket.
	SavingsSlug  string
	MonthlyLimit *money.Money
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

// Service configures and applies round-ups.
type Service struct {
	uow     repository.UnitOfWork
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// New creates a round-up Service.
func New(uow repository.UnitOfWork, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		uow:    uow,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configure stores the user's round-up setting.
func (s *Service) Configure(
	ctx context.Context,
	userID uuid.UUID,
	in ConfigureInput,
) (setting *roundup.Setting, err error) {
	if err := roundup.ValidateRoundTo(in.RoundTo); err != nil {
		return nil, err
	}
	slug := in.SavingsSlug
	if slug == "" {
		slug = account.SlugSavings
	}

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		registry, err := ledgersvc.Registry(ctx, uow, userID)
		if err != nil {
			return err
		}
		savings, err := registry.Require(slug)
		if err != nil {
			return err
		}
		if !savings.IsBucket() || savings.Slug == account.SlugMain {
			return fmt.Errorf("%w: round-ups cannot target %q", domain.ErrValidation, savings.Slug)
		}
		if in.MonthlyLimit != nil {
			if in.MonthlyLimit.Currency() != savings.Currency {
				return fmt.Errorf("monthly limit: %w", money.ErrCurrencyMismatch)
			}
			if in.MonthlyLimit.IsNegative() {
				return fmt.Errorf("monthly limit: %w", money.ErrInvalidAmount)
			}
		}

		repo, err := uow.RoundupRepository()
		if err != nil {
			return err
		}
		now := s.now()
		setting = &roundup.Setting{ID: uuid.New(), UserID: userID, CreatedAt: now}
		existing, err := repo.Get(ctx, userID)
		switch {
		case err == nil:
			setting.ID, setting.CreatedAt = existing.ID, existing.CreatedAt
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}
		setting.Enabled = in.Enabled
		setting.RoundTo = in.RoundTo
		setting.SavingsAccountID = savings.ID
		setting.MonthlyLimit = in.MonthlyLimit
		setting.UpdatedAt = now
		return repo.Upsert(ctx, setting)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Round-up configured", "user_id", userID, "enabled", setting.Enabled, "round_to", setting.RoundTo)
	return setting, nil
}

// ProcessRoundup sweeps the round-up of a succeeded outbound transaction into
// the configured savings account. It returns (nil, nil) when nothing applies:
// the transaction is not a succeeded outbound one, round-ups are off, the
// amount is already round, the round-up would push the month past its limit
// or main cannot cover it.
// Each source transaction is swept at most once.
func (s *Service) ProcessRoundup(
	ctx context.Context,
	transactionID uuid.UUID,
) (swept *ledger.Transaction, err error) {
	logger := s.logger.With("transaction_id", transactionID)
	skip := func(reason string) error {
		logger.Debug("Round-up skipped", "reason", reason)
		s.metrics.Roundup(metrics.OutcomeSkipped)
		return nil
	}

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		txs, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		source, err := txs.Get(ctx, transactionID)
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: %s", ledger.ErrTransactionNotFound, transactionID)
		}
		if err != nil {
			return err
		}
		if source.Direction != ledger.DirectionOut || source.Status != ledger.StatusSucceeded {
			return skip("not a succeeded outbound transaction")
		}

		settings, err := uow.RoundupRepository()
		if err != nil {
			return err
		}
		setting, err := settings.Get(ctx, source.UserID)
		if errors.Is(err, domain.ErrNotFound) {
			return skip("not configured")
		}
		if err != nil {
			return err
		}
		if !setting.Enabled {
			return skip("disabled")
		}

		ref := RefPrefix + source.ID.String()
		if _, err := txs.GetByProviderRef(ctx, source.UserID, provider.System, ref); err == nil {
			return skip("already swept")
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		amount, err := roundup.Compute(source.Amount, setting.RoundTo)
		if err != nil {
			return err
		}
		if !amount.IsPositive() {
			return skip("nothing to sweep")
		}
		now := s.now()
		usedMinor, err := txs.SumSucceeded(ctx, source.UserID, provider.System, RefPrefix, roundup.MonthStart(now))
		if err != nil {
			return err
		}
		within, err := roundup.WithinLimit(amount, money.FromMinor(amount.Currency(), usedMinor), setting.MonthlyLimit)
		if err != nil {
			return err
		}
		if !within {
			return skip("monthly limit reached")
		}

		registry, err := ledgersvc.Registry(ctx, uow, source.UserID)
		if err != nil {
			return err
		}
		mainAcct, err := registry.Require(account.SlugMain)
		if err != nil {
			return err
		}
		savings, err := registry.RequireID(setting.SavingsAccountID)
		if err != nil {
			return err
		}
		available, err := ledgersvc.Balance(ctx, uow, mainAcct)
		if err != nil {
			return err
		}
		if c, err := available.Cmp(amount); err != nil {
			return err
		} else if c < 0 {
			return skip("main balance too low")
		}

		tx := ledger.NewTransaction(source.UserID, provider.System, ledger.DirectionInternal, amount, &ref, map[string]any{
			"source_transaction_id": source.ID.String(),
			"round_to":              setting.RoundTo,
		}, now)
		if err := tx.MarkSucceeded(now); err != nil {
			return err
		}
		journal := ledger.NewJournal(amount.Currency()).
			Debit(mainAcct.ID, amount, "Round-up savings").
			Credit(savings.ID, amount, "Round-up savings")
		if err := ledgersvc.Post(ctx, uow, tx, journal, now); err != nil {
			return err
		}
		swept = tx
		return nil
	})
	if err != nil {
		s.metrics.Roundup(metrics.OutcomeFailed)
		return nil, err
	}
	if swept != nil {
		s.metrics.Roundup(metrics.OutcomeCompleted)
		logger.Info("Round-up swept", "user_id", swept.UserID, "amount", swept.Amount.String())
	}
	return swept, nil
}
