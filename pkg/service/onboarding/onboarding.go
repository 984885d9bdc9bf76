// Package onboarding provisions a new user's ledger: the default accounts and
// the starting allocation rules.
package onboarding

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amirasaad/smartledger/pkg/domain/account"
	"github.com/amirasaad/smartledger/pkg/domain/allocation"
	"github.com/amirasaad/smartledger/pkg/money"
	"github.com/amirasaad/smartledger/pkg/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultRule is a starting allocation by account slug.
type DefaultRule struct {
	Slug    string
	Percent decimal.Decimal
}

// DefaultRules splits net deposits 40/40/20 across bills, savings and main.
func DefaultRules() []DefaultRule {
	return []DefaultRule{
		{Slug: account.SlugBills, Percent: decimal.NewFromInt(40)},
		{Slug: account.SlugSavings, Percent: decimal.NewFromInt(40)},
		{Slug: account.SlugMain, Percent: decimal.NewFromInt(20)},
	}
}

// Service provisions users.
type Service struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
}

// New creates a new Service with a UnitOfWork and logger.
func New(uow repository.UnitOfWork, logger *slog.Logger) *Service {
	return &Service{uow: uow, logger: logger}
}

// Provision creates whichever default accounts the user lacks and, when the
// user has no active rules, the default rule set. Running it twice is a no-op.
func (s *Service) Provision(
	ctx context.Context,
	userID uuid.UUID,
	currency money.Code,
) (accounts []*account.Account, err error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user id is required", account.ErrInvalidAccount)
	}
	if !currency.IsValid() {
		return nil, fmt.Errorf("%w: %q", money.ErrInvalidCurrency, currency)
	}
	logger := s.logger.With("user_id", userID)

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		existing, err := repo.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		have := make(map[string]bool, len(existing))
		for _, a := range existing {
			have[a.Slug] = true
		}

		created := 0
		for _, t := range account.DefaultTemplates() {
			if have[t.Slug] {
				continue
			}
			a, err := account.New().
				FromTemplate(t).
				WithUserID(userID).
				WithCurrency(currency).
				Build()
			if err != nil {
				return err
			}
			if err := repo.Create(ctx, a); err != nil {
				return fmt.Errorf("create %s account: %w", t.Slug, err)
			}
			existing = append(existing, a)
			created++
		}
		registry := account.NewRegistry(userID, existing)

		rules, err := s.ensureRules(ctx, uow, userID, registry)
		if err != nil {
			return err
		}
		logger.Info("User provisioned", "accounts_created", created, "rules_created", rules)
		accounts, err = repo.ListByUser(ctx, userID)
		return err
	})
	if err != nil {
		accounts = nil
	}
	return
}

func (s *Service) ensureRules(
	ctx context.Context,
	uow repository.UnitOfWork,
	userID uuid.UUID,
	registry *account.Registry,
) (int, error) {
	repo, err := uow.RuleRepository()
	if err != nil {
		return 0, err
	}
	active, err := repo.ListActive(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(active) > 0 {
		return 0, nil
	}
	defaults := DefaultRules()
	rules := make([]allocation.Rule, 0, len(defaults))
	for i, d := range defaults {
		a, err := registry.Require(d.Slug)
		if err != nil {
			return 0, err
		}
		r, err := allocation.NewRule(userID, a.ID, d.Percent, i)
		if err != nil {
			return 0, err
		}
		rules = append(rules, *r)
	}
	if err := allocation.ValidateSet(rules); err != nil {
		return 0, err
	}
	for i := range rules {
		if err := repo.Upsert(ctx, &rules[i]); err != nil {
			return 0, err
		}
	}
	return len(rules), nil
}
