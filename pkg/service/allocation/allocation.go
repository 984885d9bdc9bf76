// Package allocation manages a user's allocation rule set.
package allocation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amirasaad/smartledger/pkg/domain/account"
	"github.com/amirasaad/smartledger/pkg/domain/allocation"
	"github.com/amirasaad/smartledger/pkg/repository"
	ledgersvc "github.com/amirasaad/smartledger/pkg/service/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RuleInput targets an account by id or, when AccountID is zero, by slug.
type RuleInput struct {
	AccountID uuid.UUID
	Slug      string
	Percent   decimal.Decimal
}

// Service replaces and lists allocation rules.
type Service struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
}

// New creates a new Service with a UnitOfWork and logger.
func New(uow repository.UnitOfWork, logger *slog.Logger) *Service {
	return &Service{uow: uow, logger: logger}
}

// ReplaceRules swaps the user's rule set in one transaction. The whole set is
// validated before anything is written, so a rejected set leaves the previous
// rules untouched. Rule priority follows input order.
func (s *Service) ReplaceRules(
	ctx context.Context,
	userID uuid.UUID,
	inputs []RuleInput,
) (rules []allocation.Rule, err error) {
	logger := s.logger.With("user_id", userID)
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		registry, err := ledgersvc.Registry(ctx, uow, userID)
		if err != nil {
			return err
		}
		next := make([]allocation.Rule, 0, len(inputs))
		for i, in := range inputs {
			a, err := resolve(registry, in)
			if err != nil {
				return err
			}
			r, err := allocation.NewRule(userID, a.ID, in.Percent, i)
			if err != nil {
				return err
			}
			next = append(next, *r)
		}
		if err := allocation.ValidateSet(next); err != nil {
			return err
		}

		repo, err := uow.RuleRepository()
		if err != nil {
			return err
		}
		if err := repo.DeactivateAll(ctx, userID); err != nil {
			return err
		}
		for i := range next {
			if err := repo.Upsert(ctx, &next[i]); err != nil {
				return err
			}
		}
		rules, err = repo.ListActive(ctx, userID)
		return err
	})
	if err != nil {
		logger.Warn("Allocation rules rejected", "error", err)
		return nil, err
	}
	logger.Info("Allocation rules replaced", "rules", len(rules))
	return rules, nil
}

func resolve(registry *account.Registry, in RuleInput) (*account.Account, error) {
	var (
		a   *account.Account
		err error
	)
	if in.AccountID != uuid.Nil {
		a, err = registry.RequireID(in.AccountID)
	} else {
		a, err = registry.Require(in.Slug)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", allocation.ErrInvalidRuleAccount, err)
	}
	if !a.IsBucket() {
		return nil, fmt.Errorf("%w: %q is a system account", allocation.ErrInvalidRuleAccount, a.Slug)
	}
	return a, nil
}

// ListRules returns the active rules ordered by priority.
func (s *Service) ListRules(
	ctx context.Context,
	userID uuid.UUID,
) (rules []allocation.Rule, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.RuleRepository()
		if err != nil {
			return err
		}
		rules, err = repo.ListActive(ctx, userID)
		return err
	})
	if err != nil {
		rules = nil
	}
	return
}
