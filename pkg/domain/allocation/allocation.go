// Package allocation holds the percentage rules that split a net deposit
// across a user's buckets.
package allocation

import (
	"errors"
	"fmt"
	"sort"

	"github.com/amirasaad/smartledger/pkg/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrAllocationInvariantViolation is returned when active rules do not sum to 100.
	ErrAllocationInvariantViolation = errors.New("allocation rules must sum to 100 percent")
	// ErrInvalidPercent is returned for percentages outside 0..100 or with more than 2 decimals.
	ErrInvalidPercent = errors.New("invalid allocation percent")
	// ErrDuplicateRuleAccount is returned when a rule set targets the same account twice.
	ErrDuplicateRuleAccount = errors.New("duplicate allocation account")
	// ErrInvalidRuleAccount is returned when a rule targets an account the user cannot allocate to.
	ErrInvalidRuleAccount = errors.New("invalid allocation account")
)

var (
	// Hundred is the total active rules must add up to.
	Hundred = decimal.NewFromInt(100)
	// Tolerance is how far the active total may drift from Hundred.
	Tolerance = decimal.RequireFromString("0.001")
)

// Rule directs Percent of every net deposit to AccountID.
type Rule struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	AccountID uuid.UUID
	Percent   decimal.Decimal
	Active    bool
	Priority  int
}

// NewRule returns an active rule after validating its percentage.
func NewRule(userID, accountID uuid.UUID, percent decimal.Decimal, priority int) (*Rule, error) {
	if err := ValidatePercent(percent); err != nil {
		return nil, err
	}
	return &Rule{
		ID:        uuid.New(),
		UserID:    userID,
		AccountID: accountID,
		Percent:   percent,
		Active:    true,
		Priority:  priority,
	}, nil
}

// ValidatePercent enforces 0 <= p <= 100 with at most two decimals.
func ValidatePercent(p decimal.Decimal) error {
	if p.IsNegative() || p.GreaterThan(Hundred) {
		return fmt.Errorf("%w: %s is outside 0..100", ErrInvalidPercent, p)
	}
	if !p.Equal(p.Truncate(2)) {
		return fmt.Errorf("%w: %s has more than 2 decimals", ErrInvalidPercent, p)
	}
	return nil
}

// Sum adds up the percentages of the given rules.
func Sum(rules []Rule) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rules {
		total = total.Add(r.Percent)
	}
	return total
}

// ValidateSum fails unless the rules sum to 100 within Tolerance.
// An empty rule set always fails.
func ValidateSum(rules []Rule) error {
	if len(rules) == 0 {
		return fmt.Errorf("%w: no active rules", ErrAllocationInvariantViolation)
	}
	total := Sum(rules)
	if total.Sub(Hundred).Abs().GreaterThan(Tolerance) {
		return fmt.Errorf("%w: got %s", ErrAllocationInvariantViolation, total)
	}
	return nil
}

// ValidateSet checks a full replacement set before it is persisted.
func ValidateSet(rules []Rule) error {
	seen := make(map[uuid.UUID]struct{}, len(rules))
	for _, r := range rules {
		if err := ValidatePercent(r.Percent); err != nil {
			return err
		}
		if _, dup := seen[r.AccountID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateRuleAccount, r.AccountID)
		}
		seen[r.AccountID] = struct{}{}
	}
	return ValidateSum(rules)
}

// SortByPriority orders rules ascending by priority, keeping input order on ties.
func SortByPriority(rules []Rule) []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

// Portion is the amount one rule receives.
type Portion struct {
	Rule   Rule
	Amount money.Money
}

// Split is the result of applying a rule set to a net amount.
type Split struct {
	Net      money.Money
	Portions []Portion
	// Residual is Net minus the sum of portions. It stays in clearing.
	Residual money.Money
}

// Apply splits net across the rules in priority order.
// Each portion is rounded half-up to 2 places and capped at what is left of net,
// so half-up rounding can never allocate more than was deposited.
// Portions that come out at zero are dropped.
func Apply(net money.Money, rules []Rule) (Split, error) {
	split := Split{Net: net, Residual: net}
	for _, r := range SortByPriority(rules) {
		portion, err := net.Percent(r.Percent).Min(split.Residual)
		if err != nil {
			return Split{}, err
		}
		if !portion.IsPositive() {
			continue
		}
		residual, err := split.Residual.Sub(portion)
		if err != nil {
			return Split{}, err
		}
		split.Residual = residual
		split.Portions = append(split.Portions, Portion{Rule: r, Amount: portion})
	}
	return split, nil
}
