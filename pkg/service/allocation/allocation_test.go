package allocation

import (
	"context"
	"testing"

	"github.com/amirasaad/smartledger/internal/fixtures"
	"github.com/amirasaad/smartledger/pkg/domain/account"
	"github.com/amirasaad/smartledger/pkg/domain/allocation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pct(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func percents(rules []allocation.Rule) []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.Percent.StringFixed(2))
	}
	return out
}

func TestReplaceRules(t *testing.T) {
	ctx := context.Background()
	uow := fixtures.NewUoW(t)
	userID := fixtures.ProvisionUser(t, uow)
	svc := New(uow, fixtures.Logger())

	initial, err := svc.ListRules(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []string{"40.00", "40.00", "20.00"}, percents(initial))

	t.Run("replaces the set in input order", func(t *testing.T) {
		savings := fixtures.Account(t, uow, userID, account.SlugSavings)
		rules, err := svc.ReplaceRules(ctx, userID, []RuleInput{
			{Slug: account.SlugMain, Percent: pct("70")},
			{AccountID: savings.ID, Percent: pct("30")},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"70.00", "30.00"}, percents(rules))
		assert.Equal(t, savings.ID, rules[1].AccountID)

		listed, err := svc.ListRules(ctx, userID)
		require.NoError(t, err)
		assert.Len(t, listed, 2)
	})

	for _, tc := range []struct {
		name   string
		inputs []RuleInput
		err    error
	}{
		{"sums to 99", []RuleInput{{Slug: "main", Percent: pct("59")}, {Slug: "savings", Percent: pct("40")}}, allocation.ErrAllocationInvariantViolation},
		{"sums to 101", []RuleInput{{Slug: "main", Percent: pct("61")}, {Slug: "savings", Percent: pct("40")}}, allocation.ErrAllocationInvariantViolation},
		{"empty", nil, allocation.ErrAllocationInvariantViolation},
		{"duplicate account", []RuleInput{{Slug: "main", Percent: pct("50")}, {Slug: "main", Percent: pct("50")}}, allocation.ErrDuplicateRuleAccount},
		{"three decimals", []RuleInput{{Slug: "main", Percent: pct("99.999")}, {Slug: "bills", Percent: pct("0.001")}}, allocation.ErrInvalidPercent},
		{"system account", []RuleInput{{Slug: "clearing", Percent: pct("100")}}, allocation.ErrInvalidRuleAccount},
		{"unknown slug", []RuleInput{{Slug: "holiday", Percent: pct("100")}}, allocation.ErrInvalidRuleAccount},
		{"foreign account", []RuleInput{{AccountID: uuid.New(), Percent: pct("100")}}, allocation.ErrInvalidRuleAccount},
	} {
		t.Run(tc.name+" leaves rules intact", func(t *testing.T) {
			before, err := svc.ListRules(ctx, userID)
			require.NoError(t, err)

			_, err = svc.ReplaceRules(ctx, userID, tc.inputs)
			assert.ErrorIs(t, err, tc.err)

			after, err := svc.ListRules(ctx, userID)
			require.NoError(t, err)
			assert.Equal(t, percents(before), percents(after))
		})
	}
}
