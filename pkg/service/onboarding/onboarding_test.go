package onboarding_test

import (
	"context"
	"testing"

	"github.com/amirasaad/smartledger/internal/fixtures"
	"github.com/amirasaad/smartledger/pkg/domain/account"
	"github.com/amirasaad/smartledger/pkg/money"
	"github.com/amirasaad/smartledger/pkg/service/onboarding"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvision(t *testing.T) {
	ctx := context.Background()
	uow := fixtures.NewUoW(t)
	svc := onboarding.New(uow, fixtures.Logger())
	userID := uuid.New()

	accounts, err := svc.Provision(ctx, userID, money.KES)
	require.NoError(t, err)
	require.Len(t, accounts, len(account.DefaultTemplates()))

	kinds := map[string]account.Kind{}
	for _, a := range accounts {
		kinds[a.Slug] = a.Kind
		assert.Equal(t, money.KES, a.Currency)
		assert.Equal(t, userID, a.UserID)
	}
	assert.Equal(t, account.KindUserBucket, kinds[account.SlugMain])
	assert.Equal(t, account.KindSystem, kinds[account.SlugSettlement])

	rulesRepo, err := uow.RuleRepository()
	require.NoError(t, err)
	rules, err := rulesRepo.ListActive(ctx, userID)
	require.NoError(t, err)
	require.Len(t, rules, 3)
	bills := fixtures.Account(t, uow, userID, account.SlugBills)
	assert.Equal(t, bills.ID, rules[0].AccountID)
	assert.True(t, rules[0].Percent.Equal(decimal.NewFromInt(40)), rules[0].Percent.String())

	again, err := svc.Provision(ctx, userID, money.KES)
	require.NoError(t, err)
	assert.Len(t, again, len(accounts))
	rules, err = rulesRepo.ListActive(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, rules, 3)
}

func TestProvision_InvalidInput(t *testing.T) {
	svc := onboarding.New(fixtures.NewUoW(t), fixtures.Logger())

	_, err := svc.Provision(context.Background(), uuid.Nil, money.KES)
	assert.ErrorIs(t, err, account.ErrInvalidAccount)

	_, err = svc.Provision(context.Background(), uuid.New(), money.Code("XYZ"))
	assert.ErrorIs(t, err, money.ErrInvalidCurrency)
}

func TestDefaultRulesSumToHundred(t *testing.T) {
	total := 0.0
	for _, r := range onboarding.DefaultRules() {
		total += r.Percent.InexactFloat64()
	}
	assert.InDelta(t, 100.0, total, 0.0001)
}
