package account_test

import (
	"testing"

	"github.com/amirasaad/smartledger/pkg/domain/account"
	"github.com/amirasaad/smartledger/pkg/money"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder(t *testing.T) {
	userID := uuid.New()

	t.Run("valid bucket", func(t *testing.T) {
		a, err := account.New().
			WithUserID(userID).
			WithName("Bills").
			WithSlug(account.SlugBills).
			Build()
		require.NoError(t, err)
		assert.Equal(t, userID, a.UserID)
		assert.Equal(t, money.KES, a.Currency)
		assert.True(t, a.IsBucket())
	})

	t.Run("from template", func(t *testing.T) {
		a, err := account.New().
			WithUserID(userID).
			FromTemplate(account.Template{Name: "Clearing", Slug: account.SlugClearing, Kind: account.KindSystem}).
			WithCurrency(money.UGX).
			Build()
		require.NoError(t, err)
		assert.False(t, a.IsBucket())
		assert.Equal(t, money.UGX, a.Currency)
	})

	tests := []struct {
		name    string
		builder *account.Builder
		wantErr error
	}{
		{"missing user", account.New().WithName("x").WithSlug("main"), account.ErrInvalidAccount},
		{"bad slug", account.New().WithUserID(userID).WithName("x").WithSlug("Main Wallet"), account.ErrInvalidAccount},
		{"missing name", account.New().WithUserID(userID).WithSlug("main"), account.ErrInvalidAccount},
		{"unknown kind", account.New().WithUserID(userID).WithName("x").WithSlug("main").WithKind("other"), account.ErrInvalidAccount},
		{"bad currency", account.New().WithUserID(userID).WithName("x").WithSlug("main").WithCurrency("ksh"), money.ErrInvalidCurrency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Build()
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDefaultTemplates(t *testing.T) {
	slugs := map[string]account.Kind{}
	for _, tpl := range account.DefaultTemplates() {
		slugs[tpl.Slug] = tpl.Kind
	}
	assert.Equal(t, map[string]account.Kind{
		account.SlugMain:          account.KindUserBucket,
		account.SlugBills:         account.KindUserBucket,
		account.SlugSavings:       account.KindUserBucket,
		account.SlugClearing:      account.KindSystem,
		account.SlugSystemRevenue: account.KindSystem,
		account.SlugSettlement:    account.KindSystem,
	}, slugs)
}

func TestRegistry(t *testing.T) {
	userID := uuid.New()
	var accounts []*account.Account
	for _, tpl := range account.DefaultTemplates() {
		a, err := account.New().WithUserID(userID).FromTemplate(tpl).Build()
		require.NoError(t, err)
		accounts = append(accounts, a)
	}
	archived, err := account.New().WithUserID(userID).WithName("Old").WithSlug("old").WithArchived(true).Build()
	require.NoError(t, err)
	foreign, err := account.New().WithUserID(uuid.New()).WithName("Other").WithSlug("other").Build()
	require.NoError(t, err)
	accounts = append(accounts, archived, foreign)

	reg := account.NewRegistry(userID, accounts)

	clearing, err := reg.Require(account.SlugClearing)
	require.NoError(t, err)
	assert.Equal(t, account.SlugClearing, clearing.Slug)

	byID, err := reg.RequireID(clearing.ID)
	require.NoError(t, err)
	assert.Same(t, clearing, byID)

	_, err = reg.Require("old")
	require.ErrorIs(t, err, account.ErrMissingAccount)
	_, err = reg.Require("other")
	require.ErrorIs(t, err, account.ErrMissingAccount)
	_, err = reg.RequireID(uuid.New())
	require.ErrorIs(t, err, account.ErrMissingAccount)

	got, err := reg.RequireAll(account.SlugBills, account.SlugMain)
	require.NoError(t, err)
	assert.Equal(t, account.SlugBills, got[0].Slug)
	assert.Equal(t, account.SlugMain, got[1].Slug)

	assert.True(t, reg.Has(account.SlugSettlement))
	assert.False(t, reg.Has("old"))
	assert.Len(t, reg.Accounts(), 7)
}
