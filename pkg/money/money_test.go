package money_test

import (
	"testing"

	"github.com/amirasaad/smartledger/pkg/money"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		currency money.Code
		amount   string
		want     string
		wantErr  error
	}{
		{"whole amount", money.KES, "1000", "1000.00", nil},
		{"cents", money.KES, "998.50", "998.50", nil},
		{"surrounding spaces", money.USD, " 12.3 ", "12.30", nil},
		{"zero", money.KES, "0", "0.00", nil},
		{"negative", money.KES, "-1", "", money.ErrInvalidAmount},
		{"garbage", money.KES, "ten", "", money.ErrInvalidAmount},
		{"lowercase currency", "kes", "1", "", money.ErrInvalidCurrency},
		{"short currency", "KE", "1", "", money.ErrInvalidCurrency},
		{"unknown currency", "XYZ", "1", "", money.ErrInvalidCurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := money.New(tt.currency, tt.amount)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.StringFixed())
			assert.Equal(t, tt.currency, m.Currency())
		})
	}
}

func TestMinor(t *testing.T) {
	m := money.MustNew(money.KES, "998.05")
	minor, err := m.Minor()
	require.NoError(t, err)
	assert.Equal(t, int64(99805), minor)

	back := money.FromMinor(money.KES, minor)
	assert.True(t, back.Equals(m))

	_, err = money.MustNew(money.KES, "1.005").Minor()
	require.ErrorIs(t, err, money.ErrInvalidAmount)

	negative := money.FromMinor(money.KES, -250)
	assert.True(t, negative.IsNegative())
	assert.Equal(t, "-2.50", negative.StringFixed())
}

func TestArithmetic(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	a := money.MustNew(money.KES, "0.10")
	b := money.MustNew(money.KES, "0.20")

	sum, err := a.Add(b)
	require.NoError(err)
	assert.Equal("0.30", sum.StringFixed())

	diff, err := a.Sub(b)
	require.NoError(err)
	assert.Equal("-0.10", diff.StringFixed())

	_, err = a.Add(money.MustNew(money.USD, "1"))
	require.ErrorIs(err, money.ErrCurrencyMismatch)

	_, err = a.Cmp(money.MustNew(money.USD, "1"))
	require.ErrorIs(err, money.ErrCurrencyMismatch)

	lo, err := b.Min(a)
	require.NoError(err)
	assert.True(lo.Equals(a))
}

func TestPercent(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		pct    string
		want   string
	}{
		{"forty percent of 998", "998", "40", "399.20"},
		{"twenty percent of 998", "998", "20", "199.60"},
		{"third rounds down", "100", "33.33", "33.33"},
		{"half cent rounds up", "0.05", "50", "0.03"},
		{"fractional percent", "10.01", "12.5", "1.25"},
		{"zero percent", "500", "0", "0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := money.MustNew(money.KES, tt.amount)
			got := m.Percent(decimal.RequireFromString(tt.pct))
			assert.Equal(t, tt.want, got.StringFixed())
			assert.Equal(t, money.KES, got.Currency())
		})
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "KES 1000.00", money.MustNew(money.KES, "1000").String())
	assert.True(t, money.Zero(money.KES).IsZero())
	assert.False(t, money.Zero(money.KES).IsPositive())
}

func TestCode(t *testing.T) {
	assert.True(t, money.KES.IsValid())
	assert.True(t, money.Code("NGN").IsValid())
	assert.False(t, money.Code("XYZ").IsValid())
	assert.False(t, money.Code("usd").IsValid())

	assert.Equal(t, "KSh", money.KES.Symbol())
	assert.Equal(t, "XYZ", money.Code("XYZ").Symbol())
}
