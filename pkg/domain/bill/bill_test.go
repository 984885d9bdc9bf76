package bill_test

import (
	"testing"
	"time"

	"github.com/amirasaad/smartledger/pkg/domain/bill"
	"github.com/amirasaad/smartledger/pkg/money"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextDueDate(t *testing.T) {
	// 2025-03-05 is a Wednesday.
	wednesday := time.Date(2025, 3, 5, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		freq   bill.Frequency
		dueDay int
		from   time.Time
		want   time.Time
	}{
		{"weekly next monday", bill.Weekly, 1, wednesday, date(2025, 3, 10)},
		{"weekly same weekday moves a full week", bill.Weekly, 3, wednesday, date(2025, 3, 12)},
		{"weekly sunday", bill.Weekly, 7, wednesday, date(2025, 3, 9)},
		{"monthly", bill.Monthly, 5, wednesday, date(2025, 4, 5)},
		{"monthly clamps to february", bill.Monthly, 31, date(2025, 1, 15), date(2025, 2, 28)},
		{"monthly leap year", bill.Monthly, 30, date(2024, 1, 31), date(2024, 2, 29)},
		{"monthly restores anchor after short month", bill.Monthly, 31, date(2025, 2, 28), date(2025, 3, 31)},
		{"quarterly", bill.Quarterly, 15, date(2025, 11, 20), date(2026, 2, 15)},
		{"quarterly clamps", bill.Quarterly, 31, date(2025, 1, 31), date(2025, 4, 30)},
		{"yearly", bill.Yearly, 29, date(2024, 2, 29), date(2025, 2, 28)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := bill.NextDueDate(tt.freq, tt.dueDay, tt.from)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextDueDate_Invalid(t *testing.T) {
	from := date(2025, 1, 1)
	_, err := bill.NextDueDate("daily", 1, from)
	require.ErrorIs(t, err, bill.ErrInvalidFrequency)
	_, err = bill.NextDueDate(bill.Weekly, 8, from)
	require.ErrorIs(t, err, bill.ErrInvalidDueDay)
	_, err = bill.NextDueDate(bill.Monthly, 0, from)
	require.ErrorIs(t, err, bill.ErrInvalidDueDay)
}

func TestPlanFunding(t *testing.T) {
	kes := func(s string) money.Money { return money.MustNew(money.KES, s) }

	tests := []struct {
		name      string
		amount    string
		bills     money.Money
		main      money.Money
		wantBills string
		wantMain  string
		wantErr   bool
	}{
		{"bills covers all", "50", kes("80"), kes("0"), "50.00", "0.00", false},
		{"bills then main", "50", kes("30"), kes("100"), "30.00", "20.00", false},
		{"main only", "50", kes("0"), kes("50"), "0.00", "50.00", false},
		{"negative bills treated as empty", "10", money.FromMinor(money.KES, -500), kes("10"), "0.00", "10.00", false},
		{"insufficient", "50", kes("10"), kes("39.99"), "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := bill.PlanFunding(kes(tt.amount), tt.bills, tt.main)
			if tt.wantErr {
				require.ErrorIs(t, err, bill.ErrInsufficientFunds)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBills, plan.FromBills.StringFixed())
			assert.Equal(t, tt.wantMain, plan.FromMain.StringFixed())
			assert.Equal(t, tt.amount, plan.Total().Amount().String())
		})
	}
}

func TestBillAndPaymentLifecycle(t *testing.T) {
	now := time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)
	b := &bill.Bill{
		ID:          uuid.New(),
		Amount:      money.MustNew(money.KES, "50"),
		Frequency:   bill.Monthly,
		DueDay:      5,
		AutoPay:     true,
		Active:      true,
		NextDueDate: date(2025, 3, 5),
	}
	assert.True(t, b.IsDue(now))
	assert.False(t, b.IsDue(date(2025, 3, 4)))

	p := bill.NewPayment(b, uuid.New(), now)
	assert.Equal(t, bill.PaymentPending, p.Status)
	assert.Equal(t, date(2025, 3, 5), p.DueDate)

	require.NoError(t, p.Complete(now))
	require.NotNil(t, p.PaidAt)
	require.ErrorIs(t, p.Fail("late", now), bill.ErrInvalidPaymentTransition)

	require.NoError(t, b.MarkPaid(now))
	assert.Equal(t, date(2025, 4, 5), b.NextDueDate)
	require.NotNil(t, b.LastPaidAt)
	assert.False(t, b.IsDue(now))

	failed := bill.NewPayment(b, uuid.New(), now)
	require.NoError(t, failed.Fail("insufficient funds", now))
	assert.Equal(t, "insufficient funds", failed.FailureReason)
	require.ErrorIs(t, failed.Complete(now), bill.ErrInvalidPaymentTransition)
}
