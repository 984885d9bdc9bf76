package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg, "test")

	m.Deposit("pesapal", OutcomePosted)
	m.Deposit("pesapal", OutcomePosted)
	m.Deposit("pesapal", OutcomeDuplicate)
	m.Residual(1)
	m.Residual(0)
	m.BillPayment("auto", OutcomeSkipped)
	m.Roundup(OutcomeCompleted)
	m.Webhook("flutterwave", OutcomeReceived)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.deposits.WithLabelValues("pesapal", OutcomePosted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deposits.WithLabelValues("pesapal", OutcomeDuplicate)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.depositResidual))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.billPayments.WithLabelValues("auto", OutcomeSkipped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.roundups.WithLabelValues(OutcomeCompleted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.webhooks.WithLabelValues("flutterwave", OutcomeReceived)))
}

func TestMetrics_Since(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg, "test")
	m.Since("deposit", time.Now().Add(-10*time.Millisecond))

	n, err := testutil.GatherAndCount(reg, "test_operation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Deposit("pesapal", OutcomePosted)
		m.Residual(5)
		m.BillPayment("manual", OutcomeFailed)
		m.Roundup(OutcomeSkipped)
		m.Webhook("pesapal", OutcomeFailed)
		m.Since("deposit", time.Now())
	})
}
