// Package metrics exposes ledger operation counters and latencies for Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomePosted    = "posted"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
	OutcomeCompleted = "completed"
	OutcomeSkipped   = "skipped"
	OutcomeReceived  = "received"
)

// Metrics groups every collector the services report to. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	deposits        *prometheus.CounterVec
	depositResidual prometheus.Counter
	billPayments    *prometheus.CounterVec
	roundups        *prometheus.CounterVec
	webhooks        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
}

// New registers the collectors on reg under namespace.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		deposits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deposits_total",
			Help:      "Deposit events processed, by provider and outcome.",
		}, []string{"provider", "outcome"}),
		depositResidual: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deposit_rounding_residual_minor_total",
			Help:      "Minor units left in clearing by allocation rounding.",
		}),
		billPayments: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bill_payments_total",
			Help:      "Bill payment attempts, by mode and outcome.",
		}, []string{"mode", "outcome"}),
		roundups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "roundups_total",
			Help:      "Round-up transfers, by outcome.",
		}, []string{"outcome"}),
		webhooks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Stored webhook payloads, by provider and processing outcome.",
		}, []string{"provider", "outcome"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Latency of ledger operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

// Deposit counts one deposit event by provider and outcome.
func (m *Metrics) Deposit(provider, outcome string) {
	if m == nil {
		return
	}
	m.deposits.WithLabelValues(provider, outcome).Inc()
}

// Residual adds the minor units a split left in clearing. Zero is ignored.
func (m *Metrics) Residual(minor int64) {
	if m == nil || minor <= 0 {
		return
	}
	m.depositResidual.Add(float64(minor))
}

// BillPayment counts one payment attempt by mode (manual or auto) and outcome.
func (m *Metrics) BillPayment(mode, outcome string) {
	if m == nil {
		return
	}
	m.billPayments.WithLabelValues(mode, outcome).Inc()
}

// Roundup counts one round-up attempt by outcome.
func (m *Metrics) Roundup(outcome string) {
	if m == nil {
		return
	}
	m.roundups.WithLabelValues(outcome).Inc()
}

// Webhook counts a stored webhook payload by provider and outcome.
func (m *Metrics) Webhook(provider, outcome string) {
	if m == nil {
		return
	}
	m.webhooks.WithLabelValues(provider, outcome).Inc()
}

// Since records the time elapsed from start for operation.
//
//	defer s.metrics.Since("deposit", time.Now())
func (m *Metrics) Since(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
