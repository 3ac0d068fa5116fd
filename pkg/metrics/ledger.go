package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics records stock ledger activity.
type LedgerMetrics struct {
	duration     *prometheus.HistogramVec
	mutations    *prometheus.CounterVec
	insufficient prometheus.Counter
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stock_ledger_tx_duration_seconds",
		Help:    "Duration of stock ledger transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_mutations_total",
		Help: "Stock mutations appended, labeled by reason.",
	}, []string{"reason"})
	insufficient := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stock_insufficient_total",
		Help: "Apply attempts rejected for insufficient stock.",
	})
	reg.MustRegister(duration, mutations, insufficient)
	return &LedgerMetrics{
		duration:     duration,
		mutations:    mutations,
		insufficient: insufficient,
	}
}

// ObserveDuration records the duration for the named ledger operation.
func (m *LedgerMetrics) ObserveDuration(op string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(op).Observe(duration.Seconds())
}

// IncMutation increments the mutation counter for the given reason.
func (m *LedgerMetrics) IncMutation(reason string) {
	if m == nil || m.mutations == nil {
		return
	}
	m.mutations.WithLabelValues(reason).Inc()
}

// IncInsufficientStock increments the rejected-apply counter.
func (m *LedgerMetrics) IncInsufficientStock() {
	if m == nil || m.insufficient == nil {
		return
	}
	m.insufficient.Inc()
}
