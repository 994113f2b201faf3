// internal/blockchain/solbc/transaction/metrics.go
package transaction

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	attemptCounter    prometheus.Counter
	failureCounter    prometheus.Counter
	outcomeCounter    *prometheus.CounterVec
	durationHistogram prometheus.Histogram
}

// NewMetrics регистрирует метрики в reg. При nil создаётся отдельный реестр.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		attemptCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wallet_tx_submit_attempts_total",
			Help: "Total number of transaction submission attempts",
		}),
		failureCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wallet_tx_submit_failures_total",
			Help: "Total number of failed submission attempts",
		}),
		outcomeCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_tx_outcomes_total",
			Help: "Terminal transaction outcomes by state",
		}, []string{"state"}),
		durationHistogram: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "wallet_tx_duration_seconds",
			Help:    "Time from signing to terminal state",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
	}
	reg.MustRegister(m.attemptCounter, m.failureCounter, m.outcomeCounter, m.durationHistogram)
	return m
}

func (m *Metrics) TrackAttempt(err error) {
	m.attemptCounter.Inc()
	if err != nil {
		m.failureCounter.Inc()
	}
}

func (m *Metrics) TrackOutcome(state State, start time.Time) {
	m.outcomeCounter.WithLabelValues(string(state)).Inc()
	m.durationHistogram.Observe(time.Since(start).Seconds())
}
