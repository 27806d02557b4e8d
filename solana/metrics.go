package solana

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts pipeline outcomes. A nil *Metrics records nothing.
type Metrics struct {
	registry          *prometheus.Registry
	transfersTotal    *prometheus.CounterVec
	transactionsTotal prometheus.Counter
	transferDuration  prometheus.Histogram
}

func NewMetrics() *Metrics {
	transfers := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cb_transfers_total",
		Help: "Confidential transfers by result; failures are labeled with the failing stage",
	}, []string{"result", "stage"})

	transactions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cb_transfer_transactions_confirmed_total",
		Help: "Bundle transactions confirmed on chain",
	})

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cb_transfer_duration_seconds",
		Help:    "Wall time of one transfer pipeline run",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 90},
	})

	r := prometheus.NewRegistry()
	r.MustRegister(transfers, transactions, duration)

	return &Metrics{
		registry:          r,
		transfersTotal:    transfers,
		transactionsTotal: transactions,
		transferDuration:  duration,
	}
}

// Handler serves the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// observeTransfer records one run; an empty stage means success.
func (m *Metrics) observeTransfer(failedAt Stage, d time.Duration) {
	if m == nil {
		return
	}
	if failedAt == "" {
		m.transfersTotal.WithLabelValues("success", "").Inc()
	} else {
		m.transfersTotal.WithLabelValues("failure", string(failedAt)).Inc()
	}
	m.transferDuration.Observe(d.Seconds())
}

func (m *Metrics) incTransaction() {
	if m == nil {
		return
	}
	m.transactionsTotal.Inc()
}
