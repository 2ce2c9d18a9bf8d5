// Package observability provides Prometheus metrics for the monitoring loop.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "token_monitor"

// Metrics holds all Prometheus metrics for the application. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	CyclesTotal       prometheus.Counter
	ReportsTotal      *prometheus.CounterVec
	RPCErrorsTotal    *prometheus.CounterVec
	KnownTransactions *prometheus.GaugeVec
	PollDuration      *prometheus.HistogramVec
}

// NewMetrics registers all metrics on a dedicated registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		CyclesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Number of completed monitoring iterations.",
		}),
		ReportsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_total",
			Help:      "Token creation reports emitted.",
		}, []string{"chain", "classification"}),
		RPCErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_errors_total",
			Help:      "RPC failures by chain and operation.",
		}, []string{"chain", "operation"}),
		KnownTransactions: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "known_transactions",
			Help:      "Size of the per-chain known transaction set.",
		}, []string{"chain"}),
		PollDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_duration_seconds",
			Help:      "Duration of one chain poll.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"chain"}),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveCycle() {
	if m == nil {
		return
	}
	m.CyclesTotal.Inc()
}

func (m *Metrics) ObserveReport(chain, classification string) {
	if m == nil {
		return
	}
	m.ReportsTotal.WithLabelValues(chain, classification).Inc()
}

func (m *Metrics) ObserveRPCError(chain, operation string) {
	if m == nil {
		return
	}
	m.RPCErrorsTotal.WithLabelValues(chain, operation).Inc()
}

func (m *Metrics) SetKnownTransactions(chain string, n int) {
	if m == nil {
		return
	}
	m.KnownTransactions.WithLabelValues(chain).Set(float64(n))
}

func (m *Metrics) ObservePoll(chain string, d time.Duration) {
	if m == nil {
		return
	}
	m.PollDuration.WithLabelValues(chain).Observe(d.Seconds())
}
