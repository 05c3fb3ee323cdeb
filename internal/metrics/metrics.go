// Package metrics exposes Prometheus counters for expense activity.
// All methods are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors registered for one server.
type Metrics struct {
	registry *prometheus.Registry

	expensesCreated *prometheus.CounterVec
	claims          *prometheus.CounterVec
	rpcRequests     *prometheus.CounterVec
	rpcDuration     *prometheus.HistogramVec
}

// New registers all collectors, plus Go and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		expensesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forkthebill_expenses_created_total",
			Help: "Expenses created by source (manual or image).",
		}, []string{"source"}),
		claims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forkthebill_claims_total",
			Help: "Item claim changes by operation.",
		}, []string{"op"}),
		rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forkthebill_rpc_requests_total",
			Help: "RPC requests by procedure and result code.",
		}, []string{"procedure", "code"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "forkthebill_rpc_duration_seconds",
			Help:    "RPC latency in seconds by procedure.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"procedure"}),
	}

	m.registry.MustRegister(
		m.expensesCreated,
		m.claims,
		m.rpcRequests,
		m.rpcDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ExpenseCreated counts a new expense. source is "manual" or "image".
func (m *Metrics) ExpenseCreated(source string) {
	if m == nil {
		return
	}
	m.expensesCreated.WithLabelValues(source).Inc()
}

// ItemClaimed counts a successful claim.
func (m *Metrics) ItemClaimed() {
	if m == nil {
		return
	}
	m.claims.WithLabelValues("claim").Inc()
}

// ItemUnclaimed counts a successful unclaim.
func (m *Metrics) ItemUnclaimed() {
	if m == nil {
		return
	}
	m.claims.WithLabelValues("unclaim").Inc()
}

// ObserveRPC records one finished RPC.
func (m *Metrics) ObserveRPC(procedure, code string, dur time.Duration) {
	if m == nil {
		return
	}
	m.rpcRequests.WithLabelValues(procedure, code).Inc()
	m.rpcDuration.WithLabelValues(procedure).Observe(dur.Seconds())
}
