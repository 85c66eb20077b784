package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Decisions     *prometheus.CounterVec
	StoreErrors   *prometheus.CounterVec
	StoreLatency  *prometheus.HistogramVec
	CircuitState  prometheus.Gauge
	FallbackUsed  *prometheus.CounterVec
	CounterResets *prometheus.CounterVec
}

// New registers collectors on the default registry.
func New() *Metrics {
	return newMetrics(promauto.With(prometheus.DefaultRegisterer))
}

// NewWithRegistry registers collectors on reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	return newMetrics(promauto.With(reg))
}

func newMetrics(f promauto.Factory) *Metrics {
	return &Metrics{
		Decisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wealthgate_admission_decisions_total",
			Help: "Admission decisions by operation and outcome (allowed, denied, degraded_allowed, degraded_denied).",
		}, []string{"operation", "outcome"}),
		StoreErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wealthgate_admission_store_errors_total",
			Help: "Counter store failures by operation.",
		}, []string{"operation"}),
		StoreLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wealthgate_admission_store_latency_seconds",
			Help:    "Counter store increment latency.",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}, []string{"operation"}),
		CircuitState: f.NewGauge(prometheus.GaugeOpts{
			Name: "wealthgate_admission_circuit_state",
			Help: "Counter store circuit state: 0 closed, 1 open, 2 half-open.",
		}),
		FallbackUsed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wealthgate_admission_fallback_checks_total",
			Help: "Checks served by the in-process fallback counter.",
		}, []string{"operation"}),
		CounterResets: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wealthgate_admission_counter_resets_total",
			Help: "Counters reset through the admin API.",
		}, []string{"operation"}),
	}
}

func (m *Metrics) ObserveDecision(operation, outcome string) {
	m.Decisions.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) IncrementStoreErrors(operation string) {
	m.StoreErrors.WithLabelValues(operation).Inc()
}

func (m *Metrics) ObserveStoreLatency(operation string, seconds float64) {
	m.StoreLatency.WithLabelValues(operation).Observe(seconds)
}

func (m *Metrics) SetCircuitState(state int) {
	m.CircuitState.Set(float64(state))
}

func (m *Metrics) IncrementFallback(operation string) {
	m.FallbackUsed.WithLabelValues(operation).Inc()
}

func (m *Metrics) IncrementResets(operation string) {
	m.CounterResets.WithLabelValues(operation).Inc()
}
