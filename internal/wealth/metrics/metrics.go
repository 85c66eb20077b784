package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ProviderLookups  *prometheus.CounterVec
	ProviderLatency  *prometheus.HistogramVec
	ProviderRetries  *prometheus.CounterVec
	Generations      *prometheus.CounterVec
	GenerateDuration prometheus.Histogram
	ConfidenceScores prometheus.Histogram
	SharedGenerates  prometheus.Counter
	ProfileReads     *prometheus.CounterVec
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
		ProviderLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wealthgate_wealth_provider_lookups_total",
			Help: "Provider lookups by provider and outcome (ok or the provider error category).",
		}, []string{"provider", "outcome"}),
		ProviderLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wealthgate_wealth_provider_latency_seconds",
			Help:    "Latency of a provider lookup including retries.",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"provider"}),
		ProviderRetries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wealthgate_wealth_provider_retries_total",
			Help: "Retried provider lookups.",
		}, []string{"provider"}),
		Generations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wealthgate_wealth_generations_total",
			Help: "Profile generations by outcome.",
		}, []string{"outcome"}),
		GenerateDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "wealthgate_wealth_generate_duration_seconds",
			Help:    "Time to aggregate and persist a profile.",
			Buckets: prometheus.DefBuckets,
		}),
		ConfidenceScores: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "wealthgate_wealth_confidence_score",
			Help:    "Confidence scores of generated profiles.",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
		SharedGenerates: f.NewCounter(prometheus.CounterOpts{
			Name: "wealthgate_wealth_generations_shared_total",
			Help: "Generation calls answered by an in-flight generation for the same owner.",
		}),
		ProfileReads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wealthgate_wealth_profile_reads_total",
			Help: "Profile reads by result (hit, miss).",
		}, []string{"result"}),
	}
}

func (m *Metrics) ObserveProviderLookup(provider, outcome string, d time.Duration) {
	m.ProviderLookups.WithLabelValues(provider, outcome).Inc()
	m.ProviderLatency.WithLabelValues(provider).Observe(d.Seconds())
}

func (m *Metrics) IncrementProviderRetry(provider string) {
	m.ProviderRetries.WithLabelValues(provider).Inc()
}

func (m *Metrics) ObserveGeneration(outcome string, d time.Duration) {
	m.Generations.WithLabelValues(outcome).Inc()
	m.GenerateDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveConfidenceScore(score int) {
	m.ConfidenceScores.Observe(float64(score))
}

func (m *Metrics) IncrementSharedGenerate() {
	m.SharedGenerates.Inc()
}

func (m *Metrics) IncrementProfileRead(result string) {
	m.ProfileReads.WithLabelValues(result).Inc()
}
