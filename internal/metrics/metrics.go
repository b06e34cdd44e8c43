// Package metrics exposes Prometheus instrumentation for the triage
// pipeline: how messages are decided, how often the LLM fallbacks fire and
// how long an evaluation takes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the pipeline instruments. A nil *Metrics is valid and
// turns every method into a no-op, so tests and fallback-only runs need no
// registry.
type Metrics struct {
	decisions  *prometheus.CounterVec
	fallbacks  *prometheus.CounterVec
	processing prometheus.Histogram
}

// New registers the pipeline metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "triage",
			Name:      "decisions_total",
			Help:      "Terminal pipeline decisions by outcome.",
		}, []string{"decision"}),
		fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "triage",
			Name:      "llm_fallbacks_total",
			Help:      "Deterministic fallback activations by pipeline stage.",
		}, []string{"stage"}),
		processing: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "triage",
			Name:      "processing_seconds",
			Help:      "Wall-clock time spent evaluating one message.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// ObserveDecision counts a terminal decision.
func (m *Metrics) ObserveDecision(decision string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(decision).Inc()
}

// ObserveFallback counts a fallback activation for a stage.
func (m *Metrics) ObserveFallback(stage string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(stage).Inc()
}

// ObserveProcessing records one evaluation duration in seconds.
func (m *Metrics) ObserveProcessing(seconds float64) {
	if m == nil {
		return
	}
	m.processing.Observe(seconds)
}
