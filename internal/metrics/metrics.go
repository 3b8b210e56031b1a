// Package metrics provides Prometheus instruments for the assistant engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus instruments. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	InvocationsTotal   *prometheus.CounterVec
	InvocationDuration *prometheus.HistogramVec
	ActionsTotal       *prometheus.CounterVec
	SourceFailures     *prometheus.CounterVec
	StaleResponses     prometheus.Counter
}

// New creates the instruments and registers them with reg. Passing
// prometheus.DefaultRegisterer exposes them process-wide; tests pass a
// fresh prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		InvocationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistant_invocations_total",
				Help: "Total number of model invocations by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		InvocationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "assistant_invocation_duration_seconds",
				Help:    "Duration of model invocations in seconds",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"provider"},
		),
		ActionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistant_actions_total",
				Help: "Total number of parsed actions by kind",
			},
			[]string{"kind"},
		),
		SourceFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistant_context_source_failures_total",
				Help: "Context sources that failed and were replaced by an empty collection",
			},
			[]string{"source"},
		),
		StaleResponses: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "assistant_stale_responses_total",
				Help: "Responses discarded because a newer request superseded them",
			},
		),
	}
}

// RecordInvocation records one model call and its outcome.
func (m *Metrics) RecordInvocation(provider, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.InvocationsTotal.WithLabelValues(provider, outcome).Inc()
	m.InvocationDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordAction counts a successfully parsed action.
func (m *Metrics) RecordAction(kind string) {
	if m == nil {
		return
	}
	m.ActionsTotal.WithLabelValues(kind).Inc()
}

// RecordSourceFailure counts a degraded context source.
func (m *Metrics) RecordSourceFailure(source string) {
	if m == nil {
		return
	}
	m.SourceFailures.WithLabelValues(source).Inc()
}

// RecordStale counts a superseded response.
func (m *Metrics) RecordStale() {
	if m == nil {
		return
	}
	m.StaleResponses.Inc()
}
