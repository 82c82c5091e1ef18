// Package metrics provides the Prometheus implementation of the
// engine's MetricsCollector port.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ragarena/arena/internal/ports"
)

// PrometheusMetrics implements ports.MetricsCollector. It tracks
// evaluation throughput, judge fallback rates, agent failures, LLM
// usage, and the score distribution per challenge.
type PrometheusMetrics struct {
	operationCounter *prometheus.CounterVec
	operationLatency *prometheus.HistogramVec
	scoreHistogram   *prometheus.HistogramVec
	valueHistogram   *prometheus.HistogramVec
}

// NewPrometheusMetrics creates a collector registered with the given
// registerer. Pass prometheus.DefaultRegisterer for the process-wide
// registry; tests pass a fresh registry to avoid duplicate
// registration panics.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		operationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scoring_operations_total",
				Help: "Total operations performed by the scoring engine.",
			},
			[]string{"operation", "challenge", "model"},
		),
		operationLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scoring_operation_duration_seconds",
				Help:    "Execution time of scoring engine operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "challenge"},
		),
		scoreHistogram: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "submission_overall_score",
				Help:    "Distribution of aggregated submission scores.",
				Buckets: prometheus.LinearBuckets(0, 1, 11),
			},
			[]string{"challenge"},
		),
		valueHistogram: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scoring_values",
				Help:    "General value distributions, such as LLM token usage.",
				Buckets: prometheus.ExponentialBuckets(1, 4, 10),
			},
			[]string{"metric", "model"},
		),
	}
}

// RecordCounter increments the operation counter for the metric.
func (pm *PrometheusMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	pm.operationCounter.WithLabelValues(metric, labels["challenge"], labels["model"]).Add(value)
}

// RecordLatency records the execution time of an operation.
func (pm *PrometheusMetrics) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	pm.operationLatency.WithLabelValues(operation, labels["challenge"]).Observe(duration.Seconds())
}

// RecordHistogram records a value distribution sample. Submission
// scores go to the dedicated score histogram; everything else lands in
// the general value histogram.
func (pm *PrometheusMetrics) RecordHistogram(metric string, value float64, labels map[string]string) {
	if metric == "submission_overall_score" {
		pm.scoreHistogram.WithLabelValues(labels["challenge"]).Observe(value)
		return
	}
	pm.valueHistogram.WithLabelValues(metric, labels["model"]).Observe(value)
}

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
