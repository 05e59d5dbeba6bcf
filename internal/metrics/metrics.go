package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Failure stages recorded on the polls counter.
const (
	StageRequest   = "request"
	StageFetch     = "fetch"
	StageTransform = "transform"
	StageValidate  = "validation"
	StagePublish   = "publish"
)

// Metrics holds the Prometheus collectors for the polling pipeline.
type Metrics struct {
	registry *prometheus.Registry

	polls         *prometheus.CounterVec
	publishes     *prometheus.CounterVec
	cycleDuration prometheus.Histogram
}

// New creates a Metrics with its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		polls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stockpoller_polls_total",
			Help: "Per-symbol poll outcomes by source, result and failure stage.",
		}, []string{"source", "symbol", "result", "stage"}),
		publishes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stockpoller_publishes_total",
			Help: "Queue publish outcomes by queue type and result.",
		}, []string{"queue", "result"}),
		cycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "stockpoller_cycle_duration_seconds",
			Help:    "Duration of one full poll cycle across all symbols.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}
}

// RecordPollSuccess records one successful symbol poll.
func (m *Metrics) RecordPollSuccess(source, symbol string) {
	m.polls.WithLabelValues(source, symbol, "success", "").Inc()
}

// RecordPollFailure records one failed symbol poll with the stage that
// failed.
func (m *Metrics) RecordPollFailure(source, symbol, stage string) {
	m.polls.WithLabelValues(source, symbol, "failure", stage).Inc()
}

// RecordPublish records a queue publish outcome.
func (m *Metrics) RecordPublish(queue string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.publishes.WithLabelValues(queue, result).Inc()
}

// ObserveCycle records the duration of one poll cycle, in seconds.
func (m *Metrics) ObserveCycle(seconds float64) {
	m.cycleDuration.Observe(seconds)
}

// Handler returns the Prometheus exposition handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
