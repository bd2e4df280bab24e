// Package metrics exposes posting and book lifecycle metrics to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "collection_desk"

// Metrics holds the collectors registered on a private registry
type Metrics struct {
	registry *prometheus.Registry

	postedEntries   *prometheus.CounterVec
	ledgerDuration  prometheus.Histogram
	batches         prometheus.Counter
	notSubmitted    prometheus.Counter
	bookTransitions *prometheus.CounterVec
}

// New creates the metrics on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		postedEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "posted_entries_total",
			Help:      "Receipt entries sent to the ledger, by outcome.",
		}, []string{"outcome"}),
		ledgerDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ledger_request_duration_seconds",
			Help:      "Latency of ledger receipt creation calls.",
			Buckets:   prometheus.DefBuckets,
		}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "posting_batches_total",
			Help:      "Completed posting batches.",
		}),
		notSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "not_submitted_entries_total",
			Help:      "Entries left undispatched because the caller gave up.",
		}),
		bookTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "book_transitions_total",
			Help:      "Receipt book status transitions, by target status.",
		}, []string{"status"}),
	}

	m.registry.MustRegister(
		m.postedEntries,
		m.ledgerDuration,
		m.batches,
		m.notSubmitted,
		m.bookTransitions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveEntry records the outcome of one ledger call
func (m *Metrics) ObserveEntry(success bool, elapsed time.Duration) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.postedEntries.WithLabelValues(outcome).Inc()
	m.ledgerDuration.Observe(elapsed.Seconds())
}

// ObserveBatch records a completed batch and the entries it left behind
func (m *Metrics) ObserveBatch(notSubmitted int) {
	m.batches.Inc()
	m.notSubmitted.Add(float64(notSubmitted))
}

// ObserveTransition counts a book moving into status
func (m *Metrics) ObserveTransition(status string) {
	m.bookTransitions.WithLabelValues(status).Inc()
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
