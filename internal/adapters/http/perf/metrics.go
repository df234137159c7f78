package perf

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch outcomes reported by page loaders.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeCanceled = "canceled"
	OutcomeStale    = "stale"
)

// Metrics owns a private Prometheus registry for request and fetch instrumentation.
// It also mirrors fetch timings into the ring buffer collector when one is attached.
type Metrics struct {
	registry      *prometheus.Registry
	requests      *prometheus.HistogramVec
	fetches       *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	collector     *Collector
}

// NewMetrics registers the shotbuzz metric families on a fresh registry.
// PRE: collector may be nil
// POST: Returns Metrics with process and Go runtime collectors registered
func NewMetrics(collector *Collector) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "shotbuzz",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "code"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shotbuzz",
			Name:      "fetches_total",
			Help:      "Page record fetches by collection and outcome.",
		}, []string{"collection", "outcome"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "shotbuzz",
			Name:      "fetch_duration_seconds",
			Help:      "Page record fetch latency by collection.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"collection"}),
		collector: collector,
	}
	m.registry.MustRegister(
		m.requests,
		m.fetches,
		m.fetchDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(route string, code int, d time.Duration) {
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Observe(d.Seconds())
}

// ObserveFetch records the outcome of one page fetch.
// POST: counter incremented; ring buffer receives a KindFetch entry if attached
func (m *Metrics) ObserveFetch(collection, outcome string, d time.Duration) {
	m.fetches.WithLabelValues(collection, outcome).Inc()
	m.fetchDuration.WithLabelValues(collection).Observe(d.Seconds())
	if m.collector != nil {
		m.collector.Record(Entry{
			Kind:       KindFetch,
			Path:       collection,
			Outcome:    outcome,
			DurationMs: float64(d.Microseconds()) / 1000.0,
			Timestamp:  time.Now(),
		})
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
