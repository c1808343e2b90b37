package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the process-wide Prometheus collectors. One instance is
// created at startup and shared through dependency injection.
type Metrics struct {
	registry *prometheus.Registry

	AnalysesTotal     *prometheus.CounterVec
	AnalysisDuration  prometheus.Histogram
	ThreatsGenerated  prometheus.Histogram
	GeneratorFailures *prometheus.CounterVec
	CacheHits         *prometheus.CounterVec
	IntelDegraded     prometheus.Counter
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	ActiveStreams     prometheus.Gauge
}

// NewMetrics registers all collectors on a fresh registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	m := &Metrics{
		registry: registry,
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "threatscope",
			Name:      "analyses_total",
			Help:      "Completed analyses by outcome",
		}, []string{"outcome"}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "threatscope",
			Name:      "analysis_duration_seconds",
			Help:      "End-to-end analysis pipeline duration",
			Buckets:   prometheus.DefBuckets,
		}),
		ThreatsGenerated: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "threatscope",
			Name:      "threats_generated",
			Help:      "Number of threats in a finished analysis",
			Buckets:   []float64{0, 1, 2, 5, 10, 15, 20, 25},
		}),
		GeneratorFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "threatscope",
			Name:      "generator_failures_total",
			Help:      "Generator failures contained at the generator boundary",
		}, []string{"generator"}),
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "threatscope",
			Name:      "result_cache_requests_total",
			Help:      "Result cache lookups by outcome",
		}, []string{"outcome"}),
		IntelDegraded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "threatscope",
			Name:      "intel_degraded_total",
			Help:      "Analyses that ran with degraded intelligence",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "threatscope",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"route", "method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "threatscope",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		ActiveStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "threatscope",
			Name:      "active_stream_clients",
			Help:      "Currently connected WebSocket clients",
		}),
	}

	registry.MustRegister(
		m.AnalysesTotal,
		m.AnalysisDuration,
		m.ThreatsGenerated,
		m.GeneratorFailures,
		m.CacheHits,
		m.IntelDegraded,
		m.HTTPRequests,
		m.HTTPDuration,
		m.ActiveStreams,
	)
	return m
}

// Handler returns the plain-text exposition endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// GeneratorFailure counts one contained failure for the named generator.
// Satisfies the generator registry's failure-counter seam.
func (m *Metrics) GeneratorFailure(slug string) {
	m.GeneratorFailures.WithLabelValues(slug).Inc()
}
