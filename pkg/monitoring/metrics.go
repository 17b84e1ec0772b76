// Package monitoring exposes Prometheus collectors for the API and the calculators.
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tradelens"

// Registry owns a private Prometheus registry so tests and multiple servers
// never collide on the global one
// ⭐ SSOT: 모든 메트릭 정의는 여기서만
type Registry struct {
	reg *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	calcDuration    *prometheus.HistogramVec
	featuresSkipped prometheus.Counter
	rateLimited     prometheus.Counter
	cacheLookups    *prometheus.CounterVec
}

// NewRegistry creates and registers every collector
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		calcDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "calculation_duration_seconds",
				Help:      "Calculator run time in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0},
			},
			[]string{"calculator"},
		),

		featuresSkipped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "feature_analysis_skipped_total",
				Help:      "Feature columns dropped from a ranking because their analysis failed",
			},
		),

		rateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_rate_limited_total",
				Help:      "Requests rejected by the rate limiter",
			},
		),

		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "result_cache_lookups_total",
				Help:      "Analysis result cache lookups",
			},
			[]string{"result"},
		),
	}

	r.reg.MustRegister(
		r.requestsTotal,
		r.requestDuration,
		r.calcDuration,
		r.featuresSkipped,
		r.rateLimited,
		r.cacheLookups,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Handler serves the /metrics endpoint
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Gatherer exposes the registry for tests
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// ObserveRequest records one HTTP request
func (r *Registry) ObserveRequest(method, route, status string, d time.Duration) {
	if r == nil {
		return
	}
	r.requestsTotal.WithLabelValues(method, route, status).Inc()
	r.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveCalculation records one calculator run
func (r *Registry) ObserveCalculation(calculator string, d time.Duration) {
	if r == nil {
		return
	}
	r.calcDuration.WithLabelValues(calculator).Observe(d.Seconds())
}

// FeatureSkipped counts a feature dropped from a ranking
func (r *Registry) FeatureSkipped() {
	if r == nil {
		return
	}
	r.featuresSkipped.Inc()
}

// RateLimited counts a rejected request
func (r *Registry) RateLimited() {
	if r == nil {
		return
	}
	r.rateLimited.Inc()
}

// CacheLookup counts a result cache hit or miss
func (r *Registry) CacheLookup(hit bool) {
	if r == nil {
		return
	}
	if hit {
		r.cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	r.cacheLookups.WithLabelValues("miss").Inc()
}
