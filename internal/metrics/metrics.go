// Package metrics exposes Prometheus instruments for the billing API. Every
// method is safe to call on a nil *Metrics so that tests and tools can skip
// instrumentation.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Words conversion outcomes.
const (
	WordsResultOK       = "ok"
	WordsResultCacheHit = "cache_hit"
	WordsResultError    = "error"
)

// Job outcomes.
const (
	JobResultOK    = "ok"
	JobResultRetry = "retry"
	JobResultDLQ   = "dlq"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	words         *prometheus.CounterVec
	wordsDuration prometheus.Histogram
	draftsActive  prometheus.Gauge
	jobs          *prometheus.CounterVec
	breakerState  *prometheus.GaugeVec
}

// New builds a Metrics backed by its own registry, so repeated construction in
// tests never collides with prometheus.DefaultRegisterer.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gstbilling_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gstbilling_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route"}),
		words: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gstbilling_words_conversions_total",
			Help: "Amount-in-words conversions by outcome.",
		}, []string{"result"}),
		wordsDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gstbilling_words_conversion_duration_seconds",
			Help:    "Latency of uncached amount-in-words conversions.",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}),
		draftsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gstbilling_drafts_active",
			Help: "Open invoice drafts held in memory.",
		}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gstbilling_jobs_total",
			Help: "Background jobs by queue and outcome.",
		}, []string{"queue", "result"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gstbilling_circuit_breaker_state",
			Help: "Circuit breaker state: 0 closed, 1 open, 2 half-open.",
		}, []string{"name"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.words,
		m.wordsDuration,
		m.draftsActive,
		m.jobs,
		m.breakerState,
	)
	return m
}

// Registry returns the registry backing m.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request count and latency per route template.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.httpRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) ObserveWords(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.words.WithLabelValues(result).Inc()
	if result != WordsResultCacheHit {
		m.wordsDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) SetDraftsActive(n int) {
	if m == nil {
		return
	}
	m.draftsActive.Set(float64(n))
}

func (m *Metrics) ObserveJob(queue, result string) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(queue, result).Inc()
}

func (m *Metrics) SetBreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.breakerState.WithLabelValues(name).Set(float64(state))
}
