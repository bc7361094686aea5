package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors on a dedicated registry so tests can
// build independent instances.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	submissions         *prometheus.CounterVec
	rateLimitDecisions  *prometheus.CounterVec
	deliveries          *prometheus.CounterVec
}

// NewMetrics registers all collectors plus the Go and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intake_submissions_total",
				Help: "Intake submissions by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		rateLimitDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratelimit_decisions_total",
				Help: "Rate limiter decisions by limiter",
			},
			[]string{"limiter", "decision"},
		),
		deliveries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notification_deliveries_total",
				Help: "Team notification deliveries by channel and result",
			},
			[]string{"channel", "result"},
		),
	}
}

// RecordRequest observes a finished HTTP request. path should be the route
// pattern, not the raw URL, to keep label cardinality bounded.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordSubmission counts an intake outcome such as created, duplicate or failed.
func (m *Metrics) RecordSubmission(kind, outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(kind, outcome).Inc()
}

// RecordRateLimit counts an allow or reject decision.
func (m *Metrics) RecordRateLimit(limiter string, allowed bool) {
	if m == nil {
		return
	}
	decision := "allowed"
	if !allowed {
		decision = "rejected"
	}
	m.rateLimitDecisions.WithLabelValues(limiter, decision).Inc()
}

// RecordDelivery counts a notification attempt.
func (m *Metrics) RecordDelivery(channel string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.deliveries.WithLabelValues(channel, result).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
