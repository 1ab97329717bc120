package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the API. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Conversation metrics
	TurnsTotal       *prometheus.CounterVec
	UpstreamDuration prometheus.Histogram

	// Session metrics
	SessionsCreatedTotal prometheus.Counter
	SessionsDeletedTotal prometheus.Counter
}

// NewMetrics creates and registers all metrics on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sweep_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sweep_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),

		TurnsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sweep_conversation_turns_total",
				Help: "Conversation exchanges by outcome",
			},
			[]string{"outcome"},
		),
		UpstreamDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sweep_upstream_duration_seconds",
				Help:    "Duration of completion API calls in seconds",
				Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
			},
		),

		SessionsCreatedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sweep_sessions_created_total",
				Help: "Total number of sessions created",
			},
		),
		SessionsDeletedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sweep_sessions_deleted_total",
				Help: "Total number of sessions deleted",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.TurnsTotal,
		m.UpstreamDuration,
		m.SessionsCreatedTotal,
		m.SessionsDeletedTotal,
	)

	return m
}

// Handler returns the /metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry (for tests and custom collectors).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Turn outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeInvalid  = "invalid"
	OutcomeUpstream = "upstream_error"
	OutcomeStorage  = "storage_error"
)

func (m *Metrics) ObserveHTTP(route string, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, code).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveTurn(outcome string) {
	if m == nil {
		return
	}
	m.TurnsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveUpstream(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) SessionCreated() {
	if m == nil {
		return
	}
	m.SessionsCreatedTotal.Inc()
}

func (m *Metrics) SessionDeleted() {
	if m == nil {
		return
	}
	m.SessionsDeletedTotal.Inc()
}
