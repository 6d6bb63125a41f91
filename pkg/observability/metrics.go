package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the runtime exports. All collectors live on a
// private registry so tests can run side by side without duplicate
// registration panics.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	retries         prometheus.Counter
	rateLimited     prometheus.Counter
	activeSessions  prometheus.Gauge
	sessionsCreated prometheus.Counter
	sessionsExpired prometheus.Counter
}

// NewMetrics builds and registers the full collector set.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taiga_requests_total",
				Help: "Total outbound Taiga API requests by method and status code",
			},
			[]string{"method", "code"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "taiga_request_duration_seconds",
				Help: "Duration of outbound Taiga API requests",
			},
			[]string{"method"},
		),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taiga_request_retries_total",
			Help: "Total retry attempts after a failed Taiga API request",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taiga_rate_limited_total",
			Help: "Total requests rejected by the per-session rate limiter",
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taiga_active_sessions",
			Help: "Number of live authenticated sessions",
		}),
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taiga_sessions_created_total",
			Help: "Total sessions created since start",
		}),
		sessionsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taiga_sessions_expired_total",
			Help: "Total sessions removed because their TTL elapsed",
		}),
	}
	m.registry.MustRegister(
		m.requests,
		m.requestDuration,
		m.retries,
		m.rateLimited,
		m.activeSessions,
		m.sessionsCreated,
		m.sessionsExpired,
	)
	return m
}

// Registry exposes the underlying registry, e.g. for additional collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one completed outbound request. A status code of
// zero means the request never got a response (network failure).
func (m *Metrics) ObserveRequest(method string, statusCode int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	m.requestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// RetryAttempted counts one retry of a failed request.
func (m *Metrics) RetryAttempted() {
	if m == nil {
		return
	}
	m.retries.Inc()
}

// RateLimited counts one request rejected by the limiter.
func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

// SessionOpened tracks a new session in the active gauge.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.sessionsCreated.Inc()
	m.activeSessions.Inc()
}

// SessionClosed removes a session from the active gauge. Expired marks
// whether the session was reclaimed by TTL rather than logged out.
func (m *Metrics) SessionClosed(expired bool) {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
	if expired {
		m.sessionsExpired.Inc()
	}
}
