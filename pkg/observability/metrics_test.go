package observability

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_SessionLifecycle(t *testing.T) {
	m := NewMetrics()

	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed(true)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.activeSessions))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.sessionsCreated))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.sessionsExpired))
}

func TestMetrics_RequestCounters(t *testing.T) {
	m := NewMetrics()

	m.ObserveRequest("GET", 200, 30*time.Millisecond)
	m.ObserveRequest("GET", 200, 10*time.Millisecond)
	m.ObserveRequest("POST", 502, 5*time.Millisecond)
	m.RetryAttempted()
	m.RateLimited()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.requests.WithLabelValues("GET", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues("POST", "502")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.retries))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.rateLimited))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveRequest("GET", 200, time.Millisecond)
		m.RetryAttempted()
		m.RateLimited()
		m.SessionOpened()
		m.SessionClosed(false)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.SessionOpened()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "taiga_active_sessions 1")
}
