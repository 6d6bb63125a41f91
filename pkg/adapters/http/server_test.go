package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talhaorak/taiga-mcp/internal/logging"
	"github.com/talhaorak/taiga-mcp/pkg/observability"
)

type stubCounter int

func (c stubCounter) Count() int { return int(c) }

func TestHealthz(t *testing.T) {
	srv := NewServer(":0", stubCounter(0), nil, logging.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["version"])
}

func TestSessionsEndpoint(t *testing.T) {
	srv := NewServer(":0", stubCounter(3), nil, logging.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/sessions", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(3), body["active_sessions"])
}

func TestMetricsEndpoint(t *testing.T) {
	metrics := observability.NewMetrics()
	metrics.SessionOpened()

	srv := NewServer(":0", stubCounter(1), metrics, logging.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "taiga_active_sessions 1")
}

func TestMetricsEndpoint_Disabled(t *testing.T) {
	srv := NewServer(":0", stubCounter(0), nil, logging.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
