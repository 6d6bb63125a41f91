// Package http exposes the operational endpoints of the bridge: health,
// Prometheus metrics and a small session summary. It is served on a
// separate port from the MCP transports so that probes and scrapers
// never touch the tool surface.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	taigamcp "github.com/talhaorak/taiga-mcp"
	"github.com/talhaorak/taiga-mcp/pkg/observability"
)

// SessionCounter reports how many sessions are currently live.
type SessionCounter interface {
	Count() int
}

// Server is the ops-plane HTTP server.
type Server struct {
	sessions SessionCounter
	metrics  *observability.Metrics
	logger   *slog.Logger
	srv      *http.Server
}

// NewServer builds the ops server listening on addr.
func NewServer(addr string, sessions SessionCounter, metrics *observability.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		sessions: sessions,
		metrics:  metrics,
		logger:   logger,
	}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the routed handler. Exposed separately so tests can
// drive it without binding a port.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/sessions", s.handleSessions)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	return r
}

// ListenAndServe runs the server until the listener fails or Shutdown
// is called. http.ErrServerClosed is returned on clean shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("Ops server listening", "addr", s.srv.Addr)
	return s.srv.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": taigamcp.Version,
	})
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	count := 0
	if s.sessions != nil {
		count = s.sessions.Count()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"active_sessions": count,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}
