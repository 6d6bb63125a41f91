// Package mcp exposes the Taiga bridge as an MCP server. Every tool takes an
// optional session_id and falls back to the auto-authenticated default
// session when credentials are configured in the environment.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	taigamcp "github.com/talhaorak/taiga-mcp"
	"github.com/talhaorak/taiga-mcp/internal/logging"
	"github.com/talhaorak/taiga-mcp/pkg/config"
	"github.com/talhaorak/taiga-mcp/pkg/domain"
	"github.com/talhaorak/taiga-mcp/pkg/observability"
	"github.com/talhaorak/taiga-mcp/pkg/session"
	"github.com/talhaorak/taiga-mcp/pkg/taiga"
)

// DefaultSessionID is the well-known identifier of the session created from
// environment credentials. Unlike regular session IDs it is not a secret.
const DefaultSessionID = "default"

var errNoSession = errors.New("no session_id provided and no default session available; set TAIGA_USERNAME/TAIGA_PASSWORD or use the login tool")

// Server wraps the session store and exposes the Taiga tool surface over MCP.
type Server struct {
	store     *session.Store
	settings  config.Settings
	logger    *slog.Logger
	metrics   *observability.Metrics
	mcpServer *server.MCPServer

	// Serializes default-session re-authentication.
	defaultMu sync.Mutex
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// WithMetrics attaches collectors, propagated to every client the server
// creates.
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// NewServer creates the MCP server with every tool registered.
func NewServer(store *session.Store, settings config.Settings, opts ...ServerOption) *Server {
	s := &Server{
		store:    store,
		settings: settings,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mcpServer = server.NewMCPServer("taiga-bridge", strings.TrimSpace(taigamcp.Version),
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)
	s.registerSessionTools()
	s.registerProjectTools()
	s.registerUserStoryTools()
	s.registerTaskTools()
	s.registerIssueTools()
	s.registerEpicTools()
	s.registerMilestoneTools()
	s.registerWikiTools()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and blocks until the
// context is cancelled or the listener fails.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, stopping MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) transport() taiga.TransportConfig {
	return taiga.TransportConfig{
		RequestTimeout:     s.settings.RequestTimeout,
		MaxConnections:     s.settings.MaxConnections,
		MaxIdleConnections: s.settings.MaxIdleConnections,
		RateLimitPerMinute: s.settings.RateLimitPerMinute,
	}
}

func (s *Server) clientOptions() []taiga.Option {
	return []taiga.Option{
		taiga.WithLogger(s.logger),
		taiga.WithMetrics(s.metrics),
	}
}

// AutoAuthenticate logs in with the configured environment credentials and
// registers the result under the default session ID. A failure is reported
// but is not fatal: the caller can still log in manually.
func (s *Server) AutoAuthenticate(ctx context.Context) error {
	if !s.settings.HasCredentials() {
		return fmt.Errorf("no credentials configured")
	}

	s.defaultMu.Lock()
	defer s.defaultMu.Unlock()

	client, err := taiga.Login(ctx, s.settings.Host, s.settings.Username, s.settings.Password, s.transport(), s.clientOptions()...)
	if err != nil {
		return err
	}
	s.store.Adopt(ctx, DefaultSessionID, client)
	s.logger.Info("Auto-authentication successful, default session created")
	return nil
}

// resolveClient maps an optional session_id to an authenticated client. An
// empty ID selects the default session; if that one is missing or has
// expired and credentials are configured, it is re-established on the spot.
func (s *Server) resolveClient(ctx context.Context, sessionID string) (*taiga.Client, string, error) {
	if sessionID == "" {
		if !s.settings.HasCredentials() {
			return nil, "", errNoSession
		}
		sessionID = DefaultSessionID
	}

	client, err := s.store.Lookup(ctx, sessionID)
	if err != nil && sessionID == DefaultSessionID && s.settings.HasCredentials() {
		if authErr := s.AutoAuthenticate(ctx); authErr != nil {
			return nil, sessionID, authErr
		}
		client, err = s.store.Lookup(ctx, sessionID)
	}
	return client, sessionID, err
}

// jsonResult renders a successful tool result as a JSON text payload.
func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}

// toolError maps runtime errors to tool-level error results. Session errors
// get an actionable message; everything else carries its own.
func toolError(err error) *mcp.CallToolResult {
	if errors.Is(err, domain.ErrSessionNotFound) || errors.Is(err, domain.ErrSessionExpired) {
		return mcp.NewToolResultError("Invalid or expired session ID. Please login again.")
	}
	return mcp.NewToolResultError(err.Error())
}
