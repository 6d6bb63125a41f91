package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/talhaorak/taiga-mcp/pkg/domain"
	"github.com/talhaorak/taiga-mcp/pkg/taiga"
)

func (s *Server) registerSessionTools() {
	s.mcpServer.AddTool(mcp.NewTool("login",
		mcp.WithDescription("Logs into a Taiga instance and returns a session_id. Uses configured environment credentials for any omitted parameter."),
		mcp.WithString("host", mcp.Description("Taiga instance URL, e.g. https://api.taiga.io (optional)")),
		mcp.WithString("username", mcp.Description("Taiga username (optional)")),
		mcp.WithString("password", mcp.Description("Taiga password (optional)")),
	), s.handleLogin)

	s.mcpServer.AddTool(mcp.NewTool("logout",
		mcp.WithDescription("Invalidates a session. Uses the default session if session_id is omitted."),
		mcp.WithString("session_id", mcp.Description("Session to invalidate (optional)")),
	), s.handleLogout)

	s.mcpServer.AddTool(mcp.NewTool("session_status",
		mcp.WithDescription("Checks whether a session is active and reports its remaining lifetime and request budget. Uses the default session if session_id is omitted."),
		mcp.WithString("session_id", mcp.Description("Session to check (optional)")),
	), s.handleSessionStatus)

	s.mcpServer.AddTool(mcp.NewTool("get_default_session",
		mcp.WithDescription("Returns the default session ID if auto-authentication from environment credentials succeeded."),
	), s.handleGetDefaultSession)
}

func (s *Server) handleLogin(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Host     string `args:"host"`
		Username string `args:"username"`
		Password string `args:"password"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	host := args.Host
	if host == "" {
		host = s.settings.Host
	}
	username := args.Username
	if username == "" {
		username = s.settings.Username
	}
	password := args.Password
	if password == "" {
		password = s.settings.Password
	}

	if host == "" {
		return mcp.NewToolResultError("Host URL required. Set TAIGA_API_URL or provide the host parameter."), nil
	}
	if username == "" || password == "" {
		return mcp.NewToolResultError("Credentials required. Set TAIGA_USERNAME/TAIGA_PASSWORD or provide them as parameters."), nil
	}

	client, err := taiga.Login(ctx, host, username, password, s.transport(), s.clientOptions()...)
	if err != nil {
		return toolError(err), nil
	}

	id, err := s.store.Create(ctx, client)
	if err != nil {
		client.Close()
		return toolError(err), nil
	}

	return jsonResult(map[string]any{
		"session_id": id,
		"expires_at": time.Now().Add(s.store.TTL()).UTC().Format(time.RFC3339),
	}), nil
}

func (s *Server) handleLogout(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		SessionID string `args:"session_id"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	id := args.SessionID
	if id == "" {
		id = DefaultSessionID
	}

	if s.store.Invalidate(ctx, id) {
		return jsonResult(map[string]any{"status": "logged_out", "session_id": id}), nil
	}
	return jsonResult(map[string]any{"status": "session_not_found", "session_id": id}), nil
}

func (s *Server) handleSessionStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		SessionID string `args:"session_id"`
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	id := args.SessionID
	if id == "" {
		id = DefaultSessionID
	}

	info, err := s.store.Status(ctx, id)
	if err != nil {
		reason := "not_found"
		if errors.Is(err, domain.ErrSessionExpired) {
			reason = "expired"
		}
		return jsonResult(map[string]any{"status": "inactive", "reason": reason, "session_id": id}), nil
	}

	client, err := s.store.Lookup(ctx, id)
	if err != nil {
		return jsonResult(map[string]any{"status": "inactive", "reason": "expired", "session_id": id}), nil
	}

	// Probe the token; a 401 here means Taiga revoked it even though the
	// session is still inside its TTL.
	me, err := client.Users.Me(ctx)
	if err != nil {
		var apiErr *domain.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == 401 {
			s.store.Invalidate(ctx, id)
			return jsonResult(map[string]any{"status": "inactive", "reason": "token_invalid", "session_id": id}), nil
		}
		return toolError(err), nil
	}

	username, _ := me["username"].(string)
	limiter := client.Limiter()
	return jsonResult(map[string]any{
		"status":             "active",
		"session_id":         id,
		"username":           username,
		"created_at":         info.CreatedAt.UTC().Format(time.RFC3339),
		"expires_at":         info.ExpiresAt.UTC().Format(time.RFC3339),
		"remaining_seconds":  int(info.Remaining.Seconds()),
		"requests_remaining": limiter.Remaining(),
		"rate_limit":         limiter.Limit(),
	}), nil
}

func (s *Server) handleGetDefaultSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := s.store.Lookup(ctx, DefaultSessionID); err == nil {
		return jsonResult(map[string]any{
			"session_id":         DefaultSessionID,
			"status":             "active",
			"auto_authenticated": true,
		}), nil
	}
	return jsonResult(map[string]any{
		"status":  "unavailable",
		"message": "No default session. Set TAIGA_USERNAME/TAIGA_PASSWORD environment variables or use the login tool.",
	}), nil
}
