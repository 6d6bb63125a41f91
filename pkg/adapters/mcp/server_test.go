package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talhaorak/taiga-mcp/pkg/config"
	"github.com/talhaorak/taiga-mcp/pkg/session"
)

// fakeTaiga serves just enough of the Taiga API for the tool handlers.
func fakeTaiga(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/auth", func(w http.ResponseWriter, r *http.Request) {
		var creds map[string]string
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds["password"] != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"_error_message": "invalid credentials"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"auth_token": "tok-1", "username": creds["username"]})
	})
	mux.HandleFunc("GET /api/v1/users/me", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"username": "val"})
	})
	mux.HandleFunc("GET /api/v1/projects", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"id": 1, "name": "Apollo", "slug": "apollo", "description": "moonshot", "version": 4},
			{"id": 2, "name": "Gemini", "slug": "gemini", "description": "precursor", "version": 2},
		})
	})
	mux.HandleFunc("GET /api/v1/userstories/5", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": 5, "ref": 12, "subject": "old subject", "status": 1, "project": 1, "version": 7,
		})
	})
	mux.HandleFunc("PATCH /api/v1/userstories/5", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, float64(7), body["version"])
		assert.NotContains(t, body, "bogus_field")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": 5, "ref": 12, "subject": body["subject"], "status": 1, "project": 1, "version": 8,
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testSettings(host string, withCreds bool) config.Settings {
	s := config.Settings{
		Host:                 host,
		SessionExpiry:        time.Hour,
		RequestTimeout:       5 * time.Second,
		MaxConnections:       4,
		MaxIdleConnections:   2,
		RateLimitPerMinute:   100,
		SweepInterval:        5 * time.Minute,
		SweepFailureInterval: time.Minute,
	}
	if withCreds {
		s.Username = "val"
		s.Password = "hunter2"
	}
	return s
}

func testServer(t *testing.T, withCreds bool) (*Server, *session.Store) {
	t.Helper()
	backend := fakeTaiga(t)
	store := session.NewStore(time.Hour)
	t.Cleanup(func() { store.CloseAll(context.Background()) })
	return NewServer(store, testSettings(backend.URL, withCreds)), store
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := mcp.AsTextContent(res.Content[0])
	require.True(t, ok, "expected text content")
	return text.Text
}

func TestLogin_CreatesSession(t *testing.T) {
	srv, store := testServer(t, false)

	res, err := srv.handleLogin(context.Background(), callRequest("login", map[string]any{
		"username": "val", "password": "hunter2",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var out map[string]string
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.Len(t, out["session_id"], 36)
	assert.Equal(t, 1, store.Count())
}

func TestLogin_BadCredentials(t *testing.T) {
	srv, store := testServer(t, false)

	res, err := srv.handleLogin(context.Background(), callRequest("login", map[string]any{
		"username": "val", "password": "wrong",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, 0, store.Count())
}

func TestLogin_MissingCredentials(t *testing.T) {
	srv, _ := testServer(t, false)

	res, err := srv.handleLogin(context.Background(), callRequest("login", nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "Credentials required")
}

func TestListProjects_WithExplicitSession(t *testing.T) {
	srv, _ := testServer(t, false)

	login, err := srv.handleLogin(context.Background(), callRequest("login", map[string]any{
		"username": "val", "password": "hunter2",
	}))
	require.NoError(t, err)
	var loginOut map[string]string
	require.NoError(t, json.Unmarshal([]byte(resultText(t, login)), &loginOut))

	res, err := srv.handleListProjects(context.Background(), callRequest("list_projects", map[string]any{
		"session_id": loginOut["session_id"],
		"verbosity":  "minimal",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var projects []map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &projects))
	require.Len(t, projects, 2)
	assert.Equal(t, "apollo", projects[0]["slug"])
	assert.NotContains(t, projects[0], "description")
}

func TestListProjects_NoSessionNoCredentials(t *testing.T) {
	srv, _ := testServer(t, false)

	res, err := srv.handleListProjects(context.Background(), callRequest("list_projects", nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "no session_id provided")
}

func TestListProjects_AutoAuthenticatesDefaultSession(t *testing.T) {
	srv, store := testServer(t, true)

	res, err := srv.handleListProjects(context.Background(), callRequest("list_projects", nil))
	require.NoError(t, err)
	require.False(t, res.IsError)

	// The default session was established on demand.
	_, err = store.Lookup(context.Background(), DefaultSessionID)
	assert.NoError(t, err)
}

func TestUpdateUserStory_StripsUnknownFieldsAndSendsVersion(t *testing.T) {
	srv, _ := testServer(t, true)

	res, err := srv.handleUpdateUserStory(context.Background(), callRequest("update_user_story", map[string]any{
		"user_story_id": 5,
		"kwargs": map[string]any{
			"subject":     "new subject",
			"bogus_field": "dropped",
		},
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var story map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &story))
	assert.Equal(t, "new subject", story["subject"])
	assert.Equal(t, float64(8), story["version"])
}

func TestLogout_Lifecycle(t *testing.T) {
	srv, _ := testServer(t, false)

	login, err := srv.handleLogin(context.Background(), callRequest("login", map[string]any{
		"username": "val", "password": "hunter2",
	}))
	require.NoError(t, err)
	var loginOut map[string]string
	require.NoError(t, json.Unmarshal([]byte(resultText(t, login)), &loginOut))
	id := loginOut["session_id"]

	res, err := srv.handleLogout(context.Background(), callRequest("logout", map[string]any{"session_id": id}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "logged_out")

	res, err = srv.handleLogout(context.Background(), callRequest("logout", map[string]any{"session_id": id}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "session_not_found")
}

func TestSessionStatus_Active(t *testing.T) {
	srv, _ := testServer(t, false)

	login, err := srv.handleLogin(context.Background(), callRequest("login", map[string]any{
		"username": "val", "password": "hunter2",
	}))
	require.NoError(t, err)
	var loginOut map[string]string
	require.NoError(t, json.Unmarshal([]byte(resultText(t, login)), &loginOut))

	res, err := srv.handleSessionStatus(context.Background(), callRequest("session_status", map[string]any{
		"session_id": loginOut["session_id"],
	}))
	require.NoError(t, err)

	var status map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &status))
	assert.Equal(t, "active", status["status"])
	assert.Equal(t, "val", status["username"])
	assert.Equal(t, float64(100), status["rate_limit"])
}

func TestSessionStatus_UnknownSession(t *testing.T) {
	srv, _ := testServer(t, false)

	res, err := srv.handleSessionStatus(context.Background(), callRequest("session_status", map[string]any{
		"session_id": "nope",
	}))
	require.NoError(t, err)

	var status map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &status))
	assert.Equal(t, "inactive", status["status"])
	assert.Equal(t, "not_found", status["reason"])
}

func TestGetDefaultSession_Unavailable(t *testing.T) {
	srv, _ := testServer(t, false)

	res, err := srv.handleGetDefaultSession(context.Background(), callRequest("get_default_session", nil))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "unavailable")
}

func TestGetDefaultSession_AfterAutoAuth(t *testing.T) {
	srv, _ := testServer(t, true)

	require.NoError(t, srv.AutoAuthenticate(context.Background()))

	res, err := srv.handleGetDefaultSession(context.Background(), callRequest("get_default_session", nil))
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.Equal(t, DefaultSessionID, out["session_id"])
	assert.Equal(t, true, out["auto_authenticated"])
}
