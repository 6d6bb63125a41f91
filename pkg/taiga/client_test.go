package taiga

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talhaorak/taiga-mcp/internal/testutils"
	"github.com/talhaorak/taiga-mcp/pkg/domain"
	"github.com/talhaorak/taiga-mcp/pkg/retry"
)

func testConfig() TransportConfig {
	return TransportConfig{
		RequestTimeout:     5 * time.Second,
		MaxConnections:     4,
		MaxIdleConnections: 2,
		RateLimitPerMinute: 100,
	}
}

// fastRetry keeps backoff sleeps out of the test runtime.
func fastRetry() Option {
	return WithRetryPolicy(retry.Policy{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond})
}

func authOK(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth":
			var creds map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
			if creds["password"] != "correct" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"_error_message": "invalid credentials"}`))
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"auth_token": "tok-123"})
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestLogin_Success(t *testing.T) {
	srv := authOK(t)
	defer srv.Close()

	client, err := Login(context.Background(), srv.URL, "alice", "correct", testConfig())
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, "tok-123", client.Token())
	assert.Equal(t, srv.URL, client.Host())
	// Login must not consume the session's request budget.
	assert.Equal(t, 100, client.Limiter().Remaining())
}

func TestLogin_BadCredentials(t *testing.T) {
	srv := authOK(t)
	defer srv.Close()

	_, err := Login(context.Background(), srv.URL, "alice", "wrong", testConfig())

	var authErr *domain.AuthError
	require.ErrorAs(t, err, &authErr)

	// The API failure detail survives inside the auth error.
	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "invalid credentials", apiErr.Detail)
}

func TestLogin_UnreachableHost(t *testing.T) {
	_, err := Login(context.Background(), "http://127.0.0.1:1", "alice", "correct", testConfig())

	var authErr *domain.AuthError
	require.ErrorAs(t, err, &authErr)
	// Network failure, not an API response.
	var apiErr *domain.APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestLogin_EmptyHost(t *testing.T) {
	_, err := Login(context.Background(), "", "alice", "correct", testConfig())
	var authErr *domain.AuthError
	require.ErrorAs(t, err, &authErr)
}

func TestCall_SendsBearerToken(t *testing.T) {
	var gotAuth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode([]map[string]any{{"id": float64(1)}})
	}))
	defer srv.Close()

	client := Resume(srv.URL, "tok-abc", testConfig(), fastRetry())
	defer client.Close()

	projects, err := client.Projects.List(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Bearer tok-abc", gotAuth.Load())
}

func TestCall_RateLimitNeverReachesNetwork(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		json.NewEncoder(w).Encode([]map[string]any{})
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.RateLimitPerMinute = 2
	clock := testutils.NewFakeClock(time.Unix(1000, 0))
	client := Resume(srv.URL, "tok", cfg, fastRetry(), WithClock(clock))
	defer client.Close()

	ctx := context.Background()
	_, err := client.Projects.List(ctx)
	require.NoError(t, err)
	_, err = client.Projects.List(ctx)
	require.NoError(t, err)

	_, err = client.Projects.List(ctx)
	var rlErr *domain.RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, 2, rlErr.Limit)

	// Denied without performing the underlying operation, and without retrying.
	assert.Equal(t, int64(2), hits.Load())

	// A new window restores the budget.
	clock.Advance(61 * time.Second)
	_, err = client.Projects.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), hits.Load())
}

func TestCall_RetriesConsumeBudgetPerAttempt(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode([]map[string]any{{"id": float64(7)}})
	}))
	defer srv.Close()

	clock := testutils.NewFakeClock(time.Unix(1000, 0))
	client := Resume(srv.URL, "tok", testConfig(), fastRetry(), WithClock(clock))
	defer client.Close()

	projects, err := client.Projects.List(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 1)

	// Three attempts, three units of budget.
	assert.Equal(t, int64(3), hits.Load())
	assert.Equal(t, 97, client.Limiter().Remaining())
}

func TestCall_FinalErrorPreservesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"_error_message": "maintenance window"}`))
	}))
	defer srv.Close()

	client := Resume(srv.URL, "tok", testConfig(), fastRetry())
	defer client.Close()

	_, err := client.Projects.List(context.Background())

	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, "maintenance window", apiErr.Detail)
}

func TestUpdate_FetchesVersionBeforePatch(t *testing.T) {
	var patched map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{"id": 5, "subject": "old", "version": 3})
		case http.MethodPatch:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&patched))
			json.NewEncoder(w).Encode(map[string]any{"id": 5, "subject": "new", "version": 4})
		}
	}))
	defer srv.Close()

	client := Resume(srv.URL, "tok", testConfig(), fastRetry())
	defer client.Close()

	updated, err := client.UserStories.Update(context.Background(), 5, map[string]any{"subject": "new"})
	require.NoError(t, err)

	assert.Equal(t, "new", updated["subject"])
	assert.Equal(t, float64(3), patched["version"])
	assert.Equal(t, "new", patched["subject"])
}

func TestUpdate_NoFieldsReturnsCurrent(t *testing.T) {
	var patches atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPatch {
			patches.Add(1)
		}
		json.NewEncoder(w).Encode(map[string]any{"id": 5, "subject": "unchanged", "version": 3})
	}))
	defer srv.Close()

	client := Resume(srv.URL, "tok", testConfig(), fastRetry())
	defer client.Close()

	current, err := client.Epics.Update(context.Background(), 5, nil)
	require.NoError(t, err)
	assert.Equal(t, "unchanged", current["subject"])
	assert.Equal(t, int64(0), patches.Load())
}

func TestClose_Idempotent(t *testing.T) {
	client := Resume("http://localhost:9000", "tok", testConfig())
	client.Close()
	client.Close() // must not panic
}
