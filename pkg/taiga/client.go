package taiga

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/talhaorak/taiga-mcp/internal/logging"
	"github.com/talhaorak/taiga-mcp/pkg/domain"
	"github.com/talhaorak/taiga-mcp/pkg/observability"
	"github.com/talhaorak/taiga-mcp/pkg/ratelimit"
	"github.com/talhaorak/taiga-mcp/pkg/retry"
)

const (
	apiPrefix = "/api/v1"
	authPath  = apiPrefix + "/auth"
)

// TransportConfig fixes the pooled transport parameters at handle creation
// time. The values come from validated settings, not from call sites.
type TransportConfig struct {
	RequestTimeout     time.Duration
	MaxConnections     int
	MaxIdleConnections int
	RateLimitPerMinute int
}

// Client owns one authenticated connection to a Taiga instance: a pooled HTTP
// transport plus the auth token obtained at login. Every outbound request
// funnels through Call, which applies the rate limiter and the retry policy
// uniformly. A Client belongs to exactly one session and is closed with it.
type Client struct {
	host      string
	token     string
	http      *http.Client
	transport *http.Transport
	limiter   *ratelimit.Limiter
	policy    retry.Policy
	logger    *slog.Logger
	metrics   *observability.Metrics
	closeOnce sync.Once

	Projects    *ProjectsService
	Epics       *EpicsService
	UserStories *UserStoriesService
	Tasks       *TasksService
	Issues      *IssuesService
	Milestones  *MilestonesService
	Memberships *MembershipsService
	Wiki        *WikiService
	Users       *UsersService
}

// Option configures a Client.
type Option func(*Client)

// WithLogger attaches a logger for request-level diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithRetryPolicy overrides the default backoff policy.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) { c.policy = p }
}

// WithMetrics attaches collectors for request, retry and rate-limit counts.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithClock injects the clock used by the rate limiter. Tests use this to
// advance windows without sleeping.
func WithClock(clock domain.Clock) Option {
	return func(c *Client) {
		c.limiter = ratelimit.New(c.limiter.Limit(), clock)
	}
}

func newClient(host string, cfg TransportConfig, opts ...Option) *Client {
	transport := &http.Transport{
		MaxConnsPerHost:     cfg.MaxConnections,
		MaxIdleConns:        cfg.MaxIdleConnections,
		MaxIdleConnsPerHost: cfg.MaxIdleConnections,
	}

	c := &Client{
		host:      strings.TrimRight(host, "/"),
		transport: transport,
		http: &http.Client{
			Transport: transport,
			Timeout:   cfg.RequestTimeout,
		},
		limiter: ratelimit.New(cfg.RateLimitPerMinute, domain.SystemClock),
		policy:  retry.DefaultPolicy(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.Projects = &ProjectsService{client: c}
	c.Epics = &EpicsService{client: c}
	c.UserStories = &UserStoriesService{client: c}
	c.Tasks = &TasksService{client: c}
	c.Issues = &IssuesService{client: c}
	c.Milestones = &MilestonesService{client: c}
	c.Memberships = &MembershipsService{client: c}
	c.Wiki = &WikiService{client: c}
	c.Users = &UsersService{client: c}
	return c
}

// Login opens a pooled transport to host and performs the username/password
// exchange. On success the returned client holds the bearer token; on any
// failure (rejected credentials, unreachable host, malformed response) it
// returns a *domain.AuthError and no resources are retained.
func Login(ctx context.Context, host, username, password string, cfg TransportConfig, opts ...Option) (*Client, error) {
	if host == "" {
		return nil, &domain.AuthError{Host: host, Err: fmt.Errorf("taiga host URL cannot be empty")}
	}

	c := newClient(host, cfg, opts...)

	payload := map[string]string{
		"type":     "normal",
		"username": username,
		"password": password,
	}
	var resp struct {
		AuthToken string `json:"auth_token"`
	}
	if err := c.do(ctx, Request{Method: http.MethodPost, Path: authPath, Body: payload}, &resp); err != nil {
		c.Close()
		return nil, &domain.AuthError{Host: host, Err: err}
	}
	if resp.AuthToken == "" {
		c.Close()
		return nil, &domain.AuthError{Host: host, Err: fmt.Errorf("login response carried no auth token")}
	}

	c.token = resp.AuthToken
	c.logger.Info("Authenticated with Taiga", "host", c.host, "user", username)
	return c, nil
}

// Resume rebuilds a client from a previously issued token, e.g. a session
// record loaded from Redis after a restart. The token is not re-validated
// here; the first API call will surface a 401 if it has been revoked.
func Resume(host, token string, cfg TransportConfig, opts ...Option) *Client {
	c := newClient(host, cfg, opts...)
	c.token = token
	return c
}

// Token returns the bearer token held by this client.
func (c *Client) Token() string { return c.token }

// Host returns the Taiga instance URL this client talks to.
func (c *Client) Host() string { return c.host }

// Limiter exposes the rate limiter state, used by session_status reporting.
func (c *Client) Limiter() *ratelimit.Limiter { return c.limiter }

// Call executes one logical API operation. The rate limiter is consulted once
// per attempt (a retried call consumes budget again); a denied attempt fails
// immediately without touching the network. All other errors, network-level
// and non-2xx alike, are retried up to the policy's attempt budget, after
// which the final error is propagated unchanged.
func (c *Client) Call(ctx context.Context, req Request, out any) error {
	attempt := 0
	raw, err := retry.Do(ctx, c.policy, func() (json.RawMessage, error) {
		attempt++
		if attempt > 1 {
			c.metrics.RetryAttempted()
		}
		if err := c.limiter.Allow(); err != nil {
			c.metrics.RateLimited()
			return nil, retry.Permanent(err)
		}
		return c.roundTrip(ctx, req)
	})
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", req.Method, req.Path, err)
	}
	return nil
}

// do bypasses rate limiting and retry. Only the login exchange uses it: auth
// failures must surface immediately, never retried, and must not consume the
// session's request budget.
func (c *Client) do(ctx context.Context, req Request, out any) error {
	raw, err := c.roundTrip(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", req.Method, req.Path, err)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, req Request) (json.RawMessage, error) {
	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	url := c.host + req.Path
	if len(req.Query) > 0 {
		url += "?" + req.Query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.metrics.ObserveRequest(req.Method, 0, time.Since(start))
		return nil, fmt.Errorf("request to %s failed: %w", req.Path, err)
	}
	defer resp.Body.Close()
	c.metrics.ObserveRequest(req.Method, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", req.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.APIError{
			StatusCode: resp.StatusCode,
			Method:     req.Method,
			Path:       req.Path,
			Detail:     errorDetail(data),
		}
	}

	c.logger.Debug("Taiga API call", "method", req.Method, "path", req.Path, "status", resp.StatusCode)
	return data, nil
}

// errorDetail extracts Taiga's "_error_message" field when present, falling
// back to the raw body.
func errorDetail(body []byte) string {
	var parsed struct {
		Message string `json:"_error_message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		return parsed.Message
	}
	detail := strings.TrimSpace(string(body))
	if len(detail) > 200 {
		detail = detail[:200]
	}
	return detail
}

// Close releases the pooled transport. Safe to call on a client that never
// issued a request, and idempotent.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.transport.CloseIdleConnections()
	})
}
