package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionExpired is returned when a session exists but its TTL has elapsed.
// Callers should treat it the same as ErrSessionNotFound and re-authenticate.
var ErrSessionExpired = errors.New("session expired")

// AuthError indicates that the login exchange with the Taiga instance failed,
// either because of rejected credentials or because the host was unreachable.
type AuthError struct {
	Host string
	Err  error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed for %s: %v", e.Host, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// RateLimitError indicates the per-session request budget for the current
// window is exhausted. ResetAt tells the caller when capacity returns.
type RateLimitError struct {
	Limit   int
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit of %d requests/minute exceeded, window resets at %s",
		e.Limit, e.ResetAt.Format(time.RFC3339))
}

// APIError carries a non-2xx response from the Taiga API. It preserves the
// original status code and body so callers can distinguish, say, a 404 from a
// 401 instead of seeing a flattened generic failure.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("taiga api: %s %s returned %d: %s", e.Method, e.Path, e.StatusCode, e.Detail)
}

// Transient reports whether the response class is worth retrying.
func (e *APIError) Transient() bool {
	return e.StatusCode >= 500
}

// ConfigError indicates invalid startup settings. It is fatal: the runtime
// refuses to start rather than running with an unusable configuration.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}
