// Package ratelimit bounds outbound call volume per authenticated client.
//
// The limiter is a fixed-window counter: the count resets every minute rather
// than sliding, so a burst of up to twice the limit is possible across a
// window boundary. That seam is a documented property of the scheme, accepted
// in exchange for a single counter and timestamp per client.
package ratelimit

import (
	"sync"
	"time"

	"github.com/talhaorak/taiga-mcp/pkg/domain"
)

// Window is the budget period. Fixed at one minute.
const Window = time.Minute

// Limiter tracks a rolling request budget for one client handle.
// Safe for concurrent use; the check and the increment happen as one step
// under the lock, never as a separate read-then-write.
type Limiter struct {
	mu      sync.Mutex
	limit   int
	count   int
	resetAt time.Time
	clock   domain.Clock
}

// New creates a limiter allowing limit requests per minute.
func New(limit int, clock domain.Clock) *Limiter {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &Limiter{limit: limit, clock: clock}
}

// Allow consumes one unit of budget. It returns a *domain.RateLimitError when
// the window's budget is exhausted; the count is not incremented in that case.
func (l *Limiter) Allow() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if !now.Before(l.resetAt) {
		l.count = 0
		l.resetAt = now.Add(Window)
	}
	if l.count >= l.limit {
		return &domain.RateLimitError{Limit: l.limit, ResetAt: l.resetAt}
	}
	l.count++
	return nil
}

// Limit returns the configured per-window ceiling.
func (l *Limiter) Limit() int { return l.limit }

// Remaining reports the unused budget in the current window.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.clock.Now().Before(l.resetAt) {
		return l.limit
	}
	return l.limit - l.count
}

// ResetAt reports when the current window ends.
func (l *Limiter) ResetAt() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.resetAt
}
