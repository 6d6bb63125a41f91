// Package retry wraps a single logical outbound operation in a bounded
// exponential-backoff policy. Only the network call itself is retried; session
// lookups and rate-limit checks happen outside this package and report
// immediately.
package retry

import (
	"context"
	"errors"
	"time"
)

// Default policy: three attempts with delays of 4s then 8s, capped at 10s.
const (
	DefaultAttempts  = 3
	DefaultBaseDelay = 4 * time.Second
	DefaultMaxDelay  = 10 * time.Second
)

// Policy bounds the attempt count and the backoff growth.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultPolicy returns the policy described above.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:  DefaultAttempts,
		BaseDelay: DefaultBaseDelay,
		MaxDelay:  DefaultMaxDelay,
	}
}

// Delay computes the pause before the given retry: min(MaxDelay, Base*2^(n-1)).
func (p Policy) Delay(attempt int) time.Duration {
	d := p.BaseDelay << (attempt - 1)
	if d > p.MaxDelay || d <= 0 {
		d = p.MaxDelay
	}
	return d
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks an error as not worth retrying. Do stops immediately and
// returns the wrapped error as-is.
func Permanent(err error) error {
	return &permanentError{err: err}
}

// Do executes fn up to p.Attempts times, sleeping between attempts. Every
// error is treated as retryable until the attempt budget runs out, at which
// point the final attempt's error is returned untouched. Errors wrapped with
// Permanent short-circuit the loop. The backoff sleep is cancellable: a done
// context aborts the wait and returns ctx.Err().
func Do[T any](ctx context.Context, p Policy, fn func() (T, error)) (T, error) {
	var zero T
	if p.Attempts < 1 {
		p.Attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, p.Delay(attempt-1)); err != nil {
				return zero, err
			}
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return zero, perm.err
		}
		lastErr = err
	}
	return zero, lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
