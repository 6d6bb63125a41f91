package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastPolicy keeps test runtime negligible while exercising the loop.
func fastPolicy() Policy {
	return Policy{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), fastPolicy(), func() (string, error) {
		calls++
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 1, calls)
}

func TestDo_RecoversOnThirdAttempt(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), fastPolicy(), func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 3, calls)
}

func TestDo_PropagatesFinalErrorUnchanged(t *testing.T) {
	boom := errors.New("connection refused")
	calls := 0
	_, err := Do(context.Background(), fastPolicy(), func() (struct{}, error) {
		calls++
		return struct{}{}, boom
	})

	assert.Equal(t, 3, calls)
	// The original error, not a wrapper that loses the message.
	assert.Same(t, boom, err)
}

func TestDo_BackoffIsCancellable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	p := Policy{Attempts: 3, BaseDelay: time.Hour, MaxDelay: time.Hour}
	calls := 0
	done := make(chan error, 1)
	go func() {
		_, err := Do(ctx, p, func() (struct{}, error) {
			calls++
			return struct{}{}, errors.New("always fails")
		})
		done <- err
	}()

	// Let the first attempt fail, then cancel during the backoff sleep.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	case <-time.After(2 * time.Second):
		t.Fatal("retry loop did not abort on cancellation")
	}
}

func TestDo_PermanentErrorStopsImmediately(t *testing.T) {
	boom := errors.New("budget exhausted")
	calls := 0
	_, err := Do(context.Background(), fastPolicy(), func() (struct{}, error) {
		calls++
		return struct{}{}, Permanent(boom)
	})

	assert.Equal(t, 1, calls)
	assert.Same(t, boom, err)
}

func TestPolicy_DelayBounds(t *testing.T) {
	p := DefaultPolicy()

	assert.Equal(t, 4*time.Second, p.Delay(1))
	assert.Equal(t, 8*time.Second, p.Delay(2))
	// Growth is capped at the ceiling.
	assert.Equal(t, 10*time.Second, p.Delay(3))
	assert.Equal(t, 10*time.Second, p.Delay(10))
}
