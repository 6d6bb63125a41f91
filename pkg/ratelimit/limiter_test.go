package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talhaorak/taiga-mcp/internal/testutils"
	"github.com/talhaorak/taiga-mcp/pkg/domain"
)

func TestLimiter_BudgetExhaustion(t *testing.T) {
	clock := testutils.NewFakeClock(time.Unix(1000, 0))
	l := New(3, clock)

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Allow(), "call %d should fit the budget", i+1)
	}

	err := l.Allow()
	var rlErr *domain.RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, 3, rlErr.Limit)
	assert.Equal(t, clock.Now().Add(Window), rlErr.ResetAt)

	// A denied call must not consume budget: remaining stays at zero, and the
	// error keeps reporting the same reset time.
	assert.Equal(t, 0, l.Remaining())
}

func TestLimiter_WindowReset(t *testing.T) {
	clock := testutils.NewFakeClock(time.Unix(1000, 0))
	l := New(2, clock)

	require.NoError(t, l.Allow())
	require.NoError(t, l.Allow())
	require.Error(t, l.Allow())

	clock.Advance(61 * time.Second)

	assert.Equal(t, 2, l.Remaining())
	assert.NoError(t, l.Allow())
}

func TestLimiter_BoundaryIsExclusive(t *testing.T) {
	clock := testutils.NewFakeClock(time.Unix(1000, 0))
	l := New(1, clock)

	require.NoError(t, l.Allow())
	require.Error(t, l.Allow())

	// Exactly at the reset instant a new window begins.
	clock.Advance(Window)
	assert.NoError(t, l.Allow())
}

func TestLimiter_ConcurrentAllow(t *testing.T) {
	clock := testutils.NewFakeClock(time.Unix(1000, 0))
	l := New(50, clock)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Allow(); err == nil {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Check-and-increment is atomic: exactly the budget gets through.
	assert.Equal(t, 50, allowed)
}
