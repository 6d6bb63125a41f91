package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talhaorak/taiga-mcp/internal/testutils"
	"github.com/talhaorak/taiga-mcp/pkg/domain"
	"github.com/talhaorak/taiga-mcp/pkg/taiga"
)

func testClient() *taiga.Client {
	return taiga.Resume("http://localhost:9000", "tok", taiga.TransportConfig{
		RequestTimeout:     time.Second,
		MaxConnections:     2,
		MaxIdleConnections: 1,
		RateLimitPerMinute: 10,
	})
}

func TestStore_CreateThenLookup(t *testing.T) {
	clock := testutils.NewFakeClock(time.Unix(1000, 0))
	store := NewStore(time.Minute, WithClock(clock))
	ctx := context.Background()

	client := testClient()
	id, err := store.Create(ctx, client)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := store.Lookup(ctx, id)
	require.NoError(t, err)
	assert.Same(t, client, got)
}

func TestStore_LookupUnknown(t *testing.T) {
	store := NewStore(time.Minute)
	_, err := store.Lookup(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestStore_ExpiryOnLookup(t *testing.T) {
	clock := testutils.NewFakeClock(time.Unix(1000, 0))
	store := NewStore(time.Minute, WithClock(clock))
	ctx := context.Background()

	id, err := store.Create(ctx, testClient())
	require.NoError(t, err)

	clock.Advance(61 * time.Second)

	_, err = store.Lookup(ctx, id)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)

	// The expired entry was removed as a side effect: the next lookup reports
	// not-found, and a sweep has nothing left to do.
	_, err = store.Lookup(ctx, id)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	removed, err := store.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestStore_SweepIsIdempotent(t *testing.T) {
	clock := testutils.NewFakeClock(time.Unix(1000, 0))
	store := NewStore(time.Minute, WithClock(clock))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Create(ctx, testClient())
		require.NoError(t, err)
	}
	clock.Advance(30 * time.Second)
	fresh, err := store.Create(ctx, testClient())
	require.NoError(t, err)

	clock.Advance(45 * time.Second)

	removed, err := store.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	removed, err = store.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)

	// The younger session survived both sweeps.
	_, err = store.Lookup(ctx, fresh)
	assert.NoError(t, err)
}

func TestStore_Invalidate(t *testing.T) {
	store := NewStore(time.Minute)
	ctx := context.Background()

	assert.False(t, store.Invalidate(ctx, "unknown"))

	id, err := store.Create(ctx, testClient())
	require.NoError(t, err)

	assert.True(t, store.Invalidate(ctx, id))
	assert.False(t, store.Invalidate(ctx, id))

	_, err = store.Lookup(ctx, id)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestStore_ConcurrentCreate(t *testing.T) {
	store := NewStore(time.Minute)
	ctx := context.Background()

	const n = 32
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := store.Create(ctx, testClient())
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, id := range ids {
		assert.False(t, seen[id], "session ids must be distinct")
		seen[id] = true

		_, err := store.Lookup(ctx, id)
		assert.NoError(t, err)
	}
	assert.Equal(t, n, store.Count())
}

func TestStore_Status(t *testing.T) {
	clock := testutils.NewFakeClock(time.Unix(1000, 0))
	store := NewStore(time.Minute, WithClock(clock))
	ctx := context.Background()

	id, err := store.Create(ctx, testClient())
	require.NoError(t, err)

	clock.Advance(20 * time.Second)
	info, err := store.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1000, 0), info.CreatedAt)
	assert.Equal(t, time.Unix(1060, 0), info.ExpiresAt)
	assert.Equal(t, 40*time.Second, info.Remaining)

	clock.Advance(41 * time.Second)
	info, err = store.Status(ctx, id)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
	assert.Equal(t, time.Unix(1060, 0), info.ExpiresAt)

	// Status on the removed entry now reports not-found.
	_, err = store.Status(ctx, id)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

// The two timers of the runtime are independent: the rate-limit window can
// roll over while the session TTL expires.
func TestStore_SessionTTLAndRateWindowAreIndependent(t *testing.T) {
	clock := testutils.NewFakeClock(time.Unix(1000, 0))
	store := NewStore(time.Minute, WithClock(clock))
	ctx := context.Background()

	client := taiga.Resume("http://localhost:9000", "tok", taiga.TransportConfig{
		RequestTimeout:     time.Second,
		MaxConnections:     2,
		MaxIdleConnections: 1,
		RateLimitPerMinute: 2,
	}, taiga.WithClock(clock))

	id, err := store.Create(ctx, client)
	require.NoError(t, err)

	require.NoError(t, client.Limiter().Allow())
	require.NoError(t, client.Limiter().Allow())
	var rlErr *domain.RateLimitError
	require.ErrorAs(t, client.Limiter().Allow(), &rlErr)

	clock.Advance(61 * time.Second)

	// New rate window: budget is back.
	assert.NoError(t, client.Limiter().Allow())
	// But the session itself has aged out.
	_, err = store.Lookup(ctx, id)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
}
