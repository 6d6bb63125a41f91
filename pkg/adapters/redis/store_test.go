package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	backend "github.com/redis/go-redis/v9"

	"github.com/talhaorak/taiga-mcp/pkg/adapters/redis"
	"github.com/talhaorak/taiga-mcp/pkg/domain"
)

func testStore(t *testing.T, opts ...redis.Option) (*redis.Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	return redis.NewFromClient(client, opts...), mr
}

func record(id string) domain.SessionRecord {
	return domain.SessionRecord{
		ID:        id,
		Host:      "https://tree.taiga.io",
		Token:     "token-" + id,
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestStore_SaveListDelete(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, record("a")))
	require.NoError(t, store.Save(ctx, record("b")))

	recs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "a", recs[0].ID)
	assert.Equal(t, "token-a", recs[0].Token)
	assert.Equal(t, "https://tree.taiga.io", recs[0].Host)

	require.NoError(t, store.Delete(ctx, "a"))

	recs, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "b", recs[0].ID)
}

func TestStore_DeleteAbsent(t *testing.T) {
	store, _ := testStore(t)

	assert.NoError(t, store.Delete(context.Background(), "nope"))
}

func TestStore_TTLExpiration(t *testing.T) {
	store, mr := testStore(t, redis.WithTTL(time.Second))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, record("short-lived")))

	recs, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	// Key expiry is miniredis time; index pruning compares against the real
	// clock, so wait out the one second score as well.
	mr.FastForward(2 * time.Second)
	time.Sleep(1200 * time.Millisecond)

	recs, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestStore_Prefix(t *testing.T) {
	store, mr := testStore(t, redis.WithPrefix("bridge:sess:"))

	require.NoError(t, store.Save(context.Background(), record("pfx")))

	assert.True(t, mr.Exists("bridge:sess:pfx"))
	assert.True(t, mr.Exists("bridge:sess:index"))
}

func TestStore_SkipsValueExpiredButIndexed(t *testing.T) {
	store, mr := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, record("ghost")))
	mr.Del("taiga:session:ghost")

	recs, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, recs)
}
