package middleware

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talhaorak/taiga-mcp/pkg/domain"
)

// memStore is a map-backed RecordStore for observing what gets persisted.
type memStore struct {
	recs map[string]domain.SessionRecord
}

func newMemStore() *memStore {
	return &memStore{recs: make(map[string]domain.SessionRecord)}
}

func (m *memStore) Save(_ context.Context, rec domain.SessionRecord) error {
	m.recs[rec.ID] = rec
	return nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	delete(m.recs, id)
	return nil
}

func (m *memStore) List(_ context.Context) ([]domain.SessionRecord, error) {
	out := make([]domain.SessionRecord, 0, len(m.recs))
	for _, rec := range m.recs {
		out = append(out, rec)
	}
	return out, nil
}

func testKey(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

func record(id, token string) domain.SessionRecord {
	return domain.SessionRecord{
		ID:        id,
		Host:      "https://tree.taiga.io",
		Token:     token,
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestEncryption_RoundTrip(t *testing.T) {
	ctx := context.Background()
	inner := newMemStore()
	store := Chain(inner, NewEncryptionMiddleware(EncryptionConfig{ActiveKey: testKey(1)}))

	require.NoError(t, store.Save(ctx, record("s1", "secret-token")))

	// The inner store must never see the plaintext token.
	stored := inner.recs["s1"]
	assert.True(t, strings.HasPrefix(stored.Token, "enc:"))
	assert.NotContains(t, stored.Token, "secret-token")
	assert.Equal(t, "https://tree.taiga.io", stored.Host)

	recs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "secret-token", recs[0].Token)
}

func TestEncryption_KeyRotation(t *testing.T) {
	ctx := context.Background()
	inner := newMemStore()

	oldStore := Chain(inner, NewEncryptionMiddleware(EncryptionConfig{ActiveKey: testKey(1)}))
	require.NoError(t, oldStore.Save(ctx, record("s1", "old-token")))

	// New active key, old key demoted to fallback.
	newStore := Chain(inner, NewEncryptionMiddleware(EncryptionConfig{
		ActiveKey:    testKey(2),
		FallbackKeys: [][]byte{testKey(1)},
	}))

	recs, err := newStore.List(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "old-token", recs[0].Token)
}

func TestEncryption_WrongKeyFails(t *testing.T) {
	ctx := context.Background()
	inner := newMemStore()

	writer := Chain(inner, NewEncryptionMiddleware(EncryptionConfig{ActiveKey: testKey(1)}))
	require.NoError(t, writer.Save(ctx, record("s1", "secret")))

	reader := Chain(inner, NewEncryptionMiddleware(EncryptionConfig{ActiveKey: testKey(9)}))
	_, err := reader.List(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decrypt")
}

func TestEncryption_RejectsPlaintextRecord(t *testing.T) {
	ctx := context.Background()
	inner := newMemStore()
	require.NoError(t, inner.Save(ctx, record("ghost", "plain-token")))

	store := Chain(inner, NewEncryptionMiddleware(EncryptionConfig{ActiveKey: testKey(1)}))
	_, err := store.List(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encryption envelope")
}

func TestEncryption_DeletePassesThrough(t *testing.T) {
	ctx := context.Background()
	inner := newMemStore()
	store := Chain(inner, NewEncryptionMiddleware(EncryptionConfig{ActiveKey: testKey(1)}))

	require.NoError(t, store.Save(ctx, record("s1", "secret")))
	require.NoError(t, store.Delete(ctx, "s1"))
	assert.Empty(t, inner.recs)
}

func TestEncryption_ShortKeyPanics(t *testing.T) {
	assert.Panics(t, func() {
		NewEncryptionMiddleware(EncryptionConfig{ActiveKey: []byte("short")})
	})
}
