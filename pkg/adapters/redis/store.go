// Package redis persists session records so authenticated sessions survive a
// process restart. The in-memory registry stays authoritative; this store is
// a durable shadow of it.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/talhaorak/taiga-mcp/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Store implements session.RecordStore on Redis. Each record is a JSON value
// under prefix+id, with a ZSET index scored by expiry time for listing and
// lazy cleanup.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for persisted records. Zero means no
// expiration; normally this matches the session TTL so Redis drops records
// around the time the sweeper would.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for records.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a Redis store with its own client.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "taiga:session:",
		ttl:    0,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists one record.
func (s *Store) Save(ctx context.Context, rec domain.SessionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal session record: %w", err)
	}

	// Score = expiry time, so List can prune with ZRemRangeByScore. A zero
	// TTL gets a far-future score.
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(rec.ID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: rec.ID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save session record to redis: %w", err)
	}
	return nil
}

// Delete removes one record. Deleting an absent record is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(id))
	pipe.ZRem(ctx, s.indexKey(), id)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns every record still present, pruning expired index entries
// first. A record whose value expired between indexing and fetch is skipped
// and dropped from the index.
func (s *Store) List(ctx context.Context) ([]domain.SessionRecord, error) {
	now := float64(time.Now().Unix())
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune expired session records: %w", err)
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list session records: %w", err)
	}

	recs := make([]domain.SessionRecord, 0, len(ids))
	for _, id := range ids {
		val, err := s.client.Get(ctx, s.key(id)).Result()
		if err == backend.Nil {
			s.client.ZRem(ctx, s.indexKey(), id)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get session record %s: %w", id, err)
		}

		var rec domain.SessionRecord
		if err := json.Unmarshal([]byte(val), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session record %s: %w", id, err)
		}
		recs = append(recs, rec)
	}

	return recs, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
