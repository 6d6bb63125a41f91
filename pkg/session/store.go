package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"sync"

	"github.com/google/uuid"

	"github.com/talhaorak/taiga-mcp/internal/logging"
	"github.com/talhaorak/taiga-mcp/pkg/domain"
	"github.com/talhaorak/taiga-mcp/pkg/observability"
	"github.com/talhaorak/taiga-mcp/pkg/taiga"
)

// Session binds an opaque identifier to one authenticated client handle. The
// handle is owned exclusively by its session: it is created at login,
// immutable for the session's life, and closed when the session dies.
type Session struct {
	ID        string
	Client    *taiga.Client
	CreatedAt time.Time
}

// Info is the session_status projection of a session.
type Info struct {
	CreatedAt time.Time
	ExpiresAt time.Time
	Remaining time.Duration
}

// RecordStore persists session records so sessions survive a process restart.
// Implementations must tolerate concurrent use.
type RecordStore interface {
	Save(ctx context.Context, rec domain.SessionRecord) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.SessionRecord, error)
}

// Store is the process-wide registry of live authenticated handles. It is the
// single shared mutable structure of the runtime; all map access happens
// under the mutex, and client teardown happens outside it.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session

	ttl     time.Duration
	clock   domain.Clock
	logger  *slog.Logger
	records RecordStore
	metrics *observability.Metrics
}

// Option configures a Store.
type Option func(*Store)

// WithClock injects a controllable time source.
func WithClock(clock domain.Clock) Option {
	return func(s *Store) { s.clock = clock }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithMetrics attaches session lifecycle collectors.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithRecordStore enables durable session records (e.g. Redis). Persistence
// is best-effort: the in-memory registry remains authoritative.
func WithRecordStore(rs RecordStore) Option {
	return func(s *Store) { s.records = rs }
}

// NewStore creates a registry whose sessions expire ttl after creation.
func NewStore(ttl time.Duration, opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		clock:    domain.SystemClock,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the configured session lifetime.
func (s *Store) TTL() time.Duration { return s.ttl }

// Create registers an authenticated client under a fresh unpredictable
// identifier and returns it. The identifier is a v4 UUID: 122 random bits
// from crypto/rand, so it doubles as a bearer credential.
func (s *Store) Create(ctx context.Context, client *taiga.Client) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}

	sess := &Session{
		ID:        id.String(),
		Client:    client,
		CreatedAt: s.clock.Now(),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	if s.records != nil {
		rec := domain.SessionRecord{
			ID:        sess.ID,
			Host:      client.Host(),
			Token:     client.Token(),
			CreatedAt: sess.CreatedAt,
		}
		if err := s.records.Save(ctx, rec); err != nil {
			s.logger.Warn("Failed to persist session record", "session_id", shortID(sess.ID), "err", err)
		}
	}

	s.metrics.SessionOpened()
	s.logger.Info("Session created", "session_id", shortID(sess.ID))
	return sess.ID, nil
}

// Adopt registers a client under a caller-chosen identifier, replacing and
// disposing any session already held under it. The MCP adapter uses this for
// the auto-authenticated default session, whose ID is well known rather than
// secret.
func (s *Store) Adopt(ctx context.Context, id string, client *taiga.Client) {
	sess := &Session{
		ID:        id,
		Client:    client,
		CreatedAt: s.clock.Now(),
	}

	s.mu.Lock()
	prev := s.sessions[id]
	s.sessions[id] = sess
	s.mu.Unlock()

	if prev != nil {
		s.dispose(ctx, prev, false)
	}

	if s.records != nil {
		rec := domain.SessionRecord{
			ID:        id,
			Host:      client.Host(),
			Token:     client.Token(),
			CreatedAt: sess.CreatedAt,
		}
		if err := s.records.Save(ctx, rec); err != nil {
			s.logger.Warn("Failed to persist session record", "session_id", shortID(id), "err", err)
		}
	}

	s.metrics.SessionOpened()
	s.logger.Info("Session adopted", "session_id", shortID(id))
}

// Lookup returns the client for a live session. A missing ID reports
// domain.ErrSessionNotFound; an expired one is removed as a side effect and
// reports domain.ErrSessionExpired. This is the single authorization check
// for every authenticated operation.
func (s *Store) Lookup(ctx context.Context, id string) (*taiga.Client, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return nil, domain.ErrSessionNotFound
	}
	if s.expired(sess) {
		delete(s.sessions, id)
		s.mu.Unlock()
		s.dispose(ctx, sess, true)
		s.logger.Info("Session expired on lookup", "session_id", shortID(id))
		return nil, domain.ErrSessionExpired
	}
	s.mu.Unlock()
	return sess.Client, nil
}

// Status reports lifetime information for session_status. Like Lookup it
// removes an expired entry and reports the expiry.
func (s *Store) Status(ctx context.Context, id string) (Info, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return Info{}, domain.ErrSessionNotFound
	}
	createdAt := sess.CreatedAt
	if s.expired(sess) {
		delete(s.sessions, id)
		s.mu.Unlock()
		s.dispose(ctx, sess, true)
		return Info{CreatedAt: createdAt, ExpiresAt: createdAt.Add(s.ttl)}, domain.ErrSessionExpired
	}
	s.mu.Unlock()

	expiresAt := createdAt.Add(s.ttl)
	return Info{
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
		Remaining: expiresAt.Sub(s.clock.Now()),
	}, nil
}

// Invalidate removes a session if present and reports whether anything was
// removed. Idempotent.
func (s *Store) Invalidate(ctx context.Context, id string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	if !ok {
		return false
	}
	s.dispose(ctx, sess, false)
	s.logger.Info("Session invalidated", "session_id", shortID(id))
	return true
}

// Sweep removes every expired session and returns the removed count. Removal
// is per-entry, so partial completion under cancellation leaves the registry
// consistent.
func (s *Store) Sweep(ctx context.Context) (int, error) {
	s.mu.Lock()
	var stale []*Session
	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
			stale = append(stale, sess)
		}
	}
	s.mu.Unlock()

	var firstErr error
	for _, sess := range stale {
		if err := s.disposeErr(ctx, sess, true); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if len(stale) > 0 {
		s.logger.Info("Swept expired sessions", "removed", len(stale))
	}
	return len(stale), firstErr
}

// Count returns the number of live entries, expired-but-unswept included.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// CloseAll tears down every session. Used at shutdown.
func (s *Store) CloseAll(ctx context.Context) {
	s.mu.Lock()
	all := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		all = append(all, sess)
	}
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range all {
		s.dispose(ctx, sess, false)
	}
}

// Restore repopulates the registry from persisted records, rebuilding a
// client for every record still inside its TTL and discarding the rest.
// Returns the number of sessions restored.
func (s *Store) Restore(ctx context.Context, rebuild func(domain.SessionRecord) *taiga.Client) (int, error) {
	if s.records == nil {
		return 0, nil
	}
	recs, err := s.records.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list session records: %w", err)
	}

	restored := 0
	now := s.clock.Now()
	for _, rec := range recs {
		if rec.Age(now) > s.ttl {
			if err := s.records.Delete(ctx, rec.ID); err != nil {
				s.logger.Warn("Failed to drop stale session record", "session_id", shortID(rec.ID), "err", err)
			}
			continue
		}
		sess := &Session{ID: rec.ID, Client: rebuild(rec), CreatedAt: rec.CreatedAt}
		s.mu.Lock()
		s.sessions[rec.ID] = sess
		s.mu.Unlock()
		s.metrics.SessionOpened()
		restored++
	}
	if restored > 0 {
		s.logger.Info("Restored sessions from records", "count", restored)
	}
	return restored, nil
}

func (s *Store) expired(sess *Session) bool {
	return s.clock.Now().Sub(sess.CreatedAt) > s.ttl
}

// dispose closes the handle and drops the durable record, outside any lock.
func (s *Store) dispose(ctx context.Context, sess *Session, expired bool) {
	if err := s.disposeErr(ctx, sess, expired); err != nil {
		s.logger.Warn("Failed to delete session record", "session_id", shortID(sess.ID), "err", err)
	}
}

func (s *Store) disposeErr(ctx context.Context, sess *Session, expired bool) error {
	sess.Client.Close()
	s.metrics.SessionClosed(expired)
	if s.records == nil {
		return nil
	}
	return s.records.Delete(ctx, sess.ID)
}

// shortID truncates a session ID for logging; full IDs are bearer credentials
// and stay out of logs.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
