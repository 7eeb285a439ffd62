package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/HalfBloodPrince07/Vantage-sub000/config"
	"github.com/HalfBloodPrince07/Vantage-sub000/core"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

// DefaultSessionWindow is the number of most recent turns a Session tier
// keeps per session (§4.4).
const DefaultSessionWindow = 10

// DefaultSessionTTL is how long a session survives without a write before
// it is eligible for eviction. Every write resets it.
const DefaultSessionTTL = 30 * time.Minute

// SessionStore is the key-value port Session is built on: get-or-create by
// ID, replace the stored value, and delete. Implementations must make
// GetOrCreate atomic under concurrent callers racing on the same id.
type SessionStore interface {
	// GetOrCreate returns the session for id, creating and storing an empty
	// one if none exists yet. The returned session is a copy; callers must
	// call Put to persist mutations.
	GetOrCreate(ctx context.Context, id string) (schema.Session, error)

	// Put replaces the stored session and resets its TTL.
	Put(ctx context.Context, sess schema.Session) error

	// Delete removes a session.
	Delete(ctx context.Context, id string) error
}

// Session implements the §4.4 Session Coordinator tier: a sliding window of
// the last Window turns per session, with a write-resets-TTL eviction
// policy delegated to the underlying SessionStore.
type Session struct {
	store  SessionStore
	window int

	// degraded is set once if the configured store fails and Session falls
	// back to its process-local default; surfaced for observability, not
	// retried automatically.
	mu       sync.RWMutex
	degraded bool
}

// SessionOption configures a Session tier.
type SessionOption func(*Session)

// WithSessionWindow overrides the sliding-window size. n <= 0 is ignored.
func WithSessionWindow(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.window = n
		}
	}
}

// NewSession creates a Session tier backed by store. A nil store falls back
// to a process-local map, marked degraded from construction.
func NewSession(store SessionStore, opts ...SessionOption) *Session {
	s := &Session{store: store, window: DefaultSessionWindow}
	if s.store == nil {
		s.store = newInlineSessionStore(DefaultSessionTTL)
		s.degraded = true
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Degraded reports whether this tier is running on its process-local
// fallback store rather than the configured one.
func (s *Session) Degraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degraded
}

// AppendTurn records one user/assistant exchange for sessionID, trimming
// the stored turns to the configured window and resetting the session's
// TTL.
func (s *Session) AppendTurn(ctx context.Context, sessionID string, turn schema.Turn) error {
	sess, err := s.store.GetOrCreate(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("memory/session: get-or-create %q: %w", sessionID, err)
	}
	sess.ID = sessionID
	sess.Turns = append(sess.Turns, turn)
	if len(sess.Turns) > s.window {
		sess.Turns = sess.Turns[len(sess.Turns)-s.window:]
	}
	sess.UpdatedAt = turn.Timestamp
	return s.store.Put(ctx, sess)
}

// RecentTurns returns sessionID's sliding window of turns, most recent
// last, without resetting its TTL.
func (s *Session) RecentTurns(ctx context.Context, sessionID string) ([]schema.Turn, error) {
	sess, err := s.store.GetOrCreate(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("memory/session: get-or-create %q: %w", sessionID, err)
	}
	return sess.Turns, nil
}

// Save implements Memory. sessionID is taken from ctx via core's session-ID
// accessor when available; callers that need explicit session targeting
// should use AppendTurn directly.
func (s *Session) Save(ctx context.Context, input, output schema.Message) error {
	id := core.GetSessionID(ctx)
	if id == "" {
		return nil
	}
	return s.AppendTurn(ctx, id, schema.Turn{Input: input, Output: output, Timestamp: time.Now()})
}

// Load implements Memory. Returns the session's recent turns as alternating
// input/output messages, ignoring query (session recall is windowed, not
// searched).
func (s *Session) Load(ctx context.Context, _ string) ([]schema.Message, error) {
	id := core.GetSessionID(ctx)
	if id == "" {
		return nil, nil
	}
	turns, err := s.RecentTurns(ctx, id)
	if err != nil {
		return nil, err
	}
	msgs := make([]schema.Message, 0, len(turns)*2)
	for _, t := range turns {
		if t.Input != nil {
			msgs = append(msgs, t.Input)
		}
		if t.Output != nil {
			msgs = append(msgs, t.Output)
		}
	}
	return msgs, nil
}

// Search implements Memory. Session memory is windowed, not searched; it
// always returns nil.
func (s *Session) Search(_ context.Context, _ string, _ int) ([]schema.Document, error) {
	return nil, nil
}

// Clear implements Memory. Deletes the current session from ctx, if any.
func (s *Session) Clear(ctx context.Context) error {
	id := core.GetSessionID(ctx)
	if id == "" {
		return nil
	}
	return s.store.Delete(ctx, id)
}

func init() {
	Register("session", func(cfg config.ProviderConfig) (Memory, error) {
		window := DefaultSessionWindow
		if v, ok := config.GetOption[float64](cfg, "window"); ok {
			window = int(v)
		}
		return NewSession(nil, WithSessionWindow(window)), nil
	})
}

// inlineSessionStore is the process-local SessionStore default: a guarded
// map with lazy TTL expiry checked on access, used when no durable
// key-value port is configured (§4.4: "if KV port is unavailable, use a
// process-local map and flag degraded").
type inlineSessionStore struct {
	mu       sync.Mutex
	sessions map[string]schema.Session
	expires  map[string]time.Time
	ttl      time.Duration
}

func newInlineSessionStore(ttl time.Duration) *inlineSessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &inlineSessionStore{
		sessions: make(map[string]schema.Session),
		expires:  make(map[string]time.Time),
		ttl:      ttl,
	}
}

func (s *inlineSessionStore) GetOrCreate(_ context.Context, id string) (schema.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if exp, ok := s.expires[id]; ok && time.Now().After(exp) {
		delete(s.sessions, id)
		delete(s.expires, id)
	}
	sess, ok := s.sessions[id]
	if !ok {
		sess = schema.Session{ID: id, State: map[string]any{}, CreatedAt: time.Now()}
		s.sessions[id] = sess
		s.expires[id] = time.Now().Add(s.ttl)
	}
	return sess, nil
}

func (s *inlineSessionStore) Put(_ context.Context, sess schema.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	s.expires[sess.ID] = time.Now().Add(s.ttl)
	return nil
}

func (s *inlineSessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	delete(s.expires, id)
	return nil
}
