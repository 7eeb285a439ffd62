// Package inmemory is a process-local store.Store used for tests and for
// running the system without a configured relational database.
package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
	"github.com/HalfBloodPrince07/Vantage-sub000/store"
)

// Store is an in-memory store.Store, guarded by a single mutex. It favors
// simplicity over concurrency granularity: every method call round-trips
// through one lock.
type Store struct {
	mu sync.Mutex

	documents     map[string]schema.Document
	entities      map[string]store.Entity
	relationships []store.Relationship
	episodes      map[string]schema.Episode
	patterns      map[string]schema.ProceduralPattern
	conversations map[string]store.Conversation
	messages      map[string][]store.StoredMessage
	searches      []store.SearchHistoryEntry
	accesses      []store.DocumentAccessEntry
	topics        map[string]map[string]float64
}

// New constructs an empty Store.
func New() *Store {
	return &Store{
		documents:     make(map[string]schema.Document),
		entities:      make(map[string]store.Entity),
		episodes:      make(map[string]schema.Episode),
		patterns:      make(map[string]schema.ProceduralPattern),
		conversations: make(map[string]store.Conversation),
		messages:      make(map[string][]store.StoredMessage),
		topics:        make(map[string]map[string]float64),
	}
}

var _ store.Store = (*Store)(nil)

func (s *Store) SaveDocument(_ context.Context, doc schema.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = doc
	return nil
}

func (s *Store) GetDocument(_ context.Context, id string) (schema.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return schema.Document{}, fmt.Errorf("store/inmemory: document %q not found", id)
	}
	return doc, nil
}

func (s *Store) ListDocuments(_ context.Context, filter map[string]any, limit, offset int) ([]schema.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.documents))
	for id := range s.documents {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var matched []schema.Document
	for _, id := range ids {
		doc := s.documents[id]
		if matchesFilter(doc, filter) {
			matched = append(matched, doc)
		}
	}

	if offset > 0 {
		if offset >= len(matched) {
			return nil, nil
		}
		matched = matched[offset:]
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func matchesFilter(doc schema.Document, filter map[string]any) bool {
	for k, v := range filter {
		if doc.Metadata[k] != v {
			return false
		}
	}
	return true
}

func (s *Store) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, id)
	return nil
}

func (s *Store) SaveEntity(_ context.Context, e store.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities[e.ID] = e
	return nil
}

func (s *Store) SaveRelationship(_ context.Context, r store.Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relationships = append(s.relationships, r)
	return nil
}

func (s *Store) GetEntity(_ context.Context, id string) (store.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entities[id]
	if !ok {
		return store.Entity{}, fmt.Errorf("store/inmemory: entity %q not found", id)
	}
	return e, nil
}

func (s *Store) SaveEpisode(_ context.Context, ep schema.Episode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.episodes[ep.ID] = ep
	return nil
}

func (s *Store) GetEpisode(_ context.Context, id string) (schema.Episode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ep, ok := s.episodes[id]
	if !ok {
		return schema.Episode{}, fmt.Errorf("store/inmemory: episode %q not found", id)
	}
	return ep, nil
}

func (s *Store) ListEpisodes(_ context.Context, userID string) ([]schema.Episode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []schema.Episode
	for _, ep := range s.episodes {
		if userID == "" || ep.UserID == userID {
			out = append(out, ep)
		}
	}
	return out, nil
}

func patternKey(userID, patternType, dataKey string) string {
	return userID + "\x00" + patternType + "\x00" + dataKey
}

func (s *Store) SaveProceduralPattern(_ context.Context, p schema.ProceduralPattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patterns[patternKey(p.UserID, p.PatternType, p.DataKey)] = p
	return nil
}

func (s *Store) GetProceduralPattern(_ context.Context, userID, patternType, dataKey string) (schema.ProceduralPattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.patterns[patternKey(userID, patternType, dataKey)], nil
}

func (s *Store) ListProceduralPatterns(_ context.Context, userID string) ([]schema.ProceduralPattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []schema.ProceduralPattern
	for _, p := range s.patterns {
		if userID == "" || p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) SaveConversation(_ context.Context, c store.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[c.ID] = c
	return nil
}

func (s *Store) AppendMessage(_ context.Context, msg store.StoredMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], msg)
	return nil
}

func (s *Store) ListMessages(_ context.Context, conversationID string) ([]store.StoredMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.StoredMessage, len(s.messages[conversationID]))
	copy(out, s.messages[conversationID])
	return out, nil
}

func (s *Store) RecordSearch(_ context.Context, entry store.SearchHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searches = append(s.searches, entry)
	return nil
}

func (s *Store) RecordDocumentAccess(_ context.Context, entry store.DocumentAccessEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accesses = append(s.accesses, entry)
	return nil
}

func (s *Store) TopicInterest(_ context.Context, userID string) (map[string]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.topics[userID]
	if !ok {
		return nil, nil
	}
	out := make(map[string]float64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out, nil
}

func (s *Store) BumpTopicInterest(_ context.Context, userID, topic string, delta float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.topics[userID]
	if !ok {
		m = make(map[string]float64)
		s.topics[userID] = m
	}
	m[topic] += delta
	return nil
}
