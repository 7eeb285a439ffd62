// Package store is the relational persistence port for the records §6.3
// names outside the vector/lexical index and the session KV store:
// episodes, procedural patterns, the entity graph, and conversation
// history. providers/postgres and providers/inmemory implement it.
package store

import (
	"context"
	"time"

	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

// Entity is a graph node persisted to the entities table (§6.3).
type Entity struct {
	ID         string
	Type       string
	Name       string
	Properties map[string]any
	CreatedAt  time.Time
}

// Relationship is a graph edge persisted to the relationships table.
type Relationship struct {
	ID         string
	FromID     string
	ToID       string
	Type       string
	Properties map[string]any
	CreatedAt  time.Time
}

// Conversation groups a session's persisted messages for history beyond
// the sliding window the KV-backed Session tier keeps in memory.
type Conversation struct {
	ID        string
	SessionID string
	UserID    string
	CreatedAt time.Time
}

// StoredMessage is one row of the messages table.
type StoredMessage struct {
	ID             string
	ConversationID string
	Role           string
	Content        string
	CreatedAt      time.Time
}

// SearchHistoryEntry is one row of the search_history table.
type SearchHistoryEntry struct {
	ID        string
	UserID    string
	Query     string
	TopK      int
	CreatedAt time.Time
}

// DocumentAccessEntry records a document surfaced to a user, for the
// document_access table.
type DocumentAccessEntry struct {
	ID         string
	UserID     string
	DocumentID string
	AccessedAt time.Time
}

// Store is the relational persistence port. Every method is independently
// usable; callers needing atomicity across several calls (§5: "inserts and
// counter updates use transactions") should use a provider's own
// transaction-scoped type rather than relying on Store itself, since the
// port is intentionally transport/engine-agnostic.
type Store interface {
	// Documents
	SaveDocument(ctx context.Context, doc schema.Document) error
	GetDocument(ctx context.Context, id string) (schema.Document, error)
	ListDocuments(ctx context.Context, filter map[string]any, limit, offset int) ([]schema.Document, error)
	DeleteDocument(ctx context.Context, id string) error

	// Entity graph
	SaveEntity(ctx context.Context, e Entity) error
	SaveRelationship(ctx context.Context, r Relationship) error
	GetEntity(ctx context.Context, id string) (Entity, error)

	// Episodes
	SaveEpisode(ctx context.Context, ep schema.Episode) error
	GetEpisode(ctx context.Context, id string) (schema.Episode, error)
	ListEpisodes(ctx context.Context, userID string) ([]schema.Episode, error)

	// Procedural patterns
	SaveProceduralPattern(ctx context.Context, p schema.ProceduralPattern) error
	GetProceduralPattern(ctx context.Context, userID, patternType, dataKey string) (schema.ProceduralPattern, error)
	ListProceduralPatterns(ctx context.Context, userID string) ([]schema.ProceduralPattern, error)

	// Conversation history
	SaveConversation(ctx context.Context, c Conversation) error
	AppendMessage(ctx context.Context, msg StoredMessage) error
	ListMessages(ctx context.Context, conversationID string) ([]StoredMessage, error)

	// Search/access history
	RecordSearch(ctx context.Context, entry SearchHistoryEntry) error
	RecordDocumentAccess(ctx context.Context, entry DocumentAccessEntry) error
	TopicInterest(ctx context.Context, userID string) (map[string]float64, error)
	BumpTopicInterest(ctx context.Context, userID, topic string, delta float64) error
}
