// Package postgres implements store.Store over PostgreSQL via lib/pq,
// persisting the tables §6.3 names: documents, entities, relationships,
// episodes, procedural_patterns, conversations, messages, search_history,
// document_access, and topic_interest.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/HalfBloodPrince07/Vantage-sub000/config"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
	"github.com/HalfBloodPrince07/Vantage-sub000/store"
)

// DB is the subset of *sql.DB the Store needs; it exists so tests can
// substitute a mock, mirroring vectorstore/providers/pgvector's Pool seam.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Store is a store.Store backed by PostgreSQL.
type Store struct {
	db DB
}

var _ store.Store = (*Store)(nil)

// New constructs a Store over db.
func New(db DB) *Store {
	return &Store{db: db}
}

// NewFromConfig opens a connection pool from cfg.BaseURL, a Postgres DSN.
func NewFromConfig(cfg config.ProviderConfig) (*Store, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("store/postgres: base_url is required")
	}
	db, err := sql.Open("postgres", cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("store/postgres: open: %w", err)
	}
	return New(db), nil
}

// EnsureSchema creates every §6.3 table if it does not already exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY, content TEXT, metadata JSONB,
			filename TEXT, path TEXT, embedding_model TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS entities (
			id TEXT PRIMARY KEY, type TEXT, name TEXT, properties JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS relationships (
			id TEXT PRIMARY KEY, from_id TEXT NOT NULL, to_id TEXT NOT NULL,
			type TEXT, properties JSONB, created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS episodes (
			id TEXT PRIMARY KEY, user_id TEXT, query TEXT, query_embedding JSONB,
			response TEXT, result_ids JSONB, confidence DOUBLE PRECISION,
			feedback INTEGER, created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			access_count INTEGER NOT NULL DEFAULT 0, decay_factor DOUBLE PRECISION NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS procedural_patterns (
			user_id TEXT, pattern_type TEXT, data_key TEXT, data JSONB,
			success_count INTEGER NOT NULL DEFAULT 0, failure_count INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, pattern_type, data_key)
		)`,
		`CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY, session_id TEXT, user_id TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY, conversation_id TEXT NOT NULL, role TEXT, content TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS search_history (
			id TEXT PRIMARY KEY, user_id TEXT, query TEXT, top_k INTEGER,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS document_access (
			id TEXT PRIMARY KEY, user_id TEXT, document_id TEXT,
			accessed_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS topic_interest (
			user_id TEXT, topic TEXT, interest DOUBLE PRECISION NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, topic)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store/postgres: ensure schema: %w", err)
		}
	}
	return nil
}

func (s *Store) SaveDocument(ctx context.Context, doc schema.Document) error {
	meta, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("store/postgres: marshal metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (id, content, metadata, filename, path, embedding_model)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET content = $2, metadata = $3, filename = $4, path = $5, embedding_model = $6
	`, doc.ID, doc.Content, meta, doc.Filename, doc.Path, doc.EmbeddingModel)
	if err != nil {
		return fmt.Errorf("store/postgres: save document %s: %w", doc.ID, err)
	}
	return nil
}

func (s *Store) GetDocument(ctx context.Context, id string) (schema.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, content, metadata, filename, path, embedding_model FROM documents WHERE id = $1
	`, id)
	var doc schema.Document
	var meta []byte
	if err := row.Scan(&doc.ID, &doc.Content, &meta, &doc.Filename, &doc.Path, &doc.EmbeddingModel); err != nil {
		return schema.Document{}, fmt.Errorf("store/postgres: get document %s: %w", id, err)
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &doc.Metadata); err != nil {
			return schema.Document{}, fmt.Errorf("store/postgres: unmarshal metadata: %w", err)
		}
	}
	return doc, nil
}

func (s *Store) ListDocuments(ctx context.Context, filter map[string]any, limit, offset int) ([]schema.Document, error) {
	query := `SELECT id, content, metadata, filename, path, embedding_model FROM documents`
	var args []any
	for k, v := range filter {
		args = append(args, v)
		query += fmt.Sprintf(" WHERE metadata->>%s = $%d", quoteJSONKey(k), len(args))
		break // §6.3 doesn't specify multi-key filter semantics; single-key is the common case.
	}
	query += " ORDER BY id"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if offset > 0 {
		args = append(args, offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store/postgres: list documents: %w", err)
	}
	defer rows.Close()

	var docs []schema.Document
	for rows.Next() {
		var doc schema.Document
		var meta []byte
		if err := rows.Scan(&doc.ID, &doc.Content, &meta, &doc.Filename, &doc.Path, &doc.EmbeddingModel); err != nil {
			return nil, fmt.Errorf("store/postgres: scan document: %w", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &doc.Metadata); err != nil {
				return nil, fmt.Errorf("store/postgres: unmarshal metadata: %w", err)
			}
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func quoteJSONKey(k string) string {
	return "'" + k + "'"
}

func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("store/postgres: delete document %s: %w", id, err)
	}
	return nil
}

func (s *Store) SaveEntity(ctx context.Context, e store.Entity) error {
	props, err := json.Marshal(e.Properties)
	if err != nil {
		return fmt.Errorf("store/postgres: marshal properties: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO entities (id, type, name, properties) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET type = $2, name = $3, properties = $4
	`, e.ID, e.Type, e.Name, props)
	if err != nil {
		return fmt.Errorf("store/postgres: save entity %s: %w", e.ID, err)
	}
	return nil
}

func (s *Store) SaveRelationship(ctx context.Context, r store.Relationship) error {
	props, err := json.Marshal(r.Properties)
	if err != nil {
		return fmt.Errorf("store/postgres: marshal properties: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO relationships (id, from_id, to_id, type, properties) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET from_id = $2, to_id = $3, type = $4, properties = $5
	`, r.ID, r.FromID, r.ToID, r.Type, props)
	if err != nil {
		return fmt.Errorf("store/postgres: save relationship %s: %w", r.ID, err)
	}
	return nil
}

func (s *Store) GetEntity(ctx context.Context, id string) (store.Entity, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, type, name, properties, created_at FROM entities WHERE id = $1`, id)
	var e store.Entity
	var props []byte
	if err := row.Scan(&e.ID, &e.Type, &e.Name, &props, &e.CreatedAt); err != nil {
		return store.Entity{}, fmt.Errorf("store/postgres: get entity %s: %w", id, err)
	}
	if len(props) > 0 {
		if err := json.Unmarshal(props, &e.Properties); err != nil {
			return store.Entity{}, fmt.Errorf("store/postgres: unmarshal properties: %w", err)
		}
	}
	return e, nil
}

// SaveEpisode inserts or replaces an episode in a single statement; episodes
// are append-mostly and don't need the transactional counter semantics
// procedural patterns do.
func (s *Store) SaveEpisode(ctx context.Context, ep schema.Episode) error {
	vec, err := json.Marshal(ep.QueryEmbedding)
	if err != nil {
		return fmt.Errorf("store/postgres: marshal embedding: %w", err)
	}
	resultIDs, err := json.Marshal(ep.ResultIDs)
	if err != nil {
		return fmt.Errorf("store/postgres: marshal result ids: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO episodes (id, user_id, query, query_embedding, response, result_ids, confidence, feedback, created_at, access_count, decay_factor)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			response = $5, result_ids = $6, confidence = $7, feedback = $8, access_count = $10, decay_factor = $11
	`, ep.ID, ep.UserID, ep.Query, vec, ep.Response, resultIDs, ep.Confidence, ep.Feedback, ep.Timestamp, ep.AccessCount, ep.DecayFactor)
	if err != nil {
		return fmt.Errorf("store/postgres: save episode %s: %w", ep.ID, err)
	}
	return nil
}

func (s *Store) GetEpisode(ctx context.Context, id string) (schema.Episode, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, query, query_embedding, response, result_ids, confidence, feedback, created_at, access_count, decay_factor
		FROM episodes WHERE id = $1
	`, id)
	return scanEpisode(row)
}

func (s *Store) ListEpisodes(ctx context.Context, userID string) ([]schema.Episode, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, query, query_embedding, response, result_ids, confidence, feedback, created_at, access_count, decay_factor
		FROM episodes WHERE ($1 = '' OR user_id = $1)
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("store/postgres: list episodes: %w", err)
	}
	defer rows.Close()

	var episodes []schema.Episode
	for rows.Next() {
		ep, err := scanEpisodeRows(rows)
		if err != nil {
			return nil, err
		}
		episodes = append(episodes, ep)
	}
	return episodes, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEpisode(row scanner) (schema.Episode, error) {
	return scanEpisodeInto(row)
}

func scanEpisodeRows(rows *sql.Rows) (schema.Episode, error) {
	return scanEpisodeInto(rows)
}

func scanEpisodeInto(row scanner) (schema.Episode, error) {
	var ep schema.Episode
	var vec, resultIDs []byte
	if err := row.Scan(&ep.ID, &ep.UserID, &ep.Query, &vec, &ep.Response, &resultIDs,
		&ep.Confidence, &ep.Feedback, &ep.Timestamp, &ep.AccessCount, &ep.DecayFactor); err != nil {
		return schema.Episode{}, fmt.Errorf("store/postgres: scan episode: %w", err)
	}
	if len(vec) > 0 {
		if err := json.Unmarshal(vec, &ep.QueryEmbedding); err != nil {
			return schema.Episode{}, fmt.Errorf("store/postgres: unmarshal embedding: %w", err)
		}
	}
	if len(resultIDs) > 0 {
		if err := json.Unmarshal(resultIDs, &ep.ResultIDs); err != nil {
			return schema.Episode{}, fmt.Errorf("store/postgres: unmarshal result ids: %w", err)
		}
	}
	return ep, nil
}

// SaveProceduralPattern upserts the pattern's success/failure counters inside
// a transaction (§5: "inserts and counter updates use transactions").
func (s *Store) SaveProceduralPattern(ctx context.Context, p schema.ProceduralPattern) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store/postgres: begin tx: %w", err)
	}
	defer tx.Rollback()

	data, err := json.Marshal(p.Data)
	if err != nil {
		return fmt.Errorf("store/postgres: marshal pattern data: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO procedural_patterns (user_id, pattern_type, data_key, data, success_count, failure_count)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, pattern_type, data_key) DO UPDATE SET
			data = $4, success_count = $5, failure_count = $6
	`, p.UserID, p.PatternType, p.DataKey, data, p.SuccessCount, p.FailureCount)
	if err != nil {
		return fmt.Errorf("store/postgres: save procedural pattern: %w", err)
	}
	return tx.Commit()
}

func (s *Store) GetProceduralPattern(ctx context.Context, userID, patternType, dataKey string) (schema.ProceduralPattern, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, pattern_type, data_key, data, success_count, failure_count
		FROM procedural_patterns WHERE user_id = $1 AND pattern_type = $2 AND data_key = $3
	`, userID, patternType, dataKey)
	p, err := scanPattern(row)
	if err == sql.ErrNoRows {
		return schema.ProceduralPattern{UserID: userID, PatternType: patternType, DataKey: dataKey}, nil
	}
	return p, err
}

func (s *Store) ListProceduralPatterns(ctx context.Context, userID string) ([]schema.ProceduralPattern, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, pattern_type, data_key, data, success_count, failure_count
		FROM procedural_patterns WHERE ($1 = '' OR user_id = $1)
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("store/postgres: list procedural patterns: %w", err)
	}
	defer rows.Close()

	var patterns []schema.ProceduralPattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}
	return patterns, rows.Err()
}

func scanPattern(row scanner) (schema.ProceduralPattern, error) {
	var p schema.ProceduralPattern
	var data []byte
	if err := row.Scan(&p.UserID, &p.PatternType, &p.DataKey, &data, &p.SuccessCount, &p.FailureCount); err != nil {
		if err == sql.ErrNoRows {
			return schema.ProceduralPattern{}, sql.ErrNoRows
		}
		return schema.ProceduralPattern{}, fmt.Errorf("store/postgres: scan pattern: %w", err)
	}
	p.ID = fmt.Sprintf("%s:%s:%s", p.UserID, p.PatternType, p.DataKey)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &p.Data); err != nil {
			return schema.ProceduralPattern{}, fmt.Errorf("store/postgres: unmarshal pattern data: %w", err)
		}
	}
	return p, nil
}

func (s *Store) SaveConversation(ctx context.Context, c store.Conversation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, session_id, user_id, created_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET session_id = $2, user_id = $3
	`, c.ID, c.SessionID, c.UserID, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("store/postgres: save conversation %s: %w", c.ID, err)
	}
	return nil
}

func (s *Store) AppendMessage(ctx context.Context, msg store.StoredMessage) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, role, content, created_at) VALUES ($1, $2, $3, $4, $5)
	`, msg.ID, msg.ConversationID, msg.Role, msg.Content, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("store/postgres: append message: %w", err)
	}
	return nil
}

func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]store.StoredMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, role, content, created_at FROM messages
		WHERE conversation_id = $1 ORDER BY created_at
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("store/postgres: list messages: %w", err)
	}
	defer rows.Close()

	var msgs []store.StoredMessage
	for rows.Next() {
		var m store.StoredMessage
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("store/postgres: scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (s *Store) RecordSearch(ctx context.Context, entry store.SearchHistoryEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO search_history (id, user_id, query, top_k, created_at) VALUES ($1, $2, $3, $4, $5)
	`, entry.ID, entry.UserID, entry.Query, entry.TopK, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("store/postgres: record search: %w", err)
	}
	return nil
}

func (s *Store) RecordDocumentAccess(ctx context.Context, entry store.DocumentAccessEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO document_access (id, user_id, document_id, accessed_at) VALUES ($1, $2, $3, $4)
	`, entry.ID, entry.UserID, entry.DocumentID, entry.AccessedAt)
	if err != nil {
		return fmt.Errorf("store/postgres: record document access: %w", err)
	}
	return nil
}

func (s *Store) TopicInterest(ctx context.Context, userID string) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT topic, interest FROM topic_interest WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("store/postgres: topic interest: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var topic string
		var interest float64
		if err := rows.Scan(&topic, &interest); err != nil {
			return nil, fmt.Errorf("store/postgres: scan topic interest: %w", err)
		}
		out[topic] = interest
	}
	return out, rows.Err()
}

// BumpTopicInterest increments topic's interest for userID inside a
// transaction (§5): the read-modify-write of an existing counter must not
// race another bump for the same (user, topic).
func (s *Store) BumpTopicInterest(ctx context.Context, userID, topic string, delta float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store/postgres: begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO topic_interest (user_id, topic, interest) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, topic) DO UPDATE SET interest = topic_interest.interest + $3
	`, userID, topic, delta)
	if err != nil {
		return fmt.Errorf("store/postgres: bump topic interest: %w", err)
	}
	return tx.Commit()
}
