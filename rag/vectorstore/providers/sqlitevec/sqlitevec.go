//go:build cgo

// Package sqlitevec provides a VectorStore backed by SQLite using the
// sqlite-vec extension for approximate nearest-neighbor search.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/HalfBloodPrince07/Vantage-sub000/config"
	"github.com/HalfBloodPrince07/Vantage-sub000/rag/vectorstore"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

const (
	defaultTable     = "documents"
	defaultDimension = 1536
)

// DB is the subset of *sql.DB the Store needs, allowing tests to inject a
// mock connection.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Store is a VectorStore backed by SQLite + sqlite-vec.
type Store struct {
	db        DB
	table     string
	dimension int
}

// Option configures a Store.
type Option func(*Store)

func WithDB(db DB) Option           { return func(s *Store) { s.db = db } }
func WithTable(table string) Option { return func(s *Store) { s.table = table } }
func WithDimension(dim int) Option  { return func(s *Store) { s.dimension = dim } }

// New constructs a Store. A database connection must be supplied via
// WithDB.
func New(opts ...Option) (*Store, error) {
	s := &Store{table: defaultTable, dimension: defaultDimension}
	for _, opt := range opts {
		opt(s)
	}
	if s.db == nil {
		return nil, fmt.Errorf("vectorstore/sqlitevec: database connection is required")
	}
	return s, nil
}

// NewFromConfig constructs a Store from cfg. cfg.BaseURL is used as the
// sqlite3 DSN (e.g. a file path or ":memory:").
func NewFromConfig(cfg config.ProviderConfig) (*Store, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("vectorstore/sqlitevec: base_url is required")
	}
	db, err := sql.Open("sqlite3", cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("vectorstore/sqlitevec: open database: %w", err)
	}

	opts := []Option{WithDB(db)}
	if table, ok := config.GetOption[string](cfg, "table"); ok && table != "" {
		opts = append(opts, WithTable(table))
	}
	if dim, ok := config.GetOption[float64](cfg, "dimension"); ok && dim > 0 {
		opts = append(opts, WithDimension(int(dim)))
	}
	return New(opts...)
}

// EnsureTable creates the metadata table and the sqlite-vec virtual table
// backing this Store, if they do not already exist.
func (s *Store) EnsureTable(ctx context.Context) error {
	metaQuery := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (id TEXT PRIMARY KEY, content TEXT, metadata TEXT)`, s.table)
	if _, err := s.db.ExecContext(ctx, metaQuery); err != nil {
		return fmt.Errorf("vectorstore/sqlitevec: create metadata table: %w", err)
	}

	vecQuery := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS vec_%s USING vec0(id TEXT PRIMARY KEY, embedding FLOAT[%d])`,
		s.table, s.dimension)
	if _, err := s.db.ExecContext(ctx, vecQuery); err != nil {
		return fmt.Errorf("vectorstore/sqlitevec: create vec table: %w", err)
	}
	return nil
}

func (s *Store) Add(ctx context.Context, docs []schema.Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("vectorstore/sqlitevec: docs length (%d) does not match embeddings length (%d)", len(docs), len(embeddings))
	}

	for i, doc := range docs {
		var metaJSON []byte
		if doc.Metadata != nil {
			var err error
			metaJSON, err = json.Marshal(doc.Metadata)
			if err != nil {
				return fmt.Errorf("vectorstore/sqlitevec: marshal metadata: %w", err)
			}
		}

		insertMeta := fmt.Sprintf(`INSERT OR REPLACE INTO %s (id, content, metadata) VALUES (?, ?, ?)`, s.table)
		if _, err := s.db.ExecContext(ctx, insertMeta, doc.ID, doc.Content, string(metaJSON)); err != nil {
			return fmt.Errorf("vectorstore/sqlitevec: insert metadata: %w", err)
		}

		deleteVec := fmt.Sprintf(`DELETE FROM vec_%s WHERE id = ?`, s.table)
		if _, err := s.db.ExecContext(ctx, deleteVec, doc.ID); err != nil {
			return fmt.Errorf("vectorstore/sqlitevec: delete old embedding: %w", err)
		}

		insertVec := fmt.Sprintf(`INSERT INTO vec_%s (id, embedding) VALUES (?, ?)`, s.table)
		if _, err := s.db.ExecContext(ctx, insertVec, doc.ID, serializeEmbedding(embeddings[i])); err != nil {
			return fmt.Errorf("vectorstore/sqlitevec: insert embedding: %w", err)
		}
	}
	return nil
}

func (s *Store) Search(ctx context.Context, query []float32, k int, opts ...vectorstore.SearchOption) ([]schema.Document, error) {
	cfg := &vectorstore.SearchConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	q := fmt.Sprintf(`
		SELECT m.id, m.content, m.metadata, v.distance
		FROM vec_%s v
		JOIN %s m ON m.id = v.id
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance`, s.table, s.table)

	rows, err := s.db.QueryContext(ctx, q, serializeEmbedding(query), k)
	if err != nil {
		return nil, fmt.Errorf("sqlitevec: search: %w", err)
	}
	defer rows.Close()

	var results []schema.Document
	for rows.Next() {
		var id, content string
		var metaJSON sql.NullString
		var distance float64
		if err := rows.Scan(&id, &content, &metaJSON, &distance); err != nil {
			return nil, fmt.Errorf("sqlitevec: search: scan row: %w", err)
		}

		var meta map[string]any
		if metaJSON.Valid && metaJSON.String != "" {
			if err := json.Unmarshal([]byte(metaJSON.String), &meta); err != nil {
				return nil, fmt.Errorf("sqlitevec: search: unmarshal metadata: %w", err)
			}
		}

		score := 1 - distance
		if cfg.Threshold != 0 && score < cfg.Threshold {
			continue
		}
		if !matchesFilter(meta, cfg.Filter) {
			continue
		}

		results = append(results, schema.Document{ID: id, Content: content, Metadata: meta, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlitevec: search: %w", err)
	}
	return results, nil
}

// matchesFilter reports whether meta contains every key/value pair in
// filter. A nil or empty filter always matches.
func matchesFilter(meta, filter map[string]any) bool {
	if len(filter) == 0 {
		return true
	}
	if meta == nil {
		return false
	}
	for k, v := range filter {
		mv, ok := meta[k]
		if !ok || mv != v {
			return false
		}
	}
	return true
}

func (s *Store) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	inClause := strings.Join(placeholders, ", ")

	metaQuery := fmt.Sprintf(`DELETE FROM %s WHERE id IN (%s)`, s.table, inClause)
	if _, err := s.db.ExecContext(ctx, metaQuery, args...); err != nil {
		return fmt.Errorf("vectorstore/sqlitevec: delete metadata: %w", err)
	}

	vecQuery := fmt.Sprintf(`DELETE FROM vec_%s WHERE id IN (%s)`, s.table, inClause)
	if _, err := s.db.ExecContext(ctx, vecQuery, args...); err != nil {
		return fmt.Errorf("vectorstore/sqlitevec: delete embeddings: %w", err)
	}
	return nil
}

func serializeEmbedding(embedding []float32) []byte {
	buf := make([]byte, len(embedding)*4)
	for i, f := range embedding {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func init() {
	vectorstore.Register("sqlitevec", func(cfg config.ProviderConfig) (vectorstore.VectorStore, error) {
		return NewFromConfig(cfg)
	})
}

var _ vectorstore.VectorStore = (*Store)(nil)
