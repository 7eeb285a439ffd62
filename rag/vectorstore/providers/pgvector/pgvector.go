// Package pgvector provides a VectorStore backed by PostgreSQL's pgvector
// extension.
package pgvector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HalfBloodPrince07/Vantage-sub000/config"
	"github.com/HalfBloodPrince07/Vantage-sub000/rag/vectorstore"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

const (
	defaultTable     = "documents"
	defaultDimension = 1536
)

// Pool is the subset of *pgxpool.Pool the Store needs; it exists so tests
// can substitute a mock.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store is a VectorStore backed by pgvector.
type Store struct {
	pool      Pool
	table     string
	dimension int
}

// Option configures a Store.
type Option func(*Store)

// WithTable overrides the table name (default "documents").
func WithTable(table string) Option {
	return func(s *Store) { s.table = table }
}

// WithDimension overrides the vector dimension (default 1536).
func WithDimension(dim int) Option {
	return func(s *Store) { s.dimension = dim }
}

// New constructs a Store over pool.
func New(pool Pool, opts ...Option) *Store {
	s := &Store{pool: pool, table: defaultTable, dimension: defaultDimension}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromConfig constructs a Store from cfg.BaseURL, a Postgres connection
// string.
func NewFromConfig(cfg config.ProviderConfig) (*Store, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("vectorstore/pgvector: base_url is required")
	}
	pool, err := pgxpool.New(context.Background(), cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("vectorstore/pgvector: connect: %w", err)
	}

	var opts []Option
	if table, ok := config.GetOption[string](cfg, "table"); ok && table != "" {
		opts = append(opts, WithTable(table))
	}
	if dim, ok := config.GetOption[float64](cfg, "dimensions"); ok && dim > 0 {
		opts = append(opts, WithDimension(int(dim)))
	}
	return New(pool, opts...), nil
}

// EnsureTable creates the pgvector extension and the store's table if they
// do not already exist.
func (s *Store) EnsureTable(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("vectorstore/pgvector: create extension: %w", err)
	}

	createSQL := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (id TEXT PRIMARY KEY, embedding vector(%d), content TEXT, metadata JSONB)`,
		s.table, s.dimension,
	)
	if _, err := s.pool.Exec(ctx, createSQL); err != nil {
		return fmt.Errorf("vectorstore/pgvector: create table: %w", err)
	}
	return nil
}

func (s *Store) Add(ctx context.Context, docs []schema.Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("vectorstore/pgvector: docs length (%d) does not match embeddings length (%d)", len(docs), len(embeddings))
	}

	insertSQL := fmt.Sprintf(
		`INSERT INTO %s (id, embedding, content, metadata) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET embedding = $2, content = $3, metadata = $4`,
		s.table,
	)

	for i, doc := range docs {
		meta, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("vectorstore/pgvector: marshal metadata: %w", err)
		}
		if _, err := s.pool.Exec(ctx, insertSQL, doc.ID, vectorLiteral(embeddings[i]), doc.Content, meta); err != nil {
			return fmt.Errorf("vectorstore/pgvector: insert %s: %w", doc.ID, err)
		}
	}
	return nil
}

func (s *Store) Search(ctx context.Context, query []float32, k int, opts ...vectorstore.SearchOption) ([]schema.Document, error) {
	cfg := &vectorstore.SearchConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	op := distanceOperator(cfg.Strategy)
	args := []any{vectorLiteral(query), k}

	var whereClauses []string
	for key, val := range cfg.Filter {
		args = append(args, key, val)
		whereClauses = append(whereClauses, fmt.Sprintf("metadata->>$%d = $%d", len(args)-1, len(args)))
	}

	sql := fmt.Sprintf(
		"SELECT id, content, metadata, (embedding %s $1) AS score FROM %s",
		op, s.table,
	)
	if len(whereClauses) > 0 {
		sql += " WHERE " + strings.Join(whereClauses, " AND ")
	}
	sql += " ORDER BY score DESC LIMIT $2"

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("vectorstore/pgvector: search: %w", err)
	}
	defer rows.Close()

	var results []schema.Document
	for rows.Next() {
		var (
			id, content string
			metaBytes   []byte
			score       float64
		)
		if err := rows.Scan(&id, &content, &metaBytes, &score); err != nil {
			return nil, fmt.Errorf("vectorstore/pgvector: scan: %w", err)
		}
		if cfg.Threshold != 0 && score < cfg.Threshold {
			continue
		}

		var meta map[string]any
		if len(metaBytes) > 0 {
			if err := json.Unmarshal(metaBytes, &meta); err != nil {
				return nil, fmt.Errorf("vectorstore/pgvector: unmarshal metadata: %w", err)
			}
		}

		results = append(results, schema.Document{
			ID:       id,
			Content:  content,
			Metadata: meta,
			Score:    score,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vectorstore/pgvector: rows: %w", err)
	}
	return results, nil
}

func (s *Store) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	args := make([]any, len(ids))
	placeholders := make([]string, len(ids))
	for i, id := range ids {
		args[i] = id
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	sql := fmt.Sprintf("DELETE FROM %s WHERE id IN (%s)", s.table, strings.Join(placeholders, ", "))
	if _, err := s.pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("vectorstore/pgvector: delete: %w", err)
	}
	return nil
}

// distanceOperator returns pgvector's operator for the given strategy:
// <=> cosine distance, <#> negative inner product, <-> L2 distance.
func distanceOperator(strategy vectorstore.SearchStrategy) string {
	switch strategy {
	case vectorstore.DotProduct:
		return "<#>"
	case vectorstore.Euclidean:
		return "<->"
	default:
		return "<=>"
	}
}

func vectorLiteral(v []float32) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprintf("%g", x)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func init() {
	vectorstore.Register("pgvector", func(cfg config.ProviderConfig) (vectorstore.VectorStore, error) {
		return NewFromConfig(cfg)
	})
}

var _ vectorstore.VectorStore = (*Store)(nil)
