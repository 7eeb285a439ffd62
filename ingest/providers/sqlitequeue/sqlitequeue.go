//go:build cgo

// Package sqlitequeue is a durable, on-disk ingest.FailureQueue backed by
// SQLite, for deployments that need buffered documents to survive a
// process restart (§4.3 Concurrency: "buffer processed documents into a
// local durable queue and retry every 30s"). Grounded on
// rag/vectorstore/providers/sqlitevec's DB-interface-seam/EnsureTable
// shape.
package sqlitequeue

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

const defaultTable = "ingest_failure_queue"

// DB is the subset of *sql.DB the Queue needs, allowing tests to inject a
// mock connection.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Queue is an ingest.FailureQueue backed by a SQLite table.
type Queue struct {
	db    DB
	table string
}

// Option configures a Queue.
type Option func(*Queue)

func WithDB(db DB) Option        { return func(q *Queue) { q.db = db } }
func WithTable(table string) Option { return func(q *Queue) { q.table = table } }

// New constructs a Queue. A database connection must be supplied via WithDB.
func New(opts ...Option) (*Queue, error) {
	q := &Queue{table: defaultTable}
	for _, opt := range opts {
		opt(q)
	}
	if q.db == nil {
		return nil, fmt.Errorf("ingest/sqlitequeue: database connection is required")
	}
	return q, nil
}

// NewFromPath opens (or creates) a SQLite database file at path and
// ensures the queue table exists.
func NewFromPath(ctx context.Context, path string) (*Queue, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("ingest/sqlitequeue: open %q: %w", path, err)
	}
	q, err := New(WithDB(db))
	if err != nil {
		return nil, err
	}
	if err := q.EnsureTable(ctx); err != nil {
		return nil, err
	}
	return q, nil
}

// EnsureTable creates the backing table if it does not already exist.
func (q *Queue) EnsureTable(ctx context.Context) error {
	query := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (id TEXT PRIMARY KEY, document TEXT NOT NULL)`, q.table)
	if _, err := q.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ingest/sqlitequeue: create table: %w", err)
	}
	return nil
}

// Enqueue persists doc for later retry. Errors are swallowed (matching
// ingest.FailureQueue's fire-and-forget contract: buffering is itself a
// best-effort safety net, not a second critical path).
func (q *Queue) Enqueue(doc schema.Document) {
	data, err := json.Marshal(doc)
	if err != nil {
		return
	}
	query := fmt.Sprintf(`INSERT OR REPLACE INTO %s (id, document) VALUES (?, ?)`, q.table)
	_, _ = q.db.ExecContext(context.Background(), query, doc.ID, string(data))
}

// Drain returns every buffered document and clears the table.
func (q *Queue) Drain() []schema.Document {
	ctx := context.Background()
	rows, err := q.db.QueryContext(ctx, fmt.Sprintf(`SELECT id, document FROM %s`, q.table))
	if err != nil {
		return nil
	}
	defer rows.Close()

	var docs []schema.Document
	var ids []string
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			continue
		}
		var doc schema.Document
		if err := json.Unmarshal([]byte(data), &doc); err != nil {
			continue
		}
		docs = append(docs, doc)
		ids = append(ids, id)
	}
	for _, id := range ids {
		_, _ = q.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, q.table), id)
	}
	return docs
}
