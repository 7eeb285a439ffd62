package ingest

import (
	"sync"

	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

// FailureQueue buffers documents that failed to persist (§4.3
// Concurrency: "on repeated storage failure, buffer processed documents
// into a local durable queue and retry every 30s"). The in-memory default
// below is process-local; ingest/providers/sqlitequeue offers a durable
// on-disk alternative for deployments that need to survive a restart.
type FailureQueue interface {
	Enqueue(doc schema.Document)
	Drain() []schema.Document
}

type inMemoryQueue struct {
	mu   sync.Mutex
	docs []schema.Document
}

func newInMemoryQueue() *inMemoryQueue {
	return &inMemoryQueue{}
}

func (q *inMemoryQueue) Enqueue(doc schema.Document) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.docs = append(q.docs, doc)
}

func (q *inMemoryQueue) Drain() []schema.Document {
	q.mu.Lock()
	defer q.mu.Unlock()
	docs := q.docs
	q.docs = nil
	return docs
}

var _ FailureQueue = (*inMemoryQueue)(nil)
