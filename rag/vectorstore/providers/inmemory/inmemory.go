// Package inmemory provides a VectorStore backed by a Go map, with linear
// scan search — useful for tests and small local corpora.
package inmemory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/HalfBloodPrince07/Vantage-sub000/config"
	"github.com/HalfBloodPrince07/Vantage-sub000/rag/vectorstore"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

type entry struct {
	doc       schema.Document
	embedding []float32
}

// Store is an in-memory VectorStore.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// New constructs an empty Store.
func New() *Store {
	return &Store{entries: make(map[string]entry)}
}

func (s *Store) Add(_ context.Context, docs []schema.Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("vectorstore/inmemory: docs length (%d) does not match embeddings length (%d)", len(docs), len(embeddings))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, doc := range docs {
		s.entries[doc.ID] = entry{doc: doc, embedding: embeddings[i]}
	}
	return nil
}

func (s *Store) Search(_ context.Context, query []float32, k int, opts ...vectorstore.SearchOption) ([]schema.Document, error) {
	cfg := &vectorstore.SearchConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]schema.Document, 0, len(s.entries))
	for _, e := range s.entries {
		if !matchesFilter(e.doc, cfg.Filter) {
			continue
		}
		score := similarity(cfg.Strategy, query, e.embedding)
		if cfg.Threshold != 0 && score < cfg.Threshold {
			continue
		}
		doc := e.doc
		doc.Score = score
		results = append(results, doc)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

func (s *Store) Delete(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.entries, id)
	}
	return nil
}

func similarity(strategy vectorstore.SearchStrategy, a, b []float32) float64 {
	switch strategy {
	case vectorstore.DotProduct:
		return dotProduct(a, b)
	case vectorstore.Euclidean:
		return -euclideanDistance(a, b)
	default:
		return cosineSimilarity(a, b)
	}
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	dot := dotProduct(a, b)
	normA := norm(a)
	normB := norm(b)
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (normA * normB)
}

func dotProduct(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func euclideanDistance(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func matchesFilter(doc schema.Document, filter map[string]any) bool {
	if len(filter) == 0 {
		return true
	}
	if doc.Metadata == nil {
		return false
	}
	for k, v := range filter {
		if doc.Metadata[k] != v {
			return false
		}
	}
	return true
}

func init() {
	vectorstore.Register("inmemory", func(cfg config.ProviderConfig) (vectorstore.VectorStore, error) {
		return New(), nil
	})
}

var _ vectorstore.VectorStore = (*Store)(nil)
