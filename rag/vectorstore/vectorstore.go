// Package vectorstore persists document embeddings and serves nearest-
// neighbor search over them. VectorStore is the port; providers register
// implementations via init(), mirroring the rag/embedding registry.
package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/HalfBloodPrince07/Vantage-sub000/config"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

// SearchStrategy selects the similarity metric used by Search.
type SearchStrategy int

const (
	Cosine SearchStrategy = iota
	DotProduct
	Euclidean
)

func (s SearchStrategy) String() string {
	switch s {
	case Cosine:
		return "cosine"
	case DotProduct:
		return "dot_product"
	case Euclidean:
		return "euclidean"
	default:
		return "unknown"
	}
}

// SearchConfig accumulates SearchOptions.
type SearchConfig struct {
	Filter    map[string]any
	Threshold float64
	Strategy  SearchStrategy
}

// SearchOption configures a Search call.
type SearchOption func(*SearchConfig)

// WithFilter restricts results to documents whose metadata matches all
// key-value pairs in filter.
func WithFilter(filter map[string]any) SearchOption {
	return func(c *SearchConfig) {
		if c.Filter == nil {
			c.Filter = map[string]any{}
		}
		for k, v := range filter {
			c.Filter[k] = v
		}
	}
}

// WithThreshold drops results whose similarity score is below threshold.
func WithThreshold(threshold float64) SearchOption {
	return func(c *SearchConfig) { c.Threshold = threshold }
}

// WithStrategy selects the similarity metric.
func WithStrategy(strategy SearchStrategy) SearchOption {
	return func(c *SearchConfig) { c.Strategy = strategy }
}

// VectorStore persists document embeddings and serves similarity search.
type VectorStore interface {
	// Add upserts docs with their corresponding embeddings. len(docs) must
	// equal len(embeddings).
	Add(ctx context.Context, docs []schema.Document, embeddings [][]float32) error

	// Search returns up to k documents most similar to query, sorted by
	// descending score, with options applied.
	Search(ctx context.Context, query []float32, k int, opts ...SearchOption) ([]schema.Document, error)

	// Delete removes documents by ID. Deleting unknown IDs is not an error.
	Delete(ctx context.Context, ids []string) error
}

// Factory constructs a VectorStore from a ProviderConfig. Providers
// register a Factory via init().
type Factory func(cfg config.ProviderConfig) (VectorStore, error)

var (
	registryMu sync.Mutex
	registry   = make(map[string]Factory)
)

// Register adds or replaces the factory for the named provider.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// New constructs a VectorStore for the named provider using cfg.
func New(name string, cfg config.ProviderConfig) (VectorStore, error) {
	registryMu.Lock()
	factory, ok := registry[name]
	registryMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("vectorstore: unknown provider %q", name)
	}
	return factory(cfg)
}

// List returns the names of all registered providers, sorted.
func List() []string {
	registryMu.Lock()
	defer registryMu.Unlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
