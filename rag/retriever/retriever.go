// Package retriever composes vectorstore, embedding, and BM25/web search
// backends into document retrieval pipelines. Retriever is the port;
// middleware, rerankers, and query-transformation strategies (HyDE,
// multi-query, CRAG, adaptive) wrap or compose a base Retriever.
package retriever

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/HalfBloodPrince07/Vantage-sub000/config"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

const defaultTopK = 10

// Retriever returns documents relevant to query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, opts ...Option) ([]schema.Document, error)
}

// Reranker reorders a candidate set of documents for query.
type Reranker interface {
	Rerank(ctx context.Context, query string, docs []schema.Document) ([]schema.Document, error)
}

// BM25Searcher performs lexical search, used by HybridRetriever alongside
// vector search.
type BM25Searcher interface {
	Search(ctx context.Context, query string, k int) ([]schema.Document, error)
}

// WebSearcher performs a live web search, used as a CRAG fallback when
// retrieved documents are judged irrelevant.
type WebSearcher interface {
	Search(ctx context.Context, query string, k int) ([]schema.Document, error)
}

// Config accumulates Options for a single Retrieve call.
type Config struct {
	TopK      int
	Threshold float64
	Metadata  map[string]any

	// Strategy selects the weight profile a strategy-aware retriever (e.g.
	// HybridRetriever) fuses candidates with (§4.2). Empty defaults to
	// StrategyHybrid.
	Strategy Strategy

	// Entities, when non-empty, seeds graph-neighbor augmentation for
	// StrategyExploratory.
	Entities []string

	// DiversityWeight, when > 0, enables MMR diversification of the final
	// top-K selection: lambda in [0,1] trading relevance for novelty.
	DiversityWeight float64
}

// Option configures a Retrieve call.
type Option func(*Config)

// WithTopK sets the maximum number of documents to return.
func WithTopK(k int) Option {
	return func(c *Config) { c.TopK = k }
}

// WithThreshold drops results whose score falls below threshold.
func WithThreshold(threshold float64) Option {
	return func(c *Config) { c.Threshold = threshold }
}

// WithMetadata restricts results to documents matching the given metadata
// filter.
func WithMetadata(metadata map[string]any) Option {
	return func(c *Config) {
		if c.Metadata == nil {
			c.Metadata = map[string]any{}
		}
		for k, v := range metadata {
			c.Metadata[k] = v
		}
	}
}

// WithStrategy selects the retrieval strategy's weight profile.
func WithStrategy(s Strategy) Option {
	return func(c *Config) { c.Strategy = s }
}

// WithEntities seeds graph-neighbor augmentation for StrategyExploratory.
func WithEntities(entities []string) Option {
	return func(c *Config) { c.Entities = entities }
}

// WithDiversity enables MMR diversification with the given lambda.
func WithDiversity(lambda float64) Option {
	return func(c *Config) { c.DiversityWeight = lambda }
}

// ApplyOptions builds a Config from opts, seeded with defaults.
func ApplyOptions(opts ...Option) Config {
	cfg := Config{TopK: defaultTopK}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Hooks are lifecycle callbacks invoked around a retrieval.
type Hooks struct {
	// BeforeRetrieve runs before the underlying retrieval. A non-nil error
	// aborts the retrieval and is returned unwrapped.
	BeforeRetrieve func(ctx context.Context, query string) error

	// AfterRetrieve runs after the retrieval completes, successfully or not.
	AfterRetrieve func(ctx context.Context, docs []schema.Document, err error)

	// OnRerank runs after a Reranker reorders a candidate set.
	OnRerank func(ctx context.Context, query string, before, after []schema.Document)
}

// ComposeHooks merges hooks into a single Hooks value whose fields iterate
// the inputs in order. BeforeRetrieve short-circuits on the first error.
// Every field of the result is non-nil, even if none of the inputs set it.
func ComposeHooks(hooks ...Hooks) Hooks {
	return Hooks{
		BeforeRetrieve: func(ctx context.Context, query string) error {
			for _, h := range hooks {
				if h.BeforeRetrieve == nil {
					continue
				}
				if err := h.BeforeRetrieve(ctx, query); err != nil {
					return err
				}
			}
			return nil
		},
		AfterRetrieve: func(ctx context.Context, docs []schema.Document, err error) {
			for _, h := range hooks {
				if h.AfterRetrieve != nil {
					h.AfterRetrieve(ctx, docs, err)
				}
			}
		},
		OnRerank: func(ctx context.Context, query string, before, after []schema.Document) {
			for _, h := range hooks {
				if h.OnRerank != nil {
					h.OnRerank(ctx, query, before, after)
				}
			}
		},
	}
}

// Factory constructs a Retriever from a ProviderConfig. Providers register
// a Factory via init().
type Factory func(cfg config.ProviderConfig) (Retriever, error)

var (
	registryMu sync.Mutex
	registry   = make(map[string]Factory)
)

// Register adds or replaces the factory for the named retriever provider.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// New constructs a Retriever for the named provider using cfg.
func New(name string, cfg config.ProviderConfig) (Retriever, error) {
	registryMu.Lock()
	factory, ok := registry[name]
	registryMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("retriever: unknown provider %q", name)
	}
	r, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("retriever: %s: %w", name, err)
	}
	return r, nil
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
