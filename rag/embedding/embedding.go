// Package embedding converts text into fixed-length vector representations
// for semantic search. Embedder is the port; providers register
// implementations via init() against a name, mirroring the llm package's
// registry.
package embedding

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/HalfBloodPrince07/Vantage-sub000/config"
)

// Embedder converts text into vectors. All vectors produced by a single
// Embedder share the same dimensionality and model space; comparing
// vectors from different embedders is meaningless.
type Embedder interface {
	// Embed converts a batch of texts into vectors, one per input in order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedSingle is a convenience wrapper around Embed for one text.
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the fixed length of vectors this Embedder produces.
	Dimensions() int
}

// Factory constructs an Embedder from a ProviderConfig. Providers register
// a Factory via init().
type Factory func(cfg config.ProviderConfig) (Embedder, error)

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

// New constructs an Embedder for the named provider using cfg.
func New(name string, cfg config.ProviderConfig) (Embedder, error) {
	registryMu.Lock()
	factory, ok := registry[name]
	registryMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("embedding: unknown provider %q", name)
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
