// Package loader reads documents from files and external sources into
// schema.Document values ready for splitting and embedding. Loader is the
// port; built-in and provider loaders register via init().
package loader

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/HalfBloodPrince07/Vantage-sub000/config"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

// Loader reads a path (file path or source-specific identifier) into one
// or more documents.
type Loader interface {
	Load(ctx context.Context, path string) ([]schema.Document, error)
}

// Factory constructs a Loader from a ProviderConfig. Loaders register a
// Factory via init().
type Factory func(cfg config.ProviderConfig) (Loader, error)

var (
	registryMu sync.Mutex
	registry   = make(map[string]Factory)
)

// Register adds or replaces the factory for the named loader.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// New constructs a Loader for the named type using cfg.
func New(name string, cfg config.ProviderConfig) (Loader, error) {
	registryMu.Lock()
	factory, ok := registry[name]
	registryMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("loader: unknown type %q", name)
	}
	return factory(cfg)
}

// List returns the names of all registered loaders, sorted.
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

func init() {
	Register("text", func(config.ProviderConfig) (Loader, error) {
		return NewTextLoader(), nil
	})

	Register("markdown", func(config.ProviderConfig) (Loader, error) {
		return NewMarkdownLoader(), nil
	})

	Register("json", func(cfg config.ProviderConfig) (Loader, error) {
		var opts []JSONOption
		if v, ok := config.GetOption[string](cfg, "content_key"); ok {
			opts = append(opts, WithContentKey(v))
		}
		if v, ok := config.GetOption[string](cfg, "jq_path"); ok {
			opts = append(opts, WithJQPath(v))
		}
		return NewJSONLoader(opts...), nil
	})

	Register("csv", func(cfg config.ProviderConfig) (Loader, error) {
		var opts []CSVOption
		if v, ok := config.GetOption[string](cfg, "content_columns"); ok {
			opts = append(opts, WithContentColumns(v))
		}
		return NewCSVLoader(opts...), nil
	})
}
