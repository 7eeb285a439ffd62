// Package splitter breaks documents and raw text into chunks sized for
// embedding and retrieval. Splitter is the port; built-in strategies
// register themselves via init(), mirroring the rag/vectorstore registry.
package splitter

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/HalfBloodPrince07/Vantage-sub000/config"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

// Splitter breaks text into chunks, or documents into chunked documents.
type Splitter interface {
	Split(ctx context.Context, text string) ([]string, error)
	SplitDocuments(ctx context.Context, docs []schema.Document) ([]schema.Document, error)
}

// Factory constructs a Splitter from a ProviderConfig. Strategies register
// a Factory via init().
type Factory func(cfg config.ProviderConfig) (Splitter, error)

var (
	registryMu sync.Mutex
	registry   = make(map[string]Factory)
)

// Register adds or replaces the factory for the named strategy.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// New constructs a Splitter for the named strategy using cfg.
func New(name string, cfg config.ProviderConfig) (Splitter, error) {
	registryMu.Lock()
	factory, ok := registry[name]
	registryMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("splitter: unknown strategy %q", name)
	}
	return factory(cfg)
}

// List returns the names of all registered strategies, sorted.
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

// splitDocumentsHelper implements the common SplitDocuments behavior shared
// by every Splitter: split each document's content, then stamp chunk
// metadata (parent_id, chunk_index, chunk_total) onto the resulting
// documents while preserving the parent's existing metadata.
func splitDocumentsHelper(ctx context.Context, s Splitter, docs []schema.Document) ([]schema.Document, error) {
	var result []schema.Document
	for _, doc := range docs {
		chunks, err := s.Split(ctx, doc.Content)
		if err != nil {
			return nil, err
		}

		total := len(chunks)
		for i, chunk := range chunks {
			meta := make(map[string]any, len(doc.Metadata)+3)
			for k, v := range doc.Metadata {
				meta[k] = v
			}
			meta["parent_id"] = doc.ID
			meta["chunk_index"] = i
			meta["chunk_total"] = total

			result = append(result, schema.Document{
				ID:       fmt.Sprintf("%s-%d", doc.ID, i),
				Content:  chunk,
				Metadata: meta,
			})
		}
	}
	return result, nil
}

func init() {
	Register("recursive", func(cfg config.ProviderConfig) (Splitter, error) {
		var opts []RecursiveOption
		if v, ok := config.GetOption[float64](cfg, "chunk_size"); ok {
			opts = append(opts, WithChunkSize(int(v)))
		}
		if v, ok := config.GetOption[float64](cfg, "chunk_overlap"); ok {
			opts = append(opts, WithChunkOverlap(int(v)))
		}
		return NewRecursiveSplitter(opts...), nil
	})

	Register("markdown", func(cfg config.ProviderConfig) (Splitter, error) {
		var opts []MarkdownOption
		if v, ok := config.GetOption[float64](cfg, "chunk_size"); ok {
			opts = append(opts, WithMarkdownChunkSize(int(v)))
		}
		if v, ok := config.GetOption[float64](cfg, "chunk_overlap"); ok {
			opts = append(opts, WithMarkdownChunkOverlap(int(v)))
		}
		if v, ok := config.GetOption[bool](cfg, "preserve_headers"); ok {
			opts = append(opts, WithPreserveHeaders(v))
		}
		return NewMarkdownSplitter(opts...), nil
	})

	Register("token", func(cfg config.ProviderConfig) (Splitter, error) {
		var opts []TokenOption
		if v, ok := config.GetOption[float64](cfg, "chunk_size"); ok {
			opts = append(opts, WithTokenChunkSize(int(v)))
		}
		if v, ok := config.GetOption[float64](cfg, "chunk_overlap"); ok {
			opts = append(opts, WithTokenChunkOverlap(int(v)))
		}
		return NewTokenSplitter(opts...), nil
	})
}
