package retriever

import (
	"context"
	"fmt"

	"github.com/HalfBloodPrince07/Vantage-sub000/rag/embedding"
	"github.com/HalfBloodPrince07/Vantage-sub000/rag/vectorstore"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

// VectorStoreRetriever embeds the query and searches a vectorstore.VectorStore.
type VectorStoreRetriever struct {
	store    vectorstore.VectorStore
	embedder embedding.Embedder
	hooks    Hooks
}

// VectorStoreOption configures a VectorStoreRetriever.
type VectorStoreOption func(*VectorStoreRetriever)

// WithVectorStoreHooks attaches lifecycle hooks.
func WithVectorStoreHooks(hooks Hooks) VectorStoreOption {
	return func(r *VectorStoreRetriever) { r.hooks = hooks }
}

// NewVectorStoreRetriever constructs a VectorStoreRetriever.
func NewVectorStoreRetriever(store vectorstore.VectorStore, embedder embedding.Embedder, opts ...VectorStoreOption) *VectorStoreRetriever {
	r := &VectorStoreRetriever{store: store, embedder: embedder}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *VectorStoreRetriever) Retrieve(ctx context.Context, query string, opts ...Option) ([]schema.Document, error) {
	if r.hooks.BeforeRetrieve != nil {
		if err := r.hooks.BeforeRetrieve(ctx, query); err != nil {
			return nil, err
		}
	}

	docs, err := r.retrieve(ctx, query, opts...)

	if r.hooks.AfterRetrieve != nil {
		r.hooks.AfterRetrieve(ctx, docs, err)
	}
	return docs, err
}

func (r *VectorStoreRetriever) retrieve(ctx context.Context, query string, opts ...Option) ([]schema.Document, error) {
	cfg := ApplyOptions(opts...)

	vec, err := r.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	var searchOpts []vectorstore.SearchOption
	if cfg.Threshold != 0 {
		searchOpts = append(searchOpts, vectorstore.WithThreshold(cfg.Threshold))
	}
	if len(cfg.Metadata) > 0 {
		searchOpts = append(searchOpts, vectorstore.WithFilter(cfg.Metadata))
	}

	return r.store.Search(ctx, vec, cfg.TopK, searchOpts...)
}
