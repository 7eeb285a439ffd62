package retriever

import (
	"context"
	"fmt"

	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

// RerankRetriever retrieves a candidate set from an inner Retriever, then
// reorders it with a Reranker.
type RerankRetriever struct {
	inner    Retriever
	reranker Reranker
	topN     int
	hooks    Hooks
}

// RerankOption configures a RerankRetriever.
type RerankOption func(*RerankRetriever)

// WithRerankTopN limits the reranked result to the top n documents. n <= 0
// means no truncation.
func WithRerankTopN(n int) RerankOption {
	return func(r *RerankRetriever) { r.topN = n }
}

// WithRerankHooks attaches lifecycle hooks, including OnRerank.
func WithRerankHooks(hooks Hooks) RerankOption {
	return func(r *RerankRetriever) { r.hooks = hooks }
}

// NewRerankRetriever constructs a RerankRetriever.
func NewRerankRetriever(inner Retriever, reranker Reranker, opts ...RerankOption) *RerankRetriever {
	r := &RerankRetriever{inner: inner, reranker: reranker}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RerankRetriever) Retrieve(ctx context.Context, query string, opts ...Option) ([]schema.Document, error) {
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

func (r *RerankRetriever) retrieve(ctx context.Context, query string, opts ...Option) ([]schema.Document, error) {
	docs, err := r.inner.Retrieve(ctx, query, opts...)
	if err != nil {
		return nil, fmt.Errorf("rerank inner retrieve: %w", err)
	}
	if len(docs) == 0 {
		return docs, nil
	}

	reranked, err := r.reranker.Rerank(ctx, query, docs)
	if err != nil {
		return nil, fmt.Errorf("rerank: %w", err)
	}

	if r.hooks.OnRerank != nil {
		r.hooks.OnRerank(ctx, query, docs, reranked)
	}

	if r.topN > 0 && len(reranked) > r.topN {
		reranked = reranked[:r.topN]
	}
	return reranked, nil
}
