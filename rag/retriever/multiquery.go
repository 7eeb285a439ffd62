package retriever

import (
	"context"
	"fmt"
	"strings"

	"github.com/HalfBloodPrince07/Vantage-sub000/llm"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

const defaultMultiQueryCount = 3

// MultiQueryRetriever generates several rephrasings of a query with an LLM,
// retrieves each independently through an inner Retriever, and merges the
// results, deduplicating by document ID.
type MultiQueryRetriever struct {
	inner      Retriever
	model      llm.ChatModel
	numQueries int
	hooks      Hooks
}

// MultiQueryOption configures a MultiQueryRetriever.
type MultiQueryOption func(*MultiQueryRetriever)

// WithMultiQueryCount sets how many query variants to generate.
func WithMultiQueryCount(n int) MultiQueryOption {
	return func(r *MultiQueryRetriever) {
		if n > 0 {
			r.numQueries = n
		}
	}
}

// WithMultiQueryHooks attaches lifecycle hooks.
func WithMultiQueryHooks(hooks Hooks) MultiQueryOption {
	return func(r *MultiQueryRetriever) { r.hooks = hooks }
}

// NewMultiQueryRetriever constructs a MultiQueryRetriever.
func NewMultiQueryRetriever(inner Retriever, model llm.ChatModel, opts ...MultiQueryOption) *MultiQueryRetriever {
	r := &MultiQueryRetriever{inner: inner, model: model, numQueries: defaultMultiQueryCount}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *MultiQueryRetriever) Retrieve(ctx context.Context, query string, opts ...Option) ([]schema.Document, error) {
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

func (r *MultiQueryRetriever) retrieve(ctx context.Context, query string, opts ...Option) ([]schema.Document, error) {
	variants, err := r.generateQueries(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("generate queries: %w", err)
	}

	var all []schema.Document
	for _, q := range variants {
		docs, err := r.inner.Retrieve(ctx, q, opts...)
		if err != nil {
			return nil, fmt.Errorf("multiquery retrieve: %w", err)
		}
		all = append(all, docs...)
	}

	return dedup(all), nil
}

func (r *MultiQueryRetriever) generateQueries(ctx context.Context, query string) ([]string, error) {
	prompt := fmt.Sprintf(
		"Generate %d different rephrasings of the following query, one per line, with no numbering or extra commentary.\n\nQuery: %s",
		r.numQueries, query)

	resp, err := r.model.Generate(ctx, []schema.Message{schema.NewHumanMessage(prompt)})
	if err != nil {
		return nil, err
	}

	lines := strings.Split(resp.Text(), "\n")
	variants := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		variants = append(variants, line)
	}
	return variants, nil
}
