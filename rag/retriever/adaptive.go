package retriever

import (
	"context"
	"fmt"
	"strings"

	"github.com/HalfBloodPrince07/Vantage-sub000/llm"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

// QueryComplexity classifies how much retrieval effort a query needs.
type QueryComplexity string

const (
	ComplexityNoRetrieval QueryComplexity = "no_retrieval"
	ComplexitySimple      QueryComplexity = "simple"
	ComplexityComplex     QueryComplexity = "complex"
)

// AdaptiveRetriever classifies a query's complexity with an LLM and routes
// it to the appropriate inner Retriever.
type AdaptiveRetriever struct {
	model   llm.ChatModel
	simple  Retriever
	complex Retriever
	hooks   Hooks
}

// AdaptiveOption configures an AdaptiveRetriever.
type AdaptiveOption func(*AdaptiveRetriever)

// WithAdaptiveHooks attaches lifecycle hooks.
func WithAdaptiveHooks(hooks Hooks) AdaptiveOption {
	return func(r *AdaptiveRetriever) { r.hooks = hooks }
}

// NewAdaptiveRetriever constructs an AdaptiveRetriever.
func NewAdaptiveRetriever(model llm.ChatModel, simple, complex Retriever, opts ...AdaptiveOption) *AdaptiveRetriever {
	r := &AdaptiveRetriever{model: model, simple: simple, complex: complex}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *AdaptiveRetriever) Retrieve(ctx context.Context, query string, opts ...Option) ([]schema.Document, error) {
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

func (r *AdaptiveRetriever) retrieve(ctx context.Context, query string, opts ...Option) ([]schema.Document, error) {
	complexity, err := r.classify(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("adaptive classify: %w", err)
	}

	switch complexity {
	case ComplexityNoRetrieval:
		return nil, nil
	case ComplexityComplex:
		docs, err := r.complex.Retrieve(ctx, query, opts...)
		if err != nil {
			return nil, fmt.Errorf("adaptive complex: %w", err)
		}
		return docs, nil
	default:
		docs, err := r.simple.Retrieve(ctx, query, opts...)
		if err != nil {
			return nil, fmt.Errorf("adaptive simple: %w", err)
		}
		return docs, nil
	}
}

func (r *AdaptiveRetriever) classify(ctx context.Context, query string) (QueryComplexity, error) {
	prompt := fmt.Sprintf(
		"Classify the retrieval complexity of the following query as one of: no_retrieval, simple, complex. Respond with only the label.\n\nQuery: %s",
		query)

	resp, err := r.model.Generate(ctx, []schema.Message{schema.NewHumanMessage(prompt)})
	if err != nil {
		return "", err
	}

	text := strings.ToLower(resp.Text())
	switch {
	case strings.Contains(text, string(ComplexityNoRetrieval)):
		return ComplexityNoRetrieval, nil
	case strings.Contains(text, string(ComplexityComplex)):
		return ComplexityComplex, nil
	default:
		return ComplexitySimple, nil
	}
}
