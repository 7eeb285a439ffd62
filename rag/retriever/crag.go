package retriever

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/HalfBloodPrince07/Vantage-sub000/llm"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

const defaultCRAGThreshold = 0.5

// CRAGRetriever implements Corrective RAG: an LLM scores each document
// retrieved by inner for relevance to the query, keeps only documents
// scoring above a threshold, and falls back to web search when none
// survive.
type CRAGRetriever struct {
	inner     Retriever
	model     llm.ChatModel
	web       WebSearcher
	threshold float64
	hooks     Hooks
}

// CRAGOption configures a CRAGRetriever.
type CRAGOption func(*CRAGRetriever)

// WithCRAGThreshold sets the minimum relevance score, in [-1, 1], for a
// document to be kept.
func WithCRAGThreshold(threshold float64) CRAGOption {
	return func(r *CRAGRetriever) { r.threshold = threshold }
}

// WithCRAGHooks attaches lifecycle hooks.
func WithCRAGHooks(hooks Hooks) CRAGOption {
	return func(r *CRAGRetriever) { r.hooks = hooks }
}

// NewCRAGRetriever constructs a CRAGRetriever. web may be nil, in which
// case irrelevant results fall back to nil rather than a web search.
func NewCRAGRetriever(inner Retriever, model llm.ChatModel, web WebSearcher, opts ...CRAGOption) *CRAGRetriever {
	r := &CRAGRetriever{inner: inner, model: model, web: web, threshold: defaultCRAGThreshold}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *CRAGRetriever) Retrieve(ctx context.Context, query string, opts ...Option) ([]schema.Document, error) {
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

func (r *CRAGRetriever) retrieve(ctx context.Context, query string, opts ...Option) ([]schema.Document, error) {
	cfg := ApplyOptions(opts...)

	docs, err := r.inner.Retrieve(ctx, query, opts...)
	if err != nil {
		return nil, fmt.Errorf("crag inner retrieve: %w", err)
	}
	if len(docs) == 0 {
		return r.fallback(ctx, query, cfg.TopK)
	}

	relevant := make([]schema.Document, 0, len(docs))
	for _, doc := range docs {
		score, err := r.evaluate(ctx, query, doc)
		if err != nil {
			return nil, fmt.Errorf("crag evaluate: %w", err)
		}
		if score >= r.threshold {
			doc.Score = score
			relevant = append(relevant, doc)
		}
	}

	if len(relevant) == 0 {
		return r.fallback(ctx, query, cfg.TopK)
	}
	if cfg.TopK > 0 && len(relevant) > cfg.TopK {
		relevant = relevant[:cfg.TopK]
	}
	return relevant, nil
}

func (r *CRAGRetriever) fallback(ctx context.Context, query string, k int) ([]schema.Document, error) {
	if r.web == nil {
		return nil, nil
	}
	docs, err := r.web.Search(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("crag web search: %w", err)
	}
	return docs, nil
}

func (r *CRAGRetriever) evaluate(ctx context.Context, query string, doc schema.Document) (float64, error) {
	prompt := fmt.Sprintf(
		"Rate the relevance of the document to the query on a scale from -1 (irrelevant) to 1 (highly relevant). Respond with only the number.\n\nQuery: %s\n\nDocument: %s",
		query, doc.Content)

	resp, err := r.model.Generate(ctx, []schema.Message{schema.NewHumanMessage(prompt)})
	if err != nil {
		return 0, err
	}

	score, err := strconv.ParseFloat(strings.TrimSpace(resp.Text()), 64)
	if err != nil {
		return 0, fmt.Errorf("parse relevance score: %w", err)
	}

	if score > 1.0 {
		score = 1.0
	}
	if score < -1.0 {
		score = -1.0
	}
	return score, nil
}
