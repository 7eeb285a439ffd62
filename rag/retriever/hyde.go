package retriever

import (
	"context"
	"fmt"

	"github.com/HalfBloodPrince07/Vantage-sub000/llm"
	"github.com/HalfBloodPrince07/Vantage-sub000/rag/embedding"
	"github.com/HalfBloodPrince07/Vantage-sub000/rag/vectorstore"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

const defaultHyDEPrompt = "Write a short hypothetical passage that answers the following question.\n\nQuestion: %s"

// HyDERetriever implements Hypothetical Document Embeddings: an LLM drafts a
// hypothetical answer to the query, and that answer (not the query) is
// embedded and searched against a vector store.
type HyDERetriever struct {
	model    llm.ChatModel
	embedder embedding.Embedder
	store    vectorstore.VectorStore
	prompt   string
	hooks    Hooks
}

// HyDEOption configures a HyDERetriever.
type HyDEOption func(*HyDERetriever)

// WithHyDEPrompt overrides the prompt template used to generate the
// hypothetical document. It must contain exactly one %s verb for the query.
func WithHyDEPrompt(prompt string) HyDEOption {
	return func(r *HyDERetriever) { r.prompt = prompt }
}

// WithHyDEHooks attaches lifecycle hooks.
func WithHyDEHooks(hooks Hooks) HyDEOption {
	return func(r *HyDERetriever) { r.hooks = hooks }
}

// NewHyDERetriever constructs a HyDERetriever.
func NewHyDERetriever(model llm.ChatModel, embedder embedding.Embedder, store vectorstore.VectorStore, opts ...HyDEOption) *HyDERetriever {
	r := &HyDERetriever{model: model, embedder: embedder, store: store, prompt: defaultHyDEPrompt}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *HyDERetriever) Retrieve(ctx context.Context, query string, opts ...Option) ([]schema.Document, error) {
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

func (r *HyDERetriever) retrieve(ctx context.Context, query string, opts ...Option) ([]schema.Document, error) {
	cfg := ApplyOptions(opts...)

	hypothetical, err := r.generate(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("hyde generate: %w", err)
	}

	vec, err := r.embedder.EmbedSingle(ctx, hypothetical)
	if err != nil {
		return nil, fmt.Errorf("hyde embed: %w", err)
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

func (r *HyDERetriever) generate(ctx context.Context, query string) (string, error) {
	prompt := fmt.Sprintf(r.prompt, query)

	resp, err := r.model.Generate(ctx, []schema.Message{schema.NewHumanMessage(prompt)})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
