package loader

import (
	"context"
	"fmt"

	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

// Transformer rewrites a document after it has been loaded, before it is
// handed off to splitting or embedding.
type Transformer interface {
	Transform(ctx context.Context, doc schema.Document) (schema.Document, error)
}

// TransformerFunc adapts a function to the Transformer interface.
type TransformerFunc func(ctx context.Context, doc schema.Document) (schema.Document, error)

func (f TransformerFunc) Transform(ctx context.Context, doc schema.Document) (schema.Document, error) {
	return f(ctx, doc)
}

// Pipeline runs a path through every configured Loader, passing each
// resulting document through every configured Transformer in order.
type Pipeline struct {
	loaders      []Loader
	transformers []Transformer
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithLoader adds a Loader to the pipeline. Every configured Loader is run
// against the same path; their results are concatenated.
func WithLoader(l Loader) PipelineOption {
	return func(p *Pipeline) { p.loaders = append(p.loaders, l) }
}

// WithTransformer adds a Transformer applied, in order, to every document
// produced by any Loader.
func WithTransformer(t Transformer) PipelineOption {
	return func(p *Pipeline) { p.transformers = append(p.transformers, t) }
}

// NewPipeline constructs a Pipeline.
func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) Load(ctx context.Context, path string) ([]schema.Document, error) {
	if len(p.loaders) == 0 {
		return nil, fmt.Errorf("pipeline: no loaders configured")
	}

	var all []schema.Document
	for _, l := range p.loaders {
		docs, err := l.Load(ctx, path)
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			for _, t := range p.transformers {
				doc, err = t.Transform(ctx, doc)
				if err != nil {
					return nil, err
				}
			}
			all = append(all, doc)
		}
	}
	return all, nil
}
