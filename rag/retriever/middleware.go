package retriever

import (
	"context"

	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

// Middleware wraps a Retriever to add cross-cutting behavior.
type Middleware func(Retriever) Retriever

// ApplyMiddleware wraps r with mws in order: the first middleware ends up
// outermost (runs first), the last ends up innermost (runs just before r).
func ApplyMiddleware(r Retriever, mws ...Middleware) Retriever {
	for i := len(mws) - 1; i >= 0; i-- {
		r = mws[i](r)
	}
	return r
}

// WithHooks returns middleware that invokes hooks around the wrapped
// Retriever's Retrieve call. BeforeRetrieve errors are returned unwrapped
// without calling the inner retriever; AfterRetrieve always runs.
func WithHooks(hooks Hooks) Middleware {
	return func(next Retriever) Retriever {
		return &hookedRetriever{next: next, hooks: hooks}
	}
}

type hookedRetriever struct {
	next  Retriever
	hooks Hooks
}

func (h *hookedRetriever) Retrieve(ctx context.Context, query string, opts ...Option) ([]schema.Document, error) {
	if h.hooks.BeforeRetrieve != nil {
		if err := h.hooks.BeforeRetrieve(ctx, query); err != nil {
			return nil, err
		}
	}

	docs, err := h.next.Retrieve(ctx, query, opts...)

	if h.hooks.AfterRetrieve != nil {
		h.hooks.AfterRetrieve(ctx, docs, err)
	}
	return docs, err
}
