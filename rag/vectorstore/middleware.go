package vectorstore

import (
	"context"

	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

// Middleware wraps a VectorStore to add cross-cutting behavior.
// Middlewares are applied outside-in: the first in the list is the
// outermost wrapper.
type Middleware func(VectorStore) VectorStore

// ApplyMiddleware wraps store with mws in reverse order so the first
// middleware in the list is the outermost (first to execute).
func ApplyMiddleware(store VectorStore, mws ...Middleware) VectorStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}

// WithHooks returns middleware that invokes hooks around Add/Search.
func WithHooks(hooks Hooks) Middleware {
	return func(next VectorStore) VectorStore {
		return &hookedStore{next: next, hooks: hooks}
	}
}

type hookedStore struct {
	next  VectorStore
	hooks Hooks
}

func (s *hookedStore) Add(ctx context.Context, docs []schema.Document, embeddings [][]float32) error {
	if s.hooks.BeforeAdd != nil {
		if err := s.hooks.BeforeAdd(ctx, docs); err != nil {
			return err
		}
	}
	return s.next.Add(ctx, docs, embeddings)
}

func (s *hookedStore) Search(ctx context.Context, query []float32, k int, opts ...SearchOption) ([]schema.Document, error) {
	results, err := s.next.Search(ctx, query, k, opts...)
	if s.hooks.AfterSearch != nil {
		s.hooks.AfterSearch(ctx, results, err)
	}
	return results, err
}

func (s *hookedStore) Delete(ctx context.Context, ids []string) error {
	return s.next.Delete(ctx, ids)
}
