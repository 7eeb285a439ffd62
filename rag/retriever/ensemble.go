package retriever

import (
	"context"
	"fmt"

	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

const defaultRRFK = 60

// FusionStrategy combines multiple ranked result sets into one.
type FusionStrategy interface {
	Fuse(ctx context.Context, sets [][]schema.Document) ([]schema.Document, error)
}

// RRFStrategy implements Reciprocal Rank Fusion.
type RRFStrategy struct {
	K int
}

// NewRRFStrategy constructs an RRFStrategy. k <= 0 defaults to 60.
func NewRRFStrategy(k int) *RRFStrategy {
	if k <= 0 {
		k = defaultRRFK
	}
	return &RRFStrategy{K: k}
}

func (s *RRFStrategy) Fuse(_ context.Context, sets [][]schema.Document) ([]schema.Document, error) {
	scores := map[string]float64{}
	first := map[string]schema.Document{}
	var order []string

	for _, set := range sets {
		for rank, doc := range set {
			scores[doc.ID] += 1.0 / float64(s.K+rank+1)
			if _, ok := first[doc.ID]; !ok {
				first[doc.ID] = doc
				order = append(order, doc.ID)
			}
		}
	}

	result := make([]schema.Document, 0, len(order))
	for _, id := range order {
		doc := first[id]
		doc.Score = scores[id]
		result = append(result, doc)
	}
	sortByScore(result)
	return result, nil
}

// WeightedStrategy fuses result sets by a weighted sum of their scores.
type WeightedStrategy struct {
	weights []float64
}

// NewWeightedStrategy constructs a WeightedStrategy. Weights are normalized
// to sum to 1 at fuse time.
func NewWeightedStrategy(weights []float64) *WeightedStrategy {
	return &WeightedStrategy{weights: weights}
}

func (s *WeightedStrategy) Fuse(_ context.Context, sets [][]schema.Document) ([]schema.Document, error) {
	if len(s.weights) != len(sets) {
		return nil, fmt.Errorf("ensemble weighted: %d weights for %d result sets", len(s.weights), len(sets))
	}

	var sum float64
	for _, w := range s.weights {
		sum += w
	}
	if sum == 0 {
		return nil, fmt.Errorf("ensemble weighted: weights sum to zero")
	}

	scores := map[string]float64{}
	first := map[string]schema.Document{}
	var order []string

	for i, set := range sets {
		normalized := s.weights[i] / sum
		for _, doc := range set {
			scores[doc.ID] += doc.Score * normalized
			if _, ok := first[doc.ID]; !ok {
				first[doc.ID] = doc
				order = append(order, doc.ID)
			}
		}
	}

	result := make([]schema.Document, 0, len(order))
	for _, id := range order {
		doc := first[id]
		doc.Score = scores[id]
		result = append(result, doc)
	}
	sortByScore(result)
	return result, nil
}

// EnsembleRetriever queries multiple Retrievers and fuses their results.
type EnsembleRetriever struct {
	retrievers []Retriever
	strategy   FusionStrategy
	hooks      Hooks
}

// EnsembleOption configures an EnsembleRetriever.
type EnsembleOption func(*EnsembleRetriever)

// WithEnsembleHooks attaches lifecycle hooks.
func WithEnsembleHooks(hooks Hooks) EnsembleOption {
	return func(r *EnsembleRetriever) { r.hooks = hooks }
}

// NewEnsembleRetriever constructs an EnsembleRetriever. A nil strategy
// defaults to RRF with K=60.
func NewEnsembleRetriever(retrievers []Retriever, strategy FusionStrategy, opts ...EnsembleOption) *EnsembleRetriever {
	if strategy == nil {
		strategy = NewRRFStrategy(defaultRRFK)
	}
	r := &EnsembleRetriever{retrievers: retrievers, strategy: strategy}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *EnsembleRetriever) Retrieve(ctx context.Context, query string, opts ...Option) ([]schema.Document, error) {
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

func (r *EnsembleRetriever) retrieve(ctx context.Context, query string, opts ...Option) ([]schema.Document, error) {
	sets := make([][]schema.Document, len(r.retrievers))
	for i, inner := range r.retrievers {
		docs, err := inner.Retrieve(ctx, query, opts...)
		if err != nil {
			return nil, fmt.Errorf("ensemble retriever %d: %w", i, err)
		}
		sets[i] = docs
	}

	fused, err := r.strategy.Fuse(ctx, sets)
	if err != nil {
		return nil, fmt.Errorf("ensemble fuse: %w", err)
	}

	cfg := ApplyOptions(opts...)
	if cfg.TopK > 0 && len(fused) > cfg.TopK {
		fused = fused[:cfg.TopK]
	}
	return fused, nil
}
