package retriever

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/HalfBloodPrince07/Vantage-sub000/rag/embedding"
	"github.com/HalfBloodPrince07/Vantage-sub000/rag/vectorstore"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

const minHybridCandidates = 20

// Result is hybrid retrieval's full answer to retrieve(query, filters?,
// top_k, strategy?) (§4.2): the fused, reranked, possibly diversified
// documents, the pre-fusion per-source scores used to build them, and the
// wall-clock time the retrieval took.
type Result struct {
	Documents  []schema.Document
	RawScores  map[string]SourceScores
	SearchTime time.Duration
}

// SourceScores is the per-candidate-source score a document earned before
// fusion.
type SourceScores struct {
	VectorScore  float64
	LexicalScore float64
}

// HybridRetriever combines vector search and lexical search, run
// concurrently against a shared cancellation, fusing the two candidate sets
// with a strategy-weighted Reciprocal Rank Fusion, then optionally
// augmenting with graph neighbors and diversifying with MMR.
type HybridRetriever struct {
	store     vectorstore.VectorStore
	embedder  embedding.Embedder
	bm25      BM25Searcher
	rrfK      int
	hooks     Hooks
	augmenter GraphAugmenter
}

// HybridOption configures a HybridRetriever.
type HybridOption func(*HybridRetriever)

// WithHybridRRFK sets the RRF K constant. k <= 0 is ignored and the default
// of 60 is used.
func WithHybridRRFK(k int) HybridOption {
	return func(r *HybridRetriever) {
		if k > 0 {
			r.rrfK = k
		}
	}
}

// WithHybridHooks attaches lifecycle hooks.
func WithHybridHooks(hooks Hooks) HybridOption {
	return func(r *HybridRetriever) { r.hooks = hooks }
}

// WithHybridGraphAugmenter attaches the entity-graph port used for
// StrategyExploratory augmentation.
func WithHybridGraphAugmenter(augmenter GraphAugmenter) HybridOption {
	return func(r *HybridRetriever) { r.augmenter = augmenter }
}

// NewHybridRetriever constructs a HybridRetriever.
func NewHybridRetriever(store vectorstore.VectorStore, embedder embedding.Embedder, bm25 BM25Searcher, opts ...HybridOption) *HybridRetriever {
	r := &HybridRetriever{store: store, embedder: embedder, bm25: bm25, rrfK: defaultRRFK}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *HybridRetriever) Retrieve(ctx context.Context, query string, opts ...Option) ([]schema.Document, error) {
	res, err := r.RetrieveDetailed(ctx, query, opts...)
	if err != nil {
		return nil, err
	}
	return res.Documents, nil
}

// RetrieveDetailed is §4.2's full retrieve() contract: it returns the fused
// results alongside their pre-fusion source scores and the search's
// wall-clock duration, instead of just the document slice Retrieve exposes
// to satisfy the shared Retriever interface.
func (r *HybridRetriever) RetrieveDetailed(ctx context.Context, query string, opts ...Option) (Result, error) {
	if r.hooks.BeforeRetrieve != nil {
		if err := r.hooks.BeforeRetrieve(ctx, query); err != nil {
			return Result{}, err
		}
	}

	started := time.Now()
	res, err := r.retrieve(ctx, query, opts...)
	res.SearchTime = time.Since(started)

	if r.hooks.AfterRetrieve != nil {
		r.hooks.AfterRetrieve(ctx, res.Documents, err)
	}
	return res, err
}

// fanOutResult carries one candidate source's outcome back from its
// goroutine.
type fanOutResult struct {
	docs []schema.Document
	err  error
}

func (r *HybridRetriever) retrieve(ctx context.Context, query string, opts ...Option) (Result, error) {
	cfg := ApplyOptions(opts...)
	profile := profileFor(cfg.Strategy)
	if cfg.Threshold == 0 {
		cfg.Threshold = profile.MinScore
	}

	candidateK := cfg.TopK * 2
	if candidateK < minHybridCandidates {
		candidateK = minHybridCandidates
	}

	// Vector and lexical search run concurrently against a shared
	// cancellation token: a slow or failing leg does not block the other,
	// and cancelling ctx (timeout, caller abort) stops both at once.
	fanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	vectorCh := make(chan fanOutResult, 1)
	lexicalCh := make(chan fanOutResult, 1)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if profile.VectorWeight <= 0 {
			vectorCh <- fanOutResult{}
			return
		}
		docs, err := r.searchVector(fanCtx, query, candidateK, cfg)
		vectorCh <- fanOutResult{docs: docs, err: err}
	}()

	go func() {
		defer wg.Done()
		if profile.LexicalWeight <= 0 {
			lexicalCh <- fanOutResult{}
			return
		}
		docs, err := r.bm25.Search(fanCtx, query, candidateK)
		lexicalCh <- fanOutResult{docs: docs, err: err}
	}()

	wg.Wait()
	vectorRes := <-vectorCh
	lexicalRes := <-lexicalCh

	vectorEnabled := profile.VectorWeight > 0
	lexicalEnabled := profile.LexicalWeight > 0

	// A single failing leg degrades to lexical-only (or vector-only); both
	// failing (or the sole enabled leg failing) is a hard error.
	if vectorEnabled && vectorRes.err != nil && (!lexicalEnabled || lexicalRes.err != nil) {
		return Result{}, fmt.Errorf("hybrid: vector search failed: %w", vectorRes.err)
	}
	if lexicalEnabled && lexicalRes.err != nil && (!vectorEnabled || vectorRes.err != nil) {
		return Result{}, fmt.Errorf("hybrid: lexical search failed: %w", lexicalRes.err)
	}

	rawScores := buildRawScores(vectorRes.docs, lexicalRes.docs)

	var sets [][]schema.Document
	var weights []float64
	if vectorEnabled && vectorRes.err == nil {
		sets = append(sets, vectorRes.docs)
		weights = append(weights, profile.VectorWeight)
	}
	if lexicalEnabled && lexicalRes.err == nil {
		sets = append(sets, lexicalRes.docs)
		weights = append(weights, profile.LexicalWeight)
	}
	if len(sets) == 0 {
		return Result{RawScores: rawScores}, nil
	}

	var fused []schema.Document
	if len(sets) == 1 {
		fused = sets[0]
	} else {
		strategy := NewWeightedStrategy(weights)
		var err error
		fused, err = strategy.Fuse(ctx, sets)
		if err != nil {
			return Result{}, fmt.Errorf("hybrid fuse: %w", err)
		}
	}

	fused = filterByMinScore(fused, cfg.Threshold)

	if profile.GraphWeight > 0 {
		fused = augmentWithGraph(ctx, r.augmenter, fused, cfg.Entities, profile.GraphHops, profile.GraphWeight)
	}

	topK := cfg.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	if cfg.DiversityWeight > 0 {
		fused = mmrSelect(fused, topK, cfg.DiversityWeight)
	} else if len(fused) > topK {
		fused = fused[:topK]
	}

	return Result{Documents: fused, RawScores: rawScores}, nil
}

func (r *HybridRetriever) searchVector(ctx context.Context, query string, candidateK int, cfg Config) ([]schema.Document, error) {
	vec, err := r.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("hybrid embed: %w", err)
	}

	var searchOpts []vectorstore.SearchOption
	if cfg.Threshold != 0 {
		searchOpts = append(searchOpts, vectorstore.WithThreshold(cfg.Threshold))
	}
	if len(cfg.Metadata) > 0 {
		searchOpts = append(searchOpts, vectorstore.WithFilter(cfg.Metadata))
	}
	return r.store.Search(ctx, vec, candidateK, searchOpts...)
}

func buildRawScores(vectorDocs, lexicalDocs []schema.Document) map[string]SourceScores {
	scores := make(map[string]SourceScores, len(vectorDocs)+len(lexicalDocs))
	for _, d := range vectorDocs {
		s := scores[d.ID]
		s.VectorScore = d.Score
		scores[d.ID] = s
	}
	for _, d := range lexicalDocs {
		s := scores[d.ID]
		s.LexicalScore = d.Score
		scores[d.ID] = s
	}
	return scores
}

func filterByMinScore(docs []schema.Document, minScore float64) []schema.Document {
	if minScore <= 0 {
		return docs
	}
	kept := make([]schema.Document, 0, len(docs))
	for _, d := range docs {
		if d.Score >= minScore {
			kept = append(kept, d)
		}
	}
	return kept
}
