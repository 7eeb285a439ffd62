package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync/atomic"
	"time"

	"github.com/HalfBloodPrince07/Vantage-sub000/config"
	"github.com/HalfBloodPrince07/Vantage-sub000/rag/embedding"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

// DefaultEpisodeTopK is the default number of similar past episodes
// load_context returns (§4.4).
const DefaultEpisodeTopK = 5

// DefaultEpisodeMinScore is the floor an episode's adjusted score must clear
// to be returned.
const DefaultEpisodeMinScore = 0.3

// episodeHalfLifeDays is the decay denominator: a one-year-old episode's
// cosine similarity is halved (§4.4's decay = 1/(1+days/365)).
const episodeHalfLifeDays = 365.0

// EpisodeStore persists and searches Episode records. Implementations own
// the storage backend; Episodic applies the adjusted-score ranking on top.
type EpisodeStore interface {
	// Put inserts or replaces an episode.
	Put(ctx context.Context, ep schema.Episode) error

	// Get returns the episode with the given ID.
	Get(ctx context.Context, id string) (schema.Episode, error)

	// All returns every stored episode for userID (or all users, if empty).
	All(ctx context.Context, userID string) ([]schema.Episode, error)
}

// Episodic implements the §4.4 episodic memory tier: similarity search over
// past query/response episodes, ranked by cosine similarity adjusted for
// recency decay and feedback.
type Episodic struct {
	store    EpisodeStore
	embedder embedding.Embedder
	topK     int
	minScore float64
	seq      atomic.Int64
}

// EpisodicOption configures an Episodic tier.
type EpisodicOption func(*Episodic)

// WithEpisodicTopK overrides the default top-K. k <= 0 is ignored.
func WithEpisodicTopK(k int) EpisodicOption {
	return func(e *Episodic) {
		if k > 0 {
			e.topK = k
		}
	}
}

// WithEpisodicMinScore overrides the default min-score floor.
func WithEpisodicMinScore(min float64) EpisodicOption {
	return func(e *Episodic) { e.minScore = min }
}

// NewEpisodic creates an Episodic tier. store and embedder must be non-nil.
func NewEpisodic(store EpisodeStore, embedder embedding.Embedder, opts ...EpisodicOption) (*Episodic, error) {
	if store == nil {
		return nil, fmt.Errorf("memory/episodic: EpisodeStore is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("memory/episodic: Embedder is required")
	}
	e := &Episodic{store: store, embedder: embedder, topK: DefaultEpisodeTopK, minScore: DefaultEpisodeMinScore}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// RecordEpisode embeds query and stores a new Episode for userID, returning
// its generated ID.
func (e *Episodic) RecordEpisode(ctx context.Context, userID, query, response string, resultIDs []string) (string, error) {
	vec, err := e.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return "", fmt.Errorf("memory/episodic: embed: %w", err)
	}
	ep := schema.Episode{
		ID:             fmt.Sprintf("ep-%d", e.seq.Add(1)),
		UserID:         userID,
		Query:          query,
		QueryEmbedding: vec,
		Response:       response,
		ResultIDs:      resultIDs,
		Timestamp:      time.Now(),
		DecayFactor:    1.0,
	}
	if err := e.store.Put(ctx, ep); err != nil {
		return "", fmt.Errorf("memory/episodic: put: %w", err)
	}
	return ep.ID, nil
}

// SimilarEpisodes returns the top-K episodes for userID whose adjusted
// similarity to query clears the configured min-score floor, ranked
// descending.
func (e *Episodic) SimilarEpisodes(ctx context.Context, userID, query string) ([]scoredEpisode, error) {
	vec, err := e.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("memory/episodic: embed query: %w", err)
	}
	episodes, err := e.store.All(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("memory/episodic: all: %w", err)
	}

	now := time.Now()
	scored := make([]scoredEpisode, 0, len(episodes))
	for _, ep := range episodes {
		cos := cosine(vec, ep.QueryEmbedding)
		ep.DecayFactor = decayFor(ep, now)
		adjusted := ep.AdjustedScore(cos)
		if adjusted < e.minScore {
			continue
		}
		scored = append(scored, scoredEpisode{Episode: ep, Score: adjusted})
	}
	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > e.topK {
		scored = scored[:e.topK]
	}
	return scored, nil
}

// ApplyFeedback updates episodeID's feedback rating (-1, 0, 1), which
// changes the multiplier future AdjustedScore calls apply to it.
func (e *Episodic) ApplyFeedback(ctx context.Context, episodeID string, rating int) error {
	ep, err := e.store.Get(ctx, episodeID)
	if err != nil {
		return fmt.Errorf("memory/episodic: get %q: %w", episodeID, err)
	}
	ep.Feedback = rating
	ep.AccessCount++
	return e.store.Put(ctx, ep)
}

// scoredEpisode pairs an Episode with the adjusted score it was ranked by.
type scoredEpisode struct {
	schema.Episode
	Score float64
}

// Save implements Memory as a no-op: episodes are recorded explicitly via
// RecordEpisode (the coordinator's record() needs the query/response text
// and result IDs that Save's Message-only signature cannot carry).
func (e *Episodic) Save(_ context.Context, _, _ schema.Message) error { return nil }

// Load implements Memory. Returns nil; episodic recall is surfaced via
// SimilarEpisodes, not the generic message-load path.
func (e *Episodic) Load(_ context.Context, _ string) ([]schema.Message, error) { return nil, nil }

// Search implements Memory. Episodic memory does not store Documents.
func (e *Episodic) Search(_ context.Context, _ string, _ int) ([]schema.Document, error) {
	return nil, nil
}

// Clear implements Memory. Episodic has no generic clear; a real
// deployment prunes via the decay job (§4.4) rather than wiping history.
func (e *Episodic) Clear(_ context.Context) error { return nil }

func init() {
	Register("episodic", func(cfg config.ProviderConfig) (Memory, error) {
		return nil, fmt.Errorf("memory/episodic: use NewEpisodic directly with an EpisodeStore and Embedder; " +
			"the registry factory cannot supply either")
	})
}

func decayFor(ep schema.Episode, now time.Time) float64 {
	days := now.Sub(ep.Timestamp).Hours() / 24
	if days < 0 {
		days = 0
	}
	return 1.0 / (1.0 + days/episodeHalfLifeDays)
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
