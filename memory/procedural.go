package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/HalfBloodPrince07/Vantage-sub000/config"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

// DefaultProceduralMinSamples is the minimum sample size a pattern needs
// before it is considered applicable (§4.4).
const DefaultProceduralMinSamples = 3

// ProceduralStore persists per-(user, pattern_type, data_key) success/
// failure counts. Implementations own the storage backend. Patterns are
// schema.ProceduralPattern values so Confidence/SampleSize/Applicable stay
// defined in one place.
type ProceduralStore interface {
	// Get returns the pattern for the given key triple, or the zero
	// schema.ProceduralPattern if none exists yet.
	Get(ctx context.Context, userID, patternType, dataKey string) (schema.ProceduralPattern, error)

	// Put persists pattern, keyed by (pattern.UserID, pattern.PatternType,
	// pattern.DataKey).
	Put(ctx context.Context, pattern schema.ProceduralPattern) error

	// All returns every stored pattern for userID.
	All(ctx context.Context, userID string) ([]schema.ProceduralPattern, error)
}

// Procedural implements the §4.4 procedural memory tier: per-(user,
// pattern_type, data_key) success/failure tracking, surfacing only patterns
// whose confidence and sample size clear the configured thresholds.
type Procedural struct {
	store      ProceduralStore
	minSamples int
	mu         sync.Mutex
}

// ProceduralOption configures a Procedural tier.
type ProceduralOption func(*Procedural)

// WithProceduralMinSamples overrides the minimum sample size a pattern
// needs before Applicable considers it. n <= 0 is ignored.
func WithProceduralMinSamples(n int) ProceduralOption {
	return func(p *Procedural) {
		if n > 0 {
			p.minSamples = n
		}
	}
}

// NewProcedural creates a Procedural tier backed by store. A nil store
// falls back to a process-local map.
func NewProcedural(store ProceduralStore, opts ...ProceduralOption) *Procedural {
	p := &Procedural{minSamples: DefaultProceduralMinSamples}
	if store == nil {
		store = newInlineProceduralStore()
	}
	p.store = store
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RecordOutcome increments the success or failure counter for
// (userID, patternType, dataKey), creating the pattern on first use.
func (p *Procedural) RecordOutcome(ctx context.Context, userID, patternType, dataKey string, success bool, data map[string]any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	pattern, err := p.store.Get(ctx, userID, patternType, dataKey)
	if err != nil {
		return fmt.Errorf("memory/procedural: get: %w", err)
	}
	pattern.UserID = userID
	pattern.PatternType = patternType
	pattern.DataKey = dataKey
	if pattern.ID == "" {
		pattern.ID = fmt.Sprintf("%s:%s:%s", userID, patternType, dataKey)
	}
	if data != nil {
		pattern.Data = data
	}
	if success {
		pattern.SuccessCount++
	} else {
		pattern.FailureCount++
	}
	return p.store.Put(ctx, pattern)
}

// ApplicablePatterns returns userID's patterns whose confidence and sample
// size clear this tier's thresholds.
func (p *Procedural) ApplicablePatterns(ctx context.Context, userID string) ([]schema.ProceduralPattern, error) {
	all, err := p.store.All(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("memory/procedural: all: %w", err)
	}
	applicable := make([]schema.ProceduralPattern, 0, len(all))
	for _, pat := range all {
		if pat.Applicable(p.minSamples) {
			applicable = append(applicable, pat)
		}
	}
	return applicable, nil
}

func init() {
	Register("procedural", func(cfg config.ProviderConfig) (Memory, error) {
		return nil, fmt.Errorf("memory/procedural: Procedural does not implement the generic Memory " +
			"interface (it tracks outcomes, not messages/documents); construct it directly with NewProcedural " +
			"and drive it via RecordOutcome/ApplicablePatterns from the memory coordinator")
	})
}

// inlineProceduralStore is the process-local ProceduralStore default.
type inlineProceduralStore struct {
	mu       sync.Mutex
	patterns map[string]schema.ProceduralPattern
}

func newInlineProceduralStore() *inlineProceduralStore {
	return &inlineProceduralStore{patterns: make(map[string]schema.ProceduralPattern)}
}

func proceduralKey(userID, patternType, dataKey string) string {
	return userID + "\x00" + patternType + "\x00" + dataKey
}

func (s *inlineProceduralStore) Get(_ context.Context, userID, patternType, dataKey string) (schema.ProceduralPattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.patterns[proceduralKey(userID, patternType, dataKey)], nil
}

func (s *inlineProceduralStore) Put(_ context.Context, pattern schema.ProceduralPattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patterns[proceduralKey(pattern.UserID, pattern.PatternType, pattern.DataKey)] = pattern
	return nil
}

func (s *inlineProceduralStore) All(_ context.Context, userID string) ([]schema.ProceduralPattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []schema.ProceduralPattern
	for _, pat := range s.patterns {
		if userID == "" || pat.UserID == userID {
			all = append(all, pat)
		}
	}
	return all, nil
}
