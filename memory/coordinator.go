package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

// PatternRef names one procedural pattern an interaction drew on, so that
// feedback on the resulting episode can be propagated back to it.
type PatternRef struct {
	PatternType string
	DataKey     string
	Data        map[string]any
}

// Interaction is one query/response exchange to record across every tier
// (§4.4's record() contract).
type Interaction struct {
	Input           schema.Message
	Output          schema.Message
	Query           string
	Response        string
	ResultIDs       []string
	Topics          []string
	PatternsApplied []PatternRef
}

// Coordinator implements §4.4's Memory Coordinator: it composes the
// Session, Episodic, and Procedural tiers (plus an optional GraphStore)
// behind the three operations the orchestrator calls per query —
// load_context, record, and apply_feedback — rather than exposing the
// tiers' Save/Load/Search signatures directly, since none of those three
// operations maps cleanly onto the generic Memory interface once multiple
// tiers with different shapes are involved. Grounded on memory/composite.go's
// multi-tier composition pattern.
type Coordinator struct {
	session    *Session
	episodic   *Episodic
	procedural *Procedural
	graph      GraphStore

	mu          sync.Mutex
	topics      map[string]map[string]float64 // userID -> topic -> interest
	episodeRefs map[string][]PatternRef        // episodeID -> patterns applied when it was recorded
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithCoordinatorGraph attaches a graph store used only to look up
// entities mentioned in recorded interactions; graph expansion itself is
// the graphexpand package's job.
func WithCoordinatorGraph(g GraphStore) CoordinatorOption {
	return func(c *Coordinator) { c.graph = g }
}

// NewCoordinator composes session, episodic, and procedural tiers. session
// and procedural must be non-nil; episodic may be nil (episodic recall and
// feedback then become no-ops, degrading gracefully).
func NewCoordinator(session *Session, episodic *Episodic, procedural *Procedural, opts ...CoordinatorOption) (*Coordinator, error) {
	if session == nil {
		return nil, fmt.Errorf("memory/coordinator: session tier is required")
	}
	if procedural == nil {
		return nil, fmt.Errorf("memory/coordinator: procedural tier is required")
	}
	c := &Coordinator{
		session:     session,
		episodic:    episodic,
		procedural:  procedural,
		topics:      make(map[string]map[string]float64),
		episodeRefs: make(map[string][]PatternRef),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// LoadContext implements §4.4's load_context(user_id?, session_id?, query).
func (c *Coordinator) LoadContext(ctx context.Context, userID, sessionID, query string) (schema.Context, error) {
	var out schema.Context

	if sessionID != "" {
		turns, err := c.session.RecentTurns(ctx, sessionID)
		if err != nil {
			return out, fmt.Errorf("memory/coordinator: recent turns: %w", err)
		}
		out.RecentTurns = turns
	}

	if c.episodic != nil && userID != "" && query != "" {
		scored, err := c.episodic.SimilarEpisodes(ctx, userID, query)
		if err != nil {
			return out, fmt.Errorf("memory/coordinator: similar episodes: %w", err)
		}
		episodes := make([]schema.Episode, len(scored))
		for i, s := range scored {
			episodes[i] = s.Episode
		}
		out.Episodes = episodes
	}

	if userID != "" {
		patterns, err := c.procedural.ApplicablePatterns(ctx, userID)
		if err != nil {
			return out, fmt.Errorf("memory/coordinator: applicable patterns: %w", err)
		}
		out.Preferences = patterns
	}

	out.TopicPreferences = c.topicSnapshot(userID)
	return out, nil
}

// Record implements §4.4's record(user_id?, session_id?, interaction):
// appends to session, stores an episode, updates procedural counts for
// every pattern the interaction drew on (recorded as a success — outcomes
// only flip to failure via explicit negative feedback later), and bumps
// topic interest for the interaction's topics.
func (c *Coordinator) Record(ctx context.Context, userID, sessionID string, in Interaction) error {
	if sessionID != "" && in.Input != nil && in.Output != nil {
		if err := c.session.AppendTurn(ctx, sessionID, schema.Turn{Input: in.Input, Output: in.Output}); err != nil {
			return fmt.Errorf("memory/coordinator: append turn: %w", err)
		}
	}

	if c.episodic != nil && userID != "" && in.Query != "" {
		epID, err := c.episodic.RecordEpisode(ctx, userID, in.Query, in.Response, in.ResultIDs)
		if err != nil {
			return fmt.Errorf("memory/coordinator: record episode: %w", err)
		}
		if len(in.PatternsApplied) > 0 {
			c.mu.Lock()
			c.episodeRefs[epID] = in.PatternsApplied
			c.mu.Unlock()
		}
	}

	for _, ref := range in.PatternsApplied {
		if err := c.procedural.RecordOutcome(ctx, userID, ref.PatternType, ref.DataKey, true, ref.Data); err != nil {
			return fmt.Errorf("memory/coordinator: record outcome: %w", err)
		}
	}

	if userID != "" && len(in.Topics) > 0 {
		c.bumpTopics(userID, in.Topics, 1.0)
	}

	return nil
}

// ApplyFeedback implements §4.4's apply_feedback(episode_id, rating):
// updates the episode's own feedback/decay bookkeeping and reweights the
// procedural patterns that were applied when it was recorded — a positive
// rating reinforces them as successes, a negative rating as failures.
func (c *Coordinator) ApplyFeedback(ctx context.Context, episodeID string, rating int) error {
	if c.episodic != nil {
		if err := c.episodic.ApplyFeedback(ctx, episodeID, rating); err != nil {
			return fmt.Errorf("memory/coordinator: apply episode feedback: %w", err)
		}
	}
	if rating == 0 {
		return nil
	}

	c.mu.Lock()
	refs := c.episodeRefs[episodeID]
	c.mu.Unlock()

	success := rating > 0
	for _, ref := range refs {
		if err := c.procedural.RecordOutcome(ctx, "", ref.PatternType, ref.DataKey, success, ref.Data); err != nil {
			return fmt.Errorf("memory/coordinator: reweight pattern %s/%s: %w", ref.PatternType, ref.DataKey, err)
		}
	}
	return nil
}

func (c *Coordinator) bumpTopics(userID string, topics []string, weight float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.topics[userID]
	if !ok {
		m = make(map[string]float64)
		c.topics[userID] = m
	}
	for _, t := range topics {
		m[t] += weight
	}
}

func (c *Coordinator) topicSnapshot(userID string) map[string]float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.topics[userID]
	if !ok {
		return nil
	}
	snap := make(map[string]float64, len(m))
	for k, v := range m {
		snap[k] = v
	}
	return snap
}

// TopTopics returns userID's topics ordered by descending interest, capped
// at n (n <= 0 means no cap).
func (c *Coordinator) TopTopics(userID string, n int) []string {
	snap := c.topicSnapshot(userID)
	topics := make([]string, 0, len(snap))
	for t := range snap {
		topics = append(topics, t)
	}
	sort.Slice(topics, func(i, j int) bool { return snap[topics[i]] > snap[topics[j]] })
	if n > 0 && len(topics) > n {
		topics = topics[:n]
	}
	return topics
}
