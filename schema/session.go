package schema

import "time"

// Session is short-term conversation state: a sliding window of turns plus
// routing state carried forward between calls to the orchestrator (last
// intent, last result IDs). It is owned by a key-value port with TTL; see
// memory/session.go.
type Session struct {
	ID        string
	Turns     []Turn
	State     map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Turn is one user/assistant exchange within a Session. It corresponds to
// the spec's SessionTurn, represented here as a request/response pair of
// Messages rather than two separate role-tagged records, since every
// caller of memory.SessionStore consumes a turn as a unit.
type Turn struct {
	Input     Message
	Output    Message
	Timestamp time.Time
	Metadata  map[string]any
}

// Episode is a durable record of one query+response, used for episodic
// recall by similarity and feedback-weighted decay (§3, §4.2).
type Episode struct {
	ID             string
	UserID         string
	Query          string
	QueryEmbedding []float32
	Response       string
	ResultIDs      []string
	Confidence     float64
	// Feedback is -1 (negative), 0 (none), or 1 (positive).
	Feedback    int
	Timestamp   time.Time
	AccessCount int
	// DecayFactor is recomputed by the periodic decay job: 1/(1 + days/365).
	DecayFactor float64
}

// AdjustedScore combines cosine similarity to a query embedding with this
// episode's decay and feedback multiplier, per §4.2's recall formula.
func (e Episode) AdjustedScore(cosine float64) float64 {
	mult := 1.0
	switch e.Feedback {
	case 1:
		mult = 1.2
	case -1:
		mult = 0.5
	}
	return cosine * e.DecayFactor * mult
}

// ProceduralPattern is a learned (user, pattern_type, data_key) -> preference
// mapping derived from accumulated success/failure counts (§3, §4.2).
type ProceduralPattern struct {
	ID          string
	UserID      string
	PatternType string
	DataKey     string
	Data        map[string]any
	SuccessCount int
	FailureCount int
}

// Confidence is success/(success+failure), 0 when no samples exist yet.
func (p ProceduralPattern) Confidence() float64 {
	total := p.SuccessCount + p.FailureCount
	if total == 0 {
		return 0
	}
	return float64(p.SuccessCount) / float64(total)
}

// SampleSize is the total number of observations backing this pattern.
func (p ProceduralPattern) SampleSize() int {
	return p.SuccessCount + p.FailureCount
}

// Applicable reports whether this pattern meets the confidence and sample
// size thresholds (§4.2: confidence >= 0.6, sample size >= minSamples) to be
// used by the orchestrator rather than merely recorded.
func (p ProceduralPattern) Applicable(minSamples int) bool {
	return p.Confidence() >= 0.6 && p.SampleSize() >= minSamples
}
