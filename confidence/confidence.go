// Package confidence implements §4.7's confidence scoring: a pure function
// assigning a [0,1] scalar to a generated answer, used for UI display and
// as the procedural-learning signal apply_feedback reweights on.
package confidence

import "strings"

const (
	base             = 0.5
	maxSourcesWeight = 0.2
	sourcesDenom     = 5.0
	maxQualityWeight = 0.2
	lengthWeightHigh = 0.15
	lengthWeightLow  = 0.10
	minAnswerLen     = 50
	maxAnswerLen     = 2000
	retrievalWeight  = 0.2
	defaultCritic    = 0.5
	certaintyWeight  = 0.2
	certaintyClamp   = 0.2
)

// certaintyPhrases and uncertaintyPhrases are the closed, lower-cased
// marker lists certainty/uncertainty counts are drawn from (§4.7). Matching
// is substring-based against the lower-cased answer.
var (
	certaintyPhrases = []string{
		"definitely", "certainly", "clearly", "without a doubt",
		"confirmed", "established", "always", "is known to",
	}
	uncertaintyPhrases = []string{
		"might", "may be", "possibly", "perhaps", "unclear",
		"uncertain", "not sure", "it's possible", "could be",
		"i don't know", "i'm not sure",
	}
)

// Input carries every signal Score needs.
type Input struct {
	// Answer is the generated response text.
	Answer string

	// SourceCount is the number of retrieved sources the answer cites.
	SourceCount int

	// TopSourceScore is the highest-ranked retrieved source's relevance
	// score, expected in [0,1] (values outside are clamped).
	TopSourceScore float64

	// RetrievalQuality is an externally supplied critic score in [0,1].
	// HasRetrievalQuality false uses the 0.5 default (§4.7).
	RetrievalQuality    float64
	HasRetrievalQuality bool
}

// Score computes §4.7's confidence formula:
//
//	confidence = base + sources + source_quality + length + retrieval_quality + certainty
//
// clamped to [0,1].
func Score(in Input) float64 {
	sources := clamp01(float64(in.SourceCount)/sourcesDenom) * maxSourcesWeight
	sourceQuality := clamp01(in.TopSourceScore) * maxQualityWeight
	length := lengthScore(in.Answer)
	retrieval := retrievalScore(in)
	certainty := certaintyScore(in.Answer)

	total := base + sources + sourceQuality + length + retrieval + certainty
	if total > 1.0 {
		return 1.0
	}
	if total < 0.0 {
		return 0.0
	}
	return total
}

func lengthScore(answer string) float64 {
	n := len(answer)
	if n >= minAnswerLen && n <= maxAnswerLen {
		return lengthWeightHigh
	}
	return lengthWeightLow
}

func retrievalScore(in Input) float64 {
	q := defaultCritic
	if in.HasRetrievalQuality {
		q = clamp01(in.RetrievalQuality)
	}
	return q * retrievalWeight
}

func certaintyScore(answer string) float64 {
	lower := strings.ToLower(answer)
	c := countMatches(lower, certaintyPhrases)
	u := countMatches(lower, uncertaintyPhrases)
	total := c + u
	if total == 0 {
		return 0
	}
	normalized := float64(c-u) / float64(total)
	score := normalized * certaintyWeight
	if score > certaintyClamp {
		return certaintyClamp
	}
	if score < -certaintyClamp {
		return -certaintyClamp
	}
	return score
}

func countMatches(lower string, phrases []string) int {
	n := 0
	for _, p := range phrases {
		n += strings.Count(lower, p)
	}
	return n
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
