package retriever

import "math"

// Strategy selects the weight profile HybridRetriever fuses its vector and
// lexical candidate sets with (§4.2). The zero value is StrategyHybrid.
type Strategy string

const (
	// StrategyPrecise favors exact lexical matches: queries naming a
	// specific file, ID, or literal phrase.
	StrategyPrecise Strategy = "precise"

	// StrategySemantic favors vector similarity over lexical overlap.
	StrategySemantic Strategy = "semantic"

	// StrategyHybrid balances lexical and vector signal. This is the
	// default when no strategy is given.
	StrategyHybrid Strategy = "hybrid"

	// StrategyExploratory adds graph-neighbor augmentation on top of the
	// semantic profile, for broad "what relates to X" queries.
	StrategyExploratory Strategy = "exploratory"

	// StrategyTemporal adds a recency boost on top of the semantic
	// profile, for "latest"/"recent" queries.
	StrategyTemporal Strategy = "temporal"
)

// strategyProfile is the resolved weight set for one Strategy.
type strategyProfile struct {
	VectorWeight  float64
	LexicalWeight float64
	GraphWeight   float64
	TimeWeight    float64
	PreferRecent  bool
	MinScore      float64
	GraphHops     int
}

// profileFor resolves s to its weight profile, defaulting unknown or empty
// strategies to StrategyHybrid's profile.
func profileFor(s Strategy) strategyProfile {
	switch s {
	case StrategyPrecise:
		return strategyProfile{LexicalWeight: 1.0, VectorWeight: 0.0, MinScore: 0.5}
	case StrategySemantic:
		return strategyProfile{LexicalWeight: 0.3, VectorWeight: 0.7, MinScore: 0.3}
	case StrategyExploratory:
		return strategyProfile{LexicalWeight: 0.3, VectorWeight: 0.7, GraphWeight: 0.3, GraphHops: 2, MinScore: 0.3}
	case StrategyTemporal:
		return strategyProfile{LexicalWeight: 0.3, VectorWeight: 0.7, TimeWeight: 0.2, PreferRecent: true, MinScore: 0.3}
	default:
		return strategyProfile{LexicalWeight: 0.3, VectorWeight: 0.7, MinScore: 0.3}
	}
}

// cosineSimilarity returns the cosine similarity of a and b, or 0 if either
// is empty, zero-length, or they differ in dimension.
func cosineSimilarity(a, b []float32) float64 {
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
