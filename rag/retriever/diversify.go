package retriever

import (
	"context"

	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

// GraphAugmenter resolves entity names to documents that mention them,
// within maxHops of the graph (§4.5). The returned map gives each document
// ID the shortest hop distance any seed entity was found at.
type GraphAugmenter interface {
	ExpandEntities(ctx context.Context, entityNames []string, maxHops int) (map[string]int, error)
}

// augmentWithGraph adds graphWeight/(1+hop) to each candidate in docs whose
// ID appears in the augmenter's result, skipping augmentation entirely if
// entities is empty or augmenter is nil.
func augmentWithGraph(ctx context.Context, augmenter GraphAugmenter, docs []schema.Document, entities []string, maxHops int, graphWeight float64) []schema.Document {
	if augmenter == nil || len(entities) == 0 || graphWeight <= 0 {
		return docs
	}
	hops, err := augmenter.ExpandEntities(ctx, entities, maxHops)
	if err != nil || len(hops) == 0 {
		return docs
	}
	for i := range docs {
		hop, ok := hops[docs[i].ID]
		if !ok {
			continue
		}
		docs[i].Score += graphWeight / float64(1+hop)
	}
	sortByScore(docs)
	return docs
}

// mmrSelect greedily selects up to topK documents from candidates, at each
// step picking the one maximizing (1-lambda)*relevance - lambda*maxSim to
// the documents already selected (§4.2). lambda <= 0 disables MMR and
// simply returns the top topK by score.
func mmrSelect(candidates []schema.Document, topK int, lambda float64) []schema.Document {
	if lambda <= 0 || topK <= 0 || len(candidates) <= topK {
		if topK > 0 && len(candidates) > topK {
			return candidates[:topK]
		}
		return candidates
	}

	remaining := make([]schema.Document, len(candidates))
	copy(remaining, candidates)
	selected := make([]schema.Document, 0, topK)

	for len(selected) < topK && len(remaining) > 0 {
		bestIdx := 0
		bestScore := mmrScore(remaining[0], selected, lambda)
		for i := 1; i < len(remaining); i++ {
			s := mmrScore(remaining[i], selected, lambda)
			if s > bestScore {
				bestScore = s
				bestIdx = i
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return selected
}

func mmrScore(candidate schema.Document, selected []schema.Document, lambda float64) float64 {
	maxSim := 0.0
	for _, s := range selected {
		if sim := cosineSimilarity(candidate.Embedding, s.Embedding); sim > maxSim {
			maxSim = sim
		}
	}
	return (1-lambda)*candidate.Score - lambda*maxSim
}
