package retriever

import (
	"sort"

	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

// sortByScore sorts docs in place by descending Score, preserving the
// relative order of documents with equal scores.
func sortByScore(docs []schema.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].Score > docs[j].Score
	})
}

// dedup returns a new slice containing one document per distinct ID,
// keeping the highest-scoring occurrence (ties keep the first occurrence),
// in order of first appearance. It does not mutate docs.
func dedup(docs []schema.Document) []schema.Document {
	best := make(map[string]int, len(docs))
	result := make([]schema.Document, 0, len(docs))

	for _, doc := range docs {
		idx, seen := best[doc.ID]
		if !seen {
			best[doc.ID] = len(result)
			result = append(result, doc)
			continue
		}
		if doc.Score > result[idx].Score {
			result[idx] = doc
		}
	}
	return result
}
