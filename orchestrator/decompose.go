package orchestrator

import (
	"context"
	"strings"

	"github.com/HalfBloodPrince07/Vantage-sub000/llm"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

// DefaultMaxSubQueries bounds query decomposition (§4.1's default N=5).
const DefaultMaxSubQueries = 5

// complexityThreshold is the cue-phrase+punctuation score at or above which
// retrieve decomposes the query (§4.1).
const complexityThreshold = 3

var complexCues = []string{
	"compare", "versus", " vs ", "difference between", "relationship between",
	"both", "either", "as well as", "in addition to", "and also",
}

// complexityScore counts complex cue phrases, question marks, and
// "and"-conjunctions, exactly as §4.1 names the heuristic.
func complexityScore(query string) int {
	lower := strings.ToLower(query)
	score := 0
	for _, cue := range complexCues {
		score += strings.Count(lower, cue)
	}
	score += strings.Count(query, "?")
	score += strings.Count(lower, " and ")
	return score
}

// subQuery is one decomposed unit, matching §4.1's
// {id, query, purpose, priority, dependencies?} JSON shape.
type subQuery struct {
	ID           string   `json:"id" required:"true"`
	Query        string   `json:"query" required:"true"`
	Purpose      string   `json:"purpose"`
	Priority     int      `json:"priority"`
	Dependencies []string `json:"dependencies"`
}

type subQueryList struct {
	Queries []subQuery `json:"queries" required:"true"`
}

// decompose splits query into at most maxSubQueries sub-queries via the LLM
// with a strict JSON list schema. A parse/generation failure returns
// (nil, nil) so the caller falls back to the single-query path, per §4.1.
func decompose(ctx context.Context, model llm.ChatModel, query string, maxSubQueries int) ([]subQuery, error) {
	if maxSubQueries <= 0 {
		maxSubQueries = DefaultMaxSubQueries
	}
	if model == nil {
		return nil, nil
	}

	structured := llm.NewStructured[subQueryList](model)
	msgs := []schema.Message{
		schema.NewSystemMessage(
			"Break the user's query into at most N independent or dependent sub-queries " +
				"that together answer it. Each sub-query needs a short id, the sub-query text, " +
				"a one-line purpose, an integer priority (lower runs first), and the ids of any " +
				"sub-queries it depends on."),
		schema.NewHumanMessage(query),
	}
	result, err := structured.Generate(ctx, msgs)
	if err != nil {
		return nil, nil
	}

	queries := result.Queries
	if len(queries) > maxSubQueries {
		queries = queries[:maxSubQueries]
	}
	return queries, nil
}

// orderSubQueries groups sub-queries into sequential batches respecting
// declared dependencies: a sub-query runs only after every id in its
// Dependencies has already run. Sub-queries within a batch have no
// unresolved dependency on each other and are safe to run in parallel.
func orderSubQueries(queries []subQuery) [][]subQuery {
	done := map[string]bool{}
	remaining := append([]subQuery(nil), queries...)
	var batches [][]subQuery

	for len(remaining) > 0 {
		var batch, next []subQuery
		for _, q := range remaining {
			if dependenciesSatisfied(q, done) {
				batch = append(batch, q)
			} else {
				next = append(next, q)
			}
		}
		if len(batch) == 0 {
			// Unsatisfiable dependency (cycle or reference to a missing id):
			// run everything left as one final batch rather than deadlocking.
			batch = next
			next = nil
		}
		for _, q := range batch {
			done[q.ID] = true
		}
		batches = append(batches, batch)
		remaining = next
	}
	return batches
}

func dependenciesSatisfied(q subQuery, done map[string]bool) bool {
	for _, dep := range q.Dependencies {
		if !done[dep] {
			return false
		}
	}
	return true
}
