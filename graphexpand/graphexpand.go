// Package graphexpand implements §4.5's Entity Graph Expansion: walking the
// entity graph outward from a seed set of names to related entities and the
// documents that mention them.
package graphexpand

import (
	"context"
	"fmt"
	"strings"

	"github.com/HalfBloodPrince07/Vantage-sub000/memory"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

// DefaultMaxHops is expand()'s default traversal depth (§4.5).
const DefaultMaxHops = 2

// Expander implements expand(entity_names[], max_hops=2) over a
// memory.GraphStore, grounded on memory/graph.go's Neighbors(ctx, id,
// depth) contract.
type Expander struct {
	store memory.GraphStore
}

// New constructs an Expander backed by store.
func New(store memory.GraphStore) *Expander {
	return &Expander{store: store}
}

// Expand normalizes each entity name (case-fold, strip), resolves it to
// candidate entity IDs via the graph's Query, then performs a bounded
// breadth-first traversal from every candidate up to maxHops. maxHops <= 0
// uses DefaultMaxHops. Ambiguous names keep every matching candidate: later
// RRF fusion and reranking are expected to filter spurious expansions.
func (e *Expander) Expand(ctx context.Context, entityNames []string, maxHops int) (schema.GraphExpansion, error) {
	if maxHops <= 0 {
		maxHops = DefaultMaxHops
	}

	var result schema.GraphExpansion
	seen := map[string]bool{}
	for _, raw := range entityNames {
		name := normalizeName(raw)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		result.Original = append(result.Original, name)
	}

	seedIDs := map[string]bool{}
	for _, name := range result.Original {
		ids, err := e.resolve(ctx, name)
		if err != nil {
			return result, fmt.Errorf("graphexpand: resolve %q: %w", name, err)
		}
		for _, id := range ids {
			seedIDs[id] = true
		}
	}

	visited := map[string]bool{}
	expandedSet := map[string]bool{}
	docSet := map[string]bool{}
	var paths [][]string

	for seedID := range seedIDs {
		e.bfs(ctx, seedID, maxHops, visited, expandedSet, docSet, &paths, nil)
	}

	for id := range seedIDs {
		delete(expandedSet, id)
	}
	for id := range expandedSet {
		result.Expanded = append(result.Expanded, id)
	}
	for id := range docSet {
		result.RelatedDocumentIDs = append(result.RelatedDocumentIDs, id)
	}
	result.Paths = paths
	return result, nil
}

// ExpandEntities implements retriever.GraphAugmenter: resolves entityNames
// to the documents reachable within maxHops, reporting each document's
// shortest hop distance from any seed.
func (e *Expander) ExpandEntities(ctx context.Context, entityNames []string, maxHops int) (map[string]int, error) {
	if maxHops <= 0 {
		maxHops = DefaultMaxHops
	}

	seedIDs := map[string]bool{}
	for _, raw := range entityNames {
		name := normalizeName(raw)
		if name == "" {
			continue
		}
		ids, err := e.resolve(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("graphexpand: resolve %q: %w", name, err)
		}
		for _, id := range ids {
			seedIDs[id] = true
		}
	}

	hops := map[string]int{}
	visited := map[string]bool{}
	frontier := make([]string, 0, len(seedIDs))
	for id := range seedIDs {
		frontier = append(frontier, id)
		visited[id] = true
	}

	for level := 0; level <= maxHops && len(frontier) > 0; level++ {
		var nextFrontier []string
		for _, id := range frontier {
			entities, _, err := e.store.Neighbors(ctx, id, 1)
			if err != nil {
				return nil, fmt.Errorf("graphexpand: neighbors %q: %w", id, err)
			}
			recordDocHops(entities, level, hops)
			for _, ent := range entities {
				if !visited[ent.ID] {
					visited[ent.ID] = true
					nextFrontier = append(nextFrontier, ent.ID)
				}
			}
		}
		frontier = nextFrontier
	}
	return hops, nil
}

// bfs walks outward from start up to maxHops, recording every entity and
// document encountered into expanded/docs and every traversed edge into
// paths. visited prevents revisiting an entity within this Expand call,
// terminating cycles.
func (e *Expander) bfs(ctx context.Context, start string, maxHops int, visited, expanded, docs map[string]bool, paths *[][]string, path []string) {
	if visited[start] || maxHops <= 0 {
		return
	}
	visited[start] = true

	entities, relations, err := e.store.Neighbors(ctx, start, 1)
	if err != nil {
		return
	}
	collectDocIDs(entities, docs)
	for _, ent := range entities {
		expanded[ent.ID] = true
	}

	for _, rel := range relations {
		hop := append(append([]string{}, path...), fmt.Sprintf("%s|%s|%s", rel.From, rel.Type, rel.To))
		*paths = append(*paths, hop)
		next := rel.To
		if next == start {
			next = rel.From
		}
		e.bfs(ctx, next, maxHops-1, visited, expanded, docs, paths, hop)
	}
}

// resolve looks up name in the graph's query surface, returning candidate
// entity IDs. Every matching entity is kept; ambiguity is the caller's
// concern, not this function's.
func (e *Expander) resolve(ctx context.Context, name string) ([]string, error) {
	results, err := e.store.Query(ctx, name)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, r := range results {
		for _, ent := range r.Entities {
			ids = append(ids, ent.ID)
		}
	}
	return ids, nil
}

func normalizeName(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func collectDocIDs(entities []memory.Entity, docs map[string]bool) {
	for _, ent := range entities {
		docIDs, ok := ent.Properties["document_ids"]
		if !ok {
			continue
		}
		switch v := docIDs.(type) {
		case []string:
			for _, id := range v {
				docs[id] = true
			}
		case []any:
			for _, id := range v {
				if s, ok := id.(string); ok {
					docs[s] = true
				}
			}
		}
	}
}

func recordDocHops(entities []memory.Entity, hop int, hops map[string]int) {
	for _, ent := range entities {
		docIDs, ok := ent.Properties["document_ids"]
		if !ok {
			continue
		}
		ids := asStringSlice(docIDs)
		for _, id := range ids {
			if existing, ok := hops[id]; !ok || hop < existing {
				hops[id] = hop
			}
		}
	}
}

func asStringSlice(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
