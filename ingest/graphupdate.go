package ingest

import (
	"context"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"

	"github.com/HalfBloodPrince07/Vantage-sub000/memory"
	"github.com/HalfBloodPrince07/Vantage-sub000/store"
)

// fuzzyMatchThreshold is §4.3 step 7's "normalized Levenshtein similarity
// > 0.85" entity-resolution bar.
const fuzzyMatchThreshold = 0.85

const entityTypeDocument = "document"

// updateGraph implements §4.3 step 7: resolve each extracted entity against
// the existing graph (exact match, else fuzzy match of the same type),
// add/update the entity node, add a MENTIONS edge from the document node,
// and apply extracted relationships, strengthening existing edges.
func (p *Pipeline) updateGraph(ctx context.Context, docID string, summary summarySchema) error {
	docEntityID := "doc:" + docID
	if err := p.graph.AddEntity(ctx, memory.Entity{
		ID:   docEntityID,
		Type: entityTypeDocument,
		Properties: map[string]any{
			"name":        docID,
			"document_id": docID,
		},
	}); err != nil {
		return err
	}

	resolved := make(map[string]string, len(summary.Entities)) // entity name -> resolved ID
	for _, name := range summary.Entities {
		id := p.resolveOrCreateEntity(ctx, name, "entity", docID)
		resolved[name] = id
		if err := p.graph.AddRelation(ctx, docEntityID, id, "MENTIONS", map[string]any{"document_id": docID}); err != nil {
			return err
		}
	}

	for _, rel := range summary.Relationships {
		fromID, ok := resolved[rel.Subject]
		if !ok {
			fromID = p.resolveOrCreateEntity(ctx, rel.Subject, "entity", docID)
		}
		toID, ok := resolved[rel.Object]
		if !ok {
			toID = p.resolveOrCreateEntity(ctx, rel.Object, "entity", docID)
		}
		if fromID == "" || toID == "" || rel.Predicate == "" {
			continue
		}
		weight := p.existingRelationWeight(ctx, fromID, toID, rel.Predicate)
		if weight == 0 {
			weight = 0.5
		} else {
			weight = min(1.0, weight*1.1) // strengthen an already-witnessed edge (§4.3 step 7)
		}
		if err := p.graph.AddRelation(ctx, fromID, toID, rel.Predicate, map[string]any{
			"weight":      weight,
			"document_id": docID,
		}); err != nil {
			return err
		}
	}
	return nil
}

// resolveOrCreateEntity finds an existing entity by exact or fuzzy name
// match (same type), or creates a new one. witnessDocID is recorded on the
// entity's Properties as the set of documents that mention it.
func (p *Pipeline) resolveOrCreateEntity(ctx context.Context, name, entityType, witnessDocID string) string {
	if id := p.resolveEntity(name, entityType); id != "" {
		p.recordWitness(ctx, id, witnessDocID)
		return id
	}

	id := uuid.New().String()
	entity := memory.Entity{
		ID:   id,
		Type: entityType,
		Properties: map[string]any{
			"name":          name,
			"document_ids":  []string{witnessDocID},
		},
	}
	if err := p.graph.AddEntity(ctx, entity); err != nil {
		return ""
	}
	if err := p.docs.SaveEntity(ctx, store.Entity{ID: id, Type: entityType, Name: name, Properties: entity.Properties}); err != nil {
		return id // graph write already succeeded; persistence is best-effort here
	}

	p.mu.Lock()
	p.entities = append(p.entities, store.Entity{ID: id, Type: entityType, Name: name, Properties: entity.Properties})
	p.mu.Unlock()
	return id
}

func (p *Pipeline) resolveEntity(name, entityType string) string {
	p.mu.Lock()
	candidates := p.entities
	p.mu.Unlock()

	lowerName := strings.ToLower(strings.TrimSpace(name))
	for _, e := range candidates {
		if e.Type != entityType {
			continue
		}
		if strings.ToLower(strings.TrimSpace(e.Name)) == lowerName {
			return e.ID
		}
	}
	for _, e := range candidates {
		if e.Type != entityType {
			continue
		}
		if normalizedSimilarity(lowerName, strings.ToLower(strings.TrimSpace(e.Name))) > fuzzyMatchThreshold {
			return e.ID
		}
	}
	return ""
}

func (p *Pipeline) recordWitness(ctx context.Context, entityID, docID string) {
	p.mu.Lock()
	for i, e := range p.entities {
		if e.ID != entityID {
			continue
		}
		docs, _ := e.Properties["document_ids"].([]string)
		for _, d := range docs {
			if d == docID {
				p.mu.Unlock()
				return
			}
		}
		e.Properties["document_ids"] = append(docs, docID)
		p.entities[i] = e
		break
	}
	p.mu.Unlock()
}

// existingRelationWeight looks up a previously recorded edge weight via the
// live graph (Properties["weight"]), returning 0 if none exists.
func (p *Pipeline) existingRelationWeight(ctx context.Context, fromID, toID, relType string) float64 {
	results, err := p.graph.Query(ctx, "")
	if err != nil {
		return 0
	}
	for _, r := range results {
		for _, rel := range r.Relations {
			if rel.From == fromID && rel.To == toID && rel.Type == relType {
				if w, ok := rel.Properties["weight"].(float64); ok {
					return w
				}
			}
		}
	}
	return 0
}

// normalizedSimilarity converts Levenshtein edit distance into a
// [0,1]-normalized similarity score (§4.3 step 7).
func normalizedSimilarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(maxLen)
}
