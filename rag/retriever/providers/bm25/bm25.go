// Package bm25 implements the default, local-first BM25Searcher the hybrid
// retriever's lexical fan-out (§4.2) runs against: an in-process inverted
// index over the weighted field set spec.md names
// (summary^3, filename^2, keywords^1.5, full_content^1). Grounded on
// rag/vectorstore/providers/inmemory's mutex-guarded map-of-entries shape,
// generalized from vector cosine scoring to Okapi BM25 term scoring.
package bm25

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

// fieldWeight matches §4.2's lexical multi-match field boosts.
const (
	weightSummary  = 3.0
	weightFilename = 2.0
	weightKeywords = 1.5
	weightContent  = 1.0

	k1 = 1.2
	b  = 0.75
)

type entry struct {
	doc    schema.Document
	fields map[string][]string // field name -> tokenized terms
	length int
}

// Index is an in-memory BM25 lexical index, safe for concurrent use.
type Index struct {
	mu      sync.RWMutex
	entries map[string]*entry
	df      map[string]int // document frequency per term, across all fields
	avgLen  float64
}

// New constructs an empty Index.
func New() *Index {
	return &Index{entries: make(map[string]*entry), df: make(map[string]int)}
}

// Add indexes docs, tokenizing Metadata["summary"], Filename,
// Metadata["keywords"], and Content into the weighted fields §4.2 names.
func (idx *Index) Add(_ context.Context, docs []schema.Document) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, doc := range docs {
		fields := map[string][]string{
			"summary":      tokenize(metadataString(doc, "summary")),
			"filename":     tokenize(doc.Filename),
			"keywords":     tokenize(metadataString(doc, "keywords")),
			"full_content": tokenize(doc.Content),
		}
		length := 0
		seen := map[string]bool{}
		for _, terms := range fields {
			length += len(terms)
			for _, t := range terms {
				seen[t] = true
			}
		}
		for t := range seen {
			idx.df[t]++
		}
		idx.entries[doc.ID] = &entry{doc: doc, fields: fields, length: length}
	}
	idx.recomputeAvgLen()
	return nil
}

func (idx *Index) recomputeAvgLen() {
	if len(idx.entries) == 0 {
		idx.avgLen = 0
		return
	}
	total := 0
	for _, e := range idx.entries {
		total += e.length
	}
	idx.avgLen = float64(total) / float64(len(idx.entries))
}

// Search implements retriever.BM25Searcher: scores every indexed document
// against query's terms via weighted-field BM25 and returns the top k.
func (idx *Index) Search(_ context.Context, query string, k int) ([]schema.Document, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	terms := tokenize(query)
	if len(terms) == 0 || len(idx.entries) == 0 {
		return nil, nil
	}

	n := float64(len(idx.entries))
	type scored struct {
		doc   schema.Document
		score float64
	}
	var results []scored

	for _, e := range idx.entries {
		score := 0.0
		for field, weight := range map[string]float64{
			"summary": weightSummary, "filename": weightFilename,
			"keywords": weightKeywords, "full_content": weightContent,
		} {
			score += weight * bm25Field(e, field, terms, idx.df, n, idx.avgLen)
		}
		if score > 0 {
			results = append(results, scored{doc: e.doc, score: score})
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].score > results[j].score })
	if k > 0 && len(results) > k {
		results = results[:k]
	}

	docs := make([]schema.Document, len(results))
	for i, r := range results {
		docs[i] = r.doc
		docs[i].Score = r.score
	}
	return docs, nil
}

// bm25Field scores one field's term overlap with query terms using the
// classic Okapi BM25 formula against the document's overall length (fields
// are scored against the same avgLen/length since §4.2 treats the
// multi-match as one weighted lexical score, not per-field normalization).
func bm25Field(e *entry, field string, queryTerms []string, df map[string]int, n, avgLen float64) float64 {
	termCounts := map[string]int{}
	for _, t := range e.fields[field] {
		termCounts[t]++
	}
	if len(termCounts) == 0 {
		return 0
	}

	score := 0.0
	for _, qt := range queryTerms {
		tf := float64(termCounts[qt])
		if tf == 0 {
			continue
		}
		docFreq := float64(df[qt])
		if docFreq == 0 {
			continue
		}
		idf := math.Log(1 + (n-docFreq+0.5)/(docFreq+0.5))
		denom := tf + k1*(1-b+b*float64(e.length)/avgLenOrOne(avgLen))
		score += idf * (tf * (k1 + 1) / denom)
	}
	return score
}

func avgLenOrOne(avgLen float64) float64 {
	if avgLen == 0 {
		return 1
	}
	return avgLen
}

func tokenize(s string) []string {
	s = strings.ToLower(s)
	return strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}

func metadataString(doc schema.Document, key string) string {
	if doc.Metadata == nil {
		return ""
	}
	if v, ok := doc.Metadata[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
