package ingest

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/HalfBloodPrince07/Vantage-sub000/llm"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

// summarySchema is the strict JSON shape §4.3 step 5 asks the LLM for.
type summarySchema struct {
	Summary       string   `json:"summary" required:"true"`
	Keywords      []string `json:"keywords"`
	Entities      []string `json:"entities"`
	Topics        []string `json:"topics"`
	DocumentType  string   `json:"document_type" required:"true"`
	Relationships []extractedRelationship `json:"relationships"`
}

type extractedRelationship struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
}

const summarizeSystemPrompt = "Analyze the document below. Produce a concise summary, 5 to 10 " +
	"keywords, any named entities, 5 to 10 topics, a document_type classification, and any " +
	"subject-predicate-object relationships you can confidently extract."

// summarize implements §4.3 step 5: an LLM structured-output call, a
// greedy-brace-match recovery if structured parsing still fails, and a
// first-500-characters fallback that marks the document partial_index.
func (p *Pipeline) summarize(ctx context.Context, content string) (summarySchema, bool) {
	structured := llm.NewStructured[summarySchema](p.model)
	msgs := []schema.Message{
		schema.NewSystemMessage(summarizeSystemPrompt),
		schema.NewHumanMessage(content),
	}
	if result, err := structured.Generate(ctx, msgs); err == nil {
		return result, false
	}

	// structured.Generate already retried and failed to get parseable
	// JSON through the schema-constrained path; try a raw call and
	// greedy brace-matching before giving up entirely.
	if resp, err := p.model.Generate(ctx, msgs); err == nil {
		if result, ok := extractJSONObject(resp.Text()); ok {
			return result, false
		}
	}

	return fallbackSummary(content), true
}

// extractJSONObject finds the first balanced `{...}` substring and
// attempts to unmarshal it as a summarySchema.
func extractJSONObject(text string) (summarySchema, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return summarySchema{}, false
	}
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				var result summarySchema
				if err := json.Unmarshal([]byte(text[start:i+1]), &result); err == nil && result.Summary != "" {
					return result, true
				}
				return summarySchema{}, false
			}
		}
	}
	return summarySchema{}, false
}

func fallbackSummary(content string) summarySchema {
	const n = 500
	r := []rune(content)
	if len(r) > n {
		r = r[:n]
	}
	return summarySchema{
		Summary:      string(r),
		DocumentType: "other",
	}
}
