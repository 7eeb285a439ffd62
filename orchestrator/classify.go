package orchestrator

import (
	"context"
	"strings"

	"github.com/HalfBloodPrince07/Vantage-sub000/llm"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

// Intent is one of §4.1's classification tags.
type Intent string

const (
	IntentDocumentSearch     Intent = "DOCUMENT_SEARCH"
	IntentGeneralKnowledge   Intent = "GENERAL_KNOWLEDGE"
	IntentSystemMeta         Intent = "SYSTEM_META"
	IntentComparison         Intent = "COMPARISON"
	IntentSummarization      Intent = "SUMMARIZATION"
	IntentAnalysis           Intent = "ANALYSIS"
	IntentClarificationNeeded Intent = "CLARIFICATION_NEEDED"
)

// llmConfidenceThreshold is the point below which classify() defers from the
// deterministic keyword rules to the LLM (§4.1: "if confidence < 0.8").
const llmConfidenceThreshold = 0.8

// classification is the result of classify(): an intent plus a confidence
// the caller can compare against llmConfidenceThreshold.
type classification struct {
	Intent     Intent
	Confidence float64
}

// llmClassification is the strict JSON shape the LLM fallback is asked to
// produce.
type llmClassification struct {
	Intent     string  `json:"intent" enum:"DOCUMENT_SEARCH,GENERAL_KNOWLEDGE,SYSTEM_META,COMPARISON,SUMMARIZATION,ANALYSIS,CLARIFICATION_NEEDED" required:"true"`
	Confidence float64 `json:"confidence" minimum:"0" maximum:"1" required:"true"`
}

var (
	imageTerms       = []string{"image", "photo", "picture", "screenshot", "diagram"}
	comparisonTerms  = []string{"compare", "versus", " vs ", "difference between", "better than"}
	summarizeTerms   = []string{"summarize", "summarise", "tl;dr", "sum up", "overview of"}
	possessiveTerms  = []string{"my ", "our "}
	generalOpeners   = []string{"what is", "what are", "how does", "how do", "why does", "why do"}
)

// classifyByKeyword applies §4.1's deterministic keyword rules in the
// documented tie-break order, returning a candidate intent and confidence.
func classifyByKeyword(query string) classification {
	lower := strings.ToLower(query)

	if containsAny(lower, imageTerms) {
		return classification{IntentDocumentSearch, 0.95}
	}
	if containsAny(lower, comparisonTerms) {
		return classification{IntentComparison, 0.85}
	}
	if containsAny(lower, summarizeTerms) {
		return classification{IntentSummarization, 0.85}
	}
	if containsAny(lower, possessiveTerms) {
		return classification{IntentDocumentSearch, 0.85}
	}
	if containsAny(lower, generalOpeners) && !containsAny(lower, possessiveTerms) {
		return classification{IntentGeneralKnowledge, 0.85}
	}
	return classification{IntentDocumentSearch, 0.6}
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// classify runs the two-stage classification: deterministic keyword rules
// first, deferring to the LLM with a strict JSON schema only when the
// keyword stage's confidence falls below llmConfidenceThreshold.
func classify(ctx context.Context, model llm.ChatModel, query string) (classification, error) {
	rule := classifyByKeyword(query)
	if rule.Confidence >= llmConfidenceThreshold || model == nil {
		return rule, nil
	}

	structured := llm.NewStructured[llmClassification](model)
	msgs := []schema.Message{
		schema.NewSystemMessage(
			"Classify the user's query intent as exactly one of: DOCUMENT_SEARCH, " +
				"GENERAL_KNOWLEDGE, SYSTEM_META, COMPARISON, SUMMARIZATION, ANALYSIS, " +
				"CLARIFICATION_NEEDED. Respond with a confidence in [0,1]."),
		schema.NewHumanMessage(query),
	}
	result, err := structured.Generate(ctx, msgs)
	if err != nil {
		// JSON parsing/generation failure falls back to the rule-based guess
		// rather than failing the whole request.
		return rule, nil
	}
	intent := Intent(result.Intent)
	if !validIntent(intent) {
		return rule, nil
	}
	return classification{Intent: intent, Confidence: result.Confidence}, nil
}

func validIntent(i Intent) bool {
	switch i {
	case IntentDocumentSearch, IntentGeneralKnowledge, IntentSystemMeta,
		IntentComparison, IntentSummarization, IntentAnalysis, IntentClarificationNeeded:
		return true
	default:
		return false
	}
}

// route implements §4.1's classify → conditional transition.
func route(attachedDocuments []string, in Intent) string {
	if len(attachedDocuments) > 0 {
		return nodeDocumentAttach
	}
	switch in {
	case IntentGeneralKnowledge:
		return nodeDirectAnswer
	case IntentClarificationNeeded:
		return nodeClarify
	case IntentSummarization, IntentAnalysis, IntentComparison:
		return nodeAnalyzeOrSummarize
	default:
		return nodeRetrieve
	}
}
