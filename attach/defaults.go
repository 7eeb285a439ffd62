package attach

import (
	"context"
	"fmt"

	"github.com/HalfBloodPrince07/Vantage-sub000/llm"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
	"github.com/HalfBloodPrince07/Vantage-sub000/store"
)

// StoreLoader implements Loader against the relational document table
// ingest.Pipeline populates (§4.3/§6.3): the common case where an
// "attachment" is simply a previously-ingested document referenced by ID.
type StoreLoader struct {
	docs store.Store
}

// NewStoreLoader constructs a StoreLoader.
func NewStoreLoader(docs store.Store) *StoreLoader {
	return &StoreLoader{docs: docs}
}

func (l *StoreLoader) Load(ctx context.Context, attachmentID string) (schema.Document, error) {
	doc, err := l.docs.GetDocument(ctx, attachmentID)
	if err != nil {
		return schema.Document{}, fmt.Errorf("attach: load %q: %w", attachmentID, err)
	}
	return doc, nil
}

var _ Loader = (*StoreLoader)(nil)

// capsuleSchema is the strict JSON shape LLMAnalyzer asks the model for.
type capsuleSchema struct {
	DocumentType     string   `json:"document_type" required:"true"`
	KeyConcepts      []string `json:"key_concepts"`
	ExecutiveSummary string   `json:"executive_summary" required:"true"`
	KeyPoints        []string `json:"key_points"`
	Entities         []string `json:"entities"`
	ActionItems      []string `json:"action_items"`
}

// LLMAnalyzer implements Analyzer by asking the chat model to extract a
// capsule's fields from the document's content via structured output.
type LLMAnalyzer struct {
	model llm.ChatModel
}

// NewLLMAnalyzer constructs an LLMAnalyzer.
func NewLLMAnalyzer(model llm.ChatModel) *LLMAnalyzer {
	return &LLMAnalyzer{model: model}
}

func (a *LLMAnalyzer) Analyze(ctx context.Context, doc schema.Document) (Capsule, error) {
	structured := llm.NewStructured[capsuleSchema](a.model)
	msgs := []schema.Message{
		schema.NewSystemMessage(
			"Analyze the document below. Classify its document_type, and extract " +
				"key_concepts, an executive_summary, key_points, named entities, and any " +
				"action_items. Be concise."),
		schema.NewHumanMessage(doc.Content),
	}
	result, err := structured.Generate(ctx, msgs)
	if err != nil {
		return Capsule{}, fmt.Errorf("attach: analyze %q: %w", doc.ID, err)
	}
	return Capsule{
		DocumentID:       doc.ID,
		Filename:         doc.Filename,
		DocumentType:     result.DocumentType,
		KeyConcepts:      result.KeyConcepts,
		ExecutiveSummary: result.ExecutiveSummary,
		KeyPoints:        result.KeyPoints,
		Entities:         result.Entities,
		ActionItems:      result.ActionItems,
	}, nil
}

var _ Analyzer = (*LLMAnalyzer)(nil)
