package server

import (
	"context"
	"iter"

	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

// SearchRequest is the wire shape of the Search RPC: a query plus the
// session/attachment/filter context the orchestrator needs to run it.
type SearchRequest struct {
	Query             string         `json:"query"`
	TopK              int            `json:"top_k,omitempty"`
	UseHybrid         bool           `json:"use_hybrid,omitempty"`
	SessionID         string         `json:"session_id,omitempty"`
	UserID            string         `json:"user_id,omitempty"`
	AttachedDocuments []string       `json:"attached_documents,omitempty"`
	Filters           map[string]any `json:"filters,omitempty"`
}

// SearchResult is the final outcome of a Search call.
type SearchResult struct {
	Answer     string            `json:"answer"`
	Documents  []schema.Document `json:"documents,omitempty"`
	Confidence float64           `json:"confidence"`
}

// EventType enumerates the kinds of message a streamed Search emits.
type EventType string

const (
	EventStep           EventType = "step"
	EventPartialResults EventType = "partial_results"
	EventAnswerChunk    EventType = "answer_chunk"
	EventConfidence     EventType = "confidence"
	EventGraph          EventType = "graph"
	EventError          EventType = "error"
	EventComplete       EventType = "complete"
)

// Event is one message in a Search event stream.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data,omitempty"`
}

// Engine is the query-processing core a ServerAdapter exposes over HTTP.
// It is the seam between the wire transport and the orchestrator: Search
// runs the pipeline to completion, StreamSearch runs the same pipeline but
// yields progress events (steps, partial retrieval hits, answer tokens) as
// they happen.
type Engine interface {
	Search(ctx context.Context, req SearchRequest) (SearchResult, error)
	StreamSearch(ctx context.Context, req SearchRequest) iter.Seq2[Event, error]
}
