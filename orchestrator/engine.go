package orchestrator

import (
	"context"
	"iter"

	"github.com/HalfBloodPrince07/Vantage-sub000/core"
	"github.com/HalfBloodPrince07/Vantage-sub000/server"
)

// Engine adapts an Orchestrator to satisfy server.Engine: the seam between
// the HTTP transport (server.StdlibAdapter) and the state machine Process
// implements.
type Engine struct {
	o *Orchestrator
}

// NewEngine wraps o as a server.Engine.
func NewEngine(o *Orchestrator) *Engine {
	return &Engine{o: o}
}

var _ server.Engine = (*Engine)(nil)

func toRequest(req server.SearchRequest) Request {
	return Request{
		Query:             req.Query,
		UserID:            req.UserID,
		SessionID:         req.SessionID,
		AttachedDocuments: req.AttachedDocuments,
		TopK:              req.TopK,
		Filters:           req.Filters,
	}
}

// Search implements server.Engine.Search: runs Process to completion with
// no event sink and returns its terminal result.
func (e *Engine) Search(ctx context.Context, req server.SearchRequest) (server.SearchResult, error) {
	result, err := e.o.Process(ctx, toRequest(req), nil)
	if err != nil {
		return server.SearchResult{}, err
	}
	return server.SearchResult{
		Answer:     result.Response,
		Documents:  result.Results,
		Confidence: result.Confidence,
	}, nil
}

// StreamSearch implements server.Engine.StreamSearch: runs Process in a
// goroutine, translating every core.Event it emits into a server.Event and
// yielding them in order, followed by the terminal complete/error event.
func (e *Engine) StreamSearch(ctx context.Context, req server.SearchRequest) iter.Seq2[server.Event, error] {
	return func(yield func(server.Event, error) bool) {
		events := make(chan core.Event[any], core.DefaultStreamCapacity)
		done := make(chan error, 1)

		go func() {
			_, err := e.o.Process(ctx, toRequest(req), func(ev core.Event[any]) {
				select {
				case events <- ev:
				case <-ctx.Done():
				}
			})
			close(events)
			done <- err
		}()

		for ev := range events {
			if !yield(toServerEvent(ev), nil) {
				return
			}
		}
		if err := <-done; err != nil {
			yield(server.Event{Type: server.EventError, Data: err.Error()}, err)
		}
	}
}

func toServerEvent(ev core.Event[any]) server.Event {
	var t server.EventType
	switch ev.Type {
	case core.EventStep:
		t = server.EventStep
	case core.EventPartialResults:
		t = server.EventPartialResults
	case core.EventAnswerChunk:
		t = server.EventAnswerChunk
	case core.EventConfidence:
		t = server.EventConfidence
	case core.EventGraph:
		t = server.EventGraph
	case core.EventError:
		t = server.EventError
	case core.EventComplete:
		t = server.EventComplete
	default:
		t = server.EventStep
	}
	return server.Event{Type: t, Data: ev.Payload}
}
