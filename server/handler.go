package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// SearchResponse is the JSON body returned by the synchronous /search
// endpoint.
type SearchResponse struct {
	SearchResult
	Error string `json:"error,omitempty"`
}

// NewEngineHandler returns an http.Handler exposing e over HTTP: a
// synchronous "POST /search" and a streaming "POST /search/stream" that
// emits Server-Sent Events as the pipeline runs.
func NewEngineHandler(e Engine) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/search", handleSearch(e)).Methods(http.MethodPost)
	r.HandleFunc("/search/stream", handleSearchStream(e)).Methods(http.MethodPost)
	return r
}

func handleSearch(e Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		result, err := e.Search(r.Context(), req)
		w.Header().Set("Content-Type", "application/json")
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(SearchResponse{Error: err.Error()})
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(SearchResponse{SearchResult: result})
	}
}

func handleSearchStream(e Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		sw, err := NewSSEWriter(w)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		for ev, err := range e.StreamSearch(r.Context(), req) {
			if err != nil {
				data, _ := json.Marshal(map[string]string{"error": err.Error()})
				sw.WriteEvent(SSEEvent{Event: string(EventError), Data: string(data)})
				return
			}
			data, _ := json.Marshal(ev.Data)
			sw.WriteEvent(SSEEvent{Event: string(ev.Type), Data: string(data)})
		}
		sw.WriteEvent(SSEEvent{Event: string(EventComplete), Data: "{}"})
	}
}
