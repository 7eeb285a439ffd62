package main

import (
	"encoding/json"
	"net/http"

	"github.com/HalfBloodPrince07/Vantage-sub000/ingest"
)

// registerIngestHandlers wires the §6.1 RPCs that depend on the document
// store/ingest pipeline directly onto adapter as plain http.Handlers,
// since server.ServerAdapter's RegisterHandler seam is transport-agnostic
// and doesn't know about ingest.Pipeline or store.Store.
func registerIngestHandlers(adapter interface {
	RegisterHandler(path string, handler http.Handler) error
}, pipeline *ingest.Pipeline) error {
	if err := adapter.RegisterHandler("/health", http.HandlerFunc(handleHealth)); err != nil {
		return err
	}
	if err := adapter.RegisterHandler("/ingest/directory", http.HandlerFunc(handleIndexDirectory(pipeline))); err != nil {
		return err
	}
	if err := adapter.RegisterHandler("/ingest/file", http.HandlerFunc(handleIndexFile(pipeline))); err != nil {
		return err
	}
	if err := adapter.RegisterHandler("/documents", http.HandlerFunc(handleDocuments(pipeline))); err != nil {
		return err
	}
	return nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type indexDirectoryRequest struct {
	Directory string `json:"directory"`
}

// handleIndexDirectory implements §6.1's IndexDirectory, streaming each
// ingest.Progress event as a newline-delimited JSON object and flushing
// after every write so a caller sees progress incrementally rather than
// waiting for the whole directory to finish.
func handleIndexDirectory(pipeline *ingest.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req indexDirectoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Directory == "" {
			http.Error(w, "directory is required", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/x-ndjson")
		flusher, canFlush := w.(http.Flusher)

		progress, report := pipeline.Ingest(r.Context(), req.Directory)
		enc := json.NewEncoder(w)
		for p := range progress {
			_ = enc.Encode(p)
			if canFlush {
				flusher.Flush()
			}
		}
		_ = enc.Encode(report())
	}
}

type indexFileRequest struct {
	Path string `json:"path"`
}

func handleIndexFile(pipeline *ingest.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req indexFileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
			http.Error(w, "path is required", http.StatusBadRequest)
			return
		}
		result := pipeline.IngestFile(r.Context(), req.Path)
		w.Header().Set("Content-Type", "application/json")
		if result.Err != nil {
			w.WriteHeader(http.StatusInternalServerError)
		}
		_ = json.NewEncoder(w).Encode(result)
	}
}

// handleDocuments implements GetDocument/DeleteDocument (§6.1) keyed by the
// `id` query parameter.
func handleDocuments(pipeline *ingest.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "id is required", http.StatusBadRequest)
			return
		}
		switch r.Method {
		case http.MethodGet:
			doc, err := pipeline.Document(r.Context(), id)
			if err != nil {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(doc)
		case http.MethodDelete:
			if err := pipeline.DeleteDocument(r.Context(), id); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}
