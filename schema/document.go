// Package schema defines the data types shared across Vantage's retrieval,
// ingestion, memory, and orchestration packages.
package schema

import "time"

// Document is an indexed item: one file (or file-derived chunk) made
// searchable by the ingestion pipeline. Its ID is a stable identifier
// derived from the canonical file path (a content hash of the absolute
// path), so re-ingesting the same path yields the same ID.
type Document struct {
	// ID uniquely identifies the document.
	ID string `json:"id"`

	// Content is the chunk or excerpt text passed to retrieval and
	// reranking. For whole-document results this mirrors Summary.
	Content string `json:"content"`

	// Metadata holds arbitrary key-value pairs (source, page, tags, ...).
	Metadata map[string]any `json:"metadata,omitempty"`

	// Score is the retrieval/rerank score assigned to this document in the
	// context of a specific query. It is not persisted; it is populated on
	// documents returned from a search.
	Score float64 `json:"score,omitempty"`

	// Embedding is the fixed-length, unit-normalized vector representation.
	// Its dimension must equal the store's configured global dimension.
	Embedding []float32 `json:"embedding,omitempty"`

	// EmbeddingModel identifies which embedding model produced Embedding.
	// Vector search rejects queries whose embedding model differs from the
	// model that produced a stored document's vector (core.Conflict),
	// rather than silently comparing vectors from different model spaces.
	EmbeddingModel string `json:"embedding_model,omitempty"`

	// Filename is the base name of the source file.
	Filename string `json:"filename"`

	// Path is the canonical absolute filesystem path.
	Path string `json:"path"`

	// FileType is the file extension or MIME-derived type (pdf, docx, md, ...).
	FileType string `json:"file_type"`

	// DocType is the semantic classification assigned during ingestion
	// (e.g. "report", "meeting_notes", "code", "invoice").
	DocType string `json:"doc_type,omitempty"`

	// Summary is a short (1-2 sentence) LLM-generated summary.
	Summary string `json:"summary,omitempty"`

	// DetailedSummary is a longer structured summary used for
	// document-attachment synthesis (§4.6).
	DetailedSummary string `json:"detailed_summary,omitempty"`

	// Keywords is the set of extracted terms.
	Keywords []string `json:"keywords,omitempty"`

	// Entities is the set of entity names mentioned in the document.
	Entities []string `json:"entities,omitempty"`

	// Topics is the set of extracted topics.
	Topics []string `json:"topics,omitempty"`

	// FullContent is the extracted text, truncated deterministically to
	// MaxFullContentChars.
	FullContent string `json:"full_content,omitempty"`

	// CreatedAt is when the document was first indexed.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the document was last re-indexed.
	UpdatedAt time.Time `json:"updated_at"`

	// FileSize is the size of the source file in bytes.
	FileSize int64 `json:"file_size"`

	// PageCount is set for paginated formats (pdf, docx).
	PageCount int `json:"page_count,omitempty"`

	// Author is extracted from file metadata when available.
	Author string `json:"author,omitempty"`
}

// MaxFullContentChars bounds Document.FullContent per spec.md's "bounded to
// ~50k characters" invariant.
const MaxFullContentChars = 50_000

// TruncateFullContent deterministically truncates s to MaxFullContentChars,
// cutting on a rune boundary.
func TruncateFullContent(s string) string {
	r := []rune(s)
	if len(r) <= MaxFullContentChars {
		return s
	}
	return string(r[:MaxFullContentChars])
}
