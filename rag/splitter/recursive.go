package splitter

import (
	"context"
	"strings"

	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 200
)

var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// RecursiveSplitter splits text by trying a list of separators in order,
// falling back to the next separator (and ultimately character-level
// slicing) whenever a piece is still larger than chunkSize.
type RecursiveSplitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// RecursiveOption configures a RecursiveSplitter.
type RecursiveOption func(*RecursiveSplitter)

// WithChunkSize sets the maximum chunk size in characters. n <= 0 is ignored.
func WithChunkSize(n int) RecursiveOption {
	return func(s *RecursiveSplitter) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// WithChunkOverlap sets how many trailing characters of a chunk are
// repeated at the start of the next. n < 0 is ignored.
func WithChunkOverlap(n int) RecursiveOption {
	return func(s *RecursiveSplitter) {
		if n >= 0 {
			s.chunkOverlap = n
		}
	}
}

// WithSeparators overrides the ordered list of separators tried when
// splitting. An empty slice is ignored.
func WithSeparators(seps []string) RecursiveOption {
	return func(s *RecursiveSplitter) {
		if len(seps) > 0 {
			s.separators = seps
		}
	}
}

// NewRecursiveSplitter constructs a RecursiveSplitter.
func NewRecursiveSplitter(opts ...RecursiveOption) *RecursiveSplitter {
	s := &RecursiveSplitter{
		chunkSize:    defaultChunkSize,
		chunkOverlap: defaultChunkOverlap,
		separators:   defaultSeparators,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RecursiveSplitter) Split(_ context.Context, text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if len(text) <= s.chunkSize {
		return []string{text}, nil
	}

	pieces := s.splitBySeparators(text, s.separators)
	return s.mergeWithOverlap(pieces), nil
}

func (s *RecursiveSplitter) SplitDocuments(ctx context.Context, docs []schema.Document) ([]schema.Document, error) {
	return splitDocumentsHelper(ctx, s, docs)
}

// splitBySeparators recursively breaks text into pieces no larger than
// chunkSize, trying each separator in turn and falling back to the next
// one (eventually character-level slicing via the "" separator) whenever a
// segment is still too large.
func (s *RecursiveSplitter) splitBySeparators(text string, seps []string) []string {
	if len(text) <= s.chunkSize || len(seps) == 0 {
		return []string{text}
	}

	sep, rest := seps[0], seps[1:]

	if sep == "" {
		var parts []string
		for i := 0; i < len(text); i += s.chunkSize {
			end := i + s.chunkSize
			if end > len(text) {
				end = len(text)
			}
			parts = append(parts, text[i:end])
		}
		return parts
	}

	if !strings.Contains(text, sep) {
		return s.splitBySeparators(text, rest)
	}

	var pieces []string
	for _, segment := range strings.Split(text, sep) {
		if segment == "" {
			continue
		}
		if len(segment) > s.chunkSize {
			pieces = append(pieces, s.splitBySeparators(segment, rest)...)
		} else {
			pieces = append(pieces, segment)
		}
	}
	return pieces
}

// mergeWithOverlap packs atomic pieces into chunks up to chunkSize,
// carrying the trailing chunkOverlap characters of each chunk into the
// start of the next.
func (s *RecursiveSplitter) mergeWithOverlap(pieces []string) []string {
	var chunks []string
	var current strings.Builder

	for _, piece := range pieces {
		if current.Len() > 0 && current.Len()+1+len(piece) > s.chunkSize {
			chunks = append(chunks, current.String())
			overlap := s.getOverlap(current.String())
			current.Reset()
			current.WriteString(overlap)
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(piece)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// getOverlap returns the trailing chunkOverlap characters of text, or ""
// if chunkOverlap is non-positive or covers the whole text.
func (s *RecursiveSplitter) getOverlap(text string) string {
	if s.chunkOverlap <= 0 || s.chunkOverlap >= len(text) {
		return ""
	}
	return text[len(text)-s.chunkOverlap:]
}
