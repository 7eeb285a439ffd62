package splitter

import (
	"context"
	"strings"

	"github.com/HalfBloodPrince07/Vantage-sub000/llm"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

const (
	defaultTokenChunkSize    = 500
	defaultTokenChunkOverlap = 50
)

// TokenSplitter splits text on word boundaries, packing words into chunks
// bounded by an approximate token count rather than a character count.
type TokenSplitter struct {
	chunkSize    int
	chunkOverlap int
	tokenizer    llm.Tokenizer
}

// TokenOption configures a TokenSplitter.
type TokenOption func(*TokenSplitter)

// WithTokenChunkSize sets the maximum chunk size in tokens. n <= 0 is
// ignored.
func WithTokenChunkSize(n int) TokenOption {
	return func(s *TokenSplitter) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// WithTokenChunkOverlap sets how many trailing tokens of a chunk are
// repeated at the start of the next. n < 0 is ignored.
func WithTokenChunkOverlap(n int) TokenOption {
	return func(s *TokenSplitter) {
		if n >= 0 {
			s.chunkOverlap = n
		}
	}
}

// WithTokenizer overrides the Tokenizer used to count tokens per word. nil
// is ignored.
func WithTokenizer(tok llm.Tokenizer) TokenOption {
	return func(s *TokenSplitter) {
		if tok != nil {
			s.tokenizer = tok
		}
	}
}

// NewTokenSplitter constructs a TokenSplitter.
func NewTokenSplitter(opts ...TokenOption) *TokenSplitter {
	s := &TokenSplitter{
		chunkSize:    defaultTokenChunkSize,
		chunkOverlap: defaultTokenChunkOverlap,
		tokenizer:    &llm.SimpleTokenizer{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TokenSplitter) Split(_ context.Context, text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, nil
	}

	var chunks []string
	start := 0
	for start < len(words) {
		end := start
		tokens := 0
		for end < len(words) {
			wTokens := s.tokenizer.Count(words[end])
			if tokens > 0 && tokens+wTokens > s.chunkSize {
				break
			}
			tokens += wTokens
			end++
		}
		if end == start {
			end = start + 1
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))

		if end >= len(words) {
			break
		}

		next := end
		if s.chunkOverlap > 0 {
			overlapTokens := 0
			i := end
			for i > start && overlapTokens < s.chunkOverlap {
				i--
				overlapTokens += s.tokenizer.Count(words[i])
			}
			if i > start {
				next = i
			}
		}
		start = next
	}

	return chunks, nil
}

func (s *TokenSplitter) SplitDocuments(ctx context.Context, docs []schema.Document) ([]schema.Document, error) {
	return splitDocumentsHelper(ctx, s, docs)
}
