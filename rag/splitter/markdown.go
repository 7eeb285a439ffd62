package splitter

import (
	"context"
	"strings"

	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

// MarkdownSplitter splits Markdown text on heading boundaries, recursively
// subdividing any section that still exceeds chunkSize.
type MarkdownSplitter struct {
	chunkSize       int
	chunkOverlap    int
	preserveHeaders bool
}

// MarkdownOption configures a MarkdownSplitter.
type MarkdownOption func(*MarkdownSplitter)

// WithMarkdownChunkSize sets the maximum chunk size in characters. n <= 0
// is ignored.
func WithMarkdownChunkSize(n int) MarkdownOption {
	return func(s *MarkdownSplitter) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// WithMarkdownChunkOverlap sets the recursive fallback's overlap. n < 0 is
// ignored.
func WithMarkdownChunkOverlap(n int) MarkdownOption {
	return func(s *MarkdownSplitter) {
		if n >= 0 {
			s.chunkOverlap = n
		}
	}
}

// WithPreserveHeaders controls whether a section's ancestor headings are
// prepended to its chunk, giving the chunk standalone context.
func WithPreserveHeaders(preserve bool) MarkdownOption {
	return func(s *MarkdownSplitter) { s.preserveHeaders = preserve }
}

// NewMarkdownSplitter constructs a MarkdownSplitter.
func NewMarkdownSplitter(opts ...MarkdownOption) *MarkdownSplitter {
	s := &MarkdownSplitter{
		chunkSize:       defaultChunkSize,
		chunkOverlap:    defaultChunkOverlap,
		preserveHeaders: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type headingEntry struct {
	level int
	line  string
}

func (s *MarkdownSplitter) Split(ctx context.Context, text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var (
		stack            []headingEntry
		currentAncestors []headingEntry
		bodyLines        []string
		chunks           []string
	)

	flush := func() {
		body := strings.TrimSpace(strings.Join(bodyLines, "\n"))
		bodyLines = nil
		if body == "" {
			return
		}

		var sb strings.Builder
		if s.preserveHeaders {
			for _, h := range currentAncestors {
				sb.WriteString(h.line)
				sb.WriteString("\n\n")
			}
		}
		sb.WriteString(body)
		full := sb.String()

		if len(full) > s.chunkSize {
			chunks = append(chunks, s.splitLarge(ctx, full)...)
		} else {
			chunks = append(chunks, full)
		}
	}

	for _, line := range strings.Split(text, "\n") {
		level := headingLevel(line)
		if level > 0 {
			flush()
			for len(stack) > 0 && stack[len(stack)-1].level >= level {
				stack = stack[:len(stack)-1]
			}
			currentAncestors = append([]headingEntry{}, stack...)
			stack = append(stack, headingEntry{level: level, line: line})
		}
		bodyLines = append(bodyLines, line)
	}
	flush()

	return chunks, nil
}

func (s *MarkdownSplitter) SplitDocuments(ctx context.Context, docs []schema.Document) ([]schema.Document, error) {
	return splitDocumentsHelper(ctx, s, docs)
}

func (s *MarkdownSplitter) splitLarge(ctx context.Context, text string) []string {
	rs := NewRecursiveSplitter(WithChunkSize(s.chunkSize), WithChunkOverlap(s.chunkOverlap))
	chunks, _ := rs.Split(ctx, text)
	return chunks
}

// headingLevel returns the ATX heading level (1-6) of line, or 0 if line
// is not a heading.
func headingLevel(line string) int {
	n := 0
	for n < len(line) && line[n] == '#' {
		n++
	}
	if n == 0 || n > 6 {
		return 0
	}
	rest := line[n:]
	if rest != "" && !strings.HasPrefix(rest, " ") {
		return 0
	}
	return n
}
