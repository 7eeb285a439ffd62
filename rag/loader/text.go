package loader

import (
	"context"
	"os"
	"path/filepath"

	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

// TextLoader reads a file verbatim into a single document.
type TextLoader struct{}

// NewTextLoader constructs a TextLoader.
func NewTextLoader() *TextLoader {
	return &TextLoader{}
}

func (l *TextLoader) Load(_ context.Context, path string) ([]schema.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return []schema.Document{{
		ID:      path,
		Content: string(data),
		Metadata: map[string]any{
			"format": "text",
			"name":   filepath.Base(path),
			"source": path,
		},
	}}, nil
}

// MarkdownLoader reads a Markdown file verbatim into a single document,
// leaving section splitting to rag/splitter.
type MarkdownLoader struct{}

// NewMarkdownLoader constructs a MarkdownLoader.
func NewMarkdownLoader() *MarkdownLoader {
	return &MarkdownLoader{}
}

func (l *MarkdownLoader) Load(_ context.Context, path string) ([]schema.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return []schema.Document{{
		ID:      path,
		Content: string(data),
		Metadata: map[string]any{
			"format": "markdown",
			"name":   filepath.Base(path),
			"source": path,
		},
	}}, nil
}
