package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

// JSONLoader parses a JSON file into one document per array element (or a
// single document for a JSON object), optionally drilling into a nested
// path first and extracting a specific field as the document content.
type JSONLoader struct {
	jqPath     string
	contentKey string
}

// JSONOption configures a JSONLoader.
type JSONOption func(*JSONLoader)

// WithJQPath sets a dot-separated path (e.g. "data.items") navigated
// before documents are extracted.
func WithJQPath(path string) JSONOption {
	return func(l *JSONLoader) { l.jqPath = path }
}

// WithContentKey sets the object field used as a document's Content. If
// unset, the whole element is marshaled back to JSON as the content.
func WithContentKey(key string) JSONOption {
	return func(l *JSONLoader) { l.contentKey = key }
}

// NewJSONLoader constructs a JSONLoader.
func NewJSONLoader(opts ...JSONOption) *JSONLoader {
	l := &JSONLoader{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *JSONLoader) Load(_ context.Context, path string) ([]schema.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	if l.jqPath != "" {
		parsed, err = jsonPath(parsed, l.jqPath)
		if err != nil {
			return nil, err
		}
	}

	items, ok := parsed.([]any)
	if !ok {
		items = []any{parsed}
	}

	docs := make([]schema.Document, 0, len(items))
	for i, item := range items {
		docs = append(docs, schema.Document{
			ID:      fmt.Sprintf("%s-%d", path, i),
			Content: l.extractContent(item),
			Metadata: map[string]any{
				"format": "json",
				"source": path,
			},
		})
	}
	return docs, nil
}

func (l *JSONLoader) extractContent(item any) string {
	if l.contentKey != "" {
		if m, ok := item.(map[string]any); ok {
			if v, ok := m[l.contentKey]; ok {
				if s, ok := v.(string); ok {
					return s
				}
				if b, err := json.Marshal(v); err == nil {
					return string(b)
				}
			}
		}
	}
	b, err := json.Marshal(item)
	if err != nil {
		return ""
	}
	return string(b)
}

// jsonPath navigates a decoded JSON value through a dot-separated sequence
// of object keys.
func jsonPath(data any, path string) (any, error) {
	cur := data
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("json path %q: %q is not an object", path, key)
		}
		v, ok := m[key]
		if !ok {
			return nil, fmt.Errorf("json path %q: key %q not found", path, key)
		}
		cur = v
	}
	return cur, nil
}
