// Package weaviate provides a VectorStore backed by a Weaviate instance's
// REST/GraphQL API.
package weaviate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/HalfBloodPrince07/Vantage-sub000/config"
	"github.com/HalfBloodPrince07/Vantage-sub000/rag/vectorstore"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

const defaultClass = "Document"

// Store is a VectorStore backed by Weaviate.
type Store struct {
	baseURL    string
	class      string
	apiKey     string
	httpClient *http.Client
}

// Option configures a Store.
type Option func(*Store)

// WithClass overrides the Weaviate class name (default "Document").
func WithClass(class string) Option {
	return func(s *Store) { s.class = class }
}

// WithAPIKey sets the bearer token sent with every request.
func WithAPIKey(key string) Option {
	return func(s *Store) { s.apiKey = key }
}

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Store) { s.httpClient = client }
}

// New constructs a Store against the Weaviate instance at baseURL.
func New(baseURL string, opts ...Option) *Store {
	s := &Store{baseURL: baseURL, class: defaultClass, httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromConfig constructs a Store from cfg.
func NewFromConfig(cfg config.ProviderConfig) (*Store, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("vectorstore/weaviate: base_url is required")
	}
	opts := []Option{WithAPIKey(cfg.APIKey)}
	if class, ok := config.GetOption[string](cfg, "class"); ok && class != "" {
		opts = append(opts, WithClass(class))
	}
	return New(cfg.BaseURL, opts...), nil
}

func (s *Store) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
}

func (s *Store) Add(ctx context.Context, docs []schema.Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("vectorstore/weaviate: docs length (%d) does not match embeddings length (%d)", len(docs), len(embeddings))
	}

	objects := make([]map[string]any, len(docs))
	for i, doc := range docs {
		props := map[string]any{"content": doc.Content, "_beluga_id": doc.ID}
		for k, v := range doc.Metadata {
			props[k] = v
		}
		objects[i] = map[string]any{
			"class":      s.class,
			"id":         uuidFromID(doc.ID),
			"properties": props,
			"vector":     embeddings[i],
		}
	}

	body, err := json.Marshal(map[string]any{"objects": objects})
	if err != nil {
		return fmt.Errorf("vectorstore/weaviate: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/batch/objects", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("vectorstore/weaviate: build request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vectorstore/weaviate: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vectorstore/weaviate: add: status %d", resp.StatusCode)
	}
	return nil
}

func (s *Store) Search(ctx context.Context, query []float32, k int, opts ...vectorstore.SearchOption) ([]schema.Document, error) {
	cfg := &vectorstore.SearchConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	gql := fmt.Sprintf(
		`{Get{%s(nearVector:{vector:%s} limit:%d){content _beluga_id _additional{id distance}}}}`,
		s.class, vectorToJSON(query), k,
	)
	body, err := json.Marshal(map[string]any{"query": gql})
	if err != nil {
		return nil, fmt.Errorf("vectorstore/weaviate: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/graphql", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("vectorstore/weaviate: build request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vectorstore/weaviate: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vectorstore/weaviate: search: status %d", resp.StatusCode)
	}

	var parsed struct {
		Data struct {
			Get map[string][]map[string]any `json:"Get"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("vectorstore/weaviate: decode response: %w", err)
	}

	rows, ok := parsed.Data.Get[s.class]
	if !ok {
		return nil, nil
	}

	var results []schema.Document
	for _, row := range rows {
		doc := schema.Document{}
		if id, ok := row["_beluga_id"].(string); ok {
			doc.ID = id
		}
		if content, ok := row["content"].(string); ok {
			doc.Content = content
		}
		if additional, ok := row["_additional"].(map[string]any); ok {
			if distance, ok := additional["distance"].(float64); ok {
				doc.Score = 1 - distance
			}
		}
		meta := map[string]any{}
		for key, val := range row {
			if key == "content" || key == "_beluga_id" || key == "_additional" {
				continue
			}
			meta[key] = val
		}
		if len(meta) > 0 {
			doc.Metadata = meta
		}
		if cfg.Threshold != 0 && doc.Score < cfg.Threshold {
			continue
		}
		results = append(results, doc)
	}
	return results, nil
}

func (s *Store) Delete(ctx context.Context, ids []string) error {
	for _, id := range ids {
		path := fmt.Sprintf("%s/v1/objects/%s/%s", s.baseURL, s.class, uuidFromID(id))
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, path, nil)
		if err != nil {
			return fmt.Errorf("vectorstore/weaviate: build request: %w", err)
		}
		s.setHeaders(req)

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("vectorstore/weaviate: request: %w", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
			return fmt.Errorf("vectorstore/weaviate: delete %s: status %d", id, resp.StatusCode)
		}
	}
	return nil
}

// uuidFromID deterministically derives a Weaviate object UUID from an
// application-level document ID.
func uuidFromID(id string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String()
}

func vectorToJSON(v []float32) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func init() {
	vectorstore.Register("weaviate", func(cfg config.ProviderConfig) (vectorstore.VectorStore, error) {
		return NewFromConfig(cfg)
	})
}

var _ vectorstore.VectorStore = (*Store)(nil)
