// Package pinecone provides a VectorStore backed by a Pinecone index's
// data-plane REST API.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/HalfBloodPrince07/Vantage-sub000/config"
	"github.com/HalfBloodPrince07/Vantage-sub000/rag/vectorstore"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

// Store is a VectorStore backed by Pinecone.
type Store struct {
	baseURL    string
	apiKey     string
	namespace  string
	httpClient *http.Client
}

// Option configures a Store.
type Option func(*Store)

func WithNamespace(ns string) Option { return func(s *Store) { s.namespace = ns } }
func WithHTTPClient(c *http.Client) Option {
	return func(s *Store) { s.httpClient = c }
}

// New constructs a Store against the Pinecone index host at baseURL.
func New(baseURL, apiKey string, opts ...Option) *Store {
	s := &Store{baseURL: baseURL, apiKey: apiKey, httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromConfig constructs a Store from cfg.
func NewFromConfig(cfg config.ProviderConfig) (*Store, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("vectorstore/pinecone: base_url is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("vectorstore/pinecone: api_key is required")
	}
	var opts []Option
	if ns, ok := config.GetOption[string](cfg, "namespace"); ok && ns != "" {
		opts = append(opts, WithNamespace(ns))
	}
	return New(cfg.BaseURL, cfg.APIKey, opts...), nil
}

func (s *Store) do(ctx context.Context, path string, body map[string]any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("vectorstore/pinecone: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("vectorstore/pinecone: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vectorstore/pinecone: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vectorstore/pinecone: status %d", resp.StatusCode)
	}
	return nil
}

func (s *Store) Add(ctx context.Context, docs []schema.Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("vectorstore/pinecone: docs length (%d) does not match embeddings length (%d)", len(docs), len(embeddings))
	}

	vectors := make([]map[string]any, len(docs))
	for i, doc := range docs {
		meta := map[string]any{"content": doc.Content}
		for k, v := range doc.Metadata {
			meta[k] = v
		}
		vectors[i] = map[string]any{
			"id":       doc.ID,
			"values":   embeddings[i],
			"metadata": meta,
		}
	}

	body := map[string]any{"vectors": vectors}
	if s.namespace != "" {
		body["namespace"] = s.namespace
	}
	return s.do(ctx, "/vectors/upsert", body)
}

func (s *Store) Search(ctx context.Context, query []float32, k int, opts ...vectorstore.SearchOption) ([]schema.Document, error) {
	cfg := &vectorstore.SearchConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	body := map[string]any{
		"vector":          query,
		"topK":            k,
		"includeMetadata": true,
	}
	if s.namespace != "" {
		body["namespace"] = s.namespace
	}
	if len(cfg.Filter) > 0 {
		filter := map[string]any{}
		for key, val := range cfg.Filter {
			filter[key] = map[string]any{"$eq": val}
		}
		body["filter"] = filter
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("vectorstore/pinecone: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/query", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("vectorstore/pinecone: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vectorstore/pinecone: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vectorstore/pinecone: status %d", resp.StatusCode)
	}

	var parsed struct {
		Matches []struct {
			ID       string         `json:"id"`
			Score    float64        `json:"score"`
			Metadata map[string]any `json:"metadata"`
		} `json:"matches"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("vectorstore/pinecone: unmarshal response: %w", err)
	}

	var results []schema.Document
	for _, match := range parsed.Matches {
		if cfg.Threshold != 0 && match.Score < cfg.Threshold {
			continue
		}
		doc := schema.Document{ID: match.ID, Score: match.Score}
		meta := map[string]any{}
		for k, v := range match.Metadata {
			if k == "content" {
				if s, ok := v.(string); ok {
					doc.Content = s
				}
				continue
			}
			meta[k] = v
		}
		if len(meta) > 0 {
			doc.Metadata = meta
		}
		results = append(results, doc)
	}
	return results, nil
}

func (s *Store) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	body := map[string]any{"ids": ids}
	if s.namespace != "" {
		body["namespace"] = s.namespace
	}
	return s.do(ctx, "/vectors/delete", body)
}

func init() {
	vectorstore.Register("pinecone", func(cfg config.ProviderConfig) (vectorstore.VectorStore, error) {
		return NewFromConfig(cfg)
	})
}

var _ vectorstore.VectorStore = (*Store)(nil)
