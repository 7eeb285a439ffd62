// Package qdrant provides a VectorStore backed by a Qdrant server's REST
// API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/HalfBloodPrince07/Vantage-sub000/config"
	"github.com/HalfBloodPrince07/Vantage-sub000/rag/vectorstore"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

const (
	defaultCollection = "documents"
	defaultDimension  = 1536
)

// Store is a VectorStore backed by Qdrant.
type Store struct {
	baseURL    string
	collection string
	dimension  int
	apiKey     string
	httpClient *http.Client
}

// Option configures a Store.
type Option func(*Store)

func WithCollection(name string) Option { return func(s *Store) { s.collection = name } }
func WithDimension(dim int) Option      { return func(s *Store) { s.dimension = dim } }
func WithAPIKey(key string) Option      { return func(s *Store) { s.apiKey = key } }
func WithHTTPClient(c *http.Client) Option {
	return func(s *Store) { s.httpClient = c }
}

// New constructs a Store against the Qdrant server at baseURL.
func New(baseURL string, opts ...Option) *Store {
	s := &Store{
		baseURL:    baseURL,
		collection: defaultCollection,
		dimension:  defaultDimension,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromConfig constructs a Store from cfg.
func NewFromConfig(cfg config.ProviderConfig) (*Store, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("vectorstore/qdrant: base_url is required")
	}
	opts := []Option{WithAPIKey(cfg.APIKey)}
	if col, ok := config.GetOption[string](cfg, "collection"); ok && col != "" {
		opts = append(opts, WithCollection(col))
	}
	if dim, ok := config.GetOption[float64](cfg, "dimension"); ok && dim > 0 {
		opts = append(opts, WithDimension(int(dim)))
	}
	return New(cfg.BaseURL, opts...), nil
}

func (s *Store) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
}

// EnsureCollection creates the collection if it does not already exist.
func (s *Store) EnsureCollection(ctx context.Context) error {
	body := map[string]any{
		"vectors": map[string]any{"size": s.dimension, "distance": "Cosine"},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("vectorstore/qdrant: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.baseURL+"/collections/"+s.collection, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("vectorstore/qdrant: build request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vectorstore/qdrant: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vectorstore/qdrant: ensure collection: status %d", resp.StatusCode)
	}
	return nil
}

func (s *Store) request(ctx context.Context, method, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("vectorstore/qdrant: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("vectorstore/qdrant: build request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vectorstore/qdrant: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vectorstore/qdrant: status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("vectorstore/qdrant: unmarshal response: %w", err)
	}
	return nil
}

func (s *Store) Add(ctx context.Context, docs []schema.Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("vectorstore/qdrant: docs length (%d) does not match embeddings length (%d)", len(docs), len(embeddings))
	}

	points := make([]map[string]any, len(docs))
	for i, doc := range docs {
		payload := map[string]any{"content": doc.Content}
		for k, v := range doc.Metadata {
			payload[k] = v
		}
		points[i] = map[string]any{
			"id":      doc.ID,
			"vector":  embeddings[i],
			"payload": payload,
		}
	}

	return s.request(ctx, http.MethodPut, "/collections/"+s.collection+"/points", map[string]any{"points": points}, nil)
}

func (s *Store) Search(ctx context.Context, query []float32, k int, opts ...vectorstore.SearchOption) ([]schema.Document, error) {
	cfg := &vectorstore.SearchConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	body := map[string]any{
		"vector":       query,
		"limit":        k,
		"with_payload": true,
	}
	if cfg.Threshold != 0 {
		body["score_threshold"] = cfg.Threshold
	}
	if len(cfg.Filter) > 0 {
		var must []map[string]any
		for key, val := range cfg.Filter {
			must = append(must, map[string]any{"key": key, "match": map[string]any{"value": val}})
		}
		body["filter"] = map[string]any{"must": must}
	}

	var resp struct {
		Result []struct {
			ID      json.RawMessage `json:"id"`
			Score   float64         `json:"score"`
			Payload map[string]any  `json:"payload"`
		} `json:"result"`
	}
	if err := s.request(ctx, http.MethodPost, "/collections/"+s.collection+"/points/search", body, &resp); err != nil {
		return nil, err
	}

	var results []schema.Document
	for _, r := range resp.Result {
		doc := schema.Document{ID: decodePointID(r.ID), Score: r.Score}
		meta := map[string]any{}
		for k, v := range r.Payload {
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
	anyIDs := make([]any, len(ids))
	for i, id := range ids {
		anyIDs[i] = id
	}
	return s.request(ctx, http.MethodPost, "/collections/"+s.collection+"/points/delete", map[string]any{"points": anyIDs}, nil)
}

func decodePointID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}

func init() {
	vectorstore.Register("qdrant", func(cfg config.ProviderConfig) (vectorstore.VectorStore, error) {
		return NewFromConfig(cfg)
	})
}

var _ vectorstore.VectorStore = (*Store)(nil)
