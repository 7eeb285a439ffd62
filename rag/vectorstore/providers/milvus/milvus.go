// Package milvus provides a VectorStore backed by a Milvus server's v2
// REST API.
package milvus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/HalfBloodPrince07/Vantage-sub000/config"
	"github.com/HalfBloodPrince07/Vantage-sub000/rag/vectorstore"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

const (
	defaultCollection = "documents"
	defaultDimension  = 1536
)

// Store is a VectorStore backed by Milvus.
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

// New constructs a Store against the Milvus server at baseURL.
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
		return nil, fmt.Errorf("vectorstore/milvus: base_url is required")
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

func (s *Store) do(ctx context.Context, path string, body map[string]any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("vectorstore/milvus: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("vectorstore/milvus: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vectorstore/milvus: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vectorstore/milvus: status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("vectorstore/milvus: unmarshal response: %w", err)
	}
	return nil
}

func (s *Store) Add(ctx context.Context, docs []schema.Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("vectorstore/milvus: docs length (%d) does not match embeddings length (%d)", len(docs), len(embeddings))
	}

	data := make([]map[string]any, len(docs))
	for i, doc := range docs {
		entity := map[string]any{
			"id":      doc.ID,
			"vector":  embeddings[i],
			"content": doc.Content,
		}
		for k, v := range doc.Metadata {
			entity[k] = v
		}
		data[i] = entity
	}

	body := map[string]any{"collectionName": s.collection, "data": data}
	return s.do(ctx, "/v2/vectordb/entities/insert", body, nil)
}

func (s *Store) Search(ctx context.Context, query []float32, k int, opts ...vectorstore.SearchOption) ([]schema.Document, error) {
	cfg := &vectorstore.SearchConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	body := map[string]any{
		"collectionName": s.collection,
		"data":           [][]float32{query},
		"limit":          k,
		"outputFields":   []string{"content"},
	}
	if len(cfg.Filter) > 0 {
		body["filter"] = buildEqFilter(cfg.Filter)
	}

	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	if err := s.do(ctx, "/v2/vectordb/entities/search", body, &resp); err != nil {
		return nil, err
	}

	var results []schema.Document
	if len(resp.Data) > 0 {
		var rawData any
		if err := json.Unmarshal(resp.Data, &rawData); err != nil {
			return nil, fmt.Errorf("vectorstore/milvus: unmarshal response: %w", err)
		}
		results = parseSearchData(rawData, cfg.Threshold)
	}
	return results, nil
}

func parseSearchData(raw any, threshold float64) []schema.Document {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}

	var results []schema.Document
	for _, item := range items {
		switch v := item.(type) {
		case map[string]any:
			if doc, ok := parseSearchItem(v, threshold); ok {
				results = append(results, doc)
			}
		case []any:
			for _, nested := range v {
				if m, ok := nested.(map[string]any); ok {
					if doc, ok := parseSearchItem(m, threshold); ok {
						results = append(results, doc)
					}
				}
			}
		}
	}
	return results
}

func parseSearchItem(item map[string]any, threshold float64) (schema.Document, bool) {
	id, _ := item["id"].(string)
	distance, _ := item["distance"].(float64)
	score := 1 - distance
	if threshold != 0 && score < threshold {
		return schema.Document{}, false
	}

	doc := schema.Document{ID: id, Score: score}
	meta := map[string]any{}
	for k, v := range item {
		switch k {
		case "id", "distance":
		case "content":
			if s, ok := v.(string); ok {
				doc.Content = s
			}
		default:
			meta[k] = v
		}
	}
	if len(meta) > 0 {
		doc.Metadata = meta
	}
	return doc, true
}

func (s *Store) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	body := map[string]any{"collectionName": s.collection, "filter": buildIDFilter(ids)}
	return s.do(ctx, "/v2/vectordb/entities/delete", body, nil)
}

// buildIDFilter builds a Milvus boolean expression matching any of ids.
func buildIDFilter(ids []string) string {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = fmt.Sprintf("%q", id)
	}
	return "id in [" + strings.Join(quoted, ", ") + "]"
}

// buildEqFilter builds a Milvus boolean expression matching all key/value
// pairs in filter, joined by "and".
func buildEqFilter(filter map[string]any) string {
	var clauses []string
	for key, val := range filter {
		switch v := val.(type) {
		case string:
			clauses = append(clauses, fmt.Sprintf("%s == %q", key, v))
		default:
			clauses = append(clauses, fmt.Sprintf("%s == %v", key, v))
		}
	}
	return strings.Join(clauses, " and ")
}

func init() {
	vectorstore.Register("milvus", func(cfg config.ProviderConfig) (vectorstore.VectorStore, error) {
		return NewFromConfig(cfg)
	})
}

var _ vectorstore.VectorStore = (*Store)(nil)
