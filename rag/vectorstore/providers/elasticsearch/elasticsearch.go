// Package elasticsearch provides a VectorStore backed by Elasticsearch's
// dense_vector field type and kNN search.
package elasticsearch

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

const (
	defaultIndex     = "documents"
	defaultDimension = 1536
)

// Store is a VectorStore backed by Elasticsearch.
type Store struct {
	baseURL    string
	index      string
	dimension  int
	apiKey     string
	httpClient *http.Client
}

// Option configures a Store.
type Option func(*Store)

func WithIndex(index string) Option { return func(s *Store) { s.index = index } }
func WithDimension(dim int) Option  { return func(s *Store) { s.dimension = dim } }
func WithAPIKey(key string) Option  { return func(s *Store) { s.apiKey = key } }
func WithHTTPClient(c *http.Client) Option {
	return func(s *Store) { s.httpClient = c }
}

// New constructs a Store against the Elasticsearch cluster at baseURL.
func New(baseURL string, opts ...Option) *Store {
	s := &Store{
		baseURL:    baseURL,
		index:      defaultIndex,
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
		return nil, fmt.Errorf("vectorstore/elasticsearch: base_url is required")
	}
	opts := []Option{WithAPIKey(cfg.APIKey)}
	if idx, ok := config.GetOption[string](cfg, "index"); ok && idx != "" {
		opts = append(opts, WithIndex(idx))
	}
	if dim, ok := config.GetOption[float64](cfg, "dimension"); ok && dim > 0 {
		opts = append(opts, WithDimension(int(dim)))
	}
	return New(cfg.BaseURL, opts...), nil
}

func (s *Store) setHeaders(req *http.Request, contentType string) {
	req.Header.Set("Content-Type", contentType)
	if s.apiKey != "" {
		req.Header.Set("Authorization", "ApiKey "+s.apiKey)
	}
}

// EnsureIndex creates the index with a dense_vector mapping if it does not
// already exist.
func (s *Store) EnsureIndex(ctx context.Context) error {
	body := map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				"embedding": map[string]any{
					"type":       "dense_vector",
					"dims":       s.dimension,
					"index":      true,
					"similarity": "cosine",
				},
				"content": map[string]any{"type": "text"},
			},
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("vectorstore/elasticsearch: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.baseURL+"/"+s.index, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("vectorstore/elasticsearch: build request: %w", err)
	}
	s.setHeaders(req, "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vectorstore/elasticsearch: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vectorstore/elasticsearch: ensure index: status %d", resp.StatusCode)
	}
	return nil
}

func (s *Store) bulk(ctx context.Context, lines []map[string]any) error {
	var buf bytes.Buffer
	for _, line := range lines {
		encoded, err := json.Marshal(line)
		if err != nil {
			return fmt.Errorf("vectorstore/elasticsearch: marshal bulk line: %w", err)
		}
		buf.Write(encoded)
		buf.WriteByte('\n')
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/"+s.index+"/_bulk", &buf)
	if err != nil {
		return fmt.Errorf("vectorstore/elasticsearch: build request: %w", err)
	}
	s.setHeaders(req, "application/x-ndjson")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vectorstore/elasticsearch: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vectorstore/elasticsearch: status %d", resp.StatusCode)
	}
	return nil
}

func (s *Store) Add(ctx context.Context, docs []schema.Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("vectorstore/elasticsearch: docs length (%d) does not match embeddings length (%d)", len(docs), len(embeddings))
	}

	var lines []map[string]any
	for i, doc := range docs {
		source := map[string]any{"content": doc.Content, "embedding": embeddings[i]}
		for k, v := range doc.Metadata {
			source[k] = v
		}
		if _, err := json.Marshal(source); err != nil {
			return fmt.Errorf("vectorstore/elasticsearch: marshal document %s: %w", doc.ID, err)
		}
		lines = append(lines, map[string]any{"index": map[string]any{"_id": doc.ID}})
		lines = append(lines, source)
	}
	return s.bulk(ctx, lines)
}

func (s *Store) Search(ctx context.Context, query []float32, k int, opts ...vectorstore.SearchOption) ([]schema.Document, error) {
	cfg := &vectorstore.SearchConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	knn := map[string]any{
		"field":          "embedding",
		"query_vector":   query,
		"k":              k,
		"num_candidates": k * 10,
	}
	if cfg.Threshold != 0 {
		knn["similarity"] = cfg.Threshold
	}
	if len(cfg.Filter) > 0 {
		var must []map[string]any
		for key, val := range cfg.Filter {
			must = append(must, map[string]any{"term": map[string]any{key: val}})
		}
		knn["filter"] = map[string]any{"bool": map[string]any{"must": must}}
	}

	body := map[string]any{"knn": knn}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("vectorstore/elasticsearch: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/"+s.index+"/_search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("vectorstore/elasticsearch: build request: %w", err)
	}
	s.setHeaders(req, "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vectorstore/elasticsearch: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vectorstore/elasticsearch: status %d", resp.StatusCode)
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Score  float64        `json:"_score"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("vectorstore/elasticsearch: unmarshal response: %w", err)
	}

	var results []schema.Document
	for _, hit := range parsed.Hits.Hits {
		doc := schema.Document{ID: hit.ID, Score: hit.Score}
		meta := map[string]any{}
		for k, v := range hit.Source {
			switch k {
			case "content":
				if s, ok := v.(string); ok {
					doc.Content = s
				}
			case "embedding":
			default:
				meta[k] = v
			}
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
	var lines []map[string]any
	for _, id := range ids {
		lines = append(lines, map[string]any{"delete": map[string]any{"_id": id}})
	}
	return s.bulk(ctx, lines)
}

func init() {
	vectorstore.Register("elasticsearch", func(cfg config.ProviderConfig) (vectorstore.VectorStore, error) {
		return NewFromConfig(cfg)
	})
}

var _ vectorstore.VectorStore = (*Store)(nil)
