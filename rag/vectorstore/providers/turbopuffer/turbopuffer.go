// Package turbopuffer provides a VectorStore backed by the turbopuffer
// serverless vector search API.
package turbopuffer

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

const defaultBaseURL = "https://api.turbopuffer.com/v1"
const defaultNamespace = "documents"

// Store is a VectorStore backed by turbopuffer.
type Store struct {
	baseURL    string
	namespace  string
	apiKey     string
	httpClient *http.Client
}

// Option configures a Store.
type Option func(*Store)

func WithBaseURL(url string) Option   { return func(s *Store) { s.baseURL = url } }
func WithNamespace(ns string) Option  { return func(s *Store) { s.namespace = ns } }
func WithAPIKey(key string) Option    { return func(s *Store) { s.apiKey = key } }
func WithHTTPClient(c *http.Client) Option {
	return func(s *Store) { s.httpClient = c }
}

// New constructs a Store, applying opts over the defaults.
func New(opts ...Option) *Store {
	s := &Store{baseURL: defaultBaseURL, namespace: defaultNamespace, httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromConfig constructs a Store from cfg.
func NewFromConfig(cfg config.ProviderConfig) (*Store, error) {
	opts := []Option{WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, WithBaseURL(cfg.BaseURL))
	}
	if ns, ok := config.GetOption[string](cfg, "namespace"); ok && ns != "" {
		opts = append(opts, WithNamespace(ns))
	}
	return New(opts...), nil
}

func (s *Store) do(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("vectorstore/turbopuffer: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("vectorstore/turbopuffer: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vectorstore/turbopuffer: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vectorstore/turbopuffer: status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (s *Store) Add(ctx context.Context, docs []schema.Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("vectorstore/turbopuffer: docs length (%d) does not match embeddings length (%d)", len(docs), len(embeddings))
	}

	ids := make([]string, len(docs))
	vectors := make([][]float32, len(docs))
	attributes := map[string][]any{}
	for i, doc := range docs {
		ids[i] = doc.ID
		vectors[i] = embeddings[i]
		attributes["content"] = append(attributes["content"], doc.Content)
		for k, v := range doc.Metadata {
			attributes[k] = append(attributes[k], v)
		}
	}

	body := map[string]any{"ids": ids, "vectors": vectors, "attributes": attributes}
	return s.do(ctx, "/vectors/"+s.namespace, body, nil)
}

func (s *Store) Search(ctx context.Context, query []float32, k int, opts ...vectorstore.SearchOption) ([]schema.Document, error) {
	cfg := &vectorstore.SearchConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	body := map[string]any{
		"vector":          query,
		"top_k":           k,
		"distance_metric": distanceMetric(cfg.Strategy),
	}
	if len(cfg.Filter) > 0 {
		body["filters"] = cfg.Filter
	}

	var raw []map[string]any
	if err := s.do(ctx, "/vectors/"+s.namespace+"/query", body, &raw); err != nil {
		return nil, err
	}

	var results []schema.Document
	for _, row := range raw {
		doc := schema.Document{}
		if id, ok := row["id"].(string); ok {
			doc.ID = id
		}
		if dist, ok := row["dist"].(float64); ok {
			doc.Score = 1 - dist
		}
		if attrs, ok := row["attributes"].(map[string]any); ok {
			if content, ok := attrs["content"].(string); ok {
				doc.Content = content
			}
			meta := map[string]any{}
			for k, v := range attrs {
				if k == "content" {
					continue
				}
				meta[k] = v
			}
			if len(meta) > 0 {
				doc.Metadata = meta
			}
		}
		if cfg.Threshold != 0 && doc.Score < cfg.Threshold {
			continue
		}
		results = append(results, doc)
	}
	return results, nil
}

func (s *Store) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	body := map[string]any{"ids": ids, "deletes": true}
	return s.do(ctx, "/vectors/"+s.namespace, body, nil)
}

func distanceMetric(strategy vectorstore.SearchStrategy) string {
	switch strategy {
	case vectorstore.DotProduct:
		return "dot_product"
	case vectorstore.Euclidean:
		return "euclidean_squared"
	default:
		return "cosine_distance"
	}
}

func init() {
	vectorstore.Register("turbopuffer", func(cfg config.ProviderConfig) (vectorstore.VectorStore, error) {
		return NewFromConfig(cfg)
	})
}

var _ vectorstore.VectorStore = (*Store)(nil)
