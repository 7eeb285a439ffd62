// Package mongodb provides a VectorStore backed by MongoDB Atlas's Data
// API and its $vectorSearch aggregation stage.
package mongodb

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
	defaultDatabase   = "beluga"
	defaultCollection = "documents"
	defaultIndex      = "vector_index"
	numCandidates     = 100
)

// Store is a VectorStore backed by MongoDB Atlas Vector Search.
type Store struct {
	baseURL    string
	apiKey     string
	database   string
	collection string
	index      string
	httpClient *http.Client
}

// Option configures a Store.
type Option func(*Store)

func WithDatabase(db string) Option   { return func(s *Store) { s.database = db } }
func WithCollection(c string) Option  { return func(s *Store) { s.collection = c } }
func WithIndex(index string) Option   { return func(s *Store) { s.index = index } }
func WithAPIKey(key string) Option    { return func(s *Store) { s.apiKey = key } }
func WithHTTPClient(c *http.Client) Option {
	return func(s *Store) { s.httpClient = c }
}

// New constructs a Store against the MongoDB Data API at baseURL.
func New(baseURL string, opts ...Option) *Store {
	s := &Store{
		baseURL:    baseURL,
		database:   defaultDatabase,
		collection: defaultCollection,
		index:      defaultIndex,
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
		return nil, fmt.Errorf("vectorstore/mongodb: base_url is required")
	}
	opts := []Option{WithAPIKey(cfg.APIKey)}
	if db, ok := config.GetOption[string](cfg, "database"); ok && db != "" {
		opts = append(opts, WithDatabase(db))
	}
	if col, ok := config.GetOption[string](cfg, "collection"); ok && col != "" {
		opts = append(opts, WithCollection(col))
	}
	if idx, ok := config.GetOption[string](cfg, "index"); ok && idx != "" {
		opts = append(opts, WithIndex(idx))
	}
	return New(cfg.BaseURL, opts...), nil
}

func (s *Store) do(ctx context.Context, action string, body map[string]any, out any) error {
	body["database"] = s.database
	body["collection"] = s.collection

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("vectorstore/mongodb: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/action/"+action, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("vectorstore/mongodb: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vectorstore/mongodb: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vectorstore/mongodb: status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("vectorstore/mongodb: unmarshal response: %w", err)
	}
	return nil
}

func (s *Store) Add(ctx context.Context, docs []schema.Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("vectorstore/mongodb: docs length (%d) does not match embeddings length (%d)", len(docs), len(embeddings))
	}

	documents := make([]map[string]any, len(docs))
	for i, doc := range docs {
		record := map[string]any{
			"_id":       doc.ID,
			"content":   doc.Content,
			"embedding": embeddings[i],
		}
		if doc.Metadata != nil {
			record["metadata"] = doc.Metadata
		}
		documents[i] = record
	}

	return s.do(ctx, "insertMany", map[string]any{"documents": documents}, nil)
}

func (s *Store) Search(ctx context.Context, query []float32, k int, opts ...vectorstore.SearchOption) ([]schema.Document, error) {
	cfg := &vectorstore.SearchConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	vectorSearch := map[string]any{
		"index":         s.index,
		"path":          "embedding",
		"queryVector":   query,
		"numCandidates": numCandidates,
		"limit":         k,
	}
	if len(cfg.Filter) > 0 {
		filter := map[string]any{}
		for key, val := range cfg.Filter {
			filter["metadata."+key] = val
		}
		vectorSearch["filter"] = filter
	}

	pipeline := []any{
		map[string]any{"$vectorSearch": vectorSearch},
		map[string]any{"$addFields": map[string]any{"score": map[string]any{"$meta": "vectorSearchScore"}}},
	}

	var resp struct {
		Documents []struct {
			ID       string         `json:"_id"`
			Content  string         `json:"content"`
			Score    float64        `json:"score"`
			Metadata map[string]any `json:"metadata"`
		} `json:"documents"`
	}
	if err := s.do(ctx, "aggregate", map[string]any{"pipeline": pipeline}, &resp); err != nil {
		return nil, err
	}

	var results []schema.Document
	for _, d := range resp.Documents {
		if cfg.Threshold != 0 && d.Score < cfg.Threshold {
			continue
		}
		results = append(results, schema.Document{
			ID:       d.ID,
			Content:  d.Content,
			Score:    d.Score,
			Metadata: d.Metadata,
		})
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
	filter := map[string]any{"_id": map[string]any{"$in": anyIDs}}
	return s.do(ctx, "deleteMany", map[string]any{"filter": filter}, nil)
}

func init() {
	vectorstore.Register("mongodb", func(cfg config.ProviderConfig) (vectorstore.VectorStore, error) {
		return NewFromConfig(cfg)
	})
}

var _ vectorstore.VectorStore = (*Store)(nil)
