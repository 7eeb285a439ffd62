// Package chroma provides a VectorStore backed by a Chroma server's REST
// API.
package chroma

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
	defaultCollection = "documents"
	defaultTenant      = "default_tenant"
	defaultDatabase    = "default_database"
)

// Store is a VectorStore backed by Chroma.
type Store struct {
	baseURL      string
	collection   string
	collectionID string
	tenant       string
	database     string
	httpClient   *http.Client
}

// Option configures a Store.
type Option func(*Store)

func WithCollection(name string) Option   { return func(s *Store) { s.collection = name } }
func WithCollectionID(id string) Option   { return func(s *Store) { s.collectionID = id } }
func WithTenant(tenant string) Option     { return func(s *Store) { s.tenant = tenant } }
func WithDatabase(database string) Option { return func(s *Store) { s.database = database } }
func WithHTTPClient(c *http.Client) Option {
	return func(s *Store) { s.httpClient = c }
}

// New constructs a Store against the Chroma server at baseURL.
func New(baseURL string, opts ...Option) *Store {
	s := &Store{
		baseURL:    baseURL,
		collection: defaultCollection,
		tenant:     defaultTenant,
		database:   defaultDatabase,
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
		return nil, fmt.Errorf("vectorstore/chroma: base_url is required")
	}
	var opts []Option
	if col, ok := config.GetOption[string](cfg, "collection"); ok && col != "" {
		opts = append(opts, WithCollection(col))
	}
	if tenant, ok := config.GetOption[string](cfg, "tenant"); ok && tenant != "" {
		opts = append(opts, WithTenant(tenant))
	}
	if db, ok := config.GetOption[string](cfg, "database"); ok && db != "" {
		opts = append(opts, WithDatabase(db))
	}
	return New(cfg.BaseURL, opts...), nil
}

// EnsureCollection resolves (creating if necessary) the collection ID for
// store.collection.
func (s *Store) EnsureCollection(ctx context.Context) error {
	path := fmt.Sprintf("/api/v2/tenants/%s/databases/%s/collections", s.tenant, s.database)
	var resp struct {
		ID string `json:"id"`
	}
	if err := s.do(ctx, path, map[string]any{"name": s.collection, "get_or_create": true}, &resp); err != nil {
		return fmt.Errorf("vectorstore/chroma: ensure collection: %w", err)
	}
	s.collectionID = resp.ID
	return nil
}

func (s *Store) collectionPath(action string) string {
	return fmt.Sprintf("/api/v2/tenants/%s/databases/%s/collections/%s/%s", s.tenant, s.database, s.collectionID, action)
}

func (s *Store) do(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("vectorstore/chroma: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("vectorstore/chroma: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vectorstore/chroma: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vectorstore/chroma: status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (s *Store) Add(ctx context.Context, docs []schema.Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("vectorstore/chroma: docs length (%d) does not match embeddings length (%d)", len(docs), len(embeddings))
	}

	ids := make([]string, len(docs))
	documents := make([]string, len(docs))
	metadatas := make([]map[string]any, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
		documents[i] = doc.Content
		if doc.Metadata != nil {
			metadatas[i] = doc.Metadata
		} else {
			metadatas[i] = map[string]any{}
		}
	}

	body := map[string]any{
		"ids":        ids,
		"embeddings": embeddings,
		"documents":  documents,
		"metadatas":  metadatas,
	}
	return s.do(ctx, s.collectionPath("upsert"), body, nil)
}

func (s *Store) Search(ctx context.Context, query []float32, k int, opts ...vectorstore.SearchOption) ([]schema.Document, error) {
	cfg := &vectorstore.SearchConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	body := map[string]any{
		"query_embeddings": [][]float32{query},
		"n_results":        k,
	}
	if len(cfg.Filter) > 0 {
		where := map[string]any{}
		for key, val := range cfg.Filter {
			where[key] = map[string]any{"$eq": val}
		}
		body["where"] = where
	}

	var resp struct {
		IDs       [][]string            `json:"ids"`
		Documents [][]string            `json:"documents"`
		Metadatas [][]map[string]any    `json:"metadatas"`
		Distances [][]float64           `json:"distances"`
	}
	if err := s.do(ctx, s.collectionPath("query"), body, &resp); err != nil {
		return nil, err
	}
	if len(resp.IDs) == 0 || len(resp.IDs[0]) == 0 {
		return nil, nil
	}

	var results []schema.Document
	for i, id := range resp.IDs[0] {
		score := 1.0 / (1.0 + resp.Distances[0][i])
		if cfg.Threshold != 0 && score < cfg.Threshold {
			continue
		}
		doc := schema.Document{
			ID:    id,
			Score: score,
		}
		if i < len(resp.Documents[0]) {
			doc.Content = resp.Documents[0][i]
		}
		if i < len(resp.Metadatas[0]) && len(resp.Metadatas[0][i]) > 0 {
			doc.Metadata = resp.Metadatas[0][i]
		}
		results = append(results, doc)
	}
	return results, nil
}

func (s *Store) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.do(ctx, s.collectionPath("delete"), map[string]any{"ids": ids}, nil)
}

func init() {
	vectorstore.Register("chroma", func(cfg config.ProviderConfig) (vectorstore.VectorStore, error) {
		return NewFromConfig(cfg)
	})
}

var _ vectorstore.VectorStore = (*Store)(nil)
