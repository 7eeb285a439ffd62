// Package vespa provides a VectorStore backed by a Vespa application's
// Document API and YQL query interface.
package vespa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/HalfBloodPrince07/Vantage-sub000/config"
	"github.com/HalfBloodPrince07/Vantage-sub000/rag/vectorstore"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

const (
	defaultNamespace = "default"
	defaultDocType   = "document"
)

// httpDoer is the subset of *http.Client the Store needs, allowing tests
// to inject a failing client.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Store is a VectorStore backed by Vespa.
type Store struct {
	baseURL   string
	namespace string
	docType   string
	client    httpDoer
}

// Option configures a Store.
type Option func(*Store)

func WithNamespace(ns string) Option { return func(s *Store) { s.namespace = ns } }
func WithDocType(dt string) Option   { return func(s *Store) { s.docType = dt } }
func WithHTTPClient(c *http.Client) Option {
	return func(s *Store) { s.client = c }
}

// New constructs a Store against the Vespa application at baseURL.
func New(baseURL string, opts ...Option) *Store {
	s := &Store{
		baseURL:   baseURL,
		namespace: defaultNamespace,
		docType:   defaultDocType,
		client:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromConfig constructs a Store from cfg.
func NewFromConfig(cfg config.ProviderConfig) (*Store, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("vectorstore/vespa: base_url is required")
	}
	var opts []Option
	if ns, ok := config.GetOption[string](cfg, "namespace"); ok && ns != "" {
		opts = append(opts, WithNamespace(ns))
	}
	if dt, ok := config.GetOption[string](cfg, "doc_type"); ok && dt != "" {
		opts = append(opts, WithDocType(dt))
	}
	return New(cfg.BaseURL, opts...), nil
}

func (s *Store) docPath(id string) string {
	return fmt.Sprintf("/document/v1/%s/%s/docid/%s", s.namespace, s.docType, url.PathEscape(id))
}

func (s *Store) doPut(ctx context.Context, path string, body map[string]any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("vectorstore/vespa: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("vectorstore/vespa: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("vectorstore/vespa: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vectorstore/vespa: status %d", resp.StatusCode)
	}
	return nil
}

func (s *Store) Add(ctx context.Context, docs []schema.Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("vectorstore/vespa: docs length (%d) does not match embeddings length (%d)", len(docs), len(embeddings))
	}

	for i, doc := range docs {
		fields := map[string]any{
			"content":   doc.Content,
			"embedding": map[string]any{"values": float32SliceToFloat64(embeddings[i])},
		}
		for k, v := range doc.Metadata {
			fields[k] = v
		}
		if err := s.doPut(ctx, s.docPath(doc.ID), map[string]any{"fields": fields}); err != nil {
			return fmt.Errorf("vectorstore/vespa: add document %s: %w", doc.ID, err)
		}
	}
	return nil
}

func rankingName(strategy vectorstore.SearchStrategy) string {
	switch strategy {
	case vectorstore.DotProduct:
		return "dotProduct(embedding)"
	case vectorstore.Euclidean:
		return "euclidean(embedding)"
	default:
		return "cosine(embedding)"
	}
}

func (s *Store) Search(ctx context.Context, query []float32, k int, opts ...vectorstore.SearchOption) ([]schema.Document, error) {
	cfg := &vectorstore.SearchConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	where := fmt.Sprintf("({targetHits:%d}nearestNeighbor(embedding,q))", k)
	if len(cfg.Filter) > 0 {
		var clauses []string
		for key, val := range cfg.Filter {
			clauses = append(clauses, fmt.Sprintf("%s = %q", key, val))
		}
		where += " and " + strings.Join(clauses, " and ")
	}
	yql := "select * from sources * where " + where

	params := url.Values{}
	params.Set("yql", yql)
	params.Set("hits", strconv.Itoa(k))
	params.Set("ranking", rankingName(cfg.Strategy))
	params.Set("input.query(q)", formatVectorParam(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/search/?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("vectorstore/vespa: build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vectorstore/vespa: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vectorstore/vespa: status %d", resp.StatusCode)
	}

	var parsed struct {
		Root struct {
			Children []struct {
				ID        string         `json:"id"`
				Relevance float64        `json:"relevance"`
				Fields    map[string]any `json:"fields"`
			} `json:"children"`
		} `json:"root"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("vectorstore/vespa: unmarshal response: %w", err)
	}

	var results []schema.Document
	for _, child := range parsed.Root.Children {
		if cfg.Threshold != 0 && child.Relevance < cfg.Threshold {
			continue
		}

		doc := schema.Document{ID: child.ID, Score: child.Relevance}
		meta := map[string]any{}
		for k, v := range child.Fields {
			switch k {
			case "content":
				if c, ok := v.(string); ok {
					doc.Content = c
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
	for _, id := range ids {
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.baseURL+s.docPath(id), nil)
		if err != nil {
			return fmt.Errorf("vectorstore/vespa: delete document %s: build request: %w", id, err)
		}

		resp, err := s.client.Do(req)
		if err != nil {
			return fmt.Errorf("vectorstore/vespa: delete document %s: %w", id, err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("vectorstore/vespa: delete document %s: status %d", id, resp.StatusCode)
		}
	}
	return nil
}

func float32SliceToFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}

func formatVectorParam(v []float32) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(float64(f), 'g', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func init() {
	vectorstore.Register("vespa", func(cfg config.ProviderConfig) (vectorstore.VectorStore, error) {
		return NewFromConfig(cfg)
	})
}

var _ vectorstore.VectorStore = (*Store)(nil)
