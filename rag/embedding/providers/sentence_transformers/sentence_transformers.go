// Package sentencetransformers provides an embeddings provider backed by
// the Hugging Face Inference API's feature-extraction pipeline, used to
// serve sentence-transformers and BAAI/bge models.
package sentencetransformers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/HalfBloodPrince07/Vantage-sub000/config"
	"github.com/HalfBloodPrince07/Vantage-sub000/rag/embedding"
)

const (
	defaultBaseURL    = "https://api-inference.huggingface.co"
	defaultModel      = "sentence-transformers/all-MiniLM-L6-v2"
	defaultDimensions = 384
)

var modelDimensions = map[string]int{
	"sentence-transformers/all-MiniLM-L6-v2":  384,
	"sentence-transformers/all-MiniLM-L12-v2": 384,
	"sentence-transformers/all-mpnet-base-v2": 768,
	"BAAI/bge-small-en-v1.5":                  384,
	"BAAI/bge-base-en-v1.5":                   768,
	"BAAI/bge-large-en-v1.5":                  1024,
}

// Embedder calls the Hugging Face Inference API's feature-extraction
// pipeline for a sentence-transformers or BGE model.
type Embedder struct {
	apiKey  string
	baseURL string
	model   string
	dims    int
	client  *http.Client
}

// New constructs an Embedder from cfg. An API key is required.
func New(cfg config.ProviderConfig) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embedding/sentence_transformers: api_key is required")
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	dims, ok := modelDimensions[model]
	if !ok {
		dims = defaultDimensions
	}
	if d, ok := config.GetOption[float64](cfg, "dimensions"); ok && d > 0 {
		dims = int(d)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Embedder{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		model:   model,
		dims:    dims,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type embedRequest struct {
	Inputs []string `json:"inputs"`
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	reqBody, err := json.Marshal(embedRequest{Inputs: texts})
	if err != nil {
		return nil, fmt.Errorf("embedding/sentence_transformers: encode request: %w", err)
	}

	endpoint := e.baseURL + "/pipeline/feature-extraction/" + e.model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("embedding/sentence_transformers: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding/sentence_transformers: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("embedding/sentence_transformers: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding/sentence_transformers: status %d: %s", resp.StatusCode, string(body))
	}

	var vecs [][]float32
	if err := json.Unmarshal(body, &vecs); err != nil {
		return nil, fmt.Errorf("embedding/sentence_transformers: decode response: %w", err)
	}
	return vecs, nil
}

func (e *Embedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, nil
	}
	return vecs[0], nil
}

func (e *Embedder) Dimensions() int { return e.dims }

func init() {
	embedding.Register("sentence_transformers", func(cfg config.ProviderConfig) (embedding.Embedder, error) {
		return New(cfg)
	})
}

var _ embedding.Embedder = (*Embedder)(nil)
