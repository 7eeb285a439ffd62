// Package cohere provides the Cohere embeddings provider.
package cohere

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
	defaultBaseURL    = "https://api.cohere.com/v1"
	defaultModel      = "embed-english-v3.0"
	defaultDimensions = 1024
)

var modelDimensions = map[string]int{
	"embed-english-v3.0":       1024,
	"embed-multilingual-v3.0":  1024,
	"embed-english-light-v3.0": 384,
	"embed-english-v2.0":       4096,
}

// Embedder calls the Cohere embed API.
type Embedder struct {
	apiKey    string
	baseURL   string
	model     string
	dims      int
	inputType string
	client    *http.Client
}

// New constructs an Embedder from cfg. cfg.Options["input_type"] selects
// Cohere's input_type field (default "search_document"); cfg.Options
// ["dimensions"] overrides the model's known dimensionality.
func New(cfg config.ProviderConfig) (*Embedder, error) {
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

	inputType := "search_document"
	if it, ok := config.GetOption[string](cfg, "input_type"); ok && it != "" {
		inputType = it
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Embedder{
		apiKey:    cfg.APIKey,
		baseURL:   baseURL,
		model:     model,
		dims:      dims,
		inputType: inputType,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

type embedRequest struct {
	Model          string   `json:"model"`
	Texts          []string `json:"texts"`
	InputType      string   `json:"input_type"`
	EmbeddingTypes []string `json:"embedding_types"`
}

type embedResponse struct {
	ID         string `json:"id"`
	Embeddings struct {
		Float [][]float32 `json:"float"`
	} `json:"embeddings"`
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	reqBody, err := json.Marshal(embedRequest{
		Model:          e.model,
		Texts:          texts,
		InputType:      e.inputType,
		EmbeddingTypes: []string{"float"},
	})
	if err != nil {
		return nil, fmt.Errorf("embedding/cohere: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embed", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("embedding/cohere: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding/cohere: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("embedding/cohere: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding/cohere: status %d: %s", resp.StatusCode, string(body))
	}

	var parsed embedResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("embedding/cohere: decode response: %w", err)
	}
	return parsed.Embeddings.Float, nil
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
	embedding.Register("cohere", func(cfg config.ProviderConfig) (embedding.Embedder, error) {
		return New(cfg)
	})
}

var _ embedding.Embedder = (*Embedder)(nil)
