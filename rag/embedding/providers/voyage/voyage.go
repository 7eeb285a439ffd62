// Package voyage provides the Voyage AI embeddings provider.
package voyage

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
	defaultBaseURL    = "https://api.voyageai.com/v1"
	defaultModel      = "voyage-2"
	defaultDimensions = 1024
)

var modelDimensions = map[string]int{
	"voyage-2":       1024,
	"voyage-large-2": 1536,
	"voyage-code-2":  1536,
	"voyage-3":       1024,
	"voyage-3-lite":  512,
}

// Embedder calls the Voyage AI embeddings API.
type Embedder struct {
	apiKey    string
	baseURL   string
	model     string
	dims      int
	inputType string
	client    *http.Client
}

// New constructs an Embedder from cfg. cfg.Options["input_type"] selects
// Voyage's input_type field (default "document").
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

	inputType := "document"
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
	Model     string   `json:"model"`
	Input     []string `json:"input"`
	InputType string   `json:"input_type"`
}

type embedResponse struct {
	Object string `json:"object"`
	Data   []struct {
		Object    string    `json:"object"`
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Model string `json:"model"`
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	reqBody, err := json.Marshal(embedRequest{
		Model:     e.model,
		Input:     texts,
		InputType: e.inputType,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding/voyage: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("embedding/voyage: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding/voyage: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("embedding/voyage: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding/voyage: status %d: %s", resp.StatusCode, string(body))
	}

	var parsed embedResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("embedding/voyage: decode response: %w", err)
	}

	vecs := make([][]float32, len(texts))
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= len(vecs) {
			continue
		}
		vecs[d.Index] = d.Embedding
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
	embedding.Register("voyage", func(cfg config.ProviderConfig) (embedding.Embedder, error) {
		return New(cfg)
	})
}

var _ embedding.Embedder = (*Embedder)(nil)
