// Package firecrawl loads a web page's content, converted to markdown, via
// the Firecrawl scrape API.
package firecrawl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/HalfBloodPrince07/Vantage-sub000/config"
	"github.com/HalfBloodPrince07/Vantage-sub000/rag/loader"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

const defaultBaseURL = "https://api.firecrawl.dev"

// httpDoer is the subset of *http.Client the Loader needs, allowing tests
// to inject a failing client.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Loader scrapes a URL into a single markdown document via Firecrawl.
type Loader struct {
	apiKey  string
	baseURL string
	client  httpDoer
}

// New constructs a Loader from cfg.
func New(cfg config.ProviderConfig) (*Loader, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Loader{apiKey: cfg.APIKey, baseURL: baseURL, client: http.DefaultClient}, nil
}

func (l *Loader) Load(ctx context.Context, url string) ([]schema.Document, error) {
	if url == "" {
		return nil, fmt.Errorf("firecrawl: url is required")
	}

	body, err := json.Marshal(scrapeRequest{URL: url, Formats: []string{"markdown"}})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/v1/scrape", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if l.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+l.apiKey)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("firecrawl: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("firecrawl: API error (status %d)", resp.StatusCode)
	}

	var result scrapeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("firecrawl: decode response: %w", err)
	}

	if result.Data.Markdown == "" {
		return nil, nil
	}

	return []schema.Document{{
		ID:      url,
		Content: result.Data.Markdown,
		Metadata: map[string]any{
			"loader":      "firecrawl",
			"source":      url,
			"title":       result.Data.Metadata["title"],
			"description": result.Data.Metadata["description"],
		},
	}}, nil
}

type scrapeRequest struct {
	URL     string   `json:"url"`
	Formats []string `json:"formats"`
}

type scrapeResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Markdown string         `json:"markdown"`
		Metadata map[string]any `json:"metadata"`
	} `json:"data"`
}

func init() {
	loader.Register("firecrawl", func(cfg config.ProviderConfig) (loader.Loader, error) {
		return New(cfg)
	})
}

var _ loader.Loader = (*Loader)(nil)
