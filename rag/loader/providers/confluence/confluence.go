// Package confluence loads a Confluence page's storage-format body via the
// Confluence REST API.
package confluence

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/HalfBloodPrince07/Vantage-sub000/config"
	"github.com/HalfBloodPrince07/Vantage-sub000/rag/loader"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

// httpDoer is the subset of *http.Client the Loader needs, allowing tests
// to inject a failing client.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Loader reads a Confluence page's body into a single document, stripping
// its storage-format HTML markup.
type Loader struct {
	apiKey  string
	baseURL string
	client  httpDoer
}

// New constructs a Loader from cfg. cfg.BaseURL and cfg.APIKey are both
// required.
func New(cfg config.ProviderConfig) (*Loader, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("confluence: base URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("confluence: API key is required")
	}
	return &Loader{apiKey: cfg.APIKey, baseURL: cfg.BaseURL, client: http.DefaultClient}, nil
}

// Load fetches the page identified by source, which may be a bare page id
// ("12345") or a "SPACE/pageid" pair ("DEV/67890").
func (l *Loader) Load(ctx context.Context, source string) ([]schema.Document, error) {
	if source == "" {
		return nil, fmt.Errorf("confluence: page id is required")
	}
	pageID := source
	if idx := strings.LastIndex(source, "/"); idx >= 0 {
		pageID = source[idx+1:]
	}

	page, err := l.fetchPage(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("confluence: fetch page: %w", err)
	}

	content := stripHTML(page.Body.Storage.Value)
	if content == "" {
		return nil, nil
	}

	return []schema.Document{{
		ID:      page.ID,
		Content: content,
		Metadata: map[string]any{
			"loader": "confluence",
			"title":  page.Title,
			"space":  page.Space.Key,
			"source": source,
		},
	}}, nil
}

func (l *Loader) fetchPage(ctx context.Context, pageID string) (pageResponse, error) {
	var page pageResponse

	url := fmt.Sprintf("%s/rest/api/content/%s?expand=body.storage,space", l.baseURL, pageID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return page, err
	}
	req.Header.Set("Authorization", "Bearer "+l.apiKey)

	resp, err := l.client.Do(req)
	if err != nil {
		return page, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return page, fmt.Errorf("status %d", resp.StatusCode)
	}
	return page, json.NewDecoder(resp.Body).Decode(&page)
}

// pageResponse is the subset of the Confluence "get content" response this
// loader uses.
type pageResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  struct {
		Storage struct {
			Value string `json:"value"`
		} `json:"storage"`
	} `json:"body"`
	Space struct {
		Key string `json:"key"`
	} `json:"space"`
}

var tagPattern = regexp.MustCompile(`<[^>]+>`)

func stripHTML(s string) string {
	return tagPattern.ReplaceAllString(s, "")
}

func init() {
	loader.Register("confluence", func(cfg config.ProviderConfig) (loader.Loader, error) {
		return New(cfg)
	})
}

var _ loader.Loader = (*Loader)(nil)
