// Package github loads a single file's content from a GitHub repository via
// the contents API.
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/HalfBloodPrince07/Vantage-sub000/config"
	"github.com/HalfBloodPrince07/Vantage-sub000/rag/loader"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

const defaultBaseURL = "https://api.github.com"

// httpDoer is the subset of *http.Client the Loader needs, allowing tests
// to inject a failing client.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Loader reads a single file out of a GitHub repository, identified by a
// "owner/repo/path" source string.
type Loader struct {
	baseURL string
	apiKey  string
	ref     string
	client  httpDoer
}

// New constructs a Loader from cfg. cfg.APIKey, if set, authenticates
// requests; the "ref" option pins a branch, tag, or commit.
func New(cfg config.ProviderConfig) (*Loader, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	ref, _ := config.GetOption[string](cfg, "ref")
	return &Loader{baseURL: baseURL, apiKey: cfg.APIKey, ref: ref, client: http.DefaultClient}, nil
}

// Load fetches the file at source, formatted as "owner/repo/path/to/file".
func (l *Loader) Load(ctx context.Context, source string) ([]schema.Document, error) {
	if source == "" {
		return nil, fmt.Errorf("github: source is required")
	}
	parts := strings.SplitN(source, "/", 3)
	if len(parts) < 3 {
		return nil, fmt.Errorf("github: invalid source format, expected owner/repo/path")
	}
	owner, repo, path := parts[0], parts[1], parts[2]

	reqURL := fmt.Sprintf("%s/repos/%s/%s/contents/%s", l.baseURL, owner, repo, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	if l.ref != "" {
		q := req.URL.Query()
		q.Set("ref", l.ref)
		req.URL.RawQuery = q.Encode()
	}
	if l.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+l.apiKey)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github: status %d", resp.StatusCode)
	}

	var result contentResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("github: decode response: %w", err)
	}

	if result.Type != "file" {
		return nil, fmt.Errorf("github: %q is a %s, not a file", path, result.Type)
	}

	content := result.Content
	if result.Encoding == "base64" {
		decoded, err := base64.StdEncoding.DecodeString(content)
		if err != nil {
			return nil, fmt.Errorf("github: decode content: %w", err)
		}
		content = string(decoded)
	}

	return []schema.Document{{
		ID:      source,
		Content: content,
		Metadata: map[string]any{
			"loader":   "github",
			"sha":      result.SHA,
			"path":     result.Path,
			"html_url": result.HTMLURL,
			"source":   source,
		},
	}}, nil
}

// contentResponse is the subset of the GitHub "get repository content"
// response this loader uses.
type contentResponse struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	SHA      string `json:"sha"`
	Size     int    `json:"size"`
	Type     string `json:"type"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
	HTMLURL  string `json:"html_url"`
}

func init() {
	loader.Register("github", func(cfg config.ProviderConfig) (loader.Loader, error) {
		return New(cfg)
	})
}

var _ loader.Loader = (*Loader)(nil)
