// Package docling converts documents (PDFs, Office files, or remote URLs)
// to markdown via a Docling conversion service.
package docling

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/HalfBloodPrince07/Vantage-sub000/config"
	"github.com/HalfBloodPrince07/Vantage-sub000/rag/loader"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

const defaultBaseURL = "http://localhost:5001"

// Loader converts a local file or a remote URL into a single markdown
// document using a Docling service's /v1/convert endpoint.
type Loader struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// New constructs a Loader. cfg.BaseURL defaults to defaultBaseURL and has
// any trailing slashes trimmed; cfg.Timeout, if set, bounds every request.
func New(cfg config.ProviderConfig) (*Loader, error) {
	baseURL := defaultBaseURL
	if cfg.BaseURL != "" {
		baseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	client := &http.Client{}
	if cfg.Timeout > 0 {
		client.Timeout = cfg.Timeout
	}

	return &Loader{baseURL: baseURL, apiKey: cfg.APIKey, client: client}, nil
}

// Load converts source, which may be a local file path or an http(s) URL,
// into one markdown document.
func (l *Loader) Load(ctx context.Context, source string) ([]schema.Document, error) {
	if source == "" {
		return nil, fmt.Errorf("docling: source is required")
	}

	var (
		req *http.Request
		err error
	)
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err = l.buildURLRequest(ctx, source)
	} else {
		req, err = l.buildFileRequest(ctx, source)
	}
	if err != nil {
		return nil, err
	}
	if l.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+l.apiKey)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("docling: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("docling: API error (status %d)", resp.StatusCode)
	}

	var result convertResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("docling: decode response: %w", err)
	}

	content := result.Document.Markdown
	if content == "" {
		content = result.Document.Text
	}
	if content == "" {
		return nil, nil
	}

	return []schema.Document{{
		ID:      source,
		Content: content,
		Metadata: map[string]any{
			"format": "docling",
			"loader": "docling",
			"source": source,
		},
	}}, nil
}

func (l *Loader) buildURLRequest(ctx context.Context, source string) (*http.Request, error) {
	body, err := json.Marshal(convertRequest{Source: source})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/v1/convert", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (l *Loader) buildFileRequest(ctx context.Context, path string) (*http.Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/v1/convert", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req, nil
}

type convertRequest struct {
	Source string `json:"source"`
}

type convertResponse struct {
	Status   string `json:"status"`
	Document struct {
		Markdown string `json:"markdown"`
		Text     string `json:"text"`
	} `json:"document"`
}

func init() {
	loader.Register("docling", func(cfg config.ProviderConfig) (loader.Loader, error) {
		return New(cfg)
	})
}

var _ loader.Loader = (*Loader)(nil)
