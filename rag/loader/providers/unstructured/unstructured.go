// Package unstructured partitions a local document (PDF, DOCX, etc.) into
// text elements via the Unstructured API, joining them into one document.
package unstructured

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

const defaultBaseURL = "https://api.unstructured.io"

// Loader partitions a file into text elements and joins them into a single
// document.
type Loader struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// New constructs a Loader from cfg. cfg.BaseURL defaults to defaultBaseURL
// and has any trailing slashes trimmed; cfg.Timeout, if set, bounds every
// request.
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

func (l *Loader) Load(ctx context.Context, path string) ([]schema.Document, error) {
	if path == "" {
		return nil, fmt.Errorf("unstructured: source file path is required")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unstructured: open file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("files", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/general/v0/general", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if l.apiKey != "" {
		req.Header.Set("unstructured-api-key", l.apiKey)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unstructured: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unstructured: API error (status %d): %s", resp.StatusCode, string(body))
	}

	var elements []element
	if err := json.NewDecoder(resp.Body).Decode(&elements); err != nil {
		return nil, fmt.Errorf("unstructured: decode response: %w", err)
	}

	var texts []string
	for _, e := range elements {
		if e.Text != "" {
			texts = append(texts, e.Text)
		}
	}
	if len(texts) == 0 {
		return nil, nil
	}

	return []schema.Document{{
		ID:      path,
		Content: strings.Join(texts, "\n\n"),
		Metadata: map[string]any{
			"format":   "unstructured",
			"loader":   "unstructured",
			"source":   path,
			"filename": filepath.Base(path),
			"elements": len(elements),
		},
	}}, nil
}

// element is a single partitioned text element returned by the
// Unstructured API.
type element struct {
	Type      string `json:"type"`
	ElementID string `json:"element_id"`
	Text      string `json:"text"`
}

func init() {
	loader.Register("unstructured", func(cfg config.ProviderConfig) (loader.Loader, error) {
		return New(cfg)
	})
}

var _ loader.Loader = (*Loader)(nil)
