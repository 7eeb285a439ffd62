// Package cloudstorage downloads a single object from S3, Google Cloud
// Storage, or Azure Blob Storage, addressed by an s3://, gs://, or az://
// URL.
package cloudstorage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/HalfBloodPrince07/Vantage-sub000/config"
	"github.com/HalfBloodPrince07/Vantage-sub000/rag/loader"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

const (
	defaultRegion  = "us-east-1"
	defaultTimeout = 60 * time.Second
)

// Loader downloads a single cloud storage object into a document.
type Loader struct {
	httpClient *http.Client
	region     string
	accessKey  string
	secretKey  string
}

// New constructs a Loader from cfg. cfg.APIKey is used as the access key;
// the "region" and "secret_key" options override their respective
// defaults.
func New(cfg config.ProviderConfig) (*Loader, error) {
	region := defaultRegion
	if v, ok := config.GetOption[string](cfg, "region"); ok {
		region = v
	}
	secretKey, _ := config.GetOption[string](cfg, "secret_key")

	timeout := defaultTimeout
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}

	return &Loader{
		httpClient: &http.Client{Timeout: timeout},
		region:     region,
		accessKey:  cfg.APIKey,
		secretKey:  secretKey,
	}, nil
}

// Load downloads the object identified by source.
func (l *Loader) Load(ctx context.Context, source string) ([]schema.Document, error) {
	provider, bucket, key, err := parseSource(source)
	if err != nil {
		return nil, err
	}

	url := l.buildURL(provider, bucket, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if l.accessKey != "" {
		req.Header.Set("Authorization", "Bearer "+l.accessKey)
	}
	if provider == "azure" {
		req.Header.Set("x-ms-blob-type", "BlockBlob")
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cloudstorage: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("cloudstorage: fetch failed with status %d: %s", resp.StatusCode, string(body))
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("cloudstorage: read response: %w", err)
	}
	if len(content) == 0 {
		return nil, nil
	}

	return []schema.Document{{
		ID:      source,
		Content: string(content),
		Metadata: map[string]any{
			"loader":   "cloudstorage",
			"provider": provider,
			"bucket":   bucket,
			"key":      key,
			"filename": filepath.Base(key),
			"source":   source,
		},
	}}, nil
}

// buildURL resolves a provider/bucket/key triple to its public HTTP
// download URL. Returns "" for an unrecognized provider; parseSource never
// produces one, so Load never observes this case.
func (l *Loader) buildURL(provider, bucket, key string) string {
	switch provider {
	case "s3":
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, l.region, key)
	case "gcs":
		return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, key)
	case "azure":
		return fmt.Sprintf("https://%s.blob.core.windows.net/%s", bucket, key)
	default:
		return ""
	}
}

// parseSource splits a cloud storage URL into its provider, bucket, and
// object key.
func parseSource(source string) (provider, bucket, key string, err error) {
	switch {
	case source == "":
		return "", "", "", fmt.Errorf("cloudstorage: source is required")
	case strings.HasPrefix(source, "s3://"):
		bucket, key, err = splitBucketKey(strings.TrimPrefix(source, "s3://"), "invalid S3 URL")
		return "s3", bucket, key, err
	case strings.HasPrefix(source, "gs://"):
		bucket, key, err = splitBucketKey(strings.TrimPrefix(source, "gs://"), "invalid GCS URL")
		return "gcs", bucket, key, err
	case strings.HasPrefix(source, "az://"):
		bucket, key, err = splitBucketKey(strings.TrimPrefix(source, "az://"), "invalid Azure URL")
		return "azure", bucket, key, err
	default:
		return "", "", "", fmt.Errorf("cloudstorage: unsupported URL scheme: %q", source)
	}
}

func splitBucketKey(rest, errLabel string) (bucket, key string, err error) {
	idx := strings.Index(rest, "/")
	if idx < 0 {
		return "", "", fmt.Errorf("cloudstorage: %s: %q", errLabel, rest)
	}
	bucket, key = rest[:idx], rest[idx+1:]
	if key == "" {
		return "", "", fmt.Errorf("cloudstorage: %s: %q", errLabel, rest)
	}
	return bucket, key, nil
}

func init() {
	loader.Register("cloudstorage", func(cfg config.ProviderConfig) (loader.Loader, error) {
		return New(cfg)
	})
}

var _ loader.Loader = (*Loader)(nil)
