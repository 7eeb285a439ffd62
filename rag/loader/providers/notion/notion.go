// Package notion loads a Notion page's content via the Notion REST API.
package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/HalfBloodPrince07/Vantage-sub000/config"
	"github.com/HalfBloodPrince07/Vantage-sub000/rag/loader"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

const notionVersion = "2022-06-28"

const defaultBaseURL = "https://api.notion.com"

// httpDoer is the subset of *http.Client the Loader needs, allowing tests
// to inject a failing client.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Loader reads a Notion page, including its block children, into a single
// document.
type Loader struct {
	apiKey  string
	baseURL string
	client  httpDoer
}

// New constructs a Loader from cfg. cfg.APIKey is required; cfg.BaseURL
// overrides the default Notion API host.
func New(cfg config.ProviderConfig) (*Loader, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("notion: API key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Loader{apiKey: cfg.APIKey, baseURL: baseURL, client: http.DefaultClient}, nil
}

func (l *Loader) Load(ctx context.Context, source string) ([]schema.Document, error) {
	if source == "" {
		return nil, fmt.Errorf("notion: page id is required")
	}
	pageID := strings.ReplaceAll(source, "-", "")

	page, err := l.fetchPage(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("notion: fetch page: %w", err)
	}

	blocks, err := l.fetchBlocks(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("notion: fetch blocks: %w", err)
	}

	content := extractContent(blocks)
	if content == "" {
		return nil, nil
	}

	return []schema.Document{{
		ID:      pageID,
		Content: content,
		Metadata: map[string]any{
			"loader": "notion",
			"title":  extractTitle(page),
			"source": source,
		},
	}}, nil
}

func (l *Loader) fetchPage(ctx context.Context, pageID string) (pageResponse, error) {
	var page pageResponse
	err := l.get(ctx, "/v1/pages/"+pageID, &page)
	return page, err
}

func (l *Loader) fetchBlocks(ctx context.Context, pageID string) ([]block, error) {
	var children blockChildren
	if err := l.get(ctx, "/v1/blocks/"+pageID+"/children", &children); err != nil {
		return nil, err
	}
	return children.Results, nil
}

func (l *Loader) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Notion-Version", notionVersion)
	req.Header.Set("Authorization", "Bearer "+l.apiKey)

	resp, err := l.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// pageResponse is the subset of the Notion "retrieve a page" response
// this loader uses.
type pageResponse struct {
	ID         string              `json:"id"`
	Properties map[string]property `json:"properties"`
}

type property struct {
	Type  string     `json:"type"`
	Title []richText `json:"title"`
}

type richText struct {
	PlainText string `json:"plain_text"`
}

type blockChildren struct {
	Results []block `json:"results"`
}

type richTextBlock struct {
	RichText []richText `json:"rich_text"`
}

type codeBlock struct {
	RichText []richText `json:"rich_text"`
	Language string     `json:"language"`
}

// block is the subset of the Notion block object this loader understands,
// with each supported type's content stored in its matching field.
type block struct {
	ID   string `json:"id"`
	Type string `json:"type"`

	Paragraph    *richTextBlock `json:"paragraph,omitempty"`
	Heading1     *richTextBlock `json:"heading_1,omitempty"`
	Heading2     *richTextBlock `json:"heading_2,omitempty"`
	Heading3     *richTextBlock `json:"heading_3,omitempty"`
	BulletedList *richTextBlock `json:"bulleted_list_item,omitempty"`
	NumberedList *richTextBlock `json:"numbered_list_item,omitempty"`
	Toggle       *richTextBlock `json:"toggle,omitempty"`
	Quote        *richTextBlock `json:"quote,omitempty"`
	Callout      *richTextBlock `json:"callout,omitempty"`
	Code         *codeBlock     `json:"code,omitempty"`
}

func extractTitle(page pageResponse) string {
	for _, prop := range page.Properties {
		if prop.Type == "title" {
			return richTextToPlain(prop.Title)
		}
	}
	return ""
}

func extractContent(blocks []block) string {
	var parts []string
	for _, b := range blocks {
		if t := blockText(b); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n")
}

func blockText(b block) string {
	switch b.Type {
	case "paragraph":
		return richTextBlockText(b.Paragraph)
	case "heading_1":
		return richTextBlockText(b.Heading1)
	case "heading_2":
		return richTextBlockText(b.Heading2)
	case "heading_3":
		return richTextBlockText(b.Heading3)
	case "bulleted_list_item":
		return richTextBlockText(b.BulletedList)
	case "numbered_list_item":
		return richTextBlockText(b.NumberedList)
	case "toggle":
		return richTextBlockText(b.Toggle)
	case "quote":
		return richTextBlockText(b.Quote)
	case "callout":
		return richTextBlockText(b.Callout)
	case "code":
		if b.Code == nil {
			return ""
		}
		return richTextToPlain(b.Code.RichText)
	default:
		return ""
	}
}

func richTextBlockText(rtb *richTextBlock) string {
	if rtb == nil {
		return ""
	}
	return richTextToPlain(rtb.RichText)
}

func richTextToPlain(rts []richText) string {
	var sb strings.Builder
	for _, rt := range rts {
		sb.WriteString(rt.PlainText)
	}
	return sb.String()
}

func init() {
	loader.Register("notion", func(cfg config.ProviderConfig) (loader.Loader, error) {
		return New(cfg)
	})
}

var _ loader.Loader = (*Loader)(nil)
