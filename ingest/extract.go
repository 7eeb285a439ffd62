package ingest

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/HalfBloodPrince07/Vantage-sub000/config"
	"github.com/HalfBloodPrince07/Vantage-sub000/rag/loader"
	"github.com/HalfBloodPrince07/Vantage-sub000/schema"
)

var (
	imageExtensions  = map[string]bool{"png": true, "jpg": true, "jpeg": true, "gif": true, "webp": true, "bmp": true}
	officeExtensions = map[string]bool{"pdf": true, "docx": true, "doc": true, "pptx": true, "ppt": true, "xlsx": true, "xls": true, "rtf": true}
)

// extractResult is what §4.3 step 3 (extraction) produces for a file.
type extractResult struct {
	RawText  string
	Metadata map[string]any
}

// extract dispatches a file to the extractor matching its type (§4.3
// step 3). Office formats and PDFs go through the docling loader (which
// already handles both); plain text goes through an encoding fallback
// chain; images are OCR'd and described by the image-capable chat model.
func (p *Pipeline) extract(ctx context.Context, path string) (extractResult, error) {
	ext := extractExt(path)
	switch {
	case imageExtensions[ext]:
		return p.extractImage(ctx, path)
	case officeExtensions[ext]:
		return p.extractViaLoader(ctx, "docling", path)
	case ext == "csv":
		return p.extractViaLoader(ctx, "csv", path)
	case ext == "json":
		return p.extractViaLoader(ctx, "json", path)
	case ext == "md" || ext == "markdown":
		return p.extractViaLoader(ctx, "markdown", path)
	default:
		return extractText(path)
	}
}

func (p *Pipeline) extractViaLoader(ctx context.Context, name, path string) (extractResult, error) {
	l, err := loader.New(name, config.ProviderConfig{})
	if err != nil {
		return extractResult{}, fmt.Errorf("ingest: %s loader: %w", name, err)
	}
	docs, err := l.Load(ctx, path)
	if err != nil {
		return extractResult{}, fmt.Errorf("ingest: %s extract %q: %w", name, path, err)
	}
	if len(docs) == 0 {
		return extractResult{}, nil
	}
	text := docs[0].Content

	// For PDFs, fall back to page-by-page image OCR when the extracted
	// text is suspiciously short (§4.3 step 3's scanned-document case).
	if extractExt(path) == "pdf" && len(text) < 100 {
		if ocrText, err := p.extractImage(ctx, path); err == nil && ocrText.RawText != "" {
			text = ocrText.RawText
		}
	}
	return extractResult{RawText: text, Metadata: docs[0].Metadata}, nil
}

// extractImage sends the raw file bytes to the image-capable chat model
// for OCR + description (§4.3 step 3, images and scanned-PDF fallback).
func (p *Pipeline) extractImage(ctx context.Context, path string) (extractResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return extractResult{}, fmt.Errorf("ingest: read %q: %w", path, err)
	}
	msg := &schema.HumanMessage{Parts: []schema.ContentPart{
		schema.TextPart{Text: "Transcribe any visible text verbatim, then describe the image's content and layout in one paragraph."},
		schema.ImagePart{Data: data, MimeType: mimeTypeFor(extractExt(path))},
	}}
	resp, err := p.model.Generate(ctx, []schema.Message{msg})
	if err != nil {
		return extractResult{}, fmt.Errorf("ingest: image OCR %q: %w", path, err)
	}
	return extractResult{RawText: resp.Text(), Metadata: map[string]any{"ocr": true}}, nil
}

func mimeTypeFor(ext string) string {
	switch ext {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "bmp":
		return "image/bmp"
	default:
		return "application/octet-stream"
	}
}

// extractText reads a plain text file through §4.3's encoding fallback
// chain: UTF-8, UTF-16 (BOM-detected), Latin-1, CP-1252. The first three
// cover the overwhelming majority of legacy text files; CP-1252 is the
// universal final fallback since every byte value is defined in it.
func extractText(path string) (extractResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return extractResult{}, err
	}
	text, enc := decodeBestEffort(data)
	return extractResult{RawText: text, Metadata: map[string]any{"encoding": enc}}, nil
}

func decodeBestEffort(data []byte) (string, string) {
	if utf8.Valid(data) {
		return string(data), "utf-8"
	}
	if hasUTF16BOM(data) {
		if s, err := decodeWith(unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder(), data); err == nil {
			return s, "utf-16"
		}
	}
	if s, err := decodeWith(charmap.ISO8859_1.NewDecoder(), data); err == nil && utf8.ValidString(s) {
		return s, "latin-1"
	}
	s, _ := decodeWith(charmap.Windows1252.NewDecoder(), data)
	return s, "cp-1252"
}

func hasUTF16BOM(data []byte) bool {
	return bytes.HasPrefix(data, []byte{0xFF, 0xFE}) || bytes.HasPrefix(data, []byte{0xFE, 0xFF})
}

func decodeWith(dec *encoding.Decoder, data []byte) (string, error) {
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
