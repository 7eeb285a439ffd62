package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBestEffortUTF8(t *testing.T) {
	text, enc := decodeBestEffort([]byte("hello, world"))
	assert.Equal(t, "hello, world", text)
	assert.Equal(t, "utf-8", enc)
}

func TestDecodeBestEffortUTF16BOM(t *testing.T) {
	// "hi" in UTF-16LE with a BOM.
	data := []byte{0xFF, 0xFE, 'h', 0, 'i', 0}
	text, enc := decodeBestEffort(data)
	assert.Equal(t, "hi", text)
	assert.Equal(t, "utf-16", enc)
}

func TestDecodeBestEffortLatin1Fallback(t *testing.T) {
	// 0xE9 is 'é' in Latin-1/CP-1252 but not valid standalone UTF-8.
	data := []byte{'c', 'a', 'f', 0xE9}
	text, _ := decodeBestEffort(data)
	assert.Equal(t, "café", text)
}

func TestMimeTypeFor(t *testing.T) {
	assert.Equal(t, "image/png", mimeTypeFor("png"))
	assert.Equal(t, "image/jpeg", mimeTypeFor("jpg"))
	assert.Equal(t, "image/jpeg", mimeTypeFor("jpeg"))
	assert.Equal(t, "application/octet-stream", mimeTypeFor("tiff"))
}

func TestExtractTextReadsPlainFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain content"), 0o644))

	result, err := extractText(path)
	require.NoError(t, err)
	assert.Equal(t, "plain content", result.RawText)
	assert.Equal(t, "utf-8", result.Metadata["encoding"])
}

func TestExtractDispatchesPlainTextByDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain content"), 0o644))

	p := newTestPipeline(t)
	result, err := p.extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "plain content", result.RawText)
}
