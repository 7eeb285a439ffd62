package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	got := normalize("hello\n\n\tworld   \r\nagain", 0)
	assert.Equal(t, "hello world again", got)
}

func TestNormalizeTruncatesToMaxChars(t *testing.T) {
	got := normalize("abcdefghij", 5)
	assert.Equal(t, "abcde", got)
}

func TestNormalizeNFKCFoldsCompatibilityForms(t *testing.T) {
	// U+FF21 FULLWIDTH LATIN CAPITAL LETTER A folds to ASCII 'A' under NFKC.
	got := normalize("ＡＢＣ", 0)
	assert.Equal(t, "ABC", got)
}

func TestNormalizeTrimsSurroundingWhitespace(t *testing.T) {
	got := normalize("   padded text   ", 0)
	assert.Equal(t, "padded text", got)
}

func TestNormalizeZeroMaxCharsMeansNoTruncation(t *testing.T) {
	got := normalize("short text", 0)
	assert.Equal(t, "short text", got)
}
