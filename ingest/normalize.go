package ingest

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// normalize implements §4.3 step 4: truncate to maxChars, collapse runs of
// control/whitespace characters to a single space, and apply Unicode NFKC
// normalization so that visually-identical text extracted from different
// sources (PDF ligatures, full-width punctuation, combining diacritics)
// compares and embeds consistently.
func normalize(text string, maxChars int) string {
	text = norm.NFKC.String(text)
	text = collapseWhitespace(text)
	if maxChars > 0 && len([]rune(text)) > maxChars {
		text = string([]rune(text)[:maxChars])
	}
	return text
}

// collapseWhitespace replaces every run of control or whitespace
// characters (newlines, tabs, NUL, form-feeds, etc.) with a single space
// and trims the result.
func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inRun := false
	for _, r := range s {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			if !inRun {
				b.WriteByte(' ')
				inRun = true
			}
			continue
		}
		inRun = false
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
