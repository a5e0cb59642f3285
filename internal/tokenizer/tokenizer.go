// Package tokenizer normalizes text into the lexical units used for
// indexing and scoring.
package tokenizer

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Version identifies the normalization schema. Persisted snapshots are
// stamped with it; a mismatch on load forces re-tokenization.
const Version = 1

// stripRe removes everything except word characters, whitespace, and the
// accented Latin letters the deployment alphabet requires.
var stripRe = regexp.MustCompile(`[^\w\sáéíóúüñ]+`)

// Tokenize lowercases text, strips punctuation, splits on whitespace runs,
// and drops tokens of length 1 or less. It never fails; degenerate input
// yields an empty slice.
func Tokenize(text string) []string {
	cleaned := stripRe.ReplaceAllString(strings.ToLower(text), "")

	fields := strings.Fields(cleaned)
	tokens := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) > 1 {
			tokens = append(tokens, f)
		}
	}
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}
