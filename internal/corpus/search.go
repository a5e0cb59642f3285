package corpus

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/starford/ansuz/internal/tokenizer"
)

// Retrieval defaults.
const (
	DefaultTopK            = 5
	ContextTopK            = 8
	DefaultMaxContextChars = 4000
)

// SearchResult is one ranked passage.
type SearchResult struct {
	Content    string  `json:"content"`
	SourceName string  `json:"source_name"`
	Score      float64 `json:"score"`
}

// Search tokenizes query and returns up to topK chunks ranked by BM25.
// An empty corpus, an empty query, or a query with no matching terms all
// yield an empty result, never an error.
func (c *Corpus) Search(query string, topK int) []SearchResult {
	if topK <= 0 {
		topK = c.topK
	}
	terms := tokenizer.Tokenize(query)

	c.mu.RLock()
	defer c.mu.RUnlock()
	return rank(c.chunks, terms, topK)
}

// BuildContext assembles the top-ranked passages into a single labeled
// string bounded by maxChars (in runes). Blocks are appended in rank
// order; assembly stops at the first block that would overflow the
// budget. If even the best block does not fit, the result is empty.
func (c *Corpus) BuildContext(query string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = c.maxContextChars
	}
	results := c.Search(query, c.contextTopK)

	var sb strings.Builder
	used := 0
	for _, r := range results {
		block := fmt.Sprintf("[%s] (score: %.2f)\n%s\n\n", r.SourceName, r.Score, r.Content)
		n := utf8.RuneCountInString(block)
		if used+n > maxChars {
			break
		}
		sb.WriteString(block)
		used += n
	}
	return strings.TrimRight(sb.String(), " \t\n")
}
