package corpus

import (
	"math"
	"sort"

	"github.com/starford/ansuz/internal/models"
)

// BM25 parameters (standard values).
const (
	k1 = 1.5  // term frequency saturation
	b  = 0.75 // length normalization
)

// rank scores every chunk against the query terms and returns the topK
// best, descending. Corpus statistics (document frequency, average chunk
// length) are recomputed from the full chunk slice on every call; there is
// no inverted index. Chunks containing no query term are excluded. Ties
// keep chunk insertion order (stable sort), so results are reproducible.
func rank(chunks []models.Chunk, terms []string, topK int) []SearchResult {
	if len(chunks) == 0 || len(terms) == 0 {
		return nil
	}

	qset := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		qset[t] = struct{}{}
	}

	// Per-chunk frequencies of query terms, plus corpus-wide stats.
	tfs := make([]map[string]int, len(chunks))
	df := make(map[string]int, len(qset))
	totalLen := 0
	for i := range chunks {
		totalLen += len(chunks[i].Tokens)
		var tf map[string]int
		for _, tok := range chunks[i].Tokens {
			if _, ok := qset[tok]; !ok {
				continue
			}
			if tf == nil {
				tf = make(map[string]int, len(qset))
			}
			tf[tok]++
		}
		tfs[i] = tf
		for term := range tf {
			df[term]++
		}
	}
	if totalLen == 0 {
		return nil
	}
	avgdl := float64(totalLen) / float64(len(chunks))

	idf := make(map[string]float64, len(df))
	n := float64(len(chunks))
	for term, f := range df {
		idf[term] = math.Log((n-float64(f)+0.5)/(float64(f)+0.5) + 1)
	}

	type scored struct {
		idx   int
		score float64
	}
	var hits []scored
	for i := range chunks {
		tf := tfs[i]
		if tf == nil {
			continue
		}
		dl := float64(len(chunks[i].Tokens))
		score := 0.0
		for _, term := range terms {
			f := float64(tf[term])
			if f == 0 {
				continue
			}
			score += idf[term] * (f * (k1 + 1)) / (f + k1*(1-b+b*dl/avgdl))
		}
		if score > 0 {
			hits = append(hits, scored{idx: i, score: score})
		}
	}

	sort.SliceStable(hits, func(a, z int) bool { return hits[a].score > hits[z].score })
	if len(hits) > topK {
		hits = hits[:topK]
	}

	out := make([]SearchResult, len(hits))
	for i, h := range hits {
		ch := &chunks[h.idx]
		out[i] = SearchResult{
			Content:    ch.Content,
			SourceName: ch.SourceName,
			Score:      h.score,
		}
	}
	return out
}
