package corpus

import (
	"strconv"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/starford/ansuz/internal/chunker"
	"github.com/starford/ansuz/internal/models"
)

// addRawChunk injects a chunk with a fixed token sequence, bypassing the
// chunker, so scoring tests control corpus statistics exactly.
func addRawChunk(c *Corpus, sourceName string, tokens ...string) {
	c.chunks = append(c.chunks, models.Chunk{
		ID:         sourceName + ":" + strconv.Itoa(len(c.chunks)),
		SourceID:   sourceName,
		SourceName: sourceName,
		Content:    strings.Join(tokens, " "),
		Index:      len(c.chunks),
		Tokens:     tokens,
	})
}

func TestSearch_RanksByTermCoverage(t *testing.T) {
	c := defaultTestCorpus(t)
	addRawChunk(c, "A", "compiler", "emits", "fast", "native", "code")
	addRawChunk(c, "B", "compiler", "emits", "slow", "bytecode", "today")
	addRawChunk(c, "C", "gardens", "need", "water", "every", "morning")

	results := c.Search("compiler emits fast native code", 10)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2 (C must be absent)", len(results))
	}
	if results[0].SourceName != "A" || results[1].SourceName != "B" {
		t.Errorf("order = [%s %s], want [A B]", results[0].SourceName, results[1].SourceName)
	}
	if results[0].Score <= results[1].Score {
		t.Errorf("score(A)=%f not above score(B)=%f", results[0].Score, results[1].Score)
	}
}

func TestSearch_MonotonicInTermFrequency(t *testing.T) {
	base := defaultTestCorpus(t)
	addRawChunk(base, "bg1", "filler", "words", "one", "two")
	addRawChunk(base, "bg2", "other", "filler", "words", "here")
	addRawChunk(base, "doc", "query", "cat", "dog", "cow")

	boosted := defaultTestCorpus(t)
	addRawChunk(boosted, "bg1", "filler", "words", "one", "two")
	addRawChunk(boosted, "bg2", "other", "filler", "words", "here")
	addRawChunk(boosted, "doc", "query", "query", "dog", "cow")

	a := base.Search("query", 1)
	b := boosted.Search("query", 1)
	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("expected one hit in each corpus, got %d and %d", len(a), len(b))
	}
	if b[0].Score < a[0].Score {
		t.Errorf("extra occurrence decreased score: %f < %f", b[0].Score, a[0].Score)
	}
}

func TestSearch_EmptyCorpusAndEmptyQuery(t *testing.T) {
	c := defaultTestCorpus(t)
	if got := c.Search("anything", 5); len(got) != 0 {
		t.Errorf("empty corpus yielded %v", got)
	}

	addRawChunk(c, "doc", "some", "tokens", "here")
	if got := c.Search("", 5); len(got) != 0 {
		t.Errorf("empty query yielded %v", got)
	}
	if got := c.Search("zzz qqq", 5); len(got) != 0 {
		t.Errorf("unmatched query yielded %v", got)
	}
}

func TestSearch_TopKTruncation(t *testing.T) {
	c := defaultTestCorpus(t)
	for i := 0; i < 10; i++ {
		addRawChunk(c, "doc"+strconv.Itoa(i), "shared", "term", "chunk"+strconv.Itoa(i))
	}
	if got := c.Search("shared term", 3); len(got) != 3 {
		t.Errorf("got %d results, want 3", len(got))
	}
}

func TestSearch_TieBreakKeepsInsertionOrder(t *testing.T) {
	c := defaultTestCorpus(t)
	addRawChunk(c, "first", "identical", "tokens", "here")
	addRawChunk(c, "second", "identical", "tokens", "here")

	results := c.Search("identical tokens", 5)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].SourceName != "first" {
		t.Errorf("tie broke to %q, want insertion order", results[0].SourceName)
	}
}

func TestSearch_Deterministic(t *testing.T) {
	c := defaultTestCorpus(t)
	addRawChunk(c, "x", "alpha", "beta", "gamma")
	addRawChunk(c, "y", "alpha", "delta", "gamma")
	addRawChunk(c, "z", "alpha", "beta", "delta")

	a := c.Search("alpha beta", 5)
	b := c.Search("alpha beta", 5)
	if len(a) != len(b) {
		t.Fatalf("result counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("result %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestBuildContext_RespectsBudget(t *testing.T) {
	c := defaultTestCorpus(t)
	addRawChunk(c, "doc", "needle", "in", "haystack")

	ctx := c.BuildContext("needle", 100)
	if ctx == "" {
		t.Fatal("expected non-empty context")
	}
	if n := utf8.RuneCountInString(ctx); n > 100 {
		t.Errorf("context length %d exceeds budget", n)
	}
	if !strings.HasPrefix(ctx, "[doc] (score: ") {
		t.Errorf("context missing source label: %q", ctx)
	}
	if strings.HasSuffix(ctx, "\n") {
		t.Error("trailing whitespace not trimmed")
	}
}

func TestBuildContext_TopBlockOverflowYieldsEmpty(t *testing.T) {
	c := defaultTestCorpus(t)
	long := strings.Repeat("needle and many surrounding words ", 20)
	c.chunks = append(c.chunks, models.Chunk{
		ID: "big:0", SourceID: "big", SourceName: "big",
		Content: long, Tokens: []string{"needle"},
	})

	if got := c.BuildContext("needle", 100); got != "" {
		t.Errorf("expected empty context, got %d chars", len(got))
	}
}

func TestBuildContext_StopsAtFirstOverflow(t *testing.T) {
	c := defaultTestCorpus(t)
	// Best hit is small, second hit is huge, third is small again.
	addRawChunk(c, "small1", "needle", "needle", "needle")
	c.chunks = append(c.chunks, models.Chunk{
		ID: "huge:1", SourceID: "huge", SourceName: "huge",
		Content: strings.Repeat("padding words around the needle ", 30),
		Tokens:  []string{"needle", "needle"},
	})
	addRawChunk(c, "small2", "needle", "other", "words")

	ctx := c.BuildContext("needle", 120)
	if !strings.Contains(ctx, "[small1]") {
		t.Fatalf("top block missing: %q", ctx)
	}
	if strings.Contains(ctx, "[small2]") {
		t.Error("assembly skipped the overflowing block instead of stopping")
	}
}

func TestSearch_ConfiguredDefaultTopK(t *testing.T) {
	split, err := chunker.New(chunker.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	c := New(split, WithSearchDefaults(2, 0, 0))
	for i := 0; i < 5; i++ {
		addRawChunk(c, "s"+strconv.Itoa(i), "term", "word"+strconv.Itoa(i))
	}

	if got := len(c.Search("term", 0)); got != 2 {
		t.Errorf("default topK results = %d, want 2", got)
	}
	// Explicit topK still wins over the configured default.
	if got := len(c.Search("term", 4)); got != 4 {
		t.Errorf("explicit topK results = %d, want 4", got)
	}
}

func TestEndToEnd_FoxAndDog(t *testing.T) {
	c := testCorpus(t, chunker.Options{Size: 30, Overlap: 9})
	c.AddDocument("story", models.KindText, "story", "The quick brown fox. The fox jumps. A dog sleeps.")

	if got := c.Stats().Chunks; got != 2 {
		t.Fatalf("chunks = %d, want 2", got)
	}

	fox := c.Search("fox", 5)
	if len(fox) != 1 || !strings.Contains(fox[0].Content, "quick brown fox") {
		t.Errorf("search(fox) = %+v, want the fox-heavy chunk only", fox)
	}
	dog := c.Search("dog", 5)
	if len(dog) != 1 || !strings.Contains(dog[0].Content, "dog sleeps") {
		t.Errorf("search(dog) = %+v, want the dog chunk only", dog)
	}
}
