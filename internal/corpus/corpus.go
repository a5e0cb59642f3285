// Package corpus holds the in-memory retrieval index: ingested sources,
// their tokenized chunks, and BM25 search over them.
package corpus

import (
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/starford/ansuz/internal/chunker"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/tokenizer"
)

// Corpus is the live chunk collection. Reads (searches) may proceed
// concurrently; writes exclude everything else. The lock is held only for
// in-memory mutation, never for I/O.
type Corpus struct {
	mu       sync.RWMutex
	splitter *chunker.Chunker
	sources  []models.Source
	chunks   []models.Chunk

	topK            int
	contextTopK     int
	maxContextChars int
}

// Option tunes a new Corpus.
type Option func(*Corpus)

// WithSearchDefaults overrides the retrieval defaults used when a caller
// passes zero values. Non-positive arguments keep the built-in defaults.
func WithSearchDefaults(topK, contextTopK, maxContextChars int) Option {
	return func(c *Corpus) {
		if topK > 0 {
			c.topK = topK
		}
		if contextTopK > 0 {
			c.contextTopK = contextTopK
		}
		if maxContextChars > 0 {
			c.maxContextChars = maxContextChars
		}
	}
}

// New creates an empty corpus using splitter for passage extraction.
func New(splitter *chunker.Chunker, opts ...Option) *Corpus {
	c := &Corpus{
		splitter:        splitter,
		topK:            DefaultTopK,
		contextTopK:     ContextTopK,
		maxContextChars: DefaultMaxContextChars,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddDocument chunks and tokenizes content and stores it under a fresh
// source. It always succeeds; very short content produces a source with
// zero chunks.
func (c *Corpus) AddDocument(name, kind, origin, content string) models.Source {
	passages := c.splitter.Split(content)

	src := models.Source{
		ID:          uuid.NewString(),
		Name:        name,
		Kind:        kind,
		Origin:      origin,
		ChunkCount:  len(passages),
		TotalLength: utf8.RuneCountInString(content),
		IndexedAt:   time.Now().UTC(),
	}

	chunks := make([]models.Chunk, len(passages))
	for i, p := range passages {
		chunks[i] = models.Chunk{
			ID:         fmt.Sprintf("%s:%d", src.ID, i),
			SourceID:   src.ID,
			SourceName: name,
			Content:    p,
			Index:      i,
			Tokens:     tokenizer.Tokenize(p),
		}
	}

	c.mu.Lock()
	c.sources = append(c.sources, src)
	c.chunks = append(c.chunks, chunks...)
	c.mu.Unlock()

	return src
}

// Sources returns a copy of all live source records in insertion order.
func (c *Corpus) Sources() []models.Source {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Source, len(c.sources))
	copy(out, c.sources)
	return out
}

// Delete removes the source with the given id and all its chunks. It
// reports whether anything was removed; an unknown id is not an error.
func (c *Corpus) Delete(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deleteLocked(func(s models.Source) bool { return s.ID == id })
}

// DeleteByOrigin removes any source whose origin descriptor matches,
// together with its chunks. Used for re-ingest: indexing the same file
// twice must replace, not duplicate.
func (c *Corpus) DeleteByOrigin(origin string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deleteLocked(func(s models.Source) bool { return s.Origin == origin })
}

func (c *Corpus) deleteLocked(match func(models.Source) bool) bool {
	removed := make(map[string]struct{})
	kept := c.sources[:0]
	for _, s := range c.sources {
		if match(s) {
			removed[s.ID] = struct{}{}
		} else {
			kept = append(kept, s)
		}
	}
	if len(removed) == 0 {
		return false
	}
	c.sources = kept

	keptChunks := c.chunks[:0]
	for _, ch := range c.chunks {
		if _, gone := removed[ch.SourceID]; !gone {
			keptChunks = append(keptChunks, ch)
		}
	}
	c.chunks = keptChunks
	return true
}

// Clear empties the corpus.
func (c *Corpus) Clear() {
	c.mu.Lock()
	c.sources = nil
	c.chunks = nil
	c.mu.Unlock()
}

// Stats summarizes the live corpus.
type Stats struct {
	Sources     int `json:"sources"`
	Chunks      int `json:"chunks"`
	TotalLength int `json:"total_length"`
}

// Stats sums the live records; it is never cached.
func (c *Corpus) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st := Stats{Sources: len(c.sources), Chunks: len(c.chunks)}
	for _, s := range c.sources {
		st.TotalLength += s.TotalLength
	}
	return st
}

// Snapshot returns a deep copy of the corpus state stamped with the
// running tokenizer version, suitable for handing to the persistence
// layer outside the lock.
func (c *Corpus) Snapshot() *models.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := &models.Snapshot{
		TokenizerVersion: tokenizer.Version,
		Sources:          make([]models.Source, len(c.sources)),
		Chunks:           make([]models.Chunk, len(c.chunks)),
	}
	copy(snap.Sources, c.sources)
	for i, ch := range c.chunks {
		tokens := make([]string, len(ch.Tokens))
		copy(tokens, ch.Tokens)
		ch.Tokens = tokens
		snap.Chunks[i] = ch
	}
	return snap
}

// Restore replaces the corpus state with a persisted snapshot. When the
// snapshot was written by a different tokenizer version its cached token
// sequences are stale, so every chunk is re-tokenized eagerly.
func (c *Corpus) Restore(snap *models.Snapshot) {
	if snap == nil {
		return
	}
	chunks := make([]models.Chunk, len(snap.Chunks))
	copy(chunks, snap.Chunks)
	if snap.TokenizerVersion != tokenizer.Version {
		for i := range chunks {
			chunks[i].Tokens = tokenizer.Tokenize(chunks[i].Content)
		}
	}
	sources := make([]models.Source, len(snap.Sources))
	copy(sources, snap.Sources)

	c.mu.Lock()
	c.sources = sources
	c.chunks = chunks
	c.mu.Unlock()
}
