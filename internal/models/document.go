// Package models defines the domain types for Ansuz.
package models

import "time"

// Source kinds.
const (
	KindText = "text"
	KindFile = "file"
	KindRef  = "ref"
)

// Source represents one ingested document.
type Source struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Kind        string    `json:"kind"`
	Origin      string    `json:"origin"`
	ChunkCount  int       `json:"chunk_count"`
	TotalLength int       `json:"total_length"`
	IndexedAt   time.Time `json:"indexed_at"`
}

// Chunk is one retrievable passage of a Source. Tokens are frozen at
// creation time; a tokenizer rule change requires re-indexing.
type Chunk struct {
	ID         string   `json:"id"`
	SourceID   string   `json:"source_id"`
	SourceName string   `json:"source_name"`
	Content    string   `json:"content"`
	Index      int      `json:"index"`
	Tokens     []string `json:"tokens"`
}

// Snapshot is the full persisted state of the corpus.
type Snapshot struct {
	TokenizerVersion int      `json:"tokenizer_version"`
	Sources          []Source `json:"sources"`
	Chunks           []Chunk  `json:"chunks"`
}
