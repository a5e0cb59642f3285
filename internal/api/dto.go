package api

import (
	"github.com/starford/ansuz/internal/corpus"
	"github.com/starford/ansuz/internal/models"
)

// IndexTextRequest is the request body for indexing raw text.
type IndexTextRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// IndexFileRequest is the request body for indexing a single file.
type IndexFileRequest struct {
	Path string `json:"path"`
}

// IndexDirectoryRequest is the request body for indexing a directory tree.
type IndexDirectoryRequest struct {
	Path       string   `json:"path"`
	Extensions []string `json:"extensions,omitempty"`
}

// SourceListResponse wraps source listings.
type SourceListResponse struct {
	Sources []models.Source `json:"sources"`
	Total   int             `json:"total"`
}

// IndexDirectoryResponse reports a bulk ingest outcome.
type IndexDirectoryResponse struct {
	Indexed []models.Source `json:"indexed"`
	Count   int             `json:"count"`
}

// SearchResponse wraps ranked search results.
type SearchResponse struct {
	Results []corpus.SearchResult `json:"results"`
}

// ContextResponse wraps an assembled context string.
type ContextResponse struct {
	Context string `json:"context"`
}
