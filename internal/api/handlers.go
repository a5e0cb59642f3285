package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/corpus"
	"github.com/starford/ansuz/internal/docservice"
	"github.com/starford/ansuz/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	svc *docservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *docservice.Service) *Handler {
	return &Handler{svc: svc}
}

// IndexText handles POST /api/documents.
func (h *Handler) IndexText(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req IndexTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Name == "" || req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name and content are required"))
		return
	}
	src := h.svc.IndexText(r.Context(), req.Name, req.Content)
	writeJSON(w, http.StatusCreated, src)
}

// IndexFile handles POST /api/documents/file.
func (h *Handler) IndexFile(w http.ResponseWriter, r *http.Request) {
	var req IndexFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	src, err := h.svc.IndexFile(r.Context(), req.Path)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrValidation):
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		default:
			slog.Error("index file failed", slog.String("path", req.Path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusCreated, src)
}

// IndexDirectory handles POST /api/documents/directory.
func (h *Handler) IndexDirectory(w http.ResponseWriter, r *http.Request) {
	var req IndexDirectoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	indexed, err := h.svc.IndexDirectory(r.Context(), req.Path, req.Extensions)
	if err != nil {
		slog.Error("index directory failed", slog.String("path", req.Path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if indexed == nil {
		indexed = []models.Source{}
	}
	writeJSON(w, http.StatusOK, IndexDirectoryResponse{Indexed: indexed, Count: len(indexed)})
}

// ListSources handles GET /api/sources.
func (h *Handler) ListSources(w http.ResponseWriter, r *http.Request) {
	sources := h.svc.ListSources(r.Context())
	writeJSON(w, http.StatusOK, SourceListResponse{Sources: sources, Total: len(sources)})
}

// DeleteSource handles DELETE /api/sources/{id}.
func (h *Handler) DeleteSource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	if !h.svc.DeleteSource(r.Context(), id) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Clear handles DELETE /api/sources.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	h.svc.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results := h.svc.Search(r.Context(), q, limit)
	if results == nil {
		results = []corpus.SearchResult{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Context handles GET /api/context.
func (h *Handler) Context(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	maxChars, _ := strconv.Atoi(r.URL.Query().Get("max_chars"))
	ctx := h.svc.BuildContext(r.Context(), q, maxChars)
	writeJSON(w, http.StatusOK, ContextResponse{Context: ctx})
}

// Stats handles GET /api/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Stats(r.Context()))
}
