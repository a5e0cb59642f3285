package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/docservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *docservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Ingestion.
	r.Post("/documents", h.IndexText)
	r.Post("/documents/file", h.IndexFile)
	r.Post("/documents/directory", h.IndexDirectory)

	// Sources.
	r.Get("/sources", h.ListSources)
	r.Delete("/sources/{id}", h.DeleteSource)
	r.Delete("/sources", h.Clear)

	// Retrieval.
	r.Get("/search", h.Search)
	r.Get("/context", h.Context)
	r.Get("/stats", h.Stats)

	// SSE endpoint (protected by the same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
