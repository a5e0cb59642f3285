// Package docservice coordinates the corpus, the ingest file system, and
// snapshot persistence.
package docservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/corpus"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/snapshot"
	"github.com/starford/ansuz/internal/storage"
)

// IndexableExtensions is the allow-list of file extensions the service
// will ingest. Anything else is rejected before any read is attempted.
var IndexableExtensions = []string{
	".txt", ".md", ".markdown", ".rst",
	".go", ".py", ".js", ".ts", ".jsx", ".tsx",
	".java", ".c", ".h", ".cpp", ".hpp", ".rs", ".rb", ".php",
	".sh", ".sql", ".html", ".css",
	".json", ".yaml", ".yml", ".toml", ".xml", ".csv",
	".ini", ".cfg", ".conf", ".log",
}

var indexableSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(IndexableExtensions))
	for _, e := range IndexableExtensions {
		m[e] = struct{}{}
	}
	return m
}()

// ExtensionAllowed reports whether a path's extension is in the allow-list.
func ExtensionAllowed(path string) bool {
	_, ok := indexableSet[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Service is the ingest and retrieval facade used by the HTTP and MCP
// surfaces and by the watcher.
type Service struct {
	corpus *corpus.Corpus
	store  storage.Provider
	db     *snapshot.DB
	logger *slog.Logger
}

// NewService creates a document service.
func NewService(c *corpus.Corpus, store storage.Provider, db *snapshot.DB, logger *slog.Logger) *Service {
	return &Service{corpus: c, store: store, db: db, logger: logger}
}

// LoadSnapshot restores the corpus from the last persisted snapshot.
// Called once at startup.
func (s *Service) LoadSnapshot() error {
	snap, err := s.db.Load()
	if err != nil {
		return err
	}
	s.corpus.Restore(snap)
	s.logger.Info("snapshot loaded",
		slog.Int("sources", len(snap.Sources)),
		slog.Int("chunks", len(snap.Chunks)))
	return nil
}

// persist writes the full corpus state. The corpus lock is never held
// across this I/O; a failed save is logged, not surfaced, because the
// in-memory mutation has already taken effect.
func (s *Service) persist() {
	if err := s.db.Save(s.corpus.Snapshot()); err != nil {
		s.logger.Error("snapshot save failed", slog.String("error", err.Error()))
	}
}

// IndexText ingests raw text under the given display name. It always
// succeeds; very short text produces a source with zero chunks.
func (s *Service) IndexText(_ context.Context, name, content string) models.Source {
	src := s.corpus.AddDocument(name, models.KindText, name, content)
	s.persist()
	return src
}

// IndexFile ingests one file (path relative to the ingest root). The
// extension is validated against the allow-list before any read; a file
// already indexed under the same path is replaced.
func (s *Service) IndexFile(_ context.Context, path string) (models.Source, error) {
	if !ExtensionAllowed(path) {
		return models.Source{}, fmt.Errorf("%w: extension %q is not indexable", apperr.ErrValidation, filepath.Ext(path))
	}
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.Source{}, fmt.Errorf("%w: %s", apperr.ErrNotFound, path)
		}
		return models.Source{}, err
	}
	src := s.ingestFile(path, data)
	s.persist()
	return src, nil
}

// IndexDirectory ingests every allow-listed file under dir (relative to
// the ingest root). A file that fails to read is logged and skipped; one
// bad file never aborts the walk. Returns the sources actually indexed.
func (s *Service) IndexDirectory(_ context.Context, dir string, exts []string) ([]models.Source, error) {
	if len(exts) == 0 {
		exts = IndexableExtensions
	}
	metas, err := s.store.List(dir, exts)
	if err != nil {
		return nil, err
	}

	var indexed []models.Source
	for _, m := range metas {
		data, readErr := s.store.Read(m.Path)
		if readErr != nil {
			s.logger.Warn("index directory: read failed, skipping",
				slog.String("path", m.Path), slog.String("error", readErr.Error()))
			continue
		}
		indexed = append(indexed, s.ingestFile(m.Path, data))
	}
	if len(indexed) > 0 {
		s.persist()
	}
	return indexed, nil
}

// ingestFile replaces any source previously indexed from the same path and
// adds the new content. Does not persist; callers batch that.
func (s *Service) ingestFile(path string, data []byte) models.Source {
	s.corpus.DeleteByOrigin(path)
	return s.corpus.AddDocument(filepath.Base(path), models.KindFile, path, string(data))
}

// ListSources returns all live source records.
func (s *Service) ListSources(_ context.Context) []models.Source {
	return s.corpus.Sources()
}

// DeleteSource removes a source and its chunks. Reports whether anything
// was found; an unknown id is not an error.
func (s *Service) DeleteSource(_ context.Context, id string) bool {
	found := s.corpus.Delete(id)
	if found {
		s.persist()
	}
	return found
}

// RemoveByOrigin removes whatever source was indexed from the given path.
// Used by the watcher when a file disappears.
func (s *Service) RemoveByOrigin(origin string) bool {
	found := s.corpus.DeleteByOrigin(origin)
	if found {
		s.persist()
	}
	return found
}

// ReindexFile is the watcher entry point for already-read file content.
func (s *Service) ReindexFile(path string, data []byte) models.Source {
	src := s.ingestFile(path, data)
	s.persist()
	return src
}

// Clear empties the whole corpus.
func (s *Service) Clear(_ context.Context) {
	s.corpus.Clear()
	s.persist()
}

// Stats summarizes the live corpus.
func (s *Service) Stats(_ context.Context) corpus.Stats {
	return s.corpus.Stats()
}

// Search returns the topK chunks ranked by BM25 against the query.
func (s *Service) Search(_ context.Context, query string, topK int) []corpus.SearchResult {
	return s.corpus.Search(query, topK)
}

// BuildContext assembles top-ranked passages into one budget-bounded string.
func (s *Service) BuildContext(_ context.Context, query string, maxChars int) string {
	return s.corpus.BuildContext(query, maxChars)
}
