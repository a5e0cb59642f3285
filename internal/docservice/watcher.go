package docservice

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/ansuz/internal/checksum"
)

// EventCallback is called after a watcher-driven index change.
// kind is one of "indexed", "removed".
type EventCallback func(kind string, path string)

// Watch starts an fsnotify watcher on the ingest root and keeps the corpus
// in sync with file changes until ctx is cancelled. It calls cb (if
// non-nil) after each successful index mutation.
//
// New directories created at runtime are added to the watch list. A
// checksum cache suppresses re-indexing when editors fire duplicate write
// events for unchanged content.
func Watch(ctx context.Context, svc *Service, root string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	seen := make(map[string]string) // rel path -> last indexed checksum

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					}
					indexNewDir(svc, root, absPath, seen, logger, cb)
					continue
				}
			}

			if !ExtensionAllowed(absPath) {
				continue
			}

			rel, relErr := filepath.Rel(root, absPath)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				data, readErr := os.ReadFile(absPath)
				if readErr != nil {
					logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", readErr.Error()))
					continue
				}
				cs := checksum.Sum(data)
				if seen[rel] == cs {
					continue
				}
				seen[rel] = cs
				svc.ReindexFile(rel, data)
				logger.Debug("watcher: indexed", slog.String("path", rel))
				if cb != nil {
					cb("indexed", rel)
				}

			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// fsnotify fires Rename on the old path; if the file moved
				// within the root, its new path arrives as a Create event.
				delete(seen, rel)
				if svc.RemoveByOrigin(rel) {
					logger.Debug("watcher: removed", slog.String("path", rel))
					if cb != nil {
						cb("removed", rel)
					}
				}
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// indexNewDir indexes any allow-listed files already present in a newly
// created directory.
func indexNewDir(svc *Service, root, dirPath string, seen map[string]string, logger *slog.Logger, cb EventCallback) {
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !ExtensionAllowed(path) {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}
		seen[rel] = checksum.Sum(data)
		svc.ReindexFile(rel, data)
		logger.Debug("watcher: indexed from new dir", slog.String("path", rel))
		if cb != nil {
			cb("indexed", rel)
		}
		return nil
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
