// Package testutil provides shared test helpers for setting up corpora,
// ingest roots, and snapshot databases.
package testutil

import (
	"log/slog"
	"os"
	"testing"

	"github.com/starford/ansuz/internal/chunker"
	"github.com/starford/ansuz/internal/corpus"
	"github.com/starford/ansuz/internal/docservice"
	"github.com/starford/ansuz/internal/snapshot"
	"github.com/starford/ansuz/internal/storage"
)

// TestDB creates a temporary snapshot database that is automatically
// cleaned up.
func TestDB(t *testing.T) *snapshot.DB {
	t.Helper()
	f, err := os.CreateTemp("", "ansuz-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := snapshot.Open(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestRoot creates a temporary ingest directory with a storage.Provider.
func TestRoot(t *testing.T) (string, storage.Provider) {
	t.Helper()
	root := t.TempDir()
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	return root, store
}

// TestService wires a full document service over temporary storage.
func TestService(t *testing.T) (*docservice.Service, string) {
	t.Helper()
	root, store := TestRoot(t)
	split, err := chunker.New(chunker.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := docservice.NewService(corpus.New(split), store, TestDB(t), logger)
	return svc, root
}
