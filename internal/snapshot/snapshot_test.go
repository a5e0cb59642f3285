package snapshot

import (
	"os"
	"testing"
	"time"

	"github.com/starford/ansuz/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "ansuz-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleSnapshot() *models.Snapshot {
	return &models.Snapshot{
		TokenizerVersion: 1,
		Sources: []models.Source{
			{ID: "s1", Name: "first", Kind: models.KindText, Origin: "first", ChunkCount: 2, TotalLength: 80, IndexedAt: time.Now().UTC().Truncate(time.Second)},
			{ID: "s2", Name: "second.txt", Kind: models.KindFile, Origin: "docs/second.txt", ChunkCount: 1, TotalLength: 40, IndexedAt: time.Now().UTC().Truncate(time.Second)},
		},
		Chunks: []models.Chunk{
			{ID: "s1:0", SourceID: "s1", SourceName: "first", Content: "chunk zero content", Index: 0, Tokens: []string{"chunk", "zero", "content"}},
			{ID: "s1:1", SourceID: "s1", SourceName: "first", Content: "chunk one content", Index: 1, Tokens: []string{"chunk", "one", "content"}},
			{ID: "s2:0", SourceID: "s2", SourceName: "second.txt", Content: "other file content", Index: 0, Tokens: []string{"other", "file", "content"}},
		},
	}
}

func TestLoad_EmptyDatabase(t *testing.T) {
	db := testDB(t)
	snap, err := db.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap.Sources) != 0 || len(snap.Chunks) != 0 {
		t.Errorf("empty db yielded %d sources, %d chunks", len(snap.Sources), len(snap.Chunks))
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	db := testDB(t)
	want := sampleSnapshot()
	if err := db.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := db.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.TokenizerVersion != want.TokenizerVersion {
		t.Errorf("version = %d, want %d", got.TokenizerVersion, want.TokenizerVersion)
	}
	if len(got.Sources) != len(want.Sources) || len(got.Chunks) != len(want.Chunks) {
		t.Fatalf("got %d/%d sources/chunks, want %d/%d",
			len(got.Sources), len(got.Chunks), len(want.Sources), len(want.Chunks))
	}
	for i := range want.Sources {
		if got.Sources[i].ID != want.Sources[i].ID {
			t.Errorf("source %d id = %q, want %q (order must be preserved)", i, got.Sources[i].ID, want.Sources[i].ID)
		}
	}
	for i := range want.Chunks {
		if got.Chunks[i].ID != want.Chunks[i].ID {
			t.Errorf("chunk %d id = %q, want %q (order must be preserved)", i, got.Chunks[i].ID, want.Chunks[i].ID)
		}
		if len(got.Chunks[i].Tokens) != len(want.Chunks[i].Tokens) {
			t.Errorf("chunk %d tokens = %v, want %v", i, got.Chunks[i].Tokens, want.Chunks[i].Tokens)
		}
	}
}

func TestSave_OverwritesPreviousState(t *testing.T) {
	db := testDB(t)
	if err := db.Save(sampleSnapshot()); err != nil {
		t.Fatalf("first Save: %v", err)
	}

	smaller := &models.Snapshot{
		TokenizerVersion: 2,
		Sources:          []models.Source{{ID: "s9", Name: "only", Kind: models.KindText, IndexedAt: time.Now().UTC()}},
	}
	if err := db.Save(smaller); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	got, err := db.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Sources) != 1 || got.Sources[0].ID != "s9" {
		t.Errorf("stale sources survived overwrite: %+v", got.Sources)
	}
	if len(got.Chunks) != 0 {
		t.Errorf("stale chunks survived overwrite: %+v", got.Chunks)
	}
	if got.TokenizerVersion != 2 {
		t.Errorf("version = %d, want 2", got.TokenizerVersion)
	}
}
