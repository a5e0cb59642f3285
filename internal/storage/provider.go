// Package storage defines the ingest file-system abstraction.
package storage

// FileMeta is a lightweight record for a file found under the ingest root.
type FileMeta struct {
	Path     string // relative to the ingest root
	Checksum string // SHA-256 of the content
}

// Provider is the interface for ingest file operations.
type Provider interface {
	// Read returns the raw bytes of the file at path (relative to the root).
	Read(path string) ([]byte, error)
	// List walks dir (relative to the root) recursively and returns metadata
	// for every file whose extension is in exts. Unreadable entries are
	// skipped silently.
	List(dir string, exts []string) ([]FileMeta, error)
	// Root returns the absolute ingest root directory.
	Root() string
}
