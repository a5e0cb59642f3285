// Package snapshot provides SQLite-backed persistence of full corpus
// snapshots: every save overwrites the previous state, every load returns
// the last saved state.
package snapshot

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/ansuz/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS sources (
	position     INTEGER PRIMARY KEY,
	id           TEXT NOT NULL UNIQUE,
	name         TEXT NOT NULL DEFAULT '',
	kind         TEXT NOT NULL DEFAULT 'text',
	origin       TEXT NOT NULL DEFAULT '',
	chunk_count  INTEGER NOT NULL DEFAULT 0,
	total_length INTEGER NOT NULL DEFAULT 0,
	indexed_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS chunks (
	position    INTEGER PRIMARY KEY,
	id          TEXT NOT NULL UNIQUE,
	source_id   TEXT NOT NULL,
	source_name TEXT NOT NULL DEFAULT '',
	content     TEXT NOT NULL DEFAULT '',
	idx         INTEGER NOT NULL DEFAULT 0,
	tokens      TEXT NOT NULL DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source_id);
`

const versionKey = "tokenizer_version"

// DB wraps a sql.DB with snapshot operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("snapshot: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("snapshot: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("snapshot: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Save replaces the persisted state with snap inside one transaction.
// Positions preserve insertion order, which the scorer's tie-break
// depends on.
func (db *DB) Save(snap *models.Snapshot) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("snapshot: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM sources`); err != nil {
		return fmt.Errorf("snapshot: clear sources: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM chunks`); err != nil {
		return fmt.Errorf("snapshot: clear chunks: %w", err)
	}

	srcStmt, err := tx.Prepare(`
		INSERT INTO sources (position, id, name, kind, origin, chunk_count, total_length, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("snapshot: prepare source insert: %w", err)
	}
	defer srcStmt.Close()
	for i, s := range snap.Sources {
		if _, err := srcStmt.Exec(i, s.ID, s.Name, s.Kind, s.Origin, s.ChunkCount, s.TotalLength, s.IndexedAt); err != nil {
			return fmt.Errorf("snapshot: insert source: %w", err)
		}
	}

	chStmt, err := tx.Prepare(`
		INSERT INTO chunks (position, id, source_id, source_name, content, idx, tokens)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("snapshot: prepare chunk insert: %w", err)
	}
	defer chStmt.Close()
	for i, ch := range snap.Chunks {
		tokensJSON, _ := json.Marshal(ch.Tokens)
		if _, err := chStmt.Exec(i, ch.ID, ch.SourceID, ch.SourceName, ch.Content, ch.Index, string(tokensJSON)); err != nil {
			return fmt.Errorf("snapshot: insert chunk: %w", err)
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, versionKey, fmt.Sprintf("%d", snap.TokenizerVersion)); err != nil {
		return fmt.Errorf("snapshot: store version: %w", err)
	}

	return tx.Commit()
}

// Load returns the last persisted snapshot, or an empty one if nothing has
// been saved yet.
func (db *DB) Load() (*models.Snapshot, error) {
	snap := &models.Snapshot{}

	var version sql.NullString
	err := db.conn.QueryRow(`SELECT value FROM meta WHERE key = ?`, versionKey).Scan(&version)
	if err == nil && version.Valid {
		fmt.Sscanf(version.String, "%d", &snap.TokenizerVersion) //nolint:errcheck
	}

	rows, err := db.conn.Query(`
		SELECT id, name, kind, origin, chunk_count, total_length, indexed_at
		FROM sources ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("snapshot: load sources: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s models.Source
		if err := rows.Scan(&s.ID, &s.Name, &s.Kind, &s.Origin, &s.ChunkCount, &s.TotalLength, &s.IndexedAt); err != nil {
			return nil, fmt.Errorf("snapshot: scan source: %w", err)
		}
		snap.Sources = append(snap.Sources, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	chRows, err := db.conn.Query(`
		SELECT id, source_id, source_name, content, idx, tokens
		FROM chunks ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("snapshot: load chunks: %w", err)
	}
	defer chRows.Close()
	for chRows.Next() {
		var ch models.Chunk
		var tokensJSON string
		if err := chRows.Scan(&ch.ID, &ch.SourceID, &ch.SourceName, &ch.Content, &ch.Index, &tokensJSON); err != nil {
			return nil, fmt.Errorf("snapshot: scan chunk: %w", err)
		}
		if err := json.Unmarshal([]byte(tokensJSON), &ch.Tokens); err != nil {
			return nil, fmt.Errorf("snapshot: decode tokens: %w", err)
		}
		snap.Chunks = append(snap.Chunks, ch)
	}
	return snap, chRows.Err()
}
