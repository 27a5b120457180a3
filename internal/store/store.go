// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store opens and owns the pipeline's SQLite database: schema creation,
// the manifest, and the durability guarantees every other component relies on.
// All state transitions commit here before being reported to the caller, so a
// restart resumes from the last durably-recorded state.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/corpus-engine/pkg/types"
)

const (
	dbFile = "corpus.db"

	// SchemaVersion is recorded in the manifest at creation. Opening a store
	// written by a different schema version is an error.
	SchemaVersion = "1"
)

// Store wraps the pipeline database. Components receive a *Store and run their
// own queries against DB().
type Store struct {
	db       *sql.DB
	stateDir string
}

// Open opens or creates the pipeline database at stateDir/corpus.db with WAL
// journaling and foreign keys on, creating the schema if needed.
func Open(cfg types.StoreConfig) (*Store, error) {
	stateDir := cfg.StateDir
	if stateDir == "" {
		stateDir = "state"
	}
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	dbPath := filepath.Join(stateDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, stateDir: stateDir}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	if err := s.checkSchemaVersion(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying database to component packages.
func (s *Store) DB() *sql.DB {
	return s.db
}

// StateDir returns the directory holding the database.
func (s *Store) StateDir() string {
	return s.stateDir
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS manifest (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			path TEXT NOT NULL,
			total_lines INTEGER NOT NULL,
			chunk_size INTEGER,
			overlap_size INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS chunks (
			id TEXT PRIMARY KEY,
			source_id TEXT NOT NULL REFERENCES documents(id),
			idx INTEGER NOT NULL,
			start_line INTEGER NOT NULL,
			end_line INTEGER NOT NULL,
			status TEXT NOT NULL,
			fail_reason TEXT NOT NULL DEFAULT '',
			UNIQUE(source_id, idx)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_source_status ON chunks(source_id, status)`,
		`CREATE TABLE IF NOT EXISTS insights (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			dedup_key TEXT NOT NULL,
			fields TEXT NOT NULL,
			retired INTEGER NOT NULL DEFAULT 0,
			UNIQUE(type, dedup_key)
		)`,
		`CREATE TABLE IF NOT EXISTS insight_counters (
			type TEXT PRIMARY KEY,
			next INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS source_refs (
			insight_id TEXT NOT NULL REFERENCES insights(id),
			source_id TEXT NOT NULL,
			start_line INTEGER NOT NULL,
			end_line INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_source_refs_insight ON source_refs(insight_id)`,
		`CREATE TABLE IF NOT EXISTS cross_refs (
			from_id TEXT NOT NULL REFERENCES insights(id),
			to_id TEXT NOT NULL REFERENCES insights(id),
			relation TEXT NOT NULL,
			PRIMARY KEY (from_id, to_id, relation)
		)`,
		`CREATE TABLE IF NOT EXISTS verifications (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			chunk_id TEXT NOT NULL REFERENCES chunks(id),
			claim_ref TEXT NOT NULL DEFAULT '',
			question TEXT NOT NULL,
			answer TEXT NOT NULL DEFAULT '',
			evidence_ref TEXT NOT NULL DEFAULT '',
			verdict TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_verifications_chunk ON verifications(chunk_id, verdict)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

func (s *Store) checkSchemaVersion() error {
	ctx := context.Background()
	stored, ok, err := s.ManifestGet(ctx, "schema_version")
	if err != nil {
		return err
	}
	if !ok {
		return s.ManifestSet(ctx, "schema_version", SchemaVersion)
	}
	if stored != SchemaVersion {
		return fmt.Errorf("store schema version %s, this build expects %s", stored, SchemaVersion)
	}
	return nil
}

// ManifestGet reads a manifest key. The second return is false if the key is absent.
func (s *Store) ManifestGet(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM manifest WHERE key = ?`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading manifest key %s: %w", key, err)
	}
	return value, true, nil
}

// ManifestSet writes a manifest key, replacing any existing value.
func (s *Store) ManifestSet(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO manifest (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("writing manifest key %s: %w", key, err)
	}
	return nil
}
