// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/corpus-engine/pkg/types"
)

func TestOpenCreatesDatabase(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	st, err := Open(types.StoreConfig{StateDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	if st.StateDir() != dir {
		t.Errorf("StateDir = %q, want %q", st.StateDir(), dir)
	}

	// The schema is usable immediately.
	_, err = st.DB().Exec(`INSERT INTO documents (id, path, total_lines) VALUES ('d', '/d.md', 10)`)
	if err != nil {
		t.Fatalf("schema not created: %v", err)
	}
}

func TestReopenPreservesState(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	st, err := Open(types.StoreConfig{StateDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	_, err = st.DB().Exec(`INSERT INTO documents (id, path, total_lines) VALUES ('d', '/d.md', 10)`)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Close(); err != nil {
		t.Fatal(err)
	}

	st, err = Open(types.StoreConfig{StateDir: dir})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()

	var n int
	if err := st.DB().QueryRowContext(ctx, `SELECT count(*) FROM documents`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("documents after reopen = %d, want 1", n)
	}
}

func TestSchemaVersionMismatch(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	st, err := Open(types.StoreConfig{StateDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if err := st.ManifestSet(ctx, "schema_version", "99"); err != nil {
		t.Fatal(err)
	}
	st.Close()

	_, err = Open(types.StoreConfig{StateDir: dir})
	if err == nil || !strings.Contains(err.Error(), "schema version") {
		t.Fatalf("got %v, want schema version error", err)
	}
}

func TestManifestRoundTrip(t *testing.T) {
	st, err := Open(types.StoreConfig{StateDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	ctx := context.Background()

	_, ok, err := st.ManifestGet(ctx, "missing")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("absent key reported present")
	}

	if err := st.ManifestSet(ctx, "k", "v1"); err != nil {
		t.Fatal(err)
	}
	if err := st.ManifestSet(ctx, "k", "v2"); err != nil {
		t.Fatal(err)
	}
	value, ok, err := st.ManifestGet(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || value != "v2" {
		t.Errorf("ManifestGet = (%q, %v), want (v2, true)", value, ok)
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	st, err := Open(types.StoreConfig{StateDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	_, err = st.DB().Exec(
		`INSERT INTO chunks (id, source_id, idx, start_line, end_line, status)
		 VALUES ('ghost#0', 'ghost', 0, 1, 10, 'pending')`)
	if err == nil {
		t.Error("chunk for unregistered document accepted")
	}
}
