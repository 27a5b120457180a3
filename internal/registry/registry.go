// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry catalogs the corpus's source documents: path, measured line
// count, and the windowing parameters recorded once planning begins.
package registry

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/corpus-engine/internal/store"
	"github.com/pdiddy/corpus-engine/pkg/types"
)

// Registry manages SourceDocument records.
type Registry struct {
	st *store.Store
}

// New creates a Registry backed by the given store.
func New(st *store.Store) *Registry {
	return &Registry{st: st}
}

// DocumentID derives a document's identifier from its path: the base name
// without extension, lowercased, spaces replaced by hyphens.
func DocumentID(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ToLower(base)
	return strings.ReplaceAll(base, " ", "-")
}

// Register catalogs a document, measuring its line count. Re-registering an
// unchanged document is a no-op returning the existing record. A changed line
// count is accepted only while the document has no chunks; once chunking has
// begun it is a ConfigDriftError (chunk boundaries derive from the count).
func (r *Registry) Register(ctx context.Context, path string) (types.SourceDocument, error) {
	lines, err := countLines(path)
	if err != nil {
		return types.SourceDocument{}, fmt.Errorf("counting lines in %s: %w", path, err)
	}

	doc := types.SourceDocument{
		ID:         DocumentID(path),
		Path:       path,
		TotalLines: lines,
	}

	existing, err := r.Get(ctx, doc.ID)
	if err == nil {
		if existing.TotalLines == lines {
			return existing, nil
		}
		planned, cerr := r.hasChunks(ctx, doc.ID)
		if cerr != nil {
			return types.SourceDocument{}, cerr
		}
		if planned {
			return types.SourceDocument{}, &types.ConfigDriftError{
				DocumentID: doc.ID,
				Field:      "total_lines",
				Existing:   existing.TotalLines,
				Requested:  lines,
			}
		}
		_, err = r.st.DB().ExecContext(ctx,
			`UPDATE documents SET path = ?, total_lines = ? WHERE id = ?`,
			path, lines, doc.ID,
		)
		if err != nil {
			return types.SourceDocument{}, fmt.Errorf("updating document %s: %w", doc.ID, err)
		}
		return doc, nil
	}
	if _, ok := err.(*types.NotFoundError); !ok {
		return types.SourceDocument{}, err
	}

	_, err = r.st.DB().ExecContext(ctx,
		`INSERT INTO documents (id, path, total_lines) VALUES (?, ?, ?)`,
		doc.ID, path, lines,
	)
	if err != nil {
		return types.SourceDocument{}, fmt.Errorf("inserting document %s: %w", doc.ID, err)
	}
	return doc, nil
}

// Get returns the document with the given ID, or a NotFoundError.
func (r *Registry) Get(ctx context.Context, id string) (types.SourceDocument, error) {
	var doc types.SourceDocument
	err := r.st.DB().QueryRowContext(ctx,
		`SELECT id, path, total_lines FROM documents WHERE id = ?`, id,
	).Scan(&doc.ID, &doc.Path, &doc.TotalLines)
	if err == sql.ErrNoRows {
		return types.SourceDocument{}, &types.NotFoundError{Kind: "document", ID: id}
	}
	if err != nil {
		return types.SourceDocument{}, fmt.Errorf("reading document %s: %w", id, err)
	}
	return doc, nil
}

// List returns all registered documents ordered by ID.
func (r *Registry) List(ctx context.Context) ([]types.SourceDocument, error) {
	rows, err := r.st.DB().QueryContext(ctx,
		`SELECT id, path, total_lines FROM documents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []types.SourceDocument
	for rows.Next() {
		var doc types.SourceDocument
		if err := rows.Scan(&doc.ID, &doc.Path, &doc.TotalLines); err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// ReadLines returns lines start..end (inclusive, 1-based) of the document's
// file, used to hand chunk text to the Extractor and to trace provenance.
func (r *Registry) ReadLines(ctx context.Context, id string, start, end int) ([]string, error) {
	doc, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(doc.Path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", doc.Path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		if n < start {
			continue
		}
		if n > end {
			break
		}
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", doc.Path, err)
	}
	return lines, nil
}

func (r *Registry) hasChunks(ctx context.Context, id string) (bool, error) {
	var n int
	err := r.st.DB().QueryRowContext(ctx,
		`SELECT count(*) FROM chunks WHERE source_id = ?`, id,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("counting chunks for %s: %w", id, err)
	}
	return n > 0, nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		n++
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return n, nil
}
