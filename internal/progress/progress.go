// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package progress computes the pipeline's progress report. Every number is
// derived from the authoritative entity tables at query time; nothing here is
// stored, so the report can never drift from ground truth.
package progress

import (
	"context"
	"fmt"

	"github.com/pdiddy/corpus-engine/internal/store"
	"github.com/pdiddy/corpus-engine/pkg/types"
)

// DocumentProgress summarizes one document's chunk processing.
type DocumentProgress struct {
	DocumentID     string  `json:"document_id" yaml:"document_id"`
	TotalLines     int     `json:"total_lines" yaml:"total_lines"`
	ChunksTotal    int     `json:"chunks_total" yaml:"chunks_total"`
	ChunksComplete int     `json:"chunks_complete" yaml:"chunks_complete"`
	ChunksFailed   int     `json:"chunks_failed" yaml:"chunks_failed"`
	LinesCovered   int     `json:"lines_covered" yaml:"lines_covered"`
	PercentLines   float64 `json:"percent_lines" yaml:"percent_lines"`
}

// State is the derived pipeline-wide progress snapshot.
type State struct {
	Documents           []DocumentProgress        `json:"documents" yaml:"documents"`
	InsightsTotalByType map[types.InsightType]int `json:"insights_total_by_type" yaml:"insights_total_by_type"`
	CrossRefsTotal      int                       `json:"cross_refs_total" yaml:"cross_refs_total"`
	VerificationsTotal  int                       `json:"verifications_total" yaml:"verifications_total"`
}

// Snapshot recomputes the full progress state from the entity tables.
func Snapshot(ctx context.Context, st *store.Store) (State, error) {
	state := State{InsightsTotalByType: make(map[types.InsightType]int)}

	docs, err := documentProgress(ctx, st)
	if err != nil {
		return State{}, err
	}
	state.Documents = docs

	rows, err := st.DB().QueryContext(ctx,
		`SELECT type, count(*) FROM insights WHERE retired = 0 GROUP BY type`)
	if err != nil {
		return State{}, fmt.Errorf("counting insights: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			t string
			n int
		)
		if err := rows.Scan(&t, &n); err != nil {
			return State{}, fmt.Errorf("scanning insight count: %w", err)
		}
		state.InsightsTotalByType[types.InsightType(t)] = n
	}
	if err := rows.Err(); err != nil {
		return State{}, err
	}

	err = st.DB().QueryRowContext(ctx, `SELECT count(*) FROM cross_refs`).Scan(&state.CrossRefsTotal)
	if err != nil {
		return State{}, fmt.Errorf("counting cross refs: %w", err)
	}
	err = st.DB().QueryRowContext(ctx, `SELECT count(*) FROM verifications`).Scan(&state.VerificationsTotal)
	if err != nil {
		return State{}, fmt.Errorf("counting verifications: %w", err)
	}
	return state, nil
}

// Document recomputes one document's progress.
func Document(ctx context.Context, st *store.Store, documentID string) (DocumentProgress, error) {
	docs, err := documentProgress(ctx, st)
	if err != nil {
		return DocumentProgress{}, err
	}
	for _, d := range docs {
		if d.DocumentID == documentID {
			return d, nil
		}
	}
	return DocumentProgress{}, &types.NotFoundError{Kind: "document", ID: documentID}
}

func documentProgress(ctx context.Context, st *store.Store) ([]DocumentProgress, error) {
	// LinesCovered counts distinct covered lines: chunk spans minus the
	// overlap shared with the previous completed chunk.
	rows, err := st.DB().QueryContext(ctx,
		`SELECT d.id, d.total_lines, c.start_line, c.end_line, c.status
		 FROM documents d
		 LEFT JOIN chunks c ON c.source_id = d.id
		 ORDER BY d.id, c.idx`)
	if err != nil {
		return nil, fmt.Errorf("reading documents and chunks: %w", err)
	}
	defer rows.Close()

	var (
		docs    []DocumentProgress
		current *DocumentProgress
		prevEnd int
	)
	for rows.Next() {
		var (
			id         string
			totalLines int
			start, end *int
			status     *string
		)
		if err := rows.Scan(&id, &totalLines, &start, &end, &status); err != nil {
			return nil, fmt.Errorf("scanning progress row: %w", err)
		}
		if current == nil || current.DocumentID != id {
			docs = append(docs, DocumentProgress{DocumentID: id, TotalLines: totalLines})
			current = &docs[len(docs)-1]
			prevEnd = 0
		}
		if status == nil {
			continue // document without chunks
		}
		current.ChunksTotal++
		switch types.ChunkStatus(*status) {
		case types.ChunkComplete:
			current.ChunksComplete++
			from := *start
			if from <= prevEnd {
				from = prevEnd + 1
			}
			if *end >= from {
				current.LinesCovered += *end - from + 1
				prevEnd = *end
			}
		case types.ChunkFailed:
			current.ChunksFailed++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range docs {
		if docs[i].TotalLines > 0 {
			docs[i].PercentLines = 100 * float64(docs[i].LinesCovered) / float64(docs[i].TotalLines)
		}
	}
	return docs, nil
}
