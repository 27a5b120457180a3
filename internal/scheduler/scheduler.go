// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scheduler plans deterministic overlapping line windows over a
// document and tracks each chunk through the Pending -> InProgress ->
// {Complete | Failed} state machine. Processing order is strictly sequential
// per document: later chunks depend on the overlap context established by
// earlier ones.
package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/pdiddy/corpus-engine/internal/store"
	"github.com/pdiddy/corpus-engine/pkg/types"
)

// QuotaChecker reports a chunk's verification progress. Complete consults it
// before allowing the terminal transition; the verification gate implements it.
type QuotaChecker interface {
	Quota(ctx context.Context, chunkID string) (have, need int, err error)
}

// Scheduler manages chunk planning and status transitions.
type Scheduler struct {
	st *store.Store
}

// New creates a Scheduler backed by the given store.
func New(st *store.Store) *Scheduler {
	return &Scheduler{st: st}
}

// ChunkID formats a chunk identifier from its document and index.
func ChunkID(documentID string, index int) string {
	return documentID + "#" + strconv.Itoa(index)
}

// ParseChunkID splits a chunk identifier into document ID and index.
func ParseChunkID(id string) (documentID string, index int, err error) {
	pos := strings.LastIndex(id, "#")
	if pos < 1 {
		return "", 0, fmt.Errorf("malformed chunk id %q", id)
	}
	index, err = strconv.Atoi(id[pos+1:])
	if err != nil {
		return "", 0, fmt.Errorf("malformed chunk id %q: %w", id, err)
	}
	return id[:pos], index, nil
}

// PlanWindows computes the chunk specs for a document of totalLines lines:
// chunk n starts at start_n = 1 + n*(chunkSize-overlap) and ends at
// min(start_n + chunkSize - 1, totalLines), inclusive. The union of the
// ranges is exactly [1, totalLines]; with overlap at most half the chunk
// size, a line appears in at most two chunks.
func PlanWindows(totalLines int, w types.WindowConfig) ([]types.Chunk, error) {
	if w.ChunkSize <= 0 || w.OverlapSize < 0 || w.OverlapSize >= w.ChunkSize {
		return nil, &types.InvalidWindowError{ChunkSize: w.ChunkSize, Overlap: w.OverlapSize}
	}
	if totalLines <= 0 {
		return nil, fmt.Errorf("document has no lines to plan")
	}

	var chunks []types.Chunk
	step := w.ChunkSize - w.OverlapSize
	for start, idx := 1, 0; ; start, idx = start+step, idx+1 {
		end := start + w.ChunkSize - 1
		if end > totalLines {
			end = totalLines
		}
		chunks = append(chunks, types.Chunk{
			Index:     idx,
			StartLine: start,
			EndLine:   end,
			Status:    types.ChunkPending,
		})
		if end == totalLines {
			break
		}
	}
	return chunks, nil
}

// Plan creates the chunk records for a document. Planning is idempotent for
// identical window parameters; re-planning a document whose chunks were
// derived from a different (chunk_size, overlap) pair is a ConfigDriftError
// and creates nothing.
func (s *Scheduler) Plan(ctx context.Context, documentID string, w types.WindowConfig) ([]types.Chunk, error) {
	var (
		totalLines         int
		chunkSize, overlap sql.NullInt64
	)
	err := s.st.DB().QueryRowContext(ctx,
		`SELECT total_lines, chunk_size, overlap_size FROM documents WHERE id = ?`, documentID,
	).Scan(&totalLines, &chunkSize, &overlap)
	if err == sql.ErrNoRows {
		return nil, &types.NotFoundError{Kind: "document", ID: documentID}
	}
	if err != nil {
		return nil, fmt.Errorf("reading document %s: %w", documentID, err)
	}

	if chunkSize.Valid {
		if int(chunkSize.Int64) != w.ChunkSize {
			return nil, &types.ConfigDriftError{
				DocumentID: documentID, Field: "chunk_size",
				Existing: int(chunkSize.Int64), Requested: w.ChunkSize,
			}
		}
		if int(overlap.Int64) != w.OverlapSize {
			return nil, &types.ConfigDriftError{
				DocumentID: documentID, Field: "overlap_size",
				Existing: int(overlap.Int64), Requested: w.OverlapSize,
			}
		}
		return s.Chunks(ctx, documentID)
	}

	chunks, err := PlanWindows(totalLines, w)
	if err != nil {
		return nil, err
	}

	tx, err := s.st.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (id, source_id, idx, start_line, end_line, status)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer stmt.Close()

	for i := range chunks {
		chunks[i].ID = ChunkID(documentID, chunks[i].Index)
		chunks[i].SourceID = documentID
		_, err := stmt.ExecContext(ctx,
			chunks[i].ID, documentID, chunks[i].Index,
			chunks[i].StartLine, chunks[i].EndLine, string(types.ChunkPending),
		)
		if err != nil {
			return nil, fmt.Errorf("inserting chunk %s: %w", chunks[i].ID, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE documents SET chunk_size = ?, overlap_size = ? WHERE id = ?`,
		w.ChunkSize, w.OverlapSize, documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("recording window parameters: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing plan: %w", err)
	}
	return chunks, nil
}

// NextPending returns the lowest-index pending chunk of a document, or nil if
// none remain.
func (s *Scheduler) NextPending(ctx context.Context, documentID string) (*types.Chunk, error) {
	row := s.st.DB().QueryRowContext(ctx,
		`SELECT id, source_id, idx, start_line, end_line, status, fail_reason
		 FROM chunks WHERE source_id = ? AND status = ?
		 ORDER BY idx LIMIT 1`,
		documentID, string(types.ChunkPending),
	)
	c, err := scanChunk(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding next pending chunk of %s: %w", documentID, err)
	}
	return &c, nil
}

// Get returns the chunk with the given ID, or a NotFoundError.
func (s *Scheduler) Get(ctx context.Context, chunkID string) (types.Chunk, error) {
	row := s.st.DB().QueryRowContext(ctx,
		`SELECT id, source_id, idx, start_line, end_line, status, fail_reason
		 FROM chunks WHERE id = ?`, chunkID,
	)
	c, err := scanChunk(row)
	if err == sql.ErrNoRows {
		return types.Chunk{}, &types.NotFoundError{Kind: "chunk", ID: chunkID}
	}
	if err != nil {
		return types.Chunk{}, fmt.Errorf("reading chunk %s: %w", chunkID, err)
	}
	return c, nil
}

// Chunks returns all chunks of a document in plan order.
func (s *Scheduler) Chunks(ctx context.Context, documentID string) ([]types.Chunk, error) {
	rows, err := s.st.DB().QueryContext(ctx,
		`SELECT id, source_id, idx, start_line, end_line, status, fail_reason
		 FROM chunks WHERE source_id = ? ORDER BY idx`, documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing chunks of %s: %w", documentID, err)
	}
	defer rows.Close()

	var chunks []types.Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning chunk row: %w", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// Begin transitions a chunk Pending -> InProgress. A failed chunk may also be
// re-dispatched. The guard covers the whole document: at most one chunk per
// document is in progress at a time, so two concurrent Begin calls on the
// same chunk, or on two chunks of one document, yield exactly one success and
// one DoubleDispatchError.
func (s *Scheduler) Begin(ctx context.Context, chunkID string) error {
	res, err := s.st.DB().ExecContext(ctx,
		`UPDATE chunks SET status = ?, fail_reason = ''
		 WHERE id = ? AND status IN (?, ?)
		   AND NOT EXISTS (
		     SELECT 1 FROM chunks other
		     WHERE other.source_id = chunks.source_id AND other.status = ?
		   )`,
		string(types.ChunkInProgress), chunkID,
		string(types.ChunkPending), string(types.ChunkFailed),
		string(types.ChunkInProgress),
	)
	if err != nil {
		return fmt.Errorf("dispatching chunk %s: %w", chunkID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("dispatching chunk %s: %w", chunkID, err)
	}
	if n == 1 {
		return nil
	}

	c, err := s.Get(ctx, chunkID)
	if err != nil {
		return err
	}
	if c.Status == types.ChunkPending || c.Status == types.ChunkFailed {
		// The chunk itself was dispatchable, so a sibling holds the document.
		var holder string
		err := s.st.DB().QueryRowContext(ctx,
			`SELECT id FROM chunks WHERE source_id = ? AND status = ? LIMIT 1`,
			c.SourceID, string(types.ChunkInProgress),
		).Scan(&holder)
		if err == nil {
			return &types.DoubleDispatchError{ChunkID: chunkID, Status: c.Status, HeldBy: holder}
		}
	}
	return &types.DoubleDispatchError{ChunkID: chunkID, Status: c.Status}
}

// Complete transitions a chunk InProgress -> Complete, but only once the
// verification gate reports the chunk's quota met. Complete never regresses:
// a chunk that is not in progress is rejected.
func (s *Scheduler) Complete(ctx context.Context, chunkID string, gate QuotaChecker) error {
	have, need, err := gate.Quota(ctx, chunkID)
	if err != nil {
		return err
	}
	if have < need {
		return &types.QuotaNotMetError{ChunkID: chunkID, Have: have, Need: need}
	}

	res, err := s.st.DB().ExecContext(ctx,
		`UPDATE chunks SET status = ? WHERE id = ? AND status = ?`,
		string(types.ChunkComplete), chunkID, string(types.ChunkInProgress),
	)
	if err != nil {
		return fmt.Errorf("completing chunk %s: %w", chunkID, err)
	}
	return s.checkTransition(ctx, res, chunkID)
}

// Fail transitions a chunk InProgress -> Failed with a reason. Failed is not
// terminal for retry purposes: Begin accepts a failed chunk.
func (s *Scheduler) Fail(ctx context.Context, chunkID, reason string) error {
	res, err := s.st.DB().ExecContext(ctx,
		`UPDATE chunks SET status = ?, fail_reason = ? WHERE id = ? AND status = ?`,
		string(types.ChunkFailed), reason, chunkID, string(types.ChunkInProgress),
	)
	if err != nil {
		return fmt.Errorf("failing chunk %s: %w", chunkID, err)
	}
	return s.checkTransition(ctx, res, chunkID)
}

// checkTransition inspects the result of a guarded status UPDATE and reports
// why it matched no row: missing chunk or an illegal state transition.
func (s *Scheduler) checkTransition(ctx context.Context, res sql.Result, chunkID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking transition of %s: %w", chunkID, err)
	}
	if n == 1 {
		return nil
	}
	c, err := s.Get(ctx, chunkID)
	if err != nil {
		return err
	}
	return &types.DoubleDispatchError{ChunkID: chunkID, Status: c.Status}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChunk(row rowScanner) (types.Chunk, error) {
	var (
		c      types.Chunk
		status string
	)
	err := row.Scan(&c.ID, &c.SourceID, &c.Index, &c.StartLine, &c.EndLine, &status, &c.FailReason)
	if err != nil {
		return types.Chunk{}, err
	}
	c.Status = types.ChunkStatus(status)
	return c, nil
}
