// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package verify records claim -> question -> answer -> verdict tuples per
// chunk and enforces the completion quota: a chunk may not complete until it
// carries a minimum count of confirmed or refuted records. Inconclusive never
// counts, so a chunk with only inconclusive answers stays open for revisiting.
package verify

import (
	"context"
	"fmt"

	"github.com/pdiddy/corpus-engine/internal/store"
	"github.com/pdiddy/corpus-engine/pkg/types"
)

// DefaultMinQuota is the confirmed/refuted record count a chunk needs before
// completion when no override is configured.
const DefaultMinQuota = 5

// Gate manages verification records.
type Gate struct {
	st       *store.Store
	minQuota int
}

// New creates a Gate backed by the given store. A non-positive MinQuota falls
// back to DefaultMinQuota.
func New(st *store.Store, cfg types.VerificationConfig) *Gate {
	minQuota := cfg.MinQuota
	if minQuota <= 0 {
		minQuota = DefaultMinQuota
	}
	return &Gate{st: st, minQuota: minQuota}
}

// Record appends a verification record for a chunk. Records are immutable once
// written; a correction is a new record pointing at the old one via
// EvidenceRef.
func (g *Gate) Record(ctx context.Context, rec types.VerificationRecord) (types.VerificationRecord, error) {
	if !types.ValidVerdict(rec.Verdict) {
		return types.VerificationRecord{}, fmt.Errorf("invalid verdict %q", rec.Verdict)
	}
	if rec.Question == "" {
		return types.VerificationRecord{}, fmt.Errorf("verification record needs a question")
	}

	res, err := g.st.DB().ExecContext(ctx,
		`INSERT INTO verifications (chunk_id, claim_ref, question, answer, evidence_ref, verdict)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ChunkID, rec.ClaimRef, rec.Question, rec.Answer, rec.EvidenceRef, string(rec.Verdict),
	)
	if err != nil {
		return types.VerificationRecord{}, fmt.Errorf("recording verification for %s: %w", rec.ChunkID, err)
	}
	rec.ID, err = res.LastInsertId()
	if err != nil {
		return types.VerificationRecord{}, fmt.Errorf("reading record id: %w", err)
	}
	return rec, nil
}

// Quota reports a chunk's countable record total and the configured minimum.
// It satisfies the scheduler's QuotaChecker.
func (g *Gate) Quota(ctx context.Context, chunkID string) (have, need int, err error) {
	err = g.st.DB().QueryRowContext(ctx,
		`SELECT count(*) FROM verifications WHERE chunk_id = ? AND verdict IN (?, ?)`,
		chunkID, string(types.VerdictConfirmed), string(types.VerdictRefuted),
	).Scan(&have)
	if err != nil {
		return 0, 0, fmt.Errorf("counting verifications of %s: %w", chunkID, err)
	}
	return have, g.minQuota, nil
}

// QuotaMet reports whether the chunk's countable records reach the minimum.
func (g *Gate) QuotaMet(ctx context.Context, chunkID string) (bool, error) {
	have, need, err := g.Quota(ctx, chunkID)
	if err != nil {
		return false, err
	}
	return have >= need, nil
}

// Records returns all verification records of a chunk in insertion order.
func (g *Gate) Records(ctx context.Context, chunkID string) ([]types.VerificationRecord, error) {
	rows, err := g.st.DB().QueryContext(ctx,
		`SELECT id, chunk_id, claim_ref, question, answer, evidence_ref, verdict
		 FROM verifications WHERE chunk_id = ? ORDER BY id`, chunkID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing verifications of %s: %w", chunkID, err)
	}
	defer rows.Close()

	var records []types.VerificationRecord
	for rows.Next() {
		var (
			rec     types.VerificationRecord
			verdict string
		)
		err := rows.Scan(&rec.ID, &rec.ChunkID, &rec.ClaimRef, &rec.Question,
			&rec.Answer, &rec.EvidenceRef, &verdict)
		if err != nil {
			return nil, fmt.Errorf("scanning verification record: %w", err)
		}
		rec.Verdict = types.Verdict(verdict)
		records = append(records, rec)
	}
	return records, rows.Err()
}
