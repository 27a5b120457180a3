// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger is the typed, deduplicated, provenance-preserving store of
// extracted insights. The same real-world insight, re-derived from
// overlap-duplicated text or a later synthesis pass, collapses to one ID: a
// duplicate submission appends its source reference to the existing record
// instead of creating a new one.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pdiddy/corpus-engine/internal/store"
	"github.com/pdiddy/corpus-engine/pkg/types"
)

// Ledger manages Insight records and their sequential per-type IDs.
type Ledger struct {
	st       *store.Store
	identity map[types.InsightType][]string
}

// New creates a Ledger backed by the given store. Identity-field overrides
// from cfg replace the per-type defaults.
func New(st *store.Store, cfg types.LedgerConfig) *Ledger {
	identity := make(map[types.InsightType][]string, len(defaultIdentityFields))
	for t, fields := range defaultIdentityFields {
		identity[t] = fields
	}
	for t, fields := range cfg.IdentityFields {
		if len(fields) > 0 {
			identity[t] = fields
		}
	}
	return &Ledger{st: st, identity: identity}
}

// Submit records a candidate insight. If a record with the same
// (type, dedup key) exists, the source reference is appended to it and the
// existing record is returned with merged == true. Otherwise the next
// sequential ID for the type is allocated and a new record created. The
// check-then-insert sequence runs inside one transaction, so parallel
// submissions cannot race a duplicate ID into existence.
func (l *Ledger) Submit(ctx context.Context, t types.InsightType, fields map[string]string, ref types.SourceRef) (types.Insight, bool, error) {
	if !types.ValidInsightType(t) {
		return types.Insight{}, false, fmt.Errorf("invalid insight type %q", t)
	}
	key := dedupKey(l.identity[t], fields)

	tx, err := l.st.DB().BeginTx(ctx, nil)
	if err != nil {
		return types.Insight{}, false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var id string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM insights WHERE type = ? AND dedup_key = ?`,
		string(t), key,
	).Scan(&id)

	merged := err == nil
	switch {
	case merged:
		// Existing record: provenance grows, nothing else changes.
	case err == sql.ErrNoRows:
		id, err = l.allocateID(ctx, tx, t)
		if err != nil {
			return types.Insight{}, false, err
		}
		fieldsJSON, err := json.Marshal(fields)
		if err != nil {
			return types.Insight{}, false, fmt.Errorf("marshaling fields: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO insights (id, type, dedup_key, fields) VALUES (?, ?, ?, ?)`,
			id, string(t), key, string(fieldsJSON),
		)
		if err != nil {
			return types.Insight{}, false, fmt.Errorf("inserting insight %s: %w", id, err)
		}
	default:
		return types.Insight{}, false, fmt.Errorf("checking dedup key: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO source_refs (insight_id, source_id, start_line, end_line) VALUES (?, ?, ?, ?)`,
		id, ref.SourceID, ref.StartLine, ref.EndLine,
	)
	if err != nil {
		return types.Insight{}, false, fmt.Errorf("appending source ref to %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return types.Insight{}, false, fmt.Errorf("committing submission: %w", err)
	}

	ins, err := l.Get(ctx, id)
	return ins, merged, err
}

// allocateID reserves the next sequential ID for a type within tx.
func (l *Ledger) allocateID(ctx context.Context, tx *sql.Tx, t types.InsightType) (string, error) {
	var next int
	err := tx.QueryRowContext(ctx,
		`SELECT next FROM insight_counters WHERE type = ?`, string(t),
	).Scan(&next)
	switch {
	case err == sql.ErrNoRows:
		next = 1
		_, err = tx.ExecContext(ctx,
			`INSERT INTO insight_counters (type, next) VALUES (?, 2)`, string(t))
	case err == nil:
		_, err = tx.ExecContext(ctx,
			`UPDATE insight_counters SET next = next + 1 WHERE type = ?`, string(t))
	}
	if err != nil {
		return "", fmt.Errorf("allocating %s id: %w", t, err)
	}
	return fmt.Sprintf("%s-%03d", t.IDPrefix(), next), nil
}

// Get returns the insight with the given ID, including its source references
// in submission order.
func (l *Ledger) Get(ctx context.Context, id string) (types.Insight, error) {
	var (
		ins        types.Insight
		typeStr    string
		fieldsJSON string
	)
	err := l.st.DB().QueryRowContext(ctx,
		`SELECT id, type, dedup_key, fields, retired FROM insights WHERE id = ?`, id,
	).Scan(&ins.ID, &typeStr, &ins.DedupKey, &fieldsJSON, &ins.Retired)
	if err == sql.ErrNoRows {
		return types.Insight{}, &types.NotFoundError{Kind: "insight", ID: id}
	}
	if err != nil {
		return types.Insight{}, fmt.Errorf("reading insight %s: %w", id, err)
	}
	ins.Type = types.InsightType(typeStr)
	if err := json.Unmarshal([]byte(fieldsJSON), &ins.Fields); err != nil {
		return types.Insight{}, fmt.Errorf("parsing fields of %s: %w", id, err)
	}

	rows, err := l.st.DB().QueryContext(ctx,
		`SELECT source_id, start_line, end_line FROM source_refs
		 WHERE insight_id = ? ORDER BY rowid`, id,
	)
	if err != nil {
		return types.Insight{}, fmt.Errorf("reading source refs of %s: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var ref types.SourceRef
		if err := rows.Scan(&ref.SourceID, &ref.StartLine, &ref.EndLine); err != nil {
			return types.Insight{}, fmt.Errorf("scanning source ref: %w", err)
		}
		ins.SourceRefs = append(ins.SourceRefs, ref)
	}
	return ins, rows.Err()
}

// FindByDedupKey returns the insight with the given (type, dedup key), or a
// NotFoundError.
func (l *Ledger) FindByDedupKey(ctx context.Context, t types.InsightType, key string) (types.Insight, error) {
	var id string
	err := l.st.DB().QueryRowContext(ctx,
		`SELECT id FROM insights WHERE type = ? AND dedup_key = ?`, string(t), key,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return types.Insight{}, &types.NotFoundError{Kind: "insight", ID: string(t) + "/" + key}
	}
	if err != nil {
		return types.Insight{}, fmt.Errorf("looking up dedup key: %w", err)
	}
	return l.Get(ctx, id)
}

// Key computes the dedup key Submit would use for the given type and fields,
// without touching the store.
func (l *Ledger) Key(t types.InsightType, fields map[string]string) string {
	return dedupKey(l.identity[t], fields)
}

// ListOptions filters List results.
type ListOptions struct {
	// Type restricts results to one insight type. Empty matches all.
	Type types.InsightType

	// IncludeRetired includes superseded insights. Default excludes them.
	IncludeRetired bool
}

// List returns insights in ID order, optionally filtered.
func (l *Ledger) List(ctx context.Context, opts ListOptions) ([]types.Insight, error) {
	query := `SELECT id FROM insights WHERE 1=1`
	var args []any
	if opts.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(opts.Type))
	}
	if !opts.IncludeRetired {
		query += ` AND retired = 0`
	}
	query += ` ORDER BY type, id`

	rows, err := l.st.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing insights: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning insight id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	insights := make([]types.Insight, 0, len(ids))
	for _, id := range ids {
		ins, err := l.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		insights = append(insights, ins)
	}
	return insights, nil
}

// Retire marks an insight as logically superseded. The record is preserved
// for traceability. The graph calls this when a supersedes edge is inserted.
func (l *Ledger) Retire(ctx context.Context, id string) error {
	res, err := l.st.DB().ExecContext(ctx,
		`UPDATE insights SET retired = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("retiring insight %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("retiring insight %s: %w", id, err)
	}
	if n == 0 {
		return &types.NotFoundError{Kind: "insight", ID: id}
	}
	return nil
}

// CountByType returns the number of non-retired insights per type.
func (l *Ledger) CountByType(ctx context.Context) (map[types.InsightType]int, error) {
	rows, err := l.st.DB().QueryContext(ctx,
		`SELECT type, count(*) FROM insights WHERE retired = 0 GROUP BY type`)
	if err != nil {
		return nil, fmt.Errorf("counting insights: %w", err)
	}
	defer rows.Close()

	counts := make(map[types.InsightType]int)
	for rows.Next() {
		var (
			t string
			n int
		)
		if err := rows.Scan(&t, &n); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts[types.InsightType(t)] = n
	}
	return counts, rows.Err()
}
