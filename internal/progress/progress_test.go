// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package progress

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/pdiddy/corpus-engine/internal/store"
	"github.com/pdiddy/corpus-engine/pkg/types"
)

func testSetup(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(types.StoreConfig{StateDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func seed(t *testing.T, st *store.Store) {
	t.Helper()
	stmts := []string{
		`INSERT INTO documents (id, path, total_lines, chunk_size, overlap_size)
		 VALUES ('interviews', '/corpus/interviews.md', 860, 300, 20)`,
		`INSERT INTO documents (id, path, total_lines) VALUES ('untouched', '/corpus/untouched.md', 400)`,
		`INSERT INTO chunks VALUES ('interviews#0', 'interviews', 0, 1, 300, 'complete', '')`,
		`INSERT INTO chunks VALUES ('interviews#1', 'interviews', 1, 281, 580, 'complete', '')`,
		`INSERT INTO chunks VALUES ('interviews#2', 'interviews', 2, 561, 860, 'failed', 'extractor timed out')`,
		`INSERT INTO insights (id, type, dedup_key, fields) VALUES ('UJ-001', 'user_journey', 'k1', '{}')`,
		`INSERT INTO insights (id, type, dedup_key, fields) VALUES ('UJ-002', 'user_journey', 'k2', '{}')`,
		`INSERT INTO insights (id, type, dedup_key, fields, retired) VALUES ('TI-001', 'technical_insight', 'k3', '{}', 1)`,
		`INSERT INTO cross_refs VALUES ('UJ-001', 'UJ-002', 'relates_to')`,
		`INSERT INTO verifications (chunk_id, question, verdict) VALUES ('interviews#0', 'q', 'confirmed')`,
		`INSERT INTO verifications (chunk_id, question, verdict) VALUES ('interviews#0', 'q', 'inconclusive')`,
	}
	for _, s := range stmts {
		if _, err := st.DB().Exec(s); err != nil {
			t.Fatalf("%s: %v", s, err)
		}
	}
}

func TestSnapshot(t *testing.T) {
	st := testSetup(t)
	seed(t, st)

	state, err := Snapshot(context.Background(), st)
	if err != nil {
		t.Fatal(err)
	}

	if len(state.Documents) != 2 {
		t.Fatalf("got %d documents, want 2", len(state.Documents))
	}

	interviews := state.Documents[0]
	if interviews.DocumentID != "interviews" {
		t.Fatalf("documents out of order: %+v", state.Documents)
	}
	if interviews.ChunksTotal != 3 || interviews.ChunksComplete != 2 || interviews.ChunksFailed != 1 {
		t.Errorf("chunk counts = %+v", interviews)
	}
	// Chunks 0 and 1 cover lines 1-580 with a 20-line overlap counted once.
	if interviews.LinesCovered != 580 {
		t.Errorf("lines covered = %d, want 580", interviews.LinesCovered)
	}
	wantPercent := 100 * 580.0 / 860.0
	if diff := interviews.PercentLines - wantPercent; diff > 0.01 || diff < -0.01 {
		t.Errorf("percent = %v, want %v", interviews.PercentLines, wantPercent)
	}

	untouched := state.Documents[1]
	if untouched.ChunksTotal != 0 || untouched.LinesCovered != 0 || untouched.PercentLines != 0 {
		t.Errorf("untouched document progress = %+v", untouched)
	}

	// Retired insights are excluded from totals.
	if state.InsightsTotalByType[types.InsightUserJourney] != 2 {
		t.Errorf("user journeys = %d, want 2", state.InsightsTotalByType[types.InsightUserJourney])
	}
	if state.InsightsTotalByType[types.InsightTechnicalInsight] != 0 {
		t.Errorf("retired insight counted: %d", state.InsightsTotalByType[types.InsightTechnicalInsight])
	}
	if state.CrossRefsTotal != 1 {
		t.Errorf("cross refs = %d, want 1", state.CrossRefsTotal)
	}
	// Verification totals count every record, inconclusive included.
	if state.VerificationsTotal != 2 {
		t.Errorf("verifications = %d, want 2", state.VerificationsTotal)
	}
}

func TestDocument(t *testing.T) {
	st := testSetup(t)
	seed(t, st)
	ctx := context.Background()

	doc, err := Document(ctx, st, "interviews")
	if err != nil {
		t.Fatal(err)
	}
	if doc.DocumentID != "interviews" || doc.ChunksComplete != 2 {
		t.Errorf("doc = %+v", doc)
	}

	var notFound *types.NotFoundError
	if _, err := Document(ctx, st, "ghost"); !errors.As(err, &notFound) {
		t.Errorf("got %v, want NotFoundError", err)
	}
}

func TestSnapshotEmptyStore(t *testing.T) {
	st := testSetup(t)
	state, err := Snapshot(context.Background(), st)
	if err != nil {
		t.Fatal(err)
	}
	if len(state.Documents) != 0 || state.CrossRefsTotal != 0 || state.VerificationsTotal != 0 {
		t.Errorf("empty state = %+v", state)
	}
}

func TestSnapshotManyDocuments(t *testing.T) {
	st := testSetup(t)
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("doc-%d", i)
		_, err := st.DB().Exec(
			`INSERT INTO documents (id, path, total_lines) VALUES (?, ?, 100)`,
			id, "/corpus/"+id+".md")
		if err != nil {
			t.Fatal(err)
		}
	}

	state, err := Snapshot(context.Background(), st)
	if err != nil {
		t.Fatal(err)
	}
	if len(state.Documents) != 5 {
		t.Fatalf("got %d documents, want 5", len(state.Documents))
	}
	for i, d := range state.Documents {
		if d.DocumentID != fmt.Sprintf("doc-%d", i) {
			t.Errorf("document %d = %q, listing not ordered", i, d.DocumentID)
		}
	}
}
