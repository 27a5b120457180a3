// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/pdiddy/corpus-engine/internal/ledger"
	"github.com/pdiddy/corpus-engine/internal/store"
	"github.com/pdiddy/corpus-engine/pkg/types"
)

// --- test helpers ---

func testSetup(t *testing.T) (*Graph, *store.Store) {
	t.Helper()
	st, err := store.Open(types.StoreConfig{StateDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return New(st), st
}

func insertInsights(t *testing.T, st *store.Store, ids ...string) {
	t.Helper()
	for _, id := range ids {
		_, err := st.DB().Exec(
			`INSERT INTO insights (id, type, dedup_key, fields) VALUES (?, ?, ?, '{}')`,
			id, string(types.InsightTechnicalInsight), id,
		)
		if err != nil {
			t.Fatal(err)
		}
	}
}

func sorted(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// --- linking ---

func TestLinkAndNeighbors(t *testing.T) {
	g, st := testSetup(t)
	ctx := context.Background()
	insertInsights(t, st, "TI-001", "TI-002", "TI-003")

	if err := g.Link(ctx, "TI-001", "TI-002", types.RelatesTo, nil); err != nil {
		t.Fatal(err)
	}
	if err := g.Link(ctx, "TI-003", "TI-001", types.DependsOn, nil); err != nil {
		t.Fatal(err)
	}

	// Neighbors follow edges in both directions.
	neighbors, err := g.Neighbors(ctx, "TI-001", "")
	if err != nil {
		t.Fatal(err)
	}
	if !equalIDs(sorted(neighbors), []string{"TI-002", "TI-003"}) {
		t.Errorf("neighbors = %v", neighbors)
	}

	// Relation filter.
	neighbors, err = g.Neighbors(ctx, "TI-001", types.DependsOn)
	if err != nil {
		t.Fatal(err)
	}
	if !equalIDs(neighbors, []string{"TI-003"}) {
		t.Errorf("depends_on neighbors = %v", neighbors)
	}

	n, err := g.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("edge count = %d, want 2", n)
	}
}

func TestLinkIdempotent(t *testing.T) {
	g, st := testSetup(t)
	ctx := context.Background()
	insertInsights(t, st, "TI-001", "TI-002")

	for i := 0; i < 3; i++ {
		if err := g.Link(ctx, "TI-001", "TI-002", types.RelatesTo, nil); err != nil {
			t.Fatalf("link %d: %v", i, err)
		}
	}
	n, err := g.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("edge count after repeats = %d, want 1", n)
	}
}

func TestLinkInvalidRelation(t *testing.T) {
	g, st := testSetup(t)
	insertInsights(t, st, "TI-001", "TI-002")
	if err := g.Link(context.Background(), "TI-001", "TI-002", "mentions", nil); err == nil {
		t.Fatal("invalid relation accepted")
	}
}

// --- cycle detection ---

func TestLinkRejectsDependsOnCycle(t *testing.T) {
	g, st := testSetup(t)
	ctx := context.Background()
	insertInsights(t, st, "TI-001", "TI-002", "TI-003")

	// TI-001 -> TI-002 -> TI-003
	if err := g.Link(ctx, "TI-001", "TI-002", types.DependsOn, nil); err != nil {
		t.Fatal(err)
	}
	if err := g.Link(ctx, "TI-002", "TI-003", types.DependsOn, nil); err != nil {
		t.Fatal(err)
	}

	// Closing the loop is rejected and the graph is unchanged.
	err := g.Link(ctx, "TI-003", "TI-001", types.DependsOn, nil)
	var cycle *types.CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("got %v, want CycleError", err)
	}
	n, err := g.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("edge count after rejected insert = %d, want 2", n)
	}

	// Self-dependency is the degenerate cycle.
	if err := g.Link(ctx, "TI-001", "TI-001", types.DependsOn, nil); !errors.As(err, &cycle) {
		t.Errorf("self depends_on: got %v, want CycleError", err)
	}

	// A relates_to edge between the same pair is fine; cycles only constrain
	// depends_on.
	if err := g.Link(ctx, "TI-003", "TI-001", types.RelatesTo, nil); err != nil {
		t.Errorf("relates_to back-edge rejected: %v", err)
	}
}

// --- supersession ---

func TestSupersedesRetiresTarget(t *testing.T) {
	g, st := testSetup(t)
	ctx := context.Background()
	led := ledger.New(st, types.LedgerConfig{})

	old, _, err := led.Submit(ctx, types.InsightStrategicTheme,
		map[string]string{"theme": "monolith first", "summary": "defer the split"},
		types.SourceRef{SourceID: "doc", StartLine: 1, EndLine: 300})
	if err != nil {
		t.Fatal(err)
	}
	newer, _, err := led.Submit(ctx, types.InsightStrategicTheme,
		map[string]string{"theme": "selective split", "summary": "extract the hot path"},
		types.SourceRef{SourceID: "doc", StartLine: 561, EndLine: 860})
	if err != nil {
		t.Fatal(err)
	}

	if err := g.Link(ctx, newer.ID, old.ID, types.Supersedes, led); err != nil {
		t.Fatal(err)
	}

	got, err := led.Get(ctx, old.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Retired {
		t.Error("superseded insight not retired")
	}

	// The edge itself is recorded and traversable.
	edges, err := g.Edges(ctx, newer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(edges) != 1 || edges[0].Relation != types.Supersedes || edges[0].ToID != old.ID {
		t.Errorf("edges = %+v", edges)
	}
}

// --- traversal ---

func TestConnectedComponent(t *testing.T) {
	g, st := testSetup(t)
	ctx := context.Background()
	insertInsights(t, st, "TI-001", "TI-002", "TI-003", "TI-004", "UJ-001")

	// Component: TI-001 - TI-002 - TI-003, reachable across edge direction.
	if err := g.Link(ctx, "TI-001", "TI-002", types.RelatesTo, nil); err != nil {
		t.Fatal(err)
	}
	if err := g.Link(ctx, "TI-003", "TI-002", types.DependsOn, nil); err != nil {
		t.Fatal(err)
	}
	// Separate component.
	if err := g.Link(ctx, "TI-004", "UJ-001", types.RelatesTo, nil); err != nil {
		t.Fatal(err)
	}

	component, err := g.ConnectedComponent(ctx, "TI-001")
	if err != nil {
		t.Fatal(err)
	}
	if component[0] != "TI-001" {
		t.Errorf("component starts with %q, want the seed", component[0])
	}
	if !equalIDs(sorted(component), []string{"TI-001", "TI-002", "TI-003"}) {
		t.Errorf("component = %v", component)
	}

	// An unlinked insight is its own component.
	insertInsights(t, st, "ST-001")
	component, err = g.ConnectedComponent(ctx, "ST-001")
	if err != nil {
		t.Fatal(err)
	}
	if !equalIDs(component, []string{"ST-001"}) {
		t.Errorf("isolated component = %v", component)
	}
}
