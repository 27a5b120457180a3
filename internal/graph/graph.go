// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package graph links insights into a navigable cross-reference graph.
// Edges are typed (relates_to, depends_on, supersedes); depends_on edges are
// cycle-checked on insert. Traversals are computed on demand: the graph is
// orders of magnitude smaller than the corpus, so nothing is cached.
package graph

import (
	"context"
	"fmt"

	"github.com/pdiddy/corpus-engine/internal/store"
	"github.com/pdiddy/corpus-engine/pkg/types"
)

// Retirer marks an insight superseded. The ledger implements it; Link calls it
// when a supersedes edge is inserted.
type Retirer interface {
	Retire(ctx context.Context, id string) error
}

// Graph manages cross-reference edges between insights.
type Graph struct {
	st *store.Store
}

// New creates a Graph backed by the given store.
func New(st *store.Store) *Graph {
	return &Graph{st: st}
}

// Link inserts a directed edge. Re-linking an existing triple is a no-op.
// A depends_on edge that would close a cycle is rejected with a CycleError and
// the graph is unchanged. A supersedes edge additionally retires the target
// insight via the supplied Retirer.
func (g *Graph) Link(ctx context.Context, fromID, toID string, rel types.Relation, retirer Retirer) error {
	if !types.ValidRelation(rel) {
		return fmt.Errorf("invalid relation %q", rel)
	}
	if fromID == toID {
		if rel == types.DependsOn {
			return &types.CycleError{FromID: fromID, ToID: toID}
		}
		return fmt.Errorf("self-reference %s -> %s is not a valid link", fromID, toID)
	}

	if rel == types.DependsOn {
		// The edge closes a cycle iff fromID is already reachable from toID
		// over depends_on edges.
		reachable, err := g.reaches(ctx, toID, fromID)
		if err != nil {
			return err
		}
		if reachable {
			return &types.CycleError{FromID: fromID, ToID: toID}
		}
	}

	_, err := g.st.DB().ExecContext(ctx,
		`INSERT OR IGNORE INTO cross_refs (from_id, to_id, relation) VALUES (?, ?, ?)`,
		fromID, toID, string(rel),
	)
	if err != nil {
		return fmt.Errorf("inserting edge %s -> %s: %w", fromID, toID, err)
	}

	if rel == types.Supersedes && retirer != nil {
		return retirer.Retire(ctx, toID)
	}
	return nil
}

// Neighbors returns the insight IDs directly connected to id, following edges
// in both directions. A non-empty relation restricts the edges considered.
// The result is a finite snapshot, not a live stream.
func (g *Graph) Neighbors(ctx context.Context, id string, rel types.Relation) ([]string, error) {
	query := `SELECT from_id, to_id FROM cross_refs WHERE (from_id = ? OR to_id = ?)`
	args := []any{id, id}
	if rel != "" {
		query += ` AND relation = ?`
		args = append(args, string(rel))
	}
	query += ` ORDER BY from_id, to_id`

	rows, err := g.st.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying neighbors of %s: %w", id, err)
	}
	defer rows.Close()

	seen := map[string]bool{id: true}
	var neighbors []string
	for rows.Next() {
		var from, to string
		if err := rows.Scan(&from, &to); err != nil {
			return nil, fmt.Errorf("scanning edge: %w", err)
		}
		for _, other := range []string{from, to} {
			if !seen[other] {
				seen[other] = true
				neighbors = append(neighbors, other)
			}
		}
	}
	return neighbors, rows.Err()
}

// ConnectedComponent returns every insight transitively reachable from id over
// any relation, in breadth-first order starting with id itself. Used for
// synthesis-cluster queries.
func (g *Graph) ConnectedComponent(ctx context.Context, id string) ([]string, error) {
	visited := map[string]bool{id: true}
	component := []string{id}
	frontier := []string{id}

	for len(frontier) > 0 {
		next := frontier[0]
		frontier = frontier[1:]

		neighbors, err := g.Neighbors(ctx, next, "")
		if err != nil {
			return nil, err
		}
		for _, n := range neighbors {
			if !visited[n] {
				visited[n] = true
				component = append(component, n)
				frontier = append(frontier, n)
			}
		}
	}
	return component, nil
}

// Edges returns all edges, optionally restricted to one origin insight.
func (g *Graph) Edges(ctx context.Context, fromID string) ([]types.CrossReference, error) {
	query := `SELECT from_id, to_id, relation FROM cross_refs`
	var args []any
	if fromID != "" {
		query += ` WHERE from_id = ?`
		args = append(args, fromID)
	}
	query += ` ORDER BY from_id, to_id, relation`

	rows, err := g.st.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing edges: %w", err)
	}
	defer rows.Close()

	var edges []types.CrossReference
	for rows.Next() {
		var (
			e   types.CrossReference
			rel string
		)
		if err := rows.Scan(&e.FromID, &e.ToID, &rel); err != nil {
			return nil, fmt.Errorf("scanning edge: %w", err)
		}
		e.Relation = types.Relation(rel)
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// Count returns the total number of edges.
func (g *Graph) Count(ctx context.Context) (int, error) {
	var n int
	err := g.st.DB().QueryRowContext(ctx, `SELECT count(*) FROM cross_refs`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting edges: %w", err)
	}
	return n, nil
}

// reaches reports whether target is reachable from start over depends_on
// edges, by breadth-first traversal.
func (g *Graph) reaches(ctx context.Context, start, target string) (bool, error) {
	visited := map[string]bool{start: true}
	frontier := []string{start}

	for len(frontier) > 0 {
		next := frontier[0]
		frontier = frontier[1:]
		if next == target {
			return true, nil
		}

		succ, err := g.dependsOnSuccessors(ctx, next)
		if err != nil {
			return false, err
		}
		for _, s := range succ {
			if !visited[s] {
				visited[s] = true
				frontier = append(frontier, s)
			}
		}
	}
	return false, nil
}

func (g *Graph) dependsOnSuccessors(ctx context.Context, id string) ([]string, error) {
	rows, err := g.st.DB().QueryContext(ctx,
		`SELECT to_id FROM cross_refs WHERE from_id = ? AND relation = ?`,
		id, string(types.DependsOn),
	)
	if err != nil {
		return nil, fmt.Errorf("querying dependencies of %s: %w", id, err)
	}
	defer rows.Close()

	var succ []string
	for rows.Next() {
		var to string
		if err := rows.Scan(&to); err != nil {
			return nil, fmt.Errorf("scanning dependency: %w", err)
		}
		succ = append(succ, to)
	}
	return succ, rows.Err()
}
