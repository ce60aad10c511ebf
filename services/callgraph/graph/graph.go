// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// edgeKey identifies one (caller, callee) pair.
type edgeKey struct {
	from string
	to   string
}

// CallGraph is the global accumulator for one analysis run.
//
// Description:
//
//	CallGraph collects method nodes and call edges from per-file
//	results. Node identity is the qualified ID; the first-merged
//	attributes win and later occurrences contribute edges only. An
//	identity collision with differing attributes is a merge conflict:
//	logged, counted, first record kept, never fatal.
//
// Lifecycle:
//
//	Building: Merge accepts FileResults.
//	Frozen: after Freeze(), merges fail and exporters may read.
//
// Thread Safety:
//
//	All methods are safe for concurrent use. Merge holds the write lock
//	for the duration of one file's result.
type CallGraph struct {
	mu sync.RWMutex

	nodes map[string]MethodNode
	edges map[edgeKey]CallEdge

	frozen    bool
	conflicts int
}

// NewCallGraph creates an empty graph in the building state.
func NewCallGraph() *CallGraph {
	return &CallGraph{
		nodes: make(map[string]MethodNode),
		edges: make(map[edgeKey]CallEdge),
	}
}

// Merge folds one file's result into the graph.
//
// Description:
//
//	Inserts every node not yet present, deduplicates edges by
//	(from, to), and keeps the first-seen call-site line. Merging the
//	same result twice leaves the graph unchanged.
//
// Outputs:
//   - error: ErrGraphFrozen after Freeze, ErrNilResult for nil input,
//     or a validation error for an edge with empty endpoints.
func (g *CallGraph) Merge(result *FileResult) error {
	if result == nil {
		return ErrNilResult
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.frozen {
		return fmt.Errorf("%w: cannot merge %s", ErrGraphFrozen, result.Path)
	}

	// Validate everything up front so a rejected result leaves the
	// graph untouched.
	for _, edge := range result.Edges {
		if edge.From == "" || edge.To == "" {
			return fmt.Errorf("edge with empty endpoint in %s: %+v", result.Path, edge)
		}
	}

	for _, node := range result.Nodes {
		g.addNodeLocked(node)
	}

	for _, edge := range result.Edges {
		key := edgeKey{from: edge.From, to: edge.To}
		if _, exists := g.edges[key]; !exists {
			g.edges[key] = edge
		}
	}

	return nil
}

// addNodeLocked inserts a node, keeping first-seen attributes on
// identity collisions. Callers must hold the write lock.
func (g *CallGraph) addNodeLocked(node MethodNode) {
	existing, ok := g.nodes[node.ID]
	if !ok {
		g.nodes[node.ID] = node
		return
	}

	if existing.FilePath != node.FilePath || existing.Line != node.Line ||
		existing.Arity != node.Arity {
		g.conflicts++
		slog.Warn("merge conflict: node identity collision, keeping first-seen record",
			slog.String("node_id", node.ID),
			slog.String("kept_file", existing.FilePath),
			slog.String("dropped_file", node.FilePath))
	}
}

// Freeze transitions the graph to read-only. Idempotent.
func (g *CallGraph) Freeze() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.frozen = true
}

// IsFrozen reports whether the graph accepts further merges.
func (g *CallGraph) IsFrozen() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.frozen
}

// NodeCount returns the number of distinct nodes.
func (g *CallGraph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// EdgeCount returns the number of distinct edges.
func (g *CallGraph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// ConflictCount returns the number of identity collisions observed.
func (g *CallGraph) ConflictCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.conflicts
}

// Nodes returns every node sorted by ID.
//
// The canonical order depends only on node identity, never on merge
// arrival order.
func (g *CallGraph) Nodes() []MethodNode {
	g.mu.RLock()
	defer g.mu.RUnlock()

	nodes := make([]MethodNode, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

// Edges returns every edge sorted by (from, to).
func (g *CallGraph) Edges() []CallEdge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	edges := make([]CallEdge, 0, len(g.edges))
	for _, e := range g.edges {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges
}

// Node returns the node with the given ID and whether it exists.
func (g *CallGraph) Node(id string) (MethodNode, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	return n, ok
}

// HasEdge reports whether a (from, to) edge exists.
func (g *CallGraph) HasEdge(from, to string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.edges[edgeKey{from: from, to: to}]
	return ok
}
