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
	"encoding/json"
	"fmt"
	"io"
)

// SchemaVersion is the current serialization format version.
//
// Bump on breaking changes to the serialized layout so readers can
// reject graphs they do not understand.
const SchemaVersion = 1

// SerializableGraph is the JSON form of a frozen call graph.
//
// Nodes and edges are stored in canonical sorted order, so serializing
// the same graph twice produces identical bytes.
type SerializableGraph struct {
	SchemaVersion int          `json:"schema_version"`
	NodeCount     int          `json:"node_count"`
	EdgeCount     int          `json:"edge_count"`
	Nodes         []MethodNode `json:"nodes"`
	Edges         []CallEdge   `json:"edges"`
}

// ToSerializable converts a frozen graph to its serializable form.
func ToSerializable(g *CallGraph) (*SerializableGraph, error) {
	if !g.IsFrozen() {
		return nil, fmt.Errorf("%w: freeze before serialization", ErrNotFrozen)
	}

	return &SerializableGraph{
		SchemaVersion: SchemaVersion,
		NodeCount:     g.NodeCount(),
		EdgeCount:     g.EdgeCount(),
		Nodes:         g.Nodes(),
		Edges:         g.Edges(),
	}, nil
}

// FromSerializable reconstructs a frozen graph from its JSON form.
//
// Outputs:
//   - *CallGraph: A frozen graph equivalent to the serialized one.
//   - error: ErrInvalidSchema on a version mismatch.
func FromSerializable(sg *SerializableGraph) (*CallGraph, error) {
	if sg == nil {
		return nil, fmt.Errorf("%w: nil serializable graph", ErrInvalidSchema)
	}
	if sg.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidSchema, sg.SchemaVersion, SchemaVersion)
	}

	g := NewCallGraph()
	if err := g.Merge(&FileResult{Path: "(serialized)", Nodes: sg.Nodes, Edges: sg.Edges}); err != nil {
		return nil, fmt.Errorf("rebuild graph: %w", err)
	}
	g.Freeze()
	return g, nil
}

// WriteJSON writes the frozen graph as indented JSON.
//
// Output is deterministic for the same reasons WriteDOT's is.
func WriteJSON(w io.Writer, g *CallGraph) error {
	sg, err := ToSerializable(g)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sg); err != nil {
		return fmt.Errorf("encode graph JSON: %w", err)
	}
	return nil
}

// ReadJSON reads a serialized graph and reconstructs it.
func ReadJSON(r io.Reader) (*CallGraph, error) {
	var sg SerializableGraph
	if err := json.NewDecoder(r).Decode(&sg); err != nil {
		return nil, fmt.Errorf("decode graph JSON: %w", err)
	}
	return FromSerializable(&sg)
}
