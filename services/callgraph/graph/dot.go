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
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteDOT writes the frozen graph in Graphviz DOT form.
//
// Description:
//
//	Output is deterministic: nodes sorted by ID, edges sorted by
//	(from, to), so repeated runs on unchanged input are byte-identical
//	regardless of file processing order. Node labels are the qualified
//	method identity.
//
// Inputs:
//   - w: Destination writer.
//   - g: The graph. Must be frozen.
//
// Outputs:
//   - error: ErrNotFrozen on a building graph, or the first write error.
func WriteDOT(w io.Writer, g *CallGraph) error {
	if !g.IsFrozen() {
		return fmt.Errorf("%w: freeze before export", ErrNotFrozen)
	}

	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString("digraph callgraph {\n"); err != nil {
		return fmt.Errorf("write DOT header: %w", err)
	}

	for _, node := range g.Nodes() {
		line := fmt.Sprintf("    %s [label=%s];\n", quoteDOT(node.ID), quoteDOT(node.ID))
		if _, err := bw.WriteString(line); err != nil {
			return fmt.Errorf("write DOT node: %w", err)
		}
	}

	for _, edge := range g.Edges() {
		line := fmt.Sprintf("    %s -> %s;\n", quoteDOT(edge.From), quoteDOT(edge.To))
		if _, err := bw.WriteString(line); err != nil {
			return fmt.Errorf("write DOT edge: %w", err)
		}
	}

	if _, err := bw.WriteString("}\n"); err != nil {
		return fmt.Errorf("write DOT footer: %w", err)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush DOT output: %w", err)
	}
	return nil
}

// quoteDOT wraps an identifier in a quoted DOT string, escaping
// backslashes and double quotes.
func quoteDOT(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
