// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph accumulates per-file analysis results into one global
// call graph and exports it deterministically.
//
// The CallGraph is the only shared mutable state of a run: files merge
// their results through a mutex-guarded Merge, the graph is frozen once
// all merges complete, and exporters read the frozen graph in canonical
// identity order so repeated runs produce byte-identical output.
package graph

import (
	"github.com/AleutianAI/javacg/services/callgraph/ast"
)

// MethodNode is one method declaration in the global graph.
//
// Identity is the ID string (qualified name plus arity). Two
// declarations with the same ID from different files are the same
// logical node; the first-merged attributes win.
type MethodNode struct {
	// ID is "pkg.Class.method/arity", with synthetic segments when the
	// package or class cannot be determined.
	ID string `json:"id"`

	// Name is the simple method name or synthetic name.
	Name string `json:"name"`

	// ClassName is the dotted enclosing-class chain.
	ClassName string `json:"class_name,omitempty"`

	// Package is the declaring package, "" for the default package.
	Package string `json:"package,omitempty"`

	// FilePath is the first-seen declaring file.
	FilePath string `json:"file_path"`

	// Line is the 1-indexed declaration line in FilePath.
	Line int `json:"line"`

	// Arity is the declared parameter count.
	Arity int `json:"arity"`

	// Synthetic marks <init>/<clinit>/lambda nodes.
	Synthetic bool `json:"synthetic,omitempty"`
}

// NodeFromDecl converts a resolved declaration into its graph node.
func NodeFromDecl(d *ast.MethodDecl) MethodNode {
	return MethodNode{
		ID:        d.ID(),
		Name:      d.Name,
		ClassName: d.ClassName,
		Package:   d.Package,
		FilePath:  d.FilePath,
		Line:      d.Line,
		Arity:     d.Arity,
		Synthetic: d.Synthetic,
	}
}

// CallEdge is one directed caller-to-callee relationship.
//
// Edges have set semantics: a duplicate (From, To) pair is stored once
// and call multiplicity is not tracked. Line is the call-site line of
// the first-seen occurrence.
type CallEdge struct {
	// From is the caller node ID.
	From string `json:"from"`

	// To is the callee node ID.
	To string `json:"to"`

	// Line is the 1-indexed call-site line, 0 if unknown.
	Line int `json:"line,omitempty"`
}

// FileResult is one file's contribution to the global graph.
//
// Nodes lists every declaration the file contributed plus the resolved
// callee nodes its edges reference, so a FileResult is self-contained
// and results can merge in any order.
type FileResult struct {
	// Path is the source file, relative to the analysis root.
	Path string `json:"path"`

	// Nodes are the method nodes this file contributes.
	Nodes []MethodNode `json:"nodes"`

	// Edges are the resolved call edges originating in this file.
	Edges []CallEdge `json:"edges"`
}
