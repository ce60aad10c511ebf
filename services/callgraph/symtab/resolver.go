// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package symtab

import (
	"sort"

	"github.com/AleutianAI/javacg/services/callgraph/ast"
)

// Outcome classifies a resolution attempt.
type Outcome int

const (
	// OutcomeResolved means exactly one target declaration was chosen.
	OutcomeResolved Outcome = iota

	// OutcomeUnresolved means no declaration matched. Not an error; the
	// call simply yields no edge.
	OutcomeUnresolved

	// OutcomeAmbiguous means several declarations matched equally and
	// the tie-breaks could not separate them. Treated as unresolved for
	// edges, counted separately for diagnostics.
	OutcomeAmbiguous
)

// outcomeNames maps Outcome values to their string representations.
var outcomeNames = map[Outcome]string{
	OutcomeResolved:   "resolved",
	OutcomeUnresolved: "unresolved",
	OutcomeAmbiguous:  "ambiguous",
}

// String returns the string representation of the Outcome.
func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "unknown"
}

// Resolution is the result of resolving one pending call.
type Resolution struct {
	Outcome Outcome

	// Target is the chosen declaration, nil unless Outcome is
	// OutcomeResolved.
	Target *ast.MethodDecl
}

// ClassRef locates one class scope within the run's tables.
type ClassRef struct {
	Table *FileSymbolTable
	Scope *ClassScope
}

// Index is the run-wide class registry built from all file tables.
//
// Description:
//
//	The Index maps simple class names to every scope declaring that
//	name anywhere in the run. It backs qualified-receiver and super
//	resolution across files. References per name are held in a
//	canonical sorted order so lookups are independent of file
//	processing order.
//
// Thread Safety:
//
//	Index is immutable after NewIndex and safe for concurrent reads.
type Index struct {
	classes map[string][]ClassRef
}

// NewIndex builds the class registry from completed file tables.
func NewIndex(tables []*FileSymbolTable) *Index {
	ix := &Index{classes: make(map[string][]ClassRef)}

	for _, table := range tables {
		for _, scope := range table.Scopes {
			ix.classes[scope.Name] = append(ix.classes[scope.Name], ClassRef{
				Table: table,
				Scope: scope,
			})
		}
	}

	// Canonical order: identity, not arrival.
	for _, refs := range ix.classes {
		sort.Slice(refs, func(i, j int) bool {
			if refs[i].Table.Package != refs[j].Table.Package {
				return refs[i].Table.Package < refs[j].Table.Package
			}
			if refs[i].Table.FilePath != refs[j].Table.FilePath {
				return refs[i].Table.FilePath < refs[j].Table.FilePath
			}
			return refs[i].Scope.QualifiedName < refs[j].Scope.QualifiedName
		})
	}

	return ix
}

// ClassCount returns the number of distinct simple class names indexed.
func (ix *Index) ClassCount() int {
	return len(ix.classes)
}

// LookupClass finds the scope a simple class name denotes from the
// viewpoint of one file.
//
// Description:
//
//	When several classes in the run share the simple name, the
//	reference is disambiguated best-effort: a class in the same file
//	wins, then a class in the same package, then a class whose package
//	matches a single-type import hint. If multiple candidates survive
//	every filter the lookup is ambiguous.
//
// Outputs:
//   - *ClassRef: The chosen scope, nil when unknown or ambiguous.
//   - bool: True when the name was known but ambiguous.
func (ix *Index) LookupClass(simpleName string, from *FileSymbolTable) (*ClassRef, bool) {
	refs := ix.classes[simpleName]
	if len(refs) == 0 {
		return nil, false
	}
	if len(refs) == 1 {
		return &refs[0], false
	}

	if from != nil {
		for i := range refs {
			if refs[i].Table == from {
				return &refs[i], false
			}
		}
		if narrowed := filterByPackage(refs, from.Package); len(narrowed) == 1 {
			return &narrowed[0], false
		}
		if pkg := from.ImportedPackage(simpleName); pkg != "" {
			if narrowed := filterByPackage(refs, pkg); len(narrowed) == 1 {
				return &narrowed[0], false
			}
		}
	}

	return nil, true
}

func filterByPackage(refs []ClassRef, pkg string) []ClassRef {
	var out []ClassRef
	for _, r := range refs {
		if r.Table.Package == pkg {
			out = append(out, r)
		}
	}
	return out
}

// Resolver matches pending calls to declarations.
//
// Description:
//
//	Resolution is syntactic and best-effort, with no type inference.
//	Unqualified calls walk the enclosing class scopes outward; this and
//	super calls restrict to one scope; qualified calls go through the
//	run-wide Index. Exact arity wins, a unique overload is accepted on
//	arity mismatch, and remaining ties fall to the first declaration in
//	source order.
//
// Thread Safety:
//
//	Resolver is stateless over immutable inputs and safe for concurrent
//	use.
type Resolver struct {
	index *Index
}

// NewResolver creates a Resolver over a completed Index.
func NewResolver(index *Index) *Resolver {
	return &Resolver{index: index}
}

// Resolve matches one pending call from the given file.
func (r *Resolver) Resolve(table *FileSymbolTable, call PendingCall) Resolution {
	switch call.Site.ReceiverKind {
	case ast.ReceiverNone:
		return r.resolveUnqualified(table, call)
	case ast.ReceiverThis:
		return resolveInScope(table.Scope(call.Scope), call.Site.Callee, call.Site.Args)
	case ast.ReceiverSuper:
		return r.resolveSuper(table, call)
	case ast.ReceiverQualified:
		return r.resolveQualified(table, call)
	default:
		// Arbitrary receiver expressions never resolve.
		return Resolution{Outcome: OutcomeUnresolved}
	}
}

// resolveUnqualified walks the class scope chain outward and resolves
// within the first scope declaring the name. Outer scopes never shadow
// an inner declaration.
func (r *Resolver) resolveUnqualified(table *FileSymbolTable, call PendingCall) Resolution {
	for idx := call.Scope; idx != NoScope; {
		scope := table.Scope(idx)
		if scope == nil {
			break
		}
		if scope.Has(call.Site.Callee) {
			return resolveInScope(scope, call.Site.Callee, call.Site.Args)
		}
		idx = scope.Parent
	}
	return Resolution{Outcome: OutcomeUnresolved}
}

// resolveSuper resolves against the declared superclass's scope when
// that class is known this run. An unknown superclass (another file
// set, an external library) leaves the call unresolved.
func (r *Resolver) resolveSuper(table *FileSymbolTable, call PendingCall) Resolution {
	scope := table.Scope(call.Scope)
	if scope == nil || scope.Extends == "" {
		return Resolution{Outcome: OutcomeUnresolved}
	}

	ref, ambiguous := r.index.LookupClass(scope.Extends, table)
	if ref == nil {
		if ambiguous {
			return Resolution{Outcome: OutcomeAmbiguous}
		}
		return Resolution{Outcome: OutcomeUnresolved}
	}
	return resolveInScope(ref.Scope, call.Site.Callee, call.Site.Args)
}

// resolveQualified resolves Foo.bar() against class Foo's scope when a
// class with that simple name is known this run.
func (r *Resolver) resolveQualified(table *FileSymbolTable, call PendingCall) Resolution {
	ref, ambiguous := r.index.LookupClass(call.Site.Receiver, table)
	if ref == nil {
		if ambiguous {
			return Resolution{Outcome: OutcomeAmbiguous}
		}
		return Resolution{Outcome: OutcomeUnresolved}
	}
	return resolveInScope(ref.Scope, call.Site.Callee, call.Site.Args)
}

// resolveInScope applies the arity heuristic within one scope.
//
// Exact arity matches win; among several the first declared is chosen.
// Without an exact match a unique same-named candidate is accepted.
// Calls with unknown arity (method references) accept only a unique
// candidate.
func resolveInScope(scope *ClassScope, name string, args int) Resolution {
	if scope == nil {
		return Resolution{Outcome: OutcomeUnresolved}
	}

	candidates := scope.Lookup(name)
	if len(candidates) == 0 {
		return Resolution{Outcome: OutcomeUnresolved}
	}

	if args == ast.ArityUnknown {
		if len(candidates) == 1 {
			return Resolution{Outcome: OutcomeResolved, Target: candidates[0]}
		}
		return Resolution{Outcome: OutcomeAmbiguous}
	}

	var exact *ast.MethodDecl
	for _, c := range candidates {
		if c.Arity != args {
			continue
		}
		if exact == nil || c.DeclIndex < exact.DeclIndex {
			exact = c
		}
	}
	if exact != nil {
		return Resolution{Outcome: OutcomeResolved, Target: exact}
	}

	if len(candidates) == 1 {
		return Resolution{Outcome: OutcomeResolved, Target: candidates[0]}
	}
	return Resolution{Outcome: OutcomeAmbiguous}
}
