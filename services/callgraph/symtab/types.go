// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package symtab builds per-file symbol tables from walker event streams
// and resolves invocation sites against them.
//
// The Builder consumes ast events and produces a FileSymbolTable: an
// arena of class scopes with parent-pointer nesting, every method
// declaration keyed by (name, arity) with overload groups, and the
// file's pending calls tagged with their scope context. The Resolver
// then matches each pending call to at most one declaration using a
// syntactic, best-effort strategy with defined tie-breaks.
package symtab

import (
	"github.com/AleutianAI/javacg/services/callgraph/ast"
)

// NoScope is the parent index of a top-level class scope and the scope
// index of a call outside any class body.
const NoScope = -1

// ClassScope is one class-like body's method registry.
//
// Scopes live in the FileSymbolTable arena; Parent is an arena index
// rather than a pointer, so scope lifetime is independent of the
// traversal stack and tables stay inspectable after traversal.
type ClassScope struct {
	// Name is the simple class name, including synthetic suffixes.
	Name string

	// QualifiedName is the dotted enclosing-class chain, e.g.
	// "Outer.Inner" or "Handler.Runnable$1".
	QualifiedName string

	// Extends is the declared superclass simple name, "" if absent.
	Extends string

	// Implements lists declared interface simple names.
	Implements []string

	// Parent is the arena index of the lexically enclosing class scope,
	// NoScope for top-level classes.
	Parent int

	// Line is the 1-indexed declaration line.
	Line int

	// Anonymous marks anonymous class bodies.
	Anonymous bool

	// members maps simple method name to declarations in source order.
	// Overloads and duplicate (name, arity) pairs share the slice.
	members map[string][]*ast.MethodDecl
}

// Register adds a declaration to the scope's member registry.
//
// Duplicate (name, arity) pairs join the same overload group; this is
// never an error.
func (s *ClassScope) Register(decl *ast.MethodDecl) {
	if s.members == nil {
		s.members = make(map[string][]*ast.MethodDecl)
	}
	s.members[decl.Name] = append(s.members[decl.Name], decl)
}

// Lookup returns the overload group for a simple name in source order,
// nil if the scope has no member with that name.
func (s *ClassScope) Lookup(name string) []*ast.MethodDecl {
	return s.members[name]
}

// Has reports whether the scope declares any member with the name.
func (s *ClassScope) Has(name string) bool {
	return len(s.members[name]) > 0
}

// MemberCount returns the total number of registered declarations.
func (s *ClassScope) MemberCount() int {
	n := 0
	for _, group := range s.members {
		n += len(group)
	}
	return n
}

// PendingCall is one invocation site awaiting resolution, tagged with
// the scope context the walker established.
type PendingCall struct {
	// Caller is the enclosing method declaration the edge starts from.
	Caller *ast.MethodDecl

	// Scope is the arena index of the enclosing class scope at the call
	// site, NoScope if none.
	Scope int

	// Site is the invocation as the walker saw it.
	Site ast.CallSite
}

// FileSymbolTable holds everything extracted from one compilation unit.
//
// Tables are built by one Builder, read by the Resolver, and discarded
// after the file's edges are merged. The Scopes arena is append-only.
type FileSymbolTable struct {
	// FilePath is the source path, relative to the analysis root.
	FilePath string

	// Package is the declared package, "" for the default package.
	Package string

	// Imports are the unit's import hints.
	Imports []ast.Import

	// Scopes is the class scope arena in discovery (source) order.
	Scopes []*ClassScope

	// Decls lists every method declaration in the file in source order.
	Decls []*ast.MethodDecl

	// Calls lists every pending invocation in source order.
	Calls []PendingCall
}

// Scope returns the arena entry at index i, nil for NoScope or an
// out-of-range index.
func (t *FileSymbolTable) Scope(i int) *ClassScope {
	if i < 0 || i >= len(t.Scopes) {
		return nil
	}
	return t.Scopes[i]
}

// ImportedPackage returns the package an import hint binds a simple
// class name to, "" when no single-type import names it.
func (t *FileSymbolTable) ImportedPackage(simpleName string) string {
	for _, imp := range t.Imports {
		if imp.IsWildcard || imp.IsStatic {
			continue
		}
		if imp.SimpleName() == simpleName {
			path := imp.Path
			if idx := len(path) - len(simpleName) - 1; idx > 0 && path[idx] == '.' {
				return path[:idx]
			}
			return ""
		}
	}
	return ""
}
