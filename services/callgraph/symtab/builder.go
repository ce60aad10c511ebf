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
	"errors"
	"fmt"

	"github.com/AleutianAI/javacg/services/callgraph/ast"
)

// Sentinel errors for malformed event streams.
var (
	// ErrUnbalancedEvents indicates mismatched enter/exit events, which
	// points at a walker bug rather than bad input.
	ErrUnbalancedEvents = errors.New("unbalanced scope events")
)

// Builder consumes one compilation unit's event stream and produces its
// FileSymbolTable.
//
// Description:
//
//	The Builder tracks the class and method scope stacks implied by the
//	enter/exit events, registers every method declaration into its
//	class scope arena entry, and records every invocation with the
//	scope context it occurred in. Use one Builder per compilation unit.
//
// Example:
//
//	b := symtab.NewBuilder(unit.FilePath, unit.Package, unit.Imports)
//	if err := unit.Walk(ctx, b.Consume); err != nil { ... }
//	table, err := b.Finish()
//
// Thread Safety:
//
//	Builder is NOT safe for concurrent use. Each file gets its own.
type Builder struct {
	table *FileSymbolTable

	classStack  []int
	methodStack []*ast.MethodDecl

	// declCounters assigns per-scope source-order indices, the resolver
	// tie-break for overload groups.
	declCounters map[int]int

	finished bool
}

// NewBuilder creates a Builder for one compilation unit.
//
// Inputs:
//   - filePath: Source path relative to the analysis root.
//   - pkg: Declared package name, "" for the default package.
//   - imports: Import hints extracted by the parser.
func NewBuilder(filePath, pkg string, imports []ast.Import) *Builder {
	return &Builder{
		table: &FileSymbolTable{
			FilePath: filePath,
			Package:  pkg,
			Imports:  imports,
		},
		declCounters: make(map[int]int),
	}
}

// Consume processes one walker event. Intended to be passed directly to
// CompilationUnit.Walk as the event callback.
func (b *Builder) Consume(ev ast.Event) error {
	switch ev.Kind {
	case ast.EventEnterClass:
		b.enterClass(ev.Class)
		return nil
	case ast.EventExitClass:
		if len(b.classStack) == 0 {
			return fmt.Errorf("%w: exit_class with empty class stack", ErrUnbalancedEvents)
		}
		b.classStack = b.classStack[:len(b.classStack)-1]
		return nil
	case ast.EventEnterMethod:
		b.enterMethod(ev.Method)
		return nil
	case ast.EventExitMethod:
		if len(b.methodStack) == 0 {
			return fmt.Errorf("%w: exit_method with empty method stack", ErrUnbalancedEvents)
		}
		b.methodStack = b.methodStack[:len(b.methodStack)-1]
		return nil
	case ast.EventInvocation:
		b.recordCall(ev.Call)
		return nil
	default:
		return fmt.Errorf("unknown event kind %d", ev.Kind)
	}
}

// Finish validates stack balance and returns the completed table.
func (b *Builder) Finish() (*FileSymbolTable, error) {
	if b.finished {
		return b.table, nil
	}
	if len(b.classStack) != 0 || len(b.methodStack) != 0 {
		return nil, fmt.Errorf("%w: %d classes and %d methods still open",
			ErrUnbalancedEvents, len(b.classStack), len(b.methodStack))
	}
	b.finished = true
	return b.table, nil
}

func (b *Builder) currentScope() int {
	if len(b.classStack) == 0 {
		return NoScope
	}
	return b.classStack[len(b.classStack)-1]
}

func (b *Builder) enterClass(decl *ast.ClassDecl) {
	parent := b.currentScope()

	qualified := decl.Name
	if p := b.table.Scope(parent); p != nil {
		qualified = p.QualifiedName + "." + decl.Name
	}

	scope := &ClassScope{
		Name:          decl.Name,
		QualifiedName: qualified,
		Extends:       decl.Extends,
		Implements:    decl.Implements,
		Parent:        parent,
		Line:          decl.Line,
		Anonymous:     decl.Anonymous,
	}

	b.table.Scopes = append(b.table.Scopes, scope)
	b.classStack = append(b.classStack, len(b.table.Scopes)-1)
}

func (b *Builder) enterMethod(sig *ast.MethodSig) {
	scopeIdx := b.currentScope()
	scope := b.table.Scope(scopeIdx)

	// Field initializers surface as repeated synthetic <init>/<clinit>
	// scopes; they share one declaration per class so node identity
	// stays single.
	if sig.Synthetic && scope != nil {
		if existing := findSynthetic(scope, sig.Name, sig.Arity); existing != nil {
			b.methodStack = append(b.methodStack, existing)
			return
		}
	}

	decl := &ast.MethodDecl{
		Name:       sig.Name,
		Package:    b.table.Package,
		Arity:      sig.Arity,
		Params:     sig.Params,
		ReturnType: sig.ReturnType,
		FilePath:   b.table.FilePath,
		Line:       sig.Line,
		DeclIndex:  b.nextDeclIndex(scopeIdx),
		Synthetic:  sig.Synthetic,
	}
	if scope != nil {
		decl.ClassName = scope.QualifiedName
		scope.Register(decl)
	}

	b.table.Decls = append(b.table.Decls, decl)
	b.methodStack = append(b.methodStack, decl)
}

func (b *Builder) recordCall(site *ast.CallSite) {
	caller := b.currentMethod()
	if caller == nil {
		// A call outside any method body (annotation arguments and the
		// like) attributes to the class's static initializer.
		caller = b.classLevelCaller()
		if caller == nil {
			return
		}
	}

	b.table.Calls = append(b.table.Calls, PendingCall{
		Caller: caller,
		Scope:  b.currentScope(),
		Site:   *site,
	})
}

func (b *Builder) currentMethod() *ast.MethodDecl {
	if len(b.methodStack) == 0 {
		return nil
	}
	return b.methodStack[len(b.methodStack)-1]
}

// classLevelCaller returns (creating if needed) the synthetic <clinit>
// declaration for the current class. Returns nil outside any class.
func (b *Builder) classLevelCaller() *ast.MethodDecl {
	scopeIdx := b.currentScope()
	scope := b.table.Scope(scopeIdx)
	if scope == nil {
		return nil
	}

	if existing := findSynthetic(scope, ast.StaticInitName, 0); existing != nil {
		return existing
	}

	decl := &ast.MethodDecl{
		Name:      ast.StaticInitName,
		ClassName: scope.QualifiedName,
		Package:   b.table.Package,
		Arity:     0,
		FilePath:  b.table.FilePath,
		Line:      scope.Line,
		DeclIndex: b.nextDeclIndex(scopeIdx),
		Synthetic: true,
	}
	scope.Register(decl)
	b.table.Decls = append(b.table.Decls, decl)
	return decl
}

func (b *Builder) nextDeclIndex(scopeIdx int) int {
	idx := b.declCounters[scopeIdx]
	b.declCounters[scopeIdx] = idx + 1
	return idx
}

// findSynthetic returns an existing synthetic declaration with the given
// name and arity in the scope, nil if none.
func findSynthetic(scope *ClassScope, name string, arity int) *ast.MethodDecl {
	for _, d := range scope.Lookup(name) {
		if d.Synthetic && d.Arity == arity {
			return d
		}
	}
	return nil
}
