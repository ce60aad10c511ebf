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
	"context"
	"errors"
	"testing"

	"github.com/AleutianAI/javacg/services/callgraph/ast"
)

// buildTable parses src and runs the full walk/build pipeline.
func buildTable(t *testing.T, path, src string) *FileSymbolTable {
	t.Helper()

	parser := ast.NewJavaParser()
	unit, err := parser.Parse(context.Background(), []byte(src), path)
	if err != nil {
		t.Fatalf("Parse(%s) failed: %v", path, err)
	}

	b := NewBuilder(unit.FilePath, unit.Package, unit.Imports)
	if err := unit.Walk(context.Background(), b.Consume); err != nil {
		t.Fatalf("Walk(%s) failed: %v", path, err)
	}

	table, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish(%s) failed: %v", path, err)
	}
	return table
}

func TestBuilder(t *testing.T) {
	t.Run("registers methods in class scope", func(t *testing.T) {
		table := buildTable(t, "Calc.java", `
package com.example;

class Calc {
    int add(int a, int b) { return a + b; }
    int add(int a) { return add(a, 0); }
    void reset() {}
}
`)
		if len(table.Scopes) != 1 {
			t.Fatalf("got %d scopes, want 1", len(table.Scopes))
		}
		scope := table.Scopes[0]
		if scope.Name != "Calc" || scope.Parent != NoScope {
			t.Errorf("scope = %+v, want top-level Calc", scope)
		}
		if got := len(scope.Lookup("add")); got != 2 {
			t.Errorf("overload group size = %d, want 2", got)
		}
		if scope.MemberCount() != 3 {
			t.Errorf("MemberCount = %d, want 3", scope.MemberCount())
		}
		if len(table.Calls) != 1 || table.Calls[0].Site.Callee != "add" {
			t.Errorf("calls = %+v, want one add call", table.Calls)
		}
		if table.Calls[0].Caller.Name != "add" || table.Calls[0].Caller.Arity != 1 {
			t.Errorf("caller = %+v, want add/1", table.Calls[0].Caller)
		}
	})

	t.Run("nested classes chain qualified names", func(t *testing.T) {
		table := buildTable(t, "Outer.java", `
package p;

class Outer {
    void outerRun() {}
    class Inner {
        void innerRun() { outerRun(); }
    }
}
`)
		if len(table.Scopes) != 2 {
			t.Fatalf("got %d scopes, want 2", len(table.Scopes))
		}
		inner := table.Scopes[1]
		if inner.QualifiedName != "Outer.Inner" {
			t.Errorf("QualifiedName = %q, want Outer.Inner", inner.QualifiedName)
		}
		if inner.Parent != 0 {
			t.Errorf("Parent = %d, want 0", inner.Parent)
		}
		decl := inner.Lookup("innerRun")[0]
		if decl.ID() != "p.Outer.Inner.innerRun/0" {
			t.Errorf("ID = %q", decl.ID())
		}
	})

	t.Run("repeated field initializers share one clinit", func(t *testing.T) {
		table := buildTable(t, "Config.java", `
class Config {
    static final Object A = load("a");
    static final Object B = load("b");
}
`)
		scope := table.Scopes[0]
		clinits := scope.Lookup(ast.StaticInitName)
		if len(clinits) != 1 {
			t.Fatalf("got %d <clinit> declarations, want 1", len(clinits))
		}
		if len(table.Calls) != 2 {
			t.Fatalf("got %d calls, want 2", len(table.Calls))
		}
		if table.Calls[0].Caller != table.Calls[1].Caller {
			t.Error("both initializer calls should share the <clinit> caller")
		}
	})

	t.Run("default package declarations", func(t *testing.T) {
		table := buildTable(t, "A.java", `class A { void f() {} }`)
		decl := table.Decls[0]
		if decl.Package != "" {
			t.Errorf("Package = %q, want empty", decl.Package)
		}
		if decl.ID() != "A.f/0" {
			t.Errorf("ID = %q, want A.f/0", decl.ID())
		}
	})

	t.Run("unbalanced stream rejected", func(t *testing.T) {
		b := NewBuilder("X.java", "", nil)
		err := b.Consume(ast.Event{Kind: ast.EventExitClass, Class: &ast.ClassDecl{Name: "X"}})
		if !errors.Is(err, ErrUnbalancedEvents) {
			t.Errorf("want ErrUnbalancedEvents, got %v", err)
		}

		b2 := NewBuilder("Y.java", "", nil)
		if err := b2.Consume(ast.Event{Kind: ast.EventEnterClass, Class: &ast.ClassDecl{Name: "Y", Line: 1}}); err != nil {
			t.Fatalf("enter failed: %v", err)
		}
		if _, err := b2.Finish(); !errors.Is(err, ErrUnbalancedEvents) {
			t.Errorf("Finish on open class: want ErrUnbalancedEvents, got %v", err)
		}
	})
}
