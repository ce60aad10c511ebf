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
	"testing"
)

// resolveAll resolves every pending call in a table against the run
// index built from all given tables.
func resolveAll(tables ...*FileSymbolTable) map[string][]Resolution {
	index := NewIndex(tables)
	resolver := NewResolver(index)

	out := make(map[string][]Resolution)
	for _, table := range tables {
		for _, call := range table.Calls {
			out[table.FilePath] = append(out[table.FilePath], resolver.Resolve(table, call))
		}
	}
	return out
}

// resolvedIDs extracts the target IDs of resolved calls in order.
func resolvedIDs(resolutions []Resolution) []string {
	var ids []string
	for _, r := range resolutions {
		if r.Outcome == OutcomeResolved {
			ids = append(ids, r.Target.ID())
		}
	}
	return ids
}

func TestResolver_Unqualified(t *testing.T) {
	t.Run("sibling call resolves in class", func(t *testing.T) {
		table := buildTable(t, "A.java", `
class A {
    void foo() { bar(); }
    void bar() {}
}
`)
		res := resolveAll(table)["A.java"]
		ids := resolvedIDs(res)
		if len(ids) != 1 || ids[0] != "A.bar/0" {
			t.Errorf("resolved = %v, want [A.bar/0]", ids)
		}
	})

	t.Run("unknown callee is unresolved not fatal", func(t *testing.T) {
		table := buildTable(t, "A.java", `
class A {
    void foo() { missing(); }
}
`)
		res := resolveAll(table)["A.java"]
		if len(res) != 1 || res[0].Outcome != OutcomeUnresolved {
			t.Errorf("res = %+v, want one unresolved", res)
		}
	})

	t.Run("nested class reaches outer methods", func(t *testing.T) {
		table := buildTable(t, "Outer.java", `
class Outer {
    void log() {}
    class Inner {
        void go() { log(); }
    }
}
`)
		ids := resolvedIDs(resolveAll(table)["Outer.java"])
		if len(ids) != 1 || ids[0] != "Outer.log/0" {
			t.Errorf("resolved = %v, want [Outer.log/0]", ids)
		}
	})

	t.Run("inner declaration shadows outer", func(t *testing.T) {
		table := buildTable(t, "Outer.java", `
class Outer {
    void work() {}
    class Inner {
        void work() {}
        void go() { work(); }
    }
}
`)
		ids := resolvedIDs(resolveAll(table)["Outer.java"])
		if len(ids) != 1 || ids[0] != "Outer.Inner.work/0" {
			t.Errorf("resolved = %v, want inner work", ids)
		}
	})

	t.Run("overloads picked by arity", func(t *testing.T) {
		table := buildTable(t, "A.java", `
class A {
    void foo() {}
    void foo(int n) {}
    void go() {
        foo();
        foo(5);
    }
}
`)
		ids := resolvedIDs(resolveAll(table)["A.java"])
		if len(ids) != 2 {
			t.Fatalf("resolved = %v, want 2", ids)
		}
		if ids[0] != "A.foo/0" || ids[1] != "A.foo/1" {
			t.Errorf("resolved = %v, want [A.foo/0 A.foo/1]", ids)
		}
	})

	t.Run("arity mismatch with unique overload still resolves", func(t *testing.T) {
		table := buildTable(t, "A.java", `
class A {
    void foo(int a, int b) {}
    void go() { foo(1); }
}
`)
		ids := resolvedIDs(resolveAll(table)["A.java"])
		if len(ids) != 1 || ids[0] != "A.foo/2" {
			t.Errorf("resolved = %v, want [A.foo/2]", ids)
		}
	})

	t.Run("arity mismatch across overloads is ambiguous", func(t *testing.T) {
		table := buildTable(t, "A.java", `
class A {
    void foo(int a) {}
    void foo(int a, int b) {}
    void go() { foo(1, 2, 3); }
}
`)
		res := resolveAll(table)["A.java"]
		if len(res) != 1 || res[0].Outcome != OutcomeAmbiguous {
			t.Errorf("res = %+v, want ambiguous", res)
		}
	})

	t.Run("duplicate signature tie breaks by source order", func(t *testing.T) {
		table := buildTable(t, "A.java", `
class A {
    void dup(int a) {}
    void dup(int b) {}
    void go() { dup(1); }
}
`)
		res := resolveAll(table)["A.java"]
		if res[0].Outcome != OutcomeResolved {
			t.Fatalf("outcome = %v", res[0].Outcome)
		}
		if res[0].Target.Line != 3 {
			t.Errorf("target line = %d, want first declaration (line 3)", res[0].Target.Line)
		}
	})

	t.Run("lambda body resolves against enclosing class", func(t *testing.T) {
		table := buildTable(t, "E.java", `
class E {
    void handle() {}
    void wire() { onClick(e -> handle()); }
}
`)
		ids := resolvedIDs(resolveAll(table)["E.java"])
		if len(ids) != 1 || ids[0] != "E.handle/0" {
			t.Errorf("resolved = %v, want [E.handle/0]", ids)
		}
	})
}

func TestResolver_ThisAndSuper(t *testing.T) {
	t.Run("this never leaks across classes", func(t *testing.T) {
		b := buildTable(t, "B.java", `
class B {
    void helper() {}
    void go() { this.helper(); }
}
`)
		c := buildTable(t, "C.java", `
class C {
    void helper() {}
}
`)
		ids := resolvedIDs(resolveAll(b, c)["B.java"])
		if len(ids) != 1 || ids[0] != "B.helper/0" {
			t.Errorf("resolved = %v, want [B.helper/0]", ids)
		}
	})

	t.Run("this restricted to current class", func(t *testing.T) {
		table := buildTable(t, "Outer.java", `
class Outer {
    void log() {}
    class Inner {
        void go() { this.log(); }
    }
}
`)
		res := resolveAll(table)["Outer.java"]
		if len(res) != 1 || res[0].Outcome != OutcomeUnresolved {
			t.Errorf("res = %+v, want unresolved (no outward walk for this)", res)
		}
	})

	t.Run("super resolves when superclass is in the run", func(t *testing.T) {
		base := buildTable(t, "Base.java", `
class Base {
    void greet() {}
}
`)
		child := buildTable(t, "Child.java", `
class Child extends Base {
    void go() { super.greet(); }
}
`)
		ids := resolvedIDs(resolveAll(base, child)["Child.java"])
		if len(ids) != 1 || ids[0] != "Base.greet/0" {
			t.Errorf("resolved = %v, want [Base.greet/0]", ids)
		}
	})

	t.Run("super unresolved when superclass unknown", func(t *testing.T) {
		table := buildTable(t, "Child.java", `
class Child extends Thread {
    void go() { super.start(); }
}
`)
		res := resolveAll(table)["Child.java"]
		if len(res) != 1 || res[0].Outcome != OutcomeUnresolved {
			t.Errorf("res = %+v, want unresolved", res)
		}
	})

	t.Run("super constructor chain", func(t *testing.T) {
		base := buildTable(t, "Base.java", `
class Base {
    Base(int n) {}
}
`)
		child := buildTable(t, "Child.java", `
class Child extends Base {
    Child() { super(1); }
}
`)
		ids := resolvedIDs(resolveAll(base, child)["Child.java"])
		if len(ids) != 1 || ids[0] != "Base.<init>/1" {
			t.Errorf("resolved = %v, want [Base.<init>/1]", ids)
		}
	})
}

func TestResolver_Qualified(t *testing.T) {
	t.Run("known class name resolves across files", func(t *testing.T) {
		util := buildTable(t, "Util.java", `
class Util {
    static void log(String msg) {}
}
`)
		app := buildTable(t, "App.java", `
class App {
    void go() { Util.log("hi"); }
}
`)
		ids := resolvedIDs(resolveAll(util, app)["App.java"])
		if len(ids) != 1 || ids[0] != "Util.log/1" {
			t.Errorf("resolved = %v, want [Util.log/1]", ids)
		}
	})

	t.Run("unknown receiver class is unresolved", func(t *testing.T) {
		table := buildTable(t, "App.java", `
class App {
    void go() { System.exit(0); }
}
`)
		res := resolveAll(table)["App.java"]
		if len(res) != 1 || res[0].Outcome != OutcomeUnresolved {
			t.Errorf("res = %+v, want unresolved", res)
		}
	})

	t.Run("constructor call targets class init", func(t *testing.T) {
		box := buildTable(t, "Box.java", `
class Box {
    Box(int size) {}
}
`)
		app := buildTable(t, "App.java", `
class App {
    Object go() { return new Box(10); }
}
`)
		ids := resolvedIDs(resolveAll(box, app)["App.java"])
		if len(ids) != 1 || ids[0] != "Box.<init>/1" {
			t.Errorf("resolved = %v, want [Box.<init>/1]", ids)
		}
	})

	t.Run("import hint disambiguates duplicate simple names", func(t *testing.T) {
		first := buildTable(t, "a/Worker.java", `
package alpha;
class Worker { static void run() {} }
`)
		second := buildTable(t, "b/Worker.java", `
package beta;
class Worker { static void run() {} }
`)
		app := buildTable(t, "App.java", `
package main;
import beta.Worker;
class App {
    void go() { Worker.run(); }
}
`)
		ids := resolvedIDs(resolveAll(first, second, app)["App.java"])
		if len(ids) != 1 || ids[0] != "beta.Worker.run/0" {
			t.Errorf("resolved = %v, want [beta.Worker.run/0]", ids)
		}
	})

	t.Run("duplicate simple names without hints are ambiguous", func(t *testing.T) {
		first := buildTable(t, "a/Worker.java", `
package alpha;
class Worker { static void run() {} }
`)
		second := buildTable(t, "b/Worker.java", `
package beta;
class Worker { static void run() {} }
`)
		app := buildTable(t, "App.java", `
package main;
class App {
    void go() { Worker.run(); }
}
`)
		res := resolveAll(first, second, app)["App.java"]
		if len(res) != 1 || res[0].Outcome != OutcomeAmbiguous {
			t.Errorf("res = %+v, want ambiguous", res)
		}
	})

	t.Run("method reference resolves only unique overloads", func(t *testing.T) {
		util := buildTable(t, "Util.java", `
class Util {
    static int parse(String s) { return 0; }
}
`)
		app := buildTable(t, "App.java", `
class App {
    void go() { use(Util::parse); }
}
`)
		resolutions := resolveAll(util, app)["App.java"]
		var ids []string
		for _, r := range resolutions {
			if r.Outcome == OutcomeResolved {
				ids = append(ids, r.Target.ID())
			}
		}
		if len(ids) != 1 || ids[0] != "Util.parse/1" {
			t.Errorf("resolved = %v, want [Util.parse/1]", ids)
		}
	})
}

func TestIndex(t *testing.T) {
	t.Run("canonical order independent of table order", func(t *testing.T) {
		a := buildTable(t, "a/W.java", "package alpha;\nclass W { void x() {} }")
		b := buildTable(t, "b/W.java", "package beta;\nclass W { void x() {} }")

		forward := NewIndex([]*FileSymbolTable{a, b})
		backward := NewIndex([]*FileSymbolTable{b, a})

		fRef, _ := forward.LookupClass("W", nil)
		bRef, _ := backward.LookupClass("W", nil)
		// Both orders: ambiguous without a viewpoint, so both nil.
		if fRef != nil || bRef != nil {
			t.Errorf("ambiguous lookup should be nil both ways: %v %v", fRef, bRef)
		}
		if forward.ClassCount() != 1 {
			t.Errorf("ClassCount = %d, want 1", forward.ClassCount())
		}
	})
}
