// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package analyzer

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/AleutianAI/javacg/services/callgraph/config"
	"github.com/AleutianAI/javacg/services/callgraph/graph"
)

// writeTree creates the given files under a fresh temp root.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return root
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	return cfg
}

// runOn analyzes all files in the tree and returns the result.
func runOn(t *testing.T, files map[string]string) *RunResult {
	t.Helper()
	root := writeTree(t, files)

	found, err := FindJavaFiles(root, nil)
	if err != nil {
		t.Fatalf("FindJavaFiles: %v", err)
	}

	result, err := New(testConfig(t)).Run(context.Background(), root, found)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return result
}

func TestAnalyzer_Run(t *testing.T) {
	t.Run("sibling call produces one edge", func(t *testing.T) {
		result := runOn(t, map[string]string{
			"A.java": `
class A {
    void foo() { bar(); }
    void bar() {}
}
`,
		})

		if !result.Graph.HasEdge("A.foo/0", "A.bar/0") {
			t.Error("missing edge A.foo/0 -> A.bar/0")
		}
		if result.Stats.Edges != 1 {
			t.Errorf("Edges = %d, want 1", result.Stats.Edges)
		}
	})

	t.Run("declarations only yields nodes and zero edges", func(t *testing.T) {
		result := runOn(t, map[string]string{
			"Quiet.java": `
class Quiet {
    void a() {}
    void b() {}
}
`,
		})

		if result.Stats.Nodes != 2 || result.Stats.Edges != 0 {
			t.Errorf("stats = %d nodes / %d edges, want 2/0", result.Stats.Nodes, result.Stats.Edges)
		}
	})

	t.Run("cross file forward reference resolves", func(t *testing.T) {
		// Two-pass analysis: App.java refers to Zeta.java, which sorts
		// after it and would be unseen in a single ordered pass.
		result := runOn(t, map[string]string{
			"App.java":  `class App { void go() { Zeta.ping(); } }`,
			"Zeta.java": `class Zeta { static void ping() {} }`,
		})

		if !result.Graph.HasEdge("App.go/0", "Zeta.ping/0") {
			t.Error("forward cross-file call should resolve under two-pass analysis")
		}
	})

	t.Run("overloads resolve by arity", func(t *testing.T) {
		result := runOn(t, map[string]string{
			"A.java": `
class A {
    void foo() {}
    void foo(int n) {}
    void go() { foo(); foo(5); }
}
`,
		})

		if !result.Graph.HasEdge("A.go/0", "A.foo/0") {
			t.Error("missing edge to arity-0 overload")
		}
		if !result.Graph.HasEdge("A.go/0", "A.foo/1") {
			t.Error("missing edge to arity-1 overload")
		}
	})

	t.Run("unknown callee does not abort", func(t *testing.T) {
		result := runOn(t, map[string]string{
			"A.java": `class A { void go() { unknownElsewhere(); } }`,
		})

		if result.Stats.Edges != 0 || result.Stats.Unresolved != 1 {
			t.Errorf("stats = %+v, want 0 edges and 1 unresolved", result.Stats)
		}
	})

	t.Run("parse failure skips file and run continues", func(t *testing.T) {
		result := runOn(t, map[string]string{
			"Good.java": `class Good { void ok() { helper(); } void helper() {} }`,
			"Bad.java":  string([]byte{0xff, 0xfe, 0x00}),
		})

		if result.Stats.FilesParsed != 1 || result.Stats.FilesFailed != 1 {
			t.Errorf("stats = %+v, want 1 parsed / 1 failed", result.Stats)
		}
		if !result.Graph.HasEdge("Good.ok/0", "Good.helper/0") {
			t.Error("good file should still contribute")
		}

		var failed *FileReport
		for i := range result.Reports {
			if !result.Reports[i].OK {
				failed = &result.Reports[i]
			}
		}
		if failed == nil || failed.Err == nil {
			t.Fatal("failed file should carry error detail")
		}
	})

	t.Run("all files failing is terminal", func(t *testing.T) {
		root := writeTree(t, map[string]string{
			"Bad.java": string([]byte{0xff, 0xfe, 0x00}),
		})

		_, err := New(testConfig(t)).Run(context.Background(), root, []string{"Bad.java"})
		if !errors.Is(err, ErrNoFilesParsed) {
			t.Errorf("want ErrNoFilesParsed, got %v", err)
		}
	})

	t.Run("canceled context stops the run", func(t *testing.T) {
		root := writeTree(t, map[string]string{
			"A.java": `class A { void f() {} }`,
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := New(testConfig(t)).Run(ctx, root, []string{"A.java"})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("want context.Canceled, got %v", err)
		}
	})
}

func TestAnalyzer_Determinism(t *testing.T) {
	files := map[string]string{
		"a/First.java": `
package alpha;
class First {
    void go() { Second.run(); helper(); }
    void helper() {}
}
`,
		"b/Second.java": `
package beta;
class Second {
    static void run() { new First().helper(); }
}
`,
	}

	t.Run("repeated runs export byte-identical output", func(t *testing.T) {
		exportOnce := func(workers int) []byte {
			root := writeTree(t, files)
			cfg := testConfig(t)
			cfg.Workers = workers

			found, err := FindJavaFiles(root, nil)
			if err != nil {
				t.Fatalf("FindJavaFiles: %v", err)
			}
			result, err := New(cfg).Run(context.Background(), root, found)
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}

			var buf bytes.Buffer
			if err := graph.WriteDOT(&buf, result.Graph); err != nil {
				t.Fatalf("WriteDOT: %v", err)
			}
			return buf.Bytes()
		}

		serial := exportOnce(1)
		parallel := exportOnce(8)
		again := exportOnce(8)

		if !bytes.Equal(serial, parallel) || !bytes.Equal(parallel, again) {
			t.Error("exports differ across runs or worker counts")
		}
	})
}

func TestAnalyzer_Export(t *testing.T) {
	t.Run("exports dot and json to disk", func(t *testing.T) {
		result := runOn(t, map[string]string{
			"A.java": `class A { void foo() { bar(); } void bar() {} }`,
		})

		dir := t.TempDir()
		dotPath := filepath.Join(dir, "graph.dot")
		if err := ExportGraph(dotPath, result.Graph, config.FormatDOT); err != nil {
			t.Fatalf("ExportGraph dot: %v", err)
		}
		data, err := os.ReadFile(dotPath)
		if err != nil {
			t.Fatalf("read export: %v", err)
		}
		if !bytes.Contains(data, []byte(`"A.foo/0" -> "A.bar/0";`)) {
			t.Errorf("dot output missing edge:\n%s", data)
		}

		jsonPath := filepath.Join(dir, "graph.json")
		if err := ExportGraph(jsonPath, result.Graph, config.FormatJSON); err != nil {
			t.Fatalf("ExportGraph json: %v", err)
		}
	})

	t.Run("unwritable export path is terminal", func(t *testing.T) {
		result := runOn(t, map[string]string{
			"A.java": `class A { void f() {} }`,
		})

		bad := filepath.Join(t.TempDir(), "missing-dir", "graph.dot")
		if err := ExportGraph(bad, result.Graph, config.FormatDOT); !errors.Is(err, ErrExportFailed) {
			t.Errorf("want ErrExportFailed, got %v", err)
		}
	})

	t.Run("per-file graphs written next to inputs", func(t *testing.T) {
		root := writeTree(t, map[string]string{
			"src/A.java": `class A { void foo() { bar(); } void bar() {} }`,
		})

		found, err := FindJavaFiles(root, nil)
		if err != nil {
			t.Fatalf("FindJavaFiles: %v", err)
		}
		result, err := New(testConfig(t)).Run(context.Background(), root, found)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		n, err := WritePerFileGraphs(root, result)
		if err != nil {
			t.Fatalf("WritePerFileGraphs: %v", err)
		}
		if n != 1 {
			t.Errorf("wrote %d graphs, want 1", n)
		}

		data, err := os.ReadFile(filepath.Join(root, "src", "A.java.dot"))
		if err != nil {
			t.Fatalf("per-file graph missing: %v", err)
		}
		if !bytes.Contains(data, []byte("digraph callgraph")) {
			t.Errorf("unexpected per-file content:\n%s", data)
		}
	})
}
