// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package analyzer orchestrates full call-graph runs: parse every file,
// build symbol tables, resolve calls against the run-wide index, and
// accumulate the global graph.
//
// Runs are two-pass. Pass one parses all files in parallel and collects
// every declaration; pass two resolves every call against the completed
// tables. The final graph is therefore independent of file processing
// order, including cross-file forward references.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/javacg/services/callgraph/ast"
	"github.com/AleutianAI/javacg/services/callgraph/config"
	"github.com/AleutianAI/javacg/services/callgraph/graph"
	"github.com/AleutianAI/javacg/services/callgraph/symtab"
)

// FileReport is one file's outcome, exposed for progress reporting.
type FileReport struct {
	// Path is the source file relative to the analysis root.
	Path string `json:"path"`

	// OK is false when the file failed to parse and contributed nothing.
	OK bool `json:"ok"`

	// Methods is the number of method declarations found.
	Methods int `json:"methods"`

	// Calls is the number of invocation sites found.
	Calls int `json:"calls"`

	// Edges is the number of resolved edges the file contributed.
	Edges int `json:"edges"`

	// Unresolved counts calls that matched no declaration.
	Unresolved int `json:"unresolved"`

	// Ambiguous counts calls dropped by unbreakable ties.
	Ambiguous int `json:"ambiguous"`

	// Err holds the parse failure detail for failed files.
	Err error `json:"-"`
}

// RunStats aggregates counts across one run.
type RunStats struct {
	FilesTotal  int `json:"files_total"`
	FilesParsed int `json:"files_parsed"`
	FilesFailed int `json:"files_failed"`
	Nodes       int `json:"nodes"`
	Edges       int `json:"edges"`
	Unresolved  int `json:"unresolved"`
	Ambiguous   int `json:"ambiguous"`
	Conflicts   int `json:"conflicts"`
}

// RunResult is the outcome of one analysis run.
type RunResult struct {
	// RunID is the unique identifier carried through logs.
	RunID string

	// Graph is the frozen global call graph.
	Graph *graph.CallGraph

	// Reports holds per-file outcomes sorted by path.
	Reports []FileReport

	// FileResults holds each parsed file's graph contribution, keyed by
	// path. Used by the per-file export mode.
	FileResults map[string]*graph.FileResult

	// Stats aggregates run-wide counts.
	Stats RunStats

	// Duration is the wall-clock run time.
	Duration time.Duration
}

// Analyzer runs call-graph analysis over a set of Java files.
//
// Thread Safety:
//
//	Analyzer is safe for concurrent use; each Run carries its own state.
type Analyzer struct {
	cfg    *config.Config
	parser *ast.JavaParser
}

// New creates an Analyzer from a validated config.
func New(cfg *config.Config) *Analyzer {
	return &Analyzer{
		cfg:    cfg,
		parser: ast.NewJavaParser(ast.WithMaxFileSize(cfg.MaxFileSizeBytes)),
	}
}

// parsedFile is pass one's per-file product.
type parsedFile struct {
	report FileReport
	table  *symtab.FileSymbolTable
}

// Run analyzes the given files and returns the frozen global graph.
//
// Description:
//
//	Files are processed in parallel with a bounded worker pool. Each
//	file's parse and table build touch only private state; the shared
//	CallGraph is mutated solely through its mutex-guarded Merge. A
//	parse failure skips the file and the run continues; the run fails
//	only when no file parses at all.
//
// Inputs:
//   - ctx: Context for cancellation, checked between files.
//   - root: Analysis root directory; file paths are relative to it.
//   - files: Relative .java paths, typically from FindJavaFiles.
//
// Outputs:
//   - *RunResult: Frozen graph plus per-file reports and stats.
//   - error: ErrNoFilesParsed, or a context error on cancellation.
func (a *Analyzer) Run(ctx context.Context, root string, files []string) (*RunResult, error) {
	runID := uuid.New().String()
	ctx, span := startRunSpan(ctx, runID, len(files))
	defer span.End()

	start := time.Now()
	log := slog.With(slog.String("run_id", runID))
	log.Info("analysis started",
		slog.String("root", root),
		slog.Int("files", len(files)))

	parsed, err := a.parseAll(ctx, log, root, files)
	if err != nil {
		return nil, err
	}

	var tables []*symtab.FileSymbolTable
	for _, pf := range parsed {
		if pf.table != nil {
			tables = append(tables, pf.table)
		}
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: %d files attempted", ErrNoFilesParsed, len(files))
	}

	result, err := a.resolveAll(ctx, parsed, tables)
	if err != nil {
		return nil, err
	}

	result.RunID = runID
	result.Duration = time.Since(start)
	recordRunMetrics(ctx, result.Duration)

	log.Info("analysis finished",
		slog.Int("files_parsed", result.Stats.FilesParsed),
		slog.Int("files_failed", result.Stats.FilesFailed),
		slog.Int("nodes", result.Stats.Nodes),
		slog.Int("edges", result.Stats.Edges),
		slog.Int("unresolved", result.Stats.Unresolved),
		slog.Duration("duration", result.Duration))

	return result, nil
}

// parseAll is pass one: parse every file and build its symbol table.
func (a *Analyzer) parseAll(ctx context.Context, log *slog.Logger, root string, files []string) ([]parsedFile, error) {
	parsed := make([]parsedFile, len(files))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers())

	for i, rel := range files {
		i, rel := i, rel
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			pf := a.parseOne(gctx, root, rel)
			parsed[i] = pf

			n := done.Add(1)
			if pf.report.OK {
				log.Info(fmt.Sprintf("[%d/%d] analyzed", n, len(files)),
					slog.String("file", rel),
					slog.Int("methods", pf.report.Methods),
					slog.Int("calls", pf.report.Calls))
			} else {
				log.Warn(fmt.Sprintf("[%d/%d] failed", n, len(files)),
					slog.String("file", rel),
					slog.Any("error", pf.report.Err))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return parsed, nil
}

// parseOne parses and indexes a single file. Failures land in the
// report, never in an error return.
func (a *Analyzer) parseOne(ctx context.Context, root, rel string) parsedFile {
	pf := parsedFile{report: FileReport{Path: rel}}

	fail := func(err error) parsedFile {
		pf.report.Err = ast.WrapParseError(err, rel)
		recordFileMetrics(ctx, false)
		return pf
	}

	content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return fail(err)
	}

	unit, err := a.parser.Parse(ctx, content, rel)
	if err != nil {
		return fail(err)
	}

	builder := symtab.NewBuilder(unit.FilePath, unit.Package, unit.Imports)
	if err := unit.Walk(ctx, builder.Consume); err != nil {
		return fail(err)
	}

	table, err := builder.Finish()
	if err != nil {
		return fail(err)
	}

	pf.table = table
	pf.report.OK = true
	pf.report.Methods = len(table.Decls)
	pf.report.Calls = len(table.Calls)
	recordFileMetrics(ctx, true)
	return pf
}

// resolveAll is pass two: resolve every call against the run index and
// merge each file's contribution into the global graph.
func (a *Analyzer) resolveAll(ctx context.Context, parsed []parsedFile, tables []*symtab.FileSymbolTable) (*RunResult, error) {
	index := symtab.NewIndex(tables)
	resolver := symtab.NewResolver(index)
	cg := graph.NewCallGraph()

	fileResults := make([]*graph.FileResult, len(parsed))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers())

	for i := range parsed {
		i := i
		pf := &parsed[i]
		if pf.table == nil {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			fr := resolveFile(gctx, a.cfg, resolver, pf)
			fileResults[i] = fr
			return cg.Merge(fr)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	cg.Freeze()

	result := &RunResult{
		Graph:       cg,
		FileResults: make(map[string]*graph.FileResult, len(tables)),
	}
	for i := range parsed {
		result.Reports = append(result.Reports, parsed[i].report)
		if fileResults[i] != nil {
			result.FileResults[parsed[i].report.Path] = fileResults[i]
		}
	}
	sort.Slice(result.Reports, func(i, j int) bool {
		return result.Reports[i].Path < result.Reports[j].Path
	})

	for _, rep := range result.Reports {
		if rep.OK {
			result.Stats.FilesParsed++
		} else {
			result.Stats.FilesFailed++
		}
		result.Stats.Unresolved += rep.Unresolved
		result.Stats.Ambiguous += rep.Ambiguous
	}
	result.Stats.FilesTotal = len(result.Reports)
	result.Stats.Nodes = cg.NodeCount()
	result.Stats.Edges = cg.EdgeCount()
	result.Stats.Conflicts = cg.ConflictCount()

	return result, nil
}

// resolveFile resolves one file's pending calls into its FileResult.
//
// The result carries the file's declared nodes plus every resolved
// callee node, so results stay self-contained and merge in any order.
func resolveFile(ctx context.Context, cfg *config.Config, resolver *symtab.Resolver, pf *parsedFile) *graph.FileResult {
	table := pf.table
	fr := &graph.FileResult{Path: table.FilePath}

	for _, decl := range table.Decls {
		fr.Nodes = append(fr.Nodes, graph.NodeFromDecl(decl))
	}

	seen := make(map[string]bool)
	for _, call := range table.Calls {
		res := resolver.Resolve(table, call)
		switch res.Outcome {
		case symtab.OutcomeResolved:
			callee := graph.NodeFromDecl(res.Target)
			if callee.FilePath != table.FilePath && !seen[callee.ID] {
				fr.Nodes = append(fr.Nodes, callee)
				seen[callee.ID] = true
			}
			fr.Edges = append(fr.Edges, graph.CallEdge{
				From: call.Caller.ID(),
				To:   callee.ID,
				Line: call.Site.Line,
			})
		case symtab.OutcomeAmbiguous:
			pf.report.Ambiguous++
			if cfg.ReportUnresolved {
				slog.Debug("ambiguous call",
					slog.String("file", table.FilePath),
					slog.String("callee", call.Site.Callee),
					slog.Int("line", call.Site.Line))
			}
		default:
			pf.report.Unresolved++
			if cfg.ReportUnresolved {
				slog.Debug("unresolved call",
					slog.String("file", table.FilePath),
					slog.String("callee", call.Site.Callee),
					slog.Int("line", call.Site.Line))
			}
		}
	}

	pf.report.Edges = len(fr.Edges)
	recordResolutionMetrics(ctx, symtab.OutcomeResolved.String(), pf.report.Edges)
	recordResolutionMetrics(ctx, symtab.OutcomeUnresolved.String(), pf.report.Unresolved)
	recordResolutionMetrics(ctx, symtab.OutcomeAmbiguous.String(), pf.report.Ambiguous)
	return fr
}

// workers returns the configured parallelism, defaulting to one worker
// per CPU.
func (a *Analyzer) workers() int {
	if a.cfg.Workers > 0 {
		return a.cfg.Workers
	}
	return runtime.NumCPU()
}
