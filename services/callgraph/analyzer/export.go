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
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/AleutianAI/javacg/services/callgraph/config"
	"github.com/AleutianAI/javacg/services/callgraph/graph"
)

// WriteGraph writes the frozen graph to w in the given format.
func WriteGraph(w io.Writer, g *graph.CallGraph, format string) error {
	switch format {
	case config.FormatJSON:
		return graph.WriteJSON(w, g)
	case config.FormatDOT:
		return graph.WriteDOT(w, g)
	default:
		return fmt.Errorf("%w: unknown format %q", ErrExportFailed, format)
	}
}

// ExportGraph writes the frozen graph to a file.
//
// A write failure here is terminal for the run and surfaces as
// ErrExportFailed with the underlying cause.
func ExportGraph(path string, g *graph.CallGraph, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrExportFailed, path, err)
	}

	if err := WriteGraph(f, g, format); err != nil {
		f.Close()
		return fmt.Errorf("%w: write %s: %v", ErrExportFailed, path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrExportFailed, path, err)
	}
	return nil
}

// WritePerFileGraphs writes one <file>.java.dot next to each analyzed
// input under root, built from that file's own contribution.
//
// Outputs:
//   - int: Number of per-file graphs written.
//   - error: ErrExportFailed on the first write failure.
func WritePerFileGraphs(root string, result *RunResult) (int, error) {
	written := 0
	for _, rep := range result.Reports {
		fr, ok := result.FileResults[rep.Path]
		if !ok {
			continue
		}

		fileGraph := graph.NewCallGraph()
		if err := fileGraph.Merge(fr); err != nil {
			return written, fmt.Errorf("%w: per-file graph %s: %v", ErrExportFailed, rep.Path, err)
		}
		fileGraph.Freeze()

		out := filepath.Join(root, filepath.FromSlash(rep.Path)) + ".dot"
		if err := ExportGraph(out, fileGraph, config.FormatDOT); err != nil {
			return written, err
		}
		written++
		slog.Debug("wrote per-file graph", slog.String("path", out))
	}
	return written, nil
}
