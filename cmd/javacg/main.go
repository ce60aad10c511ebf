// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command javacg builds a call graph from Java sources and writes it as
// Graphviz DOT or JSON.
//
// Usage:
//
//	javacg <path> [--output graph.dot] [--format dot|json] [--workers N]
//	       [--config file.yaml] [--per-file] [--verbose]
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/javacg/services/callgraph/analyzer"
	"github.com/AleutianAI/javacg/services/callgraph/config"
)

var (
	flagOutput  string
	flagFormat  string
	flagWorkers int
	flagConfig  string
	flagPerFile bool
	flagVerbose bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "javacg <path>",
		Short: "Build a method call graph from Java sources",
		Long: `javacg parses Java source files under <path>, resolves method calls
syntactically, and writes the combined call graph in Graphviz DOT or
JSON form. <path> may be a directory or a single .java file.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runAnalysis,
	}

	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "output file (default callgraph.<format>)")
	cmd.Flags().StringVarP(&flagFormat, "format", "f", "", "export format: dot or json")
	cmd.Flags().IntVarP(&flagWorkers, "workers", "w", 0, "concurrent workers (0 = one per CPU)")
	cmd.Flags().StringVarP(&flagConfig, "config", "c", "", "YAML config file")
	cmd.Flags().BoolVar(&flagPerFile, "per-file", false, "also write one <file>.dot next to each input")
	cmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	return cmd
}

func runAnalysis(cmd *cobra.Command, args []string) error {
	setupLogging(flagVerbose)

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	root, files, err := resolveInput(args[0], cfg.Exclude)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := analyzer.New(cfg).Run(ctx, root, files)
	if err != nil {
		return err
	}

	output := flagOutput
	if output == "" {
		output = "callgraph." + cfg.OutputFormat
	}
	if err := analyzer.ExportGraph(output, result.Graph, cfg.OutputFormat); err != nil {
		return err
	}

	if cfg.PerFile {
		n, err := analyzer.WritePerFileGraphs(root, result)
		if err != nil {
			return err
		}
		slog.Info("per-file graphs written", slog.Int("count", n))
	}

	printSummary(cmd, result, output)
	return nil
}

// applyFlagOverrides layers explicitly-set flags over the loaded config.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("format") {
		cfg.OutputFormat = strings.ToLower(flagFormat)
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = flagWorkers
	}
	if cmd.Flags().Changed("per-file") {
		cfg.PerFile = flagPerFile
	}
	if flagVerbose {
		cfg.ReportUnresolved = true
	}
}

// resolveInput turns the path argument into an analysis root and its
// relative file list. A single .java file analyzes just that file with
// its directory as the root.
func resolveInput(path string, exclude []string) (string, []string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", nil, fmt.Errorf("stat %s: %w", path, err)
	}

	root := path
	if !info.IsDir() {
		root = filepath.Dir(path)
	}

	files, err := analyzer.FindJavaFiles(path, exclude)
	if err != nil {
		return "", nil, err
	}
	return root, files, nil
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

func printSummary(cmd *cobra.Command, result *analyzer.RunResult, output string) {
	s := result.Stats
	cmd.Printf("Analyzed %d files (%d failed) in %s\n",
		s.FilesTotal, s.FilesFailed, result.Duration.Round(time.Millisecond))
	cmd.Printf("Graph: %d nodes, %d edges (%d unresolved, %d ambiguous calls)\n",
		s.Nodes, s.Edges, s.Unresolved, s.Ambiguous)
	if s.Conflicts > 0 {
		cmd.Printf("Warnings: %d node identity conflicts (first-seen kept)\n", s.Conflicts)
	}
	cmd.Printf("Wrote %s\n", output)
}
