// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

// DefaultMaxFileSize is the maximum file size the parser accepts by
// default (10MB). Larger sources are rejected with ErrFileTooLarge.
const DefaultMaxFileSize = 10 * 1024 * 1024

// WarnFileSize is the size above which a warning is logged (1MB).
const WarnFileSize = 1 * 1024 * 1024

// JavaParserOption configures a JavaParser instance.
type JavaParserOption func(*JavaParser)

// WithMaxFileSize sets the maximum file size the parser will accept.
//
// Parameters:
//   - bytes: Maximum file size in bytes. Must be positive.
func WithMaxFileSize(bytes int64) JavaParserOption {
	return func(p *JavaParser) {
		if bytes > 0 {
			p.maxFileSize = bytes
		}
	}
}

// Import is a single import declaration extracted from a compilation unit.
//
// Imports are best-effort, syntactic hints: the resolver may use them to
// prefer a class from the imported package when several classes in the
// run share a simple name.
type Import struct {
	// Path is the imported qualified name, without any trailing ".*".
	Path string `json:"path"`

	// IsWildcard is true for on-demand imports (import foo.bar.*).
	IsWildcard bool `json:"is_wildcard,omitempty"`

	// IsStatic is true for static imports.
	IsStatic bool `json:"is_static,omitempty"`

	// Line is the 1-indexed line of the import declaration.
	Line int `json:"line"`
}

// SimpleName returns the last segment of the import path, or "" for
// wildcard imports.
func (i Import) SimpleName() string {
	if i.IsWildcard {
		return ""
	}
	if idx := strings.LastIndex(i.Path, "."); idx >= 0 {
		return i.Path[idx+1:]
	}
	return i.Path
}

// CompilationUnit is one parsed Java source file.
//
// A CompilationUnit owns its tree-sitter tree until Walk or Close is
// called. The event stream produced by Walk is finite and single-use:
// the tree is released when the traversal completes.
type CompilationUnit struct {
	// FilePath is the path the unit was parsed from, relative to the
	// analysis root.
	FilePath string

	// Package is the declared package name, "" for the default package.
	Package string

	// Imports lists the unit's import declarations in source order.
	Imports []Import

	// Hash is the SHA256 hex digest of the source content at parse time.
	Hash string

	// HasSyntaxErrors is true when tree-sitter flagged errors in the
	// tree. Extraction still proceeds over the recoverable parts.
	HasSyntaxErrors bool

	// ParsedAtMilli is the Unix timestamp in milliseconds when parsing
	// completed.
	ParsedAtMilli int64

	tree    *sitter.Tree
	content []byte
	walked  bool
}

// Close releases the underlying tree-sitter tree. Safe to call more
// than once; Walk closes the unit implicitly.
func (u *CompilationUnit) Close() {
	if u.tree != nil {
		u.tree.Close()
		u.tree = nil
	}
}

// JavaParser parses Java source files into compilation units.
//
// Description:
//
//	JavaParser uses tree-sitter to parse Java source and exposes the
//	result as a CompilationUnit whose Walk method yields declaration
//	and invocation events. It is error-tolerant: sources with syntax
//	errors still produce a unit with HasSyntaxErrors set, and events
//	are extracted from the recoverable parts of the tree.
//
// Thread Safety:
//
//	JavaParser instances are safe for concurrent use. Each Parse call
//	creates its own tree-sitter parser instance internally.
type JavaParser struct {
	maxFileSize int64
}

// NewJavaParser creates a new JavaParser with the given options.
//
// Example:
//
//	parser := NewJavaParser(WithMaxFileSize(5 * 1024 * 1024))
//	unit, err := parser.Parse(ctx, content, "src/Main.java")
func NewJavaParser(opts ...JavaParserOption) *JavaParser {
	p := &JavaParser{
		maxFileSize: DefaultMaxFileSize,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Language returns the canonical language name for this parser.
func (p *JavaParser) Language() string {
	return "java"
}

// Extensions returns the file extensions this parser handles.
func (p *JavaParser) Extensions() []string {
	return []string{".java"}
}

// Parse parses Java source content into a CompilationUnit.
//
// Description:
//
//	Validates the content, parses it with tree-sitter, and extracts
//	the package declaration and imports eagerly. Declarations and
//	invocations are extracted lazily by CompilationUnit.Walk.
//
// Inputs:
//   - ctx: Context for cancellation. Checked before and after parsing;
//     tree-sitter parsing itself cannot be interrupted mid-parse.
//   - content: Raw Java source bytes. Must be valid UTF-8.
//   - filePath: Path to the file, relative to the analysis root, using
//     forward slashes.
//
// Outputs:
//   - *CompilationUnit: The parsed unit. Never nil on success. The
//     caller must call Walk or Close to release the tree.
//   - error: Non-nil for complete failures: ErrFileTooLarge,
//     ErrInvalidContent, ErrParseFailed, or a context error.
//
// Thread Safety:
//
//	This method is safe for concurrent use.
func (p *JavaParser) Parse(ctx context.Context, content []byte, filePath string) (*CompilationUnit, error) {
	ctx, span := startParseSpan(ctx, filePath, len(content))
	defer span.End()

	start := time.Now()

	if err := ctx.Err(); err != nil {
		recordParseMetrics(ctx, time.Since(start), false)
		return nil, fmt.Errorf("parse canceled before start: %w", err)
	}

	if int64(len(content)) > p.maxFileSize {
		recordParseMetrics(ctx, time.Since(start), false)
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(content), p.maxFileSize)
	}

	if len(content) > WarnFileSize {
		slog.Warn("parsing large file",
			slog.String("file", filePath),
			slog.Int("size_bytes", len(content)))
	}

	if !utf8.Valid(content) {
		recordParseMetrics(ctx, time.Since(start), false)
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent)
	}

	hash := sha256.Sum256(content)

	// New tree-sitter parser per call for thread safety.
	parser := sitter.NewParser()
	parser.SetLanguage(java.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		recordParseMetrics(ctx, time.Since(start), false)
		return nil, fmt.Errorf("%w: tree-sitter: %v", ErrParseFailed, err)
	}

	if err := ctx.Err(); err != nil {
		tree.Close()
		recordParseMetrics(ctx, time.Since(start), false)
		return nil, fmt.Errorf("parse canceled after tree-sitter: %w", err)
	}

	root := tree.RootNode()
	if root == nil {
		tree.Close()
		recordParseMetrics(ctx, time.Since(start), false)
		return nil, fmt.Errorf("%w: tree-sitter returned nil root node", ErrParseFailed)
	}

	unit := &CompilationUnit{
		FilePath:        filePath,
		Hash:            hex.EncodeToString(hash[:]),
		HasSyntaxErrors: root.HasError(),
		ParsedAtMilli:   time.Now().UnixMilli(),
		tree:            tree,
		content:         content,
	}

	p.extractHeader(root, content, unit)

	setParseSpanResult(span, unit.HasSyntaxErrors)
	recordParseMetrics(ctx, time.Since(start), true)

	return unit, nil
}

// extractHeader extracts the package declaration and imports.
func (p *JavaParser) extractHeader(root *sitter.Node, content []byte, unit *CompilationUnit) {
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "package_declaration":
			unit.Package = extractQualifiedName(child, content)
		case "import_declaration":
			if imp, ok := extractImport(child, content); ok {
				unit.Imports = append(unit.Imports, imp)
			}
		}
	}
}

// extractQualifiedName returns the text of the first identifier or
// scoped_identifier child, "" if none is present.
func extractQualifiedName(node *sitter.Node, content []byte) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "scoped_identifier", "identifier":
			return string(content[child.StartByte():child.EndByte()])
		}
	}
	return ""
}

// extractImport parses one import_declaration node.
func extractImport(node *sitter.Node, content []byte) (Import, bool) {
	imp := Import{Line: int(node.StartPoint().Row + 1)}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "static":
			imp.IsStatic = true
		case "asterisk":
			imp.IsWildcard = true
		case "scoped_identifier", "identifier":
			imp.Path = string(content[child.StartByte():child.EndByte()])
		}
	}

	if imp.Path == "" {
		return Import{}, false
	}
	return imp, true
}
