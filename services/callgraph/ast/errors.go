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
	"errors"
	"fmt"
)

// Sentinel errors for parse failure conditions.
//
// These errors can be checked using errors.Is() to determine the
// category of failure without inspecting error messages. Parse failures
// are per-file and never fatal to a run: the analyzer skips the file and
// reports the failure.
var (
	// ErrParseFailed indicates that parsing failed completely and no
	// useful compilation unit could be produced.
	ErrParseFailed = errors.New("parse failed")

	// ErrFileTooLarge indicates the source exceeds the parser's
	// configured maximum file size.
	ErrFileTooLarge = errors.New("file too large")

	// ErrInvalidContent indicates the content is not valid UTF-8 or is
	// otherwise not processable as Java source text.
	ErrInvalidContent = errors.New("invalid content")

	// ErrAlreadyWalked indicates a second Walk call on a compilation
	// unit. The event stream is one traversal per unit per run.
	ErrAlreadyWalked = errors.New("compilation unit already walked")
)

// ParseError provides detailed information about a parse failure.
//
// ParseError wraps an underlying error with the file location context.
// It implements the error interface and can be unwrapped to access the
// underlying cause.
type ParseError struct {
	// FilePath is the path to the file where the error occurred.
	FilePath string

	// Line is the 1-indexed line number, 0 if unknown.
	Line int

	// Column is the 0-indexed column number, 0 if unknown.
	Column int

	// Message describes the error in human-readable form.
	Message string

	// Cause is the underlying error, may be nil.
	Cause error
}

// Error returns a formatted error message including file location.
func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.FilePath, e.Line, e.Column, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.FilePath, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.FilePath, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// WrapParseError wraps an error with file context.
//
// If the error is already a ParseError it is returned unchanged;
// otherwise a new ParseError wrapping the original is created.
// Returns nil if err is nil.
func WrapParseError(err error, filePath string) error {
	if err == nil {
		return nil
	}

	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return err
	}

	return &ParseError{
		FilePath: filePath,
		Message:  err.Error(),
		Cause:    err,
	}
}

// IsParseFailed checks if an error indicates a complete parse failure.
func IsParseFailed(err error) bool {
	return errors.Is(err, ErrParseFailed)
}
