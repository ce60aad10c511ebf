// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ast provides the Java parser front end and syntax tree walker
// for call-graph extraction.
//
// The package wraps tree-sitter Java parsing behind a JavaParser component
// and exposes a single-pass, pre-order event stream over each compilation
// unit. Consumers (the symtab package) receive declaration and invocation
// events in source order and build per-file symbol tables from them.
//
// Design principles:
//   - Syntactic only: no type checking, no cross-file inference
//   - Error-tolerant: a tree with syntax errors still yields events
//   - One traversal per compilation unit per run; the event stream is
//     finite and not restartable
package ast

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ConstructorName is the synthetic method name used for constructor bodies
// and instance initializer blocks, matching JVM conventions.
const ConstructorName = "<init>"

// StaticInitName is the synthetic method name used for static initializer
// blocks and static field initializers.
const StaticInitName = "<clinit>"

// ArityUnknown marks a call site whose argument count cannot be determined
// syntactically (method references such as Foo::bar). Such calls resolve
// only when the target name has a single overload.
const ArityUnknown = -1

// ReceiverKind classifies the receiver expression of an invocation site.
//
// The resolver uses the kind to pick the scope an unqualified or qualified
// call is matched against. Receivers that are arbitrary expressions
// (chained calls, field accesses) are ReceiverOther and never resolve.
type ReceiverKind int

const (
	// ReceiverNone indicates a bare call with no receiver: foo().
	ReceiverNone ReceiverKind = iota

	// ReceiverThis indicates an explicit this receiver: this.foo().
	ReceiverThis

	// ReceiverSuper indicates a super receiver: super.foo().
	ReceiverSuper

	// ReceiverQualified indicates a simple identifier receiver that may
	// name a class seen elsewhere in the run: Foo.bar().
	ReceiverQualified

	// ReceiverOther indicates any other receiver expression (chained
	// calls, field accesses, casts). Calls with this kind are recorded
	// but never resolved.
	ReceiverOther
)

// receiverKindNames maps ReceiverKind values to their string representations.
var receiverKindNames = map[ReceiverKind]string{
	ReceiverNone:      "none",
	ReceiverThis:      "this",
	ReceiverSuper:     "super",
	ReceiverQualified: "qualified",
	ReceiverOther:     "other",
}

// String returns the string representation of the ReceiverKind.
func (k ReceiverKind) String() string {
	if name, ok := receiverKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON serializes the kind as a JSON string for readability.
func (k ReceiverKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// ClassDecl describes a class-like declaration site as seen by the walker.
//
// Interfaces, enums, records and annotation types are all class-like
// scopes for resolution purposes. Anonymous classes carry a synthetic
// disambiguating name assigned by the walker (e.g. "Runnable$1").
type ClassDecl struct {
	// Name is the simple class name, including any synthetic suffix for
	// anonymous classes.
	Name string `json:"name"`

	// Extends is the declared superclass simple name, or "" if none is
	// present in the class header. Generic arguments are stripped.
	Extends string `json:"extends,omitempty"`

	// Implements lists the declared interface simple names.
	Implements []string `json:"implements,omitempty"`

	// Line is the 1-indexed line of the declaration.
	Line int `json:"line"`

	// Anonymous is true for anonymous class bodies created at an
	// object_creation_expression.
	Anonymous bool `json:"anonymous,omitempty"`
}

// MethodSig describes a method-like declaration site as seen by the walker.
//
// Constructor bodies surface with Name "<init>", static initializers with
// Name "<clinit>", and lambda bodies with a synthetic "lambda$N" name.
// The symtab builder turns a MethodSig plus its enclosing scope context
// into a full MethodDecl.
type MethodSig struct {
	// Name is the simple method name or a synthetic name (see above).
	Name string `json:"name"`

	// Arity is the declared parameter count.
	Arity int `json:"arity"`

	// Params holds the declared parameter type texts, in order.
	Params []string `json:"params,omitempty"`

	// ReturnType is the declared return type text, "" for constructors
	// and initializers.
	ReturnType string `json:"return_type,omitempty"`

	// Line is the 1-indexed line of the declaration.
	Line int `json:"line"`

	// Synthetic is true for <init>/<clinit>/lambda scopes that do not
	// correspond to a named method declaration in source.
	Synthetic bool `json:"synthetic,omitempty"`
}

// CallSite describes one invocation expression.
type CallSite struct {
	// Callee is the invoked simple method name ("<init>" for constructor
	// invocations including new-expressions).
	Callee string `json:"callee"`

	// ReceiverKind classifies the receiver expression.
	ReceiverKind ReceiverKind `json:"receiver_kind"`

	// Receiver is the raw receiver text for ReceiverQualified and
	// ReceiverOther, "" otherwise.
	Receiver string `json:"receiver,omitempty"`

	// Args is the argument count at the call site, or ArityUnknown for
	// method references.
	Args int `json:"args"`

	// Line is the 1-indexed line of the invocation.
	Line int `json:"line"`
}

// EventKind identifies the kind of a walker event.
//
// The walker emits a closed set of event kinds; dispatch over them
// replaces the per-node-type listener callbacks of classic parse-tree
// walkers.
type EventKind int

const (
	// EventEnterClass is emitted when the walker enters a class-like body.
	EventEnterClass EventKind = iota

	// EventExitClass is emitted when the walker leaves a class-like body.
	EventExitClass

	// EventEnterMethod is emitted when the walker enters a method-like body.
	EventEnterMethod

	// EventExitMethod is emitted when the walker leaves a method-like body.
	EventExitMethod

	// EventInvocation is emitted at each call expression, tagged with the
	// scope context established by the preceding enter events.
	EventInvocation
)

// eventKindNames maps EventKind values to their string representations.
var eventKindNames = map[EventKind]string{
	EventEnterClass:  "enter_class",
	EventExitClass:   "exit_class",
	EventEnterMethod: "enter_method",
	EventExitMethod:  "exit_method",
	EventInvocation:  "invocation",
}

// String returns the string representation of the EventKind.
func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event is one element of the walker's pre-order event stream.
//
// Exactly one of Class, Method, Call is non-nil, matching Kind. Enter and
// exit events for the same declaration carry the same payload pointer.
type Event struct {
	Kind   EventKind
	Class  *ClassDecl
	Method *MethodSig
	Call   *CallSite
}

// EventFunc consumes walker events. Returning a non-nil error aborts the
// traversal and is propagated out of Walk.
type EventFunc func(Event) error

// MethodDecl is a fully qualified method declaration record.
//
// MethodDecl is the unit of node identity in the call graph: two
// declarations with the same ID are the same logical node regardless of
// which file contributed them first. The symtab builder constructs
// MethodDecl values by combining walker MethodSig events with the scope
// context it tracks.
type MethodDecl struct {
	// Name is the simple method name or synthetic name.
	Name string `json:"name"`

	// ClassName is the enclosing class chain joined with dots, e.g.
	// "Outer.Inner" or "Handler.Runnable$1". Empty when the declaration
	// has no resolvable enclosing class.
	ClassName string `json:"class_name"`

	// Package is the declaring compilation unit's package name, or ""
	// for the default package.
	Package string `json:"package,omitempty"`

	// Arity is the declared parameter count.
	Arity int `json:"arity"`

	// Params holds parameter type texts for diagnostics.
	Params []string `json:"params,omitempty"`

	// ReturnType is the declared return type text.
	ReturnType string `json:"return_type,omitempty"`

	// FilePath is the declaring file, relative to the analysis root.
	FilePath string `json:"file_path"`

	// Line is the 1-indexed declaration line.
	Line int `json:"line"`

	// DeclIndex is the zero-based source order of the declaration within
	// its class scope. Used as the resolver tie-break for overload groups.
	DeclIndex int `json:"decl_index"`

	// Synthetic is true for <init>/<clinit>/lambda declarations.
	Synthetic bool `json:"synthetic,omitempty"`
}

// QualifiedName returns the package-and-class-qualified method name,
// e.g. "com.example.Outer.Inner.run". Missing package or class segments
// are replaced by a synthetic placeholder so identities remain unique
// and stable.
func (d *MethodDecl) QualifiedName() string {
	class := d.ClassName
	if class == "" {
		class = "$file:" + d.FilePath
	}
	if d.Package == "" {
		return class + "." + d.Name
	}
	return d.Package + "." + class + "." + d.Name
}

// ID returns the global node identity: qualified name plus arity.
//
// Format: "pkg.Class.method/2". The arity suffix keeps overloads apart
// in the global graph.
func (d *MethodDecl) ID() string {
	return fmt.Sprintf("%s/%d", d.QualifiedName(), d.Arity)
}

// Validate checks the declaration's field values.
//
// Returns nil if valid, or an error describing the first invalid field.
func (d *MethodDecl) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("Name: must not be empty")
	}
	if d.FilePath == "" {
		return fmt.Errorf("FilePath: must not be empty")
	}
	if strings.Contains(d.FilePath, "..") {
		return fmt.Errorf("FilePath: must not contain path traversal (..)")
	}
	if d.Line < 1 {
		return fmt.Errorf("Line: must be >= 1 (1-indexed)")
	}
	if d.Arity < 0 {
		return fmt.Errorf("Arity: must be >= 0")
	}
	return nil
}
