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
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Walk traverses the compilation unit in pre-order, depth-first source
// order and emits declaration and invocation events to emit.
//
// Description:
//
//	Walk is the single extraction pass over the syntax tree. Class-like
//	declarations produce EnterClass/ExitClass pairs, method-like
//	declarations produce EnterMethod/ExitMethod pairs, and every call
//	expression produces an Invocation event inside whatever scope the
//	preceding enter events established. Constructors surface as "<init>",
//	static initializers and static field initializers as "<clinit>",
//	instance initializers as "<init>", lambdas as "lambda$N", and
//	anonymous classes as "Base$N".
//
// Inputs:
//   - ctx: Context for cancellation. Checked at every scope boundary.
//   - emit: Callback receiving events in source order. A non-nil return
//     aborts the traversal and is returned unchanged.
//
// Outputs:
//   - error: ErrAlreadyWalked on a second call, a context error on
//     cancellation, or the first error returned by emit.
//
// Thread Safety:
//
//	Walk is NOT safe for concurrent use on the same unit. The event
//	stream is finite and single-use; the tree is released when Walk
//	returns.
func (u *CompilationUnit) Walk(ctx context.Context, emit EventFunc) error {
	if u.walked {
		return fmt.Errorf("%w: %s", ErrAlreadyWalked, u.FilePath)
	}
	u.walked = true
	defer u.Close()

	if u.tree == nil {
		return fmt.Errorf("%w: tree already released: %s", ErrParseFailed, u.FilePath)
	}

	w := &treeWalker{
		ctx:        ctx,
		content:    u.content,
		emit:       emit,
		anonCounts: make(map[string]int),
	}

	err := w.walk(u.tree.RootNode())
	recordWalkMetrics(ctx, w.events)
	return err
}

// treeWalker holds per-traversal state.
type treeWalker struct {
	ctx     context.Context
	content []byte
	emit    EventFunc
	events  int

	// anonCounts numbers anonymous class bodies per base type name, so
	// the second `new Runnable() {...}` becomes "Runnable$2".
	anonCounts map[string]int

	// lambdaCount numbers lambda scopes within the compilation unit.
	lambdaCount int
}

// classLikeTypes are the node types that open a class scope.
var classLikeTypes = map[string]bool{
	"class_declaration":           true,
	"interface_declaration":       true,
	"enum_declaration":            true,
	"record_declaration":          true,
	"annotation_type_declaration": true,
}

func (w *treeWalker) send(ev Event) error {
	w.events++
	return w.emit(ev)
}

// walk dispatches one node and recurses into its children.
func (w *treeWalker) walk(node *sitter.Node) error {
	if node == nil {
		return nil
	}

	switch t := node.Type(); {
	case classLikeTypes[t]:
		return w.walkClass(node)
	case t == "method_declaration":
		return w.walkMethod(node, w.text(node.ChildByFieldName("name")), false)
	case t == "constructor_declaration", t == "compact_constructor_declaration":
		return w.walkMethod(node, ConstructorName, false)
	case t == "static_initializer":
		return w.walkInitializer(node, StaticInitName)
	case t == "lambda_expression":
		return w.walkLambda(node)
	case t == "method_invocation":
		return w.walkInvocation(node)
	case t == "object_creation_expression":
		return w.walkObjectCreation(node)
	case t == "explicit_constructor_invocation":
		return w.walkExplicitConstructorCall(node)
	case t == "method_reference":
		return w.walkMethodReference(node)
	}

	return w.walkChildren(node)
}

func (w *treeWalker) walkChildren(node *sitter.Node) error {
	for i := 0; i < int(node.ChildCount()); i++ {
		if err := w.walk(node.Child(i)); err != nil {
			return err
		}
	}
	return nil
}

// walkClass emits the class scope pair and handles body members,
// attributing initializer code to synthetic methods.
func (w *treeWalker) walkClass(node *sitter.Node) error {
	if err := w.ctx.Err(); err != nil {
		return err
	}

	decl := &ClassDecl{
		Name: w.text(node.ChildByFieldName("name")),
		Line: int(node.StartPoint().Row + 1),
	}
	w.extractClassHeader(node, decl)

	if decl.Name == "" {
		// Unnamed fragment from a syntax error; skip the scope but keep
		// scanning its subtree for nested declarations.
		return w.walkChildren(node)
	}

	return w.emitClassScope(decl, node.ChildByFieldName("body"))
}

// emitClassScope sends the enter/exit pair around the class body walk.
func (w *treeWalker) emitClassScope(decl *ClassDecl, body *sitter.Node) error {
	if err := w.send(Event{Kind: EventEnterClass, Class: decl}); err != nil {
		return err
	}
	if body != nil {
		if err := w.walkClassBody(body); err != nil {
			return err
		}
	}
	return w.send(Event{Kind: EventExitClass, Class: decl})
}

// walkClassBody walks the direct members of a class body. Field
// initializers and bare initializer blocks are wrapped in synthetic
// <init>/<clinit> scopes; everything else dispatches normally.
func (w *treeWalker) walkClassBody(body *sitter.Node) error {
	for i := 0; i < int(body.ChildCount()); i++ {
		member := body.Child(i)
		if member == nil {
			continue
		}
		var err error
		switch member.Type() {
		case "block":
			// Instance initializer block.
			err = w.walkInitializer(member, ConstructorName)
		case "field_declaration", "enum_body_declarations":
			err = w.walkFieldMember(member)
		default:
			err = w.walk(member)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// walkFieldMember attributes calls in a field initializer to <clinit>
// for static fields and <init> otherwise. Fields whose initializers
// contain no calls produce no synthetic scope.
func (w *treeWalker) walkFieldMember(member *sitter.Node) error {
	if member.Type() == "enum_body_declarations" {
		return w.walkClassBody(member)
	}
	if !containsInvocation(member) {
		return nil
	}
	name := ConstructorName
	if hasStaticModifier(member, w.content) {
		name = StaticInitName
	}
	return w.walkInitializer(member, name)
}

// walkInitializer wraps an initializer body in a synthetic arity-0
// method scope.
func (w *treeWalker) walkInitializer(node *sitter.Node, name string) error {
	sig := &MethodSig{
		Name:      name,
		Arity:     0,
		Line:      int(node.StartPoint().Row + 1),
		Synthetic: true,
	}
	return w.emitMethodScope(sig, node)
}

// walkMethod handles method and constructor declarations.
func (w *treeWalker) walkMethod(node *sitter.Node, name string, synthetic bool) error {
	if err := w.ctx.Err(); err != nil {
		return err
	}

	if name == "" {
		return w.walkChildren(node)
	}

	params := formalParamTypes(node.ChildByFieldName("parameters"), w.content)
	sig := &MethodSig{
		Name:       name,
		Arity:      len(params),
		Params:     params,
		ReturnType: w.text(node.ChildByFieldName("type")),
		Line:       int(node.StartPoint().Row + 1),
		Synthetic:  synthetic,
	}

	return w.emitMethodScope(sig, node.ChildByFieldName("body"))
}

// walkLambda treats a lambda as a synthetic anonymous method scope. Calls
// in the lambda body resolve against the enclosing class like any other
// member body.
//
// A lambda body may be a block or a bare expression. An expression body
// is dispatched as a node in its own right: for `e -> handle()` the body
// IS the invocation, and walking only its children would drop the call.
func (w *treeWalker) walkLambda(node *sitter.Node) error {
	w.lambdaCount++
	sig := &MethodSig{
		Name:      fmt.Sprintf("lambda$%d", w.lambdaCount),
		Arity:     lambdaArity(node.ChildByFieldName("parameters")),
		Line:      int(node.StartPoint().Row + 1),
		Synthetic: true,
	}

	if err := w.send(Event{Kind: EventEnterMethod, Method: sig}); err != nil {
		return err
	}
	if body := node.ChildByFieldName("body"); body != nil {
		if err := w.walk(body); err != nil {
			return err
		}
	}
	return w.send(Event{Kind: EventExitMethod, Method: sig})
}

// emitMethodScope sends the enter/exit pair around the body walk.
func (w *treeWalker) emitMethodScope(sig *MethodSig, body *sitter.Node) error {
	if err := w.send(Event{Kind: EventEnterMethod, Method: sig}); err != nil {
		return err
	}
	if body != nil {
		if err := w.walkChildren(body); err != nil {
			return err
		}
	}
	return w.send(Event{Kind: EventExitMethod, Method: sig})
}

// walkInvocation emits a call event for a method_invocation node, then
// recurses into the receiver and arguments for nested calls.
func (w *treeWalker) walkInvocation(node *sitter.Node) error {
	call := &CallSite{
		Callee: w.text(node.ChildByFieldName("name")),
		Args:   argumentCount(node.ChildByFieldName("arguments")),
		Line:   int(node.StartPoint().Row + 1),
	}
	call.ReceiverKind, call.Receiver = w.classifyReceiver(node.ChildByFieldName("object"))

	if call.Callee != "" {
		if err := w.send(Event{Kind: EventInvocation, Call: call}); err != nil {
			return err
		}
	}

	if err := w.walk(node.ChildByFieldName("object")); err != nil {
		return err
	}
	return w.walk(node.ChildByFieldName("arguments"))
}

// walkObjectCreation emits a constructor call for `new Foo(...)` and, for
// anonymous class bodies, a suffixed class scope around the body.
func (w *treeWalker) walkObjectCreation(node *sitter.Node) error {
	base := typeSimpleName(node.ChildByFieldName("type"), w.content)

	if base != "" {
		call := &CallSite{
			Callee:       ConstructorName,
			ReceiverKind: ReceiverQualified,
			Receiver:     base,
			Args:         argumentCount(node.ChildByFieldName("arguments")),
			Line:         int(node.StartPoint().Row + 1),
		}
		if err := w.send(Event{Kind: EventInvocation, Call: call}); err != nil {
			return err
		}
	}

	if err := w.walk(node.ChildByFieldName("arguments")); err != nil {
		return err
	}

	// An object creation with a class_body child declares an anonymous
	// class; its members live in a fresh suffixed scope.
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil || child.Type() != "class_body" {
			continue
		}
		name := base
		if name == "" {
			name = "Anonymous"
		}
		w.anonCounts[name]++
		decl := &ClassDecl{
			Name:      fmt.Sprintf("%s$%d", name, w.anonCounts[name]),
			Extends:   base,
			Line:      int(child.StartPoint().Row + 1),
			Anonymous: true,
		}
		if err := w.emitClassScope(decl, child); err != nil {
			return err
		}
	}
	return nil
}

// walkExplicitConstructorCall handles `this(...)` and `super(...)`
// statements inside constructor bodies.
func (w *treeWalker) walkExplicitConstructorCall(node *sitter.Node) error {
	kind := ReceiverThis
	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(i); child != nil && child.Type() == "super" {
			kind = ReceiverSuper
			break
		}
	}

	call := &CallSite{
		Callee:       ConstructorName,
		ReceiverKind: kind,
		Args:         argumentCount(node.ChildByFieldName("arguments")),
		Line:         int(node.StartPoint().Row + 1),
	}
	if err := w.send(Event{Kind: EventInvocation, Call: call}); err != nil {
		return err
	}
	return w.walk(node.ChildByFieldName("arguments"))
}

// walkMethodReference handles `Foo::bar` and `Foo::new`. The argument
// count is unknown syntactically, so Args is ArityUnknown and the
// resolver only matches single-overload targets.
func (w *treeWalker) walkMethodReference(node *sitter.Node) error {
	call := &CallSite{
		Args: ArityUnknown,
		Line: int(node.StartPoint().Row + 1),
	}

	var receiver *sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "::", "type_arguments":
			continue
		case "new":
			call.Callee = ConstructorName
		case "identifier":
			if receiver == nil && i == 0 {
				receiver = child
			} else {
				call.Callee = w.text(child)
			}
		default:
			if receiver == nil && i == 0 {
				receiver = child
			}
		}
	}

	call.ReceiverKind, call.Receiver = w.classifyReceiver(receiver)
	if call.Callee == ConstructorName && call.Receiver == "" && receiver != nil {
		// Constructor reference through a type node: Foo::new.
		if name := typeSimpleName(receiver, w.content); name != "" {
			call.ReceiverKind, call.Receiver = ReceiverQualified, name
		}
	}

	if call.Callee == "" {
		return nil
	}
	return w.send(Event{Kind: EventInvocation, Call: call})
}

// classifyReceiver maps a receiver expression node to its kind.
func (w *treeWalker) classifyReceiver(object *sitter.Node) (ReceiverKind, string) {
	if object == nil {
		return ReceiverNone, ""
	}
	switch object.Type() {
	case "this":
		return ReceiverThis, ""
	case "super":
		return ReceiverSuper, ""
	case "identifier", "type_identifier":
		return ReceiverQualified, w.text(object)
	default:
		return ReceiverOther, w.text(object)
	}
}

// extractClassHeader pulls extends/implements simple names off a
// class-like declaration. Interface extends lists land in Implements.
func (w *treeWalker) extractClassHeader(node *sitter.Node, decl *ClassDecl) {
	if sc := node.ChildByFieldName("superclass"); sc != nil {
		for i := 0; i < int(sc.ChildCount()); i++ {
			child := sc.Child(i)
			if child == nil || child.Type() == "extends" {
				continue
			}
			if name := typeSimpleName(child, w.content); name != "" {
				decl.Extends = name
				break
			}
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "super_interfaces", "extends_interfaces":
			collectTypeList(child, w.content, &decl.Implements)
		}
	}
}

// collectTypeList appends the simple names of every type in a type_list
// subtree to out. Only named children are types; keyword and separator
// tokens are unnamed and skipped.
func collectTypeList(node *sitter.Node, content []byte, out *[]string) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		if child.Type() == "type_list" {
			collectTypeList(child, content, out)
			continue
		}
		if name := typeSimpleName(child, content); name != "" {
			*out = append(*out, name)
		}
	}
}

// text returns the source text of a node, "" for nil.
func (w *treeWalker) text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(w.content[node.StartByte():node.EndByte()])
}

// formalParamTypes returns the declared parameter type texts of a
// formal_parameters node in order. Receiver parameters do not count.
func formalParamTypes(params *sitter.Node, content []byte) []string {
	if params == nil {
		return nil
	}
	var types []string
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		if p == nil {
			continue
		}
		switch p.Type() {
		case "formal_parameter", "spread_parameter":
			if t := p.ChildByFieldName("type"); t != nil {
				types = append(types, string(content[t.StartByte():t.EndByte()]))
			} else {
				types = append(types, "")
			}
		}
	}
	return types
}

// lambdaArity counts the parameters of a lambda's parameter clause,
// which may be a bare identifier, inferred_parameters, or
// formal_parameters.
func lambdaArity(params *sitter.Node) int {
	if params == nil {
		return 0
	}
	switch params.Type() {
	case "identifier":
		return 1
	case "inferred_parameters", "formal_parameters":
		n := 0
		for i := 0; i < int(params.NamedChildCount()); i++ {
			if p := params.NamedChild(i); p != nil && p.Type() != "receiver_parameter" {
				n++
			}
		}
		return n
	}
	return 0
}

// argumentCount counts the arguments in an argument_list node.
func argumentCount(args *sitter.Node) int {
	if args == nil {
		return 0
	}
	return int(args.NamedChildCount())
}

// invocationTypes are the node types that make an initializer worth a
// synthetic scope.
var invocationTypes = map[string]bool{
	"method_invocation":          true,
	"object_creation_expression": true,
	"method_reference":           true,
}

// containsInvocation reports whether a subtree holds any call
// expression, without descending into nested class bodies.
func containsInvocation(node *sitter.Node) bool {
	if node == nil {
		return false
	}
	if invocationTypes[node.Type()] {
		return true
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if containsInvocation(node.Child(i)) {
			return true
		}
	}
	return false
}

// hasStaticModifier reports whether a declaration carries a static
// modifier keyword.
func hasStaticModifier(node *sitter.Node, content []byte) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil || child.Type() != "modifiers" {
			continue
		}
		for _, word := range strings.Fields(string(content[child.StartByte():child.EndByte()])) {
			if word == "static" {
				return true
			}
		}
	}
	return false
}

// typeSimpleName returns the simple class name of a type node: generic
// arguments are stripped and only the last dotted segment is kept.
func typeSimpleName(node *sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}
	text := string(content[node.StartByte():node.EndByte()])
	if idx := strings.IndexByte(text, '<'); idx >= 0 {
		text = text[:idx]
	}
	text = strings.TrimSpace(text)
	if idx := strings.LastIndexByte(text, '.'); idx >= 0 {
		text = text[idx+1:]
	}
	return text
}
