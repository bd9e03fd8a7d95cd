// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tstree

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// =============================================================================
// CONSTRUCT LOCATOR
// =============================================================================

// ConstructKind identifies the syntactic shape of a located construct.
type ConstructKind string

const (
	// KindFunction is a named free function declaration.
	KindFunction ConstructKind = "function"

	// KindMethod is a class or interface member method.
	KindMethod ConstructKind = "method"

	// KindArrow is an arrow or function expression bound to a simple
	// identifier declaration (const/let/class field).
	KindArrow ConstructKind = "arrow"
)

// Construct is a function-like unit with a resolved line span.
//
// StartLine and EndLine are 1-based and inclusive, taken from the
// construct's own start/end positions, never inferred from siblings.
type Construct struct {
	Name      string
	Kind      ConstructKind
	StartLine int
	EndLine   int

	// Node is the declaration node the span was taken from.
	Node *sitter.Node
}

// Locate yields every function/method/arrow construct in the tree.
//
// Description:
//
//	Depth-first traversal over the whole tree. Records:
//	  - function_declaration and generator_function_declaration
//	  - method_definition and method_signature members (constructor
//	    excluded; it is never a rule target)
//	  - arrow functions and function expressions bound to a simple
//	    identifier in a variable declarator or class field
//
//	Every node is visited exactly once. Results are in source order
//	because the traversal is pre-order over an ordered tree.
//
// Inputs:
//
//	tree - The parsed file tree.
//
// Outputs:
//
//	[]Construct - Located constructs in source order. Never nil.
func Locate(tree *Tree) []Construct {
	constructs := make([]Construct, 0, 16)

	Walk(tree.Root(), func(n *sitter.Node) bool {
		switch n.Type() {
		case "function_declaration", "generator_function_declaration":
			if name := fieldText(tree, n, "name"); name != "" {
				constructs = append(constructs, construct(name, KindFunction, n))
			}

		case "method_definition", "method_signature":
			name := fieldText(tree, n, "name")
			if name != "" && name != "constructor" {
				constructs = append(constructs, construct(name, KindMethod, n))
			}

		case "variable_declarator":
			if c, ok := boundFunction(tree, n); ok {
				constructs = append(constructs, c)
			}

		case "public_field_definition":
			// Class fields holding arrow functions are methods in
			// everything but syntax.
			if c, ok := boundFunction(tree, n); ok {
				constructs = append(constructs, c)
			}
		}
		return true
	})

	return constructs
}

// boundFunction resolves `const f = () => {}` and `field = () => {}`
// shapes: a simple identifier name whose value is function-like. The span
// covers the whole declarator so the binding line counts as part of the
// construct.
func boundFunction(tree *Tree, n *sitter.Node) (Construct, bool) {
	nameNode := n.ChildByFieldName("name")
	valueNode := n.ChildByFieldName("value")
	if nameNode == nil || valueNode == nil {
		return Construct{}, false
	}

	switch nameNode.Type() {
	case "identifier", "property_identifier":
	default:
		return Construct{}, false
	}

	switch valueNode.Type() {
	case "arrow_function", "function", "function_expression", "generator_function":
	default:
		return Construct{}, false
	}

	return construct(tree.Text(nameNode), KindArrow, n), true
}

func construct(name string, kind ConstructKind, n *sitter.Node) Construct {
	return Construct{
		Name:      name,
		Kind:      kind,
		StartLine: StartLine(n),
		EndLine:   EndLine(n),
		Node:      n,
	}
}

func fieldText(tree *Tree, n *sitter.Node, field string) string {
	child := n.ChildByFieldName(field)
	if child == nil {
		return ""
	}
	return tree.Text(child)
}
