// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rules

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/archguard/services/archgov/tstree"
)

// RuleIDTypeLiterals identifies the inline type-literal ban.
const RuleIDTypeLiterals = "no-type-literals"

// TypeLiteralsRule bans inline object and tuple type literals outside
// type-alias position. One level of aliasing is the sanctioned home
// for structural types; nesting a literal inside an alias body is
// still a violation.
type TypeLiteralsRule struct{}

// NewTypeLiteralsRule creates the rule.
func NewTypeLiteralsRule() *TypeLiteralsRule { return &TypeLiteralsRule{} }

// ID implements Rule.
func (r *TypeLiteralsRule) ID() string { return RuleIDTypeLiterals }

// DefaultMode implements Rule.
func (r *TypeLiteralsRule) DefaultMode() Mode { return ModeNewAndModified }

// Evaluate walks the tree for object_type and tuple_type nodes. A
// literal is allowed only when its direct parent is the alias
// declaration itself.
func (r *TypeLiteralsRule) Evaluate(fc *FileContext) ([]Violation, error) {
	if fc.Mode == ModeOff || fc.Tree == nil {
		return nil, nil
	}

	var out []Violation
	tstree.Walk(fc.Tree.Root(), func(n *sitter.Node) bool {
		var label string
		switch n.Type() {
		case "object_type":
			label = "object type literal"
		case "tuple_type":
			label = "tuple type literal"
		default:
			return true
		}

		if parent := n.Parent(); parent != nil && parent.Type() == "type_alias_declaration" {
			return true
		}

		line := tstree.StartLine(n)
		if !fc.LineInScope(line) || fc.Suppressed(RuleIDTypeLiterals, line) {
			return true
		}

		out = append(out, Violation{
			File:   fc.Path,
			Line:   line,
			Column: tstree.StartColumn(n),
			RuleID: RuleIDTypeLiterals,
			Message: fmt.Sprintf("inline %s in %s; extract a named type alias or interface",
				label, literalContext(n)),
		})
		return true
	})
	return out, nil
}

// literalContext names the syntactic position of a type literal for
// the diagnostic. The nearest enclosing position wins.
func literalContext(n *sitter.Node) string {
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p.Type() {
		case "union_type":
			return "a union member"
		case "intersection_type":
			return "an intersection member"
		case "array_type":
			return "an array element type"
		case "type_arguments":
			return "a generic type argument"
		case "required_parameter", "optional_parameter":
			return "a parameter type"
		case "variable_declarator":
			return "a variable type annotation"
		case "property_signature", "public_field_definition":
			return "a property type"
		case "function_declaration", "function_signature", "method_definition",
			"method_signature", "arrow_function":
			return "a return type"
		}
	}
	return "a type position"
}
