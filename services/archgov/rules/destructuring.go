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
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/archguard/services/archgov/tstree"
)

// RuleIDDestructuring identifies the destructuring ban.
const RuleIDDestructuring = "no-destructuring"

// DestructuringRule bans object and array binding patterns in variable
// declarations, for-of loops, and parameters.
//
// Structural exceptions:
//   - array destructuring of a Promise.allSettled result, whose tuple
//     shape is fixed by the call itself
//   - array destructuring iterating Object.entries, the canonical
//     key/value loop
//   - the rest element of an object pattern; a rest-only pattern
//     passes, while named siblings next to a rest are still flagged
type DestructuringRule struct{}

// NewDestructuringRule creates the rule.
func NewDestructuringRule() *DestructuringRule { return &DestructuringRule{} }

// ID implements Rule.
func (r *DestructuringRule) ID() string { return RuleIDDestructuring }

// DefaultMode implements Rule.
func (r *DestructuringRule) DefaultMode() Mode { return ModeNewAndModified }

// Evaluate flags binding-position patterns, applying the exceptions.
// Only the outermost pattern of a binding is inspected; nested
// patterns ride along with their root's verdict.
func (r *DestructuringRule) Evaluate(fc *FileContext) ([]Violation, error) {
	if fc.Mode == ModeOff || fc.Tree == nil {
		return nil, nil
	}

	var out []Violation
	tstree.Walk(fc.Tree.Root(), func(n *sitter.Node) bool {
		switch n.Type() {
		case "object_pattern", "array_pattern":
		default:
			return true
		}
		if !isBindingRoot(n) {
			return true
		}

		line := tstree.StartLine(n)
		if !fc.LineInScope(line) || fc.Suppressed(RuleIDDestructuring, line) {
			return false
		}

		if v, flagged := r.check(fc, n); flagged {
			out = append(out, v)
		}
		// Nested patterns are part of this binding.
		return false
	})
	return out, nil
}

// isBindingRoot reports whether the pattern is the binding target of a
// declaration, a parameter, or a for-of loop.
func isBindingRoot(n *sitter.Node) bool {
	parent := n.Parent()
	if parent == nil {
		return false
	}
	switch parent.Type() {
	case "variable_declarator", "required_parameter", "optional_parameter", "for_in_statement":
		return true
	default:
		return false
	}
}

func (r *DestructuringRule) check(fc *FileContext, n *sitter.Node) (Violation, bool) {
	parent := n.Parent()

	if n.Type() == "array_pattern" {
		if parent.Type() == "variable_declarator" && isAllSettledResult(fc, parent) {
			return Violation{}, false
		}
		if parent.Type() == "for_in_statement" && iteratesEntries(fc, parent) {
			return Violation{}, false
		}
		return r.violation(fc, n, "array destructuring; index the array or iterate it explicitly"), true
	}

	rest, named := splitObjectPattern(fc, n)
	if rest && len(named) == 0 {
		// Rest-only: the pattern just renames the remainder.
		return Violation{}, false
	}
	if rest {
		return r.violation(fc, n, fmt.Sprintf(
			"object destructuring of %s alongside a rest element; access the properties directly",
			strings.Join(named, ", "))), true
	}
	return r.violation(fc, n, "object destructuring; access the properties directly"), true
}

func (r *DestructuringRule) violation(fc *FileContext, n *sitter.Node, msg string) Violation {
	return Violation{
		File:    fc.Path,
		Line:    tstree.StartLine(n),
		Column:  tstree.StartColumn(n),
		RuleID:  RuleIDDestructuring,
		Message: msg,
	}
}

// isAllSettledResult reports whether a declarator's initializer is a
// Promise.allSettled call, unwrapping an await if present.
func isAllSettledResult(fc *FileContext, declarator *sitter.Node) bool {
	value := declarator.ChildByFieldName("value")
	return isCallTo(fc, value, "Promise.allSettled")
}

// iteratesEntries reports whether a for-of loop's iterable is an
// Object.entries call.
func iteratesEntries(fc *FileContext, loop *sitter.Node) bool {
	return isCallTo(fc, loop.ChildByFieldName("right"), "Object.entries")
}

func isCallTo(fc *FileContext, n *sitter.Node, callee string) bool {
	if n == nil {
		return false
	}
	if n.Type() == "await_expression" {
		n = n.NamedChild(0)
		if n == nil {
			return false
		}
	}
	if n.Type() != "call_expression" {
		return false
	}
	fn := n.ChildByFieldName("function")
	return fn != nil && fc.Tree.Text(fn) == callee
}

// splitObjectPattern partitions an object pattern into its rest flag
// and the texts of its named bindings.
func splitObjectPattern(fc *FileContext, pattern *sitter.Node) (rest bool, named []string) {
	for i := 0; i < int(pattern.NamedChildCount()); i++ {
		child := pattern.NamedChild(i)
		if child.Type() == "rest_pattern" {
			rest = true
			continue
		}
		named = append(named, fc.Tree.Text(child))
	}
	return rest, named
}
