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

// RuleIDAnyUnknown identifies the any/unknown keyword ban.
const RuleIDAnyUnknown = "no-any-unknown"

// AnyUnknownRule bans the any and unknown type keywords. This is a
// shallow syntactic check; it does not chase inferred types.
type AnyUnknownRule struct{}

// NewAnyUnknownRule creates the rule.
func NewAnyUnknownRule() *AnyUnknownRule { return &AnyUnknownRule{} }

// ID implements Rule.
func (r *AnyUnknownRule) ID() string { return RuleIDAnyUnknown }

// DefaultMode implements Rule.
func (r *AnyUnknownRule) DefaultMode() Mode { return ModeNewAndModified }

// Evaluate flags predefined_type nodes spelled any or unknown.
func (r *AnyUnknownRule) Evaluate(fc *FileContext) ([]Violation, error) {
	if fc.Mode == ModeOff || fc.Tree == nil {
		return nil, nil
	}

	var out []Violation
	tstree.Walk(fc.Tree.Root(), func(n *sitter.Node) bool {
		if n.Type() != "predefined_type" {
			return true
		}
		text := fc.Tree.Text(n)
		if text != "any" && text != "unknown" {
			return true
		}

		line := tstree.StartLine(n)
		if !fc.LineInScope(line) || fc.Suppressed(RuleIDAnyUnknown, line) {
			return true
		}

		out = append(out, Violation{
			File:    fc.Path,
			Line:    line,
			Column:  tstree.StartColumn(n),
			RuleID:  RuleIDAnyUnknown,
			Message: fmt.Sprintf("type %q erases type information; declare a concrete type", text),
		})
		return true
	})
	return out, nil
}
