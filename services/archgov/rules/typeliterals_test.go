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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypeLiterals_AliasPositionAllowed(t *testing.T) {
	src := `type Point = { x: number; y: number };
type Pair = [string, number];
`
	rule := NewTypeLiteralsRule()
	fc := newContext(t, "src/app/types.ts", src, ModeNewAndModified)

	violations, err := rule.Evaluate(fc)
	require.NoError(t, err)
	require.Empty(t, violations)
}

func TestTypeLiterals_ParameterLiteralFlagged(t *testing.T) {
	src := `function move(p: { x: number; y: number }): void {
  return;
}
`
	rule := NewTypeLiteralsRule()
	fc := newContext(t, "src/app/move.ts", src, ModeNewAndModified)

	violations, err := rule.Evaluate(fc)
	require.NoError(t, err)
	require.Len(t, violations, 1)
	require.Contains(t, violations[0].Message, "object type literal")
	require.Contains(t, violations[0].Message, "parameter")
}

func TestTypeLiterals_NestedLiteralInsideAliasFlagged(t *testing.T) {
	// One level of aliasing is sanctioned; the nested literal is not.
	src := `type Wrapper = { inner: { a: string } };
`
	rule := NewTypeLiteralsRule()
	fc := newContext(t, "src/app/types.ts", src, ModeNewAndModified)

	violations, err := rule.Evaluate(fc)
	require.NoError(t, err)
	require.Len(t, violations, 1)
	require.Contains(t, violations[0].Message, "property")
}

func TestTypeLiterals_ContextClassification(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "return type",
			src:  "function f(): { ok: boolean } { return { ok: true }; }\n",
			want: "return type",
		},
		{
			name: "variable annotation",
			src:  "const p: { x: number } = { x: 1 };\n",
			want: "variable type annotation",
		},
		{
			name: "union member",
			src:  "function f(v: string | { code: number }): void {}\n",
			want: "union member",
		},
		{
			name: "generic argument",
			src:  "const items: Array<{ id: string }> = [];\n",
			want: "generic type argument",
		},
		{
			name: "tuple in variable",
			src:  "const pair: [string, number] = ['a', 1];\n",
			want: "tuple type literal",
		},
	}

	rule := NewTypeLiteralsRule()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := newContext(t, "src/app/sample.ts", tt.src, ModeNewAndModified)
			violations, err := rule.Evaluate(fc)
			require.NoError(t, err)
			require.NotEmpty(t, violations)
			require.Contains(t, violations[0].Message, tt.want)
		})
	}
}

func TestTypeLiterals_OutOfScopeLineSkipped(t *testing.T) {
	src := `function move(p: { x: number }): void {
  return;
}
`
	rule := NewTypeLiteralsRule()
	fc := newContext(t, "src/app/move.ts", src, ModeNewAndModified)
	markUntouched(fc)

	violations, err := rule.Evaluate(fc)
	require.NoError(t, err)
	require.Empty(t, violations)
}

func TestTypeLiterals_DirectiveSuppresses(t *testing.T) {
	src := `// arch-disable-no-type-literals
function move(p: { x: number }): void {
  return;
}
`
	rule := NewTypeLiteralsRule()
	fc := newContext(t, "src/app/move.ts", src, ModeNewAndModified)

	violations, err := rule.Evaluate(fc)
	require.NoError(t, err)
	require.Empty(t, violations)
}
