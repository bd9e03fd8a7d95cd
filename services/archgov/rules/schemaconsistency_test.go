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

	"github.com/AleutianAI/archguard/services/archgov/schema"
)

const orderSchema = `
model OrderDbo {
  id        Int     @id
  total     Float
  createdAt DateTime
}

model UserDbo {
  id    Int    @id
  email String
}
`

func schemaContext(t *testing.T, src string) *FileContext {
	t.Helper()
	fc := newContext(t, "src/app/dto/order.dto.ts", src, ModeNewAndModified)

	s, err := schema.Parse([]byte(orderSchema))
	require.NoError(t, err)
	fc.Schema = s
	return fc
}

func TestSchemaConsistency_MatchingFieldsPass(t *testing.T) {
	src := `export class OrderDto {
  id: number;
  total: number;
}
`
	rule := NewSchemaConsistencyRule()
	violations, err := rule.Evaluate(schemaContext(t, src))
	require.NoError(t, err)
	require.Empty(t, violations)
}

func TestSchemaConsistency_UnknownFieldFails(t *testing.T) {
	src := `export class OrderDto {
  total: number;
  discount: number;
}
`
	rule := NewSchemaConsistencyRule()
	violations, err := rule.Evaluate(schemaContext(t, src))
	require.NoError(t, err)
	require.Len(t, violations, 1)
	require.Contains(t, violations[0].Message, `"discount"`)
	require.Contains(t, violations[0].Message, "OrderDbo")
	// No model column is similar enough to "discount" for a rename hint.
	require.NotContains(t, violations[0].Message, "closest column")
}

func TestSchemaConsistency_RenameSuggestion(t *testing.T) {
	src := `export class OrderDto {
  totals: number;
}
`
	rule := NewSchemaConsistencyRule()
	violations, err := rule.Evaluate(schemaContext(t, src))
	require.NoError(t, err)
	require.Len(t, violations, 1)
	require.Contains(t, violations[0].Message, `closest column: "total"`)
}

func TestSchemaConsistency_InterfaceDeclaration(t *testing.T) {
	src := `export interface UserDto {
  email: string;
  nickname: string;
}
`
	rule := NewSchemaConsistencyRule()
	violations, err := rule.Evaluate(schemaContext(t, src))
	require.NoError(t, err)
	require.Len(t, violations, 1)
	require.Contains(t, violations[0].Message, `"nickname"`)
	require.Contains(t, violations[0].Message, "UserDbo")
}

func TestSchemaConsistency_DeprecatedFieldExempt(t *testing.T) {
	src := `export class OrderDto {
  total: number;
  /** @deprecated dropped with the 2026 billing rework */
  legacyCode: string;
}
`
	rule := NewSchemaConsistencyRule()
	violations, err := rule.Evaluate(schemaContext(t, src))
	require.NoError(t, err)
	require.Empty(t, violations)
}

func TestSchemaConsistency_JoinTypeExempt(t *testing.T) {
	src := `export class OrderUserJoinDto {
  orderTotal: number;
  userEmail: string;
}
`
	rule := NewSchemaConsistencyRule()
	violations, err := rule.Evaluate(schemaContext(t, src))
	require.NoError(t, err)
	require.Empty(t, violations)
}

func TestSchemaConsistency_NoModelMatchSkips(t *testing.T) {
	src := `export class PaymentDto {
  whatever: string;
}
`
	rule := NewSchemaConsistencyRule()
	violations, err := rule.Evaluate(schemaContext(t, src))
	require.NoError(t, err)
	require.Empty(t, violations)
}

func TestSchemaConsistency_NoSchemaConfigured(t *testing.T) {
	src := `export class OrderDto {
  bogus: string;
}
`
	rule := NewSchemaConsistencyRule()
	fc := newContext(t, "src/app/dto/order.dto.ts", src, ModeNewAndModified)

	violations, err := rule.Evaluate(fc)
	require.NoError(t, err)
	require.Empty(t, violations)
}

func TestSchemaConsistency_MethodsAreNotFields(t *testing.T) {
	src := `export class OrderDto {
  total: number;

  format(): string {
    return String(this.total);
  }
}
`
	rule := NewSchemaConsistencyRule()
	violations, err := rule.Evaluate(schemaContext(t, src))
	require.NoError(t, err)
	require.Empty(t, violations)
}
