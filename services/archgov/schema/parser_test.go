// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSchema = `
datasource db {
  provider = "postgresql"
}

// Orders placed by customers.
model OrderDbo {
  id        String   @id @default(uuid())
  total     Decimal
  createdAt DateTime @default(now())
  internal  String   @ignore
  @@index([createdAt])
}

model UserDbo {
  id    String @id
  email String @unique
}

enum Status {
  OPEN
  CLOSED
}
`

func TestParse_Models(t *testing.T) {
	s, err := Parse([]byte(sampleSchema))
	require.NoError(t, err)

	assert.Equal(t, []string{"OrderDbo", "UserDbo"}, s.Models())
	assert.True(t, s.HasModel("OrderDbo"))
	assert.False(t, s.HasModel("Status"), "enum blocks are not models")
	assert.False(t, s.HasModel("db"), "datasource blocks are not models")
}

func TestParse_Fields(t *testing.T) {
	s, err := Parse([]byte(sampleSchema))
	require.NoError(t, err)

	assert.Equal(t, []string{"createdAt", "id", "total"}, s.Fields("OrderDbo"))
	assert.True(t, s.HasField("OrderDbo", "total"))
	assert.False(t, s.HasField("OrderDbo", "internal"), "@ignore fields are excluded")
	assert.False(t, s.HasField("OrderDbo", "@@index"), "block attributes are not fields")
	assert.Nil(t, s.Fields("Missing"))
}

func TestParse_UnterminatedBlock(t *testing.T) {
	_, err := Parse([]byte("model Broken {\n  id String\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Broken")
}

func TestMatchModel(t *testing.T) {
	s, err := Parse([]byte(sampleSchema))
	require.NoError(t, err)

	assert.Equal(t, "OrderDbo", s.MatchModel("Order"))
	assert.Equal(t, "OrderDbo", s.MatchModel("order"), "matching is case-insensitive")
	assert.Equal(t, "UserDbo", s.MatchModel("User"))
	assert.Equal(t, "", s.MatchModel("Invoice"))
}
