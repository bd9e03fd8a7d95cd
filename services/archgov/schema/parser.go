// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package schema projects an external relational schema definition into
// the {model name -> field-name set} view the schema-consistency rule
// needs. Parsing is block-scoped line parsing by design; the schema
// collaborator owns the full grammar.
package schema

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// =============================================================================
// SCHEMA MODEL
// =============================================================================

// Schema is the parsed model projection.
type Schema struct {
	// models maps model name to its field-name set.
	models map[string]map[string]struct{}

	// order preserves declaration order for deterministic iteration.
	order []string
}

// Load reads and parses a schema definition file.
func Load(path string) (*Schema, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	return Parse(content)
}

// Parse extracts model blocks from schema definition text.
//
// Description:
//
//	Recognizes blocks of the form
//
//	    model Name {
//	        fieldName FieldType ...attributes
//	        @@index([...])
//	    }
//
//	A field name is the first token of a line inside the block. Lines
//	starting with @@ (block attributes), comments, and blank lines are
//	skipped, as are fields carrying an @ignore attribute. Non-model
//	blocks (enum, datasource, generator) are skipped wholesale.
//
// Outputs:
//
//	*Schema - The projection. Never nil on success.
//	error   - Non-nil on an unterminated model block.
func Parse(content []byte) (*Schema, error) {
	s := &Schema{models: make(map[string]map[string]struct{})}

	var currentModel string
	inBlock := false

	for _, rawLine := range strings.Split(string(content), "\n") {
		line := strings.TrimSpace(rawLine)

		if !inBlock {
			if name, ok := modelHeader(line); ok {
				currentModel = name
				inBlock = true
				if _, exists := s.models[name]; !exists {
					s.models[name] = make(map[string]struct{})
					s.order = append(s.order, name)
				}
			}
			continue
		}

		if line == "}" {
			inBlock = false
			currentModel = ""
			continue
		}

		if field, ok := fieldName(line); ok {
			s.models[currentModel][field] = struct{}{}
		}
	}

	if inBlock {
		return nil, fmt.Errorf("unterminated model block %q", currentModel)
	}

	return s, nil
}

// modelHeader matches `model Name {` headers.
func modelHeader(line string) (string, bool) {
	if !strings.HasPrefix(line, "model ") || !strings.HasSuffix(line, "{") {
		return "", false
	}
	name := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(line, "model "), "{"))
	if name == "" || strings.ContainsAny(name, " \t") {
		return "", false
	}
	return name, true
}

// fieldName extracts the field name from a model body line.
func fieldName(line string) (string, bool) {
	if line == "" || strings.HasPrefix(line, "//") || strings.HasPrefix(line, "@@") {
		return "", false
	}
	if strings.Contains(line, "@ignore") {
		return "", false
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		// A bare token is not a field declaration.
		return "", false
	}
	name := fields[0]
	if strings.HasPrefix(name, "@") {
		return "", false
	}
	return name, true
}

// =============================================================================
// QUERIES
// =============================================================================

// Models returns model names in declaration order.
func (s *Schema) Models() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// HasModel reports whether the schema declares the model.
func (s *Schema) HasModel(name string) bool {
	_, ok := s.models[name]
	return ok
}

// HasField reports whether the model declares the field.
func (s *Schema) HasField(model, field string) bool {
	fields, ok := s.models[model]
	if !ok {
		return false
	}
	_, ok = fields[field]
	return ok
}

// Fields returns the model's field names, sorted, or nil for an unknown
// model.
func (s *Schema) Fields(model string) []string {
	set, ok := s.models[model]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// MatchModel finds the model whose name starts with the given prefix,
// case-insensitively.
//
// The match is purely lexical (`Order` matches `OrderDbo`). When several
// models match, the first declared one wins, which keeps results
// deterministic. No match returns "".
func (s *Schema) MatchModel(prefix string) string {
	lowered := strings.ToLower(prefix)
	for _, name := range s.order {
		if strings.HasPrefix(strings.ToLower(name), lowered) {
			return name
		}
	}
	return ""
}
