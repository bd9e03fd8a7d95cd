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
	"log/slog"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/archguard/pkg/textmatch"
	"github.com/AleutianAI/archguard/services/archgov/tstree"
)

// RuleIDSchemaConsistency identifies the transfer-type schema rule.
const RuleIDSchemaConsistency = "schema-consistency"

// TransferSuffix marks a model-linked transfer type.
const TransferSuffix = "Dto"

// JoinSuffix marks a composite transfer type aggregating several
// models. Join types are exempt wholesale.
const JoinSuffix = "JoinDto"

// RenameSimilarityThreshold is the minimum LCS similarity for a rename
// suggestion to be surfaced.
const RenameSimilarityThreshold = 0.55

// SchemaConsistencyRule checks transfer types against the relational
// schema: every field of a *Dto must be a column of its matched model.
// The model may carry extra columns; the relation is one-directional.
type SchemaConsistencyRule struct{}

// NewSchemaConsistencyRule creates the rule.
func NewSchemaConsistencyRule() *SchemaConsistencyRule { return &SchemaConsistencyRule{} }

// ID implements Rule.
func (r *SchemaConsistencyRule) ID() string { return RuleIDSchemaConsistency }

// DefaultMode implements Rule.
func (r *SchemaConsistencyRule) DefaultMode() Mode { return ModeNewAndModified }

// Evaluate matches each transfer type to a model by stripped-prefix
// lookup and verifies its fields.
//
// Description:
//
//	The prefix match is purely lexical (OrderDto -> OrderDbo), so an
//	irregularly named transfer type can silently find no model. That
//	case is a skip with a debug log, a known gap of the naming
//	convention rather than a violation. Fields annotated @deprecated
//	in a leading comment are exempt; they are mid-removal and the
//	schema side has usually dropped them first.
func (r *SchemaConsistencyRule) Evaluate(fc *FileContext) ([]Violation, error) {
	if fc.Mode == ModeOff || fc.Tree == nil || fc.Schema == nil {
		return nil, nil
	}

	var out []Violation
	tstree.Walk(fc.Tree.Root(), func(n *sitter.Node) bool {
		switch n.Type() {
		case "class_declaration", "interface_declaration":
		default:
			return true
		}

		name := nodeFieldText(fc, n, "name")
		if !strings.HasSuffix(name, TransferSuffix) || strings.HasSuffix(name, JoinSuffix) {
			return true
		}

		model := fc.Schema.MatchModel(strings.TrimSuffix(name, TransferSuffix))
		if model == "" {
			slog.Debug("transfer type matches no schema model, skipping",
				slog.String("type", name),
				slog.String("file", fc.Path))
			return true
		}

		out = append(out, r.checkFields(fc, n, name, model)...)
		return true
	})
	return out, nil
}

// checkFields verifies every declared field of the transfer type
// against the model's column set.
func (r *SchemaConsistencyRule) checkFields(fc *FileContext, decl *sitter.Node, typeName, model string) []Violation {
	var out []Violation
	for _, f := range transferFields(fc, decl) {
		if f.deprecated || fc.Schema.HasField(model, f.name) {
			continue
		}
		if !fc.LineInScope(f.line) || fc.Suppressed(RuleIDSchemaConsistency, f.line) {
			continue
		}

		msg := fmt.Sprintf("field %q of %s is not a column of model %s", f.name, typeName, model)
		if best, score, ok := textmatch.BestMatch(f.name, fc.Schema.Fields(model), RenameSimilarityThreshold); ok {
			msg = fmt.Sprintf("%s (closest column: %q, similarity %.2f)", msg, best, score)
		}
		out = append(out, Violation{
			File:    fc.Path,
			Line:    f.line,
			RuleID:  RuleIDSchemaConsistency,
			Message: msg,
		})
	}
	return out
}

type transferField struct {
	name       string
	line       int
	deprecated bool
}

// transferFields lists the declared data fields of a class or
// interface, in source order. Methods and the constructor are not
// fields. A comment immediately preceding a field containing
// @deprecated exempts it.
func transferFields(fc *FileContext, decl *sitter.Node) []transferField {
	body := decl.ChildByFieldName("body")
	if body == nil {
		return nil
	}

	var fields []transferField
	pendingDeprecated := false

	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)

		switch member.Type() {
		case "comment":
			if strings.Contains(fc.Tree.Text(member), "@deprecated") {
				pendingDeprecated = true
			}
			continue

		case "public_field_definition", "property_signature":
			nameNode := member.ChildByFieldName("name")
			if nameNode == nil {
				pendingDeprecated = false
				continue
			}
			fields = append(fields, transferField{
				name:       fc.Tree.Text(nameNode),
				line:       tstree.StartLine(member),
				deprecated: pendingDeprecated,
			})
		}
		pendingDeprecated = false
	}
	return fields
}

func nodeFieldText(fc *FileContext, n *sitter.Node, field string) string {
	child := n.ChildByFieldName(field)
	if child == nil {
		return ""
	}
	return fc.Tree.Text(child)
}
