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

// RuleIDConverterShape identifies the converter-shape rule.
const RuleIDConverterShape = "converter-shape"

// ConverterShapeRule enforces the shape of model-to-transfer
// conversion code.
//
// A method returning a transfer type must take the matched model as
// its first parameter and booleans after it, must return the type
// synchronously (no Promise wrapper), and must be an instance method
// so it is reachable through dependency injection. Constructing a
// transfer type anywhere outside the sanctioned converter directories
// is flagged within diff scope.
type ConverterShapeRule struct {
	// ConverterDirs are directory names in which transfer-type
	// construction is sanctioned.
	ConverterDirs []string
}

// NewConverterShapeRule creates the rule.
func NewConverterShapeRule(converterDirs []string) *ConverterShapeRule {
	if len(converterDirs) == 0 {
		converterDirs = []string{"converters"}
	}
	return &ConverterShapeRule{ConverterDirs: converterDirs}
}

// ID implements Rule.
func (r *ConverterShapeRule) ID() string { return RuleIDConverterShape }

// DefaultMode implements Rule.
func (r *ConverterShapeRule) DefaultMode() Mode { return ModeNewAndModified }

// Evaluate walks the tree for converter-shaped declarations and
// transfer-type construction sites.
func (r *ConverterShapeRule) Evaluate(fc *FileContext) ([]Violation, error) {
	if fc.Mode == ModeOff || fc.Tree == nil {
		return nil, nil
	}

	inConverterDir := r.sanctionedPath(fc.Path)

	var out []Violation
	tstree.Walk(fc.Tree.Root(), func(n *sitter.Node) bool {
		switch n.Type() {
		case "method_definition":
			out = append(out, r.checkMethod(fc, n)...)

		case "function_declaration":
			out = append(out, r.checkFreeFunction(fc, n, n)...)

		case "variable_declarator":
			if value := n.ChildByFieldName("value"); value != nil {
				switch value.Type() {
				case "arrow_function", "function", "function_expression":
					out = append(out, r.checkFreeFunction(fc, n, value)...)
				}
			}

		case "new_expression":
			if !inConverterDir {
				out = append(out, r.checkConstruction(fc, n)...)
			}
		}
		return true
	})
	return out, nil
}

// checkMethod validates a class method returning a transfer type.
func (r *ConverterShapeRule) checkMethod(fc *FileContext, method *sitter.Node) []Violation {
	typeName, promise := returnedTransferType(fc, method)
	if typeName == "" {
		return nil
	}

	line := tstree.StartLine(method)
	if !fc.LineInScope(line) || fc.Suppressed(RuleIDConverterShape, line) {
		return nil
	}

	name := nodeFieldText(fc, method, "name")

	if promise {
		return []Violation{{
			File:   fc.Path,
			Line:   line,
			RuleID: RuleIDConverterShape,
			Message: fmt.Sprintf("converter %q returns Promise<%s>; conversion must be synchronous",
				name, typeName),
		}}
	}

	return r.checkParameters(fc, method, name, typeName, line)
}

// checkParameters enforces (model, ...boolean) parameter shape.
func (r *ConverterShapeRule) checkParameters(fc *FileContext, fn *sitter.Node, name, typeName string, line int) []Violation {
	params := parameterNodes(fn)

	var expectedModel string
	if fc.Schema != nil {
		expectedModel = fc.Schema.MatchModel(strings.TrimSuffix(typeName, TransferSuffix))
	}

	var out []Violation
	if expectedModel != "" {
		if len(params) == 0 {
			out = append(out, Violation{
				File:   fc.Path,
				Line:   line,
				RuleID: RuleIDConverterShape,
				Message: fmt.Sprintf("converter %q takes no parameters; the first must be %s",
					name, expectedModel),
			})
		} else if got := parameterTypeText(fc, params[0]); got != expectedModel {
			out = append(out, Violation{
				File:   fc.Path,
				Line:   tstree.StartLine(params[0]),
				RuleID: RuleIDConverterShape,
				Message: fmt.Sprintf("converter %q must take %s as its first parameter, got %q",
					name, expectedModel, got),
			})
		}
	}

	for _, p := range params[min(1, len(params)):] {
		if got := parameterTypeText(fc, p); got != "boolean" {
			out = append(out, Violation{
				File:   fc.Path,
				Line:   tstree.StartLine(p),
				RuleID: RuleIDConverterShape,
				Message: fmt.Sprintf("converter %q parameters after the model must be boolean flags, got %q",
					name, got),
			})
		}
	}
	return out
}

// checkFreeFunction flags conversion implemented outside a class.
func (r *ConverterShapeRule) checkFreeFunction(fc *FileContext, decl, fn *sitter.Node) []Violation {
	typeName, _ := returnedTransferType(fc, fn)
	if typeName == "" {
		return nil
	}

	line := tstree.StartLine(decl)
	if !fc.LineInScope(line) || fc.Suppressed(RuleIDConverterShape, line) {
		return nil
	}

	name := nodeFieldText(fc, decl, "name")
	return []Violation{{
		File:   fc.Path,
		Line:   line,
		RuleID: RuleIDConverterShape,
		Message: fmt.Sprintf("free function %q returns %s; converters must be instance methods reachable via dependency injection",
			name, typeName),
	}}
}

// checkConstruction flags `new XDto(...)` outside converter
// directories.
func (r *ConverterShapeRule) checkConstruction(fc *FileContext, expr *sitter.Node) []Violation {
	ctor := expr.ChildByFieldName("constructor")
	if ctor == nil {
		return nil
	}
	name := fc.Tree.Text(ctor)
	if !strings.HasSuffix(name, TransferSuffix) || strings.HasSuffix(name, JoinSuffix) {
		return nil
	}

	line := tstree.StartLine(expr)
	if !fc.LineInScope(line) || fc.Suppressed(RuleIDConverterShape, line) {
		return nil
	}

	return []Violation{{
		File:   fc.Path,
		Line:   line,
		Column: tstree.StartColumn(expr),
		RuleID: RuleIDConverterShape,
		Message: fmt.Sprintf("construction of %s outside a converter directory (%s)",
			name, strings.Join(r.ConverterDirs, ", ")),
	}}
}

// sanctionedPath reports whether the file lives under one of the
// converter directories.
func (r *ConverterShapeRule) sanctionedPath(path string) bool {
	normalized := strings.ReplaceAll(path, "\\", "/")
	for _, dir := range r.ConverterDirs {
		if strings.Contains(normalized, "/"+dir+"/") || strings.HasPrefix(normalized, dir+"/") {
			return true
		}
	}
	return false
}

// returnedTransferType resolves a function-like node's declared return
// type when it names a transfer type. Join types are exempt. The
// second result reports a Promise wrapper.
func returnedTransferType(fc *FileContext, fn *sitter.Node) (string, bool) {
	annotation := fn.ChildByFieldName("return_type")
	if annotation == nil {
		return "", false
	}
	t := annotation.NamedChild(0)
	if t == nil {
		return "", false
	}

	if t.Type() == "generic_type" {
		if nodeFieldText(fc, t, "name") != "Promise" {
			return "", false
		}
		args := t.ChildByFieldName("type_arguments")
		if args == nil || args.NamedChildCount() == 0 {
			return "", false
		}
		inner := fc.Tree.Text(args.NamedChild(0))
		if isTransferName(inner) {
			return inner, true
		}
		return "", false
	}

	text := fc.Tree.Text(t)
	if isTransferName(text) {
		return text, false
	}
	return "", false
}

func isTransferName(name string) bool {
	return strings.HasSuffix(name, TransferSuffix) && !strings.HasSuffix(name, JoinSuffix)
}

// parameterNodes lists a function's parameter nodes in order.
func parameterNodes(fn *sitter.Node) []*sitter.Node {
	params := fn.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	var out []*sitter.Node
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		switch p.Type() {
		case "required_parameter", "optional_parameter":
			out = append(out, p)
		}
	}
	return out
}

// parameterTypeText returns the declared type text of a parameter, or
// "" when untyped.
func parameterTypeText(fc *FileContext, param *sitter.Node) string {
	annotation := param.ChildByFieldName("type")
	if annotation == nil {
		return ""
	}
	t := annotation.NamedChild(0)
	if t == nil {
		return ""
	}
	return fc.Tree.Text(t)
}
