// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package diffmap

import (
	"regexp"
	"strings"
)

// Declaration shapes recognized on a single source line.
var (
	// function alpha(...), export async function* beta(...)
	funcDeclRe = regexp.MustCompile(
		`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)\s*[<(]`)

	// const f = async (...) => ..., let g = function (...) ...
	boundFuncRe = regexp.MustCompile(
		`^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)[^=]*=\s*(?:async\s+)?(?:function\b|\(|[A-Za-z_$][\w$]*\s*=>)`)

	// private static async load<T>(...), get total(...)
	memberRe = regexp.MustCompile(
		`^\s*(?:(?:public|private|protected|static|async|readonly|override|abstract|get|set)\s+)*\*?\s*([A-Za-z_$][\w$]*)\s*(?:<[^>]*>)?\s*\(`)
)

// nonConstructKeywords are identifiers that match the member shape but
// never name a construct.
var nonConstructKeywords = map[string]struct{}{
	"if": {}, "for": {}, "while": {}, "switch": {}, "catch": {},
	"return": {}, "new": {}, "typeof": {}, "await": {}, "yield": {},
	"function": {}, "constructor": {}, "super": {}, "do": {}, "else": {},
	"throw": {}, "delete": {}, "void": {}, "in": {}, "of": {},
	"import": {}, "export": {}, "require": {},
}

// DeclaredName returns the construct name a line declares, or "".
//
// The member shape is ambiguous with call statements (`flush();` looks
// like a declaration of flush). A member match is therefore only
// accepted when the line reads as a signature: it opens a body, carries
// a type annotation, or leaves its parameter list open.
func DeclaredName(line string) string {
	if m := funcDeclRe.FindStringSubmatch(line); m != nil {
		return filterKeyword(m[1])
	}
	if m := boundFuncRe.FindStringSubmatch(line); m != nil {
		return filterKeyword(m[1])
	}
	if m := memberRe.FindStringSubmatch(line); m != nil {
		if name := filterKeyword(m[1]); name != "" && looksLikeSignature(line) {
			return name
		}
	}
	return ""
}

func filterKeyword(name string) string {
	if _, ok := nonConstructKeywords[name]; ok {
		return ""
	}
	return name
}

func looksLikeSignature(line string) bool {
	trimmed := strings.TrimSpace(line)

	// Opens a body on the same line.
	if strings.HasSuffix(trimmed, "{") {
		return true
	}
	// Parameter list continues on the next line.
	if strings.HasSuffix(trimmed, "(") || strings.HasSuffix(trimmed, ",") {
		return true
	}
	// Return type annotation after the closing paren: `): Foo` or an
	// interface signature ending `): Foo;`.
	if idx := strings.LastIndex(trimmed, ")"); idx >= 0 {
		rest := strings.TrimSpace(trimmed[idx+1:])
		if strings.HasPrefix(rest, ":") {
			return true
		}
	}
	// Typed parameters without a return annotation: `load(id: string);`
	// has a `: ` inside the parens but a call like `load(id)` does not.
	if open := strings.Index(trimmed, "("); open >= 0 {
		inner := trimmed[open+1:]
		if close := strings.LastIndex(inner, ")"); close >= 0 {
			inner = inner[:close]
		}
		if strings.Contains(inner, ":") && !strings.Contains(inner, "{") {
			return true
		}
	}
	return false
}
