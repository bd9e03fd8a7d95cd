// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package escape resolves inline disable directives.
//
// A directive suppresses one rule at one location, optionally
// time-bounded. The resolver is a narrow text-window scan over the lines
// preceding a construct or violation; it is deliberately not a comment
// parser.
//
// Directive forms:
//
//	// arch-disable-method-size 2025/08/20   dated, valid one month
//	// arch-disable-method-size XXXX/XX/XX   permanent sentinel
//	// arch-disable-file                     bare, for rules without expiry
package escape

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ScanWindow is how many lines above the anchor are searched.
const ScanWindow = 5

// PermanentSentinel is the date token that never expires.
const PermanentSentinel = "XXXX/XX/XX"

// dateTokenRe matches a yyyy/mm/dd-shaped token or the sentinel.
var dateTokenRe = regexp.MustCompile(`\b(\d{4}/\d{2}/\d{2}|XXXX/XX/XX)\b`)

// Resolution is the outcome of a directive scan.
type Resolution struct {
	// Matched is true when a directive with one of the requested
	// keywords was found in the window.
	Matched bool

	// Expired is true when the directive was found but its date is
	// outside the one-month validity window, malformed, or missing
	// while required. An expired directive still suppresses nothing;
	// it distinguishes the violation message.
	Expired bool

	// Date is the raw date token, when one was present.
	Date string

	// Keyword is the keyword that matched.
	Keyword string
}

// Resolve scans for a disable directive above an anchor line.
//
// Description:
//
//	Scans upward from the line preceding anchorLine, at most ScanWindow
//	lines, stopping early at a heuristic scope boundary (a line closing
//	a block, or the opening line of another declaration). The first
//	line containing any requested keyword ends the scan.
//
//	Keywords are checked in order per line, so callers list the
//	narrower keyword first and a broader "fully exempt" keyword after
//	it; either satisfies the check.
//
//	Date validation: a dated directive is valid for exactly one
//	calendar month, i.e. valid iff date >= today minus one month. The
//	sentinel XXXX/XX/XX is always valid. When requireDate is set, a
//	malformed or absent date yields Matched with Expired=true - never
//	"absent" - so the violation surfaces with remediation guidance
//	instead of silently reappearing as fresh.
//
// Inputs:
//
//	lines       - File content split into lines; index 0 is line 1.
//	anchorLine  - 1-based line the construct or violation starts on.
//	keywords    - Directive keywords to accept, narrowest first.
//	requireDate - Whether this rule demands a dated directive.
//	today       - Reference date for expiry computation.
//
// Outputs:
//
//	Resolution - See field docs. Zero value means no directive found.
func Resolve(lines []string, anchorLine int, keywords []string, requireDate bool, today time.Time) Resolution {
	if anchorLine < 1 || len(keywords) == 0 {
		return Resolution{}
	}

	start := anchorLine - 1 // scan begins one line above the anchor
	for offset := 1; offset <= ScanWindow; offset++ {
		idx := start - offset // 0-based index of the scanned line
		if idx < 0 {
			break
		}
		line := lines[idx]

		if keyword, ok := matchKeyword(line, keywords); ok {
			return resolveDirective(line, keyword, requireDate, today)
		}

		// Boundary: a closed block or another declaration belongs to
		// the previous scope, not this construct.
		if isScopeBoundary(line) {
			break
		}
	}

	return Resolution{}
}

// ResolveTop scans the first ScanWindow lines of a file for a directive.
// Used by whole-file rules, whose "anchor" is the file itself.
func ResolveTop(lines []string, keywords []string, requireDate bool, today time.Time) Resolution {
	limit := ScanWindow
	if len(lines) < limit {
		limit = len(lines)
	}
	for idx := 0; idx < limit; idx++ {
		if keyword, ok := matchKeyword(lines[idx], keywords); ok {
			return resolveDirective(lines[idx], keyword, requireDate, today)
		}
	}
	return Resolution{}
}

func matchKeyword(line string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if strings.Contains(line, kw) {
			return kw, true
		}
	}
	return "", false
}

func resolveDirective(line, keyword string, requireDate bool, today time.Time) Resolution {
	res := Resolution{Matched: true, Keyword: keyword}

	token := dateTokenRe.FindString(line)
	res.Date = token

	if token == PermanentSentinel {
		return res
	}

	if token == "" {
		// Bare directive: permanently valid only for rules that do not
		// demand a date.
		res.Expired = requireDate
		return res
	}

	date, err := parseDirectiveDate(token)
	if err != nil {
		res.Expired = true
		return res
	}

	res.Expired = date.Before(today.AddDate(0, -1, 0))
	return res
}

// parseDirectiveDate parses yyyy/mm/dd with strict calendar validation:
// 2025/02/30 round-trips to a different string and is rejected.
func parseDirectiveDate(token string) (time.Time, error) {
	date, err := time.Parse("2006/01/02", token)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing directive date %q: %w", token, err)
	}
	if date.Format("2006/01/02") != token {
		return time.Time{}, fmt.Errorf("non-calendar date %q", token)
	}
	return date, nil
}

// isScopeBoundary reports whether a scanned line ends the directive
// window early: a block close, or the opening of another declaration.
// A directive separated from its anchor by either belongs to the
// previous scope.
func isScopeBoundary(line string) bool {
	trimmed := strings.TrimSpace(line)

	if trimmed == "}" || trimmed == "};" {
		return true
	}

	return isDeclarationLine(trimmed)
}

var declStartRe = regexp.MustCompile(
	`^(?:export\s+)?(?:abstract\s+)?(?:class|interface|enum|type|function|const|let|var)\b`)

func isDeclarationLine(trimmed string) bool {
	return declStartRe.MatchString(trimmed)
}
