// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package diffmap converts unified diffs into line-level change sets and
// newly introduced construct names, then classifies syntax constructs as
// new, modified, or untouched.
//
// The package consumes diff text only; it never talks to the version
// control system itself. Hunk replay follows the unified diff contract:
// a `+` line is an addition at the current new-file cursor, a `-` line is
// a deletion that does not advance the cursor, anything else is context.
package diffmap

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// =============================================================================
// DIFF PARSING
// =============================================================================

// ParseFileDiff parses unified diff text for a single file.
//
// Outputs:
//
//	*diff.FileDiff - Parsed diff, nil when the text contains no hunks.
//	error          - Non-nil when the text is not a valid unified diff.
func ParseFileDiff(diffText []byte) (*diff.FileDiff, error) {
	if len(bytes.TrimSpace(diffText)) == 0 {
		return nil, nil
	}
	fd, err := diff.ParseFileDiff(diffText)
	if err != nil {
		return nil, fmt.Errorf("parsing unified diff: %w", err)
	}
	return fd, nil
}

// ChangedLines returns the 1-based new-revision line numbers of additions.
//
// Description:
//
//	Replays each hunk from its NewStartLine: `+` lines are recorded and
//	advance the cursor, `-` lines do not advance it, context lines
//	advance without being recorded. Lines outside any hunk are never
//	marked.
//
// Inputs:
//
//	fd - Parsed file diff. Nil is treated as an empty diff.
//
// Outputs:
//
//	map[int]struct{} - Added line numbers. Never nil.
func ChangedLines(fd *diff.FileDiff) map[int]struct{} {
	return replayHunks(fd, false)
}

// TouchedLines returns additions plus context lines inside hunks.
//
// Rules with "touched range" semantics (ALL-MODIFIED-FILES scope) use
// this broader set.
func TouchedLines(fd *diff.FileDiff) map[int]struct{} {
	return replayHunks(fd, true)
}

func replayHunks(fd *diff.FileDiff, includeContext bool) map[int]struct{} {
	lines := make(map[int]struct{})
	if fd == nil {
		return lines
	}

	for _, hunk := range fd.Hunks {
		cursor := int(hunk.NewStartLine)
		for _, raw := range bytes.Split(hunk.Body, []byte("\n")) {
			if len(raw) == 0 {
				continue
			}
			switch raw[0] {
			case '+':
				lines[cursor] = struct{}{}
				cursor++
			case '-':
				// Deletion: present only in the old revision.
			case '\\':
				// "\ No newline at end of file" marker.
			default:
				if includeContext {
					lines[cursor] = struct{}{}
				}
				cursor++
			}
		}
	}

	return lines
}

// SynthesizeAdditions treats every line of content as an addition.
//
// Used for untracked files, which have no diff but are new in their
// entirety.
func SynthesizeAdditions(content []byte) map[int]struct{} {
	lines := make(map[int]struct{})
	if len(content) == 0 {
		return lines
	}
	text := strings.TrimSuffix(string(content), "\n")
	for i := range strings.Split(text, "\n") {
		lines[i+1] = struct{}{}
	}
	return lines
}

// =============================================================================
// NEW CONSTRUCT NAMES
// =============================================================================

// NewConstructNames extracts construct names declared on added lines.
//
// Description:
//
//	Scans every `+` line of every hunk for declaration shapes: free
//	functions, arrow/function expressions assigned to a const/let/var,
//	and class members with optional visibility/static/async/accessor
//	modifiers. Control-flow keywords and `constructor` are excluded.
//	This is a line-shape heuristic, not a parse; it only has to agree
//	with the construct locator on names.
//
// Outputs:
//
//	map[string]struct{} - Names first declared in the diff. Never nil.
func NewConstructNames(fd *diff.FileDiff) map[string]struct{} {
	names := make(map[string]struct{})
	if fd == nil {
		return names
	}

	for _, hunk := range fd.Hunks {
		for _, raw := range bytes.Split(hunk.Body, []byte("\n")) {
			if len(raw) == 0 || raw[0] != '+' {
				continue
			}
			if name := DeclaredName(string(raw[1:])); name != "" {
				names[name] = struct{}{}
			}
		}
	}

	return names
}

// NamesFromContent extracts declaration names from raw file content,
// used together with SynthesizeAdditions for untracked files.
func NamesFromContent(content []byte) map[string]struct{} {
	names := make(map[string]struct{})
	for _, line := range strings.Split(string(content), "\n") {
		if name := DeclaredName(line); name != "" {
			names[name] = struct{}{}
		}
	}
	return names
}
