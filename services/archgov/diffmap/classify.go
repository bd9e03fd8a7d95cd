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
	"github.com/AleutianAI/archguard/services/archgov/tstree"
)

// =============================================================================
// CHANGE CLASSIFIER
// =============================================================================

// ChangeKind labels a construct relative to the diff.
type ChangeKind int

const (
	// Untouched means no line of the construct changed.
	Untouched ChangeKind = iota

	// Modified means at least one line in the construct span changed.
	Modified

	// New means the construct's name was introduced by the diff.
	New
)

// String returns the label name.
func (k ChangeKind) String() string {
	switch k {
	case New:
		return "new"
	case Modified:
		return "modified"
	case Untouched:
		return "untouched"
	default:
		return "unknown"
	}
}

// ClassifiedConstruct pairs a located construct with its change label.
type ClassifiedConstruct struct {
	tstree.Construct
	Change ChangeKind
}

// Classify labels each construct as New, Modified, or Untouched.
//
// Description:
//
//	Pure function over the locator output and the diff-derived sets.
//	A construct whose name is in newNames is New even when none of its
//	lines are literal additions; reformatting a signature moves the
//	declaration without adding it. Otherwise a construct is Modified
//	when any line of [StartLine, EndLine] is in changedLines, and
//	Untouched when none is. Output order equals input order.
//
// Inputs:
//
//	constructs   - Located constructs, in source order.
//	changedLines - Added line numbers from ChangedLines.
//	newNames     - Names from NewConstructNames.
//
// Outputs:
//
//	[]ClassifiedConstruct - One entry per input construct. Never nil.
func Classify(constructs []tstree.Construct, changedLines map[int]struct{}, newNames map[string]struct{}) []ClassifiedConstruct {
	out := make([]ClassifiedConstruct, 0, len(constructs))

	for _, c := range constructs {
		label := Untouched
		if _, ok := newNames[c.Name]; ok {
			label = New
		} else if spanChanged(c, changedLines) {
			label = Modified
		}
		out = append(out, ClassifiedConstruct{Construct: c, Change: label})
	}

	return out
}

func spanChanged(c tstree.Construct, changed map[int]struct{}) bool {
	for line := c.StartLine; line <= c.EndLine; line++ {
		if _, ok := changed[line]; ok {
			return true
		}
	}
	return false
}
