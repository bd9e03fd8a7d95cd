// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package rules implements the diff-attributed structural rules.
//
// Each rule is a read-only check over one file's syntax tree, its
// classified constructs, and the diff-derived line sets. Rules never
// mutate source and never abort a run; a violation is data, not an
// error. The registry holds the enabled rules in a fixed order so
// aggregate output is deterministic.
package rules

import (
	"time"

	"github.com/AleutianAI/archguard/services/archgov/diffmap"
	"github.com/AleutianAI/archguard/services/archgov/escape"
	"github.com/AleutianAI/archguard/services/archgov/schema"
	"github.com/AleutianAI/archguard/services/archgov/tstree"
)

// =============================================================================
// MODE
// =============================================================================

// Mode controls which part of a file a rule applies to.
type Mode int

const (
	// ModeOff disables the rule entirely.
	ModeOff Mode = iota

	// ModeNewOnly checks only constructs introduced by the diff.
	ModeNewOnly

	// ModeNewAndModified checks new and modified constructs.
	ModeNewAndModified

	// ModeAllModifiedFiles checks every file the diff touches, wholesale.
	ModeAllModifiedFiles

	// ModeAllFiles checks the entire tree regardless of the diff.
	ModeAllFiles
)

// String returns the configuration spelling of the mode.
func (m Mode) String() string {
	switch m {
	case ModeOff:
		return "off"
	case ModeNewOnly:
		return "new"
	case ModeNewAndModified:
		return "new-and-modified"
	case ModeAllModifiedFiles:
		return "all-modified-files"
	case ModeAllFiles:
		return "all-files"
	default:
		return "unknown"
	}
}

// ParseMode parses a configuration mode string.
//
// Outputs:
//
//	Mode  - The parsed mode.
//	error - ErrInvalidMode for unrecognized spellings.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "off", "":
		return ModeOff, nil
	case "new", "new-only":
		return ModeNewOnly, nil
	case "new-and-modified":
		return ModeNewAndModified, nil
	case "all-modified-files":
		return ModeAllModifiedFiles, nil
	case "all-files":
		return ModeAllFiles, nil
	default:
		return ModeOff, errInvalidMode(s)
	}
}

// =============================================================================
// VIOLATION
// =============================================================================

// Violation is one rule finding. Violations are first-class data; they
// flow through aggregation in discovery order and are never dropped.
type Violation struct {
	// File is the path the violation was found in.
	File string `json:"file"`

	// Line is the 1-based line of the finding.
	Line int `json:"line"`

	// Column is the 1-based column, when the rule can resolve one.
	Column int `json:"column,omitempty"`

	// RuleID identifies the reporting rule.
	RuleID string `json:"ruleId"`

	// Message is the human-readable diagnostic.
	Message string `json:"message"`

	// Expired marks a violation that was covered by a disable directive
	// whose validity window has lapsed.
	Expired bool `json:"expired,omitempty"`
}

// =============================================================================
// FILE CONTEXT
// =============================================================================

// FileContext carries everything a rule needs to evaluate one file.
//
// Thread Safety: Treat as immutable during evaluation. The runner
// builds one context per (file, rule) pair; rules only read it.
type FileContext struct {
	// Path is the file path relative to the repository root.
	Path string

	// Source is the raw file content.
	Source []byte

	// Lines is Source split into lines. Index 0 is line 1.
	Lines []string

	// Tree is the parsed syntax tree, nil when parsing failed. Rules
	// that need the tree return no findings on nil.
	Tree *tstree.Tree

	// Constructs are the located constructs with change labels.
	Constructs []diffmap.ClassifiedConstruct

	// ChangedLines holds added line numbers in the new revision.
	ChangedLines map[int]struct{}

	// TouchedLines holds added plus context line numbers.
	TouchedLines map[int]struct{}

	// Mode is the effective scope mode for the evaluating rule.
	Mode Mode

	// DisableAllowed gates the escape-hatch protocol for this rule.
	DisableAllowed bool

	// Today anchors directive expiry computation.
	Today time.Time

	// Schema is the parsed relational model projection, nil when no
	// schema file is configured. Schema-bound rules skip on nil.
	Schema *schema.Schema
}

// ConstructInScope reports whether the mode puts a construct in scope.
func (fc *FileContext) ConstructInScope(c diffmap.ClassifiedConstruct) bool {
	switch fc.Mode {
	case ModeNewOnly:
		return c.Change == diffmap.New
	case ModeNewAndModified:
		return c.Change == diffmap.New || c.Change == diffmap.Modified
	case ModeAllModifiedFiles, ModeAllFiles:
		return true
	default:
		return false
	}
}

// LineInScope reports whether the mode puts a raw line in scope.
// Diff-bounded modes use additions; all-modified-files widens to the
// touched range (additions plus hunk context).
func (fc *FileContext) LineInScope(line int) bool {
	switch fc.Mode {
	case ModeNewOnly, ModeNewAndModified:
		_, ok := fc.ChangedLines[line]
		return ok
	case ModeAllModifiedFiles:
		_, ok := fc.TouchedLines[line]
		return ok
	case ModeAllFiles:
		return true
	default:
		return false
	}
}

// FileInScope reports whether a whole-file rule applies to this file.
func (fc *FileContext) FileInScope() bool {
	switch fc.Mode {
	case ModeOff:
		return false
	case ModeAllFiles:
		return true
	default:
		return len(fc.ChangedLines) > 0
	}
}

// =============================================================================
// ESCAPE HATCH
// =============================================================================

// KeywordDisableFile is the broad directive: the whole file is exempt
// from every rule that honors disables. It needs no date.
const KeywordDisableFile = "arch-disable-file"

// disableKeywords builds the directive keyword list for a rule,
// narrowest first so the broad file exemption also satisfies it.
func disableKeywords(ruleID string) []string {
	return []string{"arch-disable-" + ruleID, KeywordDisableFile}
}

// Escape resolves a disable directive above an anchor line, honoring
// DisableAllowed. The zero Resolution means no directive applies.
func (fc *FileContext) Escape(anchorLine int, keywords []string, requireDate bool) escape.Resolution {
	if !fc.DisableAllowed {
		return escape.Resolution{}
	}
	return escape.Resolve(fc.Lines, anchorLine, keywords, requireDate, fc.Today)
}

// Suppressed reports whether a bare (undated) directive for the rule
// covers the line. Rules with expiry semantics use Escape directly.
func (fc *FileContext) Suppressed(ruleID string, line int) bool {
	res := fc.Escape(line, disableKeywords(ruleID), false)
	return res.Matched && !res.Expired
}

// =============================================================================
// RULE CONTRACT
// =============================================================================

// Rule is one structural check. Implementations are stateless apart
// from their configured limits and safe for concurrent use.
type Rule interface {
	// ID is the stable rule identifier used in config and output.
	ID() string

	// DefaultMode is the scope applied when config does not override.
	DefaultMode() Mode

	// Evaluate returns the rule's findings for one file. A nil slice
	// means a clean pass. Errors are reserved for internal invariant
	// breaks; degraded input must yield no findings instead.
	Evaluate(fc *FileContext) ([]Violation, error)
}
