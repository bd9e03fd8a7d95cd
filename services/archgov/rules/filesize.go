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

	"github.com/AleutianAI/archguard/services/archgov/escape"
)

// RuleIDFileSize identifies the whole-file size rule.
const RuleIDFileSize = "file-size"

// DefaultFileSizeLimit is the file line limit when config does not
// override it.
const DefaultFileSizeLimit = 400

// KeywordDisableFileSize is the dated directive suppressing the file
// size check for one file.
const KeywordDisableFileSize = "arch-disable-file-size"

// FileSizeRule flags files whose raw line count exceeds the limit.
// Constructs are ignored; the unit is the file.
type FileSizeRule struct {
	Limit int
}

// NewFileSizeRule creates the rule with the given line limit.
func NewFileSizeRule(limit int) *FileSizeRule {
	if limit <= 0 {
		limit = DefaultFileSizeLimit
	}
	return &FileSizeRule{Limit: limit}
}

// ID implements Rule.
func (r *FileSizeRule) ID() string { return RuleIDFileSize }

// DefaultMode implements Rule.
func (r *FileSizeRule) DefaultMode() Mode { return ModeAllModifiedFiles }

// Evaluate checks the file line count. The directive lives in the
// file's first lines since the anchor is the file itself.
func (r *FileSizeRule) Evaluate(fc *FileContext) ([]Violation, error) {
	if !fc.FileInScope() {
		return nil, nil
	}

	count := len(fc.Lines)
	if count <= r.Limit {
		return nil, nil
	}

	var res escape.Resolution
	if fc.DisableAllowed {
		res = escape.ResolveTop(fc.Lines, []string{KeywordDisableFileSize, KeywordDisableFile}, true, fc.Today)
		if escapeValid(res) {
			return nil, nil
		}
	}

	msg := fmt.Sprintf("file is %d lines long (limit %d)", count, r.Limit)
	if res.Matched && res.Expired {
		msg = fmt.Sprintf("%s; its disable directive has expired", msg)
	}
	return []Violation{{
		File:    fc.Path,
		Line:    1,
		RuleID:  RuleIDFileSize,
		Message: msg,
		Expired: res.Matched && res.Expired,
	}}, nil
}
