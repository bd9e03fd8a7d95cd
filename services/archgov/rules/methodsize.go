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

// RuleIDMethodSize identifies the construct size rule.
const RuleIDMethodSize = "method-size"

// DefaultMethodSizeLimit is the construct line limit when config does
// not override it.
const DefaultMethodSizeLimit = 80

// KeywordDisableMethodSize is the dated directive suppressing one
// oversized construct.
const KeywordDisableMethodSize = "arch-disable-method-size"

// MethodSizeRule flags constructs whose line span exceeds the limit.
type MethodSizeRule struct {
	Limit int
}

// NewMethodSizeRule creates the rule with the given line limit.
func NewMethodSizeRule(limit int) *MethodSizeRule {
	if limit <= 0 {
		limit = DefaultMethodSizeLimit
	}
	return &MethodSizeRule{Limit: limit}
}

// ID implements Rule.
func (r *MethodSizeRule) ID() string { return RuleIDMethodSize }

// DefaultMode implements Rule.
func (r *MethodSizeRule) DefaultMode() Mode { return ModeNewAndModified }

// Evaluate flags in-scope constructs over the limit, honoring dated
// disable directives above the construct and the bare whole-file
// exemption at the top of the file.
func (r *MethodSizeRule) Evaluate(fc *FileContext) ([]Violation, error) {
	if fc.Mode == ModeOff {
		return nil, nil
	}

	if fc.DisableAllowed {
		top := escape.ResolveTop(fc.Lines, []string{KeywordDisableFile}, false, fc.Today)
		if top.Matched && !top.Expired {
			return nil, nil
		}
	}

	var out []Violation
	for _, c := range fc.Constructs {
		if !fc.ConstructInScope(c) {
			continue
		}
		span := c.EndLine - c.StartLine + 1
		if span <= r.Limit {
			continue
		}

		res := fc.Escape(c.StartLine, []string{KeywordDisableMethodSize, KeywordDisableFile}, true)
		if escapeValid(res) {
			continue
		}

		msg := fmt.Sprintf("%s %q is %d lines long (limit %d)", c.Kind, c.Name, span, r.Limit)
		if res.Matched && res.Expired {
			msg = fmt.Sprintf("%s; its disable directive has expired", msg)
		}
		out = append(out, Violation{
			File:    fc.Path,
			Line:    c.StartLine,
			RuleID:  RuleIDMethodSize,
			Message: msg,
			Expired: res.Matched && res.Expired,
		})
	}
	return out, nil
}

// escapeValid reports whether a resolution suppresses a size finding.
// The broad file keyword is valid even bare; the narrow keyword must
// carry an unexpired date or the permanent sentinel.
func escapeValid(res escape.Resolution) bool {
	if !res.Matched {
		return false
	}
	if res.Keyword == KeywordDisableFile && res.Date == "" {
		return true
	}
	return !res.Expired
}
