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
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/archguard/services/archgov/diffmap"
	"github.com/AleutianAI/archguard/services/archgov/tstree"
)

// testToday pins directive expiry computation for all rule tests.
var testToday = time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)

// newContext parses source and builds a context where every line is an
// addition and every construct is new. Tests needing untouched files
// override the sets afterwards.
func newContext(t *testing.T, path, src string, mode Mode) *FileContext {
	t.Helper()

	tree, err := tstree.Parse(context.Background(), []byte(src), path)
	require.NoError(t, err)
	t.Cleanup(tree.Close)

	lines := tree.Lines()
	changed := make(map[int]struct{}, len(lines))
	for i := 1; i <= len(lines); i++ {
		changed[i] = struct{}{}
	}

	located := tstree.Locate(tree)
	newNames := make(map[string]struct{}, len(located))
	for _, c := range located {
		newNames[c.Name] = struct{}{}
	}

	return &FileContext{
		Path:           path,
		Source:         []byte(src),
		Lines:          lines,
		Tree:           tree,
		Constructs:     diffmap.Classify(located, changed, newNames),
		ChangedLines:   changed,
		TouchedLines:   changed,
		Mode:           mode,
		DisableAllowed: true,
		Today:          testToday,
	}
}

// markUntouched reclassifies the context as an unchanged file.
func markUntouched(fc *FileContext) {
	fc.ChangedLines = map[int]struct{}{}
	fc.TouchedLines = map[int]struct{}{}
	for i := range fc.Constructs {
		fc.Constructs[i].Change = diffmap.Untouched
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "off", want: ModeOff},
		{in: "", want: ModeOff},
		{in: "new", want: ModeNewOnly},
		{in: "new-only", want: ModeNewOnly},
		{in: "new-and-modified", want: ModeNewAndModified},
		{in: "all-modified-files", want: ModeAllModifiedFiles},
		{in: "all-files", want: ModeAllFiles},
		{in: "everything", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidMode) {
				t.Errorf("ParseMode(%q): expected ErrInvalidMode, got %v", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMode(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestModeRoundTrip(t *testing.T) {
	for _, m := range []Mode{ModeOff, ModeNewOnly, ModeNewAndModified, ModeAllModifiedFiles, ModeAllFiles} {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("round trip %v -> %q -> %v (%v)", m, m.String(), got, err)
		}
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	rule := NewMethodSizeRule(0)

	require.NoError(t, reg.Register(rule))
	require.ErrorIs(t, reg.Register(NewMethodSizeRule(100)), ErrDuplicateRule)

	got, err := reg.Get(RuleIDMethodSize)
	require.NoError(t, err)
	require.Same(t, Rule(rule), got)

	_, err = reg.Get("nope")
	require.ErrorIs(t, err, ErrUnknownRule)
}

func TestDefaultRegistry_OrderIsStable(t *testing.T) {
	reg := DefaultRegistry(nil)

	var ids []string
	for _, rule := range reg.All() {
		ids = append(ids, rule.ID())
	}
	want := []string{
		RuleIDMethodSize, RuleIDFileSize, RuleIDTypeLiterals, RuleIDAnyUnknown,
		RuleIDDestructuring, RuleIDSchemaConsistency, RuleIDConverterShape,
	}
	require.Equal(t, want, ids)
}
