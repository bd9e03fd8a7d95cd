// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/archguard/services/archgov/rules"
)

// fakeGit scripts the version-control collaborator.
type fakeGit struct {
	mergeBase    string
	mergeBaseErr error
	changed      []string
	changedErr   error
	untracked    []string
	untrackedErr error
	diffs        map[string]string
	diffErr      error
}

func (f *fakeGit) MergeBase(_ context.Context, _ string) (string, error) {
	return f.mergeBase, f.mergeBaseErr
}

func (f *fakeGit) DiffFile(_ context.Context, _, _, path string) ([]byte, error) {
	if f.diffErr != nil {
		return nil, f.diffErr
	}
	return []byte(f.diffs[path]), nil
}

func (f *fakeGit) ChangedFiles(_ context.Context, _, _ string) ([]string, error) {
	return f.changed, f.changedErr
}

func (f *fakeGit) UntrackedFiles(_ context.Context) ([]string, error) {
	return f.untracked, f.untrackedErr
}

var testToday = time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)

// oversizedSource renders a file with one function spanning span lines.
func oversizedSource(span int) string {
	var b strings.Builder
	b.WriteString("function rebuild(): void {\n")
	for i := 0; i < span-2; i++ {
		fmt.Fprintf(&b, "  step%d();\n", i)
	}
	b.WriteString("}\n")
	return b.String()
}

func writeWorkFile(t *testing.T, dir, path, content string) {
	t.Helper()
	full := filepath.Join(dir, path)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o600))
}

func newTestRunner(t *testing.T, dir string, git GitClient, cfg *rules.Config) *Runner {
	t.Helper()
	if cfg == nil {
		cfg = rules.DefaultConfig()
	}
	return NewRunner(dir,
		WithGit(git),
		WithConfig(cfg),
		WithRegistry(rules.DefaultRegistry(cfg)),
		WithScratchDir(filepath.Join(dir, ".archguard")),
		WithToday(testToday),
	)
}

func TestRun_UntrackedOversizedMethod(t *testing.T) {
	dir := t.TempDir()
	writeWorkFile(t, dir, "src/order.ts", oversizedSource(15))

	cfg := rules.DefaultConfig()
	cfg.Rules[rules.RuleIDMethodSize] = rules.RuleConfig{Limit: 10}

	git := &fakeGit{untracked: []string{"src/order.ts"}}
	r := newTestRunner(t, dir, git, cfg)

	report, err := r.Run(context.Background(), "HEAD~1", "")
	require.NoError(t, err)
	require.False(t, report.Skipped)
	require.False(t, report.Passed)
	require.Equal(t, []string{"src/order.ts"}, report.Files)

	violations := report.Violations()
	require.Len(t, violations, 1)
	require.Equal(t, rules.RuleIDMethodSize, violations[0].RuleID)
	require.Contains(t, violations[0].Message, `"rebuild"`)
}

func TestRun_CleanFilePasses(t *testing.T) {
	dir := t.TempDir()
	writeWorkFile(t, dir, "src/order.ts", oversizedSource(8))

	cfg := rules.DefaultConfig()
	cfg.Rules[rules.RuleIDMethodSize] = rules.RuleConfig{Limit: 10}

	git := &fakeGit{untracked: []string{"src/order.ts"}}
	r := newTestRunner(t, dir, git, cfg)

	report, err := r.Run(context.Background(), "HEAD~1", "")
	require.NoError(t, err)
	require.True(t, report.Passed)
	require.Empty(t, report.Violations())
}

func TestRun_NoBaseSkipsFailOpen(t *testing.T) {
	dir := t.TempDir()
	git := &fakeGit{mergeBaseErr: errors.New("fatal: no merge base")}
	r := newTestRunner(t, dir, git, nil)

	report, err := r.Run(context.Background(), "", "")
	require.NoError(t, err)
	require.True(t, report.Skipped)
	require.True(t, report.Passed)
	require.Contains(t, report.SkipReason, "merge base")
}

func TestRun_MergeBaseResolved(t *testing.T) {
	dir := t.TempDir()
	git := &fakeGit{mergeBase: "abc123"}
	r := newTestRunner(t, dir, git, nil)

	report, err := r.Run(context.Background(), "", "")
	require.NoError(t, err)
	require.False(t, report.Skipped)
	require.Equal(t, "abc123", report.Base)
}

func TestRun_GitFailureDegradesToNoChanges(t *testing.T) {
	dir := t.TempDir()
	git := &fakeGit{changedErr: errors.New("index locked"), untrackedErr: errors.New("index locked")}
	r := newTestRunner(t, dir, git, nil)

	report, err := r.Run(context.Background(), "HEAD~1", "")
	require.NoError(t, err)
	require.True(t, report.Passed)
	require.Empty(t, report.Files)
}

func TestRun_CandidateFiltering(t *testing.T) {
	dir := t.TempDir()
	for _, path := range []string{
		"src/b.ts", "src/a.ts", "src/a.spec.ts", "src/view.tsx",
		"src/types.d.ts", "docs/readme.md",
	} {
		writeWorkFile(t, dir, path, "export const ok = 1;\n")
	}

	git := &fakeGit{
		changed: []string{"src/b.ts", "src/a.ts", "src/a.spec.ts", "src/view.tsx", "src/types.d.ts", "docs/readme.md", "src/gone.ts"},
	}
	r := newTestRunner(t, dir, git, nil)

	report, err := r.Run(context.Background(), "HEAD~1", "deadbeef")
	require.NoError(t, err)
	// Sorted, extension-filtered, tests and vanished files dropped.
	require.Equal(t, []string{"src/a.ts", "src/b.ts", "src/view.tsx"}, report.Files)
}

func TestRun_RemediationDocWritten(t *testing.T) {
	dir := t.TempDir()
	writeWorkFile(t, dir, "src/order.ts", oversizedSource(15))

	cfg := rules.DefaultConfig()
	cfg.Rules[rules.RuleIDMethodSize] = rules.RuleConfig{Limit: 10}

	git := &fakeGit{untracked: []string{"src/order.ts"}}
	r := newTestRunner(t, dir, git, cfg)

	report, err := r.Run(context.Background(), "HEAD~1", "")
	require.NoError(t, err)
	require.False(t, report.Passed)

	doc := filepath.Join(dir, ".archguard", "remediation-"+rules.RuleIDMethodSize+".md")
	content, err := os.ReadFile(doc)
	require.NoError(t, err)
	require.Contains(t, string(content), "src/order.ts")
	require.Contains(t, string(content), "arch-disable-method-size")
}

func TestRun_RuleFilter(t *testing.T) {
	dir := t.TempDir()
	writeWorkFile(t, dir, "src/order.ts", oversizedSource(15))

	cfg := rules.DefaultConfig()
	cfg.Rules[rules.RuleIDMethodSize] = rules.RuleConfig{Limit: 10}

	git := &fakeGit{untracked: []string{"src/order.ts"}}
	r := NewRunner(dir,
		WithGit(git),
		WithConfig(cfg),
		WithRegistry(rules.DefaultRegistry(cfg)),
		WithToday(testToday),
		WithRuleFilter(rules.RuleIDFileSize),
	)

	report, err := r.Run(context.Background(), "HEAD~1", "")
	require.NoError(t, err)
	// The oversized method is invisible to the file-size-only run.
	require.True(t, report.Passed)
	require.Len(t, report.Results, 1)
	require.Equal(t, rules.RuleIDFileSize, report.Results[0].RuleID)
}

func TestRun_UnknownRuleFilterIsError(t *testing.T) {
	dir := t.TempDir()
	r := NewRunner(dir, WithGit(&fakeGit{}), WithRuleFilter("no-such-rule"))

	_, err := r.Run(context.Background(), "HEAD~1", "")
	require.ErrorIs(t, err, rules.ErrUnknownRule)
}

func TestRun_TrackedFileWithDiff(t *testing.T) {
	dir := t.TempDir()
	src := "export function fresh(): void {\n  run();\n}\n"
	writeWorkFile(t, dir, "src/app.ts", src)

	diffText := `--- a/src/app.ts
+++ b/src/app.ts
@@ -0,0 +1,3 @@
+export function fresh(): void {
+  run();
+}
`
	cfg := rules.DefaultConfig()
	cfg.Rules[rules.RuleIDMethodSize] = rules.RuleConfig{Limit: 2}

	git := &fakeGit{
		changed: []string{"src/app.ts"},
		diffs:   map[string]string{"src/app.ts": diffText},
	}
	r := newTestRunner(t, dir, git, cfg)

	report, err := r.Run(context.Background(), "HEAD~1", "")
	require.NoError(t, err)
	require.False(t, report.Passed)

	violations := report.Violations()
	require.Len(t, violations, 1)
	require.Contains(t, violations[0].Message, `"fresh"`)
}
