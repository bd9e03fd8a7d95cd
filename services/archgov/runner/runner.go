// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package runner orchestrates one rule-engine invocation.
//
// The runner resolves the diff base, lists candidate files, analyzes
// them concurrently (each file's analysis is independent and
// read-only), and evaluates the enabled rules in registry order.
// Environment errors fail open: a git failure or a vanished file
// degrades to "nothing to check" with a warning, never a hard stop.
// Rule violations are data in the report, not errors.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/archguard/services/archgov/diffmap"
	"github.com/AleutianAI/archguard/services/archgov/rules"
	"github.com/AleutianAI/archguard/services/archgov/schema"
	"github.com/AleutianAI/archguard/services/archgov/tstree"
)

// =============================================================================
// REPORT
// =============================================================================

// RuleResult is the outcome of one rule over the whole run.
type RuleResult struct {
	RuleID     string            `json:"ruleId"`
	Mode       string            `json:"mode"`
	Violations []rules.Violation `json:"violations,omitempty"`
}

// Report is the aggregate outcome of a run.
type Report struct {
	// Base and Head are the resolved diff endpoints. Head is empty for
	// working-tree comparisons.
	Base string `json:"base,omitempty"`
	Head string `json:"head,omitempty"`

	// Skipped is set when no base could be resolved. A skipped run
	// passes; it is the deliberate fail-open outcome.
	Skipped    bool   `json:"skipped,omitempty"`
	SkipReason string `json:"skipReason,omitempty"`

	// Files are the analyzed paths, in evaluation order.
	Files []string `json:"files,omitempty"`

	// Results holds one entry per enabled rule, in registry order.
	Results []RuleResult `json:"results"`

	// Passed is the logical AND of all rule outcomes.
	Passed bool `json:"passed"`
}

// Violations flattens all findings in discovery order.
func (r *Report) Violations() []rules.Violation {
	var out []rules.Violation
	for _, res := range r.Results {
		out = append(out, res.Violations...)
	}
	return out
}

// =============================================================================
// RUNNER
// =============================================================================

// Option configures a Runner.
type Option func(*Runner)

// WithGit overrides the version-control client.
func WithGit(git GitClient) Option {
	return func(r *Runner) { r.git = git }
}

// WithRegistry overrides the rule registry.
func WithRegistry(reg *rules.Registry) Option {
	return func(r *Runner) { r.registry = reg }
}

// WithConfig sets the rule-set configuration.
func WithConfig(cfg *rules.Config) Option {
	return func(r *Runner) {
		if cfg != nil {
			r.cfg = cfg
		}
	}
}

// WithScratchDir sets where remediation documents are written.
func WithScratchDir(dir string) Option {
	return func(r *Runner) { r.scratchDir = dir }
}

// WithToday pins the escape-hatch reference date.
func WithToday(today time.Time) Option {
	return func(r *Runner) { r.today = today }
}

// WithRuleFilter restricts the run to the named rules.
func WithRuleFilter(ids ...string) Option {
	return func(r *Runner) { r.ruleFilter = ids }
}

// Runner drives one invocation of the rule engine.
//
// Thread Safety: Build with NewRunner, then call Run from one
// goroutine. Run itself parallelizes file analysis internally.
type Runner struct {
	workDir    string
	scratchDir string
	git        GitClient
	registry   *rules.Registry
	cfg        *rules.Config
	today      time.Time
	ruleFilter []string
}

// NewRunner creates a runner rooted at the repository working
// directory.
func NewRunner(workDir string, opts ...Option) *Runner {
	r := &Runner{
		workDir:    workDir,
		scratchDir: filepath.Join(workDir, ".archguard"),
		cfg:        rules.DefaultConfig(),
		today:      time.Now(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.git == nil {
		r.git = NewGitClient(workDir)
	}
	if r.registry == nil {
		r.registry = rules.DefaultRegistry(r.cfg)
	}
	return r
}

// Run executes the enabled rules against base..head (or the working
// tree when head is empty).
//
// Outputs:
//
//	*Report - Always non-nil on success, including skipped runs.
//	error   - Internal errors only (bad config, unknown rule filter).
//	          Environment degradation never surfaces here.
func (r *Runner) Run(ctx context.Context, base, head string) (*Report, error) {
	start := time.Now()

	enabled, err := r.enabledRules()
	if err != nil {
		return nil, err
	}

	report := &Report{Head: head, Results: []RuleResult{}}

	resolvedBase, reason := r.resolveBase(ctx, base)
	if resolvedBase == "" {
		report.Skipped = true
		report.SkipReason = reason
		report.Passed = true
		slog.Warn("rule run skipped", slog.String("reason", reason))
		return report, nil
	}
	report.Base = resolvedBase

	files := r.candidateFiles(ctx, resolvedBase, head)
	report.Files = files

	analyses := r.analyzeFiles(ctx, resolvedBase, head, files)
	defer func() {
		for _, fa := range analyses {
			if fa != nil && fa.tree != nil {
				fa.tree.Close()
			}
		}
	}()

	sch := r.loadSchema()

	for _, rule := range enabled {
		mode, err := r.cfg.ModeFor(rule)
		if err != nil {
			return nil, err
		}
		if mode == rules.ModeOff {
			continue
		}

		result := RuleResult{RuleID: rule.ID(), Mode: mode.String()}
		disableAllowed := r.cfg.DisableAllowedFor(rule.ID())

		for _, fa := range analyses {
			if fa == nil {
				continue
			}
			fc := &rules.FileContext{
				Path:           fa.path,
				Source:         fa.source,
				Lines:          fa.lines,
				Tree:           fa.tree,
				Constructs:     fa.constructs,
				ChangedLines:   fa.changed,
				TouchedLines:   fa.touched,
				Mode:           mode,
				DisableAllowed: disableAllowed,
				Today:          r.today,
				Schema:         sch,
			}
			violations, err := r.registry.Evaluate(ctx, rule, fc)
			if err != nil {
				// One file's failure never aborts the run.
				slog.Warn("rule evaluation failed, no findings for file",
					slog.String("rule", rule.ID()),
					slog.String("file", fa.path),
					slog.String("error", err.Error()))
				continue
			}
			result.Violations = append(result.Violations, violations...)
		}
		report.Results = append(report.Results, result)
	}

	report.Passed = len(report.Violations()) == 0
	if !report.Passed {
		r.writeRemediation(report)
	}

	recordRun(ctx, time.Since(start), len(files), report.Passed, report.Skipped)
	return report, nil
}

// enabledRules resolves the rule filter against the registry.
func (r *Runner) enabledRules() ([]rules.Rule, error) {
	if len(r.ruleFilter) == 0 {
		return r.registry.All(), nil
	}
	out := make([]rules.Rule, 0, len(r.ruleFilter))
	for _, id := range r.ruleFilter {
		rule, err := r.registry.Get(id)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, nil
}

// resolveBase picks the diff base: explicit ref, else the merge base
// with the trunk branch, else skip.
func (r *Runner) resolveBase(ctx context.Context, base string) (resolved, reason string) {
	if base != "" {
		return base, ""
	}
	mergeBase, err := r.git.MergeBase(ctx, r.cfg.TrunkBranch)
	if err != nil {
		return "", fmt.Sprintf("no merge base with %s: %v", r.cfg.TrunkBranch, err)
	}
	if mergeBase == "" {
		return "", fmt.Sprintf("empty merge base with %s", r.cfg.TrunkBranch)
	}
	return mergeBase, ""
}

// candidateFiles lists the source files to analyze, sorted for
// deterministic aggregation.
func (r *Runner) candidateFiles(ctx context.Context, base, head string) []string {
	changed, err := r.git.ChangedFiles(ctx, base, head)
	if err != nil {
		slog.Warn("listing changed files failed, treating as no changes",
			slog.String("error", err.Error()))
		changed = nil
	}

	seen := make(map[string]struct{})
	var files []string
	add := func(path string) {
		if !isCandidate(path) {
			return
		}
		if _, err := os.Stat(filepath.Join(r.workDir, path)); err != nil {
			// Listed but unreadable (deleted, racing rename): skip.
			return
		}
		if _, dup := seen[path]; dup {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, path := range changed {
		add(path)
	}

	if head == "" {
		untracked, err := r.git.UntrackedFiles(ctx)
		if err != nil {
			slog.Warn("listing untracked files failed, treating as none",
				slog.String("error", err.Error()))
		}
		for _, path := range untracked {
			add(path)
		}
	}

	sort.Strings(files)
	return files
}

// isCandidate filters by extension and test-file exclusion.
func isCandidate(path string) bool {
	if !strings.HasSuffix(path, ".ts") && !strings.HasSuffix(path, ".tsx") {
		return false
	}
	for _, excluded := range []string{".spec.ts", ".spec.tsx", ".test.ts", ".test.tsx", ".d.ts"} {
		if strings.HasSuffix(path, excluded) {
			return false
		}
	}
	return true
}

// fileAnalysis is the per-file input shared by every rule.
type fileAnalysis struct {
	path       string
	source     []byte
	lines      []string
	tree       *tstree.Tree
	constructs []diffmap.ClassifiedConstruct
	changed    map[int]struct{}
	touched    map[int]struct{}
}

// analyzeFiles reads, diffs, parses, and classifies each candidate
// concurrently. Output order matches the input order regardless of
// completion order; a failed file yields a nil slot.
func (r *Runner) analyzeFiles(ctx context.Context, base, head string, files []string) []*fileAnalysis {
	untracked := r.untrackedSet(ctx, head)

	analyses := make([]*fileAnalysis, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			analyses[i] = r.analyzeFile(gctx, base, head, path, untracked)
			return nil
		})
	}
	// Workers never return errors; degradation is per-file.
	_ = g.Wait()

	return analyses
}

func (r *Runner) untrackedSet(ctx context.Context, head string) map[string]struct{} {
	set := make(map[string]struct{})
	if head != "" {
		return set
	}
	untracked, err := r.git.UntrackedFiles(ctx)
	if err != nil {
		return set
	}
	for _, path := range untracked {
		set[path] = struct{}{}
	}
	return set
}

// analyzeFile builds one file's analysis, failing open on every
// environment error.
func (r *Runner) analyzeFile(ctx context.Context, base, head, path string, untracked map[string]struct{}) *fileAnalysis {
	source, err := os.ReadFile(filepath.Join(r.workDir, path))
	if err != nil {
		slog.Warn("reading file failed, skipping",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return nil
	}

	fa := &fileAnalysis{
		path:    path,
		source:  source,
		lines:   strings.Split(string(source), "\n"),
		changed: map[int]struct{}{},
		touched: map[int]struct{}{},
	}

	newNames := map[string]struct{}{}
	if _, isNew := untracked[path]; isNew {
		fa.changed = diffmap.SynthesizeAdditions(source)
		fa.touched = fa.changed
		newNames = diffmap.NamesFromContent(source)
	} else {
		diffText, err := r.git.DiffFile(ctx, base, head, path)
		if err != nil {
			slog.Warn("diffing file failed, treating as unchanged",
				slog.String("file", path),
				slog.String("error", err.Error()))
		} else if fd, err := diffmap.ParseFileDiff(diffText); err != nil {
			slog.Warn("parsing diff failed, treating as unchanged",
				slog.String("file", path),
				slog.String("error", err.Error()))
		} else if fd != nil {
			fa.changed = diffmap.ChangedLines(fd)
			fa.touched = diffmap.TouchedLines(fd)
			newNames = diffmap.NewConstructNames(fd)
		}
	}

	tree, err := tstree.Parse(ctx, source, path)
	if err != nil {
		// No tree, no tree-bound findings; line-level rules still run.
		slog.Warn("parsing file failed, syntax rules skipped",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fa
	}
	fa.tree = tree
	fa.lines = tree.Lines()
	fa.constructs = diffmap.Classify(tstree.Locate(tree), fa.changed, newNames)
	return fa
}

// loadSchema loads the configured schema projection, nil when absent.
// A missing or unreadable schema is an environment error: the schema
// rules skip instead of failing the run.
func (r *Runner) loadSchema() *schema.Schema {
	if r.cfg.SchemaPath == "" {
		return nil
	}
	path := r.cfg.SchemaPath
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.workDir, path)
	}
	s, err := schema.Load(path)
	if err != nil {
		slog.Warn("loading schema failed, schema rules skipped",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return nil
	}
	return s
}

// failingRuleIDs lists rules with at least one violation.
func (r *Report) failingRuleIDs() []string {
	var ids []string
	for _, res := range r.Results {
		if len(res.Violations) > 0 && !slices.Contains(ids, res.RuleID) {
			ids = append(ids, res.RuleID)
		}
	}
	return ids
}
