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
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultGitTimeout bounds one git subprocess call.
const DefaultGitTimeout = 30 * time.Second

// GitClient is the version-control collaborator. It is consumed as
// text and line lists only; the engine never links a VCS library.
//
// Implementations must be safe for concurrent use.
type GitClient interface {
	// MergeBase computes the merge base of HEAD and the given ref.
	MergeBase(ctx context.Context, ref string) (string, error)

	// DiffFile returns the unified diff for one path. An empty head
	// compares base against the working tree.
	DiffFile(ctx context.Context, base, head, path string) ([]byte, error)

	// ChangedFiles lists paths changed between base and head (or the
	// working tree when head is empty).
	ChangedFiles(ctx context.Context, base, head string) ([]string, error)

	// UntrackedFiles lists paths not yet known to version control.
	UntrackedFiles(ctx context.Context) ([]string, error)
}

// execGit shells out to the git binary.
type execGit struct {
	dir     string
	timeout time.Duration
}

// NewGitClient creates a GitClient running git in the given directory.
func NewGitClient(dir string) GitClient {
	return &execGit{dir: dir, timeout: DefaultGitTimeout}
}

func (g *execGit) run(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

func (g *execGit) MergeBase(ctx context.Context, ref string) (string, error) {
	out, err := g.run(ctx, "merge-base", "HEAD", ref)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (g *execGit) DiffFile(ctx context.Context, base, head, path string) ([]byte, error) {
	args := []string{"diff", base}
	if head != "" {
		args = append(args, head)
	}
	args = append(args, "--", path)
	return g.run(ctx, args...)
}

func (g *execGit) ChangedFiles(ctx context.Context, base, head string) ([]string, error) {
	args := []string{"diff", "--name-only", "--diff-filter=d", base}
	if head != "" {
		args = append(args, head)
	}
	out, err := g.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

func (g *execGit) UntrackedFiles(ctx context.Context) ([]string, error) {
	out, err := g.run(ctx, "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

func splitLines(out []byte) []string {
	var lines []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
