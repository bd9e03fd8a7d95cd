// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tstree wraps tree-sitter TypeScript parsing for the rule engine.
//
// The package is the module's only contact with the syntax-tree
// collaborator. It produces an immutable per-file Tree with node kinds,
// 1-based line/column conversion, and parent/child navigation, plus the
// construct locator that yields every function/method/class-member with
// its name and line span.
//
// # Thread Safety
//
// Parse creates a fresh tree-sitter parser per call, so it is safe for
// concurrent use. A Tree is read-only after Parse returns and may be
// shared across goroutines; Close must be called exactly once when the
// analysis of the file is finished.
package tstree

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// DefaultMaxFileSize is the largest file Parse will accept (10 MB).
const DefaultMaxFileSize = 10 * 1024 * 1024

// Tree is an immutable parsed syntax tree for one file.
type Tree struct {
	// Path is the file path the tree was parsed from.
	Path string

	// Source is the raw file content the tree positions refer to.
	Source []byte

	tree  *sitter.Tree
	lines []string
}

// ParseOption configures Parse.
type ParseOption func(*parseConfig)

type parseConfig struct {
	maxFileSize int64
}

// WithMaxFileSize sets the maximum file size Parse will accept.
func WithMaxFileSize(bytes int64) ParseOption {
	return func(c *parseConfig) {
		if bytes > 0 {
			c.maxFileSize = bytes
		}
	}
}

// Parse parses TypeScript source into a Tree.
//
// Description:
//
//	Selects the TSX grammar for .tsx files and the TypeScript grammar
//	otherwise, then parses the content with a per-call tree-sitter
//	parser. Syntax errors in the source do not fail the parse;
//	tree-sitter produces a best-effort tree and the rules operate on
//	whatever structure is recoverable.
//
// Inputs:
//
//	ctx     - Context for cancellation. Checked before and after parsing.
//	content - Raw source bytes. Must be valid UTF-8.
//	path    - File path, used for grammar selection and diagnostics.
//
// Outputs:
//
//	*Tree - The parsed tree. Callers must Close it when done.
//	error - ErrFileTooLarge, ErrInvalidContent, or a context error.
//
// Thread Safety: Safe for concurrent use.
func Parse(ctx context.Context, content []byte, path string, opts ...ParseOption) (*Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse canceled before start: %w", err)
	}

	cfg := parseConfig{maxFileSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	if int64(len(content)) > cfg.maxFileSize {
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(content), cfg.maxFileSize)
	}
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent)
	}

	parser := sitter.NewParser()
	if strings.HasSuffix(path, ".tsx") {
		parser.SetLanguage(tsx.GetLanguage())
	} else {
		parser.SetLanguage(typescript.GetLanguage())
	}

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}

	if err := ctx.Err(); err != nil {
		tree.Close()
		return nil, fmt.Errorf("parse canceled after tree-sitter: %w", err)
	}

	return &Tree{
		Path:   path,
		Source: content,
		tree:   tree,
		lines:  strings.Split(string(content), "\n"),
	}, nil
}

// Root returns the root syntax node.
func (t *Tree) Root() *sitter.Node {
	return t.tree.RootNode()
}

// Lines returns the source split into lines. Index 0 is line 1.
func (t *Tree) Lines() []string {
	return t.lines
}

// LineCount returns the number of lines in the source.
func (t *Tree) LineCount() int {
	return len(t.lines)
}

// Text returns the source text of a node.
func (t *Tree) Text(n *sitter.Node) string {
	return n.Content(t.Source)
}

// Close releases the underlying tree-sitter tree.
func (t *Tree) Close() {
	if t.tree != nil {
		t.tree.Close()
		t.tree = nil
	}
}

// StartLine returns the 1-based line a node starts on.
func StartLine(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

// EndLine returns the 1-based line a node ends on (inclusive).
func EndLine(n *sitter.Node) int {
	return int(n.EndPoint().Row) + 1
}

// StartColumn returns the 1-based column a node starts at.
func StartColumn(n *sitter.Node) int {
	return int(n.StartPoint().Column) + 1
}

// Walk visits every node in the subtree rooted at n exactly once,
// depth-first, parents before children. Returning false from visit
// prunes the node's subtree.
func Walk(n *sitter.Node, visit func(*sitter.Node) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		Walk(n.Child(i), visit)
	}
}
