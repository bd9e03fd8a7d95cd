// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package depgraph

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// =============================================================================
// GRAPH EXTRACTION
// =============================================================================

// PackageConfig is the declared build configuration of one package, as
// written by the host build orchestrator.
type PackageConfig struct {
	// Name is the package identifier. Empty names fall back to the
	// directory name.
	Name string `json:"name"`

	// DependsOn lists declared build-time dependencies.
	DependsOn []string `json:"dependsOn"`

	// ImplicitDependencies lists dependencies the orchestrator injects
	// without an import relationship. They are architectural edges all
	// the same.
	ImplicitDependencies []string `json:"implicitDependencies"`
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithConfigFileName overrides the per-package config file name.
// Default: "project.json".
func WithConfigFileName(name string) ExtractorOption {
	return func(e *Extractor) {
		if name != "" {
			e.configName = name
		}
	}
}

// WithExcludedPackages marks packages that are not part of the
// architecture (documentation, tooling shims). They are dropped as
// nodes and removed from every dependency list.
func WithExcludedPackages(names ...string) ExtractorOption {
	return func(e *Extractor) {
		for _, n := range names {
			e.excluded[normalizeName(n)] = struct{}{}
		}
	}
}

// Extractor reads workspace build configuration into an adjacency map.
//
// Thread Safety: Immutable after creation; safe for concurrent use.
type Extractor struct {
	root       string
	configName string
	excluded   map[string]struct{}
}

// NewExtractor creates an extractor rooted at the workspace directory.
func NewExtractor(root string, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		root:       root,
		configName: "project.json",
		excluded:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract walks the workspace and produces the raw adjacency map.
//
// Description:
//
//	Finds every package config file under the root (skipping hidden
//	directories and node_modules), decodes it, normalizes names, and
//	merges DependsOn with ImplicitDependencies into one sorted edge
//	list. Excluded packages are dropped both as nodes and as edges.
//	Self-edges are discarded. A dependency on a package that has no
//	config of its own stays in the edge list so Sort can report it as
//	unknown rather than silently losing the edge.
//
// Outputs:
//
//	AdjacencyMap - Package name to sorted dependency list. Never nil.
//	error        - Non-nil on filesystem or decode errors.
func (e *Extractor) Extract() (AdjacencyMap, error) {
	adj := make(AdjacencyMap)

	err := filepath.WalkDir(e.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != e.root && (strings.HasPrefix(name, ".") || name == "node_modules" || name == "dist") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() != e.configName {
			return nil
		}

		cfg, err := e.readConfig(path)
		if err != nil {
			return err
		}

		pkg := normalizeName(cfg.Name)
		if pkg == "" {
			pkg = normalizeName(filepath.Base(filepath.Dir(path)))
		}
		if e.isExcluded(pkg) {
			slog.Debug("excluding non-architectural package", slog.String("package", pkg))
			return nil
		}

		deps := make([]string, 0, len(cfg.DependsOn)+len(cfg.ImplicitDependencies))
		for _, dep := range append(append([]string{}, cfg.DependsOn...), cfg.ImplicitDependencies...) {
			norm := normalizeName(dep)
			if norm == "" || norm == pkg || e.isExcluded(norm) {
				continue
			}
			deps = append(deps, norm)
		}

		adj[pkg] = sortedCopy(append(adj[pkg], deps...))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking workspace: %w", err)
	}

	return adj, nil
}

func (e *Extractor) readConfig(path string) (*PackageConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading package config %s: %w", path, err)
	}
	var cfg PackageConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decoding package config %s: %w", path, err)
	}
	return &cfg, nil
}

func (e *Extractor) isExcluded(name string) bool {
	_, ok := e.excluded[name]
	return ok
}

// normalizeName trims whitespace and strips a leading workspace scope
// ("@org/pkg" -> "pkg") so config variants agree on node identity.
func normalizeName(name string) string {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, "@") {
		if idx := strings.Index(name, "/"); idx >= 0 {
			name = name[idx+1:]
		}
	}
	return name
}
