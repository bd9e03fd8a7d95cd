// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package depgraph models the inter-package dependency graph: extraction
// from workspace build configuration, topological layering, snapshot
// comparison, redundant-edge detection, and snapshot persistence.
//
// # Invariants
//
// A LeveledGraph assigns every node a level such that for every edge
// A depends-on B, level(A) > level(B); level 0 nodes have no
// dependencies. The graph is computed fresh each run from the build
// configuration and never mutated in place. The blessed snapshot is the
// only persisted state and only the explicit generate action writes it.
package depgraph

import "sort"

// AdjacencyMap is the raw extracted graph: package name to the sorted
// list of packages it depends on at build time.
type AdjacencyMap map[string][]string

// NodeInfo is one node of a leveled graph.
type NodeInfo struct {
	// Level is the topological rank. Level 0 nodes have no dependencies;
	// a node's level is strictly greater than all of its dependencies'.
	Level int `json:"level"`

	// DependsOn is the sorted list of direct dependencies.
	DependsOn []string `json:"dependsOn"`
}

// LeveledGraph maps node name to its level and dependencies. This is
// also the persisted snapshot format.
type LeveledGraph map[string]NodeInfo

// Nodes returns all node names, sorted.
func (g LeveledGraph) Nodes() []string {
	out := make([]string, 0, len(g))
	for name := range g {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// MaxLevel returns the highest level in the graph, or -1 when empty.
func (g LeveledGraph) MaxLevel() int {
	max := -1
	for _, info := range g {
		if info.Level > max {
			max = info.Level
		}
	}
	return max
}

// Adjacency converts the leveled graph back to its raw adjacency map.
func (g LeveledGraph) Adjacency() AdjacencyMap {
	adj := make(AdjacencyMap, len(g))
	for name, info := range g {
		deps := make([]string, len(info.DependsOn))
		copy(deps, info.DependsOn)
		adj[name] = deps
	}
	return adj
}

// sortedCopy returns a sorted copy of names with duplicates removed.
func sortedCopy(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
