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
	"fmt"
	"sort"
	"strings"
)

// =============================================================================
// SNAPSHOT COMPARISON
// =============================================================================

// EdgeDiff lists per-node edge changes.
type EdgeDiff struct {
	Node    string   `json:"node"`
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

// LevelChange records a node whose topological level moved.
type LevelChange struct {
	Node string `json:"node"`
	From int    `json:"from"`
	To   int    `json:"to"`
}

// Diff is the structural difference between a fresh layering and the
// blessed snapshot.
type Diff struct {
	AddedNodes   []string      `json:"addedNodes,omitempty"`
	RemovedNodes []string      `json:"removedNodes,omitempty"`
	EdgeDiffs    []EdgeDiff    `json:"edgeDiffs,omitempty"`
	LevelChanges []LevelChange `json:"levelChanges,omitempty"`
}

// Identical reports whether the two graphs are structurally equal.
func (d Diff) Identical() bool {
	return len(d.AddedNodes) == 0 &&
		len(d.RemovedNodes) == 0 &&
		len(d.EdgeDiffs) == 0 &&
		len(d.LevelChanges) == 0
}

// Summary renders the diff as human-readable lines, one change each.
// Empty for identical graphs.
func (d Diff) Summary() string {
	var b strings.Builder
	for _, n := range d.AddedNodes {
		fmt.Fprintf(&b, "node added: %s\n", n)
	}
	for _, n := range d.RemovedNodes {
		fmt.Fprintf(&b, "node removed: %s\n", n)
	}
	for _, e := range d.EdgeDiffs {
		for _, dep := range e.Added {
			fmt.Fprintf(&b, "edge added: %s -> %s\n", e.Node, dep)
		}
		for _, dep := range e.Removed {
			fmt.Fprintf(&b, "edge removed: %s -> %s\n", e.Node, dep)
		}
	}
	for _, lc := range d.LevelChanges {
		fmt.Fprintf(&b, "level changed: %s %d -> %d\n", lc.Node, lc.From, lc.To)
	}
	return b.String()
}

// Compare computes the structural diff from blessed to fresh.
//
// Description:
//
//	Set differences over nodes, per-node edges, and levels. Edge and
//	level diffs are only reported for nodes present in both graphs;
//	a node addition or removal already implies its edges. All slices
//	are sorted for deterministic output.
//
//	Compare(g, g) is identical for every g.
//
// Inputs:
//
//	fresh   - The freshly computed layering.
//	blessed - The persisted snapshot.
//
// Outputs:
//
//	Diff - See field docs. Zero value means identical.
func Compare(fresh, blessed LeveledGraph) Diff {
	var d Diff

	for _, node := range fresh.Nodes() {
		if _, ok := blessed[node]; !ok {
			d.AddedNodes = append(d.AddedNodes, node)
		}
	}
	for _, node := range blessed.Nodes() {
		if _, ok := fresh[node]; !ok {
			d.RemovedNodes = append(d.RemovedNodes, node)
		}
	}

	for _, node := range fresh.Nodes() {
		blessedInfo, ok := blessed[node]
		if !ok {
			continue
		}
		freshInfo := fresh[node]

		added, removed := diffEdges(freshInfo.DependsOn, blessedInfo.DependsOn)
		if len(added) > 0 || len(removed) > 0 {
			d.EdgeDiffs = append(d.EdgeDiffs, EdgeDiff{Node: node, Added: added, Removed: removed})
		}

		if freshInfo.Level != blessedInfo.Level {
			d.LevelChanges = append(d.LevelChanges, LevelChange{
				Node: node,
				From: blessedInfo.Level,
				To:   freshInfo.Level,
			})
		}
	}

	return d
}

func diffEdges(fresh, blessed []string) (added, removed []string) {
	freshSet := toSet(fresh)
	blessedSet := toSet(blessed)

	for dep := range freshSet {
		if _, ok := blessedSet[dep]; !ok {
			added = append(added, dep)
		}
	}
	for dep := range blessedSet {
		if _, ok := freshSet[dep]; !ok {
			removed = append(removed, dep)
		}
	}

	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}
