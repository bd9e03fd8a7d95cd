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
)

// =============================================================================
// TOPOLOGICAL LAYERING
// =============================================================================

// Sort layers an adjacency map with Kahn's algorithm.
//
// Description:
//
//	Repeatedly collects every unprocessed node whose dependencies are
//	all processed into the next layer. Layers are assigned ascending
//	levels starting at 0 and each layer is gathered in alphabetical
//	order so the result is deterministic. When a pass adds nothing
//	while unprocessed nodes remain, the residue contains a cycle; the
//	residual subgraph is searched depth-first and one concrete cycle
//	path is reported in the error.
//
// Inputs:
//
//	adj - Raw adjacency map. Dependencies must reference extracted
//	      packages.
//
// Outputs:
//
//	LeveledGraph - Every node with its level and sorted dependencies.
//	error        - *CycleError on a cycle, ErrUnknownDependency on a
//	               dangling edge.
func Sort(adj AdjacencyMap) (LeveledGraph, error) {
	for node, deps := range adj {
		for _, dep := range deps {
			if _, ok := adj[dep]; !ok {
				return nil, fmt.Errorf("%w: %s -> %s", ErrUnknownDependency, node, dep)
			}
		}
	}

	graph := make(LeveledGraph, len(adj))
	processed := make(map[string]struct{}, len(adj))

	level := 0
	for len(processed) < len(adj) {
		layer := collectLayer(adj, processed)
		if len(layer) == 0 {
			return nil, &CycleError{Path: findCycle(adj, processed)}
		}

		for _, node := range layer {
			graph[node] = NodeInfo{
				Level:     level,
				DependsOn: sortedCopy(adj[node]),
			}
			processed[node] = struct{}{}
		}
		level++
	}

	return graph, nil
}

// collectLayer gathers all unprocessed nodes whose dependencies are
// fully processed, in alphabetical order.
func collectLayer(adj AdjacencyMap, processed map[string]struct{}) []string {
	var layer []string

	for node, deps := range adj {
		if _, done := processed[node]; done {
			continue
		}
		ready := true
		for _, dep := range deps {
			if _, done := processed[dep]; !done {
				ready = false
				break
			}
		}
		if ready {
			layer = append(layer, node)
		}
	}

	sort.Strings(layer)
	return layer
}

// findCycle extracts one concrete cycle from the unprocessed residue.
//
// Every residual node has at least one unprocessed dependency, so a walk
// that always steps to an unprocessed dependency must revisit a node
// within len(residue) steps. The returned path starts and ends with the
// revisited node and every consecutive pair is an edge of adj.
func findCycle(adj AdjacencyMap, processed map[string]struct{}) []string {
	residue := make([]string, 0)
	for node := range adj {
		if _, done := processed[node]; !done {
			residue = append(residue, node)
		}
	}
	sort.Strings(residue)
	if len(residue) == 0 {
		return nil
	}

	// Walk from the alphabetically first residual node, always taking
	// the first unprocessed dependency, until a node repeats.
	visitedAt := map[string]int{}
	var path []string
	current := residue[0]

	for {
		if at, seen := visitedAt[current]; seen {
			cycle := append([]string{}, path[at:]...)
			return append(cycle, current)
		}
		visitedAt[current] = len(path)
		path = append(path, current)

		next := ""
		for _, dep := range sortedCopy(adj[current]) {
			if _, done := processed[dep]; !done {
				next = dep
				break
			}
		}
		if next == "" {
			// Unreachable for a true residue; guard against malformed
			// input rather than looping forever.
			return path
		}
		current = next
	}
}
