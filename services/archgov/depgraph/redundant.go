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

import "sort"

// =============================================================================
// REDUNDANT (SKIP-LEVEL) EDGE DETECTION
// =============================================================================

// RedundantEdge is a direct edge already implied by a transitive path
// through a sibling edge.
type RedundantEdge struct {
	// From -> To is the redundant direct edge.
	From string `json:"from"`
	To   string `json:"to"`

	// Via is the sibling direct dependency whose transitive closure
	// already contains To.
	Via string `json:"via"`
}

// FindRedundantEdges flags skip-level dependencies.
//
// Description:
//
//	For each node, computes the transitive closure reachable through
//	each individual direct dependency. A direct edge A -> C is
//	redundant when some other direct dependency B of A reaches C. The
//	reported Via is the alphabetically first such sibling. Results are
//	ordered by (From, To).
//
// Inputs:
//
//	adj - Acyclic adjacency map. Behavior on cyclic input is undefined;
//	      callers sort first and abort on cycles.
//
// Outputs:
//
//	[]RedundantEdge - Every redundant direct edge. Never nil.
func FindRedundantEdges(adj AdjacencyMap) []RedundantEdge {
	redundant := make([]RedundantEdge, 0)
	closures := make(map[string]map[string]struct{}, len(adj))

	for _, node := range sortedKeys(adj) {
		deps := sortedCopy(adj[node])

		for _, target := range deps {
			via := ""
			for _, sibling := range deps {
				if sibling == target {
					continue
				}
				if _, ok := closure(adj, sibling, closures)[target]; ok {
					via = sibling
					break
				}
			}
			if via != "" {
				redundant = append(redundant, RedundantEdge{From: node, To: target, Via: via})
			}
		}
	}

	return redundant
}

// closure returns the set of nodes reachable from start, memoized
// across the whole detection pass.
func closure(adj AdjacencyMap, start string, memo map[string]map[string]struct{}) map[string]struct{} {
	if cached, ok := memo[start]; ok {
		return cached
	}

	reach := make(map[string]struct{})
	// Reserve the entry before recursing; on acyclic input recursion
	// terminates and the final set overwrites it.
	memo[start] = reach

	for _, dep := range adj[start] {
		reach[dep] = struct{}{}
		for indirect := range closure(adj, dep, memo) {
			reach[indirect] = struct{}{}
		}
	}

	memo[start] = reach
	return reach
}

func sortedKeys(adj AdjacencyMap) []string {
	keys := make([]string, 0, len(adj))
	for k := range adj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
