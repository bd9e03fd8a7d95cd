// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package textmatch provides longest-common-subsequence similarity scoring
// for best-effort identifier matching.
//
// The schema-consistency rule uses it to suggest renames: when a transfer
// type carries a field the schema model does not know, the closest model
// field above a similarity threshold is surfaced in the diagnostic.
package textmatch

import "strings"

// LCSLength returns the length of the longest common subsequence of a and b.
//
// Comparison is case-insensitive so that lowerCamel source identifiers score
// well against snake_case schema fields.
func LCSLength(a, b string) int {
	a = strings.ToLower(a)
	b = strings.ToLower(b)

	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	// Two-row dynamic programming table.
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

// Similarity returns a normalized similarity score in [0, 1].
//
// The score is 2*LCS(a,b) / (len(a)+len(b)): 1.0 for identical strings,
// 0.0 when no characters are shared.
func Similarity(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	return 2.0 * float64(LCSLength(a, b)) / float64(len(a)+len(b))
}

// BestMatch returns the candidate most similar to target.
//
// Description:
//
//	Scores every candidate with Similarity and returns the best one,
//	provided its score meets the threshold. Ties resolve to the earliest
//	candidate so callers get deterministic suggestions from sorted input.
//
// Inputs:
//
//	target     - The string to match against.
//	candidates - Candidate strings, typically sorted for determinism.
//	threshold  - Minimum similarity score in [0, 1].
//
// Outputs:
//
//	string  - The best candidate, or "" when none meets the threshold.
//	float64 - The winning score.
//	bool    - True when a candidate met the threshold.
func BestMatch(target string, candidates []string, threshold float64) (string, float64, bool) {
	best := ""
	bestScore := 0.0

	for _, c := range candidates {
		score := Similarity(target, c)
		if score > bestScore {
			best = c
			bestScore = score
		}
	}

	if best == "" || bestScore < threshold {
		return "", bestScore, false
	}
	return best, bestScore, true
}
