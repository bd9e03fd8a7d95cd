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

// Visualize renders the leveled graph as text, one level per section,
// highest level (application layer) first.
//
//	level 2
//	  api -> [core, util]
//	level 1
//	  core -> [util]
//	level 0
//	  util
func Visualize(g LeveledGraph) string {
	if len(g) == 0 {
		return "(empty graph)\n"
	}

	byLevel := make(map[int][]string)
	for name, info := range g {
		byLevel[info.Level] = append(byLevel[info.Level], name)
	}

	var b strings.Builder
	for level := g.MaxLevel(); level >= 0; level-- {
		nodes := byLevel[level]
		sort.Strings(nodes)

		fmt.Fprintf(&b, "level %d\n", level)
		for _, name := range nodes {
			deps := g[name].DependsOn
			if len(deps) == 0 {
				fmt.Fprintf(&b, "  %s\n", name)
			} else {
				fmt.Fprintf(&b, "  %s -> [%s]\n", name, strings.Join(deps, ", "))
			}
		}
	}
	return b.String()
}
