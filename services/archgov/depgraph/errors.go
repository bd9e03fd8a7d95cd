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
	"errors"
	"strings"
)

// Sentinel errors for graph operations.
var (
	// ErrUnknownDependency is returned when an edge references a package
	// that was never extracted.
	ErrUnknownDependency = errors.New("dependency on unknown package")

	// ErrSnapshotNotFound is returned when loading a blessed snapshot
	// that does not exist yet.
	ErrSnapshotNotFound = errors.New("blessed snapshot not found")

	// ErrInvalidSnapshot is returned when the snapshot file cannot be
	// decoded.
	ErrInvalidSnapshot = errors.New("invalid snapshot file")
)

// CycleError reports a dependency cycle. A cyclic graph cannot be
// layered, so sorting aborts hard with one concrete cycle path.
type CycleError struct {
	// Path is the cycle, first element repeated last:
	// ["a", "b", "c", "a"]. Every consecutive pair is an edge.
	Path []string
}

// Error renders the cycle as "a -> b -> c -> a".
func (e *CycleError) Error() string {
	return "dependency cycle detected: " + strings.Join(e.Path, " -> ")
}
