// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rules

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMode indicates an unrecognized mode spelling in config
	// or on the command line.
	ErrInvalidMode = errors.New("invalid rule mode")

	// ErrDuplicateRule indicates a rule id registered twice.
	ErrDuplicateRule = errors.New("duplicate rule id")

	// ErrUnknownRule indicates a lookup for an unregistered rule id.
	ErrUnknownRule = errors.New("unknown rule id")
)

func errInvalidMode(s string) error {
	return fmt.Errorf("%w: %q", ErrInvalidMode, s)
}
