// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package escape

import (
	"strings"
	"testing"
	"time"
)

var today = time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

const keyword = "arch-disable-method-size"

func fileLines(source string) []string {
	return strings.Split(source, "\n")
}

func TestResolve_DatedValidity(t *testing.T) {
	tests := []struct {
		name        string
		dateOffset  int // days before today
		wantExpired bool
	}{
		{name: "dated today", dateOffset: 0, wantExpired: false},
		{name: "dated 10 days ago", dateOffset: 10, wantExpired: false},
		{name: "dated 29 days ago", dateOffset: 29, wantExpired: false},
		{name: "dated 32 days ago", dateOffset: 32, wantExpired: true},
		{name: "dated 90 days ago", dateOffset: 90, wantExpired: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date := today.AddDate(0, 0, -tt.dateOffset).Format("2006/01/02")
			lines := fileLines("// " + keyword + " " + date + "\nfunction big() {\n}")

			res := Resolve(lines, 2, []string{keyword}, true, today)
			if !res.Matched {
				t.Fatal("expected directive to match")
			}
			if res.Expired != tt.wantExpired {
				t.Errorf("Expired = %v, want %v (date %s)", res.Expired, tt.wantExpired, date)
			}
		})
	}
}

func TestResolve_Sentinel(t *testing.T) {
	lines := fileLines("// " + keyword + " XXXX/XX/XX\nfunction big() {\n}")

	res := Resolve(lines, 2, []string{keyword}, true, today)
	if !res.Matched || res.Expired {
		t.Errorf("sentinel must be permanently valid, got %+v", res)
	}
}

func TestResolve_MalformedDateIsExpiredNotAbsent(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{name: "feb 30", line: "// " + keyword + " 2026/02/30"},
		{name: "month 13", line: "// " + keyword + " 2026/13/01"},
		{name: "missing date", line: "// " + keyword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := fileLines(tt.line + "\nfunction big() {\n}")

			res := Resolve(lines, 2, []string{keyword}, true, today)
			if !res.Matched {
				t.Fatal("malformed directive must still match")
			}
			if !res.Expired {
				t.Error("malformed/missing date must resolve as expired")
			}
		})
	}
}

func TestResolve_BareDirectiveWithoutDateRequirement(t *testing.T) {
	lines := fileLines("// arch-disable-file\nconst x = 1;")

	res := Resolve(lines, 2, []string{"arch-disable-file"}, false, today)
	if !res.Matched || res.Expired {
		t.Errorf("bare directive must be valid when no date is required, got %+v", res)
	}
}

func TestResolve_BroaderKeywordSatisfiesNarrowerCheck(t *testing.T) {
	lines := fileLines("// arch-disable-file\nfunction big() {\n}")

	res := Resolve(lines, 2, []string{keyword, "arch-disable-file"}, false, today)
	if !res.Matched {
		t.Fatal("broader keyword should satisfy the check")
	}
	if res.Keyword != "arch-disable-file" {
		t.Errorf("Keyword = %q, want arch-disable-file", res.Keyword)
	}
}

func TestResolve_WindowLimit(t *testing.T) {
	// Directive 6 lines above the anchor: out of the 5-line window.
	source := "// " + keyword + " XXXX/XX/XX\n\n\n\n\n\nfunction big() {\n}"
	lines := fileLines(source)

	res := Resolve(lines, 7, []string{keyword}, true, today)
	if res.Matched {
		t.Error("directive outside the 5-line window must not match")
	}

	// Exactly 5 lines above: inside the window.
	source = "// " + keyword + " XXXX/XX/XX\n\n\n\n\nfunction big() {\n}"
	res = Resolve(fileLines(source), 6, []string{keyword}, true, today)
	if !res.Matched {
		t.Error("directive on the 5th line above must match")
	}
}

func TestResolve_StopsAtScopeBoundary(t *testing.T) {
	// The directive belongs to previousFn; the closing brace between it
	// and the anchor ends the scan.
	source := `// ` + keyword + ` XXXX/XX/XX
function previousFn() {
}
function big() {
}`
	lines := fileLines(source)

	res := Resolve(lines, 4, []string{keyword}, true, today)
	if res.Matched {
		t.Error("scan must stop at the closing brace of the previous scope")
	}
}

func TestResolve_DirectlyAboveAnchor(t *testing.T) {
	source := `function previousFn() {
}
// ` + keyword + ` XXXX/XX/XX
function big() {
}`
	lines := fileLines(source)

	res := Resolve(lines, 4, []string{keyword}, true, today)
	if !res.Matched {
		t.Error("directive directly above the anchor must match")
	}
}

func TestResolveTop(t *testing.T) {
	source := `// arch-disable-file-size 2026/08/20
import { x } from './x';
`
	res := ResolveTop(fileLines(source), []string{"arch-disable-file-size"}, true, today)
	if !res.Matched || res.Expired {
		t.Errorf("top-of-file directive should be valid, got %+v", res)
	}

	res = ResolveTop(fileLines("const a = 1;\n"), []string{"arch-disable-file-size"}, true, today)
	if res.Matched {
		t.Error("no directive present, must not match")
	}
}

func TestResolve_EdgeInputs(t *testing.T) {
	if res := Resolve(nil, 1, []string{keyword}, true, today); res.Matched {
		t.Error("empty file must not match")
	}
	if res := Resolve(fileLines("a\nb"), 0, []string{keyword}, true, today); res.Matched {
		t.Error("anchor below 1 must not match")
	}
	if res := Resolve(fileLines("// "+keyword), 1, nil, true, today); res.Matched {
		t.Error("no keywords must not match")
	}
}
