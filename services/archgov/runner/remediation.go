// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package runner

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/AleutianAI/archguard/services/archgov/rules"
)

// remediationGuidance maps rule id to the guidance body written when
// the rule fails. The documents are write-only side effects; the
// engine never reads them back.
var remediationGuidance = map[string]string{
	rules.RuleIDMethodSize: `Split the oversized construct into smaller named units, extracting
cohesive steps into private methods. If a split is genuinely not
feasible right now, add a dated disable directive above the construct:

    // arch-disable-method-size yyyy/mm/dd

The directive is valid for one calendar month from its date.`,

	rules.RuleIDFileSize: `Split the file along its responsibilities. A dated directive in the
file's first lines defers the split for one month:

    // arch-disable-file-size yyyy/mm/dd`,

	rules.RuleIDTypeLiterals: `Extract the inline type literal into a named type alias or interface
next to its consumers. Aliased structural types stay greppable and
reusable; inline literals are neither.`,

	rules.RuleIDAnyUnknown: `Replace any/unknown with the concrete type. If the shape is genuinely
open, model it explicitly (a named union or a generic parameter).`,

	rules.RuleIDDestructuring: `Access properties through their object instead of destructuring them
into locals. The object name carries the provenance of every value.`,

	rules.RuleIDSchemaConsistency: `Every field of a transfer type must exist as a column on its matched
model. Either add the column to the schema, rename the field to an
existing column, or mark the field @deprecated while it is removed.`,

	rules.RuleIDConverterShape: `Converters take the model as their first parameter, boolean flags
after it, and return the transfer type synchronously from an instance
method. Construct transfer types only inside converter directories.`,
}

// writeRemediation writes one guidance document per failing rule into
// the scratch directory. Failures here are logged and swallowed; the
// report already carries the violations.
func (r *Runner) writeRemediation(report *Report) {
	if err := os.MkdirAll(r.scratchDir, 0o750); err != nil {
		slog.Warn("creating scratch dir failed, remediation docs skipped",
			slog.String("dir", r.scratchDir),
			slog.String("error", err.Error()))
		return
	}

	for _, id := range report.failingRuleIDs() {
		guidance, ok := remediationGuidance[id]
		if !ok {
			continue
		}

		var b strings.Builder
		fmt.Fprintf(&b, "# Remediation: %s\n\n", id)
		b.WriteString(strings.TrimSpace(guidance))
		b.WriteString("\n\n## Findings\n\n")
		for _, res := range report.Results {
			if res.RuleID != id {
				continue
			}
			for _, v := range res.Violations {
				fmt.Fprintf(&b, "- %s:%d %s\n", v.File, v.Line, v.Message)
			}
		}

		path := filepath.Join(r.scratchDir, "remediation-"+id+".md")
		if err := os.WriteFile(path, []byte(b.String()), 0o640); err != nil {
			slog.Warn("writing remediation doc failed",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
	}
}
