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
	"context"
	"fmt"
	"time"
)

// =============================================================================
// REGISTRY
// =============================================================================

// Registry holds rules in registration order. The runner iterates the
// registry instead of hard-coding rule call sites, so adding a rule is
// one Register call.
//
// Thread Safety: Register during setup only; reads are safe for
// concurrent use afterwards.
type Registry struct {
	order []string
	byID  map[string]Rule
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]Rule)}
}

// Register adds a rule. Ids must be unique.
func (r *Registry) Register(rule Rule) error {
	id := rule.ID()
	if _, exists := r.byID[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRule, id)
	}
	r.byID[id] = rule
	r.order = append(r.order, id)
	return nil
}

// Get returns the rule with the given id.
func (r *Registry) Get(id string) (Rule, error) {
	rule, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRule, id)
	}
	return rule, nil
}

// All returns the rules in registration order.
func (r *Registry) All() []Rule {
	out := make([]Rule, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Evaluate runs one rule over one file and records evaluation metrics.
// Rules stay pure; instrumentation lives here.
func (r *Registry) Evaluate(ctx context.Context, rule Rule, fc *FileContext) ([]Violation, error) {
	start := time.Now()
	violations, err := rule.Evaluate(fc)
	recordEvaluation(ctx, rule.ID(), time.Since(start), len(violations), err)
	return violations, err
}

// DefaultRegistry builds the standard rule set with the configuration
// applied to each rule's limits.
//
// Description:
//
//	Registration order fixes output order: size rules first, then the
//	type-discipline rules, then the schema-bound rules. The schema is
//	loaded by the caller and threaded through FileContext, not held by
//	the rules, so one registry serves concurrent file evaluations.
func DefaultRegistry(cfg *Config) *Registry {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	reg := NewRegistry()
	for _, rule := range []Rule{
		NewMethodSizeRule(cfg.LimitFor(RuleIDMethodSize, DefaultMethodSizeLimit)),
		NewFileSizeRule(cfg.LimitFor(RuleIDFileSize, DefaultFileSizeLimit)),
		NewTypeLiteralsRule(),
		NewAnyUnknownRule(),
		NewDestructuringRule(),
		NewSchemaConsistencyRule(),
		NewConverterShapeRule(cfg.ConverterDirs),
	} {
		// Ids are compile-time constants; a collision is a programming
		// error, not a runtime condition.
		if err := reg.Register(rule); err != nil {
			panic(err)
		}
	}
	return reg
}
