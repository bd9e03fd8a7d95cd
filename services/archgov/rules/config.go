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
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// RULE-SET CONFIGURATION
// =============================================================================

// RuleConfig is the per-rule configuration block.
type RuleConfig struct {
	// Mode overrides the rule's default scope. Empty keeps the default.
	Mode string `yaml:"mode"`

	// Limit overrides a size rule's threshold. Zero keeps the default.
	Limit int `yaml:"limit"`

	// DisableAllowed gates the escape-hatch protocol. Nil keeps the
	// default (allowed).
	DisableAllowed *bool `yaml:"disableAllowed"`
}

// Config is the rule-set configuration file (archguard.yaml).
type Config struct {
	// SchemaPath locates the relational schema definition file for the
	// schema-bound rules. Empty disables them.
	SchemaPath string `yaml:"schemaPath"`

	// ConverterDirs are directory names in which transfer-type
	// construction is sanctioned.
	ConverterDirs []string `yaml:"converterDirs"`

	// TrunkBranch is the ref used for merge-base resolution when no
	// explicit base is given.
	TrunkBranch string `yaml:"trunkBranch"`

	// Rules maps rule id to its overrides.
	Rules map[string]RuleConfig `yaml:"rules"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		ConverterDirs: []string{"converters"},
		TrunkBranch:   "main",
		Rules:         map[string]RuleConfig{},
	}
}

// LoadConfig reads a YAML rule-set configuration.
//
// Description:
//
//	A missing file yields the defaults rather than an error so the
//	tool works out of the box; a present but malformed file is a hard
//	error because silently ignoring explicit configuration would make
//	enforcement unpredictable.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decoding config %s: %w", path, err)
	}
	if len(cfg.ConverterDirs) == 0 {
		cfg.ConverterDirs = []string{"converters"}
	}
	if cfg.TrunkBranch == "" {
		cfg.TrunkBranch = "main"
	}
	if cfg.Rules == nil {
		cfg.Rules = map[string]RuleConfig{}
	}
	return cfg, nil
}

// ModeFor resolves the effective mode for a rule.
func (c *Config) ModeFor(rule Rule) (Mode, error) {
	rc, ok := c.Rules[rule.ID()]
	if !ok || rc.Mode == "" {
		return rule.DefaultMode(), nil
	}
	mode, err := ParseMode(rc.Mode)
	if err != nil {
		return ModeOff, fmt.Errorf("rule %s: %w", rule.ID(), err)
	}
	return mode, nil
}

// LimitFor resolves a size rule's threshold.
func (c *Config) LimitFor(id string, fallback int) int {
	if rc, ok := c.Rules[id]; ok && rc.Limit > 0 {
		return rc.Limit
	}
	return fallback
}

// DisableAllowedFor resolves the escape-hatch gate. Disables are
// allowed unless explicitly turned off.
func (c *Config) DisableAllowedFor(id string) bool {
	if rc, ok := c.Rules[id]; ok && rc.DisableAllowed != nil {
		return *rc.DisableAllowed
	}
	return true
}
