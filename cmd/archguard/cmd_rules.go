// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/archguard/services/archgov/rules"
	"github.com/AleutianAI/archguard/services/archgov/runner"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	flagRuleIDs        []string
	flagBase           string
	flagHead           string
	flagMode           string
	flagLimit          int
	flagDisableAllowed bool
)

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Run the diff-attributed structural rules",
	Long: `Commands for the structural rule engine.

Rules are scoped to the diff between a base ref and the working tree
(or an explicit head). Without --base, the merge base with the trunk
branch is used; when none exists the run is skipped, not failed.

Examples:
  archguard rules run
  archguard rules run --base origin/main --json
  archguard rules run --rule method-size --mode all-files --limit 60`,
}

var rulesRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Evaluate the enabled rules against the diff",
	RunE:  runRules,
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the registered rules and their effective modes",
	RunE:  runRulesList,
}

func init() {
	rulesRunCmd.Flags().StringSliceVar(&flagRuleIDs, "rule", nil, "Restrict the run to these rule ids")
	rulesRunCmd.Flags().StringVar(&flagBase, "base", "", "Diff base ref (default: merge base with the trunk branch)")
	rulesRunCmd.Flags().StringVar(&flagHead, "head", "", "Diff head ref (default: working tree)")
	rulesRunCmd.Flags().StringVar(&flagMode, "mode", "", "Override the scope mode for the selected rules")
	rulesRunCmd.Flags().IntVar(&flagLimit, "limit", 0, "Override the size limit for the selected rules")
	rulesRunCmd.Flags().BoolVar(&flagDisableAllowed, "disable-allowed", true, "Honor inline disable directives")

	rulesCmd.AddCommand(rulesRunCmd)
	rulesCmd.AddCommand(rulesListCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATIONS
// =============================================================================

// applyFlagOverrides folds the command-line overrides into the loaded
// configuration for the selected rules (or all, with no filter).
func applyFlagOverrides(cmd *cobra.Command, cfg *rules.Config) error {
	if flagMode != "" {
		if _, err := rules.ParseMode(flagMode); err != nil {
			return err
		}
	}

	targets := flagRuleIDs
	if len(targets) == 0 {
		for _, rule := range rules.DefaultRegistry(cfg).All() {
			targets = append(targets, rule.ID())
		}
	}

	for _, id := range targets {
		rc := cfg.Rules[id]
		if flagMode != "" {
			rc.Mode = flagMode
		}
		if flagLimit > 0 {
			rc.Limit = flagLimit
		}
		if cmd.Flags().Changed("disable-allowed") {
			allowed := flagDisableAllowed
			rc.DisableAllowed = &allowed
		}
		cfg.Rules[id] = rc
	}
	return nil
}

func runRules(cmd *cobra.Command, args []string) error {
	cfg, err := loadRuleConfig()
	if err != nil {
		return err
	}
	if err := applyFlagOverrides(cmd, cfg); err != nil {
		return err
	}

	opts := []runner.Option{
		runner.WithConfig(cfg),
		runner.WithRegistry(rules.DefaultRegistry(cfg)),
	}
	if len(flagRuleIDs) > 0 {
		opts = append(opts, runner.WithRuleFilter(flagRuleIDs...))
	}

	report, err := runner.NewRunner(flagWorkspace, opts...).Run(cmd.Context(), flagBase, flagHead)
	if err != nil {
		return err
	}

	if flagJSON {
		if err := outputJSON(report); err != nil {
			return err
		}
	} else {
		printReport(report)
	}

	if !report.Passed {
		return errViolations
	}
	return nil
}

func printReport(report *runner.Report) {
	if report.Skipped {
		fmt.Printf("skipped: %s\n", report.SkipReason)
		return
	}

	violations := report.Violations()
	if len(violations) == 0 {
		fmt.Printf("all rules passed (%d files)\n", len(report.Files))
		return
	}

	for _, v := range violations {
		if v.Column > 0 {
			fmt.Printf("%s:%d:%d [%s] %s\n", v.File, v.Line, v.Column, v.RuleID, v.Message)
		} else {
			fmt.Printf("%s:%d [%s] %s\n", v.File, v.Line, v.RuleID, v.Message)
		}
	}
	fmt.Printf("%d violation(s) across %d file(s)\n", len(violations), len(report.Files))
}

func runRulesList(cmd *cobra.Command, args []string) error {
	cfg, err := loadRuleConfig()
	if err != nil {
		return err
	}

	type ruleInfo struct {
		ID   string `json:"id"`
		Mode string `json:"mode"`
	}
	var infos []ruleInfo
	for _, rule := range rules.DefaultRegistry(cfg).All() {
		mode, err := cfg.ModeFor(rule)
		if err != nil {
			return err
		}
		infos = append(infos, ruleInfo{ID: rule.ID(), Mode: mode.String()})
	}

	if flagJSON {
		return outputJSON(infos)
	}
	for _, info := range infos {
		fmt.Printf("%-20s %s\n", info.ID, info.Mode)
	}
	return nil
}
