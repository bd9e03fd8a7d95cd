// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// archguard enforces monorepo architecture: the package dependency
// graph stays acyclic, layered, and drift-free from its blessed
// snapshot, and touched source code obeys the structural rules.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/archguard/pkg/logging"
	"github.com/AleutianAI/archguard/services/archgov/rules"
)

// CLI exit codes. Fail-open skips exit with success; violations and
// internal errors are distinguishable for CI.
const (
	CLIExitSuccess   = 0
	CLIExitViolation = 1
	CLIExitError     = 2
)

// errViolations marks a run that completed but found violations.
var errViolations = errors.New("violations found")

var (
	flagWorkspace string
	flagConfig    string
	flagJSON      bool
	flagLogLevel  string
	flagQuiet     bool

	logger *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "archguard",
	Short: "Monorepo architecture governance",
	Long: `archguard validates the package dependency graph against its blessed
snapshot and enforces diff-attributed structural rules on source code.

Examples:
  archguard graph generate
  archguard graph validate-no-cycles
  archguard rules run --base origin/main
  archguard rules run --rule method-size --limit 60`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.New(logging.Config{
			Level:   logging.ParseLevel(flagLogLevel),
			Service: "archguard",
			Quiet:   flagQuiet,
		})
		logger.SetProcessDefault()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagWorkspace, "workspace", ".", "Monorepo root directory")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "archguard.yaml", "Rule-set configuration file, relative to the workspace")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Emit machine-readable JSON output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&flagQuiet, "quiet", false, "Suppress log output")

	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(rulesCmd)
}

// loadRuleConfig reads the rule-set configuration from the workspace.
func loadRuleConfig() (*rules.Config, error) {
	path := flagConfig
	if !filepath.IsAbs(path) {
		path = filepath.Join(flagWorkspace, path)
	}
	return rules.LoadConfig(path)
}

func main() {
	err := rootCmd.Execute()
	if logger != nil {
		logger.Close()
	}
	if err == nil {
		os.Exit(CLIExitSuccess)
	}
	if errors.Is(err, errViolations) {
		os.Exit(CLIExitViolation)
	}
	fmt.Fprintf(os.Stderr, "archguard: %v\n", err)
	os.Exit(CLIExitError)
}
