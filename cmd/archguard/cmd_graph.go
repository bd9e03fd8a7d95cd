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
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/archguard/services/archgov/depgraph"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	flagSnapshot   string
	flagExclude    []string
	flagConfigName string
)

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Validate the package dependency graph",
	Long: `Commands for the package dependency graph: extraction, layering,
snapshot comparison, and structural validation.

The blessed snapshot is the last explicitly approved graph state.
Only 'generate' writes it; validation commands never do.

Examples:
  archguard graph generate
  archguard graph validate-unchanged
  archguard graph validate-no-cycles
  archguard graph validate-no-skiplevel-deps
  archguard graph visualize`,
}

var graphGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Compute the layered graph and bless it as the snapshot",
	RunE:  runGraphGenerate,
}

var graphValidateUnchangedCmd = &cobra.Command{
	Use:   "validate-unchanged",
	Short: "Fail when the fresh graph drifts from the blessed snapshot",
	RunE:  runGraphValidateUnchanged,
}

var graphValidateNoCyclesCmd = &cobra.Command{
	Use:   "validate-no-cycles",
	Short: "Fail when the dependency graph contains a cycle",
	RunE:  runGraphValidateNoCycles,
}

var graphValidateNoSkiplevelCmd = &cobra.Command{
	Use:   "validate-no-skiplevel-deps",
	Short: "Fail on direct edges already implied by a transitive path",
	RunE:  runGraphValidateNoSkiplevel,
}

var graphVisualizeCmd = &cobra.Command{
	Use:   "visualize",
	Short: "Render the layered graph as text",
	RunE:  runGraphVisualize,
}

func init() {
	graphCmd.PersistentFlags().StringVar(&flagSnapshot, "snapshot", "architecture.json", "Blessed snapshot file, relative to the workspace")
	graphCmd.PersistentFlags().StringSliceVar(&flagExclude, "exclude", nil, "Packages excluded from the architecture")
	graphCmd.PersistentFlags().StringVar(&flagConfigName, "config-name", "project.json", "Per-package build config file name")

	graphCmd.AddCommand(graphGenerateCmd)
	graphCmd.AddCommand(graphValidateUnchangedCmd)
	graphCmd.AddCommand(graphValidateNoCyclesCmd)
	graphCmd.AddCommand(graphValidateNoSkiplevelCmd)
	graphCmd.AddCommand(graphVisualizeCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATIONS
// =============================================================================

func snapshotPath() string {
	if filepath.IsAbs(flagSnapshot) {
		return flagSnapshot
	}
	return filepath.Join(flagWorkspace, flagSnapshot)
}

// extractGraph reads the workspace build configuration.
func extractGraph() (depgraph.AdjacencyMap, error) {
	extractor := depgraph.NewExtractor(flagWorkspace,
		depgraph.WithConfigFileName(flagConfigName),
		depgraph.WithExcludedPackages(flagExclude...))
	return extractor.Extract()
}

// sortGraph layers the adjacency map, rendering cycles as violations.
func sortGraph(cmd *cobra.Command, adj depgraph.AdjacencyMap) (depgraph.LeveledGraph, error) {
	graph, err := depgraph.TimedSort(cmd.Context(), adj)

	var cycleErr *depgraph.CycleError
	if errors.As(err, &cycleErr) {
		// A cyclic graph cannot be layered; this is the one hard stop.
		fmt.Println(cycleErr.Error())
		return nil, errViolations
	}
	if err != nil {
		return nil, err
	}
	return graph, nil
}

func runGraphGenerate(cmd *cobra.Command, args []string) error {
	adj, err := extractGraph()
	if err != nil {
		return err
	}
	graph, err := sortGraph(cmd, adj)
	if err != nil {
		return err
	}

	if err := depgraph.Save(snapshotPath(), graph); err != nil {
		return err
	}
	if flagJSON {
		return outputJSON(graph)
	}
	fmt.Printf("blessed %d packages, %d levels -> %s\n", len(graph), graph.MaxLevel()+1, snapshotPath())
	return nil
}

func runGraphValidateUnchanged(cmd *cobra.Command, args []string) error {
	adj, err := extractGraph()
	if err != nil {
		return err
	}
	fresh, err := sortGraph(cmd, adj)
	if err != nil {
		return err
	}

	blessed, err := depgraph.Load(snapshotPath())
	if err != nil {
		return err
	}

	diff := depgraph.Compare(fresh, blessed)
	if diff.Identical() {
		fmt.Println("dependency graph matches the blessed snapshot")
		return nil
	}

	if flagJSON {
		if err := outputJSON(diff); err != nil {
			return err
		}
	} else {
		fmt.Println("dependency graph drifted from the blessed snapshot:")
		fmt.Print(diff.Summary())
		fmt.Println("run 'archguard graph generate' after the change is approved")
	}
	return errViolations
}

func runGraphValidateNoCycles(cmd *cobra.Command, args []string) error {
	adj, err := extractGraph()
	if err != nil {
		return err
	}
	if _, err := sortGraph(cmd, adj); err != nil {
		return err
	}
	fmt.Println("dependency graph is acyclic")
	return nil
}

func runGraphValidateNoSkiplevel(cmd *cobra.Command, args []string) error {
	adj, err := extractGraph()
	if err != nil {
		return err
	}
	// Layering first: redundancy is only meaningful on an acyclic graph.
	if _, err := sortGraph(cmd, adj); err != nil {
		return err
	}

	redundant := depgraph.FindRedundantEdges(adj)
	if len(redundant) == 0 {
		fmt.Println("no skip-level dependencies")
		return nil
	}

	if flagJSON {
		if err := outputJSON(redundant); err != nil {
			return err
		}
	} else {
		for _, edge := range redundant {
			fmt.Printf("%s -> %s is redundant: already reachable via %s\n", edge.From, edge.To, edge.Via)
		}
	}
	return errViolations
}

func runGraphVisualize(cmd *cobra.Command, args []string) error {
	adj, err := extractGraph()
	if err != nil {
		return err
	}
	graph, err := sortGraph(cmd, adj)
	if err != nil {
		return err
	}

	if flagJSON {
		return outputJSON(graph)
	}
	fmt.Print(depgraph.Visualize(graph))
	return nil
}
