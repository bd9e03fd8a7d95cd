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
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Package-level meter for graph operations. No-op unless the host
// process wires an SDK.
var meter = otel.Meter("archguard.depgraph")

var (
	sortLatency metric.Float64Histogram
	graphNodes  metric.Int64Histogram
	cyclesFound metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		sortLatency, err = meter.Float64Histogram(
			"depgraph_sort_duration_seconds",
			metric.WithDescription("Duration of topological layering"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		graphNodes, err = meter.Int64Histogram(
			"depgraph_nodes",
			metric.WithDescription("Number of nodes in the extracted graph"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		cyclesFound, err = meter.Int64Counter(
			"depgraph_cycles_total",
			metric.WithDescription("Number of dependency cycles detected"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// TimedSort runs Sort and records layering metrics. Commands use this
// entry point; Sort itself stays pure for tests and library callers.
func TimedSort(ctx context.Context, adj AdjacencyMap) (LeveledGraph, error) {
	start := time.Now()
	graph, err := Sort(adj)

	var cycleErr *CycleError
	cyclic := errors.As(err, &cycleErr)
	recordSortMetrics(ctx, time.Since(start), len(adj), cyclic)

	return graph, err
}

// recordSortMetrics records one layering pass.
func recordSortMetrics(ctx context.Context, duration time.Duration, nodes int, cyclic bool) {
	if initMetrics() != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.Bool("cyclic", cyclic))
	sortLatency.Record(ctx, duration.Seconds(), attrs)
	graphNodes.Record(ctx, int64(nodes), attrs)
	if cyclic {
		cyclesFound.Add(ctx, 1)
	}
}
