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
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("archguard.runner")

var (
	runLatency    metric.Float64Histogram
	filesAnalyzed metric.Int64Histogram
	runsTotal     metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		runLatency, err = meter.Float64Histogram(
			"runner_duration_seconds",
			metric.WithDescription("Duration of one rule-engine invocation"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		filesAnalyzed, err = meter.Int64Histogram(
			"runner_files_analyzed",
			metric.WithDescription("Candidate files analyzed per invocation"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		runsTotal, err = meter.Int64Counter(
			"runner_runs_total",
			metric.WithDescription("Rule-engine invocations, by outcome"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordRun records one invocation.
func recordRun(ctx context.Context, duration time.Duration, files int, passed, skipped bool) {
	if initMetrics() != nil {
		return
	}

	outcome := "failed"
	switch {
	case skipped:
		outcome = "skipped"
	case passed:
		outcome = "passed"
	}

	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	runLatency.Record(ctx, duration.Seconds(), attrs)
	filesAnalyzed.Record(ctx, int64(files), attrs)
	runsTotal.Add(ctx, 1, attrs)
}
