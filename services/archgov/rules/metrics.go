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
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("archguard.rules")

var (
	evalLatency     metric.Float64Histogram
	violationsTotal metric.Int64Counter
	evalErrors      metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		evalLatency, err = meter.Float64Histogram(
			"rule_eval_duration_seconds",
			metric.WithDescription("Duration of one rule evaluation over one file"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		violationsTotal, err = meter.Int64Counter(
			"rule_violations_total",
			metric.WithDescription("Violations reported, by rule"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		evalErrors, err = meter.Int64Counter(
			"rule_eval_errors_total",
			metric.WithDescription("Internal rule evaluation errors, by rule"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordEvaluation records one rule evaluation over one file.
func recordEvaluation(ctx context.Context, ruleID string, duration time.Duration, violations int, err error) {
	if initMetrics() != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("rule", ruleID))
	evalLatency.Record(ctx, duration.Seconds(), attrs)
	if violations > 0 {
		violationsTotal.Add(ctx, int64(violations), attrs)
	}
	if err != nil {
		evalErrors.Add(ctx, 1, attrs)
	}
}
