// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package analyzer

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for run orchestration.
var (
	tracer = otel.Tracer("javacg.analyzer")
	meter  = otel.Meter("javacg.analyzer")
)

// Metrics for analysis runs.
var (
	runLatency     metric.Float64Histogram
	filesProcessed metric.Int64Counter
	resolutions    metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		runLatency, err = meter.Float64Histogram(
			"javacg_run_duration_seconds",
			metric.WithDescription("Duration of full analysis runs"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		filesProcessed, err = meter.Int64Counter(
			"javacg_files_total",
			metric.WithDescription("Files processed, tagged by parse outcome"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		resolutions, err = meter.Int64Counter(
			"javacg_resolutions_total",
			metric.WithDescription("Call resolution attempts, tagged by outcome"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordFileMetrics records one file's parse outcome.
func recordFileMetrics(ctx context.Context, success bool) {
	if err := initMetrics(); err != nil {
		return // Silently skip if metrics init failed
	}
	filesProcessed.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
}

// recordResolutionMetrics records call resolution outcome counts.
func recordResolutionMetrics(ctx context.Context, outcome string, count int) {
	if err := initMetrics(); err != nil {
		return
	}
	if count == 0 {
		return
	}
	resolutions.Add(ctx, int64(count), metric.WithAttributes(attribute.String("outcome", outcome)))
}

// recordRunMetrics records the duration of one full run.
func recordRunMetrics(ctx context.Context, duration time.Duration) {
	if err := initMetrics(); err != nil {
		return
	}
	runLatency.Record(ctx, duration.Seconds())
}

// startRunSpan creates the span covering one analysis run.
func startRunSpan(ctx context.Context, runID string, fileCount int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Analyzer.Run",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("run.files", fileCount),
		),
	)
}
