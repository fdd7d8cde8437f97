// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package report persists benchmark results: Chrome perf dashboard charts,
// Go benchmark format files and sample plots.
package report

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/cascadiacollections/sir-android/internal/logging"
	"github.com/cascadiacollections/sir-android/internal/macrobench"
)

// unitOf derives the perf unit and direction of a macrobench metric from its
// name.
func unitOf(name string) (string, Direction) {
	switch {
	case strings.HasSuffix(name, "Ms"):
		return "ms", SmallerIsBetter
	case strings.HasSuffix(name, "Percent"):
		return "percent", SmallerIsBetter
	default:
		return "count", BiggerIsBetter
	}
}

// PerfValues converts res into perf values, one multi-valued metric per
// macrobench metric.
func PerfValues(res *macrobench.Result) *Values {
	pv := NewValues()
	for _, n := range res.MetricNames() {
		unit, dir := unitOf(n)
		pv.Set(Metric{Name: n, Unit: unit, Direction: dir, Multiple: true}, res.Metrics[n]...)
	}
	return pv
}

// Save writes res under outDir: results-chart.json, results.bench and a PNG
// plot per metric. It returns the run ID recorded in the benchmark file.
func Save(ctx context.Context, outDir, test string, res *macrobench.Result) (string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", errors.Wrap(err, "failed to create output directory")
	}
	runID := uuid.NewString()

	if err := PerfValues(res).Save(outDir); err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(outDir, BenchFile))
	if err != nil {
		return "", errors.Wrap(err, "failed to create benchmark file")
	}
	if err := WriteBench(f, runID, test, res); err != nil {
		f.Close()
		return "", errors.Wrap(err, "failed to write benchmark file")
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrap(err, "failed to close benchmark file")
	}

	for n, s := range res.Summaries() {
		unit, _ := unitOf(n)
		logging.ContextLogf(ctx, "%s: median %.1f %s (min %.1f, max %.1f, n=%d)", n, s.Median, unit, s.Min, s.Max, s.Count)
		if err := PlotSamples(filepath.Join(outDir, n+".png"), test+" "+n, unit, res.Metrics[n]); err != nil {
			return "", err
		}
	}
	return runID, nil
}
