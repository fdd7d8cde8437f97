// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package sir contains startup benchmarks and baseline profile generation
// for the SIR internet radio app.
package sir

import (
	"context"

	"github.com/pkg/errors"

	"github.com/cascadiacollections/sir-android/internal/journey"
	"github.com/cascadiacollections/sir-android/internal/logging"
	"github.com/cascadiacollections/sir-android/internal/macrobench"
)

// PackageName is the package of the app under test.
const PackageName = "com.cascadiacollections.sir"

// Benchmarker runs repeated measurements. *macrobench.Rule implements it.
type Benchmarker interface {
	MeasureRepeated(ctx context.Context, req macrobench.MeasureRequest) (*macrobench.Result, error)
}

// Config is one point of a benchmark matrix.
type Config struct {
	// Name identifies the config, e.g. "launch_none".
	Name        string
	Compilation macrobench.CompilationMode
	StartupMode macrobench.StartupMode
	Iterations  int
	Script      journey.Script
	// FrameTiming also records frame timing over the script.
	FrameTiming bool
}

const (
	launchIterations      = 5
	interactionIterations = 3
)

// LaunchMatrix measures a plain cold launch under each compilation mode.
func LaunchMatrix() []Config {
	return []Config{
		{Name: "launch_none", Compilation: macrobench.None{}, StartupMode: macrobench.Cold, Iterations: launchIterations, Script: journey.Launch()},
		{Name: "launch_baseline_profile", Compilation: macrobench.Partial{}, StartupMode: macrobench.Cold, Iterations: launchIterations, Script: journey.Launch()},
		{Name: "launch_full", Compilation: macrobench.Full{}, StartupMode: macrobench.Cold, Iterations: launchIterations, Script: journey.Launch()},
	}
}

// InteractionMatrix measures the playback journey from a cold start under
// each compilation mode, and from warm and hot starts under the compilation
// state the device already has. Frame timing is recorded alongside startup.
func InteractionMatrix() []Config {
	return []Config{
		{Name: "interaction_cold_none", Compilation: macrobench.None{}, StartupMode: macrobench.Cold, Iterations: interactionIterations, Script: journey.Playback(), FrameTiming: true},
		{Name: "interaction_cold_baseline_profile", Compilation: macrobench.Partial{}, StartupMode: macrobench.Cold, Iterations: interactionIterations, Script: journey.Playback(), FrameTiming: true},
		{Name: "interaction_cold_full", Compilation: macrobench.Full{}, StartupMode: macrobench.Cold, Iterations: interactionIterations, Script: journey.Playback(), FrameTiming: true},
		{Name: "interaction_warm", StartupMode: macrobench.Warm, Iterations: interactionIterations, Script: journey.Playback(), FrameTiming: true},
		{Name: "interaction_hot", StartupMode: macrobench.Hot, Iterations: interactionIterations, Script: journey.Playback(), FrameTiming: true},
	}
}

// request builds the harness request of cfg for pkg.
func request(pkg string, cfg Config) macrobench.MeasureRequest {
	script := cfg.Script
	metrics := []macrobench.Metric{&macrobench.StartupTimingMetric{}}
	if cfg.FrameTiming {
		metrics = append(metrics, &macrobench.FrameTimingMetric{})
	}
	return macrobench.MeasureRequest{
		PackageName: pkg,
		Metrics:     metrics,
		Compilation: cfg.Compilation,
		StartupMode: cfg.StartupMode,
		Iterations:  cfg.Iterations,
		Measure: func(ctx context.Context, d journey.Device) error {
			return script.Run(ctx, d)
		},
	}
}

// RunMatrix measures every config once through b. Results are returned in
// config order, with nil for configs that failed. Every config is attempted;
// the first failure is returned.
func RunMatrix(ctx context.Context, b Benchmarker, pkg string, configs []Config) ([]*macrobench.Result, error) {
	results := make([]*macrobench.Result, len(configs))
	var firstErr error
	for i, cfg := range configs {
		logging.ContextLogf(ctx, "Running %s: compilation=%v startup=%v iterations=%d", cfg.Name, cfg.Compilation, cfg.StartupMode, cfg.Iterations)
		if err := cfg.Script.Validate(); err != nil {
			if firstErr == nil {
				firstErr = errors.Wrapf(err, "invalid script for %s", cfg.Name)
			}
			continue
		}
		res, err := b.MeasureRepeated(ctx, request(pkg, cfg))
		if err != nil {
			logging.ContextLogf(ctx, "%s failed: %v", cfg.Name, err)
			if firstErr == nil {
				firstErr = errors.Wrapf(err, "%s failed", cfg.Name)
			}
			continue
		}
		results[i] = res
	}
	return results, firstErr
}
