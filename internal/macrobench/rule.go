// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package macrobench measures and profiles Android apps from the host.
//
// Rule.MeasureRepeated runs a measured block under a compilation mode and a
// startup mode and collects metrics per iteration. BaselineProfileRule.Collect
// runs a block until the app's runtime profile stops changing and writes it
// out as a baseline profile.
package macrobench

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/cascadiacollections/sir-android/internal/journey"
	"github.com/cascadiacollections/sir-android/internal/logging"
)

// Rule runs benchmarks against one device.
type Rule struct {
	dev Device
	ui  UI
}

// NewRule returns a Rule driving dev. u may be nil, in which case input is
// injected through adb and idle waits sleep for their whole timeout.
func NewRule(dev Device, u UI) *Rule {
	return &Rule{dev: dev, ui: u}
}

// MeasureRequest configures Rule.MeasureRepeated.
type MeasureRequest struct {
	PackageName string
	Metrics     []Metric
	// Compilation is applied once before the first iteration. nil keeps the
	// current state.
	Compilation CompilationMode
	StartupMode StartupMode
	Iterations  int
	// Measure is the measured block. It drives the app through the scope.
	Measure func(ctx context.Context, d journey.Device) error
}

// Result holds the samples of a MeasureRepeated run.
type Result struct {
	PackageName string
	Compilation string
	StartupMode StartupMode
	Iterations  int
	// Metrics maps a metric name to one sample per iteration in which it was
	// reported.
	Metrics map[string][]float64
}

// MetricNames returns the names of the collected metrics in sorted order.
func (r *Result) MetricNames() []string {
	var names []string
	for n := range r.Metrics {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Summaries summarizes each metric.
func (r *Result) Summaries() map[string]Summary {
	out := make(map[string]Summary, len(r.Metrics))
	for n, v := range r.Metrics {
		out[n] = Summarize(v)
	}
	return out
}

// MeasureRepeated runs req.Measure req.Iterations times and returns the
// collected metrics. No iteration is retried; the first error ends the run.
func (r *Rule) MeasureRepeated(ctx context.Context, req MeasureRequest) (*Result, error) {
	if req.PackageName == "" {
		return nil, errors.New("no package name")
	}
	if req.Iterations < 1 {
		return nil, errors.Errorf("iterations must be positive; got %d", req.Iterations)
	}
	if req.Measure == nil {
		return nil, errors.New("no measure block")
	}
	if len(req.Metrics) == 0 {
		return nil, errors.New("no metrics")
	}

	s := newScope(r.dev, r.ui, req.PackageName)
	measure := func(ctx context.Context) error { return req.Measure(ctx, s) }

	res := &Result{
		PackageName: req.PackageName,
		StartupMode: req.StartupMode,
		Iterations:  req.Iterations,
		Metrics:     make(map[string][]float64),
	}
	if req.Compilation != nil {
		res.Compilation = req.Compilation.String()
		logging.ContextLogf(ctx, "Applying compilation mode %v to %s", req.Compilation, req.PackageName)
		if err := req.Compilation.apply(ctx, s); err != nil {
			return nil, errors.Wrapf(err, "failed to apply compilation mode %v", req.Compilation)
		}
	}

	for i := 1; i <= req.Iterations; i++ {
		logging.ContextLogf(ctx, "Iteration %d/%d (%v)", i, req.Iterations, req.StartupMode)
		if err := req.StartupMode.setup(ctx, s, measure); err != nil {
			return nil, errors.Wrapf(err, "iteration %d: failed to prepare %v start", i, req.StartupMode)
		}
		for _, m := range req.Metrics {
			if err := m.Start(ctx, s); err != nil {
				return nil, errors.Wrapf(err, "iteration %d: failed to start metric", i)
			}
		}
		if err := measure(ctx); err != nil {
			return nil, errors.Wrapf(err, "iteration %d", i)
		}
		for _, m := range req.Metrics {
			vals, err := m.Collect(ctx, s)
			if err != nil {
				return nil, errors.Wrapf(err, "iteration %d: failed to collect metric", i)
			}
			for n, v := range vals {
				res.Metrics[n] = append(res.Metrics[n], v)
			}
		}
	}
	return res, nil
}
