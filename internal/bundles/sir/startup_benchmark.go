// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package sir

import (
	"context"
	"time"

	"github.com/cascadiacollections/sir-android/internal/bundle"
	"github.com/cascadiacollections/sir-android/internal/macrobench"
	"github.com/cascadiacollections/sir-android/internal/report"
)

func init() {
	var params []bundle.Param
	for _, cfg := range append(LaunchMatrix(), InteractionMatrix()...) {
		params = append(params, bundle.Param{Name: cfg.Name, Val: cfg})
	}
	bundle.AddTest(&bundle.Test{
		Func:     StartupBenchmark,
		Desc:     "Measures app startup time under different compilation and startup modes",
		Contacts: []string{"sir-dev@cascadiacollections.com"},
		Attr:     []string{"group:sir", "sir_perf"},
		Timeout:  10 * time.Minute,
		Params:   params,
	})
}

func StartupBenchmark(ctx context.Context, s *bundle.State) {
	env := s.FixtValue().(*Env)
	cfg := s.Param().(Config)
	if env.Iterations > 0 {
		cfg.Iterations = env.Iterations
	}

	rule := macrobench.NewRule(env.Device, env.UI)
	results, err := RunMatrix(ctx, rule, env.Package, []Config{cfg})
	if err != nil {
		s.Fatal("Benchmark failed: ", err)
	}
	res := results[0]
	for n, sum := range res.Summaries() {
		s.Logf("%s: median=%.1f min=%.1f max=%.1f", n, sum.Median, sum.Min, sum.Max)
	}
	if _, err := report.Save(ctx, s.OutDir(), s.TestName(), res); err != nil {
		s.Fatal("Failed to save results: ", err)
	}
}
