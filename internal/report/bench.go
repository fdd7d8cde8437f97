// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package report

import (
	"io"
	"strconv"
	"strings"

	"golang.org/x/perf/benchfmt"

	"github.com/cascadiacollections/sir-android/internal/macrobench"
)

// BenchFile is the name of the Go benchmark format file Save writes.
const BenchFile = "results.bench"

// benchName turns a test name like "sir.StartupBenchmark.launch_none" into a
// benchmark name like "StartupBenchmark/launch_none".
func benchName(test string) string {
	parts := strings.Split(test, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	return strings.Join(parts, "/")
}

// WriteBench writes res in the Go benchmark format, one result line per
// iteration, so runs can be compared with benchstat.
func WriteBench(w io.Writer, runID, test string, res *macrobench.Result) error {
	cfg := []benchfmt.Config{
		{Key: "package", Value: []byte(res.PackageName), File: true},
		{Key: "startup", Value: []byte(res.StartupMode.String()), File: true},
		{Key: "runid", Value: []byte(runID), File: true},
		{Key: "iterations", Value: []byte(strconv.Itoa(res.Iterations)), File: true},
	}
	if res.Compilation != "" {
		cfg = append(cfg, benchfmt.Config{Key: "compilation", Value: []byte(res.Compilation), File: true})
	}

	bw := benchfmt.NewWriter(w)
	names := res.MetricNames()
	for i := 0; i < res.Iterations; i++ {
		r := &benchfmt.Result{
			Config: cfg,
			Name:   benchfmt.Name(benchName(test)),
			Iters:  1,
		}
		for _, n := range names {
			samples := res.Metrics[n]
			if i >= len(samples) {
				continue
			}
			r.Values = append(r.Values, benchfmt.Value{Value: samples[i], Unit: n})
		}
		if len(r.Values) == 0 {
			continue
		}
		if err := bw.Write(r); err != nil {
			return err
		}
	}
	return nil
}
