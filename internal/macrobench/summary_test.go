// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package macrobench

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestSummarize(t *testing.T) {
	for _, tc := range []struct {
		name    string
		samples []float64
		want    Summary
	}{
		{"empty", nil, Summary{}},
		{"single", []float64{42}, Summary{Count: 1, Min: 42, Median: 42, Max: 42, Mean: 42}},
		{"odd", []float64{300, 100, 200}, Summary{Count: 3, Min: 100, Median: 200, Max: 300, Mean: 200, StdDev: 100}},
		{"even", []float64{3, 1, 2, 4}, Summary{Count: 4, Min: 1, Median: 2.5, Max: 4, Mean: 2.5, StdDev: math.Sqrt(5.0 / 3)}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := Summarize(tc.samples)
			if diff := cmp.Diff(tc.want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
				t.Errorf("Summarize(%v) mismatch (-want +got):\n%s", tc.samples, diff)
			}
		})
	}
}

func TestSummarizeKeepsInput(t *testing.T) {
	samples := []float64{3, 1, 2}
	Summarize(samples)
	if diff := cmp.Diff([]float64{3, 1, 2}, samples); diff != "" {
		t.Errorf("Samples modified (-want +got):\n%s", diff)
	}
}

func TestResultSummaries(t *testing.T) {
	r := &Result{Metrics: map[string][]float64{
		TimeToInitialDisplay: {300, 320, 310},
		TimeToFullDisplay:    {500},
	}}
	if diff := cmp.Diff([]string{TimeToFullDisplay, TimeToInitialDisplay}, r.MetricNames()); diff != "" {
		t.Errorf("Unexpected metric names (-want +got):\n%s", diff)
	}
	if got := r.Summaries()[TimeToInitialDisplay].Median; got != 310 {
		t.Errorf("Median = %v; want 310", got)
	}
}
