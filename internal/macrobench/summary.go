// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package macrobench

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the distribution of a metric's samples.
type Summary struct {
	Count  int
	Min    float64
	Median float64
	Max    float64
	Mean   float64
	StdDev float64
}

// Summarize computes a Summary of samples. An empty slice yields the zero
// Summary.
func Summarize(samples []float64) Summary {
	if len(samples) == 0 {
		return Summary{}
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)

	s := Summary{
		Count: len(sorted),
		Min:   floats.Min(sorted),
		Max:   floats.Max(sorted),
		Mean:  stat.Mean(sorted, nil),
	}
	if n := len(sorted); n%2 == 1 {
		s.Median = sorted[n/2]
	} else {
		s.Median = (sorted[n/2-1] + sorted[n/2]) / 2
	}
	if len(sorted) > 1 {
		s.StdDev = stat.StdDev(sorted, nil)
	}
	return s
}
