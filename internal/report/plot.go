// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package report

import (
	"fmt"
	"image/color"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/cascadiacollections/sir-android/internal/macrobench"
)

// PlotSamples draws samples against their iteration number, with the median
// as a horizontal reference line, and saves the chart as a PNG at path.
func PlotSamples(path, title, unit string, samples []float64) error {
	if len(samples) == 0 {
		return errors.Errorf("no samples for %s", title)
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = unit
	p.Y.Min = 0

	pts := make(plotter.XYs, len(samples))
	ticks := make([]plot.Tick, len(samples))
	for i, v := range samples {
		pts[i].X = float64(i + 1)
		pts[i].Y = v
		ticks[i] = plot.Tick{Value: float64(i + 1), Label: fmt.Sprint(i + 1)}
	}
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return errors.Wrap(err, "failed to build sample line")
	}
	line.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	line.Width = vg.Points(2)
	points.Color = line.Color

	median := macrobench.Summarize(samples).Median
	ref, err := plotter.NewLine(plotter.XYs{{X: 1, Y: median}, {X: float64(len(samples)), Y: median}})
	if err != nil {
		return errors.Wrap(err, "failed to build median line")
	}
	ref.Color = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	ref.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	p.Add(line, points, ref)
	p.Legend.Add("samples", line, points)
	p.Legend.Add(fmt.Sprintf("median %.1f", median), ref)
	p.X.Tick.Marker = plot.ConstantTicks(ticks)

	if err := p.Save(6*vg.Inch, 3*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "failed to save %s", path)
	}
	return nil
}
