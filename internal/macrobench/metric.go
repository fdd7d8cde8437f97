// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package macrobench

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/cascadiacollections/sir-android/internal/adb"
)

// Metric captures measurements around each run of the measured block.
type Metric interface {
	// Start is called right before the measured block.
	Start(ctx context.Context, s *Scope) error
	// Collect is called right after the measured block and returns named
	// measurements for the iteration.
	Collect(ctx context.Context, s *Scope) (map[string]float64, error)
}

// Startup metric names.
const (
	TimeToInitialDisplay = "timeToInitialDisplayMs"
	TimeToFullDisplay    = "timeToFullDisplayMs"
)

// StartupTimingMetric measures how long the app takes to show its first
// frame, and to report itself fully drawn if it does so.
type StartupTimingMetric struct {
	since adb.LogcatTimestamp
}

// Start implements Metric.
func (m *StartupTimingMetric) Start(ctx context.Context, s *Scope) error {
	s.resetLaunches()
	ts, err := s.dev.LatestLogcatTimestamp(ctx)
	if err != nil {
		return err
	}
	m.since = ts
	return nil
}

// Collect implements Metric. The launch time reported by the activity
// manager is preferred; logcat is consulted otherwise.
func (m *StartupTimingMetric) Collect(ctx context.Context, s *Scope) (map[string]float64, error) {
	logcat, err := s.dev.LogcatSince(ctx, m.since)
	if err != nil {
		return nil, err
	}
	timing, err := adb.ParseActivityTiming(logcat, s.pkg)
	if err != nil {
		return nil, err
	}
	initial := timing.Displayed
	if res, ok := s.lastLaunch(ctx); ok && !res.Delivered && res.TotalTime > 0 {
		initial = res.TotalTime
	}
	if initial == 0 {
		return nil, errors.Errorf("no launch of %s observed", s.pkg)
	}
	out := map[string]float64{TimeToInitialDisplay: ms(initial)}
	if timing.FullyDrawn > 0 {
		out[TimeToFullDisplay] = ms(timing.FullyDrawn)
	}
	return out, nil
}

// Frame metric names.
const (
	FrameCount         = "frameCount"
	JankyFramePercent  = "jankyFramePercent"
	FrameDurationP50Ms = "frameDurationP50Ms"
	FrameDurationP90Ms = "frameDurationP90Ms"
	FrameDurationP95Ms = "frameDurationP95Ms"
	FrameDurationP99Ms = "frameDurationP99Ms"
)

// FrameTimingMetric reports frame statistics rendered during the measured
// block.
type FrameTimingMetric struct{}

// Start implements Metric.
func (FrameTimingMetric) Start(ctx context.Context, s *Scope) error {
	return s.dev.ResetGfxInfo(ctx, s.pkg)
}

// Collect implements Metric.
func (FrameTimingMetric) Collect(ctx context.Context, s *Scope) (map[string]float64, error) {
	info, err := s.dev.GfxInfo(ctx, s.pkg)
	if err != nil {
		return nil, err
	}
	return map[string]float64{
		FrameCount:         float64(info.TotalFrames),
		JankyFramePercent:  info.JankyPercent,
		FrameDurationP50Ms: ms(info.Percentile50),
		FrameDurationP90Ms: ms(info.Percentile90),
		FrameDurationP95Ms: ms(info.Percentile95),
		FrameDurationP99Ms: ms(info.Percentile99),
	}, nil
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
