// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package adb

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/cascadiacollections/sir-android/internal/testexec"
)

// GfxInfo is the frame statistics summary reported by "dumpsys gfxinfo".
type GfxInfo struct {
	TotalFrames  int
	JankyFrames  int
	JankyPercent float64
	Percentile50 time.Duration
	Percentile90 time.Duration
	Percentile95 time.Duration
	Percentile99 time.Duration
}

var (
	gfxTotalRegexp      = regexp.MustCompile(`(?m)^\s*Total frames rendered: (\d+)`)
	gfxJankyRegexp      = regexp.MustCompile(`(?m)^\s*Janky frames: (\d+) \(([\d.]+)%\)`)
	gfxPercentileRegexp = regexp.MustCompile(`(?m)^\s*(50|90|95|99)th percentile: (\d+)ms`)
)

// ResetGfxInfo clears the frame statistics of pkg.
func (d *Device) ResetGfxInfo(ctx context.Context, pkg string) error {
	if err := d.ShellCommand(ctx, "dumpsys", "gfxinfo", pkg, "reset").Run(testexec.DumpLogOnError); err != nil {
		return errors.Wrapf(err, "failed to reset gfxinfo of %s", pkg)
	}
	return nil
}

// GfxInfo returns the frame statistics of pkg collected since the last reset.
func (d *Device) GfxInfo(ctx context.Context, pkg string) (*GfxInfo, error) {
	out, err := d.ShellCommand(ctx, "dumpsys", "gfxinfo", pkg).Output(testexec.DumpLogOnError)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to dump gfxinfo of %s", pkg)
	}
	return parseGfxInfo(string(out))
}

func parseGfxInfo(out string) (*GfxInfo, error) {
	m := gfxTotalRegexp.FindStringSubmatch(out)
	if m == nil {
		return nil, errors.New("no frame statistics in gfxinfo output")
	}
	info := &GfxInfo{}
	info.TotalFrames, _ = strconv.Atoi(m[1])

	if m := gfxJankyRegexp.FindStringSubmatch(out); m != nil {
		info.JankyFrames, _ = strconv.Atoi(m[1])
		pct, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse janky percentage %q", m[2])
		}
		info.JankyPercent = pct
	}

	for _, m := range gfxPercentileRegexp.FindAllStringSubmatch(out, -1) {
		ms, _ := strconv.Atoi(m[2])
		d := time.Duration(ms) * time.Millisecond
		switch m[1] {
		case "50":
			info.Percentile50 = d
		case "90":
			info.Percentile90 = d
		case "95":
			info.Percentile95 = d
		case "99":
			info.Percentile99 = d
		}
	}
	return info, nil
}
