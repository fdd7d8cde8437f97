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

// KeyCode is an Android key code as accepted by "input keyevent".
type KeyCode string

// Key codes used by benchmark journeys.
const (
	KeyCodeHome KeyCode = "KEYCODE_HOME"
	KeyCodeBack KeyCode = "KEYCODE_BACK"
)

// PressKeyCode injects a key press.
func (d *Device) PressKeyCode(ctx context.Context, key KeyCode) error {
	if err := d.ShellCommand(ctx, "input", "keyevent", string(key)).Run(testexec.DumpLogOnError); err != nil {
		return errors.Wrapf(err, "failed to press %s", key)
	}
	return nil
}

// Tap injects a tap at the given pixel coordinates.
func (d *Device) Tap(ctx context.Context, x, y int) error {
	if err := d.ShellCommand(ctx, "input", "tap", strconv.Itoa(x), strconv.Itoa(y)).Run(testexec.DumpLogOnError); err != nil {
		return errors.Wrapf(err, "failed to tap (%d,%d)", x, y)
	}
	return nil
}

// Swipe injects a straight swipe from (x1,y1) to (x2,y2) lasting dur.
func (d *Device) Swipe(ctx context.Context, x1, y1, x2, y2 int, dur time.Duration) error {
	args := []string{"swipe",
		strconv.Itoa(x1), strconv.Itoa(y1), strconv.Itoa(x2), strconv.Itoa(y2),
		strconv.FormatInt(dur.Milliseconds(), 10)}
	if err := d.ShellCommand(ctx, "input", args...).Run(testexec.DumpLogOnError); err != nil {
		return errors.Wrapf(err, "failed to swipe (%d,%d)-(%d,%d)", x1, y1, x2, y2)
	}
	return nil
}

var wmSizeRegexp = regexp.MustCompile(`(Physical|Override) size: (\d+)x(\d+)`)

// DisplaySize returns the size of the default display in pixels. An override
// size set with "wm size" takes precedence over the physical size.
func (d *Device) DisplaySize(ctx context.Context) (width, height int, err error) {
	out, err := d.ShellCommand(ctx, "wm", "size").Output(testexec.DumpLogOnError)
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to get display size")
	}
	return parseDisplaySize(string(out))
}

func parseDisplaySize(out string) (width, height int, err error) {
	ms := wmSizeRegexp.FindAllStringSubmatch(out, -1)
	if len(ms) == 0 {
		return 0, 0, errors.Errorf("failed to parse display size from %q", out)
	}
	m := ms[0]
	for _, cand := range ms {
		if cand[1] == "Override" {
			m = cand
		}
	}
	// The regexp guarantees the groups are numbers.
	width, _ = strconv.Atoi(m[2])
	height, _ = strconv.Atoi(m[3])
	return width, height, nil
}
