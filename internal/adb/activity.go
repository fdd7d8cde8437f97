// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package adb

import (
	"bufio"
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/cascadiacollections/sir-android/internal/logging"
	"github.com/cascadiacollections/sir-android/internal/testexec"
)

// LaunchResult is the outcome reported by "am start -W".
type LaunchResult struct {
	// Activity is the component that was brought to the front.
	Activity string
	// LaunchState is COLD, WARM, HOT or empty on older releases.
	LaunchState string
	// TotalTime is the time to initial display as measured by the system.
	TotalTime time.Duration
	// WaitTime is the time "am start" spent waiting, including its overhead.
	WaitTime time.Duration
	// Delivered is true if the intent was delivered to an existing top-most
	// instance and no new activity was displayed.
	Delivered bool
}

var amErrorRegexp = regexp.MustCompile(`(?m)^Error:.*$`)

// ResolveLaunchActivity returns the launcher activity of pkg as a component
// name such as "com.example/.MainActivity".
func (d *Device) ResolveLaunchActivity(ctx context.Context, pkg string) (string, error) {
	out, err := d.ShellCommand(ctx, "cmd", "package", "resolve-activity", "--brief",
		"-a", "android.intent.action.MAIN", "-c", "android.intent.category.LAUNCHER", pkg).Output(testexec.DumpLogOnError)
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve launch activity of %s", pkg)
	}
	return parseResolvedActivity(string(out), pkg)
}

func parseResolvedActivity(out, pkg string) (string, error) {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	if !strings.HasPrefix(last, pkg+"/") {
		return "", errors.Errorf("no launcher activity for %s: %q", pkg, out)
	}
	return last, nil
}

// StartActivityAndWait launches the component and waits until its first
// frame is displayed.
func (d *Device) StartActivityAndWait(ctx context.Context, component string) (*LaunchResult, error) {
	out, err := d.ShellCommand(ctx, "am", "start", "-W", "-n", component).Output()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to start %s", component)
	}
	// "adb exec-out" doesn't distinguish between a failed/successful run.
	// For that we have to parse the output.
	if m := amErrorRegexp.FindString(string(out)); m != "" {
		logging.ContextLog(ctx, "Failed to start activity: ", string(out))
		return nil, errors.Errorf("failed to start %s: %s", component, m)
	}
	return parseLaunchResult(string(out))
}

func parseLaunchResult(out string) (*LaunchResult, error) {
	res := &LaunchResult{}
	status := ""
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "Warning: Activity not started, intent has been delivered") {
			res.Delivered = true
			continue
		}
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		val = strings.TrimSpace(val)
		switch key {
		case "Status":
			status = val
		case "Activity":
			res.Activity = val
		case "LaunchState":
			res.LaunchState = val
		case "TotalTime", "WaitTime":
			ms, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to parse %s %q", key, val)
			}
			if key == "TotalTime" {
				res.TotalTime = time.Duration(ms) * time.Millisecond
			} else {
				res.WaitTime = time.Duration(ms) * time.Millisecond
			}
		}
	}
	if status != "ok" {
		return nil, errors.Errorf("unexpected launch status %q in %q", status, out)
	}
	return res, nil
}

// ForceStop stops every process of pkg.
func (d *Device) ForceStop(ctx context.Context, pkg string) error {
	// "am force-stop" has no output. So the error from Run() is returned.
	return d.ShellCommand(ctx, "am", "force-stop", pkg).Run(testexec.DumpLogOnError)
}

// ProcessRunning reports whether a process named pkg exists on the device.
func (d *Device) ProcessRunning(ctx context.Context, pkg string) (bool, error) {
	// pidof exits non-zero when nothing matches, which exec-out hides.
	out, err := d.ShellCommand(ctx, "pidof", pkg).Output()
	if err != nil {
		return false, errors.Wrapf(err, "failed to look up process %s", pkg)
	}
	return strings.TrimSpace(string(out)) != "", nil
}
