// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package adb drives an Android device from the host through the adb
// command line tool.
package adb

import (
	"context"
	"os"
	"regexp"
	"strings"
	"time"

	shellquote "github.com/kballard/go-shellquote"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/process"
	"golang.org/x/sys/unix"

	"github.com/cascadiacollections/sir-android/internal/logging"
	"github.com/cascadiacollections/sir-android/internal/poll"
	"github.com/cascadiacollections/sir-android/internal/testexec"
)

// Device holds the resources required to communicate with a specific
// Android device.
type Device struct {
	// Serial is the serial number passed to "adb -s". If empty, adb picks the
	// only connected device.
	Serial string
}

// Connect waits until the device identified by serial is visible to the
// local adb server and returns a Device for it.
func Connect(ctx context.Context, serial string) (*Device, error) {
	d := &Device{Serial: serial}

	var pattern *regexp.Regexp
	if serial == "" {
		pattern = regexp.MustCompile(`(?m)^\S+\s+device$`)
	} else {
		pattern = regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(serial) + `\s+device$`)
	}

	if err := poll.Poll(ctx, func(ctx context.Context) error {
		out, err := adbCommand(ctx, "devices").Output()
		if err != nil {
			return errors.Wrap(err, "failed to get devices")
		}
		if !pattern.Match(out) {
			return errors.New("device is not connected")
		}
		return nil
	}, &poll.Options{Interval: time.Second, Timeout: 30 * time.Second}); err != nil {
		return nil, err
	}

	if err := d.Command(ctx, "wait-for-device").Run(testexec.DumpLogOnError); err != nil {
		return nil, errors.Wrap(err, "failed to wait for device")
	}
	return d, nil
}

// adbCommand runs an adb command with the host environment.
func adbCommand(ctx context.Context, arg ...string) *testexec.Cmd {
	cmd := testexec.CommandContext(ctx, "adb", arg...)
	cmd.Env = os.Environ()
	return cmd
}

// Command returns a command running adb against the device.
func (d *Device) Command(ctx context.Context, arg ...string) *testexec.Cmd {
	if d.Serial != "" {
		arg = append([]string{"-s", d.Serial}, arg...)
	}
	return adbCommand(ctx, arg...)
}

// ShellCommand runs a command on the device via adb.
//
// Be aware of many restrictions of adb: return code is always 0, stdin is not
// connected, and stderr is mixed to stdout.
func (d *Device) ShellCommand(ctx context.Context, name string, arg ...string) *testexec.Cmd {
	// adb exec-out is like adb shell, but skips CR/LF conversion.
	// Unfortunately, adb exec-out always passes the command line to /bin/sh, so
	// we need to escape arguments.
	shell := "exec " + shellquote.Join(append([]string{name}, arg...)...)
	return d.Command(ctx, "exec-out", shell)
}

// Root restarts adbd on the device as root. It fails on user builds.
func (d *Device) Root(ctx context.Context) error {
	out, err := d.Command(ctx, "root").Output(testexec.DumpLogOnError)
	if err != nil {
		return errors.Wrap(err, "failed to restart adbd as root")
	}
	if strings.Contains(string(out), "cannot run as root") {
		return errors.Errorf("adbd cannot run as root: %q", strings.TrimSpace(string(out)))
	}
	return d.Command(ctx, "wait-for-device").Run(testexec.DumpLogOnError)
}

// IsRoot reports whether shell commands run as uid 0.
func (d *Device) IsRoot(ctx context.Context) (bool, error) {
	out, err := d.ShellCommand(ctx, "id", "-u").Output(testexec.DumpLogOnError)
	if err != nil {
		return false, errors.Wrap(err, "failed to get uid")
	}
	return strings.TrimSpace(string(out)) == "0", nil
}

// SDKVersion returns ro.build.version.sdk of the device.
func (d *Device) SDKVersion(ctx context.Context) (int, error) {
	out, err := d.ShellCommand(ctx, "getprop", "ro.build.version.sdk").Output(testexec.DumpLogOnError)
	if err != nil {
		return 0, errors.Wrap(err, "failed to read SDK version")
	}
	return parseInt(strings.TrimSpace(string(out)))
}

// Install installs an APK file to the device.
func (d *Device) Install(ctx context.Context, path string) error {
	out, err := d.Command(ctx, "install", "-r", "-d", "-g", path).Output(testexec.DumpLogOnError)
	if err != nil {
		return err
	}

	// "Success" is the only possible positive result of "pm install".
	if !regexp.MustCompile(`(?m)^Success`).Match(out) {
		return errors.Errorf("failed to install %v %q", path, string(out))
	}
	return nil
}

// InstalledPackages returns a set of currently-installed packages.
func (d *Device) InstalledPackages(ctx context.Context) (map[string]struct{}, error) {
	out, err := d.ShellCommand(ctx, "pm", "list", "packages").Output(testexec.DumpLogOnError)
	if err != nil {
		return nil, errors.Wrap(err, "listing packages failed")
	}

	pkgs := make(map[string]struct{})
	for _, pkg := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		// "pm list packages" prepends "package:" to installed packages.
		n := strings.TrimPrefix(strings.TrimSpace(pkg), "package:")
		if n != "" {
			pkgs[n] = struct{}{}
		}
	}
	return pkgs, nil
}

// KillLocalServer kills the adb server running on the host, if any. The next
// adb invocation starts a fresh server.
//
// adb kill-server is not used since it hangs when the server is wedged.
func KillLocalServer(ctx context.Context) error {
	ps, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return err
	}

	for _, p := range ps {
		if name, err := p.NameWithContext(ctx); err != nil || name != "adb" {
			continue
		}
		cmdline, err := p.CmdlineSliceWithContext(ctx)
		if err != nil || !isServerCmdline(cmdline) {
			continue
		}

		if err := unix.Kill(int(p.Pid), unix.SIGKILL); err != nil {
			// The server process might be already gone.
			logging.ContextLog(ctx, "Failed to kill adb server process: ", err)
			continue
		}

		if err := poll.Poll(ctx, func(ctx context.Context) error {
			// A fresh process.Process is needed since it caches attributes.
			if exists, err := process.PidExistsWithContext(ctx, p.Pid); err == nil && exists {
				return errors.Errorf("pid %d is still running", p.Pid)
			}
			return nil
		}, &poll.Options{Timeout: 10 * time.Second}); err != nil {
			return errors.Wrap(err, "failed on waiting for adb server process to exit")
		}
	}
	return nil
}

// isServerCmdline reports whether cmdline belongs to a forked adb server.
func isServerCmdline(cmdline []string) bool {
	for _, a := range cmdline {
		if a == "fork-server" {
			return true
		}
	}
	return false
}
