// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package adb

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/cascadiacollections/sir-android/internal/testexec"
)

// CompilerFilter is an ART compiler filter accepted by "cmd package compile -m".
type CompilerFilter string

// Compiler filters used by benchmarks.
const (
	FilterSpeedProfile CompilerFilter = "speed-profile"
	FilterSpeed        CompilerFilter = "speed"
)

// CompileReset clears compilation artifacts and runtime profiles of pkg, as
// if the app had just been installed.
func (d *Device) CompileReset(ctx context.Context, pkg string) error {
	out, err := d.ShellCommand(ctx, "cmd", "package", "compile", "--reset", pkg).Output(testexec.DumpLogOnError)
	if err != nil {
		return errors.Wrapf(err, "failed to reset compilation of %s", pkg)
	}
	return checkSuccess(string(out), "compile --reset "+pkg)
}

// Compile forces compilation of pkg with the given compiler filter.
func (d *Device) Compile(ctx context.Context, pkg string, filter CompilerFilter) error {
	out, err := d.ShellCommand(ctx, "cmd", "package", "compile", "-f", "-m", string(filter), pkg).Output(testexec.DumpLogOnError)
	if err != nil {
		return errors.Wrapf(err, "failed to compile %s with %s", pkg, filter)
	}
	return checkSuccess(string(out), fmt.Sprintf("compile -m %s %s", filter, pkg))
}

func checkSuccess(out, what string) error {
	if !strings.Contains(out, "Success") {
		return errors.Errorf("%s did not succeed: %q", what, strings.TrimSpace(out))
	}
	return nil
}

// ProfileInstallerResult is the result code returned by the androidx
// profileinstaller broadcast receiver.
type ProfileInstallerResult int

// Result codes of androidx.profileinstaller.ProfileInstallReceiver.
const (
	ProfileInstallerMissing            ProfileInstallerResult = 0
	ProfileInstallSuccess              ProfileInstallerResult = 1
	ProfileAlreadyInstalled            ProfileInstallerResult = 2
	ProfileUnsupportedARTVersion       ProfileInstallerResult = 3
	ProfileNotWritable                 ProfileInstallerResult = 4
	ProfileDesiredFormatUnsupported    ProfileInstallerResult = 5
	ProfileBaselineProfileNotFound     ProfileInstallerResult = 6
	ProfileIOException                 ProfileInstallerResult = 7
	ProfileParseException              ProfileInstallerResult = 8
	ProfileInstallSkipFileSuccess      ProfileInstallerResult = 10
	ProfileDeleteSkipFileSuccess       ProfileInstallerResult = 11
	ProfileSaveProfileSignalled        ProfileInstallerResult = 12
	ProfileBenchmarkOperationSucceeded ProfileInstallerResult = 14
)

var profileInstallerNames = map[ProfileInstallerResult]string{
	ProfileInstallerMissing:            "profileinstaller missing",
	ProfileInstallSuccess:              "install success",
	ProfileAlreadyInstalled:            "already installed",
	ProfileUnsupportedARTVersion:       "unsupported ART version",
	ProfileNotWritable:                 "not writable",
	ProfileDesiredFormatUnsupported:    "desired format unsupported",
	ProfileBaselineProfileNotFound:     "baseline profile not found",
	ProfileIOException:                 "IO exception",
	ProfileParseException:              "parse exception",
	ProfileInstallSkipFileSuccess:      "skip file written",
	ProfileDeleteSkipFileSuccess:       "skip file deleted",
	ProfileSaveProfileSignalled:        "save profile signalled",
	ProfileBenchmarkOperationSucceeded: "benchmark operation succeeded",
}

func (r ProfileInstallerResult) String() string {
	if s, ok := profileInstallerNames[r]; ok {
		return s
	}
	return fmt.Sprintf("result %d", int(r))
}

// Installed reports whether the baseline profile is now in place.
func (r ProfileInstallerResult) Installed() bool {
	return r == ProfileInstallSuccess || r == ProfileAlreadyInstalled
}

const profileInstallReceiver = "androidx.profileinstaller.ProfileInstallReceiver"

var broadcastResultRegexp = regexp.MustCompile(`Broadcast completed: result=(-?\d+)`)

func (d *Device) profileInstallerBroadcast(ctx context.Context, pkg, action string, extra ...string) (ProfileInstallerResult, error) {
	args := append([]string{"broadcast", "-a", action}, extra...)
	args = append(args, pkg+"/"+profileInstallReceiver)
	out, err := d.ShellCommand(ctx, "am", args...).Output(testexec.DumpLogOnError)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to broadcast %s", action)
	}
	return parseBroadcastResult(string(out))
}

func parseBroadcastResult(out string) (ProfileInstallerResult, error) {
	m := broadcastResultRegexp.FindStringSubmatch(out)
	if m == nil {
		return 0, errors.Errorf("no broadcast result in %q", out)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, errors.Wrapf(err, "failed to parse broadcast result %q", m[1])
	}
	return ProfileInstallerResult(n), nil
}

// InstallBaselineProfile asks the app's bundled profileinstaller to install
// its baseline profile.
func (d *Device) InstallBaselineProfile(ctx context.Context, pkg string) (ProfileInstallerResult, error) {
	return d.profileInstallerBroadcast(ctx, pkg, "androidx.profileinstaller.action.INSTALL_PROFILE")
}

// SaveProfile asks the running app to flush its runtime profile to disk.
func (d *Device) SaveProfile(ctx context.Context, pkg string) error {
	res, err := d.profileInstallerBroadcast(ctx, pkg, "androidx.profileinstaller.action.SAVE_PROFILE")
	if err != nil {
		return err
	}
	if res != ProfileSaveProfileSignalled {
		return errors.Errorf("failed to save profile of %s: %v", pkg, res)
	}
	return nil
}

// DumpProfile dumps the runtime profile of pkg in human readable form and
// returns its content.
func (d *Device) DumpProfile(ctx context.Context, pkg string) ([]byte, error) {
	out, err := d.ShellCommand(ctx, "pm", "dump-profiles", "--dump-classes-and-methods", pkg).Output(testexec.DumpLogOnError)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to dump profiles of %s", pkg)
	}
	if s := strings.TrimSpace(string(out)); s != "" {
		return nil, errors.Errorf("pm dump-profiles failed: %q", s)
	}
	return d.ReadFile(ctx, ProfileDumpPath(pkg))
}

// ProfileDumpPath is where "pm dump-profiles" writes the profile of pkg.
func ProfileDumpPath(pkg string) string {
	return "/data/misc/profman/" + pkg + "-primary.prof.txt"
}

// DropCaches drops the kernel page cache so the next launch reads code from
// storage. It requires root.
func (d *Device) DropCaches(ctx context.Context) error {
	out, err := d.ShellCommand(ctx, "sh", "-c", "echo 3 > /proc/sys/vm/drop_caches").Output(testexec.DumpLogOnError)
	if err != nil {
		return errors.Wrap(err, "failed to drop caches")
	}
	if s := strings.TrimSpace(string(out)); s != "" {
		return errors.Errorf("failed to drop caches: %q", s)
	}
	return nil
}
