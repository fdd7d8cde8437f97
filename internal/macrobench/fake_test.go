// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package macrobench

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/cascadiacollections/sir-android/internal/adb"
)

const (
	testPkg       = "com.example"
	testComponent = "com.example/.Main"
)

// fakeDevice is an in-memory Device recording the commands it receives.
type fakeDevice struct {
	mu    sync.Mutex
	calls []string

	root          bool
	running       bool
	installResult adb.ProfileInstallerResult
	launch        adb.LaunchResult
	launchDelay   time.Duration
	failLaunchAt  int // 1-based; zero never fails
	logcat        string
	gfx           adb.GfxInfo
	dumps         []string // the last one repeats

	launches int
	dumped   int
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		installResult: adb.ProfileInstallSuccess,
		launch: adb.LaunchResult{
			Activity:    testComponent,
			LaunchState: "COLD",
			TotalTime:   300 * time.Millisecond,
			WaitTime:    310 * time.Millisecond,
		},
	}
}

func (f *fakeDevice) record(format string, args ...interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeDevice) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeDevice) PressKeyCode(ctx context.Context, key adb.KeyCode) error {
	f.record("key %s", key)
	return nil
}

func (f *fakeDevice) Tap(ctx context.Context, x, y int) error {
	f.record("tap %d %d", x, y)
	return nil
}

func (f *fakeDevice) Swipe(ctx context.Context, x1, y1, x2, y2 int, dur time.Duration) error {
	f.record("swipe %d %d %d %d %v", x1, y1, x2, y2, dur)
	return nil
}

func (f *fakeDevice) DisplaySize(ctx context.Context) (int, int, error) {
	f.record("wm size")
	return 1080, 2400, nil
}

func (f *fakeDevice) ResolveLaunchActivity(ctx context.Context, pkg string) (string, error) {
	f.record("resolve %s", pkg)
	return testComponent, nil
}

func (f *fakeDevice) StartActivityAndWait(ctx context.Context, component string) (*adb.LaunchResult, error) {
	f.record("start %s", component)
	f.mu.Lock()
	f.launches++
	fail := f.launches == f.failLaunchAt
	f.mu.Unlock()
	if f.launchDelay > 0 {
		select {
		case <-time.After(f.launchDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fail {
		return nil, errors.New("activity crashed")
	}
	f.mu.Lock()
	f.running = true
	f.mu.Unlock()
	res := f.launch
	return &res, nil
}

func (f *fakeDevice) ForceStop(ctx context.Context, pkg string) error {
	f.record("force-stop %s", pkg)
	f.running = false
	return nil
}

func (f *fakeDevice) ProcessRunning(ctx context.Context, pkg string) (bool, error) {
	f.record("pidof %s", pkg)
	return f.running, nil
}

func (f *fakeDevice) IsRoot(ctx context.Context) (bool, error) {
	f.record("is-root")
	return f.root, nil
}

func (f *fakeDevice) DropCaches(ctx context.Context) error {
	f.record("drop-caches")
	return nil
}

func (f *fakeDevice) CompileReset(ctx context.Context, pkg string) error {
	f.record("compile --reset %s", pkg)
	return nil
}

func (f *fakeDevice) Compile(ctx context.Context, pkg string, filter adb.CompilerFilter) error {
	f.record("compile -m %s %s", filter, pkg)
	return nil
}

func (f *fakeDevice) InstallBaselineProfile(ctx context.Context, pkg string) (adb.ProfileInstallerResult, error) {
	f.record("install-profile %s", pkg)
	return f.installResult, nil
}

func (f *fakeDevice) SaveProfile(ctx context.Context, pkg string) error {
	f.record("save-profile %s", pkg)
	return nil
}

func (f *fakeDevice) DumpProfile(ctx context.Context, pkg string) ([]byte, error) {
	f.record("dump-profile %s", pkg)
	if len(f.dumps) == 0 {
		return nil, nil
	}
	i := f.dumped
	if i >= len(f.dumps) {
		i = len(f.dumps) - 1
	}
	f.dumped++
	return []byte(f.dumps[i]), nil
}

func (f *fakeDevice) RemoveFile(ctx context.Context, path string) error {
	f.record("rm %s", path)
	return nil
}

func (f *fakeDevice) LatestLogcatTimestamp(ctx context.Context) (adb.LogcatTimestamp, error) {
	f.record("logcat-timestamp")
	return "06-15 17:03:00.887", nil
}

func (f *fakeDevice) LogcatSince(ctx context.Context, ts adb.LogcatTimestamp) (string, error) {
	f.record("logcat-since")
	return f.logcat, nil
}

func (f *fakeDevice) ResetGfxInfo(ctx context.Context, pkg string) error {
	f.record("gfxinfo-reset %s", pkg)
	return nil
}

func (f *fakeDevice) GfxInfo(ctx context.Context, pkg string) (*adb.GfxInfo, error) {
	f.record("gfxinfo %s", pkg)
	info := f.gfx
	return &info, nil
}
