// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package macrobench

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/cascadiacollections/sir-android/internal/adb"
	"github.com/cascadiacollections/sir-android/internal/adb/ui"
	"github.com/cascadiacollections/sir-android/internal/journey"
	"github.com/cascadiacollections/sir-android/internal/logging"
	"github.com/cascadiacollections/sir-android/internal/poll"
)

// Device is the adb surface the harness drives. *adb.Device implements it.
type Device interface {
	PressKeyCode(ctx context.Context, key adb.KeyCode) error
	Tap(ctx context.Context, x, y int) error
	Swipe(ctx context.Context, x1, y1, x2, y2 int, dur time.Duration) error
	DisplaySize(ctx context.Context) (width, height int, err error)

	ResolveLaunchActivity(ctx context.Context, pkg string) (string, error)
	StartActivityAndWait(ctx context.Context, component string) (*adb.LaunchResult, error)
	ForceStop(ctx context.Context, pkg string) error
	ProcessRunning(ctx context.Context, pkg string) (bool, error)

	IsRoot(ctx context.Context) (bool, error)
	DropCaches(ctx context.Context) error

	CompileReset(ctx context.Context, pkg string) error
	Compile(ctx context.Context, pkg string, filter adb.CompilerFilter) error
	InstallBaselineProfile(ctx context.Context, pkg string) (adb.ProfileInstallerResult, error)
	SaveProfile(ctx context.Context, pkg string) error
	DumpProfile(ctx context.Context, pkg string) ([]byte, error)
	RemoveFile(ctx context.Context, path string) error

	LatestLogcatTimestamp(ctx context.Context) (adb.LogcatTimestamp, error)
	LogcatSince(ctx context.Context, ts adb.LogcatTimestamp) (string, error)
	ResetGfxInfo(ctx context.Context, pkg string) error
	GfxInfo(ctx context.Context, pkg string) (*adb.GfxInfo, error)
}

var _ Device = (*adb.Device)(nil)

// UI is the view-level surface of the harness. AutomatorUI adapts a UI
// Automator connection to it.
type UI interface {
	WaitForIdle(ctx context.Context, timeout time.Duration) error
	Click(ctx context.Context, x, y int) error
	Swipe(ctx context.Context, points []ui.Point, steps int) error
	FindByDescription(ctx context.Context, desc string, timeout time.Duration) (journey.Element, error)
}

type automatorUI struct {
	*ui.Device
}

// AutomatorUI returns a UI backed by the UI Automator server behind d.
func AutomatorUI(d *ui.Device) UI {
	return automatorUI{d}
}

func (u automatorUI) FindByDescription(ctx context.Context, desc string, timeout time.Duration) (journey.Element, error) {
	obj := u.Object(ui.Description(desc))
	if err := obj.WaitForExists(ctx, timeout); err != nil {
		if errors.Is(err, ui.ErrTimeout) {
			return nil, journey.ErrNotFound
		}
		return nil, err
	}
	return obj, nil
}

// swipeStepDuration approximates how long UI Automator takes per swipe step.
const swipeStepDuration = 5 * time.Millisecond

// Scope drives the target app during a benchmark. It implements
// journey.Device so scripts can run against it.
type Scope struct {
	dev Device
	ui  UI
	pkg string

	component string
	width     int
	height    int

	launches []adb.LaunchResult
	pending  <-chan launchOutcome
}

var _ journey.Device = (*Scope)(nil)

func newScope(dev Device, u UI, pkg string) *Scope {
	return &Scope{dev: dev, ui: u, pkg: pkg}
}

// PressHome implements journey.Device.
func (s *Scope) PressHome(ctx context.Context) error {
	return s.dev.PressKeyCode(ctx, adb.KeyCodeHome)
}

// PressBack implements journey.Device.
func (s *Scope) PressBack(ctx context.Context) error {
	return s.dev.PressKeyCode(ctx, adb.KeyCodeBack)
}

type launchOutcome struct {
	res *adb.LaunchResult
	err error
}

// StartActivityAndWait launches the default activity of the target app and
// waits at most timeout for its first frame. A launch still pending at the
// timeout is left running and the script proceeds; its result is picked up
// once it arrives.
func (s *Scope) StartActivityAndWait(ctx context.Context, timeout time.Duration) error {
	s.collectPending(ctx)
	if s.component == "" {
		c, err := s.dev.ResolveLaunchActivity(ctx, s.pkg)
		if err != nil {
			return err
		}
		s.component = c
	}

	done := make(chan launchOutcome, 1)
	go func() {
		res, err := s.dev.StartActivityAndWait(ctx, s.component)
		done <- launchOutcome{res, err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case o := <-done:
		if o.err != nil {
			return o.err
		}
		s.recordLaunch(ctx, o.res)
		return nil
	case <-timer.C:
		logging.ContextLogf(ctx, "%s not displayed within %v; continuing", s.component, timeout)
		s.pending = done
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scope) recordLaunch(ctx context.Context, res *adb.LaunchResult) {
	logging.ContextDebugf(ctx, "Launched %s: state=%s total=%v", res.Activity, res.LaunchState, res.TotalTime)
	s.launches = append(s.launches, *res)
}

// collectPending records the result of a launch that outlived its wait, if
// it has finished by now.
func (s *Scope) collectPending(ctx context.Context) {
	if s.pending == nil {
		return
	}
	select {
	case o := <-s.pending:
		s.pending = nil
		if o.err != nil {
			logging.ContextLog(ctx, "Late launch failed: ", o.err)
			return
		}
		s.recordLaunch(ctx, o.res)
	default:
	}
}

// DisplaySize implements journey.Device. The size is looked up once.
func (s *Scope) DisplaySize(ctx context.Context) (int, int, error) {
	if s.width == 0 {
		w, h, err := s.dev.DisplaySize(ctx)
		if err != nil {
			return 0, 0, err
		}
		s.width, s.height = w, h
	}
	return s.width, s.height, nil
}

// Click implements journey.Device.
func (s *Scope) Click(ctx context.Context, x, y int) error {
	if s.ui == nil {
		return s.dev.Tap(ctx, x, y)
	}
	return s.ui.Click(ctx, x, y)
}

// Swipe implements journey.Device. Without UI Automator the path is
// injected one segment at a time through "input swipe".
func (s *Scope) Swipe(ctx context.Context, points [][2]int, steps int) error {
	if len(points) < 2 {
		return errors.Errorf("swipe needs at least 2 points; got %d", len(points))
	}
	if s.ui != nil {
		pts := make([]ui.Point, len(points))
		for i, p := range points {
			pts[i] = ui.Point{X: p[0], Y: p[1]}
		}
		return s.ui.Swipe(ctx, pts, steps)
	}
	for i := 1; i < len(points); i++ {
		a, b := points[i-1], points[i]
		if err := s.dev.Swipe(ctx, a[0], a[1], b[0], b[1], time.Duration(steps)*swipeStepDuration); err != nil {
			return err
		}
	}
	return nil
}

// WaitForIdle implements journey.Device. Without UI Automator there is no
// idle signal, so the whole timeout is waited out.
func (s *Scope) WaitForIdle(ctx context.Context, timeout time.Duration) error {
	if s.ui == nil {
		return poll.Sleep(ctx, timeout)
	}
	return s.ui.WaitForIdle(ctx, timeout)
}

// FindByDescription implements journey.Device.
func (s *Scope) FindByDescription(ctx context.Context, desc string, timeout time.Duration) (journey.Element, error) {
	if s.ui == nil {
		return nil, journey.ErrNotFound
	}
	return s.ui.FindByDescription(ctx, desc, timeout)
}

// KillProcess force-stops the target app.
func (s *Scope) KillProcess(ctx context.Context) error {
	return s.dev.ForceStop(ctx, s.pkg)
}

// DropKernelPageCache drops the page cache if the device allows it. Without
// root this is a no-op.
func (s *Scope) DropKernelPageCache(ctx context.Context) error {
	root, err := s.dev.IsRoot(ctx)
	if err != nil {
		return err
	}
	if !root {
		logging.ContextDebugf(ctx, "Not root; page cache is kept")
		return nil
	}
	return s.dev.DropCaches(ctx)
}

// lastLaunch returns the most recent launch, if any.
func (s *Scope) lastLaunch(ctx context.Context) (adb.LaunchResult, bool) {
	s.collectPending(ctx)
	if len(s.launches) == 0 {
		return adb.LaunchResult{}, false
	}
	return s.launches[len(s.launches)-1], true
}

func (s *Scope) resetLaunches() {
	s.launches = nil
	s.pending = nil
}
