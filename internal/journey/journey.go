// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package journey describes user journeys through the app as fixed action
// scripts. The same script warms up profile collection and drives startup
// timing runs.
package journey

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/cascadiacollections/sir-android/internal/logging"
	"github.com/cascadiacollections/sir-android/internal/poll"
)

// MaxWait bounds every wait of a script.
const MaxWait = time.Minute

// ErrNotFound is returned by Device.FindByDescription when no matching view
// shows up before the timeout.
var ErrNotFound = errors.New("element not found")

// Element is a view found on screen.
type Element interface {
	Click(ctx context.Context) error
}

// Device is what a script needs from the device under test.
type Device interface {
	PressHome(ctx context.Context) error
	// StartActivityAndWait launches the target app and waits until its
	// first frame is displayed or timeout elapses. Reaching the timeout is
	// not an error.
	StartActivityAndWait(ctx context.Context, timeout time.Duration) error
	DisplaySize(ctx context.Context) (width, height int, err error)
	Click(ctx context.Context, x, y int) error
	// Swipe moves through points, taking steps injection steps per segment.
	Swipe(ctx context.Context, points [][2]int, steps int) error
	// WaitForIdle waits until the UI is idle or timeout elapses. Reaching
	// the timeout is not an error.
	WaitForIdle(ctx context.Context, timeout time.Duration) error
	FindByDescription(ctx context.Context, desc string, timeout time.Duration) (Element, error)
	PressBack(ctx context.Context) error
}

// Action is a single step of a script.
type Action interface {
	Do(ctx context.Context, d Device) error
	String() string
}

// Sleeper is implemented by devices that carry out Sleep actions themselves.
// Other devices are slept on with the wall clock.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// sleep is replaced in unit tests.
var sleep = poll.Sleep

// PressHome presses the home button.
type PressHome struct{}

// Do implements Action.
func (PressHome) Do(ctx context.Context, d Device) error { return d.PressHome(ctx) }

func (PressHome) String() string { return "press-home" }

// LaunchAndWait launches the target app and waits for its first frame.
type LaunchAndWait struct {
	Timeout time.Duration
}

// Do implements Action.
func (a LaunchAndWait) Do(ctx context.Context, d Device) error {
	return d.StartActivityAndWait(ctx, a.Timeout)
}

func (a LaunchAndWait) String() string {
	return fmt.Sprintf("launch-and-wait(%dms)", a.Timeout.Milliseconds())
}

// Tap taps a point given as fractions of the display size.
type Tap struct {
	X, Y float64
}

// Center is the middle of the display.
var Center = Tap{X: 0.5, Y: 0.5}

// Do implements Action.
func (a Tap) Do(ctx context.Context, d Device) error {
	w, h, err := d.DisplaySize(ctx)
	if err != nil {
		return err
	}
	return d.Click(ctx, scale(a.X, w), scale(a.Y, h))
}

func (a Tap) String() string {
	return fmt.Sprintf("tap(%s,%s)", coord(a.X), coord(a.Y))
}

// Sleep blocks for a fixed duration. An interrupted sleep ends early and the
// script carries on.
type Sleep struct {
	Duration time.Duration
}

// Do implements Action.
func (a Sleep) Do(ctx context.Context, d Device) error {
	wait := sleep
	if sl, ok := d.(Sleeper); ok {
		wait = sl.Sleep
	}
	if err := wait(ctx, a.Duration); err != nil {
		logging.ContextLogf(ctx, "Sleep of %v interrupted: %v", a.Duration, err)
	}
	return nil
}

func (a Sleep) String() string { return fmt.Sprintf("sleep(%dms)", a.Duration.Milliseconds()) }

// WaitIdle waits until the UI is idle or the timeout elapses.
type WaitIdle struct {
	Timeout time.Duration
}

// Do implements Action.
func (a WaitIdle) Do(ctx context.Context, d Device) error { return d.WaitForIdle(ctx, a.Timeout) }

func (a WaitIdle) String() string {
	return fmt.Sprintf("wait-idle(%dms)", a.Timeout.Milliseconds())
}

// Swipe swipes along a path of points given as fractions of the display.
type Swipe struct {
	Path  [][2]float64
	Steps int
}

// Do implements Action.
func (a Swipe) Do(ctx context.Context, d Device) error {
	w, h, err := d.DisplaySize(ctx)
	if err != nil {
		return err
	}
	points := make([][2]int, len(a.Path))
	for i, p := range a.Path {
		points[i] = [2]int{scale(p[0], w), scale(p[1], h)}
	}
	return d.Swipe(ctx, points, a.Steps)
}

func (a Swipe) String() string {
	var pts []string
	for _, p := range a.Path {
		pts = append(pts, fmt.Sprintf("(%s,%s)", coord(p[0]), coord(p[1])))
	}
	return fmt.Sprintf("swipe(%s,steps=%d)", strings.Join(pts, "-"), a.Steps)
}

// Back presses the back button.
type Back struct{}

// Do implements Action.
func (Back) Do(ctx context.Context, d Device) error { return d.PressBack(ctx) }

func (Back) String() string { return "back" }

// Optional looks up a view by accessibility description, clicks it and runs
// Then. If the view is missing or any dependent step fails, the branch is
// skipped and the script continues with its next step.
type Optional struct {
	Description string
	Timeout     time.Duration
	Then        []Action
}

// Do implements Action.
func (a Optional) Do(ctx context.Context, d Device) error {
	if err := a.run(ctx, d); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logging.ContextLogf(ctx, "Skipping %q branch: %v", a.Description, err)
	}
	return nil
}

func (a Optional) run(ctx context.Context, d Device) error {
	el, err := d.FindByDescription(ctx, a.Description, a.Timeout)
	if err != nil {
		return err
	}
	if err := el.Click(ctx); err != nil {
		return errors.Wrapf(err, "failed to click %q", a.Description)
	}
	for _, act := range a.Then {
		if err := act.Do(ctx, d); err != nil {
			return errors.Wrapf(err, "failed to %v", act)
		}
	}
	return nil
}

func (a Optional) String() string {
	var then []string
	for _, act := range a.Then {
		then = append(then, act.String())
	}
	return fmt.Sprintf("optional(find %q %dms: %s)", a.Description, a.Timeout.Milliseconds(), strings.Join(then, ", "))
}

func scale(frac float64, size int) int {
	return int(frac * float64(size))
}

func coord(frac float64) string {
	if frac == 0.5 {
		return "center"
	}
	return fmt.Sprintf("%g", frac)
}
