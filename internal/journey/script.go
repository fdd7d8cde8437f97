// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package journey

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/cascadiacollections/sir-android/internal/logging"
)

// Script is an ordered list of actions replayed identically on every run.
type Script []Action

// Run performs the actions in order. It stops at the first failing action;
// Optional branches never fail.
func (s Script) Run(ctx context.Context, d Device) error {
	for _, a := range s {
		logging.ContextDebugf(ctx, "Journey step %v", a)
		if err := a.Do(ctx, d); err != nil {
			return errors.Wrapf(err, "failed to %v", a)
		}
	}
	return nil
}

// Validate checks that the script starts from the home screen, launches the
// app before interacting with it and bounds every wait by MaxWait.
func (s Script) Validate() error {
	if len(s) == 0 {
		return errors.New("empty script")
	}
	if _, ok := s[0].(PressHome); !ok {
		return errors.Errorf("script starts with %v; want press-home", s[0])
	}
	launched := false
	for i, a := range s {
		switch a.(type) {
		case LaunchAndWait:
			launched = true
		case Tap, Swipe, Optional:
			if !launched {
				return errors.Errorf("step %d (%v) runs before the app is launched", i, a)
			}
		}
		if err := checkBounded(a); err != nil {
			return errors.Wrapf(err, "step %d", i)
		}
	}
	if !launched {
		return errors.New("script never launches the app")
	}
	return nil
}

func checkBounded(a Action) error {
	var d time.Duration
	switch a := a.(type) {
	case LaunchAndWait:
		d = a.Timeout
	case WaitIdle:
		d = a.Timeout
	case Sleep:
		d = a.Duration
	case Optional:
		d = a.Timeout
		for _, sub := range a.Then {
			if _, ok := sub.(LaunchAndWait); ok {
				return errors.Errorf("%v relaunches the app inside an optional branch", a)
			}
			if err := checkBounded(sub); err != nil {
				return err
			}
		}
	default:
		return nil
	}
	if d <= 0 || d > MaxWait {
		return errors.Errorf("%v waits %v; want within (0, %v]", a, d, MaxWait)
	}
	return nil
}

// Durations used by the canned scripts.
const (
	LaunchTimeout  = 5 * time.Second
	IdleTimeout    = time.Second
	FindTimeout    = 2 * time.Second
	PlaybackSettle = 2 * time.Second
	PauseSettle    = 500 * time.Millisecond
)

// SettingsLabel is the accessibility description of the settings button.
const SettingsLabel = "Settings"

const settingsSwipeSteps = 20

// Launch goes home and cold-launches the app. It is the measured block of
// plain startup benchmarks.
func Launch() Script {
	return Script{
		PressHome{},
		LaunchAndWait{Timeout: LaunchTimeout},
	}
}

// Playback launches the app, then taps the middle of the screen to start
// playback and again to stop it.
func Playback() Script {
	return Script{
		PressHome{},
		LaunchAndWait{Timeout: LaunchTimeout},
		Center,
		WaitIdle{Timeout: IdleTimeout},
		Center,
		WaitIdle{Timeout: IdleTimeout},
	}
}

// ProfilePlayback is the journey baseline profiles are generated from. It
// gives playback and pause fixed time to settle so their code paths run to
// completion.
func ProfilePlayback() Script {
	return Script{
		PressHome{},
		LaunchAndWait{Timeout: LaunchTimeout},
		WaitIdle{Timeout: IdleTimeout},
		Center,
		Sleep{Duration: PlaybackSettle},
		Center,
		Sleep{Duration: PauseSettle},
	}
}

// PlaybackWithSettings extends Playback by opening the settings dialog,
// scrolling it and backing out. The settings branch is skipped if the
// settings button is not shown.
func PlaybackWithSettings() Script {
	return append(Playback(),
		Optional{
			Description: SettingsLabel,
			Timeout:     FindTimeout,
			Then: []Action{
				WaitIdle{Timeout: IdleTimeout},
				Swipe{Path: [][2]float64{{0.5, 0.7}, {0.5, 0.3}}, Steps: settingsSwipeSteps},
				WaitIdle{Timeout: IdleTimeout},
				Back{},
			},
		},
		WaitIdle{Timeout: IdleTimeout},
	)
}
