// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package macrobench

import (
	"context"
	"fmt"

	"github.com/cascadiacollections/sir-android/internal/logging"
)

// StartupMode is the process and activity state the app is launched from.
type StartupMode int

// Startup modes. The zero value measures without any startup preparation.
const (
	StartupNone StartupMode = iota
	// Cold launches with no process and, when possible, a dropped page cache.
	Cold
	// Warm launches with a live process but no activity.
	Warm
	// Hot brings an existing activity back to the foreground.
	Hot
)

func (m StartupMode) String() string {
	switch m {
	case StartupNone:
		return "NONE"
	case Cold:
		return "COLD"
	case Warm:
		return "WARM"
	case Hot:
		return "HOT"
	default:
		return fmt.Sprintf("StartupMode(%d)", int(m))
	}
}

// setup prepares a single iteration. launch runs the measured block and is
// used to bring the process up for warm and hot starts.
func (m StartupMode) setup(ctx context.Context, s *Scope, launch func(context.Context) error) error {
	switch m {
	case Cold:
		if err := s.KillProcess(ctx); err != nil {
			return err
		}
		if err := s.DropKernelPageCache(ctx); err != nil {
			logging.ContextLog(ctx, "Failed to drop page cache: ", err)
		}
		return nil
	case Warm, Hot:
		running, err := s.dev.ProcessRunning(ctx, s.pkg)
		if err != nil {
			return err
		}
		if !running {
			if err := launch(ctx); err != nil {
				return err
			}
		}
		if m == Warm {
			// Back destroys the activity while the process stays alive.
			return s.PressBack(ctx)
		}
		return s.PressHome(ctx)
	default:
		return nil
	}
}
