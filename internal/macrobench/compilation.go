// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package macrobench

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/cascadiacollections/sir-android/internal/adb"
)

// CompilationMode describes how the app is compiled before measurement.
// A nil CompilationMode leaves the current compilation state alone.
type CompilationMode interface {
	fmt.Stringer
	// apply brings the app into the compilation state.
	apply(ctx context.Context, s *Scope) error
}

// None resets compilation so the app runs interpreted and JIT-compiled only.
type None struct{}

func (None) String() string { return "None" }

func (None) apply(ctx context.Context, s *Scope) error {
	return s.dev.CompileReset(ctx, s.pkg)
}

// Full compiles the whole app ahead of time.
type Full struct{}

func (Full) String() string { return "Full" }

func (Full) apply(ctx context.Context, s *Scope) error {
	return s.dev.Compile(ctx, s.pkg, adb.FilterSpeed)
}

// Partial compiles the app with the baseline profile shipped in it. The
// profile is required; no warmup runs add to it.
type Partial struct{}

func (Partial) String() string {
	return "Partial(baselineProfile=Require,warmupIterations=0)"
}

func (Partial) apply(ctx context.Context, s *Scope) error {
	if err := s.dev.CompileReset(ctx, s.pkg); err != nil {
		return err
	}
	res, err := s.dev.InstallBaselineProfile(ctx, s.pkg)
	if err != nil {
		return err
	}
	if !res.Installed() {
		return errors.Errorf("baseline profile of %s not installed: %v", s.pkg, res)
	}
	return s.dev.Compile(ctx, s.pkg, adb.FilterSpeedProfile)
}
