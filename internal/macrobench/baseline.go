// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package macrobench

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/cascadiacollections/sir-android/internal/adb"
	"github.com/cascadiacollections/sir-android/internal/journey"
	"github.com/cascadiacollections/sir-android/internal/logging"
	"github.com/cascadiacollections/sir-android/internal/profile"
)

// Defaults of CollectRequest.
const (
	DefaultMaxIterations    = 15
	DefaultStableIterations = 3
)

// BaselineProfileRule generates baseline profiles.
type BaselineProfileRule struct {
	dev    Device
	ui     UI
	outDir string
}

// NewBaselineProfileRule returns a rule driving dev and writing profiles
// under outDir.
func NewBaselineProfileRule(dev Device, u UI, outDir string) *BaselineProfileRule {
	return &BaselineProfileRule{dev: dev, ui: u, outDir: outDir}
}

// CollectRequest configures BaselineProfileRule.Collect.
type CollectRequest struct {
	PackageName string
	// MaxIterations bounds the number of runs of Profile. Zero means
	// DefaultMaxIterations.
	MaxIterations int
	// StableIterations is the number of consecutive runs that must capture
	// the same profile. Zero means DefaultStableIterations.
	StableIterations int
	// OutputFilePrefix prefixes the written file names.
	OutputFilePrefix string
	// IncludeInStartupProfile also writes the rules as a startup profile.
	IncludeInStartupProfile bool
	// StrictStability fails collection if the profile never stabilizes.
	StrictStability bool
	// Filter selects the rules to keep. nil keeps every rule.
	Filter func(profile.Rule) bool
	// Profile is the journey the profile is captured over.
	Profile func(ctx context.Context, d journey.Device) error
}

// ProfileOutput describes a collected profile.
type ProfileOutput struct {
	Rules        *profile.Set
	Iterations   int
	Stable       bool
	BaselinePath string
	// StartupPath is empty unless a startup profile was requested.
	StartupPath string
}

func (req *CollectRequest) normalize() error {
	if req.PackageName == "" {
		return errors.New("no package name")
	}
	if req.Profile == nil {
		return errors.New("no profile block")
	}
	if req.MaxIterations == 0 {
		req.MaxIterations = DefaultMaxIterations
	}
	if req.StableIterations == 0 {
		req.StableIterations = DefaultStableIterations
	}
	if req.MaxIterations < 1 || req.StableIterations < 1 {
		return errors.Errorf("iterations must be positive; got max=%d stable=%d", req.MaxIterations, req.StableIterations)
	}
	if req.StableIterations > req.MaxIterations {
		return errors.Errorf("stable iterations %d exceed max iterations %d", req.StableIterations, req.MaxIterations)
	}
	return nil
}

// Collect runs req.Profile until req.StableIterations consecutive runs have
// captured the same profile or req.MaxIterations runs are done, and writes
// the rules to files.
func (r *BaselineProfileRule) Collect(ctx context.Context, req CollectRequest) (*ProfileOutput, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}
	s := newScope(r.dev, r.ui, req.PackageName)
	if err := r.dev.CompileReset(ctx, req.PackageName); err != nil {
		return nil, err
	}
	// A dump left by an earlier run must not pass for a fresh capture.
	if err := r.dev.RemoveFile(ctx, adb.ProfileDumpPath(req.PackageName)); err != nil {
		return nil, err
	}

	stab := profile.Stability{Required: req.StableIterations}
	iter := 0
	for iter < req.MaxIterations && !stab.Stable() {
		iter++
		logging.ContextLogf(ctx, "Profile iteration %d/%d", iter, req.MaxIterations)
		if err := s.KillProcess(ctx); err != nil {
			return nil, err
		}
		if err := req.Profile(ctx, s); err != nil {
			return nil, errors.Wrapf(err, "profile iteration %d", iter)
		}
		set, err := r.capture(ctx, req)
		if err != nil {
			return nil, errors.Wrapf(err, "profile iteration %d", iter)
		}
		stab.Observe(set)
		logging.ContextLogf(ctx, "Captured %d rules; identical for %d iterations", set.Len(), stab.Streak())
	}

	if !stab.Stable() {
		if req.StrictStability {
			return nil, errors.Errorf("profile of %s not stable after %d iterations", req.PackageName, iter)
		}
		logging.ContextLogf(ctx, "Profile of %s not stable after %d iterations; using the last capture", req.PackageName, iter)
	}

	out := &ProfileOutput{Rules: stab.Last(), Iterations: iter, Stable: stab.Stable()}
	var err error
	if out.BaselinePath, err = r.write(ctx, req.OutputFilePrefix, "baseline-prof.txt", out.Rules); err != nil {
		return nil, err
	}
	if req.IncludeInStartupProfile {
		if out.StartupPath, err = r.write(ctx, req.OutputFilePrefix, "startup-prof.txt", out.Rules); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// capture flushes and dumps the runtime profile of the app.
func (r *BaselineProfileRule) capture(ctx context.Context, req CollectRequest) (*profile.Set, error) {
	if err := r.dev.SaveProfile(ctx, req.PackageName); err != nil {
		// Apps without profileinstaller still get their profile saved by
		// the runtime, just later.
		logging.ContextLog(ctx, "Failed to signal profile save: ", err)
	}
	b, err := r.dev.DumpProfile(ctx, req.PackageName)
	if err != nil {
		return nil, err
	}
	set, err := profile.Parse(bytes.NewReader(b))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse profile dump")
	}
	if req.Filter != nil {
		set = set.Filter(req.Filter)
	}
	return set, nil
}

func (r *BaselineProfileRule) write(ctx context.Context, prefix, name string, set *profile.Set) (string, error) {
	if prefix != "" {
		name = prefix + "-" + name
	}
	if err := os.MkdirAll(r.outDir, 0755); err != nil {
		return "", errors.Wrap(err, "failed to create output directory")
	}
	path := filepath.Join(r.outDir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "failed to create profile file")
	}
	if err := profile.Write(f, set); err != nil {
		f.Close()
		return "", errors.Wrapf(err, "failed to write %s", path)
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrapf(err, "failed to close %s", path)
	}
	logging.ContextLogf(ctx, "Wrote %d rules to %s", set.Len(), path)
	return path, nil
}
