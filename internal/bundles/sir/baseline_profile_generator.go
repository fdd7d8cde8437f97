// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package sir

import (
	"context"
	"time"

	"github.com/cascadiacollections/sir-android/internal/bundle"
	"github.com/cascadiacollections/sir-android/internal/journey"
	"github.com/cascadiacollections/sir-android/internal/macrobench"
	"github.com/cascadiacollections/sir-android/internal/profile"
)

// Profiler collects baseline profiles. *macrobench.BaselineProfileRule
// implements it.
type Profiler interface {
	Collect(ctx context.Context, req macrobench.CollectRequest) (*macrobench.ProfileOutput, error)
}

// ProfileConfig configures one baseline profile collection.
type ProfileConfig struct {
	// OutputFilePrefix prefixes the profile file names. Empty writes
	// baseline-prof.txt.
	OutputFilePrefix        string
	MaxIterations           int
	StableIterations        int
	IncludeInStartupProfile bool
	StrictStability         bool
	// AppOnly drops rules for classes outside the app's own Java package.
	AppOnly bool
	Script  journey.Script
}

var profileConfigs = []struct {
	name string
	cfg  ProfileConfig
}{
	{
		// Startup plus the playback start and pause paths.
		name: "playback",
		cfg: ProfileConfig{
			MaxIterations:           10,
			StableIterations:        3,
			IncludeInStartupProfile: true,
			StrictStability:         true,
			Script:                  journey.ProfilePlayback(),
		},
	},
	{
		// Adds the settings dialog, which not every build shows.
		name: "settings",
		cfg: ProfileConfig{
			OutputFilePrefix: "settings",
			MaxIterations:    10,
			StableIterations: 2,
			AppOnly:          true,
			Script:           journey.PlaybackWithSettings(),
		},
	},
}

func init() {
	var params []bundle.Param
	for _, p := range profileConfigs {
		params = append(params, bundle.Param{Name: p.name, Val: p.cfg})
	}
	bundle.AddTest(&bundle.Test{
		Func:     BaselineProfileGenerator,
		Desc:     "Generates a baseline profile of the startup and playback paths",
		Contacts: []string{"sir-dev@cascadiacollections.com"},
		Attr:     []string{"group:sir", "sir_profile"},
		Timeout:  15 * time.Minute,
		Params:   params,
	})
}

// CollectProfile collects a profile of pkg through p as configured by cfg.
func CollectProfile(ctx context.Context, p Profiler, pkg string, cfg ProfileConfig) (*macrobench.ProfileOutput, error) {
	if err := cfg.Script.Validate(); err != nil {
		return nil, err
	}
	script := cfg.Script
	var filter func(profile.Rule) bool
	if cfg.AppOnly {
		filter = profile.InPackage(pkg)
	}
	return p.Collect(ctx, macrobench.CollectRequest{
		PackageName:             pkg,
		MaxIterations:           cfg.MaxIterations,
		StableIterations:        cfg.StableIterations,
		OutputFilePrefix:        cfg.OutputFilePrefix,
		IncludeInStartupProfile: cfg.IncludeInStartupProfile,
		StrictStability:         cfg.StrictStability,
		Filter:                  filter,
		Profile: func(ctx context.Context, d journey.Device) error {
			return script.Run(ctx, d)
		},
	})
}

func BaselineProfileGenerator(ctx context.Context, s *bundle.State) {
	env := s.FixtValue().(*Env)
	cfg := s.Param().(ProfileConfig)

	rule := macrobench.NewBaselineProfileRule(env.Device, env.UI, s.OutDir())
	out, err := CollectProfile(ctx, rule, env.Package, cfg)
	if err != nil {
		s.Fatal("Failed to collect baseline profile: ", err)
	}
	s.Logf("Collected %d rules in %d iterations (stable=%v) to %s", out.Rules.Len(), out.Iterations, out.Stable, out.BaselinePath)
	if out.StartupPath != "" {
		s.Log("Startup profile written to ", out.StartupPath)
	}
}
