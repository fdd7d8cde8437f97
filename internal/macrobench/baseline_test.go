// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package macrobench

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cascadiacollections/sir-android/internal/journey"
	"github.com/cascadiacollections/sir-android/internal/profile"
)

const (
	dumpA  = "Lcom/example/Main;\nHSPLcom/example/Main;->onCreate(Landroid/os/Bundle;)V\nLandroid/app/Activity;\n"
	dumpAB = dumpA + "PLcom/example/Player;->play()V\n"
)

func profileLaunch(ctx context.Context, d journey.Device) error {
	return journey.Launch().Run(ctx, d)
}

func TestCollectStable(t *testing.T) {
	dev := newFakeDevice()
	dev.dumps = []string{dumpA, dumpAB}
	dir := t.TempDir()

	out, err := NewBaselineProfileRule(dev, nil, dir).Collect(context.Background(), CollectRequest{
		PackageName:             testPkg,
		MaxIterations:           10,
		StableIterations:        3,
		OutputFilePrefix:        "playback",
		IncludeInStartupProfile: true,
		StrictStability:         true,
		Filter:                  profile.InPackage(testPkg),
		Profile:                 profileLaunch,
	})
	if err != nil {
		t.Fatal("Collect failed: ", err)
	}
	// One capture, then three identical ones.
	if out.Iterations != 4 || !out.Stable {
		t.Errorf("Collect took %d iterations (stable=%v); want 4 (stable=true)", out.Iterations, out.Stable)
	}
	if dev.launches != 4 {
		t.Errorf("Profile block ran %d times; want 4", dev.launches)
	}
	if diff := cmp.Diff([]string{"compile --reset com.example", "rm /data/misc/profman/com.example-primary.prof.txt"}, dev.calls[:2]); diff != "" {
		t.Errorf("Unexpected preparation (-want +got):\n%s", diff)
	}

	want := "Lcom/example/Main;\nHSPLcom/example/Main;->onCreate(Landroid/os/Bundle;)V\nPLcom/example/Player;->play()V\n"
	for _, p := range []string{out.BaselinePath, out.StartupPath} {
		b, err := os.ReadFile(p)
		if err != nil {
			t.Fatal("Failed to read profile: ", err)
		}
		if diff := cmp.Diff(want, string(b)); diff != "" {
			t.Errorf("Unexpected %s (-want +got):\n%s", filepath.Base(p), diff)
		}
	}
	if got, want := filepath.Base(out.BaselinePath), "playback-baseline-prof.txt"; got != want {
		t.Errorf("Baseline profile written to %s; want %s", got, want)
	}
	if got, want := filepath.Base(out.StartupPath), "playback-startup-prof.txt"; got != want {
		t.Errorf("Startup profile written to %s; want %s", got, want)
	}
}

func TestCollectStableAtMaxIterations(t *testing.T) {
	dev := newFakeDevice()
	dev.dumps = []string{dumpA}
	out, err := NewBaselineProfileRule(dev, nil, t.TempDir()).Collect(context.Background(), CollectRequest{
		PackageName:      testPkg,
		MaxIterations:    3,
		StableIterations: 3,
		StrictStability:  true,
		Profile:          profileLaunch,
	})
	if err != nil {
		t.Fatal("Collect failed: ", err)
	}
	if out.Iterations != 3 || !out.Stable {
		t.Errorf("Collect took %d iterations (stable=%v); want 3 (stable=true)", out.Iterations, out.Stable)
	}
}

func TestCollectUnstable(t *testing.T) {
	// Dumps alternate forever.
	alternating := make([]string, 20)
	for i := range alternating {
		if i%2 == 0 {
			alternating[i] = dumpA
		} else {
			alternating[i] = dumpAB
		}
	}

	for _, tc := range []struct {
		name   string
		strict bool
	}{
		{"strict", true},
		{"lenient", false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dev := newFakeDevice()
			dev.dumps = alternating
			dir := t.TempDir()
			out, err := NewBaselineProfileRule(dev, nil, dir).Collect(context.Background(), CollectRequest{
				PackageName:      testPkg,
				MaxIterations:    4,
				StableIterations: 2,
				StrictStability:  tc.strict,
				Profile:          profileLaunch,
			})
			if tc.strict {
				if err == nil {
					t.Error("Collect unexpectedly succeeded")
				}
				return
			}
			if err != nil {
				t.Fatal("Collect failed: ", err)
			}
			if out.Stable || out.Iterations != 4 {
				t.Errorf("Collect returned stable=%v after %d iterations; want unstable after 4", out.Stable, out.Iterations)
			}
			if out.StartupPath != "" {
				t.Errorf("Startup profile written to %s without being requested", out.StartupPath)
			}
			if got := filepath.Base(out.BaselinePath); got != "baseline-prof.txt" {
				t.Errorf("Baseline profile written to %s; want baseline-prof.txt", got)
			}
		})
	}
}

func TestCollectRejects(t *testing.T) {
	for name, req := range map[string]CollectRequest{
		"no package":        {Profile: profileLaunch},
		"no profile":        {PackageName: testPkg},
		"negative max":      {PackageName: testPkg, Profile: profileLaunch, MaxIterations: -1},
		"stable beyond max": {PackageName: testPkg, Profile: profileLaunch, MaxIterations: 2, StableIterations: 3},
	} {
		dev := newFakeDevice()
		if _, err := NewBaselineProfileRule(dev, nil, t.TempDir()).Collect(context.Background(), req); err == nil {
			t.Errorf("%s: Collect unexpectedly succeeded", name)
		}
	}
}
