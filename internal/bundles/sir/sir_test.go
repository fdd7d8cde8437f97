// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package sir

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"

	"github.com/cascadiacollections/sir-android/internal/bundle"
	"github.com/cascadiacollections/sir-android/internal/journey"
	"github.com/cascadiacollections/sir-android/internal/macrobench"
	"github.com/cascadiacollections/sir-android/internal/profile"
)

// recordingDevice is a journey.Device that records what a script does.
type recordingDevice struct {
	calls []string
}

func (d *recordingDevice) record(format string, args ...interface{}) {
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

func (d *recordingDevice) PressHome(ctx context.Context) error {
	d.record("press-home")
	return nil
}

func (d *recordingDevice) StartActivityAndWait(ctx context.Context, timeout time.Duration) error {
	d.record("launch-and-wait(%dms)", timeout.Milliseconds())
	return nil
}

func (d *recordingDevice) DisplaySize(ctx context.Context) (int, int, error) {
	return 1080, 2400, nil
}

func (d *recordingDevice) Click(ctx context.Context, x, y int) error {
	d.record("click(%d,%d)", x, y)
	return nil
}

func (d *recordingDevice) Swipe(ctx context.Context, points [][2]int, steps int) error {
	d.record("swipe(%v,%d)", points, steps)
	return nil
}

func (d *recordingDevice) WaitForIdle(ctx context.Context, timeout time.Duration) error {
	d.record("wait-idle(%dms)", timeout.Milliseconds())
	return nil
}

func (d *recordingDevice) FindByDescription(ctx context.Context, desc string, timeout time.Duration) (journey.Element, error) {
	d.record("find(%q)", desc)
	return nil, journey.ErrNotFound
}

func (d *recordingDevice) PressBack(ctx context.Context) error {
	d.record("back")
	return nil
}

func (d *recordingDevice) Sleep(ctx context.Context, dur time.Duration) error {
	d.record("sleep(%dms)", dur.Milliseconds())
	return nil
}

type harnessCall struct {
	Package     string
	Compilation macrobench.CompilationMode
	StartupMode macrobench.StartupMode
	Iterations  int
	Metrics     int
	Script      []string
}

// recordingHarness is a Benchmarker running each measure block once.
type recordingHarness struct {
	calls  []harnessCall
	failAt int // 1-based call number to fail; zero never fails
}

func (h *recordingHarness) MeasureRepeated(ctx context.Context, req macrobench.MeasureRequest) (*macrobench.Result, error) {
	dev := &recordingDevice{}
	if err := req.Measure(ctx, dev); err != nil {
		return nil, err
	}
	h.calls = append(h.calls, harnessCall{
		Package:     req.PackageName,
		Compilation: req.Compilation,
		StartupMode: req.StartupMode,
		Iterations:  req.Iterations,
		Metrics:     len(req.Metrics),
		Script:      dev.calls,
	})
	if len(h.calls) == h.failAt {
		return nil, errors.New("harness failure")
	}
	return &macrobench.Result{PackageName: req.PackageName, StartupMode: req.StartupMode, Iterations: req.Iterations}, nil
}

var (
	launchScript   = []string{"press-home", "launch-and-wait(5000ms)"}
	playbackScript = []string{
		"press-home",
		"launch-and-wait(5000ms)",
		"click(540,1200)",
		"wait-idle(1000ms)",
		"click(540,1200)",
		"wait-idle(1000ms)",
	}
)

func TestRunMatrixScenario(t *testing.T) {
	h := &recordingHarness{}
	cfg := Config{Name: "sample", Compilation: macrobench.None{}, StartupMode: macrobench.Cold, Iterations: 3, Script: journey.Playback()}
	if _, err := RunMatrix(context.Background(), h, "app.radio.sample", []Config{cfg}); err != nil {
		t.Fatal("RunMatrix failed: ", err)
	}
	want := []harnessCall{{
		Package:     "app.radio.sample",
		Compilation: macrobench.None{},
		StartupMode: macrobench.Cold,
		Iterations:  3,
		Metrics:     1,
		Script:      playbackScript,
	}}
	if diff := cmp.Diff(want, h.calls); diff != "" {
		t.Errorf("Unexpected harness calls (-want +got):\n%s", diff)
	}
}

func TestRunMatrixWarm(t *testing.T) {
	h := &recordingHarness{}
	cfg := Config{Name: "warm", StartupMode: macrobench.Warm, Iterations: 3, Script: journey.Playback()}
	if _, err := RunMatrix(context.Background(), h, "app.radio.sample", []Config{cfg}); err != nil {
		t.Fatal("RunMatrix failed: ", err)
	}
	if len(h.calls) != 1 {
		t.Fatalf("Got %d harness calls; want 1", len(h.calls))
	}
	if c := h.calls[0]; c.Compilation != nil || c.StartupMode != macrobench.Warm || c.Iterations != 3 {
		t.Errorf("Unexpected harness call %+v", c)
	}
}

func TestMatrices(t *testing.T) {
	h := &recordingHarness{}
	configs := append(LaunchMatrix(), InteractionMatrix()...)
	results, err := RunMatrix(context.Background(), h, PackageName, configs)
	if err != nil {
		t.Fatal("RunMatrix failed: ", err)
	}
	if len(results) != len(configs) {
		t.Fatalf("Got %d results; want %d", len(results), len(configs))
	}

	partial := macrobench.Partial{}
	call := func(mode macrobench.CompilationMode, startup macrobench.StartupMode, iterations, metrics int, script []string) harnessCall {
		return harnessCall{Package: PackageName, Compilation: mode, StartupMode: startup, Iterations: iterations, Metrics: metrics, Script: script}
	}
	want := []harnessCall{
		call(macrobench.None{}, macrobench.Cold, 5, 1, launchScript),
		call(partial, macrobench.Cold, 5, 1, launchScript),
		call(macrobench.Full{}, macrobench.Cold, 5, 1, launchScript),
		call(macrobench.None{}, macrobench.Cold, 3, 2, playbackScript),
		call(partial, macrobench.Cold, 3, 2, playbackScript),
		call(macrobench.Full{}, macrobench.Cold, 3, 2, playbackScript),
		call(nil, macrobench.Warm, 3, 2, playbackScript),
		call(nil, macrobench.Hot, 3, 2, playbackScript),
	}
	if diff := cmp.Diff(want, h.calls); diff != "" {
		t.Errorf("Unexpected harness calls (-want +got):\n%s", diff)
	}
}

func TestRunMatrixContinuesAfterFailure(t *testing.T) {
	h := &recordingHarness{failAt: 2}
	results, err := RunMatrix(context.Background(), h, PackageName, LaunchMatrix())
	if err == nil {
		t.Fatal("RunMatrix unexpectedly succeeded")
	}
	if len(h.calls) != 3 {
		t.Errorf("Got %d harness calls; want 3", len(h.calls))
	}
	if results[0] == nil || results[1] != nil || results[2] == nil {
		t.Errorf("Unexpected results %v; want only the second missing", results)
	}
}

func TestRunMatrixRejectsInvalidScript(t *testing.T) {
	h := &recordingHarness{}
	cfg := Config{Name: "bad", Compilation: macrobench.None{}, StartupMode: macrobench.Cold, Iterations: 3,
		Script: journey.Script{journey.Center, journey.LaunchAndWait{Timeout: time.Second}}}
	if _, err := RunMatrix(context.Background(), h, PackageName, []Config{cfg}); err == nil {
		t.Error("RunMatrix unexpectedly accepted a script that taps before launching")
	}
	if len(h.calls) != 0 {
		t.Errorf("Harness invoked %d times for an invalid script", len(h.calls))
	}
}

type recordingProfiler struct {
	req    macrobench.CollectRequest
	script []string
}

func (p *recordingProfiler) Collect(ctx context.Context, req macrobench.CollectRequest) (*macrobench.ProfileOutput, error) {
	p.req = req
	dev := &recordingDevice{}
	if err := req.Profile(ctx, dev); err != nil {
		return nil, err
	}
	p.script = dev.calls
	return &macrobench.ProfileOutput{}, nil
}

func TestCollectProfile(t *testing.T) {
	orig := profileConfigs[0]
	if orig.name != "playback" {
		t.Fatalf("First profile config is %q; want playback", orig.name)
	}
	p := &recordingProfiler{}
	if _, err := CollectProfile(context.Background(), p, PackageName, orig.cfg); err != nil {
		t.Fatal("CollectProfile failed: ", err)
	}
	req := p.req
	if req.PackageName != PackageName || req.MaxIterations != 10 || req.StableIterations != 3 ||
		req.OutputFilePrefix != "" || !req.IncludeInStartupProfile || !req.StrictStability || req.Filter != nil {
		t.Errorf("Unexpected collect request %+v", req)
	}
	want := []string{
		"press-home",
		"launch-and-wait(5000ms)",
		"wait-idle(1000ms)",
		"click(540,1200)",
		"sleep(2000ms)",
		"click(540,1200)",
		"sleep(500ms)",
	}
	if diff := cmp.Diff(want, p.script); diff != "" {
		t.Errorf("Unexpected profile journey (-want +got):\n%s", diff)
	}
}

func TestCollectProfileSettingsSkipped(t *testing.T) {
	p := &recordingProfiler{}
	if _, err := CollectProfile(context.Background(), p, PackageName, profileConfigs[1].cfg); err != nil {
		t.Fatal("CollectProfile failed: ", err)
	}
	want := append(append([]string(nil), playbackScript...), `find("Settings")`, "wait-idle(1000ms)")
	if diff := cmp.Diff(want, p.script); diff != "" {
		t.Errorf("Unexpected profile journey (-want +got):\n%s", diff)
	}

	keep := p.req.Filter
	if keep == nil {
		t.Fatal("Settings profile is not restricted to the app")
	}
	if !keep(profile.Rule{Class: "Lcom/cascadiacollections/sir/SettingsFragment;"}) {
		t.Error("Filter drops app classes")
	}
	if keep(profile.Rule{Class: "Landroidx/preference/PreferenceFragmentCompat;"}) {
		t.Error("Filter keeps library classes")
	}
}

func TestRegisteredTests(t *testing.T) {
	if errs := bundle.Global().Errors(); len(errs) != 0 {
		t.Fatal("Registration failed: ", errs)
	}
	insts, err := bundle.Global().Match([]string{"sir.*"})
	if err != nil {
		t.Fatal("Match failed: ", err)
	}
	var got []string
	for _, inst := range insts {
		got = append(got, inst.Name)
	}
	want := []string{
		"sir.BaselineProfileGenerator.playback",
		"sir.BaselineProfileGenerator.settings",
		"sir.StartupBenchmark.interaction_cold_baseline_profile",
		"sir.StartupBenchmark.interaction_cold_full",
		"sir.StartupBenchmark.interaction_cold_none",
		"sir.StartupBenchmark.interaction_hot",
		"sir.StartupBenchmark.interaction_warm",
		"sir.StartupBenchmark.launch_baseline_profile",
		"sir.StartupBenchmark.launch_full",
		"sir.StartupBenchmark.launch_none",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Unexpected registered tests (-want +got):\n%s", diff)
	}
}
