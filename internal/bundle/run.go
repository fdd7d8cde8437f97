// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package bundle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cascadiacollections/sir-android/internal/logging"
)

// RunConfig configures Run.
type RunConfig struct {
	// OutDir receives one subdirectory per test instance.
	OutDir string
	// FixtValue is passed to every test through State.FixtValue.
	FixtValue interface{}
}

// Result is the outcome of one test instance.
type Result struct {
	Name     string
	Errors   []string
	Duration time.Duration
	OutDir   string
}

// Passed reports whether the test reported no errors.
func (r *Result) Passed() bool { return len(r.Errors) == 0 }

// Run runs insts one after another and returns their results in order.
// If a test does not return after its deadline, it may still be driving the
// device, so the remaining tests are reported as not run.
func Run(ctx context.Context, insts []*Instance, cfg RunConfig) []*Result {
	var results []*Result
	for i, inst := range insts {
		res, abandoned := runInstance(ctx, inst, cfg)
		results = append(results, res)
		if abandoned {
			for _, rest := range insts[i+1:] {
				results = append(results, &Result{
					Name:   rest.Name,
					Errors: []string{fmt.Sprintf("Not run: %s is still running", inst.Name)},
				})
			}
			break
		}
	}
	return results
}

// runInstance runs inst and reports whether it had to be abandoned while
// still running.
func runInstance(ctx context.Context, inst *Instance, cfg RunConfig) (res *Result, abandoned bool) {
	start := time.Now()
	res = &Result{Name: inst.Name, OutDir: filepath.Join(cfg.OutDir, inst.Name)}

	ctx = logging.WithFields(ctx, "test", inst.Name)
	logging.ContextLogf(ctx, "Started test %s", inst.Name)
	defer func() {
		res.Duration = time.Since(start)
		if res.Passed() {
			logging.ContextLogf(ctx, "Completed test %s in %v", inst.Name, res.Duration.Round(time.Millisecond))
		} else {
			logging.ContextLogf(ctx, "Completed test %s in %v with %d error(s)", inst.Name, res.Duration.Round(time.Millisecond), len(res.Errors))
		}
	}()

	if err := os.MkdirAll(res.OutDir, 0755); err != nil {
		res.Errors = []string{fmt.Sprintf("Failed to create output directory: %v", err)}
		return res, false
	}

	ctx, cancel := context.WithTimeout(ctx, inst.Timeout)
	defer cancel()

	s := &State{inst: inst, ctx: ctx, outDir: res.OutDir, fixt: cfg.FixtValue}
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				s.addError(fmt.Sprintf("Panic: %v", r))
			}
		}()
		inst.Func(ctx, s)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		// Give the test a moment to notice the deadline before giving up on it.
		select {
		case <-done:
		case <-time.After(exitTimeout):
			s.addError(fmt.Sprintf("Test did not return on timeout (%v)", inst.Timeout))
			abandoned = true
		}
	}
	res.Errors = s.errors()
	return res, abandoned
}

// exitTimeout is how long a test may keep running after its deadline.
var exitTimeout = 30 * time.Second
