// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package bundle

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/cascadiacollections/sir-android/internal/logging"
)

// State holds state relevant to the execution of a single test.
//
// Fatal and Fatalf end the test immediately, so they must only be called
// from the goroutine running the test function.
type State struct {
	inst   *Instance
	ctx    context.Context // for logging only
	outDir string
	fixt   interface{}

	mu   sync.Mutex
	errs []string
}

// TestName returns the name of the running test instance.
func (s *State) TestName() string { return s.inst.Name }

// Param returns Val of the instance's Param.
func (s *State) Param() interface{} { return s.inst.Val }

// OutDir returns the directory the test may write output files to.
func (s *State) OutDir() string { return s.outDir }

// FixtValue returns the value supplied by the runner for all tests.
func (s *State) FixtValue() interface{} { return s.fixt }

// Log formats its arguments using default formatting and logs them.
func (s *State) Log(args ...interface{}) {
	logging.ContextLog(s.ctx, args...)
}

// Logf is similar to Log but formats its arguments using fmt.Sprintf.
func (s *State) Logf(format string, args ...interface{}) {
	logging.ContextLogf(s.ctx, format, args...)
}

// Error reports an error and marks the test as failed.
func (s *State) Error(args ...interface{}) {
	s.addError(fmt.Sprint(args...))
}

// Errorf is similar to Error but formats its arguments using fmt.Sprintf.
func (s *State) Errorf(format string, args ...interface{}) {
	s.addError(fmt.Sprintf(format, args...))
}

// Fatal is similar to Error but also stops the test.
func (s *State) Fatal(args ...interface{}) {
	s.addError(fmt.Sprint(args...))
	runtime.Goexit()
}

// Fatalf is similar to Fatal but formats its arguments using fmt.Sprintf.
func (s *State) Fatalf(format string, args ...interface{}) {
	s.addError(fmt.Sprintf(format, args...))
	runtime.Goexit()
}

// HasError reports whether the test has already reported errors.
func (s *State) HasError() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.errs) > 0
}

func (s *State) addError(msg string) {
	logging.ContextLog(s.ctx, "Error: ", msg)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, msg)
}

func (s *State) errors() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.errs...)
}
