// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package testexec is a wrapper of the standard os/exec package for running
// host commands from benchmark code.
//
// Cmd keeps the command's output when it is not redirected elsewhere, so a
// failing command can have its output logged by passing DumpLogOnError to
// Run, Output or Wait.
package testexec

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"sync"

	shellquote "github.com/kballard/go-shellquote"
	"github.com/pkg/errors"

	"github.com/cascadiacollections/sir-android/internal/logging"
)

// RunOption is an option for Run, Output and Wait.
type RunOption int

// DumpLogOnError instructs to log the command's stdout and stderr on error.
const DumpLogOnError RunOption = iota

// Cmd represents an external command being prepared or run.
type Cmd struct {
	// Cmd is the underlying exec.Cmd object.
	*exec.Cmd

	ctx context.Context

	logMu  sync.Mutex
	log    bytes.Buffer
	waited bool
}

// CommandContext prepares to run an external command.
func CommandContext(ctx context.Context, name string, arg ...string) *Cmd {
	return &Cmd{Cmd: exec.CommandContext(ctx, name, arg...), ctx: ctx}
}

// lockedWriter serializes writes from stdout and stderr goroutines.
type lockedWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Write(p)
}

func (c *Cmd) captureLog() {
	lw := &lockedWriter{&c.logMu, &c.log}
	c.Stdout = teeLog(c.Stdout, lw)
	c.Stderr = teeLog(c.Stderr, lw)
}

// teeLog returns a writer that also copies to lw. Files, including pipes
// from StdoutPipe, are left untouched since exec hands them to the child
// directly.
func teeLog(w io.Writer, lw io.Writer) io.Writer {
	switch w.(type) {
	case nil:
		return lw
	case *os.File:
		return w
	default:
		return io.MultiWriter(w, lw)
	}
}

// Start starts the command.
func (c *Cmd) Start() error {
	if c.Process == nil {
		c.captureLog()
	}
	return c.Cmd.Start()
}

// Run starts the command and waits for it to complete.
func (c *Cmd) Run(opts ...RunOption) error {
	if err := c.Start(); err != nil {
		return errors.Wrapf(err, "failed to start %s", c.String())
	}
	return c.Wait(opts...)
}

// Wait waits for the command to exit.
func (c *Cmd) Wait(opts ...RunOption) error {
	if c.waited {
		return errors.New("Wait already called")
	}
	c.waited = true
	err := c.Cmd.Wait()
	if err != nil {
		c.maybeDumpLog(opts)
	}
	return err
}

// Output runs the command and returns its standard output.
func (c *Cmd) Output(opts ...RunOption) ([]byte, error) {
	if c.Stdout != nil {
		return nil, errors.New("Stdout already set")
	}
	var stdout bytes.Buffer
	c.Stdout = &stdout
	err := c.Run(opts...)
	return stdout.Bytes(), err
}

// Kill sends SIGKILL to the process. It is not an error if the process has
// already exited.
func (c *Cmd) Kill() error {
	if c.Process == nil {
		return errors.New("process not started")
	}
	if err := c.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

// DumpLog logs the output the command has written so far.
func (c *Cmd) DumpLog(ctx context.Context) {
	c.logMu.Lock()
	defer c.logMu.Unlock()
	logging.ContextLogf(ctx, "Command %s output:\n%s", c.String(), c.log.String())
}

// String returns the command line, shell-quoted.
func (c *Cmd) String() string {
	return shellquote.Join(c.Args...)
}

func (c *Cmd) maybeDumpLog(opts []RunOption) {
	for _, o := range opts {
		if o == DumpLogOnError {
			c.DumpLog(c.ctx)
			return
		}
	}
}
