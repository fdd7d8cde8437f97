// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package poll provides bounded waiting helpers.
package poll

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

const (
	defaultInterval = 100 * time.Millisecond
)

// Options contains options for Poll.
type Options struct {
	// Timeout is the maximum time to poll. If zero, polling continues until
	// ctx is done.
	Timeout time.Duration
	// Interval is the time to sleep between polls. Defaults to 100ms.
	Interval time.Duration
}

// PollBreak wraps err to make Poll return immediately instead of retrying.
func PollBreak(err error) error {
	return &pollBreak{err}
}

type pollBreak struct {
	err error
}

func (b *pollBreak) Error() string { return b.err.Error() }

// Poll calls f repeatedly until it returns nil, the timeout elapses or ctx is
// done. The last error returned by f is wrapped into the returned error.
func Poll(ctx context.Context, f func(context.Context) error, opts *Options) error {
	timeout := time.Duration(0)
	interval := defaultInterval
	if opts != nil {
		timeout = opts.Timeout
		if opts.Interval > 0 {
			interval = opts.Interval
		}
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var lastErr error
	for {
		err := f(ctx)
		if err == nil {
			return nil
		}
		if b, ok := err.(*pollBreak); ok {
			return b.err
		}
		lastErr = err

		if err := Sleep(ctx, interval); err != nil {
			return errors.Wrapf(lastErr, "%v; last error follows", err)
		}
	}
}

// Sleep pauses the current goroutine for d or until ctx is done, whichever
// comes first. It returns ctx.Err() if ctx is done before d elapses.
func Sleep(ctx context.Context, d time.Duration) error {
	tm := time.NewTimer(d)
	defer tm.Stop()
	select {
	case <-tm.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
