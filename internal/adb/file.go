// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package adb

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/cascadiacollections/sir-android/internal/testexec"
)

// ReadFile returns the content of a file on the device.
func (d *Device) ReadFile(ctx context.Context, path string) ([]byte, error) {
	out, err := d.ShellCommand(ctx, "cat", path).Output(testexec.DumpLogOnError)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	// cat reports errors on stdout through exec-out.
	if strings.HasPrefix(string(out), "cat: "+path+":") {
		return nil, errors.Errorf("failed to read %s: %s", path, strings.TrimSpace(string(out)))
	}
	return out, nil
}

// RemoveFile removes a file on the device.
func (d *Device) RemoveFile(ctx context.Context, path string) error {
	return d.ShellCommand(ctx, "rm", "-f", path).Run(testexec.DumpLogOnError)
}

func parseInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to parse %q", s)
	}
	return n, nil
}
