// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ui

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Available RPC methods are listed at:
// https://github.com/xiaocong/android-uiautomator-server/blob/master/app/src/androidTest/java/com/github/uiautomator/stub/AutomatorService.java

// ErrTimeout is returned when a wait method gives up before its condition
// is met.
var ErrTimeout = errors.New("timeout")

// Object is a representation of an Android view.
//
// An instantiated Object does NOT uniquely identify an Android view. Instead,
// it holds a selector to locate a matching view when its methods are called.
//
// This object corresponds to UiObject in UI Automator API:
// https://developer.android.com/reference/androidx/test/uiautomator/UiObject
type Object struct {
	d *Device
	s *selector
}

// Object creates an Object from given selectors.
//
// Example:
//
//	btn := d.Object(ui.Description("Settings"))
func (d *Device) Object(opts ...SelectorOption) *Object {
	return &Object{d: d, s: newSelector(opts)}
}

// WaitForExists waits for a view matching the selector to appear.
//
// This method corresponds to UiObject.waitForExists().
func (o *Object) WaitForExists(ctx context.Context, timeout time.Duration) error {
	return o.callSimple(ctx, "waitForExists", o.s, timeout.Milliseconds())
}

// Click clicks a view matching the selector.
//
// This method corresponds to UiObject.click().
func (o *Object) Click(ctx context.Context) error {
	return o.callSimple(ctx, "click", o.s)
}

// callSimple is a common method to call a RPC method that returns a boolean indicating success.
func (o *Object) callSimple(ctx context.Context, method string, params ...interface{}) error {
	var success bool
	if err := o.d.call(ctx, method, &success, params...); err != nil {
		return wrapMethodError(method, o.s, err)
	}
	if !success {
		return wrapMethodError(method, o.s, ErrTimeout)
	}
	return nil
}

// wrapMethodError wraps an error returned from an RPC method.
func wrapMethodError(method string, s *selector, err error) error {
	return errors.Wrapf(err, "%s (selector=%v) failed", method, s)
}
