// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package sir

import (
	"github.com/cascadiacollections/sir-android/internal/macrobench"
)

// Env is the fixture value the runner passes to sir tests.
type Env struct {
	Device macrobench.Device
	// UI may be nil, in which case input goes through adb.
	UI macrobench.UI
	// Package is the app under test, normally PackageName.
	Package string
	// Iterations, if positive, overrides the iteration counts of configs.
	Iterations int
}
