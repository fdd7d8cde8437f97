// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package profile

// Stability tracks whether successive profile captures have converged.
type Stability struct {
	// Required is the number of consecutive identical captures needed.
	Required int

	prev   *Set
	streak int
}

// Observe records a capture and reports whether the profile is now stable.
// A capture that differs from its predecessor starts a new streak of one.
func (s *Stability) Observe(cur *Set) bool {
	if s.prev != nil && s.prev.Equal(cur) {
		s.streak++
	} else {
		s.streak = 1
	}
	s.prev = cur
	return s.Stable()
}

// Stable reports whether the last Required captures were identical.
func (s *Stability) Stable() bool {
	return s.prev != nil && s.streak >= s.Required
}

// Streak returns the number of consecutive identical captures so far.
func (s *Stability) Streak() int { return s.streak }

// Last returns the most recent capture, or nil.
func (s *Stability) Last() *Set { return s.prev }
