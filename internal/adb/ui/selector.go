// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ui

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// maskDescription is the server's field mask bit for the content
// description; a field is matched only if its bit is set in "mask".
const maskDescription = 0x40

// selector holds the view matching criteria sent to the server.
type selector struct {
	mask   int
	fields map[string]interface{}
}

// SelectorOption sets a matching criterion of a selector.
type SelectorOption func(s *selector)

func field(name string, mask int, val interface{}) SelectorOption {
	return func(s *selector) {
		s.mask |= mask
		s.fields[name] = val
	}
}

// Description matches views whose content description is exactly desc.
func Description(desc string) SelectorOption {
	return field("description", maskDescription, desc)
}

func newSelector(opts []SelectorOption) *selector {
	s := &selector{fields: make(map[string]interface{})}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MarshalJSON encodes the selector in the server's wire format.
func (s *selector) MarshalJSON() ([]byte, error) {
	m := map[string]interface{}{
		"mask":                   s.mask,
		"childOrSibling":         []string{},
		"childOrSiblingSelector": []interface{}{},
	}
	for k, v := range s.fields {
		m[k] = v
	}
	return json.Marshal(m)
}

func (s *selector) String() string {
	var parts []string
	for k, v := range s.fields {
		parts = append(parts, fmt.Sprintf("%s=%q", k, fmt.Sprint(v)))
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ", ") + "}"
}
