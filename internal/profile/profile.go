// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package profile reads and writes human-readable ART profiles, the format
// of baseline-prof.txt files.
//
// Each line of a profile is a rule. A class rule names a class descriptor:
//
//	Lcom/cascadiacollections/sir/MainActivity;
//
// A method rule is prefixed by flags (H: hot, S: startup, P: post-startup):
//
//	HSPLcom/cascadiacollections/sir/MainActivity;->onCreate(Landroid/os/Bundle;)V
package profile

import (
	"bufio"
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Flags is a set of method rule flags.
type Flags uint8

// Method rule flags.
const (
	Hot Flags = 1 << iota
	Startup
	PostStartup
)

func (f Flags) String() string {
	var b strings.Builder
	if f&Hot != 0 {
		b.WriteByte('H')
	}
	if f&Startup != 0 {
		b.WriteByte('S')
	}
	if f&PostStartup != 0 {
		b.WriteByte('P')
	}
	return b.String()
}

// Rule is a single profile rule.
type Rule struct {
	// Flags is zero for class rules.
	Flags Flags
	// Class is the class descriptor, e.g. "Lcom/a/B;".
	Class string
	// Method is the method name and signature, e.g. "m(I)V". Empty for
	// class rules.
	Method string
}

// IsMethod reports whether r is a method rule.
func (r Rule) IsMethod() bool { return r.Method != "" }

// key identifies a rule regardless of its flags.
func (r Rule) key() string {
	if r.IsMethod() {
		return r.Class + "->" + r.Method
	}
	return r.Class
}

func (r Rule) String() string {
	return r.Flags.String() + r.key()
}

// ParseRule parses a single rule line.
func ParseRule(line string) (Rule, error) {
	var r Rule
	rest := line
flags:
	for len(rest) > 0 {
		switch rest[0] {
		case 'H':
			r.Flags |= Hot
		case 'S':
			r.Flags |= Startup
		case 'P':
			r.Flags |= PostStartup
		default:
			break flags
		}
		rest = rest[1:]
	}
	if !strings.HasPrefix(rest, "L") && !strings.HasPrefix(rest, "[") {
		return Rule{}, errors.Errorf("malformed rule %q: missing class descriptor", line)
	}
	end := strings.IndexByte(rest, ';')
	if end < 0 {
		return Rule{}, errors.Errorf("malformed rule %q: unterminated class descriptor", line)
	}
	r.Class = rest[:end+1]
	rest = rest[end+1:]

	switch {
	case rest == "":
		if r.Flags != 0 {
			return Rule{}, errors.Errorf("malformed rule %q: flags on a class rule", line)
		}
	case strings.HasPrefix(rest, "->"):
		r.Method = rest[2:]
		if !strings.Contains(r.Method, "(") {
			return Rule{}, errors.Errorf("malformed rule %q: missing method signature", line)
		}
		if r.Flags == 0 {
			// Method rules without flags are treated as hot, as profgen does.
			r.Flags = Hot
		}
	default:
		return Rule{}, errors.Errorf("malformed rule %q: trailing %q", line, rest)
	}
	return r, nil
}

// Set is a set of rules. Rules for the same class or method are merged by
// taking the union of their flags.
type Set struct {
	rules map[string]Rule
}

// NewSet returns a set holding rules.
func NewSet(rules ...Rule) *Set {
	s := &Set{rules: make(map[string]Rule)}
	for _, r := range rules {
		s.Add(r)
	}
	return s
}

// Add adds r to s.
func (s *Set) Add(r Rule) {
	k := r.key()
	if old, ok := s.rules[k]; ok {
		r.Flags |= old.Flags
	}
	s.rules[k] = r
}

// Len returns the number of distinct rules.
func (s *Set) Len() int { return len(s.rules) }

// Rules returns the rules sorted by class, then method, class rules first.
func (s *Set) Rules() []Rule {
	rules := make([]Rule, 0, len(s.rules))
	for _, r := range s.rules {
		rules = append(rules, r)
	}
	sort.Slice(rules, func(i, j int) bool {
		if rules[i].Class != rules[j].Class {
			return rules[i].Class < rules[j].Class
		}
		return rules[i].Method < rules[j].Method
	})
	return rules
}

// Equal reports whether s and o hold the same rules with the same flags.
func (s *Set) Equal(o *Set) bool {
	if s.Len() != o.Len() {
		return false
	}
	for k, r := range s.rules {
		if or, ok := o.rules[k]; !ok || or != r {
			return false
		}
	}
	return true
}

// Filter returns the rules of s for which keep returns true.
func (s *Set) Filter(keep func(Rule) bool) *Set {
	out := NewSet()
	for _, r := range s.rules {
		if keep(r) {
			out.Add(r)
		}
	}
	return out
}

// InPackage returns a predicate for Filter that keeps rules of classes in the
// Java package pkg or its subpackages.
func InPackage(pkg string) func(Rule) bool {
	prefix := "L" + strings.ReplaceAll(pkg, ".", "/") + "/"
	return func(r Rule) bool {
		return strings.HasPrefix(r.Class, prefix)
	}
}

// Parse reads rules from r. Blank lines and lines starting with '#' are
// skipped.
func Parse(r io.Reader) (*Set, error) {
	s := NewSet()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rule, err := ParseRule(line)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNum)
		}
		s.Add(rule)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read profile")
	}
	return s, nil
}

// Write writes the rules of s to w, one per line, in Rules order.
func Write(w io.Writer, s *Set) error {
	bw := bufio.NewWriter(w)
	for _, r := range s.Rules() {
		if _, err := bw.WriteString(r.String() + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
