// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package bundle holds the test registry and runner. Test packages call
// AddTest from init functions; the runner executes matching instances.
package bundle

import (
	"context"
	"path"
	"reflect"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/pkg/errors"
)

// DefaultTimeout is used for tests that don't set a timeout.
const DefaultTimeout = 2 * time.Minute

// TestFunc is the body of a test.
type TestFunc func(context.Context, *State)

// Param describes one parameterized instance of a test.
type Param struct {
	// Name is appended to the test name after a dot. It may be empty for a
	// single unnamed instance.
	Name string
	// Val is returned by State.Param.
	Val interface{}
}

// Test describes a registered test.
type Test struct {
	Func     TestFunc
	Desc     string
	Contacts []string
	Attr     []string
	Timeout  time.Duration
	Params   []Param
}

// Instance is a runnable test: a Test with one of its Params applied.
type Instance struct {
	Name     string
	Pkg      string
	Func     TestFunc
	Desc     string
	Contacts []string
	Attr     []string
	Timeout  time.Duration
	Val      interface{}
}

var paramNameRegexp = regexp.MustCompile(`^[a-z0-9_]+$`)

// Registry holds test instances.
type Registry struct {
	mu        sync.Mutex
	instances map[string]*Instance
	errs      []error
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{instances: make(map[string]*Instance)}
}

var global = NewRegistry()

// AddTest registers t in the global registry. It is meant to be called from
// init functions.
func AddTest(t *Test) {
	global.AddTest(t)
}

// Global returns the registry AddTest adds to.
func Global() *Registry { return global }

// AddTest adds the instances of t. Registration errors are collected and
// reported by Errors.
func (r *Registry) AddTest(t *Test) {
	insts, err := instances(t)
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.errs = append(r.errs, err)
		return
	}
	for _, inst := range insts {
		if _, ok := r.instances[inst.Name]; ok {
			r.errs = append(r.errs, errors.Errorf("duplicate test name %s", inst.Name))
			continue
		}
		r.instances[inst.Name] = inst
	}
}

// Errors returns the registration errors seen so far.
func (r *Registry) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

// AllInstances returns every registered instance sorted by name.
func (r *Registry) AllInstances() []*Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	insts := make([]*Instance, 0, len(r.instances))
	for _, inst := range r.instances {
		insts = append(insts, inst)
	}
	sort.Slice(insts, func(i, j int) bool { return insts[i].Name < insts[j].Name })
	return insts
}

// Match returns the instances whose names match any of the glob patterns,
// e.g. "sir.*" or "sir.StartupBenchmark.launch_*". No pattern matches all.
func (r *Registry) Match(patterns []string) ([]*Instance, error) {
	all := r.AllInstances()
	if len(patterns) == 0 {
		return all, nil
	}
	for _, p := range patterns {
		if _, err := path.Match(p, ""); err != nil {
			return nil, errors.Wrapf(err, "bad pattern %q", p)
		}
	}
	var out []*Instance
	for _, inst := range all {
		for _, p := range patterns {
			if ok, _ := path.Match(p, inst.Name); ok {
				out = append(out, inst)
				break
			}
		}
	}
	return out, nil
}

// funcName splits the name of f into its package name and function name.
func funcName(f TestFunc) (pkg, name string, err error) {
	rf := runtime.FuncForPC(reflect.ValueOf(f).Pointer())
	if rf == nil {
		return "", "", errors.New("failed to get test function name")
	}
	full := rf.Name()
	base := full[strings.LastIndex(full, "/")+1:]
	pkg, name, ok := strings.Cut(base, ".")
	if !ok || strings.Contains(name, ".") {
		return "", "", errors.Errorf("%s is not a top-level function", full)
	}
	if r := []rune(name); !unicode.IsUpper(r[0]) {
		return "", "", errors.Errorf("test function %s is not exported", full)
	}
	return pkg, name, nil
}

func instances(t *Test) ([]*Instance, error) {
	if t.Func == nil {
		return nil, errors.New("test has no function")
	}
	pkg, name, err := funcName(t.Func)
	if err != nil {
		return nil, err
	}
	if t.Desc == "" {
		return nil, errors.Errorf("%s.%s has no description", pkg, name)
	}
	if len(t.Contacts) == 0 {
		return nil, errors.Errorf("%s.%s has no contacts", pkg, name)
	}
	params := t.Params
	if len(params) == 0 {
		params = []Param{{}}
	}
	seen := make(map[string]bool)
	var insts []*Instance
	for _, p := range params {
		full := pkg + "." + name
		if p.Name != "" {
			if !paramNameRegexp.MatchString(p.Name) {
				return nil, errors.Errorf("%s has invalid param name %q", full, p.Name)
			}
			full += "." + p.Name
		}
		if seen[p.Name] {
			return nil, errors.Errorf("%s has duplicate param name %q", full, p.Name)
		}
		seen[p.Name] = true

		timeout := t.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		insts = append(insts, &Instance{
			Name:     full,
			Pkg:      pkg,
			Func:     t.Func,
			Desc:     t.Desc,
			Contacts: append([]string(nil), t.Contacts...),
			Attr:     append([]string(nil), t.Attr...),
			Timeout:  timeout,
			Val:      p.Val,
		})
	}
	return insts, nil
}
