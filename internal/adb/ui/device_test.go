// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

type rpcCall struct {
	Method string
	Params []interface{}
}

// fakeServer is an android-uiautomator-server stand-in answering each method
// with a canned result.
type fakeServer struct {
	mu      sync.Mutex
	calls   []rpcCall
	results map[string]interface{}
	errs    map[string]string
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/jsonrpc/0" {
		http.NotFound(w, r)
		return
	}
	var req jsonRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.calls = append(f.calls, rpcCall{req.Method, req.Params})
	res, hasRes := f.results[req.Method]
	msg, hasErr := f.errs[req.Method]
	f.mu.Unlock()

	out := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
	switch {
	case hasErr:
		out["error"] = map[string]string{"message": msg}
	case hasRes:
		out["result"] = res
	default:
		out["result"] = true
	}
	json.NewEncoder(w).Encode(out)
}

func newTestDevice(t *testing.T, f *fakeServer) *Device {
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return newDevice(srv.URL)
}

func TestWaitServer(t *testing.T) {
	f := &fakeServer{results: map[string]interface{}{"ping": "pong"}}
	d := newTestDevice(t, f)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.waitServer(ctx); err != nil {
		t.Fatal("waitServer failed: ", err)
	}
}

func TestDeviceCalls(t *testing.T) {
	f := &fakeServer{}
	d := newTestDevice(t, f)
	ctx := context.Background()

	if err := d.WaitForIdle(ctx, time.Second); err != nil {
		t.Error("WaitForIdle failed: ", err)
	}
	if err := d.Click(ctx, 540, 1200); err != nil {
		t.Error("Click failed: ", err)
	}
	if err := d.Swipe(ctx, []Point{{540, 1680}, {540, 720}}, 20); err != nil {
		t.Error("Swipe failed: ", err)
	}

	// JSON numbers decode as float64.
	want := []rpcCall{
		{"waitForIdle", []interface{}{1000.0}},
		{"click", []interface{}{540.0, 1200.0}},
		{"swipePoints", []interface{}{[]interface{}{540.0, 1680.0, 540.0, 720.0}, 20.0}},
	}
	if diff := cmp.Diff(want, f.calls); diff != "" {
		t.Errorf("Unexpected RPC calls (-want +got):\n%s", diff)
	}
}

func TestWaitForIdleTimeoutIsNotError(t *testing.T) {
	// The server answers false when the app is still busy at the timeout.
	f := &fakeServer{results: map[string]interface{}{"waitForIdle": false}}
	d := newTestDevice(t, f)
	if err := d.WaitForIdle(context.Background(), 10*time.Millisecond); err != nil {
		t.Error("WaitForIdle failed on timeout: ", err)
	}
}

func TestSwipeNeedsTwoPoints(t *testing.T) {
	d := newTestDevice(t, &fakeServer{})
	if err := d.Swipe(context.Background(), []Point{{1, 1}}, 10); err == nil {
		t.Error("Swipe unexpectedly succeeded with a single point")
	}
}

func TestCallError(t *testing.T) {
	f := &fakeServer{errs: map[string]string{"click": "UiObjectNotFoundException"}}
	d := newTestDevice(t, f)
	err := d.Click(context.Background(), 1, 2)
	if err == nil || !strings.Contains(err.Error(), "UiObjectNotFoundException") {
		t.Errorf("Click returned %v; want the server error", err)
	}
}

func TestObject(t *testing.T) {
	f := &fakeServer{results: map[string]interface{}{"waitForExists": false}}
	d := newTestDevice(t, f)
	ctx := context.Background()

	obj := d.Object(Description("Settings"))
	err := obj.WaitForExists(ctx, 3*time.Second)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("WaitForExists returned %v; want ErrTimeout", err)
	}
	if err := obj.Click(ctx); err != nil {
		t.Error("Click failed: ", err)
	}

	sel := map[string]interface{}{
		"mask":                   float64(maskDescription),
		"childOrSibling":         []interface{}{},
		"childOrSiblingSelector": []interface{}{},
		"description":            "Settings",
	}
	want := []rpcCall{
		{"waitForExists", []interface{}{sel, 3000.0}},
		{"click", []interface{}{sel}},
	}
	if diff := cmp.Diff(want, f.calls); diff != "" {
		t.Errorf("Unexpected RPC calls (-want +got):\n%s", diff)
	}
}

func TestSelectorString(t *testing.T) {
	s := newSelector([]SelectorOption{Description("Settings")})
	if got, want := s.String(), `{description="Settings"}`; got != want {
		t.Errorf("String() = %s; want %s", got, want)
	}
	if s.mask != maskDescription {
		t.Errorf("mask = %#x; want %#x", s.mask, maskDescription)
	}
}
