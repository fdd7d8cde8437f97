// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package ui allows interacting with Android apps by Android UI Automator API.
// We use android-uiautomator-server, a JSON-RPC server running as an Android app,
// to invoke UI Automator methods remotely.
package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/cascadiacollections/sir-android/internal/adb"
	"github.com/cascadiacollections/sir-android/internal/logging"
	"github.com/cascadiacollections/sir-android/internal/testexec"
)

const (
	// StartTimeout is the timeout of NewDevice.
	StartTimeout = 60 * time.Second

	// serverPort is the fixed port of the UI automator server on the device.
	serverPort = 9008

	serverPackage  = "com.github.uiautomator.test"
	serverActivity = "androidx.test.runner.AndroidJUnitRunner"
)

// Options configures NewDevice.
type Options struct {
	// APKs are host paths of the server APKs to install. If empty, the
	// server is assumed to be installed already.
	APKs []string
	// HostPort is the host port forwarded to the server. Defaults to 9008.
	HostPort int
}

// Device provides access to state information about the Android system.
//
// Close must be called to clean up resources when a test is over.
//
// This object corresponds to UiDevice in UI Automator API:
// https://developer.android.com/reference/androidx/test/uiautomator/UiDevice
type Device struct {
	d        *adb.Device
	sp       *testexec.Cmd // Server process
	hostPort int
	url      string
	client   *http.Client
	debug    bool
}

type jsonRPCRequest struct {
	Version string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	ID      int           `json:"id"`
	Params  []interface{} `json:"params,omitempty"`
}

type jsonRPCError struct {
	Message string `json:"message"`
}

type jsonRPCResponse struct {
	Version string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *jsonRPCError   `json:"error"`
}

// NewDevice creates a Device object by starting and connecting to UI Automator server.
//
// Close must be called to clean up resources when a test is over.
func NewDevice(ctx context.Context, d *adb.Device, opts Options) (*Device, error) {
	ictx, cancel := context.WithTimeout(ctx, StartTimeout)
	defer cancel()

	logging.ContextLog(ctx, "Starting UI Automator server")

	for _, p := range opts.APKs {
		if err := d.Install(ictx, p); err != nil {
			return nil, errors.Wrapf(err, "failed installing %s", p)
		}
	}

	hostPort := opts.HostPort
	if hostPort == 0 {
		hostPort = serverPort
	}
	if err := d.Command(ictx, "forward", fmt.Sprintf("tcp:%d", hostPort), fmt.Sprintf("tcp:%d", serverPort)).Run(testexec.DumpLogOnError); err != nil {
		return nil, errors.Wrap(err, "failed to forward UI Automator port")
	}

	// The server outlives ictx, so it is bound to the caller's context.
	sp := d.ShellCommand(ctx, "am", "instrument", "-w", serverPackage+"/"+serverActivity)
	if err := sp.Start(); err != nil {
		return nil, errors.Wrap(err, "failed starting UI Automator server")
	}

	s := newDevice(fmt.Sprintf("http://127.0.0.1:%d", hostPort))
	s.d = d
	s.sp = sp
	s.hostPort = hostPort

	if err := s.waitServer(ictx); err != nil {
		s.Close(ctx)
		return nil, errors.Wrap(err, "UI Automator server did not come up")
	}
	return s, nil
}

func newDevice(url string) *Device {
	return &Device{url: url, client: http.DefaultClient}
}

// waitServer waits for UI Automator server to come up.
func (d *Device) waitServer(ctx context.Context) error {
	for {
		if ok := func() bool {
			ctx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
			defer cancel()
			var res string
			return d.call(ctx, "ping", &res) == nil && res == "pong"
		}(); ok {
			break
		}

		select {
		case <-time.After(100 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// EnableDebug enables verbose RPC logging.
func (d *Device) EnableDebug() {
	d.debug = true
}

// Close releases resources associated with d.
func (d *Device) Close(ctx context.Context) error {
	if d.sp == nil {
		return nil
	}
	d.sp.Kill()
	d.sp.Wait()
	return d.d.Command(ctx, "forward", "--remove", fmt.Sprintf("tcp:%d", d.hostPort)).Run()
}

// call calls a remote server method by JSON-RPC.
// method is a method name.
// out is a variable to store a returned result. If it is nil, results are discarded.
// params is a list of parameters to the remote method.
func (d *Device) call(ctx context.Context, method string, out interface{}, params ...interface{}) error {
	reqData := jsonRPCRequest{
		Version: "2.0",
		Method:  method,
		Params:  params,
	}
	reqBody, err := json.Marshal(&reqData)
	if err != nil {
		return errors.Wrapf(err, "%s: failed marshaling request", method)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", d.url+"/jsonrpc/0", bytes.NewReader(reqBody))
	if err != nil {
		return errors.Wrapf(err, "%s: failed initializing request", method)
	}
	req.Header.Add("Content-Type", "application/json")

	if d.debug {
		logging.ContextLog(ctx, "-> ", string(reqBody))
	}

	res, err := d.client.Do(req)
	if err != nil {
		return errors.Wrap(err, method)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return errors.Errorf("%s: got status %d", method, res.StatusCode)
	}

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrapf(err, "%s: failed reading response", method)
	}

	if d.debug {
		logging.ContextLog(ctx, "<- ", string(resBody))
	}

	var resData jsonRPCResponse
	if err := json.Unmarshal(resBody, &resData); err != nil {
		return errors.Wrapf(err, "%s: failed unmarshaling response", method)
	}

	if resData.Error != nil {
		return errors.Errorf("%s: %s", method, resData.Error.Message)
	}

	// If the caller does not need results, we can return now.
	if out == nil {
		return nil
	}

	if len(resData.Result) == 0 {
		return errors.Errorf("%s: missing result", method)
	}
	if err := json.Unmarshal(resData.Result, out); err != nil {
		logging.ContextLogf(ctx, "Failed unmarshaling to %T: %q", out, string(resData.Result))
		return errors.Wrapf(err, "%s: failed unmarshaling result", method)
	}
	return nil
}

// callBool calls a method returning a boolean and turns false into an error.
func (d *Device) callBool(ctx context.Context, method string, params ...interface{}) error {
	var ok bool
	if err := d.call(ctx, method, &ok, params...); err != nil {
		return err
	}
	if !ok {
		return errors.Errorf("%s returned false", method)
	}
	return nil
}

// WaitForIdle waits up to timeout for the current application to idle.
// Reaching the timeout is not an error.
//
// This method corresponds to UiDevice.waitForIdle().
func (d *Device) WaitForIdle(ctx context.Context, timeout time.Duration) error {
	return d.call(ctx, "waitForIdle", nil, timeout.Milliseconds())
}

// Click performs a click at the given pixel coordinates.
//
// This method corresponds to UiDevice.click().
func (d *Device) Click(ctx context.Context, x, y int) error {
	return d.callBool(ctx, "click", x, y)
}

// Point is a pixel position on the display.
type Point struct {
	X, Y int
}

// Swipe performs a swipe through points. Each segment is injected in steps
// moves of about 5ms each.
//
// This method corresponds to UiDevice.swipe(Point[], int).
func (d *Device) Swipe(ctx context.Context, points []Point, steps int) error {
	if len(points) < 2 {
		return errors.Errorf("swipe needs at least 2 points; got %d", len(points))
	}
	segments := make([]int, 0, 2*len(points))
	for _, p := range points {
		segments = append(segments, p.X, p.Y)
	}
	return d.callBool(ctx, "swipePoints", segments, steps)
}
