// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package config loads the benchmark runner configuration.
package config

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultPackage = "com.cascadiacollections.sir"
	DefaultOutDir  = "out"
	DefaultUIPort  = 9008
)

// UIAutomator configures the UI Automator server.
type UIAutomator struct {
	// Disabled makes scripts inject input through adb instead.
	Disabled bool `yaml:"disabled"`
	// Port is the host port forwarded to the server.
	Port int `yaml:"port"`
	// APKs are the server APKs to install before use.
	APKs []string `yaml:"apks"`
}

// Config is the runner configuration.
type Config struct {
	// Serial selects the device. Empty picks $ANDROID_SERIAL, then the only
	// connected device.
	Serial string `yaml:"serial"`
	// Package is the app under test.
	Package string `yaml:"package"`
	// OutDir receives a subdirectory of results per test.
	OutDir string `yaml:"outDir"`
	// Iterations, if positive, overrides the iteration count of every
	// benchmark.
	Iterations  int         `yaml:"iterations"`
	Verbose     bool        `yaml:"verbose"`
	UIAutomator UIAutomator `yaml:"uiautomator"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Serial:      os.Getenv("ANDROID_SERIAL"),
		Package:     DefaultPackage,
		OutDir:      DefaultOutDir,
		UIAutomator: UIAutomator{Port: DefaultUIPort},
	}
}

// Load reads the configuration at path on top of the defaults. An empty
// path returns the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config")
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", path)
	}
	return cfg, nil
}

// Parse decodes YAML configuration on top of the defaults. Unknown keys are
// rejected.
func Parse(b []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "failed to parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Package == "" {
		return errors.New("package must not be empty")
	}
	if c.OutDir == "" {
		return errors.New("outDir must not be empty")
	}
	if c.Iterations < 0 {
		return errors.Errorf("iterations must not be negative; got %d", c.Iterations)
	}
	if p := c.UIAutomator.Port; p <= 0 || p > 65535 {
		return errors.Errorf("invalid uiautomator port %d", p)
	}
	return nil
}
