// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"

	"github.com/pkg/errors"
)

// Direction indicates which direction of change is an improvement.
type Direction int

const (
	// SmallerIsBetter means a smaller value is better.
	SmallerIsBetter Direction = iota
	// BiggerIsBetter means a bigger value is better.
	BiggerIsBetter
)

func (d Direction) String() string {
	if d == BiggerIsBetter {
		return "up"
	}
	return "down"
}

// ChartFile is the name of the file Values.Save writes.
const ChartFile = "results-chart.json"

var nameRegexp = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,256}$`)

// Metric describes a performance metric.
type Metric struct {
	// Name is the name of the chart this metric appears in.
	Name string
	// Variant is the name of this metric in the chart. Defaults to
	// "summary".
	Variant string
	// Unit is the unit of values, e.g. "ms".
	Unit string
	// Direction indicates which direction of change is an improvement.
	Direction Direction
	// Multiple is true if the metric holds a list of values.
	Multiple bool
}

func (m Metric) variant() string {
	if m.Variant == "" {
		return "summary"
	}
	return m.Variant
}

func (m Metric) validate() error {
	if !nameRegexp.MatchString(m.Name) {
		return errors.Errorf("invalid metric name %q", m.Name)
	}
	if !nameRegexp.MatchString(m.variant()) {
		return errors.Errorf("invalid metric variant %q", m.Variant)
	}
	if m.Unit == "" {
		return errors.Errorf("metric %s has no unit", m.Name)
	}
	return nil
}

// Values holds performance metric values.
type Values struct {
	values map[Metric][]float64
}

// NewValues returns a new empty Values.
func NewValues() *Values {
	return &Values{values: make(map[Metric][]float64)}
}

// Set sets the values of a metric, replacing existing ones. A single-valued
// metric takes exactly one value.
func (p *Values) Set(m Metric, vals ...float64) {
	if !m.Multiple && len(vals) != 1 {
		panic(errors.Errorf("single-valued metric %s set with %d values", m.Name, len(vals)))
	}
	p.values[m] = append([]float64(nil), vals...)
}

// Append appends values to a multi-valued metric.
func (p *Values) Append(m Metric, vals ...float64) {
	if !m.Multiple {
		panic(errors.Errorf("append to single-valued metric %s", m.Name))
	}
	p.values[m] = append(p.values[m], vals...)
}

type chartValue struct {
	Units     string    `json:"units"`
	Direction string    `json:"improvement_direction"`
	Type      string    `json:"type"`
	Value     *float64  `json:"value,omitempty"`
	Values    []float64 `json:"values,omitempty"`
}

func (p *Values) charts() (map[string]map[string]chartValue, error) {
	charts := make(map[string]map[string]chartValue)
	for m, vals := range p.values {
		if err := m.validate(); err != nil {
			return nil, err
		}
		v := chartValue{Units: m.Unit, Direction: m.Direction.String()}
		if m.Multiple {
			v.Type = "list_of_scalar_values"
			v.Values = vals
		} else {
			v.Type = "scalar"
			v.Value = &vals[0]
		}
		if charts[m.Name] == nil {
			charts[m.Name] = make(map[string]chartValue)
		}
		charts[m.Name][m.variant()] = v
	}
	return charts, nil
}

// Save writes the values to results-chart.json in outDir.
func (p *Values) Save(outDir string) error {
	charts, err := p.charts()
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(charts, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal perf values")
	}
	if err := os.WriteFile(filepath.Join(outDir, ChartFile), b, 0644); err != nil {
		return errors.Wrap(err, "failed to write perf values")
	}
	return nil
}
