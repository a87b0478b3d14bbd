// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads the configuration of multigrid solver runs from YAML.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/saintbenjamin/gpt/inverter"
	"github.com/saintbenjamin/gpt/lattice"
	"github.com/saintbenjamin/gpt/mg"
	"github.com/saintbenjamin/gpt/wilson"
)

//go:embed default.yaml
var defaultYAML []byte

// Solver names every configuration must define.
var requiredSolvers = []string{"coarsest", "outer", "smoother", "wrapper"}

// Config describes a run: the lattice, the operator, the multigrid setups
// and the solvers the cycles are built from.
type Config struct {
	// Seed seeds the gauge field and the basis samples.
	Seed    string  `yaml:"seed"`
	Lattice Lattice `yaml:"lattice"`
	Gauge   Gauge   `yaml:"gauge"`
	// Wilson holds the options of the Wilson operator.
	Wilson map[string]any `yaml:"wilson"`
	// Setup holds the options of named multigrid setups.
	Setup map[string]map[string]any `yaml:"setup"`
	// Solvers holds the options of named solvers.
	Solvers map[string]map[string]any `yaml:"solvers"`
}

// Lattice is the fine grid.
type Lattice struct {
	Extent    []int  `yaml:"extent"`
	Precision string `yaml:"precision"`
}

// Gauge is the random gauge field. Scale defaults to 1.
type Gauge struct {
	Scale *float64 `yaml:"scale"`
}

// Default returns the built-in configuration.
func Default() (*Config, error) {
	return Load(bytes.NewReader(defaultYAML))
}

// LoadFile reads the configuration from the named file.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Load decodes and validates a single YAML document. Unknown top-level
// fields are rejected.
func Load(r io.Reader) (*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var c Config
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, lattice.NewConfigError("config", "", "empty document")
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, lattice.NewConfigError("config", "", "multiple documents are not supported")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate decodes every section, reporting the first invalid option.
func (c *Config) Validate() error {
	if c.Seed == "" {
		return lattice.NewConfigError("config", "seed", "missing required option")
	}
	if _, err := c.Grid(); err != nil {
		return err
	}
	if _, err := c.GaugeScale(); err != nil {
		return err
	}
	if _, err := c.WilsonParams(); err != nil {
		return err
	}
	for _, name := range sortedKeys(c.Setup) {
		if _, err := c.SetupParams(name); err != nil {
			return err
		}
	}
	for _, name := range requiredSolvers {
		if _, ok := c.Solvers[name]; !ok {
			return lattice.NewConfigError("solvers", name, "missing required solver")
		}
	}
	for _, name := range sortedKeys(c.Solvers) {
		if _, err := c.Solver(name); err != nil {
			return err
		}
	}
	return nil
}

// Grid returns the fine grid.
func (c *Config) Grid() (*lattice.Grid, error) {
	p := lattice.Double
	if c.Lattice.Precision != "" {
		var err error
		p, err = lattice.ParsePrecision(c.Lattice.Precision)
		if err != nil {
			return nil, err
		}
	}
	return lattice.NewGrid(c.Lattice.Extent, p)
}

// GaugeScale returns the scale of the random gauge links.
func (c *Config) GaugeScale() (float64, error) {
	if c.Gauge.Scale == nil {
		return 1, nil
	}
	s := *c.Gauge.Scale
	if !(s >= 0) || math.IsInf(s, 1) {
		return 0, lattice.NewConfigError("gauge", "scale", "want a finite non-negative number, got %v", s)
	}
	return s, nil
}

// WilsonParams returns the parameters of the Wilson operator.
func (c *Config) WilsonParams() (wilson.Params, error) {
	return wilson.ParseParams(c.Wilson)
}

// SetupParams returns the parameters of the named multigrid setup.
func (c *Config) SetupParams(name string) (mg.SetupParams, error) {
	m, ok := c.Setup[name]
	if !ok {
		return mg.SetupParams{}, lattice.NewConfigError("setup", name, "no such setup")
	}
	p, err := mg.ParseSetupParams(m)
	if err != nil {
		return mg.SetupParams{}, fmt.Errorf("setup %s: %w", name, err)
	}
	return p, nil
}

// Solver returns the named solver.
func (c *Config) Solver(name string) (inverter.Spec, error) {
	m, ok := c.Solvers[name]
	if !ok {
		return inverter.Spec{}, lattice.NewConfigError("solvers", name, "no such solver")
	}
	return inverter.ParseSpec(name, m)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
