// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mg

import (
	"fmt"

	"github.com/saintbenjamin/gpt/internal/options"
	"github.com/saintbenjamin/gpt/inverter"
	"github.com/saintbenjamin/gpt/lattice"
)

const component = "multi_grid_setup"

// VectorType selects how the basis vectors are obtained from the samples.
type VectorType string

const (
	// NullVectors relaxes every sample towards the near-null space of the
	// operator with the setup solver.
	NullVectors VectorType = "null"
	// TestVectors uses the samples as they are.
	TestVectors VectorType = "test"
)

// SetupParams configures Setup. Every slice holds one entry per level
// transition, finest first.
type SetupParams struct {
	BlockSize   [][]int
	NBasis      []int
	NBlockOrtho []int
	// CheckBlockOrtho aborts the setup if a block basis is not orthonormal
	// to within OrthoTolerance.
	CheckBlockOrtho []bool
	NPreOrtho       []int
	NPostOrtho      []int
	VectorType      []VectorType
	// MakeHermitian replaces the coarse operator B by (B + B†)/2. It needs
	// SaveLinks.
	MakeHermitian []bool
	// SaveLinks assembles the coarse operator explicitly. Otherwise it is
	// applied through the finer level.
	SaveLinks []bool
	// Solver relaxes the null vectors.
	Solver []inverter.Spec
	// Distribution names the sampling distribution, see Distributions.
	Distribution string
	// OrthoTolerance is the tolerance of the orthonormality check. Zero
	// selects block.DefaultTolerance for the precision of the operator.
	OrthoTolerance float64
}

// Transitions returns the number of level transitions.
func (p SetupParams) Transitions() int { return len(p.BlockSize) }

// ParseSetupParams decodes the option map of a multigrid setup. block_size
// and n_basis are required. All other options may be given either once for
// every level or as a list with one entry per level.
func ParseSetupParams(m map[string]any) (SetupParams, error) {
	var p SetupParams
	s := options.New(component, m)
	if !s.Has("block_size") {
		return SetupParams{}, lattice.NewConfigError(component, "block_size", "missing required option")
	}
	s.IntLists("block_size", &p.BlockSize, true)
	n := len(p.BlockSize)
	p.NBlockOrtho = broadcast(1, n)
	p.CheckBlockOrtho = broadcast(true, n)
	p.NPreOrtho = broadcast(0, n)
	p.NPostOrtho = broadcast(0, n)
	p.MakeHermitian = broadcast(false, n)
	p.SaveLinks = broadcast(true, n)
	p.Distribution = "cnormal"
	vt := broadcast(string(NullVectors), n)
	var solvers []map[string]any

	s.Ints("n_basis", &p.NBasis, n, true)
	s.Ints("n_block_ortho", &p.NBlockOrtho, n, false)
	s.Bools("check_block_ortho", &p.CheckBlockOrtho, n, false)
	s.Ints("n_pre_ortho", &p.NPreOrtho, n, false)
	s.Ints("n_post_ortho", &p.NPostOrtho, n, false)
	s.Strings("vector_type", &vt, n, false)
	s.Bools("make_hermitian", &p.MakeHermitian, n, false)
	s.Bools("save_links", &p.SaveLinks, n, false)
	s.Maps("solver", &solvers, n, false)
	s.String("distribution", &p.Distribution, false)
	s.Float("ortho_tolerance", &p.OrthoTolerance, false)
	if err := s.Err(); err != nil {
		return SetupParams{}, err
	}
	for _, v := range vt {
		p.VectorType = append(p.VectorType, VectorType(v))
	}
	for l, sm := range solvers {
		spec, err := inverter.ParseSpec(fmt.Sprintf("%s.solver[%d]", component, l), sm)
		if err != nil {
			return SetupParams{}, err
		}
		p.Solver = append(p.Solver, spec)
	}
	return p, p.Validate()
}

func broadcast[V any](v V, n int) []V {
	out := make([]V, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// Validate checks the consistency of p. It does not check the block sizes
// against a grid, Setup does.
func (p SetupParams) Validate() error {
	n := len(p.BlockSize)
	if n == 0 {
		return lattice.NewConfigError(component, "block_size", "no level transitions")
	}
	for _, f := range []struct {
		name string
		len  int
	}{
		{"n_basis", len(p.NBasis)},
		{"n_block_ortho", len(p.NBlockOrtho)},
		{"check_block_ortho", len(p.CheckBlockOrtho)},
		{"n_pre_ortho", len(p.NPreOrtho)},
		{"n_post_ortho", len(p.NPostOrtho)},
		{"vector_type", len(p.VectorType)},
		{"make_hermitian", len(p.MakeHermitian)},
		{"save_links", len(p.SaveLinks)},
	} {
		if f.len != n {
			return lattice.NewConfigError(component, f.name, "%d values for %d levels", f.len, n)
		}
	}
	if _, ok := Distributions[p.Distribution]; !ok {
		return lattice.NewConfigError(component, "distribution", "unknown distribution %q", p.Distribution)
	}
	if p.OrthoTolerance < 0 {
		return lattice.NewConfigError(component, "ortho_tolerance", "must not be negative, got %v", p.OrthoTolerance)
	}
	for l := 0; l < n; l++ {
		switch {
		case p.NBasis[l] <= 0:
			return lattice.NewConfigError(component, "n_basis", "level %d: must be positive, got %d", l, p.NBasis[l])
		case p.NBlockOrtho[l] < 0:
			return lattice.NewConfigError(component, "n_block_ortho", "level %d: must not be negative", l)
		case p.NPreOrtho[l] < 0:
			return lattice.NewConfigError(component, "n_pre_ortho", "level %d: must not be negative", l)
		case p.NPostOrtho[l] < 0:
			return lattice.NewConfigError(component, "n_post_ortho", "level %d: must not be negative", l)
		case p.MakeHermitian[l] && !p.SaveLinks[l]:
			return lattice.NewConfigError(component, "make_hermitian", "level %d: needs save_links", l)
		}
		switch p.VectorType[l] {
		case NullVectors:
			if len(p.Solver) != n {
				return lattice.NewConfigError(component, "solver", "level %d: null vectors need a setup solver", l)
			}
		case TestVectors:
		default:
			return lattice.NewConfigError(component, "vector_type", "level %d: unknown vector type %q", l, p.VectorType[l])
		}
	}
	return nil
}
