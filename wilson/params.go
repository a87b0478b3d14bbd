// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wilson

import (
	"github.com/saintbenjamin/gpt/internal/options"
	"github.com/saintbenjamin/gpt/lattice"
)

// Params are the parameters of the Wilson-clover operator.
type Params struct {
	Kappa float64
	// CswR and CswT are the spatial and temporal clover coefficients.
	// Only the pure Wilson operator, CswR == CswT == 0, is implemented.
	CswR, CswT float64
	// Xi0 and Nu are the bare anisotropy and the velocity of light.
	Xi0, Nu       float64
	IsAnisotropic bool
	// BoundaryPhases multiplies the links crossing the boundary in each
	// dimension. A nil slice means periodic boundaries.
	BoundaryPhases []complex128
}

// ParseParams decodes the option map m.
func ParseParams(m map[string]any) (Params, error) {
	p := Params{Xi0: 1, Nu: 1}
	s := options.New("wilson_clover", m)
	s.Float("kappa", &p.Kappa, true)
	s.Float("csw_r", &p.CswR, false)
	s.Float("csw_t", &p.CswT, false)
	s.Float("xi_0", &p.Xi0, false)
	s.Float("nu", &p.Nu, false)
	s.Bool("isAnisotropic", &p.IsAnisotropic, false)
	var phases []float64
	s.Floats("boundary_phases", &phases, false)
	if err := s.Err(); err != nil {
		return Params{}, err
	}
	for _, ph := range phases {
		p.BoundaryPhases = append(p.BoundaryPhases, complex(ph, 0))
	}
	return p, p.Validate(0)
}

// Validate checks p for use on a grid with nd dimensions. nd == 0 skips the
// dimension check.
func (p Params) Validate(nd int) error {
	switch {
	case p.Kappa <= 0:
		return lattice.NewConfigError("wilson_clover", "kappa", "must be positive, got %v", p.Kappa)
	case p.CswR != 0:
		return lattice.NewConfigError("wilson_clover", "csw_r", "clover term is not supported")
	case p.CswT != 0:
		return lattice.NewConfigError("wilson_clover", "csw_t", "clover term is not supported")
	case p.IsAnisotropic:
		return lattice.NewConfigError("wilson_clover", "isAnisotropic", "anisotropic actions are not supported")
	case p.Xi0 != 1:
		return lattice.NewConfigError("wilson_clover", "xi_0", "must be 1 for an isotropic action, got %v", p.Xi0)
	case p.Nu != 1:
		return lattice.NewConfigError("wilson_clover", "nu", "must be 1 for an isotropic action, got %v", p.Nu)
	case nd > 0 && p.BoundaryPhases != nil && len(p.BoundaryPhases) != nd:
		return lattice.NewConfigError("wilson_clover", "boundary_phases", "%d phases for %d dimensions", len(p.BoundaryPhases), nd)
	}
	return nil
}
