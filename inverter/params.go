// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inverter

import (
	"github.com/saintbenjamin/gpt/internal/options"
	"github.com/saintbenjamin/gpt/lattice"
)

// DefaultRestartLen is the restart length used when none is given.
const DefaultRestartLen = 20

// Method names a Krylov method.
type Method string

const (
	FGMRES   Method = "fgmres"
	GMRES    Method = "gmres"
	BiCGSTAB Method = "bicgstab"
	CG       Method = "cg"
	// BiCG is biconjugate gradients. It applies the adjoint operator and
	// takes no preconditioner.
	BiCG     Method = "bicg"
	// CGNE is conjugate gradients on the normal equations A†A x = A†b. It
	// takes no preconditioner.
	CGNE     Method = "cgne"
)

// Params configures a Krylov solver.
type Params struct {
	// Eps is the relative residual tolerance |b - A x| < Eps |b|.
	Eps float64
	// MaxIter bounds the number of iterations. One iteration is one
	// application of the operator and the preconditioner. Zero makes every
	// solve fail immediately unless the guess already satisfies Eps.
	MaxIter int
	// RestartLen is the restart length of the GMRES methods.
	RestartLen int
	// CheckRes requests recomputation of the true residual before
	// convergence is accepted. Otherwise the recurrence estimate is trusted.
	CheckRes bool
}

// Spec describes a solver independently of the operator it is applied to.
type Spec struct {
	Method Method
	Params Params
}

// ParseParams decodes the option map of a solver. eps and maxiter are
// required, restartlen defaults to DefaultRestartLen and checkres to true.
func ParseParams(component string, m map[string]any) (Params, error) {
	p := Params{RestartLen: DefaultRestartLen, CheckRes: true}
	s := options.New(component, m)
	s.Float("eps", &p.Eps, true)
	s.Int("maxiter", &p.MaxIter, true)
	s.Int("restartlen", &p.RestartLen, false)
	s.Bool("checkres", &p.CheckRes, false)
	if err := s.Err(); err != nil {
		return Params{}, err
	}
	return p, p.validate(component)
}

func (p Params) validate(component string) error {
	switch {
	case p.Eps < 1.0/(1<<53) || p.Eps >= 1:
		return lattice.NewConfigError(component, "eps", "must lie in [2^-53, 1), got %v", p.Eps)
	case p.MaxIter < 0:
		return lattice.NewConfigError(component, "maxiter", "must not be negative, got %d", p.MaxIter)
	case p.RestartLen <= 0:
		return lattice.NewConfigError(component, "restartlen", "must be positive, got %d", p.RestartLen)
	}
	return nil
}

// ParseSpec decodes the option map of a solver with an optional "method"
// entry, fgmres by default.
func ParseSpec(component string, m map[string]any) (Spec, error) {
	spec := Spec{Method: FGMRES}
	rest := make(map[string]any, len(m))
	for k, v := range m {
		if k == "method" {
			name, ok := v.(string)
			if !ok {
				return Spec{}, lattice.NewConfigError(component, "method", "expected a string, got %T", v)
			}
			spec.Method = Method(name)
			continue
		}
		rest[k] = v
	}
	switch spec.Method {
	case FGMRES, GMRES, BiCGSTAB, CG, BiCG, CGNE:
	default:
		return Spec{}, lattice.NewConfigError(component, "method", "unknown method %q", spec.Method)
	}
	var err error
	spec.Params, err = ParseParams(component, rest)
	return spec, err
}
