// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package wilson implements the Wilson fermion operator on four-dimensional
// lattices with SU(3) gauge fields.
package wilson

import (
	"math/cmplx"

	"github.com/saintbenjamin/gpt/internal/parallel"
	"github.com/saintbenjamin/gpt/lattice"
)

// NComp is the number of components of a spin-color vector. Component
// s*3+c holds spin s and color c.
const NComp = 12

// Operator is the Wilson operator
//  D ψ(x) = ψ(x) - κ Σ_μ [(1-γ_μ) U_μ(x) ψ(x+μ) + (1+γ_μ) U_μ†(x-μ) ψ(x-μ)].
// Its adjoint is D† = γ_5 D γ_5.
type Operator[T lattice.Scalar] struct {
	params Params
	// links are the gauge links with the boundary phases applied.
	links *GaugeField[T]
}

// New returns the Wilson operator for the gauge field u.
func New[T lattice.Scalar](u *GaugeField[T], p Params) (*Operator[T], error) {
	if u.Grid.Dims() != 4 {
		return nil, lattice.NewConfigError("wilson_clover", "grid", "need 4 dimensions, got %d", u.Grid.Dims())
	}
	if err := p.Validate(u.Grid.Dims()); err != nil {
		return nil, err
	}
	links := &GaugeField[T]{Grid: u.Grid, Links: append([]T(nil), u.Links...)}
	if p.BoundaryPhases != nil {
		for x := 0; x < u.Grid.Sites(); x++ {
			for mu, ph := range p.BoundaryPhases {
				if ph == 1 || !u.Grid.OnBoundary(x, mu) {
					continue
				}
				l := links.Link(x, mu)
				for k := range l {
					l[k] *= T(ph)
				}
			}
		}
	}
	return &Operator[T]{params: p, links: links}, nil
}

// Converted returns an independent copy of w in the precision of D.
func Converted[D, S lattice.Scalar](w *Operator[S]) *Operator[D] {
	return &Operator[D]{params: w.params, links: ConvertedGauge[D](w.links)}
}

// Params returns the parameters of w.
func (w *Operator[T]) Params() Params { return w.params }

// Grid returns the grid of w.
func (w *Operator[T]) Grid() *lattice.Grid { return w.links.Grid }

// NComp returns NComp.
func (w *Operator[T]) NComp() int { return NComp }

// Apply computes dst = D src.
func (w *Operator[T]) Apply(dst, src *lattice.Field[T]) {
	w.apply(dst, src, 1)
}

// ApplyAdjoint computes dst = D† src.
func (w *Operator[T]) ApplyAdjoint(dst, src *lattice.Field[T]) {
	w.apply(dst, src, -1)
}

// apply computes D src for sign 1 and D† src for sign -1, which differ only
// in the sign of the γ matrices.
func (w *Operator[T]) apply(dst, src *lattice.Field[T], sign complex128) {
	g := w.links.Grid
	if src.NComp != NComp || dst.NComp != NComp || !src.Grid.SameShape(g) || !dst.Grid.SameShape(g) {
		panic("wilson: field layout mismatch")
	}
	kappa := T(complex(w.params.Kappa, 0))
	nd := g.Dims()
	parallel.For(g.Sites(), func(lo, hi int) {
		var hop, chi [NComp]T
		for x := lo; x < hi; x++ {
			hop = [NComp]T{}
			for mu := 0; mu < nd; mu++ {
				gm := &gammas[mu]

				// Forward hop: (1 ∓ γ_μ) U_μ(x) ψ(x+μ).
				multLink(&chi, w.links.Link(x, mu), src.Site(g.Neighbor(x, mu, +1)), false)
				spinProject(&hop, &chi, gm, -sign)

				// Backward hop: (1 ± γ_μ) U_μ†(x-μ) ψ(x-μ).
				xm := g.Neighbor(x, mu, -1)
				multLink(&chi, w.links.Link(xm, mu), src.Site(xm), true)
				spinProject(&hop, &chi, gm, sign)
			}
			d, s := dst.Site(x), src.Site(x)
			for k := range d {
				d[k] = s[k] - kappa*hop[k]
			}
		}
	})
}

// multLink stores U ψ, or U† ψ if adj is true, into chi for every spin.
func multLink[T lattice.Scalar](chi *[NComp]T, u, psi []T, adj bool) {
	for s := 0; s < 4; s++ {
		p := psi[3*s : 3*s+3]
		for i := 0; i < 3; i++ {
			var v T
			if adj {
				for k := 0; k < 3; k++ {
					v += conj(u[3*k+i]) * p[k]
				}
			} else {
				for k := 0; k < 3; k++ {
					v += u[3*i+k] * p[k]
				}
			}
			chi[3*s+i] = v
		}
	}
}

// spinProject adds (1 + sign γ) chi to hop.
func spinProject[T lattice.Scalar](hop, chi *[NComp]T, gm *gamma, sign complex128) {
	for s := 0; s < 4; s++ {
		ph := T(sign * gm.phase[s])
		q := 3 * gm.perm[s]
		for c := 0; c < 3; c++ {
			hop[3*s+c] += chi[3*s+c] + ph*chi[q+c]
		}
	}
}

func conj[T lattice.Scalar](v T) T {
	return T(cmplx.Conj(complex128(v)))
}

// Gamma5 computes dst = γ_5 src.
func Gamma5[T lattice.Scalar](dst, src *lattice.Field[T]) {
	for x := 0; x < src.Grid.Sites(); x++ {
		d, s := dst.Site(x), src.Site(x)
		for k := range d {
			d[k] = T(gamma5[k/3]) * s[k]
		}
	}
}
