// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wilson

import (
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"github.com/saintbenjamin/gpt/lattice"
)

// GaugeField holds one SU(3) link matrix per site and direction. The 3×3
// row-major matrix U_μ(x) starts at Links[(x*Dims+μ)*9].
type GaugeField[T lattice.Scalar] struct {
	Grid  *lattice.Grid
	Links []T
}

// NewGaugeField returns a gauge field with all links zero.
func NewGaugeField[T lattice.Scalar](g *lattice.Grid) *GaugeField[T] {
	if lattice.PrecisionOf[T]() != g.Precision() {
		panic("wilson: element type does not match grid precision")
	}
	return &GaugeField[T]{
		Grid:  g,
		Links: make([]T, g.Sites()*g.Dims()*9),
	}
}

// Link returns U_μ(x). The returned slice aliases the field.
func (u *GaugeField[T]) Link(site, mu int) []T {
	i := (site*u.Grid.Dims() + mu) * 9
	return u.Links[i : i+9]
}

// UnitGauge returns the free field, U_μ(x) = 1.
func UnitGauge[T lattice.Scalar](g *lattice.Grid) *GaugeField[T] {
	u := NewGaugeField[T](g)
	for i := 0; i < len(u.Links); i += 9 {
		u.Links[i], u.Links[i+4], u.Links[i+8] = 1, 1, 1
	}
	return u
}

// RandomGauge returns a gauge field with independent links
//  U = exp(i scale Σ_a c_a λ_a/2),
// where λ_a are the Gell-Mann matrices and the c_a are uniform in
// [-1/2, 1/2). Scale 0 gives the unit field and larger scales give rougher
// fields with a smaller plaquette.
func RandomGauge[T lattice.Scalar](g *lattice.Grid, rng *lattice.RNG, scale float64) *GaugeField[T] {
	u := NewGaugeField[T](g)
	var (
		h   [9]complex128
		c   [8]float64
		m   [9]complex128
		gen = mat.NewDense(6, 6, nil)
		exp = mat.NewDense(6, 6, nil)
	)
	for i := 0; i < len(u.Links); i += 9 {
		for a := range c {
			c[a] = scale * rng.Uniform()
		}
		algebra(&h, &c)
		expI(&m, &h, gen, exp)
		for k, v := range m {
			u.Links[i+k] = T(v)
		}
	}
	return u
}

// algebra stores the Hermitian traceless matrix Σ_a c_a λ_a/2 into h.
func algebra(h *[9]complex128, c *[8]float64) {
	const r3 = 0.57735026918962576451 // 1/√3
	*h = [9]complex128{
		complex(c[2]+r3*c[7], 0), complex(c[0], -c[1]), complex(c[3], -c[4]),
		complex(c[0], c[1]), complex(-c[2]+r3*c[7], 0), complex(c[5], -c[6]),
		complex(c[3], c[4]), complex(c[5], c[6]), complex(-2*r3*c[7], 0),
	}
	for k := range h {
		h[k] /= 2
	}
}

// expI stores exp(iH) into m. The complex matrix X+iY is represented by the
// real matrix [X -Y; Y X], so iH = -Im H + i Re H is exponentiated as a real
// 6×6 matrix.
func expI(m, h *[9]complex128, gen, exp *mat.Dense) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			re, im := real(h[3*i+j]), imag(h[3*i+j])
			gen.Set(i, j, -im)
			gen.Set(i+3, j+3, -im)
			gen.Set(i, j+3, -re)
			gen.Set(i+3, j, re)
		}
	}
	exp.Exp(gen)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[3*i+j] = complex(exp.At(i, j), exp.At(i+3, j))
		}
	}
}

// ConvertedGauge returns a copy of u in the precision of D.
func ConvertedGauge[D, S lattice.Scalar](u *GaugeField[S]) *GaugeField[D] {
	v := NewGaugeField[D](u.Grid.Converted(lattice.PrecisionOf[D]()))
	for i, x := range u.Links {
		v.Links[i] = D(x)
	}
	return v
}

// Plaquette returns the average over sites and planes of
//  Re tr[U_μ(x) U_ν(x+μ) U_μ(x+ν)† U_ν(x)†] / 3.
func (u *GaugeField[T]) Plaquette() float64 {
	g := u.Grid
	nd := g.Dims()
	if nd < 2 {
		return 1
	}
	var sum float64
	var a, b [9]complex128
	for x := 0; x < g.Sites(); x++ {
		for mu := 0; mu < nd; mu++ {
			for nu := mu + 1; nu < nd; nu++ {
				mul3(&a, u.Link(x, mu), u.Link(g.Neighbor(x, mu, +1), nu))
				mul3(&b, u.Link(x, nu), u.Link(g.Neighbor(x, nu, +1), mu))
				// tr[a b†]
				var tr complex128
				for k := range a {
					tr += a[k] * cmplx.Conj(b[k])
				}
				sum += real(tr) / 3
			}
		}
	}
	return sum / float64(g.Sites()*nd*(nd-1)/2)
}

// mul3 stores the product of the 3×3 matrices x and y into dst.
func mul3[T lattice.Scalar](dst *[9]complex128, x, y []T) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var s complex128
			for k := 0; k < 3; k++ {
				s += complex128(x[3*i+k]) * complex128(y[3*k+j])
			}
			dst[3*i+j] = s
		}
	}
}
