// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package operator

import (
	"math/cmplx"
	"testing"

	"github.com/saintbenjamin/gpt/iterative"
	"github.com/saintbenjamin/gpt/lattice"
)

// hopping is a nearest-neighbor operator with a complex forward coupling.
type hopping struct {
	grid *lattice.Grid
	mass complex128
	hop  complex128
}

func (h *hopping) Grid() *lattice.Grid { return h.grid }
func (h *hopping) NComp() int          { return 1 }

func (h *hopping) apply(dst, src *lattice.Field[complex128], hop complex128, mass complex128) {
	for s := 0; s < h.grid.Sites(); s++ {
		v := mass * src.Data[s]
		for d := 0; d < h.grid.Dims(); d++ {
			v -= hop*src.Data[h.grid.Neighbor(s, d, +1)] + cmplx.Conj(hop)*src.Data[h.grid.Neighbor(s, d, -1)]
		}
		dst.Data[s] = v
	}
}

func (h *hopping) Apply(dst, src *lattice.Field[complex128]) { h.apply(dst, src, h.hop, h.mass) }

func (h *hopping) ApplyAdjoint(dst, src *lattice.Field[complex128]) {
	h.apply(dst, src, h.hop, cmplx.Conj(h.mass))
}

func newHopping(t *testing.T) *hopping {
	g, err := lattice.NewGrid([]int{4, 3, 5}, lattice.Double)
	if err != nil {
		t.Fatal(err)
	}
	return &hopping{grid: g, mass: 8 + 1i, hop: 0.5 + 0.5i}
}

func TestAdjoint(t *testing.T) {
	op := newHopping(t)
	rng := lattice.NewRNG("adjoint")
	x, y := NewField[complex128](op), NewField[complex128](op)
	lattice.CNormal(rng, x, y)

	for _, a := range []Operator[complex128]{op, Adjoint[complex128](op), NewNormal[complex128](op)} {
		ax, ay := NewField(a), NewField(a)
		a.Apply(ax, x)
		a.ApplyAdjoint(ay, y)
		lhs := lattice.Dot(y, ax)
		rhs := lattice.Dot(ay, x)
		if cmplx.Abs(lhs-rhs) > 1e-12*cmplx.Abs(lhs) {
			t.Errorf("%T: <y, A x> = %v, <A† y, x> = %v", a, lhs, rhs)
		}
	}
	if Adjoint(Adjoint[complex128](op)) != Operator[complex128](op) {
		t.Errorf("double adjoint is not the operator")
	}
}

func TestOpsSolve(t *testing.T) {
	op := newHopping(t)
	x := NewField[complex128](op)
	lattice.CNormal(lattice.NewRNG("solve"), x)
	b := NewField[complex128](op)
	op.Apply(b, x)

	res, err := iterative.LinearSolve(Ops[complex128](op), b.Data, &iterative.BiCG[complex128]{}, iterative.Settings[complex128]{
		Tolerance:     1e-12,
		MaxIterations: 200,
	})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	got := &lattice.Field[complex128]{Grid: op.Grid(), NComp: 1, Data: res.X}
	r := NewField[complex128](op)
	Residual[complex128](op, r, got, b)
	if rel := r.Norm() / b.Norm(); rel > 1e-10 {
		t.Errorf("unexpected relative residual %v", rel)
	}
}
