// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inverter

import (
	"testing"

	"github.com/saintbenjamin/gpt/block"
	"github.com/saintbenjamin/gpt/lattice"
	"github.com/saintbenjamin/gpt/operator"
	"github.com/saintbenjamin/gpt/wilson"
)

const (
	testKappa = 0.12
	testScale = 1
)

func wilsonOp[T lattice.Scalar](t testing.TB, extent []int, seed string) *wilson.Operator[T] {
	t.Helper()
	g, err := lattice.NewGrid(extent, lattice.PrecisionOf[T]())
	if err != nil {
		t.Fatal(err)
	}
	u := wilson.RandomGauge[T](g, lattice.NewRNG(seed), testScale)
	w, err := wilson.New(u, wilson.Params{Kappa: testKappa, Xi0: 1, Nu: 1})
	if err != nil {
		t.Fatal(err)
	}
	return w
}

func randomField[T lattice.Scalar](op operator.Operator[T], seed string) *lattice.Field[T] {
	f := operator.NewField(op)
	lattice.CNormal(lattice.NewRNG(seed), f)
	return f
}

func relResidual[T lattice.Scalar](op operator.Operator[T], x, b *lattice.Field[T]) float64 {
	r := b.Like()
	operator.Residual(op, r, x, b)
	return r.Norm() / b.Norm()
}

// galerkin is the coarse operator P†AP applied through the fine grid.
type galerkin[T lattice.Scalar] struct {
	fine operator.Operator[T]
	m    *block.Map[T]
	x, y *lattice.Field[T]
}

func newGalerkin[T lattice.Scalar](fine operator.Operator[T], m *block.Map[T]) *galerkin[T] {
	return &galerkin[T]{fine: fine, m: m, x: m.NewFineField(), y: m.NewFineField()}
}

func (g *galerkin[T]) Grid() *lattice.Grid { return g.m.CoarseGrid() }
func (g *galerkin[T]) NComp() int          { return g.m.NBasis() }

func (g *galerkin[T]) Apply(dst, src *lattice.Field[T]) {
	g.m.Promote(g.x, src)
	g.fine.Apply(g.y, g.x)
	g.m.Project(dst, g.y)
}

func (g *galerkin[T]) ApplyAdjoint(dst, src *lattice.Field[T]) {
	g.m.Promote(g.x, src)
	g.fine.ApplyAdjoint(g.y, g.x)
	g.m.Project(dst, g.y)
}

func testMap[T lattice.Scalar](t testing.TB, fine *lattice.Grid, coarse []int, nbasis int, seed string) *block.Map[T] {
	t.Helper()
	cg, err := lattice.NewGrid(coarse, fine.Precision())
	if err != nil {
		t.Fatal(err)
	}
	basis := lattice.NewFields[T](fine, wilson.NComp, nbasis)
	lattice.CNormal(lattice.NewRNG(seed), basis...)
	m, err := block.NewMap(cg, basis)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Orthonormalize(); err != nil {
		t.Fatal(err)
	}
	return m
}
