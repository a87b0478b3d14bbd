// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inverter

import (
	"testing"

	"github.com/saintbenjamin/gpt/lattice"
	"github.com/saintbenjamin/gpt/operator"
	"github.com/saintbenjamin/gpt/wilson"
)

func TestMultiGridGalerkinCondition(t *testing.T) {
	t.Parallel()
	w := wilsonOp[complex128](t, []int{4, 4, 4, 4}, "galerkin")
	m := testMap[complex128](t, w.Grid(), []int{2, 2, 2, 2}, 4, "basis")
	coarse := NewFGMRES[complex128](newGalerkin[complex128](w, m), Params{Eps: 1e-12, MaxIter: 200, RestartLen: 30}, WithName("coarsest"))
	mg := NewMultiGrid[complex128](w, coarse, m)

	b := randomField(w, "rhs")
	for _, guess := range []string{"zero", "random"} {
		x := b.Like()
		if guess == "random" {
			lattice.CNormal(lattice.NewRNG(guess), x)
		}
		if err := mg.Apply(x, b); err != nil {
			t.Fatal(err)
		}
		// The corrected residual is orthogonal to the range of the map.
		r := b.Like()
		operator.Residual(w, r, x, b)
		rc := m.NewCoarseField()
		m.Project(rc, r)
		if rel := rc.Norm() / b.Norm(); rel > 1e-10 {
			t.Errorf("%s guess: projected residual %v", guess, rel)
		}
	}
	if len(mg.History()) != 2 {
		t.Errorf("unexpected history length %d", len(mg.History()))
	}
	if mg.Name() != "multi_grid(coarsest)" {
		t.Errorf("unexpected name %q", mg.Name())
	}
}

func TestCycle(t *testing.T) {
	t.Parallel()
	w := wilsonOp[complex128](t, []int{4, 4, 4, 4}, "cycle")
	m := testMap[complex128](t, w.Grid(), []int{2, 2, 2, 2}, 8, "basis")
	op1 := newGalerkin[complex128](w, m)

	coarsest := NewSmoother[complex128](1, NewFGMRES[complex128](op1, Params{Eps: 5e-2, MaxIter: 50, RestartLen: 25}, WithName("coarsest")))
	smooth := NewSmoother[complex128](0, NewFGMRES[complex128](w, Params{Eps: 1e-14, MaxIter: 4, RestartLen: 4}, WithName("smoother")))
	vcycle := NewCoarseCorrection[complex128](0, w, m, coarsest, smooth)
	if vcycle.Levels() != 2 {
		t.Errorf("unexpected number of levels %d", vcycle.Levels())
	}
	if vcycle.Name() != "mg0(coarsest; smoother)" {
		t.Errorf("unexpected name %q", vcycle.Name())
	}

	wrapper := NewFGMRES[complex128](w, Params{Eps: 1e-1, MaxIter: 10, RestartLen: 5}, WithName("wrapper"))
	kcycle := NewKrylovWrapped(0, wrapper, vcycle)
	if kcycle.Kind != KrylovWrapped || kcycle.Levels() != 2 {
		t.Errorf("unexpected K-cycle %v with %d levels", kcycle.Kind, kcycle.Levels())
	}

	b := randomField(w, "rhs")
	for _, c := range []*Cycle[complex128]{vcycle, kcycle} {
		x := b.Like()
		if err := c.Apply(x, b); err != nil {
			t.Fatalf("%s: %v", c.Name(), err)
		}
		if res := relResidual(w, x, b); res >= 1 {
			t.Errorf("%s: no reduction of the residual, %v", c.Name(), res)
		}
	}

	ncoarse := len(vcycle.History().Filter("coarsest"))
	outer := NewFGMRES[complex128](w, Params{Eps: 1e-10, MaxIter: 200, RestartLen: 20}).Modified(vcycle.Clone())
	x := b.Like()
	if err := outer.Solve(x, b); err != nil {
		t.Fatal(err)
	}
	if res := relResidual(w, x, b); res > 1e-10 {
		t.Errorf("residual %v", res)
	}
	if len(vcycle.History().Filter("coarsest")) != ncoarse {
		t.Error("clone shares the history of the cycle")
	}

	defer func() {
		if recover() == nil {
			t.Error("no panic for a correction skipping a level")
		}
	}()
	NewCoarseCorrection[complex128](0, w, m, NewSmoother[complex128](2, coarsest.Solver), nil)
}

func TestMixedPrecision(t *testing.T) {
	t.Parallel()
	w := wilsonOp[complex128](t, []int{4, 4, 4, 4}, "mixed")
	ws := wilson.Converted[complex64](w)
	inner := NewFGMRES[complex64](ws, Params{Eps: 1e-2, MaxIter: 10, RestartLen: 10}, WithName("inner"))
	mp := NewMixedPrecision[complex128](Inverter[complex64](inner))

	outer := NewFGMRES[complex128](w, Params{Eps: 1e-12, MaxIter: 100, RestartLen: 20, CheckRes: true}).Modified(mp)
	b := randomField(w, "rhs")
	x := b.Like()
	if err := outer.Solve(x, b); err != nil {
		t.Fatal(err)
	}
	if res := relResidual(w, x, b); res > 1e-12 {
		t.Errorf("residual %v", res)
	}
	rec, _ := outer.History().Last()
	if mp.Conversions() != rec.Iterations {
		t.Errorf("%d conversions for %d iterations", mp.Conversions(), rec.Iterations)
	}
	if got := mp.Name(); got != "mixed_precision(inner, single, double)" {
		t.Errorf("unexpected name %q", got)
	}
}
