// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mg

import (
	"fmt"

	"github.com/saintbenjamin/gpt/inverter"
	"github.com/saintbenjamin/gpt/lattice"
)

// CycleParams selects the solvers of a multigrid cycle.
type CycleParams struct {
	// Coarsest solves on the coarsest level.
	Coarsest inverter.Spec
	// Smoother smooths after the coarse-grid correction on every other
	// level.
	Smoother inverter.Spec
	// Wrapper, if not nil, is the flexible Krylov solver wrapped around
	// the cycle on every intermediate level, which makes the cycle a
	// K-cycle. Otherwise it is a V-cycle.
	Wrapper *inverter.Spec
	// ResidualChecks logs the residual before and after the finest smoother.
	ResidualChecks bool
}

// BuildCycle assembles the cycle described by p on h, coarsest level first.
// The solvers are named "coarsest", "smoother<level>" and "wrapper<level>".
// opts are passed to every solver.
func BuildCycle[T lattice.Scalar](h *Hierarchy[T], p CycleParams, opts ...inverter.Option) (*inverter.Cycle[T], error) {
	n := h.Len()
	if n < 2 {
		return nil, lattice.NewConfigError("multi_grid", "block_size", "a cycle needs at least two levels, got %d", n)
	}
	solver := func(l int, spec inverter.Spec, name string) (*inverter.Solver[T], error) {
		o := append(append([]inverter.Option(nil), opts...), inverter.WithName(name))
		return inverter.New(h.Levels[l].Op, spec, o...)
	}

	s, err := solver(n-1, p.Coarsest, "coarsest")
	if err != nil {
		return nil, err
	}
	next := inverter.NewSmoother[T](n-1, s)
	for l := n - 2; l >= 0; l-- {
		lvl := h.Levels[l]
		sm, err := solver(l, p.Smoother, fmt.Sprintf("smoother%d", l))
		if err != nil {
			return nil, err
		}
		var smooth inverter.Inverter[T] = sm
		if l == 0 && p.ResidualChecks {
			smooth = inverter.NewSequence[T](
				inverter.CalculateResidual(lvl.Op, "before smoother", opts...),
				sm,
				inverter.CalculateResidual(lvl.Op, "after smoother", opts...),
			)
		}
		c := inverter.NewCoarseCorrection(l, lvl.Op, lvl.Map, next, inverter.NewSmoother(l, smooth))
		if l > 0 && p.Wrapper != nil {
			w, err := solver(l, *p.Wrapper, fmt.Sprintf("wrapper%d", l))
			if err != nil {
				return nil, err
			}
			c = inverter.NewKrylovWrapped(l, w, c)
		}
		next = c
	}
	return next, nil
}

// BuildVCycle assembles the V-cycle of h.
func BuildVCycle[T lattice.Scalar](h *Hierarchy[T], coarsest, smoother inverter.Spec, opts ...inverter.Option) (*inverter.Cycle[T], error) {
	return BuildCycle(h, CycleParams{Coarsest: coarsest, Smoother: smoother}, opts...)
}

// BuildKCycle assembles the K-cycle of h.
func BuildKCycle[T lattice.Scalar](h *Hierarchy[T], coarsest, smoother, wrapper inverter.Spec, opts ...inverter.Option) (*inverter.Cycle[T], error) {
	return BuildCycle(h, CycleParams{Coarsest: coarsest, Smoother: smoother, Wrapper: &wrapper}, opts...)
}
