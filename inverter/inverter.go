// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package inverter composes Krylov solvers, multigrid coarse-grid corrections
// and diagnostic stages into solvers and preconditioners for lattice
// operators.
//
// Every Inverter refines dst in place: on entry dst holds an initial guess
// for the solution x of A x = src, on return an improved approximation.
// Inverters used as preconditioners are called with a zero guess.
package inverter

import (
	"time"

	"github.com/saintbenjamin/gpt/iterative"
	"github.com/saintbenjamin/gpt/lattice"
)

// ErrIterationLimit is returned by Solve when a solver exhausts its
// iteration budget. It is recoverable; the approximation reached so far is
// stored in dst.
var ErrIterationLimit = iterative.ErrIterationLimit

// Inverter approximately solves A x = src for a fixed operator A.
//
// Inverters are stateful, they accumulate a History, and must not be used by
// concurrent solves. Use Clone to obtain an independent copy.
type Inverter[T lattice.Scalar] interface {
	// Apply refines the approximation dst. Non-convergence within the
	// iteration budget is recorded in the History but is not an error.
	Apply(dst, src *lattice.Field[T]) error
	// History returns the records of all calls so far.
	History() History
	// Name identifies the inverter in logs and metrics.
	Name() string
	// Clone returns an independent copy with an empty History.
	Clone() Inverter[T]
}

// Record holds the statistics of one call of a Krylov solver.
type Record struct {
	Solver     string
	Iterations int
	// ResidualNorm is the final relative residual norm |b - A x|/|b|, or
	// the estimate of the solver if the residual was not recomputed.
	ResidualNorm float64
	Converged    bool
	// Residuals holds the relative residual norm after every iteration.
	Residuals []float64
	Runtime   time.Duration
}

// History is an append-only log of solver calls.
type History []Record

// Last returns the most recent record.
func (h History) Last() (Record, bool) {
	if len(h) == 0 {
		return Record{}, false
	}
	return h[len(h)-1], true
}

// Iterations returns the total number of iterations of all records.
func (h History) Iterations() int {
	var n int
	for _, r := range h {
		n += r.Iterations
	}
	return n
}

// Filter returns the records of the named solver.
func (h History) Filter(name string) History {
	var out History
	for _, r := range h {
		if r.Solver == name {
			out = append(out, r)
		}
	}
	return out
}
