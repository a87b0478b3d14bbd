// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iterative

import (
	"errors"
	"time"

	"github.com/saintbenjamin/gpt/linalg"
)

// ErrIterationLimit is returned by LinearSolve when the iteration limit has
// been reached before the stopping criterion was satisfied. The Result still
// holds the last approximate solution, so the error is recoverable.
var ErrIterationLimit = errors.New("iterative: iteration limit reached")

// MatrixOps describes the matrix of the
// linear system in terms of A*x and Aᴴ*x
// operations.
type MatrixOps[T linalg.Scalar] struct {
	// Compute A*x and store the result
	// into dst.
	// It must be non-nil.
	MatVec func(dst, x []T)

	// Compute Aᴴ*x and store the result
	// into dst.
	// If the matrix is Hermitian or a
	// solver that does not need it is
	// used (like CG or GMRES), MatAdjVec
	// can be nil.
	MatAdjVec func(dst, x []T)
}

// Settings holds various settings for
// solving a linear system.
type Settings[T linalg.Scalar] struct {
	// X0 is an initial guess.
	// If it is nil, the zero vector will
	// be used.
	// If it is not nil, the length of X0
	// must be equal to the dimension of
	// the system.
	X0 []T

	// Tolerance specifies error
	// tolerance for the final
	// approximate solution produced by
	// the iterative method. The stopping
	// criterion is
	//  |r_i| < Tolerance * |b|.
	// Tolerance must be smaller than one
	// and greater than the machine
	// epsilon.
	Tolerance float64

	// MaxIterations is the limit on the
	// number of iterations.
	// If it is zero, it will be set to
	// twice the dimension of the system.
	MaxIterations int

	// CheckResidual requests that the
	// true residual b - A*x is computed
	// whenever a Method reports
	// convergence. If it does not satisfy
	// the stopping criterion, the Method
	// is restarted from the current
	// approximation. If CheckResidual is
	// false, the residual estimate of the
	// Method is trusted.
	CheckResidual bool

	// PSolve describes the
	// preconditioner solve that stores
	// into dst the solution of the
	// system
	//  M z = rhs.
	// If it is nil, no preconditioning
	// will be used (M is the
	// identity).
	PSolve func(dst, rhs []T) error

	// PSolveAdj describes the
	// preconditioner solve that stores
	// into dst the solution of the
	// system
	//  Mᴴ z = rhs.
	// If it is nil, no preconditioning
	// will be used (M is the
	// identity).
	PSolveAdj func(dst, rhs []T) error

	// Trace, if not nil, is called at the
	// end of every iteration with the
	// iteration count and the current
	// residual norm.
	Trace func(iteration int, residualNorm float64)
}

// DefaultSettings returns the settings used for zero-valued fields.
func DefaultSettings[T linalg.Scalar]() Settings[T] {
	return Settings[T]{
		Tolerance: 1e-8,
	}
}

func defaultSettings[T linalg.Scalar](s *Settings[T], dim int) {
	if s.Tolerance == 0 {
		s.Tolerance = 1e-8
	}
	if s.MaxIterations == 0 {
		s.MaxIterations = 2 * dim
	}
}

// Result holds the result of an iterative solve.
type Result[T linalg.Scalar] struct {
	// X is the approximate solution.
	X []T
	// Stats holds the statistics of the
	// solve.
	Stats Stats
}

// Stats holds statistics about an iterative solve.
type Stats struct {
	// Iterations is the number of
	// iteration done by Method.
	Iterations int
	// MatVec is the number of MatVec and
	// MatAdjVec operations, including
	// the residual computations.
	MatVec int
	// PSolve is the number of PSolve and
	// PSolveAdj operations commanded
	// by a Method.
	PSolve int
	// ResidualNorm is the final norm of
	// the residual.
	ResidualNorm float64
	// Converged reports whether the
	// stopping criterion was satisfied.
	Converged bool
	// StartTime is an approximate time
	// when the solve was started.
	StartTime time.Time
	// Runtime is an approximate duration
	// of the solve.
	Runtime time.Duration
}

// LinearSolve solves the system of n linear equations
//  A*x = b,
// where the n×n matrix A is represented by the matrix-vector operations in a.
// The dimension of the problem n is determined by the length of b.
//
// method is an iterative method used for finding an approximate solution of the
// linear system. It must not be nil. The operations in a must provide what the
// method needs.
//
// settings provide means for adjusting the iterative process. Zero values of
// the fields mean default values.
//
// One iteration is whatever the method reports with EndIteration. For the
// Krylov subspace methods in this package it is one step of the subspace
// construction, that is one application of A and of the preconditioner.
// If the iteration limit is reached, LinearSolve returns the last
// approximation together with ErrIterationLimit.
func LinearSolve[T linalg.Scalar](a MatrixOps[T], b []T, method Method[T], settings Settings[T]) (Result[T], error) {
	stats := Stats{StartTime: time.Now()}

	dim := len(b)
	if a.MatVec == nil {
		panic("iterative: nil matrix-vector multiplication")
	}
	if settings.X0 != nil && len(settings.X0) != dim {
		panic("iterative: mismatched length of initial guess")
	}

	if dim == 0 {
		stats.Converged = true
		return Result[T]{Stats: stats}, nil
	}

	defaultSettings(&settings, dim)
	if settings.Tolerance < dlamchE || 1 <= settings.Tolerance {
		panic("iterative: invalid tolerance")
	}

	ctx := &Context[T]{
		X:        make([]T, dim),
		Residual: make([]T, dim),
	}
	if settings.X0 != nil {
		copy(ctx.X, settings.X0)
		a.MatVec(ctx.Residual, ctx.X)
		stats.MatVec++
		linalg.Scale(-1, ctx.Residual)
		linalg.Axpy(1, b, ctx.Residual) // r = b - Ax
	} else {
		copy(ctx.Residual, b) // r = b
	}

	bnorm := linalg.Norm(b)
	if bnorm == 0 {
		bnorm = 1
	}
	ctx.ResidualNorm = linalg.Norm(ctx.Residual)
	stats.ResidualNorm = ctx.ResidualNorm
	var err error
	if ctx.ResidualNorm >= settings.Tolerance*bnorm {
		err = iterate(a, b, bnorm, ctx, settings, method, &stats)
	} else {
		stats.Converged = true
	}

	stats.Runtime = time.Since(stats.StartTime)
	return Result[T]{
		X:     ctx.X,
		Stats: stats,
	}, err
}

func iterate[T linalg.Scalar](a MatrixOps[T], b []T, bnorm float64, ctx *Context[T], settings Settings[T], method Method[T], stats *Stats) error {
	dim := len(ctx.X)
	computeResidual := func() {
		a.MatVec(ctx.Residual, ctx.X)
		stats.MatVec++
		linalg.Scale(-1, ctx.Residual)
		linalg.Axpy(1, b, ctx.Residual)
	}

	method.Init(dim)

	for {
		ctx.LastIteration = stats.Iterations+1 >= settings.MaxIterations
		op, err := method.Iterate(ctx)
		if err != nil {
			return err
		}

		switch op {
		case NoOperation:

		case ComputeResidual:
			computeResidual()

		case MatVec, MatAdjVec:
			if op == MatVec {
				a.MatVec(ctx.Dst, ctx.Src)
			} else {
				if a.MatAdjVec == nil {
					panic("iterative: nil adjoint matrix-vector multiplication")
				}
				a.MatAdjVec(ctx.Dst, ctx.Src)
			}
			stats.MatVec++

		case PSolve, PSolveAdj:
			if settings.PSolve == nil {
				copy(ctx.Dst, ctx.Src)
				continue
			}
			if op == PSolve {
				err = settings.PSolve(ctx.Dst, ctx.Src)
			} else {
				if settings.PSolveAdj == nil {
					panic("iterative: nil adjoint preconditioner solve")
				}
				err = settings.PSolveAdj(ctx.Dst, ctx.Src)
			}
			if err != nil {
				return err
			}
			stats.PSolve++

		case CheckResidualNorm:
			ctx.Converged = ctx.ResidualNorm/bnorm < settings.Tolerance

		case EndIteration:
			stats.Iterations++
			restart := false
			if ctx.Converged && settings.CheckResidual {
				computeResidual()
				ctx.ResidualNorm = linalg.Norm(ctx.Residual)
				ctx.Converged = ctx.ResidualNorm/bnorm < settings.Tolerance
				restart = !ctx.Converged
			}
			stats.ResidualNorm = ctx.ResidualNorm
			if settings.Trace != nil {
				settings.Trace(stats.Iterations, ctx.ResidualNorm)
			}
			if ctx.Converged {
				stats.Converged = true
				return nil
			}
			if stats.Iterations >= settings.MaxIterations {
				return ErrIterationLimit
			}
			if restart {
				method.Init(dim)
			}

		default:
			panic("iterate: invalid operation")
		}
	}
}
