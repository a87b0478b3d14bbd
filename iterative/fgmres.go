// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iterative

import "github.com/saintbenjamin/gpt/linalg"

// FGMRES implements the restarted flexible generalized minimal residual method
// with right preconditioning for solving the system of linear equations
//  Ax = b,
// where A is a general non-singular matrix.
//
// In contrast to GMRES, the preconditioned vectors z_i = M_i⁻¹ v_i are kept,
// so the preconditioner may be different in every iteration. This allows inner
// iterative solvers, for example multigrid cycles with Krylov smoothers, to be
// used as preconditioners. The residual estimate is that of the unpreconditioned
// system.
//
// FGMRES needs MatVec and PSolve matrix operations.
type FGMRES[T linalg.Scalar] struct {
	// Restart is the restart parameter.
	// It must be 0 <= Restart.
	// If it is 0 or larger than dim, it
	// will be set to dim.
	Restart int

	k      int
	resume int
	i      int // Counter for inner iterations.

	w []T
	v []T // Arnoldi basis, k+1 columns.
	z []T // Preconditioned basis, k columns.

	arnoldi
}

// Init implements the Method interface.
func (f *FGMRES[T]) Init(dim int) {
	if dim <= 0 {
		panic("iterative: invalid dim")
	}

	f.k = restartLength(f.Restart, dim)
	f.w = reuse(f.w, dim)
	f.v = reuse(f.v, dim*(f.k+1))
	f.z = reuse(f.z, dim*f.k)
	f.arnoldi.init(f.k)

	f.resume = 1
}

// Iterate implements the Method interface.
func (f *FGMRES[T]) Iterate(ctx *Context[T]) (Operation, error) {
	n := len(ctx.X)
	switch f.resume {
	case 1:
		// V[:,0] = r / |r|.
		rnorm := linalg.Norm(ctx.Residual)
		copy(f.v[:n], ctx.Residual)
		linalg.Scale(complex(1/rnorm, 0), f.v[:n])
		f.start(rnorm)

		// for i := 0; i < k; i++ {
		f.i = 0
		fallthrough
	case 2:
		i := f.i
		ctx.Src = f.v[i*n : (i+1)*n]
		ctx.Dst = f.z[i*n : (i+1)*n]
		f.resume = 3
		// Solve M Z[:,i] = V[:,i].
		return PSolve, nil
	case 3:
		i := f.i
		ctx.Src = f.z[i*n : (i+1)*n]
		ctx.Dst = f.w
		f.resume = 4
		// Compute w = A Z[:,i].
		return MatVec, nil
	case 4:
		var breakdown bool
		ctx.ResidualNorm, breakdown = arnoldiStep(&f.arnoldi, f.v, n, f.i, f.w)
		ctx.Src = nil
		ctx.Dst = nil
		if breakdown {
			arnoldiUpdate(&f.arnoldi, ctx.X, f.z, f.i+1)
			f.resume = 6
			return ComputeResidual, nil
		}
		ctx.Converged = false
		f.resume = 5
		return CheckResidualNorm, nil
	case 5:
		if ctx.Converged {
			arnoldiUpdate(&f.arnoldi, ctx.X, f.z, f.i+1)
			f.resume = 0
			return EndIteration, nil
		}
		if f.i+1 == f.k || ctx.LastIteration {
			arnoldiUpdate(&f.arnoldi, ctx.X, f.z, f.i+1)
			f.resume = 6
			return ComputeResidual, nil
		}
		f.i++
		f.resume = 2
		return EndIteration, nil
		// end for loop
	case 6:
		ctx.ResidualNorm = linalg.Norm(ctx.Residual)
		ctx.Converged = false
		f.resume = 7
		return CheckResidualNorm, nil
	case 7:
		if ctx.Converged {
			f.resume = 0
			return EndIteration, nil
		}
		f.resume = 1
		return EndIteration, nil

	default:
		panic("iterative: FGMRES.Init not called")
	}
}
