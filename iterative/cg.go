// Copyright ©2016 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iterative

import "github.com/saintbenjamin/gpt/linalg"

// CG implements the conjugate gradient iterative method with preconditioning
// for solving the system of linear equations
//  Ax = b,
// where A is a Hermitian positive definite matrix.
//
// CG needs MatVec and PSolve matrix operations.
type CG[T linalg.Scalar] struct {
	first        bool
	resume       int
	rho, rhoPrev complex128

	z, p, ap []T
}

// Init implements the Method interface.
func (cg *CG[T]) Init(dim int) {
	if dim <= 0 {
		panic("iterative: dimension not positive")
	}

	cg.z = reuse(cg.z, dim)
	cg.p = reuse(cg.p, dim)
	cg.ap = reuse(cg.ap, dim)

	cg.first = true
	cg.resume = 1
}

// Iterate implements the Method interface.
func (cg *CG[T]) Iterate(ctx *Context[T]) (Operation, error) {
	switch cg.resume {
	case 1:
		ctx.Src = ctx.Residual
		ctx.Dst = cg.z
		cg.resume = 2
		return PSolve, nil
		// Solve M z = r_{i-1}
	case 2:
		cg.rho = linalg.Dot(ctx.Residual, cg.z) // ρ_i = r_{i-1} · z
		if !cg.first {
			beta := cg.rho / cg.rhoPrev   // β = ρ_i / ρ_{i-1}
			linalg.Axpy(beta, cg.p, cg.z) // z = z + β p_{i-1}
		}
		copy(cg.p, cg.z) // p_i = z

		ctx.Src = cg.p
		ctx.Dst = cg.ap
		cg.resume = 3
		return MatVec, nil
		// Compute Ap_i
	case 3:
		alpha := cg.rho / linalg.Dot(cg.p, cg.ap) // α = ρ_i / (p_i · Ap_i)
		linalg.Axpy(-alpha, cg.ap, ctx.Residual)  // r_i = r_{i-1} - α Ap_i
		linalg.Axpy(alpha, cg.p, ctx.X)           // x_i = x_{i-1} + α p_i

		ctx.ResidualNorm = linalg.Norm(ctx.Residual)
		ctx.Src = nil
		ctx.Dst = nil
		ctx.Converged = false
		cg.resume = 4
		return CheckResidualNorm, nil
	case 4:
		if ctx.Converged {
			cg.resume = 0
			return EndIteration, nil
		}
		cg.rhoPrev = cg.rho
		cg.first = false
		cg.resume = 1
		return EndIteration, nil

	default:
		panic("iterative: CG.Init not called")
	}
}
