// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iterative

import (
	"errors"
	"math/cmplx"

	"github.com/saintbenjamin/gpt/linalg"
)

// BiCG implements the biconjugate gradient iterative method with
// preconditioning for solving the system of linear equations
//  Ax = b,
// where A is a non-Hermitian matrix. For Hermitian positive definite systems
// use CG.
//
// BiCG needs MatVec, MatAdjVec, PSolve, and PSolveAdj matrix operations.
type BiCG[T linalg.Scalar] struct {
	first  bool
	resume int

	rho, rhoPrev complex128
	alpha        complex128

	rt    []T
	z, zt []T
	p, pt []T
}

// Init implements the Method interface.
func (b *BiCG[T]) Init(dim int) {
	if dim <= 0 {
		panic("iterative: dimension not positive")
	}

	b.rt = reuse(b.rt, dim)
	b.z = reuse(b.z, dim)
	b.zt = reuse(b.zt, dim)
	b.p = reuse(b.p, dim)
	b.pt = reuse(b.pt, dim)

	b.first = true
	b.resume = 1
}

// Iterate implements the Method interface.
func (b *BiCG[T]) Iterate(ctx *Context[T]) (Operation, error) {
	switch b.resume {
	case 1:
		if b.first {
			copy(b.rt, ctx.Residual)
		}
		ctx.Src = ctx.Residual
		ctx.Dst = b.z
		b.resume = 2
		return PSolve, nil
		// Solve M z = r_{i-1}
	case 2:
		ctx.Src = b.rt
		ctx.Dst = b.zt
		b.resume = 3
		return PSolveAdj, nil
		// Solve Mᴴ zt = rt_{i-1}
	case 3:
		b.rho = linalg.Dot(b.rt, b.z)
		if cmplx.Abs(b.rho) < dlamchE*dlamchE {
			b.resume = 0 // Calling Iterate again without Init will panic.
			return NoOperation, errors.New("iterative: rho breakdown")
		}
		if !b.first {
			beta := b.rho / b.rhoPrev
			linalg.Axpy(beta, b.p, b.z)
			linalg.Axpy(cmplx.Conj(beta), b.pt, b.zt)
		}
		copy(b.p, b.z)
		copy(b.pt, b.zt)
		ctx.Src = b.p
		ctx.Dst = b.z // == q
		b.resume = 4
		return MatVec, nil
		// q <- A p
	case 4:
		ctx.Src = b.pt
		ctx.Dst = b.zt // == qt
		b.resume = 5
		return MatAdjVec, nil
		// qt <- Aᴴ pt
	case 5:
		b.alpha = b.rho / linalg.Dot(b.pt, b.z)
		linalg.Axpy(b.alpha, b.p, ctx.X)
		linalg.Axpy(-b.alpha, b.z, ctx.Residual)
		ctx.Src = nil
		ctx.Dst = nil
		ctx.ResidualNorm = linalg.Norm(ctx.Residual)
		ctx.Converged = false
		b.resume = 6
		return CheckResidualNorm, nil
	case 6:
		if ctx.Converged {
			b.resume = 0 // Calling Iterate again without Init will panic.
			return EndIteration, nil
		}
		// Prepare for the next iteration.
		linalg.Axpy(-cmplx.Conj(b.alpha), b.zt, b.rt)
		b.rhoPrev = b.rho
		b.first = false
		b.resume = 1
		return EndIteration, nil

	default:
		panic("iterative: BiCG.Init not called")
	}
}
