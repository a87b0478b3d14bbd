// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iterative

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"

	"github.com/saintbenjamin/gpt/linalg"
)

// GMRES implements the restarted generalized minimal residual method with left
// preconditioning for solving the system of linear equations
//  Ax = b,
// where A is a general non-singular matrix. The preconditioner must not change
// between iterations; use FGMRES when it does.
//
// The convergence test uses the norm of the preconditioned residual M⁻¹r.
//
// GMRES needs MatVec and PSolve matrix operations.
type GMRES[T linalg.Scalar] struct {
	// Restart is the restart parameter.
	// It must be 0 <= Restart.
	// If it is 0 or larger than dim, it
	// will be set to dim.
	Restart int

	k      int
	resume int
	i      int // Counter for inner iterations.

	w  []T
	av []T
	v  []T

	arnoldi
}

// arnoldi holds the upper Hessenberg matrix, reduced to triangular form by
// Givens rotations, and the rotated right-hand side of the least-squares
// problem shared by GMRES and FGMRES.
type arnoldi struct {
	h    []complex128 // Column-major with leading dimension ldh.
	ldh  int
	s    []complex128
	y    []complex128
	givs []givens
}

type givens struct {
	c float64
	s complex128
}

func (a *arnoldi) init(k int) {
	a.ldh = k + 1
	a.h = reuse128(a.h, a.ldh*k)
	a.s = reuse128(a.s, k+1)
	a.y = reuse128(a.y, k)
	if cap(a.givs) < k {
		a.givs = make([]givens, k)
	} else {
		a.givs = a.givs[:k]
	}
}

// start resets the least-squares right-hand side to rnorm*e_1.
func (a *arnoldi) start(rnorm float64) {
	clear(a.s)
	a.s[0] = complex(rnorm, 0)
}

// arnoldiStep orthogonalizes w against the first i+1 columns of v with
// modified Gram-Schmidt, stores the normalized result as column i+1 of v,
// updates the i-th column of the triangular factor and returns the new
// residual estimate.
//
// A second Gram-Schmidt pass is made when the first one cancels most of w.
// If w still vanishes to working precision the Krylov space is invariant and
// breakdown is reported. Column i+1 of v is then left unset and must not be
// used.
func arnoldiStep[T linalg.Scalar](a *arnoldi, v []T, n, i int, w []T) (rnorm float64, breakdown bool) {
	hi := a.h[i*a.ldh : (i+1)*a.ldh]
	clear(hi[:i+2])
	h0 := linalg.Norm(w)
	wnorm := h0
	for pass := 0; pass < 2; pass++ {
		for k := 0; k <= i; k++ {
			vk := v[k*n : (k+1)*n]
			hki := linalg.Dot(vk, w)
			hi[k] += hki
			linalg.Axpy(-hki, vk, w)
		}
		prev := wnorm
		wnorm = linalg.Norm(w)
		if wnorm > reorthogonalize*prev {
			break
		}
	}
	breakdown = wnorm <= math.Sqrt(float64(n))*epsilon[T]()*h0
	if breakdown {
		wnorm = 0
	} else {
		vip1 := v[(i+1)*n : (i+2)*n]
		copy(vip1, w)
		linalg.Scale(complex(1/wnorm, 0), vip1)
	}
	hi[i+1] = complex(wnorm, 0) // H[i+1,i] = |w|

	// Apply i Givens rotation matrices to the i-th column of H.
	for j := 0; j < i; j++ {
		hi[j], hi[j+1] = rotvec(hi[j], hi[j+1], a.givs[j])
	}
	// Compute the (i+1)st Givens rotation that zeroes H[i+1,i].
	a.givs[i] = zrotg(hi[i], hi[i+1])
	// Apply the (i+1)st Givens rotation.
	hi[i], hi[i+1] = rotvec(hi[i], hi[i+1], a.givs[i])

	// Apply the (i+1)st Givens rotation to (s[i], s[i+1]).
	a.s[i], a.s[i+1] = rotvec(a.s[i], a.s[i+1], a.givs[i])
	return cmplx.Abs(a.s[i+1]), breakdown
}

// reorthogonalize is the fraction of the norm of w that a Gram-Schmidt pass
// must retain for no further pass to be made.
const reorthogonalize = 0.7071067811865476

// update adds to x the linear combination of the m columns of basis that
// minimizes the residual.
func arnoldiUpdate[T linalg.Scalar](a *arnoldi, x, basis []T, m int) {
	y := a.y[:m]
	copy(y, a.s[:m])
	// Solve H*y = s for upper triangular H.
	// H is upper triangular but stored in column-major order while Trsv
	// expects row-major.
	cblas128.Trsv(blas.Trans, cblas128.Triangular{
		Uplo:   blas.Lower,
		Diag:   blas.NonUnit,
		N:      m,
		Data:   a.h,
		Stride: a.ldh,
	}, cblas128.Vector{N: m, Data: y, Inc: 1})
	// Compute current solution vector x.
	n := len(x)
	for j := 0; j < m; j++ {
		linalg.Axpy(y[j], basis[j*n:(j+1)*n], x)
	}
}

func restartLength(restart, dim int) int {
	if restart < 0 {
		panic("iterative: invalid Restart")
	}
	if restart == 0 || dim < restart {
		return dim
	}
	return restart
}

// Init implements the Method interface.
func (g *GMRES[T]) Init(dim int) {
	if dim <= 0 {
		panic("iterative: invalid dim")
	}

	g.k = restartLength(g.Restart, dim)
	g.w = reuse(g.w, dim)
	g.av = reuse(g.av, dim)
	g.v = reuse(g.v, dim*(g.k+1))
	g.arnoldi.init(g.k)

	g.resume = 1
}

// Iterate implements the Method interface.
func (g *GMRES[T]) Iterate(ctx *Context[T]) (Operation, error) {
	n := len(ctx.X)
	switch g.resume {
	case 1:
		// Construct the first column of V.
		ctx.Src = ctx.Residual
		ctx.Dst = g.v[:n]
		g.resume = 2
		return PSolve, nil
		// Solve M V[:,0] = r.
	case 2:
		// Normalize V[:,0].
		rnorm := linalg.Norm(g.v[:n])
		linalg.Scale(complex(1/rnorm, 0), g.v[:n])
		g.start(rnorm)

		// for i := 0; i < k; i++ {
		g.i = 0
		fallthrough
	case 3:
		i := g.i
		ctx.Src = g.v[i*n : (i+1)*n]
		ctx.Dst = g.av
		g.resume = 4
		// Compute A V[:,i].
		return MatVec, nil
	case 4:
		ctx.Src = g.av
		ctx.Dst = g.w
		g.resume = 5
		// Solve M w = A V[:,i].
		return PSolve, nil
	case 5:
		// Approximate the residual norm and check for convergence.
		var breakdown bool
		ctx.ResidualNorm, breakdown = arnoldiStep(&g.arnoldi, g.v, n, g.i, g.w)
		ctx.Src = nil
		ctx.Dst = nil
		if breakdown {
			// The estimate is not reliable. Update x and check the true
			// residual, restarting if it is not small enough.
			arnoldiUpdate(&g.arnoldi, ctx.X, g.v, g.i+1)
			g.resume = 7
			return ComputeResidual, nil
		}
		ctx.Converged = false
		g.resume = 6
		return CheckResidualNorm, nil
	case 6:
		if ctx.Converged {
			// Compute final approximate solution x and finish.
			arnoldiUpdate(&g.arnoldi, ctx.X, g.v, g.i+1)
			g.resume = 0
			return EndIteration, nil
		}
		if g.i+1 == g.k || ctx.LastIteration {
			// Compute approximate solution x and restart.
			arnoldiUpdate(&g.arnoldi, ctx.X, g.v, g.i+1)
			g.resume = 7
			return ComputeResidual, nil
		}
		g.i++
		g.resume = 3
		return EndIteration, nil
		// end for loop
	case 7:
		ctx.ResidualNorm = linalg.Norm(ctx.Residual)
		ctx.Converged = false
		g.resume = 8
		return CheckResidualNorm, nil
	case 8:
		if ctx.Converged {
			g.resume = 0
			return EndIteration, nil
		}
		g.resume = 1
		return EndIteration, nil

	default:
		panic("iterative: GMRES.Init not called")
	}
}

// zrotg returns the complex Givens rotation G such that
//  G * [a; b] = [r; 0]
// with a real cosine.
func zrotg(a, b complex128) givens {
	if b == 0 {
		return givens{c: 1, s: 0}
	}
	if a == 0 {
		return givens{c: 0, s: 1}
	}
	absa := cmplx.Abs(a)
	nrm := math.Hypot(absa, cmplx.Abs(b))
	alpha := a / complex(absa, 0)
	return givens{
		c: absa / nrm,
		s: alpha * cmplx.Conj(b) / complex(nrm, 0),
	}
}

func rotvec(x, y complex128, g givens) (rx, ry complex128) {
	c := complex(g.c, 0)
	rx = c*x + g.s*y
	ry = -cmplx.Conj(g.s)*x + c*y
	return
}
