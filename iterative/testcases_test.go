// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iterative

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand/v2"

	"gonum.org/v1/gonum/cmplxs"

	"github.com/saintbenjamin/gpt/internal/triplet"
)

type testCase struct {
	name  string
	n     int
	a     MatrixOps[complex128]
	diag  []complex128
	iters int
	tol   float64
}

func denseOps(n int, a []complex128) MatrixOps[complex128] {
	return MatrixOps[complex128]{
		MatVec: func(dst, x []complex128) {
			for i := 0; i < n; i++ {
				var sum complex128
				for j := 0; j < n; j++ {
					sum += a[i*n+j] * x[j]
				}
				dst[i] = sum
			}
		},
		MatAdjVec: func(dst, x []complex128) {
			for j := 0; j < n; j++ {
				var sum complex128
				for i := 0; i < n; i++ {
					sum += cmplx.Conj(a[i*n+j]) * x[i]
				}
				dst[j] = sum
			}
		},
	}
}

func diagonal(n int, a []complex128) []complex128 {
	d := make([]complex128, n)
	for i := range d {
		d[i] = a[i*n+i]
	}
	return d
}

// randomHPD returns a Hermitian strictly diagonally dominant matrix with a
// positive diagonal.
func randomHPD(n int, rnd *rand.Rand) testCase {
	a := make([]complex128, n*n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := complex(rnd.Float64()-0.5, rnd.Float64()-0.5)
			a[i*n+j] = v
			a[j*n+i] = cmplx.Conj(v)
		}
		a[i*n+i] = complex(float64(n), 0)
	}
	return testCase{
		name:  fmt.Sprintf("randomHPD(%d)", n),
		n:     n,
		a:     denseOps(n, a),
		diag:  diagonal(n, a),
		iters: 2 * n,
		tol:   1e-8,
	}
}

// randomShifted returns a non-Hermitian matrix whose Gershgorin discs are
// bounded away from the origin.
func randomShifted(n int, rnd *rand.Rand) testCase {
	a := make([]complex128, n*n)
	for i := range a {
		a[i] = complex(rnd.Float64()-0.5, rnd.Float64()-0.5)
	}
	for i := 0; i < n; i++ {
		a[i*n+i] += complex(2*float64(n), float64(n)/2)
	}
	return testCase{
		name:  fmt.Sprintf("randomShifted(%d)", n),
		n:     n,
		a:     denseOps(n, a),
		diag:  diagonal(n, a),
		iters: 2 * n,
		tol:   1e-8,
	}
}

// convDiff returns the 5-point discretization of
//  -Δu + beta ∂u/∂x + sigma u
// on the unit square with nx×nx interior points and Dirichlet boundary.
func convDiff(nx int, beta, sigma float64) testCase {
	n := nx * nx
	h := 1 / float64(nx+1)
	m := triplet.New[complex128](n, n, 1)
	diag := make([]complex128, n)
	for iy := 0; iy < nx; iy++ {
		for ix := 0; ix < nx; ix++ {
			i := iy*nx + ix
			d := complex(4/(h*h)+sigma, 0)
			diag[i] = d
			m.Append(i, i, []complex128{d})
			if ix > 0 {
				m.Append(i, i-1, []complex128{complex(-1/(h*h)-beta/(2*h), 0)})
			}
			if ix < nx-1 {
				m.Append(i, i+1, []complex128{complex(-1/(h*h)+beta/(2*h), 0)})
			}
			if iy > 0 {
				m.Append(i, i-nx, []complex128{complex(-1/(h*h), 0)})
			}
			if iy < nx-1 {
				m.Append(i, i+nx, []complex128{complex(-1/(h*h), 0)})
			}
		}
	}
	m.Compress()
	return testCase{
		name:  fmt.Sprintf("convDiff(%d,%v,%v)", nx, beta, sigma),
		n:     n,
		a:     MatrixOps[complex128]{MatVec: m.MulVec, MatAdjVec: m.MulAdjVec},
		diag:  diag,
		iters: 20 * n,
		tol:   1e-6,
	}
}

// jacobi returns the diagonal preconditioner of tc.
func jacobi(tc testCase) func(dst, rhs []complex128) error {
	return func(dst, rhs []complex128) error {
		for i, v := range rhs {
			dst[i] = v / tc.diag[i]
		}
		return nil
	}
}

// jacobiAdj returns the adjoint of the diagonal preconditioner of tc.
func jacobiAdj(tc testCase) func(dst, rhs []complex128) error {
	return func(dst, rhs []complex128) error {
		for i, v := range rhs {
			dst[i] = v / cmplx.Conj(tc.diag[i])
		}
		return nil
	}
}

func onesAndRHS(tc testCase) (want, b []complex128) {
	want = make([]complex128, tc.n)
	for i := range want {
		want[i] = 1
	}
	b = make([]complex128, tc.n)
	tc.a.MatVec(b, want)
	return want, b
}

func maxDist(x, y []complex128) float64 {
	return cmplxs.Distance(x, y, math.Inf(1))
}
