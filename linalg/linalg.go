// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package linalg provides the complex vector kernels shared by the Krylov
// methods, the lattice fields and the multigrid transfer operators.
//
// The kernels are generic over the two supported scalar types. Double
// precision vectors are handled by gonum's cblas128 wrappers, single precision
// vectors by the complex64 Level 1 and Level 2 routines of the native gonum
// BLAS implementation. Scalars passed to and returned from the kernels are
// always complex128.
package linalg

import (
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
	"gonum.org/v1/gonum/blas/gonum"
)

// Scalar is the set of element types a vector may hold.
type Scalar interface {
	complex64 | complex128
}

var c64 gonum.Implementation

// IsSingle reports whether T is the single precision scalar type.
func IsSingle[T Scalar]() bool {
	var z T
	_, ok := any(z).(complex64)
	return ok
}

func vec128(x []complex128) cblas128.Vector {
	return cblas128.Vector{N: len(x), Data: x, Inc: 1}
}

// Dot returns the inner product xᴴ y.
func Dot[T Scalar](x, y []T) complex128 {
	if len(x) != len(y) {
		panic("linalg: mismatched vector lengths")
	}
	switch x := any(x).(type) {
	case []complex128:
		return cblas128.Dotc(vec128(x), vec128(any(y).([]complex128)))
	case []complex64:
		return complex128(c64.Cdotc(len(x), x, 1, any(y).([]complex64), 1))
	}
	panic("linalg: unsupported scalar type")
}

// Norm returns the Euclidean norm of x.
func Norm[T Scalar](x []T) float64 {
	switch x := any(x).(type) {
	case []complex128:
		return cblas128.Nrm2(vec128(x))
	case []complex64:
		return float64(c64.Scnrm2(len(x), x, 1))
	}
	panic("linalg: unsupported scalar type")
}

// Norm2 returns the squared Euclidean norm of x.
func Norm2[T Scalar](x []T) float64 {
	n := Norm(x)
	return n * n
}

// Axpy computes y += alpha*x.
func Axpy[T Scalar](alpha complex128, x, y []T) {
	if len(x) != len(y) {
		panic("linalg: mismatched vector lengths")
	}
	switch x := any(x).(type) {
	case []complex128:
		cblas128.Axpy(alpha, vec128(x), vec128(any(y).([]complex128)))
	case []complex64:
		c64.Caxpy(len(x), complex64(alpha), x, 1, any(y).([]complex64), 1)
	default:
		panic("linalg: unsupported scalar type")
	}
}

// Scale computes x *= alpha.
func Scale[T Scalar](alpha complex128, x []T) {
	switch x := any(x).(type) {
	case []complex128:
		cblas128.Scal(alpha, vec128(x))
	case []complex64:
		c64.Cscal(len(x), complex64(alpha), x, 1)
	default:
		panic("linalg: unsupported scalar type")
	}
}

// Zero sets all elements of x to zero.
func Zero[T Scalar](x []T) {
	for i := range x {
		x[i] = 0
	}
}

// Gemv computes y += op(A)*x where A is an m×n row-major matrix with leading
// dimension lda and op is the identity or, if adj is true, the conjugate
// transpose.
func Gemv[T Scalar](adj bool, m, n int, a []T, lda int, x, y []T) {
	t := blas.NoTrans
	if adj {
		t = blas.ConjTrans
	}
	switch a := any(a).(type) {
	case []complex128:
		x, y := any(x).([]complex128), any(y).([]complex128)
		cblas128.Gemv(t, 1, cblas128.General{Rows: m, Cols: n, Data: a, Stride: lda}, vec128(x), 1, vec128(y))
	case []complex64:
		x, y := any(x).([]complex64), any(y).([]complex64)
		c64.Cgemv(t, m, n, 1, a, lda, x, 1, 1, y, 1)
	default:
		panic("linalg: unsupported scalar type")
	}
}

// Convert copies src into dst, rounding or widening each element.
func Convert[D, S Scalar](dst []D, src []S) {
	if len(dst) != len(src) {
		panic("linalg: mismatched vector lengths")
	}
	for i, v := range src {
		dst[i] = D(v)
	}
}
