// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package operator defines linear operators acting on lattice fields and
// adapts them to the iterative solvers.
package operator

import (
	"github.com/saintbenjamin/gpt/iterative"
	"github.com/saintbenjamin/gpt/lattice"
)

// Operator is a linear map on fields with NComp components on Grid.
//
// Apply and ApplyAdjoint store the image of src into dst. They must not
// modify src, and dst and src must not alias.
type Operator[T lattice.Scalar] interface {
	Grid() *lattice.Grid
	NComp() int
	Apply(dst, src *lattice.Field[T])
	ApplyAdjoint(dst, src *lattice.Field[T])
}

// NewField returns a zero field in the domain of op.
func NewField[T lattice.Scalar](op Operator[T]) *lattice.Field[T] {
	return lattice.NewField[T](op.Grid(), op.NComp())
}

// view wraps a slice as a field in the domain of op without copying.
func view[T lattice.Scalar](op Operator[T], data []T) *lattice.Field[T] {
	return &lattice.Field[T]{Grid: op.Grid(), NComp: op.NComp(), Data: data}
}

// Ops returns the matrix operations of op for use with iterative.LinearSolve.
func Ops[T lattice.Scalar](op Operator[T]) iterative.MatrixOps[T] {
	return iterative.MatrixOps[T]{
		MatVec: func(dst, x []T) {
			op.Apply(view(op, dst), view(op, x))
		},
		MatAdjVec: func(dst, x []T) {
			op.ApplyAdjoint(view(op, dst), view(op, x))
		},
	}
}

// Residual computes r = b - A x.
func Residual[T lattice.Scalar](op Operator[T], r, x, b *lattice.Field[T]) {
	op.Apply(r, x)
	lattice.Sub(r, b, r)
}

type adjoint[T lattice.Scalar] struct {
	Operator[T]
}

func (a adjoint[T]) Apply(dst, src *lattice.Field[T])        { a.Operator.ApplyAdjoint(dst, src) }
func (a adjoint[T]) ApplyAdjoint(dst, src *lattice.Field[T]) { a.Operator.Apply(dst, src) }

// Adjoint returns the adjoint of op.
func Adjoint[T lattice.Scalar](op Operator[T]) Operator[T] {
	if a, ok := op.(adjoint[T]); ok {
		return a.Operator
	}
	return adjoint[T]{op}
}

// Normal is the Hermitian positive semi-definite operator A†A.
type Normal[T lattice.Scalar] struct {
	A   Operator[T]
	tmp *lattice.Field[T]
}

// NewNormal returns the normal operator of a.
func NewNormal[T lattice.Scalar](a Operator[T]) *Normal[T] {
	return &Normal[T]{A: a, tmp: NewField(a)}
}

func (n *Normal[T]) Grid() *lattice.Grid { return n.A.Grid() }
func (n *Normal[T]) NComp() int          { return n.A.NComp() }

// Apply computes dst = A†A src.
func (n *Normal[T]) Apply(dst, src *lattice.Field[T]) {
	n.A.Apply(n.tmp, src)
	n.A.ApplyAdjoint(dst, n.tmp)
}

// ApplyAdjoint is Apply.
func (n *Normal[T]) ApplyAdjoint(dst, src *lattice.Field[T]) { n.Apply(dst, src) }
