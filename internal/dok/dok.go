// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dok implements a dictionary-of-keys block matrix used to accumulate
// block-sparse operators whose sparsity pattern is discovered during assembly.
package dok

import (
	"github.com/saintbenjamin/gpt/internal/triplet"
	"github.com/saintbenjamin/gpt/linalg"
)

// DOK is a Rows×Cols block matrix with BS×BS row-major blocks.
type DOK[T linalg.Scalar] struct {
	Rows, Cols, BS int

	data map[index][]T
}

type index struct {
	row, col int
}

// New returns an empty r×c block matrix with bs×bs blocks.
func New[T linalg.Scalar](r, c, bs int) *DOK[T] {
	return &DOK[T]{
		Rows: r,
		Cols: c,
		BS:   bs,
		data: make(map[index][]T),
	}
}

func (m *DOK[T]) check(i, j int) {
	if i < 0 || m.Rows <= i {
		panic("row index out of range")
	}
	if j < 0 || m.Cols <= j {
		panic("column index out of range")
	}
}

// At returns the block at (i, j), or nil if it has not been set.
func (m *DOK[T]) At(i, j int) []T {
	m.check(i, j)
	return m.data[index{i, j}]
}

// Block returns the block at (i, j), allocating a zero block if needed. The
// returned slice aliases the stored block.
func (m *DOK[T]) Block(i, j int) []T {
	m.check(i, j)
	b, ok := m.data[index{i, j}]
	if !ok {
		b = make([]T, m.BS*m.BS)
		m.data[index{i, j}] = b
	}
	return b
}

// SetAt sets element (r, c) of the block at (i, j) to v.
func (m *DOK[T]) SetAt(i, j, r, c int, v T) {
	m.Block(i, j)[r*m.BS+c] = v
}

// Len returns the number of stored blocks.
func (m *DOK[T]) Len() int {
	return len(m.data)
}

// MulVec computes dst += A*x.
func (m *DOK[T]) MulVec(dst, x []T) {
	bs := m.BS
	if m.Cols*bs != len(x) {
		panic("dimension mismatch")
	}
	if m.Rows*bs != len(dst) {
		panic("dimension mismatch")
	}
	for ij, aij := range m.data {
		linalg.Gemv(false, bs, bs, aij, bs, x[ij.col*bs:(ij.col+1)*bs], dst[ij.row*bs:(ij.row+1)*bs])
	}
}

// MulAdjVec computes dst += Aᴴ*x.
func (m *DOK[T]) MulAdjVec(dst, x []T) {
	bs := m.BS
	if m.Cols*bs != len(dst) {
		panic("dimension mismatch")
	}
	if m.Rows*bs != len(x) {
		panic("dimension mismatch")
	}
	for ij, aij := range m.data {
		linalg.Gemv(true, bs, bs, aij, bs, x[ij.row*bs:(ij.row+1)*bs], dst[ij.col*bs:(ij.col+1)*bs])
	}
}

// Triplet returns the blocks as a compressed triplet matrix. The blocks are
// shared, not copied.
func (m *DOK[T]) Triplet() *triplet.Matrix[T] {
	t := triplet.New[T](m.Rows, m.Cols, m.BS)
	for ij, aij := range m.data {
		t.Append(ij.row, ij.col, aij)
	}
	t.Compress()
	return t
}
