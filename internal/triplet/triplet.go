// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package triplet implements a block-sparse matrix stored as a list of
// (row, column, block) triplets. Every block is a dense bs×bs row-major
// matrix. With bs == 1 it is the classical coordinate format.
package triplet

import (
	"sort"

	"github.com/saintbenjamin/gpt/internal/parallel"
	"github.com/saintbenjamin/gpt/linalg"
)

type triplet[T linalg.Scalar] struct {
	i, j int
	v    []T
}

// Matrix is an r×c block matrix with bs×bs blocks.
type Matrix[T linalg.Scalar] struct {
	r, c, bs int
	data     []triplet[T]

	// rowPtr is set by Compress. data[rowPtr[i]:rowPtr[i+1]] holds the
	// blocks of block row i.
	rowPtr []int
}

// New returns an empty r×c block matrix with bs×bs blocks.
func New[T linalg.Scalar](r, c, bs int) *Matrix[T] {
	if r <= 0 || c <= 0 || bs <= 0 {
		panic("triplet: invalid dimensions")
	}
	return &Matrix[T]{
		r:  r,
		c:  c,
		bs: bs,
	}
}

// Dims returns the number of block rows and block columns.
func (m *Matrix[T]) Dims() (r, c int) {
	return m.r, m.c
}

// BlockSize returns the dimension of the square blocks.
func (m *Matrix[T]) BlockSize() int {
	return m.bs
}

// NNZ returns the number of stored blocks.
func (m *Matrix[T]) NNZ() int {
	return len(m.data)
}

// Append adds the block v at block position (i, j). The block is stored
// without copying. Appending to a position that is already present adds the
// two blocks.
func (m *Matrix[T]) Append(i, j int, v []T) {
	if i < 0 || m.r <= i {
		panic("row index out of range")
	}
	if j < 0 || m.c <= j {
		panic("column index out of range")
	}
	if len(v) != m.bs*m.bs {
		panic("block size mismatch")
	}
	m.data = append(m.data, triplet[T]{i, j, v})
	m.rowPtr = nil
}

// Compress sorts the triplets by row and column, merges duplicates and builds
// the row index used by MulVec.
func (m *Matrix[T]) Compress() {
	sort.SliceStable(m.data, func(a, b int) bool {
		if m.data[a].i != m.data[b].i {
			return m.data[a].i < m.data[b].i
		}
		return m.data[a].j < m.data[b].j
	})
	merged := m.data[:0]
	for _, t := range m.data {
		if n := len(merged); n > 0 && merged[n-1].i == t.i && merged[n-1].j == t.j {
			linalg.Axpy(1, t.v, merged[n-1].v)
			continue
		}
		merged = append(merged, t)
	}
	m.data = merged

	m.rowPtr = make([]int, m.r+1)
	for _, t := range m.data {
		m.rowPtr[t.i+1]++
	}
	for i := 0; i < m.r; i++ {
		m.rowPtr[i+1] += m.rowPtr[i]
	}
}

// Block returns the stored block at (i, j), or nil. The matrix must have been
// compressed.
func (m *Matrix[T]) Block(i, j int) []T {
	if m.rowPtr == nil {
		panic("triplet: matrix not compressed")
	}
	row := m.data[m.rowPtr[i]:m.rowPtr[i+1]]
	k := sort.Search(len(row), func(k int) bool { return row[k].j >= j })
	if k < len(row) && row[k].j == j {
		return row[k].v
	}
	return nil
}

// Do calls fn for every stored block in row-major order.
func (m *Matrix[T]) Do(fn func(i, j int, v []T)) {
	for _, t := range m.data {
		fn(t.i, t.j, t.v)
	}
}

// MulVec computes dst = A*x.
func (m *Matrix[T]) MulVec(dst, x []T) {
	bs := m.bs
	if m.c*bs != len(x) {
		panic("dimension mismatch")
	}
	if m.r*bs != len(dst) {
		panic("dimension mismatch")
	}
	if m.rowPtr == nil {
		linalg.Zero(dst)
		for _, aij := range m.data {
			linalg.Gemv(false, bs, bs, aij.v, bs, x[aij.j*bs:(aij.j+1)*bs], dst[aij.i*bs:(aij.i+1)*bs])
		}
		return
	}
	parallel.For(m.r, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			di := dst[i*bs : (i+1)*bs]
			linalg.Zero(di)
			for _, aij := range m.data[m.rowPtr[i]:m.rowPtr[i+1]] {
				linalg.Gemv(false, bs, bs, aij.v, bs, x[aij.j*bs:(aij.j+1)*bs], di)
			}
		}
	})
}

// MulAdjVec computes dst = Aᴴ*x.
func (m *Matrix[T]) MulAdjVec(dst, x []T) {
	bs := m.bs
	if m.c*bs != len(dst) {
		panic("dimension mismatch")
	}
	if m.r*bs != len(x) {
		panic("dimension mismatch")
	}
	linalg.Zero(dst)
	for _, aij := range m.data {
		linalg.Gemv(true, bs, bs, aij.v, bs, x[aij.i*bs:(aij.i+1)*bs], dst[aij.j*bs:(aij.j+1)*bs])
	}
}
