// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package block

import (
	"fmt"
	"math/cmplx"
	"sync"

	"github.com/saintbenjamin/gpt/internal/parallel"
	"github.com/saintbenjamin/gpt/lattice"
	"github.com/saintbenjamin/gpt/linalg"
)

// Map is the transfer operator defined by a basis of fine fields restricted
// to the blocks of a partition. Project computes the coefficients of a fine
// field in the block basis and Promote expands coefficients into a fine
// field. If the basis is block orthonormal, Project∘Promote is the identity
// and Promote is the adjoint of Project.
type Map[T lattice.Scalar] struct {
	part   *Partition
	ncomp  int
	nbasis int
	blen   int // components of a vector restricted to a block

	// vecs holds, for every block, nbasis contiguous rows of blen
	// components: row i is basis vector i restricted to the block.
	vecs []T
}

// NewMap returns the block map from the fine grid of basis to coarse. The
// block extent is the ratio of the fine and the coarse extent. The basis is
// copied.
func NewMap[T lattice.Scalar](coarse *lattice.Grid, basis []*lattice.Field[T]) (*Map[T], error) {
	if len(basis) == 0 {
		return nil, lattice.NewConfigError("block", "n_basis", "empty basis")
	}
	fine := basis[0].Grid
	for i, v := range basis[1:] {
		if !v.Compatible(basis[0]) {
			return nil, lattice.NewConfigError("block", "basis", "vector %d has a different layout", i+1)
		}
	}
	if coarse.Dims() != fine.Dims() {
		return nil, lattice.NewConfigError("block", "coarse_grid", "%d dimensions for a %d-dimensional grid", coarse.Dims(), fine.Dims())
	}
	if coarse.Precision() != fine.Precision() {
		return nil, lattice.NewConfigError("block", "coarse_grid", "precision %v differs from %v", coarse.Precision(), fine.Precision())
	}
	bs := make([]int, fine.Dims())
	for d := range bs {
		if fine.Len(d)%coarse.Len(d) != 0 {
			return nil, lattice.NewConfigError("block", "coarse_grid", "extent %d does not divide %d in dimension %d", coarse.Len(d), fine.Len(d), d)
		}
		bs[d] = fine.Len(d) / coarse.Len(d)
	}
	p, err := NewPartition(fine, bs)
	if err != nil {
		return nil, err
	}
	return newMap(p, basis), nil
}

// NewMapPartition returns the block map for the partition p.
func NewMapPartition[T lattice.Scalar](p *Partition, basis []*lattice.Field[T]) (*Map[T], error) {
	if len(basis) == 0 {
		return nil, lattice.NewConfigError("block", "n_basis", "empty basis")
	}
	for i, v := range basis {
		if !v.Grid.SameShape(p.Fine()) || v.NComp != basis[0].NComp {
			return nil, lattice.NewConfigError("block", "basis", "vector %d does not live on the partitioned grid", i)
		}
	}
	return newMap(p, basis), nil
}

func newMap[T lattice.Scalar](p *Partition, basis []*lattice.Field[T]) *Map[T] {
	m := &Map[T]{
		part:   p,
		ncomp:  basis[0].NComp,
		nbasis: len(basis),
	}
	m.blen = p.BlockSites() * m.ncomp
	m.vecs = make([]T, p.Blocks()*m.nbasis*m.blen)
	for b := 0; b < p.Blocks(); b++ {
		for i, v := range basis {
			gather(p, m.row(b, i), v.Data, b, m.ncomp)
		}
	}
	return m
}

func (m *Map[T]) row(b, i int) []T {
	off := (b*m.nbasis + i) * m.blen
	return m.vecs[off : off+m.blen]
}

// Partition returns the partition of m.
func (m *Map[T]) Partition() *Partition { return m.part }

// FineGrid returns the fine grid.
func (m *Map[T]) FineGrid() *lattice.Grid { return m.part.Fine() }

// CoarseGrid returns the coarse grid.
func (m *Map[T]) CoarseGrid() *lattice.Grid { return m.part.Coarse() }

// NComp returns the number of components of fine fields.
func (m *Map[T]) NComp() int { return m.ncomp }

// NBasis returns the number of basis vectors, the number of components of
// coarse fields.
func (m *Map[T]) NBasis() int { return m.nbasis }

// NewCoarseField returns a zero field on the coarse grid.
func (m *Map[T]) NewCoarseField() *lattice.Field[T] {
	return lattice.NewField[T](m.CoarseGrid(), m.nbasis)
}

// NewFineField returns a zero field on the fine grid.
func (m *Map[T]) NewFineField() *lattice.Field[T] {
	return lattice.NewField[T](m.FineGrid(), m.ncomp)
}

func (m *Map[T]) checkFields(coarse, fine *lattice.Field[T]) {
	if coarse.NComp != m.nbasis || !coarse.Grid.SameShape(m.CoarseGrid()) {
		panic("block: coarse field layout mismatch")
	}
	if fine.NComp != m.ncomp || !fine.Grid.SameShape(m.FineGrid()) {
		panic("block: fine field layout mismatch")
	}
}

// Project stores the block coefficients of fine into coarse,
//  coarse_b,i = <v_i|_b, fine|_b>.
func (m *Map[T]) Project(coarse, fine *lattice.Field[T]) {
	m.checkFields(coarse, fine)
	parallel.For(m.part.Blocks(), func(lo, hi int) {
		buf := make([]T, m.blen)
		for b := lo; b < hi; b++ {
			gather(m.part, buf, fine.Data, b, m.ncomp)
			c := coarse.Site(b)
			for i := range c {
				c[i] = T(linalg.Dot(m.row(b, i), buf))
			}
		}
	})
}

// Promote stores the fine field with block coefficients coarse into fine,
//  fine|_b = Σ_i coarse_b,i v_i|_b.
func (m *Map[T]) Promote(fine, coarse *lattice.Field[T]) {
	m.checkFields(coarse, fine)
	parallel.For(m.part.Blocks(), func(lo, hi int) {
		buf := make([]T, m.blen)
		for b := lo; b < hi; b++ {
			clear(buf)
			for i, c := range coarse.Site(b) {
				linalg.Axpy(complex128(c), m.row(b, i), buf)
			}
			scatter(m.part, fine.Data, buf, b, m.ncomp)
		}
	})
}

// Vector returns basis vector i as a fine field.
func (m *Map[T]) Vector(i int) *lattice.Field[T] {
	v := m.NewFineField()
	for b := 0; b < m.part.Blocks(); b++ {
		scatter(m.part, v.Data, m.row(b, i), b, m.ncomp)
	}
	return v
}

// Orthonormalize orthonormalizes the basis vectors within every block by
// modified Gram-Schmidt. A vector that is linearly dependent on its
// predecessors within a block is reported as an OrthogonalityViolation.
func (m *Map[T]) Orthonormalize() error {
	eps := m.FineGrid().Precision().Eps()
	var (
		mu    sync.Mutex
		first *lattice.OrthogonalityViolation
	)
	parallel.For(m.part.Blocks(), func(lo, hi int) {
		for b := lo; b < hi; b++ {
			err := m.orthonormalizeBlock(b, eps)
			if err == nil {
				continue
			}
			mu.Lock()
			if first == nil || err.Block < first.Block {
				first = err
			}
			mu.Unlock()
			return
		}
	})
	if first != nil {
		return first
	}
	return nil
}

func (m *Map[T]) orthonormalizeBlock(b int, eps float64) *lattice.OrthogonalityViolation {
	for i := 0; i < m.nbasis; i++ {
		vi := m.row(b, i)
		orig := linalg.Norm(vi)
		for j := 0; j < i; j++ {
			vj := m.row(b, j)
			linalg.Axpy(-linalg.Dot(vj, vi), vj, vi)
		}
		nrm := linalg.Norm(vi)
		if v := dependence(b, i, nrm, orig, eps); v != nil {
			return v
		}
		linalg.Scale(complex(1/nrm, 0), vi)
	}
	return nil
}

// dependence reports vector i of block b as linearly dependent if
// orthogonalization reduced its norm from orig to at most 100*eps*orig.
func dependence(b, i int, nrm, orig, eps float64) *lattice.OrthogonalityViolation {
	tol := 100 * eps
	if nrm != 0 && nrm > tol*orig {
		return nil
	}
	var frac float64
	if orig > 0 {
		frac = nrm / orig
	}
	return &lattice.OrthogonalityViolation{Block: b, I: i, J: i, Deviation: frac, Tolerance: tol, Dependent: true}
}

// CheckOrthonormality verifies that within every block the basis vectors
// have unit norm and pairwise inner products of magnitude at most tol.
func (m *Map[T]) CheckOrthonormality(tol float64) error {
	for b := 0; b < m.part.Blocks(); b++ {
		for i := 0; i < m.nbasis; i++ {
			vi := m.row(b, i)
			for j := 0; j <= i; j++ {
				d := linalg.Dot(m.row(b, j), vi)
				dev := cmplx.Abs(d)
				if i == j {
					dev = cmplx.Abs(d - 1)
				}
				if dev > tol {
					return &lattice.OrthogonalityViolation{Block: b, I: i, J: j, Deviation: dev, Tolerance: tol}
				}
			}
		}
	}
	return nil
}

// DefaultTolerance returns the orthonormality tolerance used for bases in
// precision p.
func DefaultTolerance(p lattice.Precision) float64 {
	if p == lattice.Single {
		return 1e-4
	}
	return 1e-10
}

func (m *Map[T]) String() string {
	return fmt.Sprintf("block.Map(%v -> %v, %d vectors)", m.FineGrid(), m.CoarseGrid(), m.nbasis)
}
