// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lattice

import "github.com/saintbenjamin/gpt/linalg"

// Field is a vector of NComp components on every site of a grid, stored
// site-major.
type Field[T Scalar] struct {
	Grid  *Grid
	NComp int
	Data  []T
}

// NewField returns a zero field with ncomp components per site of g. The
// element type must match the precision of g.
func NewField[T Scalar](g *Grid, ncomp int) *Field[T] {
	if ncomp <= 0 {
		panic("lattice: non-positive number of components")
	}
	if PrecisionOf[T]() != g.Precision() {
		panic("lattice: element type does not match grid precision")
	}
	return &Field[T]{
		Grid:  g,
		NComp: ncomp,
		Data:  make([]T, g.Sites()*ncomp),
	}
}

// NewFields returns n zero fields.
func NewFields[T Scalar](g *Grid, ncomp, n int) []*Field[T] {
	fs := make([]*Field[T], n)
	for i := range fs {
		fs[i] = NewField[T](g, ncomp)
	}
	return fs
}

// Like returns a zero field with the layout of f.
func (f *Field[T]) Like() *Field[T] {
	return NewField[T](f.Grid, f.NComp)
}

// Site returns the components of site i. The returned slice aliases f.Data.
func (f *Field[T]) Site(i int) []T {
	return f.Data[i*f.NComp : (i+1)*f.NComp]
}

// Clone returns a copy of f.
func (f *Field[T]) Clone() *Field[T] {
	g := f.Like()
	copy(g.Data, f.Data)
	return g
}

// Zero sets all components of f to zero.
func (f *Field[T]) Zero() {
	clear(f.Data)
}

// Compatible reports whether f and g have the same layout.
func (f *Field[T]) Compatible(g *Field[T]) bool {
	return f.NComp == g.NComp && f.Grid.SameShape(g.Grid) && len(f.Data) == len(g.Data)
}

func (f *Field[T]) mustMatch(g *Field[T]) {
	if !f.Compatible(g) {
		panic("lattice: mismatched field layout")
	}
}

// CopyFrom copies src into f.
func (f *Field[T]) CopyFrom(src *Field[T]) {
	f.mustMatch(src)
	copy(f.Data, src.Data)
}

// Norm2 returns the squared norm of f.
func (f *Field[T]) Norm2() float64 { return linalg.Norm2(f.Data) }

// Norm returns the norm of f.
func (f *Field[T]) Norm() float64 { return linalg.Norm(f.Data) }

// Dot returns the inner product xᴴ y.
func Dot[T Scalar](x, y *Field[T]) complex128 {
	x.mustMatch(y)
	return linalg.Dot(x.Data, y.Data)
}

// Axpy computes y += alpha*x.
func Axpy[T Scalar](alpha complex128, x, y *Field[T]) {
	x.mustMatch(y)
	linalg.Axpy(alpha, x.Data, y.Data)
}

// Scale computes x *= alpha.
func Scale[T Scalar](alpha complex128, x *Field[T]) {
	linalg.Scale(alpha, x.Data)
}

// Sub computes dst = x - y.
func Sub[T Scalar](dst, x, y *Field[T]) {
	dst.mustMatch(x)
	dst.mustMatch(y)
	for i := range dst.Data {
		dst.Data[i] = x.Data[i] - y.Data[i]
	}
}

// IsZero reports whether all components of f are zero.
func (f *Field[T]) IsZero() bool {
	for _, v := range f.Data {
		if v != 0 {
			return false
		}
	}
	return true
}
