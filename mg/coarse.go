// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mg

import (
	"math"
	"math/cmplx"
	"sync"

	"github.com/saintbenjamin/gpt/block"
	"github.com/saintbenjamin/gpt/internal/dok"
	"github.com/saintbenjamin/gpt/internal/triplet"
	"github.com/saintbenjamin/gpt/lattice"
	"github.com/saintbenjamin/gpt/operator"
)

// Coarse is an explicitly assembled Galerkin operator P†AP. It couples every
// coarse site to itself and to its nearest neighbours through dense
// NBasis×NBasis links.
type Coarse[T lattice.Scalar] struct {
	grid      *lattice.Grid
	nb        int
	links     *triplet.Matrix[T]
	hermitian bool
}

// stencil returns the distinct sites at distance at most one from site along
// a single axis, site itself first.
func stencil(g *lattice.Grid, site int) []int {
	out := []int{site}
	for d := 0; d < g.Dims(); d++ {
		for _, dir := range []int{1, -1} {
			n := g.Neighbor(site, d, dir)
			dup := false
			for _, s := range out {
				if s == n {
					dup = true
					break
				}
			}
			if !dup {
				out = append(out, n)
			}
		}
	}
	return out
}

// period returns the smallest divisor of n that is at least min, or n.
func period(n, min int) int {
	for k := min; k < n; k++ {
		if n%k == 0 {
			return k
		}
	}
	return n
}

// axis holds what is needed to extract the links along one dimension of
// the coarse grid. Coarse sites are put into classes by their coordinate
// along dim modulo period. A unit vector on one class, promoted and
// multiplied by A, reaches a site of another class only through the links
// to its neighbours along dim.
type axis struct {
	dim    int
	period int
	// faces holds the fine sites on the forward and the backward face of
	// their block. Both are nil if blocks are one site thick along dim, so
	// that the faces coincide.
	faces [2][]int
}

func (a *axis) class(g *lattice.Grid, site int) int {
	return (site / g.Stride(a.dim)) % g.Len(a.dim) % a.period
}

// newAxes returns the axes along which coarse sites have neighbours other
// than themselves.
func newAxes(p *block.Partition) []axis {
	fine, coarse := p.Fine(), p.Coarse()
	bs := p.BlockSize()
	coord := make([]int, fine.Dims())
	var axes []axis
	for d := 0; d < coarse.Dims(); d++ {
		n := coarse.Len(d)
		if n == 1 {
			continue
		}
		if bs[d] == 1 {
			// The neighbours on both sides must fall into different
			// classes.
			axes = append(axes, axis{dim: d, period: period(n, 3)})
			continue
		}
		a := axis{dim: d, period: period(n, 2)}
		for s := 0; s < fine.Sites(); s++ {
			switch fine.Coord(s, coord)[d] % bs[d] {
			case bs[d] - 1:
				a.faces[0] = append(a.faces[0], s)
			case 0:
				a.faces[1] = append(a.faces[1], s)
			}
		}
		axes = append(axes, a)
	}
	return axes
}

// addColumn adds v to column j of the link from z to y.
func addColumn[T lattice.Scalar](links *dok.DOK[T], y, z, j int, v []T) {
	b := links.Block(y, z)
	for i, x := range v {
		b[i*links.BS+j] += x
	}
}

// NewCoarse assembles the coarse operator of fine with respect to the block
// map m. fine must couple only fine sites that are at most one step apart
// along a single axis. If hermitian is true, the links are replaced by their
// Hermitian part.
//
// The links to the neighbours along a dimension are read off from A applied
// to promoted unit vectors on one class of coarse sites at a time, keeping
// only the block faces that border the class. The diagonal links follow from
// A applied to the promoted unit vector on all sites, less the neighbour
// links. For an even coarse grid and blocks at least two sites thick this
// takes (2·Dims+1)·NBasis applications of A.
func NewCoarse[T lattice.Scalar](fine operator.Operator[T], m *block.Map[T], hermitian bool) (*Coarse[T], error) {
	if !fine.Grid().SameShape(m.FineGrid()) || fine.NComp() != m.NComp() {
		panic("mg: block map does not match the operator")
	}
	g := m.CoarseGrid()
	nb := m.NBasis()
	n := g.Sites()

	links := dok.New[T](n, n, nb)
	unit := m.NewCoarseField()
	out := m.NewCoarseField()
	x := m.NewFineField()
	ax := m.NewFineField()
	face := m.NewFineField()
	for _, a := range newAxes(m.Partition()) {
		d := a.dim
		for k := 0; k < a.period; k++ {
			for j := 0; j < nb; j++ {
				unit.Zero()
				for y := 0; y < n; y++ {
					if a.class(g, y) == k {
						unit.Data[y*nb+j] = 1
					}
				}
				m.Promote(x, unit)
				fine.Apply(ax, x)

				if a.faces[0] == nil {
					m.Project(out, ax)
					for y := 0; y < n; y++ {
						if a.class(g, y) == k {
							continue
						}
						// With two sites along d both neighbours are
						// the same site.
						for _, dir := range [2]int{1, -1} {
							if z := g.Neighbor(y, d, dir); a.class(g, z) == k {
								addColumn(links, y, z, j, out.Site(y))
								break
							}
						}
					}
					continue
				}
				for side, dir := range [2]int{1, -1} {
					face.Zero()
					for _, s := range a.faces[side] {
						copy(face.Site(s), ax.Site(s))
					}
					m.Project(out, face)
					for y := 0; y < n; y++ {
						z := g.Neighbor(y, d, dir)
						if a.class(g, y) == k || a.class(g, z) != k {
							continue
						}
						addColumn(links, y, z, j, out.Site(y))
					}
				}
			}
		}
	}

	stencils := make([][]int, n)
	for y := range stencils {
		stencils[y] = stencil(g, y)
	}
	for j := 0; j < nb; j++ {
		unit.Zero()
		for y := 0; y < n; y++ {
			unit.Data[y*nb+j] = 1
		}
		m.Promote(x, unit)
		fine.Apply(ax, x)
		m.Project(out, ax)
		for y := 0; y < n; y++ {
			col := out.Site(y)
			for _, z := range stencils[y][1:] {
				b := links.Block(y, z)
				for i := range col {
					col[i] -= b[i*nb+j]
				}
			}
			addColumn(links, y, y, j, col)
		}
	}

	// Couplings beyond the stencil go unnoticed above. Compare with the
	// Galerkin product on a random vector.
	lattice.CNormal(lattice.NewRNG("coarse operator"), unit)
	m.Promote(x, unit)
	fine.Apply(ax, x)
	m.Project(out, ax)
	want := out.Norm()
	lattice.Scale(-1, out)
	links.MulVec(out.Data, unit.Data)
	if diff := out.Norm(); diff > math.Sqrt(g.Precision().Eps())*want {
		return nil, lattice.NewConfigError(component, "save_links", "operator couples coarse sites beyond nearest neighbours (relative deviation %.3g)", diff/want)
	}
	if hermitian {
		makeHermitian(links, stencils)
	}
	return &Coarse[T]{
		grid:      g,
		nb:        nb,
		links:     links.Triplet(),
		hermitian: hermitian,
	}, nil
}

// makeHermitian replaces every pair of links B(y,z), B(z,y) by the Hermitian
// part (B(y,z) + B(z,y)†)/2 and its adjoint.
func makeHermitian[T lattice.Scalar](links *dok.DOK[T], stencils [][]int) {
	nb := links.BS
	for y, st := range stencils {
		for _, z := range st {
			if z < y {
				continue
			}
			a := links.Block(y, z)
			b := links.Block(z, y)
			for i := 0; i < nb; i++ {
				jmin := 0
				if y == z {
					jmin = i
				}
				for j := jmin; j < nb; j++ {
					h := (complex128(a[i*nb+j]) + cmplx.Conj(complex128(b[j*nb+i]))) / 2
					a[i*nb+j] = T(h)
					b[j*nb+i] = T(cmplx.Conj(h))
				}
			}
		}
	}
}

// Grid returns the coarse grid.
func (c *Coarse[T]) Grid() *lattice.Grid { return c.grid }

// NComp returns the number of basis vectors.
func (c *Coarse[T]) NComp() int { return c.nb }

// Hermitian reports whether the links were made Hermitian.
func (c *Coarse[T]) Hermitian() bool { return c.hermitian }

// Links returns the number of stored links.
func (c *Coarse[T]) Links() int { return c.links.NNZ() }

// Link returns the link from site z to site y, or nil if they are not
// coupled. The returned block must not be modified.
func (c *Coarse[T]) Link(y, z int) []T { return c.links.Block(y, z) }

// Apply implements operator.Operator.
func (c *Coarse[T]) Apply(dst, src *lattice.Field[T]) {
	c.links.MulVec(dst.Data, src.Data)
}

// ApplyAdjoint implements operator.Operator.
func (c *Coarse[T]) ApplyAdjoint(dst, src *lattice.Field[T]) {
	c.links.MulAdjVec(dst.Data, src.Data)
}

// Galerkin applies P†AP through the finer level without assembling it.
type Galerkin[T lattice.Scalar] struct {
	fine operator.Operator[T]
	m    *block.Map[T]

	mu   sync.Mutex
	x, y *lattice.Field[T]
}

// NewGalerkin returns the lazy coarse operator of fine with respect to m.
func NewGalerkin[T lattice.Scalar](fine operator.Operator[T], m *block.Map[T]) *Galerkin[T] {
	if !fine.Grid().SameShape(m.FineGrid()) || fine.NComp() != m.NComp() {
		panic("mg: block map does not match the operator")
	}
	return &Galerkin[T]{fine: fine, m: m, x: m.NewFineField(), y: m.NewFineField()}
}

// Grid returns the coarse grid.
func (g *Galerkin[T]) Grid() *lattice.Grid { return g.m.CoarseGrid() }

// NComp returns the number of basis vectors.
func (g *Galerkin[T]) NComp() int { return g.m.NBasis() }

// Apply implements operator.Operator.
func (g *Galerkin[T]) Apply(dst, src *lattice.Field[T]) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.m.Promote(g.x, src)
	g.fine.Apply(g.y, g.x)
	g.m.Project(dst, g.y)
}

// ApplyAdjoint implements operator.Operator.
func (g *Galerkin[T]) ApplyAdjoint(dst, src *lattice.Field[T]) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.m.Promote(g.x, src)
	g.fine.ApplyAdjoint(g.y, g.x)
	g.m.Project(dst, g.y)
}
