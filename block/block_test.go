// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package block

import (
	"errors"
	"fmt"
	"math/cmplx"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/saintbenjamin/gpt/lattice"
)

func mustGrid(t testing.TB, extent []int, prec lattice.Precision) *lattice.Grid {
	t.Helper()
	g, err := lattice.NewGrid(extent, prec)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestPartition(t *testing.T) {
	fine := mustGrid(t, []int{4, 6, 2, 4}, lattice.Double)
	p, err := NewPartition(fine, []int{2, 3, 1, 2})
	if err != nil {
		t.Fatal(err)
	}
	if !p.Coarse().SameShape(mustGrid(t, []int{2, 2, 2, 2}, lattice.Double)) {
		t.Fatalf("unexpected coarse grid %v", p.Coarse())
	}
	if p.BlockSites() != 12 {
		t.Errorf("unexpected block volume %d", p.BlockSites())
	}
	if diff := cmp.Diff([]int{2, 3, 1, 2}, p.BlockSize()); diff != "" {
		t.Errorf("block size mismatch (-want +got):\n%s", diff)
	}
	// The first block holds the sites with coordinates below the block
	// size in every dimension, in lexicographic order.
	var first []int
	for _, r := range p.Runs(0) {
		for s := r; s < r+p.RunLen(); s++ {
			first = append(first, fine.Coord(s, nil)...)
		}
	}
	var want []int
	for c3 := 0; c3 < 2; c3++ {
		for c2 := 0; c2 < 1; c2++ {
			for c1 := 0; c1 < 3; c1++ {
				for c0 := 0; c0 < 2; c0++ {
					want = append(want, c0, c1, c2, c3)
				}
			}
		}
	}
	if diff := cmp.Diff(want, first); diff != "" {
		t.Errorf("sites of block 0 mismatch (-want +got):\n%s", diff)
	}
	owner := make([]int, fine.Sites())
	for i := range owner {
		owner[i] = -1
	}
	for b := 0; b < p.Blocks(); b++ {
		for _, first := range p.Runs(b) {
			for s := first; s < first+p.RunLen(); s++ {
				if owner[s] != -1 {
					t.Fatalf("site %d belongs to blocks %d and %d", s, owner[s], b)
				}
				owner[s] = b
				if p.BlockOf(s) != b {
					t.Fatalf("BlockOf(%d) = %d, want %d", s, p.BlockOf(s), b)
				}
			}
		}
	}
	for s, b := range owner {
		if b == -1 {
			t.Fatalf("site %d belongs to no block", s)
		}
	}

	for _, bs := range [][]int{{3, 2, 1, 2}, {2, 2, 2}, {2, 4, 1, 2}} {
		_, err := NewPartition(fine, bs)
		if !errors.Is(err, lattice.ErrConfiguration) {
			t.Errorf("Case %v: unexpected error %v", bs, err)
		}
	}
}

func randomBasis[T lattice.Scalar](g *lattice.Grid, ncomp, n int, seed string) []*lattice.Field[T] {
	basis := lattice.NewFields[T](g, ncomp, n)
	lattice.CNormal(lattice.NewRNG(seed), basis...)
	return basis
}

func testMap[T lattice.Scalar](t testing.TB, fine, coarse []int, ncomp, n int, seed string) *Map[T] {
	t.Helper()
	prec := lattice.PrecisionOf[T]()
	m, err := NewMap(mustGrid(t, coarse, prec), randomBasis[T](mustGrid(t, fine, prec), ncomp, n, seed))
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func roundTripError[T lattice.Scalar](m *Map[T], seed string) float64 {
	c := m.NewCoarseField()
	lattice.CNormal(lattice.NewRNG(seed), c)
	f := m.NewFineField()
	m.Promote(f, c)
	got := m.NewCoarseField()
	m.Project(got, f)
	lattice.Axpy(-1, c, got)
	return got.Norm2() / c.Norm2()
}

func TestProjectPromote(t *testing.T) {
	for _, test := range []struct {
		fine, coarse []int
		ncomp, n     int
	}{
		{[]int{4, 4, 4, 4}, []int{2, 2, 2, 2}, 12, 6},
		{[]int{8, 4, 4, 8}, []int{4, 2, 2, 4}, 12, 30},
		{[]int{4, 2, 4, 2}, []int{4, 1, 2, 2}, 3, 4},
	} {
		m := testMap[complex128](t, test.fine, test.coarse, test.ncomp, test.n, "block_seed_string_13")
		for pass := 0; pass < 2; pass++ {
			if err := m.Orthonormalize(); err != nil {
				t.Fatalf("Case %v: unexpected error %v", test.fine, err)
			}
		}
		if err := m.CheckOrthonormality(DefaultTolerance(lattice.Double)); err != nil {
			t.Errorf("Case %v: %v", test.fine, err)
		}
		if err2 := roundTripError(m, "coarse"); err2 > 1e-24 {
			t.Errorf("Case %v: project∘promote relative error² %v", test.fine, err2)
		}
	}
}

func TestProjectPromoteSingle(t *testing.T) {
	fine, coarse := []int{16, 8, 8, 16}, []int{8, 4, 4, 8}
	if testing.Short() {
		fine, coarse = []int{8, 4, 4, 8}, []int{4, 2, 2, 4}
	}
	m := testMap[complex64](t, fine, coarse, 12, 30, "block_seed_string_13")
	for pass := 0; pass < 2; pass++ {
		if err := m.Orthonormalize(); err != nil {
			t.Fatalf("unexpected error %v", err)
		}
	}
	if err := m.CheckOrthonormality(DefaultTolerance(lattice.Single)); err != nil {
		t.Error(err)
	}
	if err2 := roundTripError(m, "coarse"); err2 > 1e-10 {
		t.Errorf("project∘promote relative error² %v", err2)
	}
}

func TestPromoteIsAdjoint(t *testing.T) {
	m := testMap[complex128](t, []int{4, 4, 2, 2}, []int{2, 2, 1, 1}, 12, 5, "adjoint")
	if err := m.Orthonormalize(); err != nil {
		t.Fatal(err)
	}
	rng := lattice.NewRNG("fields")
	c, f := m.NewCoarseField(), m.NewFineField()
	lattice.CNormal(rng, c, f)
	pc, pf := m.NewFineField(), m.NewCoarseField()
	m.Promote(pc, c)
	m.Project(pf, f)
	lhs, rhs := lattice.Dot(pc, f), lattice.Dot(c, pf)
	if cmplx.Abs(lhs-rhs) > 1e-12*cmplx.Abs(lhs) {
		t.Errorf("<promote c, f> = %v, <c, project f> = %v", lhs, rhs)
	}
}

func TestOrthonormalizeIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)
	properties.Property("block orthonormalization is idempotent", prop.ForAll(
		func(seed uint64, n int) bool {
			m := testMap[complex128](t, []int{4, 4, 2, 2}, []int{2, 2, 1, 2}, 12, n, fmt.Sprint(seed))
			if err := m.Orthonormalize(); err != nil {
				return false
			}
			before := append([]complex128(nil), m.vecs...)
			if err := m.Orthonormalize(); err != nil {
				return false
			}
			for i, v := range m.vecs {
				if cmplx.Abs(v-before[i]) > 1e-13 {
					return false
				}
			}
			return m.CheckOrthonormality(1e-12) == nil
		},
		gen.UInt64(),
		gen.IntRange(1, 20),
	))
	properties.TestingRun(t)
}

func TestOrthogonalityViolation(t *testing.T) {
	m := testMap[complex128](t, []int{4, 4, 2, 2}, []int{2, 2, 1, 1}, 12, 4, "violation")
	if err := m.CheckOrthonormality(1e-10); !errors.Is(err, lattice.ErrOrthogonality) {
		t.Errorf("unexpected error %v for a random basis", err)
	}
	if err := m.Orthonormalize(); err != nil {
		t.Fatal(err)
	}
	// Perturb one vector in block 3.
	m.row(3, 2)[0] += 1e-6
	err := m.CheckOrthonormality(1e-10)
	var v *lattice.OrthogonalityViolation
	if !errors.As(err, &v) || v.Block != 3 {
		t.Errorf("unexpected error %v", err)
	}

	// A repeated vector is linearly dependent.
	g := mustGrid(t, []int{4, 4, 2, 2}, lattice.Double)
	basis := randomBasis[complex128](g, 12, 3, "dependent")
	basis[2].CopyFrom(basis[0])
	dm, err := NewMap(mustGrid(t, []int{2, 2, 1, 1}, lattice.Double), basis)
	if err != nil {
		t.Fatal(err)
	}
	if err := dm.Orthonormalize(); !errors.As(err, &v) || v.I != 2 || v.Block != 0 {
		t.Errorf("unexpected error %v for a dependent basis", err)
	}
	checkDependent(t, v)
	if err := OrthonormalizeGlobal(basis); !errors.As(err, &v) || v.Block != -1 {
		t.Errorf("unexpected error %v for a dependent basis", err)
	}
	checkDependent(t, v)
}

func checkDependent(t *testing.T, v *lattice.OrthogonalityViolation) {
	t.Helper()
	if v == nil {
		return
	}
	tol := 100 * lattice.Double.Eps()
	if !v.Dependent || v.Tolerance != tol {
		t.Errorf("dependent vector reported as %+v, want tolerance %g", v, tol)
	}
	if v.Deviation < 0 || v.Deviation > v.Tolerance {
		t.Errorf("residual fraction %g outside [0, %g]", v.Deviation, v.Tolerance)
	}
	if !strings.Contains(v.Error(), "linearly dependent") {
		t.Errorf("unexpected message %q", v.Error())
	}
}

func TestOrthonormalizeGlobal(t *testing.T) {
	g := mustGrid(t, []int{4, 2, 2, 2}, lattice.Single)
	basis := randomBasis[complex64](g, 12, 8, "global")
	if err := OrthonormalizeGlobal(basis); err != nil {
		t.Fatal(err)
	}
	for i, vi := range basis {
		for j, vj := range basis[:i+1] {
			want := complex128(0)
			if i == j {
				want = 1
			}
			if d := lattice.Dot(vj, vi); cmplx.Abs(d-want) > 1e-5 {
				t.Errorf("<v%d, v%d> = %v", j, i, d)
			}
		}
	}
}

func TestNewMapErrors(t *testing.T) {
	basis := randomBasis[complex128](mustGrid(t, []int{4, 4}, lattice.Double), 2, 2, "errors")
	for _, coarse := range []*lattice.Grid{
		mustGrid(t, []int{3, 2}, lattice.Double),
		mustGrid(t, []int{2, 2, 1}, lattice.Double),
		mustGrid(t, []int{2, 2}, lattice.Single),
	} {
		if _, err := NewMap(coarse, basis); !errors.Is(err, lattice.ErrConfiguration) {
			t.Errorf("Case %v: unexpected error %v", coarse, err)
		}
	}
	if _, err := NewMap[complex128](mustGrid(t, []int{2, 2}, lattice.Double), nil); !errors.Is(err, lattice.ErrConfiguration) {
		t.Errorf("unexpected error %v for an empty basis", err)
	}
}
