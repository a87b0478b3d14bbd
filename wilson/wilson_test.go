// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wilson

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/saintbenjamin/gpt/lattice"
)

func testGrid(t *testing.T, prec lattice.Precision) *lattice.Grid {
	t.Helper()
	g, err := lattice.NewGrid([]int{4, 2, 2, 4}, prec)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func testOperator(t *testing.T) *Operator[complex128] {
	t.Helper()
	g := testGrid(t, lattice.Double)
	u := RandomGauge[complex128](g, lattice.NewRNG("wilson"), 1)
	w, err := New(u, Params{Kappa: 0.137, Xi0: 1, Nu: 1, BoundaryPhases: []complex128{1, 1, 1, -1}})
	if err != nil {
		t.Fatal(err)
	}
	return w
}

func TestRandomGauge(t *testing.T) {
	g := testGrid(t, lattice.Double)
	for _, test := range []struct {
		scale    float64
		min, max float64
	}{
		{0, 1 - 1e-12, 1 + 1e-12},
		{0.1, 0.99, 1},
		{0.5, 0.9, 0.98},
		{1, 0.7, 0.9},
	} {
		u := RandomGauge[complex128](g, lattice.NewRNG("gauge"), test.scale)
		for x := 0; x < g.Sites(); x++ {
			for mu := 0; mu < g.Dims(); mu++ {
				l := u.Link(x, mu)
				var m [9]complex128
				copy(m[:], l)
				if d := det3(&m); cmplx.Abs(d-1) > 1e-12 {
					t.Fatalf("scale %v, link (%d, %d): determinant %v", test.scale, x, mu, d)
				}
				// U U† = 1
				for i := 0; i < 3; i++ {
					for j := 0; j < 3; j++ {
						var s complex128
						for k := 0; k < 3; k++ {
							s += l[3*i+k] * cmplx.Conj(l[3*j+k])
						}
						want := complex128(0)
						if i == j {
							want = 1
						}
						if cmplx.Abs(s-want) > 1e-12 {
							t.Fatalf("scale %v, link (%d, %d) is not unitary", test.scale, x, mu)
						}
					}
				}
			}
		}
		if p := u.Plaquette(); p < test.min || p > test.max {
			t.Errorf("scale %v: plaquette %v outside [%v, %v]", test.scale, p, test.min, test.max)
		}
	}
	if p := UnitGauge[complex128](g).Plaquette(); math.Abs(p-1) > 1e-14 {
		t.Errorf("unexpected plaquette %v of the unit gauge field", p)
	}
}

// TestExpI compares the exponential with its Taylor series.
func TestExpI(t *testing.T) {
	rng := lattice.NewRNG("expi")
	gen, exp := mat.NewDense(6, 6, nil), mat.NewDense(6, 6, nil)
	for n := 0; n < 10; n++ {
		var c [8]float64
		for a := range c {
			c[a] = 2 * rng.Uniform()
		}
		var h, got [9]complex128
		algebra(&h, &c)
		if tr := h[0] + h[4] + h[8]; cmplx.Abs(tr) > 1e-15 {
			t.Fatalf("generator has trace %v", tr)
		}
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				if h[3*i+j] != cmplx.Conj(h[3*j+i]) {
					t.Fatalf("generator is not Hermitian")
				}
			}
		}
		expI(&got, &h, gen, exp)

		// Σ_k (iH)^k / k!
		want := [9]complex128{1, 0, 0, 0, 1, 0, 0, 0, 1}
		term := want
		for k := 1; k < 30; k++ {
			var next [9]complex128
			for i := 0; i < 3; i++ {
				for j := 0; j < 3; j++ {
					var s complex128
					for l := 0; l < 3; l++ {
						s += term[3*i+l] * 1i * h[3*l+j]
					}
					next[3*i+j] = s / complex(float64(k), 0)
				}
			}
			term = next
			for i := range want {
				want[i] += term[i]
			}
		}
		for i := range want {
			if cmplx.Abs(got[i]-want[i]) > 1e-12 {
				t.Fatalf("exp(iH)[%d] = %v, want %v", i, got[i], want[i])
			}
		}
	}
}

func TestFreeField(t *testing.T) {
	g := testGrid(t, lattice.Double)
	const kappa = 0.1
	w, err := New(UnitGauge[complex128](g), Params{Kappa: kappa, Xi0: 1, Nu: 1})
	if err != nil {
		t.Fatal(err)
	}
	src := lattice.NewField[complex128](g, NComp)
	for x := 0; x < g.Sites(); x++ {
		s := src.Site(x)
		for k := range s {
			s[k] = complex(float64(k+1), float64(-k))
		}
	}
	dst := lattice.NewField[complex128](g, NComp)
	w.Apply(dst, src)
	// A constant field is an eigenvector with eigenvalue 1-8κ.
	for i, v := range dst.Data {
		if want := complex(1-8*kappa, 0) * src.Data[i]; cmplx.Abs(v-want) > 1e-13 {
			t.Fatalf("component %d: got %v, want %v", i, v, want)
		}
	}
}

func TestAdjoint(t *testing.T) {
	w := testOperator(t)
	g := w.Grid()
	rng := lattice.NewRNG("adjoint")
	x := lattice.NewField[complex128](g, NComp)
	y := lattice.NewField[complex128](g, NComp)
	lattice.CNormal(rng, x, y)

	dx := x.Like()
	w.Apply(dx, x)
	dy := y.Like()
	w.ApplyAdjoint(dy, y)
	lhs, rhs := lattice.Dot(y, dx), lattice.Dot(dy, x)
	if cmplx.Abs(lhs-rhs) > 1e-12*cmplx.Abs(lhs) {
		t.Errorf("<y, D x> = %v, <D† y, x> = %v", lhs, rhs)
	}

	// D† = γ5 D γ5.
	g5y, tmp, want := y.Like(), y.Like(), y.Like()
	Gamma5(g5y, y)
	w.Apply(tmp, g5y)
	Gamma5(want, tmp)
	for i := range want.Data {
		if cmplx.Abs(want.Data[i]-dy.Data[i]) > 1e-12 {
			t.Fatalf("γ5 hermiticity violated at component %d", i)
		}
	}
}

func TestBoundaryPhases(t *testing.T) {
	g := testGrid(t, lattice.Double)
	u := RandomGauge[complex128](g, lattice.NewRNG("phases"), 1)
	periodic, _ := New(u, Params{Kappa: 0.1, Xi0: 1, Nu: 1})
	anti, _ := New(u, Params{Kappa: 0.1, Xi0: 1, Nu: 1, BoundaryPhases: []complex128{1, 1, 1, -1}})
	src := lattice.NewField[complex128](g, NComp)
	lattice.CNormal(lattice.NewRNG("src"), src)
	a, b := src.Like(), src.Like()
	periodic.Apply(a, src)
	anti.Apply(b, src)
	c := make([]int, 4)
	for x := 0; x < g.Sites(); x++ {
		g.Coord(x, c)
		same := c[3] != 0 && c[3] != g.Len(3)-1
		for k := range a.Site(x) {
			diff := cmplx.Abs(a.Site(x)[k] - b.Site(x)[k])
			if same && diff > 1e-14 {
				t.Fatalf("site %v away from the boundary differs", c)
			}
			if !same && diff == 0 {
				t.Fatalf("site %v on the boundary does not differ", c)
			}
		}
	}
}

func TestConverted(t *testing.T) {
	w := testOperator(t)
	ws := Converted[complex64](w)
	if ws.Grid().Precision() != lattice.Single {
		t.Fatalf("unexpected precision %v", ws.Grid().Precision())
	}
	src := lattice.NewField[complex128](w.Grid(), NComp)
	lattice.CNormal(lattice.NewRNG("converted"), src)
	want := src.Like()
	w.Apply(want, src)

	src32 := lattice.Converted[complex64](src)
	got32 := src32.Like()
	ws.Apply(got32, src32)
	got := lattice.Converted[complex128](got32)
	lattice.Axpy(-1, want, got)
	if rel := got.Norm() / want.Norm(); rel > 1e-6 {
		t.Errorf("single and double precision operators differ by %v", rel)
	}
}

func TestParseParams(t *testing.T) {
	p, err := ParseParams(map[string]any{
		"kappa":           0.137,
		"csw_r":           0,
		"csw_t":           0,
		"xi_0":            1,
		"nu":              1,
		"isAnisotropic":   false,
		"boundary_phases": []any{1.0, 1.0, 1.0, 1.0},
	})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if p.Kappa != 0.137 || len(p.BoundaryPhases) != 4 {
		t.Errorf("unexpected params %+v", p)
	}

	for _, test := range []struct {
		m      map[string]any
		option string
	}{
		{map[string]any{"csw_r": 0}, "kappa"},
		{map[string]any{"kappa": 0.1, "csw_r": 1.0}, "csw_r"},
		{map[string]any{"kappa": 0.1, "isAnisotropic": true}, "isAnisotropic"},
		{map[string]any{"kappa": 0.1, "mass": 0.1}, "mass"},
		{map[string]any{"kappa": "0.1"}, "kappa"},
	} {
		_, err := ParseParams(test.m)
		var cerr *lattice.ConfigurationError
		if !errors.As(err, &cerr) || cerr.Option != test.option {
			t.Errorf("Case %v: unexpected error %v, want option %q", test.m, err, test.option)
		}
	}
}

func det3(m *[9]complex128) complex128 {
	return m[0]*(m[4]*m[8]-m[5]*m[7]) -
		m[1]*(m[3]*m[8]-m[5]*m[6]) +
		m[2]*(m[3]*m[7]-m[4]*m[6])
}

