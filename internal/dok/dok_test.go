// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dok

import (
	"math/cmplx"
	"testing"
)

func TestDOKMatchesTriplet(t *testing.T) {
	m := New[complex128](3, 3, 2)
	m.SetAt(0, 0, 0, 0, 1)
	m.SetAt(0, 0, 1, 1, 2)
	m.SetAt(0, 2, 0, 1, 1i)
	m.SetAt(2, 1, 1, 0, -3)
	m.Block(1, 1)[3] = 5
	if m.Len() != 4 {
		t.Fatalf("unexpected block count %v", m.Len())
	}
	if m.At(2, 2) != nil {
		t.Errorf("unexpected block at (2,2)")
	}

	x := []complex128{1, 2, 3, 4, 5, 6}
	want := make([]complex128, 6)
	m.MulVec(want, x)
	got := make([]complex128, 6)
	m.Triplet().MulVec(got, x)
	for i := range got {
		if cmplx.Abs(got[i]-want[i]) > 1e-14 {
			t.Errorf("MulVec mismatch at %d: got %v, want %v", i, got[i], want[i])
		}
	}
	// Row 0: [1 0 | 0 0 | 0 i] and [0 2 | 0 0 | 0 0].
	if want[0] != 1+6i || want[1] != 4 {
		t.Errorf("unexpected product %v", want[:2])
	}

	wantAdj := make([]complex128, 6)
	m.MulAdjVec(wantAdj, x)
	gotAdj := make([]complex128, 6)
	m.Triplet().MulAdjVec(gotAdj, x)
	for i := range gotAdj {
		if cmplx.Abs(gotAdj[i]-wantAdj[i]) > 1e-14 {
			t.Errorf("MulAdjVec mismatch at %d: got %v, want %v", i, gotAdj[i], wantAdj[i])
		}
	}
}
