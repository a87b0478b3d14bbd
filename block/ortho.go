// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package block

import "github.com/saintbenjamin/gpt/lattice"

// OrthonormalizeGlobal orthonormalizes the fields of basis over the whole
// grid by modified Gram-Schmidt. A vector that is linearly dependent on its
// predecessors is reported as an OrthogonalityViolation with Block -1.
func OrthonormalizeGlobal[T lattice.Scalar](basis []*lattice.Field[T]) error {
	if len(basis) == 0 {
		return nil
	}
	eps := basis[0].Grid.Precision().Eps()
	for i, vi := range basis {
		orig := vi.Norm()
		for _, vj := range basis[:i] {
			lattice.Axpy(-lattice.Dot(vj, vi), vj, vi)
		}
		nrm := vi.Norm()
		if v := dependence(-1, i, nrm, orig, eps); v != nil {
			return v
		}
		lattice.Scale(complex(1/nrm, 0), vi)
	}
	return nil
}
