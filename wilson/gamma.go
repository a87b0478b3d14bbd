// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wilson

// gamma is a Dirac matrix in the chiral basis. Every row has exactly one
// non-zero entry, so
//  (γ ψ)_s = phase[s] ψ_perm[s].
type gamma struct {
	perm  [4]int
	phase [4]complex128
}

// gammas holds γ_x, γ_y, γ_z and γ_t.
var gammas = [4]gamma{
	{perm: [4]int{3, 2, 1, 0}, phase: [4]complex128{1i, 1i, -1i, -1i}},
	{perm: [4]int{3, 2, 1, 0}, phase: [4]complex128{-1, 1, 1, -1}},
	{perm: [4]int{2, 3, 0, 1}, phase: [4]complex128{1i, -1i, -1i, 1i}},
	{perm: [4]int{2, 3, 0, 1}, phase: [4]complex128{1, 1, 1, 1}},
}

// gamma5 is diagonal with entries (1, 1, -1, -1).
var gamma5 = [4]complex128{1, 1, -1, -1}
