// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lattice

import (
	"strings"

	"github.com/saintbenjamin/gpt/linalg"
)

// Scalar is the set of element types a field may hold.
type Scalar = linalg.Scalar

// Precision is the floating-point precision of a grid and the fields on it.
type Precision int

const (
	Double Precision = iota
	Single
)

func (p Precision) String() string {
	switch p {
	case Double:
		return "double"
	case Single:
		return "single"
	}
	return "unknown"
}

// Eps returns the unit round-off of p.
func (p Precision) Eps() float64 {
	if p == Single {
		return 1.0 / (1 << 24)
	}
	return 1.0 / (1 << 53)
}

// ParsePrecision returns the precision named by s, "single" or "double".
func ParsePrecision(s string) (Precision, error) {
	switch strings.ToLower(s) {
	case "double":
		return Double, nil
	case "single":
		return Single, nil
	}
	return 0, NewConfigError("grid", "precision", "unknown precision %q", s)
}

// PrecisionOf returns the precision whose fields have elements of type T.
func PrecisionOf[T Scalar]() Precision {
	if linalg.IsSingle[T]() {
		return Single
	}
	return Double
}
