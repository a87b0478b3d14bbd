// Copyright ©2020 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lattice

import (
	"fmt"

	"github.com/saintbenjamin/gpt/linalg"
)

// Convert copies src into dst, rounding or widening every component to the
// precision of dst. The grids of dst and src must have the same extent and
// the fields the same number of components.
func Convert[D, S Scalar](dst *Field[D], src *Field[S]) error {
	switch {
	case !dst.Grid.SameShape(src.Grid):
		return &PrecisionConversionError{Reason: fmt.Sprintf("extent %v and %v differ", dst.Grid.extent, src.Grid.extent)}
	case dst.NComp != src.NComp:
		return &PrecisionConversionError{Reason: fmt.Sprintf("%d and %d components per site", dst.NComp, src.NComp)}
	case len(dst.Data) != len(src.Data):
		return &PrecisionConversionError{Reason: fmt.Sprintf("data lengths %d and %d", len(dst.Data), len(src.Data))}
	}
	linalg.Convert(dst.Data, src.Data)
	return nil
}

// Converted returns a new field holding src in the precision of D.
func Converted[D, S Scalar](src *Field[S]) *Field[D] {
	dst := NewField[D](src.Grid.Converted(PrecisionOf[D]()), src.NComp)
	linalg.Convert(dst.Data, src.Data)
	return dst
}
