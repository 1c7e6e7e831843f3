/*
Copyright © 2024 the fastws authors.
This file is part of fastws.

fastws is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

fastws is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with fastws.  If not, see <http://www.gnu.org/licenses/>.
*/

package fastws

import (
	"fmt"

	"github.com/ctessum/geom/proj"
)

// transformPoint reprojects (x, y) from sSRS to tSRS. An empty sSRS or
// tSRS, or sSRS == tSRS, is treated as "no reprojection needed" so callers
// can pass through the common case (point already in the raster CRS)
// without parsing any SR.
func transformPoint(x, y float64, sSRS, tSRS string) (float64, float64, error) {
	if sSRS == "" || tSRS == "" || sSRS == tSRS {
		return x, y, nil
	}
	source, err := proj.Parse(sSRS)
	if err != nil {
		return 0, 0, fmt.Errorf("fastws: parsing source SRS %q: %w", sSRS, err)
	}
	dest, err := proj.Parse(tSRS)
	if err != nil {
		return 0, 0, fmt.Errorf("fastws: parsing target SRS %q: %w", tSRS, err)
	}
	t, err := source.NewTransform(dest)
	if err != nil {
		return 0, 0, fmt.Errorf("fastws: building transform %q -> %q: %w", sSRS, tSRS, err)
	}
	tx, ty, err := t(x, y)
	if err != nil {
		return 0, 0, fmt.Errorf("fastws: transforming point (%v, %v): %w", x, y, err)
	}
	return tx, ty, nil
}
