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

package points

import (
	"testing"

	"github.com/ctessum/geom"
	"github.com/jonas-p/go-shp"
)

func TestFieldNameTrimsNullPadding(t *testing.T) {
	var name [11]byte
	copy(name[:], "basin_id")
	f := shp.Field{Name: name}
	if got := fieldName(f); got != "basin_id" {
		t.Fatalf("fieldName = %q, want %q", got, "basin_id")
	}
}

// TestFlattenCollapsesRings confirms a multipolygon with a polygon that
// itself carries a hole ring flattens into one shp.Polygon-compatible
// geom.Polygon carrying every ring from every part, since go-shp has no
// native multipolygon shape type.
func TestFlattenCollapsesRings(t *testing.T) {
	outerA := []geom.Point{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 0}}
	outerB := []geom.Point{{X: 5, Y: 5}, {X: 5, Y: 6}, {X: 6, Y: 6}, {X: 6, Y: 5}, {X: 5, Y: 5}}
	hole := []geom.Point{{X: 0.25, Y: 0.25}, {X: 0.25, Y: 0.75}, {X: 0.75, Y: 0.75}, {X: 0.75, Y: 0.25}, {X: 0.25, Y: 0.25}}

	mp := geom.MultiPolygon{
		geom.Polygon{outerA, hole},
		geom.Polygon{outerB},
	}

	flat := flatten(mp)
	if len(flat) != 3 {
		t.Fatalf("flatten produced %d rings, want 3 (2 outers + 1 hole)", len(flat))
	}
}
