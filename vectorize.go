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
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/op"
	"github.com/ctessum/geom/proj"
)

// corner is an integer grid-lattice coordinate: corner{I, J} is the point
// shared by cells (I-1, J-1), (I-1, J), (I, J-1), and (I, J). Tracing
// topology in integer corner space (rather than world-space geom.Point)
// avoids float equality hazards when matching shared edges between cells.
type corner struct {
	I, J int
}

// Vectorize traces the boundary of every connected region of true cells in
// mask into a geom.MultiPolygon, one geom.Polygon per outer ring with its
// holes nested inside it, in world coordinates derived from the mosaic's
// left/top origin and cell size.
//
// The tracer walks, for every filled cell, whichever of its four edges
// border an unfilled (or off-grid) neighbor, then links those edges end to
// end into closed rings. A cell region connected only diagonally (the
// upstream kernel floods on 8-connectivity, so this can happen at a single
// pinch-point cell) produces a lattice corner with more than one
// unconsumed outgoing edge; the tracer takes the first one deterministically
// rather than attempting to disambiguate, which can locally merge two
// lobes of a ring at that corner. This matches the precision a boolean
// coverage mosaic affords and is cheaper than a full planar-graph
// resolution for a shape whose only consumer is an area/boundary export.
func Vectorize(mask [][]bool, left, top, csx, csy float64) (geom.MultiPolygon, error) {
	h := len(mask)
	if h == 0 {
		return geom.MultiPolygon{}, nil
	}
	w := len(mask[0])

	filled := func(i, j int) bool {
		if i < 0 || i >= h || j < 0 || j >= w {
			return false
		}
		return mask[i][j]
	}

	type edge struct{ from, to corner }
	var edges []edge
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			if !mask[i][j] {
				continue
			}
			if !filled(i-1, j) {
				edges = append(edges, edge{corner{i, j}, corner{i, j + 1}})
			}
			if !filled(i, j+1) {
				edges = append(edges, edge{corner{i, j + 1}, corner{i + 1, j + 1}})
			}
			if !filled(i+1, j) {
				edges = append(edges, edge{corner{i + 1, j + 1}, corner{i + 1, j}})
			}
			if !filled(i, j-1) {
				edges = append(edges, edge{corner{i + 1, j}, corner{i, j}})
			}
		}
	}
	if len(edges) == 0 {
		return geom.MultiPolygon{}, nil
	}

	outgoing := make(map[corner][]corner, len(edges))
	for _, e := range edges {
		outgoing[e.from] = append(outgoing[e.from], e.to)
	}

	visited := make(map[edge]bool, len(edges))
	var rings [][]corner
	for _, start := range edges {
		if visited[start] {
			continue
		}
		ring := []corner{start.from}
		cur := start
		for {
			visited[cur] = true
			ring = append(ring, cur.to)
			if cur.to == start.from {
				break
			}
			var next corner
			found := false
			for _, cand := range outgoing[cur.to] {
				if !visited[(edge{cur.to, cand})] {
					next = cand
					found = true
					break
				}
			}
			if !found {
				break
			}
			cur = edge{cur.to, next}
		}
		if len(ring) > 2 && ring[0] == ring[len(ring)-1] {
			rings = append(rings, ring)
		}
	}

	toWorld := func(c corner) geom.Point {
		return geom.Point{X: left + float64(c.J)*csx, Y: top - float64(c.I)*csy}
	}

	type ring struct {
		pts  []geom.Point
		area float64
	}
	var outers, holes []ring
	for _, r := range rings {
		pts := make([]geom.Point, len(r))
		for k, c := range r {
			pts[k] = toWorld(c)
		}
		a := signedArea(pts)
		rg := ring{pts: pts, area: a}
		// Outer boundaries are traced clockwise in world space (negative
		// signed area); hole boundaries run counter-clockwise.
		if a < 0 {
			outers = append(outers, rg)
		} else {
			holes = append(holes, rg)
		}
	}

	polys := make([]geom.Polygon, len(outers))
	for k, o := range outers {
		polys[k] = geom.Polygon{o.pts}
	}
	for _, hl := range holes {
		best := -1
		for k, o := range outers {
			if pointInRing(hl.pts[0], o.pts) && (best == -1 || math.Abs(o.area) < math.Abs(outers[best].area)) {
				best = k
			}
		}
		if best >= 0 {
			polys[best] = append(polys[best], hl.pts)
		}
	}
	return geom.MultiPolygon(polys), nil
}

func signedArea(pts []geom.Point) float64 {
	var a float64
	for i := 0; i < len(pts)-1; i++ {
		a += pts[i].X*pts[i+1].Y - pts[i+1].X*pts[i].Y
	}
	return a / 2
}

// pointInRing is a standard ray-casting point-in-polygon test, used to
// assign a hole ring to its smallest enclosing outer ring.
func pointInRing(p geom.Point, ring []geom.Point) bool {
	inside := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		pi, pj := ring[i], ring[j]
		if (pi.Y > p.Y) != (pj.Y > p.Y) &&
			p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			inside = !inside
		}
	}
	return inside
}

// smoothMask applies a morphological closing (dilate then erode) to the
// coverage mask with a square structuring element sized to distance world
// units, rounding the radius to the nearest whole cell. This trades a
// sub-cell-accurate buffer for one the corpus can express without a
// geometric buffer operator: ctessum/geom has boolean set ops (via
// polyclip-go) but no Minkowski buffer, so smoothing is done on the raster
// mosaic before vectorizing rather than on the traced polygon.
func smoothMask(mask [][]bool, distance, csx, csy float64) [][]bool {
	r := roundHalfUp(distance / math.Max(csx, csy))
	if r <= 0 {
		return mask
	}
	return erode(dilate(mask, r), r)
}

func dilate(mask [][]bool, r int) [][]bool {
	h := len(mask)
	w := 0
	if h > 0 {
		w = len(mask[0])
	}
	out := make2D(h, w)
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			if !mask[i][j] {
				continue
			}
			for di := -r; di <= r; di++ {
				for dj := -r; dj <= r; dj++ {
					ti, tj := i+di, j+dj
					if ti < 0 || ti >= h || tj < 0 || tj >= w {
						continue
					}
					out[ti][tj] = true
				}
			}
		}
	}
	return out
}

func erode(mask [][]bool, r int) [][]bool {
	h := len(mask)
	w := 0
	if h > 0 {
		w = len(mask[0])
	}
	out := make2D(h, w)
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			all := true
			for di := -r; di <= r && all; di++ {
				for dj := -r; dj <= r; dj++ {
					ti, tj := i+di, j+dj
					if ti < 0 || ti >= h || tj < 0 || tj >= w || !mask[ti][tj] {
						all = false
						break
					}
				}
			}
			out[i][j] = all
		}
	}
	return out
}

// simplifyMultiPolygon runs the Pallero line-simplification op the corpus
// already uses for this exact geom.Geom family.
func simplifyMultiPolygon(mp geom.MultiPolygon, tolerance float64) (geom.MultiPolygon, error) {
	g, err := op.Simplify(mp, tolerance)
	if err != nil {
		return nil, fmt.Errorf("fastws: simplifying watershed polygon: %w", err)
	}
	out, ok := g.(geom.MultiPolygon)
	if !ok {
		return nil, fmt.Errorf("fastws: simplify returned unexpected type %T", g)
	}
	return out, nil
}

// reprojectMultiPolygon reprojects every vertex of mp from srcSRS to
// dstSRS.
func reprojectMultiPolygon(mp geom.MultiPolygon, srcSRS, dstSRS string) (geom.MultiPolygon, error) {
	if srcSRS == "" || dstSRS == "" || srcSRS == dstSRS {
		return mp, nil
	}
	source, err := proj.Parse(srcSRS)
	if err != nil {
		return nil, fmt.Errorf("fastws: parsing source SRS %q: %w", srcSRS, err)
	}
	dest, err := proj.Parse(dstSRS)
	if err != nil {
		return nil, fmt.Errorf("fastws: parsing target SRS %q: %w", dstSRS, err)
	}
	t, err := source.NewTransform(dest)
	if err != nil {
		return nil, fmt.Errorf("fastws: building transform %q -> %q: %w", srcSRS, dstSRS, err)
	}

	out := make(geom.MultiPolygon, len(mp))
	for pi, poly := range mp {
		np := make(geom.Polygon, len(poly))
		for ri, ringPts := range poly {
			nr := make([]geom.Point, len(ringPts))
			for k, pt := range ringPts {
				x, y, terr := t(pt.X, pt.Y)
				if terr != nil {
					return nil, fmt.Errorf("fastws: reprojecting vertex (%v, %v): %w", pt.X, pt.Y, terr)
				}
				nr[k] = geom.Point{X: x, Y: y}
			}
			np[ri] = nr
		}
		out[pi] = np
	}
	return out, nil
}
