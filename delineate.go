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
	"github.com/ctessum/geom"

	"github.com/bluegeo/fastws/raster"
)

// DelineateOptions configures a call to Delineate.
type DelineateOptions struct {
	Streams   *raster.Reader
	FlowDir   *raster.Reader
	FlowAccum *raster.Reader // optional

	X, Y float64
	// SRS is the spatial reference of X, Y; empty means it already matches
	// FlowDir's CRS.
	SRS string
	// OutSRS, if set, reprojects every output polygon vertex to this SRS.
	OutSRS string

	Snap bool // snap (X, Y) downstream to a stream cell before delineating

	Simplify float64 // Douglas-Peucker tolerance; 0 disables simplification
	Smooth   float64 // buffer distance for smoothing; 0 disables smoothing
}

// Delineate computes the watershed polygon above (x, y), returning the
// (possibly snapped) point, the polygon's area in the raster's CRS units,
// and the polygon itself as a GeoJSON-shaped multipolygon.
func Delineate(opts DelineateOptions) (outX, outY, area float64, mp geom.MultiPolygon, err error) {
	if !opts.FlowDir.Matches(opts.Streams) {
		return 0, 0, 0, nil, newErr(KindRasterMismatch, "stream and flow-direction rasters must match")
	}

	x, y, srs := opts.X, opts.Y, opts.SRS
	if opts.Snap {
		sx, sy, _, _, serr := FindStream(FindStreamOptions{
			Streams: opts.Streams, FlowDir: opts.FlowDir, FlowAccum: opts.FlowAccum,
			X: x, Y: y, SRS: srs,
		})
		if serr != nil {
			return 0, 0, 0, nil, serr
		}
		x, y = sx, sy
	}

	rx, ry, terr := transformPoint(x, y, srs, opts.FlowDir.CRS())
	if terr != nil {
		return 0, 0, 0, nil, terr
	}

	window, i, j, werr := opts.FlowDir.IntersectingWindow(rx, ry)
	if werr != nil {
		return 0, 0, 0, nil, wrapErr(KindOffRaster, werr, "point (%v, %v) is off the raster", x, y)
	}

	coverage := NewWindowAccumulator(opts.FlowDir, window)
	coverage.Set(window, i, j, true)
	stacks := map[raster.Window][]cellIdx{window: {{I: i, J: j}}}

	current := window
	for {
		data, rerr := opts.FlowDir.Read(current)
		if rerr != nil {
			return 0, 0, 0, nil, wrapErr(KindOffRaster, rerr, "reading flow direction window %+v", current)
		}

		basin, edges := upstreamKernel(data, stacks[current], nil)
		stacks[current] = nil
		for _, c := range basin {
			coverage.Set(current, c.I, c.J, true)
		}

		for _, bucket := range partitionEdges(edges, current.Height, current.Width) {
			if len(bucket) == 0 {
				continue
			}
			if err := handleEdgeBucket(opts.FlowDir, coverage, stacks, current, bucket); err != nil {
				return 0, 0, 0, nil, err
			}
		}

		next, ok := nextWindow(stacks)
		if !ok {
			break
		}
		current = next
	}

	buf, left, top, csx, csy := coverage.Materialize()
	if opts.Smooth > 0 {
		buf = smoothMask(buf, opts.Smooth, csx, csy)
	}

	mp, verr := Vectorize(buf, left, top, csx, csy)
	if verr != nil {
		return 0, 0, 0, nil, verr
	}

	if opts.Simplify > 0 {
		mp, verr = simplifyMultiPolygon(mp, opts.Simplify)
		if verr != nil {
			return 0, 0, 0, nil, verr
		}
	}
	area = mp.Area()

	if opts.OutSRS != "" {
		mp, verr = reprojectMultiPolygon(mp, opts.FlowDir.CRS(), opts.OutSRS)
		if verr != nil {
			return 0, 0, 0, nil, verr
		}
	}

	return x, y, area, mp, nil
}

// handleEdgeBucket resolves one directional bucket of out-of-window edges:
// it locates the adjacent window, translates the edges into that window's
// local coordinates, verifies each against the neighbor's actual flow
// direction, and pushes the verified survivors onto that window's stack.
// An adjacent window that does not exist (the watershed runs off the data)
// is the one expected failure mode here and is silently absorbed, per
// spec.md §4.5/§4.8.
func handleEdgeBucket(fd *raster.Reader, coverage *WindowAccumulator, stacks map[raster.Window][]cellIdx, current raster.Window, bucket []edgeCell) error {
	rep := bucket[0]
	wx, wy := fd.XYFromWindowIndex(rep.I, rep.J, current)
	nextWin, ni, nj, werr := fd.IntersectingWindow(wx, wy)
	if werr != nil {
		return nil // off-raster: watershed is truncated at the data edge
	}
	di, dj := ni-rep.I, nj-rep.J

	nextData, rerr := fd.Read(nextWin)
	if rerr != nil {
		return wrapErr(KindOffRaster, rerr, "reading hand-off window %+v", nextWin)
	}

	coverage.AddWindow(fd, nextWin)
	for _, e := range bucket {
		ti, tj := e.I+di, e.J+dj
		if ti < 0 || ti >= nextWin.Height || tj < 0 || tj >= nextWin.Width {
			continue
		}
		if int16(nextData[ti][tj]) != e.Dir {
			continue
		}
		if coverage.Get(nextWin, ti, tj) {
			continue // already covered: skip re-enqueueing (mosaic dedupe)
		}
		coverage.Set(nextWin, ti, tj, true)
		stacks[nextWin] = append(stacks[nextWin], cellIdx{I: ti, J: tj})
	}
	return nil
}

// partitionEdges buckets out-of-window edges into the eight directions
// relative to a window of the given height/width, per spec.md §4.5 step 4.
// Bucket order: N, S, W, E, NW, NE, SW, SE.
func partitionEdges(edges []edgeCell, h, w int) [8][]edgeCell {
	var buckets [8][]edgeCell
	for _, e := range edges {
		top := e.I < 0
		bottom := e.I == h
		left := e.J < 0
		right := e.J == w
		switch {
		case top && left:
			buckets[4] = append(buckets[4], e)
		case top && right:
			buckets[5] = append(buckets[5], e)
		case bottom && left:
			buckets[6] = append(buckets[6], e)
		case bottom && right:
			buckets[7] = append(buckets[7], e)
		case top:
			buckets[0] = append(buckets[0], e)
		case bottom:
			buckets[1] = append(buckets[1], e)
		case left:
			buckets[2] = append(buckets[2], e)
		case right:
			buckets[3] = append(buckets[3], e)
		}
	}
	return buckets
}

// nextWindow picks any window with a non-empty pending stack. The
// orchestrator's choice here is unspecified by spec.md §5; output is
// invariant under it since the mosaic is a set of cells.
func nextWindow(stacks map[raster.Window][]cellIdx) (raster.Window, bool) {
	for w, s := range stacks {
		if len(s) > 0 {
			return w, true
		}
	}
	return raster.Window{}, false
}
