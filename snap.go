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
	"github.com/bluegeo/fastws/raster"
)

// FindStreamOptions configures a call to FindStream.
type FindStreamOptions struct {
	Streams   *raster.Reader
	FlowDir   *raster.Reader
	FlowAccum *raster.Reader // optional; enables the returned area

	X, Y float64
	// SRS is the spatial reference of X, Y. Leave empty if it already
	// matches FlowDir's CRS.
	SRS string
}

// FindStream snaps (x, y) downstream along the D8 graph defined by fd to
// the nearest stream cell, returning its world cell-center coordinate
// (reprojected back to opts.SRS) and, if a flow-accumulation raster was
// supplied, the drainage area at that cell.
func FindStream(opts FindStreamOptions) (xSnap, ySnap, area float64, hasArea bool, err error) {
	x, y, err := transformPoint(opts.X, opts.Y, opts.SRS, opts.FlowDir.CRS())
	if err != nil {
		return 0, 0, 0, false, err
	}

	window, i, j, ierr := opts.FlowDir.IntersectingWindow(x, y)
	if ierr != nil {
		return 0, 0, 0, false, wrapErr(KindOffRaster, ierr, "point (%v, %v) is off the raster", opts.X, opts.Y)
	}

	fdData, rerr := opts.FlowDir.Read(window)
	if rerr != nil {
		return 0, 0, 0, false, wrapErr(KindOffRaster, rerr, "reading flow direction window")
	}
	code := int16(fdData[i][j])
	if !isFlowing(code) {
		return 0, 0, 0, false, newErr(KindBadDirectionValue, "point (%v, %v) has no downstream direction", opts.X, opts.Y)
	}

	streamsData, serr := opts.Streams.Read(window)
	if serr != nil {
		return 0, 0, 0, false, wrapErr(KindOffRaster, serr, "reading stream window")
	}
	mask := streamMask(streamsData, opts.Streams.Nodata())

	found, fi, fj := traceDownstream(mask, fdData, i, j)
	for !found {
		if fi >= 0 && fj >= 0 && fi < window.Height && fj < window.Width {
			// the tracer stopped inside the window: flow ends at a cell with
			// no downstream direction before any stream is reached
			return 0, 0, 0, false, newErr(KindNoStream, "flow from (%v, %v) stops before reaching a stream", opts.X, opts.Y)
		}
		nx, ny := opts.FlowDir.XYFromWindowIndex(fi, fj, window)
		var werr error
		window, i, j, werr = opts.FlowDir.IntersectingWindow(nx, ny)
		if werr != nil {
			return 0, 0, 0, false, wrapErr(KindNoStream, werr, "no stream reached from (%v, %v)", opts.X, opts.Y)
		}
		fdData, rerr = opts.FlowDir.Read(window)
		if rerr != nil {
			return 0, 0, 0, false, wrapErr(KindNoStream, rerr, "reading flow direction window")
		}
		streamsData, serr = opts.Streams.Read(window)
		if serr != nil {
			return 0, 0, 0, false, wrapErr(KindNoStream, serr, "reading stream window")
		}
		mask = streamMask(streamsData, opts.Streams.Nodata())
		found, fi, fj = traceDownstream(mask, fdData, i, j)
	}

	if opts.FlowAccum != nil {
		faData, aerr := opts.FlowAccum.Read(window)
		if aerr != nil {
			return 0, 0, 0, false, wrapErr(KindOffRaster, aerr, "reading flow accumulation window")
		}
		area = absFloat(faData[fi][fj]) * opts.FlowAccum.Csx() * opts.FlowAccum.Csy()
		hasArea = true
	}

	sx, sy := opts.FlowDir.XYFromWindowIndex(fi, fj, window)
	ox, oy, terr := transformPoint(sx, sy, opts.FlowDir.CRS(), opts.SRS)
	if terr != nil {
		return 0, 0, 0, false, terr
	}
	return ox, oy, area, hasArea, nil
}

func streamMask(data [][]float64, nodata float64) [][]bool {
	mask := make([][]bool, len(data))
	for i, row := range data {
		m := make([]bool, len(row))
		for j, v := range row {
			m[j] = v != nodata
		}
		mask[i] = m
	}
	return mask
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
