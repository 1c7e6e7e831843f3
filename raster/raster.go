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

package raster

import (
	"fmt"
	"math"
	"strings"
)

// Meta describes the static geospatial properties of a raster: its grid
// dimensions, affine transform (north-up, axis-aligned), nodata sentinel,
// block layout, and coordinate reference system.
type Meta struct {
	Height, Width           int
	BlockHeight, BlockWidth int
	Left, Top, Csx, Csy     float64
	Nodata                  float64
	CRS                     string
}

// blockSource supplies the raw cell values of one block at a time. Reader
// composes a blockSource with window-cache and coordinate-conversion
// semantics; different blockSource implementations back local files,
// in-memory grids (for tests), and remote object storage.
type blockSource interface {
	Meta() Meta
	ReadBlock(w Window) ([][]float64, error)
	Close() error
}

// Reader is a tiled raster reader. It caches decoded windows for the
// lifetime of the reader and is not safe for concurrent use by multiple
// goroutines without external synchronization, per the single-owner
// resource model of the delineation engine.
type Reader struct {
	src     blockSource
	meta    Meta
	windows []Window
	cache   map[Window][][]float64
}

func newReader(src blockSource) (*Reader, error) {
	meta := src.Meta()
	if meta.BlockHeight <= 0 || meta.BlockWidth <= 0 {
		return nil, &notTiledError{}
	}
	r := &Reader{
		src:     src,
		meta:    meta,
		windows: blockWindows(meta.Height, meta.Width, meta.BlockHeight, meta.BlockWidth),
		cache:   make(map[Window][][]float64),
	}
	return r, nil
}

// notTiledError is returned, unwrapped, when a source reports no block
// layout. Callers identify it with IsNotTiled; the fastws package does not
// map it to a fastws.Kind.
type notTiledError struct{}

func (e *notTiledError) Error() string { return "raster source is not tiled" }

// IsNotTiled reports whether err indicates a non-tiled source, for callers
// that open rasters directly through this package.
func IsNotTiled(err error) bool {
	_, ok := err.(*notTiledError)
	return ok
}

func (r *Reader) Height() int      { return r.meta.Height }
func (r *Reader) Width() int       { return r.meta.Width }
func (r *Reader) Left() float64    { return r.meta.Left }
func (r *Reader) Top() float64     { return r.meta.Top }
func (r *Reader) Csx() float64     { return r.meta.Csx }
func (r *Reader) Csy() float64     { return r.meta.Csy }
func (r *Reader) Nodata() float64  { return r.meta.Nodata }
func (r *Reader) CRS() string      { return r.meta.CRS }
func (r *Reader) Meta() Meta       { return r.meta }

// BlockWindows returns every window in the raster's block layout, in the
// same order the reference intersecting-window search iterates them.
func (r *Reader) BlockWindows() []Window { return r.windows }

// WindowExtent returns the world-space bounding box of w.
func (r *Reader) WindowExtent(w Window) Extent {
	return windowExtent(w, r.meta.Top, r.meta.Left, r.meta.Csx, r.meta.Csy)
}

// Read returns the decoded cell values of window w, reusing a cached
// buffer for repeated reads of the same window.
func (r *Reader) Read(w Window) ([][]float64, error) {
	if data, ok := r.cache[w]; ok {
		return data, nil
	}
	data, err := r.src.ReadBlock(w)
	if err != nil {
		return nil, fmt.Errorf("raster: reading block %+v: %w", w, err)
	}
	r.cache[w] = data
	return data, nil
}

// IntersectingWindow returns the block containing world point (x, y) and
// the local (i, j) index of that point within the block. The bounding test
// is inclusive on all four sides; a point on a shared edge resolves to
// whichever block is encountered first in block-layout order.
func (r *Reader) IntersectingWindow(x, y float64) (Window, int, int, error) {
	for _, w := range r.windows {
		ext := r.WindowExtent(w)
		if y <= ext.Top && y >= ext.Bottom && x >= ext.Left && x <= ext.Right {
			i := int(math.Floor((ext.Top - y) / r.meta.Csy))
			j := int(math.Floor((x - ext.Left) / r.meta.Csx))
			return w, i, j, nil
		}
	}
	return Window{}, 0, 0, fmt.Errorf("raster: no window intersects point (%v, %v)", x, y)
}

// XYFromWindowIndex returns the cell-center world coordinate of the cell at
// local index (i, j) relative to w. The formula is valid for i, j outside
// [0, w.Height) x [0, w.Width), since callers use it to locate the window
// adjacent to an out-of-range index.
func (r *Reader) XYFromWindowIndex(i, j int, w Window) (x, y float64) {
	halfCsy := r.meta.Csy / 2.0
	halfCsx := r.meta.Csx / 2.0
	y = r.meta.Top - float64(w.RowOff+i)*r.meta.Csy - halfCsy
	x = r.meta.Left + float64(w.ColOff+j)*r.meta.Csx + halfCsx
	return x, y
}

// CoordToIdx converts a world coordinate to a global grid index.
func (r *Reader) CoordToIdx(x, y float64) (i, j int, err error) {
	i = int(math.Floor((r.meta.Top - y) / r.meta.Csy))
	j = int(math.Floor((x - r.meta.Left) / r.meta.Csx))
	if i < 0 || j < 0 || i >= r.meta.Height || j >= r.meta.Width {
		return 0, 0, fmt.Errorf("raster: location (%v, %v) off raster map", x, y)
	}
	return i, j, nil
}

// Matches reports whether r and other share the same bounds (within one
// cell), CRS, and dimensions.
func (r *Reader) Matches(other *Reader) bool {
	if r.meta.Height != other.meta.Height || r.meta.Width != other.meta.Width {
		return false
	}
	if !strings.EqualFold(r.meta.CRS, other.meta.CRS) {
		return false
	}
	tol := func(a, b, cell float64) bool { return math.Abs(a-b) <= cell }
	return tol(r.meta.Left, other.meta.Left, r.meta.Csx) &&
		tol(r.meta.Top, other.meta.Top, r.meta.Csy) &&
		tol(r.meta.Left+float64(r.meta.Width)*r.meta.Csx, other.meta.Left+float64(other.meta.Width)*other.meta.Csx, r.meta.Csx) &&
		tol(r.meta.Top-float64(r.meta.Height)*r.meta.Csy, other.meta.Top-float64(other.meta.Height)*other.meta.Csy, r.meta.Csy)
}

// Close releases any resources (file handles, memory-mapped regions, or
// temporary files from a remote fetch) held by the underlying source.
func (r *Reader) Close() error { return r.src.Close() }
