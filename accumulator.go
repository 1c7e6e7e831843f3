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
	"math"

	"github.com/bluegeo/fastws/raster"
)

// windowSlice locates a window's cells inside the accumulator's buffer.
type windowSlice struct {
	rowStart, colStart int
}

// WindowAccumulator is a dynamically-growing boolean mosaic aligned to a
// source raster's grid. It tracks which windows have been touched and
// where each one sits inside the current bounding rectangle, resizing
// (copy-into-larger-buffer) whenever a newly-registered window extends
// that rectangle.
//
// WindowAccumulator is single-owner: callers must not retain a reference
// to an old buffer across a call to AddWindow, since that call may replace
// it outright.
type WindowAccumulator struct {
	csx, csy                                     float64
	topAccum, bottomAccum, leftAccum, rightAccum float64
	buf                                           [][]bool
	windows                                       map[raster.Window]windowSlice
}

// roundHalfUp rounds x to the nearest integer, ties rounding away from
// zero. All mosaic bound/offset rounding in this type goes through this
// one helper so that successive resizes never disagree on whether a
// boundary belongs to the old or new bounds (spec.md §9, Open Question 4).
func roundHalfUp(x float64) int {
	if x >= 0 {
		return int(math.Floor(x + 0.5))
	}
	return -int(math.Floor(-x + 0.5))
}

// NewWindowAccumulator creates a mosaic whose initial bounds equal w's
// world extent.
func NewWindowAccumulator(r *raster.Reader, w raster.Window) *WindowAccumulator {
	ext := r.WindowExtent(w)
	a := &WindowAccumulator{
		csx: r.Csx(), csy: r.Csy(),
		topAccum: ext.Top, bottomAccum: ext.Bottom,
		leftAccum: ext.Left, rightAccum: ext.Right,
		buf:     make2D(w.Height, w.Width),
		windows: map[raster.Window]windowSlice{w: {0, 0}},
	}
	return a
}

func make2D(h, w int) [][]bool {
	buf := make([][]bool, h)
	for i := range buf {
		buf[i] = make([]bool, w)
	}
	return buf
}

// Contains reports whether w has already been registered in the mosaic.
func (a *WindowAccumulator) Contains(w raster.Window) bool {
	_, ok := a.windows[w]
	return ok
}

// Get returns the mosaic's current value for local cell (i, j) of
// registered window w.
func (a *WindowAccumulator) Get(w raster.Window, i, j int) bool {
	s := a.windows[w]
	return a.buf[s.rowStart+i][s.colStart+j]
}

// Set marks local cell (i, j) of registered window w.
func (a *WindowAccumulator) Set(w raster.Window, i, j int, v bool) {
	s := a.windows[w]
	a.buf[s.rowStart+i][s.colStart+j] = v
}

// AddWindow registers w with the mosaic, growing and re-slicing the
// backing buffer if w extends past the current bounds. It is a no-op if w
// is already registered.
func (a *WindowAccumulator) AddWindow(r *raster.Reader, w raster.Window) {
	if a.Contains(w) {
		return
	}
	ext := r.WindowExtent(w)

	newTop := math.Max(a.topAccum, ext.Top)
	newBottom := math.Min(a.bottomAccum, ext.Bottom)
	newLeft := math.Min(a.leftAccum, ext.Left)
	newRight := math.Max(a.rightAccum, ext.Right)

	newH := roundHalfUp((newTop - newBottom) / a.csy)
	newW := roundHalfUp((newRight - newLeft) / a.csx)
	newBuf := make2D(newH, newW)

	rowOffset := roundHalfUp((newTop - a.topAccum) / a.csy)
	colOffset := roundHalfUp((a.leftAccum - newLeft) / a.csx)

	newWindows := make(map[raster.Window]windowSlice, len(a.windows)+1)
	for win, slice := range a.windows {
		newSlice := windowSlice{rowStart: slice.rowStart + rowOffset, colStart: slice.colStart + colOffset}
		for i := 0; i < win.Height; i++ {
			copy(newBuf[newSlice.rowStart+i][newSlice.colStart:newSlice.colStart+win.Width],
				a.buf[slice.rowStart+i][slice.colStart:slice.colStart+win.Width])
		}
		newWindows[win] = newSlice
	}

	newWindows[w] = windowSlice{
		rowStart: roundHalfUp((newTop - ext.Top) / a.csy),
		colStart: roundHalfUp((ext.Left - newLeft) / a.csx),
	}

	a.buf = newBuf
	a.windows = newWindows
	a.topAccum, a.bottomAccum, a.leftAccum, a.rightAccum = newTop, newBottom, newLeft, newRight
}

// Materialize returns the final mosaic buffer and the world-space
// top-left/cell-size it is aligned to, for handoff to the vectorizer.
func (a *WindowAccumulator) Materialize() (buf [][]bool, left, top, csx, csy float64) {
	return a.buf, a.leftAccum, a.topAccum, a.csx, a.csy
}
