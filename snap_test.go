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
	"testing"

	"github.com/bluegeo/fastws/raster"
)

// gridReader builds a single-block in-memory reader over grid, with
// top-left world origin (0, float64(len(grid))) and unit cells, matching
// the csx=csy=1 convention spec.md's scenarios use.
func gridReader(t *testing.T, grid [][]float64, nodata float64) *raster.Reader {
	t.Helper()
	h := len(grid)
	w := 0
	if h > 0 {
		w = len(grid[0])
	}
	r, err := raster.NewMemory(raster.Meta{
		Height: h, Width: w, BlockHeight: h, BlockWidth: w,
		Left: 0, Top: float64(h), Csx: 1, Csy: 1, Nodata: nodata,
	}, grid)
	if err != nil {
		t.Fatalf("raster.NewMemory: %v", err)
	}
	return r
}

// multiBlockReader is like gridReader but tiles the grid into bh x bw
// blocks, for hand-off tests.
func multiBlockReader(t *testing.T, grid [][]float64, nodata float64, bh, bw int) *raster.Reader {
	t.Helper()
	h := len(grid)
	w := 0
	if h > 0 {
		w = len(grid[0])
	}
	r, err := raster.NewMemory(raster.Meta{
		Height: h, Width: w, BlockHeight: bh, BlockWidth: bw,
		Left: 0, Top: float64(h), Csx: 1, Csy: 1, Nodata: nodata,
	}, grid)
	if err != nil {
		t.Fatalf("raster.NewMemory: %v", err)
	}
	return r
}

func streamGridFromMask(mask [][]bool) [][]float64 {
	// streams use "value != nodata" as the stream test; encode true as 1,
	// false as the nodata sentinel (-1) so streamMask's nodata comparison
	// recovers the boolean mask exactly.
	out := make([][]float64, len(mask))
	for i, row := range mask {
		r := make([]float64, len(row))
		for j, v := range row {
			if v {
				r[j] = 1
			} else {
				r[j] = -1
			}
		}
		out[i] = r
	}
	return out
}

func TestFindStreamSnapsWithinOneWindow(t *testing.T) {
	fd := [][]float64{
		{6, 0, 0},
		{6, 0, 0},
		{0, 0, 0},
	}
	streams := streamGridFromMask([][]bool{
		{false, false, false},
		{false, false, false},
		{true, false, false},
	})
	fdR := gridReader(t, fd, -1)
	streamR := gridReader(t, streams, -1)

	x, y, _, hasArea, err := FindStream(FindStreamOptions{
		// query lands in cell (0,0): x = 0.5, y = top(3) - 0 - 0.5 = 2.5
		Streams: streamR, FlowDir: fdR, X: 0.5, Y: 2.5,
	})
	if err != nil {
		t.Fatalf("FindStream: %v", err)
	}
	if hasArea {
		t.Fatalf("FindStream reported an area with no accumulation raster supplied")
	}
	// cell (2,0) center: x = 0+0*1+0.5 = 0.5, y = 3-2*1-0.5 = 0.5
	if x != 0.5 || y != 0.5 {
		t.Fatalf("FindStream snapped to (%v, %v), want (0.5, 0.5)", x, y)
	}
}

func TestFindStreamReportsAreaWhenAccumulationSupplied(t *testing.T) {
	fd := [][]float64{{6}, {0}}
	streams := streamGridFromMask([][]bool{{false}, {true}})
	accum := [][]float64{{0}, {4}}

	fdR := gridReader(t, fd, -1)
	streamR := gridReader(t, streams, -1)
	accumR := gridReader(t, accum, -9999)

	_, _, area, hasArea, err := FindStream(FindStreamOptions{
		// query lands in cell (0,0) of a 2-row grid: y = top(2) - 0 - 0.5 = 1.5
		Streams: streamR, FlowDir: fdR, FlowAccum: accumR, X: 0.5, Y: 1.5,
	})
	if err != nil {
		t.Fatalf("FindStream: %v", err)
	}
	if !hasArea {
		t.Fatalf("FindStream did not report an area with an accumulation raster supplied")
	}
	if area != 4 {
		t.Fatalf("area = %v, want 4 (|fa|*csx*csy with csx=csy=1)", area)
	}
}

func TestFindStreamBadDirectionAtQueryCell(t *testing.T) {
	fd := [][]float64{{0, 0}, {0, 0}}
	streams := streamGridFromMask([][]bool{{false, false}, {false, false}})
	fdR := gridReader(t, fd, -1)
	streamR := gridReader(t, streams, -1)

	_, _, _, _, err := FindStream(FindStreamOptions{Streams: streamR, FlowDir: fdR, X: 0.5, Y: 1.5})
	if !IsKind(err, KindBadDirectionValue) {
		t.Fatalf("FindStream error = %v, want KindBadDirectionValue", err)
	}
}

func TestFindStreamNoStreamWhenFlowRunsOffRaster(t *testing.T) {
	// Flows east off the raster edge without ever reaching a stream cell.
	fd := [][]float64{{8, 8}}
	streams := streamGridFromMask([][]bool{{false, false}})
	fdR := gridReader(t, fd, -1)
	streamR := gridReader(t, streams, -1)

	_, _, _, _, err := FindStream(FindStreamOptions{Streams: streamR, FlowDir: fdR, X: 0.5, Y: 0.5})
	if !IsKind(err, KindNoStream) {
		t.Fatalf("FindStream error = %v, want KindNoStream", err)
	}
}

// TestFindStreamCrossesWindowBoundary builds a 4x2 grid split into two 2x2
// blocks stacked vertically, with a stream cell only in the lower block,
// confirming the snapper reloads the adjacent window when the tracer exits
// the seed window without having reached a stream.
func TestFindStreamCrossesWindowBoundary(t *testing.T) {
	fd := [][]float64{
		{6, 6},
		{6, 6},
		{6, 6},
		{0, 0},
	}
	streams := streamGridFromMask([][]bool{
		{false, false},
		{false, false},
		{false, false},
		{true, true},
	})
	fdR := multiBlockReader(t, fd, -1, 2, 2)
	streamR := multiBlockReader(t, streams, -1, 2, 2)

	// query lands in cell (0,0) of a 4-row grid: y = top(4) - 0 - 0.5 = 3.5
	x, y, _, _, err := FindStream(FindStreamOptions{Streams: streamR, FlowDir: fdR, X: 0.5, Y: 3.5})
	if err != nil {
		t.Fatalf("FindStream: %v", err)
	}
	if x != 0.5 || y != 0.5 {
		t.Fatalf("FindStream snapped to (%v, %v), want the row-3 cell center (0.5, 0.5)", x, y)
	}
}
