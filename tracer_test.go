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

import "testing"

func boolGrid(rows ...[]bool) [][]bool { return rows }
func floatGrid(rows ...[]float64) [][]float64 { return rows }

func TestTraceDownstreamReachesStream(t *testing.T) {
	// A straight 3-cell chain flowing south (code 6) into a stream cell.
	fd := floatGrid(
		[]float64{6, 0, 0},
		[]float64{6, 0, 0},
		[]float64{0, 0, 0},
	)
	mask := boolGrid(
		[]bool{false, false, false},
		[]bool{false, false, false},
		[]bool{true, false, false},
	)
	found, i, j := traceDownstream(mask, fd, 0, 0)
	if !found || i != 2 || j != 0 {
		t.Fatalf("traceDownstream = (%v, %d, %d), want (true, 2, 0)", found, i, j)
	}
}

func TestTraceDownstreamStopsAtNoDirection(t *testing.T) {
	fd := floatGrid(
		[]float64{6, 0},
		[]float64{0, 0},
	)
	mask := boolGrid(
		[]bool{false, false},
		[]bool{false, false},
	)
	found, i, j := traceDownstream(mask, fd, 0, 0)
	if found {
		t.Fatalf("traceDownstream found = true, want false (no downstream direction at row 1)")
	}
	if i != 1 || j != 0 {
		t.Fatalf("traceDownstream stopped at (%d, %d), want (1, 0)", i, j)
	}
}

func TestTraceDownstreamLeavesWindow(t *testing.T) {
	// Flows south off the bottom edge of a 1-row window.
	fd := floatGrid(
		[]float64{6},
	)
	mask := boolGrid(
		[]bool{false},
	)
	found, i, j := traceDownstream(mask, fd, 0, 0)
	if found {
		t.Fatalf("traceDownstream found = true, want false (ran off window)")
	}
	if i != 1 || j != 0 {
		t.Fatalf("traceDownstream left window at (%d, %d), want (1, 0)", i, j)
	}
}

func TestTraceDownstreamStartOnStream(t *testing.T) {
	fd := floatGrid([]float64{6})
	mask := boolGrid([]bool{true})
	found, i, j := traceDownstream(mask, fd, 0, 0)
	if !found || i != 0 || j != 0 {
		t.Fatalf("traceDownstream = (%v, %d, %d), want (true, 0, 0) for a start cell already on the stream", found, i, j)
	}
}
