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

// cellIdx is a within-window (or, for edges, adjacent-to-window) cell
// index.
type cellIdx struct {
	I, J int
}

// edgeCell is an out-of-window neighbor discovered by the upstream kernel,
// paired with the D8 code the neighboring window's cell must carry in
// order to actually contribute flow into the window that discovered it.
type edgeCell struct {
	I, J int
	Dir  int16
}

// upstreamKernel performs an 8-neighbor reverse-D8 flood inside one window,
// starting from stack (within-window seed cells). avoidOffsets, if
// non-empty, is skipped on the first popped cell only; it exists so a
// caller can keep a seed cell placed at a confluence from re-absorbing the
// tributary that led to it across a window boundary. No caller currently
// supplies a non-empty avoidOffsets (see Open Question 3 in spec.md §9);
// it is accepted here so one can without changing the kernel's signature.
//
// fd holds raw D8 codes as float64, the cell type a raster.Reader window
// produces.
func upstreamKernel(fd [][]float64, stack []cellIdx, avoidOffsets []offset) (basin []cellIdx, edges []edgeCell) {
	h := len(fd)
	w := 0
	if h > 0 {
		w = len(fd[0])
	}

	// Work on a copy so the caller's slice is left untouched, matching the
	// orchestrator's expectation that it may clear its own stack slice
	// immediately after this call.
	work := make([]cellIdx, len(stack))
	copy(work, stack)

	first := true
	for len(work) > 0 {
		n := len(work) - 1
		c := work[n]
		work = work[:n]

		for _, nb := range neighborOffsets {
			if first && skipOffset(avoidOffsets, nb) {
				continue
			}
			ti, tj := c.I+nb.dr, c.J+nb.dc

			if ti < 0 || tj < 0 || ti >= h || tj >= w {
				edges = append(edges, edgeCell{I: ti, J: tj, Dir: inverseCode(nb.dr, nb.dc)})
				continue
			}

			code := int16(fd[ti][tj])
			if !isFlowing(code) {
				continue
			}
			if code == inverseCode(nb.dr, nb.dc) {
				cell := cellIdx{I: ti, J: tj}
				work = append(work, cell)
				basin = append(basin, cell)
			}
		}
		first = false
	}
	return basin, edges
}

func skipOffset(avoid []offset, o offset) bool {
	for _, a := range avoid {
		if a == o {
			return true
		}
	}
	return false
}
