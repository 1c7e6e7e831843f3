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

// traceDownstream walks the D8 chain from (i, j) within one window until it
// hits a stream cell, runs off the window, or the flow direction stops
// (nodata or <= 0). It is pure and side-effect free. fd holds raw D8 codes
// as float64 (the natural cell type of a raster.Reader window); values are
// truncated toward zero, matching the signed-16-bit codes they represent.
//
// Returns found=true and the stream cell's (i, j) if one was reached;
// otherwise found=false and the last in-window (i, j) before flow stopped,
// or the first out-of-window (i, j) if the chain left the window.
func traceDownstream(streamMask [][]bool, fd [][]float64, i, j int) (found bool, oi, oj int) {
	h := len(fd)
	for {
		if streamMask[i][j] {
			return true, i, j
		}
		code := int16(fd[i][j])
		if !isFlowing(code) {
			return false, i, j
		}
		off := d8Offsets[code]
		i += off.dr
		j += off.dc

		w := 0
		if h > 0 {
			w = len(fd[0])
		}
		if i < 0 || i >= h || j < 0 || j >= w {
			return false, i, j
		}
	}
}
