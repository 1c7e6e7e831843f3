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

// offset is a (row, col) delta to a neighboring cell.
type offset struct {
	dr, dc int
}

// d8Offsets gives the downstream neighbor offset for each D8 code, indexed
// directly by the code (index 0 is unused; codes run 1..8).
var d8Offsets = [9]offset{
	{0, 0},   // 0: no downstream
	{-1, 1},  // 1
	{-1, 0},  // 2
	{-1, -1}, // 3
	{0, -1},  // 4
	{1, -1},  // 5
	{1, 0},   // 6
	{1, 1},   // 7
	{0, 1},   // 8
}

// d8Inverse[dr+1][dc+1] gives the D8 code a neighbor at offset (dr, dc)
// would carry if it flowed into the center cell.
var d8Inverse = [3][3]int16{
	{7, 6, 5},
	{8, 0, 4},
	{1, 2, 3},
}

// neighborOffsets enumerates the eight neighbor offsets in the same order
// the reference upstream kernel visits them.
var neighborOffsets = []offset{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// inverseCode returns the D8 code a neighbor at (dr, dc) would need in order
// to contribute flow to the center cell.
func inverseCode(dr, dc int) int16 {
	return d8Inverse[dr+1][dc+1]
}

// isFlowing reports whether a D8 code denotes an actual downstream
// direction (codes <= 0 mean nodata or "no downstream").
func isFlowing(code int16) bool {
	return code > 0
}
