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

import "fmt"

// memorySource backs a Reader with a fully-resident grid, sliced into
// blocks on demand. It is used by tests and by callers that already have
// the whole raster in memory (e.g. a freshly prepared small tile).
type memorySource struct {
	meta Meta
	grid [][]float64
}

// NewMemory builds a Reader over a fully-resident grid, addressed in
// blocks according to meta.BlockHeight/BlockWidth. grid must have
// meta.Height rows each of meta.Width values.
func NewMemory(meta Meta, grid [][]float64) (*Reader, error) {
	if len(grid) != meta.Height {
		return nil, fmt.Errorf("raster: grid has %d rows, meta declares height %d", len(grid), meta.Height)
	}
	for i, row := range grid {
		if len(row) != meta.Width {
			return nil, fmt.Errorf("raster: grid row %d has %d cols, meta declares width %d", i, len(row), meta.Width)
		}
	}
	return newReader(&memorySource{meta: meta, grid: grid})
}

func (m *memorySource) Meta() Meta { return m.meta }

func (m *memorySource) ReadBlock(w Window) ([][]float64, error) {
	if w.RowOff < 0 || w.ColOff < 0 || w.RowOff+w.Height > m.meta.Height || w.ColOff+w.Width > m.meta.Width {
		return nil, fmt.Errorf("raster: window %+v out of bounds", w)
	}
	out := make([][]float64, w.Height)
	for i := 0; i < w.Height; i++ {
		row := make([]float64, w.Width)
		copy(row, m.grid[w.RowOff+i][w.ColOff:w.ColOff+w.Width])
		out[i] = row
	}
	return out, nil
}

func (m *memorySource) Close() error { return nil }
