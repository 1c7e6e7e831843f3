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

// Package raster implements a tiled, cell-centered raster reader with
// window-level caching and world/grid coordinate conversion.
package raster

// Window identifies one block of a tiled raster by its offset and
// dimensions. Two windows are equal iff all four fields match.
type Window struct {
	RowOff, ColOff, Height, Width int
}

// Extent gives the world-space bounding coordinates of a window.
type Extent struct {
	Top, Bottom, Left, Right float64
}

// blockWindows partitions a height x width grid into windows of at most
// blockHeight x blockWidth, in row-major order. Edge blocks are truncated
// to fit the grid exactly, per the "blocks tile the grid exactly" raster
// invariant.
func blockWindows(height, width, blockHeight, blockWidth int) []Window {
	if blockHeight <= 0 || blockWidth <= 0 {
		return nil
	}
	var windows []Window
	for rowOff := 0; rowOff < height; rowOff += blockHeight {
		h := blockHeight
		if rowOff+h > height {
			h = height - rowOff
		}
		for colOff := 0; colOff < width; colOff += blockWidth {
			w := blockWidth
			if colOff+w > width {
				w = width - colOff
			}
			windows = append(windows, Window{RowOff: rowOff, ColOff: colOff, Height: h, Width: w})
		}
	}
	return windows
}

func windowExtent(w Window, top, left, csx, csy float64) Extent {
	return Extent{
		Top:    top - float64(w.RowOff)*csy,
		Bottom: top - float64(w.RowOff+w.Height)*csy,
		Left:   left + float64(w.ColOff)*csx,
		Right:  left + float64(w.ColOff+w.Width)*csx,
	}
}
