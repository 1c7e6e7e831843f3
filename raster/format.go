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
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// fwrMagic identifies the on-disk tiled raster container used by this
// module. The examples pack carries no importable tiled-GeoTIFF library, so
// this format stands in for one: a fixed header, a block index, and
// row-major float64 blocks. See DESIGN.md for why this is built on
// encoding/binary rather than a pack dependency.
var fwrMagic = [4]byte{'F', 'W', 'R', '1'}

type blockIndexEntry struct {
	Offset uint64
	Length uint32
}

// fileSource backs a Reader with an on-disk .fwr file, reading blocks
// lazily through the file's ReaderAt.
type fileSource struct {
	f        *os.File
	meta     Meta
	index    map[Window]blockIndexEntry
	tempPath string // set for remote-fetched sources; removed on Close
}

// openLocal opens a local .fwr tiled raster file. It fails if the file was
// not written with a block layout (BlockHeight/BlockWidth > 0).
func openLocal(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("raster: opening %s: %w", path, err)
	}
	meta, index, err := readHeader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return newReader(&fileSource{f: f, meta: meta, index: index})
}

func (s *fileSource) Meta() Meta { return s.meta }

func (s *fileSource) ReadBlock(w Window) ([][]float64, error) {
	entry, ok := s.index[w]
	if !ok {
		return nil, fmt.Errorf("raster: window %+v not present in file index", w)
	}
	buf := make([]byte, entry.Length)
	if _, err := s.f.ReadAt(buf, int64(entry.Offset)); err != nil {
		return nil, fmt.Errorf("raster: reading block at offset %d: %w", entry.Offset, err)
	}
	out := make([][]float64, w.Height)
	pos := 0
	for i := 0; i < w.Height; i++ {
		row := make([]float64, w.Width)
		for j := 0; j < w.Width; j++ {
			row[j] = float64frombytes(buf[pos : pos+8])
			pos += 8
		}
		out[i] = row
	}
	return out, nil
}

func (s *fileSource) Close() error {
	err := s.f.Close()
	if s.tempPath != "" {
		if rmErr := os.Remove(s.tempPath); rmErr != nil && err == nil {
			err = rmErr
		}
	}
	return err
}

func readHeader(r io.Reader) (Meta, map[Window]blockIndexEntry, error) {
	br := bufio.NewReader(r)
	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return Meta{}, nil, fmt.Errorf("raster: reading magic: %w", err)
	}
	if magic != fwrMagic {
		return Meta{}, nil, fmt.Errorf("raster: not a .fwr file (bad magic)")
	}
	var hdr struct {
		Height, Width           int64
		BlockHeight, BlockWidth int64
		Left, Top, Csx, Csy     float64
		Nodata                  float64
	}
	if err := binary.Read(br, binary.BigEndian, &hdr); err != nil {
		return Meta{}, nil, fmt.Errorf("raster: reading header: %w", err)
	}
	var crsLen int32
	if err := binary.Read(br, binary.BigEndian, &crsLen); err != nil {
		return Meta{}, nil, fmt.Errorf("raster: reading crs length: %w", err)
	}
	crsBytes := make([]byte, crsLen)
	if _, err := io.ReadFull(br, crsBytes); err != nil {
		return Meta{}, nil, fmt.Errorf("raster: reading crs: %w", err)
	}
	meta := Meta{
		Height: int(hdr.Height), Width: int(hdr.Width),
		BlockHeight: int(hdr.BlockHeight), BlockWidth: int(hdr.BlockWidth),
		Left: hdr.Left, Top: hdr.Top, Csx: hdr.Csx, Csy: hdr.Csy,
		Nodata: hdr.Nodata, CRS: string(crsBytes),
	}
	if meta.BlockHeight <= 0 || meta.BlockWidth <= 0 {
		return Meta{}, nil, &notTiledError{}
	}

	var numBlocks int64
	if err := binary.Read(br, binary.BigEndian, &numBlocks); err != nil {
		return Meta{}, nil, fmt.Errorf("raster: reading block count: %w", err)
	}
	windows := blockWindows(meta.Height, meta.Width, meta.BlockHeight, meta.BlockWidth)
	if int64(len(windows)) != numBlocks {
		return Meta{}, nil, fmt.Errorf("raster: block index length %d does not match block layout %d", numBlocks, len(windows))
	}
	index := make(map[Window]blockIndexEntry, numBlocks)
	for _, w := range windows {
		var entry blockIndexEntry
		if err := binary.Read(br, binary.BigEndian, &entry); err != nil {
			return Meta{}, nil, fmt.Errorf("raster: reading block index entry: %w", err)
		}
		index[w] = entry
	}
	return meta, index, nil
}

// Write serializes grid (meta.Height rows of meta.Width values each) to a
// new .fwr file at path, tiled according to meta.BlockHeight/BlockWidth.
func Write(path string, meta Meta, grid [][]float64) error {
	if len(grid) != meta.Height {
		return fmt.Errorf("raster: grid has %d rows, meta declares height %d", len(grid), meta.Height)
	}
	windows := blockWindows(meta.Height, meta.Width, meta.BlockHeight, meta.BlockWidth)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("raster: creating %s: %w", path, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	if _, err := w.Write(fwrMagic[:]); err != nil {
		return err
	}
	hdr := struct {
		Height, Width           int64
		BlockHeight, BlockWidth int64
		Left, Top, Csx, Csy     float64
		Nodata                  float64
	}{
		int64(meta.Height), int64(meta.Width),
		int64(meta.BlockHeight), int64(meta.BlockWidth),
		meta.Left, meta.Top, meta.Csx, meta.Csy, meta.Nodata,
	}
	if err := binary.Write(w, binary.BigEndian, hdr); err != nil {
		return err
	}
	crsBytes := []byte(meta.CRS)
	if err := binary.Write(w, binary.BigEndian, int32(len(crsBytes))); err != nil {
		return err
	}
	if _, err := w.Write(crsBytes); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, int64(len(windows))); err != nil {
		return err
	}

	// Compute block byte offsets: the index table comes right after itself,
	// followed by block payloads in the same order as `windows`.
	headerLen := 4 + 8*4 + 8*5 + 4 + len(crsBytes) + 8
	indexLen := len(windows) * 12
	offset := uint64(headerLen + indexLen)
	entries := make([]blockIndexEntry, len(windows))
	for k, win := range windows {
		length := uint32(win.Height * win.Width * 8)
		entries[k] = blockIndexEntry{Offset: offset, Length: length}
		offset += uint64(length)
	}
	for _, e := range entries {
		if err := binary.Write(w, binary.BigEndian, e); err != nil {
			return err
		}
	}
	for _, win := range windows {
		for i := 0; i < win.Height; i++ {
			for j := 0; j < win.Width; j++ {
				if err := binary.Write(w, binary.BigEndian, grid[win.RowOff+i][win.ColOff+j]); err != nil {
					return err
				}
			}
		}
	}
	return w.Flush()
}

func float64frombytes(b []byte) float64 {
	bits := binary.BigEndian.Uint64(b)
	return math.Float64frombits(bits)
}
