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

// Package points batch-delineates every point in an input shapefile,
// writing a companion shapefile of watershed polygons carrying each
// point's original attributes plus the snapped location and area. This
// replaces the original fast-watershed project's fiona-based point batch
// driver with the pack's own shapefile stack.
package points

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/ctessum/geom"
	shpenc "github.com/ctessum/geom/encoding/shp"
	"github.com/jonas-p/go-shp"

	"github.com/bluegeo/fastws"
	"github.com/bluegeo/fastws/raster"
)

// Options configures a batch delineation run.
type Options struct {
	InputPath  string // path to the input point shapefile (.shp)
	OutputPath string // path to the output polygon shapefile to create

	Streams   *raster.Reader
	FlowDir   *raster.Reader
	FlowAccum *raster.Reader // optional

	// CRS of the input points. Empty reads the companion .prj file.
	CRS string
	// OutCRS, if set, reprojects each output polygon.
	OutCRS string

	Snap     bool
	Simplify float64
	Smooth   float64
}

// Result reports what happened to one input point.
type Result struct {
	Index int
	Err   error
}

// DelineateAll delineates every point in opts.InputPath, writing the
// successful results (plus a Result per point, successful or not, so
// callers can report failures without aborting the batch) to
// opts.OutputPath.
func DelineateAll(opts Options) ([]Result, error) {
	dec, err := shpenc.NewDecoder(opts.InputPath)
	if err != nil {
		return nil, fmt.Errorf("points: opening %s: %w", opts.InputPath, err)
	}
	defer dec.Close()

	srs := opts.CRS
	if srs == "" {
		if b, rerr := os.ReadFile(strings.TrimSuffix(opts.InputPath, ".shp") + ".prj"); rerr == nil {
			srs = string(b)
		}
	}

	fields := dec.Fields()
	fieldNames := make([]string, len(fields))
	for i, f := range fields {
		fieldNames[i] = fieldName(f)
	}
	outFields := append(append([]shp.Field{}, fields...),
		shp.FloatField("fastws_x", 24, 10),
		shp.FloatField("fastws_y", 24, 10),
		shp.FloatField("fastws_area", 24, 4),
	)

	enc, err := shpenc.NewEncoderFromFields(opts.OutputPath, shp.POLYGON, outFields...)
	if err != nil {
		return nil, fmt.Errorf("points: creating %s: %w", opts.OutputPath, err)
	}
	defer enc.Close()

	var results []Result
	idx := 0
	for {
		g, attrs, more := dec.DecodeRowFields(fieldNames...)
		if dec.Error() != nil {
			return results, fmt.Errorf("points: decoding row %d: %w", idx, dec.Error())
		}
		if !more {
			break
		}

		pt, ok := g.(geom.Point)
		if !ok {
			results = append(results, Result{Index: idx, Err: fmt.Errorf("points: row %d is not a point geometry", idx)})
			idx++
			continue
		}

		x, y, area, mp, derr := fastws.Delineate(fastws.DelineateOptions{
			Streams: opts.Streams, FlowDir: opts.FlowDir, FlowAccum: opts.FlowAccum,
			X: pt.X, Y: pt.Y, SRS: srs, OutSRS: opts.OutCRS,
			Snap: opts.Snap, Simplify: opts.Simplify, Smooth: opts.Smooth,
		})
		if derr != nil {
			results = append(results, Result{Index: idx, Err: derr})
			idx++
			continue
		}

		vals := make([]interface{}, 0, len(fieldNames)+3)
		for _, name := range fieldNames {
			vals = append(vals, attrs[name])
		}
		vals = append(vals, x, y, area)

		if err := enc.EncodeFields(flatten(mp), vals...); err != nil {
			return results, fmt.Errorf("points: encoding row %d: %w", idx, err)
		}
		results = append(results, Result{Index: idx})
		idx++
	}
	return results, nil
}

// flatten collapses a MultiPolygon into a single Polygon (one shapefile
// shape with multiple parts), since the pack's shapefile encoder only
// converts geom.Polygon, not geom.MultiPolygon, to a shp.Shape.
func flatten(mp geom.MultiPolygon) geom.Polygon {
	var rings geom.Polygon
	for _, p := range mp {
		rings = append(rings, p...)
	}
	return rings
}

func fieldName(f shp.Field) string {
	return string(bytes.TrimRight(f.Name[:], "\x00"))
}
