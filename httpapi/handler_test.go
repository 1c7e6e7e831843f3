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

package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/bluegeo/fastws/raster"
)

func testReader(t *testing.T, grid [][]float64, nodata float64) *raster.Reader {
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

func singleTierHandler(t *testing.T) *Handler {
	fd := [][]float64{
		{6, 0, 0},
		{6, 0, 0},
		{0, 0, 0},
	}
	streams := [][]float64{
		{-1, -1, -1},
		{-1, -1, -1},
		{1, -1, -1},
	}
	return &Handler{
		Tiers: map[string]Tier{
			"10m": {Streams: testReader(t, streams, -1), FlowDir: testReader(t, fd, -1)},
		},
		Order:      []string{"10m"},
		Thresholds: []float64{0},
	}
}

func postJSON(h *Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/delineate", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServeHTTPPrimeRequestSkipsDelineation(t *testing.T) {
	h := &Handler{}
	rec := postJSON(h, `{"prime": true}`)

	var resp response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Response != "success" {
		t.Fatalf("prime response = %+v, want a bare success", resp)
	}
}

func TestServeHTTPMalformedBodyReturnsError(t *testing.T) {
	h := &Handler{}
	rec := postJSON(h, `not json`)

	var resp response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Response != "error" || resp.Error == "" {
		t.Fatalf("malformed-body response = %+v, want an error response", resp)
	}
}

func TestServeHTTPDelineatesAgainstSingleTier(t *testing.T) {
	h := singleTierHandler(t)
	// query lands in cell (0,0) of a 3-row grid: y = 3 - 0 - 0.5 = 2.5
	rec := postJSON(h, `{"x": 0.5, "y": 2.5}`)

	var resp response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Response != "success" {
		t.Fatalf("response = %+v, want success", resp)
	}
	if resp.Res != "10m" {
		t.Fatalf("response resolution = %q, want the only configured tier %q", resp.Res, "10m")
	}
	if resp.Area <= 0 {
		t.Fatalf("response area = %v, want a positive basin area", resp.Area)
	}
	if resp.WatershedPolygon == nil {
		t.Fatalf("response carried no watershed polygon")
	}
}

func TestServeHTTPOffRasterQueryReturnsError(t *testing.T) {
	h := singleTierHandler(t)
	rec := postJSON(h, `{"x": 1000, "y": 1000}`)

	var resp response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Response != "error" || resp.Error == "" {
		t.Fatalf("off-raster response = %+v, want an error response", resp)
	}
}
