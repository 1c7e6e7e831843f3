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

// Package httpapi serves a single-endpoint JSON delineation request,
// mirroring the Lambda-style handler the original fast-watershed project
// deployed: a point and CRS in, a watershed polygon out, with a resolution
// tier auto-selected from the drainage area at the snapped point.
package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ctessum/geom/encoding/geojson"
	"github.com/sirupsen/logrus"

	"github.com/bluegeo/fastws"
	"github.com/bluegeo/fastws/raster"
	"github.com/bluegeo/fastws/resolution"
)

// Tier names one resolution's inputs, addressed by its tag (e.g. "10m",
// "30m").
type Tier struct {
	Streams   *raster.Reader
	FlowDir   *raster.Reader
	FlowAccum *raster.Reader
}

// Handler serves POST requests against a ladder of resolution tiers,
// picking the finest tier the drainage area at the query point justifies.
type Handler struct {
	// Tiers maps a resolution tag to its rasters. Coarsest must be listed
	// first in Order.
	Tiers map[string]Tier
	// Order lists tags from coarsest to finest, matching the original
	// RESOLUTIONS env var.
	Order []string
	// Thresholds has one entry per Order entry; area below Thresholds[i]
	// selects Order[i].
	Thresholds []float64

	Log logrus.FieldLogger

	// mu serializes delineations: the tier readers' window caches are not
	// safe for concurrent use, and net/http serves requests concurrently.
	mu sync.Mutex
}

type request struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	CRS      string  `json:"crs"`
	Prime    bool    `json:"prime"`
	Simplify float64 `json:"simplify"`
	Smooth   float64 `json:"smooth"`
	OutCRS   string  `json:"outCrs"`
}

type response struct {
	Response         string      `json:"response"`
	Error            string      `json:"error,omitempty"`
	X                float64     `json:"x,omitempty"`
	Y                float64     `json:"y,omitempty"`
	Res              string      `json:"res,omitempty"`
	Area             float64     `json:"area,omitempty"`
	WatershedPolygon interface{} `json:"watershedPolygon,omitempty"`
}

// ServeHTTP implements the POST /delineate contract: body
// {x,y,crs,prime?,simplify?,smooth?,outCrs?} -> response.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	log := h.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("httpapi: decoding request body: %w", err))
		return
	}

	if req.Prime {
		writeJSON(w, response{Response: "success"})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	log = log.WithFields(logrus.Fields{"x": req.X, "y": req.Y, "crs": req.CRS})

	coarsest := h.Tiers[h.Order[0]]
	_, _, area, hasArea, err := fastws.FindStream(fastws.FindStreamOptions{
		Streams: coarsest.Streams, FlowDir: coarsest.FlowDir, FlowAccum: coarsest.FlowAccum,
		X: req.X, Y: req.Y, SRS: req.CRS,
	})
	if err != nil {
		log.WithFields(logrus.Fields{"elapsed": time.Since(start)}).Warn("httpapi: find-stream failed")
		writeError(w, err)
		return
	}
	if !hasArea {
		area = 0
	}

	tag, err := resolution.Select(area, h.Thresholds, h.Order)
	if err != nil {
		writeError(w, err)
		return
	}
	tier, ok := h.Tiers[tag]
	if !ok {
		writeError(w, fmt.Errorf("httpapi: no rasters configured for resolution %q", tag))
		return
	}

	x, y, darea, mp, err := fastws.Delineate(fastws.DelineateOptions{
		Streams: tier.Streams, FlowDir: tier.FlowDir, FlowAccum: tier.FlowAccum,
		X: req.X, Y: req.Y, SRS: req.CRS, OutSRS: req.OutCRS,
		Snap: true, Simplify: req.Simplify, Smooth: req.Smooth,
	})
	if err != nil {
		log.WithFields(logrus.Fields{"res": tag, "elapsed": time.Since(start)}).Warn("httpapi: delineate failed")
		writeError(w, err)
		return
	}

	gj, err := geojson.ToGeoJSON(mp)
	if err != nil {
		writeError(w, fmt.Errorf("httpapi: encoding watershed polygon: %w", err))
		return
	}

	log.WithFields(logrus.Fields{"res": tag, "area": darea, "elapsed": time.Since(start)}).Info("httpapi: delineation served")
	writeJSON(w, response{
		Response: "success", X: x, Y: y, Res: tag, Area: darea, WatershedPolygon: gj,
	})
}

func writeJSON(w http.ResponseWriter, resp response) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	_ = json.NewEncoder(w).Encode(resp)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, response{Response: "error", Error: err.Error()})
}
