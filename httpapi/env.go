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
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/bluegeo/fastws/raster"
)

// NewHandlerFromEnv builds a Handler from the same environment-variable
// contract the original Lambda handler read: STREAMS_PATH, DIRECTION_PATH,
// and ACCUMULATION_PATH are "%s"-style templates taking a resolution tag
// (Go spells that verb %s too, so the templates carry over unchanged);
// RESOLUTIONS and AREA_THRESH are JSON arrays, coarsest tier first.
func NewHandlerFromEnv() (*Handler, error) {
	streamsTmpl := os.Getenv("STREAMS_PATH")
	directionTmpl := os.Getenv("DIRECTION_PATH")
	accumTmpl := os.Getenv("ACCUMULATION_PATH")

	var order []string
	if err := json.Unmarshal([]byte(os.Getenv("RESOLUTIONS")), &order); err != nil {
		return nil, fmt.Errorf("httpapi: parsing RESOLUTIONS: %w", err)
	}
	var thresholds []float64
	if err := json.Unmarshal([]byte(os.Getenv("AREA_THRESH")), &thresholds); err != nil {
		return nil, fmt.Errorf("httpapi: parsing AREA_THRESH: %w", err)
	}
	if len(order) != len(thresholds) {
		return nil, fmt.Errorf("httpapi: RESOLUTIONS (%d) and AREA_THRESH (%d) must be the same length", len(order), len(thresholds))
	}

	tiers := make(map[string]Tier, len(order))
	for _, tag := range order {
		streams, err := raster.Open(fillTemplate(streamsTmpl, tag))
		if err != nil {
			return nil, fmt.Errorf("httpapi: opening streams raster for resolution %s: %w", tag, err)
		}
		direction, err := raster.Open(fillTemplate(directionTmpl, tag))
		if err != nil {
			return nil, fmt.Errorf("httpapi: opening direction raster for resolution %s: %w", tag, err)
		}
		var accum *raster.Reader
		if accumTmpl != "" {
			accum, err = raster.Open(fillTemplate(accumTmpl, tag))
			if err != nil {
				return nil, fmt.Errorf("httpapi: opening accumulation raster for resolution %s: %w", tag, err)
			}
		}
		tiers[tag] = Tier{Streams: streams, FlowDir: direction, FlowAccum: accum}
	}

	return &Handler{Tiers: tiers, Order: order, Thresholds: thresholds}, nil
}

func fillTemplate(tmpl, tag string) string {
	return strings.Replace(tmpl, "%s", tag, 1)
}
