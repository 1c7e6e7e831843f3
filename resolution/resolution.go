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

// Package resolution picks which raster resolution tier a request should
// delineate against, given the drainage area found at the snapped stream
// cell. Tiers are listed coarsest first and the first tier whose threshold
// exceeds the area is chosen, so an area at or above every threshold falls
// through to the last (finest) tier.
package resolution

import "fmt"

// Select returns the tag of the first tier whose threshold exceeds area,
// falling back to the last tag if none do. thresholds and tags must be the
// same length and are both ordered coarsest-constraint first; Select does
// not sort them.
func Select(area float64, thresholds []float64, tags []string) (string, error) {
	if len(thresholds) != len(tags) {
		return "", fmt.Errorf("resolution: thresholds (%d) and tags (%d) must be the same length", len(thresholds), len(tags))
	}
	if len(tags) == 0 {
		return "", fmt.Errorf("resolution: no tiers configured")
	}
	for i, t := range thresholds {
		if area < t {
			return tags[i], nil
		}
	}
	return tags[len(tags)-1], nil
}
