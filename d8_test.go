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

import "testing"

func TestInverseCodeRoundTrips(t *testing.T) {
	// For every D8 code, walking its offset and then looking up the
	// inverse of the negated offset must recover the original code.
	for code := int16(1); code <= 8; code++ {
		off := d8Offsets[code]
		inv := inverseCode(-off.dr, -off.dc)
		if inv != code {
			t.Errorf("code %d: offset %+v, inverse of negated offset = %d, want %d", code, off, inv, code)
		}
	}
}

func TestIsFlowing(t *testing.T) {
	cases := []struct {
		code int16
		want bool
	}{
		{0, false},
		{-1, false},
		{1, true},
		{8, true},
	}
	for _, c := range cases {
		if got := isFlowing(c.code); got != c.want {
			t.Errorf("isFlowing(%d) = %v, want %v", c.code, got, c.want)
		}
	}
}

func TestNeighborOffsetsAreTheEightAround(t *testing.T) {
	seen := make(map[offset]bool)
	for _, o := range neighborOffsets {
		if o.dr == 0 && o.dc == 0 {
			t.Fatalf("neighborOffsets contains the zero offset")
		}
		if o.dr < -1 || o.dr > 1 || o.dc < -1 || o.dc > 1 {
			t.Fatalf("neighborOffsets contains out-of-range offset %+v", o)
		}
		seen[o] = true
	}
	if len(seen) != 8 {
		t.Fatalf("neighborOffsets has %d distinct entries, want 8", len(seen))
	}
}
