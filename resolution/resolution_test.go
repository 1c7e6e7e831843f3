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

package resolution

import "testing"

func TestSelectFirstMatchWins(t *testing.T) {
	tags := []string{"30m", "10m", "3m"}
	thresholds := []float64{1e6, 1e4, 1e2}

	cases := []struct {
		area float64
		want string
	}{
		{area: 0, want: "30m"},
		{area: 999, want: "30m"},
		{area: 5000, want: "30m"},
		{area: 50, want: "30m"},
		{area: 1e9, want: "3m"}, // past every threshold: fall back to the last tag
	}
	for _, c := range cases {
		got, err := Select(c.area, thresholds, tags)
		if err != nil {
			t.Fatalf("Select(%v): %v", c.area, err)
		}
		if got != c.want {
			t.Errorf("Select(%v) = %q, want %q", c.area, got, c.want)
		}
	}
}

func TestSelectRejectsMismatchedLengths(t *testing.T) {
	if _, err := Select(1, []float64{1, 2}, []string{"a"}); err == nil {
		t.Fatalf("Select with mismatched slice lengths should fail")
	}
}

func TestSelectRejectsEmptyConfiguration(t *testing.T) {
	if _, err := Select(1, nil, nil); err == nil {
		t.Fatalf("Select with no tiers configured should fail")
	}
}
