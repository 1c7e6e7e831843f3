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

package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// serveConfig is the `serve` subcommand's own configuration, decoded
// directly from a TOML file rather than threaded through viper/pflag: it
// describes a ladder of resolution tiers, each naming three raster paths,
// which doesn't map cleanly onto flat command-line flags. This mirrors
// cmd/inmapweb/main.go's direct toml.DecodeReader use for its own server
// config, alongside (not instead of) the cobra/viper flag layer the rest
// of this CLI uses.
type serveConfig struct {
	Addr string `toml:"addr"`

	// Tiers, coarsest first. Thresholds has one fewer meaningful boundary
	// than Tiers has entries; the last tier is always the fallback.
	Tiers []struct {
		Tag           string  `toml:"tag"`
		StreamsPath   string  `toml:"streams_path"`
		DirectionPath string  `toml:"direction_path"`
		AccumPath     string  `toml:"accumulation_path"`
		AreaThresh    float64 `toml:"area_thresh"`
	} `toml:"tier"`
}

func loadServeConfig(path string) (*serveConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fastws: opening serve config %s: %w", path, err)
	}
	defer f.Close()

	var c serveConfig
	if _, err := toml.DecodeReader(f, &c); err != nil {
		return nil, fmt.Errorf("fastws: decoding serve config %s: %w", path, err)
	}
	if len(c.Tiers) == 0 {
		return nil, fmt.Errorf("fastws: serve config %s defines no resolution tiers", path)
	}
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	return &c, nil
}
