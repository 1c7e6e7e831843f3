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
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/ctessum/geom/encoding/geojson"
	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bluegeo/fastws"
	"github.com/bluegeo/fastws/httpapi"
	"github.com/bluegeo/fastws/points"
	"github.com/bluegeo/fastws/raster"
)

// Cfg holds the CLI's configuration, following the teacher CLI's wrapper
// around *viper.Viper so flags, environment variables (prefixed FASTWS_),
// and an optional config file all bind to the same getters.
type Cfg struct {
	*viper.Viper

	Root, findStreamCmd, delineateCmd, pointsCmd, serveCmd *cobra.Command
}

// InitializeConfig builds the command tree and binds its flags to viper.
func InitializeConfig() *Cfg {
	cfg := &Cfg{Viper: viper.New()}

	cfg.Root = &cobra.Command{
		Use:   "fastws",
		Short: "A tiled watershed delineation engine.",
		Long: `fastws snaps a query point downstream to a stream cell in a D8 flow
direction raster, floods upstream to find the contributing basin, and
vectorizes the result into a watershed polygon.

Configuration can be set with flags, with environment variables prefixed
FASTWS_, or with a config file named by --config.`,
		DisableAutoGenTag: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return setConfig(cfg)
		},
	}
	cfg.SetEnvPrefix("FASTWS")
	cfg.AutomaticEnv()
	cfg.Root.PersistentFlags().String("config", "", "path to a config file")
	cfg.BindPFlag("config", cfg.Root.PersistentFlags().Lookup("config"))

	cfg.findStreamCmd = &cobra.Command{
		Use:   "find-stream",
		Short: "Snap a point downstream to the nearest stream cell.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFindStream(cfg)
		},
		DisableAutoGenTag: true,
	}
	cfg.delineateCmd = &cobra.Command{
		Use:   "delineate",
		Short: "Delineate the watershed above a point.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelineate(cfg)
		},
		DisableAutoGenTag: true,
	}
	cfg.pointsCmd = &cobra.Command{
		Use:   "points",
		Short: "Batch-delineate every point in a shapefile.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPoints(cfg)
		},
		DisableAutoGenTag: true,
	}
	cfg.serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the delineation HTTP API.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cfg)
		},
		DisableAutoGenTag: true,
	}

	addRasterFlags(cfg, cfg.findStreamCmd, cfg.delineateCmd, cfg.pointsCmd)
	addPointFlags(cfg, cfg.findStreamCmd, cfg.delineateCmd)
	addOutputFlags(cfg, cfg.delineateCmd, cfg.pointsCmd)
	addPointsFileFlags(cfg, cfg.pointsCmd)
	addServeFlags(cfg, cfg.serveCmd)

	cfg.Root.AddCommand(cfg.findStreamCmd, cfg.delineateCmd, cfg.pointsCmd, cfg.serveCmd)
	return cfg
}

func addFlag(cfg *Cfg, cmds []*cobra.Command, name, defaultVal, usage string) {
	for i, cmd := range cmds {
		set := cmd.Flags()
		if i != 0 {
			set.AddFlag(cmds[0].Flags().Lookup(name))
			continue
		}
		set.String(name, defaultVal, usage)
		cfg.BindPFlag(name, set.Lookup(name))
	}
}

func addFloatFlag(cfg *Cfg, cmds []*cobra.Command, name string, defaultVal float64, usage string) {
	for i, cmd := range cmds {
		set := cmd.Flags()
		if i != 0 {
			set.AddFlag(cmds[0].Flags().Lookup(name))
			continue
		}
		set.Float64(name, defaultVal, usage)
		cfg.BindPFlag(name, set.Lookup(name))
	}
}

func addBoolFlag(cfg *Cfg, cmds []*cobra.Command, name string, defaultVal bool, usage string) {
	for i, cmd := range cmds {
		set := cmd.Flags()
		if i != 0 {
			set.AddFlag(cmds[0].Flags().Lookup(name))
			continue
		}
		set.Bool(name, defaultVal, usage)
		cfg.BindPFlag(name, set.Lookup(name))
	}
}

func addRasterFlags(cfg *Cfg, cmds ...*cobra.Command) {
	addFlag(cfg, cmds, "streams", "", "path or s3://, gs:// URI to the stream raster")
	addFlag(cfg, cmds, "direction", "", "path or s3://, gs:// URI to the D8 flow direction raster")
	addFlag(cfg, cmds, "accumulation", "", "path or s3://, gs:// URI to the flow accumulation raster (optional)")
}

func addPointFlags(cfg *Cfg, cmds ...*cobra.Command) {
	addFloatFlag(cfg, cmds, "x", 0, "query point x coordinate")
	addFloatFlag(cfg, cmds, "y", 0, "query point y coordinate")
	addFlag(cfg, cmds, "crs", "", "spatial reference of x, y (empty: same as direction raster)")
}

func addOutputFlags(cfg *Cfg, cmds ...*cobra.Command) {
	addFlag(cfg, cmds, "out-crs", "", "spatial reference to reproject the output polygon into")
	addFloatFlag(cfg, cmds, "simplify", 0, "Douglas-Peucker simplification tolerance (0 disables)")
	addFloatFlag(cfg, cmds, "smooth", 0, "smoothing distance in raster units (0 disables)")
	addBoolFlag(cfg, cmds, "snap", true, "snap the query point downstream to a stream cell first")
}

func addPointsFileFlags(cfg *Cfg, cmds ...*cobra.Command) {
	addFlag(cfg, cmds, "input", "", "input point shapefile")
	addFlag(cfg, cmds, "output", "", "output watershed polygon shapefile")
}

func addServeFlags(cfg *Cfg, cmds ...*cobra.Command) {
	addFlag(cfg, cmds, "serve-config", "", "path to the serve subcommand's TOML tier configuration")
}

// setConfig reads in the configuration file, if one was given.
func setConfig(cfg *Cfg) error {
	if cfgpath := cfg.GetString("config"); cfgpath != "" {
		cfg.SetConfigFile(cfgpath)
		if err := cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("fastws: reading config file: %w", err)
		}
	}
	return nil
}

func openRasters(cfg *Cfg) (streams, direction, accum *raster.Reader, err error) {
	streams, err = raster.Open(cfg.GetString("streams"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("fastws: opening streams raster: %w", err)
	}
	direction, err = raster.Open(cfg.GetString("direction"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("fastws: opening direction raster: %w", err)
	}
	if path := cfg.GetString("accumulation"); path != "" {
		accum, err = raster.Open(path)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("fastws: opening accumulation raster: %w", err)
		}
	}
	return streams, direction, accum, nil
}

func runFindStream(cfg *Cfg) error {
	streams, direction, accum, err := openRasters(cfg)
	if err != nil {
		return err
	}
	defer streams.Close()
	defer direction.Close()

	x, y, area, hasArea, err := fastws.FindStream(fastws.FindStreamOptions{
		Streams: streams, FlowDir: direction, FlowAccum: accum,
		X: cfg.GetFloat64("x"), Y: cfg.GetFloat64("y"), SRS: cfg.GetString("crs"),
	})
	if err != nil {
		return err
	}
	out := map[string]interface{}{"x": x, "y": y}
	if hasArea {
		out["area"] = area
	}
	return json.NewEncoder(os.Stdout).Encode(out)
}

func runDelineate(cfg *Cfg) error {
	streams, direction, accum, err := openRasters(cfg)
	if err != nil {
		return err
	}
	defer streams.Close()
	defer direction.Close()

	x, y, area, mp, err := fastws.Delineate(fastws.DelineateOptions{
		Streams: streams, FlowDir: direction, FlowAccum: accum,
		X: cfg.GetFloat64("x"), Y: cfg.GetFloat64("y"), SRS: cfg.GetString("crs"),
		OutSRS: cfg.GetString("out-crs"), Snap: cfg.GetBool("snap"),
		Simplify: cfg.GetFloat64("simplify"), Smooth: cfg.GetFloat64("smooth"),
	})
	if err != nil {
		return err
	}
	gj, err := geojson.ToGeoJSON(mp)
	if err != nil {
		return fmt.Errorf("fastws: encoding watershed polygon: %w", err)
	}
	return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
		"x": x, "y": y, "area": area, "watershedPolygon": gj,
	})
}

func runPoints(cfg *Cfg) error {
	streams, direction, accum, err := openRasters(cfg)
	if err != nil {
		return err
	}
	defer streams.Close()
	defer direction.Close()

	results, err := points.DelineateAll(points.Options{
		InputPath: cfg.GetString("input"), OutputPath: cfg.GetString("output"),
		Streams: streams, FlowDir: direction, FlowAccum: accum,
		CRS: cfg.GetString("crs"), OutCRS: cfg.GetString("out-crs"),
		Snap: cfg.GetBool("snap"), Simplify: cfg.GetFloat64("simplify"), Smooth: cfg.GetFloat64("smooth"),
	})
	if err != nil {
		return err
	}
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			logrus.WithFields(logrus.Fields{"index": r.Index, "err": r.Err}).Warn("fastws: point delineation failed")
		}
	}
	logrus.WithFields(logrus.Fields{"total": len(results), "failed": failed}).Info("fastws: batch delineation complete")
	return nil
}

func runServe(cfg *Cfg) error {
	sc, err := loadServeConfig(cfg.GetString("serve-config"))
	if err != nil {
		return err
	}

	tiers := make(map[string]httpapi.Tier, len(sc.Tiers))
	order := make([]string, len(sc.Tiers))
	thresholds := make([]float64, len(sc.Tiers))
	for i, t := range sc.Tiers {
		streams, err := raster.Open(t.StreamsPath)
		if err != nil {
			return fmt.Errorf("fastws: opening streams raster for tier %s: %w", t.Tag, err)
		}
		direction, err := raster.Open(t.DirectionPath)
		if err != nil {
			return fmt.Errorf("fastws: opening direction raster for tier %s: %w", t.Tag, err)
		}
		var accum *raster.Reader
		if t.AccumPath != "" {
			accum, err = raster.Open(t.AccumPath)
			if err != nil {
				return fmt.Errorf("fastws: opening accumulation raster for tier %s: %w", t.Tag, err)
			}
		}
		tiers[t.Tag] = httpapi.Tier{Streams: streams, FlowDir: direction, FlowAccum: accum}
		order[i] = t.Tag
		thresholds[i] = t.AreaThresh
	}

	h := &httpapi.Handler{Tiers: tiers, Order: order, Thresholds: thresholds, Log: logrus.StandardLogger()}
	logrus.WithFields(logrus.Fields{"addr": sc.Addr, "tiers": order}).Info("fastws: serving delineation API")
	return http.ListenAndServe(sc.Addr, h)
}
