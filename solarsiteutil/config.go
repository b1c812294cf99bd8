/*
Copyright © 2019 the solarsite authors.
This file is part of solarsite.

solarsite is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

solarsite is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with solarsite.  If not, see <http://www.gnu.org/licenses/>.
*/

package solarsiteutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/solarsite"
	"github.com/spatialmodel/solarsite/irradiance"
	"github.com/spatialmodel/solarsite/proximity"
	"github.com/spatialmodel/solarsite/terrain"
	"github.com/spatialmodel/solarsite/vectorize"
	"github.com/spf13/cast"
)

// RunConfig creates a run configuration from the values in cfg.
// Paths are expanded with any environment variables they contain.
func RunConfig(cfg *viper.Viper) (*solarsite.Config, error) {
	period, err := solarsite.NamedPeriod(cfg.GetString("Irradiance.Period"), cfg.GetInt("Irradiance.Year"))
	if err != nil {
		return nil, err
	}
	period.DayInterval = cfg.GetInt("Irradiance.DayInterval")
	period.HourInterval = cfg.GetFloat64("Irradiance.HourInterval")

	flat, err := solarsite.ParseFlatPolicy(cfg.GetString("Aspect.FlatPolicy"))
	if err != nil {
		return nil, err
	}
	breaks, err := solarBreaks(cfg.Get("Solar.Breaks"))
	if err != nil {
		return nil, err
	}
	n := solarsite.DefaultNormalizerConfig()
	n.FlatPolicy = flat
	n.SolarBreaks = breaks

	return &solarsite.Config{
		Elevation:    os.ExpandEnv(cfg.GetString("Elevation")),
		Roads:        os.ExpandEnv(cfg.GetString("Roads")),
		OutputDir:    os.ExpandEnv(cfg.GetString("OutputDir")),
		OutputFormat: strings.ToLower(strings.TrimPrefix(cfg.GetString("OutputFormat"), ".")),
		Weights: solarsite.Weights{
			Solar:    cfg.GetFloat64("Weights.Solar"),
			Slope:    cfg.GetFloat64("Weights.Slope"),
			Aspect:   cfg.GetFloat64("Weights.Aspect"),
			Distance: cfg.GetFloat64("Weights.Distance"),
		},
		Threshold:       cfg.GetFloat64("Threshold"),
		MinArea:         cfg.GetFloat64("MinAreaM2"),
		Period:          period,
		Normalizer:      n,
		AllowGeographic: cfg.GetBool("AllowGeographic"),
	}, nil
}

// Collaborators returns the terrain, irradiance, distance and
// vectorization implementations configured in cfg.
func Collaborators(cfg *viper.Viper) (solarsite.Collaborators, error) {
	z := cfg.GetFloat64("Terrain.ZFactor")
	if !(z > 0) {
		return solarsite.Collaborators{}, fmt.Errorf("solarsite: Terrain.ZFactor must be positive, have %g", z)
	}
	t := terrain.Horn{ZFactor: z}
	return solarsite.Collaborators{
		Terrain:    t,
		Irradiance: ClearSky(cfg, t),
		Distance:   proximity.Euclidean{},
		Vectorizer: vectorize.Cells{},
	}, nil
}

// ClearSky returns the irradiance model configured in cfg.
func ClearSky(cfg *viper.Viper, t solarsite.TerrainDeriver) *irradiance.ClearSky {
	m := irradiance.NewClearSky()
	m.Latitude = cfg.GetFloat64("Irradiance.Latitude")
	m.LatitudeFromGrid = cfg.GetBool("Irradiance.LatitudeFromGrid")
	m.Transmissivity = cfg.GetFloat64("Irradiance.Transmissivity")
	m.DiffuseProportion = cfg.GetFloat64("Irradiance.DiffuseProportion")
	m.Terrain = t
	return m
}

// solarBreaks parses fixed irradiance breaks. They can be given as a
// list in a configuration file, as repeated or comma-separated
// command-line values, or as a comma-separated environment variable.
func solarBreaks(v interface{}) ([]float64, error) {
	switch s := v.(type) {
	case nil:
		return nil, nil
	case string:
		v = strings.Split(s, ",")
	}
	ss, err := cast.ToStringSliceE(v)
	if err != nil {
		return nil, fmt.Errorf("solarsite: invalid Solar.Breaks: %v", err)
	}
	var breaks []float64
	for _, s := range ss {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		b, err := cast.ToFloat64E(s)
		if err != nil {
			return nil, fmt.Errorf("solarsite: invalid Solar.Breaks value %q: %v", s, err)
		}
		breaks = append(breaks, b)
	}
	return breaks, nil
}

// checkLogFile returns the log file location. If none is specified,
// the log is written next to the output directory.
func checkLogFile(logFile, outputDir string) string {
	if logFile == "" {
		outputDir = filepath.Clean(outputDir)
		logFile = strings.TrimSuffix(outputDir, filepath.Ext(outputDir)) + ".log"
	}
	return logFile
}
