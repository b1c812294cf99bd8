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

package solarsite

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// Config holds the parameters of a suitability run.
type Config struct {
	// Elevation is the path to the elevation raster and Roads is the
	// path to the road network shapefile.
	Elevation, Roads string

	// OutputDir is the directory outputs are written to, and
	// OutputFormat is the raster format (FormatNetCDF or FormatASCII).
	OutputDir, OutputFormat string

	Weights Weights

	// Threshold is the minimum suitability of a zone cell and MinArea
	// the area (m²) a zone must exceed.
	Threshold, MinArea float64

	Period     Period
	Normalizer NormalizerConfig

	// AllowGeographic allows grids in longitude/latitude coordinates,
	// whose cell sizes are not in meters.
	AllowGeographic bool
}

// DefaultConfig returns a configuration with the standard weights,
// threshold, area filter and a summer irradiance period for year.
func DefaultConfig(year int) *Config {
	period, err := NamedPeriod("summer", year)
	if err != nil {
		panic(err)
	}
	return &Config{
		OutputDir:    "results",
		OutputFormat: FormatNetCDF,
		Weights:      DefaultWeights,
		Threshold:    DefaultThreshold,
		MinArea:      DefaultMinArea,
		Period:       period,
		Normalizer:   DefaultNormalizerConfig(),
	}
}

// Validate checks the configuration. Weight errors are reported as a
// *WeightConfigurationError.
func (c *Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if c.Elevation == "" {
		return fmt.Errorf("solarsite: stage configuration: no elevation file specified")
	}
	if c.Roads == "" {
		return fmt.Errorf("solarsite: stage configuration: no road shapefile specified")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("solarsite: stage configuration: no output directory specified")
	}
	if c.OutputFormat != FormatNetCDF && c.OutputFormat != FormatASCII {
		return fmt.Errorf("solarsite: stage configuration: invalid output format %q; valid options are %s and %s",
			c.OutputFormat, FormatNetCDF, FormatASCII)
	}
	if !(c.Threshold >= MinScore && c.Threshold <= MaxScore) {
		return fmt.Errorf("solarsite: stage configuration: threshold %g is outside [%d, %d]", c.Threshold, MinScore, MaxScore)
	}
	if !(c.MinArea >= 0) {
		return fmt.Errorf("solarsite: stage configuration: minimum area %g is negative", c.MinArea)
	}
	if err := c.Period.Validate(); err != nil {
		return fmt.Errorf("solarsite: stage configuration: %v", err)
	}
	if err := c.Normalizer.Validate(); err != nil {
		return fmt.Errorf("solarsite: stage configuration: %v", err)
	}
	return nil
}

// Collaborators holds the external implementations used by a run.
type Collaborators struct {
	Terrain    TerrainDeriver
	Irradiance IrradianceSimulator
	Distance   DistanceComputer
	Vectorizer Vectorizer

	// Area defaults to PolygonArea.
	Area AreaFunc
}

func (c Collaborators) check() error {
	switch {
	case c.Terrain == nil:
		return fmt.Errorf("solarsite: no terrain deriver")
	case c.Irradiance == nil:
		return fmt.Errorf("solarsite: no irradiance simulator")
	case c.Distance == nil:
		return fmt.Errorf("solarsite: no distance computer")
	case c.Vectorizer == nil:
		return fmt.Errorf("solarsite: no vectorizer")
	}
	return nil
}

// LoadInputs returns a stage that reads the elevation raster and road
// network.
func LoadInputs(elevation, roads string, allowGeographic bool) DomainManipulator {
	const name = "load inputs"
	return stage(name, func(ctx context.Context, p *Pipeline) error {
		for _, f := range []string{elevation, roads} {
			if _, err := os.Stat(f); err != nil {
				return fmt.Errorf("input file: %v", err)
			}
		}
		elev, err := ReadField(elevation, "elevation")
		if err != nil {
			return err
		}
		elev.Units, elev.Description = "m", "Elevation"
		if geo, err := elev.Geographic(); err != nil {
			return err
		} else if geo && !allowGeographic {
			return fmt.Errorf("elevation grid uses geographic coordinates; distance and area thresholds " +
				"require a projected grid in meters")
		}
		if elev.Proj == "" {
			p.Log.Warn("elevation grid projection is unknown")
		}
		p.Elevation = elev
		p.Log.WithFields(logrus.Fields{
			"grid":   elev.GridGeometry.String(),
			"nodata": elev.NoDataCount(),
		}).Info("read elevation")

		p.Roads, err = ReadRoads(roads, elev.GridGeometry, p.Log)
		if err != nil {
			return err
		}
		p.Log.WithField("features", len(p.Roads)).Info("read roads")
		return nil
	})
}

// DeriveTerrain returns a stage that computes slope and aspect.
func DeriveTerrain(t TerrainDeriver) DomainManipulator {
	const name = "derive terrain"
	return stage(name, func(ctx context.Context, p *Pipeline) error {
		slope, aspect, err := t.DeriveSlopeAspect(ctx, p.Elevation)
		if err != nil {
			return &CollaboratorError{Stage: name, Collaborator: "TerrainDeriver", Err: err}
		}
		if err := checkGeometry(name, p.Elevation.GridGeometry, slope, aspect); err != nil {
			return err
		}
		slope.Name, aspect.Name = "slope", "aspect"
		p.Slope, p.Aspect = slope, aspect
		return nil
	})
}

// SimulateIrradiance returns a stage that computes cumulative insolation
// over period.
func SimulateIrradiance(s IrradianceSimulator, period Period) DomainManipulator {
	const name = "simulate irradiance"
	return stage(name, func(ctx context.Context, p *Pipeline) error {
		irr, err := s.SimulateIrradiance(ctx, p.Elevation, period)
		if err != nil {
			return &CollaboratorError{Stage: name, Collaborator: "IrradianceSimulator", Err: err}
		}
		if err := checkGeometry(name, p.Elevation.GridGeometry, irr); err != nil {
			return err
		}
		irr.Name = "solar"
		p.Irradiance = irr
		return nil
	})
}

// ComputeDistance returns a stage that computes the distance from each
// cell to the nearest road.
func ComputeDistance(d DistanceComputer) DomainManipulator {
	const name = "compute distance"
	return stage(name, func(ctx context.Context, p *Pipeline) error {
		dist, err := d.ComputeDistanceField(ctx, p.Roads, p.Elevation.GridGeometry)
		if err != nil {
			return &CollaboratorError{Stage: name, Collaborator: "DistanceComputer", Err: err}
		}
		if err := checkGeometry(name, p.Elevation.GridGeometry, dist); err != nil {
			return err
		}
		dist.Name = "distance_to_roads"
		p.Distance = dist
		return nil
	})
}

// NewPipeline returns a pipeline that runs the full suitability model
// described by cfg using the collaborators c.
func NewPipeline(cfg *Config, c Collaborators, log logrus.FieldLogger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := c.check(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Pipeline{
		Log: log,
		InitFuncs: []DomainManipulator{
			LoadInputs(cfg.Elevation, cfg.Roads, cfg.AllowGeographic),
		},
		RunFuncs: []DomainManipulator{
			DeriveTerrain(c.Terrain),
			SimulateIrradiance(c.Irradiance, cfg.Period),
			ComputeDistance(c.Distance),
			Normalize(cfg.Normalizer),
			Combination(cfg.Weights),
			ZoneExtraction(cfg.Threshold, cfg.MinArea, c.Vectorizer, c.Area),
		},
		CleanupFuncs: []DomainManipulator{
			Save(cfg.OutputDir, cfg.OutputFormat, Manifest{
				Elevation: cfg.Elevation,
				Roads:     cfg.Roads,
				Weights:   cfg.Weights,
				Threshold: cfg.Threshold,
				MinAreaM2: cfg.MinArea,
				Period:    cfg.Period,
			}),
		},
	}, nil
}

// Run runs the suitability model described by cfg. The configuration is
// validated before any raster is read, and outputs are only written
// once every stage has succeeded.
func Run(ctx context.Context, cfg *Config, c Collaborators, log logrus.FieldLogger) (*Pipeline, error) {
	p, err := NewPipeline(cfg, c, log)
	if err != nil {
		return nil, err
	}
	if err := p.Init(ctx); err != nil {
		return p, err
	}
	if err := p.Run(ctx); err != nil {
		return p, err
	}
	if err := p.Cleanup(ctx); err != nil {
		return p, err
	}
	return p, nil
}
