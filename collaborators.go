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
	"strings"
	"time"

	"github.com/ctessum/geom"
)

// TerrainDeriver computes slope (degrees) and aspect (compass degrees,
// Flat for cells without gradient) from an elevation field.
type TerrainDeriver interface {
	DeriveSlopeAspect(ctx context.Context, elevation *Field) (slope, aspect *Field, err error)
}

// IrradianceSimulator computes cumulative insolation (Wh/m²) over
// a period for every cell of an elevation field.
type IrradianceSimulator interface {
	SimulateIrradiance(ctx context.Context, elevation *Field, period Period) (*Field, error)
}

// DistanceComputer computes the distance from every cell center of
// reference to the nearest of the given road geometries.
type DistanceComputer interface {
	ComputeDistanceField(ctx context.Context, roads []geom.Geom, reference GridGeometry) (*Field, error)
}

// Vectorizer converts the contiguous 1-valued regions of a mask
// into polygons.
type Vectorizer interface {
	VectorizePolygons(ctx context.Context, mask *Field) ([]geom.Polygon, error)
}

// AreaFunc returns the planar area of a polygon in squared grid units.
type AreaFunc func(geom.Polygon) float64

// PolygonArea is the default AreaFunc. Holes are subtracted.
func PolygonArea(p geom.Polygon) float64 { return p.Area() }

// Period is the time span over which irradiance is accumulated.
type Period struct {
	Name       string
	Start, End time.Time // inclusive dates

	// DayInterval is the number of days between sampled days.
	DayInterval int

	// HourInterval is the number of hours between sampled sun positions.
	HourInterval float64
}

// NamedPeriod returns the period with the given name ("summer",
// "autumn", "winter", "spring" or "year") in the given year.
// Winter runs from December of the previous year through February.
func NamedPeriod(name string, year int) (Period, error) {
	d := func(y int, m time.Month, day int) time.Time {
		return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	}
	p := Period{Name: strings.ToLower(name), DayInterval: 14, HourInterval: 2}
	switch p.Name {
	case "summer":
		p.Start, p.End = d(year, time.June, 1), d(year, time.August, 31)
	case "autumn":
		p.Start, p.End = d(year, time.September, 1), d(year, time.November, 30)
	case "winter":
		p.Start, p.End = d(year-1, time.December, 1), d(year, time.March, 1).AddDate(0, 0, -1)
	case "spring":
		p.Start, p.End = d(year, time.March, 1), d(year, time.May, 31)
	case "year":
		p.Start, p.End = d(year, time.January, 1), d(year, time.December, 31)
	default:
		return Period{}, fmt.Errorf("solarsite: unknown irradiance period %q", name)
	}
	return p, nil
}

// Validate checks that p spans at least one day and has positive
// sampling intervals.
func (p Period) Validate() error {
	if p.End.Before(p.Start) {
		return fmt.Errorf("solarsite: irradiance period ends (%s) before it starts (%s)",
			p.End.Format("2006-01-02"), p.Start.Format("2006-01-02"))
	}
	if p.DayInterval <= 0 {
		return fmt.Errorf("solarsite: irradiance day interval must be positive, have %d", p.DayInterval)
	}
	if !(p.HourInterval > 0) || p.HourInterval > 24 {
		return fmt.Errorf("solarsite: irradiance hour interval must be in (0, 24], have %g", p.HourInterval)
	}
	return nil
}

// Days returns the number of days in p, counting both ends.
func (p Period) Days() int {
	return int(p.End.Sub(p.Start).Hours()/24+0.5) + 1
}
