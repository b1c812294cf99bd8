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

// Package irradiance simulates cumulative clear-sky solar radiation on
// sloped terrain.
package irradiance

import (
	"context"
	"fmt"
	"math"

	"github.com/spatialmodel/solarsite"
	"github.com/spatialmodel/solarsite/terrain"
)

const (
	// SolarConstant is the extraterrestrial irradiance [W/m²].
	SolarConstant = 1367.

	// DefaultLatitude is the latitude used when none is configured [degrees].
	DefaultLatitude = 48.5

	// DefaultTransmissivity is the fraction of direct radiation that
	// reaches the surface through one air mass under clear skies.
	DefaultTransmissivity = 0.5

	// DefaultDiffuseProportion is the fraction of global radiation
	// that is diffuse.
	DefaultDiffuseProportion = 0.3

	deg = math.Pi / 180
)

// ClearSky is a clear-sky insolation model. Direct radiation
// is attenuated by the atmosphere along the optical path and projected
// onto each cell's surface; diffuse radiation is a fixed proportion of
// global radiation scaled by the visible sky fraction. Shading by
// surrounding terrain is not modelled.
type ClearSky struct {
	// Latitude in degrees. If LatitudeFromGrid is true, the latitude of
	// the grid center is used instead.
	Latitude         float64
	LatitudeFromGrid bool

	Transmissivity    float64
	DiffuseProportion float64

	// Terrain derives the slope and aspect that orient each cell.
	// Zero value is terrain.Horn{}.
	Terrain solarsite.TerrainDeriver
}

// NewClearSky returns a model with the default parameters.
func NewClearSky() *ClearSky {
	return &ClearSky{
		Latitude:          DefaultLatitude,
		Transmissivity:    DefaultTransmissivity,
		DiffuseProportion: DefaultDiffuseProportion,
	}
}

// sun is the sun position at one sampled time and the weight, in hours,
// of that sample.
type sun struct {
	cosZenith, sinZenith float64
	azimuth              float64 // compass radians
	eccentricity         float64
	hours                float64
}

// SimulateIrradiance implements solarsite.IrradianceSimulator. The result
// is the total insolation over period in Wh/m².
func (m *ClearSky) SimulateIrradiance(ctx context.Context, elev *solarsite.Field, period solarsite.Period) (*solarsite.Field, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	if !(m.Transmissivity > 0 && m.Transmissivity <= 1) {
		return nil, fmt.Errorf("irradiance: transmissivity %g is outside (0, 1]", m.Transmissivity)
	}
	if !(m.DiffuseProportion >= 0 && m.DiffuseProportion < 1) {
		return nil, fmt.Errorf("irradiance: diffuse proportion %g is outside [0, 1)", m.DiffuseProportion)
	}
	lat := m.Latitude
	if m.LatitudeFromGrid {
		var err error
		if lat, err = elev.CenterLatitude(); err != nil {
			return nil, fmt.Errorf("irradiance: %v", err)
		}
	}
	if lat < -90 || lat > 90 || math.IsNaN(lat) {
		return nil, fmt.Errorf("irradiance: latitude %g is outside [-90, 90]", lat)
	}

	td := m.Terrain
	if td == nil {
		td = terrain.Horn{}
	}
	slope, aspect, err := td.DeriveSlopeAspect(ctx, elev)
	if err != nil {
		return nil, fmt.Errorf("irradiance: deriving terrain: %v", err)
	}

	suns := sunPositions(lat, period)
	out := solarsite.NewField(elev.GridGeometry, "solar", "Wh/m2",
		fmt.Sprintf("Clear-sky insolation from %s to %s", period.Start.Format("2006-01-02"), period.End.Format("2006-01-02")))
	solarsite.ParallelRows(elev.Ny, func(j int) {
		if ctx.Err() != nil {
			return
		}
		for i := 0; i < elev.Nx; i++ {
			z, s, a := elev.Get(i, j), slope.Get(i, j), aspect.Get(i, j)
			if solarsite.IsNoData(z) || solarsite.IsNoData(s) || solarsite.IsNoData(a) {
				out.Set(solarsite.NoData, i, j)
				continue
			}
			out.Set(m.insolation(suns, z, s*deg, a*deg, a < 0), i, j)
		}
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// insolation returns the total radiation [Wh/m²] received by a surface at
// elevation z [m] with the given slope and aspect [radians].
func (m *ClearSky) insolation(suns []sun, z, slope, aspect float64, flat bool) float64 {
	// Pressure correction of the optical path for elevation.
	pressure := math.Exp(-0.000118*z - 1.638e-9*z*z)
	skyView := (1 + math.Cos(slope)) / 2
	cosS, sinS := math.Cos(slope), math.Sin(slope)
	var total float64
	for _, p := range suns {
		airMass := pressure / p.cosZenith
		normal := SolarConstant * p.eccentricity * math.Pow(m.Transmissivity, airMass)
		cosIncidence := p.cosZenith * cosS
		if !flat {
			cosIncidence += p.sinZenith * sinS * math.Cos(p.azimuth-aspect)
		}
		direct := 0.
		if cosIncidence > 0 {
			direct = normal * cosIncidence
		}
		global := normal * p.cosZenith / (1 - m.DiffuseProportion)
		diffuse := global * m.DiffuseProportion * skyView
		total += (direct + diffuse) * p.hours
	}
	return total
}

// minCosZenith excludes sun positions within about one degree of the
// horizon, where the air mass approximation fails.
const minCosZenith = 0.0175

// sunPositions samples the sun position every period.DayInterval days and
// every period.HourInterval hours of solar time. Each sample is weighted
// by the number of days and hours it represents.
func sunPositions(lat float64, period solarsite.Period) []sun {
	phi := lat * deg
	var suns []sun
	days := period.Days()
	for d := 0; d < days; d += period.DayInterval {
		dayWeight := float64(period.DayInterval)
		if rem := days - d; rem < period.DayInterval {
			dayWeight = float64(rem)
		}
		n := float64(period.Start.AddDate(0, 0, d).YearDay())
		decl := 23.45 * deg * math.Sin(2*math.Pi*(284+n)/365)
		ecc := 1 + 0.033*math.Cos(2*math.Pi*n/365)
		for t := period.HourInterval / 2; t < 24; t += period.HourInterval {
			omega := 15 * deg * (t - 12)
			cosZ := math.Sin(phi)*math.Sin(decl) + math.Cos(phi)*math.Cos(decl)*math.Cos(omega)
			if cosZ < minCosZenith {
				continue
			}
			sinZ := math.Sqrt(1 - cosZ*cosZ)
			// Azimuth measured from south, positive westward.
			az := math.Atan2(math.Sin(omega), math.Cos(omega)*math.Sin(phi)-math.Tan(decl)*math.Cos(phi))
			hours := period.HourInterval
			if t+period.HourInterval/2 > 24 {
				hours = 24 - (t - period.HourInterval/2)
			}
			suns = append(suns, sun{
				cosZenith:    cosZ,
				sinZenith:    sinZ,
				azimuth:      az + math.Pi,
				eccentricity: ecc,
				hours:        hours * dayWeight,
			})
		}
	}
	return suns
}
