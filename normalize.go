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
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Minimum and maximum ordinal scores.
const (
	MinScore = 1
	MaxScore = 5
)

// Band assigns Score to values greater than or equal to Lower.
type Band struct {
	Lower float64
	Score int
}

// Bands is a breakpoint table sorted by ascending lower bound. A value
// takes the score of the last band whose lower bound it reaches.
type Bands []Band

// SlopeBands scores slope in degrees: gentler is better.
var SlopeBands = Bands{{0, 5}, {5, 4}, {10, 3}, {15, 2}, {20, 1}}

// DistanceBands scores distance to the nearest road in meters:
// closer is better.
var DistanceBands = Bands{{0, 5}, {500, 4}, {1000, 3}, {2000, 2}, {3000, 1}}

// Score returns the score of v, or NoData if v is no-data or below
// the first band.
func (b Bands) Score(v float64) float64 {
	if IsNoData(v) {
		return NoData
	}
	s := NoData
	for _, band := range b {
		if v < band.Lower {
			break
		}
		s = float64(band.Score)
	}
	return s
}

// Validate checks that b is non-empty, strictly ascending and only
// contains scores in [MinScore, MaxScore].
func (b Bands) Validate() error {
	if len(b) == 0 {
		return fmt.Errorf("solarsite: empty breakpoint table")
	}
	for i, band := range b {
		if band.Score < MinScore || band.Score > MaxScore {
			return fmt.Errorf("solarsite: breakpoint score %d is outside [%d, %d]", band.Score, MinScore, MaxScore)
		}
		if i > 0 && !(band.Lower > b[i-1].Lower) {
			return fmt.Errorf("solarsite: breakpoints are not ascending at %g", band.Lower)
		}
	}
	return nil
}

// FlatPolicy determines the aspect score of flat cells.
type FlatPolicy int

const (
	// FlatNeutral gives flat cells the middle score.
	FlatNeutral FlatPolicy = iota
	// FlatNoData gives flat cells no-data.
	FlatNoData
)

// ParseFlatPolicy parses "neutral" or "nodata".
func ParseFlatPolicy(s string) (FlatPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "neutral", "":
		return FlatNeutral, nil
	case "nodata":
		return FlatNoData, nil
	default:
		return FlatNeutral, fmt.Errorf("solarsite: invalid aspect flat policy %q; valid options are neutral and nodata", s)
	}
}

func (p FlatPolicy) String() string {
	if p == FlatNoData {
		return "nodata"
	}
	return "neutral"
}

// AspectScore scores a compass aspect by its deviation from due south.
// South-facing slopes score highest and north-facing slopes lowest;
// negative aspects are treated as flat.
func AspectScore(aspect float64, policy FlatPolicy) float64 {
	if IsNoData(aspect) {
		return NoData
	}
	if aspect < 0 {
		if policy == FlatNoData {
			return NoData
		}
		return 3
	}
	d := math.Abs(math.Mod(aspect, 360) - 180)
	switch {
	case d <= 45:
		return 5
	case d <= 90:
		return 4
	case d <= 135:
		return 2
	default:
		return 1
	}
}

// ErrNothingToClassify is returned by QuantileBreaks for a field with no
// valid, positive values.
var ErrNothingToClassify = errors.New("no positive values to classify")

// QuantileBreaks returns the n-1 interior breaks that split the valid,
// positive values of f into n classes of similar size.
func QuantileBreaks(f *Field, n int) ([]float64, error) {
	if n < 2 {
		return nil, fmt.Errorf("solarsite: need at least 2 classes, have %d", n)
	}
	var x []float64
	for _, v := range f.Data.Elements {
		if !IsNoData(v) && v > 0 {
			x = append(x, v)
		}
	}
	if len(x) == 0 {
		return nil, fmt.Errorf("field %s: %w", f.Name, ErrNothingToClassify)
	}
	sort.Float64s(x)
	breaks := make([]float64, n-1)
	for k := range breaks {
		breaks[k] = stat.Quantile(float64(k+1)/float64(n), stat.Empirical, x, nil)
	}
	return breaks, nil
}

// BreakScore returns 1 plus the number of breaks at or below v.
// Values that are not positive are left unclassified as no-data, as
// they are when the breaks are computed.
func BreakScore(v float64, breaks []float64) float64 {
	if IsNoData(v) || !(v > 0) {
		return NoData
	}
	s := MinScore
	for _, b := range breaks {
		if v >= b {
			s++
		}
	}
	return float64(s)
}

// NormalizerConfig holds the breakpoint tables used to score criteria.
type NormalizerConfig struct {
	SlopeBands    Bands
	DistanceBands Bands
	FlatPolicy    FlatPolicy

	// SolarBreaks are fixed interior irradiance breaks. When empty,
	// quintile breaks are computed from the irradiance field.
	SolarBreaks []float64
}

// DefaultNormalizerConfig returns the standard breakpoint tables.
func DefaultNormalizerConfig() NormalizerConfig {
	return NormalizerConfig{
		SlopeBands:    SlopeBands,
		DistanceBands: DistanceBands,
		FlatPolicy:    FlatNeutral,
	}
}

// Validate checks the breakpoint tables.
func (c NormalizerConfig) Validate() error {
	if err := c.SlopeBands.Validate(); err != nil {
		return fmt.Errorf("solarsite: slope: %v", err)
	}
	if err := c.DistanceBands.Validate(); err != nil {
		return fmt.Errorf("solarsite: distance: %v", err)
	}
	if len(c.SolarBreaks) > MaxScore-MinScore {
		return fmt.Errorf("solarsite: %d irradiance breaks give more than %d classes", len(c.SolarBreaks), MaxScore)
	}
	if !sort.Float64sAreSorted(c.SolarBreaks) {
		return fmt.Errorf("solarsite: irradiance breaks %v are not ascending", c.SolarBreaks)
	}
	return nil
}

func scoreField(in *Field, name, description string, score func(float64) float64) *Field {
	return Cellwise(name, "score", description, func(v ...float64) float64 { return score(v[0]) }, in)
}

// NormalizeSlope scores a slope field.
func NormalizeSlope(slope *Field, b Bands) *Field {
	return scoreField(slope, "slope_score", "Slope score (1-5, gentler is better)", b.Score)
}

// NormalizeAspect scores an aspect field.
func NormalizeAspect(aspect *Field, policy FlatPolicy) *Field {
	return scoreField(aspect, "aspect_score", "Aspect score (1-5, south-facing is better)",
		func(v float64) float64 { return AspectScore(v, policy) })
}

// NormalizeIrradiance scores an irradiance field with the given
// interior breaks.
func NormalizeIrradiance(irradiance *Field, breaks []float64) *Field {
	return scoreField(irradiance, "solar_score", "Solar irradiance score (1-5, more is better)",
		func(v float64) float64 { return BreakScore(v, breaks) })
}

// NormalizeDistance scores a distance-to-roads field.
func NormalizeDistance(distance *Field, b Bands) *Field {
	return scoreField(distance, "distance_score", "Road distance score (1-5, closer is better)", b.Score)
}

// Normalize returns a stage that scores the four criteria fields.
func Normalize(c NormalizerConfig) DomainManipulator {
	const name = "normalize"
	return stage(name, func(ctx context.Context, p *Pipeline) error {
		if err := checkGeometry(name, p.Elevation.GridGeometry, p.Slope, p.Aspect, p.Irradiance, p.Distance); err != nil {
			return err
		}
		breaks := c.SolarBreaks
		if len(breaks) == 0 {
			var err error
			breaks, err = QuantileBreaks(p.Irradiance, MaxScore-MinScore+1)
			switch {
			case errors.Is(err, ErrNothingToClassify):
				// Every irradiance score is no-data, which is
				// recorded below.
				p.Log.WithField("field", p.Irradiance.Name).Warn("no irradiance values to classify")
			case err != nil:
				return err
			}
		}
		p.SolarBreaks = breaks
		p.Log.WithField("breaks", breaks).Debug("irradiance class breaks")

		p.SlopeScore = NormalizeSlope(p.Slope, c.SlopeBands)
		p.AspectScore = NormalizeAspect(p.Aspect, c.FlatPolicy)
		p.SolarScore = NormalizeIrradiance(p.Irradiance, breaks)
		p.DistanceScore = NormalizeDistance(p.Distance, c.DistanceBands)

		for _, f := range []*Field{p.SlopeScore, p.AspectScore, p.SolarScore, p.DistanceScore} {
			if n := f.NoDataCount(); n > 0 {
				p.condition(Condition{
					Kind:    NoDataPropagation,
					Stage:   name,
					Field:   f.Name,
					Cells:   n,
					Message: fmt.Sprintf("%d of %d cells in %s have no data", n, f.Len(), f.Name),
				})
			}
		}
		return nil
	})
}
