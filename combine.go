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
	"math"
)

// Weights are the relative importance of each criterion in the
// suitability model.
type Weights struct {
	Solar    float64
	Slope    float64
	Aspect   float64
	Distance float64
}

// DefaultWeights are the standard criterion weights.
var DefaultWeights = Weights{Solar: 0.4, Slope: 0.3, Aspect: 0.2, Distance: 0.1}

// WeightTolerance is the allowed difference between the weight sum and 1.
const WeightTolerance = 1.e-6

// Sum returns the sum of the weights.
func (w Weights) Sum() float64 { return w.Solar + w.Slope + w.Aspect + w.Distance }

// Validate returns a *WeightConfigurationError if any weight is negative
// or the weights do not sum to 1.
func (w Weights) Validate() error {
	sum := w.Sum()
	for _, v := range []float64{w.Solar, w.Slope, w.Aspect, w.Distance} {
		if v < 0 || math.IsNaN(v) {
			return &WeightConfigurationError{Weights: w, Sum: sum}
		}
	}
	if math.IsNaN(sum) || math.Abs(sum-1) > WeightTolerance {
		return &WeightConfigurationError{Weights: w, Sum: sum}
	}
	return nil
}

// Combine computes the weighted suitability of four score fields.
// A cell is no-data if any of its scores is no-data.
func Combine(w Weights, solar, slope, aspect, distance *Field) (*Field, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if err := checkGeometry("combine", solar.GridGeometry, solar, slope, aspect, distance); err != nil {
		return nil, err
	}
	return Cellwise("suitability", "score", "Weighted suitability (1-5)", func(v ...float64) float64 {
		for _, s := range v {
			if IsNoData(s) {
				return NoData
			}
		}
		return w.Solar*v[0] + w.Slope*v[1] + w.Aspect*v[2] + w.Distance*v[3]
	}, solar, slope, aspect, distance), nil
}

// Combination returns a stage that combines the score fields into the
// suitability field.
func Combination(w Weights) DomainManipulator {
	const name = "combine"
	return stage(name, func(ctx context.Context, p *Pipeline) error {
		if err := checkGeometry(name, p.Elevation.GridGeometry,
			p.SolarScore, p.SlopeScore, p.AspectScore, p.DistanceScore); err != nil {
			return err
		}
		s, err := Combine(w, p.SolarScore, p.SlopeScore, p.AspectScore, p.DistanceScore)
		if err != nil {
			return err
		}
		p.Suitability = s
		if n := s.NoDataCount(); n > 0 {
			p.condition(Condition{
				Kind:    NoDataPropagation,
				Stage:   name,
				Field:   s.Name,
				Cells:   n,
				Message: fmt.Sprintf("%d of %d suitability cells have no data", n, s.Len()),
			})
		}
		return nil
	})
}
