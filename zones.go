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

	"github.com/ctessum/geom"
	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultThreshold is the minimum suitability of a zone cell.
	DefaultThreshold = 4.5

	// DefaultMinArea is the area in square meters that a zone
	// must exceed.
	DefaultMinArea = 20000.

	// thresholdTolerance absorbs rounding in the weighted sum.
	thresholdTolerance = 1.e-9

	squareMetersPerHectare = 10000.
)

// Threshold returns a mask that is 1 where suitability is at least
// threshold and 0 elsewhere, including no-data cells.
func Threshold(suitability *Field, threshold float64) *Field {
	return Cellwise("best_zones", "1", fmt.Sprintf("Cells with suitability >= %g", threshold),
		func(v ...float64) float64 {
			if IsNoData(v[0]) || v[0] < threshold-thresholdTolerance {
				return 0
			}
			return 1
		}, suitability)
}

// Zone is a contiguous candidate site.
type Zone struct {
	ID      int
	Polygon geom.Polygon

	// Area is in squared grid units; Hectares assumes meters.
	Area     float64
	Hectares float64

	// Cells is the number of grid cells whose centers fall within
	// the zone, and MeanScore is their mean suitability.
	Cells     int
	MeanScore float64
}

// ExtractZones vectorizes the 1-valued regions of mask and keeps those
// whose area is strictly greater than minArea. Regions are filtered
// independently of each other. It also returns the number of candidate
// polygons before filtering.
func ExtractZones(ctx context.Context, mask, suitability *Field, v Vectorizer, area AreaFunc, minArea float64) ([]*Zone, int, error) {
	const name = "extract zones"
	polys, err := v.VectorizePolygons(ctx, mask)
	if err != nil {
		return nil, 0, &CollaboratorError{Stage: name, Collaborator: "Vectorizer", Err: err}
	}
	var zones []*Zone
	for _, poly := range polys {
		a := area(poly)
		if math.IsNaN(a) {
			return nil, len(polys), &CollaboratorError{Stage: name, Collaborator: "AreaFunc",
				Err: fmt.Errorf("area of polygon with bounds %+v is NaN", poly.Bounds())}
		}
		if !(a > minArea) {
			continue
		}
		z := &Zone{ID: len(zones) + 1, Polygon: poly, Area: a, Hectares: a / squareMetersPerHectare}
		z.Cells, z.MeanScore = zoneStats(poly, suitability)
		zones = append(zones, z)
	}
	return zones, len(polys), nil
}

// zoneStats returns the number of cells whose centers are within poly and
// their mean valid value in f.
func zoneStats(poly geom.Polygon, f *Field) (int, float64) {
	b := poly.Bounds()
	i0 := clampIndex(int(math.Floor((b.Min.X-f.X0)/f.Dx)), f.Nx)
	i1 := clampIndex(int(math.Ceil((b.Max.X-f.X0)/f.Dx)), f.Nx)
	j0 := clampIndex(int(math.Floor((b.Min.Y-f.Y0)/f.Dy)), f.Ny)
	j1 := clampIndex(int(math.Ceil((b.Max.Y-f.Y0)/f.Dy)), f.Ny)
	var vals []float64
	n := 0
	for j := j0; j < j1; j++ {
		for i := i0; i < i1; i++ {
			if f.CellCenter(i, j).Within(poly) == geom.Outside {
				continue
			}
			n++
			if v := f.Get(i, j); !IsNoData(v) {
				vals = append(vals, v)
			}
		}
	}
	if len(vals) == 0 {
		return n, NoData
	}
	return n, stat.Mean(vals, nil)
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

// ZoneExtraction returns a stage that thresholds the suitability field
// and extracts the zones larger than minArea.
func ZoneExtraction(threshold, minArea float64, v Vectorizer, area AreaFunc) DomainManipulator {
	const name = "extract zones"
	return stage(name, func(ctx context.Context, p *Pipeline) error {
		if err := checkGeometry(name, p.Elevation.GridGeometry, p.Suitability); err != nil {
			return err
		}
		if area == nil {
			area = PolygonArea
		}
		p.Mask = Threshold(p.Suitability, threshold)
		zones, n, err := ExtractZones(ctx, p.Mask, p.Suitability, v, area, minArea)
		if err != nil {
			return err
		}
		p.Zones, p.Candidates = zones, n
		p.Log.WithField("candidates", n).WithField("zones", len(zones)).Info("zones extracted")
		if len(zones) == 0 {
			p.condition(Condition{
				Kind:  EmptyResult,
				Stage: name,
				Message: fmt.Sprintf("none of %d candidate regions with suitability >= %g exceeds %g m²",
					n, threshold, minArea),
			})
		}
		return nil
	})
}
