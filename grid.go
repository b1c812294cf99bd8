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
	"fmt"
	"math"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/ctessum/sparse"
)

const (
	// NoData is the sentinel value for cells without a valid value.
	NoData = -9999.

	// Flat is the aspect value of cells with zero gradient.
	Flat = -1.
)

// IsNoData returns whether v is the no-data sentinel or NaN.
func IsNoData(v float64) bool {
	return v == NoData || math.IsNaN(v)
}

// GridGeometry describes the layout shared by every raster in a run.
// Row index j increases northward from Y0 and column index i increases
// eastward from X0.
type GridGeometry struct {
	X0, Y0 float64 // lower-left corner
	Dx, Dy float64 // cell edge lengths
	Nx, Ny int     // number of columns and rows

	// Proj is the Proj4 or WKT description of the coordinate reference
	// system. It is empty when unknown.
	Proj string
}

// Check returns an error if g does not describe a usable grid.
func (g GridGeometry) Check() error {
	if g.Nx <= 0 || g.Ny <= 0 {
		return fmt.Errorf("solarsite: grid has %dx%d cells", g.Nx, g.Ny)
	}
	if !(g.Dx > 0) || !(g.Dy > 0) {
		return fmt.Errorf("solarsite: grid cell size %gx%g is not positive", g.Dx, g.Dy)
	}
	return nil
}

// Len returns the number of cells in the grid.
func (g GridGeometry) Len() int { return g.Nx * g.Ny }

// CellArea returns the area of a single cell in squared grid units.
func (g GridGeometry) CellArea() float64 { return g.Dx * g.Dy }

// CellCenter returns the center of the cell in column i and row j.
func (g GridGeometry) CellCenter(i, j int) geom.Point {
	return geom.Point{
		X: g.X0 + (float64(i)+0.5)*g.Dx,
		Y: g.Y0 + (float64(j)+0.5)*g.Dy,
	}
}

// Bounds returns the extent of the grid.
func (g GridGeometry) Bounds() *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: g.X0, Y: g.Y0},
		Max: geom.Point{X: g.X0 + float64(g.Nx)*g.Dx, Y: g.Y0 + float64(g.Ny)*g.Dy},
	}
}

// SR returns the parsed spatial reference of the grid, or nil
// if the projection is unknown.
func (g GridGeometry) SR() (*proj.SR, error) {
	if strings.TrimSpace(g.Proj) == "" {
		return nil, nil
	}
	sr, err := proj.Parse(g.Proj)
	if err != nil {
		return nil, fmt.Errorf("solarsite: parsing grid projection: %v", err)
	}
	return sr, nil
}

// Geographic returns whether the grid coordinates are angular
// (longitude/latitude) rather than linear.
func (g GridGeometry) Geographic() (bool, error) {
	sr, err := g.SR()
	if err != nil || sr == nil {
		return false, err
	}
	return sr.Name == "longlat", nil
}

// CenterLatitude returns the latitude in degrees of the center of the grid.
func (g GridGeometry) CenterLatitude() (float64, error) {
	sr, err := g.SR()
	if err != nil {
		return math.NaN(), err
	}
	if sr == nil {
		return math.NaN(), fmt.Errorf("solarsite: grid projection is unknown; cannot compute latitude")
	}
	b := g.Bounds()
	c := geom.Point{X: (b.Min.X + b.Max.X) / 2, Y: (b.Min.Y + b.Max.Y) / 2}
	if sr.Name == "longlat" {
		return c.Y, nil
	}
	ll, err := proj.Parse("+proj=longlat +datum=WGS84 +no_defs")
	if err != nil {
		return math.NaN(), err
	}
	t, err := sr.NewTransform(ll)
	if err != nil {
		return math.NaN(), fmt.Errorf("solarsite: grid latitude: %v", err)
	}
	p, err := c.Transform(t)
	if err != nil {
		return math.NaN(), fmt.Errorf("solarsite: grid latitude: %v", err)
	}
	return p.(geom.Point).Y, nil
}

// geometryTolerance is the relative tolerance used when comparing
// grid coordinates.
const geometryTolerance = 1.e-9

// Matches returns whether o describes the same cells in the same
// coordinate reference system as g.
func (g GridGeometry) Matches(o GridGeometry) bool {
	if g.Nx != o.Nx || g.Ny != o.Ny {
		return false
	}
	for _, v := range [][2]float64{{g.X0, o.X0}, {g.Y0, o.Y0}, {g.Dx, o.Dx}, {g.Dy, o.Dy}} {
		if !closeTo(v[0], v[1], g.Dx+g.Dy) {
			return false
		}
	}
	return sameProjection(g.Proj, o.Proj)
}

func closeTo(a, b, scale float64) bool {
	return math.Abs(a-b) <= geometryTolerance*math.Max(scale, math.Max(math.Abs(a), math.Abs(b)))
}

func sameProjection(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == b {
		return true
	}
	if a == "" || b == "" {
		return false
	}
	sa, err := proj.Parse(a)
	if err != nil {
		return false
	}
	sb, err := proj.Parse(b)
	if err != nil {
		return false
	}
	return sa.Equal(sb, 1e3)
}

func (g GridGeometry) String() string {
	s := fmt.Sprintf("%dx%d cells of %gx%g from (%g, %g)", g.Nx, g.Ny, g.Dx, g.Dy, g.X0, g.Y0)
	if g.Proj != "" {
		s += " in " + g.Proj
	}
	return s
}

// Field is a raster of values on a GridGeometry.
type Field struct {
	GridGeometry
	Name        string
	Units       string
	Description string

	// Data holds the values in [row, column] order.
	Data *sparse.DenseArray
}

// NewField returns a field of zeros with the given geometry.
func NewField(g GridGeometry, name, units, description string) *Field {
	return &Field{
		GridGeometry: g,
		Name:         name,
		Units:        units,
		Description:  description,
		Data:         sparse.ZerosDense(g.Ny, g.Nx),
	}
}

// Get returns the value in column i and row j.
func (f *Field) Get(i, j int) float64 { return f.Data.Get(j, i) }

// Set sets the value in column i and row j.
func (f *Field) Set(v float64, i, j int) { f.Data.Set(v, j, i) }

// NoDataCount returns the number of cells without a valid value.
func (f *Field) NoDataCount() int {
	n := 0
	for _, v := range f.Data.Elements {
		if IsNoData(v) {
			n++
		}
	}
	return n
}

// Valid returns the valid values in f.
func (f *Field) Valid() []float64 {
	o := make([]float64, 0, len(f.Data.Elements))
	for _, v := range f.Data.Elements {
		if !IsNoData(v) {
			o = append(o, v)
		}
	}
	return o
}

// checkGeometry returns a *GeometryMismatchError for the first field
// whose geometry does not match want.
func checkGeometry(stage string, want GridGeometry, fields ...*Field) error {
	for _, f := range fields {
		if f == nil {
			return fmt.Errorf("solarsite: stage %s: missing field", stage)
		}
		if !want.Matches(f.GridGeometry) {
			return &GeometryMismatchError{Stage: stage, Field: f.Name, Want: want, Have: f.GridGeometry}
		}
		if nr := f.Data.Shape; len(nr) != 2 || nr[0] != want.Ny || nr[1] != want.Nx {
			return &GeometryMismatchError{Stage: stage, Field: f.Name, Want: want, Have: f.GridGeometry}
		}
	}
	return nil
}
