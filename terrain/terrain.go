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

// Package terrain derives slope and aspect from elevation grids.
package terrain

import (
	"context"
	"math"

	"github.com/spatialmodel/solarsite"
)

// Horn computes slope and aspect with Horn's (1981) weighted 3x3
// finite difference, as most GIS packages do.
type Horn struct {
	// ZFactor converts elevation units to horizontal units.
	// Zero is treated as 1.
	ZFactor float64
}

// DeriveSlopeAspect implements solarsite.TerrainDeriver. Slope is in
// degrees from horizontal and aspect in compass degrees of the downslope
// direction, or solarsite.Flat where the surface has no gradient.
// Neighbors outside the grid or without data are extrapolated from the
// opposite neighbor; cells without data stay no-data.
func (h Horn) DeriveSlopeAspect(ctx context.Context, elev *solarsite.Field) (slope, aspect *solarsite.Field, err error) {
	if err := elev.Check(); err != nil {
		return nil, nil, err
	}
	z := h.ZFactor
	if z == 0 {
		z = 1
	}
	slope = solarsite.NewField(elev.GridGeometry, "slope", "degrees", "Slope")
	aspect = solarsite.NewField(elev.GridGeometry, "aspect", "degrees", "Aspect (clockwise from north; -1 is flat)")

	solarsite.ParallelRows(elev.Ny, func(j int) {
		if ctx.Err() != nil {
			return
		}
		for i := 0; i < elev.Nx; i++ {
			zc := elev.Get(i, j)
			if solarsite.IsNoData(zc) {
				slope.Set(solarsite.NoData, i, j)
				aspect.Set(solarsite.NoData, i, j)
				continue
			}
			var w [3][3]float64 // w[dj+1][di+1]
			for dj := -1; dj <= 1; dj++ {
				for di := -1; di <= 1; di++ {
					w[dj+1][di+1] = neighbor(elev, i, j, di, dj, zc)
				}
			}
			dzdx := ((w[0][2] + 2*w[1][2] + w[2][2]) - (w[0][0] + 2*w[1][0] + w[2][0])) / (8 * elev.Dx)
			dzdy := ((w[2][0] + 2*w[2][1] + w[2][2]) - (w[0][0] + 2*w[0][1] + w[0][2])) / (8 * elev.Dy)
			dzdx, dzdy = dzdx*z, dzdy*z
			s, a := slopeAspect(dzdx, dzdy)
			slope.Set(s, i, j)
			aspect.Set(a, i, j)
		}
	})
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return slope, aspect, nil
}

// slopeAspect converts an eastward and northward elevation gradient to
// slope and compass aspect in degrees.
func slopeAspect(dzdx, dzdy float64) (float64, float64) {
	s := math.Atan(math.Hypot(dzdx, dzdy)) * 180 / math.Pi
	if dzdx == 0 && dzdy == 0 {
		return s, solarsite.Flat
	}
	a := math.Atan2(-dzdx, -dzdy) * 180 / math.Pi
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a -= 360
	}
	return s, a
}

// neighbor returns the elevation at offset (di, dj) from cell (i, j).
func neighbor(elev *solarsite.Field, i, j, di, dj int, zc float64) float64 {
	if v, ok := value(elev, i+di, j+dj); ok {
		return v
	}
	if di == 0 && dj == 0 {
		return zc
	}
	if v, ok := value(elev, i-di, j-dj); ok {
		return 2*zc - v
	}
	if di != 0 && dj != 0 {
		// Both diagonals along this axis are missing, as at grid corners.
		return neighbor(elev, i, j, di, 0, zc) + neighbor(elev, i, j, 0, dj, zc) - zc
	}
	return zc
}

func value(elev *solarsite.Field, i, j int) (float64, bool) {
	if i < 0 || j < 0 || i >= elev.Nx || j >= elev.Ny {
		return 0, false
	}
	v := elev.Get(i, j)
	return v, !solarsite.IsNoData(v)
}
