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

// Package proximity computes distances from grid cells to line features.
package proximity

import (
	"context"
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/spatialmodel/solarsite"
)

// segment is a straight piece of a feature, stored as a two-point
// LineString. Points are stored as one-point LineStrings.
type segment struct {
	geom.LineString
}

// distance returns the distance from p to the closest point of s.
func (s *segment) distance(p geom.Point) float64 {
	a := s.LineString[0]
	if len(s.LineString) == 1 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	b := s.LineString[1]
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}

// Index is a spatial index of feature segments.
type Index struct {
	tree   *rtree.Rtree
	bounds *geom.Bounds
	n      int
}

// NewIndex indexes the segments of the given features. Lines, polygon
// rings and points are supported.
func NewIndex(features []geom.Geom) (*Index, error) {
	ix := &Index{tree: rtree.NewTree(25, 50), bounds: geom.NewBounds()}
	add := func(s *segment) {
		ix.tree.Insert(s)
		ix.bounds.Extend(s.Bounds())
		ix.n++
	}
	addPath := func(path []geom.Point, closed bool) {
		if len(path) == 1 {
			add(&segment{geom.LineString{path[0]}})
		}
		for i := 1; i < len(path); i++ {
			add(&segment{geom.LineString{path[i-1], path[i]}})
		}
		if closed && len(path) > 2 && !path[0].Equals(path[len(path)-1]) {
			add(&segment{geom.LineString{path[len(path)-1], path[0]}})
		}
	}
	for i, f := range features {
		switch g := f.(type) {
		case geom.LineString:
			addPath(g, false)
		case geom.MultiLineString:
			for _, l := range g {
				addPath(l, false)
			}
		case geom.Polygon:
			for _, r := range g {
				addPath(r, true)
			}
		case geom.MultiPolygon:
			for _, p := range g {
				for _, r := range p {
					addPath(r, true)
				}
			}
		case geom.Point:
			addPath([]geom.Point{g}, false)
		case geom.MultiPoint:
			for _, p := range g {
				addPath([]geom.Point{p}, false)
			}
		case nil:
		default:
			return nil, fmt.Errorf("proximity: feature %d has unsupported geometry type %T", i, f)
		}
	}
	if ix.n == 0 {
		return nil, fmt.Errorf("proximity: no line segments among %d features", len(features))
	}
	return ix, nil
}

// Len returns the number of indexed segments.
func (ix *Index) Len() int { return ix.n }

// Distance returns the distance from p to the nearest indexed segment.
// The search box starts with half-width r and doubles until it holds a
// segment closer than its half-width or covers every segment.
func (ix *Index) Distance(p geom.Point, r float64) float64 {
	if !(r > 0) {
		r = 1
	}
	for {
		box := &geom.Bounds{
			Min: geom.Point{X: p.X - r, Y: p.Y - r},
			Max: geom.Point{X: p.X + r, Y: p.Y + r},
		}
		best := math.Inf(1)
		for _, s := range ix.tree.SearchIntersect(box) {
			if d := s.(*segment).distance(p); d < best {
				best = d
			}
		}
		if best <= r || covers(box, ix.bounds) {
			return best
		}
		r *= 2
	}
}

func covers(outer, inner *geom.Bounds) bool {
	return outer.Min.X <= inner.Min.X && outer.Min.Y <= inner.Min.Y &&
		outer.Max.X >= inner.Max.X && outer.Max.Y >= inner.Max.Y
}

// Euclidean computes straight-line distances to the nearest road.
type Euclidean struct{}

// ComputeDistanceField implements solarsite.DistanceComputer. Distances
// are measured from cell centers in grid units.
func (Euclidean) ComputeDistanceField(ctx context.Context, roads []geom.Geom, g solarsite.GridGeometry) (*solarsite.Field, error) {
	if err := g.Check(); err != nil {
		return nil, err
	}
	ix, err := NewIndex(roads)
	if err != nil {
		return nil, err
	}
	out := solarsite.NewField(g, "distance_to_roads", "m", "Distance to the nearest road")
	r := math.Max(g.Dx, g.Dy)
	solarsite.ParallelRows(g.Ny, func(j int) {
		if ctx.Err() != nil {
			return
		}
		for i := 0; i < g.Nx; i++ {
			out.Set(ix.Distance(g.CellCenter(i, j), r), i, j)
		}
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
