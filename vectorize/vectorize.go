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

// Package vectorize converts raster masks into polygons.
package vectorize

import (
	"context"
	"fmt"

	"github.com/ctessum/geom"
	"github.com/spatialmodel/solarsite"
)

// Cells traces each 4-connected region of cells with value 1 into a
// polygon whose edges follow cell boundaries. Outer rings are counter-
// clockwise and holes clockwise. Regions are returned in scan order,
// starting from the south-west corner.
type Cells struct{}

// VectorizePolygons implements solarsite.Vectorizer.
func (Cells) VectorizePolygons(ctx context.Context, mask *solarsite.Field) ([]geom.Polygon, error) {
	if err := mask.Check(); err != nil {
		return nil, err
	}
	labels, n := Label(mask)
	comps := make([][]int, n)
	for c, l := range labels {
		if l > 0 {
			comps[l-1] = append(comps[l-1], c)
		}
	}
	polys := make([]geom.Polygon, n)
	for k, cells := range comps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, err := trace(mask.GridGeometry, labels, k+1, cells)
		if err != nil {
			return nil, err
		}
		polys[k] = p
	}
	return polys, nil
}

// Label assigns a label from 1 to n to every 4-connected region of
// cells whose value is 1, in scan order. Other cells get label 0.
// labels is indexed by j*Nx+i.
func Label(mask *solarsite.Field) (labels []int, n int) {
	nx, ny := mask.Nx, mask.Ny
	labels = make([]int, nx*ny)
	var stack []int
	for c := range labels {
		i, j := c%nx, c/nx
		if labels[c] != 0 || mask.Get(i, j) != 1 {
			continue
		}
		n++
		labels[c] = n
		stack = append(stack[:0], c)
		for len(stack) > 0 {
			c := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			i, j := c%nx, c/nx
			for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
				ii, jj := i+d[0], j+d[1]
				if ii < 0 || jj < 0 || ii >= nx || jj >= ny {
					continue
				}
				cc := jj*nx + ii
				if labels[cc] == 0 && mask.Get(ii, jj) == 1 {
					labels[cc] = n
					stack = append(stack, cc)
				}
			}
		}
	}
	return labels, n
}

// edge is a directed cell boundary edge between lattice vertices, with
// the region on its left.
type edge struct {
	from, to int
	dx, dy   int
	used     bool
}

// trace returns the polygon of the region with the given label.
func trace(g solarsite.GridGeometry, labels []int, label int, cells []int) (geom.Polygon, error) {
	nx, ny := g.Nx, g.Ny
	in := func(i, j int) bool {
		return i >= 0 && j >= 0 && i < nx && j < ny && labels[j*nx+i] == label
	}
	vertex := func(i, j int) int { return j*(nx+1) + i }

	var edges []*edge
	out := make(map[int][]*edge)
	add := func(i0, j0, i1, j1 int) {
		e := &edge{from: vertex(i0, j0), to: vertex(i1, j1), dx: i1 - i0, dy: j1 - j0}
		edges = append(edges, e)
		out[e.from] = append(out[e.from], e)
	}
	for _, c := range cells {
		i, j := c%nx, c/nx
		if !in(i, j-1) {
			add(i, j, i+1, j)
		}
		if !in(i+1, j) {
			add(i+1, j, i+1, j+1)
		}
		if !in(i, j+1) {
			add(i+1, j+1, i, j+1)
		}
		if !in(i-1, j) {
			add(i, j+1, i, j)
		}
	}

	var outer []geom.Point
	var holes [][]geom.Point
	for _, start := range edges {
		if start.used {
			continue
		}
		var ring []int
		e := start
		for {
			e.used = true
			ring = append(ring, e.from)
			next := turnLeft(e, out[e.to])
			if next == nil {
				return nil, fmt.Errorf("vectorize: open boundary at vertex %d of region %d", e.to, label)
			}
			if next == start {
				break
			}
			if next.used {
				return nil, fmt.Errorf("vectorize: boundary of region %d crosses itself at vertex %d", label, e.to)
			}
			e = next
		}
		pts := ringPoints(g, simplify(ring, nx+1))
		if signedArea(pts) > 0 {
			if outer != nil {
				return nil, fmt.Errorf("vectorize: region %d has more than one outer ring", label)
			}
			outer = pts
		} else {
			holes = append(holes, pts)
		}
	}
	if outer == nil {
		return nil, fmt.Errorf("vectorize: region %d has no outer ring", label)
	}
	p := geom.Polygon{outer}
	for _, h := range holes {
		p = append(p, h)
	}
	return p, nil
}

// turnLeft chooses the edge that leaves the end of e. Where two regions'
// corners touch, a vertex has two outgoing edges; taking the left turn
// keeps the boundary against the cell it is tracing, so that diagonal
// neighbors are not joined.
func turnLeft(e *edge, candidates []*edge) *edge {
	if len(candidates) == 1 {
		return candidates[0]
	}
	for _, c := range candidates {
		if c.dx == -e.dy && c.dy == e.dx {
			return c
		}
	}
	return nil
}

// simplify removes vertices where the boundary does not change direction.
func simplify(ring []int, stride int) []int {
	dir := func(a, b int) (int, int) {
		return b%stride - a%stride, b/stride - a/stride
	}
	var o []int
	n := len(ring)
	for k := range ring {
		prev, cur, next := ring[(k+n-1)%n], ring[k], ring[(k+1)%n]
		dx0, dy0 := dir(prev, cur)
		dx1, dy1 := dir(cur, next)
		if dx0 == dx1 && dy0 == dy1 {
			continue
		}
		o = append(o, cur)
	}
	return o
}

// ringPoints converts lattice vertices into a closed ring of coordinates.
func ringPoints(g solarsite.GridGeometry, ring []int) []geom.Point {
	stride := g.Nx + 1
	pts := make([]geom.Point, 0, len(ring)+1)
	for _, v := range ring {
		i, j := v%stride, v/stride
		pts = append(pts, geom.Point{X: g.X0 + float64(i)*g.Dx, Y: g.Y0 + float64(j)*g.Dy})
	}
	return append(pts, pts[0])
}

// signedArea is positive for counter-clockwise rings.
func signedArea(r []geom.Point) float64 {
	var a float64
	for k := 0; k+1 < len(r); k++ {
		a += r[k].X*r[k+1].Y - r[k+1].X*r[k].Y
	}
	return a / 2
}
