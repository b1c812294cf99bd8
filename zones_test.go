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
	"math"
	"testing"

	"github.com/ctessum/geom"
)

// boxes returns a fixed set of polygons regardless of the mask.
type boxes []geom.Polygon

func (b boxes) VectorizePolygons(ctx context.Context, mask *Field) ([]geom.Polygon, error) {
	return b, nil
}

type failingVectorizer struct{ err error }

func (f failingVectorizer) VectorizePolygons(ctx context.Context, mask *Field) ([]geom.Polygon, error) {
	return nil, f.err
}

func box(x0, y0, x1, y1 float64) geom.Polygon {
	return geom.Polygon{{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y0}}}
}

func zoneGrid() *Field {
	f := NewField(GridGeometry{Dx: 10, Dy: 10, Nx: 10, Ny: 10}, "suitability", "score", "")
	for j := 0; j < f.Ny; j++ {
		for i := 0; i < f.Nx; i++ {
			f.Set(4+float64(i)/10, i, j)
		}
	}
	return f
}

// Each region is kept or dropped on its own area, regardless of its
// neighbors.
func TestExtractZonesAreaFilter(t *testing.T) {
	suit := zoneGrid()
	polys := boxes{
		box(0, 0, 20, 20),   // 400
		box(50, 50, 80, 80), // 900
		box(0, 80, 10, 100), // 200
		box(30, 0, 50, 10),  // 200
	}
	zones, n, err := ExtractZones(context.Background(), Threshold(suit, 4), suit, polys, PolygonArea, 200)
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("candidates: have %d, want 4", n)
	}
	if len(zones) != 2 {
		t.Fatalf("have %d zones, want 2", len(zones))
	}
	want := []struct {
		id    int
		area  float64
		cells int
		mean  float64
	}{
		{id: 1, area: 400, cells: 4, mean: 4.05},
		{id: 2, area: 900, cells: 9, mean: 4.6},
	}
	for k, w := range want {
		z := zones[k]
		if z.ID != w.id || z.Area != w.area || z.Cells != w.cells {
			t.Errorf("zone %d: have id %d, area %g, cells %d", k, z.ID, z.Area, z.Cells)
		}
		if math.Abs(z.MeanScore-w.mean) > 1e-9 {
			t.Errorf("zone %d: have mean %g, want %g", k, z.MeanScore, w.mean)
		}
		if z.Hectares != w.area/10000 {
			t.Errorf("zone %d: have %g ha", k, z.Hectares)
		}
	}
}

// A region exactly at the minimum area is excluded.
func TestExtractZonesStrictArea(t *testing.T) {
	suit := zoneGrid()
	polys := boxes{box(0, 0, 200, 100)}
	zones, _, err := ExtractZones(context.Background(), Threshold(suit, 4), suit, polys, PolygonArea, 20000)
	if err != nil {
		t.Fatal(err)
	}
	if len(zones) != 0 {
		t.Errorf("have %d zones, want 0", len(zones))
	}
	zones, _, err = ExtractZones(context.Background(), Threshold(suit, 4), suit, polys, PolygonArea, 19999.99)
	if err != nil {
		t.Fatal(err)
	}
	if len(zones) != 1 {
		t.Errorf("have %d zones, want 1", len(zones))
	}
}

func TestExtractZonesCollaboratorErrors(t *testing.T) {
	suit := zoneGrid()
	mask := Threshold(suit, 4)
	cause := errors.New("out of memory")
	_, _, err := ExtractZones(context.Background(), mask, suit, failingVectorizer{cause}, PolygonArea, 0)
	var ce *CollaboratorError
	if !errors.As(err, &ce) || ce.Collaborator != "Vectorizer" {
		t.Fatalf("have %v, want a vectorizer error", err)
	}
	if !errors.Is(err, cause) {
		t.Error("collaborator error does not unwrap to its cause")
	}

	nan := func(geom.Polygon) float64 { return math.NaN() }
	_, _, err = ExtractZones(context.Background(), mask, suit, boxes{box(0, 0, 10, 10)}, nan, 0)
	if !errors.As(err, &ce) || ce.Collaborator != "AreaFunc" {
		t.Errorf("have %v, want an area error", err)
	}
}

func TestZoneExtractionEmpty(t *testing.T) {
	suit := zoneGrid()
	p := &Pipeline{Elevation: NewField(suit.GridGeometry, "elevation", "m", ""), Suitability: suit}
	err := p.run(context.Background(), []DomainManipulator{
		ZoneExtraction(4.5, 1e9, boxes{box(50, 0, 100, 100)}, nil),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Zones) != 0 || p.Candidates != 1 {
		t.Errorf("have %d zones from %d candidates", len(p.Zones), p.Candidates)
	}
	if len(p.Conditions) != 1 || p.Conditions[0].Kind != EmptyResult {
		t.Errorf("conditions: have %v", p.Conditions)
	}
	for i := 0; i < suit.Nx; i++ {
		want := 0.
		if i >= 5 {
			want = 1
		}
		if v := p.Mask.Get(i, 3); v != want {
			t.Errorf("mask column %d: have %g, want %g", i, v, want)
		}
	}
}
