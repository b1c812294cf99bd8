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
	"errors"
	"math"
	"testing"

	"github.com/ctessum/geom"
)

const utm32 = "+proj=utm +zone=32 +ellps=WGS84 +datum=WGS84 +units=m +no_defs"

func testGrid() GridGeometry {
	return GridGeometry{X0: 500000, Y0: 5300000, Dx: 30, Dy: 30, Nx: 4, Ny: 3, Proj: utm32}
}

func TestGridCellCenter(t *testing.T) {
	g := testGrid()
	have := g.CellCenter(1, 2)
	want := geom.Point{X: 500045, Y: 5300075}
	if have != want {
		t.Errorf("have %v, want %v", have, want)
	}
	b := g.Bounds()
	if b.Max.X != 500120 || b.Max.Y != 5300090 {
		t.Errorf("bounds: have %+v", b)
	}
	if g.Len() != 12 || g.CellArea() != 900 {
		t.Errorf("len %d, cell area %g", g.Len(), g.CellArea())
	}
}

func TestGridCheck(t *testing.T) {
	for _, g := range []GridGeometry{
		{Dx: 1, Dy: 1, Nx: 0, Ny: 2},
		{Dx: 0, Dy: 1, Nx: 2, Ny: 2},
		{Dx: 1, Dy: math.NaN(), Nx: 2, Ny: 2},
	} {
		if err := g.Check(); err == nil {
			t.Errorf("%v: expected an error", g)
		}
	}
	if err := testGrid().Check(); err != nil {
		t.Error(err)
	}
}

func TestGridMatches(t *testing.T) {
	g := testGrid()
	tests := []struct {
		name   string
		modify func(*GridGeometry)
		want   bool
	}{
		{name: "same", modify: func(*GridGeometry) {}, want: true},
		{name: "rounding", modify: func(o *GridGeometry) { o.X0 += 1e-7 }, want: true},
		{name: "shifted", modify: func(o *GridGeometry) { o.X0 += 1 }, want: false},
		{name: "resolution", modify: func(o *GridGeometry) { o.Dy = 25 }, want: false},
		{name: "size", modify: func(o *GridGeometry) { o.Nx++ }, want: false},
		{name: "projection", modify: func(o *GridGeometry) { o.Proj = "+proj=utm +zone=33 +ellps=WGS84 +datum=WGS84 +units=m +no_defs" }, want: false},
		{name: "unknown projection", modify: func(o *GridGeometry) { o.Proj = "" }, want: false},
		{name: "whitespace", modify: func(o *GridGeometry) { o.Proj = " " + o.Proj + "\n" }, want: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			o := g
			test.modify(&o)
			if have := g.Matches(o); have != test.want {
				t.Errorf("have %v, want %v", have, test.want)
			}
		})
	}
}

func TestCheckGeometry(t *testing.T) {
	g := testGrid()
	a := NewField(g, "a", "", "")
	o := g
	o.Nx = 5
	b := NewField(o, "b", "", "")
	if err := checkGeometry("test", g, a); err != nil {
		t.Errorf("matching field: %v", err)
	}
	err := checkGeometry("test", g, a, b)
	var gm *GeometryMismatchError
	if !errors.As(err, &gm) {
		t.Fatalf("have %v, want a geometry mismatch", err)
	}
	if gm.Field != "b" || gm.Stage != "test" || gm.Have.Nx != 5 {
		t.Errorf("have %+v", gm)
	}
}

func TestGeographic(t *testing.T) {
	g := testGrid()
	if geo, err := g.Geographic(); err != nil || geo {
		t.Errorf("projected grid: have %v, %v", geo, err)
	}
	g.Proj = "+proj=longlat +datum=WGS84 +no_defs"
	if geo, err := g.Geographic(); err != nil || !geo {
		t.Errorf("geographic grid: have %v, %v", geo, err)
	}
	g.Proj = ""
	if geo, err := g.Geographic(); err != nil || geo {
		t.Errorf("unknown projection: have %v, %v", geo, err)
	}
}

func TestCenterLatitude(t *testing.T) {
	lat, err := testGrid().CenterLatitude()
	if err != nil {
		t.Fatal(err)
	}
	// UTM northing 5.3e6 m is close to 47.85°N.
	if lat < 47.7 || lat > 48 {
		t.Errorf("have latitude %g", lat)
	}
	g := testGrid()
	g.Proj = ""
	if _, err := g.CenterLatitude(); err == nil {
		t.Error("expected an error for an unknown projection")
	}
}

func TestFieldNoData(t *testing.T) {
	f := NewField(testGrid(), "f", "", "")
	f.Set(NoData, 0, 0)
	f.Set(math.NaN(), 3, 2)
	f.Set(7, 1, 1)
	if n := f.NoDataCount(); n != 2 {
		t.Errorf("no-data count: have %d, want 2", n)
	}
	if n := len(f.Valid()); n != 10 {
		t.Errorf("valid values: have %d, want 10", n)
	}
	if v := f.Get(1, 1); v != 7 {
		t.Errorf("have %g, want 7", v)
	}
}

func TestNamedPeriod(t *testing.T) {
	tests := []struct {
		name string
		days int
	}{
		{"summer", 92},
		{"autumn", 91},
		{"winter", 91}, // December 2019 through February 2020
		{"spring", 92},
		{"Year", 366},
	}
	for _, test := range tests {
		p, err := NamedPeriod(test.name, 2020)
		if err != nil {
			t.Fatal(err)
		}
		if err := p.Validate(); err != nil {
			t.Error(err)
		}
		if d := p.Days(); d != test.days {
			t.Errorf("%s: have %d days, want %d", test.name, d, test.days)
		}
	}
	if _, err := NamedPeriod("monsoon", 2020); err == nil {
		t.Error("expected an error for an unknown period")
	}
}
