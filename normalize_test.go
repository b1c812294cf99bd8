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
	"reflect"
	"testing"
)

// lineField returns a single-row field holding vals.
func lineField(name string, vals ...float64) *Field {
	f := NewField(GridGeometry{Dx: 10, Dy: 10, Nx: len(vals), Ny: 1}, name, "", "")
	for i, v := range vals {
		f.Set(v, i, 0)
	}
	return f
}

func values(f *Field) []float64 {
	o := make([]float64, f.Nx*f.Ny)
	copy(o, f.Data.Elements)
	return o
}

func TestSlopeScore(t *testing.T) {
	slope := lineField("slope", 0, 2.5, 4.999, 5, 9.99, 10, 15, 19.9, 20, 45, 90, NoData)
	have := values(NormalizeSlope(slope, SlopeBands))
	want := []float64{5, 5, 5, 4, 4, 3, 2, 2, 1, 1, 1, NoData}
	if !reflect.DeepEqual(have, want) {
		t.Errorf("have %v, want %v", have, want)
	}
}

func TestDistanceScore(t *testing.T) {
	dist := lineField("distance", 0, 499, 500, 999, 1000, 1999, 2000, 2999, 3000, 1e5, -1, NoData)
	have := values(NormalizeDistance(dist, DistanceBands))
	want := []float64{5, 5, 4, 4, 3, 3, 2, 2, 1, 1, NoData, NoData}
	if !reflect.DeepEqual(have, want) {
		t.Errorf("have %v, want %v", have, want)
	}
}

// A cell exactly 1000 m from a road is in the 1000-2000 m band.
func TestDistanceBandBoundaries(t *testing.T) {
	for _, test := range []struct{ d, want float64 }{
		{499.9, 5},
		{500, 4},
		{999.9, 4},
		{1000, 3},
		{1999.9, 3},
		{2000, 2},
		{3000, 1},
	} {
		if have := DistanceBands.Score(test.d); have != test.want {
			t.Errorf("%g m: have %g, want %g", test.d, have, test.want)
		}
	}
}

// Scores must not increase with slope or with distance.
func TestBandsMonotonic(t *testing.T) {
	for name, b := range map[string]Bands{"slope": SlopeBands, "distance": DistanceBands} {
		prev := float64(MaxScore)
		for v := 0.; v < 5000; v += 0.5 {
			s := b.Score(v)
			if s < MinScore || s > MaxScore {
				t.Fatalf("%s: score %g of %g is out of range", name, s, v)
			}
			if s > prev {
				t.Fatalf("%s: score increases from %g to %g at %g", name, prev, s, v)
			}
			prev = s
		}
	}
}

func TestBandsValidate(t *testing.T) {
	for _, b := range []Bands{
		nil,
		{{0, 5}, {0, 4}},
		{{0, 5}, {10, 6}},
		{{0, 0}},
	} {
		if err := b.Validate(); err == nil {
			t.Errorf("%v: expected an error", b)
		}
	}
	if err := DefaultNormalizerConfig().Validate(); err != nil {
		t.Error(err)
	}
}

func TestAspectScore(t *testing.T) {
	tests := []struct {
		aspect  float64
		neutral float64
		nodata  float64
	}{
		{aspect: 180, neutral: 5, nodata: 5},
		{aspect: 135, neutral: 5, nodata: 5},
		{aspect: 225, neutral: 5, nodata: 5},
		{aspect: 90, neutral: 4, nodata: 4},
		{aspect: 270, neutral: 4, nodata: 4},
		{aspect: 60, neutral: 2, nodata: 2},
		{aspect: 300, neutral: 2, nodata: 2},
		{aspect: 0, neutral: 1, nodata: 1},
		{aspect: 360, neutral: 1, nodata: 1},
		{aspect: 20, neutral: 1, nodata: 1},
		{aspect: Flat, neutral: 3, nodata: NoData},
		{aspect: NoData, neutral: NoData, nodata: NoData},
	}
	for _, test := range tests {
		if s := AspectScore(test.aspect, FlatNeutral); s != test.neutral {
			t.Errorf("aspect %g, neutral: have %g, want %g", test.aspect, s, test.neutral)
		}
		if s := AspectScore(test.aspect, FlatNoData); s != test.nodata {
			t.Errorf("aspect %g, nodata: have %g, want %g", test.aspect, s, test.nodata)
		}
	}
}

func TestParseFlatPolicy(t *testing.T) {
	for s, want := range map[string]FlatPolicy{"neutral": FlatNeutral, "NoData": FlatNoData, "": FlatNeutral} {
		p, err := ParseFlatPolicy(s)
		if err != nil {
			t.Fatal(err)
		}
		if p != want {
			t.Errorf("%q: have %v, want %v", s, p, want)
		}
	}
	if _, err := ParseFlatPolicy("ignore"); err == nil {
		t.Error("expected an error")
	}
}

func TestQuantileBreaks(t *testing.T) {
	vals := make([]float64, 0, 102)
	for i := 1; i <= 100; i++ {
		vals = append(vals, float64(i))
	}
	vals = append(vals, NoData, 0)
	f := lineField("solar", vals...)
	breaks, err := QuantileBreaks(f, 5)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{20, 40, 60, 80}
	if !reflect.DeepEqual(breaks, want) {
		t.Errorf("breaks: have %v, want %v", breaks, want)
	}
	// Each class holds a fifth of the positive values.
	counts := make(map[float64]int)
	for _, v := range values(NormalizeIrradiance(f, breaks)) {
		counts[v]++
	}
	for s := 1.; s <= 5; s++ {
		if n := counts[s]; n < 19 || n > 21 {
			t.Errorf("score %g has %d cells", s, n)
		}
	}
	// The no-data cell and the zero cell are not classified.
	if counts[NoData] != 2 {
		t.Errorf("have %d no-data cells, want 2", counts[NoData])
	}

	if _, err := QuantileBreaks(lineField("solar", 0, NoData), 5); !errors.Is(err, ErrNothingToClassify) {
		t.Errorf("have %v, want ErrNothingToClassify", err)
	}
}

// A cell in the top irradiance class scores 5 and one in the bottom
// class scores 1.
func TestIrradianceScoreExtremes(t *testing.T) {
	breaks := []float64{900, 1000, 1100, 1200}
	have := values(NormalizeIrradiance(lineField("solar", 1250, 850, 1000, NoData, 0, -5), breaks))
	want := []float64{5, 1, 3, NoData, NoData, NoData}
	if !reflect.DeepEqual(have, want) {
		t.Errorf("have %v, want %v", have, want)
	}
}

// When every cell receives the same insolation, every cell is in the
// top class.
func TestIrradianceUniform(t *testing.T) {
	f := lineField("solar", 800, 800, 800, 800)
	breaks, err := QuantileBreaks(f, 5)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range values(NormalizeIrradiance(f, breaks)) {
		if v != 5 {
			t.Errorf("have %g, want 5", v)
		}
	}
}

func TestNormalizeStage(t *testing.T) {
	g := GridGeometry{Dx: 10, Dy: 10, Nx: 3, Ny: 1}
	p := &Pipeline{Elevation: NewField(g, "elevation", "m", "")}
	p.Slope = lineField("slope", 0, 12, NoData)
	p.Aspect = lineField("aspect", 180, Flat, 0)
	p.Irradiance = lineField("solar", 1000, 2000, 3000)
	p.Distance = lineField("distance_to_roads", 0, 1500, 4000)
	c := DefaultNormalizerConfig()
	c.SolarBreaks = []float64{1500, 2500}
	if err := p.run(context.Background(), []DomainManipulator{Normalize(c)}); err != nil {
		t.Fatal(err)
	}
	checks := []struct {
		f    *Field
		name string
		want []float64
	}{
		{p.SlopeScore, "slope_score", []float64{5, 3, NoData}},
		{p.AspectScore, "aspect_score", []float64{5, 3, 1}},
		{p.SolarScore, "solar_score", []float64{1, 2, 3}},
		{p.DistanceScore, "distance_score", []float64{5, 3, 1}},
	}
	for _, c := range checks {
		if c.f.Name != c.name {
			t.Errorf("have name %s, want %s", c.f.Name, c.name)
		}
		if have := values(c.f); !reflect.DeepEqual(have, c.want) {
			t.Errorf("%s: have %v, want %v", c.name, have, c.want)
		}
	}
	if !reflect.DeepEqual(p.SolarBreaks, c.SolarBreaks) {
		t.Errorf("breaks: have %v, want %v", p.SolarBreaks, c.SolarBreaks)
	}
	if len(p.Conditions) != 1 || p.Conditions[0].Kind != NoDataPropagation || p.Conditions[0].Field != "slope_score" {
		t.Errorf("conditions: have %v", p.Conditions)
	}
}

// A tile without any valid elevation runs through to an empty result
// instead of failing.
func TestNormalizeNoData(t *testing.T) {
	g := GridGeometry{Dx: 10, Dy: 10, Nx: 3, Ny: 3}
	nodata := func(name string) *Field {
		f := NewField(g, name, "", "")
		for i := range f.Data.Elements {
			f.Data.Elements[i] = NoData
		}
		return f
	}
	p := &Pipeline{Elevation: nodata("elevation")}
	p.Slope, p.Aspect = nodata("slope"), nodata("aspect")
	p.Irradiance, p.Distance = nodata("solar"), nodata("distance_to_roads")
	err := p.run(context.Background(), []DomainManipulator{
		Normalize(DefaultNormalizerConfig()),
		Combination(DefaultWeights),
		ZoneExtraction(DefaultThreshold, DefaultMinArea, boxes{}, nil),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(p.SolarBreaks) != 0 {
		t.Errorf("breaks: have %v", p.SolarBreaks)
	}
	for _, f := range []*Field{p.SolarScore, p.Suitability, p.Mask} {
		for i, v := range f.Data.Elements {
			if f == p.Mask && v != 0 || f != p.Mask && v != NoData {
				t.Errorf("%s cell %d: have %g", f.Name, i, v)
			}
		}
	}
	if len(p.Conditions) != 6 {
		t.Fatalf("have %d conditions, want 6: %v", len(p.Conditions), p.Conditions)
	}
	var fields []string
	for _, c := range p.Conditions[:5] {
		if c.Kind != NoDataPropagation || c.Cells != 9 {
			t.Errorf("condition: have %+v", c)
		}
		fields = append(fields, c.Field)
	}
	want := []string{"slope_score", "aspect_score", "solar_score", "distance_score", "suitability"}
	if !reflect.DeepEqual(fields, want) {
		t.Errorf("no-data fields: have %v, want %v", fields, want)
	}
	if c := p.Conditions[len(p.Conditions)-1]; c.Kind != EmptyResult {
		t.Errorf("last condition: have %+v, want an empty result", c)
	}
}

func TestNormalizeGeometryMismatch(t *testing.T) {
	g := GridGeometry{Dx: 10, Dy: 10, Nx: 3, Ny: 1}
	p := &Pipeline{Elevation: NewField(g, "elevation", "m", "")}
	p.Slope = lineField("slope", 0, 12, 1)
	p.Aspect = lineField("aspect", 180, Flat, 0)
	p.Irradiance = lineField("solar", 1000, 2000)
	p.Distance = lineField("distance_to_roads", 0, 1500, 4000)
	err := p.run(context.Background(), []DomainManipulator{Normalize(DefaultNormalizerConfig())})
	if gm, ok := err.(*GeometryMismatchError); !ok || gm.Field != "solar" {
		t.Errorf("have %v, want a geometry mismatch for solar", err)
	}
}
