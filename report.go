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
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spatialmodel/solarsite/internal/hash"
	"github.com/tealeg/xlsx"
)

// Output is a file written by a run.
type Output struct {
	Name   string
	Path   string
	Digest string
}

// Manifest summarizes a run. It is written to run.toml in the output
// directory.
type Manifest struct {
	Version     string
	Elevation   string
	Roads       string
	Grid        GridGeometry
	Weights     Weights
	Threshold   float64
	MinAreaM2   float64
	Period      Period
	SolarBreaks []float64
	Candidates  int
	Zones       int
	Conditions  []Condition
	Outputs     []Output
}

// WriteManifest writes m as TOML to filename.
func WriteManifest(filename string, m *Manifest) error {
	w, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("solarsite: creating run manifest: %v", err)
	}
	if err := toml.NewEncoder(w).Encode(m); err != nil {
		w.Close()
		return fmt.Errorf("solarsite: writing run manifest: %v", err)
	}
	return w.Close()
}

// ReadManifest reads a manifest written by WriteManifest.
func ReadManifest(filename string) (*Manifest, error) {
	m := new(Manifest)
	if _, err := toml.DecodeFile(filename, m); err != nil {
		return nil, fmt.Errorf("solarsite: reading run manifest: %v", err)
	}
	return m, nil
}

// WriteZoneTable writes a spreadsheet listing the zones.
func WriteZoneTable(filename string, zones []*Zone) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("zones")
	if err != nil {
		return fmt.Errorf("solarsite: creating zone table: %v", err)
	}
	header := sheet.AddRow()
	for _, h := range []string{"ZoneID", "Area (m²)", "Area (ha)", "Cells",
		"Mean suitability", "Centroid X", "Centroid Y"} {
		header.AddCell().SetString(h)
	}
	for _, z := range zones {
		row := sheet.AddRow()
		row.AddCell().SetInt(z.ID)
		row.AddCell().SetFloat(z.Area)
		row.AddCell().SetFloat(z.Hectares)
		row.AddCell().SetInt(z.Cells)
		row.AddCell().SetFloat(z.MeanScore)
		c := z.Polygon.Centroid()
		row.AddCell().SetFloat(c.X)
		row.AddCell().SetFloat(c.Y)
	}
	if err := f.Save(filename); err != nil {
		return fmt.Errorf("solarsite: saving zone table: %v", err)
	}
	return nil
}

// Output directory layout.
const (
	ScoresDir      = "scores"
	ZonesDir       = "output_zones"
	ManifestFile   = "run.toml"
	ZonesShapefile = "selected_zones.shp"
	ZonesTable     = "selected_zones.xlsx"
)

// Save returns a stage that writes every derived raster, the zone
// shapefile and table, and the run manifest to dir. Outputs are written
// to a temporary directory next to dir and only moved into dir once
// all of them have been written.
func Save(dir, format string, m Manifest) DomainManipulator {
	const name = "save"
	return stage(name, func(ctx context.Context, p *Pipeline) error {
		dir := filepath.Clean(dir)
		if err := os.MkdirAll(filepath.Dir(dir), os.ModePerm); err != nil {
			return err
		}
		tmp, err := ioutil.TempDir(filepath.Dir(dir), "."+filepath.Base(dir)+".")
		if err != nil {
			return fmt.Errorf("creating temporary output directory: %v", err)
		}
		defer os.RemoveAll(tmp)
		if err := os.Chmod(tmp, 0755); err != nil {
			return err
		}

		outputs, err := writeOutputs(ctx, tmp, format, p, &m)
		if err != nil {
			return err
		}
		if err := moveOutputs(tmp, dir); err != nil {
			return err
		}
		p.Outputs = outputs
		p.Log.WithField("dir", dir).Info("outputs written")
		return nil
	})
}

// writeOutputs writes the outputs of p to dir and returns them.
func writeOutputs(ctx context.Context, dir, format string, p *Pipeline, m *Manifest) ([]Output, error) {
	for _, d := range []string{filepath.Join(dir, ScoresDir), filepath.Join(dir, ZonesDir)} {
		if err := os.MkdirAll(d, os.ModePerm); err != nil {
			return nil, err
		}
	}
	rasters := []struct {
		path string
		f    *Field
	}{
		{"slope", p.Slope},
		{"aspect", p.Aspect},
		{"solar", p.Irradiance},
		{"distance_to_roads", p.Distance},
		{filepath.Join(ScoresDir, "slope_score"), p.SlopeScore},
		{filepath.Join(ScoresDir, "aspect_score"), p.AspectScore},
		{filepath.Join(ScoresDir, "solar_score"), p.SolarScore},
		{filepath.Join(ScoresDir, "distance_score"), p.DistanceScore},
		{"suitability", p.Suitability},
		{filepath.Join(ZonesDir, "best_zones"), p.Mask},
	}
	var outputs []Output
	for _, r := range rasters {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path, err := WriteField(filepath.Join(dir, r.path), format, r.f)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, Output{Name: r.f.Name, Path: rel(dir, path), Digest: hash.Floats(r.f.Data.Elements)})
	}

	zonesPath := filepath.Join(dir, ZonesDir, ZonesShapefile)
	if err := WriteZones(zonesPath, p.Zones, p.Elevation.Proj); err != nil {
		return nil, err
	}
	outputs = append(outputs, Output{Name: "zones", Path: rel(dir, zonesPath), Digest: hash.Object(p.Zones)})

	tablePath := filepath.Join(dir, ZonesDir, ZonesTable)
	if err := WriteZoneTable(tablePath, p.Zones); err != nil {
		return nil, err
	}
	outputs = append(outputs, Output{Name: "zone table", Path: rel(dir, tablePath)})

	m.Version = Version
	m.Grid = p.Elevation.GridGeometry
	m.SolarBreaks = p.SolarBreaks
	m.Candidates = p.Candidates
	m.Zones = len(p.Zones)
	m.Conditions = p.Conditions
	m.Outputs = outputs
	if err := WriteManifest(filepath.Join(dir, ManifestFile), m); err != nil {
		return nil, err
	}
	return outputs, nil
}

// moveOutputs moves the written outputs in tmp to dir. If dir already
// exists, entries with the same names are replaced and other files
// are left alone.
func moveOutputs(tmp, dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.Rename(tmp, dir); err != nil {
			return fmt.Errorf("moving outputs into place: %v", err)
		}
		return nil
	}
	entries, err := ioutil.ReadDir(tmp)
	if err != nil {
		return fmt.Errorf("moving outputs into place: %v", err)
	}
	for _, e := range entries {
		dst := filepath.Join(dir, e.Name())
		if err := os.RemoveAll(dst); err != nil {
			return fmt.Errorf("replacing %s: %v", dst, err)
		}
		if err := os.Rename(filepath.Join(tmp, e.Name()), dst); err != nil {
			return fmt.Errorf("moving outputs into place: %v", err)
		}
	}
	return nil
}

func rel(dir, path string) string {
	r, err := filepath.Rel(dir, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(r)
}
