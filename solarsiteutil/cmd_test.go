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

package solarsiteutil

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"
	"github.com/spatialmodel/solarsite"
)

const utm32 = "+proj=utm +zone=32 +ellps=WGS84 +datum=WGS84 +units=m +no_defs"

// testInputs writes a flat 10x10 elevation grid of 30 m cells and a
// road along its southern edge, and points Cfg at them.
func testInputs(t *testing.T) (dir string) {
	dir, err := ioutil.TempDir("", "solarsiteutil_cmd")
	if err != nil {
		t.Fatal(err)
	}
	g := solarsite.GridGeometry{X0: 500000, Y0: 5300000, Dx: 30, Dy: 30, Nx: 10, Ny: 10, Proj: utm32}
	dem := solarsite.NewField(g, "elevation", "m", "")
	for i := range dem.Data.Elements {
		dem.Data.Elements[i] = 310
	}
	elevation, err := solarsite.WriteField(filepath.Join(dir, "dem"), solarsite.FormatASCII, dem)
	if err != nil {
		t.Fatal(err)
	}
	roads := filepath.Join(dir, "roads.shp")
	e, err := shp.NewEncoderFromFields(roads, goshp.POLYLINE, goshp.NumberField("ID", 10))
	if err != nil {
		t.Fatal(err)
	}
	if err := e.EncodeFields(geom.MultiLineString{{{X: 500000, Y: 5299990}, {X: 500300, Y: 5299990}}}, 1); err != nil {
		t.Fatal(err)
	}
	e.Close()

	Cfg.Set("config", "")
	Cfg.Set("Elevation", elevation)
	Cfg.Set("Roads", roads)
	Cfg.Set("OutputDir", filepath.Join(dir, "results"))
	Cfg.Set("OutputFormat", solarsite.FormatASCII)
	Cfg.Set("Weights.Solar", 0.4)
	return dir
}

func execute(args ...string) (string, error) {
	var buf bytes.Buffer
	Root.SetOutput(&buf)
	Root.SetArgs(args)
	err := Root.Execute()
	return buf.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute("version")
	if err != nil {
		t.Fatal(err)
	}
	if want := "solarsite v" + solarsite.Version; !strings.Contains(out, want) {
		t.Errorf("have %q, want %q", out, want)
	}
}

func TestCheckCommand(t *testing.T) {
	dir := testInputs(t)
	defer os.RemoveAll(dir)
	out, err := execute("check")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"10x10 cells of 30x30", "roads: 1 features"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q does not contain %q", out, want)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "results")); !os.IsNotExist(err) {
		t.Errorf("check should not create outputs: %v", err)
	}
}

func TestRunCommand(t *testing.T) {
	dir := testInputs(t)
	defer os.RemoveAll(dir)
	out, err := execute("run")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "run complete") {
		t.Errorf("output does not report completion: %s", out)
	}
	for _, f := range []string{"suitability.asc", "output_zones/selected_zones.shp", solarsite.ManifestFile} {
		if _, err := os.Stat(filepath.Join(dir, "results", f)); err != nil {
			t.Errorf("missing output: %v", err)
		}
	}
	log, err := ioutil.ReadFile(filepath.Join(dir, "results.log"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(log), "selected zone") {
		t.Errorf("log does not list the selected zone: %s", log)
	}
	m, err := solarsite.ReadManifest(filepath.Join(dir, "results", solarsite.ManifestFile))
	if err != nil {
		t.Fatal(err)
	}
	if m.Zones != 1 {
		t.Errorf("have %d zones, want 1", m.Zones)
	}
}

func TestRunCommandInvalidWeights(t *testing.T) {
	dir := testInputs(t)
	defer os.RemoveAll(dir)
	Cfg.Set("Weights.Solar", 0.9)
	defer Cfg.Set("Weights.Solar", 0.4)
	_, err := execute("run")
	if err == nil || !strings.Contains(err.Error(), "weight configuration") {
		t.Errorf("have %v, want a weight error", err)
	}
	for _, f := range []string{"results", "results.log"} {
		if _, err := os.Stat(filepath.Join(dir, f)); !os.IsNotExist(err) {
			t.Errorf("%s should not exist: %v", f, err)
		}
	}
}

func TestMissingConfigFile(t *testing.T) {
	Cfg.Set("config", "does_not_exist.toml")
	defer Cfg.Set("config", "")
	_, err := execute("version")
	if err == nil || !strings.Contains(err.Error(), "problem reading configuration file") {
		t.Errorf("have %v, want a configuration file error", err)
	}
}
