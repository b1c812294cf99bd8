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
	"os"

	"github.com/ctessum/cdf"
)

// WriteNetCDF writes f to a netCDF file. The grid geometry is stored in
// the global attributes x0, y0, dx, dy, nx, ny and proj.
func WriteNetCDF(w *os.File, f *Field) error {
	h := cdf.NewHeader([]string{"y", "x"}, []int{f.Ny, f.Nx})
	h.AddAttribute("", "comment", "solarsite raster")
	h.AddAttribute("", "x0", []float64{f.X0})
	h.AddAttribute("", "y0", []float64{f.Y0})
	h.AddAttribute("", "dx", []float64{f.Dx})
	h.AddAttribute("", "dy", []float64{f.Dy})
	h.AddAttribute("", "nx", []int32{int32(f.Nx)})
	h.AddAttribute("", "ny", []int32{int32(f.Ny)})
	if f.Proj != "" {
		h.AddAttribute("", "proj", f.Proj)
	}
	h.AddVariable(f.Name, []string{"y", "x"}, []float64{0})
	h.AddAttribute(f.Name, "description", nonEmpty(f.Description, f.Name))
	h.AddAttribute(f.Name, "units", nonEmpty(f.Units, "1"))
	h.AddAttribute(f.Name, "_FillValue", []float64{NoData})
	h.Define()

	cf, err := cdf.Create(w, h)
	if err != nil {
		return fmt.Errorf("solarsite: creating netCDF file for %s: %v", f.Name, err)
	}
	data := make([]float64, len(f.Data.Elements))
	for i, v := range f.Data.Elements {
		if IsNoData(v) {
			v = NoData
		}
		data[i] = v
	}
	end := cf.Header.Lengths(f.Name)
	start := make([]int, len(end))
	if _, err := cf.Writer(f.Name, start, end).Write(data); err != nil {
		return fmt.Errorf("solarsite: writing netCDF variable %s: %v", f.Name, err)
	}
	return cdf.UpdateNumRecs(w)
}

func nonEmpty(s, alt string) string {
	if s == "" {
		return alt
	}
	return s
}

// ReadNetCDF reads the variable name from a netCDF file written by
// WriteNetCDF. If name is empty, the first variable is read.
func ReadNetCDF(r cdf.ReaderWriterAt, name string) (*Field, error) {
	cf, err := cdf.Open(r)
	if err != nil {
		return nil, fmt.Errorf("solarsite: opening netCDF file: %v", err)
	}
	h := cf.Header
	if name == "" {
		vars := h.Variables()
		if len(vars) == 0 {
			return nil, fmt.Errorf("solarsite: netCDF file has no variables")
		}
		name = vars[0]
	}
	var g GridGeometry
	for _, a := range []struct {
		name string
		v    *float64
	}{{"x0", &g.X0}, {"y0", &g.Y0}, {"dx", &g.Dx}, {"dy", &g.Dy}} {
		v, ok := h.GetAttribute("", a.name).([]float64)
		if !ok || len(v) != 1 {
			return nil, fmt.Errorf("solarsite: netCDF file is missing attribute %s", a.name)
		}
		*a.v = v[0]
	}
	for _, a := range []struct {
		name string
		v    *int
	}{{"nx", &g.Nx}, {"ny", &g.Ny}} {
		v, ok := h.GetAttribute("", a.name).([]int32)
		if !ok || len(v) != 1 {
			return nil, fmt.Errorf("solarsite: netCDF file is missing attribute %s", a.name)
		}
		*a.v = int(v[0])
	}
	if p, ok := h.GetAttribute("", "proj").(string); ok {
		g.Proj = p
	}
	if err := g.Check(); err != nil {
		return nil, err
	}
	if l := h.Lengths(name); len(l) != 2 || l[0] != g.Ny || l[1] != g.Nx {
		return nil, fmt.Errorf("solarsite: netCDF variable %s has shape %v, want [%d %d]", name, l, g.Ny, g.Nx)
	}

	f := NewField(g, name, "", "")
	if u, ok := h.GetAttribute(name, "units").(string); ok {
		f.Units = u
	}
	if d, ok := h.GetAttribute(name, "description").(string); ok {
		f.Description = d
	}
	vr := cf.Reader(name, nil, nil)
	buf := vr.Zero(-1)
	if _, err := vr.Read(buf); err != nil {
		return nil, fmt.Errorf("solarsite: reading netCDF variable %s: %v", name, err)
	}
	switch data := buf.(type) {
	case []float64:
		copy(f.Data.Elements, data)
	case []float32:
		for i, v := range data {
			f.Data.Elements[i] = float64(v)
		}
	default:
		return nil, fmt.Errorf("solarsite: netCDF variable %s has unsupported type %T", name, buf)
	}
	for i, v := range f.Data.Elements {
		if v == NoData || math.IsNaN(v) {
			f.Data.Elements[i] = NoData
		}
	}
	return f, nil
}
