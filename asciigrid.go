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
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ReadASCIIGrid reads a field from an ESRI ASCII grid. Rows in the file
// run from north to south. Cells equal to the file's NODATA_value are
// set to NoData. The projection is left empty; see ReadField for
// reading the sidecar .prj file.
func ReadASCIIGrid(r io.Reader, name string) (*Field, error) {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 64*1024*1024)
	s.Split(bufio.ScanWords)

	var g GridGeometry
	var xCenter, yCenter, haveX, haveY, haveDx, haveDy bool
	var first string
	nHeader := 0
	noData := math.NaN()
	for s.Scan() {
		key := strings.ToLower(s.Text())
		if _, err := strconv.ParseFloat(key, 64); err == nil {
			first = s.Text()
			break
		}
		if !s.Scan() {
			return nil, fmt.Errorf("solarsite: ASCII grid header %q has no value", key)
		}
		val := s.Text()
		v, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, fmt.Errorf("solarsite: ASCII grid header %s: %v", key, err)
		}
		nHeader++
		switch key {
		case "ncols":
			g.Nx = int(v)
		case "nrows":
			g.Ny = int(v)
		case "xllcorner":
			g.X0, haveX = v, true
		case "yllcorner":
			g.Y0, haveY = v, true
		case "xllcenter":
			g.X0, haveX, xCenter = v, true, true
		case "yllcenter":
			g.Y0, haveY, yCenter = v, true, true
		case "cellsize":
			g.Dx, g.Dy, haveDx, haveDy = v, v, true, true
		case "dx":
			g.Dx, haveDx = v, true
		case "dy":
			g.Dy, haveDy = v, true
		case "nodata_value":
			noData = v
		default:
			return nil, fmt.Errorf("solarsite: unknown ASCII grid header %q", key)
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("solarsite: reading ASCII grid: %v", err)
	}
	if !haveX || !haveY || !haveDx || !haveDy || nHeader < 5 {
		return nil, fmt.Errorf("solarsite: incomplete ASCII grid header")
	}
	if xCenter {
		g.X0 -= g.Dx / 2
	}
	if yCenter {
		g.Y0 -= g.Dy / 2
	}
	if err := g.Check(); err != nil {
		return nil, err
	}

	f := NewField(g, name, "", "")
	n := 0
	set := func(text string) error {
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return fmt.Errorf("solarsite: ASCII grid value %d: %v", n, err)
		}
		if n >= g.Len() {
			return fmt.Errorf("solarsite: ASCII grid has more than %d values", g.Len())
		}
		if v == noData || math.IsNaN(v) {
			v = NoData
		}
		i, row := n%g.Nx, n/g.Nx
		f.Set(v, i, g.Ny-1-row)
		n++
		return nil
	}
	if first != "" {
		if err := set(first); err != nil {
			return nil, err
		}
	}
	for s.Scan() {
		if err := set(s.Text()); err != nil {
			return nil, err
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("solarsite: reading ASCII grid: %v", err)
	}
	if n != g.Len() {
		return nil, fmt.Errorf("solarsite: ASCII grid has %d values, want %d", n, g.Len())
	}
	return f, nil
}

// WriteASCIIGrid writes f as an ESRI ASCII grid.
func WriteASCIIGrid(w io.Writer, f *Field) error {
	b := bufio.NewWriter(w)
	fmt.Fprintf(b, "ncols %d\nnrows %d\nxllcorner %s\nyllcorner %s\n",
		f.Nx, f.Ny, formatFloat(f.X0), formatFloat(f.Y0))
	if f.Dx == f.Dy {
		fmt.Fprintf(b, "cellsize %s\n", formatFloat(f.Dx))
	} else {
		fmt.Fprintf(b, "dx %s\ndy %s\n", formatFloat(f.Dx), formatFloat(f.Dy))
	}
	fmt.Fprintf(b, "NODATA_value %s\n", formatFloat(NoData))
	for row := 0; row < f.Ny; row++ {
		j := f.Ny - 1 - row
		for i := 0; i < f.Nx; i++ {
			if i > 0 {
				b.WriteByte(' ')
			}
			v := f.Get(i, j)
			if IsNoData(v) {
				v = NoData
			}
			b.WriteString(formatFloat(v))
		}
		b.WriteByte('\n')
	}
	return b.Flush()
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
