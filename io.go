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
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
)

// Raster output formats.
const (
	FormatNetCDF = "nc"
	FormatASCII  = "asc"
)

// ReadField reads a raster from an ESRI ASCII grid (.asc, with an
// optional .prj file) or a netCDF file (.nc).
func ReadField(filename, name string) (*Field, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".asc", ".txt":
		r, err := os.Open(filename)
		if err != nil {
			return nil, fmt.Errorf("solarsite: opening raster: %v", err)
		}
		defer r.Close()
		f, err := ReadASCIIGrid(r, name)
		if err != nil {
			return nil, fmt.Errorf("%v (file %s)", err, filename)
		}
		b, err := ioutil.ReadFile(strings.TrimSuffix(filename, filepath.Ext(filename)) + ".prj")
		if err == nil {
			f.Proj = strings.TrimSpace(string(b))
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("solarsite: reading raster projection: %v", err)
		}
		return f, nil
	case ".nc":
		r, err := os.Open(filename)
		if err != nil {
			return nil, fmt.Errorf("solarsite: opening raster: %v", err)
		}
		defer r.Close()
		f, err := ReadNetCDF(r, "")
		if err != nil {
			return nil, fmt.Errorf("%v (file %s)", err, filename)
		}
		if name != "" {
			f.Name = name
		}
		return f, nil
	default:
		return nil, fmt.Errorf("solarsite: unsupported raster file extension %q", ext)
	}
}

// WriteField writes f to base plus the extension of format and returns
// the path of the written file.
func WriteField(base, format string, f *Field) (string, error) {
	filename := base + "." + format
	w, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("solarsite: creating raster file: %v", err)
	}
	switch format {
	case FormatNetCDF:
		err = WriteNetCDF(w, f)
	case FormatASCII:
		err = WriteASCIIGrid(w, f)
		if err == nil && f.Proj != "" {
			err = ioutil.WriteFile(base+".prj", []byte(f.Proj), 0644)
		}
	default:
		err = fmt.Errorf("solarsite: unsupported raster format %q", format)
	}
	if err != nil {
		w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("solarsite: closing raster file: %v", err)
	}
	return filename, nil
}
