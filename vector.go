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
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"
	goshp "github.com/jonas-p/go-shp"
	"github.com/sirupsen/logrus"
)

// ReadRoads reads the road network from a shapefile. If both the shapefile
// and the grid have a known projection and they differ, the roads are
// reprojected into the grid projection.
func ReadRoads(filename string, grid GridGeometry, log logrus.FieldLogger) ([]geom.Geom, error) {
	d, err := shp.NewDecoder(filename)
	if err != nil {
		return nil, fmt.Errorf("solarsite: opening road shapefile: %v", err)
	}
	defer d.Close()

	trans, err := roadTransform(d, grid, log)
	if err != nil {
		return nil, err
	}

	var roads []geom.Geom
	for {
		g, _, more := d.DecodeRowFields()
		if !more {
			break
		}
		if g == nil {
			continue
		}
		if trans != nil {
			if g, err = g.Transform(trans); err != nil {
				return nil, fmt.Errorf("solarsite: reprojecting road %d: %v", len(roads), err)
			}
		}
		roads = append(roads, g)
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("solarsite: reading road shapefile: %v", err)
	}
	return roads, nil
}

func roadTransform(d *shp.Decoder, grid GridGeometry, log logrus.FieldLogger) (proj.Transformer, error) {
	gridSR, err := grid.SR()
	if err != nil {
		return nil, err
	}
	roadSR, err := d.SR()
	if os.IsNotExist(err) {
		log.Warn("road shapefile has no .prj file; assuming it uses the elevation grid projection")
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("solarsite: parsing road projection: %v", err)
	}
	if gridSR == nil {
		log.Warn("elevation grid projection is unknown; road coordinates are used as is")
		return nil, nil
	}
	if roadSR.Equal(gridSR, 1e3) {
		return nil, nil
	}
	log.Info("reprojecting roads into the elevation grid projection")
	t, err := roadSR.NewTransform(gridSR)
	if err != nil {
		return nil, fmt.Errorf("solarsite: road projection: %v", err)
	}
	return t, nil
}

// WriteZones writes zones to a polygon shapefile with the attributes
// ZoneID, AreaM2, AreaHa, Cells and MeanScore. If prj is not empty it is
// written to the matching .prj file. A shapefile is written even when
// there are no zones.
func WriteZones(filename string, zones []*Zone, prj string) error {
	base := strings.TrimSuffix(filename, ".shp")
	for _, ext := range []string{".shp", ".prj", ".dbf", ".shx"} {
		os.Remove(base + ext)
	}
	fields := []goshp.Field{
		goshp.NumberField("ZoneID", 10),
		goshp.FloatField("AreaM2", 20, 2),
		goshp.FloatField("AreaHa", 16, 4),
		goshp.NumberField("Cells", 10),
		goshp.FloatField("MeanScore", 10, 4),
	}
	e, err := shp.NewEncoderFromFields(base+".shp", goshp.POLYGON, fields...)
	if err != nil {
		return fmt.Errorf("solarsite: creating zone shapefile: %v", err)
	}
	for _, z := range zones {
		if err := e.EncodeFields(z.Polygon, z.ID, z.Area, z.Hectares, z.Cells, z.MeanScore); err != nil {
			e.Close()
			return fmt.Errorf("solarsite: writing zone %d: %v", z.ID, err)
		}
	}
	e.Close()
	if prj != "" {
		if err := ioutil.WriteFile(base+".prj", []byte(prj), 0644); err != nil {
			return fmt.Errorf("solarsite: writing zone projection: %v", err)
		}
	}
	return nil
}
