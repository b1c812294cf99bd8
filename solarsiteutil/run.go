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
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/solarsite"
	"github.com/spf13/cobra"
)

// Run runs the suitability model described by cfg, logging to both the
// command output and logFile, and prints a summary of the selected zones.
func Run(cmd *cobra.Command, logFile string, cfg *solarsite.Config, c solarsite.Collaborators) error {
	startTime := time.Now()

	// Configuration errors are reported before anything is created.
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(logFile), os.ModePerm); err != nil {
		return fmt.Errorf("solarsite: problem creating log file directory: %v", err)
	}
	logfile, err := os.Create(logFile)
	if err != nil {
		return fmt.Errorf("solarsite: problem creating log file: %v", err)
	}
	defer logfile.Close()

	log := logrus.New()
	log.Out = io.MultiWriter(cmd.OutOrStdout(), logfile)

	log.WithFields(logrus.Fields{
		"elevation": cfg.Elevation,
		"roads":     cfg.Roads,
		"period":    fmt.Sprintf("%s %s to %s", cfg.Period.Name, cfg.Period.Start.Format("2006-01-02"), cfg.Period.End.Format("2006-01-02")),
	}).Info("starting suitability run")

	p, err := solarsite.Run(context.Background(), cfg, c, log)
	if err != nil {
		log.WithError(err).Error("run failed")
		return err
	}

	for _, z := range p.Zones {
		log.WithFields(logrus.Fields{
			"zone":     z.ID,
			"hectares": fmt.Sprintf("%.2f", z.Hectares),
			"cells":    z.Cells,
			"mean":     fmt.Sprintf("%.3f", z.MeanScore),
		}).Info("selected zone")
	}
	log.WithFields(logrus.Fields{
		"zones":      len(p.Zones),
		"candidates": p.Candidates,
		"conditions": len(p.Conditions),
		"output":     cfg.OutputDir,
		"elapsed":    time.Since(startTime).Round(time.Millisecond).String(),
	}).Info("run complete")
	return nil
}

// Check validates cfg and reads its inputs without running the model
// or writing any output.
func Check(cmd *cobra.Command, cfg *solarsite.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := logrus.New()
	log.Out = cmd.OutOrStdout()
	p := &solarsite.Pipeline{
		Log:       log,
		InitFuncs: []solarsite.DomainManipulator{solarsite.LoadInputs(cfg.Elevation, cfg.Roads, cfg.AllowGeographic)},
	}
	if err := p.Init(context.Background()); err != nil {
		return err
	}
	cmd.Printf("elevation: %s\n", p.Elevation.GridGeometry)
	cmd.Printf("roads: %d features\n", len(p.Roads))
	cmd.Printf("weights: solar %g, slope %g, aspect %g, distance %g\n",
		cfg.Weights.Solar, cfg.Weights.Slope, cfg.Weights.Aspect, cfg.Weights.Distance)
	return nil
}
