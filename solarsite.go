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

// Package solarsite evaluates terrain suitability for solar power plant
// siting. Slope, aspect, solar irradiance and distance to roads are
// derived from an elevation grid and a road network, normalized to an
// ordinal 1-5 scale, combined with a weighted linear model, thresholded
// and vectorized into candidate zones that are filtered by area.
package solarsite

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/ctessum/geom"
	"github.com/sirupsen/logrus"
)

// Version gives the version number.
const Version = "0.3.0"

// Pipeline holds the state of a suitability run. Each field is set by
// exactly one stage and not modified afterwards.
type Pipeline struct {
	// InitFuncs load and check inputs.
	InitFuncs []DomainManipulator

	// RunFuncs derive the criteria, normalize and combine them, and
	// extract zones.
	RunFuncs []DomainManipulator

	// CleanupFuncs write outputs. They are only run once every
	// RunFunc has succeeded.
	CleanupFuncs []DomainManipulator

	Elevation *Field
	Roads     []geom.Geom

	Slope, Aspect, Irradiance, Distance *Field

	SlopeScore, AspectScore, SolarScore, DistanceScore *Field

	// SolarBreaks are the interior class breaks used to score irradiance.
	SolarBreaks []float64

	Suitability *Field
	Mask        *Field

	// Candidates is the number of polygons before area filtering.
	Candidates int
	Zones      []*Zone

	Conditions []Condition

	// Outputs lists the files written by the save stage.
	Outputs []Output

	Log logrus.FieldLogger
}

// DomainManipulator is a function that operates on the pipeline state.
type DomainManipulator func(ctx context.Context, p *Pipeline) error

// Init runs the InitFuncs.
func (p *Pipeline) Init(ctx context.Context) error { return p.run(ctx, p.InitFuncs) }

// Run runs the RunFuncs.
func (p *Pipeline) Run(ctx context.Context) error { return p.run(ctx, p.RunFuncs) }

// Cleanup runs the CleanupFuncs.
func (p *Pipeline) Cleanup(ctx context.Context) error { return p.run(ctx, p.CleanupFuncs) }

func (p *Pipeline) run(ctx context.Context, funcs []DomainManipulator) error {
	if p.Log == nil {
		p.Log = logrus.StandardLogger()
	}
	for _, f := range funcs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := f(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// condition records a soft condition and logs it as a warning.
func (p *Pipeline) condition(c Condition) {
	p.Conditions = append(p.Conditions, c)
	p.Log.WithFields(logrus.Fields{
		"stage":     c.Stage,
		"condition": c.Kind.String(),
		"field":     c.Field,
		"cells":     c.Cells,
	}).Warn(c.Message)
}

// stage wraps f so that its start and end are logged and errors that
// do not already carry a stage name are wrapped in a *StageError.
func stage(name string, f DomainManipulator) DomainManipulator {
	return func(ctx context.Context, p *Pipeline) error {
		start := time.Now()
		log := p.Log.WithField("stage", name)
		log.Debug("starting")
		if err := f(ctx, p); err != nil {
			return stageError(name, err)
		}
		log.WithField("elapsed", time.Since(start).Round(time.Millisecond).String()).Info("finished")
		return nil
	}
}

func stageError(name string, err error) error {
	var (
		gm *GeometryMismatchError
		wc *WeightConfigurationError
		ce *CollaboratorError
		se *StageError
	)
	switch {
	case errors.As(err, &gm), errors.As(err, &wc), errors.As(err, &ce), errors.As(err, &se):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return &StageError{Stage: name, Err: err}
}

// ParallelRows concurrently calls f for each row index in [0, ny).
// Rows are split across runtime.GOMAXPROCS(0) goroutines; f must only
// write to cells in its own row.
func ParallelRows(ny int, f func(j int)) {
	nprocs := runtime.GOMAXPROCS(0)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			for j := pp; j < ny; j += nprocs {
				f(j)
			}
			wg.Done()
		}(pp)
	}
	wg.Wait()
}

// Cellwise returns a field with the geometry of the first input whose
// values are fn applied to the corresponding cells of all inputs.
func Cellwise(name, units, description string, fn func(v ...float64) float64, in ...*Field) *Field {
	out := NewField(in[0].GridGeometry, name, units, description)
	ParallelRows(out.Ny, func(j int) {
		v := make([]float64, len(in))
		for i := 0; i < out.Nx; i++ {
			for k, f := range in {
				v[k] = f.Get(i, j)
			}
			out.Set(fn(v...), i, j)
		}
	})
	return out
}
