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
	"strings"
)

// GeometryMismatchError is returned when a field does not share the
// grid geometry of the elevation input.
type GeometryMismatchError struct {
	Stage string
	Field string
	Want  GridGeometry
	Have  GridGeometry
}

func (e *GeometryMismatchError) Error() string {
	return fmt.Sprintf("solarsite: stage %s: geometry mismatch: field %s has %v, want %v",
		e.Stage, e.Field, e.Have, e.Want)
}

// WeightConfigurationError is returned when the combination weights are
// negative or do not sum to one.
type WeightConfigurationError struct {
	Weights Weights
	Sum     float64
}

func (e *WeightConfigurationError) Error() string {
	return fmt.Sprintf("solarsite: stage configuration: weight configuration: weights %+v sum to %g; "+
		"weights must be non-negative and sum to 1", e.Weights, e.Sum)
}

// CollaboratorError wraps a failure reported by one of the external
// collaborators (terrain, irradiance, distance, vectorization, area).
type CollaboratorError struct {
	Stage        string
	Collaborator string
	Err          error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("solarsite: stage %s: collaborator %s failed: %s", e.Stage, e.Collaborator, detail(e.Err))
}

// Unwrap returns the collaborator's error.
func (e *CollaboratorError) Unwrap() error { return e.Err }

// StageError wraps any other failure with the name of the stage
// where it occurred.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("solarsite: stage %s: %s", e.Stage, detail(e.Err))
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error { return e.Err }

// detail returns the message of err without the package prefix, which
// the wrapping error already carries.
func detail(err error) string {
	return strings.TrimPrefix(err.Error(), "solarsite: ")
}

// ConditionKind classifies a non-fatal condition observed during a run.
type ConditionKind int

const (
	// NoDataPropagation records that no-data cells were carried
	// into a derived field.
	NoDataPropagation ConditionKind = iota

	// EmptyResult records that no zone survived thresholding and
	// area filtering.
	EmptyResult
)

func (k ConditionKind) String() string {
	switch k {
	case NoDataPropagation:
		return "NoDataPropagation"
	case EmptyResult:
		return "EmptyResult"
	default:
		return fmt.Sprintf("ConditionKind(%d)", int(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k ConditionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ConditionKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "NoDataPropagation":
		*k = NoDataPropagation
	case "EmptyResult":
		*k = EmptyResult
	default:
		return fmt.Errorf("solarsite: unknown condition %q", b)
	}
	return nil
}

// Condition is a soft condition reported alongside a successful run.
type Condition struct {
	Kind    ConditionKind
	Stage   string
	Field   string
	Cells   int
	Message string
}

func (c Condition) String() string {
	return fmt.Sprintf("%v in stage %s: %s", c.Kind, c.Stage, c.Message)
}
