// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package hotspot

import (
	"errors"
	"fmt"

	"github.com/jcodagnone/hotspots/spatial"
)

var (
	// ErrInvalidCoordinate is returned when an incident is out of range.
	// It is the same sentinel as spatial.ErrInvalidCoordinate.
	ErrInvalidCoordinate = spatial.ErrInvalidCoordinate
	// ErrInvalidConfig is returned by Config.Validate and New.
	ErrInvalidConfig = errors.New("invalid hotspot config")
)

// CoordinateError identifies the incident that made a computation fail.
type CoordinateError struct {
	Index    int
	Incident Incident
	Err      error
}

func (e *CoordinateError) Error() string {
	return fmt.Sprintf("incident %d (%s): %v", e.Index, e.Incident.Category, e.Err)
}

func (e *CoordinateError) Unwrap() error {
	return e.Err
}
