// Copyright 2025 The ChapaUY Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package spatial holds the geographic primitives shared by the store, the
// clustering engine and the exporters.
package spatial

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
)

// EarthRadius is the mean earth radius in meters used by every distance in
// this package.
const EarthRadius = 6371e3

// ErrInvalidCoordinate is wrapped by every coordinate range violation.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Point represents a geographical point with latitude and longitude.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String returns a string representation of the Point.
func (p Point) String() string {
	return fmt.Sprintf("POINT(%f %f)", p.Lng, p.Lat)
}

// Value implements the driver.Valuer interface for database serialization.
func (p Point) Value() (driver.Value, error) {
	return p.String(), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (p *Point) Scan(value interface{}) error {
	if value == nil {
		p.Lat, p.Lng = 0, 0

		return nil
	}

	switch v := value.(type) {
	case []byte:
		// The format from DuckDB is "POINT (lng lat)"
		_, err := fmt.Sscanf(string(v), "POINT (%f %f)", &p.Lng, &p.Lat)

		return err
	case map[string]interface{}:
		x, okX := v["x"].(float64)
		y, okY := v["y"].(float64)

		if !okX || !okY {
			return fmt.Errorf("spatial: invalid map for point: expected 'x' and 'y' float64 fields, got %+v", v)
		}

		p.Lng = x
		p.Lat = y

		return nil
	default:
		return fmt.Errorf("spatial: unsupported type for Point scan: %T", value)
	}
}

// Validate checks that the point lies inside the valid degree ranges.
func (p Point) Validate() error {
	return ValidateCoordinates(p.Lat, p.Lng)
}

// HaversineDistance calculates the distance between two points on Earth in meters.
func (p *Point) HaversineDistance(other *Point) float64 {
	return RadiansToMeters(CentralAngle(*p, *other))
}

// CentralAngle returns the great-circle angle between a and b in radians.
// Inputs are degrees; the conversion happens here.
func CentralAngle(a, b Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	if h > 1 {
		h = 1
	}

	return 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// MetersToRadians converts an arc length on the earth surface to an angle.
func MetersToRadians(m float64) float64 {
	return m / EarthRadius
}

// RadiansToMeters converts a central angle to an arc length on the earth surface.
func RadiansToMeters(r float64) float64 {
	return r * EarthRadius
}

// ValidateCoordinates checks latitude is within [-90, 90] and longitude
// within [-180, 180]. NaN and infinities are rejected.
func ValidateCoordinates(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude must be between -90 and 90 (got %f)", ErrInvalidCoordinate, lat)
	}

	if math.IsNaN(lng) || math.IsInf(lng, 0) || lng < -180 || lng > 180 {
		return fmt.Errorf("%w: longitude must be between -180 and 180 (got %f)", ErrInvalidCoordinate, lng)
	}

	return nil
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
