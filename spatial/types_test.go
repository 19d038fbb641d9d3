// Copyright 2025 The ChapaUY Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineDistance(t *testing.T) {
	a := &Point{Lat: -5.1477, Lng: 119.4328}
	b := &Point{Lat: -5.1480, Lng: 119.4330}

	d := a.HaversineDistance(b)
	assert.InDelta(t, 40, d, 1)
	assert.InDelta(t, d, b.HaversineDistance(a), 1e-9)
	assert.Zero(t, a.HaversineDistance(a))
}

func TestCentralAngleQuarterCircle(t *testing.T) {
	angle := CentralAngle(Point{Lat: 0, Lng: 0}, Point{Lat: 0, Lng: 90})
	assert.InDelta(t, math.Pi/2, angle, 1e-12)

	angle = CentralAngle(Point{Lat: 90, Lng: 0}, Point{Lat: -90, Lng: 0})
	assert.InDelta(t, math.Pi, angle, 1e-12)
}

func TestMetersRadiansRoundTrip(t *testing.T) {
	assert.InDelta(t, 500/6371e3, MetersToRadians(500), 1e-15)
	assert.InDelta(t, 500, RadiansToMeters(MetersToRadians(500)), 1e-9)
}

func TestValidateCoordinates(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lng     float64
		wantErr bool
	}{
		{"makassar", -5.1477, 119.4328, false},
		{"north pole", 90, 0, false},
		{"antimeridian", 0, -180, false},
		{"latitude too high", 90.0001, 0, true},
		{"latitude too low", -91, 0, true},
		{"longitude too high", 0, 180.5, true},
		{"nan latitude", math.NaN(), 0, true},
		{"infinite longitude", 0, math.Inf(1), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateCoordinates(tc.lat, tc.lng)
			if !tc.wantErr {
				assert.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidCoordinate))
		})
	}
}

func TestPointScan(t *testing.T) {
	var p Point

	require.NoError(t, p.Scan([]byte("POINT (119.4328 -5.1477)")))
	assert.InDelta(t, -5.1477, p.Lat, 1e-9)
	assert.InDelta(t, 119.4328, p.Lng, 1e-9)

	require.NoError(t, p.Scan(map[string]interface{}{"x": 1.5, "y": 2.5}))
	assert.Equal(t, Point{Lat: 2.5, Lng: 1.5}, p)

	require.NoError(t, p.Scan(nil))
	assert.Equal(t, Point{}, p)

	assert.Error(t, p.Scan(map[string]interface{}{"x": "nope"}))
	assert.Error(t, p.Scan(42))
}

func TestPointValue(t *testing.T) {
	v, err := Point{Lat: -5.5, Lng: 119.25}.Value()
	require.NoError(t, err)
	assert.Equal(t, "POINT(119.250000 -5.500000)", v)
}
