// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package hotspot

import (
	"fmt"
	"math"
	"runtime"

	"github.com/jcodagnone/hotspots/spatial"
)

const (
	// DefaultEpsMeters is the neighborhood radius used when none is configured.
	DefaultEpsMeters = 500.0
	// DefaultMinPoints is the only density threshold supported: every point
	// is a core point and no point is ever noise.
	DefaultMinPoints = 1
	// DefaultWeightScale is the K in min(K·ln(count+1), CAP).
	DefaultWeightScale = 20.0
	// DefaultWeightCap is the CAP in min(K·ln(count+1), CAP).
	DefaultWeightCap = 50.0
)

// IndexKind selects how neighbor candidates are found.
type IndexKind string

const (
	// IndexH3 buckets points in H3 cells and only compares nearby cells.
	IndexH3 IndexKind = "h3"
	// IndexBrute compares every pair of points in a category.
	IndexBrute IndexKind = "brute"
)

// ParseIndexKind maps a flag value to an IndexKind.
func ParseIndexKind(s string) (IndexKind, error) {
	switch IndexKind(s) {
	case IndexH3, "":
		return IndexH3, nil
	case IndexBrute:
		return IndexBrute, nil
	default:
		return "", fmt.Errorf("%w: unknown index %q (expected h3 or brute)", ErrInvalidConfig, s)
	}
}

// Config holds the engine parameters.
type Config struct {
	// Eps is the neighborhood radius as a central angle in radians.
	Eps float64
	// MinPoints must be 1.
	MinPoints int
	// WeightScale and WeightCap shape the visualization weight.
	WeightScale float64
	WeightCap   float64
	// Workers bounds how many categories are clustered at once.
	// Zero means GOMAXPROCS.
	Workers int
	Index   IndexKind
}

// DefaultConfig returns the reference parameters: 500 m, minPoints 1, K=20, CAP=50.
func DefaultConfig() Config {
	return Config{
		Eps:         spatial.MetersToRadians(DefaultEpsMeters),
		MinPoints:   DefaultMinPoints,
		WeightScale: DefaultWeightScale,
		WeightCap:   DefaultWeightCap,
		Index:       IndexH3,
	}
}

// EpsMeters returns the radius as an arc length on the earth surface.
func (c Config) EpsMeters() float64 {
	return spatial.RadiansToMeters(c.Eps)
}

// WithEpsMeters returns a copy of c whose radius is m meters.
func (c Config) WithEpsMeters(m float64) Config {
	c.Eps = spatial.MetersToRadians(m)

	return c
}

// Validate reports the first invalid parameter.
func (c Config) Validate() error {
	if math.IsNaN(c.Eps) || c.Eps <= 0 || c.Eps >= math.Pi {
		return fmt.Errorf("%w: eps must be in (0, π) radians (got %g)", ErrInvalidConfig, c.Eps)
	}

	if c.MinPoints != DefaultMinPoints {
		return fmt.Errorf("%w: only min points = 1 is supported (got %d)", ErrInvalidConfig, c.MinPoints)
	}

	if math.IsNaN(c.WeightScale) || c.WeightScale <= 0 {
		return fmt.Errorf("%w: weight scale must be positive (got %g)", ErrInvalidConfig, c.WeightScale)
	}

	if math.IsNaN(c.WeightCap) || c.WeightCap <= 0 {
		return fmt.Errorf("%w: weight cap must be positive (got %g)", ErrInvalidConfig, c.WeightCap)
	}

	if c.Workers < 0 {
		return fmt.Errorf("%w: workers can't be negative (got %d)", ErrInvalidConfig, c.Workers)
	}

	if _, err := ParseIndexKind(string(c.Index)); err != nil {
		return err
	}

	return nil
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}

	return runtime.GOMAXPROCS(0)
}
