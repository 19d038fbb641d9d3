// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package geocode resolves free text addresses into coordinates so reports
// submitted without a map pin can still be clustered.
package geocode

import (
	"context"

	"github.com/jcodagnone/hotspots/spatial"
)

// Confidence levels reported by a Geocoder.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Result is a geocoding result from any provider.
type Result struct {
	Point       spatial.Point `json:"point"`
	Confidence  string        `json:"confidence"`
	Provider    string        `json:"provider"`
	DisplayName string        `json:"display_name"`
}

// Geocoder interface for different geocoding providers.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Result, error)
}
