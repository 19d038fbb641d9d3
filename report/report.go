// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package report persists incident reports and hands their coordinates to
// the clustering engine.
package report

import (
	"fmt"
	"time"

	"github.com/jcodagnone/hotspots/hotspot"
	"github.com/jcodagnone/hotspots/spatial"
	"github.com/jcodagnone/hotspots/utils/textutils"
	"github.com/uber/h3-go/v4"
)

// Category labels. The vocabulary is open: anything that folds to one of
// these or one of their aliases is normalized, anything else is rejected by
// the default validator.
const (
	CategoryTheft    = "theft"
	CategoryRobbery  = "robbery"
	CategoryFraud    = "fraud"
	CategoryViolence = "violence"
	CategoryOther    = "other"
)

// Categories is the default vocabulary, in display order.
var Categories = []string{
	CategoryTheft,
	CategoryRobbery,
	CategoryFraud,
	CategoryViolence,
	CategoryOther,
}

// categoryAliases maps folded labels, including the Indonesian ones used by
// the first deployment, to their canonical category.
var categoryAliases = map[string]string{
	"pencurian":  CategoryTheft,
	"perampokan": CategoryRobbery,
	"penipuan":   CategoryFraud,
	"kekerasan":  CategoryViolence,
	"lainnya":    CategoryOther,
}

// NormalizeCategory folds a label and resolves aliases. The second value
// reports whether the result is in the default vocabulary.
func NormalizeCategory(label string) (string, bool) {
	folded := textutils.CollapseSpaces(textutils.LowerASCIIFolding(label))
	if canonical, ok := categoryAliases[folded]; ok {
		return canonical, true
	}

	for _, c := range Categories {
		if c == folded {
			return c, true
		}
	}

	return folded, false
}

// Report is a single incident as submitted by a member of the public.
type Report struct {
	ID           int64          `json:"id"`
	ReporterName string         `json:"reporter_name"`
	Gender       string         `json:"gender,omitempty"`
	Phone        string         `json:"phone"`
	Location     string         `json:"location"`
	Point        *spatial.Point `json:"point"`
	Category     string         `json:"category"`
	OccurredOn   time.Time      `json:"occurred_on"`
	Description  string         `json:"description"`
	CreatedAt    time.Time      `json:"created_at"`
	H3Res5       int64          `json:"-"`
	H3Res6       int64          `json:"-"`
	H3Res7       int64          `json:"-"`
	H3Res8       int64          `json:"-"`
}

// MinHeatmapRes and MaxHeatmapRes bound the H3 resolutions stored per report.
const (
	MinHeatmapRes = 5
	MaxHeatmapRes = 8
)

func (r *Report) computeH3() error {
	if r.Point == nil {
		r.H3Res5, r.H3Res6, r.H3Res7, r.H3Res8 = 0, 0, 0, 0

		return nil
	}

	latLng := h3.NewLatLng(r.Point.Lat, r.Point.Lng)
	for res := MinHeatmapRes; res <= MaxHeatmapRes; res++ {
		cell, err := h3.LatLngToCell(latLng, res)
		if err != nil {
			return fmt.Errorf("error converting to h3 cell at res %d: %w", res, err)
		}

		switch res {
		case 5:
			r.H3Res5 = int64(cell)
		case 6:
			r.H3Res6 = int64(cell)
		case 7:
			r.H3Res7 = int64(cell)
		case 8:
			r.H3Res8 = int64(cell)
		}
	}

	return nil
}

// Incident projects the report into the engine input. ok is false when the
// report has no coordinates.
func (r *Report) Incident() (hotspot.Incident, bool) {
	if r.Point == nil {
		return hotspot.Incident{}, false
	}

	return hotspot.Incident{Category: r.Category, Lat: r.Point.Lat, Lng: r.Point.Lng}, true
}

// HeatCell is the number of reports inside one H3 cell.
type HeatCell struct {
	Cell   string        `json:"cell"`
	Center spatial.Point `json:"center"`
	Count  int           `json:"count"`
}
