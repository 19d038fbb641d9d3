// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jcodagnone/hotspots/spatial"
	"github.com/jcodagnone/hotspots/utils/textutils"
)

const (
	maxNameLength        = 200
	maxPhoneLength       = 40
	maxLocationLength    = 500
	maxDescriptionLength = 2000
)

// ErrInvalidReport is wrapped by every validation failure.
var ErrInvalidReport = errors.New("invalid report")

// validGenders contains the accepted gender values. Empty is allowed.
var validGenders = map[string]bool{
	"male":   true,
	"female": true,
}

var genderAliases = map[string]string{
	"laki-laki": "male",
	"perempuan": "female",
}

// Bounds is an optional service area. Reports outside it are rejected.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLng float64 `json:"max_lng"`
}

// Contains reports whether p is inside b, edges included.
func (b Bounds) Contains(p spatial.Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}

// ParseBounds reads "minLat,minLng,maxLat,maxLng".
func ParseBounds(s string) (*Bounds, error) {
	var b Bounds
	if _, err := fmt.Sscanf(s, "%f,%f,%f,%f", &b.MinLat, &b.MinLng, &b.MaxLat, &b.MaxLng); err != nil {
		return nil, fmt.Errorf("parsing bounds %q (expected minLat,minLng,maxLat,maxLng): %w", s, err)
	}

	if err := spatial.ValidateCoordinates(b.MinLat, b.MinLng); err != nil {
		return nil, err
	}

	if err := spatial.ValidateCoordinates(b.MaxLat, b.MaxLng); err != nil {
		return nil, err
	}

	if b.MinLat > b.MaxLat || b.MinLng > b.MaxLng {
		return nil, fmt.Errorf("bounds %q: min must not exceed max", s)
	}

	return &b, nil
}

// Validator checks reports before they are stored.
type Validator struct {
	// AllowUnknownCategories accepts labels outside Categories.
	AllowUnknownCategories bool
	// Bounds, when set, restricts coordinates to a service area.
	Bounds *Bounds
}

// Sanitize trims free text fields, normalizes the category and fills the
// location label from the coordinates when it is missing.
func Sanitize(r *Report) {
	r.ReporterName = truncate(strings.TrimSpace(r.ReporterName), maxNameLength)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Gender = textutils.LowerASCIIFolding(r.Gender)
	if g, ok := genderAliases[r.Gender]; ok {
		r.Gender = g
	}

	r.Description = truncate(strings.TrimSpace(r.Description), maxDescriptionLength)
	r.Category, _ = NormalizeCategory(r.Category)

	r.Location = truncate(textutils.CollapseSpaces(r.Location), maxLocationLength)
	if r.Location == "" && r.Point != nil {
		r.Location = fmt.Sprintf("Lat: %f, Lng: %f", r.Point.Lat, r.Point.Lng)
	}
}

// Validate checks that a report has every required field and sane values.
func (v Validator) Validate(r *Report) error {
	if r == nil {
		return fmt.Errorf("%w: report can't be nil", ErrInvalidReport)
	}

	if r.ReporterName == "" {
		return fmt.Errorf("%w: reporter name is required", ErrInvalidReport)
	}

	if r.Phone == "" {
		return fmt.Errorf("%w: phone is required", ErrInvalidReport)
	}

	if len(r.Phone) > maxPhoneLength {
		return fmt.Errorf("%w: phone too long (max %d characters)", ErrInvalidReport, maxPhoneLength)
	}

	if r.Description == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidReport)
	}

	if r.Point == nil {
		return fmt.Errorf("%w: a location on the map is required", ErrInvalidReport)
	}

	if err := r.Point.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidReport, err)
	}

	if v.Bounds != nil && !v.Bounds.Contains(*r.Point) {
		return fmt.Errorf("%w: %s is outside the service area", ErrInvalidReport, r.Point)
	}

	if r.Location == "" {
		return fmt.Errorf("%w: location is required", ErrInvalidReport)
	}

	if r.Gender != "" && !validGenders[r.Gender] {
		return fmt.Errorf("%w: invalid gender %q", ErrInvalidReport, r.Gender)
	}

	if r.Category == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidReport)
	}

	if _, known := NormalizeCategory(r.Category); !known && !v.AllowUnknownCategories {
		return fmt.Errorf("%w: unknown category %q (expected one of %s)",
			ErrInvalidReport, r.Category, strings.Join(Categories, ", "))
	}

	return nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) > n {
		for n > 0 && !utf8.RuneStart(s[n]) {
			n--
		}

		return s[:n]
	}

	return s
}
