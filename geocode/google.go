// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jcodagnone/hotspots/spatial"
	"github.com/jcodagnone/hotspots/utils/httputils"
)

// DefaultGoogleMapsURL is the Geocoding API endpoint.
const DefaultGoogleMapsURL = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleMapsOptions configures a GoogleMaps geocoder.
type GoogleMapsOptions struct {
	// BaseURL overrides DefaultGoogleMapsURL.
	BaseURL string
	// Region biases results to a ccTLD, e.g. "id".
	Region string
	// Context is appended to every address, e.g. "Makassar, Indonesia".
	Context string
	// Trace receives a dump of every HTTP exchange when not nil.
	Trace   io.Writer
	Timeout time.Duration
}

// GoogleMaps uses the Google Maps Geocoding API.
type GoogleMaps struct {
	apiKey     string
	opts       GoogleMapsOptions
	httpClient *http.Client
}

// NewGoogleMaps creates a new Google Maps geocoder.
func NewGoogleMaps(apiKey string, opts GoogleMapsOptions) *GoogleMaps {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultGoogleMapsURL
	}

	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}

	transport := &httputils.AppendRequestHeadersRoundTripper{
		Transport: &httputils.LoggingRoundTripper{
			Transport: http.DefaultTransport,
			Writer:    opts.Trace,
			DumpBody:  true,
		},
		Headers: map[string]string{"Accept": "application/json"},
	}

	return &GoogleMaps{
		apiKey: apiKey,
		opts:   opts,
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
	}
}

type googleMapsResponse struct {
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
			LocationType string `json:"location_type"` // ROOFTOP, RANGE_INTERPOLATED, GEOMETRIC_CENTER, APPROXIMATE
		} `json:"geometry"`
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

func confidenceOf(locationType string) string {
	switch locationType {
	case "ROOFTOP", "RANGE_INTERPOLATED":
		return ConfidenceHigh
	case "GEOMETRIC_CENTER":
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Geocode resolves address into a point.
func (g *GoogleMaps) Geocode(ctx context.Context, address string) (*Result, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, &Error{Type: ErrorTypeInvalidRequest, Message: "empty address"}
	}

	query := address
	if g.opts.Context != "" {
		query = address + ", " + g.opts.Context
	}

	params := url.Values{}
	params.Set("address", query)
	params.Set("key", g.apiKey)

	if g.opts.Region != "" {
		params.Set("region", g.opts.Region)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.opts.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &Error{Type: ErrorTypeInvalidRequest, Message: "building request", Err: err}
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

		return nil, ClassifyHTTPError(resp.StatusCode, string(body))
	}

	var gmResp googleMapsResponse
	if err := json.NewDecoder(resp.Body).Decode(&gmResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if geoErr := classifyStatus(gmResp.Status, gmResp.ErrorMessage); geoErr != nil {
		geoErr.Message = fmt.Sprintf("geocoding %q: %s", address, geoErr.Message)

		return nil, geoErr
	}

	if len(gmResp.Results) == 0 {
		return nil, &Error{Type: ErrorTypeNotFound, Message: fmt.Sprintf("no results found for %q", address)}
	}

	result := gmResp.Results[0]

	point := spatial.Point{Lat: result.Geometry.Location.Lat, Lng: result.Geometry.Location.Lng}
	if err := point.Validate(); err != nil {
		return nil, fmt.Errorf("provider returned %s: %w", point, err)
	}

	return &Result{
		Point:       point,
		Confidence:  confidenceOf(result.Geometry.LocationType),
		Provider:    "google_maps",
		DisplayName: result.FormattedAddress,
	}, nil
}

func classifyTransportError(err error) *Error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &Error{Type: ErrorTypeTimeout, Message: "geocoding request timed out", Err: err}
	}

	return &Error{Type: ErrorTypeNetworkError, Message: "geocoding request failed", Err: err}
}
