// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package export renders clusters for map layers and spreadsheets, and reads
// reports from spreadsheets.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jcodagnone/hotspots/hotspot"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// WeightFunc maps a cluster population to a visualization weight.
type WeightFunc func(count int) float64

// FeatureCollection builds one Point feature per cluster. GeoJSON positions
// are [lng, lat].
func FeatureCollection(clusters []hotspot.Cluster, weight WeightFunc) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, c := range clusters {
		f := geojson.NewFeature(orb.Point{c.Center.Lng, c.Center.Lat})
		f.Properties["category"] = c.Category
		f.Properties["cluster_id"] = c.ID
		f.Properties["count"] = c.Count

		if weight != nil {
			f.Properties["weight"] = weight(c.Count)
		}

		fc.Append(f)
	}

	return fc
}

// WriteGeoJSON writes the clusters as a GeoJSON FeatureCollection.
func WriteGeoJSON(w io.Writer, clusters []hotspot.Cluster, weight WeightFunc) error {
	data, err := FeatureCollection(clusters, weight).MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshaling feature collection: %w", err)
	}

	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing geojson: %w", err)
	}

	return nil
}

// HeatPoints returns [lat, lng, count] triples, the input format of common
// web heat map layers.
func HeatPoints(clusters []hotspot.Cluster) [][3]float64 {
	points := make([][3]float64, 0, len(clusters))
	for _, c := range clusters {
		points = append(points, [3]float64{c.Center.Lat, c.Center.Lng, float64(c.Count)})
	}

	return points
}

// WeightedCluster is a cluster with its visualization weight.
type WeightedCluster struct {
	hotspot.Cluster
	Weight float64 `json:"weight"`
}

// Weighted attaches a weight to every cluster.
func Weighted(clusters []hotspot.Cluster, weight WeightFunc) []WeightedCluster {
	out := make([]WeightedCluster, 0, len(clusters))
	for _, c := range clusters {
		out = append(out, WeightedCluster{Cluster: c, Weight: weight(c.Count)})
	}

	return out
}

// WriteJSON writes the weighted clusters as an indented JSON array.
func WriteJSON(w io.Writer, clusters []hotspot.Cluster, weight WeightFunc) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(Weighted(clusters, weight)); err != nil {
		return fmt.Errorf("encoding clusters: %w", err)
	}

	return nil
}
