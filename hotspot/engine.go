// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package hotspot groups geolocated incidents of the same category into
// density clusters.
//
// Two incidents are neighbors when their great-circle distance is at most
// the configured radius; a cluster is a connected component of that
// neighbor relation inside one category. With a density threshold of one
// point nothing is ever noise: an isolated incident is a cluster of one, so
// the result always covers every input incident exactly once.
package hotspot

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/jcodagnone/hotspots/spatial"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// Incident is a single geolocated report as seen by the engine.
type Incident struct {
	Category string  `json:"category"`
	Lat      float64 `json:"latitude"`
	Lng      float64 `json:"longitude"`
}

// Point returns the incident location.
func (i Incident) Point() spatial.Point {
	return spatial.Point{Lat: i.Lat, Lng: i.Lng}
}

// Cluster summarizes a group of same-category incidents.
//
// ID is only unique among the clusters of one category produced by a single
// call; it carries no meaning across calls or categories.
type Cluster struct {
	Category string        `json:"category"`
	ID       int           `json:"cluster_id"`
	Center   spatial.Point `json:"center"`
	Count    int           `json:"count"`
}

// Engine computes clusters with a fixed configuration. It holds no state
// between calls and is safe for concurrent use.
type Engine struct {
	cfg Config
}

// New validates cfg and returns an engine.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Engine{cfg: cfg}, nil
}

// Config returns the engine parameters.
func (e *Engine) Config() Config {
	return e.cfg
}

// ComputeClusters clusters incidents with DefaultConfig.
func ComputeClusters(incidents []Incident) ([]Cluster, error) {
	e, err := New(DefaultConfig())
	if err != nil {
		return nil, err
	}

	return e.ComputeClusters(incidents)
}

// ComputeClusters partitions incidents by category, clusters every
// partition and returns the union of the summaries, categories in lexical
// order. The input is not modified.
//
// An incident with out-of-range coordinates fails the whole call with a
// *CoordinateError; callers are expected to validate before storing.
func (e *Engine) ComputeClusters(incidents []Incident) ([]Cluster, error) {
	for i, inc := range incidents {
		if err := spatial.ValidateCoordinates(inc.Lat, inc.Lng); err != nil {
			return nil, &CoordinateError{Index: i, Incident: inc, Err: err}
		}
	}

	groups, categories := partition(incidents)
	results := make([][]Cluster, len(categories))

	var g errgroup.Group

	g.SetLimit(e.cfg.workers())

	for k, category := range categories {
		g.Go(func() error {
			clusters, err := e.clusterCategory(category, groups[category])
			if err != nil {
				return fmt.Errorf("clustering %q: %w", category, err)
			}

			results[k] = clusters

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Cluster, 0, len(categories))
	for _, clusters := range results {
		out = append(out, clusters...)
	}

	return out, nil
}

// partition groups points by category preserving input order. The returned
// slices are fresh copies and are only read afterwards.
func partition(incidents []Incident) (map[string][]spatial.Point, []string) {
	groups := make(map[string][]spatial.Point)

	for _, inc := range incidents {
		groups[inc.Category] = append(groups[inc.Category], inc.Point())
	}

	categories := make([]string, 0, len(groups))
	for c := range groups {
		categories = append(categories, c)
	}

	slices.Sort(categories)

	return groups, categories
}

func (e *Engine) clusterCategory(category string, points []spatial.Point) ([]Cluster, error) {
	comps, err := components(points, e.cfg.Eps, e.cfg.Index)
	if err != nil {
		return nil, err
	}

	clusters := make([]Cluster, 0, len(comps))
	for _, members := range comps {
		clusters = append(clusters, aggregate(category, points, members))
	}

	slices.SortFunc(clusters, compareClusters)

	for i := range clusters {
		clusters[i].ID = i
	}

	return clusters, nil
}

// aggregate computes the arithmetic mean of member coordinates. Members are
// summed in coordinate order so the result does not depend on input order.
func aggregate(category string, points []spatial.Point, members []int) Cluster {
	sorted := make([]spatial.Point, len(members))
	for i, m := range members {
		sorted[i] = points[m]
	}

	slices.SortFunc(sorted, func(a, b spatial.Point) int {
		return cmp.Or(cmp.Compare(a.Lat, b.Lat), cmp.Compare(a.Lng, b.Lng))
	})

	lats := make([]float64, len(sorted))
	lngs := make([]float64, len(sorted))

	for i, p := range sorted {
		lats[i] = p.Lat
		lngs[i] = p.Lng
	}

	return Cluster{
		Category: category,
		Center: spatial.Point{
			Lat: stat.Mean(lats, nil),
			Lng: stat.Mean(lngs, nil),
		},
		Count: len(members),
	}
}

func compareClusters(a, b Cluster) int {
	return cmp.Or(
		cmp.Compare(a.Center.Lat, b.Center.Lat),
		cmp.Compare(a.Center.Lng, b.Center.Lng),
		cmp.Compare(a.Count, b.Count),
	)
}
