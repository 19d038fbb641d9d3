// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package hotspot

import (
	"fmt"

	"github.com/jcodagnone/hotspots/spatial"
	"github.com/uber/h3-go/v4"
)

// gridRing is how many H3 rings around a point's cell are searched. With an
// average edge of at least eps, two rings span well over eps even for the
// smallest cells of a resolution.
const gridRing = 2

// disjointSet is a union-find over point indexes.
type disjointSet struct {
	parent []int
	size   []int
}

func newDisjointSet(n int) *disjointSet {
	ds := &disjointSet{parent: make([]int, n), size: make([]int, n)}
	for i := range ds.parent {
		ds.parent[i] = i
		ds.size[i] = 1
	}

	return ds
}

func (ds *disjointSet) find(i int) int {
	for ds.parent[i] != i {
		ds.parent[i] = ds.parent[ds.parent[i]]
		i = ds.parent[i]
	}

	return i
}

func (ds *disjointSet) union(a, b int) {
	ra, rb := ds.find(a), ds.find(b)
	if ra == rb {
		return
	}

	if ds.size[ra] < ds.size[rb] {
		ra, rb = rb, ra
	}

	ds.parent[rb] = ra
	ds.size[ra] += ds.size[rb]
}

// components groups point indexes by their connected component. Two points
// share an edge when their central angle is at most eps.
func components(points []spatial.Point, eps float64, kind IndexKind) ([][]int, error) {
	ds := newDisjointSet(len(points))

	linked := func(i, j int) {
		if spatial.CentralAngle(points[i], points[j]) <= eps {
			ds.union(i, j)
		}
	}

	res, ok := h3Resolution(eps)
	if kind == IndexBrute || !ok || len(points) < 2 {
		for i := range points {
			for j := i + 1; j < len(points); j++ {
				linked(i, j)
			}
		}
	} else if err := linkByCell(points, res, linked); err != nil {
		return nil, err
	}

	byRoot := make(map[int][]int)
	roots := make([]int, 0)

	for i := range points {
		r := ds.find(i)
		if _, seen := byRoot[r]; !seen {
			roots = append(roots, r)
		}

		byRoot[r] = append(byRoot[r], i)
	}

	out := make([][]int, 0, len(roots))
	for _, r := range roots {
		out = append(out, byRoot[r])
	}

	return out, nil
}

// linkByCell calls linked(i, j), i < j, for every pair of points whose cells
// are within gridRing of each other.
func linkByCell(points []spatial.Point, res int, linked func(i, j int)) error {
	cells := make([]h3.Cell, len(points))
	buckets := make(map[h3.Cell][]int)

	for i, p := range points {
		cell, err := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lng), res)
		if err != nil {
			return fmt.Errorf("indexing point %d at res %d: %w", i, res, err)
		}

		cells[i] = cell
		buckets[cell] = append(buckets[cell], i)
	}

	disks := make(map[h3.Cell][]h3.Cell, len(buckets))

	for i, cell := range cells {
		disk, ok := disks[cell]
		if !ok {
			var err error

			disk, err = h3.GridDisk(cell, gridRing)
			if err != nil {
				return fmt.Errorf("computing grid disk for %s: %w", cell, err)
			}

			disks[cell] = disk
		}

		for _, neighbor := range disk {
			for _, j := range buckets[neighbor] {
				if j > i {
					linked(i, j)
				}
			}
		}
	}

	return nil
}

// h3Resolution picks the finest resolution whose average hexagon edge is at
// least the eps arc length. It reports false when eps is wider than the
// coarsest cells.
func h3Resolution(eps float64) (int, bool) {
	meters := spatial.RadiansToMeters(eps)

	for res := 15; res >= 0; res-- {
		edge, err := h3.HexagonEdgeLengthAvgM(res)
		if err != nil {
			return 0, false
		}

		if edge >= meters {
			return res, true
		}
	}

	return 0, false
}
