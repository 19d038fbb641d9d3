// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package hotspot

import (
	"testing"

	"github.com/jcodagnone/hotspots/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber/h3-go/v4"
)

func TestDisjointSet(t *testing.T) {
	ds := newDisjointSet(6)
	ds.union(0, 1)
	ds.union(2, 3)
	ds.union(1, 3)

	assert.Equal(t, ds.find(0), ds.find(2))
	assert.NotEqual(t, ds.find(0), ds.find(4))
	assert.NotEqual(t, ds.find(4), ds.find(5))
	assert.Equal(t, 4, ds.size[ds.find(3)])
}

func TestH3ResolutionEdgeCoversEps(t *testing.T) {
	for _, meters := range []float64{1, 40, 500, 5_000, 100_000} {
		res, ok := h3Resolution(spatial.MetersToRadians(meters))
		require.True(t, ok, "eps %vm", meters)

		edge, err := h3.HexagonEdgeLengthAvgM(res)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, edge, meters)

		if res < 15 {
			finer, err := h3.HexagonEdgeLengthAvgM(res + 1)
			require.NoError(t, err)
			assert.Less(t, finer, meters, "eps %vm should use the finest fitting resolution", meters)
		}
	}

	_, ok := h3Resolution(spatial.MetersToRadians(3_000_000))
	assert.False(t, ok)
}

func TestComponentsSplitsFarPoints(t *testing.T) {
	points := []spatial.Point{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 0.001},
		{Lat: 1, Lng: 1},
	}

	for _, kind := range []IndexKind{IndexH3, IndexBrute} {
		comps, err := components(points, spatial.MetersToRadians(500), kind)
		require.NoError(t, err)
		assert.ElementsMatch(t, [][]int{{0, 1}, {2}}, comps, "index %s", kind)
	}
}
