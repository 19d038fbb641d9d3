// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jcodagnone/hotspots/hotspot"
	"github.com/jcodagnone/hotspots/spatial"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	addGlobalFlags(flags)
	require.NoError(t, flags.Parse(args))

	return flags
}

func TestLoadOptionsDefaults(t *testing.T) {
	opts, err := loadOptions(testFlags(t), "")
	require.NoError(t, err)

	assert.Equal(t, "db", opts.DbPath)
	assert.InDelta(t, hotspot.DefaultEpsMeters, opts.EpsMeters, 0)
	assert.Equal(t, "h3", opts.Index)

	cfg, err := opts.EngineConfig()
	require.NoError(t, err)
	assert.Equal(t, hotspot.DefaultConfig(), cfg)
}

func TestLoadOptionsPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hotspots.yaml")
	require.NoError(t, os.WriteFile(path, []byte("eps-meters: 250\nweight-cap: 80\nindex: brute\n"), 0o600))

	t.Setenv("HOTSPOTS_WEIGHT_CAP", "90")
	t.Setenv("HOTSPOTS_DB_PATH", "/tmp/hotspots-env")

	opts, err := loadOptions(testFlags(t, "--eps-meters=100"), path)
	require.NoError(t, err)

	assert.InDelta(t, 100, opts.EpsMeters, 0, "flag beats file")
	assert.InDelta(t, 90, opts.WeightCap, 0, "env beats file")
	assert.Equal(t, "/tmp/hotspots-env", opts.DbPath)
	assert.Equal(t, "brute", opts.Index, "file beats default")

	cfg, err := opts.EngineConfig()
	require.NoError(t, err)
	assert.InDelta(t, 100, cfg.EpsMeters(), 1e-9)
	assert.Equal(t, hotspot.IndexBrute, cfg.Index)
}

func TestLoadOptionsMissingFile(t *testing.T) {
	_, err := loadOptions(testFlags(t), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEngineConfigRejectsBadValues(t *testing.T) {
	opts, err := loadOptions(testFlags(t, "--eps-meters=-5"), "")
	require.NoError(t, err)

	_, err = opts.EngineConfig()
	assert.ErrorIs(t, err, hotspot.ErrInvalidConfig)

	opts, err = loadOptions(testFlags(t, "--index=kdtree"), "")
	require.NoError(t, err)

	_, err = opts.EngineConfig()
	assert.ErrorIs(t, err, hotspot.ErrInvalidConfig)
}

func TestNewValidatorBounds(t *testing.T) {
	opts, err := loadOptions(testFlags(t, "--bounds=-5.3,119.3,-5.0,119.6"), "")
	require.NoError(t, err)

	v, err := opts.newValidator()
	require.NoError(t, err)
	require.NotNil(t, v.Bounds)
	assert.InDelta(t, 119.6, v.Bounds.MaxLng, 0)

	opts.Bounds = "garbage"
	_, err = opts.newValidator()
	assert.Error(t, err)
}

func TestFilterCategory(t *testing.T) {
	incidents := []hotspot.Incident{
		{Category: "theft", Lat: 1, Lng: 1},
		{Category: "fraud", Lat: 2, Lng: 2},
	}

	assert.Equal(t, incidents[:1], filterCategory(incidents, "Pencurian"))
	assert.Empty(t, filterCategory(incidents, "violence"))
}

func TestWriteClusters(t *testing.T) {
	clusters := []hotspot.Cluster{
		{Category: "theft", ID: 0, Center: spatial.Point{Lat: -5.14785, Lng: 119.4329}, Count: 2},
	}
	weight := func(count int) float64 { return float64(count) }

	var buf bytes.Buffer
	require.NoError(t, writeClusters(&buf, "table", clusters, weight))
	assert.Contains(t, buf.String(), "│ theft      │    0 │ -5.14785,119.43290     │       2 │    2.00 │")
	assert.Len(t, strings.Split(strings.TrimSpace(buf.String()), "\n"), 5)

	buf.Reset()
	require.NoError(t, writeClusters(&buf, "geojson", clusters, weight))
	assert.Contains(t, buf.String(), `"FeatureCollection"`)

	assert.Error(t, writeClusters(&buf, "csv", clusters, weight))
}

func TestWriteClustersFile(t *testing.T) {
	clusters := []hotspot.Cluster{
		{Category: "theft", ID: 0, Center: spatial.Point{Lat: -5.14785, Lng: 119.4329}, Count: 2},
	}
	weight := func(count int) float64 { return float64(count) }

	path := filepath.Join(t.TempDir(), "clusters.geojson")
	require.NoError(t, writeClustersFile(path, "geojson", clusters, weight))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"FeatureCollection"`)

	err = writeClustersFile(filepath.Join(t.TempDir(), "missing", "out.json"), "json", clusters, weight)
	assert.ErrorContains(t, err, "creating")

	assert.Error(t, writeClustersFile(filepath.Join(t.TempDir(), "out.csv"), "csv", clusters, weight))
}
