// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jcodagnone/hotspots/hotspot"
	"github.com/jcodagnone/hotspots/report"
	"github.com/jcodagnone/hotspots/spatial"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var sampleClusters = []hotspot.Cluster{
	{Category: "fraud", ID: 0, Center: spatial.Point{Lat: -5.1500, Lng: 119.4400}, Count: 1},
	{Category: "theft", ID: 0, Center: spatial.Point{Lat: -5.2000, Lng: 119.5000}, Count: 1},
	{Category: "theft", ID: 1, Center: spatial.Point{Lat: -5.14785, Lng: 119.4329}, Count: 2},
}

func weight(count int) float64 {
	return hotspot.VisualizationWeight(count, hotspot.DefaultWeightScale, hotspot.DefaultWeightCap)
}

func TestFeatureCollection(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGeoJSON(&buf, sampleClusters, weight))

	fc, err := geojson.UnmarshalFeatureCollection(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, fc.Features, 3)

	f := fc.Features[2]
	assert.Equal(t, orb.Point{119.4329, -5.14785}, f.Point(), "positions are [lng, lat]")
	assert.Equal(t, "theft", f.Properties.MustString("category"))
	assert.Equal(t, 1, f.Properties.MustInt("cluster_id"))
	assert.Equal(t, 2, f.Properties.MustInt("count"))
	assert.InDelta(t, weight(2), f.Properties.MustFloat64("weight"), 1e-9)
}

func TestFeatureCollectionEmpty(t *testing.T) {
	data, err := FeatureCollection(nil, weight).MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"FeatureCollection","features":[]}`, string(data))
}

func TestHeatPoints(t *testing.T) {
	got := HeatPoints(sampleClusters)
	want := [][3]float64{
		{-5.15, 119.44, 1},
		{-5.2, 119.5, 1},
		{-5.14785, 119.4329, 2},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("HeatPoints() mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleClusters[:1], weight))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "fraud", got[0]["category"])
	assert.InDelta(t, 0.0, got[0]["cluster_id"], 0)
	assert.InDelta(t, weight(1), got[0]["weight"], 1e-9)
	assert.Contains(t, got[0], "center")
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleClusters, weight))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{ClustersSheet}, f.GetSheetList())

	rows, err := f.GetRows(ClustersSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Category", "Cluster", "Latitude", "Longitude", "Reports", "Weight"}, rows[0])
	assert.Equal(t, "theft", rows[3][0])
	assert.Equal(t, "1", rows[3][1])
	assert.Equal(t, "2", rows[3][4])
}

func buildWorkbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	return &buf
}

func TestReadReports(t *testing.T) {
	wb := buildWorkbook(t, [][]any{
		{"Nama Pelapor", "Jenis Kelamin", "Telepon", "Lokasi", "Latitude", "Longitude", "Kategori", "Tanggal", "Deskripsi"},
		{"Andi", "Laki-laki", "0811", "Jl. Somba Opu", "-5,14785", "119,4329", "Pencurian", "2024-03-01", "motor hilang"},
		{"Siti", "Perempuan", "0812", "Losari", "-5.1436", "119.4075", "Penipuan", "", "transfer palsu"},
		{"", "", "", "", "", "", "", "", ""},
		{"Budi", "", "0813", "x", "abc", "119.4", "Pencurian", "", "d"},
		{"Eko", "", "0814", "x", "-5.1", "119.4", "Arson", "", "d"},
	})

	reports, skipped, err := ReadReports(wb, "", report.Validator{})
	require.NoError(t, err)
	require.Len(t, reports, 2)

	assert.Equal(t, "Andi", reports[0].ReporterName)
	assert.Equal(t, "male", reports[0].Gender)
	assert.Equal(t, report.CategoryTheft, reports[0].Category)
	assert.InDelta(t, -5.14785, reports[0].Point.Lat, 1e-9)
	assert.InDelta(t, 119.4329, reports[0].Point.Lng, 1e-9)
	assert.Equal(t, 2024, reports[0].OccurredOn.Year())

	assert.Equal(t, report.CategoryFraud, reports[1].Category)
	assert.True(t, reports[1].OccurredOn.IsZero())

	require.Len(t, skipped, 2)
	assert.Equal(t, 5, skipped[0].Row)
	assert.Equal(t, 6, skipped[1].Row)
	assert.ErrorIs(t, skipped[1], report.ErrInvalidReport)
}

func TestReadReportsMissingColumns(t *testing.T) {
	wb := buildWorkbook(t, [][]any{
		{"Name", "Phone", "Category"},
		{"Andi", "0811", "theft"},
	})

	_, _, err := ReadReports(wb, "", report.Validator{})
	require.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "latitude, longitude, description")
}
