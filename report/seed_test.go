// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportImportRoundTrip(t *testing.T) {
	db, repo := setupTestDB(t)
	defer db.Close()

	require.NoError(t, repo.BulkInsertReports([]*Report{
		newReport(CategoryTheft, -5.14, 119.43),
		newReport(CategoryFraud, -5.15, 119.44),
	}))

	path := filepath.Join(t.TempDir(), "reports.json")

	exported, err := ExportToJSON(repo, path)
	require.NoError(t, err)
	assert.Equal(t, 2, exported)

	otherDB, other := setupTestDB(t)
	defer otherDB.Close()

	imported, err := ImportFromJSON(other, Validator{}, path)
	require.NoError(t, err)
	assert.Equal(t, 2, imported)

	counts, err := other.CategoryCounts()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{CategoryTheft: 1, CategoryFraud: 1}, counts)
}

func TestImportRejectsInvalidReports(t *testing.T) {
	db, repo := setupTestDB(t)
	defer db.Close()

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"version": "1.0",
		"reports": [
			{"reporter_name": "A", "phone": "1", "location": "x", "category": "theft",
			 "description": "d", "point": {"lat": -5.1, "lng": 119.4}},
			{"reporter_name": "B", "phone": "1", "location": "x", "category": "theft",
			 "description": "d", "point": {"lat": 123, "lng": 119.4}}
		]
	}`), 0o600))

	_, err := ImportFromJSON(repo, Validator{}, path)
	require.ErrorIs(t, err, ErrInvalidReport)

	count, err := repo.CountReports(nil)
	require.NoError(t, err)
	assert.Zero(t, count, "nothing is written when one report is invalid")
}

func TestImportRejectsNullReport(t *testing.T) {
	db, repo := setupTestDB(t)
	defer db.Close()

	path := filepath.Join(t.TempDir(), "null.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"reports":[null]}`), 0o600))

	_, err := ImportFromJSON(repo, Validator{}, path)
	require.ErrorIs(t, err, ErrInvalidReport)

	seeded, _, err := SeedIfEmpty(repo, Validator{}, path)
	require.ErrorIs(t, err, ErrInvalidReport)
	assert.False(t, seeded)
}

func TestSeedIfEmpty(t *testing.T) {
	db, repo := setupTestDB(t)
	defer db.Close()

	seeded, count, err := SeedIfEmpty(repo, Validator{}, filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.False(t, seeded)
	assert.Zero(t, count)

	seeded, count, err = SeedIfEmpty(repo, Validator{}, filepath.Join("testdata", "seed.json"))
	require.NoError(t, err)
	assert.True(t, seeded)
	assert.Positive(t, count)

	seeded, again, err := SeedIfEmpty(repo, Validator{}, filepath.Join("testdata", "seed.json"))
	require.NoError(t, err)
	assert.False(t, seeded)
	assert.Equal(t, count, again)
}
