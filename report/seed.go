// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// SeedData represents the JSON seed file format.
type SeedData struct {
	Version     string    `json:"version"`
	LastUpdated time.Time `json:"last_updated"`
	Reports     []*Report `json:"reports"`
}

// ExportToJSON writes every stored report to a JSON file.
func ExportToJSON(repo Repository, filepath string) (int, error) {
	reports, err := repo.ListReports(nil, 0, 0)
	if err != nil {
		return 0, fmt.Errorf("listing reports: %w", err)
	}

	seed := &SeedData{
		Version:     "1.0",
		LastUpdated: time.Now(),
		Reports:     reports,
	}

	data, err := json.MarshalIndent(seed, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshaling JSON: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0o600); err != nil {
		return 0, fmt.Errorf("writing file: %w", err)
	}

	return len(reports), nil
}

// ImportFromJSON loads reports from a JSON file. Every report goes through
// Sanitize and the validator before anything is written.
func ImportFromJSON(repo Repository, v Validator, filepath string) (int, error) {
	data, err := os.ReadFile(filepath) // #nosec G304 - filepath is provided by admin
	if err != nil {
		return 0, fmt.Errorf("reading file: %w", err)
	}

	var seed SeedData
	if err := json.Unmarshal(data, &seed); err != nil {
		return 0, fmt.Errorf("parsing JSON: %w", err)
	}

	for i, r := range seed.Reports {
		if r == nil {
			return 0, fmt.Errorf("report %d: %w", i, ErrInvalidReport)
		}

		r.ID = 0
		Sanitize(r)

		if err := v.Validate(r); err != nil {
			return 0, fmt.Errorf("report %d (%s): %w", i, r.ReporterName, err)
		}
	}

	if err := repo.BulkInsertReports(seed.Reports); err != nil {
		return 0, err
	}

	return len(seed.Reports), nil
}

// SeedIfEmpty seeds the database from a JSON file if no reports exist.
func SeedIfEmpty(repo Repository, v Validator, filepath string) (bool, int, error) {
	count, err := repo.CountReports(nil)
	if err != nil {
		return false, 0, fmt.Errorf("counting reports: %w", err)
	}

	if count > 0 {
		return false, count, nil
	}

	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		return false, 0, nil
	}

	imported, err := ImportFromJSON(repo, v, filepath)
	if err != nil {
		return false, 0, err
	}

	return true, imported, nil
}
