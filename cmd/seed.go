// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jcodagnone/hotspots/report"
	"github.com/spf13/cobra"
)

var seedFile string

func newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Recreates the database with the reports in report/testdata/seed.json",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return seedDatabase(seedFile)
		},
	}

	cmd.Flags().StringVar(&seedFile, "file", filepath.Join("report", "testdata", "seed.json"), "Seed file")

	return cmd
}

func init() {
	rootCmd.AddCommand(newSeedCmd())
}

func seedDatabase(path string) error {
	// remove old db if it exists
	dbPath := filepath.Join(options.DbPath, dbFile)
	_ = os.Remove(dbPath)
	_ = os.Remove(dbPath + ".wal")

	validator, err := options.newValidator()
	if err != nil {
		return err
	}

	db, repo, err := options.openRepository()
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := report.ImportFromJSON(repo, validator, path)
	if err != nil {
		return fmt.Errorf("seeding from %s: %w", path, err)
	}

	fmt.Printf("Database seeded successfully with %d reports.\n", n)

	return nil
}
