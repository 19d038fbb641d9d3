// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jcodagnone/hotspots/export"
	"github.com/jcodagnone/hotspots/report"
	"github.com/jcodagnone/hotspots/spatial"
	"github.com/jcodagnone/hotspots/utils/textutils"
	"github.com/spf13/cobra"
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Manage incident reports",
}

var addOptions struct {
	report.Report

	lat, lng float64
	date     string
	address  bool
}

var reportsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Store a single report",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		rep := addOptions.Report

		if addOptions.date != "" {
			t, err := time.Parse(time.DateOnly, addOptions.date)
			if err != nil {
				return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
			}

			rep.OccurredOn = t
		}

		latSet, lngSet := cmd.Flags().Changed("lat"), cmd.Flags().Changed("lng")

		switch {
		case latSet && lngSet:
			rep.Point = &spatial.Point{Lat: addOptions.lat, Lng: addOptions.lng}
		case latSet || lngSet:
			return errors.New("--lat and --lng must be given together")
		case addOptions.address:
			geocoder, err := options.newGeocoder(cmd.Context())
			if err != nil {
				return err
			}

			res, err := geocoder.Geocode(cmd.Context(), rep.Location)
			if err != nil {
				return fmt.Errorf("geocoding %q: %w", rep.Location, err)
			}

			log.Printf("📍 %q resolved to %s (%s confidence)", res.DisplayName, res.Point, res.Confidence)
			rep.Point = &res.Point
		}

		validator, err := options.newValidator()
		if err != nil {
			return err
		}

		report.Sanitize(&rep)

		if err := validator.Validate(&rep); err != nil {
			return err
		}

		db, repo, err := options.openRepository()
		if err != nil {
			return err
		}
		defer db.Close()

		id, err := repo.InsertReport(&rep)
		if err != nil {
			return err
		}

		fmt.Printf("✅ Report %d stored (%s at %s)\n", id, rep.Category, rep.Point)

		return nil
	},
}

var listOptions struct {
	category string
	limit    int
	offset   int
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored reports, newest first",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		db, repo, err := options.openRepository()
		if err != nil {
			return err
		}
		defer db.Close()

		var category *string

		if listOptions.category != "" {
			c, _ := report.NormalizeCategory(listOptions.category)
			category = &c
		}

		total, err := repo.CountReports(category)
		if err != nil {
			return err
		}

		reports, err := repo.ListReports(category, listOptions.limit, listOptions.offset)
		if err != nil {
			return err
		}

		a, b, c, d := strings.Repeat("─", 6), strings.Repeat("─", 10), strings.Repeat("─", 24), strings.Repeat("─", 40)
		fmt.Printf("╭─%6s─┬─%-10s─┬─%-24s─┬─%-40s╮\n", a, b, c, d)
		fmt.Printf("│ %6s │ %-10s │ %-24s │ %-40s│\n", "Id", "Category", "Point", "Location")
		fmt.Printf("├─%6s─┼─%-10s─┼─%-24s─┼─%-40s┤\n", a, b, c, d)

		for _, r := range reports {
			point := "-"
			if r.Point != nil {
				point = fmt.Sprintf("%.5f,%.5f", r.Point.Lat, r.Point.Lng)
			}

			fmt.Printf("│ %6d │ %-10s │ %-24s │ %-40s│\n", r.ID, clip(r.Category, 10), point, clip(r.Location, 40))
		}

		fmt.Printf("╰─%6s─┴─%-10s─┴─%-24s─┴─%-40s╯\n", a, b, c, d)
		fmt.Printf("%s of %s reports\n", textutils.FormatInt(int64(len(reports))), textutils.FormatInt(int64(total)))

		return nil
	},
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n-1]) + "…"
}

var importOptions struct {
	sheet string
}

var reportsImportCmd = &cobra.Command{
	Use:   "import <file.json|file.xlsx>",
	Short: "Import reports from a JSON seed file or a spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		validator, err := options.newValidator()
		if err != nil {
			return err
		}

		db, repo, err := options.openRepository()
		if err != nil {
			return err
		}
		defer db.Close()

		path := args[0]

		switch strings.ToLower(filepath.Ext(path)) {
		case ".json":
			n, err := report.ImportFromJSON(repo, validator, path)
			if err != nil {
				return err
			}

			fmt.Printf("✅ Imported %s reports from %s\n", textutils.FormatInt(int64(n)), path)
		case ".xlsx":
			return importSpreadsheet(repo, validator, path)
		default:
			return fmt.Errorf("unsupported file type %q (expected .json or .xlsx)", filepath.Ext(path))
		}

		return nil
	},
}

func importSpreadsheet(repo report.Repository, validator report.Validator, path string) error {
	f, err := os.Open(path) // #nosec G304 - path is provided by the operator
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	reports, skipped, err := export.ReadReports(f, importOptions.sheet, validator)
	if err != nil {
		return err
	}

	for _, rowErr := range skipped {
		log.Printf("⚠️ Skipping %v", rowErr)
	}

	if err := repo.BulkInsertReports(reports); err != nil {
		return err
	}

	fmt.Printf("✅ Imported %s reports from %s (%d rows skipped)\n",
		textutils.FormatInt(int64(len(reports))), path, len(skipped))

	return nil
}

var reportsExportCmd = &cobra.Command{
	Use:   "export <file.json>",
	Short: "Export every report to a JSON seed file",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		db, repo, err := options.openRepository()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := report.ExportToJSON(repo, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("✅ Exported %s reports to %s\n", textutils.FormatInt(int64(n)), args[0])

		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportsCmd)
	reportsCmd.AddCommand(reportsAddCmd)
	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsImportCmd)
	reportsCmd.AddCommand(reportsExportCmd)

	flags := reportsAddCmd.Flags()
	flags.StringVar(&addOptions.ReporterName, "name", "", "Reporter name")
	flags.StringVar(&addOptions.Gender, "gender", "", "Reporter gender (male, female)")
	flags.StringVar(&addOptions.Phone, "phone", "", "Reporter phone")
	flags.StringVar(&addOptions.Location, "location", "", "Free text location")
	flags.StringVar(&addOptions.Category, "category", "", "Incident category")
	flags.StringVar(&addOptions.Description, "description", "", "What happened")
	flags.StringVar(&addOptions.date, "date", "", "Date of the incident (YYYY-MM-DD)")
	flags.Float64Var(&addOptions.lat, "lat", 0, "Latitude in degrees")
	flags.Float64Var(&addOptions.lng, "lng", 0, "Longitude in degrees")
	flags.BoolVar(&addOptions.address, "address", false, "Geocode --location when no coordinates are given")

	reportsListCmd.Flags().StringVar(&listOptions.category, "category", "", "Only list this category")
	reportsListCmd.Flags().IntVar(&listOptions.limit, "limit", 50, "Maximum rows (0 = all)")
	reportsListCmd.Flags().IntVar(&listOptions.offset, "offset", 0, "Rows to skip")

	reportsImportCmd.Flags().StringVar(&importOptions.sheet, "sheet", "", "Spreadsheet sheet (default: first)")
}
