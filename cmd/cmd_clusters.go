// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jcodagnone/hotspots/export"
	"github.com/jcodagnone/hotspots/hotspot"
	"github.com/jcodagnone/hotspots/report"
	"github.com/spf13/cobra"
)

var clustersOptions struct {
	format   string
	output   string
	category string
}

var clustersCmd = &cobra.Command{
	Use:   "clusters",
	Short: "Compute hotspots from the stored reports",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		format := strings.ToLower(clustersOptions.format)
		if format == "xlsx" && clustersOptions.output == "" {
			return errors.New("--format xlsx requires --output")
		}

		engine, err := options.newEngine()
		if err != nil {
			return err
		}

		db, repo, err := options.openRepository()
		if err != nil {
			return err
		}
		defer db.Close()

		incidents, err := repo.FetchAllIncidents()
		if err != nil {
			return err
		}

		if clustersOptions.category != "" {
			incidents = filterCategory(incidents, clustersOptions.category)
		}

		start := time.Now()

		clusters, err := engine.ComputeClusters(incidents)
		if err != nil {
			return err
		}

		log.Printf("Clustered %d incidents into %d clusters in %v (eps %.0fm, index %s)",
			len(incidents), len(clusters), time.Since(start).Round(time.Millisecond),
			engine.Config().EpsMeters(), engine.Config().Index)

		if clustersOptions.output != "" {
			return writeClustersFile(clustersOptions.output, format, clusters, engine.Weight)
		}

		bw := bufio.NewWriter(os.Stdout)

		if err := writeClusters(bw, format, clusters, engine.Weight); err != nil {
			return err
		}

		return bw.Flush()
	},
}

func writeClustersFile(path, format string, clusters []hotspot.Cluster, weight export.WeightFunc) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()

	bw := bufio.NewWriter(f)

	if err := writeClusters(bw, format, clusters, weight); err != nil {
		return err
	}

	return bw.Flush()
}

func filterCategory(incidents []hotspot.Incident, label string) []hotspot.Incident {
	category, _ := report.NormalizeCategory(label)

	filtered := make([]hotspot.Incident, 0, len(incidents))

	for _, inc := range incidents {
		if inc.Category == category {
			filtered = append(filtered, inc)
		}
	}

	return filtered
}

func writeClusters(w io.Writer, format string, clusters []hotspot.Cluster, weight export.WeightFunc) error {
	switch format {
	case "table":
		return writeClusterTable(w, clusters, weight)
	case "json":
		return export.WriteJSON(w, clusters, weight)
	case "geojson":
		return export.WriteGeoJSON(w, clusters, weight)
	case "xlsx":
		return export.WriteXLSX(w, clusters, weight)
	default:
		return fmt.Errorf("unknown format %q (expected table, json, geojson or xlsx)", format)
	}
}

func writeClusterTable(w io.Writer, clusters []hotspot.Cluster, weight export.WeightFunc) error {
	a, b, c, d := strings.Repeat("─", 10), strings.Repeat("─", 4), strings.Repeat("─", 22), strings.Repeat("─", 7)

	lines := []string{
		fmt.Sprintf("╭─%-10s─┬─%4s─┬─%-22s─┬─%7s─┬─%7s─╮", a, b, c, d, d),
		fmt.Sprintf("│ %-10s │ %4s │ %-22s │ %7s │ %7s │", "Category", "Id", "Center", "Reports", "Weight"),
		fmt.Sprintf("├─%-10s─┼─%4s─┼─%-22s─┼─%7s─┼─%7s─┤", a, b, c, d, d),
	}

	for _, cl := range clusters {
		center := fmt.Sprintf("%.5f,%.5f", cl.Center.Lat, cl.Center.Lng)
		lines = append(lines, fmt.Sprintf("│ %-10s │ %4d │ %-22s │ %7d │ %7.2f │",
			clip(cl.Category, 10), cl.ID, center, cl.Count, weight(cl.Count)))
	}

	lines = append(lines, fmt.Sprintf("╰─%-10s─┴─%4s─┴─%-22s─┴─%7s─┴─%7s─╯", a, b, c, d, d))

	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))

	return err
}

func init() {
	rootCmd.AddCommand(clustersCmd)
	clustersCmd.Flags().StringVar(&clustersOptions.format, "format", "table", "Output format: table, json, geojson or xlsx")
	clustersCmd.Flags().StringVarP(&clustersOptions.output, "output", "o", "", "Write to this file instead of stdout")
	clustersCmd.Flags().StringVar(&clustersOptions.category, "category", "", "Only cluster this category")
}
