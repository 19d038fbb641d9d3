// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"log"

	"github.com/jcodagnone/hotspots/geocode"
	"github.com/jcodagnone/hotspots/report"
	"github.com/jcodagnone/hotspots/server"
	"github.com/spf13/cobra"
)

var serveOptions struct {
	addr     string
	seedFile string
	geocode  bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the reports and hotspots JSON API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		engine, err := options.newEngine()
		if err != nil {
			return err
		}

		validator, err := options.newValidator()
		if err != nil {
			return err
		}

		db, repo, err := options.openRepository()
		if err != nil {
			return err
		}
		defer db.Close()

		if serveOptions.seedFile != "" {
			seeded, n, err := report.SeedIfEmpty(repo, validator, serveOptions.seedFile)
			if err != nil {
				return err
			}

			if seeded {
				log.Printf("🌱 Seeded %d reports from %s", n, serveOptions.seedFile)
			}
		}

		var geocoder geocode.Geocoder

		if serveOptions.geocode {
			g, err := options.newGeocoder(cmd.Context())
			if err != nil {
				log.Printf("⚠️ Geocoding disabled: %v", err)
			} else {
				log.Println("📍 Geocoding: Google Maps")

				geocoder = g
			}
		}

		return server.NewServer(repo, engine, validator, geocoder).Run(serveOptions.addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveOptions.addr, "addr", "localhost:8080", "Listen address")
	serveCmd.Flags().StringVar(&serveOptions.seedFile, "seed", "", "Seed an empty database from this JSON file")
	serveCmd.Flags().BoolVar(&serveOptions.geocode, "geocode", true, "Geocode reports submitted without coordinates")
}
