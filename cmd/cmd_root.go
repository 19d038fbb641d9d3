// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/jcodagnone/hotspots/hotspot"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

var (
	configFile string
	options    = &Options{}
)

var rootCmd = &cobra.Command{
	Use:   "hotspots",
	Short: "incident reports and their hotspots",
	Long: `
hotspots stores geolocated incident reports and groups reports of the same
category into density clusters, ready to be drawn as a heat map.
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		opts, err := loadOptions(cmd.Flags(), configFile)
		if err != nil {
			return err
		}

		*options = *opts

		return nil
	},
}

var Version = "dev"

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	addGlobalFlags(rootCmd.PersistentFlags())
}

// addGlobalFlags declares every key loadOptions understands.
func addGlobalFlags(flags *pflag.FlagSet) {
	flags.StringVar(&configFile, "config", "", "YAML configuration file")
	flags.String("db-path", "db", "Directory where the database is stored")
	flags.Float64("eps-meters", hotspot.DefaultEpsMeters, "Neighborhood radius in meters")
	flags.Float64("weight-scale", hotspot.DefaultWeightScale, "Heat map weight multiplier")
	flags.Float64("weight-cap", hotspot.DefaultWeightCap, "Heat map weight upper bound")
	flags.Int("workers", 0, "Categories clustered in parallel (0 = GOMAXPROCS)")
	flags.String("index", string(hotspot.IndexH3), "Neighbor search: h3 or brute")
	flags.String("bounds", "", "Service area as minLat,minLng,maxLat,maxLng")
	flags.Bool("allow-unknown-categories", false, "Accept categories outside the default vocabulary")
	flags.Bool("trace-http", false, "Dump outbound HTTP traffic to stderr")
	flags.String("gcp-project", "", "Project holding the geocoding API key (ADC lookup)")
	flags.String("geocode-region", "id", "Region bias for geocoding")
	flags.String("geocode-context", "Makassar, Indonesia", "Appended to every geocoded address")
}
