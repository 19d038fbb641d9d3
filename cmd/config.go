// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/jcodagnone/hotspots/geocode"
	"github.com/jcodagnone/hotspots/hotspot"
	"github.com/jcodagnone/hotspots/report"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// envPrefix maps --eps-meters to HOTSPOTS_EPS_METERS.
const envPrefix = "HOTSPOTS"

const dbFile = "hotspots.duckdb"

// Options is the resolved configuration: flags, then HOTSPOTS_* variables,
// then the YAML file, then defaults.
type Options struct {
	DbPath                 string  `mapstructure:"db-path"`
	EpsMeters              float64 `mapstructure:"eps-meters"`
	WeightScale            float64 `mapstructure:"weight-scale"`
	WeightCap              float64 `mapstructure:"weight-cap"`
	Workers                int     `mapstructure:"workers"`
	Index                  string  `mapstructure:"index"`
	Bounds                 string  `mapstructure:"bounds"`
	AllowUnknownCategories bool    `mapstructure:"allow-unknown-categories"`
	TraceHTTP              bool    `mapstructure:"trace-http"`
	GCPProject             string  `mapstructure:"gcp-project"`
	GeocodeRegion          string  `mapstructure:"geocode-region"`
	GeocodeContext         string  `mapstructure:"geocode-context"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	return v
}

// loadOptions overlays the config file (when not empty) and the environment
// on top of flags.
func loadOptions(flags *pflag.FlagSet, configFile string) (*Options, error) {
	v := newViper()

	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("binding flags: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %q: %w", configFile, err)
		}
	}

	opts := &Options{}
	if err := v.Unmarshal(opts); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}

	return opts, nil
}

// EngineConfig converts the options into a validated engine configuration.
func (o *Options) EngineConfig() (hotspot.Config, error) {
	index, err := hotspot.ParseIndexKind(o.Index)
	if err != nil {
		return hotspot.Config{}, err
	}

	cfg := hotspot.DefaultConfig().WithEpsMeters(o.EpsMeters)
	cfg.WeightScale = o.WeightScale
	cfg.WeightCap = o.WeightCap
	cfg.Workers = o.Workers
	cfg.Index = index

	return cfg, cfg.Validate()
}

func (o *Options) newEngine() (*hotspot.Engine, error) {
	cfg, err := o.EngineConfig()
	if err != nil {
		return nil, err
	}

	return hotspot.New(cfg)
}

func (o *Options) newValidator() (report.Validator, error) {
	v := report.Validator{AllowUnknownCategories: o.AllowUnknownCategories}

	if o.Bounds != "" {
		b, err := report.ParseBounds(o.Bounds)
		if err != nil {
			return v, err
		}

		v.Bounds = b
	}

	return v, nil
}

// openRepository opens (creating when needed) the database under DbPath.
func (o *Options) openRepository() (*sql.DB, report.Repository, error) {
	if err := os.MkdirAll(o.DbPath, 0o750); err != nil {
		return nil, nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := sql.Open("duckdb", filepath.Join(o.DbPath, dbFile))
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	repo := report.NewRepository(db)
	if err := repo.CreateSchema(); err != nil {
		db.Close()

		return nil, nil, fmt.Errorf("creating schema: %w", err)
	}

	return db, repo, nil
}

func (o *Options) newGeocoder(ctx context.Context) (geocode.Geocoder, error) {
	key, err := geocode.ResolveAPIKey(ctx, o.GCPProject, "")
	if err != nil {
		return nil, err
	}

	geoOpts := geocode.GoogleMapsOptions{
		Region:  o.GeocodeRegion,
		Context: o.GeocodeContext,
	}

	if o.TraceHTTP {
		geoOpts.Trace = os.Stderr
	}

	return geocode.NewGoogleMaps(key, geoOpts), nil
}
