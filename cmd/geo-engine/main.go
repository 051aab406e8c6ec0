// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the geo-engine CLI: a GEO dataset
// full-text acquisition and persistence engine. Subcommands: search
// (DatasetSearch only), run (the full coordinator pipeline), cache stats
// (hot-cache counters), store show (the denormalized dataset view).
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meshintel/geo-engine/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback if it is non-empty, otherwise the loaded
// secret value for key, or "" if there is none.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the geo-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "geo-engine",
	Short: "GEO dataset full-text acquisition and persistence engine",
	Long: `geo-engine resolves GEO datasets to their originating and citing
publications, discovers full-text PDF locations across a tiered waterfall
of sources, downloads and parses them, and persists a queryable, denormalized
view per dataset.

Each pipeline stage is reachable independently as a subcommand (search, run,
cache, store), so the full search-through-persistence flow or any individual
stage can be driven from the CLI or composed into a larger workflow.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./geo-engine.yaml or ~/.config/geo-engine/geo-engine.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("geo-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "geo-engine"))
		}
	}

	viper.SetEnvPrefix("GEO_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
