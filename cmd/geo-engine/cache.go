// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the dataset hot cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print hot-cache hit/miss/eviction counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadEngineConfig()
		app, err := buildApp(cfg)
		if err != nil {
			return fmt.Errorf("wiring application: %w", err)
		}
		defer app.store.Close()

		stats := app.hotCache.Stats()
		fmt.Printf("hits: %d\nmisses: %d\nevictions: %d\n", stats.Hits, stats.Misses, stats.Evictions)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	rootCmd.AddCommand(cacheCmd)
}
