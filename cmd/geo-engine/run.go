// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meshintel/geo-engine/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run <query>",
	Short: "Search GEO for datasets and run the full acquisition pipeline",
	Long: `Run executes search once for the given query, then for each matching
dataset independently discovers citing publications, discovers full-text
URL candidates, downloads and parses PDFs, and persists everything to the
store. Partial per-publication failures are recorded, not fatal.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadEngineConfig()
		app, err := buildApp(cfg)
		if err != nil {
			return fmt.Errorf("wiring application: %w", err)
		}
		defer app.store.Close()

		maxDatasets, _ := cmd.Flags().GetInt("max-datasets")
		enrichment, _ := cmd.Flags().GetBool("enrichment")
		mirrors, _ := cmd.Flags().GetBool("last-resort-mirrors")

		opts := types.DefaultRunOptions()
		opts.EnableEnrichment = enrichment
		opts.EnableLastResortMirrors = mirrors

		result, err := app.coordinator.Run(cmd.Context(), args[0], maxDatasets, opts)
		if err != nil {
			return fmt.Errorf("running pipeline: %w", err)
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		for _, ds := range result.Datasets {
			fmt.Printf("%s: %s (%d publications)\n", ds.DatasetID, ds.Status, len(ds.Publications))
			for _, p := range ds.Publications {
				line := fmt.Sprintf("  %s [%s] %s", p.PublicationID, p.Role, p.Substatus)
				if p.Error != "" {
					line += ": " + p.Error
				}
				fmt.Println(line)
			}
		}
		if result.HasFailures() {
			return fmt.Errorf("one or more datasets failed")
		}
		return nil
	},
}

func init() {
	runCmd.Flags().Int("max-datasets", 10, "maximum number of datasets to process")
	runCmd.Flags().Bool("enrichment", true, "run URL discovery + download + parse after search")
	runCmd.Flags().Bool("last-resort-mirrors", false, "allow last-resort mirror sources during URL discovery")
	runCmd.Flags().Bool("json", false, "output the RunResult as JSON")

	rootCmd.AddCommand(runCmd)
}
