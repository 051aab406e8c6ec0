// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search GEO for datasets without running the acquisition pipeline",
	Long: `Search invokes the DatasetSearch collaborator (NCBI E-utilities by
default) and prints the ranked dataset candidates with their originating
publication PMIDs, without discovering or downloading any full text.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadEngineConfig()
		app, err := buildApp(cfg)
		if err != nil {
			return fmt.Errorf("wiring application: %w", err)
		}
		defer app.store.Close()

		maxResults, _ := cmd.Flags().GetInt("max-results")
		hits, err := app.search.Search(cmd.Context(), args[0], maxResults)
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(hits)
		}

		for _, hit := range hits {
			fmt.Printf("%s  %s  (organism=%s, platform=%s, samples=%d)\n",
				hit.Dataset.ID, hit.Dataset.Title, hit.Dataset.Organism, hit.Dataset.Platform, hit.Dataset.SampleCount)
			for _, pmid := range hit.OriginalPMIDs {
				fmt.Printf("    pmid:%s\n", pmid)
			}
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().Int("max-results", 20, "maximum number of dataset candidates to return")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}
