// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meshintel/geo-engine/pkg/types"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Query the persistent store",
}

var storeShowCmd = &cobra.Command{
	Use:   "show <dataset_id>",
	Short: "Print the complete denormalized view of one dataset",
	Long: `Show runs get_complete_geo_data for the given dataset accession: the
dataset plus every linked publication's role, URL-candidate count, PDF
acquisition status, and extraction quality.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadEngineConfig()
		app, err := buildApp(cfg)
		if err != nil {
			return fmt.Errorf("wiring application: %w", err)
		}
		defer app.store.Close()

		datasetID := types.DatasetID(args[0])
		view, err := app.store.GetCompleteGEOData(cmd.Context(), datasetID)
		if err != nil {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(view)
		}

		fmt.Printf("%s: %s\n", view.Dataset.ID, view.Dataset.Title)
		fmt.Printf("  organism=%s platform=%s samples=%d\n", view.Dataset.Organism, view.Dataset.Platform, view.Dataset.SampleCount)
		for _, p := range view.Publications {
			fmt.Printf("  %s [%s] urls=%d pdf=%s extracted=%v quality=%.2f\n",
				p.Publication.ID, p.Role, p.URLCount, p.PDFStatus, p.HasExtraction, p.ExtractionScore)
		}
		return nil
	},
}

var storeExportCSLCmd = &cobra.Command{
	Use:   "export-csl <dataset_id>",
	Short: "Write the dataset's bibliography as CSL-YAML",
	Long: `Export-csl writes every publication linked to the given dataset
accession as a CSL-YAML bibliography, suitable for reference managers or
Pandoc-based document generation.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadEngineConfig()
		app, err := buildApp(cfg)
		if err != nil {
			return fmt.Errorf("wiring application: %w", err)
		}
		defer app.store.Close()

		return app.store.ExportCSL(cmd.Context(), types.DatasetID(args[0]), os.Stdout)
	},
}

func init() {
	storeShowCmd.Flags().Bool("json", false, "output the complete view as JSON")
	storeCmd.AddCommand(storeShowCmd)
	storeCmd.AddCommand(storeExportCSLCmd)
	rootCmd.AddCommand(storeCmd)
}
