package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/banshee-data/cohort-tiering/internal/cohort"
	"github.com/banshee-data/cohort-tiering/internal/db"
	"github.com/banshee-data/cohort-tiering/internal/monitoring"
)

func newIngestCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load observations from JSON files into the cohort database",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "variants FILE",
			Short: "Ingest a JSON array of variant observations",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var obs []cohort.VariantObservation
				if err := readJSON(args[0], &obs); err != nil {
					return err
				}
				database, err := root.openDB()
				if err != nil {
					return err
				}
				defer database.Close()

				store := db.NewVariantStore(database)
				for _, o := range obs {
					if _, err := store.InsertObservation(cmd.Context(), o); err != nil {
						return err
					}
				}
				monitoring.Logf("ingested %d variant observations from %s", len(obs), args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "coverage FILE",
			Short: "Ingest a JSON array of region coverage observations",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var rows []cohort.RegionCoverageObservation
				if err := readJSON(args[0], &rows); err != nil {
					return err
				}
				database, err := root.openDB()
				if err != nil {
					return err
				}
				defer database.Close()

				store := db.NewCoverageStore(database)
				for _, row := range rows {
					if _, err := store.InsertCoverage(cmd.Context(), row); err != nil {
						return err
					}
				}
				monitoring.Logf("ingested %d coverage rows from %s", len(rows), args[0])
				return nil
			},
		},
	)
	return cmd
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
