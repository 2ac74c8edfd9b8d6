package main

import (
	"github.com/spf13/cobra"

	"github.com/banshee-data/cohort-tiering/internal/db"
)

func newMigrateCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the cohort database schema",
	}

	withDB := func(fn func(cmd *cobra.Command, database *db.DB) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			database, err := db.Open(root.dbPath)
			if err != nil {
				return err
			}
			defer database.Close()
			return fn(cmd, database)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: withDB(func(cmd *cobra.Command, database *db.DB) error {
				if err := database.MigrateUp(); err != nil {
					return err
				}
				return printVersion(cmd, database)
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: withDB(func(cmd *cobra.Command, database *db.DB) error {
				if err := database.MigrateDown(); err != nil {
					return err
				}
				return printVersion(cmd, database)
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE:  withDB(printVersion),
		},
	)
	return cmd
}

func printVersion(cmd *cobra.Command, database *db.DB) error {
	version, dirty, err := database.MigrateVersion()
	if err != nil {
		return err
	}
	status := "clean"
	if dirty {
		status = "dirty"
	}
	cmd.Printf("schema version %d (%s)\n", version, status)
	return nil
}
