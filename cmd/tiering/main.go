// Command tiering classifies the variants of a batch of samples against the
// cohort history and writes one JSON bundle per sample.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/banshee-data/cohort-tiering/internal/db"
	"github.com/banshee-data/cohort-tiering/internal/monitoring"
	"github.com/banshee-data/cohort-tiering/internal/version"
)

type rootOptions struct {
	dbPath  string
	logFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	var fileLogger *monitoring.FileLogger

	cmd := &cobra.Command{
		Use:           "tiering",
		Short:         "Cohort statistics and variant tiering",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.logFile == "" {
				return nil
			}
			l, err := monitoring.OpenFileLogger(opts.logFile)
			if err != nil {
				return err
			}
			fileLogger = l
			monitoring.SetLogger(l.Printf)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return fileLogger.Close()
		},
	}
	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", "cohort.db", "path to the cohort SQLite database")
	cmd.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "append diagnostics to this file instead of stderr")

	cmd.AddCommand(
		newClassifyCmd(opts),
		newMigrateCmd(opts),
		newIngestCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// openDB opens the database at the configured path with its schema migrated.
func (o *rootOptions) openDB() (*db.DB, error) {
	return db.OpenMigrated(o.dbPath)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version.String())
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Printf("tiering: %v", err)
		stop()
		os.Exit(1)
	}
}
