package main

import (
	"github.com/spf13/cobra"

	"github.com/banshee-data/cohort-tiering/internal/cohort"
	"github.com/banshee-data/cohort-tiering/internal/config"
	"github.com/banshee-data/cohort-tiering/internal/db"
	"github.com/banshee-data/cohort-tiering/internal/panel"
	"github.com/banshee-data/cohort-tiering/internal/report"
	"github.com/banshee-data/cohort-tiering/internal/timeutil"
)

type classifyOptions struct {
	configPath  string
	samplesPath string
	panelsDir   string
	outDir      string
}

func newClassifyCmd(root *rootOptions) *cobra.Command {
	opts := &classifyOptions{}
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify every sample listed in a samples sheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			samples, err := config.LoadSamples(opts.samplesPath)
			if err != nil {
				return err
			}

			database, err := root.openDB()
			if err != nil {
				return err
			}
			defer database.Close()

			engine := newEngine(cfg, database, panel.NewFileResolver(opts.panelsDir))
			res, err := engine.Run(cmd.Context(), samples)
			if err != nil {
				return err
			}
			return report.NewWriter(opts.outDir, cfg.GetGenomeVersion()).Write(res)
		},
	}
	cmd.Flags().StringVar(&opts.configPath, "config", "", "engine configuration JSON (defaults apply when empty)")
	cmd.Flags().StringVar(&opts.samplesPath, "samples", "", "samples sheet YAML")
	cmd.Flags().StringVar(&opts.panelsDir, "panels", "panels", "directory holding panel definitions")
	cmd.Flags().StringVar(&opts.outDir, "out", ".", "directory to write <sample>.json bundles to")
	_ = cmd.MarkFlagRequired("samples")
	return cmd
}

func loadConfig(path string) (*config.EngineConfig, error) {
	if path == "" {
		return &config.EngineConfig{}, nil
	}
	return config.LoadEngineConfig(path)
}

func newEngine(cfg *config.EngineConfig, database *db.DB, panels cohort.PanelResolver) *cohort.Engine {
	return &cohort.Engine{
		Variants:        db.NewVariantStore(database),
		Coverage:        db.NewCoverageStore(database),
		Panels:          panels,
		Thresholds:      cfg.Thresholds(),
		GenomeVersion:   cfg.GetGenomeVersion(),
		CoverageProgram: cfg.GetCoverageProgram(),
		QueryTimeout:    cfg.GetStoreTimeout(),
		Workers:         cfg.GetWorkers(),
		Clock:           timeutil.RealClock{},
	}
}
