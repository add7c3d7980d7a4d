package main

import (
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/structbio/modelpipe/internal/project"
	"github.com/structbio/modelpipe/internal/shared/config"
	"github.com/structbio/modelpipe/internal/shared/logging"
)

var (
	configPath string
	verbose    bool

	cfg    *config.PipelineConfig
	logger logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "modelpipe",
	Short: "Distributed, resumable homology-model ensemble pipeline",
	Long: `modelpipe builds structural models for a set of targets against a set of
templates, ranks them by sequence identity, and reduces the ensemble to a
structurally unique subset. Runs are idempotent: completed jobs are skipped,
so an interrupted run can simply be restarted.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to pipeline config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// setup loads configuration and builds the logger exactly once; logging is
// immutable for the rest of the run.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.LoadPipeline(configPath)
	if err != nil {
		return err
	}

	level := logging.ParseLevel(cfg.Logging.Level)
	if verbose {
		level = slog.LevelDebug
	}
	logger = logging.NewSlogLogger(level, cfg.Logging.Format)
	return nil
}

// idFilter resolves the --xxx / --xxxfile flag pair into an ID list. A nil
// result means "no filter".
func idFilter(commaList, filePath string) ([]string, error) {
	if filePath != "" {
		return project.ReadIDFile(filePath)
	}
	if commaList == "" {
		return nil, nil
	}
	var ids []string
	for _, id := range strings.Split(commaList, ",") {
		id = strings.TrimSpace(id)
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
