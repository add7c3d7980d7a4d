package main

import (
	"github.com/spf13/cobra"

	"github.com/structbio/modelpipe/internal/extern"
	"github.com/structbio/modelpipe/internal/modeling"
	"github.com/structbio/modelpipe/internal/project"
	"github.com/structbio/modelpipe/internal/worker"
)

var (
	buildTargets       string
	buildTargetsFile   string
	buildTemplates     string
	buildTemplatesFile string
	buildWorkers       int
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build models for every (target, template) job",
	Long: `Build one model per (target, template) pair across a fixed pool of workers.
Jobs whose artifacts already exist are skipped, so re-running after a partial
failure only performs the missing work.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildTargets, "targets", "", "comma-separated target IDs to work on (default: all)")
	buildCmd.Flags().StringVar(&buildTargetsFile, "targetsfile", "", "file of newline-separated target IDs; # comments allowed")
	buildCmd.Flags().StringVar(&buildTemplates, "templates", "", "comma-separated template IDs to work on (default: all)")
	buildCmd.Flags().StringVar(&buildTemplatesFile, "templatesfile", "", "file of newline-separated template IDs; # comments allowed")
	buildCmd.Flags().IntVar(&buildWorkers, "workers", 0, "worker pool size (default: workers.count from config)")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	layout := project.NewLayout(cfg.Project.Root)

	targets, err := layout.LoadTargets()
	if err != nil {
		return err
	}
	templates, err := layout.LoadTemplates()
	if err != nil {
		return err
	}

	targetFilter, err := idFilter(buildTargets, buildTargetsFile)
	if err != nil {
		return err
	}
	templateFilter, err := idFilter(buildTemplates, buildTemplatesFile)
	if err != nil {
		return err
	}
	grid := modeling.NewGrid(targets, templates, targetFilter, templateFilter)

	if err := project.EnsureDir(layout.ModelsDir()); err != nil {
		return err
	}

	aligner := extern.NewCommandAligner(cfg.Tools.Aligner, cfg.Alignment)
	engine := extern.NewCommandEngine(cfg.Tools.Engine)
	builder := modeling.NewBuilder(aligner, engine, layout.StructuresDir(), cfg.Modeling.WriteRestraints, logger)

	tools := map[string]string{
		"aligner": aligner.Version(),
		"engine":  engine.Version(),
	}
	coordinator := modeling.NewCoordinator(grid, builder, layout, tools, logger)

	size := cfg.Workers.Count
	if buildWorkers > 0 {
		size = buildWorkers
	}
	pool := worker.NewPool(size)

	logger.Info("Starting build pass",
		"targets", len(grid.Targets()),
		"templates", len(grid.Templates()),
		"workers", pool.Size(),
	)

	results := coordinator.RunAll(cmd.Context(), pool)

	var built, skipped, failed int
	for _, rankResults := range results {
		for _, res := range rankResults {
			switch res.Status {
			case modeling.JobBuilt:
				built++
			case modeling.JobSkipped:
				skipped++
			case modeling.JobFailed:
				failed++
			}
		}
	}
	logger.Info("Done", "built", built, "skipped", skipped, "failed", failed)
	return nil
}
