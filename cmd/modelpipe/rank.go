package main

import (
	"github.com/spf13/cobra"

	"github.com/structbio/modelpipe/internal/modeling"
	"github.com/structbio/modelpipe/internal/project"
)

var (
	rankTargets     string
	rankTargetsFile string
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Write per-target manifests of templates sorted by sequence identity",
	RunE:  runRank,
}

func init() {
	rankCmd.Flags().StringVar(&rankTargets, "targets", "", "comma-separated target IDs to work on (default: all)")
	rankCmd.Flags().StringVar(&rankTargetsFile, "targetsfile", "", "file of newline-separated target IDs; # comments allowed")
	rootCmd.AddCommand(rankCmd)
}

func runRank(cmd *cobra.Command, args []string) error {
	layout := project.NewLayout(cfg.Project.Root)

	targets, err := layout.LoadTargets()
	if err != nil {
		return err
	}
	templates, err := layout.LoadTemplates()
	if err != nil {
		return err
	}

	targetFilter, err := idFilter(rankTargets, rankTargetsFile)
	if err != nil {
		return err
	}
	grid := modeling.NewGrid(targets, templates, targetFilter, nil)

	ranker := modeling.NewRanker(layout, nil, logger)
	if err := ranker.Run(grid.Targets(), grid.Templates()); err != nil {
		return err
	}
	logger.Info("Done")
	return nil
}
