package main

import (
	"github.com/spf13/cobra"

	"github.com/structbio/modelpipe/internal/extern"
	"github.com/structbio/modelpipe/internal/modeling"
	"github.com/structbio/modelpipe/internal/project"
)

var (
	clusterTargets     string
	clusterTargetsFile string
	clusterSeqIDCutoff float64
)

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Reduce each target's models to a structurally unique subset",
	Long: `Greedily filter each target's completed models against the clustering
distance cutoff, keeping only models that are structurally distinct from
every previously accepted one.`,
	RunE: runCluster,
}

func init() {
	clusterCmd.Flags().StringVar(&clusterTargets, "targets", "", "comma-separated target IDs to work on (default: all)")
	clusterCmd.Flags().StringVar(&clusterTargetsFile, "targetsfile", "", "file of newline-separated target IDs; # comments allowed")
	clusterCmd.Flags().Float64Var(&clusterSeqIDCutoff, "seqid-cutoff", 0, "only cluster models with sequence identity >= cutoff (0 disables)")
	rootCmd.AddCommand(clusterCmd)
}

func runCluster(cmd *cobra.Command, args []string) error {
	layout := project.NewLayout(cfg.Project.Root)

	targets, err := layout.LoadTargets()
	if err != nil {
		return err
	}
	templates, err := layout.LoadTemplates()
	if err != nil {
		return err
	}

	targetFilter, err := idFilter(clusterTargets, clusterTargetsFile)
	if err != nil {
		return err
	}
	grid := modeling.NewGrid(targets, templates, targetFilter, nil)

	geometry := extern.NewCommandGeometry(cfg.Tools.Geometry)
	tools := map[string]string{"geometry": geometry.Version()}

	reducer := modeling.NewReducer(layout, geometry, cfg.Clustering.Cutoff, cfg.Clustering.AtomName, tools, logger)
	if err := reducer.Run(cmd.Context(), grid.Targets(), grid.Templates(), clusterSeqIDCutoff); err != nil {
		return err
	}
	logger.Info("Done")
	return nil
}
