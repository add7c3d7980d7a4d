package modeling

import (
	"context"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"

	"github.com/structbio/modelpipe/internal/project"
	"github.com/structbio/modelpipe/internal/shared/logging"
	"github.com/structbio/modelpipe/internal/worker"
)

// Coordinator drives the per-target build loop across the worker pool. The
// worker rank, pool size, and barrier are explicit parameters rather than
// ambient state, so the same coordinator value is shared by every worker.
type Coordinator struct {
	grid    *Grid
	builder *Builder
	layout  project.Layout
	logger  logging.Logger
	runID   string
	tools   map[string]string
}

func NewCoordinator(grid *Grid, builder *Builder, layout project.Layout, tools map[string]string, logger logging.Logger) *Coordinator {
	return &Coordinator{
		grid:    grid,
		builder: builder,
		layout:  layout,
		logger:  logger,
		runID:   uuid.New().String(),
		tools:   tools,
	}
}

// RunAll executes the build pass over the whole grid using one goroutine per
// worker rank, and returns each rank's job results.
func (c *Coordinator) RunAll(ctx context.Context, pool *worker.Pool) [][]JobResult {
	barrier := worker.NewBarrier(pool.Size())
	results := make([][]JobResult, pool.Size())
	pool.Run(func(rank int) {
		results[rank] = c.Run(ctx, rank, pool.Size(), barrier)
	})
	return results
}

// Run is one worker's pass over every target. Per target: the lead worker
// prepares the model directory, all workers synchronize, each worker builds
// its assigned jobs strictly sequentially, all workers synchronize again,
// and the lead worker aggregates metadata. A failed job never aborts the
// loop; the worst case is a target with fewer models than templates, visible
// in the metadata record and the per-job logs.
func (c *Coordinator) Run(ctx context.Context, rank, size int, barrier *worker.Barrier) []JobResult {
	var results []JobResult

	for _, target := range c.grid.Targets() {
		targetDir := c.layout.TargetModelsDir(target.ID)

		var targetStart time.Time
		if rank == 0 {
			targetStart = time.Now()
			c.logger.Info("=========================================================================")
			c.logger.Info("Working on target", "target", target.ID)
			c.logger.Info("=========================================================================")
			if err := project.EnsureDir(targetDir); err != nil {
				// Builds will fail per job and be recorded there.
				c.logger.Error("Could not create target model directory",
					"dir", targetDir, "error", err)
			}
		}
		// No worker starts building before the directory exists.
		barrier.Wait()

		for _, idx := range c.grid.Assigned(rank, size) {
			template := c.grid.Templates()[idx]
			results = append(results, c.builder.Build(ctx, target, template, targetDir, rank))
		}

		// All artifact writes for this target are visible before aggregation.
		barrier.Wait()

		if rank == 0 {
			if err := c.recordBuildMetadata(target.ID, targetDir, time.Since(targetStart)); err != nil {
				c.logger.Error("Could not write build metadata",
					"target", target.ID, "error", err)
			}
		}
	}

	return results
}

func (c *Coordinator) recordBuildMetadata(targetID, targetDir string, elapsed time.Duration) error {
	models, err := doublestar.FilepathGlob(filepath.Join(targetDir, "*", ModelFile))
	if err != nil {
		return err
	}

	record := NewStageMetadata(targetID, c.runID, c.tools)
	record.Timing = formatTiming(elapsed)
	record.SuccessfulModels = intPtr(len(models))

	store := NewMetadataStore(filepath.Join(targetDir, MetadataFile))
	return store.Append(StageBuildModels, record)
}
