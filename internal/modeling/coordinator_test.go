package modeling

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/structbio/modelpipe/internal/project"
	"github.com/structbio/modelpipe/internal/worker"
)

func testProject(t *testing.T, targetIDs []string, templateIDs []string) (project.Layout, []project.Target, []project.Template) {
	t.Helper()
	layout := project.NewLayout(t.TempDir())

	targets := make([]project.Target, len(targetIDs))
	for i, id := range targetIDs {
		targets[i] = project.Target{ID: id, Seq: "MAQKENSYPWPYG"}
	}
	templates := make([]project.Template, len(templateIDs))
	for i, id := range templateIDs {
		templates[i] = project.Template{
			ID:            id,
			Seq:           "MDRSKENCISGPV",
			StructurePath: filepath.Join(layout.StructuresDir(), id+".pdb"),
		}
	}
	return layout, targets, templates
}

func runCoordinator(t *testing.T, layout project.Layout, grid *Grid, engine *fakeEngine, size int) [][]JobResult {
	t.Helper()
	builder := NewBuilder(&fakeAligner{}, engine, layout.StructuresDir(), true, testLogger{})
	tools := map[string]string{"aligner": "fake-aligner 1.0", "engine": engine.Version()}
	coord := NewCoordinator(grid, builder, layout, tools, testLogger{})
	return coord.RunAll(context.Background(), worker.NewPool(size))
}

func TestCoordinator_AllJobsBuilt(t *testing.T) {
	templateIDs := make([]string, 7)
	for i := range templateIDs {
		templateIDs[i] = fmt.Sprintf("TPL_%d", i)
	}
	layout, targets, templates := testProject(t, []string{"T1", "T2"}, templateIDs)
	grid := NewGrid(targets, templates, nil, nil)

	results := runCoordinator(t, layout, grid, newFakeEngine(), 3)

	built := 0
	for _, rankResults := range results {
		for _, res := range rankResults {
			require.Equal(t, JobBuilt, res.Status)
			built++
		}
	}
	require.Equal(t, 2*7, built)

	for _, target := range targets {
		for _, template := range templates {
			arts := NewArtifactSet(layout.TargetModelsDir(target.ID), template.ID)
			require.True(t, arts.Complete(true), "%s/%s", target.ID, template.ID)
		}
	}
}

func TestCoordinator_MetadataRecordsSuccessCount(t *testing.T) {
	layout, targets, templates := testProject(t, []string{"T1"}, []string{"A", "B", "C"})
	grid := NewGrid(targets, templates, nil, nil)

	engine := newFakeEngine()
	engine.failFor = map[string]error{"B": errors.New("engine crashed")}
	runCoordinator(t, layout, grid, engine, 2)

	store := NewMetadataStore(filepath.Join(layout.TargetModelsDir("T1"), MetadataFile))
	doc, err := store.Read()
	require.NoError(t, err)

	buildDoc := doc[StageBuildModels].(map[string]any)
	require.Equal(t, "T1", buildDoc["target_id"])
	require.Equal(t, 2, buildDoc["nsuccessful_models"])
	require.Equal(t, "fake-engine 9.11", buildDoc["tools"].(map[string]any)["engine"])
	require.NotEmpty(t, buildDoc["run_id"])
}

func TestCoordinator_FailureDoesNotAbortRun(t *testing.T) {
	layout, targets, templates := testProject(t, []string{"T1", "T2"}, []string{"A", "B"})
	grid := NewGrid(targets, templates, nil, nil)

	engine := newFakeEngine()
	engine.failFor = map[string]error{"A": errors.New("boom")}
	results := runCoordinator(t, layout, grid, engine, 2)

	statuses := map[JobStatus]int{}
	for _, rankResults := range results {
		for _, res := range rankResults {
			statuses[res.Status]++
		}
	}
	// Template A fails for both targets; everything else completes.
	require.Equal(t, 2, statuses[JobFailed])
	require.Equal(t, 2, statuses[JobBuilt])

	record, err := ReadJobLog(NewArtifactSet(layout.TargetModelsDir("T2"), "A").JobLog())
	require.NoError(t, err)
	require.False(t, record.Complete)
	require.NotEmpty(t, record.Traceback)
}

func TestCoordinator_TemplateFilter(t *testing.T) {
	layout, targets, templates := testProject(t, []string{"T1"}, []string{"A", "B", "C"})
	grid := NewGrid(targets, templates, nil, []string{"C", "NOPE"})

	results := runCoordinator(t, layout, grid, newFakeEngine(), 1)

	require.Len(t, results[0], 1)
	require.Equal(t, "C", results[0][0].TemplateID)
	require.False(t, NewArtifactSet(layout.TargetModelsDir("T1"), "A").Complete(true))
}

func TestCoordinator_ResumedRunSkips(t *testing.T) {
	layout, targets, templates := testProject(t, []string{"T1"}, []string{"A", "B"})

	engine := newFakeEngine()
	runCoordinator(t, layout, NewGrid(targets, templates, nil, nil), engine, 2)
	require.Equal(t, int32(2), engine.calls.Load())

	// Second run over the same project touches no external tool.
	runCoordinator(t, layout, NewGrid(targets, templates, nil, nil), engine, 2)
	require.Equal(t, int32(2), engine.calls.Load())
}
