// Package modeling implements the model-building pipeline: job partitioning,
// per-job model construction with a durable artifact contract, run metadata,
// identity ranking, and greedy structural clustering.
package modeling

import (
	"context"
	"time"

	"github.com/structbio/modelpipe/internal/project"
)

// Job is one (target, template) unit of modeling work. Jobs are materialized
// on demand and never persisted; only their artifacts are durable.
type Job struct {
	Target   project.Target
	Template project.Template
}

type JobStatus string

const (
	// JobSkipped means all required artifacts already existed; no external
	// tool was invoked.
	JobSkipped JobStatus = "SKIPPED"
	JobBuilt   JobStatus = "BUILT"
	JobFailed  JobStatus = "FAILED"
)

// JobResult is the explicit outcome of one ModelBuilder invocation. Failures
// are carried as a value, never as a propagated error, so a coordinator can
// always continue to the next job.
type JobResult struct {
	TargetID   string
	TemplateID string
	Status     JobStatus
	Elapsed    time.Duration
	Err        error
}

// Aligner is the external pairwise-alignment collaborator. Implementations
// carry a fixed substitution scheme and affine gap penalties; output must be
// deterministic for fixed inputs so that re-runs reproduce identical
// artifacts.
type Aligner interface {
	// Align returns one optimal global alignment as a pair of equal-length
	// gapped sequences.
	Align(ctx context.Context, seqA, seqB string) (gappedA, gappedB string, err error)
	Version() string
}

// BuildRequest describes one model-build invocation of the external engine.
type BuildRequest struct {
	// AlignmentFile is a PIR exchange file pairing the target sequence with
	// the template structure entry.
	AlignmentFile string
	// StructureDir is searched for the template's coordinate file.
	StructureDir string
	TargetID     string
	TemplateID   string
	// WorkDir is a private scratch directory; the engine may drop any
	// intermediate files there.
	WorkDir string
}

// BuildOutput names the files the engine produced inside the scratch
// directory plus the per-model sequence-identity score it reported.
type BuildOutput struct {
	ModelPath     string
	RestraintPath string
	SeqIdentity   float64
}

// ModelEngine is the external homology-modeling collaborator. It is fallible
// and potentially slow; callers own failure isolation.
type ModelEngine interface {
	Build(ctx context.Context, req BuildRequest) (BuildOutput, error)
	Version() string
}

// Geometry is the external structural-distance collaborator.
type Geometry interface {
	// Distance computes the structural distance between two conformations,
	// restricted to atoms with the given name.
	Distance(ctx context.Context, pathA, pathB, atomName string) (float64, error)
	// MinDistance is the batch variant: the minimum distance between the
	// candidate conformation and each reference conformation.
	MinDistance(ctx context.Context, refPaths []string, candidatePath, atomName string) (float64, error)
	Version() string
}
