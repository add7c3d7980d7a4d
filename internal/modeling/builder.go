package modeling

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/structbio/modelpipe/internal/project"
	"github.com/structbio/modelpipe/internal/shared/logging"
)

// Builder executes one (target, template) modeling job: alignment, external
// model build, artifact materialization, and the per-job structured log.
type Builder struct {
	aligner         Aligner
	engine          ModelEngine
	structureDir    string
	writeRestraints bool
	logger          logging.Logger
}

func NewBuilder(aligner Aligner, engine ModelEngine, structureDir string, writeRestraints bool, logger logging.Logger) *Builder {
	return &Builder{
		aligner:         aligner,
		engine:          engine,
		structureDir:    structureDir,
		writeRestraints: writeRestraints,
		logger:          logger,
	}
}

// Build runs one job and returns its outcome as a value. It never returns a
// partial-failure error: anything that goes wrong after the skip check ends
// up in the job's structured log and in the returned JobResult, and the
// caller moves on to the next job.
//
// If all required artifacts already exist and are non-empty, Build returns
// immediately without invoking any external tool. This skip fast-path is
// what makes the whole pipeline safely restartable.
func (b *Builder) Build(ctx context.Context, target project.Target, template project.Template, targetDir string, rank int) JobResult {
	result := JobResult{TargetID: target.ID, TemplateID: template.ID}

	arts := NewArtifactSet(targetDir, template.ID)
	if err := os.MkdirAll(arts.Dir, 0o755); err != nil {
		result.Status = JobFailed
		result.Err = fmt.Errorf("creating job dir: %w", err)
		return result
	}

	if arts.Complete(b.writeRestraints) {
		b.logger.Debug("Artifacts already exist; not overwritten",
			"target", target.ID, "template", template.ID)
		result.Status = JobSkipped
		return result
	}

	b.logger.Info("-------------------------------------------------------------------------")
	b.logger.Info("Modeling", "target", target.ID, "template", template.ID, "rank", rank)
	b.logger.Info("-------------------------------------------------------------------------")

	log, err := startJobLog(arts.JobLog(), rank)
	if err != nil {
		result.Status = JobFailed
		result.Err = fmt.Errorf("writing job log: %w", err)
		return result
	}

	start := time.Now()
	err = b.buildArtifacts(ctx, target, template, arts, log)
	result.Elapsed = time.Since(start)

	if err != nil {
		result.Status = JobFailed
		result.Err = err
		b.logger.Warn("Model build failed",
			"target", target.ID, "template", template.ID, "error", err)
		return result
	}

	if logErr := log.success(formatTiming(result.Elapsed)); logErr != nil {
		b.logger.Warn("Could not update job log", "path", arts.JobLog(), "error", logErr)
	}
	result.Status = JobBuilt
	return result
}

// buildArtifacts performs steps 2-5 of a job inside a private scratch
// directory that is removed on every exit path. Failures, including panics
// out of a collaborator, are recorded in the job log and returned.
func (b *Builder) buildArtifacts(ctx context.Context, target project.Target, template project.Template, arts ArtifactSet, log *jobLog) (err error) {
	scratch, err := os.MkdirTemp("", "modelpipe-build-")
	if err != nil {
		logJobFailure(log, err, "")
		return err
	}
	defer os.RemoveAll(scratch)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during model build: %v", r)
			logJobFailure(log, err, string(debug.Stack()))
		}
	}()

	gappedTarget, gappedTemplate, err := b.aligner.Align(ctx, target.Seq, template.Seq)
	if err != nil {
		err = fmt.Errorf("alignment failed: %w", err)
		logJobFailure(log, err, "")
		return err
	}

	alnPath := filepath.Join(scratch, "aligned.pir")
	if err = writePIR(alnPath, target.ID, template.ID, gappedTarget, gappedTemplate); err != nil {
		logJobFailure(log, err, "")
		return err
	}

	out, err := b.engine.Build(ctx, BuildRequest{
		AlignmentFile: alnPath,
		StructureDir:  b.structureDir,
		TargetID:      target.ID,
		TemplateID:    template.ID,
		WorkDir:       scratch,
	})
	if err != nil {
		err = fmt.Errorf("model engine failed: %w", err)
		logJobFailure(log, err, "")
		return err
	}

	// The engine reporting success with an empty model file means silent
	// truncation; treat it as a build failure.
	if !fileExistsNonEmpty(out.ModelPath) {
		err = fmt.Errorf("output model file %s is missing or empty", out.ModelPath)
		logJobFailure(log, err, "")
		return err
	}

	if err = gzipFile(arts.Model(), out.ModelPath); err != nil {
		logJobFailure(log, err, "")
		return err
	}

	seqID := fmt.Sprintf("%.1f\n", out.SeqIdentity)
	if err = os.WriteFile(arts.SeqID(), []byte(seqID), 0o644); err != nil {
		logJobFailure(log, err, "")
		return err
	}

	if b.writeRestraints {
		if err = gzipFile(arts.Restraints(), out.RestraintPath); err != nil {
			err = fmt.Errorf("copying restraints: %w", err)
			logJobFailure(log, err, "")
			return err
		}
	}

	// The alignment is moved into place last: it doubles as the marker that
	// a fully-successful build produced the rest of the artifact set, and a
	// later reduction pass reads it.
	if err = moveFile(arts.Alignment(), alnPath); err != nil {
		logJobFailure(log, err, "")
		return err
	}

	return nil
}

func logJobFailure(log *jobLog, err error, traceback string) {
	if traceback == "" {
		traceback = fmt.Sprintf("%+v", err)
	}
	// Best effort: a failing log write must not mask the build error.
	_ = log.failure(err.Error(), traceback)
}

// writePIR serializes the alignment into the engine's PIR exchange format:
// the target as a plain sequence entry, the template as a structure entry
// resolved by ID in the structure store.
func writePIR(path, targetID, templateID, gappedTarget, gappedTemplate string) error {
	contents := "Target-template alignment\n"
	contents += fmt.Sprintf(">P1;%s\n", targetID)
	contents += fmt.Sprintf("sequence:%s:FIRST:@:LAST :@:::-1.00:-1.00\n", targetID)
	contents += gappedTarget + "*\n"
	contents += fmt.Sprintf(">P1;%s\n", templateID)
	contents += fmt.Sprintf("structureX:%s:FIRST:@:LAST : :undefined:undefined:-1.00:-1.00\n", templateID)
	contents += gappedTemplate + "*\n"
	return os.WriteFile(path, []byte(contents), 0o644)
}
