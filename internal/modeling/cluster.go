package modeling

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"

	"github.com/structbio/modelpipe/internal/project"
	"github.com/structbio/modelpipe/internal/shared/logging"
)

// Reducer greedily filters a target's completed models down to a
// structurally unique subset. It runs serially on the lead worker after the
// build pass.
type Reducer struct {
	layout   project.Layout
	geometry Geometry
	cutoff   float64
	atomName string
	logger   logging.Logger
	runID    string
	tools    map[string]string
}

func NewReducer(layout project.Layout, geometry Geometry, cutoff float64, atomName string, tools map[string]string, logger logging.Logger) *Reducer {
	return &Reducer{
		layout:   layout,
		geometry: geometry,
		cutoff:   cutoff,
		atomName: atomName,
		logger:   logger,
		runID:    uuid.New().String(),
		tools:    tools,
	}
}

type validModel struct {
	TemplateID string
	RawPath    string
}

// Run reduces every listed target. seqIDCutoff > 0 restricts clustering to
// models whose sequence identity is at least the cutoff.
func (r *Reducer) Run(ctx context.Context, targets []project.Target, templates []project.Template, seqIDCutoff float64) error {
	for _, target := range targets {
		targetDir := r.layout.TargetModelsDir(target.ID)
		if _, err := os.Stat(targetDir); os.IsNotExist(err) {
			continue
		}
		if err := r.reduceTarget(ctx, target.ID, targetDir, templates, seqIDCutoff); err != nil {
			return fmt.Errorf("clustering target %s: %w", target.ID, err)
		}
	}
	return nil
}

func (r *Reducer) reduceTarget(ctx context.Context, targetID, targetDir string, templates []project.Template, seqIDCutoff float64) error {
	r.logger.Info("Conducting structural clustering", "target", targetID, "cutoff", r.cutoff)

	valid, err := r.collectValid(targetDir, templates, seqIDCutoff)
	if err != nil {
		return err
	}
	// The decompressed copies exist only for distance computation; remove
	// them for every template whether or not it was accepted.
	defer r.removeDecompressed(targetDir, templates)

	if err := r.removeStaleMarkers(targetDir); err != nil {
		return err
	}

	accepted, err := r.cluster(ctx, targetDir, valid)
	if err != nil {
		return err
	}

	manifest := strings.Join(accepted, "\n")
	if manifest != "" {
		manifest += "\n"
	}
	if err := os.WriteFile(filepath.Join(targetDir, UniqueManifestFile), []byte(manifest), 0o644); err != nil {
		return err
	}

	record := NewStageMetadata(targetID, r.runID, r.tools)
	record.UniqueModels = intPtr(len(accepted))
	record.Cutoff = float64Ptr(r.cutoff)
	store := NewMetadataStore(filepath.Join(targetDir, MetadataFile))
	if err := store.Append(StageClusterModels, record); err != nil {
		return err
	}

	r.logger.Info("Clustering complete", "target", targetID,
		"unique_models", len(accepted), "valid_models", len(valid), "cutoff", r.cutoff)
	return nil
}

// cluster is the greedy pass: the first model is always accepted; every
// later candidate is compared against the full accepted-so-far set, not a
// summary statistic, which is O(k²) by design to handle non-transitive
// near-duplicates. A candidate is rejected iff its minimum distance to the
// accepted set falls below the cutoff.
func (r *Reducer) cluster(ctx context.Context, targetDir string, valid []validModel) ([]string, error) {
	var accepted []string
	var acceptedPaths []string

	for i, model := range valid {
		if i > 0 {
			minDist, err := r.geometry.MinDistance(ctx, acceptedPaths, model.RawPath, r.atomName)
			if err != nil {
				return nil, fmt.Errorf("distance for %s: %w", model.TemplateID, err)
			}
			if minDist < r.cutoff {
				continue
			}
		}

		accepted = append(accepted, model.TemplateID)
		acceptedPaths = append(acceptedPaths, model.RawPath)
		marker := NewArtifactSet(targetDir, model.TemplateID).UniqueMarker()
		if err := os.WriteFile(marker, nil, 0o644); err != nil {
			return nil, err
		}
	}
	return accepted, nil
}

// collectValid lists templates with a completed model in enumeration order,
// decompressing model.pdb.gz to model.pdb where needed.
func (r *Reducer) collectValid(targetDir string, templates []project.Template, seqIDCutoff float64) ([]validModel, error) {
	var valid []validModel
	for _, template := range templates {
		arts := NewArtifactSet(targetDir, template.ID)

		if !fileExistsNonEmpty(arts.ModelRaw()) {
			if !fileExistsNonEmpty(arts.Model()) {
				continue
			}
			if err := gunzipFile(arts.ModelRaw(), arts.Model()); err != nil {
				return nil, fmt.Errorf("decompressing %s: %w", arts.Model(), err)
			}
		}

		if seqIDCutoff > 0 {
			seqID, ok, err := readSeqID(arts.SeqID())
			if err != nil {
				return nil, err
			}
			if !ok || seqID < seqIDCutoff {
				continue
			}
		}

		valid = append(valid, validModel{TemplateID: template.ID, RawPath: arts.ModelRaw()})
	}
	return valid, nil
}

func (r *Reducer) removeStaleMarkers(targetDir string) error {
	markers, err := doublestar.FilepathGlob(filepath.Join(targetDir, "*", UniqueMarkerFile))
	if err != nil {
		return err
	}
	for _, marker := range markers {
		if err := os.Remove(marker); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reducer) removeDecompressed(targetDir string, templates []project.Template) {
	for _, template := range templates {
		raw := NewArtifactSet(targetDir, template.ID).ModelRaw()
		if err := os.Remove(raw); err != nil && !os.IsNotExist(err) {
			r.logger.Warn("Could not remove decompressed model", "path", raw, "error", err)
		}
	}
}

func readSeqID(path string) (float64, bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	firstLine := strings.TrimSpace(strings.SplitN(string(data), "\n", 2)[0])
	seqID, err := strconv.ParseFloat(firstLine, 64)
	if err != nil {
		return 0, false, fmt.Errorf("malformed identity score in %s: %w", path, err)
	}
	return seqID, true, nil
}
