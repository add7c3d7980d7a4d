package modeling

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/structbio/modelpipe/internal/project"
	"github.com/structbio/modelpipe/internal/shared/logging"
)

// Ranker compiles, per target, a manifest of valid templates sorted by
// descending sequence identity. It runs serially on the lead worker after
// the build pass.
type Ranker struct {
	layout project.Layout
	logger logging.Logger
	runID  string
	tools  map[string]string
}

func NewRanker(layout project.Layout, tools map[string]string, logger logging.Logger) *Ranker {
	return &Ranker{
		layout: layout,
		logger: logger,
		runID:  uuid.New().String(),
		tools:  tools,
	}
}

type rankedTemplate struct {
	TemplateID string
	SeqID      float64
}

// Run writes one sequence-identities.txt manifest per target. Targets with
// no model directory are skipped; targets with zero valid models get an
// empty manifest.
func (r *Ranker) Run(targets []project.Target, templates []project.Template) error {
	for _, target := range targets {
		targetDir := r.layout.TargetModelsDir(target.ID)
		if _, err := os.Stat(targetDir); os.IsNotExist(err) {
			continue
		}

		r.logger.Info("Compiling template sequence identities", "target", target.ID)

		ranked, err := r.collectValid(targetDir, templates)
		if err != nil {
			return fmt.Errorf("target %s: %w", target.ID, err)
		}

		// Descending score; the stable sort keeps template enumeration
		// order for ties.
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].SeqID > ranked[j].SeqID
		})

		manifest := renderSeqIDManifest(ranked)
		manifestPath := filepath.Join(targetDir, SeqIDManifestFile)
		if err := os.WriteFile(manifestPath, manifest, 0o644); err != nil {
			return fmt.Errorf("target %s: writing manifest: %w", target.ID, err)
		}

		record := NewStageMetadata(target.ID, r.runID, r.tools)
		store := NewMetadataStore(filepath.Join(targetDir, MetadataFile))
		if err := store.Append(StageSortSeqID, record); err != nil {
			return fmt.Errorf("target %s: %w", target.ID, err)
		}

		r.logger.Info("Wrote sequence-identity manifest",
			"target", target.ID, "valid_models", len(ranked))
	}
	return nil
}

// collectValid keeps templates whose identity-score artifact is present, in
// template enumeration order. A present but unparseable score is an input
// consistency failure and aborts the pass.
func (r *Ranker) collectValid(targetDir string, templates []project.Template) ([]rankedTemplate, error) {
	var ranked []rankedTemplate
	for _, template := range templates {
		arts := NewArtifactSet(targetDir, template.ID)
		data, err := os.ReadFile(arts.SeqID())
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, err
		}

		firstLine := strings.TrimSpace(strings.SplitN(string(data), "\n", 2)[0])
		seqID, err := strconv.ParseFloat(firstLine, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed identity score in %s: %w", arts.SeqID(), err)
		}
		ranked = append(ranked, rankedTemplate{TemplateID: template.ID, SeqID: seqID})
	}
	return ranked, nil
}

func renderSeqIDManifest(ranked []rankedTemplate) []byte {
	var sb strings.Builder
	for _, entry := range ranked {
		fmt.Fprintf(&sb, "%-40s %6.1f\n", entry.TemplateID, entry.SeqID)
	}
	return []byte(sb.String())
}
