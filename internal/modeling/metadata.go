package modeling

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Version is the pipeline release string recorded in metadata as provenance.
const Version = "0.4.0"

// Pipeline stage names, one top-level key each in meta.yaml.
const (
	StageBuildModels   = "build_models"
	StageSortSeqID     = "sort_by_sequence_identity"
	StageClusterModels = "cluster_models"
)

// StageMetadata is one stage's record in a target's meta.yaml.
type StageMetadata struct {
	TargetID         string            `yaml:"target_id"`
	Datestamp        string            `yaml:"datestamp"`
	RunID            string            `yaml:"run_id,omitempty"`
	Timing           string            `yaml:"timing,omitempty"`
	SuccessfulModels *int              `yaml:"nsuccessful_models,omitempty"`
	UniqueModels     *int              `yaml:"nunique_models,omitempty"`
	Cutoff           *float64          `yaml:"cutoff,omitempty"`
	GoVersion        string            `yaml:"go_version"`
	PipelineVersion  string            `yaml:"modelpipe_version"`
	Tools            map[string]string `yaml:"tools,omitempty"`
}

// NewStageMetadata fills in the provenance fields common to every stage.
func NewStageMetadata(targetID, runID string, tools map[string]string) StageMetadata {
	return StageMetadata{
		TargetID:        targetID,
		Datestamp:       utcNowFormatted(),
		RunID:           runID,
		GoVersion:       runtime.Version(),
		PipelineVersion: Version,
		Tools:           tools,
	}
}

// MetadataStore reads and appends a target's stage-keyed metadata file.
// Appending one stage never loses another stage's prior record: the file is
// loaded, the single stage key is replaced, and the whole document is
// rewritten atomically.
type MetadataStore struct {
	path string
}

func NewMetadataStore(path string) *MetadataStore {
	return &MetadataStore{path: path}
}

// Append records the given stage, preserving every other stage already in
// the file.
func (s *MetadataStore) Append(stage string, record StageMetadata) error {
	doc := map[string]any{}
	if data, err := os.ReadFile(s.path); err == nil {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing %s: %w", s.path, err)
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	// Round-trip the typed record through the YAML representation so the
	// document stays a plain mapping.
	encoded, err := yaml.Marshal(&record)
	if err != nil {
		return err
	}
	var node map[string]any
	if err := yaml.Unmarshal(encoded, &node); err != nil {
		return err
	}
	doc[stage] = node

	out, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Read returns the raw stage mapping, mainly for tests and diagnostics.
func (s *MetadataStore) Read() (map[string]any, error) {
	doc := map[string]any{}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func utcNowFormatted() string {
	return time.Now().UTC().Format("2006-01-02 15:04:05 UTC")
}

// formatTiming renders an elapsed duration as H:MM:SS, matching the timing
// strings persisted in job logs and metadata.
func formatTiming(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	sec := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
}

func intPtr(v int) *int             { return &v }
func float64Ptr(v float64) *float64 { return &v }
