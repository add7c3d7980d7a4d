// Package project defines the on-disk layout of a modeling project and loads
// its target and template definitions.
package project

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	targetsDirName    = "targets"
	templatesDirName  = "templates"
	structuresDirName = "structures"
	modelsDirName     = "models"

	targetsFastaName   = "targets.fa"
	templatesFastaName = "templates.fa"
)

// Layout resolves paths inside a project directory tree.
type Layout struct {
	Root string
}

func NewLayout(root string) Layout {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	return Layout{Root: abs}
}

func (l Layout) TargetsFasta() string {
	return filepath.Join(l.Root, targetsDirName, targetsFastaName)
}

func (l Layout) TemplatesFasta() string {
	return filepath.Join(l.Root, templatesDirName, templatesFastaName)
}

// StructuresDir is the directory searched by the modeling engine for template
// coordinate files, one per template ID.
func (l Layout) StructuresDir() string {
	return filepath.Join(l.Root, templatesDirName, structuresDirName)
}

func (l Layout) ModelsDir() string {
	return filepath.Join(l.Root, modelsDirName)
}

// TargetModelsDir is the per-target directory under which every job of that
// target writes its artifacts.
func (l Layout) TargetModelsDir(targetID string) string {
	return filepath.Join(l.ModelsDir(), targetID)
}

// Target is a biological sequence to be modeled.
type Target struct {
	ID  string
	Seq string
}

// Template is a known structure used as a modeling basis. StructurePath
// points at its coordinate file in the structures store.
type Template struct {
	ID            string
	Seq           string
	StructurePath string
}

// LoadTargets reads the project's target definitions in file order.
func (l Layout) LoadTargets() ([]Target, error) {
	records, err := ReadFasta(l.TargetsFasta())
	if err != nil {
		return nil, fmt.Errorf("loading targets: %w", err)
	}

	targets := make([]Target, 0, len(records))
	for _, rec := range records {
		targets = append(targets, Target{ID: rec.ID, Seq: rec.Seq})
	}
	return targets, nil
}

// LoadTemplates reads the project's template definitions in file order.
// Template order is significant downstream: it fixes job enumeration and
// clustering acceptance order.
func (l Layout) LoadTemplates() ([]Template, error) {
	records, err := ReadFasta(l.TemplatesFasta())
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	templates := make([]Template, 0, len(records))
	for _, rec := range records {
		templates = append(templates, Template{
			ID:            rec.ID,
			Seq:           rec.Seq,
			StructurePath: filepath.Join(l.StructuresDir(), rec.ID+".pdb"),
		})
	}
	return templates, nil
}

// EnsureDir creates dirpath if it does not already exist.
func EnsureDir(dirpath string) error {
	return os.MkdirAll(dirpath, 0o755)
}
