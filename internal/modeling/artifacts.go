package modeling

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Canonical artifact names under <modelsDir>/<target>/<template>/.
const (
	ModelFile        = "model.pdb.gz"
	ModelFileRaw     = "model.pdb"
	SeqIDFile        = "sequence-identity.txt"
	AlignmentFile    = "alignment.pir"
	RestraintFile    = "restraints.rsr.gz"
	JobLogFile       = "modeling-log.yaml"
	UniqueMarkerFile = "unique_by_clustering"
)

// Per-target files in the target's model directory.
const (
	SeqIDManifestFile  = "sequence-identities.txt"
	UniqueManifestFile = "unique-models.txt"
	MetadataFile       = "meta.yaml"
)

// ArtifactSet resolves the durable outputs of one job. A job is complete iff
// all required artifacts exist and are non-empty; completeness is always
// re-checked from disk so that the pipeline stays resumable across restarts.
type ArtifactSet struct {
	Dir string
}

func NewArtifactSet(targetDir, templateID string) ArtifactSet {
	return ArtifactSet{Dir: filepath.Join(targetDir, templateID)}
}

func (a ArtifactSet) Model() string        { return filepath.Join(a.Dir, ModelFile) }
func (a ArtifactSet) ModelRaw() string     { return filepath.Join(a.Dir, ModelFileRaw) }
func (a ArtifactSet) SeqID() string        { return filepath.Join(a.Dir, SeqIDFile) }
func (a ArtifactSet) Alignment() string    { return filepath.Join(a.Dir, AlignmentFile) }
func (a ArtifactSet) Restraints() string   { return filepath.Join(a.Dir, RestraintFile) }
func (a ArtifactSet) JobLog() string       { return filepath.Join(a.Dir, JobLogFile) }
func (a ArtifactSet) UniqueMarker() string { return filepath.Join(a.Dir, UniqueMarkerFile) }

// Complete reports whether every required artifact exists and is non-empty.
// When restraint writing is disabled for the run, the restraint artifact is
// not required.
func (a ArtifactSet) Complete(withRestraints bool) bool {
	required := []string{a.Model(), a.SeqID(), a.Alignment()}
	if withRestraints {
		required = append(required, a.Restraints())
	}
	for _, path := range required {
		if !fileExistsNonEmpty(path) {
			return false
		}
	}
	return true
}

func fileExistsNonEmpty(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}

// gzipFile compresses src into dst.
func gzipFile(dst, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	zw := gzip.NewWriter(out)
	if _, err := io.Copy(zw, in); err != nil {
		return err
	}
	return zw.Close()
}

// gunzipFile decompresses src into dst.
func gunzipFile(dst, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	zr, err := gzip.NewReader(in)
	if err != nil {
		return fmt.Errorf("reading %s: %w", src, err)
	}
	defer zr.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, zr); err != nil {
		return err
	}
	return out.Close()
}

// moveFile renames src to dst, copying across filesystems when rename fails.
func moveFile(dst, src string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
