package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestReadFasta(t *testing.T) {
	path := writeTempFile(t, "targets.fa", `>AURKB_HUMAN_D0 some description
MAQKENS
YPWPYG

>AURKA_HUMAN_D0
MDRSKENC
RVLV
`)

	records, err := ReadFasta(path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	require.Equal(t, "AURKB_HUMAN_D0", records[0].ID)
	require.Equal(t, "MAQKENSYPWPYG", records[0].Seq)
	require.Equal(t, "AURKA_HUMAN_D0", records[1].ID)
	require.Equal(t, "MDRSKENCRVLV", records[1].Seq)
}

func TestReadFasta_SequenceBeforeHeader(t *testing.T) {
	path := writeTempFile(t, "bad.fa", "MAQKENS\n>LATE\nGG\n")

	_, err := ReadFasta(path)
	require.Error(t, err)
}

func TestReadFasta_EmptyHeader(t *testing.T) {
	path := writeTempFile(t, "bad.fa", ">\nMAQKENS\n")

	_, err := ReadFasta(path)
	require.Error(t, err)
}

func TestReadIDFile(t *testing.T) {
	path := writeTempFile(t, "targets.txt", `# kinase targets
AURKB_HUMAN_D0

AURKA_HUMAN_D0
# commented out:
# SRC_HUMAN_D0
`)

	ids, err := ReadIDFile(path)
	require.NoError(t, err)
	require.Equal(t, []string{"AURKB_HUMAN_D0", "AURKA_HUMAN_D0"}, ids)
}

func TestLayoutPaths(t *testing.T) {
	l := NewLayout("/proj")

	require.Equal(t, "/proj/targets/targets.fa", l.TargetsFasta())
	require.Equal(t, "/proj/templates/templates.fa", l.TemplatesFasta())
	require.Equal(t, "/proj/templates/structures", l.StructuresDir())
	require.Equal(t, "/proj/models/AURKB_HUMAN_D0", l.TargetModelsDir("AURKB_HUMAN_D0"))
}

func TestLoadTemplates_StructurePaths(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, EnsureDir(filepath.Join(root, "templates")))
	fasta := ">KIN_1ABC_A\nMAQK\n>KIN_2XYZ_B\nMAQR\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "templates", "templates.fa"), []byte(fasta), 0o644))

	l := NewLayout(root)
	templates, err := l.LoadTemplates()
	require.NoError(t, err)
	require.Len(t, templates, 2)
	require.Equal(t, filepath.Join(l.StructuresDir(), "KIN_1ABC_A.pdb"), templates[0].StructurePath)
}
