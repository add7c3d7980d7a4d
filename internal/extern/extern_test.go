package extern

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/structbio/modelpipe/internal/modeling"
	"github.com/structbio/modelpipe/internal/shared/config"
)

// shTool builds a ToolConfig that runs an inline shell script. The adapter's
// own flags arrive as positional parameters after the script.
func shTool(script string) config.ToolConfig {
	return config.ToolConfig{Command: "sh", Args: []string{"-c", script, "sh"}}
}

var alignParams = config.AlignmentConfig{Scheme: "gonnet", GapOpen: -10, GapExtend: -0.5}

func TestCommandAligner_RoundTrip(t *testing.T) {
	// The stand-in aligner echoes its input unchanged.
	aligner := NewCommandAligner(shTool("cat"), alignParams)

	gappedA, gappedB, err := aligner.Align(context.Background(), "MAQKENS", "MDRSKEN")
	require.NoError(t, err)
	require.Equal(t, "MAQKENS", gappedA)
	require.Equal(t, "MDRSKEN", gappedB)
}

func TestCommandAligner_PassesFixedParameters(t *testing.T) {
	// $2 is the scheme value, $4 gap-open, $6 gap-extend.
	aligner := NewCommandAligner(shTool(`printf '%s\n%s\n' "$2:$4:$6" "$2:$4:$6"`), alignParams)

	paramsA, paramsB, err := aligner.Align(context.Background(), "AAAAAA", "CCCC")
	require.NoError(t, err)
	require.Equal(t, "gonnet:-10:-0.5", paramsA)
	require.Equal(t, paramsA, paramsB)
}

func TestCommandAligner_LengthMismatchRejected(t *testing.T) {
	aligner := NewCommandAligner(shTool("cat"), alignParams)

	_, _, err := aligner.Align(context.Background(), "MAQKENS", "MA")
	require.ErrorContains(t, err, "differ in length")
}

func TestCommandAligner_ToolFailureCapturesStderr(t *testing.T) {
	aligner := NewCommandAligner(shTool("echo 'bad substitution matrix' >&2; exit 3"), alignParams)

	_, _, err := aligner.Align(context.Background(), "MAQK", "MDRS")
	require.ErrorContains(t, err, "bad substitution matrix")
}

func TestCommandEngine_ParsesOutput(t *testing.T) {
	engine := NewCommandEngine(shTool(`printf 'model out.B99990001.pdb\nrestraints target.rsr\nsequence-identity 47.5\n'`))

	workDir := t.TempDir()
	out, err := engine.Build(context.Background(), modeling.BuildRequest{
		AlignmentFile: filepath.Join(workDir, "aligned.pir"),
		StructureDir:  "/proj/templates/structures",
		TargetID:      "T1",
		TemplateID:    "TPL_1",
		WorkDir:       workDir,
	})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(workDir, "out.B99990001.pdb"), out.ModelPath)
	require.Equal(t, filepath.Join(workDir, "target.rsr"), out.RestraintPath)
	require.Equal(t, 47.5, out.SeqIdentity)
}

func TestCommandEngine_IncompleteOutputRejected(t *testing.T) {
	engine := NewCommandEngine(shTool(`printf 'model out.pdb\n'`))

	_, err := engine.Build(context.Background(), modeling.BuildRequest{WorkDir: t.TempDir()})
	require.ErrorContains(t, err, "sequence identity")
}

func TestCommandGeometry_ParsesDistance(t *testing.T) {
	geometry := NewCommandGeometry(shTool("echo 0.042"))

	d, err := geometry.MinDistance(context.Background(),
		[]string{"/models/a/model.pdb", "/models/b/model.pdb"}, "/models/c/model.pdb", "CA")
	require.NoError(t, err)
	require.Equal(t, 0.042, d)
}

func TestCommandGeometry_NoReferences(t *testing.T) {
	geometry := NewCommandGeometry(shTool("echo 0.0"))

	_, err := geometry.MinDistance(context.Background(), nil, "/models/c/model.pdb", "CA")
	require.ErrorContains(t, err, "no reference conformations")
}

func TestCommandGeometry_MalformedDistance(t *testing.T) {
	geometry := NewCommandGeometry(shTool("echo nonsense"))

	_, err := geometry.Distance(context.Background(), "/a.pdb", "/b.pdb", "CA")
	require.ErrorContains(t, err, "malformed distance")
}

func TestToolVersion_UnavailableTool(t *testing.T) {
	tool := config.ToolConfig{Command: "/does/not/exist"}
	require.Equal(t, "unknown", toolVersion(tool))
}
