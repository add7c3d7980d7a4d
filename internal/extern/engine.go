package extern

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/structbio/modelpipe/internal/modeling"
	"github.com/structbio/modelpipe/internal/shared/config"
)

// CommandEngine adapts an external homology-modeling engine. The engine is
// run inside the job's private scratch directory so any intermediates it
// drops are swept up with the scratch dir.
//
// Protocol: the engine reads the PIR alignment file and the structure store,
// builds one model, and reports its outputs on stdout as "key value" lines:
//
//	model model.B99990001.pdb
//	restraints target.rsr
//	sequence-identity 47.5
//
// Relative paths are resolved against the scratch directory.
type CommandEngine struct {
	tool config.ToolConfig
}

func NewCommandEngine(tool config.ToolConfig) *CommandEngine {
	return &CommandEngine{tool: tool}
}

func (e *CommandEngine) Build(ctx context.Context, req modeling.BuildRequest) (modeling.BuildOutput, error) {
	args := []string{
		"--alignment", req.AlignmentFile,
		"--structures", req.StructureDir,
		"--target", req.TargetID,
		"--template", req.TemplateID,
	}

	out, err := runTool(ctx, e.tool, args, "", req.WorkDir)
	if err != nil {
		return modeling.BuildOutput{}, err
	}

	var result modeling.BuildOutput
	var haveModel, haveSeqID bool
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		switch fields[0] {
		case "model":
			result.ModelPath = resolvePath(req.WorkDir, fields[1])
			haveModel = true
		case "restraints":
			result.RestraintPath = resolvePath(req.WorkDir, fields[1])
		case "sequence-identity":
			seqID, parseErr := strconv.ParseFloat(fields[1], 64)
			if parseErr != nil {
				return modeling.BuildOutput{}, fmt.Errorf("%s: malformed sequence-identity %q", e.tool.Command, fields[1])
			}
			result.SeqIdentity = seqID
			haveSeqID = true
		}
	}

	if !haveModel || !haveSeqID {
		return modeling.BuildOutput{}, fmt.Errorf("%s: output did not report a model and sequence identity", e.tool.Command)
	}
	return result, nil
}

func (e *CommandEngine) Version() string {
	return toolVersion(e.tool)
}

func resolvePath(workDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(workDir, path)
}
