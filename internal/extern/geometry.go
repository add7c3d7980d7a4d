package extern

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/structbio/modelpipe/internal/shared/config"
)

// CommandGeometry adapts an external structural-distance tool.
//
// Protocol: the candidate conformation and the reference conformations are
// passed as file arguments; the tool prints the minimum distance between the
// candidate and any reference as a single float on stdout.
type CommandGeometry struct {
	tool config.ToolConfig
}

func NewCommandGeometry(tool config.ToolConfig) *CommandGeometry {
	return &CommandGeometry{tool: tool}
}

func (g *CommandGeometry) Distance(ctx context.Context, pathA, pathB, atomName string) (float64, error) {
	return g.MinDistance(ctx, []string{pathA}, pathB, atomName)
}

func (g *CommandGeometry) MinDistance(ctx context.Context, refPaths []string, candidatePath, atomName string) (float64, error) {
	if len(refPaths) == 0 {
		return 0, errors.New("no reference conformations")
	}

	args := []string{"--atoms", atomName, "--candidate", candidatePath}
	args = append(args, refPaths...)

	out, err := runTool(ctx, g.tool, args, "", "")
	if err != nil {
		return 0, err
	}

	value := strings.TrimSpace(out)
	distance, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: malformed distance %q", g.tool.Command, value)
	}
	return distance, nil
}

func (g *CommandGeometry) Version() string {
	return toolVersion(g.tool)
}
