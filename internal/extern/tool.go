// Package extern provides subprocess adapters for the pipeline's external
// collaborators: the pairwise aligner, the homology-modeling engine, and the
// structural-distance toolkit. Each adapter wraps one configured command
// with a line-oriented stdin/stdout protocol.
package extern

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/structbio/modelpipe/internal/shared/config"
)

// runTool executes one collaborator invocation. stderr is captured and folded
// into the returned error so job logs carry the tool's own diagnostics.
func runTool(ctx context.Context, tool config.ToolConfig, extraArgs []string, stdin string, workDir string) (string, error) {
	args := append(append([]string{}, tool.Args...), extraArgs...)
	cmd := exec.CommandContext(ctx, tool.Command, args...)
	if workDir != "" {
		cmd.Dir = workDir
	}
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("%s: %w: %s", tool.Command, err, msg)
		}
		return "", fmt.Errorf("%s: %w", tool.Command, err)
	}
	return stdout.String(), nil
}

// toolVersion shells out with the tool's version flag. Provenance recording
// must never fail a run, so errors collapse to "unknown".
func toolVersion(tool config.ToolConfig) string {
	flag := tool.VersionFlag
	if flag == "" {
		flag = "--version"
	}
	out, err := exec.Command(tool.Command, flag).Output()
	if err != nil {
		return "unknown"
	}
	line := strings.SplitN(strings.TrimSpace(string(out)), "\n", 2)[0]
	if line == "" {
		return "unknown"
	}
	return line
}
