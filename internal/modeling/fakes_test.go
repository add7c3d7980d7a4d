package modeling

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
)

// fakeAligner returns the two sequences unchanged, padded to equal length
// with gap characters, and counts invocations.
type fakeAligner struct {
	calls atomic.Int32
	err   error
}

func (a *fakeAligner) Align(ctx context.Context, seqA, seqB string) (string, string, error) {
	a.calls.Add(1)
	if a.err != nil {
		return "", "", a.err
	}
	for len(seqA) < len(seqB) {
		seqA += "-"
	}
	for len(seqB) < len(seqA) {
		seqB += "-"
	}
	return seqA, seqB, nil
}

func (a *fakeAligner) Version() string { return "fake-aligner 1.0" }

// fakeEngine writes a model and restraint file into the scratch dir. Failure
// modes are keyed by template ID.
type fakeEngine struct {
	calls      atomic.Int32
	seqID      float64
	failFor    map[string]error
	emptyFor   map[string]bool
	panicFor   map[string]bool
	modelBytes string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{seqID: 47.5, modelBytes: "ATOM      1  CA  ALA A   1       0.000   0.000   0.000\nEND\n"}
}

func (e *fakeEngine) Build(ctx context.Context, req BuildRequest) (BuildOutput, error) {
	e.calls.Add(1)
	if e.panicFor[req.TemplateID] {
		panic("engine blew up on " + req.TemplateID)
	}
	if err := e.failFor[req.TemplateID]; err != nil {
		return BuildOutput{}, err
	}

	modelPath := filepath.Join(req.WorkDir, req.TargetID+".B99990001.pdb")
	contents := e.modelBytes
	if e.emptyFor[req.TemplateID] {
		contents = ""
	}
	if err := os.WriteFile(modelPath, []byte(contents), 0o644); err != nil {
		return BuildOutput{}, err
	}

	restraintPath := filepath.Join(req.WorkDir, req.TargetID+".rsr")
	if err := os.WriteFile(restraintPath, []byte("restraint data\n"), 0o644); err != nil {
		return BuildOutput{}, err
	}

	return BuildOutput{ModelPath: modelPath, RestraintPath: restraintPath, SeqIdentity: e.seqID}, nil
}

func (e *fakeEngine) Version() string { return "fake-engine 9.11" }

// fakeGeometry serves distances from a symmetric lookup table keyed by the
// template IDs embedded in conformation paths.
type fakeGeometry struct {
	mu        sync.Mutex
	distances map[string]float64
	calls     int
}

func newFakeGeometry() *fakeGeometry {
	return &fakeGeometry{distances: make(map[string]float64)}
}

func (g *fakeGeometry) set(idA, idB string, d float64) {
	g.distances[pairKey(idA, idB)] = d
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

func templateIDFromPath(path string) string {
	return filepath.Base(filepath.Dir(path))
}

func (g *fakeGeometry) Distance(ctx context.Context, pathA, pathB, atomName string) (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	d, ok := g.distances[pairKey(templateIDFromPath(pathA), templateIDFromPath(pathB))]
	if !ok {
		return 0, fmt.Errorf("no distance for %s vs %s", pathA, pathB)
	}
	return d, nil
}

func (g *fakeGeometry) MinDistance(ctx context.Context, refPaths []string, candidatePath, atomName string) (float64, error) {
	if len(refPaths) == 0 {
		return 0, errors.New("no reference conformations")
	}
	minimum := 0.0
	for i, ref := range refPaths {
		d, err := g.Distance(ctx, ref, candidatePath, atomName)
		if err != nil {
			return 0, err
		}
		if i == 0 || d < minimum {
			minimum = d
		}
	}
	return minimum, nil
}

func (g *fakeGeometry) Version() string { return "fake-geometry 1.9" }
