package modeling

import "github.com/structbio/modelpipe/internal/project"

// Grid enumerates the cross-product of targets and templates and answers
// which template indices belong to a given worker rank. Optional ID filters
// restrict the grid; IDs that match nothing are silently excluded.
type Grid struct {
	targets   []project.Target
	templates []project.Template
}

func NewGrid(targets []project.Target, templates []project.Template, targetIDs, templateIDs []string) *Grid {
	return &Grid{
		targets:   filterByID(targets, targetIDs, func(t project.Target) string { return t.ID }),
		templates: filterByID(templates, templateIDs, func(t project.Template) string { return t.ID }),
	}
}

func (g *Grid) Targets() []project.Target {
	return g.targets
}

func (g *Grid) Templates() []project.Template {
	return g.templates
}

// Assigned returns the template indices owned by the given rank under a
// static round-robin partition: {i : i ≡ rank (mod size)}. Job cost is
// roughly uniform, so modulo assignment balances acceptably with zero
// coordination overhead.
func (g *Grid) Assigned(rank, size int) []int {
	var indices []int
	for i := rank; i < len(g.templates); i += size {
		indices = append(indices, i)
	}
	return indices
}

func filterByID[T any](items []T, ids []string, id func(T) string) []T {
	if ids == nil {
		return items
	}
	wanted := make(map[string]bool, len(ids))
	for _, v := range ids {
		wanted[v] = true
	}
	var kept []T
	for _, item := range items {
		if wanted[id(item)] {
			kept = append(kept, item)
		}
	}
	return kept
}
