package netgraph

import "strings"

// FilterOptions configures [Filter].
// Categories and Items are independent selections; a nil slice disables
// that selection entirely, an empty non-nil slice selects nothing.
type FilterOptions struct {
	// Categories selects category nodes whose name or label matches one of
	// these entries (case-insensitive), plus all their neighbors.
	Categories []string

	// Items selects item nodes matching these entries (case-insensitive)
	// while keeping every category node.
	Items []string

	// MinDegree drops nodes of a kind whose degree falls below the
	// configured threshold. Degree is recomputed on the already-filtered
	// graph, not against a snapshot of the input.
	MinDegree map[Kind]int

	// RemoveSinglets drops degree-0 nodes as the last step.
	RemoveSinglets bool
}

// Filter returns a new graph restricted per the options. The input graph is
// never modified. Filter steps run in a fixed order - category selection,
// item selection, min-degree, singlet removal - and each step sees the
// degrees produced by the previous one.
func Filter(g *Graph, opts FilterOptions) *Graph {
	out := g

	if opts.Categories != nil {
		out = filterByCategories(out, opts.Categories)
	}
	if opts.Items != nil {
		out = filterByItems(out, opts.Items)
	}
	if len(opts.MinDegree) > 0 {
		out = filterByDegree(out, opts.MinDegree)
	}
	if opts.RemoveSinglets {
		out = removeSinglets(out)
	}

	if out == g {
		// No filter applied; still hand back a copy so callers can assume
		// ownership of the result.
		out = g.Clone()
	}
	return out
}

// filterByCategories keeps the category nodes matching the name list plus
// all of their neighbors, as an induced subgraph.
func filterByCategories(g *Graph, names []string) *Graph {
	wanted := lowerSet(names)
	keep := make(map[string]bool)
	for _, n := range g.Nodes() {
		if n.Kind != KindCategory {
			continue
		}
		if wanted[strings.ToLower(n.Name)] || wanted[strings.ToLower(n.Label)] {
			keep[n.Name] = true
			for _, nb := range g.Neighbors(n.Name) {
				keep[nb] = true
			}
		}
	}
	return g.Induced(keep)
}

// filterByItems keeps the matching item nodes and every category node, as
// an induced subgraph.
func filterByItems(g *Graph, names []string) *Graph {
	wanted := lowerSet(names)
	keep := make(map[string]bool)
	for _, n := range g.Nodes() {
		switch n.Kind {
		case KindCategory:
			keep[n.Name] = true
		case KindItem:
			if wanted[strings.ToLower(n.Name)] || wanted[strings.ToLower(n.Label)] {
				keep[n.Name] = true
			}
		}
	}
	return g.Induced(keep)
}

// filterByDegree drops nodes of each kind below that kind's minimum degree.
// Degrees come from the current graph, after any earlier filter steps.
func filterByDegree(g *Graph, min map[Kind]int) *Graph {
	keep := make(map[string]bool)
	for _, n := range g.Nodes() {
		threshold, bounded := min[n.Kind]
		if !bounded || g.Degree(n.Name) >= threshold {
			keep[n.Name] = true
		}
	}
	return g.Induced(keep)
}

// removeSinglets drops degree-0 nodes, with degree recomputed after the
// preceding filter steps.
func removeSinglets(g *Graph) *Graph {
	keep := make(map[string]bool)
	for _, n := range g.Nodes() {
		if g.Degree(n.Name) > 0 {
			keep[n.Name] = true
		}
	}
	return g.Induced(keep)
}

func lowerSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[strings.ToLower(n)] = true
	}
	return set
}
