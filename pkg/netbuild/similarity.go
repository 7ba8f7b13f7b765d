// Package netbuild projects a unified enrichment table into its two network
// representations and attaches per-source glyphs to their nodes.
//
// The similarity network connects categories by shared-item Jaccard
// overlap; the concept network is the bipartite category↔item graph. Both
// preserve category order from the unified table so glyph segment order
// stays aligned network-wide.
package netbuild

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/enrichmap/pkg/colorenc"
	"github.com/matzehuels/enrichmap/pkg/errors"
	"github.com/matzehuels/enrichmap/pkg/merge"
	"github.com/matzehuels/enrichmap/pkg/netgraph"
)

// SimilarityOptions configures [BuildSimilarity].
type SimilarityOptions struct {
	// TopN selects the most significant categories; 0 keeps all.
	TopN int
	// OverlapThreshold drops edges with a Jaccard overlap below it.
	OverlapThreshold float64
	// SizeFactor scales log10(gene-hit count) into node size.
	SizeFactor float64
	// BaseColor anchors the significance color ramp.
	BaseColor colorenc.Color
	// Ramp shapes the significance ramp applied to -log10(p).
	Ramp colorenc.Params
}

// DefaultSimilarityOptions returns the defaults used by the pipeline.
func DefaultSimilarityOptions() SimilarityOptions {
	return SimilarityOptions{
		TopN:             30,
		OverlapThreshold: 0.2,
		SizeFactor:       10,
		BaseColor:        colorenc.MustHex("#b2182b"),
		Ramp:             colorenc.DefaultParams(),
	}
}

// BuildSimilarity converts a unified table into the category-similarity
// network. Similarity between two categories is 1 minus the binary Jaccard
// distance of their item-membership rows, i.e. intersection over union.
//
// A single surviving category yields one isolated node with no similarity
// computation. Zero surviving categories is a DATA_NO_ENRICHED_CATEGORIES
// error.
func BuildSimilarity(u *merge.Unified, opts SimilarityOptions) (*netgraph.Graph, error) {
	names := u.TopBySignificance(opts.TopN)
	if len(names) == 0 {
		return nil, errors.New(errors.ErrCodeNoEnriched,
			"similarity network: no enriched categories after selection")
	}

	g := netgraph.New(netgraph.Metadata{"network": "similarity"})
	for _, name := range names {
		row, _ := u.Row(name)
		score := colorenc.TransformNegLog10.Apply(row.PValue)
		if err := g.AddNode(netgraph.Node{
			Name:  name,
			Label: cleanLabel(name),
			Kind:  netgraph.KindCategory,
			Size:  sizeFromCount(row.Count, opts.SizeFactor),
			Color: colorenc.Ramp(score, opts.BaseColor, opts.Ramp),
		}); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "similarity node %q", name)
		}
	}

	if len(names) == 1 {
		return g, nil
	}

	membership, _ := membershipMatrix(u, names)

	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			sim := jaccard(membership.RawRowView(i), membership.RawRowView(j))
			if sim <= 0 || sim < opts.OverlapThreshold {
				continue
			}
			if err := g.AddEdge(netgraph.Edge{
				From:    names[i],
				To:      names[j],
				Weight:  sim,
				Overlap: sim,
			}); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, err,
					"similarity edge %q-%q", names[i], names[j])
			}
		}
	}

	return g, nil
}

// membershipMatrix builds the 0/1 categories×items matrix over the union of
// the selected categories' gene lists. Item order is first-encounter order.
func membershipMatrix(u *merge.Unified, names []string) (*mat.Dense, []string) {
	itemIdx := make(map[string]int)
	var items []string
	for _, name := range names {
		row, _ := u.Row(name)
		for _, gene := range row.Genes {
			if _, seen := itemIdx[gene]; !seen {
				itemIdx[gene] = len(items)
				items = append(items, gene)
			}
		}
	}

	m := mat.NewDense(len(names), max(len(items), 1), nil)
	for i, name := range names {
		row, _ := u.Row(name)
		for _, gene := range row.Genes {
			m.Set(i, itemIdx[gene], 1)
		}
	}
	return m, items
}

// jaccard computes intersection-over-union for two 0/1 rows.
// Returns 0 when the union is empty.
func jaccard(a, b []float64) float64 {
	var inter, union float64
	for k := range a {
		av, bv := a[k] != 0, b[k] != 0
		if av && bv {
			inter++
		}
		if av || bv {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return inter / union
}

// sizeFromCount maps a gene-hit count onto node size: log10(count) scaled
// by factor, floored at zero for degenerate counts.
func sizeFromCount(count int, factor float64) float64 {
	if count < 1 {
		return 0
	}
	return math.Log10(float64(count)) * factor
}

// cleanLabel normalizes a category name for display.
func cleanLabel(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
