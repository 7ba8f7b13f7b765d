package netbuild

import (
	"github.com/matzehuels/enrichmap/pkg/colorenc"
	"github.com/matzehuels/enrichmap/pkg/errors"
	"github.com/matzehuels/enrichmap/pkg/merge"
	"github.com/matzehuels/enrichmap/pkg/netgraph"
)

// ConceptOptions configures [BuildConcept].
type ConceptOptions struct {
	// SizeFactor scales log10(gene-hit count) into category node size.
	SizeFactor float64
	// ItemSize is the uniform default size for item nodes; glyph encoding
	// may resize them later.
	ItemSize float64
	// ItemColor is the scalar default color for item nodes.
	ItemColor colorenc.Color
}

// DefaultConceptOptions returns the defaults used by the pipeline.
func DefaultConceptOptions() ConceptOptions {
	return ConceptOptions{
		SizeFactor: 10,
		ItemSize:   3,
		ItemColor:  colorenc.MustHex("#bebebe"),
	}
}

// BuildConcept converts a unified table into the bipartite concept network:
// one category node per merged row, one item node per distinct gene, and an
// edge from each category to every gene in its pooled list.
//
// Node order is load-bearing: all category nodes come first, in unified row
// order, followed by item nodes in first-encounter order. Downstream
// consumers (glyph encoding, serialization) preserve that order.
func BuildConcept(u *merge.Unified, opts ConceptOptions) (*netgraph.Graph, error) {
	if u.Len() == 0 {
		return nil, errors.New(errors.ErrCodeNoEnriched,
			"concept network: unified table has no categories")
	}

	g := netgraph.New(netgraph.Metadata{"network": "concept"})

	for _, name := range u.Categories {
		row, _ := u.Row(name)
		if err := g.AddNode(netgraph.Node{
			Name:  name,
			Label: cleanLabel(name),
			Kind:  netgraph.KindCategory,
			Size:  sizeFromCount(row.Count, opts.SizeFactor),
		}); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "concept category %q", name)
		}
	}

	// Item nodes follow the category block, then membership edges.
	seen := make(map[string]bool)
	for _, name := range u.Categories {
		row, _ := u.Row(name)
		for _, gene := range row.Genes {
			if !seen[gene] {
				seen[gene] = true
				if err := g.AddNode(netgraph.Node{
					Name:  gene,
					Kind:  netgraph.KindItem,
					Size:  opts.ItemSize,
					Color: opts.ItemColor,
				}); err != nil {
					return nil, errors.Wrap(errors.ErrCodeInternal, err, "concept item %q", gene)
				}
			}
			if err := g.AddEdge(netgraph.Edge{From: name, To: gene, Weight: 1}); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, err,
					"concept edge %q-%q", name, gene)
			}
		}
	}

	return g, nil
}
