package netbuild

import (
	"github.com/matzehuels/enrichmap/pkg/colorenc"
	"github.com/matzehuels/enrichmap/pkg/matrix"
	"github.com/matzehuels/enrichmap/pkg/netgraph"
)

// GridShape describes how glyph segments are arranged.
// A 1×N shape renders as pie slices; anything else as grid cells.
type GridShape struct {
	Rows  int
	Cols  int
	ByRow bool
}

// GridPolicy selects which grid dimension collapses when blank segments are
// removed.
type GridPolicy int

const (
	// PolicyShrinkRows recomputes the row count keeping columns fixed.
	// This is the default.
	PolicyShrinkRows GridPolicy = iota
	// PolicyShrinkCols recomputes the column count keeping rows fixed.
	PolicyShrinkCols
)

// EncodeGlyphs attaches a per-source glyph to every graph node that has a
// row in the color matrix. Segment order equals the matrix column order on
// every node, so segment i always means "source i" network-wide. Values for
// the segments come from the incidence matrix when given; nil leaves them
// zero. Nodes without a matrix row keep their scalar color.
//
// Returns the number of nodes that received a glyph. Only node attributes
// are touched; topology is never modified.
func EncodeGlyphs(g *netgraph.Graph, colors *colorenc.Matrix, values *matrix.Incidence, shape GridShape) int {
	cols := colors.Cols()
	shape = normalizeShape(shape, len(cols))

	encoded := 0
	for _, n := range g.Nodes() {
		row, ok := colors.Row(n.Name)
		if !ok {
			continue
		}
		glyph := &netgraph.Glyph{
			Segments: make([]netgraph.Segment, len(cols)),
			Rows:     shape.Rows,
			Cols:     shape.Cols,
			ByRow:    shape.ByRow,
		}
		for j, source := range cols {
			seg := netgraph.Segment{Source: source, Color: row[j]}
			if values != nil {
				if v, ok := values.Value(n.Name, source); ok {
					seg.Value = v
				}
			}
			glyph.Segments[j] = seg
		}
		n.Glyph = glyph
		if n.Size2 == 0 {
			n.Size2 = n.Size
		}
		encoded++
	}
	return encoded
}

// RemoveBlankSegments recomputes every glyph keeping only non-blank
// segments. When segments are dropped, the grid collapses to the smallest
// rectangle that fits per the policy, and the node's secondary size shrinks
// proportionally so the per-cell size stays constant across nodes with
// different segment counts. Nodes whose segments are all blank lose their
// glyph and fall back to the blank scalar color.
func RemoveBlankSegments(g *netgraph.Graph, bt colorenc.BlankThresholds, policy GridPolicy) {
	for _, n := range g.Nodes() {
		if n.Glyph == nil {
			continue
		}
		blank := make([]bool, len(n.Glyph.Segments))
		for i, s := range n.Glyph.Segments {
			blank[i] = bt.IsBlank(s.Color)
		}
		n.Glyph, n.Size2 = resizeGlyph(n.Glyph, blank, policy, n.Size2)
		if n.Glyph == nil {
			n.Color = colorenc.Blank
		}
	}
}

// resizeGlyph is the pure resize step: given a glyph, its blank mask and the
// grid policy, it returns the collapsed glyph and the adjusted secondary
// size. Computing it in one shot keeps blank removal order-independent
// across nodes.
func resizeGlyph(glyph *netgraph.Glyph, blank []bool, policy GridPolicy, size2 float64) (*netgraph.Glyph, float64) {
	kept := make([]netgraph.Segment, 0, len(glyph.Segments))
	for i, s := range glyph.Segments {
		if !blank[i] {
			kept = append(kept, s)
		}
	}

	if len(kept) == len(glyph.Segments) {
		return glyph, size2
	}
	if len(kept) == 0 {
		return nil, size2
	}

	rows, cols := collapseGrid(len(kept), glyph.Rows, glyph.Cols, policy)
	if glyph.Rows > 0 && rows < glyph.Rows {
		size2 = size2 * float64(rows) / float64(glyph.Rows)
	}

	return &netgraph.Glyph{
		Segments: kept,
		Rows:     rows,
		Cols:     cols,
		ByRow:    glyph.ByRow,
	}, size2
}

// collapseGrid returns the smallest grid fitting n segments under the
// policy: shrink rows keeping columns, or shrink columns keeping rows.
func collapseGrid(n, rows, cols int, policy GridPolicy) (int, int) {
	if policy == PolicyShrinkCols {
		if rows < 1 {
			rows = 1
		}
		return rows, ceilDiv(n, rows)
	}
	if cols < 1 {
		cols = 1
	}
	return ceilDiv(n, cols), cols
}

// normalizeShape fills in missing grid dimensions for n segments.
// The zero shape becomes a single pie-style row.
func normalizeShape(shape GridShape, n int) GridShape {
	if shape.Rows < 1 && shape.Cols < 1 {
		return GridShape{Rows: 1, Cols: n, ByRow: true}
	}
	if shape.Cols < 1 {
		shape.Cols = ceilDiv(n, shape.Rows)
	}
	if shape.Rows < 1 {
		shape.Rows = ceilDiv(n, shape.Cols)
	}
	if shape.Rows*shape.Cols < n {
		shape.Rows = ceilDiv(n, shape.Cols)
	}
	return shape
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
