// Package render converts enrichment networks to Graphviz DOT and renders
// them to SVG in-process.
//
// Multi-source glyphs map onto Graphviz fill styles: pie-style glyphs (one
// row) become wedged circles, grid glyphs become striped boxes. Scalar
// colors fill plainly.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/enrichmap/pkg/netgraph"
)

// Options configures DOT generation.
type Options struct {
	// Engine is emitted as the graph's layout attribute; empty uses
	// Graphviz's default.
	Engine string
	// EdgeWidthFactor scales edge weight into pen width; 0 disables
	// weight-proportional widths.
	EdgeWidthFactor float64
	// FontSize is the node label font size in points. 0 uses 10.
	FontSize float64
}

// ToDOT converts a network to undirected Graphviz DOT. Nodes appear in
// insertion order and edges in insertion order, so output is deterministic.
func ToDOT(g *netgraph.Graph, opts Options) string {
	fontSize := opts.FontSize
	if fontSize == 0 {
		fontSize = 10
	}

	var buf bytes.Buffer
	buf.WriteString("graph enrichmap {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  outputorder=edgesfirst;\n")
	if opts.Engine != "" {
		fmt.Fprintf(&buf, "  layout=%s;\n", opts.Engine)
	}
	fmt.Fprintf(&buf, "  node [fontsize=%g, margin=0];\n", fontSize)
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.Name, strings.Join(nodeAttrs(n), ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		attrs := []string{"color=\"#99999980\""}
		if opts.EdgeWidthFactor > 0 {
			attrs = append(attrs, fmt.Sprintf("penwidth=%.2f", e.Weight*opts.EdgeWidthFactor))
		}
		fmt.Fprintf(&buf, "  %q -- %q [%s];\n", e.From, e.To, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n *netgraph.Node) []string {
	attrs := []string{fmt.Sprintf("label=%q", n.DisplayLabel())}

	// DOT sizes are in inches; node sizes are in points.
	if n.Size > 0 {
		w := n.Size / 72
		attrs = append(attrs, fmt.Sprintf("width=%.4f", w), fmt.Sprintf("height=%.4f", w), "fixedsize=true")
	}

	switch {
	case n.Glyph != nil && n.Glyph.Rows <= 1:
		attrs = append(attrs,
			"shape=circle",
			"style=\"wedged\"",
			fmt.Sprintf("fillcolor=%q", colorList(n.Glyph)))
	case n.Glyph != nil:
		attrs = append(attrs,
			"shape=box",
			"style=\"striped\"",
			fmt.Sprintf("fillcolor=%q", colorList(n.Glyph)))
	default:
		shape := "circle"
		if n.Kind == netgraph.KindItem {
			shape = "point"
		}
		attrs = append(attrs,
			fmt.Sprintf("shape=%s", shape),
			"style=\"filled\"",
			fmt.Sprintf("fillcolor=%q", n.Color.Hex()))
	}
	return attrs
}

// colorList renders glyph segments as a Graphviz weighted color list with
// equal shares, preserving segment order.
func colorList(gl *netgraph.Glyph) string {
	share := 1.0 / float64(len(gl.Segments))
	parts := make([]string, len(gl.Segments))
	for i, s := range gl.Segments {
		parts[i] = fmt.Sprintf("%s;%.4f", s.Color.Hex(), share)
	}
	return strings.Join(parts, ":")
}
