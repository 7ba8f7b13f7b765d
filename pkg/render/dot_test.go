package render

import (
	"strings"
	"testing"

	"github.com/matzehuels/enrichmap/pkg/colorenc"
	"github.com/matzehuels/enrichmap/pkg/netgraph"
)

func testGraph(t *testing.T) *netgraph.Graph {
	t.Helper()
	g := netgraph.New(nil)
	nodes := []netgraph.Node{
		{
			Name: "pie", Kind: netgraph.KindCategory, Size: 20,
			Glyph: &netgraph.Glyph{
				Segments: []netgraph.Segment{
					{Source: "A", Color: colorenc.MustHex("#b2182b")},
					{Source: "B", Color: colorenc.MustHex("#2166ac")},
				},
				Rows: 1, Cols: 2, ByRow: true,
			},
		},
		{
			Name: "grid", Kind: netgraph.KindCategory, Size: 20,
			Glyph: &netgraph.Glyph{
				Segments: []netgraph.Segment{
					{Source: "A", Color: colorenc.MustHex("#b2182b")},
					{Source: "B", Color: colorenc.MustHex("#2166ac")},
				},
				Rows: 2, Cols: 1, ByRow: true,
			},
		},
		{Name: "gene x", Kind: netgraph.KindItem, Size: 3, Color: colorenc.MustHex("#bebebe")},
	}
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			t.Fatalf("AddNode: %v", err)
		}
	}
	if err := g.AddEdge(netgraph.Edge{From: "pie", To: "gene x", Weight: 0.5}); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	return g
}

func TestToDOT(t *testing.T) {
	g := testGraph(t)
	dot := ToDOT(g, Options{EdgeWidthFactor: 4})

	for _, want := range []string{
		`"pie" [`,
		"style=\"wedged\"",
		"style=\"striped\"",
		`fillcolor="#b2182b;0.5000:#2166ac;0.5000"`,
		`"gene x" [`, // names with spaces stay quoted
		"shape=point",
		`"pie" -- "gene x"`,
		"penwidth=2.00",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q\n%s", want, dot)
		}
	}
}

func TestToDOTDeterministic(t *testing.T) {
	g := testGraph(t)
	first := ToDOT(g, Options{})
	for range 10 {
		if got := ToDOT(g, Options{}); got != first {
			t.Fatal("DOT output varies across runs")
		}
	}
}

func TestToDOTNodeOrder(t *testing.T) {
	g := testGraph(t)
	dot := ToDOT(g, Options{})
	if strings.Index(dot, `"pie"`) > strings.Index(dot, `"grid"`) {
		t.Error("nodes not in insertion order")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	svg := []byte(`<?xml version="1.0"?>` + "\n" +
		`<svg width="8.5in" height="11in" viewBox="0.00 0.00 612.00 792.00" xmlns="http://www.w3.org/2000/svg">` +
		`<g></g></svg>`)
	got := string(normalizeViewBox(svg))
	if !strings.Contains(got, `viewBox="0 0 612.00 792.00"`) {
		t.Errorf("viewBox not normalized:\n%s", got)
	}
	if !strings.Contains(got, `width="612" height="792"`) {
		t.Errorf("pixel dimensions missing:\n%s", got)
	}
}

func TestNormalizeViewBoxPassthrough(t *testing.T) {
	svg := []byte("<svg><g/></svg>")
	if got := normalizeViewBox(svg); string(got) != string(svg) {
		t.Error("SVG without viewBox should pass through unchanged")
	}
}
