package layout

import (
	"math"
	"testing"

	"github.com/matzehuels/enrichmap/pkg/netgraph"
)

func twoNodeGraph(t *testing.T) *netgraph.Graph {
	t.Helper()
	g := netgraph.New(nil)
	for _, n := range []netgraph.Node{
		{Name: "a", Kind: netgraph.KindCategory, Size: 10, Size2: 10, LabelDist: 2},
		{Name: "b", Kind: netgraph.KindItem, Size: 4, Size2: 4, LabelDist: 1},
	} {
		if err := g.AddNode(n); err != nil {
			t.Fatalf("AddNode: %v", err)
		}
	}
	if err := g.AddEdge(netgraph.Edge{From: "a", To: "b", Weight: 2}); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	return g
}

func TestScaleEnclosingRangeUnchanged(t *testing.T) {
	g := twoNodeGraph(t)
	l := &Layout{Nodes: []string{"a", "b"}, Pos: []Point{{X: 1, Y: 1}, {X: 3, Y: 2}}}

	opts := Options{
		XRange: [2]float64{0, 10},
		YRange: [2]float64{0, 10},
		Expand: 0.5,
	}
	_, final := Scale(g, l, opts)

	if final.X != opts.XRange || final.Y != opts.YRange {
		t.Errorf("ranges = %+v, want request unchanged (bbox enclosed)", final)
	}
}

func TestScaleSnapsAndExpands(t *testing.T) {
	g := twoNodeGraph(t)
	l := &Layout{Nodes: []string{"a", "b"}, Pos: []Point{{X: 10, Y: 0}, {X: 30, Y: 40}}}

	// Requested range does not enclose the bbox: snap and expand by
	// exactly 0.1 of the span per side.
	opts := Options{
		XRange: [2]float64{0, 1},
		YRange: [2]float64{0, 1},
		Expand: 0.1,
	}
	_, final := Scale(g, l, opts)

	wantX := [2]float64{10 - 2, 30 + 2}
	wantY := [2]float64{0 - 4, 40 + 4}
	if final.X != wantX {
		t.Errorf("X = %v, want %v", final.X, wantX)
	}
	if final.Y != wantY {
		t.Errorf("Y = %v, want %v", final.Y, wantY)
	}
}

func TestScalePositionsRemapped(t *testing.T) {
	g := twoNodeGraph(t)
	l := &Layout{Nodes: []string{"a", "b"}, Pos: []Point{{X: 0, Y: 0}, {X: 10, Y: 10}}}

	out, final := Scale(g, l, Options{
		XRange: [2]float64{0, 100},
		YRange: [2]float64{0, 100},
	})

	if final.X != [2]float64{0, 100} {
		t.Fatalf("X = %v, want [0 100]", final.X)
	}
	if out.Pos[0] != (Point{X: 0, Y: 0}) || out.Pos[1] != (Point{X: 100, Y: 100}) {
		t.Errorf("positions = %v, want corners of target range", out.Pos)
	}
	if l.Pos[1].X != 10 {
		t.Error("input layout mutated")
	}
}

func TestScaleSizeProportional(t *testing.T) {
	g := twoNodeGraph(t)
	l := &Layout{Nodes: []string{"a", "b"}, Pos: []Point{{X: 0, Y: 0}, {X: 10, Y: 10}}}

	// Span grows 10x on both axes, so all size attributes grow 10x.
	Scale(g, l, Options{XRange: [2]float64{0, 100}, YRange: [2]float64{0, 100}})

	a, _ := g.Node("a")
	if math.Abs(a.Size-100) > 1e-9 || math.Abs(a.Size2-100) > 1e-9 || math.Abs(a.LabelDist-20) > 1e-9 {
		t.Errorf("a scaled = (%v, %v, %v), want (100, 100, 20)", a.Size, a.Size2, a.LabelDist)
	}
}

func TestScaleGroupRules(t *testing.T) {
	g := twoNodeGraph(t)
	l := &Layout{Nodes: []string{"a", "b"}, Pos: []Point{{X: 0, Y: 0}, {X: 1, Y: 1}}}

	_, _ = Scale(g, l, Options{
		XRange: [2]float64{0, 1},
		YRange: [2]float64{0, 1},
		Rules: []Rule{
			// Cumulative: both rules hit category nodes.
			{Attr: AttrSize, Effect: Scalar(2), Where: Match{Key: "kind", Value: "category"}},
			{Attr: AttrSize, Effect: Scalar(3), Where: Match{Key: "kind", Value: "category"}},
			{Attr: AttrLabelDist, Effect: Replace(9), Where: Match{Key: "kind", Value: "item"}},
			{Attr: AttrEdgeWeight, Effect: Func(func(v float64) float64 { return v / 2 })},
		},
	})

	a, _ := g.Node("a")
	if a.Size != 60 {
		t.Errorf("a.Size = %v, want 60 (10 * 2 * 3)", a.Size)
	}
	b, _ := g.Node("b")
	if b.Size != 4 {
		t.Errorf("b.Size = %v, want 4 (item unmatched by size rules)", b.Size)
	}
	if b.LabelDist != 9 {
		t.Errorf("b.LabelDist = %v, want replaced 9", b.LabelDist)
	}
	if w := g.Edges()[0].Weight; w != 1 {
		t.Errorf("edge weight = %v, want 1", w)
	}
}

func TestScaleRuleMetaMatch(t *testing.T) {
	g := netgraph.New(nil)
	for _, n := range []netgraph.Node{
		{Name: "a", Size: 10, Meta: netgraph.Metadata{"cluster": "hot"}},
		{Name: "b", Size: 10, Meta: netgraph.Metadata{"cluster": "cold"}},
		{Name: "c", Size: 10}, // no metadata at all
	} {
		if err := g.AddNode(n); err != nil {
			t.Fatalf("AddNode: %v", err)
		}
	}
	l := &Layout{Nodes: []string{"a", "b", "c"}, Pos: []Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}}

	_, _ = Scale(g, l, Options{
		XRange: [2]float64{0, 1},
		YRange: [2]float64{0, 1},
		Rules: []Rule{
			{Attr: AttrSize, Effect: Scalar(3), Where: Match{Key: "cluster", Value: "hot"}},
		},
	})

	a, _ := g.Node("a")
	if a.Size != 30 {
		t.Errorf("a.Size = %v, want 30 (metadata match)", a.Size)
	}
	b, _ := g.Node("b")
	if b.Size != 10 {
		t.Errorf("b.Size = %v, want 10 (metadata mismatch untouched)", b.Size)
	}
	c, _ := g.Node("c")
	if c.Size != 10 {
		t.Errorf("c.Size = %v, want 10 (missing metadata untouched)", c.Size)
	}
}

func TestScaleEdgeRuleMatch(t *testing.T) {
	g := netgraph.New(nil)
	for _, n := range []netgraph.Node{
		{Name: "a", Kind: netgraph.KindCategory},
		{Name: "b", Kind: netgraph.KindCategory},
		{Name: "x", Kind: netgraph.KindItem},
	} {
		if err := g.AddNode(n); err != nil {
			t.Fatalf("AddNode: %v", err)
		}
	}
	for _, e := range []netgraph.Edge{
		{From: "a", To: "b", Weight: 2},
		{From: "a", To: "x", Weight: 2},
	} {
		if err := g.AddEdge(e); err != nil {
			t.Fatalf("AddEdge: %v", err)
		}
	}
	l := &Layout{Nodes: []string{"a", "b", "x"}, Pos: []Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}}

	_, _ = Scale(g, l, Options{
		XRange: [2]float64{0, 1},
		YRange: [2]float64{0, 1},
		Rules: []Rule{
			// Only edges between two category nodes are scaled.
			{Attr: AttrEdgeWeight, Effect: Scalar(5), Where: Match{Key: "kind", Value: "category"}},
			// Endpoint-name keys select a single edge.
			{Attr: AttrEdgeWeight, Effect: Scalar(10), Where: Match{Key: "to", Value: "x"}},
		},
	})

	edges := g.Edges()
	if edges[0].Weight != 10 {
		t.Errorf("category-category weight = %v, want 10 (2 * 5)", edges[0].Weight)
	}
	if edges[1].Weight != 20 {
		t.Errorf("category-item weight = %v, want 20 (2 * 10, category rule skipped)", edges[1].Weight)
	}
}

func TestParsePlain(t *testing.T) {
	out := []byte("graph 1 4 4\nnode n0 1 2 0.5 0.5 a solid circle black white\nnode n1 3 4 0.5 0.5 b solid circle black white\nedge n0 n1 2 1 2 3 4 solid black\nstop\n")
	l, err := parsePlain(out, []string{"a", "b"})
	if err != nil {
		t.Fatalf("parsePlain: %v", err)
	}
	if l.Pos[0] != (Point{X: 1, Y: 2}) || l.Pos[1] != (Point{X: 3, Y: 4}) {
		t.Errorf("positions = %v", l.Pos)
	}
}

func TestParsePlainMissingNode(t *testing.T) {
	out := []byte("node n0 1 2 0.5 0.5\nstop\n")
	if _, err := parsePlain(out, []string{"a", "b"}); err == nil {
		t.Fatal("want error for node without position")
	}
}

func TestBounds(t *testing.T) {
	l := &Layout{
		Nodes: []string{"a", "b", "c"},
		Pos:   []Point{{X: -1, Y: 5}, {X: 3, Y: -2}, {X: 0, Y: 0}},
	}
	xmin, ymin, xmax, ymax := l.Bounds()
	if xmin != -1 || ymin != -2 || xmax != 3 || ymax != 5 {
		t.Errorf("bounds = (%v, %v, %v, %v)", xmin, ymin, xmax, ymax)
	}
}
