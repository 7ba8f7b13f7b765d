package layout

import (
	"strings"

	"github.com/matzehuels/enrichmap/pkg/netgraph"
)

// Attr names a visual attribute a scaling rule adjusts.
type Attr int

const (
	// AttrSize is the primary node size.
	AttrSize Attr = iota
	// AttrSize2 is the secondary (glyph grid) node size.
	AttrSize2
	// AttrLabelDist is the node label offset.
	AttrLabelDist
	// AttrEdgeWeight is the edge weight; rules for it apply to edges.
	AttrEdgeWeight
)

// Effect transforms one attribute value. The three implementations cover
// multiply-by-scalar, replace-with-constant and arbitrary mapping, so rule
// dispatch never inspects runtime types.
type Effect interface {
	apply(v float64) float64
}

// Scalar multiplies the current value.
type Scalar float64

func (s Scalar) apply(v float64) float64 { return v * float64(s) }

// Replace overwrites the current value.
type Replace float64

func (r Replace) apply(v float64) float64 { return float64(r) }

// Func maps the current value through an arbitrary function.
type Func func(float64) float64

func (f Func) apply(v float64) float64 { return f(v) }

// Match selects the nodes a rule applies to by attribute value. Key is
// either "kind" or a metadata key; comparison is case-insensitive. The
// zero Match selects every node.
type Match struct {
	Key   string
	Value string
}

func (m Match) selects(n *netgraph.Node) bool {
	if m.Key == "" {
		return true
	}
	var got string
	if strings.EqualFold(m.Key, "kind") {
		got = n.Kind.String()
	} else if v, ok := n.Meta[m.Key].(string); ok {
		got = v
	}
	return strings.EqualFold(got, m.Value)
}

// selectsEdge evaluates the match against an edge. "from" and "to" compare
// the endpoint names; any other key describes a node attribute, so the rule
// covers edges whose endpoints both match.
func (m Match) selectsEdge(g *netgraph.Graph, e *netgraph.Edge) bool {
	if m.Key == "" {
		return true
	}
	if strings.EqualFold(m.Key, "from") {
		return strings.EqualFold(e.From, m.Value)
	}
	if strings.EqualFold(m.Key, "to") {
		return strings.EqualFold(e.To, m.Value)
	}
	from, okFrom := g.Node(e.From)
	to, okTo := g.Node(e.To)
	return okFrom && okTo && m.selects(from) && m.selects(to)
}

// Rule adjusts one attribute of matching nodes, or matching edges for
// [AttrEdgeWeight]. Rules run after range scaling, cumulatively in the
// order given, and only touch nodes and edges their Match selects.
type Rule struct {
	Attr   Attr
	Effect Effect
	Where  Match
}

// Options configures [Scale].
type Options struct {
	// XRange and YRange are the requested axis ranges as (lo, hi). A range
	// already enclosing the layout's bounding box is kept unchanged;
	// otherwise it snaps to the bounding box expanded by Expand.
	XRange [2]float64
	YRange [2]float64
	// Expand is the margin fraction added per side when a range snaps to
	// the bounding box.
	Expand float64
	// Rules are per-group attribute overrides applied after range scaling.
	Rules []Rule
}

// DefaultOptions returns the scaling defaults used by the pipeline.
func DefaultOptions() Options {
	return Options{
		XRange: [2]float64{0, 1},
		YRange: [2]float64{0, 1},
		Expand: 0.05,
	}
}

// Ranges are the final axis ranges after scaling.
type Ranges struct {
	X [2]float64 `json:"x"`
	Y [2]float64 `json:"y"`
}

// Scale maps layout positions onto the requested ranges and rescales node
// size, secondary size and label distance proportionally to the resulting
// axis span, so visual proportions survive the coordinate change. Per-rule
// overrides run last. Node attributes are mutated in place; topology and
// the input layout are not.
//
// Returns the adjusted layout and the final ranges.
func Scale(g *netgraph.Graph, l *Layout, opts Options) (*Layout, Ranges) {
	xmin, ymin, xmax, ymax := l.Bounds()

	final := Ranges{
		X: resolveRange(opts.XRange, xmin, xmax, opts.Expand),
		Y: resolveRange(opts.YRange, ymin, ymax, opts.Expand),
	}

	out := &Layout{
		Nodes: l.Nodes,
		Pos:   make([]Point, len(l.Pos)),
	}
	for i, p := range l.Pos {
		out.Pos[i] = Point{
			X: remap(p.X, xmin, xmax, final.X),
			Y: remap(p.Y, ymin, ymax, final.Y),
		}
	}

	// Attributes live in layout-relative units; scale them by the span
	// ratio so per-node proportions are preserved in axis units.
	factor := spanFactor(xmin, xmax, ymin, ymax, final)
	for _, n := range g.Nodes() {
		n.Size *= factor
		n.Size2 *= factor
		n.LabelDist *= factor
	}

	applyRules(g, opts.Rules)
	return out, final
}

// resolveRange keeps a requested range that encloses [lo, hi]; otherwise it
// snaps to the bounding box expanded by the margin fraction per side.
func resolveRange(req [2]float64, lo, hi, expand float64) [2]float64 {
	if req[0] <= lo && req[1] >= hi && req[0] < req[1] {
		return req
	}
	margin := (hi - lo) * expand
	return [2]float64{lo - margin, hi + margin}
}

// remap linearly maps v from [lo, hi] onto the target range. Degenerate
// source spans land on the target midpoint.
func remap(v, lo, hi float64, target [2]float64) float64 {
	if hi == lo {
		return (target[0] + target[1]) / 2
	}
	frac := (v - lo) / (hi - lo)
	return target[0] + frac*(target[1]-target[0])
}

// spanFactor is the average ratio of final axis span to layout span.
func spanFactor(xmin, xmax, ymin, ymax float64, final Ranges) float64 {
	xspan := xmax - xmin
	yspan := ymax - ymin
	var sum float64
	var cnt int
	if xspan > 0 {
		sum += (final.X[1] - final.X[0]) / xspan
		cnt++
	}
	if yspan > 0 {
		sum += (final.Y[1] - final.Y[0]) / yspan
		cnt++
	}
	if cnt == 0 {
		return 1
	}
	return sum / float64(cnt)
}

func applyRules(g *netgraph.Graph, rules []Rule) {
	for _, r := range rules {
		if r.Effect == nil {
			continue
		}
		if r.Attr == AttrEdgeWeight {
			for i := range g.EdgeCount() {
				e := g.EdgeAt(i)
				if !r.Where.selectsEdge(g, e) {
					continue
				}
				e.Weight = r.Effect.apply(e.Weight)
			}
			continue
		}
		for _, n := range g.Nodes() {
			if !r.Where.selects(n) {
				continue
			}
			switch r.Attr {
			case AttrSize:
				n.Size = r.Effect.apply(n.Size)
			case AttrSize2:
				n.Size2 = r.Effect.apply(n.Size2)
			case AttrLabelDist:
				n.LabelDist = r.Effect.apply(n.LabelDist)
			}
		}
	}
}
