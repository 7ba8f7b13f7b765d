// Package layout computes and rescales 2-D node positions for enrichment
// networks.
//
// Positions come from Graphviz (via [github.com/goccy/go-graphviz], no
// system binary needed); scaling adjusts size and distance attributes to a
// target coordinate range without touching topology.
package layout

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/enrichmap/pkg/netgraph"
)

// Point is a 2-D layout position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Layout maps every node of a graph to a position. Node order follows the
// graph's insertion order so serialization is deterministic.
type Layout struct {
	Nodes []string `json:"nodes"`
	Pos   []Point  `json:"pos"`
}

// Position returns the point for a node name and whether it exists.
func (l *Layout) Position(name string) (Point, bool) {
	for i, n := range l.Nodes {
		if n == name {
			return l.Pos[i], true
		}
	}
	return Point{}, false
}

// Bounds returns the bounding box as (xmin, ymin, xmax, ymax).
// An empty layout reports a zero box.
func (l *Layout) Bounds() (xmin, ymin, xmax, ymax float64) {
	if len(l.Pos) == 0 {
		return 0, 0, 0, 0
	}
	xmin, ymin = l.Pos[0].X, l.Pos[0].Y
	xmax, ymax = xmin, ymin
	for _, p := range l.Pos[1:] {
		xmin = min(xmin, p.X)
		ymin = min(ymin, p.Y)
		xmax = max(xmax, p.X)
		ymax = max(ymax, p.Y)
	}
	return xmin, ymin, xmax, ymax
}

// Engine selects the Graphviz layout algorithm.
type Engine string

const (
	// EngineNeato is force-directed and the default for enrichment
	// networks.
	EngineNeato Engine = "neato"
	// EngineFDP is the spring-model alternative for larger graphs.
	EngineFDP Engine = "fdp"
	// EngineDot is hierarchical; useful for small concept networks.
	EngineDot Engine = "dot"
)

// Compute runs Graphviz over the graph and returns node positions in the
// graph's insertion order. Positions are in Graphviz point units; use
// [Scale] to map them onto a target range.
func Compute(ctx context.Context, g *netgraph.Graph, engine Engine) (*Layout, error) {
	if engine == "" {
		engine = EngineNeato
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.Layout(engine))

	names := g.NodeNames()
	parsed, err := graphviz.ParseBytes([]byte(positionDOT(g, names)))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer parsed.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, parsed, graphviz.Format("plain"), &buf); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}

	return parsePlain(buf.Bytes(), names)
}

// positionDOT emits a minimal undirected DOT graph using positional node
// IDs (n0, n1, ...) so the plain-format output needs no quote handling.
// Only sizes are carried over; they influence node spacing.
func positionDOT(g *netgraph.Graph, names []string) string {
	idx := make(map[string]int, len(names))
	for i, name := range names {
		idx[name] = i
	}

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  outputorder=nodesfirst;\n")
	for i, name := range names {
		n, _ := g.Node(name)
		// DOT width is in inches; size attributes are in points (1/72).
		w := max(n.Size/72, 0.1)
		fmt.Fprintf(&buf, "  n%d [shape=circle, width=%.4f, fixedsize=true];\n", i, w)
	}
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  n%d -- n%d [weight=%.4f];\n", idx[e.From], idx[e.To], max(e.Weight, 0.0001))
	}
	buf.WriteString("}\n")
	return buf.String()
}

// parsePlain reads Graphviz plain output ("node <name> <x> <y> ...") back
// into insertion order.
func parsePlain(out []byte, names []string) (*Layout, error) {
	l := &Layout{
		Nodes: names,
		Pos:   make([]Point, len(names)),
	}
	seen := make([]bool, len(names))

	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 || fields[0] != "node" {
			continue
		}
		i, err := strconv.Atoi(strings.TrimPrefix(fields[1], "n"))
		if err != nil || i < 0 || i >= len(names) {
			return nil, fmt.Errorf("layout: unexpected node id %q", fields[1])
		}
		x, errX := strconv.ParseFloat(fields[2], 64)
		y, errY := strconv.ParseFloat(fields[3], 64)
		if errX != nil || errY != nil {
			return nil, fmt.Errorf("layout: bad position for %q: %s %s", names[i], fields[2], fields[3])
		}
		l.Pos[i] = Point{X: x, Y: y}
		seen[i] = true
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("layout: read plain output: %w", err)
	}

	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("layout: no position for node %q", names[i])
		}
	}
	return l, nil
}
