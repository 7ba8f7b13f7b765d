// Package netgraph provides the annotated network model shared by the
// concept and similarity representations.
//
// Nodes carry a kind discriminator (category or item), a display label, a
// size, and either a scalar color or a multi-segment glyph encoding one
// color per source. Edges are undirected and weighted. Node order is
// insertion order and is part of the observable contract: the concept
// network keeps all category nodes ahead of item nodes, and downstream
// consumers rely on that block order.
package netgraph

import (
	"errors"
	"slices"

	"github.com/matzehuels/enrichmap/pkg/colorenc"
)

var (
	// ErrInvalidNodeName is returned by [Graph.AddNode] when the node name
	// is empty. All nodes must have non-empty identifiers.
	ErrInvalidNodeName = errors.New("node name must not be empty")

	// ErrDuplicateNode is returned by [Graph.AddNode] when a node with the
	// same name already exists. Node names are unique per graph.
	ErrDuplicateNode = errors.New("duplicate node name")

	// ErrUnknownEndpoint is returned by [Graph.AddEdge] when either edge
	// endpoint does not exist in the graph.
	ErrUnknownEndpoint = errors.New("edge references an unknown node")
)

// Kind distinguishes category nodes (gene sets) from item nodes (genes).
type Kind int

const (
	// KindCategory is a gene set / pathway tested for enrichment.
	KindCategory Kind = iota
	// KindItem is a gene that may belong to one or more categories.
	KindItem
)

// String returns the serialization name of the kind.
func (k Kind) String() string {
	if k == KindItem {
		return "item"
	}
	return "category"
}

// KindFromString parses a serialized kind name. Unknown strings map to
// KindCategory, matching the zero value.
func KindFromString(s string) Kind {
	if s == "item" {
		return KindItem
	}
	return KindCategory
}

// Metadata stores arbitrary key-value pairs attached to nodes or the graph.
type Metadata map[string]any

// Segment is one glyph slice: the source it stands for, the numeric value
// behind it, and its encoded color. Segment i means "source i" on every
// node of a network, so segments stay comparable across nodes.
type Segment struct {
	Source string
	Value  float64
	Color  colorenc.Color
}

// Glyph is a node's multi-segment visual encoding: an ordered segment list
// arranged into a Rows×Cols grid. ByRow selects row-major fill order.
// A 1×N (or N×1) grid with ByRow renders as pie slices.
type Glyph struct {
	Segments []Segment
	Rows     int
	Cols     int
	ByRow    bool
}

// Clone returns a deep copy of the glyph.
func (g *Glyph) Clone() *Glyph {
	if g == nil {
		return nil
	}
	return &Glyph{
		Segments: slices.Clone(g.Segments),
		Rows:     g.Rows,
		Cols:     g.Cols,
		ByRow:    g.ByRow,
	}
}

// Node is a vertex of the network.
// Size is the primary visual dimension; Size2 is the secondary dimension
// used by grid glyphs (shrunk when blank segments are removed). LabelDist
// is the label offset in layout units.
type Node struct {
	Name      string
	Label     string
	Kind      Kind
	Size      float64
	Size2     float64
	LabelDist float64
	Color     colorenc.Color // scalar color; ignored when Glyph is set
	Glyph     *Glyph
	Meta      Metadata
}

// DisplayLabel returns the label if set, otherwise the name.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.Name
}

// Edge is an undirected connection between two nodes. Weight is the
// membership weight for concept networks; Overlap is the Jaccard score for
// similarity networks (zero otherwise).
type Edge struct {
	From    string
	To      string
	Weight  float64
	Overlap float64
}

// Graph is an undirected attribute graph.
// The zero value is not usable - use [New]. Graph is not safe for concurrent
// use without external synchronization. Topology is never mutated in place
// by consumers; filtering produces a new graph, while glyph encoding only
// touches node attributes.
type Graph struct {
	nodes map[string]*Node
	order []string
	edges []Edge
	adj   map[string][]string
	meta  Metadata
}

// New creates an empty graph with optional graph-level metadata.
func New(meta Metadata) *Graph {
	if meta == nil {
		meta = Metadata{}
	}
	return &Graph{
		nodes: make(map[string]*Node),
		adj:   make(map[string][]string),
		meta:  meta,
	}
}

// Meta returns the graph-level metadata map.
func (g *Graph) Meta() Metadata { return g.meta }

// AddNode adds a node to the graph, preserving insertion order.
// Returns ErrInvalidNodeName for an empty name or ErrDuplicateNode when the
// name is already taken.
func (g *Graph) AddNode(n Node) error {
	if n.Name == "" {
		return ErrInvalidNodeName
	}
	if _, exists := g.nodes[n.Name]; exists {
		return ErrDuplicateNode
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	node := &n
	g.nodes[node.Name] = node
	g.order = append(g.order, node.Name)
	return nil
}

// AddEdge adds an undirected edge between two existing nodes.
// Returns ErrUnknownEndpoint if either endpoint is missing.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.From]; !ok {
		return ErrUnknownEndpoint
	}
	if _, ok := g.nodes[e.To]; !ok {
		return ErrUnknownEndpoint
	}
	g.edges = append(g.edges, e)
	g.adj[e.From] = append(g.adj[e.From], e.To)
	g.adj[e.To] = append(g.adj[e.To], e.From)
	return nil
}

// Node returns the node with the given name and true, or nil and false.
// The pointer refers to the stored node, so attribute changes stick.
func (g *Graph) Node(name string) (*Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Nodes returns all nodes in insertion order.
// The slice contains pointers to the stored nodes.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.order))
	for i, name := range g.order {
		out[i] = g.nodes[name]
	}
	return out
}

// NodeNames returns all node names in insertion order.
func (g *Graph) NodeNames() []string { return slices.Clone(g.order) }

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// EdgeAt returns a pointer to the i-th edge for attribute mutation.
// Endpoints must not be changed through it.
func (g *Graph) EdgeAt(i int) *Edge { return &g.edges[i] }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Degree returns the number of edges incident to the node.
// Returns 0 for unknown nodes.
func (g *Graph) Degree(name string) int { return len(g.adj[name]) }

// Neighbors returns the names adjacent to the node, in edge insertion
// order. The returned slice is a read-only view.
func (g *Graph) Neighbors(name string) []string { return g.adj[name] }

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	out := New(cloneMeta(g.meta))
	for _, name := range g.order {
		n := *g.nodes[name]
		n.Meta = cloneMeta(n.Meta)
		n.Glyph = n.Glyph.Clone()
		_ = out.AddNode(n)
	}
	for _, e := range g.edges {
		_ = out.AddEdge(e)
	}
	return out
}

// Induced returns the subgraph induced by the given node set: every kept
// node plus every edge whose endpoints are both kept. Node and edge order
// are preserved. The receiver is not modified.
func (g *Graph) Induced(keep map[string]bool) *Graph {
	out := New(cloneMeta(g.meta))
	for _, name := range g.order {
		if !keep[name] {
			continue
		}
		n := *g.nodes[name]
		n.Meta = cloneMeta(n.Meta)
		n.Glyph = n.Glyph.Clone()
		_ = out.AddNode(n)
	}
	for _, e := range g.edges {
		if keep[e.From] && keep[e.To] {
			_ = out.AddEdge(e)
		}
	}
	return out
}

func cloneMeta(m Metadata) Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
