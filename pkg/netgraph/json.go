package netgraph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/enrichmap/pkg/colorenc"
)

// GraphJSON is the canonical serialization format for networks.
// Node order is preserved exactly as stored - NOT resorted - because the
// concept network's category-block ordering is part of the data model.
type GraphJSON struct {
	Meta  Metadata   `json:"meta,omitempty"`
	Nodes []NodeJSON `json:"nodes"`
	Edges []EdgeJSON `json:"edges"`
}

// NodeJSON is the serialized node form.
type NodeJSON struct {
	Name      string     `json:"name"`
	Label     string     `json:"label,omitempty"`
	Kind      string     `json:"kind"`
	Size      float64    `json:"size,omitempty"`
	Size2     float64    `json:"size2,omitempty"`
	LabelDist float64    `json:"label_dist,omitempty"`
	Color     *ColorJSON `json:"color,omitempty"`
	Glyph     *GlyphJSON `json:"glyph,omitempty"`
	Meta      Metadata   `json:"meta,omitempty"`
}

// EdgeJSON is the serialized edge form.
type EdgeJSON struct {
	From    string  `json:"from"`
	To      string  `json:"to"`
	Weight  float64 `json:"weight,omitempty"`
	Overlap float64 `json:"overlap,omitempty"`
}

// ColorJSON serializes a color as hex plus alpha for readability.
type ColorJSON struct {
	Hex   string  `json:"hex"`
	Alpha float64 `json:"alpha"`
}

// GlyphJSON is the serialized glyph form.
type GlyphJSON struct {
	Segments []SegmentJSON `json:"segments"`
	Rows     int           `json:"rows"`
	Cols     int           `json:"cols"`
	ByRow    bool          `json:"by_row"`
}

// SegmentJSON is the serialized glyph segment form.
type SegmentJSON struct {
	Source string    `json:"source"`
	Value  float64   `json:"value"`
	Color  ColorJSON `json:"color"`
}

func colorToJSON(c colorenc.Color) *ColorJSON {
	return &ColorJSON{Hex: c.Hex(), Alpha: c.A}
}

func colorFromJSON(cj *ColorJSON) (colorenc.Color, error) {
	if cj == nil {
		return colorenc.Color{}, nil
	}
	c, err := colorenc.Hex(cj.Hex)
	if err != nil {
		return colorenc.Color{}, err
	}
	c.A = cj.Alpha
	return c, nil
}

// ToJSON converts a graph to its serialization form.
func ToJSON(g *Graph) GraphJSON {
	out := GraphJSON{
		Meta:  g.Meta(),
		Nodes: make([]NodeJSON, 0, g.NodeCount()),
		Edges: make([]EdgeJSON, 0, g.EdgeCount()),
	}
	if len(out.Meta) == 0 {
		out.Meta = nil
	}

	for _, n := range g.Nodes() {
		nj := NodeJSON{
			Name:      n.Name,
			Label:     n.Label,
			Kind:      n.Kind.String(),
			Size:      n.Size,
			Size2:     n.Size2,
			LabelDist: n.LabelDist,
			Meta:      n.Meta,
		}
		if len(nj.Meta) == 0 {
			nj.Meta = nil
		}
		if n.Glyph != nil {
			gj := &GlyphJSON{
				Segments: make([]SegmentJSON, len(n.Glyph.Segments)),
				Rows:     n.Glyph.Rows,
				Cols:     n.Glyph.Cols,
				ByRow:    n.Glyph.ByRow,
			}
			for i, s := range n.Glyph.Segments {
				gj.Segments[i] = SegmentJSON{Source: s.Source, Value: s.Value, Color: *colorToJSON(s.Color)}
			}
			nj.Glyph = gj
		} else {
			nj.Color = colorToJSON(n.Color)
		}
		out.Nodes = append(out.Nodes, nj)
	}

	for _, e := range g.Edges() {
		out.Edges = append(out.Edges, EdgeJSON{From: e.From, To: e.To, Weight: e.Weight, Overlap: e.Overlap})
	}

	return out
}

// FromJSON rebuilds a graph from its serialization form.
// Returns an error if the structure violates graph constraints.
func FromJSON(gj GraphJSON) (*Graph, error) {
	g := New(gj.Meta)
	for _, nj := range gj.Nodes {
		color, err := colorFromJSON(nj.Color)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", nj.Name, err)
		}
		n := Node{
			Name:      nj.Name,
			Label:     nj.Label,
			Kind:      KindFromString(nj.Kind),
			Size:      nj.Size,
			Size2:     nj.Size2,
			LabelDist: nj.LabelDist,
			Color:     color,
			Meta:      nj.Meta,
		}
		if nj.Glyph != nil {
			glyph := &Glyph{
				Segments: make([]Segment, len(nj.Glyph.Segments)),
				Rows:     nj.Glyph.Rows,
				Cols:     nj.Glyph.Cols,
				ByRow:    nj.Glyph.ByRow,
			}
			for i, sj := range nj.Glyph.Segments {
				c, err := colorFromJSON(&sj.Color)
				if err != nil {
					return nil, fmt.Errorf("node %s segment %d: %w", nj.Name, i, err)
				}
				glyph.Segments[i] = Segment{Source: sj.Source, Value: sj.Value, Color: c}
			}
			n.Glyph = glyph
		}
		if err := g.AddNode(n); err != nil {
			return nil, fmt.Errorf("add node %s: %w", nj.Name, err)
		}
	}
	for _, ej := range gj.Edges {
		if err := g.AddEdge(Edge{From: ej.From, To: ej.To, Weight: ej.Weight, Overlap: ej.Overlap}); err != nil {
			return nil, fmt.Errorf("add edge %s-%s: %w", ej.From, ej.To, err)
		}
	}
	return g, nil
}

// MarshalGraph converts a graph to indented JSON bytes.
// Output is deterministic for a given graph.
func MarshalGraph(g *Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteGraph(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteGraph writes a graph as JSON to an io.Writer.
func WriteGraph(g *Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ToJSON(g)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteGraphFile writes a graph to a JSON file with 0644 permissions.
func WriteGraphFile(g *Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteGraph(g, f)
}

// ReadGraph decodes a JSON graph from an io.Reader.
func ReadGraph(r io.Reader) (*Graph, error) {
	var gj GraphJSON
	if err := json.NewDecoder(r).Decode(&gj); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return FromJSON(gj)
}

// ReadGraphFile reads a JSON file and returns the decoded graph.
func ReadGraphFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadGraph(f)
}
