package graph

import (
	"fmt"

	"github.com/matzehuels/astra/pkg/family"
	"github.com/matzehuels/astra/pkg/layout"
)

// Graph is the serialized family graph.
type Graph struct {
	Background string   `json:"background,omitempty"`
	Root       string   `json:"root,omitempty"`
	Highlight  string   `json:"highlight,omitempty"`
	Ancestors  []string `json:"ancestors,omitempty"`
	Nodes      []Node   `json:"nodes"`
	Edges      []Edge   `json:"edges"`
}

// Node is one individual.
// X and Y are nil when no layout was requested.
type Node struct {
	ID      string   `json:"id"`
	Label   string   `json:"label,omitempty"`
	Color   string   `json:"color,omitempty"`
	Outline string   `json:"outline,omitempty"`
	X       *float64 `json:"x,omitempty"`
	Y       *float64 `json:"y,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Edge is an undirected connection between two individuals.
type Edge = family.Edge

// Options carries everything FromFamily adds to the bare structure.
type Options struct {
	Background string
	Root       string
	Highlight  string
	Ancestors  []string
	Colors     map[string]string
	Outlines   map[string]string
	Positions  map[string]layout.Point
}

// FromFamily converts a built family graph into its wire form. Nodes keep
// builder order; nodes missing from a map simply lack that attribute.
func FromFamily(g *family.Graph, opts Options) Graph {
	out := Graph{
		Background: opts.Background,
		Root:       opts.Root,
		Highlight:  opts.Highlight,
		Ancestors:  opts.Ancestors,
		Nodes:      make([]Node, 0, len(g.Nodes)),
		Edges:      make([]Edge, len(g.Edges)),
	}
	for _, id := range g.Nodes {
		n := Node{
			ID:      id,
			Label:   g.Labels[id],
			Color:   opts.Colors[id],
			Outline: opts.Outlines[id],
		}
		if p, ok := opts.Positions[id]; ok {
			x, y := p.X, p.Y
			n.X, n.Y = &x, &y
		}
		out.Nodes = append(out.Nodes, n)
	}
	copy(out.Edges, g.Edges)
	return out
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Validate checks the structural invariants of a decoded graph.
func (g *Graph) Validate() error {
	ids := make(map[string]bool, len(g.Nodes))
	for i, n := range g.Nodes {
		if n.ID == "" {
			return fmt.Errorf("node %d: empty id", i)
		}
		if ids[n.ID] {
			return fmt.Errorf("duplicate node %q", n.ID)
		}
		ids[n.ID] = true
	}
	for i, e := range g.Edges {
		if e.From == e.To {
			return fmt.Errorf("edge %d: self loop on %q", i, e.From)
		}
		if !ids[e.From] || !ids[e.To] {
			return fmt.Errorf("edge %d: %q -> %q references an unknown node", i, e.From, e.To)
		}
	}
	if g.Root != "" && !ids[g.Root] {
		return fmt.Errorf("root %q is not a node", g.Root)
	}
	return nil
}
