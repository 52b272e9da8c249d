// Package graph provides the wire format for family graphs.
//
// A [Graph] is what the CLI prints and the HTTP API returns: the node list in
// builder order, each node with its label, fill color, outline color and
// optional seed position, plus the undirected edge list and the selection
// that produced the coloring.
//
// # Format
//
//	{
//	  "background": "#222222",
//	  "root": "John Smith (I1)",
//	  "ancestors": ["John Smith (I1)"],
//	  "nodes": [
//	    {"id": "John Smith (I1)", "label": "John Smith \n London \n 1900",
//	     "color": "#FF0051", "outline": "#7F0028", "x": 0, "y": 0}
//	  ],
//	  "edges": [{"from": "John Smith (I1)", "to": "Mary Jones (I2)"}]
//	}
//
// # Usage
//
//	g := graph.FromFamily(fg, graph.Options{Colors: colors, Background: p.Background})
//	data, err := graph.MarshalGraph(g)
//
//	g, err := graph.ReadGraphFile("family.json")
//
// [ReadGraph] validates what it decodes: node ids must be unique and every
// edge must join two distinct listed nodes.
package graph
