// Package family turns a parsed GEDCOM record into a star-map graph.
//
// Individuals become nodes and two kinds of relationships become undirected
// edges: spouses of the same family, and every spouse paired with every child
// of that family. Individuals without any such relationship are pruned.
//
// # Pipeline
//
//	rec, _ := gedcom.ParseBytes(data, gedcom.Options{})
//	g, err := family.Build(rec, family.BuildOptions{Logger: logger})
//	if err != nil {
//	    return err // duplicate ids are fatal
//	}
//	chain, err := g.Ancestors(rec, root)
//	colors := family.Colorize(g.Nodes, "#FFFFFF", family.ColorOptions{
//	    Ancestors:       chain,
//	    AncestorColor:   "#FFA500",
//	    Individual:      root,
//	    IndividualColor: "#FF0051",
//	})
//
// # Keys and labels
//
// Every graph structure is keyed by the long id of an individual,
// "<name> (<id>)", where id is the GEDCOM pointer without its @ delimiters.
// [Person] keeps the stable short id, the long id and the display label as
// separate values so callers never need to parse one out of another.
//
// # Edge candidates
//
// The builder first collects raw candidates as [Tuple] values (a spouse group
// may hold more than two members) and then runs them through [Normalize],
// which reduces them to two-member tuples using fixed rules. Only tuples with
// exactly two distinct members become [Edge] values; everything else is kept
// in [Graph.Anomalies] for inspection.
package family
