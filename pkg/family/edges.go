package family

import (
	"io"

	"github.com/charmbracelet/log"
)

// Tuple is an edge candidate: the long ids of individuals that should be
// connected. Spouse groups can hold any number of members; parent-child
// candidates always hold two.
type Tuple []string

// Edge is an undirected connection between two distinct individuals.
// From and To carry no direction; they preserve the order the candidate was
// built in (spouse before child).
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Normalize reduces edge candidates to pairs.
//
//   - Two members: kept as-is.
//   - Three distinct members: dropped. A three-parent family cannot be drawn
//     as a single edge without inventing a relationship.
//   - Three members with a repeat: collapsed to the distinct members in
//     first-seen order, so (A, A, B) becomes (A, B).
//   - Any other size: passed through unchanged and reported on logger, since
//     no rule covers it.
//
// The rules are deliberately narrow; they tolerate common data-entry mistakes
// (a spouse also recorded as a child of the same family) and nothing more.
// A nil logger discards reports.
func Normalize(candidates []Tuple, logger *log.Logger) []Tuple {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	out := make([]Tuple, 0, len(candidates))
	for _, t := range candidates {
		switch len(t) {
		case 2:
			out = append(out, t)
		case 3:
			d := distinct(t)
			if len(d) == len(t) {
				continue
			}
			out = append(out, d)
		default:
			logger.Warn("edge candidate has no normalization rule", "size", len(t), "members", []string(t))
			out = append(out, t)
		}
	}
	return out
}

// distinct returns the members of t without repeats, in first-seen order.
func distinct(t Tuple) Tuple {
	seen := make(map[string]bool, len(t))
	out := make(Tuple, 0, len(t))
	for _, m := range t {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

// toEdges converts normalized tuples into edges. Tuples that are not a pair of
// distinct members are returned as anomalies.
func toEdges(tuples []Tuple) (edges []Edge, anomalies []Tuple) {
	edges = make([]Edge, 0, len(tuples))
	for _, t := range tuples {
		if len(t) == 2 && t[0] != t[1] {
			edges = append(edges, Edge{From: t[0], To: t[1]})
			continue
		}
		anomalies = append(anomalies, t)
	}
	return edges, anomalies
}
