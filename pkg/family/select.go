package family

import (
	"regexp"
	"slices"
)

var (
	firstIndividualRe  = regexp.MustCompile(`\(I0*1\)`)
	secondIndividualRe = regexp.MustCompile(`\(I0*2\)`)
)

// SortedNodes returns a sorted copy of nodes, the order selection lists use.
func SortedNodes(nodes []string) []string {
	out := slices.Clone(nodes)
	slices.Sort(out)
	return out
}

// DefaultRoot picks the initial root from sorted nodes: the individual whose
// id is I1 (zero padding allowed), otherwise the first node. It returns ""
// for an empty graph.
func DefaultRoot(sorted []string) string {
	if len(sorted) == 0 {
		return ""
	}
	if i := slices.IndexFunc(sorted, firstIndividualRe.MatchString); i >= 0 {
		return sorted[i]
	}
	return sorted[0]
}

// DefaultHighlight picks the initial highlight among the nodes other than
// root: the individual whose id is I2, otherwise the first remaining node.
func DefaultHighlight(sorted []string, root string) string {
	rest := slices.DeleteFunc(slices.Clone(sorted), func(n string) bool { return n == root })
	if len(rest) == 0 {
		return ""
	}
	if i := slices.IndexFunc(rest, secondIndividualRe.MatchString); i >= 0 {
		return rest[i]
	}
	return rest[0]
}
