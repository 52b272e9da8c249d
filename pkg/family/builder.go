package family

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/astra/pkg/errors"
	"github.com/matzehuels/astra/pkg/gedcom"
)

// Source is the part of a parsed record the builder walks.
// *gedcom.Record satisfies it.
type Source interface {
	RootElements() []gedcom.Element
	FamiliesOf(ind *gedcom.Individual, role gedcom.Role) []*gedcom.Family
}

// BuildOptions configures Build.
type BuildOptions struct {
	// Logger receives debug output and normalization anomalies.
	// Nil discards everything.
	Logger *log.Logger
}

// Graph is the node/label/edge model derived from one record.
type Graph struct {
	// Translator maps GEDCOM pointers ("@I1@") to long ids for every
	// individual in the record, pruned or not.
	Translator map[string]string

	// People holds the extracted fields of every individual by long id.
	People map[string]Person

	// Nodes lists the long ids taking part in at least one relationship, in
	// record order.
	Nodes []string

	// Labels maps every node to its display text. Its key set equals Nodes.
	Labels map[string]string

	// Candidates are the raw spousal and parent-child tuples before
	// normalization.
	Candidates []Tuple

	// Edges are the normalized connections, each with two distinct ends.
	Edges []Edge

	// Anomalies are normalized tuples that could not become an edge.
	Anomalies []Tuple
}

// familyIndex collects long ids per family pointer and remembers the order
// families were first seen in, so output is deterministic.
type familyIndex struct {
	order   []string
	members map[string][]string
}

func newFamilyIndex() *familyIndex {
	return &familyIndex{members: make(map[string][]string)}
}

func (f *familyIndex) add(family, key string) {
	if _, ok := f.members[family]; !ok {
		f.order = append(f.order, family)
	}
	f.members[family] = append(f.members[family], key)
}

// Build walks every individual of src once and derives the graph.
//
// Spouse lists come from each individual's FAMS links and child lists from
// FAMC links. Every family with two or more spouses yields one spousal
// candidate holding all of them; every family present in both indexes yields
// the product spouse × child. Candidates are normalized (see [Normalize]),
// individuals outside every raw candidate are pruned, and labels are
// restricted to the remaining nodes.
//
// A pointer used by more than one individual is fatal: Build returns an
// [errors.ErrCodeDuplicateID] error naming the duplicated ids and no graph.
func Build(src Source, opts BuildOptions) (*Graph, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	g := &Graph{
		Translator: make(map[string]string),
		People:     make(map[string]Person),
		Labels:     make(map[string]string),
	}

	var (
		pointers []string
		order    []string
		labels   = make(map[string]string)
		fams     = newFamilyIndex()
		famc     = newFamilyIndex()
	)

	for _, e := range src.RootElements() {
		ind, ok := e.(*gedcom.Individual)
		if !ok {
			continue
		}
		p := NewPerson(ind)
		key := p.Key()

		pointers = append(pointers, p.Pointer)
		if _, seen := g.People[key]; !seen {
			order = append(order, key)
		}
		g.Translator[p.Pointer] = key
		g.People[key] = p
		labels[key] = p.Label()

		for _, fam := range src.FamiliesOf(ind, gedcom.RoleSpouse) {
			fams.add(fam.Pointer(), key)
		}
		for _, fam := range src.FamiliesOf(ind, gedcom.RoleChild) {
			famc.add(fam.Pointer(), key)
		}
	}

	if err := checkDuplicates(pointers); err != nil {
		return nil, err
	}

	var pairs, children []Tuple
	for _, id := range fams.order {
		spouses := fams.members[id]
		if len(spouses) > 1 {
			pairs = append(pairs, append(Tuple(nil), spouses...))
		}
	}
	for _, id := range fams.order {
		kids, ok := famc.members[id]
		if !ok {
			continue
		}
		for _, s := range fams.members[id] {
			for _, c := range kids {
				children = append(children, Tuple{s, c})
			}
		}
	}
	g.Candidates = append(pairs, children...)

	g.Edges, g.Anomalies = toEdges(Normalize(g.Candidates, logger))
	for _, t := range g.Anomalies {
		logger.Debug("edge candidate discarded", "members", []string(t))
	}

	connected := make(map[string]bool)
	for _, t := range g.Candidates {
		for _, m := range t {
			connected[m] = true
		}
	}
	for _, key := range order {
		if !connected[key] {
			continue
		}
		label, ok := labels[key]
		if !ok {
			continue
		}
		g.Nodes = append(g.Nodes, key)
		g.Labels[key] = label
	}

	logger.Debug("built family graph",
		"individuals", len(pointers),
		"nodes", len(g.Nodes),
		"edges", len(g.Edges),
		"anomalies", len(g.Anomalies))

	return g, nil
}

// checkDuplicates fails when any pointer occurs more than once. Each
// duplicated pointer is named once, in order of its first repeat.
func checkDuplicates(pointers []string) error {
	count := make(map[string]int, len(pointers))
	var dups []string
	for _, p := range pointers {
		count[p]++
		if count[p] == 2 {
			dups = append(dups, p)
		}
	}
	if len(dups) == 0 {
		return nil
	}
	return errors.New(errors.ErrCodeDuplicateID,
		"%s duplicated. GEDCOM files should not have duplicate IDs. Please check your file.",
		strings.Join(dups, " "))
}

// Person returns the individual behind a long id.
func (g *Graph) Person(key string) (Person, bool) {
	p, ok := g.People[key]
	return p, ok
}

// HasNode reports whether key survived pruning.
func (g *Graph) HasNode(key string) bool {
	_, ok := g.Labels[key]
	return ok
}
