package gedcom

// Record is a parsed GEDCOM document.
//
// Records are immutable after parsing and safe for concurrent reads.
type Record struct {
	roots []Element
	index map[string]Element
}

func newRecord(nodes []*Node) *Record {
	r := &Record{
		roots: make([]Element, 0, len(nodes)),
		index: make(map[string]Element),
	}
	for _, n := range nodes {
		e := newElement(n)
		r.roots = append(r.roots, e)
		if n.Pointer != "" {
			// Later records shadow earlier ones with the same pointer; duplicate
			// detection is the graph builder's job.
			r.index[n.Pointer] = e
		}
	}
	return r
}

// RootElements returns every top-level record in file order.
func (r *Record) RootElements() []Element {
	return r.roots
}

// Individuals returns every INDI record in file order, duplicates included.
func (r *Record) Individuals() []*Individual {
	var out []*Individual
	for _, e := range r.roots {
		if ind, ok := e.(*Individual); ok {
			out = append(out, ind)
		}
	}
	return out
}

// Element looks up a top-level record by pointer.
func (r *Record) Element(pointer string) (Element, bool) {
	e, ok := r.index[pointer]
	return e, ok
}

// Individual looks up an INDI record by pointer.
func (r *Record) Individual(pointer string) (*Individual, bool) {
	ind, ok := r.index[pointer].(*Individual)
	return ind, ok
}

// Family looks up a FAM record by pointer.
func (r *Record) Family(pointer string) (*Family, bool) {
	fam, ok := r.index[pointer].(*Family)
	return fam, ok
}

// FamiliesOf returns the families an individual belongs to in the given role.
// Pointers that do not resolve to a FAM record are skipped.
func (r *Record) FamiliesOf(ind *Individual, role Role) []*Family {
	var out []*Family
	for _, ptr := range ind.FamilyPointers(role) {
		if fam, ok := r.Family(ptr); ok {
			out = append(out, fam)
		}
	}
	return out
}

// Parents returns the HUSB and WIFE individuals of every family the individual
// is a child in. Unresolvable pointers are skipped.
func (r *Record) Parents(ind *Individual) []*Individual {
	var out []*Individual
	for _, fam := range r.FamiliesOf(ind, RoleChild) {
		for _, ptr := range fam.ParentPointers() {
			if p, ok := r.Individual(ptr); ok {
				out = append(out, p)
			}
		}
	}
	return out
}

// AncestorsOf returns every individual reachable from ind through repeated
// parent links, breadth-first by generation. The individual itself is not
// included. Each ancestor appears once even in the presence of pedigree
// collapse, and cyclic data terminates.
func (r *Record) AncestorsOf(ind *Individual) []*Individual {
	seen := map[string]bool{ind.Pointer(): true}
	queue := []*Individual{ind}
	var out []*Individual

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, p := range r.Parents(cur) {
			if seen[p.Pointer()] {
				continue
			}
			seen[p.Pointer()] = true
			out = append(out, p)
			queue = append(queue, p)
		}
	}
	return out
}
