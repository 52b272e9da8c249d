package gedcom

import "strings"

// Tags used by the graph builder.
const (
	TagHead       = "HEAD"
	TagIndividual = "INDI"
	TagFamily     = "FAM"
	TagName       = "NAME"
	TagGiven      = "GIVN"
	TagSurname    = "SURN"
	TagBirth      = "BIRT"
	TagDate       = "DATE"
	TagPlace      = "PLAC"
	TagHusband    = "HUSB"
	TagWife       = "WIFE"
	TagChild      = "CHIL"
	TagConc       = "CONC"
	TagCont       = "CONT"
)

// Role selects which family links of an individual to follow.
type Role string

const (
	// RoleSpouse follows FAMS links: families the individual is a spouse in.
	RoleSpouse Role = "FAMS"
	// RoleChild follows FAMC links: families the individual is a child in.
	RoleChild Role = "FAMC"
)

// Node is one line of a GEDCOM file together with its nested lines.
type Node struct {
	Level    int
	Pointer  string // "@I1@" style cross-reference id, empty for most lines
	Tag      string
	Value    string
	Line     int // 1-based line number in the source
	Parent   *Node
	Children []*Node
}

// Child returns the first direct child with the given tag, or nil.
func (n *Node) Child(tag string) *Node {
	for _, c := range n.Children {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

// ChildrenByTag returns every direct child with the given tag, in file order.
func (n *Node) ChildrenByTag(tag string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Tag == tag {
			out = append(out, c)
		}
	}
	return out
}

// Element is a top-level (level 0) record of a GEDCOM file.
type Element interface {
	// Node returns the raw line tree of the record.
	Node() *Node
	// Pointer returns the record's cross-reference id, e.g. "@I1@".
	Pointer() string
	// Tag returns the record type, e.g. "INDI".
	Tag() string
}

// Individual is an INDI record.
type Individual struct{ node *Node }

// Family is a FAM record.
type Family struct{ node *Node }

// Other is any top-level record that is neither an individual nor a family
// (HEAD, SOUR, NOTE, TRLR, ...).
type Other struct{ node *Node }

func (i *Individual) Node() *Node     { return i.node }
func (i *Individual) Pointer() string { return i.node.Pointer }
func (i *Individual) Tag() string     { return i.node.Tag }

func (f *Family) Node() *Node     { return f.node }
func (f *Family) Pointer() string { return f.node.Pointer }
func (f *Family) Tag() string     { return f.node.Tag }

func (o *Other) Node() *Node     { return o.node }
func (o *Other) Pointer() string { return o.node.Pointer }
func (o *Other) Tag() string     { return o.node.Tag }

// newElement wraps a level 0 node in its typed view.
func newElement(n *Node) Element {
	switch n.Tag {
	case TagIndividual:
		return &Individual{node: n}
	case TagFamily:
		return &Family{node: n}
	default:
		return &Other{node: n}
	}
}

// Name returns the given name and surname of the first NAME structure.
//
// Both the inline form ("John /Smith/") and GIVN/SURN sub-tags are understood;
// the inline value wins when present. Missing parts are empty strings.
func (i *Individual) Name() (given, surname string) {
	for _, c := range i.node.Children {
		if c.Tag != TagName {
			continue
		}
		if c.Value != "" {
			parts := strings.Split(c.Value, "/")
			given = strings.TrimSpace(parts[0])
			if len(parts) > 1 {
				surname = strings.TrimSpace(parts[1])
			}
			return given, surname
		}
		for _, cc := range c.Children {
			switch cc.Tag {
			case TagGiven:
				given = cc.Value
			case TagSurname:
				surname = cc.Value
			}
		}
	}
	return given, surname
}

// FullName joins given name and surname with a single space. An individual
// without any name yields a single space, which keeps long ids stable.
func (i *Individual) FullName() string {
	given, surname := i.Name()
	return given + " " + surname
}

// Birth returns the date and place of the individual's birth event.
// When several BIRT structures exist the last one wins.
func (i *Individual) Birth() (date, place string) {
	for _, c := range i.node.ChildrenByTag(TagBirth) {
		for _, cc := range c.Children {
			switch cc.Tag {
			case TagDate:
				date = cc.Value
			case TagPlace:
				place = cc.Value
			}
		}
	}
	return date, place
}

// FamilyPointers returns the family pointers the individual links to in the
// given role, in file order.
func (i *Individual) FamilyPointers(role Role) []string {
	var out []string
	for _, c := range i.node.ChildrenByTag(string(role)) {
		if c.Value != "" {
			out = append(out, c.Value)
		}
	}
	return out
}

// ParentPointers returns the HUSB and WIFE pointers of the family in the order
// they are written.
func (f *Family) ParentPointers() []string {
	var out []string
	for _, c := range f.node.Children {
		if (c.Tag == TagHusband || c.Tag == TagWife) && c.Value != "" {
			out = append(out, c.Value)
		}
	}
	return out
}

// ChildPointers returns the CHIL pointers of the family in file order.
func (f *Family) ChildPointers() []string {
	var out []string
	for _, c := range f.node.ChildrenByTag(TagChild) {
		if c.Value != "" {
			out = append(out, c.Value)
		}
	}
	return out
}
