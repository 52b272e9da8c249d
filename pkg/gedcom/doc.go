// Package gedcom reads GEDCOM genealogical records into a tree of elements.
//
// The package implements just enough of the GEDCOM 5.5 line grammar to serve
// the family graph builder: it splits a file into leveled lines, rebuilds the
// hierarchy, folds CONC/CONT continuations into their parent values and exposes
// typed views for individuals (INDI) and families (FAM).
//
// # Grammar
//
// Every line has the shape
//
//	level [@pointer@] TAG [value]
//
// A line may be at most one level deeper than the line before it. Violations of
// either rule are reported as format violations (see pkg/errors). In lenient mode
// (the default) a line that does not match the grammar at all is treated as a
// continuation of the previous element's value, which recovers the common case of
// text fields containing raw line breaks.
//
// # Usage
//
//	data, err := gedcom.Prepare(raw) // header check, UTF-8 cleanup
//	if err != nil {
//	    return err
//	}
//	rec, err := gedcom.ParseBytes(data, gedcom.Options{})
//	for _, ind := range rec.Individuals() {
//	    fmt.Println(ind.Pointer(), ind.FullName())
//	}
//
// # Ancestor order
//
// [Record.AncestorsOf] walks FAMC links breadth-first, one generation at a time.
// Within a generation, parents appear in the order the family records list them
// (HUSB before WIFE when written that way) and families appear in the order of
// the individual's FAMC lines. An individual reachable by several paths is
// reported once, at its first (shallowest) visit.
package gedcom
