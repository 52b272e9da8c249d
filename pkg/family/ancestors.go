package family

import (
	"github.com/matzehuels/astra/pkg/errors"
	"github.com/matzehuels/astra/pkg/gedcom"
)

// AncestorSource resolves individuals and walks their ancestry.
// *gedcom.Record satisfies it.
type AncestorSource interface {
	Individual(pointer string) (*gedcom.Individual, bool)
	AncestorsOf(ind *gedcom.Individual) []*gedcom.Individual
}

// Ancestors returns the ancestor chain of the individual with long id key:
// key itself followed by every ancestor, in the order src reports them.
//
// A key missing from translator (or an ancestor the translator does not know)
// is a stale reference: the caller is holding a selection from a previous
// file. It is reported as [errors.ErrCodeStaleReference]; no recovery is
// attempted.
func Ancestors(src AncestorSource, translator map[string]string, key string) ([]string, error) {
	reverse := make(map[string]string, len(translator))
	for ptr, k := range translator {
		reverse[k] = ptr
	}

	ptr, ok := reverse[key]
	if !ok {
		return nil, errors.New(errors.ErrCodeStaleReference, "%q is not part of the current file", key)
	}
	ind, ok := src.Individual(ptr)
	if !ok {
		return nil, errors.New(errors.ErrCodeStaleReference, "%s (%q) is not an individual of the current file", ptr, key)
	}

	chain := []string{key}
	for _, a := range src.AncestorsOf(ind) {
		k, ok := translator[a.Pointer()]
		if !ok {
			return nil, errors.New(errors.ErrCodeStaleReference, "ancestor %s is not part of the current file", a.Pointer())
		}
		chain = append(chain, k)
	}
	return chain, nil
}

// Ancestors is a convenience wrapper around [Ancestors] using g's translator.
func (g *Graph) Ancestors(src AncestorSource, key string) ([]string, error) {
	return Ancestors(src, g.Translator, key)
}
