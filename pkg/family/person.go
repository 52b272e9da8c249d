package family

import (
	"regexp"
	"strings"

	"github.com/matzehuels/astra/pkg/gedcom"
)

// emptyFieldRe matches the ", ," runs left behind by empty place components.
var emptyFieldRe = regexp.MustCompile(`,\s*,`)

// Person is the graph builder's view of one individual.
type Person struct {
	Pointer    string // GEDCOM cross-reference, e.g. "@I1@"
	ID         string // Pointer without "@" delimiters, e.g. "I1"
	Name       string // Given name and surname joined by a space
	BirthPlace string
	BirthDate  string
}

// NewPerson extracts the fields the graph needs from an INDI record.
func NewPerson(ind *gedcom.Individual) Person {
	date, place := ind.Birth()
	return Person{
		Pointer:    ind.Pointer(),
		ID:         strings.ReplaceAll(ind.Pointer(), "@", ""),
		Name:       ind.FullName(),
		BirthPlace: place,
		BirthDate:  date,
	}
}

// Key returns the long id "<name> (<id>)" used as the node key.
func (p Person) Key() string {
	return p.Name + " (" + p.ID + ")"
}

// Label returns the display text: name, birth place and birth date on
// separate lines, with empty place components collapsed.
func (p Person) Label() string {
	return CleanLabel(p.Name + " \n " + p.BirthPlace + " \n " + p.BirthDate)
}

// CleanLabel repeatedly collapses ", , " runs into a single ",".
func CleanLabel(s string) string {
	for strings.Contains(s, ", , ") {
		s = emptyFieldRe.ReplaceAllString(s, ",")
	}
	return s
}
