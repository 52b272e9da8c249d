// Package palette holds the color schemes used to paint family graphs.
//
// A [Palette] names five colors: the page background, the default node color
// and the three override colors used by the colorizer (root individual, its
// ancestors and the highlighted individual). Built-in palettes are listed by
// [Names]; additional ones can be registered from configuration with
// [Registry.Add].
//
// All colors are stored as "#RRGGBB". [Validate] accepts the short "#RGB" and
// alpha "#RRGGBBAA" forms and normalizes them.
package palette

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/matzehuels/astra/pkg/errors"
)

// Default is the palette used when none is selected.
const Default = "Classic"

// Palette is a named color scheme.
type Palette struct {
	Name       string `json:"name" toml:"-"`
	Background string `json:"background" toml:"background"`
	Individual string `json:"individual" toml:"individual"`
	Root       string `json:"root" toml:"root"`
	Ancestor   string `json:"ancestor" toml:"ancestor"`
	Highlight  string `json:"highlight" toml:"highlight"`
}

// Validate normalizes every color of p in place and reports the first invalid one.
func (p *Palette) Validate() error {
	fields := []struct {
		name string
		ptr  *string
	}{
		{"background", &p.Background},
		{"individual", &p.Individual},
		{"root", &p.Root},
		{"ancestor", &p.Ancestor},
		{"highlight", &p.Highlight},
	}
	for _, f := range fields {
		c, err := Validate(*f.ptr)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidColor, err, "palette %q: %s color", p.Name, f.name)
		}
		*f.ptr = c
	}
	return nil
}

var builtin = []Palette{
	{Name: "Classic", Background: "#222222", Individual: "#FFFFFF", Root: "#FF0051", Ancestor: "#FFA500", Highlight: "#A679FF"},
	{Name: "Pastel", Background: "#FFF0DB", Individual: "#EED9C4", Root: "#F6A192", Ancestor: "#C2DCF7", Highlight: "#B19CD8"},
	{Name: "Nightly", Background: "#213B52", Individual: "#FFFFFF", Root: "#FDC134", Ancestor: "#FDC134", Highlight: "#FDC134"},
	{Name: "Grayscale", Background: "#FFFFFF", Individual: "#EEEEEE", Root: "#A3A3A3", Ancestor: "#CCCCCC", Highlight: "#BBBBBB"},
	{Name: "Colorblind-friendly (Tol light)", Background: "#DDDDDD", Individual: "#EEDD88", Root: "#EE8866", Ancestor: "#99DDFF", Highlight: "#FFAABB"},
}

// Registry is a set of palettes. The zero value is not usable; call
// [NewRegistry]. A Registry is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	order []string
	byKey map[string]Palette
}

// NewRegistry returns a registry preloaded with the built-in palettes.
func NewRegistry() *Registry {
	r := &Registry{byKey: make(map[string]Palette, len(builtin))}
	for _, p := range builtin {
		r.order = append(r.order, p.Name)
		r.byKey[key(p.Name)] = p
	}
	return r
}

// Add registers or replaces a palette after validating its colors.
func (r *Registry) Add(p Palette) error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New(errors.ErrCodeInvalidInput, "palette name cannot be empty")
	}
	if err := p.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key(p.Name)
	if _, ok := r.byKey[k]; !ok {
		r.order = append(r.order, p.Name)
	}
	r.byKey[k] = p
	return nil
}

// Lookup finds a palette by name, ignoring case. An empty name selects [Default].
func (r *Registry) Lookup(name string) (Palette, error) {
	if name == "" {
		name = Default
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byKey[key(name)]
	if !ok {
		return Palette{}, errors.New(errors.ErrCodeNotFound, "unknown palette %q (available: %s)",
			name, strings.Join(r.order, ", "))
	}
	return p, nil
}

// All returns every palette in registration order.
func (r *Registry) All() []Palette {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Palette, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.byKey[key(n)])
	}
	return out
}

// Names returns the palette names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

var defaultRegistry = NewRegistry()

// Lookup finds a built-in palette by name.
func Lookup(name string) (Palette, error) { return defaultRegistry.Lookup(name) }

// Names lists the built-in palettes.
func Names() []string { return defaultRegistry.Names() }

// Validate checks that color is a hex color and returns it as "#RRGGBB".
// The "#RGB" form is expanded and the alpha channel of "#RRGGBBAA" dropped.
func Validate(color string) (string, error) {
	c := strings.TrimSpace(color)
	if !strings.HasPrefix(c, "#") {
		return "", errors.New(errors.ErrCodeInvalidColor, "color %q must start with '#'", color)
	}
	hex := c[1:]
	for _, r := range hex {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return "", errors.New(errors.ErrCodeInvalidColor, "color %q is not hexadecimal", color)
		}
	}
	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6:
	case 8:
		hex = hex[:6]
	default:
		return "", errors.New(errors.ErrCodeInvalidColor, "color %q must have 3, 6 or 8 hex digits", color)
	}
	return "#" + strings.ToUpper(hex), nil
}

// Darken scales each RGB channel of color by 1-amount. amount is clamped to
// [0, 1]; an invalid color is an error.
func Darken(color string, amount float64) (string, error) {
	c, err := Validate(color)
	if err != nil {
		return "", err
	}
	amount = min(max(amount, 0), 1)

	out := make([]byte, 0, 7)
	out = append(out, '#')
	for i := 1; i < 7; i += 2 {
		v, _ := strconv.ParseUint(c[i:i+2], 16, 8)
		scaled := int(float64(v) * (1 - amount))
		out = fmt.Appendf(out, "%02X", scaled)
	}
	return string(out), nil
}
