package family

// ColorOptions selects the nodes that deviate from the base color.
// Each override applies only when both its subject and its color are set.
type ColorOptions struct {
	Ancestors     []string
	AncestorColor string

	Individual      string // root of the ancestor chain
	IndividualColor string

	Highlight      string // a second, independently chosen individual
	HighlightColor string
}

// Colorize assigns one color to every node.
//
// Colors are applied in increasing precedence: base, then ancestors (only
// those present in nodes), then the individual, then the highlight. The
// individual and highlight are set even when they are not in nodes; callers
// are expected to pass members of the graph.
func Colorize(nodes []string, base string, opts ColorOptions) map[string]string {
	colors := make(map[string]string, len(nodes))
	for _, n := range nodes {
		colors[n] = base
	}

	if len(opts.Ancestors) > 0 && opts.AncestorColor != "" {
		for _, a := range opts.Ancestors {
			if _, ok := colors[a]; ok {
				colors[a] = opts.AncestorColor
			}
		}
	}

	if opts.Individual != "" && opts.IndividualColor != "" {
		colors[opts.Individual] = opts.IndividualColor
	}

	if opts.Highlight != "" && opts.HighlightColor != "" {
		colors[opts.Highlight] = opts.HighlightColor
	}

	return colors
}
