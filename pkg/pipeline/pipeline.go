// Package pipeline turns an uploaded GEDCOM file into a colored, positioned
// family graph.
//
// The same [Runner] backs the CLI and the HTTP server so both apply the same
// defaults, caching and session handling.
//
// # Stages
//
//  1. Load: validate the header, parse the record and build the family graph
//  2. Select: resolve the root and highlighted individual, collect ancestors
//  3. Color: apply the palette and overrides, derive outline colors
//  4. Layout: seed positions around the root, cached per file hash
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, sessions, logger)
//	result, err := runner.Execute(ctx, data, pipeline.Options{
//	    Palette:   "Pastel",
//	    Highlight: pipeline.HighlightAuto,
//	})
//	if err != nil {
//	    return err
//	}
//	graph.WriteGraph(result.Graph, os.Stdout)
//
// Load alone is enough for callers that only need the record:
//
//	loaded, err := runner.Load(ctx, data, false)
//	chain, err := loaded.Family.Ancestors(loaded.Record, key)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/astra/pkg/cache"
	"github.com/matzehuels/astra/pkg/errors"
	"github.com/matzehuels/astra/pkg/family"
	"github.com/matzehuels/astra/pkg/gedcom"
	"github.com/matzehuels/astra/pkg/graph"
	"github.com/matzehuels/astra/pkg/palette"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// OutlineDarken is how much node outlines are darkened relative to the fill.
	OutlineDarken = 0.2

	// HighlightAuto selects the default highlight: the individual with id I2,
	// or the first node other than the root.
	HighlightAuto = "auto"
)

// =============================================================================
// Options
// =============================================================================

// Options configures one pipeline run. The zero value renders the default
// palette with the default root, its ancestors and a seed layout.
type Options struct {
	// Palette selects the color scheme; empty means palette.Default.
	Palette string `json:"palette,omitempty"`

	// Color overrides. Empty fields fall back to the palette.
	Background      string `json:"background,omitempty"`
	IndividualColor string `json:"individual_color,omitempty"`
	RootColor       string `json:"root_color,omitempty"`
	AncestorColor   string `json:"ancestor_color,omitempty"`
	HighlightColor  string `json:"highlight_color,omitempty"`

	// Root is the long id the ancestor chain starts from. Empty selects the
	// default root (id I1 or the first node in sorted order).
	Root string `json:"root,omitempty"`

	// NoRoot disables root selection; every node gets the individual color.
	NoRoot bool `json:"no_root,omitempty"`

	// Highlight is a second individual colored independently of the root.
	// Empty means none; HighlightAuto picks the default.
	Highlight string `json:"highlight,omitempty"`

	SkipAncestors bool `json:"skip_ancestors,omitempty"`
	SkipLayout    bool `json:"skip_layout,omitempty"`

	// Strict parses the file in strict mode.
	Strict bool `json:"strict,omitempty"`

	// SessionID ties the run to a session whose previous file hash decides
	// layout invalidation. Empty runs without a session.
	SessionID string `json:"session_id,omitempty"`

	// Runtime options (not serialized)
	Logger   *log.Logger       `json:"-"`
	Palettes *palette.Registry `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the wire graph.
	Graph graph.Graph

	// Hash is the SHA-256 of the uploaded bytes.
	Hash string

	// SessionID is the session the run was recorded in, if any.
	SessionID string

	// Palette is the resolved color scheme after overrides.
	Palette palette.Palette

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Individuals int
	NodeCount   int
	EdgeCount   int
	Anomalies   int
	ParseTime   time.Duration
	BuildTime   time.Duration
	LayoutTime  time.Duration
}

// CacheInfo tracks cache activity for one run.
type CacheInfo struct {
	GraphHit          bool // The whole wire graph came from cache
	LayoutHit         bool // Positions came from cache
	LayoutInvalidated bool // A different file replaced the session's previous one
}

// Loaded is a parsed record together with the graph built from it.
type Loaded struct {
	Record *gedcom.Record
	Family *family.Graph
	Hash   string
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks selections and colors and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Palettes == nil {
		o.Palettes = palette.NewRegistry()
	}
	if o.Palette == "" {
		o.Palette = palette.Default
	}
	if _, err := o.Palettes.Lookup(o.Palette); err != nil {
		return err
	}

	for _, c := range []*string{&o.Background, &o.IndividualColor, &o.RootColor, &o.AncestorColor, &o.HighlightColor} {
		if *c == "" {
			continue
		}
		v, err := palette.Validate(*c)
		if err != nil {
			return err
		}
		*c = v
	}

	if o.Root != "" {
		if err := errors.ValidateSelection(o.Root); err != nil {
			return err
		}
	}
	if o.Highlight != "" && o.Highlight != HighlightAuto {
		if err := errors.ValidateSelection(o.Highlight); err != nil {
			return err
		}
		if o.Highlight == o.Root {
			return errors.New(errors.ErrCodeInvalidInput, "highlight must differ from the root")
		}
	}
	if o.NoRoot && o.Root != "" {
		return errors.New(errors.ErrCodeInvalidInput, "root and no-root are mutually exclusive")
	}

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// ResolvePalette returns the selected palette with overrides applied.
// Call ValidateAndSetDefaults first.
func (o *Options) ResolvePalette() (palette.Palette, error) {
	p, err := o.Palettes.Lookup(o.Palette)
	if err != nil {
		return palette.Palette{}, err
	}
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&p.Background, o.Background)
	override(&p.Individual, o.IndividualColor)
	override(&p.Root, o.RootColor)
	override(&p.Ancestor, o.AncestorColor)
	override(&p.Highlight, o.HighlightColor)
	return p, nil
}

// GraphKeyOpts returns cache key options for the wire graph. Color overrides
// are folded in through the resolved palette.
func (o *Options) GraphKeyOpts(p palette.Palette) cache.GraphKeyOpts {
	return cache.GraphKeyOpts{
		Palette:   p.Background + p.Individual + p.Root + p.Ancestor + p.Highlight,
		Root:      o.rootKey(),
		Highlight: o.Highlight,
		Ancestors: !o.SkipAncestors,
		Layout:    !o.SkipLayout,
		Strict:    o.Strict,
	}
}

func (o *Options) rootKey() string {
	if o.NoRoot {
		return "\x00none"
	}
	return o.Root
}
