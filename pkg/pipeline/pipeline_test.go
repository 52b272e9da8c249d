package pipeline

import (
	"testing"

	"github.com/matzehuels/astra/pkg/errors"
	"github.com/matzehuels/astra/pkg/palette"
)

func TestValidateAndSetDefaults(t *testing.T) {
	opts := Options{IndividualColor: "#abc"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if opts.Palette != palette.Default {
		t.Errorf("Palette = %q, want %q", opts.Palette, palette.Default)
	}
	if opts.IndividualColor != "#AABBCC" {
		t.Errorf("IndividualColor = %q, want normalized #AABBCC", opts.IndividualColor)
	}
	if opts.Logger == nil || opts.Palettes == nil {
		t.Error("runtime defaults not set")
	}

	// Idempotent
	opts.Palette = "does not exist"
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("second call should be a no-op, got %v", err)
	}
}

func TestValidateAndSetDefaultsErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"unknown palette", Options{Palette: "Neon"}, errors.ErrCodeNotFound},
		{"bad color", Options{RootColor: "crimson"}, errors.ErrCodeInvalidColor},
		{"highlight equals root", Options{Root: "A (I1)", Highlight: "A (I1)"}, errors.ErrCodeInvalidInput},
		{"control characters", Options{Root: "A\n(I1)"}, errors.ErrCodeInvalidInput},
		{"root with no-root", Options{Root: "A (I1)", NoRoot: true}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestResolvePalette(t *testing.T) {
	opts := Options{Palette: "pastel", Background: "#000000", HighlightColor: "#123"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	p, err := opts.ResolvePalette()
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "Pastel" {
		t.Errorf("Name = %q", p.Name)
	}
	if p.Background != "#000000" || p.Highlight != "#112233" {
		t.Errorf("overrides not applied: %+v", p)
	}
	if p.Root != "#F6A192" {
		t.Errorf("Root = %q, want palette value", p.Root)
	}
}

func TestGraphKeyOptsDistinguishSelections(t *testing.T) {
	p, _ := palette.Lookup("")
	a := Options{Root: "A (I1)"}
	b := Options{NoRoot: true}
	c := Options{}
	if a.GraphKeyOpts(p) == b.GraphKeyOpts(p) || b.GraphKeyOpts(p) == c.GraphKeyOpts(p) {
		t.Error("root selections must produce distinct key options")
	}
}
