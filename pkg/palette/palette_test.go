package palette

import (
	"slices"
	"testing"

	"github.com/matzehuels/astra/pkg/errors"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"#FF0051", "#FF0051", false},
		{"#ff0051", "#FF0051", false},
		{" #abc ", "#AABBCC", false},
		{"#A679FFCC", "#A679FF", false},
		{"FF0051", "", true},
		{"#GG0000", "", true},
		{"#1234", "", true},
		{"", "", true},
		{"#", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Validate(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidColor) {
				t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidColor)
			}
			if got != tt.want {
				t.Errorf("Validate(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDarken(t *testing.T) {
	tests := []struct {
		color  string
		amount float64
		want   string
	}{
		{"#FFFFFF", 0, "#FFFFFF"},
		{"#FFFFFF", 0.5, "#7F7F7F"},
		{"#FFFFFF", 1, "#000000"},
		{"#FF0051", 0.5, "#7F0028"},
		{"#FFFFFF", -1, "#FFFFFF"},
		{"#FFFFFF", 3, "#000000"},
	}
	for _, tt := range tests {
		got, err := Darken(tt.color, tt.amount)
		if err != nil {
			t.Fatalf("Darken(%q, %v): %v", tt.color, tt.amount, err)
		}
		if got != tt.want {
			t.Errorf("Darken(%q, %v) = %q, want %q", tt.color, tt.amount, got, tt.want)
		}
	}

	if _, err := Darken("red", 0.1); !errors.IsValidation(err) {
		t.Errorf("Darken(red) error = %v, want validation error", err)
	}
}

func TestBuiltinsValid(t *testing.T) {
	for _, p := range NewRegistry().All() {
		q := p
		if err := q.Validate(); err != nil {
			t.Errorf("built-in %q: %v", p.Name, err)
		}
		if q != p {
			t.Errorf("built-in %q is not normalized: %+v", p.Name, p)
		}
	}
}

func TestLookup(t *testing.T) {
	p, err := Lookup("")
	if err != nil || p.Name != Default {
		t.Errorf("Lookup(\"\") = %v, %v; want %s", p.Name, err, Default)
	}

	p, err = Lookup("nightly")
	if err != nil {
		t.Fatalf("Lookup(nightly): %v", err)
	}
	if p.Background != "#213B52" {
		t.Errorf("Nightly background = %s", p.Background)
	}

	if _, err := Lookup("Neon"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Lookup(Neon) error = %v, want not found", err)
	}
}

func TestRegistryAdd(t *testing.T) {
	r := NewRegistry()
	custom := Palette{
		Name:       "Forest",
		Background: "#0b2",
		Individual: "#ffffff",
		Root:       "#FF0000",
		Ancestor:   "#00FF00",
		Highlight:  "#0000FF",
	}
	if err := r.Add(custom); err != nil {
		t.Fatalf("Add: %v", err)
	}
	p, err := r.Lookup("FOREST")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if p.Background != "#00BB22" || p.Individual != "#FFFFFF" {
		t.Errorf("colors not normalized: %+v", p)
	}
	if names := r.Names(); names[len(names)-1] != "Forest" {
		t.Errorf("Names = %v, want Forest last", names)
	}

	// Replacing keeps the position.
	custom.Root = "#123456"
	if err := r.Add(custom); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if n := len(r.Names()); n != len(builtin)+1 {
		t.Errorf("len(Names) = %d, want %d", n, len(builtin)+1)
	}

	// The package registry is untouched.
	if slices.Contains(Names(), "Forest") {
		t.Error("custom palette leaked into the default registry")
	}
}

func TestRegistryAddInvalid(t *testing.T) {
	r := NewRegistry()
	if err := r.Add(Palette{Name: " "}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("empty name error = %v", err)
	}
	bad := Palette{Name: "Bad", Background: "#000", Individual: "white", Root: "#000", Ancestor: "#000", Highlight: "#000"}
	if err := r.Add(bad); !errors.Is(err, errors.ErrCodeInvalidColor) {
		t.Errorf("bad color error = %v", err)
	}
	if _, err := r.Lookup("Bad"); err == nil {
		t.Error("invalid palette should not be registered")
	}
}
