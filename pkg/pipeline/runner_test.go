package pipeline

import (
	"bytes"
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/astra/pkg/cache"
	"github.com/matzehuels/astra/pkg/errors"
	"github.com/matzehuels/astra/pkg/session"
)

const (
	john = "John Smith (I1)"
	mary = "Mary Jones (I2)"
	anne = "Anne Smith (I3)"
)

const nuclear = `0 HEAD
0 @I1@ INDI
1 NAME John /Smith/
1 BIRT
2 DATE 1 JAN 1900
2 PLAC London, England
1 FAMS @F1@
0 @I2@ INDI
1 NAME Mary /Jones/
1 FAMS @F1@
0 @I3@ INDI
1 NAME Anne /Smith/
1 FAMC @F1@
0 @F1@ FAM
1 HUSB @I1@
1 WIFE @I2@
1 CHIL @I3@
0 TRLR`

const couple = `0 HEAD
0 @I1@ INDI
1 NAME Ada /Byron/
1 FAMS @F1@
0 @I2@ INDI
1 NAME William /King/
1 FAMS @F1@
0 @F1@ FAM
0 TRLR
`

func newTestRunner(t *testing.T) (*Runner, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	return NewRunner(cache.NewMemoryCache(), nil, session.NewMemoryStore(), logger), &buf
}

func colorOf(t *testing.T, res *Result, id string) string {
	t.Helper()
	n, ok := res.Graph.Node(id)
	if !ok {
		t.Fatalf("node %q missing", id)
	}
	return n.Color
}

func TestExecuteDefaults(t *testing.T) {
	r, _ := newTestRunner(t)
	res, err := r.Execute(context.Background(), []byte(nuclear), Options{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	g := res.Graph
	if g.Root != john {
		t.Errorf("Root = %q, want %q", g.Root, john)
	}
	if !slices.Equal(g.Ancestors, []string{john}) {
		t.Errorf("Ancestors = %v, want [%s]", g.Ancestors, john)
	}
	if g.Background != "#222222" {
		t.Errorf("Background = %q", g.Background)
	}
	if got := colorOf(t, res, john); got != "#FF0051" {
		t.Errorf("root color = %q", got)
	}
	if got := colorOf(t, res, mary); got != "#FFFFFF" {
		t.Errorf("mary color = %q", got)
	}
	if len(g.Edges) != 3 {
		t.Errorf("Edges = %v", g.Edges)
	}
	for _, n := range g.Nodes {
		if n.Outline == "" || n.Outline == n.Color {
			t.Errorf("node %q outline = %q, want a darker shade of %q", n.ID, n.Outline, n.Color)
		}
		if n.X == nil || n.Y == nil {
			t.Errorf("node %q has no position", n.ID)
		}
	}
	root, _ := g.Node(john)
	if *root.X != 0 || *root.Y != 0 {
		t.Errorf("root at (%v, %v), want the origin", *root.X, *root.Y)
	}
	if res.Stats.Individuals != 3 || res.Stats.NodeCount != 3 || res.Stats.EdgeCount != 3 {
		t.Errorf("Stats = %+v", res.Stats)
	}
	if res.Hash != cache.Hash([]byte(nuclear)) {
		t.Error("Hash should be the hash of the raw upload")
	}
}

func TestExecuteRootAncestors(t *testing.T) {
	r, _ := newTestRunner(t)
	res, err := r.Execute(context.Background(), []byte(nuclear), Options{Root: anne, Highlight: HighlightAuto})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if want := []string{anne, john, mary}; !slices.Equal(res.Graph.Ancestors, want) {
		t.Errorf("Ancestors = %v, want %v", res.Graph.Ancestors, want)
	}
	if got := colorOf(t, res, anne); got != "#FF0051" {
		t.Errorf("root color = %q", got)
	}
	// The default highlight (I2) takes precedence over the ancestor color.
	if res.Graph.Highlight != mary {
		t.Errorf("Highlight = %q, want %q", res.Graph.Highlight, mary)
	}
	if got := colorOf(t, res, mary); got != "#A679FF" {
		t.Errorf("highlight color = %q", got)
	}
	if got := colorOf(t, res, john); got != "#FFA500" {
		t.Errorf("ancestor color = %q", got)
	}
}

func TestExecuteNoRoot(t *testing.T) {
	r, _ := newTestRunner(t)
	res, err := r.Execute(context.Background(), []byte(nuclear), Options{NoRoot: true, SkipLayout: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Graph.Root != "" || len(res.Graph.Ancestors) != 0 {
		t.Errorf("Root = %q, Ancestors = %v; want none", res.Graph.Root, res.Graph.Ancestors)
	}
	for _, n := range res.Graph.Nodes {
		if n.Color != "#FFFFFF" {
			t.Errorf("node %q color = %q, want the individual color", n.ID, n.Color)
		}
		if n.X != nil {
			t.Errorf("node %q positioned with layout disabled", n.ID)
		}
	}
}

func TestExecuteSkipAncestors(t *testing.T) {
	r, _ := newTestRunner(t)
	res, err := r.Execute(context.Background(), []byte(nuclear), Options{Root: anne, SkipAncestors: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Graph.Ancestors) != 0 {
		t.Errorf("Ancestors = %v", res.Graph.Ancestors)
	}
	if got := colorOf(t, res, john); got != "#FFFFFF" {
		t.Errorf("john color = %q, want the individual color", got)
	}
}

func TestExecuteErrors(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		opts  Options
		check func(error) bool
	}{
		{"no header", "0 @I1@ INDI\n", Options{}, errors.IsValidation},
		{"duplicate ids", "0 HEAD\n0 @I1@ INDI\n0 @I1@ INDI\n", Options{}, errors.IsValidation},
		{"stale root", nuclear, Options{Root: "Ghost (I9)"}, errors.IsStaleReference},
		{"stale highlight", nuclear, Options{Highlight: "Ghost (I9)"}, errors.IsStaleReference},
		{"highlight is default root", nuclear, Options{Highlight: john}, func(err error) bool {
			return errors.Is(err, errors.ErrCodeInvalidInput)
		}},
		{"strict format", "0 HEAD\n0 @I1@ INDI\nnot a gedcom line\n", Options{Strict: true}, errors.IsFormatViolation},
		{"level jump", "0 HEAD\n0 @I1@ INDI\n3 NAME x\n", Options{}, errors.IsFormatViolation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRunner(t)
			_, err := r.Execute(context.Background(), []byte(tt.data), tt.opts)
			if err == nil || !tt.check(err) {
				t.Errorf("Execute error = %v", err)
			}
		})
	}
}

func TestExecuteLenientFolding(t *testing.T) {
	r, _ := newTestRunner(t)
	data := "0 HEAD\n0 @I1@ INDI\n1 NAME A /A/\nnot a gedcom line\n1 FAMS @F1@\n0 @I2@ INDI\n1 NAME B /B/\n1 FAMS @F1@\n0 @F1@ FAM\n"
	res, err := r.Execute(context.Background(), []byte(data), Options{SkipLayout: true})
	if err != nil {
		t.Fatalf("lenient Execute: %v", err)
	}
	if len(res.Graph.Edges) != 1 {
		t.Errorf("Edges = %v", res.Graph.Edges)
	}
}

func TestExecuteGraphCache(t *testing.T) {
	r, _ := newTestRunner(t)
	ctx := context.Background()

	first, err := r.Execute(ctx, []byte(nuclear), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.GraphHit {
		t.Error("first run should miss")
	}

	second, err := r.Execute(ctx, []byte(nuclear), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.GraphHit {
		t.Error("second run should be served from cache")
	}
	if len(second.Graph.Nodes) != len(first.Graph.Nodes) || second.Graph.Root != first.Graph.Root {
		t.Error("cached graph differs")
	}
	if second.Stats.Individuals != first.Stats.Individuals || second.Stats.Anomalies != first.Stats.Anomalies ||
		second.Stats.NodeCount != first.Stats.NodeCount || second.Stats.EdgeCount != first.Stats.EdgeCount {
		t.Errorf("cached stats = %+v, want the counts of %+v", second.Stats, first.Stats)
	}
	if second.Stats.Individuals != 3 {
		t.Errorf("cached Stats.Individuals = %d, want 3", second.Stats.Individuals)
	}

	third, _ := r.Execute(ctx, []byte(nuclear), Options{Palette: "Nightly"})
	if third.CacheInfo.GraphHit {
		t.Error("a different palette must not hit the cache")
	}
	if !third.CacheInfo.LayoutHit {
		t.Error("the layout should be reused across palettes")
	}
}

func TestExecuteGraphCacheKeepsCounts(t *testing.T) {
	// Four spouses in one family form a tuple that cannot become an edge.
	const fourSpouses = `0 HEAD
0 @I1@ INDI
1 NAME A /A/
1 FAMS @F1@
0 @I2@ INDI
1 NAME B /B/
1 FAMS @F1@
0 @I3@ INDI
1 NAME C /C/
1 FAMS @F1@
0 @I4@ INDI
1 NAME D /D/
1 FAMS @F1@
0 @I5@ INDI
1 NAME E /E/
0 @F1@ FAM
0 TRLR
`
	r, _ := newTestRunner(t)
	ctx := context.Background()

	for i, wantHit := range []bool{false, true} {
		res, err := r.Execute(ctx, []byte(fourSpouses), Options{})
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if res.CacheInfo.GraphHit != wantHit {
			t.Errorf("run %d: GraphHit = %v, want %v", i, res.CacheInfo.GraphHit, wantHit)
		}
		if res.Stats.Individuals != 5 || res.Stats.Anomalies != 1 || res.Stats.NodeCount != 4 {
			t.Errorf("run %d: Stats = %+v, want 5 individuals, 4 nodes, 1 anomaly", i, res.Stats)
		}
	}
}

func TestExecuteSessionInvalidatesLayout(t *testing.T) {
	r, logs := newTestRunner(t)
	ctx := context.Background()
	id := session.New(session.DefaultTTL).ID

	res, err := r.Execute(ctx, []byte(nuclear), Options{SessionID: id})
	if err != nil {
		t.Fatal(err)
	}
	if res.SessionID != id || res.CacheInfo.LayoutInvalidated {
		t.Errorf("first run: %+v", res.CacheInfo)
	}

	// Same file, different colors: layout kept.
	res, _ = r.Execute(ctx, []byte(nuclear), Options{SessionID: id, Palette: "Pastel"})
	if !res.CacheInfo.LayoutHit || res.CacheInfo.LayoutInvalidated {
		t.Errorf("same file: %+v", res.CacheInfo)
	}

	// New file in the same session: the old layout is dropped.
	res, err = r.Execute(ctx, []byte(couple), Options{SessionID: id})
	if err != nil {
		t.Fatal(err)
	}
	if !res.CacheInfo.LayoutInvalidated {
		t.Errorf("new file: %+v", res.CacheInfo)
	}

	// Going back recomputes the first file's layout.
	res, _ = r.Execute(ctx, []byte(nuclear), Options{SessionID: id, Palette: "Grayscale"})
	if res.CacheInfo.LayoutHit {
		t.Error("layout of the replaced file should have been invalidated")
	}
	if !strings.Contains(logs.String(), "layout reset") {
		t.Error("invalidation should be logged")
	}

	sess, _ := r.Sessions.Get(ctx, id)
	if sess == nil || sess.FileHash != cache.Hash([]byte(nuclear)) {
		t.Errorf("session = %+v", sess)
	}
}

func TestExecuteInvalidSessionID(t *testing.T) {
	r, _ := newTestRunner(t)
	_, err := r.Execute(context.Background(), []byte(nuclear), Options{SessionID: "../../etc"})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("error = %v", err)
	}
}

func TestRunnerAncestors(t *testing.T) {
	r, _ := newTestRunner(t)
	ctx := context.Background()

	chain, err := r.Ancestors(ctx, []byte(nuclear), anne, false)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{anne, john, mary}; !slices.Equal(chain, want) {
		t.Errorf("Ancestors = %v, want %v", chain, want)
	}

	if _, err := r.Ancestors(ctx, []byte(nuclear), "Ghost (I9)", false); !errors.IsStaleReference(err) {
		t.Errorf("stale key error = %v", err)
	}
	if _, err := r.Ancestors(ctx, []byte(nuclear), "", false); !errors.IsValidation(err) {
		t.Errorf("empty key error = %v", err)
	}
}

func TestLoad(t *testing.T) {
	r := NewRunner(nil, nil, nil, nil)
	loaded, err := r.Load(context.Background(), []byte("\ufeff"+nuclear), false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Family.Nodes) != 3 {
		t.Errorf("Nodes = %v", loaded.Family.Nodes)
	}
	if loaded.Hash != cache.Hash([]byte("\ufeff"+nuclear)) {
		t.Error("Hash mismatch")
	}
}
