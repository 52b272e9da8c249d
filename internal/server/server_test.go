package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/astra/pkg/cache"
	"github.com/matzehuels/astra/pkg/errors"
	"github.com/matzehuels/astra/pkg/observability"
	"github.com/matzehuels/astra/pkg/palette"
	"github.com/matzehuels/astra/pkg/pipeline"
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
0 TRLR
`

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

func newTestServer(t *testing.T, cfg Config) (*Server, *session.MemoryStore) {
	t.Helper()
	logger := log.NewWithOptions(&strings.Builder{}, log.Options{Level: log.DebugLevel})
	sessions := session.NewMemoryStore()
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(cache.NewMemoryCache(), nil, sessions, logger)
	}
	cfg.Logger = logger
	return New(cfg), sessions
}

func do(t *testing.T, s *Server, method, target, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response: %v\n%s", err, w.Body.String())
	}
	return v
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	w := do(t, s, http.MethodGet, "/healthz", "", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	resp := decode[HealthResponse](t, w)
	if resp.Status != "ok" {
		t.Errorf("Status = %q, want ok", resp.Status)
	}
	if resp.Version == "" {
		t.Error("Version should be set")
	}
}

func TestPalettes(t *testing.T) {
	reg := palette.NewRegistry()
	if err := reg.Add(palette.Palette{Name: "Forest", Background: "#102010", Individual: "#E0F0E0", Root: "#FF6F3C", Ancestor: "#9BC53D", Highlight: "#5BC0EB"}); err != nil {
		t.Fatal(err)
	}
	s, _ := newTestServer(t, Config{Palettes: reg})
	w := do(t, s, http.MethodGet, "/v1/palettes", "", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	got := decode[[]palette.Palette](t, w)
	names := make([]string, len(got))
	for i, p := range got {
		names[i] = p.Name
	}
	if names[0] != palette.Default {
		t.Errorf("first palette = %q, want %q", names[0], palette.Default)
	}
	if !slices.Contains(names, "Forest") {
		t.Errorf("custom palette missing from %v", names)
	}
}

func TestGraph(t *testing.T) {
	s, sessions := newTestServer(t, Config{})
	w := do(t, s, http.MethodPost, "/v1/graph?highlight=auto", nuclear, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	id := w.Header().Get(SessionHeader)
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("%s = %q, want a uuid", SessionHeader, id)
	}
	if sess, _ := sessions.Get(context.Background(), id); sess == nil {
		t.Error("session was not stored")
	}

	resp := decode[GraphResponse](t, w)
	if resp.SessionID != id {
		t.Errorf("SessionID = %q, want %q", resp.SessionID, id)
	}
	if resp.Graph.Root != john {
		t.Errorf("Root = %q, want %q", resp.Graph.Root, john)
	}
	if resp.Graph.Highlight != mary {
		t.Errorf("Highlight = %q, want %q", resp.Graph.Highlight, mary)
	}
	if len(resp.Graph.Nodes) != 3 || len(resp.Graph.Edges) != 3 {
		t.Errorf("graph has %d nodes, %d edges; want 3, 3", len(resp.Graph.Nodes), len(resp.Graph.Edges))
	}
	if resp.Stats.Individuals != 3 {
		t.Errorf("Stats.Individuals = %d, want 3", resp.Stats.Individuals)
	}
	if resp.Palette.Name != palette.Default {
		t.Errorf("Palette = %q", resp.Palette.Name)
	}
	for _, n := range resp.Graph.Nodes {
		if n.X == nil || n.Y == nil {
			t.Errorf("node %q has no position", n.ID)
		}
	}
}

func TestGraphQueryOptions(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	q := url.Values{
		"palette":    {"pastel"},
		"root":       {anne},
		"no_layout":  {"true"},
		"root_color": {"#0f0"},
	}
	w := do(t, s, http.MethodPost, "/v1/graph?"+q.Encode(), nuclear, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	resp := decode[GraphResponse](t, w)
	if resp.Palette.Name != "Pastel" {
		t.Errorf("Palette = %q, want Pastel", resp.Palette.Name)
	}
	if !slices.Equal(resp.Graph.Ancestors, []string{anne, john, mary}) {
		t.Errorf("Ancestors = %v", resp.Graph.Ancestors)
	}
	for _, n := range resp.Graph.Nodes {
		if n.X != nil {
			t.Errorf("node %q has a position with no_layout", n.ID)
		}
		if n.ID == anne && n.Color != "#00FF00" {
			t.Errorf("root color = %q, want #00FF00", n.Color)
		}
	}
}

func TestGraphSessionReuse(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	id := uuid.NewString()
	h := http.Header{SessionHeader: {id}}

	first := decode[GraphResponse](t, do(t, s, http.MethodPost, "/v1/graph", nuclear, h))
	if first.SessionID != id {
		t.Fatalf("SessionID = %q, want %q", first.SessionID, id)
	}
	if first.Cache.LayoutHit {
		t.Error("first upload should compute the layout")
	}

	again := decode[GraphResponse](t, do(t, s, http.MethodPost, "/v1/graph?palette=Nightly", nuclear, h))
	if !again.Cache.LayoutHit {
		t.Error("same file should reuse the cached layout")
	}

	changed := decode[GraphResponse](t, do(t, s, http.MethodPost, "/v1/graph", couple, h))
	if !changed.Cache.LayoutInvalidated {
		t.Error("a different file should reset the session's layout")
	}
}

func TestGraphErrors(t *testing.T) {
	garbled := strings.Replace(nuclear, "1 NAME Mary /Jones/\n", "1 NAME Mary /Jones/\nnot a gedcom line\n", 1)

	tests := []struct {
		name   string
		target string
		body   string
		header http.Header
		status int
		code   errors.Code
	}{
		{"invalid header", "/v1/graph", "hello world", nil, http.StatusBadRequest, errors.ErrCodeInvalidHeader},
		{"empty body", "/v1/graph", "", nil, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"stale root", "/v1/graph?root=" + url.QueryEscape("Nobody (I9)"), nuclear, nil, http.StatusConflict, errors.ErrCodeStaleReference},
		{"stale highlight", "/v1/graph?highlight=" + url.QueryEscape("Nobody (I9)"), nuclear, nil, http.StatusConflict, errors.ErrCodeStaleReference},
		{"invalid color", "/v1/graph?background=blue", nuclear, nil, http.StatusBadRequest, errors.ErrCodeInvalidColor},
		{"unknown palette", "/v1/graph?palette=Neon", nuclear, nil, http.StatusBadRequest, errors.ErrCodeNotFound},
		{"invalid bool", "/v1/graph?strict=maybe", nuclear, nil, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"wrong extension", "/v1/graph?filename=tree.txt", nuclear, nil, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"strict format violation", "/v1/graph?strict=true", garbled, nil, http.StatusBadRequest, errors.ErrCodeFormatViolation},
		{"invalid session", "/v1/graph", nuclear, http.Header{SessionHeader: {"../etc"}}, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"root and no root", "/v1/graph?no_root=1&root=" + url.QueryEscape(john), nuclear, nil, http.StatusBadRequest, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, Config{})
			w := do(t, s, http.MethodPost, tt.target, tt.body, tt.header)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.status, w.Body.String())
			}
			resp := decode[ErrorResponse](t, w)
			if resp.Code != tt.code {
				t.Errorf("code = %q, want %q", resp.Code, tt.code)
			}
			if resp.Message == "" {
				t.Error("message should not be empty")
			}
		})
	}
}

func TestGraphFormatViolationMessage(t *testing.T) {
	garbled := strings.Replace(nuclear, "1 NAME Mary /Jones/\n", "1 NAME Mary /Jones/\nnot a gedcom line\n", 1)
	s, _ := newTestServer(t, Config{})
	w := do(t, s, http.MethodPost, "/v1/graph?strict=true", garbled, nil)

	resp := decode[ErrorResponse](t, w)
	if !strings.Contains(resp.Message, "Gramps") {
		t.Errorf("message = %q, want re-export guidance", resp.Message)
	}
}

func TestGraphTooLarge(t *testing.T) {
	s, _ := newTestServer(t, Config{MaxUploadBytes: 16})
	w := do(t, s, http.MethodPost, "/v1/graph", nuclear, nil)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusRequestEntityTooLarge)
	}
}

func TestGraphDefaults(t *testing.T) {
	s, _ := newTestServer(t, Config{Defaults: pipeline.Options{Palette: "Grayscale", SkipAncestors: true}})
	resp := decode[GraphResponse](t, do(t, s, http.MethodPost, "/v1/graph", nuclear, nil))

	if resp.Palette.Name != "Grayscale" {
		t.Errorf("Palette = %q, want Grayscale", resp.Palette.Name)
	}
	if len(resp.Graph.Ancestors) != 0 {
		t.Errorf("Ancestors = %v, want none", resp.Graph.Ancestors)
	}

	// Query parameters override defaults.
	resp = decode[GraphResponse](t, do(t, s, http.MethodPost, "/v1/graph?no_ancestors=false", nuclear, nil))
	if len(resp.Graph.Ancestors) == 0 {
		t.Error("no_ancestors=false should restore ancestors")
	}
}

func TestAncestors(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	w := do(t, s, http.MethodPost, "/v1/ancestors?individual="+url.QueryEscape(anne), nuclear, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	resp := decode[AncestorsResponse](t, w)
	if !slices.Equal(resp.Ancestors, []string{anne, john, mary}) {
		t.Errorf("Ancestors = %v, want [%s %s %s]", resp.Ancestors, anne, john, mary)
	}

	w = do(t, s, http.MethodPost, "/v1/ancestors", nuclear, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing individual: status = %d, want 400", w.Code)
	}

	w = do(t, s, http.MethodPost, "/v1/ancestors?individual="+url.QueryEscape("Nobody (I9)"), nuclear, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("unknown individual: status = %d, want 409", w.Code)
	}
}

func TestDeleteSession(t *testing.T) {
	s, sessions := newTestServer(t, Config{})
	id := do(t, s, http.MethodPost, "/v1/graph", nuclear, nil).Header().Get(SessionHeader)

	w := do(t, s, http.MethodDelete, "/v1/sessions/"+id, "", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if sess, _ := sessions.Get(context.Background(), id); sess != nil {
		t.Error("session should be deleted")
	}

	w = do(t, s, http.MethodDelete, "/v1/sessions/not-a-session", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid id: status = %d, want 400", w.Code)
	}
}

func TestNotFoundRoute(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	if w := do(t, s, http.MethodGet, "/v1/nothing", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

type recordingHTTPHooks struct {
	mu        sync.Mutex
	requests  int
	responses []int
	errors    int
}

func (h *recordingHTTPHooks) OnRequest(context.Context, string, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.requests++
}

func (h *recordingHTTPHooks) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.responses = append(h.responses, status)
}

func (h *recordingHTTPHooks) OnError(context.Context, string, string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors++
}

func TestHTTPHooks(t *testing.T) {
	hooks := &recordingHTTPHooks{}
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	s, _ := newTestServer(t, Config{})
	do(t, s, http.MethodGet, "/healthz", "", nil)
	do(t, s, http.MethodPost, "/v1/graph", "hello", nil)

	if hooks.requests != 2 {
		t.Errorf("requests = %d, want 2", hooks.requests)
	}
	if !slices.Equal(hooks.responses, []int{http.StatusOK, http.StatusBadRequest}) {
		t.Errorf("responses = %v", hooks.responses)
	}
	if hooks.errors != 1 {
		t.Errorf("errors = %d, want 1", hooks.errors)
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	s, _ := newTestServer(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestCleanupSessions(t *testing.T) {
	s, sessions := newTestServer(t, Config{})
	expired := session.New(time.Millisecond)
	if err := sessions.Set(context.Background(), expired); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.cleanup(ctx, time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for sessions.Len() != 0 {
		select {
		case <-deadline:
			t.Fatal("expired session was not cleaned up")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
}

func TestCleanupCache(t *testing.T) {
	logger := log.NewWithOptions(&strings.Builder{}, log.Options{})
	mem := cache.NewMemoryCache()
	s, _ := newTestServer(t, Config{Runner: pipeline.NewRunner(mem, nil, nil, logger)})

	if err := mem.Set(context.Background(), "graph:old", []byte("g"), time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.cleanup(ctx, time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for mem.Len() != 0 {
		select {
		case <-deadline:
			t.Fatal("expired cache entry was not cleaned up")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
}
