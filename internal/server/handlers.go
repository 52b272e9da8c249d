package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matzehuels/astra/pkg/buildinfo"
	"github.com/matzehuels/astra/pkg/errors"
	"github.com/matzehuels/astra/pkg/graph"
	"github.com/matzehuels/astra/pkg/palette"
	"github.com/matzehuels/astra/pkg/pipeline"
	"github.com/matzehuels/astra/pkg/session"
)

// =============================================================================
// Response Types
// =============================================================================

// HealthResponse is the response for GET /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// GraphResponse is the response for POST /v1/graph.
type GraphResponse struct {
	SessionID string          `json:"session_id,omitempty"`
	Hash      string          `json:"hash"`
	Palette   palette.Palette `json:"palette"`
	Graph     graph.Graph     `json:"graph"`
	Stats     StatsResponse   `json:"stats"`
	Cache     CacheResponse   `json:"cache"`
}

// StatsResponse reports sizes and stage timings in milliseconds.
type StatsResponse struct {
	Individuals  int   `json:"individuals"`
	Nodes        int   `json:"nodes"`
	Edges        int   `json:"edges"`
	Anomalies    int   `json:"anomalies"`
	ParseMillis  int64 `json:"parse_ms"`
	LayoutMillis int64 `json:"layout_ms"`
}

// CacheResponse reports which stages were served from cache.
type CacheResponse struct {
	GraphHit          bool `json:"graph_hit"`
	LayoutHit         bool `json:"layout_hit"`
	LayoutInvalidated bool `json:"layout_invalidated"`
}

// AncestorsResponse is the response for POST /v1/ancestors.
type AncestorsResponse struct {
	Individual string   `json:"individual"`
	Ancestors  []string `json:"ancestors"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: buildinfo.Version})
}

func (s *Server) handlePalettes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.palettes.All())
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	data, err := readUpload(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	opts, err := s.graphOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.runner.Execute(r.Context(), data, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if result.SessionID != "" {
		w.Header().Set(SessionHeader, result.SessionID)
	}
	writeJSON(w, http.StatusOK, GraphResponse{
		SessionID: result.SessionID,
		Hash:      result.Hash,
		Palette:   result.Palette,
		Graph:     withEmptySlices(result.Graph),
		Stats: StatsResponse{
			Individuals:  result.Stats.Individuals,
			Nodes:        result.Stats.NodeCount,
			Edges:        result.Stats.EdgeCount,
			Anomalies:    result.Stats.Anomalies,
			ParseMillis:  result.Stats.ParseTime.Milliseconds(),
			LayoutMillis: result.Stats.LayoutTime.Milliseconds(),
		},
		Cache: CacheResponse{
			GraphHit:          result.CacheInfo.GraphHit,
			LayoutHit:         result.CacheInfo.LayoutHit,
			LayoutInvalidated: result.CacheInfo.LayoutInvalidated,
		},
	})
}

func (s *Server) handleAncestors(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("individual")
	strict, err := queryBool(r, "strict", s.defaults.Strict)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, err := readUpload(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	chain, err := s.runner.Ancestors(r.Context(), data, key, strict)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AncestorsResponse{Individual: key, Ancestors: chain})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !session.ValidID(id) {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid session id %q", id))
		return
	}
	if s.runner.Sessions != nil {
		if err := s.runner.Sessions.Delete(r.Context(), id); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Request Parsing
// =============================================================================

// readUpload reads the request body. A "filename" query parameter, when
// present, must name a .ged file.
func readUpload(r *http.Request) ([]byte, error) {
	if name := r.URL.Query().Get("filename"); name != "" {
		if err := errors.ValidateUploadName(name); err != nil {
			return nil, err
		}
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "request body must contain a GEDCOM file")
	}
	return data, nil
}

// graphOptions merges the server defaults with the query parameters and the
// session header.
func (s *Server) graphOptions(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := s.defaults
	opts.Palettes = s.palettes
	opts.Logger = s.logger

	str := func(dst *string, name string) {
		if v := q.Get(name); v != "" {
			*dst = v
		}
	}
	str(&opts.Palette, "palette")
	str(&opts.Root, "root")
	str(&opts.Highlight, "highlight")
	str(&opts.Background, "background")
	str(&opts.IndividualColor, "individual_color")
	str(&opts.RootColor, "root_color")
	str(&opts.AncestorColor, "ancestor_color")
	str(&opts.HighlightColor, "highlight_color")

	flags := []struct {
		dst  *bool
		name string
	}{
		{&opts.NoRoot, "no_root"},
		{&opts.SkipAncestors, "no_ancestors"},
		{&opts.SkipLayout, "no_layout"},
		{&opts.Strict, "strict"},
	}
	for _, f := range flags {
		v, err := queryBool(r, f.name, *f.dst)
		if err != nil {
			return opts, err
		}
		*f.dst = v
	}

	opts.SessionID = r.Header.Get(SessionHeader)
	if opts.SessionID == "" && s.runner.Sessions != nil {
		opts.SessionID = uuid.NewString()
	}
	return opts, nil
}

// queryBool parses a boolean query parameter, returning def when absent.
func queryBool(r *http.Request, name string, def bool) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.New(errors.ErrCodeInvalidInput, "query parameter %s: %q is not a boolean", name, v)
	}
	return b, nil
}

// =============================================================================
// Response Writing
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func withEmptySlices(g graph.Graph) graph.Graph {
	if g.Nodes == nil {
		g.Nodes = []graph.Node{}
	}
	if g.Edges == nil {
		g.Edges = []graph.Edge{}
	}
	return g
}
