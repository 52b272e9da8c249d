package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/astra/pkg/cache"
	"github.com/matzehuels/astra/pkg/errors"
	"github.com/matzehuels/astra/pkg/family"
	"github.com/matzehuels/astra/pkg/gedcom"
	"github.com/matzehuels/astra/pkg/graph"
	"github.com/matzehuels/astra/pkg/layout"
	"github.com/matzehuels/astra/pkg/observability"
	"github.com/matzehuels/astra/pkg/palette"
	"github.com/matzehuels/astra/pkg/session"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner holds no per-run state; multiple goroutines can use the same
// Runner with different options and uploads.
type Runner struct {
	Cache    cache.Cache
	Keyer    cache.Keyer
	Sessions session.Store
	Layouts  *layout.Store
	Logger   *log.Logger
}

// NewRunner creates a runner.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// If sessions is nil, runs never invalidate layouts.
func NewRunner(c cache.Cache, keyer cache.Keyer, sessions session.Store, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:    c,
		Keyer:    keyer,
		Sessions: sessions,
		Layouts:  layout.NewStore(c, keyer, logger),
		Logger:   logger,
	}
}

// Load validates and parses data and builds the family graph.
func (r *Runner) Load(ctx context.Context, data []byte, strict bool) (*Loaded, error) {
	hooks := observability.Pipeline()
	hash := cache.Hash(data)

	parseStart := time.Now()
	hooks.OnParseStart(ctx, len(data))
	rec, err := parse(data, strict)
	individuals := 0
	if rec != nil {
		individuals = len(rec.Individuals())
	}
	hooks.OnParseComplete(ctx, individuals, time.Since(parseStart), err)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buildStart := time.Now()
	fg, err := family.Build(rec, family.BuildOptions{Logger: r.Logger})
	nodes, edges, anomalies := 0, 0, 0
	if fg != nil {
		nodes, edges, anomalies = len(fg.Nodes), len(fg.Edges), len(fg.Anomalies)
	}
	hooks.OnBuildComplete(ctx, nodes, edges, anomalies, time.Since(buildStart), err)
	if err != nil {
		return nil, err
	}

	return &Loaded{Record: rec, Family: fg, Hash: hash}, nil
}

func parse(data []byte, strict bool) (*gedcom.Record, error) {
	prepared, err := gedcom.Prepare(data)
	if err != nil {
		return nil, err
	}
	return gedcom.ParseBytes(prepared, gedcom.Options{Strict: strict})
}

// Ancestors loads data and returns the ancestor chain of the individual with
// long id key, key first.
func (r *Runner) Ancestors(ctx context.Context, data []byte, key string, strict bool) ([]string, error) {
	if err := errors.ValidateSelection(key); err != nil {
		return nil, err
	}
	loaded, err := r.Load(ctx, data, strict)
	if err != nil {
		return nil, err
	}
	return loaded.Family.Ancestors(loaded.Record, key)
}

// Execute runs the complete pipeline on data.
func (r *Runner) Execute(ctx context.Context, data []byte, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := r.Logger

	pal, err := opts.ResolvePalette()
	if err != nil {
		return nil, err
	}

	result := &Result{Hash: cache.Hash(data), Palette: pal}

	if opts.SessionID != "" {
		invalidated, err := r.observe(ctx, opts.SessionID, result.Hash)
		if err != nil {
			return nil, err
		}
		result.SessionID = opts.SessionID
		result.CacheInfo.LayoutInvalidated = invalidated
	}

	graphKey := r.Keyer.GraphKey(result.Hash, opts.GraphKeyOpts(pal))
	if entry, ok := r.cachedGraph(ctx, graphKey); ok {
		result.Graph = entry.Graph
		result.CacheInfo.GraphHit = true
		result.Stats.Individuals = entry.Individuals
		result.Stats.NodeCount = len(entry.Graph.Nodes)
		result.Stats.EdgeCount = len(entry.Graph.Edges)
		result.Stats.Anomalies = entry.Anomalies
		logger.Debug("graph served from cache", "hash", result.Hash[:12])
		return result, nil
	}

	// Stage 1: Load
	start := time.Now()
	loaded, err := r.Load(ctx, data, opts.Strict)
	if err != nil {
		return nil, err
	}
	fg := loaded.Family
	result.Stats.ParseTime = time.Since(start)
	result.Stats.Individuals = len(fg.Translator)
	result.Stats.NodeCount = len(fg.Nodes)
	result.Stats.EdgeCount = len(fg.Edges)
	result.Stats.Anomalies = len(fg.Anomalies)

	logger.Info("built family graph",
		"individuals", result.Stats.Individuals,
		"nodes", result.Stats.NodeCount,
		"edges", result.Stats.EdgeCount,
		"duration", result.Stats.ParseTime)

	// Stage 2: Select
	root, highlight, err := selectIndividuals(fg, opts)
	if err != nil {
		return nil, err
	}
	var ancestors []string
	if root != "" && !opts.SkipAncestors {
		ancestors, err = fg.Ancestors(loaded.Record, root)
		if err != nil {
			return nil, err
		}
	}

	// Stage 3: Color
	colorOpts := family.ColorOptions{}
	if root != "" {
		colorOpts.Individual, colorOpts.IndividualColor = root, pal.Root
		colorOpts.Ancestors, colorOpts.AncestorColor = ancestors, pal.Ancestor
	}
	if highlight != "" {
		colorOpts.Highlight, colorOpts.HighlightColor = highlight, pal.Highlight
	}
	colors := family.Colorize(fg.Nodes, pal.Individual, colorOpts)
	outlines, err := darkenAll(colors)
	if err != nil {
		return nil, err
	}

	wireOpts := graph.Options{
		Background: pal.Background,
		Root:       root,
		Highlight:  highlight,
		Ancestors:  ancestors,
		Colors:     colors,
		Outlines:   outlines,
	}

	// Stage 4: Layout
	if !opts.SkipLayout {
		layoutStart := time.Now()
		hooks := observability.Pipeline()
		hooks.OnLayoutStart(ctx, len(fg.Nodes))
		pos, hit, err := r.Layouts.Positions(ctx, result.Hash, fg.Nodes, root)
		result.Stats.LayoutTime = time.Since(layoutStart)
		hooks.OnLayoutComplete(ctx, hit, result.Stats.LayoutTime, err)
		if err != nil {
			return nil, fmt.Errorf("layout: %w", err)
		}
		recordCache(ctx, "layout", hit)
		wireOpts.Positions = pos
		result.CacheInfo.LayoutHit = hit
		logger.Debug("computed layout", "cached", hit, "duration", result.Stats.LayoutTime)
	}

	result.Graph = graph.FromFamily(fg, wireOpts)

	entry := graphEntry{
		Graph:       result.Graph,
		Individuals: result.Stats.Individuals,
		Anomalies:   result.Stats.Anomalies,
	}
	if encoded, err := json.Marshal(entry); err == nil {
		if err := r.Cache.Set(ctx, graphKey, encoded, cache.TTLGraph); err != nil {
			logger.Warn("failed to cache graph", "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "graph", len(encoded))
		}
	}

	return result, nil
}

// observe records hash in the session and drops the layouts of the file it
// replaces. Unknown sessions are created with the given id.
func (r *Runner) observe(ctx context.Context, id, hash string) (bool, error) {
	if r.Sessions == nil {
		return false, nil
	}
	if !session.ValidID(id) {
		return false, errors.New(errors.ErrCodeInvalidInput, "invalid session id %q", id)
	}
	sess, err := r.Sessions.Get(ctx, id)
	if err != nil {
		return false, fmt.Errorf("load session: %w", err)
	}
	if sess == nil {
		sess = session.New(session.DefaultTTL)
		sess.ID = id
	}
	previous := sess.Observe(hash, session.DefaultTTL)
	if err := r.Sessions.Set(ctx, sess); err != nil {
		return false, fmt.Errorf("save session: %w", err)
	}
	invalidated, err := r.Layouts.Observe(ctx, previous, hash)
	if err != nil {
		return false, err
	}
	if invalidated {
		r.Logger.Debug("file changed, layout reset", "session", id)
	}
	return invalidated, nil
}

// graphEntry is the cached form of a built graph. The counts that cannot be
// recovered from the wire graph travel with it.
type graphEntry struct {
	Graph       graph.Graph `json:"graph"`
	Individuals int         `json:"individuals"`
	Anomalies   int         `json:"anomalies"`
}

func (r *Runner) cachedGraph(ctx context.Context, key string) (graphEntry, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("graph cache lookup failed", "error", err)
		return graphEntry{}, false
	}
	if hit {
		var entry graphEntry
		if err := json.Unmarshal(data, &entry); err == nil {
			recordCache(ctx, "graph", true)
			return entry, true
		}
	}
	recordCache(ctx, "graph", false)
	return graphEntry{}, false
}

// selectIndividuals resolves the root and highlight against the built graph.
// Explicit selections that are not nodes are stale references.
func selectIndividuals(fg *family.Graph, opts Options) (root, highlight string, err error) {
	sorted := family.SortedNodes(fg.Nodes)

	if !opts.NoRoot {
		root = opts.Root
		if root == "" {
			root = family.DefaultRoot(sorted)
		} else if !fg.HasNode(root) {
			return "", "", errors.New(errors.ErrCodeStaleReference, "root %q is not part of the current graph", root)
		}
	}

	switch opts.Highlight {
	case "":
	case HighlightAuto:
		highlight = family.DefaultHighlight(sorted, root)
	default:
		if !fg.HasNode(opts.Highlight) {
			return "", "", errors.New(errors.ErrCodeStaleReference, "highlight %q is not part of the current graph", opts.Highlight)
		}
		highlight = opts.Highlight
	}
	if highlight != "" && highlight == root {
		return "", "", errors.New(errors.ErrCodeInvalidInput, "highlight must differ from the root")
	}
	return root, highlight, nil
}

func darkenAll(colors map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(colors))
	for k, c := range colors {
		d, err := palette.Darken(c, OutlineDarken)
		if err != nil {
			return nil, err
		}
		out[k] = d
	}
	return out, nil
}

func recordCache(ctx context.Context, keyType string, hit bool) {
	if hit {
		observability.Cache().OnCacheHit(ctx, keyType)
	} else {
		observability.Cache().OnCacheMiss(ctx, keyType)
	}
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
