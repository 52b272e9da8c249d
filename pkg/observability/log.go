package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks reports pipeline and cache events to a logger at debug level.
// HTTP requests are logged by the server itself, so OnRequest and
// OnResponse do nothing; OnError still records the failure.
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks returns hooks writing to logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{Logger: logger}
}

func (h *LogHooks) OnParseStart(_ context.Context, size int) {
	h.Logger.Debug("parse started", "bytes", size)
}

func (h *LogHooks) OnParseComplete(_ context.Context, individuals int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("parse failed", "duration", d, "error", err)
		return
	}
	h.Logger.Debug("parse complete", "individuals", individuals, "duration", d)
}

func (h *LogHooks) OnBuildComplete(_ context.Context, nodes, edges, anomalies int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("build failed", "duration", d, "error", err)
		return
	}
	h.Logger.Debug("build complete", "nodes", nodes, "edges", edges, "anomalies", anomalies, "duration", d)
}

func (h *LogHooks) OnLayoutStart(_ context.Context, nodeCount int) {
	h.Logger.Debug("layout started", "nodes", nodeCount)
}

func (h *LogHooks) OnLayoutComplete(_ context.Context, cached bool, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("layout failed", "duration", d, "error", err)
		return
	}
	h.Logger.Debug("layout complete", "cached", cached, "duration", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(context.Context, string, string) {}

func (h *LogHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

func (h *LogHooks) OnError(_ context.Context, method, path string, err error) {
	h.Logger.Debug("request error", "method", method, "path", path, "error", err)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ HTTPHooks     = (*LogHooks)(nil)
)

// UseLogHooks installs LogHooks for every hook family.
func UseLogHooks(logger *log.Logger) {
	h := NewLogHooks(logger)
	SetPipelineHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}
