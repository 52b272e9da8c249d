// Package cache provides the byte-oriented cache behind layout and graph reuse.
//
// Four backends implement [Cache]:
//
//   - [FileCache] stores entries as JSON files under a directory; the CLI uses
//     it so repeated runs on an unchanged file skip the layout step.
//   - [RedisCache] stores entries in Redis; the HTTP server uses it when a
//     Redis address is configured so several processes share layouts.
//   - [MemoryCache] keeps entries in process memory; the server falls back
//     to it without Redis.
//   - [NullCache] stores nothing and disables caching.
//
// Keys are built by a [Keyer] from the SHA-256 of the uploaded file plus the
// options that influence the cached value, so a changed file never hits a
// stale entry.
package cache

import (
	"context"
	"time"
)

// Default time-to-live values.
const (
	TTLLayout = 7 * 24 * time.Hour
	TTLGraph  = 24 * time.Hour
)

// Cache is a key/value store for serialized values.
//
// Get reports a miss with ok == false and a nil error; errors are reserved
// for backend failures. A ttl of zero means the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Cleaner is implemented by backends that must purge expired entries
// themselves. Redis and the file cache expire or overwrite entries on their
// own and do not implement it.
type Cleaner interface {
	Cleanup(ctx context.Context) error
}

// GraphKeyOpts are the options that change a built graph.
type GraphKeyOpts struct {
	Palette   string `json:"palette"`
	Root      string `json:"root"`
	Highlight string `json:"highlight"`
	Ancestors bool   `json:"ancestors"`
	Layout    bool   `json:"layout"`
	Strict    bool   `json:"strict"`
}

// LayoutKeyOpts are the options that change node positions.
type LayoutKeyOpts struct {
	Center string `json:"center"`
	Radius int    `json:"radius"`
}

// Keyer builds cache keys.
type Keyer interface {
	// GraphKey identifies a rendered wire graph.
	GraphKey(fileHash string, opts GraphKeyOpts) string
	// LayoutKey identifies node positions for one file and center.
	LayoutKey(fileHash string, opts LayoutKeyOpts) string
}

// DefaultKeyer produces "graph:<sha>" and "layout:<sha>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key scheme.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// GraphKey hashes the file hash together with every graph option.
func (DefaultKeyer) GraphKey(fileHash string, opts GraphKeyOpts) string {
	return hashKey("graph", fileHash, opts)
}

// LayoutKey hashes the file hash together with the layout options.
func (DefaultKeyer) LayoutKey(fileHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", fileHash, opts)
}
