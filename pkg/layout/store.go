package layout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/astra/pkg/cache"
)

// indexPrefix namespaces the per-hash key lists kept next to the layouts.
const indexPrefix = "layout-index:"

// Store caches positions by file content hash and center.
//
// Every key written for a hash is recorded in an index entry stored in the
// same cache, so invalidation works across processes sharing a FileCache or
// Redis.
type Store struct {
	cache  cache.Cache
	keyer  cache.Keyer
	logger *log.Logger

	mu sync.Mutex
}

// NewStore creates a store. Nil arguments select a NullCache, the default
// keyer and a discarding logger.
func NewStore(c cache.Cache, k cache.Keyer, logger *log.Logger) *Store {
	if c == nil {
		c = cache.NewNullCache()
	}
	if k == nil {
		k = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Store{cache: c, keyer: k, logger: logger}
}

// Observe records that current replaced previous. When they differ every
// layout stored for previous is deleted; the return value reports whether
// anything was invalidated. An empty previous means there was no earlier file.
func (s *Store) Observe(ctx context.Context, previous, current string) (bool, error) {
	if previous == "" || previous == current {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.index(ctx, previous)
	if err != nil {
		return false, err
	}
	for _, k := range keys {
		if err := s.cache.Delete(ctx, k); err != nil {
			return false, fmt.Errorf("delete layout: %w", err)
		}
	}
	if err := s.cache.Delete(ctx, indexPrefix+previous); err != nil {
		return false, fmt.Errorf("delete layout index: %w", err)
	}
	s.logger.Debug("layout invalidated", "hash", short(previous), "entries", len(keys))
	return len(keys) > 0, nil
}

// Positions returns the positions for nodes around center in the file with
// content hash. A cached layout is returned unchanged when it covers every
// node; otherwise Circular is computed and stored. hit reports a cache hit.
func (s *Store) Positions(ctx context.Context, hash string, nodes []string, center string) (pos map[string]Point, hit bool, err error) {
	key := s.keyer.LayoutKey(hash, cache.LayoutKeyOpts{Center: center, Radius: DefaultRadius})

	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("read layout: %w", err)
	}
	if ok {
		if err := json.Unmarshal(data, &pos); err == nil && covers(pos, nodes) {
			return pos, true, nil
		}
		s.logger.Debug("discarding unusable cached layout", "hash", short(hash))
	}

	pos = Circular(nodes, center)
	data, err = json.Marshal(pos)
	if err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.cache.Set(ctx, key, data, cache.TTLLayout); err != nil {
		return nil, false, fmt.Errorf("store layout: %w", err)
	}
	if err := s.remember(ctx, hash, key); err != nil {
		return nil, false, err
	}
	return pos, false, nil
}

// index reads the keys recorded for hash. Callers hold s.mu.
func (s *Store) index(ctx context.Context, hash string) ([]string, error) {
	data, ok, err := s.cache.Get(ctx, indexPrefix+hash)
	if err != nil {
		return nil, fmt.Errorf("read layout index: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, nil
	}
	return keys, nil
}

// remember adds key to the index of hash. Callers hold s.mu.
func (s *Store) remember(ctx context.Context, hash, key string) error {
	keys, err := s.index(ctx, hash)
	if err != nil {
		return err
	}
	if slices.Contains(keys, key) {
		return nil
	}
	data, err := json.Marshal(append(keys, key))
	if err != nil {
		return err
	}
	if err := s.cache.Set(ctx, indexPrefix+hash, data, cache.TTLLayout); err != nil {
		return fmt.Errorf("store layout index: %w", err)
	}
	return nil
}

func covers(pos map[string]Point, nodes []string) bool {
	if len(pos) != len(nodes) {
		return false
	}
	for _, n := range nodes {
		if _, ok := pos[n]; !ok {
			return false
		}
	}
	return true
}

func short(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
