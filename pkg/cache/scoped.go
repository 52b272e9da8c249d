package cache

// ScopedKeyer wraps a Keyer with a prefix so several deployments (or a test
// and a real server) can share one Redis database without colliding.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "astra:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to every key.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// GraphKey generates a prefixed graph key.
func (k *ScopedKeyer) GraphKey(fileHash string, opts GraphKeyOpts) string {
	return k.prefix + k.inner.GraphKey(fileHash, opts)
}

// LayoutKey generates a prefixed layout key.
func (k *ScopedKeyer) LayoutKey(fileHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(fileHash, opts)
}
