package cache

// ScopedKeyer wraps a Keyer with a prefix so separate projects sharing one
// cache directory get isolated namespaces.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "liver-study:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// TableKey generates a prefixed key for an ingested source table.
func (k *ScopedKeyer) TableKey(contentHash string) string {
	return k.prefix + k.inner.TableKey(contentHash)
}

// MergeKey generates a prefixed key for a merged table.
func (k *ScopedKeyer) MergeKey(tableHashes []string, opts MergeKeyOpts) string {
	return k.prefix + k.inner.MergeKey(tableHashes, opts)
}

// NetworkKey generates a prefixed key for a built network.
func (k *ScopedKeyer) NetworkKey(unifiedHash string, opts NetworkKeyOpts) string {
	return k.prefix + k.inner.NetworkKey(unifiedHash, opts)
}

// LayoutKey generates a prefixed key for computed positions.
func (k *ScopedKeyer) LayoutKey(networkHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(networkHash, opts)
}
