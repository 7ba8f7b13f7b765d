// Package cache provides content-addressed caching for pipeline stages.
//
// Enrichment runs are deterministic, so a stage's output is fully keyed by
// a hash of its inputs and options. The [Keyer] builds those keys; [Cache]
// stores the serialized stage outputs. [FileCache] backs CLI usage,
// [NullCache] disables caching.
package cache

import (
	"context"
	"time"
)

// Cache is the storage interface for serialized stage outputs.
type Cache interface {
	// Get retrieves a value. The bool reports a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores a value with a TTL. A zero TTL never expires; a negative
	// TTL stores an already-expired entry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases any resources.
	Close() error
}

// Default TTLs per stage. Merged tables change only with their inputs, so
// they keep longer; rendered artifacts are cheap to redo.
const (
	TTLTable    = 30 * 24 * time.Hour
	TTLNetwork  = 30 * 24 * time.Hour
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// MergeKeyOpts feed the unified-table cache key.
type MergeKeyOpts struct {
	Cutoff     float64 `json:"cutoff"`
	GeneDelim  string  `json:"gene_delim"`
	SourceList string  `json:"sources"`
}

// NetworkKeyOpts feed the network cache key.
type NetworkKeyOpts struct {
	Kind             string  `json:"kind"` // "similarity" or "concept"
	TopN             int     `json:"top_n"`
	OverlapThreshold float64 `json:"overlap_threshold"`
	SizeFactor       float64 `json:"size_factor"`
}

// LayoutKeyOpts feed the layout cache key.
type LayoutKeyOpts struct {
	Engine string     `json:"engine"`
	XRange [2]float64 `json:"x_range"`
	YRange [2]float64 `json:"y_range"`
	Expand float64    `json:"expand"`
}

// Keyer builds cache keys for the pipeline stages. Implementations must be
// deterministic: equal inputs yield equal keys.
type Keyer interface {
	// TableKey keys an ingested source table by its content hash.
	TableKey(contentHash string) string
	// MergeKey keys a merged table by the participating table hashes and
	// merge options.
	MergeKey(tableHashes []string, opts MergeKeyOpts) string
	// NetworkKey keys a built network by the unified-table hash and build
	// options.
	NetworkKey(unifiedHash string, opts NetworkKeyOpts) string
	// LayoutKey keys computed positions by the network hash and layout
	// options.
	LayoutKey(networkHash string, opts LayoutKeyOpts) string
}

// DefaultKeyer is the standard key scheme: "<stage>:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// TableKey generates a key for an ingested source table.
func (k *DefaultKeyer) TableKey(contentHash string) string {
	return "table:" + contentHash
}

// MergeKey generates a key for a merged table.
func (k *DefaultKeyer) MergeKey(tableHashes []string, opts MergeKeyOpts) string {
	return hashKey("merge", tableHashes, opts)
}

// NetworkKey generates a key for a built network.
func (k *DefaultKeyer) NetworkKey(unifiedHash string, opts NetworkKeyOpts) string {
	return hashKey("network", unifiedHash, opts)
}

// LayoutKey generates a key for computed positions.
func (k *DefaultKeyer) LayoutKey(networkHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", networkHash, opts)
}

var _ Keyer = (*DefaultKeyer)(nil)
