// Package pipeline sequences the full enrichment-aggregation run.
//
// A run ingests per-source enrichment tables, builds the gene and category
// incidence and color matrices, filters by significance, merges the sources
// into one unified table, projects it into the similarity and concept
// networks, glyph-encodes them, optionally filters, and computes layouts.
// The [Runner] adds content-hash caching of the merge, network and layout
// stages so repeated runs over the same inputs are cheap.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Run(ctx, pipeline.Options{
//	    Sources: []pipeline.SourceSpec{
//	        {Name: "GO-BP", Path: "go_bp.tsv", Color: "#b2182b"},
//	        {Name: "KEGG", Path: "kegg.tsv", Color: "#2166ac"},
//	    },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = result.Similarity
package pipeline

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/enrichmap/pkg/cache"
	"github.com/matzehuels/enrichmap/pkg/colorenc"
	"github.com/matzehuels/enrichmap/pkg/errors"
	"github.com/matzehuels/enrichmap/pkg/layout"
	"github.com/matzehuels/enrichmap/pkg/matrix"
	"github.com/matzehuels/enrichmap/pkg/merge"
	"github.com/matzehuels/enrichmap/pkg/netbuild"
	"github.com/matzehuels/enrichmap/pkg/netgraph"
	"github.com/matzehuels/enrichmap/pkg/table"
)

const (
	// DefaultCutoff is the per-source significance cutoff applied before
	// merging.
	DefaultCutoff = 0.05

	// DefaultTopN caps the similarity network at the most significant
	// categories. Use AllCategories to disable the cap.
	DefaultTopN = 30

	// AllCategories disables the top-N selection.
	AllCategories = -1

	// DefaultOverlapThreshold prunes similarity edges below this Jaccard
	// overlap.
	DefaultOverlapThreshold = 0.2

	// DefaultSizeFactor scales log10(gene count) into node size.
	DefaultSizeFactor = 10

	// DefaultExpand is the layout range margin fraction per side.
	DefaultExpand = 0.05
)

// DefaultPalette colors sources without an explicit color, in order.
// RColorBrewer RdBu-adjacent hues that stay distinguishable when blended
// toward white.
var DefaultPalette = []string{
	"#b2182b", "#2166ac", "#1b7837", "#762a83", "#e08214", "#878787",
}

// SourceSpec names one enrichment source. Either Path (a CSV/TSV file) or
// Records must be set; Records wins when both are.
type SourceSpec struct {
	Name  string `json:"name"`
	Path  string `json:"path,omitempty"`
	Color string `json:"color,omitempty"` // hex; empty draws from DefaultPalette

	// Records supplies the table in-memory, bypassing file ingestion.
	Records []table.Record `json:"-"`

	// Universe optionally pre-supplies the full tested gene set.
	Universe []string `json:"universe,omitempty"`
}

// Options contains all configuration for an enrichment run.
// The zero value of every optional field maps to a documented default.
type Options struct {
	Sources []SourceSpec `json:"sources"`

	// Candidates override the column-name candidates used to resolve
	// bindings; zero uses table.DefaultCandidates.
	Candidates table.Candidates `json:"candidates,omitzero"`

	// GeneDelim splits gene-list cells; empty uses "/".
	GeneDelim string `json:"gene_delim,omitempty"`

	// Cutoff is the per-source p-value cutoff; 0 uses DefaultCutoff.
	Cutoff float64 `json:"cutoff,omitempty"`

	// TopN caps the similarity network; 0 uses DefaultTopN,
	// AllCategories keeps everything.
	TopN int `json:"top_n,omitempty"`

	// OverlapThreshold prunes similarity edges; 0 uses the default.
	OverlapThreshold float64 `json:"overlap_threshold,omitempty"`

	// SizeFactor scales node sizes; 0 uses the default.
	SizeFactor float64 `json:"size_factor,omitempty"`

	// ConceptRows and ConceptCols shape the concept-network glyph grid.
	// Both zero renders pie-style glyphs there too.
	ConceptRows int `json:"concept_rows,omitempty"`
	ConceptCols int `json:"concept_cols,omitempty"`

	// Filter optionally subsets the glyph-encoded networks.
	Filter *netgraph.FilterOptions `json:"filter,omitempty"`

	// Layouts enables Graphviz position computation.
	Layouts bool          `json:"layouts,omitempty"`
	Engine  layout.Engine `json:"engine,omitempty"`
	XRange  [2]float64    `json:"x_range,omitzero"`
	YRange  [2]float64    `json:"y_range,omitzero"`
	Expand  float64       `json:"expand,omitempty"`

	// Refresh bypasses cache reads (results are still written back).
	Refresh bool `json:"refresh,omitempty"`

	// CacheScope namespaces cache keys, letting projects share a cache
	// directory without collisions.
	CacheScope string `json:"cache_scope,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Sources) == 0 {
		return errors.New(errors.ErrCodeNoSources, "at least one enrichment source is required")
	}
	seen := make(map[string]bool, len(o.Sources))
	for i := range o.Sources {
		s := &o.Sources[i]
		if s.Name == "" {
			return errors.New(errors.ErrCodeInvalidOption, "source %d has no name", i)
		}
		if seen[s.Name] {
			return errors.New(errors.ErrCodeDuplicateKey, "duplicate source name %q", s.Name)
		}
		seen[s.Name] = true
		if s.Path == "" && s.Records == nil {
			return errors.New(errors.ErrCodeInvalidOption, "source %q has neither path nor records", s.Name)
		}
		if s.Color == "" {
			s.Color = DefaultPalette[i%len(DefaultPalette)]
		}
		if _, err := colorenc.Hex(s.Color); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidColor, err, "source %q", s.Name)
		}
	}

	if len(o.Candidates.Name) == 0 {
		o.Candidates = table.DefaultCandidates()
	}
	if o.GeneDelim == "" {
		o.GeneDelim = table.DefaultGeneDelimiter
	}
	if o.Cutoff == 0 {
		o.Cutoff = DefaultCutoff
	}
	if o.Cutoff < 0 || o.Cutoff > 1 {
		return errors.New(errors.ErrCodeInvalidOption, "cutoff %v outside (0, 1]", o.Cutoff)
	}
	if o.TopN == 0 {
		o.TopN = DefaultTopN
	}
	if o.OverlapThreshold == 0 {
		o.OverlapThreshold = DefaultOverlapThreshold
	}
	if o.SizeFactor == 0 {
		o.SizeFactor = DefaultSizeFactor
	}
	if o.Engine == "" {
		o.Engine = layout.EngineNeato
	}
	if o.Expand == 0 {
		o.Expand = DefaultExpand
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	o.validated = true
	return nil
}

// similarityOptions maps run options onto the similarity builder.
func (o *Options) similarityOptions() netbuild.SimilarityOptions {
	opts := netbuild.DefaultSimilarityOptions()
	if o.TopN == AllCategories {
		opts.TopN = 0
	} else {
		opts.TopN = o.TopN
	}
	opts.OverlapThreshold = o.OverlapThreshold
	opts.SizeFactor = o.SizeFactor
	return opts
}

// conceptOptions maps run options onto the concept builder.
func (o *Options) conceptOptions() netbuild.ConceptOptions {
	opts := netbuild.DefaultConceptOptions()
	opts.SizeFactor = o.SizeFactor
	return opts
}

// mergeKeyOpts returns the cache key options for the merge stage.
func (o *Options) mergeKeyOpts() cache.MergeKeyOpts {
	names := make([]string, len(o.Sources))
	for i, s := range o.Sources {
		names[i] = s.Name
	}
	return cache.MergeKeyOpts{
		Cutoff:     o.Cutoff,
		GeneDelim:  o.GeneDelim,
		SourceList: joinNames(names),
	}
}

// networkKeyOpts returns the cache key options for one network stage.
func (o *Options) networkKeyOpts(kind string) cache.NetworkKeyOpts {
	return cache.NetworkKeyOpts{
		Kind:             kind,
		TopN:             o.TopN,
		OverlapThreshold: o.OverlapThreshold,
		SizeFactor:       o.SizeFactor,
	}
}

// layoutKeyOpts returns the cache key options for the layout stage.
func (o *Options) layoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Engine: string(o.Engine),
		XRange: o.XRange,
		YRange: o.YRange,
		Expand: o.Expand,
	}
}

// Result contains the outputs of an enrichment run.
type Result struct {
	// RunID uniquely identifies this execution.
	RunID string

	// SourceColors are the resolved base colors keyed by source name.
	SourceColors map[string]colorenc.Color

	// Bindings are the resolved column bindings per file-ingested source.
	Bindings map[string]table.Bindings

	// Tables are the significance-filtered per-source records.
	Tables map[string][]table.Record

	// Gene-level matrices: 0/1 membership and its color encoding.
	GeneIncidence *matrix.Incidence
	GeneColors    *colorenc.Matrix

	// Category-level matrices: per-source p-values (fill 1) with colors,
	// and per-source gene counts (fill 0).
	CategoryPValues *matrix.Incidence
	CategoryPColors *colorenc.Matrix
	CategoryCounts  *matrix.Incidence

	// Unified is the merged enrichment table.
	Unified *merge.Unified

	// Networks: plain, glyph-encoded, and filtered variants. Filtered
	// variants are nil when no filter was configured; a network is nil
	// when its build failed with a data-shape error (see Problems).
	Similarity         *netgraph.Graph
	SimilarityGlyph    *netgraph.Graph
	SimilarityFiltered *netgraph.Graph
	Concept            *netgraph.Graph
	ConceptGlyph       *netgraph.Graph
	ConceptFiltered    *netgraph.Graph

	// Layouts and their final ranges; nil unless Options.Layouts.
	SimilarityLayout *layout.Layout
	SimilarityRanges layout.Ranges
	ConceptLayout    *layout.Layout
	ConceptRanges    layout.Ranges

	// Problems lists data-shape failures that voided individual networks
	// without aborting the run.
	Problems []string

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains run statistics.
type Stats struct {
	Sources    int
	Categories int
	Genes      int

	SimilarityNodes int
	SimilarityEdges int
	ConceptNodes    int
	ConceptEdges    int

	IngestTime  time.Duration
	MergeTime   time.Duration
	NetworkTime time.Duration
	GlyphTime   time.Duration
	LayoutTime  time.Duration
}

// CacheInfo tracks cache hits per stage.
type CacheInfo struct {
	MergeHit            bool
	SimilarityHit       bool
	ConceptHit          bool
	SimilarityLayoutHit bool
	ConceptLayoutHit    bool
}

func joinNames(names []string) string {
	return strings.Join(names, "\x00")
}
