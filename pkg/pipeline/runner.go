package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/enrichmap/pkg/cache"
	"github.com/matzehuels/enrichmap/pkg/colorenc"
	"github.com/matzehuels/enrichmap/pkg/errors"
	"github.com/matzehuels/enrichmap/pkg/layout"
	"github.com/matzehuels/enrichmap/pkg/merge"
	"github.com/matzehuels/enrichmap/pkg/netbuild"
	"github.com/matzehuels/enrichmap/pkg/netgraph"
	"github.com/matzehuels/enrichmap/pkg/table"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger; it doesn't store
// run results. Multiple goroutines can safely share one Runner with
// different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
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
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Run executes the complete enrichment pipeline.
//
// Configuration errors abort immediately. Data-shape errors void only the
// affected network (recorded in Result.Problems); matrices and the unified
// table built before the failure stay in the result.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = r.Logger
	}
	keyer := r.keyer(opts.CacheScope)

	result := &Result{
		RunID:        uuid.New().String(),
		SourceColors: make(map[string]colorenc.Color, len(opts.Sources)),
		Bindings:     make(map[string]table.Bindings),
	}
	result.Stats.Sources = len(opts.Sources)

	// Stage 1: ingest and build matrices.
	ingestStart := time.Now()
	sources, err := loadSources(&opts)
	if err != nil {
		return nil, err
	}
	for _, src := range sources {
		result.SourceColors[src.spec.Name] = src.color
		if src.hasBinds {
			result.Bindings[src.spec.Name] = src.bindings
		}
	}

	m, err := buildMatrices(sources)
	if err != nil {
		return nil, err
	}
	result.GeneIncidence = m.genes
	result.GeneColors = m.geneColors
	result.CategoryPValues = m.catP
	result.CategoryPColors = m.catPColors
	result.CategoryCounts = m.catCounts
	result.Stats.IngestTime = time.Since(ingestStart)
	result.Stats.Genes = len(m.genes.Rows())

	logger.Info("ingested sources",
		"sources", len(sources),
		"genes", result.Stats.Genes,
		"duration", result.Stats.IngestTime)

	// Stage 2: filter and merge, cached by source content hashes.
	mergeStart := time.Now()
	unified, filtered, mergeHit, err := r.mergeWithCache(ctx, sources, &opts, keyer)
	if err != nil {
		return nil, err
	}
	result.Unified = unified
	result.Tables = filtered
	result.CacheInfo.MergeHit = mergeHit
	result.Stats.MergeTime = time.Since(mergeStart)
	result.Stats.Categories = unified.Len()

	logger.Info("merged sources",
		"categories", unified.Len(),
		"cached", mergeHit,
		"duration", result.Stats.MergeTime)

	// Stage 3: networks, cached by the unified-table hash.
	networkStart := time.Now()
	unifiedHash := hashJSON(unified)

	sim, hit, err := r.networkWithCache(ctx, keyer, unifiedHash, opts.networkKeyOpts("similarity"), func() (*netgraph.Graph, error) {
		return netbuild.BuildSimilarity(unified, opts.similarityOptions())
	}, opts.Refresh)
	result.CacheInfo.SimilarityHit = hit
	if err != nil {
		if !errors.IsDataShape(err) {
			return nil, err
		}
		result.Problems = append(result.Problems, "similarity: "+err.Error())
		logger.Warn("similarity network skipped", "err", err)
	}
	result.Similarity = sim

	con, hit, err := r.networkWithCache(ctx, keyer, unifiedHash, opts.networkKeyOpts("concept"), func() (*netgraph.Graph, error) {
		return netbuild.BuildConcept(unified, opts.conceptOptions())
	}, opts.Refresh)
	result.CacheInfo.ConceptHit = hit
	if err != nil {
		if !errors.IsDataShape(err) {
			return nil, err
		}
		result.Problems = append(result.Problems, "concept: "+err.Error())
		logger.Warn("concept network skipped", "err", err)
	}
	result.Concept = con
	result.Stats.NetworkTime = time.Since(networkStart)

	if sim != nil {
		result.Stats.SimilarityNodes = sim.NodeCount()
		result.Stats.SimilarityEdges = sim.EdgeCount()
	}
	if con != nil {
		result.Stats.ConceptNodes = con.NodeCount()
		result.Stats.ConceptEdges = con.EdgeCount()
	}

	// Stage 4: glyph encoding on clones; plain graphs stay untouched.
	glyphStart := time.Now()
	blank := colorenc.DefaultBlankThresholds()
	if sim != nil {
		g := sim.Clone()
		netbuild.EncodeGlyphs(g, m.catPColors, m.catP, netbuild.GridShape{})
		netbuild.RemoveBlankSegments(g, blank, netbuild.PolicyShrinkRows)
		result.SimilarityGlyph = g
	}
	if con != nil {
		g := con.Clone()
		shape := netbuild.GridShape{Rows: opts.ConceptRows, Cols: opts.ConceptCols, ByRow: true}
		netbuild.EncodeGlyphs(g, m.catPColors, m.catP, shape)
		netbuild.EncodeGlyphs(g, m.geneColors, m.genes, shape)
		netbuild.RemoveBlankSegments(g, blank, netbuild.PolicyShrinkRows)
		result.ConceptGlyph = g
	}
	result.Stats.GlyphTime = time.Since(glyphStart)

	// Stage 5: optional filtering of the glyph variants.
	if opts.Filter != nil {
		if result.SimilarityGlyph != nil {
			result.SimilarityFiltered = netgraph.Filter(result.SimilarityGlyph, *opts.Filter)
		}
		if result.ConceptGlyph != nil {
			result.ConceptFiltered = netgraph.Filter(result.ConceptGlyph, *opts.Filter)
		}
	}

	// Stage 6: layouts over the final graph variants.
	if opts.Layouts {
		layoutStart := time.Now()

		if g := result.finalSimilarity(); g != nil {
			l, hit, err := r.layoutWithCache(ctx, keyer, g, &opts)
			if err != nil {
				return nil, err
			}
			result.CacheInfo.SimilarityLayoutHit = hit
			result.SimilarityLayout, result.SimilarityRanges = layout.Scale(g, l, layout.Options{
				XRange: opts.XRange,
				YRange: opts.YRange,
				Expand: opts.Expand,
			})
		}
		if g := result.finalConcept(); g != nil {
			l, hit, err := r.layoutWithCache(ctx, keyer, g, &opts)
			if err != nil {
				return nil, err
			}
			result.CacheInfo.ConceptLayoutHit = hit
			result.ConceptLayout, result.ConceptRanges = layout.Scale(g, l, layout.Options{
				XRange: opts.XRange,
				YRange: opts.YRange,
				Expand: opts.Expand,
			})
		}
		result.Stats.LayoutTime = time.Since(layoutStart)

		logger.Info("computed layouts", "duration", result.Stats.LayoutTime)
	}

	return result, nil
}

// finalSimilarity returns the similarity variant layouts apply to.
func (res *Result) finalSimilarity() *netgraph.Graph {
	if res.SimilarityFiltered != nil {
		return res.SimilarityFiltered
	}
	return res.SimilarityGlyph
}

// finalConcept returns the concept variant layouts apply to.
func (res *Result) finalConcept() *netgraph.Graph {
	if res.ConceptFiltered != nil {
		return res.ConceptFiltered
	}
	return res.ConceptGlyph
}

// mergeWithCache filters and merges the sources, consulting the cache
// before recomputing. Filtered per-source tables are always rebuilt; they
// are cheap and needed in the result either way.
func (r *Runner) mergeWithCache(ctx context.Context, sources []ingested, opts *Options, keyer cache.Keyer) (*merge.Unified, map[string][]table.Record, bool, error) {
	hashes := make([]string, len(sources))
	for i, src := range sources {
		hashes[i] = src.hash
	}
	key := keyer.MergeKey(hashes, opts.mergeKeyOpts())

	filtered := make(map[string][]table.Record, len(sources))
	for _, src := range sources {
		filtered[src.spec.Name] = merge.FilterSignificant(src.records, opts.Cutoff)
	}

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var u merge.Unified
			if err := json.Unmarshal(data, &u); err == nil {
				return &u, filtered, true, nil
			}
		}
	}

	u, err := mergeSources(sources, filtered, opts)
	if err != nil {
		return nil, nil, false, err
	}
	if data, err := json.Marshal(u); err == nil {
		_ = r.Cache.Set(ctx, key, data, cache.TTLTable)
	}
	return u, filtered, false, nil
}

// networkWithCache loads a network from cache or builds it.
func (r *Runner) networkWithCache(ctx context.Context, keyer cache.Keyer, unifiedHash string, keyOpts cache.NetworkKeyOpts, build func() (*netgraph.Graph, error), refresh bool) (*netgraph.Graph, bool, error) {
	key := keyer.NetworkKey(unifiedHash, keyOpts)

	if !refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if g, err := netgraph.ReadGraph(bytes.NewReader(data)); err == nil {
				return g, true, nil
			}
		}
	}

	g, err := build()
	if err != nil {
		return nil, false, err
	}
	if data, err := netgraph.MarshalGraph(g); err == nil {
		_ = r.Cache.Set(ctx, key, data, cache.TTLNetwork)
	}
	return g, false, nil
}

// layoutWithCache loads raw Graphviz positions from cache or computes
// them. Scaling always reruns; it is cheap and mutates graph attributes
// that are not part of the cached payload.
func (r *Runner) layoutWithCache(ctx context.Context, keyer cache.Keyer, g *netgraph.Graph, opts *Options) (*layout.Layout, bool, error) {
	data, err := netgraph.MarshalGraph(g)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "hash network for layout key")
	}
	key := keyer.LayoutKey(cache.Hash(data), opts.layoutKeyOpts())

	if !opts.Refresh {
		if cached, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var l layout.Layout
			if err := json.Unmarshal(cached, &l); err == nil && len(l.Nodes) == g.NodeCount() {
				return &l, true, nil
			}
		}
	}

	l, err := layout.Compute(ctx, g, opts.Engine)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "compute layout")
	}
	if data, err := json.Marshal(l); err == nil {
		_ = r.Cache.Set(ctx, key, data, cache.TTLLayout)
	}
	return l, false, nil
}

// keyer applies the configured cache scope.
func (r *Runner) keyer(scope string) cache.Keyer {
	if scope == "" {
		return r.Keyer
	}
	return cache.NewScopedKeyer(r.Keyer, scope+":")
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func hashJSON(v any) string {
	data, _ := json.Marshal(v)
	return cache.Hash(data)
}
