// Package pkg provides the core libraries for enrichmap gene-set enrichment
// aggregation.
//
// # Overview
//
// Enrichmap merges enrichment tables from multiple analysis sources into
// unified, comparable structures. The pkg directory is organized by stage:
//
//  1. [table] - Enrichment table ingestion and column binding
//  2. [matrix] - Incidence matrices over genes and categories
//  3. [colorenc] - Color encoding of matrix values
//  4. [merge] - Cross-source merging into a unified table
//  5. [netbuild] - Similarity and concept network construction with glyphs
//  6. [netgraph] - Network representation, filtering and JSON serialization
//  7. [layout] - Graphviz position computation and range scaling
//  8. [render] - DOT and SVG export
//  9. [cache] - Content-addressed stage result caching
//  10. [pipeline] - Orchestration of the full run
//
// # Architecture
//
// The typical data flow through enrichmap:
//
//	Enrichment tables (CSV/TSV)
//	         ↓
//	    [table] package (parse + resolve column bindings)
//	         ↓
//	    [matrix] + [colorenc] packages (incidences, color encoding)
//	         ↓
//	    [merge] package (unified cross-source table)
//	         ↓
//	    [netbuild] package (similarity / concept networks, glyphs)
//	         ↓
//	    [layout] + [render] packages (positions, SVG output)
//
// # Quick Start
//
// Run the whole pipeline through the orchestrator:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/enrichmap/pkg/cache"
//	    "github.com/matzehuels/enrichmap/pkg/pipeline"
//	)
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
//	defer runner.Close()
//
//	res, err := runner.Run(context.Background(), pipeline.Options{
//	    Sources: []pipeline.SourceSpec{
//	        {Name: "GO", Path: "go_enrichment.csv"},
//	        {Name: "KEGG", Path: "kegg_enrichment.csv"},
//	    },
//	    Layouts: true,
//	})
//
// The result holds the unified table, both networks with glyph colors, and
// scaled layouts ready for rendering.
package pkg
