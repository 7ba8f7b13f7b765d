// Package merge reconciles per-source enrichment tables into one unified
// table keyed by category name.
//
// Numeric columns resolve by best value across sources (minimum p-value,
// maximum gene count), annotation columns by first-available-source
// precedence, and gene lists by order-preserving deduplicated union. Source
// order is the caller's input order and is observable in every output.
package merge

import (
	"slices"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/enrichmap/pkg/colorenc"
	"github.com/matzehuels/enrichmap/pkg/errors"
	"github.com/matzehuels/enrichmap/pkg/matrix"
	"github.com/matzehuels/enrichmap/pkg/table"
)

// Source is one named, colored collection of enrichment records plus an
// optional pre-supplied universe of tested items. The merger never mutates
// the caller's records.
type Source struct {
	Name     string
	Color    colorenc.Color
	Records  []table.Record
	Universe []string
}

// Row is one merged category.
type Row struct {
	Name   string            `json:"name"`
	PValue float64           `json:"p_value"` // minimum across sources
	Count  int               `json:"count"`   // maximum across sources
	Genes  []string          `json:"genes"`
	Annot  map[string]string `json:"annot,omitempty"`
}

// Unified is the merged enrichment table. Category names are unique; row
// order is first-seen order across sources and never changes after the
// merge. Rows only ever disappear through explicit filtering.
type Unified struct {
	Sources    []string
	AnnotCols  []string
	Categories []string
	rows       map[string]*Row

	// PValues and Counts are the category incidence matrices the reductions
	// came from, kept for the result bundle.
	PValues *matrix.Incidence
	Counts  *matrix.Incidence
}

// Row returns the merged row for a category and whether it exists.
func (u *Unified) Row(name string) (*Row, bool) {
	r, ok := u.rows[name]
	return r, ok
}

// Len returns the number of merged categories.
func (u *Unified) Len() int { return len(u.Categories) }

// TopBySignificance returns up to n category names ordered by ascending
// merged p-value. Ties keep merge order, so the result is deterministic.
// n <= 0 returns all categories.
func (u *Unified) TopBySignificance(n int) []string {
	names := slices.Clone(u.Categories)
	sort.SliceStable(names, func(i, j int) bool {
		return u.rows[names[i]].PValue < u.rows[names[j]].PValue
	})
	if n > 0 && n < len(names) {
		names = names[:n]
	}
	return names
}

// Merge combines the given sources into a unified table.
//
// Returns CONFIG_NO_SOURCES for an empty input and CONFIG_DUPLICATE_KEY when
// a single source contains the same category name twice (an ambiguous merge
// the caller must resolve). Annotation conflicts between sources keep the
// earliest source's value; the conflict is logged at debug level on logger.
func Merge(sources []Source, logger *log.Logger) (*Unified, error) {
	if logger == nil {
		logger = log.Default()
	}
	if len(sources) == 0 {
		return nil, errors.New(errors.ErrCodeNoSources, "no enrichment sources given")
	}

	pCols := make([]*matrix.Column, len(sources))
	cntCols := make([]*matrix.Column, len(sources))
	for i, src := range sources {
		pc := matrix.NewColumn(src.Name)
		cc := matrix.NewColumn(src.Name)
		for _, rec := range src.Records {
			if err := pc.Set(rec.Name, rec.PValue); err != nil {
				return nil, errors.New(errors.ErrCodeDuplicateKey,
					"source %q: duplicate category %q", src.Name, rec.Name)
			}
			// Same keys as the p-value column, so Set cannot fail here.
			_ = cc.Set(rec.Name, float64(rec.Count))
		}
		pCols[i] = pc
		cntCols[i] = cc
	}

	// Fill 1 for p-values: absence means "not enriched". Fill 0 for counts.
	pInc, err := matrix.Build(pCols, 1)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "build p-value incidence")
	}
	cntInc, err := matrix.Build(cntCols, 0)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "build count incidence")
	}

	u := &Unified{
		Sources:    make([]string, len(sources)),
		Categories: pInc.Rows(),
		rows:       make(map[string]*Row, len(pInc.Rows())),
		PValues:    pInc,
		Counts:     cntInc,
	}
	for i, src := range sources {
		u.Sources[i] = src.Name
	}

	pMin := pInc.RowMin()
	cntMax := cntInc.RowMax()
	for i, name := range u.Categories {
		u.rows[name] = &Row{
			Name:   name,
			PValue: pMin[i],
			Count:  int(cntMax[i]),
		}
	}

	u.mergeAnnotations(sources, logger)
	u.mergeGenes(sources)

	return u, nil
}

// mergeAnnotations resolves passthrough columns first-source-wins. A later
// source disagreeing on a non-missing value never overwrites; the conflict
// is logged so edge cases stay visible.
func (u *Unified) mergeAnnotations(sources []Source, logger *log.Logger) {
	seenCol := make(map[string]bool)
	for _, src := range sources {
		for _, rec := range src.Records {
			for _, col := range sortedAnnotCols(rec.Annot) {
				if !seenCol[col] {
					seenCol[col] = true
					u.AnnotCols = append(u.AnnotCols, col)
				}
				val := rec.Annot[col]
				if val == "" {
					continue
				}
				row := u.rows[rec.Name]
				if row.Annot == nil {
					row.Annot = make(map[string]string)
				}
				existing, resolved := row.Annot[col]
				if !resolved {
					row.Annot[col] = val
					continue
				}
				if existing != val {
					logger.Debug("annotation conflict, keeping earliest source",
						"category", rec.Name, "column", col,
						"kept", existing, "ignored", val, "source", src.Name)
				}
			}
		}
	}
}

// mergeGenes pools per-source gene lists per category: union, deduplicated,
// order preserved by first encounter.
func (u *Unified) mergeGenes(sources []Source) {
	seen := make(map[string]map[string]bool, len(u.rows))
	for _, src := range sources {
		for _, rec := range src.Records {
			row := u.rows[rec.Name]
			genes := seen[rec.Name]
			if genes == nil {
				genes = make(map[string]bool)
				seen[rec.Name] = genes
			}
			for _, g := range rec.Genes {
				if !genes[g] {
					genes[g] = true
					row.Genes = append(row.Genes, g)
				}
			}
		}
	}
}

// sortedAnnotCols returns a record's annotation column names in a stable
// order so merge output is reproducible run to run.
func sortedAnnotCols(annot map[string]string) []string {
	if len(annot) == 0 {
		return nil
	}
	cols := make([]string, 0, len(annot))
	for c := range annot {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// FilterSignificant returns the records with PValue <= cutoff, preserving
// order. cutoff <= 0 disables filtering. The input slice is not modified.
func FilterSignificant(records []table.Record, cutoff float64) []table.Record {
	if cutoff <= 0 {
		return slices.Clone(records)
	}
	out := make([]table.Record, 0, len(records))
	for _, r := range records {
		if r.PValue <= cutoff {
			out = append(out, r)
		}
	}
	return out
}
