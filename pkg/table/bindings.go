package table

import (
	"strconv"
	"strings"

	"github.com/matzehuels/enrichmap/pkg/errors"
)

// Bindings maps column roles to concrete column names of one source table.
// Resolved bindings are part of the pipeline result bundle so every merged
// value stays traceable to the column it came from.
type Bindings struct {
	ID        string // record identifier, unique within one source
	Name      string // category display name, the cross-source merge key
	PValue    string // enrichment p-value
	Genes     string // delimited gene list
	Count     string // gene-hit count ("" when derived from GeneRatio)
	GeneRatio string // "<hits>/<background>" fallback ("" when unused)

	// Annotations lists every remaining column in table order. These pass
	// through the merge untouched, first-source-wins.
	Annotations []string
}

// Candidates holds the column-name candidates tried for each role, in
// preference order. Matching is case-insensitive.
type Candidates struct {
	ID        []string
	Name      []string
	PValue    []string
	Genes     []string
	Count     []string
	GeneRatio []string
}

// DefaultCandidates returns the candidate sets covering the common
// enrichment-tool outputs (clusterProfiler, topGO, DAVID exports).
func DefaultCandidates() Candidates {
	return Candidates{
		ID:        []string{"ID", "id", "term_id", "GO.ID"},
		Name:      []string{"Description", "Name", "name", "Term", "term_name"},
		PValue:    []string{"p.adjust", "padj", "qvalue", "pvalue", "p_value", "P.value"},
		Genes:     []string{"geneID", "genes", "geneNames", "intersection"},
		Count:     []string{"Count", "count", "Significant", "intersection_size"},
		GeneRatio: []string{"GeneRatio", "gene_ratio"},
	}
}

// Resolve matches each role's candidates against the table's columns and
// returns the resolved bindings. Name, PValue and Genes are required; Count
// may fall back to GeneRatio. Missing required roles produce a
// CONFIG_MISSING_BINDING error naming the role.
func Resolve(t *Table, c Candidates) (Bindings, error) {
	lower := make(map[string]string, len(t.cols))
	for _, col := range t.cols {
		key := strings.ToLower(col)
		if _, seen := lower[key]; !seen {
			lower[key] = col
		}
	}

	match := func(cands []string) string {
		for _, cand := range cands {
			if col, ok := lower[strings.ToLower(cand)]; ok {
				return col
			}
		}
		return ""
	}

	b := Bindings{
		ID:        match(c.ID),
		Name:      match(c.Name),
		PValue:    match(c.PValue),
		Genes:     match(c.Genes),
		Count:     match(c.Count),
		GeneRatio: match(c.GeneRatio),
	}

	if b.Name == "" {
		return Bindings{}, errors.New(errors.ErrCodeMissingBinding,
			"no column found for role name (tried %s)", strings.Join(c.Name, ", "))
	}
	if b.PValue == "" {
		return Bindings{}, errors.New(errors.ErrCodeMissingBinding,
			"no column found for role pvalue (tried %s)", strings.Join(c.PValue, ", "))
	}
	if b.Genes == "" {
		return Bindings{}, errors.New(errors.ErrCodeMissingBinding,
			"no column found for role genes (tried %s)", strings.Join(c.Genes, ", "))
	}
	if b.Count == "" && b.GeneRatio == "" {
		return Bindings{}, errors.New(errors.ErrCodeMissingBinding,
			"no usable gene-count source: no count column (tried %s) and no gene-ratio fallback (tried %s)",
			strings.Join(c.Count, ", "), strings.Join(c.GeneRatio, ", "))
	}
	if b.ID == "" {
		b.ID = b.Name
	}

	bound := map[string]bool{
		b.ID: true, b.Name: true, b.PValue: true, b.Genes: true,
	}
	if b.Count != "" {
		bound[b.Count] = true
	}
	if b.GeneRatio != "" {
		bound[b.GeneRatio] = true
	}
	for _, col := range t.cols {
		if !bound[col] {
			b.Annotations = append(b.Annotations, col)
		}
	}

	return b, nil
}

// ParseGeneRatio parses a "<hits>/<background>" string into its two integer
// parts. The format is strict: exactly one slash, both tokens integral, no
// surrounding whitespace. Malformed input is a CONFIG_INVALID_GENE_RATIO
// error, never silently zero.
func ParseGeneRatio(s string) (hits, background int, err error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return 0, 0, errors.New(errors.ErrCodeInvalidGeneRatio,
			"gene ratio %q: want exactly one '/'", s)
	}
	hits, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, errors.New(errors.ErrCodeInvalidGeneRatio,
			"gene ratio %q: non-numeric hits %q", s, parts[0])
	}
	background, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, errors.New(errors.ErrCodeInvalidGeneRatio,
			"gene ratio %q: non-numeric background %q", s, parts[1])
	}
	return hits, background, nil
}
