package table

import (
	"strconv"
	"strings"

	"github.com/matzehuels/enrichmap/pkg/errors"
)

// DefaultGeneDelimiter separates gene identifiers inside a gene-list cell.
// "/" matches clusterProfiler output; callers override per source if needed.
const DefaultGeneDelimiter = "/"

// Record is one row of one source's enrichment table after binding
// resolution. Identifiers are unique within a single source but not across
// sources; cross-source matching happens by Name.
type Record struct {
	ID         string
	Name       string
	PValue     float64
	Count      int
	Background int // background category size, 0 when unknown
	Genes      []string
	Annot      map[string]string // passthrough annotation columns
}

// Records extracts typed records from a bound table. geneDelim separates
// entries in the gene-list column; pass "" for [DefaultGeneDelimiter].
//
// Returns CONFIG_INVALID_TABLE for unparseable numeric cells and
// CONFIG_INVALID_GENE_RATIO for malformed gene-ratio fallbacks.
func Records(t *Table, b Bindings, geneDelim string) ([]Record, error) {
	if geneDelim == "" {
		geneDelim = DefaultGeneDelimiter
	}

	out := make([]Record, 0, t.RowCount())
	for i := 0; i < t.RowCount(); i++ {
		rec := Record{
			ID:   t.Cell(i, b.ID),
			Name: t.Cell(i, b.Name),
		}

		pv := t.Cell(i, b.PValue)
		p, err := strconv.ParseFloat(pv, 64)
		if err != nil {
			return nil, errors.New(errors.ErrCodeInvalidTable,
				"row %d: column %q: non-numeric p-value %q", i+1, b.PValue, pv)
		}
		rec.PValue = p

		if b.Count != "" {
			cv := t.Cell(i, b.Count)
			n, err := strconv.Atoi(cv)
			if err != nil {
				return nil, errors.New(errors.ErrCodeInvalidTable,
					"row %d: column %q: non-numeric count %q", i+1, b.Count, cv)
			}
			rec.Count = n
			if b.GeneRatio != "" {
				if _, bg, err := ParseGeneRatio(t.Cell(i, b.GeneRatio)); err == nil {
					rec.Background = bg
				}
			}
		} else {
			hits, bg, err := ParseGeneRatio(t.Cell(i, b.GeneRatio))
			if err != nil {
				return nil, err
			}
			rec.Count = hits
			rec.Background = bg
		}

		rec.Genes = SplitGenes(t.Cell(i, b.Genes), geneDelim)

		if len(b.Annotations) > 0 {
			rec.Annot = make(map[string]string, len(b.Annotations))
			for _, col := range b.Annotations {
				rec.Annot[col] = t.Cell(i, col)
			}
		}

		out = append(out, rec)
	}
	return out, nil
}

// SplitGenes splits a delimited gene-list cell, trimming whitespace and
// dropping empty entries. Order is preserved.
func SplitGenes(cell, delim string) []string {
	if cell == "" {
		return nil
	}
	parts := strings.Split(cell, delim)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
