package pipeline

import (
	"encoding/json"

	"github.com/matzehuels/enrichmap/pkg/cache"
	"github.com/matzehuels/enrichmap/pkg/colorenc"
	"github.com/matzehuels/enrichmap/pkg/errors"
	"github.com/matzehuels/enrichmap/pkg/matrix"
	"github.com/matzehuels/enrichmap/pkg/merge"
	"github.com/matzehuels/enrichmap/pkg/table"
)

// ingested is one loaded source ready for matrix building and merging.
type ingested struct {
	spec     SourceSpec
	color    colorenc.Color
	bindings table.Bindings
	hasBinds bool
	records  []table.Record
	hash     string
}

// loadSources reads every source table and resolves its bindings. Sources
// with in-memory records skip the file path entirely. The content hash
// covers the parsed records, so equal data in differently formatted files
// still keys the same.
func loadSources(opts *Options) ([]ingested, error) {
	out := make([]ingested, 0, len(opts.Sources))
	for _, spec := range opts.Sources {
		in := ingested{spec: spec, color: colorenc.MustHex(spec.Color)}

		if spec.Records != nil {
			in.records = spec.Records
		} else {
			t, err := table.ReadFile(spec.Path)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidTable, err, "source %q", spec.Name)
			}
			binds, err := table.Resolve(t, opts.Candidates)
			if err != nil {
				return nil, errors.Wrap(errors.GetCode(err), err, "source %q", spec.Name)
			}
			recs, err := table.Records(t, binds, opts.GeneDelim)
			if err != nil {
				return nil, errors.Wrap(errors.GetCode(err), err, "source %q", spec.Name)
			}
			in.bindings = binds
			in.hasBinds = true
			in.records = recs
		}

		data, err := json.Marshal(in.records)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "hash source %q", spec.Name)
		}
		in.hash = cache.Hash(data)
		out = append(out, in)
	}
	return out, nil
}

// matrices bundles the incidence and color matrices built from the raw
// (pre-filter) records.
type matrices struct {
	genes      *matrix.Incidence
	geneColors *colorenc.Matrix
	catP       *matrix.Incidence
	catPColors *colorenc.Matrix
	catCounts  *matrix.Incidence
}

// buildMatrices constructs the gene membership, category p-value and
// category count matrices over all sources, plus their color encodings.
// Gene membership is 0/1 and colored linearly; p-values are colored on a
// -log10 ramp.
func buildMatrices(sources []ingested) (*matrices, error) {
	geneCols := make([]*matrix.Column, len(sources))
	pCols := make([]*matrix.Column, len(sources))
	countCols := make([]*matrix.Column, len(sources))
	base := make(map[string]colorenc.Color, len(sources))

	for i, src := range sources {
		geneCols[i] = matrix.NewColumn(src.spec.Name)
		pCols[i] = matrix.NewColumn(src.spec.Name)
		countCols[i] = matrix.NewColumn(src.spec.Name)
		base[src.spec.Name] = src.color

		for _, rec := range src.records {
			if err := pCols[i].Set(rec.Name, rec.PValue); err != nil {
				return nil, errors.Wrap(errors.ErrCodeDuplicateKey, err,
					"source %q category %q", src.spec.Name, rec.Name)
			}
			if err := countCols[i].Set(rec.Name, float64(rec.Count)); err != nil {
				return nil, errors.Wrap(errors.ErrCodeDuplicateKey, err,
					"source %q category %q", src.spec.Name, rec.Name)
			}
			for _, gene := range rec.Genes {
				// Shared genes across categories are expected, only the
				// first sighting marks membership.
				if _, seen := geneCols[i].Cells[gene]; !seen {
					if err := geneCols[i].Set(gene, 1); err != nil {
						return nil, errors.Wrap(errors.ErrCodeInternal, err,
							"source %q gene %q", src.spec.Name, gene)
					}
				}
			}
		}
		for _, gene := range src.spec.Universe {
			if _, seen := geneCols[i].Cells[gene]; !seen {
				if err := geneCols[i].Set(gene, 1); err != nil {
					return nil, errors.Wrap(errors.ErrCodeInternal, err,
						"source %q universe gene %q", src.spec.Name, gene)
				}
			}
		}
	}

	m := &matrices{}
	var err error
	if m.genes, err = matrix.Build(geneCols, 0); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "gene matrix")
	}
	if m.catP, err = matrix.Build(pCols, 1); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "category p-value matrix")
	}
	if m.catCounts, err = matrix.Build(countCols, 0); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "category count matrix")
	}

	// Membership is binary, so a linear ramp clamped at 1 colors present
	// genes fully and absent ones blank.
	geneParams := colorenc.Params{Baseline: 0, ClampLimit: 1, Lens: 0}
	if m.geneColors, err = colorenc.Encode(m.genes, base, colorenc.TransformLinear, geneParams); err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "gene colors")
	}
	if m.catPColors, err = colorenc.Encode(m.catP, base, colorenc.TransformNegLog10, colorenc.DefaultParams()); err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "category colors")
	}
	return m, nil
}

// mergeSources merges the already-filtered per-source records in source
// order.
func mergeSources(sources []ingested, filtered map[string][]table.Record, opts *Options) (*merge.Unified, error) {
	in := make([]merge.Source, len(sources))
	for i, src := range sources {
		in[i] = merge.Source{
			Name:     src.spec.Name,
			Color:    src.color,
			Records:  filtered[src.spec.Name],
			Universe: src.spec.Universe,
		}
	}
	return merge.Merge(in, opts.Logger)
}
