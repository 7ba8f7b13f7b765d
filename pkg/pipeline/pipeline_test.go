package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/enrichmap/pkg/cache"
	"github.com/matzehuels/enrichmap/pkg/errors"
	"github.com/matzehuels/enrichmap/pkg/netgraph"
	"github.com/matzehuels/enrichmap/pkg/table"
)

func testOptions() Options {
	return Options{
		Sources: []SourceSpec{
			{
				Name:  "GO",
				Color: "#b2182b",
				Records: []table.Record{
					{ID: "GO:1", Name: "apoptosis", PValue: 0.001, Count: 3, Genes: []string{"a", "b", "c"}},
					{ID: "GO:2", Name: "cell cycle", PValue: 0.01, Count: 3, Genes: []string{"b", "c", "d"}},
					{ID: "GO:3", Name: "weak signal", PValue: 0.8, Count: 1, Genes: []string{"z"}},
				},
			},
			{
				Name:  "KEGG",
				Color: "#2166ac",
				Records: []table.Record{
					{ID: "K1", Name: "apoptosis", PValue: 0.005, Count: 2, Genes: []string{"a", "d"}},
				},
			},
		},
		OverlapThreshold: 0.1,
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	opts := testOptions()
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if opts.Cutoff != DefaultCutoff {
		t.Errorf("Cutoff = %v, want default", opts.Cutoff)
	}
	if opts.TopN != DefaultTopN {
		t.Errorf("TopN = %v, want default", opts.TopN)
	}
	if opts.GeneDelim != table.DefaultGeneDelimiter {
		t.Errorf("GeneDelim = %q, want default", opts.GeneDelim)
	}
	if opts.Logger == nil {
		t.Error("Logger not defaulted")
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Options)
		code errors.Code
	}{
		{"no sources", func(o *Options) { o.Sources = nil }, errors.ErrCodeNoSources},
		{"unnamed source", func(o *Options) { o.Sources[0].Name = "" }, errors.ErrCodeInvalidOption},
		{"duplicate source", func(o *Options) { o.Sources[1].Name = "GO" }, errors.ErrCodeDuplicateKey},
		{"no data", func(o *Options) { o.Sources[0].Records = nil }, errors.ErrCodeInvalidOption},
		{"bad color", func(o *Options) { o.Sources[0].Color = "red-ish" }, errors.ErrCodeInvalidColor},
		{"bad cutoff", func(o *Options) { o.Cutoff = 1.5 }, errors.ErrCodeInvalidOption},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions()
			tt.mod(&opts)
			err := opts.ValidateAndSetDefaults()
			if errors.GetCode(err) != tt.code {
				t.Errorf("code = %q, want %q", errors.GetCode(err), tt.code)
			}
		})
	}
}

func TestRun(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	res, err := runner.Run(context.Background(), testOptions())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.RunID == "" {
		t.Error("no run ID")
	}
	if len(res.Problems) != 0 {
		t.Errorf("problems: %v", res.Problems)
	}

	// Matrices cover the raw records, pre-filter.
	if got := len(res.CategoryPValues.Rows()); got != 3 {
		t.Errorf("category rows = %d, want 3", got)
	}
	if v, _ := res.CategoryPValues.Value("apoptosis", "KEGG"); v != 0.005 {
		t.Errorf("apoptosis/KEGG = %v, want 0.005", v)
	}
	if v, _ := res.CategoryPValues.Value("weak signal", "KEGG"); v != 1 {
		t.Errorf("weak signal/KEGG = %v, want fill 1", v)
	}
	if v, _ := res.GeneIncidence.Value("a", "GO"); v != 1 {
		t.Errorf("gene a/GO = %v, want 1", v)
	}
	if v, _ := res.GeneIncidence.Value("z", "KEGG"); v != 0 {
		t.Errorf("gene z/KEGG = %v, want fill 0", v)
	}

	// The merge sees only significant records: "weak signal" is gone.
	if res.Unified.Len() != 2 {
		t.Errorf("unified categories = %d, want 2", res.Unified.Len())
	}
	if len(res.Tables["GO"]) != 2 {
		t.Errorf("filtered GO records = %d, want 2", len(res.Tables["GO"]))
	}

	// apoptosis keeps the best p-value and the pooled gene union.
	row, ok := res.Unified.Row("apoptosis")
	if !ok {
		t.Fatal("apoptosis missing from unified table")
	}
	if row.PValue != 0.001 {
		t.Errorf("apoptosis p = %v, want 0.001", row.PValue)
	}
	if len(row.Genes) != 4 {
		t.Errorf("apoptosis genes = %v, want union of 4", row.Genes)
	}

	// Both networks built; glyph variants carry segments.
	if res.Similarity == nil || res.Concept == nil {
		t.Fatal("networks missing")
	}
	if res.Stats.SimilarityNodes != 2 {
		t.Errorf("similarity nodes = %d, want 2", res.Stats.SimilarityNodes)
	}
	n, ok := res.SimilarityGlyph.Node("apoptosis")
	if !ok || n.Glyph == nil {
		t.Fatal("apoptosis glyph missing")
	}
	// apoptosis is significant in both sources, so both segments survive
	// blank removal.
	if got := len(n.Glyph.Segments); got != 2 {
		t.Errorf("apoptosis segments = %d, want 2", got)
	}

	// Plain graphs stay glyph-free.
	plain, _ := res.Similarity.Node("apoptosis")
	if plain.Glyph != nil {
		t.Error("plain similarity graph was glyph-encoded")
	}

	// No filter configured, no filtered variants.
	if res.SimilarityFiltered != nil || res.ConceptFiltered != nil {
		t.Error("unexpected filtered variants")
	}
}

func TestRunWithFilter(t *testing.T) {
	opts := testOptions()
	opts.Filter = &netgraph.FilterOptions{Categories: []string{"apoptosis"}}

	runner := NewRunner(nil, nil, nil)
	res, err := runner.Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ConceptFiltered == nil {
		t.Fatal("no filtered concept network")
	}
	if _, ok := res.ConceptFiltered.Node("cell cycle"); ok {
		t.Error("cell cycle should be filtered out")
	}
	if _, ok := res.ConceptFiltered.Node("apoptosis"); !ok {
		t.Error("apoptosis should survive the filter")
	}
}

func TestRunEmptyAfterCutoff(t *testing.T) {
	opts := Options{
		Sources: []SourceSpec{{
			Name:  "GO",
			Color: "#b2182b",
			Records: []table.Record{
				{ID: "GO:1", Name: "nothing here", PValue: 0.9, Count: 1, Genes: []string{"a"}},
			},
		}},
	}

	runner := NewRunner(nil, nil, nil)
	res, err := runner.Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Matrices survive; both networks are voided and reported.
	if res.CategoryPValues == nil || len(res.CategoryPValues.Rows()) != 1 {
		t.Error("matrices should be built before filtering empties the run")
	}
	if res.Similarity != nil || res.Concept != nil {
		t.Error("networks should be nil for an empty selection")
	}
	if len(res.Problems) != 2 {
		t.Errorf("problems = %v, want one per network", res.Problems)
	}
}

func TestRunCaching(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	runner := NewRunner(c, nil, nil)
	defer runner.Close()

	ctx := context.Background()
	first, err := runner.Run(ctx, testOptions())
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if first.CacheInfo.MergeHit || first.CacheInfo.SimilarityHit {
		t.Error("first run should miss")
	}

	second, err := runner.Run(ctx, testOptions())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if !second.CacheInfo.MergeHit || !second.CacheInfo.SimilarityHit || !second.CacheInfo.ConceptHit {
		t.Errorf("second run should hit: %+v", second.CacheInfo)
	}

	// Cached and fresh unified tables agree.
	if second.Unified.Len() != first.Unified.Len() {
		t.Error("cached unified table differs")
	}

	// Refresh bypasses reads.
	opts := testOptions()
	opts.Refresh = true
	third, err := runner.Run(ctx, opts)
	if err != nil {
		t.Fatalf("third Run: %v", err)
	}
	if third.CacheInfo.MergeHit {
		t.Error("refresh run should not read the cache")
	}
}

func TestRunIDUnique(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	a, err := runner.Run(context.Background(), testOptions())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	b, err := runner.Run(context.Background(), testOptions())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if a.RunID == b.RunID {
		t.Error("run IDs should be unique")
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.toml")
	content := `
cutoff = 0.01
top_n = 40

[[source]]
name = "GO"
path = "go.tsv"
color = "#b2182b"

[[source]]
name = "KEGG"
path = "kegg.tsv"

[filter]
min_category_degree = 2
remove_singlets = true

[layout]
engine = "fdp"
x_range = [0.0, 1.0]
y_range = [0.0, 1.0]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	opts := cfg.Options()

	if opts.Cutoff != 0.01 || opts.TopN != 40 {
		t.Errorf("numeric options not carried: %+v", opts)
	}
	if len(opts.Sources) != 2 || opts.Sources[1].Name != "KEGG" {
		t.Errorf("sources not carried: %+v", opts.Sources)
	}
	if opts.Filter == nil || opts.Filter.MinDegree[netgraph.KindCategory] != 2 || !opts.Filter.RemoveSinglets {
		t.Errorf("filter not carried: %+v", opts.Filter)
	}
	if !opts.Layouts || opts.Engine != "fdp" {
		t.Errorf("layout not carried: engine=%q layouts=%v", opts.Engine, opts.Layouts)
	}
}

func TestLoadConfigMissing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if errors.GetCode(err) != errors.ErrCodeFileNotFound {
		t.Errorf("code = %q, want %q", errors.GetCode(err), errors.ErrCodeFileNotFound)
	}
}
