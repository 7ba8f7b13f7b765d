package table

import (
	"strings"
	"testing"

	"github.com/matzehuels/enrichmap/pkg/errors"
)

func mustTable(t *testing.T, cols []string) *Table {
	t.Helper()
	tbl, err := New(cols)
	if err != nil {
		t.Fatal(err)
	}
	return tbl
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		cols     []string
		wantErr  errors.Code
		check    func(t *testing.T, b Bindings)
	}{
		{
			name: "ClusterProfilerShape",
			cols: []string{"ID", "Description", "GeneRatio", "p.adjust", "geneID", "Count", "Source"},
			check: func(t *testing.T, b Bindings) {
				if b.Name != "Description" || b.PValue != "p.adjust" || b.Genes != "geneID" || b.Count != "Count" {
					t.Errorf("bindings = %+v", b)
				}
				if len(b.Annotations) != 1 || b.Annotations[0] != "Source" {
					t.Errorf("annotations = %v, want [Source]", b.Annotations)
				}
			},
		},
		{
			name: "CaseInsensitive",
			cols: []string{"id", "description", "PVALUE", "GENES", "COUNT"},
			check: func(t *testing.T, b Bindings) {
				if b.PValue != "PVALUE" {
					t.Errorf("PValue = %q, want PVALUE", b.PValue)
				}
				if b.Count != "COUNT" {
					t.Errorf("Count = %q, want COUNT", b.Count)
				}
			},
		},
		{
			name: "GeneRatioFallback",
			cols: []string{"Description", "pvalue", "genes", "GeneRatio"},
			check: func(t *testing.T, b Bindings) {
				if b.Count != "" || b.GeneRatio != "GeneRatio" {
					t.Errorf("count = %q, ratio = %q", b.Count, b.GeneRatio)
				}
			},
		},
		{
			name: "IDFallsBackToName",
			cols: []string{"Description", "pvalue", "genes", "Count"},
			check: func(t *testing.T, b Bindings) {
				if b.ID != "Description" {
					t.Errorf("ID = %q, want Description", b.ID)
				}
			},
		},
		{
			name:    "MissingName",
			cols:    []string{"pvalue", "genes", "Count"},
			wantErr: errors.ErrCodeMissingBinding,
		},
		{
			name:    "MissingPValue",
			cols:    []string{"Description", "genes", "Count"},
			wantErr: errors.ErrCodeMissingBinding,
		},
		{
			name:    "NoCountAndNoRatio",
			cols:    []string{"Description", "pvalue", "genes"},
			wantErr: errors.ErrCodeMissingBinding,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Resolve(mustTable(t, tt.cols), DefaultCandidates())

			if tt.wantErr != "" {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want code %s", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if tt.check != nil {
				tt.check(t, b)
			}
		})
	}
}

func TestResolveErrorNamesRole(t *testing.T) {
	_, err := Resolve(mustTable(t, []string{"Description", "genes", "Count"}), DefaultCandidates())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "pvalue") {
		t.Errorf("error %q should name the missing role", err)
	}
}

func TestParseGeneRatio(t *testing.T) {
	tests := []struct {
		input    string
		hits, bg int
		wantErr  bool
	}{
		{"12/230", 12, 230, false},
		{"0/1", 0, 1, false},
		{"12", 0, 0, true},
		{"12/230/4", 0, 0, true},
		{"a/230", 0, 0, true},
		{"12/b", 0, 0, true},
		{"12 /230", 0, 0, true}, // whitespace is not tolerated
		{"", 0, 0, true},
	}

	for _, tt := range tests {
		hits, bg, err := ParseGeneRatio(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseGeneRatio(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if err != nil {
			if !errors.Is(err, errors.ErrCodeInvalidGeneRatio) {
				t.Errorf("ParseGeneRatio(%q) code = %q", tt.input, errors.GetCode(err))
			}
			continue
		}
		if hits != tt.hits || bg != tt.bg {
			t.Errorf("ParseGeneRatio(%q) = %d/%d, want %d/%d", tt.input, hits, bg, tt.hits, tt.bg)
		}
	}
}

func TestRecords(t *testing.T) {
	tbl := mustTable(t, []string{"ID", "Description", "pvalue", "geneID", "GeneRatio", "Source"})
	tbl.Append([]string{"GO:1", "apoptosis", "0.01", "TP53/BAX/CASP3", "3/120", "GO"})
	tbl.Append([]string{"GO:2", "cell cycle", "0.2", "CDK1", "1/90", "GO"})

	b, err := Resolve(tbl, DefaultCandidates())
	if err != nil {
		t.Fatal(err)
	}

	recs, err := Records(tbl, b, "")
	if err != nil {
		t.Fatalf("Records: %v", err)
	}

	if len(recs) != 2 {
		t.Fatalf("records = %d, want 2", len(recs))
	}

	r := recs[0]
	if r.Name != "apoptosis" || r.PValue != 0.01 {
		t.Errorf("record = %+v", r)
	}
	if r.Count != 3 || r.Background != 120 {
		t.Errorf("count = %d/%d, want 3/120", r.Count, r.Background)
	}
	if len(r.Genes) != 3 || r.Genes[0] != "TP53" {
		t.Errorf("genes = %v", r.Genes)
	}
	if r.Annot["Source"] != "GO" {
		t.Errorf("annot = %v", r.Annot)
	}
}

func TestRecordsMalformedRatio(t *testing.T) {
	tbl := mustTable(t, []string{"Description", "pvalue", "genes", "GeneRatio"})
	tbl.Append([]string{"apoptosis", "0.01", "TP53", "bad/ratio"})

	b, err := Resolve(tbl, DefaultCandidates())
	if err != nil {
		t.Fatal(err)
	}

	_, err = Records(tbl, b, "")
	if !errors.Is(err, errors.ErrCodeInvalidGeneRatio) {
		t.Errorf("error = %v, want CONFIG_INVALID_GENE_RATIO", err)
	}
}

func TestRecordsBadPValue(t *testing.T) {
	tbl := mustTable(t, []string{"Description", "pvalue", "genes", "Count"})
	tbl.Append([]string{"apoptosis", "not-a-number", "TP53", "1"})

	b, err := Resolve(tbl, DefaultCandidates())
	if err != nil {
		t.Fatal(err)
	}

	_, err = Records(tbl, b, "")
	if !errors.Is(err, errors.ErrCodeInvalidTable) {
		t.Errorf("error = %v, want CONFIG_INVALID_TABLE", err)
	}
}

func TestSplitGenes(t *testing.T) {
	tests := []struct {
		cell  string
		delim string
		want  int
	}{
		{"TP53/BAX", "/", 2},
		{"TP53, BAX", ",", 2},
		{"TP53//BAX", "/", 2}, // empty entries dropped
		{"", "/", 0},
		{" / ", "/", 0},
	}

	for _, tt := range tests {
		got := SplitGenes(tt.cell, tt.delim)
		if len(got) != tt.want {
			t.Errorf("SplitGenes(%q) = %v, want %d entries", tt.cell, got, tt.want)
		}
	}
}
