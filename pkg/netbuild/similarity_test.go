package netbuild

import (
	"math"
	"testing"

	"github.com/matzehuels/enrichmap/pkg/errors"
	"github.com/matzehuels/enrichmap/pkg/merge"
	"github.com/matzehuels/enrichmap/pkg/table"
)

func unify(t *testing.T, records []table.Record) *merge.Unified {
	t.Helper()
	u, err := merge.Merge([]merge.Source{{Name: "src", Records: records}}, nil)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	return u
}

func TestBuildSimilarityJaccard(t *testing.T) {
	u := unify(t, []table.Record{
		{Name: "pathA", PValue: 0.01, Count: 3, Genes: []string{"a", "b", "c"}},
		{Name: "pathB", PValue: 0.02, Count: 3, Genes: []string{"b", "c", "d"}},
	})

	opts := DefaultSimilarityOptions()
	opts.OverlapThreshold = 0.1
	g, err := BuildSimilarity(u, opts)
	if err != nil {
		t.Fatalf("BuildSimilarity: %v", err)
	}

	edges := g.Edges()
	if len(edges) != 1 {
		t.Fatalf("edges = %d, want 1", len(edges))
	}
	// |{b,c}| / |{a,b,c,d}| = 0.5
	if math.Abs(edges[0].Weight-0.5) > 1e-12 {
		t.Errorf("weight = %v, want 0.5", edges[0].Weight)
	}
	if edges[0].Overlap != edges[0].Weight {
		t.Errorf("overlap %v != weight %v", edges[0].Overlap, edges[0].Weight)
	}
}

func TestBuildSimilarityThreshold(t *testing.T) {
	u := unify(t, []table.Record{
		{Name: "pathA", PValue: 0.01, Count: 3, Genes: []string{"a", "b", "c"}},
		{Name: "pathB", PValue: 0.02, Count: 3, Genes: []string{"b", "c", "d"}},
		{Name: "pathC", PValue: 0.03, Count: 2, Genes: []string{"x", "y"}},
	})

	opts := DefaultSimilarityOptions()
	opts.OverlapThreshold = 0.6
	g, err := BuildSimilarity(u, opts)
	if err != nil {
		t.Fatalf("BuildSimilarity: %v", err)
	}
	if got := g.EdgeCount(); got != 0 {
		t.Errorf("EdgeCount = %d, want 0 (all overlaps below threshold)", got)
	}
	if got := g.NodeCount(); got != 3 {
		t.Errorf("NodeCount = %d, want 3 (nodes survive edge pruning)", got)
	}
}

func TestBuildSimilaritySingleCategory(t *testing.T) {
	u := unify(t, []table.Record{
		{Name: "only", PValue: 0.001, Count: 10, Genes: []string{"a"}},
	})

	g, err := BuildSimilarity(u, DefaultSimilarityOptions())
	if err != nil {
		t.Fatalf("BuildSimilarity: %v", err)
	}
	if g.NodeCount() != 1 || g.EdgeCount() != 0 {
		t.Errorf("got %d nodes / %d edges, want isolated single node",
			g.NodeCount(), g.EdgeCount())
	}
}

func TestBuildSimilarityEmpty(t *testing.T) {
	// A source whose records were all filtered out still merges; the
	// network builder is where emptiness becomes an error.
	u := unify(t, nil)

	_, err := BuildSimilarity(u, DefaultSimilarityOptions())
	if err == nil {
		t.Fatal("BuildSimilarity on empty table: want error")
	}
	if errors.GetCode(err) != errors.ErrCodeNoEnriched {
		t.Errorf("code = %q, want %q", errors.GetCode(err), errors.ErrCodeNoEnriched)
	}
}

func TestBuildSimilarityTopN(t *testing.T) {
	u := unify(t, []table.Record{
		{Name: "c1", PValue: 0.03, Count: 2, Genes: []string{"a"}},
		{Name: "c2", PValue: 0.01, Count: 2, Genes: []string{"b"}},
		{Name: "c3", PValue: 0.02, Count: 2, Genes: []string{"c"}},
	})

	opts := DefaultSimilarityOptions()
	opts.TopN = 2
	g, err := BuildSimilarity(u, opts)
	if err != nil {
		t.Fatalf("BuildSimilarity: %v", err)
	}
	names := g.NodeNames()
	if len(names) != 2 || names[0] != "c2" || names[1] != "c3" {
		t.Errorf("selected = %v, want [c2 c3] by ascending p-value", names)
	}
}

func TestSizeFromCount(t *testing.T) {
	tests := []struct {
		count  int
		factor float64
		want   float64
	}{
		{100, 10, 20},
		{10, 10, 10},
		{1, 10, 0},
		{0, 10, 0},
		{-3, 10, 0},
	}
	for _, tt := range tests {
		if got := sizeFromCount(tt.count, tt.factor); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("sizeFromCount(%d, %v) = %v, want %v", tt.count, tt.factor, got, tt.want)
		}
	}
}

func TestJaccardEmptyUnion(t *testing.T) {
	if got := jaccard([]float64{0, 0}, []float64{0, 0}); got != 0 {
		t.Errorf("jaccard of empty sets = %v, want 0", got)
	}
}
