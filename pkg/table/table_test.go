package table

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/enrichmap/pkg/errors"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cols    []string
		wantErr bool
	}{
		{"Valid", []string{"ID", "Description", "pvalue"}, false},
		{"Empty", nil, false},
		{"DuplicateColumn", []string{"ID", "ID"}, true},
		{"EmptyName", []string{"ID", ""}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cols)
			if (err != nil) != tt.wantErr {
				t.Errorf("New(%v) error = %v, wantErr %v", tt.cols, err, tt.wantErr)
			}
		})
	}
}

func TestAppendAndCell(t *testing.T) {
	tbl, err := New([]string{"ID", "pvalue"})
	if err != nil {
		t.Fatal(err)
	}

	if err := tbl.Append([]string{"GO:1", "0.01"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := tbl.Append([]string{"too", "many", "cells"}); err == nil {
		t.Error("Append with wrong arity should fail")
	}

	if got := tbl.Cell(0, "pvalue"); got != "0.01" {
		t.Errorf("Cell = %q, want 0.01", got)
	}
	if got := tbl.Cell(0, "missing"); got != "" {
		t.Errorf("Cell for missing column = %q, want empty", got)
	}
	if got := tbl.Cell(5, "ID"); got != "" {
		t.Errorf("Cell out of range = %q, want empty", got)
	}
}

func TestRead(t *testing.T) {
	input := "ID,Description,pvalue\nGO:1,apoptosis,0.01\nGO:2,cell cycle,0.2\n"

	tbl, err := Read(strings.NewReader(input), ',')
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if got := tbl.RowCount(); got != 2 {
		t.Errorf("rows = %d, want 2", got)
	}
	if got := tbl.Cell(1, "Description"); got != "cell cycle" {
		t.Errorf("Cell = %q, want cell cycle", got)
	}
}

func TestReadEmpty(t *testing.T) {
	_, err := Read(strings.NewReader(""), ',')
	if err == nil {
		t.Fatal("expected error for empty input")
	}
	if !errors.Is(err, errors.ErrCodeInvalidTable) {
		t.Errorf("code = %q, want CONFIG_INVALID_TABLE", errors.GetCode(err))
	}
}

func TestReadPadsShortRows(t *testing.T) {
	input := "ID\tDescription\tpvalue\nGO:1\tapoptosis\n"

	tbl, err := Read(strings.NewReader(input), '\t')
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got := tbl.Cell(0, "pvalue"); got != "" {
		t.Errorf("padded cell = %q, want empty", got)
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "results.tsv")
	content := "ID\tpvalue\nGO:1\t0.03\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	tbl, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got := tbl.Cell(0, "pvalue"); got != "0.03" {
		t.Errorf("Cell = %q, want 0.03", got)
	}
}

func TestReadFileNotFound(t *testing.T) {
	_, err := ReadFile("nonexistent.csv")
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("code = %q, want FILE_NOT_FOUND", errors.GetCode(err))
	}
}

func TestSelect(t *testing.T) {
	tbl, _ := New([]string{"ID"})
	tbl.Append([]string{"a"})
	tbl.Append([]string{"b"})
	tbl.Append([]string{"c"})

	sub := tbl.Select(func(i int) bool { return i != 1 })

	if sub.RowCount() != 2 {
		t.Fatalf("rows = %d, want 2", sub.RowCount())
	}
	if sub.Cell(1, "ID") != "c" {
		t.Errorf("Cell = %q, want c", sub.Cell(1, "ID"))
	}
	// Original untouched.
	if tbl.RowCount() != 3 {
		t.Errorf("source table modified: rows = %d", tbl.RowCount())
	}
}

func TestCloneIsDeep(t *testing.T) {
	tbl, _ := New([]string{"ID"})
	tbl.Append([]string{"a"})

	cp := tbl.Clone()
	cp.Append([]string{"b"})

	if tbl.RowCount() != 1 {
		t.Errorf("clone mutation leaked into source: rows = %d", tbl.RowCount())
	}
}
